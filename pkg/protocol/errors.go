package protocol

import (
	"errors"
	"fmt"
)

// PayloadError occurs when an injected handler payload is not a JSON object.
type PayloadError struct {
	Payload string
	Err     error
}

func (e *PayloadError) Error() string {
	return fmt.Sprintf("malformed injected payload '%s': %v", e.Payload, e.Err)
}

func (e *PayloadError) Unwrap() error {
	return e.Err
}

// SchemeURLError occurs when a navigation URL cannot be decoded into a call.
type SchemeURLError struct {
	URL     string
	Message string
	Err     error
}

func (e *SchemeURLError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid scheme URL '%s': %s: %v", e.URL, e.Message, e.Err)
	}
	return fmt.Sprintf("invalid scheme URL '%s': %s", e.URL, e.Message)
}

func (e *SchemeURLError) Unwrap() error {
	return e.Err
}

var errMissing = errors.New("parameter missing")
