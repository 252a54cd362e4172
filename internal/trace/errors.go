package trace

import (
	"errors"
	"fmt"
)

// ErrClosed is returned when recording into a closed recorder.
var ErrClosed = errors.New("trace recorder is closed")

// DecodeError reports a malformed record in a trace stream.
type DecodeError struct {
	Index int
	Err   error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode trace record %d: %v", e.Index, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
