package jsruntime

import (
	"errors"
	"fmt"
)

// ErrPageClosed is returned for work submitted after the page loop stopped.
var ErrPageClosed = errors.New("page is closed")

// ErrAlreadyRunning is returned when Run is called twice.
var ErrAlreadyRunning = errors.New("page is already running")

// ScriptError wraps an exception raised by creative script.
type ScriptError struct {
	Name string
	Err  error
}

func (e *ScriptError) Error() string {
	return fmt.Sprintf("script '%s' failed: %v", e.Name, e.Err)
}

func (e *ScriptError) Unwrap() error {
	return e.Err
}

// PathNotFoundError occurs when a dotted function name does not resolve on the global object.
type PathNotFoundError struct {
	Path    string
	Segment string
}

func (e *PathNotFoundError) Error() string {
	return fmt.Sprintf("'%s' not found while resolving '%s'", e.Segment, e.Path)
}

// NotCallableError occurs when a dotted name resolves to something that is not a function.
type NotCallableError struct {
	Path string
}

func (e *NotCallableError) Error() string {
	return fmt.Sprintf("'%s' is not a function", e.Path)
}

// PanicError reports a panic raised while running page work.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("uncaught exception: %v", e.Value)
}

// Unwrap exposes script exceptions that escaped a listener.
func (e *PanicError) Unwrap() error {
	err, _ := e.Value.(error)
	return err
}
