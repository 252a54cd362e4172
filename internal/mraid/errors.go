package mraid

import "fmt"

// UnknownEventError occurs when an event name is not one of EventNames.
type UnknownEventError struct {
	Name string
}

func (e *UnknownEventError) Error() string {
	return fmt.Sprintf("unknown MRAID event '%s'", e.Name)
}
