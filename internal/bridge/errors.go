package bridge

import "fmt"

// NamespaceNotFoundError occurs when the native layer injected no namespace for a module.
type NamespaceNotFoundError struct {
	Namespace string
}

func (e *NamespaceNotFoundError) Error() string {
	return fmt.Sprintf("injected namespace '%s' is not available", e.Namespace)
}

// ActionNotFoundError occurs when an injected namespace has no handler for an action.
type ActionNotFoundError struct {
	Namespace string
	Action    string
}

func (e *ActionNotFoundError) Error() string {
	return fmt.Sprintf("the action '%s' is not available on '%s'", e.Action, e.Namespace)
}

// CallbackNotFoundError occurs when the native layer references an unknown callback handle.
type CallbackNotFoundError struct {
	Handle string
}

func (e *CallbackNotFoundError) Error() string {
	return fmt.Sprintf("unable to call callback with id '%s' because it could not be found", e.Handle)
}
