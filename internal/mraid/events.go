package mraid

import "fmt"

// EventName identifies an MRAID event.
type EventName string

const (
	EventError          EventName = "error"
	EventReady          EventName = "ready"
	EventSizeChange     EventName = "sizeChange"
	EventStateChange    EventName = "stateChange"
	EventViewableChange EventName = "viewableChange"
)

// EventNames lists every event a creative may listen to.
var EventNames = []EventName{EventError, EventReady, EventSizeChange, EventStateChange, EventViewableChange}

// Event is one of ReadyEvent, ErrorEvent, SizeChangeEvent, StateChangeEvent
// or ViewableChangeEvent.
type Event interface {
	Name() EventName
	// Args returns the positional listener arguments for script listeners.
	Args() []any

	isEvent()
}

// ReadyEvent fires once, when the container leaves the loading state.
type ReadyEvent struct{}

func (ReadyEvent) Name() EventName { return EventReady }
func (ReadyEvent) Args() []any     { return nil }
func (ReadyEvent) isEvent()        {}

// ErrorEvent reports a rejected creative command.
type ErrorEvent struct {
	Message string
	Action  string
}

func (ErrorEvent) Name() EventName { return EventError }
func (e ErrorEvent) Args() []any   { return []any{e.Message, e.Action} }
func (ErrorEvent) isEvent()        {}

func (e ErrorEvent) Error() string {
	return fmt.Sprintf("%s: %s", e.Action, e.Message)
}

// SizeChangeEvent carries the new current size.
type SizeChangeEvent struct {
	Width  float64
	Height float64
}

func (SizeChangeEvent) Name() EventName { return EventSizeChange }
func (e SizeChangeEvent) Args() []any   { return []any{e.Width, e.Height} }
func (SizeChangeEvent) isEvent()        {}

// StateChangeEvent carries the state the container moved to.
type StateChangeEvent struct {
	State State
}

func (StateChangeEvent) Name() EventName { return EventStateChange }
func (e StateChangeEvent) Args() []any   { return []any{string(e.State)} }
func (StateChangeEvent) isEvent()        {}

// ViewableChangeEvent carries the new viewability.
type ViewableChangeEvent struct {
	Viewable bool
}

func (ViewableChangeEvent) Name() EventName { return EventViewableChange }
func (e ViewableChangeEvent) Args() []any   { return []any{e.Viewable} }
func (ViewableChangeEvent) isEvent()        {}

// IsEventName reports whether name is a known MRAID event.
func IsEventName(name string) bool {
	for _, n := range EventNames {
		if string(n) == name {
			return true
		}
	}
	return false
}

// EventFromArgs rebuilds a typed event from the positional form the native
// layer uses when it fires events directly.
func EventFromArgs(name string, args []any) (Event, error) {
	arg := func(i int) any {
		if i < len(args) {
			return args[i]
		}
		return nil
	}

	switch EventName(name) {
	case EventReady:
		return ReadyEvent{}, nil
	case EventError:
		msg, _ := arg(0).(string)
		action, _ := arg(1).(string)
		return ErrorEvent{Message: msg, Action: action}, nil
	case EventSizeChange:
		w, _ := number(arg(0))
		h, _ := number(arg(1))
		return SizeChangeEvent{Width: w, Height: h}, nil
	case EventStateChange:
		s, _ := arg(0).(string)
		return StateChangeEvent{State: State(s)}, nil
	case EventViewableChange:
		v, _ := arg(0).(bool)
		return ViewableChangeEvent{Viewable: v}, nil
	}
	return nil, &UnknownEventError{Name: name}
}
