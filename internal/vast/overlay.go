// Package vast holds the state of the web overlay drawn on top of a native VAST player.
package vast

import (
	"github.com/woxQAQ/creative-bridge/internal/bridge"
	"github.com/woxQAQ/creative-bridge/pkg/protocol"
	"go.uber.org/zap"
)

// EventName identifies an overlay event.
type EventName string

const (
	EventStateChange    EventName = "stateChange"
	EventTimeUpdate     EventName = "timeUpdate"
	EventDurationChange EventName = "durationChange"
	EventError          EventName = "error"
)

// InitialState is the player state before the native layer reports one.
const InitialState = "loading"

// Event is a player event. Value holds the new state, time, duration or
// error message depending on Name.
type Event struct {
	Name  EventName
	Value any
}

// Args returns the positional listener arguments for script listeners.
func (e Event) Args() []any {
	return []any{e.Value}
}

// Listener receives overlay events.
type Listener = bridge.Listener[Event]

// Snapshot carries the player values known when the overlay is enabled.
// Zero or nil fields leave the current value unchanged.
type Snapshot struct {
	State       string
	CurrentTime *float64
	Duration    *float64
}

// Overlay is the creative's view of the native VAST player. Player commands
// are only sent once the native layer has enabled the web overlay.
type Overlay struct {
	bridge    *bridge.Bridge
	listeners *bridge.Listeners[Event]
	logger    *zap.Logger

	enabled     bool
	state       string
	currentTime float64
	duration    *float64
}

// New creates a disabled overlay.
func New(b *bridge.Bridge, logger *zap.Logger) *Overlay {
	return &Overlay{
		bridge:    b,
		listeners: bridge.NewListeners[Event](),
		logger:    logger.With(zap.String("component", "vast")),
		state:     InitialState,
	}
}

// Native setters.

// EnableWebOverlay turns the overlay on and seeds it from current.
func (o *Overlay) EnableWebOverlay(current *Snapshot) {
	o.logger.Debug("Web overlay enabled", zap.Any("current_values", current))
	o.enabled = true
	if current == nil {
		return
	}
	if current.State != "" {
		o.state = current.State
	}
	if current.CurrentTime != nil {
		o.currentTime = *current.CurrentTime
	}
	if current.Duration != nil {
		d := *current.Duration
		o.duration = &d
	}
}

// SetState stores the player state and fires stateChange.
func (o *Overlay) SetState(state string) {
	o.state = state
	o.fire(EventStateChange, state)
}

// SetCurrentTime stores the playback position and fires timeUpdate.
func (o *Overlay) SetCurrentTime(t float64) {
	o.currentTime = t
	o.fire(EventTimeUpdate, t)
}

// SetDuration stores the media duration and fires durationChange.
func (o *Overlay) SetDuration(d float64) {
	o.duration = &d
	o.fire(EventDurationChange, d)
}

// FireError fires an error event with message.
func (o *Overlay) FireError(message string) {
	o.fire(EventError, message)
}

func (o *Overlay) fire(name EventName, value any) {
	o.listeners.Dispatch(string(name), Event{Name: name, Value: value})
}

// Creative commands.

func (o *Overlay) Play()              { o.call("play") }
func (o *Overlay) Pause()             { o.call("pause") }
func (o *Overlay) Close()             { o.call("close") }
func (o *Overlay) Skip()              { o.call("skip") }
func (o *Overlay) Restart()           { o.call("restart") }
func (o *Overlay) TriggerTimeUpdate() { o.call("triggerTimeUpdate") }

// Seek moves playback to t seconds.
func (o *Overlay) Seek(t any) {
	o.call("seek", protocol.NewParam("seekTime", t))
}

// SetTimeInterval sets how often the native layer reports the time.
func (o *Overlay) SetTimeInterval(t any) {
	o.call("setTimeInterval", protocol.NewParam("timeInterval", t))
}

func (o *Overlay) call(action string, params ...protocol.Param) {
	if !o.enabled {
		o.logger.Debug("Cannot call the player because the web overlay is not enabled", zap.String("action", action))
		return
	}
	o.bridge.Call(protocol.ModuleVAST, action, params...)
}

// AddEventListener subscribes l to name.
func (o *Overlay) AddEventListener(name string, l Listener) {
	o.listeners.Add(name, l)
}

// RemoveEventListener unsubscribes l, or every listener of name when l is nil.
func (o *Overlay) RemoveEventListener(name string, l Listener) {
	o.listeners.Remove(name, l)
}

func (o *Overlay) Enabled() bool        { return o.enabled }
func (o *Overlay) State() string        { return o.state }
func (o *Overlay) CurrentTime() float64 { return o.currentTime }

// Duration returns the media duration, if known.
func (o *Overlay) Duration() (float64, bool) {
	if o.duration == nil {
		return 0, false
	}
	return *o.duration, true
}
