// Package inlinevideo holds the state of native video players embedded in a creative.
package inlinevideo

import (
	"fmt"
	"maps"
	"reflect"

	"github.com/woxQAQ/creative-bridge/internal/bridge"
	"github.com/woxQAQ/creative-bridge/pkg/protocol"
	"go.uber.org/zap"
)

// State is the player state reported by the native layer.
type State string

const (
	StateIdle         State = "idle"
	StateLoading      State = "loading"
	StateReadyToStart State = "readyToStart"
	StatePlaying      State = "playing"
	StatePaused       State = "paused"
	StateComplete     State = "complete"
	StateStopped      State = "stopped"
	StateRemoved      State = "removed"
)

// EventName identifies a player event.
type EventName string

const (
	EventStateChange    EventName = "stateChange"
	EventDurationChange EventName = "durationChange"
	EventReposition     EventName = "reposition"
	EventExpand         EventName = "expand"
	EventCollapse       EventName = "collapse"
	EventUpdateVideoURL EventName = "updateVideoURL"
	EventError          EventName = "error"
	EventMute           EventName = "mute"
	EventSeek           EventName = "seek"
	EventTimeUpdate     EventName = "timeUpdate"
	EventClick          EventName = "click"
)

// Event is a player event as pushed by the native layer.
type Event struct {
	Name   EventName
	Params []any
}

// Args returns the positional listener arguments for script listeners.
func (e Event) Args() []any { return e.Params }

// Listener receives player events.
type Listener = bridge.Listener[Event]

// Position is the player frame inside the creative.
type Position struct {
	Width  any `json:"width"`
	Height any `json:"height"`
	X      any `json:"x"`
	Y      any `json:"y"`
}

// Options are the insert options. url, width, height, x and y are required;
// every other key is passed to the native layer untouched.
type Options map[string]any

var requiredOptions = []string{"width", "height", "x", "y", "url"}

// MissingOptionError occurs when a required insert option is absent or empty.
type MissingOptionError struct {
	Option string
}

func (e *MissingOptionError) Error() string {
	return fmt.Sprintf("inline video option '%s' is required", e.Option)
}

// Video is one inline video player. The native layer assigns its id with the
// first callback; commands issued before that are dropped.
type Video struct {
	bridge    *bridge.Bridge
	listeners *bridge.Listeners[Event]
	logger    *zap.Logger
	onReady   func(*Video)

	id         any
	callbackID any

	state    State
	duration any
	url      any
	position Position
	muted    bool
	expanded bool
}

// New validates opts and asks the native layer to insert a player.
// onReady, if not nil, runs once the native layer has assigned the player id.
func New(b *bridge.Bridge, opts Options, onReady func(*Video), logger *zap.Logger) (*Video, error) {
	for _, name := range requiredOptions {
		if !exists(opts[name]) {
			return nil, &MissingOptionError{Option: name}
		}
	}

	v := &Video{
		bridge:    b,
		listeners: bridge.NewListeners[Event](),
		logger:    logger.With(zap.String("component", "inline-video")),
		onReady:   onReady,
		state:     StateIdle,
		url:       opts["url"],
		position: Position{
			Width:  opts["width"],
			Height: opts["height"],
			X:      opts["x"],
			Y:      opts["y"],
		},
		muted: truthy(opts["muted"]),
	}
	v.callbackID = b.CallbackID(bridge.NewCallback(v.handleNative))

	insert := maps.Clone(opts)
	insert["callbackId"] = v.callbackID
	b.Call(protocol.ModuleInlineVideo, "insert", protocol.ParamsFromMap(insert)...)
	return v, nil
}

// handleNative receives (videoId, event, params...) from the native layer.
func (v *Video) handleNative(args ...any) {
	if len(args) < 2 {
		v.logger.Warn("Ignoring inline video callback without an event", zap.Int("args", len(args)))
		return
	}
	if !exists(v.id) && exists(args[0]) {
		v.id = args[0]
		v.logger.Debug("Inline video bound", zap.Any("video_id", v.id))
		if v.onReady != nil {
			v.onReady(v)
		}
	}

	name, _ := args[1].(string)
	v.handleEvent(EventName(name), args[2:])
}

func (v *Video) handleEvent(name EventName, params []any) {
	param := func(i int) any {
		if i < len(params) {
			return params[i]
		}
		return nil
	}

	switch name {
	case EventStateChange:
		next, _ := param(0).(string)
		if State(next) == v.state || v.state == StateRemoved {
			return
		}
		v.state = State(next)
	case EventDurationChange:
		if looselyEqual(param(0), v.duration) {
			return
		}
		v.duration = param(0)
	case EventReposition:
		next := Position{Width: param(0), Height: param(1), X: param(2), Y: param(3)}
		if next.equal(v.position) {
			return
		}
		v.position = next
	case EventUpdateVideoURL:
		if looselyEqual(param(0), v.url) {
			return
		}
		v.url = param(0)
	case EventMute:
		muted := truthy(param(0))
		if muted == v.muted {
			return
		}
		v.muted = muted
	case EventExpand:
		v.expanded = true
	case EventCollapse:
		v.expanded = false
	}

	v.listeners.Dispatch(string(name), Event{Name: name, Params: params})
}

func (v *Video) call(action string, params ...protocol.Param) {
	if !exists(v.id) {
		v.logger.Warn("You cannot call functions on the video player before the state is changed from idle",
			zap.String("action", action))
		return
	}
	params = append([]protocol.Param{protocol.NewParam("videoId", v.id)}, params...)
	v.bridge.Call(protocol.ModuleInlineVideo, action, params...)
}

func (v *Video) Play()               { v.call("play") }
func (v *Video) Pause()              { v.call("pause") }
func (v *Video) Stop()               { v.call("stop") }
func (v *Video) TriggerTimeUpdate()  { v.call("triggerTimeUpdate") }
func (v *Video) ExpandToFullScreen() { v.call("expandToFullScreen") }
func (v *Video) Remove()             { v.call("remove") }
func (v *Video) Mute()               { v.call("setMuted", protocol.NewParam("mute", true)) }
func (v *Video) Unmute()             { v.call("setMuted", protocol.NewParam("mute", false)) }

// Seek moves playback to time.
func (v *Video) Seek(time any) {
	v.call("seek", protocol.NewParam("time", time))
}

// Reposition moves the player frame.
func (v *Video) Reposition(width, height, x, y any) {
	v.call("reposition",
		protocol.NewParam("width", width),
		protocol.NewParam("height", height),
		protocol.NewParam("x", x),
		protocol.NewParam("y", y),
	)
}

// UpdateVideoURL switches the player to url.
func (v *Video) UpdateVideoURL(url any) {
	v.call("updateVideoURL", protocol.NewParam("url", url))
}

// AddEventListener subscribes l to name.
func (v *Video) AddEventListener(name string, l Listener) {
	v.listeners.Add(name, l)
}

// RemoveEventListener unsubscribes l, or every listener of name when l is nil.
func (v *Video) RemoveEventListener(name string, l Listener) {
	v.listeners.Remove(name, l)
}

// CanPlay reports whether the player holds playable media.
func (v *Video) CanPlay() bool {
	switch v.state {
	case StatePlaying, StatePaused, StateReadyToStart, StateComplete:
		return true
	}
	return false
}

// Invalid reports whether the player was stopped or removed.
func (v *Video) Invalid() bool {
	return v.state == StateStopped || v.state == StateRemoved
}

func (v *Video) ID() any            { return v.id }
func (v *Video) CallbackID() any    { return v.callbackID }
func (v *Video) State() State       { return v.state }
func (v *Video) Duration() any      { return v.duration }
func (v *Video) URL() any           { return v.url }
func (v *Video) Position() Position { return v.position }
func (v *Video) Muted() bool        { return v.muted }
func (v *Video) Expanded() bool     { return v.expanded }

func (p Position) equal(o Position) bool {
	return looselyEqual(p.Width, o.Width) && looselyEqual(p.Height, o.Height) &&
		looselyEqual(p.X, o.X) && looselyEqual(p.Y, o.Y)
}

// looselyEqual compares values the way script equality does for the values
// the native layer sends: numbers by value, everything else structurally.
func looselyEqual(a, b any) bool {
	if x, ok := protocol.AsNumber(a); ok {
		y, ok := protocol.AsNumber(b)
		return ok && x == y
	}
	return reflect.DeepEqual(a, b)
}

func exists(v any) bool {
	if v == nil || protocol.IsNull(v) {
		return false
	}
	if s, ok := v.(string); ok {
		return s != ""
	}
	return true
}

func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	}
	if n, ok := protocol.AsNumber(v); ok {
		return n != 0
	}
	return true
}
