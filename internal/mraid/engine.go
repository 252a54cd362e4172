package mraid

import (
	"maps"

	"github.com/woxQAQ/creative-bridge/internal/bridge"
	"github.com/woxQAQ/creative-bridge/pkg/protocol"
	"go.uber.org/zap"
)

// Listener receives MRAID events.
type Listener = bridge.Listener[Event]

// Engine is the MRAID container state of one page.
//
// State changes only through the native setters. Creative commands validate
// their preconditions, and on failure fire an ErrorEvent instead of calling
// the native layer. Engine is not safe for concurrent use; it belongs to the
// page's script thread.
type Engine struct {
	bridge    *bridge.Bridge
	listeners *bridge.Listeners[Event]
	logger    *zap.Logger

	placementType   PlacementType
	state           State
	viewable        bool
	currentPosition Rect
	defaultPosition Rect
	maxSize         Size
	screenSize      Size
	supports        map[string]bool

	expand      expandProps
	resize      *ResizeProperties
	orientation OrientationProperties
}

// New creates an engine in the loading state for a screen of the given size.
func New(b *bridge.Bridge, screen Size, logger *zap.Logger) *Engine {
	full := Rect{Width: screen.Width, Height: screen.Height}
	return &Engine{
		bridge:          b,
		listeners:       bridge.NewListeners[Event](),
		logger:          logger.With(zap.String("component", "mraid")),
		placementType:   PlacementInline,
		state:           StateLoading,
		currentPosition: full,
		defaultPosition: full,
		maxSize:         screen,
		screenSize:      screen,
		supports:        map[string]bool{},
		orientation: OrientationProperties{
			AllowOrientationChange: true,
			ForceOrientation:       OrientationNone,
		},
	}
}

// AddEventListener subscribes l to name. Unknown names and nil listeners
// fire an error event instead.
func (e *Engine) AddEventListener(name string, l Listener) {
	if !IsEventName(name) {
		e.fail("event must be one of the following case sensitive values: "+quoteList(EventNames), "addEventListener")
		return
	}
	if l == nil {
		e.fail("listener must be a function", "addEventListener")
		return
	}
	e.listeners.Add(name, l)
}

// RemoveEventListener unsubscribes l from name, or every listener of name when l is nil.
func (e *Engine) RemoveEventListener(name string, l Listener) {
	e.listeners.Remove(name, l)
}

// On subscribes fn to the events of type E and returns the listener so it
// can be removed later.
func On[E Event](e *Engine, fn func(E)) Listener {
	var zero E
	l := bridge.OnEvent(func(ev Event) {
		if typed, ok := ev.(E); ok {
			fn(typed)
		}
	})
	e.AddEventListener(string(zero.Name()), l)
	return l
}

// Fire dispatches ev to its listeners. A panicking listener aborts the dispatch.
func (e *Engine) Fire(ev Event) {
	e.logger.Debug("MRAID event fired",
		zap.String("event", string(ev.Name())),
		zap.Any("args", ev.Args()),
	)
	e.listeners.Dispatch(string(ev.Name()), ev)
}

// ThrowError fires an error event for action and logs it.
func (e *Engine) ThrowError(message, action string) {
	e.fail(message, action)
}

func (e *Engine) fail(message, action string) {
	e.Fire(ErrorEvent{Message: message, Action: action})
	e.logger.Error("MRAID error thrown",
		zap.String("message", message),
		zap.String("action", action),
	)
}

func (e *Engine) fireSizeChange() {
	if e.state == StateLoading {
		return
	}
	e.Fire(SizeChangeEvent{Width: e.currentPosition.Width, Height: e.currentPosition.Height})
}

// Native setters.

// SetPlacementType stores the placement type. No event fires.
func (e *Engine) SetPlacementType(t PlacementType) {
	e.logger.Debug("Placement type set", zap.String("placement_type", string(t)))
	e.placementType = t
}

// SetPositions updates the geometry that changed and fires at most one
// sizeChange event. While loading, nothing fires.
func (e *Engine) SetPositions(p Positions) {
	changed := false

	if p.CurrentPosition != nil && *p.CurrentPosition != e.currentPosition {
		e.currentPosition = *p.CurrentPosition
		e.logger.Debug("Updated current position", zap.Any("position", e.currentPosition))
		if e.state == StateDefault {
			e.defaultPosition = e.currentPosition
			e.logger.Debug("Updated default position", zap.Any("position", e.defaultPosition))
		}
		changed = true
	}
	if p.MaxSize != nil && *p.MaxSize != e.maxSize {
		e.maxSize = *p.MaxSize
		e.logger.Debug("Updated max size", zap.Any("size", e.maxSize))
		changed = true
	}
	if p.ScreenSize != nil && *p.ScreenSize != e.screenSize {
		e.screenSize = *p.ScreenSize
		e.logger.Debug("Updated screen size", zap.Any("size", e.screenSize))
		changed = true
	}

	if changed {
		e.fireSizeChange()
	}
}

// SetState moves the container to state. Leaving loading fires ready;
// any later transition fires sizeChange (if position changed) then stateChange.
// Setting the current state again does nothing.
func (e *Engine) SetState(state State, position *Rect) {
	if state == e.state {
		return
	}

	sizeChanged := false
	if position != nil {
		currentChanged := *position != e.currentPosition
		defaultChanged := state == StateDefault && *position != e.defaultPosition
		if e.state != StateLoading && (currentChanged || defaultChanged) {
			sizeChanged = true
		}
		if currentChanged {
			e.currentPosition = *position
		}
		if defaultChanged {
			e.defaultPosition = *position
		}
	}

	leavingLoading := e.state == StateLoading
	e.logger.Info("State changing",
		zap.String("from", string(e.state)),
		zap.String("to", string(state)),
	)
	e.state = state

	if leavingLoading {
		e.Fire(ReadyEvent{})
		return
	}
	if sizeChanged {
		e.fireSizeChange()
	}
	e.Fire(StateChangeEvent{State: e.state})
}

// SetSupports replaces the supported-feature map. No event fires.
func (e *Engine) SetSupports(supports map[string]bool) {
	e.supports = maps.Clone(supports)
	if e.supports == nil {
		e.supports = map[string]bool{}
	}
}

// SetViewable updates viewability and fires viewableChange when it changed
// outside the loading state.
func (e *Engine) SetViewable(viewable bool) {
	if viewable == e.viewable {
		return
	}
	e.viewable = viewable
	if e.state != StateLoading {
		e.Fire(ViewableChangeEvent{Viewable: viewable})
	}
}

// Accessors. Every structured value is returned as a copy.

func (e *Engine) State() State                 { return e.state }
func (e *Engine) PlacementType() PlacementType { return e.placementType }
func (e *Engine) Version() string              { return Version }
func (e *Engine) IsViewable() bool             { return e.viewable }
func (e *Engine) CurrentPosition() Rect        { return e.currentPosition }
func (e *Engine) DefaultPosition() Rect        { return e.defaultPosition }
func (e *Engine) MaxSize() Size                { return e.maxSize }
func (e *Engine) ScreenSize() Size             { return e.screenSize }

// OrientationProperties returns the stored orientation properties.
func (e *Engine) OrientationProperties() OrientationProperties {
	return e.orientation
}

// SupportsMap returns a copy of the supported-feature map.
func (e *Engine) SupportsMap() map[string]bool {
	return maps.Clone(e.supports)
}

// ExpandProperties returns the expand properties with unset fields filled in:
// width and height from the max size, useCustomClose false. Expanded ads are always modal.
func (e *Engine) ExpandProperties() ExpandProperties {
	props := ExpandProperties{
		Width:   e.maxSize.Width,
		Height:  e.maxSize.Height,
		IsModal: true,
	}
	if e.expand.width != nil {
		props.Width = *e.expand.width
	}
	if e.expand.height != nil {
		props.Height = *e.expand.height
	}
	if e.expand.useCustomClose != nil {
		props.UseCustomClose = *e.expand.useCustomClose
	}
	return props
}

// ResizeProperties returns the stored resize properties, if any were accepted.
func (e *Engine) ResizeProperties() (ResizeProperties, bool) {
	if e.resize == nil {
		return ResizeProperties{}, false
	}
	props := *e.resize
	if props.AllowOffscreen != nil {
		v := *props.AllowOffscreen
		props.AllowOffscreen = &v
	}
	return props, true
}

func (e *Engine) call(action string, params ...protocol.Param) {
	e.bridge.Call(protocol.ModuleMRAID, action, params...)
}
