package host

import (
	"sync"

	"github.com/woxQAQ/creative-bridge/internal/mraid"
	"github.com/woxQAQ/creative-bridge/pkg/protocol"
	"go.uber.org/zap"
)

// ContainerOptions describes the ad slot the container simulates.
type ContainerOptions struct {
	PlacementType mraid.PlacementType
	Screen        mraid.Size
	// Frame is the ad's default position. A zero frame fills the screen.
	Frame    mraid.Rect
	Supports map[string]bool
	// VASTDuration, when positive, plays a VAST ad of that many seconds
	// behind the creative.
	VASTDuration float64
}

// Container drives a page's MRAID state the way an ad view does: it seeds
// the page once mraid.js is loaded and answers expand, resize and close.
type Container struct {
	native *Native
	opts   ContainerOptions
	vast   *VASTPlayer
	logger *zap.Logger

	mu             sync.Mutex
	state          mraid.State
	useCustomClose bool
}

// NewContainer registers the container's handlers on n.
func NewContainer(n *Native, opts ContainerOptions, logger *zap.Logger) *Container {
	if opts.Frame == (mraid.Rect{}) {
		opts.Frame = mraid.Rect{Width: opts.Screen.Width, Height: opts.Screen.Height}
	}
	if opts.PlacementType == "" {
		opts.PlacementType = mraid.PlacementInline
	}

	c := &Container{
		native: n,
		opts:   opts,
		logger: logger.With(zap.String("component", "container")),
		state:  mraid.StateLoading,
	}
	if opts.VASTDuration > 0 {
		c.vast = NewVASTPlayer(n, opts.VASTDuration, logger)
	}

	n.Handle(protocol.ModuleGeneric, "fileLoaded", c.fileLoaded)
	n.Handle(protocol.ModuleMRAID, "expand", c.expand)
	n.Handle(protocol.ModuleMRAID, "resize", c.resize)
	n.Handle(protocol.ModuleMRAID, "close", c.close)
	n.Handle(protocol.ModuleMRAID, "useCustomClose", c.customClose)
	for _, action := range []string{"open", "playVideo", "storePicture", "createCalendarEvent", "setOrientationProperties"} {
		n.Handle(protocol.ModuleMRAID, action, c.request)
	}
	return c
}

// State returns the state last pushed to the page.
func (c *Container) State() mraid.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// UseCustomClose reports whether the creative draws its own close control.
func (c *Container) UseCustomClose() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.useCustomClose
}

func (c *Container) fileLoaded(call protocol.Call) {
	filename, _ := call.String("filename")
	c.logger.Debug("Bridge file loaded", zap.String("filename", filename))

	switch filename {
	case "mraid.js":
		c.seed()
	case "mm.js":
		if c.vast != nil {
			c.vast.Enable()
		}
	}
}

func (c *Container) seed() {
	n := c.native
	n.Push("MmJsBridge.mraid.setPlacementType", string(c.opts.PlacementType))
	n.Push("MmJsBridge.mraid.setSupports", supportsArg(c.opts.Supports))
	n.Push("MmJsBridge.mraid.setPositions", map[string]any{
		"currentPosition": rectArg(c.opts.Frame),
		"maxSize":         sizeArg(c.opts.Screen),
		"screenSize":      sizeArg(c.opts.Screen),
	})
	c.setState(mraid.StateDefault, c.opts.Frame)
	n.Push("MmJsBridge.mraid.setViewable", true)
}

func (c *Container) expand(call protocol.Call) {
	rect := mraid.Rect{Width: c.opts.Screen.Width, Height: c.opts.Screen.Height}
	if w, ok := call.Number("width"); ok {
		rect.Width = min(w, c.opts.Screen.Width)
	}
	if h, ok := call.Number("height"); ok {
		rect.Height = min(h, c.opts.Screen.Height)
	}
	url, _ := call.String("url")
	c.logger.Info("Expanding", zap.Any("frame", rect), zap.String("url", url))
	c.setState(mraid.StateExpanded, rect)
}

func (c *Container) resize(call protocol.Call) {
	w, okW := call.Number("width")
	h, okH := call.Number("height")
	if !okW || !okH {
		c.logger.Warn("Resize without a size", zap.Any("params", call.Values()))
		c.native.Push("MmJsBridge.mraid.throwMraidError", "Resize requires a width and height", "resize")
		return
	}
	x, _ := call.Number("offsetX")
	y, _ := call.Number("offsetY")

	rect := mraid.Rect{X: c.opts.Frame.X + x, Y: c.opts.Frame.Y + y, Width: w, Height: h}
	c.logger.Info("Resizing", zap.Any("frame", rect))
	c.setState(mraid.StateResized, rect)
}

func (c *Container) close(protocol.Call) {
	switch c.State() {
	case mraid.StateExpanded, mraid.StateResized:
		c.setState(mraid.StateDefault, c.opts.Frame)
	case mraid.StateDefault:
		c.setState(mraid.StateHidden, mraid.Rect{})
	default:
		c.logger.Warn("Ignoring close", zap.String("state", string(c.State())))
	}
}

func (c *Container) customClose(call protocol.Call) {
	v, _ := call.Bool("useCustomClose")
	c.mu.Lock()
	c.useCustomClose = v
	c.mu.Unlock()
	c.logger.Debug("Custom close updated", zap.Bool("use_custom_close", v))
}

func (c *Container) request(call protocol.Call) {
	c.logger.Info("Creative request",
		zap.String("action", call.Action),
		zap.Any("params", call.Values()),
	)
}

func (c *Container) setState(state mraid.State, frame mraid.Rect) {
	c.mu.Lock()
	c.state = state
	c.mu.Unlock()
	c.native.Push("MmJsBridge.mraid.setState", string(state), rectArg(frame))
}

func rectArg(r mraid.Rect) map[string]any {
	return map[string]any{"x": r.X, "y": r.Y, "width": r.Width, "height": r.Height}
}

func sizeArg(s mraid.Size) map[string]any {
	return map[string]any{"width": s.Width, "height": s.Height}
}

func supportsArg(supports map[string]bool) map[string]any {
	out := make(map[string]any, len(supports))
	for feature, ok := range supports {
		out[feature] = ok
	}
	return out
}
