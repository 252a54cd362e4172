package host

import (
	"sync"

	"github.com/woxQAQ/creative-bridge/pkg/protocol"
	"go.uber.org/zap"
)

// VASTPlayer simulates the native VAST player under a web overlay.
type VASTPlayer struct {
	native   *Native
	duration float64
	logger   *zap.Logger

	mu          sync.Mutex
	state       string
	currentTime float64
}

// NewVASTPlayer registers the VAST handlers on n.
func NewVASTPlayer(n *Native, duration float64, logger *zap.Logger) *VASTPlayer {
	p := &VASTPlayer{
		native:   n,
		duration: duration,
		logger:   logger.With(zap.String("component", "vast-player")),
		state:    "playing",
	}

	n.Handle(protocol.ModuleVAST, "play", func(protocol.Call) { p.setState("playing") })
	n.Handle(protocol.ModuleVAST, "pause", func(protocol.Call) { p.setState("paused") })
	n.Handle(protocol.ModuleVAST, "close", func(protocol.Call) { p.setState("closed") })
	n.Handle(protocol.ModuleVAST, "skip", func(protocol.Call) { p.setState("complete") })
	n.Handle(protocol.ModuleVAST, "restart", func(protocol.Call) {
		p.seek(0)
		p.setState("playing")
	})
	n.Handle(protocol.ModuleVAST, "seek", func(call protocol.Call) {
		t, ok := call.Number("seekTime")
		if !ok {
			p.native.Push("MmJsBridge.vast.fireErrorEvent", "seek requires a time")
			return
		}
		p.seek(t)
	})
	n.Handle(protocol.ModuleVAST, "triggerTimeUpdate", func(protocol.Call) {
		p.mu.Lock()
		t := p.currentTime
		p.mu.Unlock()
		p.native.Push("MmJsBridge.vast.setCurrentTime", t)
	})
	n.Handle(protocol.ModuleVAST, "setTimeInterval", func(call protocol.Call) {
		interval, _ := call.Value("timeInterval")
		p.logger.Debug("Time interval set", zap.Any("interval", interval))
	})
	return p
}

// Enable turns on the page's web overlay with the player's current values.
func (p *VASTPlayer) Enable() {
	p.mu.Lock()
	current := map[string]any{
		"state":       p.state,
		"currentTime": p.currentTime,
		"duration":    p.duration,
	}
	p.mu.Unlock()
	p.native.Push("MmJsBridge.vast.enableWebOverlay", current)
}

// State returns the player state.
func (p *VASTPlayer) State() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *VASTPlayer) setState(state string) {
	p.mu.Lock()
	p.state = state
	p.mu.Unlock()
	p.native.Push("MmJsBridge.vast.setState", state)
}

func (p *VASTPlayer) seek(t float64) {
	t = max(0, min(t, p.duration))
	p.mu.Lock()
	p.currentTime = t
	p.mu.Unlock()
	p.native.Push("MmJsBridge.vast.setCurrentTime", t)
}
