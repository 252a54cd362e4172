package host

import (
	"fmt"
	"sync"

	"github.com/woxQAQ/creative-bridge/pkg/protocol"
	"go.uber.org/zap"
)

// Videos simulates native inline video players. Every player event is
// delivered through the callback the creative passed to insert.
type Videos struct {
	native *Native
	logger *zap.Logger

	mu      sync.Mutex
	next    int
	players map[string]any
}

// NewVideos registers the inline video handlers on n.
func NewVideos(n *Native, logger *zap.Logger) *Videos {
	v := &Videos{
		native:  n,
		logger:  logger.With(zap.String("component", "inline-video-host")),
		players: make(map[string]any),
	}

	n.Handle(protocol.ModuleInlineVideo, "insert", v.insert)

	events := map[string]func(protocol.Call) []any{
		"play":               state("playing"),
		"pause":              state("paused"),
		"stop":               state("stopped"),
		"remove":             state("removed"),
		"expandToFullScreen": func(protocol.Call) []any { return []any{"expand"} },
		"triggerTimeUpdate":  func(protocol.Call) []any { return []any{"timeUpdate", 0} },
		"seek":               echo("seek", "time"),
		"setMuted":           muted,
		"updateVideoURL":     echo("updateVideoURL", "url"),
		"reposition":         echo("reposition", "width", "height", "x", "y"),
	}
	for action, event := range events {
		n.Handle(protocol.ModuleInlineVideo, action, v.player(event))
	}
	return v
}

// Len returns the number of inserted players.
func (v *Videos) Len() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.players)
}

func (v *Videos) insert(call protocol.Call) {
	handle, ok := call.Value("callbackId")
	if !ok {
		v.logger.Warn("Insert without a callback", zap.Any("params", call.Values()))
		return
	}

	v.mu.Lock()
	v.next++
	id := fmt.Sprintf("video-%d", v.next)
	v.players[id] = handle
	v.mu.Unlock()

	url, _ := call.String("url")
	v.logger.Info("Inline video inserted", zap.String("video_id", id), zap.String("url", url))
	v.native.Callback(handle, id, "stateChange", "loading")
	v.native.Callback(handle, id, "stateChange", "readyToStart")
}

func (v *Videos) player(event func(protocol.Call) []any) Handler {
	return func(call protocol.Call) {
		id, _ := call.String("videoId")
		v.mu.Lock()
		handle, ok := v.players[id]
		v.mu.Unlock()
		if !ok {
			v.logger.Warn("Unknown inline video", zap.String("video_id", id), zap.String("action", call.Action))
			return
		}
		v.native.Callback(handle, append([]any{id}, event(call)...)...)
	}
}

func state(next string) func(protocol.Call) []any {
	return func(protocol.Call) []any { return []any{"stateChange", next} }
}

func muted(call protocol.Call) []any {
	m, _ := call.Bool("mute")
	return []any{"mute", m}
}

// echo reports event with the named call parameters as its values.
func echo(event string, params ...string) func(protocol.Call) []any {
	return func(call protocol.Call) []any {
		out := []any{event}
		for _, name := range params {
			value, _ := call.Value(name)
			out = append(out, value)
		}
		return out
	}
}
