package host

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/woxQAQ/creative-bridge/pkg/protocol"
	"go.uber.org/zap/zaptest"
)

const callCallback = "MmJsBridge.callbackManager.callCallback"

func TestDevice_Answers(t *testing.T) {
	n, page := newNative(t, Options{Injected: true})
	NewDevice(n, Location{Latitude: 52.5, Longitude: 13.4}, zaptest.NewLogger(t))

	dispatch(n, call(protocol.ModuleMMJS, "call", protocol.NewParam("number", "555"), protocol.NewParam("callbackId", 0.0)))
	dispatch(n, call(protocol.ModuleMMJS, "isSchemeAvailable", protocol.NewParam("name", "fb"), protocol.NewParam("callbackId", 1.0)))
	dispatch(n, call(protocol.ModuleMMJS, "location", protocol.NewParam("callbackId", "2")))
	dispatch(n, call(protocol.ModuleMMJS, "openMap", protocol.NewParam("address", "somewhere")))

	assert.Equal(t, []push{
		{callCallback, []any{"0", true}},
		{callCallback, []any{"1", false}},
		{callCallback, []any{"2", map[string]any{"latitude": 52.5, "longitude": 13.4}}},
	}, page.recorded())
}

func TestDevice_Vibrate(t *testing.T) {
	n, page := newNative(t, Options{Injected: true})
	NewDevice(n, Location{}, zaptest.NewLogger(t))

	dispatch(n, call(protocol.ModuleMMJS, "vibrate",
		protocol.NewParam("pattern", []any{100.0, 50.0}),
		protocol.NewParam("onStartCallbackId", 4.0),
		protocol.NewParam("onFinishCallbackId", 5.0),
	))

	pushes := page.recorded()
	require.Len(t, pushes, 2)
	assert.Equal(t, []any{"4"}, pushes[0].Args)
	assert.Equal(t, []any{"5"}, pushes[1].Args)
}

func TestVideos_Lifecycle(t *testing.T) {
	n, page := newNative(t, Options{Injected: true})
	videos := NewVideos(n, zaptest.NewLogger(t))

	dispatch(n, call(protocol.ModuleInlineVideo, "insert",
		protocol.NewParam("url", "http://v/clip.mp4"),
		protocol.NewParam("callbackId", 7.0),
	))
	require.Equal(t, 1, videos.Len())

	dispatch(n, call(protocol.ModuleInlineVideo, "play", protocol.NewParam("videoId", "video-1")))
	dispatch(n, call(protocol.ModuleInlineVideo, "setMuted", protocol.NewParam("videoId", "video-1"), protocol.NewParam("mute", "false")))
	dispatch(n, call(protocol.ModuleInlineVideo, "play", protocol.NewParam("videoId", "video-9")))

	assert.Equal(t, []push{
		{callCallback, []any{"7", "video-1", "stateChange", "loading"}},
		{callCallback, []any{"7", "video-1", "stateChange", "readyToStart"}},
		{callCallback, []any{"7", "video-1", "stateChange", "playing"}},
		{callCallback, []any{"7", "video-1", "mute", false}},
	}, page.recorded())
}

func TestVideos_InsertWithoutCallback(t *testing.T) {
	n, page := newNative(t, Options{Injected: true})
	videos := NewVideos(n, zaptest.NewLogger(t))

	dispatch(n, call(protocol.ModuleInlineVideo, "insert", protocol.NewParam("url", "u")))
	assert.Equal(t, 0, videos.Len())
	assert.Empty(t, page.recorded())
}

func TestVASTPlayer_Commands(t *testing.T) {
	n, page := newNative(t, Options{Injected: true})
	player := NewVASTPlayer(n, 30, zaptest.NewLogger(t))

	dispatch(n, call(protocol.ModuleVAST, "pause"))
	dispatch(n, call(protocol.ModuleVAST, "seek", protocol.NewParam("seekTime", "45")))
	dispatch(n, call(protocol.ModuleVAST, "seek"))
	dispatch(n, call(protocol.ModuleVAST, "restart"))

	assert.Equal(t, []push{
		{"MmJsBridge.vast.setState", []any{"paused"}},
		{"MmJsBridge.vast.setCurrentTime", []any{30.0}},
		{"MmJsBridge.vast.fireErrorEvent", []any{"seek requires a time"}},
		{"MmJsBridge.vast.setCurrentTime", []any{0.0}},
		{"MmJsBridge.vast.setState", []any{"playing"}},
	}, page.recorded())
	assert.Equal(t, "playing", player.State())
}
