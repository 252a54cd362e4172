package bridge

import (
	"github.com/woxQAQ/creative-bridge/pkg/protocol"
	"go.uber.org/zap"
)

// Bridge is the per-page state shared by every creative-facing surface:
// the transport chosen at startup and the page's callback registry.
// It is owned by a single page and is not safe for concurrent use.
type Bridge struct {
	transport Transport
	callbacks *Callbacks
	logger    *zap.Logger
}

// New creates a bridge over transport.
func New(transport Transport, logger *zap.Logger) *Bridge {
	return &Bridge{
		transport: transport,
		callbacks: NewCallbacks(logger),
		logger:    logger.With(zap.String("component", "bridge")),
	}
}

// Call dispatches exactly one native call.
func (b *Bridge) Call(module, action string, params ...protocol.Param) {
	b.transport.Dispatch(module, action, params)
}

// CallbackID registers cb and returns its handle, or protocol.Null when cb is nil.
func (b *Bridge) CallbackID(cb Callback) any {
	if cb == nil {
		return protocol.Null
	}
	return b.callbacks.Register(cb)
}

// Callbacks returns the page's callback registry.
func (b *Bridge) Callbacks() *Callbacks {
	return b.callbacks
}

// Transport returns the transport selected for the page.
func (b *Bridge) Transport() Transport {
	return b.transport
}

// Logger returns the bridge logger for surfaces built on top of it.
func (b *Bridge) Logger() *zap.Logger {
	return b.logger
}
