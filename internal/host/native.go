// Package host is a reference native layer for creative pages. It exposes
// injected namespaces and a scheme-URL surface to the page, routes calls to
// registered handlers and pushes state back into the page.
package host

import (
	"fmt"
	"sync"
	"time"

	"github.com/woxQAQ/creative-bridge/internal/bridge"
	"github.com/woxQAQ/creative-bridge/internal/trace"
	"github.com/woxQAQ/creative-bridge/pkg/protocol"
	"go.uber.org/zap"
)

// Handler handles one creative-to-native call.
//
// Handlers run on the page's script thread. They may push into the page
// but must not wait for it.
type Handler func(call protocol.Call)

// Page is the page the native layer pushes into.
type Page interface {
	ID() string
	Invoke(path string, args ...any)
}

// Options configures the native layer.
type Options struct {
	// Injected exposes MmInjectedFunctions* namespaces. Without it the page
	// falls back to scheme URLs.
	Injected bool
	// ActionsQueue routes pushes through the actions queue instead of
	// invoking the page directly. Only meaningful with Injected.
	ActionsQueue bool
}

type handlerKey struct {
	module string
	action string
}

var modules = []string{
	protocol.ModuleGeneric,
	protocol.ModuleMRAID,
	protocol.ModuleMMJS,
	protocol.ModuleInlineVideo,
	protocol.ModuleVAST,
}

// Native is the reference native layer. It implements bridge.Environment.
type Native struct {
	opts     Options
	queue    *ActionsQueue
	recorder trace.Recorder
	logger   *zap.Logger

	mu       sync.RWMutex
	handlers map[handlerKey]Handler
	fallback Handler
	page     Page
}

// New creates a native layer. recorder may be nil.
func New(opts Options, recorder trace.Recorder, logger *zap.Logger) *Native {
	n := &Native{
		opts:     opts,
		recorder: recorder,
		logger:   logger.With(zap.String("component", "native")),
		handlers: make(map[handlerKey]Handler),
	}
	if opts.Injected && opts.ActionsQueue {
		n.queue = NewActionsQueue(logger)
	}
	return n
}

// Attach sets the page that pushes go to.
func (n *Native) Attach(page Page) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.page = page
}

// Handle registers h for an action of a module, replacing any previous handler.
func (n *Native) Handle(module, action string, h Handler) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.handlers[handlerKey{module, action}] = h
}

// HandleDefault registers h for every call without its own handler. With a
// default handler every injected action is reported as available.
func (n *Native) HandleDefault(h Handler) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.fallback = h
}

func (n *Native) handler(module, action string) (Handler, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if h, ok := n.handlers[handlerKey{module, action}]; ok {
		return h, true
	}
	return n.fallback, n.fallback != nil
}

// Namespace implements bridge.NamespaceResolver.
func (n *Native) Namespace(name string) (bridge.Namespace, bool) {
	if !n.opts.Injected {
		return nil, false
	}
	for _, module := range modules {
		if protocol.NamespaceFor(module) != name {
			continue
		}
		ns := &namespace{native: n, module: module}
		if module == protocol.ModuleGeneric && n.queue != nil {
			return &queueNamespace{namespace: ns, ActionsQueue: n.queue}, true
		}
		return ns, true
	}
	return nil, false
}

// NewSurface implements bridge.SurfaceFactory.
func (n *Native) NewSurface() bridge.Surface {
	return &surface{native: n}
}

// Queue returns the actions queue, or nil when pushes go to the page directly.
func (n *Native) Queue() *ActionsQueue {
	return n.queue
}

func (n *Native) dispatch(call protocol.Call, kind bridge.Kind) {
	n.record(trace.Record{
		Direction: trace.ToNative,
		Transport: string(kind),
		Module:    call.Module,
		Action:    call.Action,
		Params:    trace.ParamsFrom(call.Params),
	})

	h, ok := n.handler(call.Module, call.Action)
	if !ok {
		n.logger.Info("Unhandled native call",
			zap.String("module", call.Module),
			zap.String("action", call.Action),
			zap.Any("params", call.Values()),
		)
		return
	}
	h(call)
}

// Push calls a page function by dotted path, through the actions queue when
// one is in use.
func (n *Native) Push(path string, args ...any) {
	if n.queue != nil {
		n.record(trace.Record{Direction: trace.ToPage, Transport: "queue", Action: path, Args: args})
		n.queue.Enqueue(path, args...)
		return
	}

	n.mu.RLock()
	page := n.page
	n.mu.RUnlock()
	if page == nil {
		n.logger.Warn("Dropping push without an attached page", zap.String("function", path))
		return
	}
	n.record(trace.Record{Direction: trace.ToPage, Action: path, Args: args})
	page.Invoke(path, args...)
}

// Callback answers a creative callback handle.
func (n *Native) Callback(handle any, args ...any) {
	if handle == nil {
		return
	}
	n.Push("MmJsBridge.callbackManager.callCallback", append([]any{handleString(handle)}, args...)...)
}

// CallbackFrom answers the callback named by a call parameter, if present.
func (n *Native) CallbackFrom(call protocol.Call, param string, args ...any) {
	if handle, ok := call.Value(param); ok {
		n.Callback(handle, args...)
	}
}

func (n *Native) record(rec trace.Record) {
	if n.recorder == nil {
		return
	}
	rec.Timestamp = time.Now()
	n.mu.RLock()
	if n.page != nil {
		rec.PageID = n.page.ID()
	}
	n.mu.RUnlock()

	if err := n.recorder.Record(rec); err != nil {
		n.logger.Warn("Failed to record trace", zap.Error(err))
	}
}

// handleString renders a callback handle the way it appears in script.
func handleString(handle any) string {
	if f, ok := protocol.AsNumber(handle); ok {
		return fmt.Sprintf("%d", int64(f))
	}
	return fmt.Sprint(handle)
}

// namespace is one injected MmInjectedFunctions* object.
type namespace struct {
	native *Native
	module string
}

func (ns *namespace) Action(action string) (func(string), bool) {
	if _, ok := ns.native.handler(ns.module, action); !ok {
		return nil, false
	}
	return func(payload string) {
		params, err := protocol.DecodeInjectedPayload([]byte(payload))
		if err != nil {
			ns.native.logger.Warn("Dropping malformed injected payload",
				zap.String("module", ns.module),
				zap.String("action", action),
				zap.Error(err),
			)
			return
		}
		ns.native.dispatch(protocol.Call{Module: ns.module, Action: action, Params: params}, bridge.KindInjected)
	}, true
}

// queueNamespace is the generic namespace when the actions queue is on.
type queueNamespace struct {
	*namespace
	*ActionsQueue
}

// surface intercepts scheme URLs the way a web view intercepts navigation.
type surface struct {
	native *Native
	src    string
}

func (s *surface) SetSource(url string) { s.src = url }

func (s *surface) Attach() {
	call, err := protocol.DecodeSchemeURL(s.src)
	if err != nil {
		s.native.logger.Warn("Ignoring navigation", zap.String("url", s.src), zap.Error(err))
		return
	}
	s.native.dispatch(call, bridge.KindScheme)
}

func (s *surface) Detach() {}

var _ bridge.Environment = (*Native)(nil)
