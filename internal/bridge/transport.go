package bridge

import (
	"github.com/woxQAQ/creative-bridge/pkg/protocol"
	"go.uber.org/zap"
)

// Kind names a transport strategy.
type Kind string

const (
	// KindInjected calls handler functions injected into the page by the native layer.
	KindInjected Kind = "injected"
	// KindScheme navigates a hidden surface to a custom-scheme URL the native layer intercepts.
	KindScheme Kind = "scheme"
)

// Transport fires one-way calls into the native layer.
// Dispatch never blocks on the native side and returns nothing; responses
// arrive later through the callback registry or module setters.
type Transport interface {
	Dispatch(module, action string, params []protocol.Param)
	Kind() Kind
}

// Namespace is a native handler object injected into the page.
type Namespace interface {
	// Action returns the handler for an action, if the native layer provides one.
	Action(name string) (func(payload string), bool)
}

// NamespaceResolver looks up injected namespaces by their global name.
type NamespaceResolver interface {
	Namespace(name string) (Namespace, bool)
}

// Surface is a disposable, invisible navigable element. Loading a source
// into an attached surface is what the native layer intercepts.
type Surface interface {
	SetSource(url string)
	Attach()
	Detach()
}

// SurfaceFactory creates detached surfaces.
type SurfaceFactory interface {
	NewSurface() Surface
}

// Environment is what the page can discover at startup.
type Environment interface {
	NamespaceResolver
	SurfaceFactory
}

// SelectTransport picks the transport once, by probing for the generic
// injected namespace.
func SelectTransport(env Environment, logger *zap.Logger) Transport {
	if _, ok := env.Namespace(protocol.InjectedPrefix); ok {
		logger.Debug("Selected to communicate with native layer using injected bridge functions")
		return NewInjectedTransport(env, logger)
	}
	logger.Debug("Selected to communicate with native layer using scheme URLs")
	return NewSchemeTransport(env, logger)
}

// InjectedTransport hands a JSON payload to a handler on the module's injected namespace.
type InjectedTransport struct {
	resolver NamespaceResolver
	logger   *zap.Logger
}

// NewInjectedTransport creates an injected-handler transport.
func NewInjectedTransport(resolver NamespaceResolver, logger *zap.Logger) *InjectedTransport {
	return &InjectedTransport{
		resolver: resolver,
		logger:   logger.With(zap.String("component", "bridge-transport"), zap.String("kind", string(KindInjected))),
	}
}

// Kind returns KindInjected.
func (t *InjectedTransport) Kind() Kind {
	return KindInjected
}

// Dispatch encodes the parameters and invokes the handler for action.
// Missing namespaces or actions are logged and the call is dropped.
func (t *InjectedTransport) Dispatch(module, action string, params []protocol.Param) {
	t.logger.Debug("Calling into the native layer",
		zap.String("module", module),
		zap.String("action", action),
		zap.Int("params", len(params)),
	)

	name := protocol.NamespaceFor(module)
	ns, ok := t.resolver.Namespace(name)
	if !ok {
		t.logger.Error("Dropping native call", zap.Error(&NamespaceNotFoundError{Namespace: name}))
		return
	}

	payload, err := protocol.EncodeInjectedPayload(params)
	if err != nil {
		t.logger.Error("Dropping native call",
			zap.String("action", action),
			zap.Error(err),
		)
		return
	}

	handler, ok := ns.Action(action)
	if !ok {
		t.logger.Error("Dropping native call", zap.Error(&ActionNotFoundError{Namespace: name, Action: action}))
		return
	}
	handler(string(payload))
}

// SchemeTransport loads a custom-scheme URL through a throwaway surface.
type SchemeTransport struct {
	surfaces SurfaceFactory
	logger   *zap.Logger
}

// NewSchemeTransport creates a scheme-URL transport.
func NewSchemeTransport(surfaces SurfaceFactory, logger *zap.Logger) *SchemeTransport {
	return &SchemeTransport{
		surfaces: surfaces,
		logger:   logger.With(zap.String("component", "bridge-transport"), zap.String("kind", string(KindScheme))),
	}
}

// Kind returns KindScheme.
func (t *SchemeTransport) Kind() Kind {
	return KindScheme
}

// Dispatch builds the call URL and loads it: create, set source, attach, detach.
func (t *SchemeTransport) Dispatch(module, action string, params []protocol.Param) {
	url, err := protocol.EncodeSchemeURL(module, action, params)
	if err != nil {
		t.logger.Error("Dropping native call",
			zap.String("module", module),
			zap.String("action", action),
			zap.Error(err),
		)
		return
	}

	t.logger.Debug("Calling into the native layer", zap.String("url", url))

	surface := t.surfaces.NewSurface()
	surface.SetSource(url)
	surface.Attach()
	surface.Detach()
}
