package wasm

import (
	"context"
	"sync"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/woxQAQ/creative-bridge/api/mmsdk"
	"github.com/woxQAQ/creative-bridge/internal/bridge"
	"github.com/woxQAQ/creative-bridge/pkg/protocol"
	"go.uber.org/zap"
)

// HostModuleName is the import module name guests link against.
const HostModuleName = mmsdk.Module

// call_native status codes.
const (
	StatusOK               = mmsdk.StatusOK
	StatusNamespaceMissing = mmsdk.StatusNamespaceMissing
	StatusActionMissing    = mmsdk.StatusActionMissing
	StatusMemoryFault      = mmsdk.StatusMemoryFault
)

// Log levels accepted by log_message.
const (
	LogDebug = mmsdk.LogDebug
	LogInfo  = mmsdk.LogInfo
	LogWarn  = mmsdk.LogWarn
	LogError = mmsdk.LogError
)

// actionsQueue is implemented by generic namespaces that batch pushes.
type actionsQueue interface {
	GetActionsQueue() string
}

// HostFunctions implements the mmsdk host module. Calls are routed to the
// native layer bound to the calling instance.
type HostFunctions struct {
	logger *zap.Logger

	mu      sync.RWMutex
	routes  map[string]bridge.NamespaceResolver
	pending map[string][]byte
}

// NewHostFunctions creates the host function set.
func NewHostFunctions(logger *zap.Logger) *HostFunctions {
	return &HostFunctions{
		logger:  logger.With(zap.String("component", "wasm-host")),
		routes:  make(map[string]bridge.NamespaceResolver),
		pending: make(map[string][]byte),
	}
}

// Bind routes calls from instanceID to resolver.
func (h *HostFunctions) Bind(instanceID string, resolver bridge.NamespaceResolver) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.routes[instanceID] = resolver
}

// Unbind drops the route of instanceID.
func (h *HostFunctions) Unbind(instanceID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.routes, instanceID)
	delete(h.pending, instanceID)
}

func (h *HostFunctions) resolver(instanceID string) (bridge.NamespaceResolver, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	r, ok := h.routes[instanceID]
	return r, ok
}

func (h *HostFunctions) define(builder wazero.HostModuleBuilder) {
	builder.NewFunctionBuilder().
		WithFunc(h.callNative).
		WithParameterNames("module_ptr", "module_len", "action_ptr", "action_len", "payload_ptr", "payload_len").
		WithResultNames("status").
		Export(mmsdk.FuncCallNative)

	builder.NewFunctionBuilder().
		WithFunc(h.pollActions).
		WithParameterNames("buf_ptr", "buf_cap").
		WithResultNames("size").
		Export(mmsdk.FuncPollActions)

	builder.NewFunctionBuilder().
		WithFunc(h.logMessage).
		WithParameterNames("level", "ptr", "length").
		Export(mmsdk.FuncLogMessage)
}

// callNative delivers an injected-handler call to the native layer.
// Signature: call_native(module_ptr, module_len, action_ptr, action_len, payload_ptr, payload_len) -> status
func (h *HostFunctions) callNative(ctx context.Context, mod api.Module,
	modulePtr, moduleLen, actionPtr, actionLen, payloadPtr, payloadLen uint32,
) uint32 {
	mem := NewMemory(mod)
	module, err := mem.ReadString(modulePtr, moduleLen)
	if err != nil {
		h.logger.Error("Failed to read module name from Wasm memory", zap.Error(err))
		return StatusMemoryFault
	}
	action, err := mem.ReadString(actionPtr, actionLen)
	if err != nil {
		h.logger.Error("Failed to read action from Wasm memory", zap.Error(err))
		return StatusMemoryFault
	}
	payload, err := mem.ReadString(payloadPtr, payloadLen)
	if err != nil {
		h.logger.Error("Failed to read payload from Wasm memory", zap.Error(err))
		return StatusMemoryFault
	}
	if payload == "" {
		payload = "{}"
	}

	logger := h.logger.With(
		zap.String("instance_id", mod.Name()),
		zap.String("module", module),
		zap.String("action", action),
	)

	resolver, ok := h.resolver(mod.Name())
	if !ok {
		logger.Warn("Native call from unbound instance")
		return StatusNamespaceMissing
	}
	ns, ok := resolver.Namespace(protocol.NamespaceFor(module))
	if !ok {
		logger.Warn("No injected namespace for module")
		return StatusNamespaceMissing
	}
	fn, ok := ns.Action(action)
	if !ok {
		logger.Warn("Native layer does not handle action")
		return StatusActionMissing
	}

	logger.Debug("Native call", zap.String("payload", payload))
	fn(payload)
	return StatusOK
}

// pollActions copies the pending actions batch into a guest buffer.
// Signature: poll_actions(buf_ptr, buf_cap) -> size
//
// A size of 0 means nothing is pending. A size larger than buf_cap means
// nothing was written; the batch is kept until a large enough buffer is offered.
func (h *HostFunctions) pollActions(ctx context.Context, mod api.Module, bufPtr, bufCap uint32) uint32 {
	id := mod.Name()

	h.mu.Lock()
	batch := h.pending[id]
	if len(batch) == 0 {
		if r, ok := h.routes[id]; ok {
			if ns, ok := r.Namespace(protocol.InjectedPrefix); ok {
				if q, ok := ns.(actionsQueue); ok {
					batch = []byte(q.GetActionsQueue())
				}
			}
		}
	}
	if uint32(len(batch)) > bufCap {
		h.pending[id] = batch
		h.mu.Unlock()
		return uint32(len(batch))
	}
	delete(h.pending, id)
	h.mu.Unlock()

	if len(batch) == 0 {
		return 0
	}
	if err := NewMemory(mod).WriteBytes(bufPtr, batch); err != nil {
		h.logger.Error("Failed to write actions batch to Wasm memory",
			zap.String("instance_id", id),
			zap.Error(err),
		)
		return 0
	}
	return uint32(len(batch))
}

// logMessage is called by creatives to log messages.
// Signature: log_message(level, ptr, length)
func (h *HostFunctions) logMessage(ctx context.Context, mod api.Module, level, ptr, length uint32) {
	msg, err := NewMemory(mod).ReadString(ptr, length)
	if err != nil {
		h.logger.Error("Failed to read log message from Wasm memory",
			zap.Uint32("ptr", ptr),
			zap.Uint32("length", length),
		)
		return
	}

	logger := h.logger.With(zap.String("instance_id", mod.Name()))
	switch level {
	case LogDebug:
		logger.Debug(msg)
	case LogWarn:
		logger.Warn(msg)
	case LogError:
		logger.Error(msg)
	default:
		logger.Info(msg)
	}
}
