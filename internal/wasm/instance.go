package wasm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/sys"
	"github.com/woxQAQ/creative-bridge/internal/bridge"
	"go.uber.org/zap"
)

// InstanceManager creates and tracks creative instances.
type InstanceManager struct {
	runtime   *Runtime
	logger    *zap.Logger
	hostFuncs *HostFunctions

	hostOnce sync.Once
	hostErr  error

	mu sync.Mutex
}

// NewInstanceManager creates a new instance manager.
func NewInstanceManager(runtime *Runtime, hostFuncs *HostFunctions, logger *zap.Logger) *InstanceManager {
	return &InstanceManager{
		runtime:   runtime,
		hostFuncs: hostFuncs,
		logger:    logger.With(zap.String("component", "wasm-instance")),
	}
}

// InstanceConfig holds configuration for creating instances.
type InstanceConfig struct {
	// Module name to instantiate.
	ModuleName string

	// Instance ID (if empty, generates UUID).
	InstanceID string

	// Native receives the creative's call_native calls.
	Native bridge.NamespaceResolver

	// Args are passed to the guest as WASI arguments.
	Args []string

	Stdout io.Writer
	Stderr io.Writer
}

// Instance is an instantiated creative.
type Instance struct {
	module  api.Module
	manager *InstanceManager

	ID        string
	Name      string
	CreatedAt time.Time

	exports   map[string]api.Function
	closeOnce sync.Once
}

// Instantiate creates a new instance from a compiled module and binds it to
// its native layer. Start functions are not run; see Instance.Run.
func (m *InstanceManager) Instantiate(ctx context.Context, config *InstanceConfig) (*Instance, error) {
	compiled, ok := m.runtime.GetCompiledModule(config.ModuleName)
	if !ok {
		return nil, &NotCompiledError{Module: config.ModuleName}
	}

	if err := m.ensureHostModule(ctx); err != nil {
		return nil, err
	}

	instanceID := config.InstanceID
	if instanceID == "" {
		instanceID = uuid.NewString()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if limit := m.runtime.config.MaxInstances; limit > 0 && m.runtime.InstanceCount() >= limit {
		return nil, &InstanceLimitError{Max: limit}
	}

	m.logger.Info("Instantiating Wasm creative",
		zap.String("module", config.ModuleName),
		zap.String("instance_id", instanceID),
	)

	if config.Native != nil {
		m.hostFuncs.Bind(instanceID, config.Native)
	}

	args := append([]string{config.ModuleName}, config.Args...)
	moduleConfig := wazero.NewModuleConfig().
		WithName(instanceID).
		WithArgs(args...).
		WithSysWalltime().
		WithSysNanotime().
		WithStartFunctions()
	if config.Stdout != nil {
		moduleConfig = moduleConfig.WithStdout(config.Stdout)
	}
	if config.Stderr != nil {
		moduleConfig = moduleConfig.WithStderr(config.Stderr)
	}

	module, err := m.runtime.runtime.InstantiateModule(ctx, compiled.Module, moduleConfig)
	if err != nil {
		m.hostFuncs.Unbind(instanceID)
		return nil, &InstantiateError{
			Module:     config.ModuleName,
			InstanceID: instanceID,
			Err:        err,
		}
	}

	instance := &Instance{
		module:    module,
		manager:   m,
		ID:        instanceID,
		Name:      config.ModuleName,
		CreatedAt: time.Now(),
		exports:   exportedFunctions(module),
	}
	m.runtime.storeInstance(instance)

	m.logger.Info("Creative instantiated",
		zap.String("instance_id", instanceID),
		zap.Int("exported_functions", len(instance.exports)),
	)

	return instance, nil
}

// ensureHostModule instantiates the mmsdk host module once per runtime.
func (m *InstanceManager) ensureHostModule(ctx context.Context) error {
	m.hostOnce.Do(func() {
		builder := m.runtime.runtime.NewHostModuleBuilder(HostModuleName)
		m.hostFuncs.define(builder)
		if _, err := builder.Instantiate(ctx); err != nil {
			m.hostErr = fmt.Errorf("failed to instantiate host module: %w", err)
		}
	})
	return m.hostErr
}

func exportedFunctions(module api.Module) map[string]api.Function {
	exports := make(map[string]api.Function)
	for name := range module.ExportedFunctionDefinitions() {
		if fn := module.ExportedFunction(name); fn != nil {
			exports[name] = fn
		}
	}
	return exports
}

// Memory returns a view of the instance's linear memory.
func (i *Instance) Memory() *Memory {
	return NewMemory(i.module)
}

// Call invokes an exported function, bounded by the runtime's execution timeout.
func (i *Instance) Call(ctx context.Context, name string, params ...uint64) ([]uint64, error) {
	fn, ok := i.exports[name]
	if !ok {
		return nil, &ExportNotFoundError{InstanceID: i.ID, Export: name}
	}

	timeout := i.manager.runtime.config.ExecutionTimeout
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	results, err := fn.Call(ctx, params...)
	if err == nil {
		return results, nil
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return nil, &TimeoutError{InstanceID: i.ID, Timeout: timeout}
	}
	var exitErr *sys.ExitError
	if errors.As(err, &exitErr) {
		if exitErr.ExitCode() == 0 {
			return nil, nil
		}
		return nil, &ExitError{InstanceID: i.ID, Code: exitErr.ExitCode()}
	}
	return nil, fmt.Errorf("call %s on %s: %w", name, i.ID, err)
}

// Run executes the creative's _start entry point.
func (i *Instance) Run(ctx context.Context) error {
	i.manager.logger.Info("Running Wasm creative", zap.String("instance_id", i.ID))
	_, err := i.Call(ctx, "_start")
	return err
}

// Close closes the instance and releases its native binding.
func (i *Instance) Close(ctx context.Context) error {
	var err error
	i.closeOnce.Do(func() {
		i.manager.hostFuncs.Unbind(i.ID)
		i.manager.runtime.deleteInstance(i.ID)
		err = i.module.Close(ctx)
	})
	return err
}
