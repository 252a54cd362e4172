package creative

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/woxQAQ/creative-bridge/internal/bridge"
	"github.com/woxQAQ/creative-bridge/internal/mraid"
	"github.com/woxQAQ/creative-bridge/internal/wasm"
	"go.uber.org/zap"
)

// Manager manages the creatives available to the harness.
type Manager struct {
	paths       []string
	loader      *Loader
	registry    *Registry
	instanceMgr *wasm.InstanceManager
	logger      *zap.Logger

	mu     sync.RWMutex
	loaded bool
}

// NewManager creates a creative manager over the given bundle paths.
// runtime and hostFuncs may be nil when Wasm creatives are not used.
func NewManager(
	paths []string,
	runtime *wasm.Runtime,
	hostFuncs *wasm.HostFunctions,
	logger *zap.Logger,
) *Manager {
	m := &Manager{
		paths:    paths,
		loader:   NewLoader(runtime, logger),
		registry: NewRegistry(logger),
		logger:   logger.With(zap.String("component", "creative-manager")),
	}
	if runtime != nil && hostFuncs != nil {
		m.instanceMgr = wasm.NewInstanceManager(runtime, hostFuncs, logger)
	}
	return m
}

// LoadAll discovers and registers every creative under the configured paths.
func (m *Manager) LoadAll(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.loaded {
		return fmt.Errorf("creatives already loaded")
	}

	m.logger.Info("Loading creatives", zap.Strings("paths", m.paths))

	creatives, err := m.loader.DiscoverCreatives(ctx, m.paths)
	if err != nil {
		var notFound *NoCreativesFoundError
		if errors.As(err, &notFound) {
			m.logger.Warn("No creatives found in configured paths", zap.Strings("paths", m.paths))
			m.loaded = true
			return nil
		}
		return err
	}

	registered := 0
	for _, c := range creatives {
		if err := m.registry.Register(c); err != nil {
			m.logger.Error("Failed to register creative",
				zap.String("name", c.Manifest.Name),
				zap.Error(err),
			)
			continue
		}
		registered++
	}

	m.loaded = true
	m.logger.Info("Creatives loaded", zap.Int("count", registered))

	return nil
}

// GetCreative retrieves a creative by name.
func (m *Manager) GetCreative(name string) (*Creative, error) {
	c, ok := m.registry.Get(name)
	if !ok {
		return nil, &CreativeNotFoundError{CreativeName: name}
	}
	return c, nil
}

// FindForPlacement returns the first creative registered for a placement type.
func (m *Manager) FindForPlacement(placement mraid.PlacementType) (*Creative, error) {
	creatives := m.registry.LookupByPlacement(placement)
	if len(creatives) == 0 {
		return nil, fmt.Errorf("no creative found for placement type '%s'", placement)
	}
	return creatives[0], nil
}

// Instantiate creates an instance of a Wasm creative whose native calls go
// to native.
func (m *Manager) Instantiate(ctx context.Context, name string, native bridge.NamespaceResolver, stdout io.Writer) (*wasm.Instance, error) {
	c, ok := m.registry.Get(name)
	if !ok {
		return nil, &CreativeNotFoundError{CreativeName: name}
	}
	if !c.Manifest.IsWasm() || c.Compiled == nil {
		return nil, &NotWasmCreativeError{CreativeName: name}
	}
	if m.instanceMgr == nil {
		return nil, &CreativeLoadError{CreativeName: name, Err: errors.New("no Wasm runtime configured")}
	}

	return m.instanceMgr.Instantiate(ctx, &wasm.InstanceConfig{
		ModuleName: c.Compiled.Name,
		Native:     native,
		Args:       c.Manifest.Wasm.Args,
		Stdout:     stdout,
		Stderr:     stdout,
	})
}

// Registry returns the creative registry.
func (m *Manager) Registry() *Registry {
	return m.registry
}

// IsLoaded returns whether creatives have been loaded.
func (m *Manager) IsLoaded() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loaded
}
