package creative

import (
	"sort"
	"sync"

	"github.com/woxQAQ/creative-bridge/internal/mraid"
	"go.uber.org/zap"
)

// Registry manages loaded creatives.
type Registry struct {
	sync.RWMutex
	creatives   map[string]*Creative                // name -> creative
	byPlacement map[mraid.PlacementType][]*Creative // placement type -> creatives
	logger      *zap.Logger
}

// NewRegistry creates a new creative registry.
func NewRegistry(logger *zap.Logger) *Registry {
	return &Registry{
		creatives:   make(map[string]*Creative),
		byPlacement: make(map[mraid.PlacementType][]*Creative),
		logger:      logger.With(zap.String("component", "creative-registry")),
	}
}

// Register adds a creative to the registry.
func (r *Registry) Register(c *Creative) error {
	r.Lock()
	defer r.Unlock()

	name := c.Manifest.Name
	if _, exists := r.creatives[name]; exists {
		return &CreativeAlreadyRegisteredError{CreativeName: name}
	}

	r.creatives[name] = c
	placement := c.Manifest.PlacementType
	r.byPlacement[placement] = append(r.byPlacement[placement], c)

	r.logger.Info("Creative registered",
		zap.String("name", name),
		zap.String("placement_type", string(placement)),
		zap.Bool("wasm", c.Manifest.IsWasm()),
	)

	return nil
}

// Get retrieves a creative by name.
func (r *Registry) Get(name string) (*Creative, bool) {
	r.RLock()
	defer r.RUnlock()

	c, ok := r.creatives[name]
	return c, ok
}

// LookupByPlacement finds creatives for a placement type, in registration order.
func (r *Registry) LookupByPlacement(placement mraid.PlacementType) []*Creative {
	r.RLock()
	defer r.RUnlock()

	creatives := r.byPlacement[placement]
	result := make([]*Creative, len(creatives))
	copy(result, creatives)
	return result
}

// List returns all registered creatives sorted by name.
func (r *Registry) List() []*Creative {
	r.RLock()
	defer r.RUnlock()

	result := make([]*Creative, 0, len(r.creatives))
	for _, c := range r.creatives {
		result = append(result, c)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name() < result[j].Name() })
	return result
}

// Unregister removes a creative from the registry.
func (r *Registry) Unregister(name string) {
	r.Lock()
	defer r.Unlock()

	c, ok := r.creatives[name]
	if !ok {
		return
	}

	placement := c.Manifest.PlacementType
	creatives := r.byPlacement[placement]
	for i, other := range creatives {
		if other.Manifest.Name == name {
			r.byPlacement[placement] = append(creatives[:i:i], creatives[i+1:]...)
			break
		}
	}

	delete(r.creatives, name)

	r.logger.Info("Creative unregistered", zap.String("name", name))
}

// Count returns the number of registered creatives.
func (r *Registry) Count() int {
	r.RLock()
	defer r.RUnlock()

	return len(r.creatives)
}
