package llm

import (
	"sort"
	"sync"

	"go.uber.org/zap"
)

// Constructor builds a client from its parameters
type Constructor func(params Params, logger *zap.Logger) (Client, error)

// Registry maps provider names to constructors and caches the clients it
// builds, one per provider and parameter set. Instances live as long as the
// registry; the cache is bounded by the parameter combinations callers use.
type Registry struct {
	logger *zap.Logger

	mu        sync.Mutex
	providers map[string]Constructor
	instances map[string]Client
}

// NewRegistry creates an empty registry
func NewRegistry(logger *zap.Logger) *Registry {
	return &Registry{
		logger:    logger,
		providers: make(map[string]Constructor),
		instances: make(map[string]Client),
	}
}

// Register adds a provider. Registering an existing name replaces it.
func (r *Registry) Register(name string, constructor Constructor) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.providers[name] = constructor
	r.logger.Info("registered LLM provider", zap.String("provider", name))
}

// Get returns the client for name and params, constructing it on first use.
// Construction failures are not cached, so the next call tries again.
func (r *Registry) Get(name string, params Params) (Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	constructor, ok := r.providers[name]
	if !ok {
		return nil, &UnknownProviderError{Name: name}
	}

	key := name + ":" + params.cacheKey()
	if client, ok := r.instances[key]; ok {
		return client, nil
	}

	client, err := constructor(params, r.logger.With(zap.String("provider", name)))
	if err != nil {
		r.logger.Error("failed to create LLM client",
			zap.String("provider", name),
			zap.Error(err))
		return nil, &ClientConstructionError{Provider: name, Err: err}
	}

	r.instances[key] = client
	r.logger.Info("created LLM client",
		zap.String("provider", name),
		zap.String("model", params.Model),
		zap.Int("instances", len(r.instances)))

	return client, nil
}

// Providers returns the registered provider names in sorted order
func (r *Registry) Providers() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Has reports whether name is registered
func (r *Registry) Has(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.providers[name]
	return ok
}

// Len returns the number of cached client instances
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.instances)
}
