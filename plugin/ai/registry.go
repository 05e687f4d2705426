package ai

import (
	"fmt"
)

// Registry holds one Provider per configured provider id. Lookup is by id
// at call time; there is no provider class hierarchy.
type Registry struct {
	defaultID string
	providers map[string]Provider
}

// NewRegistry builds providers for every configured id.
func NewRegistry(cfg *Config) (*Registry, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	providers := make(map[string]Provider, len(cfg.Providers))
	for id, pc := range cfg.Providers {
		provider, err := NewProvider(pc)
		if err != nil {
			return nil, fmt.Errorf("create provider %q: %w", id, err)
		}
		providers[id] = provider
	}

	return &Registry{
		defaultID: cfg.DefaultProvider,
		providers: providers,
	}, nil
}

// Get returns the provider for the given id, falling back to the default
// provider when id is empty.
func (r *Registry) Get(id string) (Provider, error) {
	if id == "" {
		id = r.defaultID
	}
	provider, ok := r.providers[id]
	if !ok {
		return nil, fmt.Errorf("unknown provider: %q", id)
	}
	return provider, nil
}

// DefaultID returns the default provider id.
func (r *Registry) DefaultID() string {
	return r.defaultID
}

// IDs returns all registered provider ids.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.providers))
	for id := range r.providers {
		ids = append(ids, id)
	}
	return ids
}
