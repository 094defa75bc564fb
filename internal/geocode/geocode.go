// Package geocode defines the interface for geocoding providers and collects
// candidate geocodings across providers.
package geocode

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/newsatlas/geolocate/internal/model"
)

// Provider turns a place name into zero or more candidate geocodings.
type Provider interface {
	// Name returns the provider identifier used in config and logs.
	Name() string
	// Geocode resolves a place name to candidate coordinates with address
	// metadata. Candidates missing coordinates are excluded by the provider.
	Geocode(ctx context.Context, placeName string) ([]model.Candidate, error)
}

// Registry manages available geocoding providers.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
}

// NewRegistry creates an empty provider registry.
func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[string]Provider),
	}
}

// Register adds a provider to the registry.
func (r *Registry) Register(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[p.Name()] = p
}

// Get returns a provider by name, or nil if not found.
func (r *Registry) Get(name string) Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.providers[name]
}

// List returns all registered provider names.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	return names
}

// Assemble queries every provider for every place name and accumulates the
// candidates. A failing provider is logged and its contribution dropped; one
// bad source must not sink the whole article. Places for which no provider
// returned a candidate are omitted from the result.
func Assemble(ctx context.Context, providers []Provider, names []string) map[string][]model.Candidate {
	candidates := make(map[string][]model.Candidate, len(names))
	for _, name := range names {
		var found []model.Candidate
		for _, p := range providers {
			cands, err := p.Geocode(ctx, name)
			if err != nil {
				zap.L().Warn("geocode: provider failed",
					zap.String("provider", p.Name()),
					zap.String("place", name),
					zap.Error(err),
				)
				continue
			}
			found = append(found, cands...)
		}
		if len(found) > 0 {
			candidates[name] = found
		}
	}
	return candidates
}
