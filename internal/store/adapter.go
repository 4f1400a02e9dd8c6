// Package store holds the storefront adapters. Each adapter talks to
// one external shop and maps its wire format into the shared candidate
// and quote structs; the rest of the system only sees the Adapter
// interface.
package store

import (
	"context"
	"strings"

	"gamehub/pkg/models"
)

// Adapter is implemented by each storefront client. Lookups that find
// nothing return (nil, nil); errors mean the store itself could not be
// reached or parsed.
type Adapter interface {
	Name() string
	SearchGames(ctx context.Context, term string) ([]models.GameCandidate, error)
	GetGameDetails(ctx context.Context, externalID string) (*models.GameCandidate, error)
	// isNewGame lets an adapter do extra work the first time a game is
	// seen (GOG resolves the product slug for a stable store URL).
	GetGamePrice(ctx context.Context, externalID string, isNewGame bool) (*models.PriceQuote, error)
}

// Registry resolves adapters by store name, case-insensitively.
// Iteration keeps registration order so batch runs are deterministic.
type Registry struct {
	byName map[string]Adapter
	order  []Adapter
}

func NewRegistry(adapters ...Adapter) *Registry {
	r := &Registry{byName: make(map[string]Adapter, len(adapters))}
	for _, a := range adapters {
		r.Register(a)
	}
	return r
}

func (r *Registry) Register(a Adapter) {
	key := strings.ToLower(a.Name())
	if _, exists := r.byName[key]; exists {
		return
	}
	r.byName[key] = a
	r.order = append(r.order, a)
}

func (r *Registry) Get(name string) (Adapter, bool) {
	a, ok := r.byName[strings.ToLower(strings.TrimSpace(name))]
	return a, ok
}

func (r *Registry) All() []Adapter {
	out := make([]Adapter, len(r.order))
	copy(out, r.order)
	return out
}
