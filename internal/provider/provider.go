// Package provider implements OAuth identity provider adapters. Each adapter
// wraps an oauth2.Config and knows how to turn an authorization code into a
// normalized profile plus the provider's token material.
package provider

import (
	"context"

	"github.com/classhub/classhub-server/internal/model"
)

// Adapter is a single OAuth identity provider.
type Adapter interface {
	// Name returns the stable provider identifier stored with linked accounts.
	Name() string
	// AuthURL builds the provider authorization URL carrying the state token.
	AuthURL(state string) string
	// Exchange trades an authorization code for the user's profile and the
	// provider-issued tokens.
	Exchange(ctx context.Context, code string) (model.ProviderProfile, model.ProviderTokens, error)
}

// Registry holds the configured adapters keyed by provider name.
type Registry map[string]Adapter

// NewRegistry builds a registry from the given adapters.
func NewRegistry(adapters ...Adapter) Registry {
	r := make(Registry, len(adapters))
	for _, a := range adapters {
		r[a.Name()] = a
	}
	return r
}

// Get returns the adapter for the provider name.
func (r Registry) Get(name string) (Adapter, bool) {
	a, ok := r[name]
	return a, ok
}
