package config

import (
	"sync"

	macerrors "github.com/arthur-debert/macsetup/pkg/errors"
)

// Provider hands the store to modules that run after the bootstrap module.
// Modules that run before it are constructed without a Provider.
type Provider struct {
	mu    sync.RWMutex
	store Store
}

// NewProvider returns an empty provider
func NewProvider() *Provider {
	return &Provider{}
}

// Set publishes the loaded store
func (p *Provider) Set(store Store) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.store = store
}

// Store returns the loaded store or ErrConfigNotReady
func (p *Provider) Store() (Store, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.store == nil {
		return nil, macerrors.New(macerrors.ErrConfigNotReady, "configuration has not been loaded; the dependencies module must run first")
	}
	return p.store, nil
}

// Ready reports whether a store has been published
func (p *Provider) Ready() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.store != nil
}
