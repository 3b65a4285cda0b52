package ratelimiter

import (
	"fmt"
	"sync"
)

// Registry holds the rate limiter of each model.
type Registry interface {
	Get(model string) (Limiter, error)
	Set(model string, limiter Limiter)
	Delete(model string)
}

type mapRegistry struct {
	registry map[string]Limiter
	mu       sync.RWMutex
}

// NewRegistry creates a new in-memory rate limiter registry.
func NewRegistry() Registry {
	return &mapRegistry{
		registry: make(map[string]Limiter),
	}
}

func (r *mapRegistry) Get(model string) (Limiter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	limiter, exists := r.registry[model]
	if !exists {
		return nil, fmt.Errorf("rate limiter not found for model: %s", model)
	}
	return limiter, nil
}

func (r *mapRegistry) Set(model string, limiter Limiter) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.registry[model] = limiter
}

func (r *mapRegistry) Delete(model string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.registry, model)
}
