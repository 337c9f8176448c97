package abi

import (
	"fmt"
	"sync"
)

// Registry memoizes resolved ABIs by version. Resolution is read-mostly; a
// write happens only the first time a version pair is seen. A Registry may be
// shared by banks opened concurrently.
type Registry struct {
	mu    sync.Mutex
	cache map[Version]*ABI
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{cache: make(map[Version]*ABI)}
}

// Resolve returns the ABI for v, building it at most once. Versions no
// family accepts fail with ErrUnknownVersion; no layout is ever guessed.
func (r *Registry) Resolve(v Version) (*ABI, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if a, ok := r.cache[v]; ok {
		return a, nil
	}
	for _, f := range families {
		if f.compatible(v) {
			a := build(f, v)
			r.cache[v] = a
			return a, nil
		}
	}
	return nil, fmt.Errorf("version %s: %w", v, ErrUnknownVersion)
}

// Generic returns the header-only ABI.
func (r *Registry) Generic() *ABI {
	a, err := r.Resolve(GenericVersion)
	if err != nil {
		panic(err) // generic family always accepts GenericVersion
	}
	return a
}

// Len returns the number of cached ABIs.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.cache)
}
