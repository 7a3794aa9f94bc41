/*
 * Copyright (c) 2018-2024, corerpc authors. All rights reserved.
 */
package adapter

import (
	"sync"

	"github.com/glacio/corerpc/model"
)

// registry holds an adapter's exact identity/facet bindings and its
// per-category default servants. Locators live on the adapter itself,
// since their consultation order (registration order) matters and a plain
// map can't preserve it.
type registry struct {
	mu       sync.RWMutex
	servants map[identityFacet]Servant
	defaults map[string]Servant // category -> default servant
}

type identityFacet struct {
	identity model.Identity
	facet    string
}

func newRegistry() *registry {
	return &registry{
		servants: make(map[identityFacet]Servant),
		defaults: make(map[string]Servant),
	}
}

func (r *registry) add(identity model.Identity, facet string, s Servant) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.servants[identityFacet{identity, facet}] = s
}

func (r *registry) remove(identity model.Identity, facet string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.servants, identityFacet{identity, facet})
}

func (r *registry) addDefault(category string, s Servant) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.defaults[category] = s
}

func (r *registry) removeDefault(category string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.defaults, category)
}

// findExact returns the servant registered for identity/facet, if any.
func (r *registry) findExact(identity model.Identity, facet string) (Servant, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.servants[identityFacet{identity, facet}]
	return s, ok
}

// findDefault returns the default servant for identity's category, if any.
func (r *registry) findDefault(identity model.Identity) (Servant, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.defaults[identity.Category]
	return s, ok
}

// hasAnyFacet reports whether identity is known under any facet at all,
// used to distinguish ObjectNotExist from FacetNotExist.
func (r *registry) hasAnyFacet(identity model.Identity) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for k := range r.servants {
		if k.identity == identity {
			return true
		}
	}
	return false
}
