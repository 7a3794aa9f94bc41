// Package prob implements a fully-featured dynamic probabilistic filter.
/*
 * Copyright (c) 2018-2024, corerpc authors. All rights reserved.
 */
package prob

import (
	"sync"

	cuckoo "github.com/seiflotfy/cuckoofilter"
)

// Filter is a concurrency-safe, resettable probabilistic set, backed by a
// cuckoo filter. It is sized for a bounded window of insertions (e.g. one
// ACM interval's worth of request IDs on a connection) rather than grown
// indefinitely: callers call Reset() periodically instead of relying on
// eviction.
type Filter struct {
	mu  sync.Mutex
	cf  *cuckoo.Filter
	cap uint
}

// New returns a Filter sized to hold approximately capacity distinct items
// before its false-positive rate starts climbing.
func New(capacity uint) *Filter {
	if capacity == 0 {
		capacity = 1024
	}
	return &Filter{cf: cuckoo.NewFilter(capacity), cap: capacity}
}

// AddIfNotPresent inserts key and reports whether it was already present
// (possibly a false positive — callers must tolerate rare false "seen"
// answers, which is the point: they guard a best-effort duplicate check,
// not a correctness-critical one).
func (f *Filter) AddIfNotPresent(key []byte) (alreadyPresent bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cf.Lookup(key) {
		return true
	}
	f.cf.InsertUnique(key)
	return false
}

// Reset drops all inserted keys, reclaiming the filter for the next window.
func (f *Filter) Reset() {
	f.mu.Lock()
	f.cf = cuckoo.NewFilter(f.cap)
	f.mu.Unlock()
}

// Count returns the approximate number of keys currently tracked.
func (f *Filter) Count() uint {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cf.Count()
}
