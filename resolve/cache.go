/*
 * Copyright (c) 2018-2024, corerpc authors. All rights reserved.
 */
package resolve

import (
	"time"

	"github.com/tidwall/buntdb"

	"github.com/glacio/corerpc/hk"
	"github.com/glacio/corerpc/ierr"
	"github.com/glacio/corerpc/model"
)

// AdapterCache caches adapter-id -> endpoint list (the endpoints this adapter
// id was last resolved to, typically discovered via a locator) so repeated
// invocations against an indirect proxy skip a locator round-trip. Entries
// expire via buntdb's own TTL; a housekeeping callback periodically shrinks
// the backing db to reclaim space occupied by expired keys.
type AdapterCache struct {
	db  *buntdb.DB
	ttl time.Duration
	unregister hk.UnregisterFunc
}

// NewAdapterCache opens an in-memory buntdb instance (":memory:" — this
// cache is a process-local optimization, never durable state) and registers
// a housekeeping shrink callback with hk.
func NewAdapterCache(ttl time.Duration, shrinkEvery time.Duration) (*AdapterCache, error) {
	db, err := buntdb.Open(":memory:")
	if err != nil {
		return nil, ierr.Wrap(ierr.SocketException, err, "open adapter cache")
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if shrinkEvery <= 0 {
		shrinkEvery = time.Minute
	}
	c := &AdapterCache{db: db, ttl: ttl}
	c.unregister = hk.DefaultHK.Reg("resolve-adapter-cache-shrink", func() time.Duration {
		db.Shrink()
		return shrinkEvery
	}, shrinkEvery)
	return c, nil
}

// Put records endpoints for adapterID, expiring after the cache's TTL.
func (c *AdapterCache) Put(adapterID string, endpoints []model.EndpointSpec) error {
	encoded := encodeEndpoints(endpoints)
	return c.db.Update(func(tx *buntdb.Tx) error {
		_, _, err := tx.Set(adapterID, encoded, &buntdb.SetOptions{Expires: true, TTL: c.ttl})
		return err
	})
}

// Get returns the cached endpoints for adapterID, or ok=false on miss or
// expiry (buntdb evicts lazily on read).
func (c *AdapterCache) Get(adapterID string) (endpoints []model.EndpointSpec, ok bool) {
	_ = c.db.View(func(tx *buntdb.Tx) error {
		v, err := tx.Get(adapterID)
		if err != nil {
			return nil // buntdb.ErrNotFound, or expired — either way, miss
		}
		endpoints, ok = decodeEndpoints(v)
		return nil
	})
	return endpoints, ok
}

func (c *AdapterCache) Close() error {
	if c.unregister != nil {
		c.unregister()
	}
	return c.db.Close()
}

// encodeEndpoints/decodeEndpoints use EndpointSpec.String's own grammar
// (already round-trippable via model.ParseEndpoint) joined by "|", so the
// cache doesn't need a second serialization format for what is already a
// parseable proxy-endpoint string.
func encodeEndpoints(endpoints []model.EndpointSpec) string {
	s := ""
	for i, ep := range endpoints {
		if i > 0 {
			s += "|"
		}
		s += ep.String()
	}
	return s
}

func decodeEndpoints(s string) ([]model.EndpointSpec, bool) {
	if s == "" {
		return nil, false
	}
	var out []model.EndpointSpec
	start := 0
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == '|' {
			part := s[start:i]
			ep, err := model.ParseEndpoint(part)
			if err != nil {
				return nil, false
			}
			out = append(out, ep)
			start = i + 1
		}
	}
	return out, len(out) > 0
}
