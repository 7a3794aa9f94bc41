/*
 * Copyright (c) 2018-2024, corerpc authors. All rights reserved.
 */
package proxy

import (
	"strconv"
	"strings"
	"sync"

	"github.com/glacio/corerpc/conn"
	"github.com/glacio/corerpc/model"
)

// connectionCache keys a live Connection by the proxy attributes that
// determine which physical connection serves it, so that (per spec
// scenario 3) a gracefully-closed connection is transparently replaced by
// a new one on the next invocation rather than reused past Finished.
type connectionCache struct {
	mu    sync.Mutex
	byKey map[string]*conn.Connection
}

func newConnectionCache() *connectionCache {
	return &connectionCache{byKey: make(map[string]*conn.Connection)}
}

// get returns a cached, still-usable connection for key, if any.
func (c *connectionCache) get(key string) (*conn.Connection, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	existing, ok := c.byKey[key]
	if !ok {
		return nil, false
	}
	switch existing.State() {
	case conn.Closed, conn.Finished:
		delete(c.byKey, key)
		return nil, false
	default:
		return existing, true
	}
}

// put registers c under key and arranges for it to be evicted once it
// reaches Finished, so a dead entry never lingers past its connection.
func (c *connectionCache) put(key string, cn *conn.Connection) {
	c.mu.Lock()
	c.byKey[key] = cn
	c.mu.Unlock()
	cn.OnClosed(func() {
		c.mu.Lock()
		if c.byKey[key] == cn {
			delete(c.byKey, key)
		}
		c.mu.Unlock()
	})
}

// connectionKey derives a cache key from the proxy attributes that select a
// physical connection: connection ID overrides everything (explicit
// binding); otherwise adapter id or the endpoint list, plus security and
// requested encoding since those affect which connection can serve the
// request.
func connectionKey(p model.Proxy) string {
	if p.ConnectionID != "" {
		return "cid:" + p.ConnectionID
	}
	var b strings.Builder
	if p.AdapterID != "" {
		b.WriteString("adapter:")
		b.WriteString(p.AdapterID)
	} else {
		b.WriteString("endpoints:")
		for i, ep := range p.Endpoints {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(ep.String())
		}
	}
	b.WriteString("|secure=")
	b.WriteString(strconv.FormatBool(p.Secure))
	b.WriteString("|enc=")
	b.WriteString(p.Encoding.String())
	return b.String()
}
