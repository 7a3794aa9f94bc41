/*
 * Copyright (c) 2018-2024, corerpc authors. All rights reserved.
 */
package adapter

import (
	"context"
	"sync"

	"github.com/glacio/corerpc/cmn/nlog"
	"github.com/glacio/corerpc/conn"
	"github.com/glacio/corerpc/model"
	"github.com/glacio/corerpc/pool"
	"github.com/glacio/corerpc/transport"
)

// Adapter binds a set of servants (and, transitively, the connections that
// reach them) to one logical name. It is the server-side counterpart to a
// proxy: where a proxy issues operations, an adapter answers them.
type Adapter struct {
	name string
	reg  *registry

	mu       sync.Mutex
	locators []Locator

	pool      *pool.Pool
	connCfg   conn.Config
	listeners []transport.Listener
}

// New creates an adapter; pool is the pool.Pool every accepted connection
// registers with to have its reads/writes driven, connCfg is applied to
// each accepted connection with Dispatch and IsServer forced to this
// adapter's own values.
func New(name string, p *pool.Pool, connCfg conn.Config) *Adapter {
	a := &Adapter{name: name, reg: newRegistry(), pool: p, connCfg: connCfg}
	a.connCfg.IsServer = true
	a.connCfg.Dispatch = a.Dispatch
	return a
}

// Add registers s under identity's main (unfaceted) interface.
func (a *Adapter) Add(identity model.Identity, s Servant) {
	a.reg.add(identity, "", s)
}

// AddFacet registers s under identity/facet.
func (a *Adapter) AddFacet(identity model.Identity, facet string, s Servant) {
	a.reg.add(identity, facet, s)
}

// Remove unregisters whatever is bound to identity/facet, if anything.
func (a *Adapter) Remove(identity model.Identity, facet string) {
	a.reg.remove(identity, facet)
}

// AddDefaultServant registers s to answer any identity of category that
// has no exact identity/facet match.
func (a *Adapter) AddDefaultServant(category string, s Servant) {
	a.reg.addDefault(category, s)
}

// RemoveDefaultServant undoes AddDefaultServant for category.
func (a *Adapter) RemoveDefaultServant(category string) {
	a.reg.removeDefault(category)
}

// AddLocator appends l to the locator chain, consulted in registration
// order after the exact match and the default servant both miss.
func (a *Adapter) AddLocator(l Locator) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.locators = append(a.locators, l)
}

// Dispatch is the conn.DispatchFunc this adapter's connections call into.
// Lookup order: exact identity/facet match, then the category's default
// servant, then the locator chain in registration order, then
// ObjectNotExist/FacetNotExist.
func (a *Adapter) Dispatch(identity model.Identity, facet, operation string, mode model.InvocationMode, ctx map[string]string, params []byte) (conn.ReplyStatus, []byte) {
	if s, ok := a.reg.findExact(identity, facet); ok {
		return s.Dispatch(operation, mode, ctx, params)
	}
	if s, ok := a.reg.findDefault(identity); ok {
		return s.Dispatch(operation, mode, ctx, params)
	}

	a.mu.Lock()
	locators := append([]Locator(nil), a.locators...)
	a.mu.Unlock()

	for _, loc := range locators {
		s, finalize, err := loc.Locate(identity, facet)
		if err != nil {
			if finalize != nil {
				finalize()
			}
			return conn.ReplyUnknownLocalException, nil
		}
		if s == nil {
			continue
		}
		status, reply := func() (status conn.ReplyStatus, reply []byte) {
			if finalize != nil {
				defer finalize()
			}
			return s.Dispatch(operation, mode, ctx, params)
		}()
		return status, reply
	}

	if facet != "" && a.reg.hasAnyFacet(identity) {
		return conn.ReplyFacetNotExist, nil
	}
	return conn.ReplyObjectNotExist, nil
}

// Activate starts accepting connections on ep, registering each validated
// connection with the adapter's pool. It runs the accept loop on the
// caller's goroutine; call it with `go`.
func (a *Adapter) Activate(ctx context.Context, ep model.EndpointSpec, tlsConfigFn transport.TLSConfigFunc) error {
	ln, err := transport.Listen(ep, tlsConfigFn)
	if err != nil {
		return err
	}
	a.mu.Lock()
	a.listeners = append(a.listeners, ln)
	a.mu.Unlock()

	for {
		raw, err := ln.Accept(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			nlog.Warningf("adapter %s: accept on %s: %v", a.name, ep, err)
			continue
		}
		go a.serve(raw)
	}
}

func (a *Adapter) serve(raw transport.Conn) {
	c := conn.NewConnection(raw, a.connCfg, false)
	if err := c.WriteValidation(); err != nil {
		nlog.Warningf("adapter %s: validation handshake failed: %v", a.name, err)
		raw.Close()
		return
	}
	if a.pool != nil {
		if err := a.pool.Register(c); err != nil {
			nlog.Warningf("adapter %s: pool registration failed: %v", a.name, err)
			c.Close(conn.Forcefully)
		}
	}
}

// Deactivate closes every listener Activate opened; it does not close
// already-accepted connections, which the adapter's pool continues to own.
func (a *Adapter) Deactivate() {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, ln := range a.listeners {
		ln.Close()
	}
	a.listeners = nil
}
