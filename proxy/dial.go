/*
 * Copyright (c) 2018-2024, corerpc authors. All rights reserved.
 */
package proxy

import (
	"context"

	"github.com/glacio/corerpc/conn"
	"github.com/glacio/corerpc/ierr"
	"github.com/glacio/corerpc/model"
	"github.com/glacio/corerpc/pool"
	"github.com/glacio/corerpc/resolve"
	"github.com/glacio/corerpc/transport"
)

// Dialer establishes a validated, Active connection suitable for carrying
// an invocation to p. Invoker calls it at most once per cache miss; a test
// double can skip resolution/transport entirely and hand back an
// already-wired in-memory conn.Connection.
type Dialer interface {
	Dial(ctx context.Context, p model.Proxy) (*conn.Connection, error)
}

// DialerConfig bundles what a production Dialer resolves and dials
// through: the transport registry, the background resolver, endpoint
// ordering preference, and the connection-level configuration applied to
// every dial (ACM, message size limits, dispatch for bidirectional
// connections).
type DialerConfig struct {
	Transports *transport.Registry
	Resolver   *resolve.Resolver
	Pool       *pool.Pool // registers every dialed connection so its pool drives reads/writes; nil runs unregistered (tests only)
	PreferIPv6 bool
	ConnConfig conn.Config
}

type defaultDialer struct {
	cfg DialerConfig
}

// NewDialer builds the production Dialer: resolve endpoints, order them
// per the proxy's EndpointSelection, try each resolved connector in turn,
// and run the validation handshake on the first one that connects.
func NewDialer(cfg DialerConfig) Dialer {
	return &defaultDialer{cfg: cfg}
}

func (d *defaultDialer) Dial(ctx context.Context, p model.Proxy) (*conn.Connection, error) {
	if len(p.Endpoints) == 0 {
		return nil, ierr.New(ierr.ConnectFailed, "proxy has no direct endpoints to dial (indirect/adapter-id binding requires a locator, out of this package's scope)")
	}

	var lastErr error
	for _, ep := range p.Endpoints {
		tr, err := d.cfg.Transports.Lookup(ep.Transport)
		if err != nil {
			lastErr = err
			continue
		}

		addrs, err := d.cfg.Resolver.Resolve(ctx, ep.Host)
		if err != nil {
			lastErr = err
			continue
		}
		addrs = resolve.Order(addrs, p.Selection, p.String(), d.cfg.PreferIPv6)

		for _, addr := range addrs {
			connector := resolve.NewConnector(tr, ep, addr, nil)
			raw, err := connector.Connect(ctx)
			if err != nil {
				lastErr = err
				continue
			}
			cfg := d.cfg.ConnConfig
			cfg.IsServer = false
			c := conn.NewConnection(raw, cfg, tr.IsDatagram())
			if err := c.Validate(); err != nil {
				raw.Close()
				lastErr = err
				continue
			}
			if d.cfg.Pool != nil {
				if err := d.cfg.Pool.Register(c); err != nil {
					c.Close(conn.Forcefully)
					lastErr = err
					continue
				}
			}
			return c, nil
		}
	}
	if lastErr == nil {
		lastErr = ierr.New(ierr.ConnectFailed, "no endpoint could be resolved")
	}
	return nil, lastErr
}
