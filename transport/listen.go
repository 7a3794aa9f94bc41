/*
 * Copyright (c) 2018-2024, corerpc authors. All rights reserved.
 */
package transport

import (
	"context"
	"crypto/tls"
	"net"

	"github.com/glacio/corerpc/ierr"
	"github.com/glacio/corerpc/model"
)

// Listener accepts inbound connections for one object-adapter endpoint.
// Datagram transports have no listener (a UDP "server" just reads off its
// own socket, which is out of this package's scope); Listen rejects "udp".
type Listener interface {
	Accept(ctx context.Context) (Conn, error)
	Close() error
	Addr() net.Addr
}

type streamListener struct {
	ln  net.Listener
	tls *tls.Config // nil for plain tcp
}

// Listen opens a stream listener for ep ("tcp" or "ssl"); tlsConfigFn is
// consulted only for "ssl". ep.Host empty binds every local interface,
// matching the wildcard-endpoint convention resolve.ExpandWildcard
// documents for the outgoing side.
func Listen(ep model.EndpointSpec, tlsConfigFn TLSConfigFunc) (Listener, error) {
	addr := net.JoinHostPort(ep.Host, itoa(ep.Port))
	switch ep.Transport {
	case "tcp":
		ln, err := net.Listen("tcp", addr)
		if err != nil {
			return nil, ierr.Wrap(ierr.SocketException, err, "listen tcp "+addr)
		}
		return &streamListener{ln: ln}, nil
	case "ssl":
		var cfg *tls.Config
		if tlsConfigFn != nil {
			var err error
			cfg, err = tlsConfigFn(ep)
			if err != nil {
				return nil, err
			}
		}
		if cfg == nil {
			cfg = &tls.Config{}
		}
		ln, err := tls.Listen("tcp", addr, cfg)
		if err != nil {
			return nil, ierr.Wrap(ierr.SocketException, err, "listen ssl "+addr)
		}
		return &streamListener{ln: ln, tls: cfg}, nil
	default:
		return nil, ierr.Newf(ierr.SocketException, "no listener for transport tag %q", ep.Transport)
	}
}

// Accept blocks until a connection arrives, ctx is canceled, or the
// listener is closed; cancellation closes the underlying listener's
// accept-deadline-less Accept by racing it on a goroutine, since
// net.Listener itself has no context-aware Accept.
func (l *streamListener) Accept(ctx context.Context) (Conn, error) {
	type result struct {
		c   net.Conn
		err error
	}
	done := make(chan result, 1)
	go func() {
		c, err := l.ln.Accept()
		done <- result{c: c, err: err}
	}()
	select {
	case r := <-done:
		if r.err != nil {
			return nil, ierr.Wrap(ierr.SocketException, r.err, "accept")
		}
		return &tcpConn{Conn: r.c}, nil
	case <-ctx.Done():
		l.ln.Close()
		return nil, ierr.Wrap(ierr.SocketException, ctx.Err(), "accept canceled")
	}
}

func (l *streamListener) Close() error { return l.ln.Close() }
func (l *streamListener) Addr() net.Addr { return l.ln.Addr() }
