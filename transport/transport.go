// Package transport is the non-blocking transport capability abstraction
// connections are built on: connect/read/write/close over TCP, TLS and UDP,
// plus a readiness selector the thread pool's leader/follower loop polls.
/*
 * Copyright (c) 2018-2024, corerpc authors. All rights reserved.
 */
package transport

import (
	"context"
	"net"
	"time"

	"github.com/glacio/corerpc/ierr"
	"github.com/glacio/corerpc/model"
)

// Transport resolves one endpoint's transport tag ("tcp", "ssl", "udp") to a
// concrete dialer/listener capability.
type Transport interface {
	// ConnectAsync dials ep, honoring ep.SourceAddress. The stream
	// transports (tcp, ssl) never block past ctx's deadline/cancellation;
	// the UDP transport does not consult ctx.
	ConnectAsync(ctx context.Context, ep model.EndpointSpec) (Conn, error)
	IsDatagram() bool
	IsSecure() bool
}

// Conn is the byte-stream (or datagram) capability a connection in the conn
// package drives; it is deliberately narrower than net.Conn so fakes for
// testing are trivial to write.
type Conn interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	Close() error
	LocalAddr() net.Addr
	RemoteAddr() net.Addr
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	// Fd exposes the underlying file descriptor for selector registration;
	// ok is false for transports (e.g. in-memory pipes used in tests) that
	// can't be registered with an OS-level readiness selector.
	Fd() (fd uintptr, ok bool)
}

// Registry resolves an endpoint's Transport tag to an implementation.
type Registry struct {
	byTag map[string]Transport
}

func NewRegistry() *Registry { return &Registry{byTag: make(map[string]Transport)} }

func (r *Registry) Register(tag string, t Transport) { r.byTag[tag] = t }

func (r *Registry) Lookup(tag string) (Transport, error) {
	t, ok := r.byTag[tag]
	if !ok {
		return nil, ierr.Newf(ierr.SocketException, "no transport registered for tag %q", tag)
	}
	return t, nil
}

// DefaultRegistry wires the transport tags the resolver/connector pipeline
// recognizes out of the box: plain TCP, TLS ("ssl"), and UDP.
func DefaultRegistry(tlsConfigFn TLSConfigFunc) *Registry {
	r := NewRegistry()
	r.Register("tcp", NewTCPTransport())
	r.Register("ssl", NewTLSTransport(tlsConfigFn))
	r.Register("udp", NewUDPTransport())
	return r
}
