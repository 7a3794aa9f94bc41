/*
 * Copyright (c) 2018-2024, corerpc authors. All rights reserved.
 */
package transport

import (
	"context"
	"net"

	"github.com/glacio/corerpc/ierr"
	"github.com/glacio/corerpc/model"
)

type udpTransport struct{}

func NewUDPTransport() Transport { return udpTransport{} }

func (udpTransport) IsDatagram() bool { return true }
func (udpTransport) IsSecure() bool   { return false }

// ConnectAsync for UDP only resolves the remote address and binds a local
// socket; datagrams are connectionless, so there is no handshake to wait on.
// ctx is not consulted: address resolution is not bounded by it.
func (udpTransport) ConnectAsync(ctx context.Context, ep model.EndpointSpec) (Conn, error) {
	raddr, err := net.ResolveUDPAddr("udp", net.JoinHostPort(ep.Host, itoa(ep.Port)))
	if err != nil {
		return nil, ierr.Wrap(ierr.DNSException, err, "resolve "+ep.Host)
	}
	var laddr *net.UDPAddr
	if ep.SourceAddress != "" {
		laddr, err = net.ResolveUDPAddr("udp", ep.SourceAddress+":0")
		if err != nil {
			return nil, ierr.Wrap(ierr.DNSException, err, "resolve source "+ep.SourceAddress)
		}
	}
	c, err := net.DialUDP("udp", laddr, raddr)
	if err != nil {
		return nil, ierr.Wrap(ierr.ConnectFailed, err, "udp dial "+raddr.String())
	}
	return &udpConn{UDPConn: c}, nil
}

type udpConn struct {
	*net.UDPConn
}

func (c *udpConn) Fd() (uintptr, bool) { return fdOf(c.UDPConn) }

var _ Conn = (*udpConn)(nil)
