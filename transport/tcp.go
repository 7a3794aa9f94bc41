/*
 * Copyright (c) 2018-2024, corerpc authors. All rights reserved.
 */
package transport

import (
	"context"
	"net"

	"github.com/glacio/corerpc/cmn/cos"
	"github.com/glacio/corerpc/cmn/nlog"
	"github.com/glacio/corerpc/ierr"
	"github.com/glacio/corerpc/model"
)

type tcpTransport struct{}

func NewTCPTransport() Transport { return tcpTransport{} }

func (tcpTransport) IsDatagram() bool { return false }
func (tcpTransport) IsSecure() bool   { return false }

func (tcpTransport) ConnectAsync(ctx context.Context, ep model.EndpointSpec) (Conn, error) {
	c, err := dialTCP(ctx, "tcp", ep)
	if err != nil {
		return nil, err
	}
	return &tcpConn{Conn: c}, nil
}

func dialTCP(ctx context.Context, network string, ep model.EndpointSpec) (net.Conn, error) {
	d := net.Dialer{}
	if ep.SourceAddress != "" {
		if local, err := net.ResolveTCPAddr(network, ep.SourceAddress+":0"); err == nil {
			d.LocalAddr = local
		} else {
			nlog.Warningf("transport: ignoring unresolvable source address %q: %v", ep.SourceAddress, err)
		}
	}
	addr := net.JoinHostPort(ep.Host, itoa(ep.Port))
	c, err := d.DialContext(ctx, network, addr)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ierr.Wrap(ierr.ConnectTimeout, err, "connect timeout "+addr)
		}
		if cos.IsRetriableConnErr(err) {
			// Refused/reset/broken-pipe dial failures are transient conditions
			// a listener restart or brief backlog overflow clears up; mark
			// them ConnectFailed so the proxy's retry schedule picks them up.
			return nil, ierr.Wrap(ierr.ConnectFailed, err, "connect failed "+addr)
		}
		return nil, ierr.Wrap(ierr.SocketException, err, "connect failed "+addr)
	}
	return c, nil
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [12]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// tcpConn adapts net.Conn (and the TLS conn, which embeds it) to Conn, adding
// the selector-facing Fd lookup via the platform-specific fdOf helper.
type tcpConn struct {
	net.Conn
}

func (c *tcpConn) Fd() (uintptr, bool) { return fdOf(c.Conn) }

var _ Conn = (*tcpConn)(nil)
