/*
 * Copyright (c) 2018-2024, corerpc authors. All rights reserved.
 */
package resolve

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"strings"

	"github.com/glacio/corerpc/ierr"
	"github.com/glacio/corerpc/model"
	"github.com/glacio/corerpc/transport"
)

// NetworkProxy describes a SOCKS/HTTP CONNECT tunnel endpoint substituted
// for the real target; the resolver hands the Connector the proxy's own
// address to dial, and the original host/port to request via CONNECT.
type NetworkProxy struct {
	Kind string // "http" or "socks5"
	Host string
	Port int
}

// Connector dials one resolved address for one endpoint, optionally
// tunneling through a NetworkProxy.
type Connector struct {
	transport transport.Transport
	endpoint  model.EndpointSpec
	target    net.IP
	proxy     *NetworkProxy
}

func NewConnector(tr transport.Transport, ep model.EndpointSpec, target net.IP, proxy *NetworkProxy) *Connector {
	return &Connector{transport: tr, endpoint: ep, target: target, proxy: proxy}
}

// Connect dials the proxy (if configured) or the target directly, then
// writes the CONNECT tunnel handshake as the very first bytes after
// transport connect, per the resolver's network-proxy contract.
func (c *Connector) Connect(ctx context.Context) (transport.Conn, error) {
	dialEp := c.endpoint
	dialEp.Host = c.target.String()
	if c.proxy != nil {
		dialEp.Host = c.proxy.Host
		dialEp.Port = c.proxy.Port
	}

	conn, err := c.transport.ConnectAsync(ctx, dialEp)
	if err != nil {
		return nil, err
	}

	if c.proxy != nil {
		if err := c.tunnel(conn); err != nil {
			conn.Close()
			return nil, err
		}
	}
	return conn, nil
}

func (c *Connector) tunnel(conn transport.Conn) error {
	targetAddr := net.JoinHostPort(c.target.String(), itoa(c.endpoint.Port))
	switch c.proxy.Kind {
	case "http":
		return c.httpConnect(conn, targetAddr)
	case "socks5":
		return c.socks5Connect(conn, targetAddr)
	default:
		return ierr.Newf(ierr.ConnectFailed, "unknown network proxy kind %q", c.proxy.Kind)
	}
}

func (c *Connector) httpConnect(conn transport.Conn, targetAddr string) error {
	req := fmt.Sprintf("CONNECT %s HTTP/1.1\r\nHost: %s\r\n\r\n", targetAddr, targetAddr)
	if _, err := conn.Write([]byte(req)); err != nil {
		return ierr.Wrap(ierr.ConnectFailed, err, "write CONNECT request")
	}
	line, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil {
		return ierr.Wrap(ierr.ConnectFailed, err, "read CONNECT response")
	}
	if !strings.Contains(line, "200") {
		return ierr.Newf(ierr.ConnectFailed, "CONNECT tunnel rejected: %s", strings.TrimSpace(line))
	}
	return nil
}

// socks5Connect performs the no-auth SOCKS5 handshake (RFC 1928) followed by
// a CONNECT request to targetAddr.
func (c *Connector) socks5Connect(conn transport.Conn, targetAddr string) error {
	if _, err := conn.Write([]byte{0x05, 0x01, 0x00}); err != nil {
		return ierr.Wrap(ierr.ConnectFailed, err, "socks5 greeting")
	}
	reply := make([]byte, 2)
	if _, err := readFull(conn, reply); err != nil {
		return ierr.Wrap(ierr.ConnectFailed, err, "socks5 greeting reply")
	}
	if reply[0] != 0x05 || reply[1] != 0x00 {
		return ierr.Newf(ierr.ConnectFailed, "socks5 server rejected no-auth")
	}

	host, portStr, err := net.SplitHostPort(targetAddr)
	if err != nil {
		return ierr.Wrap(ierr.ConnectFailed, err, "split target address")
	}
	ip := net.ParseIP(host)
	req := []byte{0x05, 0x01, 0x00}
	switch {
	case ip == nil:
		req = append(req, 0x03, byte(len(host)))
		req = append(req, []byte(host)...)
	case ip.To4() != nil:
		req = append(req, 0x01)
		req = append(req, ip.To4()...)
	default:
		req = append(req, 0x04)
		req = append(req, ip.To16()...)
	}
	port, _ := parsePort(portStr)
	req = append(req, byte(port>>8), byte(port))
	if _, err := conn.Write(req); err != nil {
		return ierr.Wrap(ierr.ConnectFailed, err, "socks5 connect request")
	}
	head := make([]byte, 4)
	if _, err := readFull(conn, head); err != nil {
		return ierr.Wrap(ierr.ConnectFailed, err, "socks5 connect reply header")
	}
	if head[1] != 0x00 {
		return ierr.Newf(ierr.ConnectFailed, "socks5 connect failed, code %d", head[1])
	}
	var rest int
	switch head[3] {
	case 0x01:
		rest = 4 + 2
	case 0x04:
		rest = 16 + 2
	case 0x03:
		lenBuf := make([]byte, 1)
		if _, err := readFull(conn, lenBuf); err != nil {
			return ierr.Wrap(ierr.ConnectFailed, err, "socks5 domain length")
		}
		rest = int(lenBuf[0]) + 2
	}
	if rest > 0 {
		if _, err := readFull(conn, make([]byte, rest)); err != nil {
			return ierr.Wrap(ierr.ConnectFailed, err, "socks5 connect reply tail")
		}
	}
	return nil
}

func parsePort(s string) (int, error) {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, ierr.Newf(ierr.ConnectFailed, "invalid port %q", s)
		}
		n = n*10 + int(r-'0')
	}
	return n, nil
}

func readFull(conn transport.Conn, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := conn.Read(buf[total:])
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var buf [12]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}
