/*
 * Copyright (c) 2018-2024, corerpc authors. All rights reserved.
 */
package transport

import (
	"net"
	"syscall"
)

// netConnUnwrapper is implemented by *tls.Conn (NetConn, since Go 1.17) to
// expose the raw connection underneath a wrapping layer.
type netConnUnwrapper interface {
	NetConn() net.Conn
}

// fdOf descends through any NetConn-unwrapping layers (TLS) to the raw
// socket and returns its file descriptor for selector registration. ok is
// false for connection types the selector can't poll directly.
func fdOf(c net.Conn) (uintptr, bool) {
	for {
		if u, ok := c.(netConnUnwrapper); ok {
			c = u.NetConn()
			continue
		}
		break
	}
	sc, ok := c.(syscall.Conn)
	if !ok {
		return 0, false
	}
	raw, err := sc.SyscallConn()
	if err != nil {
		return 0, false
	}
	var fd uintptr
	if err := raw.Control(func(f uintptr) { fd = f }); err != nil {
		return 0, false
	}
	return fd, true
}
