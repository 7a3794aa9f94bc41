/*
 * Copyright (c) 2018-2024, corerpc authors. All rights reserved.
 */
package transport_test

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/glacio/corerpc/model"
	"github.com/glacio/corerpc/transport"
)

func TestTCPTransportConnectAsyncRoundtrip(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	accepted := make(chan net.Conn, 1)
	go func() {
		c, err := ln.Accept()
		if err == nil {
			accepted <- c
		}
	}()

	addr := ln.Addr().(*net.TCPAddr)
	ep := model.EndpointSpec{Transport: "tcp", Host: "127.0.0.1", Port: addr.Port}

	tr := transport.NewTCPTransport()
	if tr.IsDatagram() {
		t.Fatal("tcp transport must not be datagram")
	}
	if tr.IsSecure() {
		t.Fatal("plain tcp transport must not be secure")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	conn, err := tr.ConnectAsync(ctx, ep)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer conn.Close()

	server := <-accepted
	defer server.Close()

	if _, err := conn.Write([]byte("ping")); err != nil {
		t.Fatalf("write: %v", err)
	}
	buf := make([]byte, 4)
	server.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, err := server.Read(buf); err != nil {
		t.Fatalf("server read: %v", err)
	}
	if string(buf) != "ping" {
		t.Fatalf("got %q", buf)
	}
}

func TestTCPTransportConnectRefused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().(*net.TCPAddr)
	ln.Close() // nothing listening now

	ep := model.EndpointSpec{Transport: "tcp", Host: "127.0.0.1", Port: addr.Port}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := transport.NewTCPTransport().ConnectAsync(ctx, ep); err == nil {
		t.Fatal("expected connect-refused error")
	}
}

func TestUDPTransportDialDoesNotBlock(t *testing.T) {
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer pc.Close()
	addr := pc.LocalAddr().(*net.UDPAddr)

	ep := model.EndpointSpec{Transport: "udp", Host: "127.0.0.1", Port: addr.Port}
	tr := transport.NewUDPTransport()
	if !tr.IsDatagram() {
		t.Fatal("udp transport must be datagram")
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	conn, err := tr.ConnectAsync(ctx, ep)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	if _, err := conn.Write([]byte("x")); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestRegistryLookupUnknownTag(t *testing.T) {
	r := transport.NewRegistry()
	r.Register("tcp", transport.NewTCPTransport())
	if _, err := r.Lookup("quic"); err == nil {
		t.Fatal("expected error for unregistered tag")
	}
	if _, err := r.Lookup("tcp"); err != nil {
		t.Fatalf("expected tcp to resolve: %v", err)
	}
}

func TestSelectorRegisterAndWait(t *testing.T) {
	sel, err := transport.NewSelector()
	if err != nil {
		t.Fatalf("new selector: %v", err)
	}
	defer sel.Close()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()
	addr := ln.Addr().(*net.TCPAddr)

	ep := model.EndpointSpec{Transport: "tcp", Host: "127.0.0.1", Port: addr.Port}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	conn, err := transport.NewTCPTransport().ConnectAsync(ctx, ep)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer conn.Close()

	server, err := ln.Accept()
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	defer server.Close()

	fd, ok := conn.Fd()
	if !ok {
		t.Skip("Fd() unsupported on this platform for loopback tcp conn")
	}
	if err := sel.Register(fd, "marker", false); err != nil {
		t.Fatalf("register: %v", err)
	}
	defer sel.Remove(fd)

	if _, err := server.Write([]byte("readable-now")); err != nil {
		t.Fatalf("server write: %v", err)
	}

	events, err := sel.Wait(nil, 2*time.Second)
	if err != nil {
		t.Fatalf("wait: %v", err)
	}
	found := false
	for _, ev := range events {
		if ev.UserData == "marker" && ev.Readable {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected readable event for marker, got %+v", events)
	}
}
