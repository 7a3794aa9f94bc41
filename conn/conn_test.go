/*
 * Copyright (c) 2018-2024, corerpc authors. All rights reserved.
 */
package conn_test

import (
	"net"
	"testing"
	"time"

	"github.com/glacio/corerpc/conn"
	"github.com/glacio/corerpc/model"
)

// pipeConn adapts net.Pipe's net.Conn to transport.Conn; Fd always reports
// unsupported, matching the real in-memory-pipe test case transport.Conn
// documents.
type pipeConn struct{ net.Conn }

func (pipeConn) Fd() (uintptr, bool) { return 0, false }

func newPair() (*conn.Connection, *conn.Connection, chan struct{}) {
	clientRaw, serverRaw := net.Pipe()
	client := conn.NewConnection(pipeConn{clientRaw}, conn.Config{}, false)
	server := conn.NewConnection(pipeConn{serverRaw}, conn.Config{
		Dispatch: func(identity model.Identity, facet, operation string, mode model.InvocationMode, ctx map[string]string, params []byte) (conn.ReplyStatus, []byte) {
			return conn.ReplyOK, append([]byte("echo:"), params...)
		},
	}, false)

	done := make(chan struct{})
	go func() {
		for server.State() != conn.Finished {
			server.HandleReadable()
		}
		close(done)
	}()
	return client, server, done
}

func handshake(t *testing.T, client, server *conn.Connection) {
	t.Helper()
	errCh := make(chan error, 1)
	go func() { errCh <- server.WriteValidation() }()
	if err := client.Validate(); err != nil {
		t.Fatalf("client validate: %v", err)
	}
	if err := <-errCh; err != nil {
		t.Fatalf("server write validation: %v", err)
	}
	if client.State() != conn.Active {
		t.Fatalf("expected client Active, got %s", client.State())
	}
}

func TestHandshakeReachesActive(t *testing.T) {
	client, server, done := newPair()
	handshake(t, client, server)
	client.Close(conn.Forcefully)
	server.Close(conn.Forcefully)
	<-done
}

func TestSendRequestRoundtrip(t *testing.T) {
	client, server, done := newPair()
	handshake(t, client, server)

	clientDone := make(chan struct{})
	go func() {
		for client.State() != conn.Finished {
			client.HandleReadable()
		}
		close(clientDone)
	}()

	w, err := client.SendRequest(model.Identity{Name: "obj"}, "", "op", model.Twoway, nil, []byte("hi"))
	if err != nil {
		t.Fatalf("send request: %v", err)
	}
	if w == nil {
		t.Fatal("expected a waiter for a twoway request")
	}

	select {
	case reply := <-w.Done():
		if reply.Err != nil {
			t.Fatalf("unexpected reply error: %v", reply.Err)
		}
		if reply.Status != conn.ReplyOK {
			t.Fatalf("expected ReplyOK, got %v", reply.Status)
		}
		if string(reply.Body) != "echo:hi" {
			t.Fatalf("expected echo:hi, got %q", reply.Body)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for reply")
	}

	client.Close(conn.Forcefully)
	server.Close(conn.Forcefully)
	<-done
	<-clientDone
}

func TestOnewayRequestReturnsNoWaiter(t *testing.T) {
	client, server, done := newPair()
	handshake(t, client, server)

	w, err := client.SendRequest(model.Identity{Name: "obj"}, "", "op", model.Oneway, nil, []byte("hi"))
	if err != nil {
		t.Fatalf("send request: %v", err)
	}
	if w != nil {
		t.Fatal("expected no waiter for a oneway request")
	}

	client.Close(conn.Forcefully)
	server.Close(conn.Forcefully)
	<-done
}

func TestForcefulCloseFailsOutstandingWaiters(t *testing.T) {
	client, server, done := newPair()
	handshake(t, client, server)
	_ = server

	w, err := client.SendRequest(model.Identity{Name: "obj"}, "", "op", model.Twoway, nil, nil)
	if err != nil {
		t.Fatalf("send request: %v", err)
	}

	client.Close(conn.Forcefully)

	select {
	case reply := <-w.Done():
		if reply.Err == nil {
			t.Fatal("expected forceful close to fail the outstanding waiter")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for failure")
	}

	server.Close(conn.Forcefully)
	<-done
}

func TestBatchRequestAccumulatesUntilFlush(t *testing.T) {
	client, server, done := newPair()
	handshake(t, client, server)

	for i := 0; i < 3; i++ {
		w, err := client.SendRequest(model.Identity{Name: "obj"}, "", "op", model.BatchOneway, nil, []byte("x"))
		if err != nil {
			t.Fatalf("batch send %d: %v", i, err)
		}
		if w != nil {
			t.Fatal("batch mode must not return a waiter")
		}
	}
	if err := client.FlushBatch(); err != nil {
		t.Fatalf("flush batch: %v", err)
	}

	client.Close(conn.Forcefully)
	server.Close(conn.Forcefully)
	<-done
}

func TestStateStringsAreDistinct(t *testing.T) {
	states := []conn.State{conn.NotInitialized, conn.Validating, conn.Active, conn.Holding, conn.Closing, conn.Closed, conn.Finished}
	seen := make(map[string]bool)
	for _, s := range states {
		str := s.String()
		if seen[str] {
			t.Fatalf("duplicate state string %q", str)
		}
		seen[str] = true
	}
}
