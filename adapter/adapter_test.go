/*
 * Copyright (c) 2018-2024, corerpc authors. All rights reserved.
 */
package adapter_test

import (
	"errors"
	"net"
	"testing"

	"github.com/glacio/corerpc/adapter"
	"github.com/glacio/corerpc/conn"
	"github.com/glacio/corerpc/model"
)

type pipeConn struct{ net.Conn }

func (pipeConn) Fd() (uintptr, bool) { return 0, false }

// dispatchRoundtrip wires a client/server conn.Connection pair over
// net.Pipe, drives both sides, and returns the client so a test can send
// requests into a.Dispatch.
func dispatchRoundtrip(t *testing.T, a *adapter.Adapter) *conn.Connection {
	t.Helper()
	clientRaw, serverRaw := net.Pipe()
	client := conn.NewConnection(pipeConn{clientRaw}, conn.Config{}, false)
	serverCfg := conn.Config{Dispatch: a.Dispatch}
	server := conn.NewConnection(pipeConn{serverRaw}, serverCfg, false)

	errCh := make(chan error, 1)
	go func() { errCh <- server.WriteValidation() }()
	if err := client.Validate(); err != nil {
		t.Fatalf("client validate: %v", err)
	}
	if err := <-errCh; err != nil {
		t.Fatalf("server validate: %v", err)
	}
	go func() {
		for server.State() != conn.Finished {
			server.HandleReadable()
		}
	}()
	go func() {
		for client.State() != conn.Finished {
			client.HandleReadable()
		}
	}()
	return client
}

func mustInvoke(t *testing.T, client *conn.Connection, identity model.Identity, facet, op string, params []byte) conn.Reply {
	t.Helper()
	w, err := client.SendRequest(identity, facet, op, model.Twoway, nil, params)
	if err != nil {
		t.Fatalf("send request: %v", err)
	}
	return <-w.Done()
}

func TestDispatchExactMatch(t *testing.T) {
	a := adapter.New("test", nil, conn.Config{})
	identity := model.Identity{Name: "widget"}
	a.Add(identity, adapter.ServantFunc(func(op string, mode model.InvocationMode, ctx map[string]string, params []byte) (conn.ReplyStatus, []byte) {
		return conn.ReplyOK, append([]byte("got:"), params...)
	}))

	client := dispatchRoundtrip(t, a)
	reply := mustInvoke(t, client, identity, "", "op", []byte("x"))
	if reply.Err != nil {
		t.Fatalf("unexpected error: %v", reply.Err)
	}
	if reply.Status != conn.ReplyOK || string(reply.Body) != "got:x" {
		t.Fatalf("unexpected reply: %+v", reply)
	}
}

func TestDispatchFallsBackToDefaultServant(t *testing.T) {
	a := adapter.New("test", nil, conn.Config{})
	a.AddDefaultServant("widgets", adapter.ServantFunc(func(op string, mode model.InvocationMode, ctx map[string]string, params []byte) (conn.ReplyStatus, []byte) {
		return conn.ReplyOK, []byte("default")
	}))

	client := dispatchRoundtrip(t, a)
	reply := mustInvoke(t, client, model.Identity{Category: "widgets", Name: "any-id"}, "", "op", nil)
	if reply.Err != nil {
		t.Fatalf("unexpected error: %v", reply.Err)
	}
	if string(reply.Body) != "default" {
		t.Fatalf("expected default servant reply, got %q", reply.Body)
	}
}

func TestDispatchConsultsLocatorChainInOrder(t *testing.T) {
	a := adapter.New("test", nil, conn.Config{})
	var order []string
	a.AddLocator(adapter.LocatorFunc(func(identity model.Identity, facet string) (adapter.Servant, func(), error) {
		order = append(order, "first")
		return nil, nil, nil // miss, fall through
	}))
	finalized := false
	a.AddLocator(adapter.LocatorFunc(func(identity model.Identity, facet string) (adapter.Servant, func(), error) {
		order = append(order, "second")
		s := adapter.ServantFunc(func(op string, mode model.InvocationMode, ctx map[string]string, params []byte) (conn.ReplyStatus, []byte) {
			return conn.ReplyOK, []byte("located")
		})
		return s, func() { finalized = true }, nil
	}))

	client := dispatchRoundtrip(t, a)
	reply := mustInvoke(t, client, model.Identity{Name: "located-id"}, "", "op", nil)
	if reply.Err != nil {
		t.Fatalf("unexpected error: %v", reply.Err)
	}
	if string(reply.Body) != "located" {
		t.Fatalf("expected located servant reply, got %q", reply.Body)
	}
	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Fatalf("expected both locators consulted in order, got %v", order)
	}
	if !finalized {
		t.Fatal("expected the winning locator's finalizer to run")
	}
}

func TestDispatchFinalizerRunsExactlyOnceOnLocatorError(t *testing.T) {
	a := adapter.New("test", nil, conn.Config{})
	calls := 0
	a.AddLocator(adapter.LocatorFunc(func(identity model.Identity, facet string) (adapter.Servant, func(), error) {
		return nil, func() { calls++ }, errors.New("locator blew up")
	}))

	client := dispatchRoundtrip(t, a)
	reply := mustInvoke(t, client, model.Identity{Name: "whatever"}, "", "op", nil)
	if reply.Status != conn.ReplyUnknownLocalException {
		t.Fatalf("expected ReplyUnknownLocalException, got %v (err=%v)", reply.Status, reply.Err)
	}
	if calls != 1 {
		t.Fatalf("expected finalizer to run exactly once, got %d", calls)
	}
}

func TestDispatchObjectNotExist(t *testing.T) {
	a := adapter.New("test", nil, conn.Config{})
	client := dispatchRoundtrip(t, a)
	reply := mustInvoke(t, client, model.Identity{Name: "nobody"}, "", "op", nil)
	if reply.Status != conn.ReplyObjectNotExist {
		t.Fatalf("expected ReplyObjectNotExist, got %v", reply.Status)
	}
}

func TestDispatchFacetNotExist(t *testing.T) {
	a := adapter.New("test", nil, conn.Config{})
	identity := model.Identity{Name: "widget"}
	a.Add(identity, adapter.ServantFunc(func(op string, mode model.InvocationMode, ctx map[string]string, params []byte) (conn.ReplyStatus, []byte) {
		return conn.ReplyOK, nil
	}))

	client := dispatchRoundtrip(t, a)
	reply := mustInvoke(t, client, identity, "missing-facet", "op", nil)
	if reply.Status != conn.ReplyFacetNotExist {
		t.Fatalf("expected ReplyFacetNotExist, got %v", reply.Status)
	}
}
