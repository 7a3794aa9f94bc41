/*
 * Copyright (c) 2018-2024, corerpc authors. All rights reserved.
 */
package resolve_test

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/glacio/corerpc/model"
	"github.com/glacio/corerpc/resolve"
)

func TestResolveNumericHostFastPath(t *testing.T) {
	r := resolve.NewResolver(4, 1)
	defer r.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	addrs, err := r.Resolve(ctx, "127.0.0.1")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(addrs) != 1 || addrs[0].String() != "127.0.0.1" {
		t.Fatalf("unexpected addrs: %v", addrs)
	}
}

func TestResolveLocalhostName(t *testing.T) {
	r := resolve.NewResolver(4, 1)
	defer r.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	addrs, err := r.Resolve(ctx, "localhost")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(addrs) == 0 {
		t.Fatal("expected at least one address for localhost")
	}
}

func TestResolveWithMultipleWorkersHandlesConcurrentLookups(t *testing.T) {
	r := resolve.NewResolver(8, 4)
	defer r.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	hosts := []string{"127.0.0.1", "127.0.0.2", "127.0.0.3", "localhost"}
	errCh := make(chan error, len(hosts))
	for _, h := range hosts {
		go func(h string) {
			_, err := r.Resolve(ctx, h)
			errCh <- err
		}(h)
	}
	for range hosts {
		if err := <-errCh; err != nil {
			t.Fatalf("resolve: %v", err)
		}
	}
}

func TestOrderOrderedPrefersIPv6(t *testing.T) {
	addrs := []net.IP{net.ParseIP("10.0.0.1"), net.ParseIP("::1"), net.ParseIP("10.0.0.2")}
	out := resolve.Order(addrs, model.Ordered, "proxy-a", true)
	if out[0].String() != "::1" {
		t.Fatalf("expected ipv6 first, got %v", out)
	}
}

func TestOrderOrderedKeepsOrderWithoutPreference(t *testing.T) {
	addrs := []net.IP{net.ParseIP("10.0.0.1"), net.ParseIP("::1"), net.ParseIP("10.0.0.2")}
	out := resolve.Order(addrs, model.Ordered, "proxy-a", false)
	for i := range addrs {
		if out[i].String() != addrs[i].String() {
			t.Fatalf("order changed without prefer_ipv6: %v", out)
		}
	}
}

func TestOrderRandomNeverReusesSeedForSameProxy(t *testing.T) {
	base := make([]net.IP, 12)
	for i := range base {
		base[i] = net.IPv4(10, 0, 0, byte(i+1))
	}
	a := resolve.Order(base, model.Random, "proxy-b", false)
	b := resolve.Order(base, model.Random, "proxy-b", false)
	same := true
	for i := range a {
		if a[i].String() != b[i].String() {
			same = false
			break
		}
	}
	if same {
		t.Fatal("two successive Random orderings for the same proxy produced an identical permutation")
	}
}

func TestExpandWildcardExcludesLoopback(t *testing.T) {
	addrs, err := resolve.ExpandWildcard(resolve.FamilyAny)
	if err != nil {
		t.Fatalf("expand: %v", err)
	}
	for _, a := range addrs {
		if a.IsLoopback() {
			t.Fatalf("loopback address leaked into wildcard expansion: %v", a)
		}
	}
}

func TestAdapterCachePutGetRoundtrip(t *testing.T) {
	cache, err := resolve.NewAdapterCache(time.Minute, time.Minute)
	if err != nil {
		t.Fatalf("new cache: %v", err)
	}
	defer cache.Close()

	eps := []model.EndpointSpec{
		{Transport: "tcp", Host: "10.0.0.5", Port: 4061},
		{Transport: "ssl", Host: "10.0.0.6", Port: 4062},
	}
	if err := cache.Put("adapter-1", eps); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, ok := cache.Get("adapter-1")
	if !ok {
		t.Fatal("expected cache hit")
	}
	if len(got) != 2 || got[0].Host != "10.0.0.5" || got[1].Port != 4062 {
		t.Fatalf("unexpected roundtrip: %+v", got)
	}
}

func TestAdapterCacheMiss(t *testing.T) {
	cache, err := resolve.NewAdapterCache(time.Minute, time.Minute)
	if err != nil {
		t.Fatalf("new cache: %v", err)
	}
	defer cache.Close()
	if _, ok := cache.Get("nonexistent"); ok {
		t.Fatal("expected miss for unknown adapter id")
	}
}
