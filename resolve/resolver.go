// Package resolve turns a proxy's endpoints into an ordered or shuffled
// list of connectors: DNS resolution (numeric fast path plus a
// FIFO-dispatched, concurrency-bounded background resolver), Ordered/Random
// selection, wildcard expansion for object-adapter endpoints, and
// network-proxy (SOCKS/HTTP CONNECT) tunneling.
/*
 * Copyright (c) 2018-2024, corerpc authors. All rights reserved.
 */
package resolve

import (
	"context"
	"net"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/glacio/corerpc/cmn/nlog"
	"github.com/glacio/corerpc/ierr"
)

// Result is what a resolution produces: an IP, never a hostname, since
// Connector dials by address.
type Result struct {
	Addrs []net.IP
	Err   error
}

type resolveEntry struct {
	host string
	resp chan<- Result
}

// Resolver dispatches DNS lookups FIFO off one queue, but runs up to
// Workers of them concurrently, each gated by a weighted semaphore rather
// than an unbounded goroutine-per-lookup fan-out. Workers=1 (the default,
// matching the single-threaded resolver) serializes lookups exactly as a
// single dedicated goroutine would. The numeric-host fast path in Resolve
// bypasses the queue entirely.
type Resolver struct {
	queue   chan resolveEntry
	sem     *semaphore.Weighted
	wg      sync.WaitGroup
	stop    chan struct{}
	stopCtx context.Context
	cancel  context.CancelFunc
}

func NewResolver(queueDepth, workers int) *Resolver {
	if queueDepth <= 0 {
		queueDepth = 64
	}
	if workers <= 0 {
		workers = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	r := &Resolver{
		queue:   make(chan resolveEntry, queueDepth),
		sem:     semaphore.NewWeighted(int64(workers)),
		stop:    make(chan struct{}),
		stopCtx: ctx,
		cancel:  cancel,
	}
	r.wg.Add(1)
	go r.dispatch()
	return r
}

// dispatch pulls entries off the queue in order and, once a worker slot is
// free, hands each to its own goroutine so a slow lookup never blocks the
// ones behind it in the queue beyond the configured concurrency.
func (r *Resolver) dispatch() {
	defer r.wg.Done()
	for {
		select {
		case e := <-r.queue:
			if err := r.sem.Acquire(r.stopCtx, 1); err != nil {
				e.resp <- Result{Err: ierr.Wrap(ierr.DNSException, err, "resolver shutting down")}
				continue
			}
			r.wg.Add(1)
			go func(e resolveEntry) {
				defer r.wg.Done()
				defer r.sem.Release(1)
				addrs, err := net.LookupIP(e.host)
				if err != nil {
					e.resp <- Result{Err: ierr.Wrap(ierr.DNSException, err, "lookup "+e.host)}
					return
				}
				e.resp <- Result{Addrs: addrs}
			}(e)
		case <-r.stop:
			return
		}
	}
}

// Resolve returns host's addresses. A numeric host resolves synchronously,
// with no trip through the background queue; otherwise the lookup is
// enqueued and Resolve blocks on the response channel (the caller drives
// its own async boundary via ctx or by calling from a pool goroutine).
func (r *Resolver) Resolve(ctx context.Context, host string) ([]net.IP, error) {
	if ip := net.ParseIP(host); ip != nil {
		return []net.IP{ip}, nil
	}
	resp := make(chan Result, 1)
	select {
	case r.queue <- resolveEntry{host: host, resp: resp}:
	case <-ctx.Done():
		return nil, ierr.Wrap(ierr.DNSException, ctx.Err(), "resolve queue full/cancelled for "+host)
	}
	select {
	case res := <-resp:
		return res.Addrs, res.Err
	case <-ctx.Done():
		return nil, ierr.Wrap(ierr.DNSException, ctx.Err(), "resolve cancelled for "+host)
	}
}

// Close stops the dispatcher and waits for in-flight lookup goroutines to
// finish. An entry the dispatcher had dequeued but not yet handed to a
// worker is answered with a "resolver shutting down" DNSException; an entry
// still in the queue is never answered, so its Resolve call returns only on
// ctx's own cancellation.
func (r *Resolver) Close() {
	close(r.stop)
	r.cancel()
	nlog.Infoln("resolve: resolver stopped")
	r.wg.Wait()
}
