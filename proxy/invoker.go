// Package proxy implements invocation over a model.Proxy: sync/async
// issuance, the connection cache a proxy's repeated invocations share,
// context merge, and retry/timeout per the error taxonomy's propagation
// rules.
/*
 * Copyright (c) 2018-2024, corerpc authors. All rights reserved.
 */
package proxy

import (
	"context"
	"errors"
	"time"

	"github.com/glacio/corerpc/cmn"
	"github.com/glacio/corerpc/conn"
	"github.com/glacio/corerpc/ierr"
	"github.com/glacio/corerpc/model"
)

// Result is the one outcome an invocation ever yields: success (Status,
// Body), or a terminal Err. Never both.
type Result struct {
	Status conn.ReplyStatus
	Body   []byte
	Err    error
}

// Invoker issues operations against proxies, dialing (and caching) the
// connection each needs through a Dialer.
type Invoker struct {
	dialer         Dialer
	cache          *connectionCache
	retryIntervals RetryIntervals
}

// NewInvoker builds an Invoker; a nil retryIntervals falls back to the
// process-wide default schedule (cmn.Rom.RetryIntervals), letting most
// callers omit it entirely and still honor whatever the loaded
// configuration set.
func NewInvoker(dialer Dialer, retryIntervals RetryIntervals) *Invoker {
	if retryIntervals == nil && !cmn.Rom.RetryDisabled() {
		for _, d := range cmn.Rom.RetryIntervals() {
			retryIntervals = append(retryIntervals, d)
		}
	}
	return &Invoker{dialer: dialer, cache: newConnectionCache(), retryIntervals: retryIntervals}
}

// Invoke issues one operation synchronously, blocking until it completes,
// is canceled via ctx, or exhausts its retry schedule. For a Twoway proxy
// it returns the decoded reply (or a terminal error); for every other mode
// it returns an empty, errorless Result once the request is safely queued
// (oneway/datagram/batch carry no application-level acknowledgment to wait
// for).
func (inv *Invoker) Invoke(ctx context.Context, p model.Proxy, operation string, opMode OperationMode, callCtx map[string]string, params []byte) Result {
	mergedCtx := mergeContext(p.Context, callCtx)

	if deadline, ok := invocationDeadline(p); ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, deadline)
		defer cancel()
	}

	var lastErr error
	for attempt := 0; ; attempt++ {
		cn, w, sendObserved, err := inv.send(ctx, p, operation, mergedCtx, params)
		if err == nil {
			if w == nil {
				// oneway/datagram/batch: queued successfully, nothing to wait for.
				return Result{Status: conn.ReplyOK}
			}
			return await(ctx, cn, w)
		}
		lastErr = err

		delay, retry := shouldRetry(err, opMode, sendObserved, attempt, inv.retryIntervals)
		if !retry {
			break
		}
		if sleepErr := sleepOrDone(ctx, delay); sleepErr != nil {
			if errors.Is(sleepErr, context.DeadlineExceeded) {
				lastErr = ierr.Wrap(ierr.InvocationTimeout, sleepErr, "timed out during retry backoff")
			} else {
				lastErr = ierr.Wrap(ierr.InvocationCanceled, sleepErr, "canceled during retry backoff")
			}
			break
		}
	}
	return Result{Err: lastErr}
}

// InvokeAsync issues the operation and returns a channel delivering
// exactly one Result, without blocking the caller's goroutine on the
// network round-trip. It reuses Invoke's own retry/timeout machinery by
// running it on a new goroutine.
func (inv *Invoker) InvokeAsync(ctx context.Context, p model.Proxy, operation string, opMode OperationMode, callCtx map[string]string, params []byte) <-chan Result {
	out := make(chan Result, 1)
	go func() {
		out <- inv.Invoke(ctx, p, operation, opMode, callCtx, params)
	}()
	return out
}

// send dials (or reuses) a connection and queues the request on it,
// returning the connection itself (so a twoway caller can cancel the
// request on it later), the Waiter to await a reply on (nil for modes with
// no reply), and whether the request got far enough that the peer may
// already have observed it (which disqualifies a non-idempotent retry).
func (inv *Invoker) send(ctx context.Context, p model.Proxy, operation string, mergedCtx map[string]string, params []byte) (cn *conn.Connection, w *conn.Waiter, sendObserved bool, err error) {
	key := connectionKey(p)
	cn, ok := inv.cache.get(key)
	if !ok {
		cn, err = inv.dialer.Dial(ctx, p)
		if err != nil {
			return nil, nil, false, err
		}
		inv.cache.put(key, cn)
	}

	w, err = cn.SendRequest(p.Identity, p.Facet, operation, p.Mode, mergedCtx, params)
	if err != nil {
		// A connection already known to be dead before the write was attempted
		// never put bytes on the wire, so even a non-idempotent operation is
		// safe to retry on a fresh connection.
		kind, kindOK := ierr.KindOf(err)
		sendObserved = !(kindOK && kind.Family() == ierr.FamilyTransport)
		return nil, nil, sendObserved, err
	}
	return cn, w, true, nil
}

// await blocks on a twoway Waiter until it completes or ctx ends. On
// timeout/cancel it also cancels the request on cn, so the connection's
// active-request table doesn't keep a waiter around for a reply nobody is
// listening for anymore; a reply that arrives afterward finds the table
// entry gone and is treated as the protocol violation it is.
func await(ctx context.Context, cn *conn.Connection, w *conn.Waiter) Result {
	select {
	case reply := <-w.Done():
		if reply.Err != nil {
			return Result{Err: reply.Err}
		}
		return Result{Status: reply.Status, Body: reply.Body}
	case <-ctx.Done():
		var res Result
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			res = Result{Err: ierr.Wrap(ierr.InvocationTimeout, ctx.Err(), "invocation timed out")}
		} else {
			res = Result{Err: ierr.Wrap(ierr.InvocationCanceled, ctx.Err(), "invocation canceled")}
		}
		cn.CancelRequest(w.RequestID(), res.Err)
		return res
	}
}

func invocationDeadline(p model.Proxy) (time.Duration, bool) {
	if !p.HasTimeout() || p.TimeoutMs <= 0 {
		return 0, false
	}
	return time.Duration(p.TimeoutMs) * time.Millisecond, true
}
