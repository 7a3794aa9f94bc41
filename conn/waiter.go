/*
 * Copyright (c) 2018-2024, corerpc authors. All rights reserved.
 */
package conn

import (
	"github.com/glacio/corerpc/cmn/atomic"
	"github.com/glacio/corerpc/cmn/debug"
)

// ReplyStatus is the one-byte status carried by a Reply message.
type ReplyStatus uint8

const (
	ReplyOK ReplyStatus = iota
	ReplyUserException
	ReplyObjectNotExist
	ReplyFacetNotExist
	ReplyOperationNotExist
	ReplyUnknownLocalException
	ReplyUnknownUserException
	ReplyUnknownException
)

// Reply is what a Waiter receives: either a successful/user-exception
// encapsulation (Status, Body) or a terminal local error (Err), never both.
type Reply struct {
	Status ReplyStatus
	Body   []byte // the reply's encapsulation bytes, still encoded
	Err    error
}

// Waiter is the completion object inserted into a connection's
// active-request table when a twoway request is sent; exactly one of
// Complete or Fail is ever called on it, exactly once (completed guards
// against a second call, which would otherwise block forever on the
// cap-1 done channel).
type Waiter struct {
	requestID int32
	done      chan Reply
	completed atomic.Bool
}

func newWaiter(requestID int32) *Waiter {
	return &Waiter{requestID: requestID, done: make(chan Reply, 1)}
}

// RequestID returns the id this waiter was registered under, so a caller
// holding only the Waiter (e.g. across a cancellation deadline) can still
// tell the owning Connection which table entry to remove.
func (w *Waiter) RequestID() int32 { return w.requestID }

// Complete delivers a successful or user-exception reply.
func (w *Waiter) Complete(status ReplyStatus, body []byte) {
	if !w.completed.CAS(false, true) {
		debug.Assert(false, "waiter already completed")
		return
	}
	w.done <- Reply{Status: status, Body: body}
}

// Fail delivers a terminal local error (connection lost, timeout, cancel).
func (w *Waiter) Fail(err error) {
	if !w.completed.CAS(false, true) {
		debug.Assert(false, "waiter already completed")
		return
	}
	w.done <- Reply{Err: err}
}

// Wait blocks until Complete or Fail is called.
func (w *Waiter) Wait() Reply { return <-w.done }

// Done exposes the completion channel for select-based waiting (e.g. a
// future-style API layered on top, or a caller honoring ctx.Done()
// alongside it).
func (w *Waiter) Done() <-chan Reply { return w.done }
