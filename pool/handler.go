/*
 * Copyright (c) 2018-2024, corerpc authors. All rights reserved.
 */
package pool

import "github.com/glacio/corerpc/transport"

// Handler is a readiness-driven I/O participant the pool's leader/follower
// loop dispatches: a connection registers one Handler per socket it owns.
type Handler interface {
	// Fd identifies the handler for selector registration; ok is false for
	// handlers driven by something other than a pollable fd (e.g. a purely
	// in-memory test double), which the pool then never selects over.
	Fd() (fd uintptr, ok bool)

	// Serialize reports whether this handler must never run two callbacks
	// concurrently. When true, the pool disables the handler's selector
	// registration for the duration of a callback and re-enables it once the
	// callback returns, guaranteeing at-most-one concurrent invocation.
	Serialize() bool

	// HandleReadable/HandleWritable run on whichever goroutine the leader
	// handed this event to, after that goroutine has already promoted its
	// successor; they must not block the pool indefinitely.
	HandleReadable()
	HandleWritable()
	HandleError(err error)
}
