//go:build !mono

// Package mono provides low-level monotonic time
/*
 * Copyright (c) 2018-2024, corerpc authors. All rights reserved.
 */
package mono

import "time"

// NanoTime returns a monotonic-clock reading in nanoseconds. The `mono` build
// tag links directly against the runtime's internal clock for one fewer
// indirection on the hot logging/ACM path; without it we fall back to the
// portable (and still monotonic) time.Since of a package start time.
var start = time.Now()

func NanoTime() int64 { return int64(time.Since(start)) }
