/*
 * Copyright (c) 2018-2024, corerpc authors. All rights reserved.
 */
package proxy

import (
	"context"
	"time"

	"github.com/glacio/corerpc/ierr"
)

// RetryIntervals is the sleep schedule between retry attempts: length N
// allows N retries (N+1 total attempts), element i is the sleep before
// attempt i+2. Empty means no retry.
type RetryIntervals []time.Duration

// shouldRetry decides whether err, produced at attempt index attempt
// (0-based) while invoking an operation of the given mode, is worth
// retrying. Idempotent operations retry on any Retryable kind;
// Normal (non-idempotent) operations retry only when sendObserved is
// false, i.e. the failure happened before the request could possibly have
// reached the peer, per spec §7.
func shouldRetry(err error, mode OperationMode, sendObserved bool, attempt int, intervals RetryIntervals) (time.Duration, bool) {
	if attempt >= len(intervals) {
		return 0, false
	}
	kind, ok := ierr.KindOf(err)
	if !ok || !kind.Retryable() {
		return 0, false
	}
	if mode == Normal && sendObserved {
		return 0, false
	}
	return intervals[attempt], true
}

// sleepOrDone waits d, honoring ctx cancellation; returns ctx.Err() if the
// context ended first.
func sleepOrDone(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			return nil
		}
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
