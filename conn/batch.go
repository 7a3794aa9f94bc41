/*
 * Copyright (c) 2018-2024, corerpc authors. All rights reserved.
 */
package conn

import (
	"sync"

	"github.com/glacio/corerpc/wire"
)

// batchBuffer accumulates BatchOneway/BatchDatagram request bytes behind a
// request-count placeholder, flushing as a single BatchRequest message
// either explicitly or once AutoflushBytes is crossed.
type batchBuffer struct {
	mu             sync.Mutex
	buf            *wire.Buffer
	countOffset    int
	count          int
	autoflushBytes int
}

func newBatchBuffer(autoflushBytes int) *batchBuffer {
	if autoflushBytes <= 0 {
		autoflushBytes = 1 << 20
	}
	b := &batchBuffer{autoflushBytes: autoflushBytes}
	b.reset()
	return b
}

func (b *batchBuffer) reset() {
	b.buf = wire.NewBuffer(nil)
	b.countOffset = b.buf.Grow(4)
	b.count = 0
}

// Add appends one request's already-encoded bytes to the batch, reporting
// whether the accumulated size has now crossed the autoflush threshold.
func (b *batchBuffer) Add(requestBytes []byte) (shouldFlush bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf.Append(requestBytes)
	b.count++
	return b.buf.Len() >= b.autoflushBytes
}

// Flush patches the count placeholder and returns the accumulated bytes,
// resetting the buffer for the next batch. Returns ok=false if the batch is
// empty (nothing to send).
func (b *batchBuffer) Flush() (body []byte, ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.count == 0 {
		return nil, false
	}
	b.buf.PatchUint32LE(b.countOffset, uint32(b.count))
	out := append([]byte(nil), b.buf.Bytes()...)
	b.reset()
	return out, true
}

func (b *batchBuffer) Empty() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.count == 0
}
