// Package wire implements the byte-level substrate the codec is built on:
// a cursor-addressed, pooled Buffer and the 14-byte frame header.
/*
 * Copyright (c) 2018-2024, corerpc authors. All rights reserved.
 */
package wire

import (
	"github.com/glacio/corerpc/ierr"
	"github.com/glacio/corerpc/memsys"
)

// Buffer is a contiguous byte array with an absolute cursor. Resize is
// allowed; the cursor is always clamped to [0, len(b)]. Reads advance the
// cursor and fail with UnmarshalOutOfBounds if fewer bytes remain than
// requested; they never panic on short input.
type Buffer struct {
	b      []byte
	pos    int
	pooled []byte // non-nil when b's backing array came from memsys, for Release
}

// NewBuffer wraps an existing byte slice for reading or writing in place;
// the cursor starts at 0.
func NewBuffer(b []byte) *Buffer { return &Buffer{b: b} }

// NewBufferFromPool allocates a writable buffer of length size from the
// shared page allocator, e.g. a fixed-size socket-read scratch buffer.
// Release must be called when done to return it.
func NewBufferFromPool(size int) *Buffer {
	b := memsys.PageMM().Alloc(size)
	return &Buffer{b: b, pooled: b}
}

// NewWriteBufferFromPool is NewBufferFromPool for the build-it-up-with-
// Append case (encoding a message): it starts empty, the way NewBuffer(nil)
// does, but its backing array is a pool slab sized to hold at least
// hintSize bytes, so encoding a typically-sized message never allocates.
// Appending past the slab's capacity falls back to a plain allocation like
// any other Buffer, just without the pooling benefit for that one message.
func NewWriteBufferFromPool(hintSize int) *Buffer {
	b := memsys.PageMM().Alloc(hintSize)
	return &Buffer{b: b[:0], pooled: b}
}

// Release returns a pool-backed buffer's memory to the pool; on every
// buffer, pool-backed or not, it also drops the contents and resets the
// cursor to 0.
func (buf *Buffer) Release() {
	if buf.pooled != nil {
		memsys.PageMM().Free(buf.pooled)
		buf.pooled = nil
	}
	buf.b = nil
	buf.pos = 0
}

// Advance drops the first n bytes from the buffer's content, for a writer
// that consumed part of Bytes() (e.g. a partial socket write) and wants the
// remainder on the next call. It does not affect Release: a pool-backed
// buffer still frees its original, full-length allocation.
func (buf *Buffer) Advance(n int) { buf.b = buf.b[n:] }

func (buf *Buffer) Len() int { return len(buf.b) }
func (buf *Buffer) Pos() int { return buf.pos }
func (buf *Buffer) Bytes() []byte { return buf.b }
func (buf *Buffer) Remaining() int { return len(buf.b) - buf.pos }

// Seek repositions the cursor, clamping into [0, len(b)].
func (buf *Buffer) Seek(pos int) {
	switch {
	case pos < 0:
		buf.pos = 0
	case pos > len(buf.b):
		buf.pos = len(buf.b)
	default:
		buf.pos = pos
	}
}

// Grow extends the backing array by n zero bytes without moving the cursor,
// returning the index at which the new bytes begin.
func (buf *Buffer) Grow(n int) int {
	at := len(buf.b)
	if cap(buf.b)-len(buf.b) >= n {
		buf.b = buf.b[:at+n]
		for i := at; i < at+n; i++ {
			buf.b[i] = 0
		}
		return at
	}
	grown := make([]byte, at+n)
	copy(grown, buf.b)
	buf.b = grown
	return at
}

// Append writes p at the end of the buffer, growing as needed, and returns
// the offset it was written at.
func (buf *Buffer) Append(p []byte) int {
	at := buf.Grow(len(p))
	copy(buf.b[at:], p)
	return at
}

// PatchUint32LE overwrites 4 bytes at offset with v, little-endian; used to
// back-patch an encapsulation's placeholder size.
func (buf *Buffer) PatchUint32LE(offset int, v uint32) {
	buf.b[offset] = byte(v)
	buf.b[offset+1] = byte(v >> 8)
	buf.b[offset+2] = byte(v >> 16)
	buf.b[offset+3] = byte(v >> 24)
}

// ReadBytes advances the cursor by n and returns the slice, or
// UnmarshalOutOfBounds if fewer than n bytes remain.
func (buf *Buffer) ReadBytes(n int) ([]byte, error) {
	if n < 0 || buf.Remaining() < n {
		return nil, ierr.Newf(ierr.UnmarshalOutOfBounds, "need %d bytes, %d remain", n, buf.Remaining())
	}
	p := buf.b[buf.pos : buf.pos+n]
	buf.pos += n
	return p, nil
}

// PeekByte returns the byte at the cursor without advancing it.
func (buf *Buffer) PeekByte() (byte, bool) {
	if buf.Remaining() < 1 {
		return 0, false
	}
	return buf.b[buf.pos], true
}

func (buf *Buffer) ReadByte() (byte, error) {
	p, err := buf.ReadBytes(1)
	if err != nil {
		return 0, err
	}
	return p[0], nil
}

func (buf *Buffer) WriteByte(v byte) { buf.Append([]byte{v}) }
