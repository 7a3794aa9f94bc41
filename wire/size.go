/*
 * Copyright (c) 2018-2024, corerpc authors. All rights reserved.
 */
package wire

import "github.com/glacio/corerpc/ierr"

const sizeSentinel = 255

// WriteSize appends a size value in its 1-byte form when n < 255, else the
// sentinel byte followed by a 4-byte little-endian length.
func (buf *Buffer) WriteSize(n int) {
	if n < 0 {
		panic("wire: negative size")
	}
	if n < sizeSentinel {
		buf.WriteByte(byte(n))
		return
	}
	buf.WriteByte(sizeSentinel)
	buf.Append([]byte{
		byte(n), byte(n >> 8), byte(n >> 16), byte(n >> 24),
	})
}

// ReadSize reads a size value: a single byte < 255, or the sentinel 255
// followed by a non-negative 32-bit signed length.
func (buf *Buffer) ReadSize() (int, error) {
	b, err := buf.ReadByte()
	if err != nil {
		return 0, err
	}
	if b != sizeSentinel {
		return int(b), nil
	}
	p, err := buf.ReadBytes(4)
	if err != nil {
		return 0, err
	}
	n := int32(uint32(p[0]) | uint32(p[1])<<8 | uint32(p[2])<<16 | uint32(p[3])<<24)
	if n < 0 {
		return 0, ierr.Newf(ierr.UnmarshalOutOfBounds, "negative size %d", n)
	}
	return int(n), nil
}

// SizeLen reports how many bytes WriteSize(n) would occupy, for callers that
// need to pre-size a sequence header.
func SizeLen(n int) int {
	if n < sizeSentinel {
		return 1
	}
	return 5
}
