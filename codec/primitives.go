// Package codec converts host values to and from the wire byte sequence
// bit-exactly, for both encoding 1.0 and 1.1: primitive readers/writers, an
// encapsulation stack, and class/exception slice machinery.
/*
 * Copyright (c) 2018-2024, corerpc authors. All rights reserved.
 */
package codec

import (
	"math"

	"github.com/glacio/corerpc/cmn/cos"
	"github.com/glacio/corerpc/ierr"
	"github.com/glacio/corerpc/model"
	"github.com/glacio/corerpc/wire"
)

// Encoder writes primitives, sequences, tagged members and class graphs onto
// a wire.Buffer for a single encapsulation stack.
type Encoder struct {
	buf       *wire.Buffer
	version   model.EncodingVersion
	encaps    []encapsFrame
	classes   *classEncodeState
	pending10 *pendingEncodeState
}

// Decoder reads the mirror image of Encoder's wire format, enforcing the
// class-graph depth limit and raising ierr kinds on malformed input.
type Decoder struct {
	buf          *wire.Buffer
	version      model.EncodingVersion
	encaps       []decapsFrame
	depthMax     int
	classes      *classDecodeState
	pending10    *pendingDecodeState
	factories    *ValueFactoryRegistry
	excFactories *ExceptionFactoryRegistry
}

func NewEncoder(buf *wire.Buffer, version model.EncodingVersion) *Encoder {
	return &Encoder{buf: buf, version: version}
}

func NewDecoder(buf *wire.Buffer, version model.EncodingVersion, depthMax int, factories *ValueFactoryRegistry, excFactories *ExceptionFactoryRegistry) *Decoder {
	if depthMax <= 0 {
		depthMax = 100
	}
	return &Decoder{buf: buf, version: version, depthMax: depthMax, factories: factories, excFactories: excFactories}
}

func (e *Encoder) Buffer() *wire.Buffer { return e.buf }
func (d *Decoder) Buffer() *wire.Buffer { return d.buf }
func (e *Encoder) Version() model.EncodingVersion { return e.version }
func (d *Decoder) Version() model.EncodingVersion { return d.version }

// -- bool --

func (e *Encoder) WriteBool(v bool) {
	if v {
		e.buf.WriteByte(1)
	} else {
		e.buf.WriteByte(0)
	}
}

func (d *Decoder) ReadBool() (bool, error) {
	b, err := d.buf.ReadByte()
	if err != nil {
		return false, err
	}
	return b != 0, nil
}

// -- byte --

func (e *Encoder) WriteByte(v byte) { e.buf.WriteByte(v) }

func (d *Decoder) ReadByte() (byte, error) { return d.buf.ReadByte() }

// -- signed/unsigned fixed-width integers, little-endian --

func (e *Encoder) WriteInt16(v int16) { e.WriteUint16(uint16(v)) }
func (e *Encoder) WriteUint16(v uint16) {
	e.buf.Append([]byte{byte(v), byte(v >> 8)})
}

func (d *Decoder) ReadInt16() (int16, error) {
	v, err := d.ReadUint16()
	return int16(v), err
}
func (d *Decoder) ReadUint16() (uint16, error) {
	p, err := d.buf.ReadBytes(2)
	if err != nil {
		return 0, err
	}
	return uint16(p[0]) | uint16(p[1])<<8, nil
}

func (e *Encoder) WriteInt32(v int32) { e.WriteUint32(uint32(v)) }
func (e *Encoder) WriteUint32(v uint32) {
	e.buf.Append([]byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)})
}

func (d *Decoder) ReadInt32() (int32, error) {
	v, err := d.ReadUint32()
	return int32(v), err
}
func (d *Decoder) ReadUint32() (uint32, error) {
	p, err := d.buf.ReadBytes(4)
	if err != nil {
		return 0, err
	}
	return uint32(p[0]) | uint32(p[1])<<8 | uint32(p[2])<<16 | uint32(p[3])<<24, nil
}

func (e *Encoder) WriteInt64(v int64) { e.WriteUint64(uint64(v)) }
func (e *Encoder) WriteUint64(v uint64) {
	e.buf.Append([]byte{
		byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24),
		byte(v >> 32), byte(v >> 40), byte(v >> 48), byte(v >> 56),
	})
}

func (d *Decoder) ReadInt64() (int64, error) {
	v, err := d.ReadUint64()
	return int64(v), err
}
func (d *Decoder) ReadUint64() (uint64, error) {
	p, err := d.buf.ReadBytes(8)
	if err != nil {
		return 0, err
	}
	v := uint64(p[0]) | uint64(p[1])<<8 | uint64(p[2])<<16 | uint64(p[3])<<24 |
		uint64(p[4])<<32 | uint64(p[5])<<40 | uint64(p[6])<<48 | uint64(p[7])<<56
	return v, nil
}

func (e *Encoder) WriteFloat32(v float32) { e.WriteUint32(math.Float32bits(v)) }
func (d *Decoder) ReadFloat32() (float32, error) {
	v, err := d.ReadUint32()
	return math.Float32frombits(v), err
}

func (e *Encoder) WriteFloat64(v float64) { e.WriteUint64(math.Float64bits(v)) }
func (d *Decoder) ReadFloat64() (float64, error) {
	v, err := d.ReadUint64()
	return math.Float64frombits(v), err
}

// -- size --

func (e *Encoder) WriteSize(n int) { e.buf.WriteSize(n) }
func (d *Decoder) ReadSize() (int, error) { return d.buf.ReadSize() }

// -- string --

// StringConverter lets a caller inject a non-UTF-8 codeset translation, per
// the primitive contract's "may pass through an injected string converter".
type StringConverter interface {
	ToWire(s string) []byte
	FromWire(b []byte) (string, error)
}

func (e *Encoder) WriteString(s string) {
	e.WriteStringConv(s, nil)
}

func (e *Encoder) WriteStringConv(s string, conv StringConverter) {
	var b []byte
	if conv != nil {
		b = conv.ToWire(s)
	} else {
		b = cos.UnsafeB(s)
	}
	e.WriteSize(len(b))
	e.buf.Append(b)
}

func (d *Decoder) ReadString() (string, error) { return d.ReadStringConv(nil) }

func (d *Decoder) ReadStringConv(conv StringConverter) (string, error) {
	n, err := d.ReadSize()
	if err != nil {
		return "", err
	}
	if n < 0 || d.buf.Remaining() < n {
		return "", ierr.Newf(ierr.UnmarshalOutOfBounds, "string of %d bytes, %d remain", n, d.buf.Remaining())
	}
	p, err := d.buf.ReadBytes(n)
	if err != nil {
		return "", err
	}
	if conv != nil {
		s, err := conv.FromWire(p)
		if err != nil {
			return "", ierr.Wrap(ierr.StringConversion, err, "decoding string")
		}
		return s, nil
	}
	return string(p), nil
}
