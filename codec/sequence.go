/*
 * Copyright (c) 2018-2024, corerpc authors. All rights reserved.
 */
package codec

import "github.com/glacio/corerpc/ierr"

// ReadSequenceSize reads a sequence's size prefix and validates
// size*minElemSize <= remaining bytes before the caller allocates, bounding
// memory under hostile input.
func (d *Decoder) ReadSequenceSize(minElemSize int) (int, error) {
	n, err := d.ReadSize()
	if err != nil {
		return 0, err
	}
	if minElemSize > 0 && n > 0 {
		need := int64(n) * int64(minElemSize)
		if need > int64(d.buf.Remaining()) {
			return 0, ierr.Newf(ierr.UnmarshalOutOfBounds,
				"sequence of %d elements needs at least %d bytes, %d remain", n, need, d.buf.Remaining())
		}
	}
	return n, nil
}

// WriteStringSeq writes a sequence of strings: size then each string.
func (e *Encoder) WriteStringSeq(ss []string) {
	e.WriteSize(len(ss))
	for _, s := range ss {
		e.WriteString(s)
	}
}

func (d *Decoder) ReadStringSeq() ([]string, error) {
	n, err := d.ReadSequenceSize(1)
	if err != nil {
		return nil, err
	}
	out := make([]string, n)
	for i := range out {
		s, err := d.ReadString()
		if err != nil {
			return nil, err
		}
		out[i] = s
	}
	return out, nil
}

// WriteByteSeq/ReadByteSeq handle the common byte-sequence case without the
// per-element dispatch overhead of WriteStringSeq's shape.
func (e *Encoder) WriteByteSeq(b []byte) {
	e.WriteSize(len(b))
	e.buf.Append(b)
}

func (d *Decoder) ReadByteSeq() ([]byte, error) {
	n, err := d.ReadSequenceSize(1)
	if err != nil {
		return nil, err
	}
	return d.buf.ReadBytes(n)
}

// WriteContext writes the dict<string,string> context map in Go map
// iteration order, which is unspecified and may differ between calls
// (dictionaries carry no ordering guarantee on the wire).
func (e *Encoder) WriteContext(ctx map[string]string) {
	e.WriteSize(len(ctx))
	for k, v := range ctx {
		e.WriteString(k)
		e.WriteString(v)
	}
}

func (d *Decoder) ReadContext() (map[string]string, error) {
	n, err := d.ReadSequenceSize(2)
	if err != nil {
		return nil, err
	}
	ctx := make(map[string]string, n)
	for i := 0; i < n; i++ {
		k, err := d.ReadString()
		if err != nil {
			return nil, err
		}
		v, err := d.ReadString()
		if err != nil {
			return nil, err
		}
		ctx[k] = v
	}
	return ctx, nil
}
