/*
 * Copyright (c) 2018-2024, corerpc authors. All rights reserved.
 */
package codec

import "github.com/glacio/corerpc/ierr"

// TagFormat is the wire-size hint packed into a tag-format descriptor byte.
type TagFormat uint8

const (
	F1 TagFormat = iota
	F2
	F4
	F8
	FSize
	VSize
	FFSize
	FClass
)

const (
	tagEscape     = 30
	tagTerminator = 0xFF
)

// WriteTag writes the one-byte (tag mod 30, format) descriptor, escaping to
// the tag=30-plus-size form for tag >= 30.
func (e *Encoder) WriteTag(tag int, format TagFormat) {
	if tag < tagEscape {
		e.buf.WriteByte(byte(tag)<<3 | byte(format))
		return
	}
	e.buf.WriteByte(tagEscape<<3 | byte(format))
	e.WriteSize(tag)
}

// WriteOptionalTerminator writes the 0xFF byte marking end-of-optionals
// within a slice or encapsulation.
func (e *Encoder) WriteOptionalTerminator() { e.buf.WriteByte(tagTerminator) }

// PeekTag looks at the next tag-format descriptor without consuming it,
// returning ok=false at end of optionals (0xFF or end of buffer).
func (d *Decoder) PeekTag() (tag int, format TagFormat, ok bool, err error) {
	b, present := d.buf.PeekByte()
	if !present || b == tagTerminator {
		return 0, 0, false, nil
	}
	raw := int(b >> 3)
	format = TagFormat(b & 0x7)
	if raw < tagEscape {
		return raw, format, true, nil
	}
	// Escaped form: read the descriptor byte and the size that follows it to
	// learn the real tag value, then rewind so nothing is consumed.
	pos := d.buf.Pos()
	if _, err := d.buf.ReadByte(); err != nil {
		return 0, 0, false, err
	}
	tag, err = d.ReadSize()
	d.buf.Seek(pos)
	if err != nil {
		return 0, 0, false, err
	}
	return tag, format, true, nil
}

// SkipOptionalTerminator consumes the 0xFF terminator if present.
func (d *Decoder) SkipOptionalTerminator() error {
	b, ok := d.buf.PeekByte()
	if ok && b == tagTerminator {
		_, err := d.buf.ReadByte()
		return err
	}
	return nil
}

// SkipTaggedValue skips over one tagged member's payload given its format,
// used when the requested tag doesn't match what's present (unknown member).
func (d *Decoder) SkipTaggedValue(format TagFormat) error {
	switch format {
	case F1:
		_, err := d.buf.ReadBytes(1)
		return err
	case F2:
		_, err := d.buf.ReadBytes(2)
		return err
	case F4:
		_, err := d.buf.ReadBytes(4)
		return err
	case F8:
		_, err := d.buf.ReadBytes(8)
		return err
	case FSize:
		n, err := d.ReadSize()
		if err != nil {
			return err
		}
		_, err = d.buf.ReadBytes(n)
		return err
	case VSize:
		n, err := d.ReadSize()
		if err != nil {
			return err
		}
		_, err = d.buf.ReadBytes(n)
		return err
	case FFSize:
		n, err := d.ReadInt32()
		if err != nil {
			return err
		}
		_, err = d.buf.ReadBytes(int(n))
		return err
	case FClass:
		_, err := d.ReadValue(nil)
		return err
	default:
		return ierr.Newf(ierr.UnsupportedEncoding, "unknown tag format %d", format)
	}
}
