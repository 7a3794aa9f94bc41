/*
 * Copyright (c) 2018-2024, corerpc authors. All rights reserved.
 */
package codec

import (
	"github.com/glacio/corerpc/ierr"
	"github.com/glacio/corerpc/model"
)

const encapsHeaderSize = 6 // 4-byte size placeholder + 2-byte encoding version

type encapsFrame struct {
	sizeOffset  int
	startOffset int
}

type decapsFrame struct {
	end     int // absolute buffer offset one past this encapsulation's body
	version model.EncodingVersion
}

// StartEncapsulation writes a 4-byte placeholder size and the encoding
// version, then pushes a frame so EndEncapsulation can patch the size.
func (e *Encoder) StartEncapsulation() {
	sizeOffset := e.buf.Grow(4)
	e.buf.WriteByte(e.version.Major)
	e.buf.WriteByte(e.version.Minor)
	e.encaps = append(e.encaps, encapsFrame{sizeOffset: sizeOffset, startOffset: sizeOffset})
}

// EndEncapsulation patches the placeholder with the bytes written since
// StartEncapsulation (including the 6-byte header itself).
func (e *Encoder) EndEncapsulation() {
	n := len(e.encaps)
	if n == 0 {
		panic("codec: EndEncapsulation without matching StartEncapsulation")
	}
	f := e.encaps[n-1]
	e.encaps = e.encaps[:n-1]
	size := e.buf.Len() - f.startOffset
	e.buf.PatchUint32LE(f.sizeOffset, uint32(size))
}

// StartEncapsulation reads the 4-byte size and 2-byte encoding version,
// rejecting sizes below the 6-byte header itself, and pushes a frame
// bounding reads to the encapsulation's declared extent.
func (d *Decoder) StartEncapsulation() (model.EncodingVersion, error) {
	startOffset := d.buf.Pos()
	size, err := d.ReadInt32()
	if err != nil {
		return model.EncodingVersion{}, err
	}
	if size < encapsHeaderSize {
		return model.EncodingVersion{}, ierr.Newf(ierr.Encapsulation, "declared size %d below header size %d", size, encapsHeaderSize)
	}
	major, err := d.ReadByte()
	if err != nil {
		return model.EncodingVersion{}, err
	}
	minor, err := d.ReadByte()
	if err != nil {
		return model.EncodingVersion{}, err
	}
	v := model.EncodingVersion{Major: major, Minor: minor}
	if !v.Supported() {
		return model.EncodingVersion{}, ierr.Newf(ierr.UnsupportedEncoding, "%s", v)
	}
	end := startOffset + int(size)
	if end > d.buf.Len() {
		return model.EncodingVersion{}, ierr.Newf(ierr.UnmarshalOutOfBounds, "encapsulation end %d beyond buffer length %d", end, d.buf.Len())
	}
	d.encaps = append(d.encaps, decapsFrame{end: end, version: v})
	return v, nil
}

// EndEncapsulation seeks to the declared end of the current encapsulation
// (tolerating a one-byte shortfall under encoding 1.0, a legacy defect) and
// pops the frame.
func (d *Decoder) EndEncapsulation() error {
	n := len(d.encaps)
	if n == 0 {
		panic("codec: EndEncapsulation without matching StartEncapsulation")
	}
	f := d.encaps[n-1]
	d.encaps = d.encaps[:n-1]
	pos := d.buf.Pos()
	if pos > f.end {
		return ierr.Newf(ierr.Encapsulation, "read %d bytes past declared encapsulation end", pos-f.end)
	}
	slack := f.end - pos
	tolerance := 0
	if f.version.Eq(model.Encoding10) {
		tolerance = 1
	}
	if slack > tolerance {
		return ierr.Newf(ierr.Encapsulation, "%d undecoded bytes remain in encapsulation", slack)
	}
	d.buf.Seek(f.end)
	return nil
}

// CurrentEncapsulationVersion reports the encoding version of the
// innermost open encapsulation, or the stream's default if none is open.
func (d *Decoder) CurrentEncapsulationVersion() model.EncodingVersion {
	if n := len(d.encaps); n > 0 {
		return d.encaps[n-1].version
	}
	return d.version
}
