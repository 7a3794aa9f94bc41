/*
 * Copyright (c) 2018-2024, corerpc authors. All rights reserved.
 */
package codec

import "github.com/glacio/corerpc/ierr"

// Encoding 1.0 marshals class instances as negative integer ids referring to
// a trailing "pending values" table instead of inline slices. WriteValue10/
// ReadValue10 implement that scheme; FlushPendingValues10/readPendingValues10
// drain the table once the referencing structure (request params, or a user
// exception with usesClasses set) has been fully written/read.

type pendingEncodeState struct {
	ids   map[SliceCodec]int32 // instance -> 0-based table index
	order []SliceCodec
}

func (e *Encoder) ensurePending10() *pendingEncodeState {
	if e.pending10 == nil {
		e.pending10 = &pendingEncodeState{ids: make(map[SliceCodec]int32)}
	}
	return e.pending10
}

// WriteValue10 writes a negative reference into the pending-values table
// (assigning the instance a slot on first encounter) per encoding 1.0.
func (e *Encoder) WriteValue10(v SliceCodec) {
	if v == nil || isNilSliceCodec(v) {
		e.WriteInt32(0)
		return
	}
	st := e.ensurePending10()
	idx, ok := st.ids[v]
	if !ok {
		idx = int32(len(st.order))
		st.ids[v] = idx
		st.order = append(st.order, v)
	}
	e.WriteInt32(-(idx + 1))
}

// FlushPendingValues10 writes the trailing pending-values sequence. New
// instances discovered while marshaling already-queued ones (nested
// references) are appended and drained in turn.
func (e *Encoder) FlushPendingValues10() error {
	st := e.ensurePending10()
	// The count is a fixed 4-byte placeholder, patched after the loop, because
	// marshaling an already-queued instance's slice can discover further
	// instances (nested references), growing st.order as we go.
	countOffset := e.buf.Grow(4)
	written := 0
	for written < len(st.order) {
		v := st.order[written]
		e.WriteString(v.TypeID())
		sizeOffset := e.buf.Grow(4)
		bodyStart := e.buf.Len()
		if err := v.MarshalSlice(e); err != nil {
			return err
		}
		e.buf.PatchUint32LE(sizeOffset, uint32(e.buf.Len()-bodyStart))
		written++
	}
	e.buf.PatchUint32LE(countOffset, uint32(written))
	return nil
}

type pendingRef struct {
	index int32
}

type pendingDecodeState struct {
	byIndex map[int32]SliceCodec
	patches map[int32][]func(SliceCodec)
}

func (d *Decoder) ensurePendingDecode10() *pendingDecodeState {
	if d.pending10 == nil {
		d.pending10 = &pendingDecodeState{byIndex: make(map[int32]SliceCodec), patches: make(map[int32][]func(SliceCodec))}
	}
	return d.pending10
}

// ReadValue10 reads a negative-id reference. If the referenced instance has
// already been decoded (readPendingValues10 processes the table in order,
// so forward references within it are common), it's returned directly;
// otherwise patch is invoked once the table is drained.
func (d *Decoder) ReadValue10(patch func(SliceCodec)) error {
	raw, err := d.ReadInt32()
	if err != nil {
		return err
	}
	if raw == 0 {
		patch(nil)
		return nil
	}
	idx := -raw - 1
	st := d.ensurePendingDecode10()
	if inst, ok := st.byIndex[idx]; ok {
		patch(inst)
		return nil
	}
	st.patches[idx] = append(st.patches[idx], patch)
	return nil
}

// ReadPendingValues10 reads the trailing pending-values sequence (a 4-byte
// count followed by type-id + sized-body slices) and resolves every registered
// patch callback.
func (d *Decoder) ReadPendingValues10(factories *ValueFactoryRegistry) error {
	return d.readPendingValuesImpl(factories)
}

func (d *Decoder) readPendingValues10() error { return d.readPendingValuesImpl(nil) }

func (d *Decoder) readPendingValuesImpl(factories *ValueFactoryRegistry) error {
	st := d.ensurePendingDecode10()
	n32, err := d.ReadUint32()
	if err != nil {
		return err
	}
	n := int(n32)
	reg := factories
	if reg == nil {
		reg = d.factories
	}
	for i := 0; i < n; i++ {
		typeID, err := d.ReadString()
		if err != nil {
			return err
		}
		bodySize, err := d.ReadInt32()
		if err != nil {
			return err
		}
		bodyStart := d.buf.Pos()
		var inst SliceCodec
		if reg != nil {
			if f, ok := reg.Lookup(typeID); ok {
				inst = f()
				st.byIndex[int32(i)] = inst
				if err := inst.UnmarshalSlice(d); err != nil {
					return err
				}
				if d.buf.Pos() != bodyStart+int(bodySize) {
					return ierr.Newf(ierr.Encapsulation, "pending slice of %s consumed %d bytes, declared %d", typeID, d.buf.Pos()-bodyStart, bodySize)
				}
			}
		}
		if inst == nil {
			body, err := d.buf.ReadBytes(int(bodySize))
			if err != nil {
				return err
			}
			inst = &UnknownValue{typeID: typeID, body: append([]byte(nil), body...)}
			st.byIndex[int32(i)] = inst
		}
	}
	for idx, callbacks := range st.patches {
		inst, ok := st.byIndex[idx]
		if !ok {
			return ierr.Newf(ierr.UnmarshalOutOfBounds, "unresolved pending-value reference %d", idx)
		}
		for _, cb := range callbacks {
			cb(inst)
		}
	}
	st.patches = make(map[int32][]func(SliceCodec))
	return nil
}
