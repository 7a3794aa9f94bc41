/*
 * Copyright (c) 2018-2024, corerpc authors. All rights reserved.
 */
package codec

import (
	"reflect"

	"github.com/glacio/corerpc/ierr"
)

// Value is implemented by every class instance that can appear in a class
// graph: concrete generated types, and UnknownValue for preserved-slice
// forwarding of types with no local factory.
type Value interface {
	TypeID() string
}

// SliceCodec is implemented by concrete generated types; MarshalSlice and
// UnmarshalSlice handle only this type's own member data, not the instance
// reference machinery (cycle tracking, type-id compression, slice flags),
// which Encoder/Decoder own.
type SliceCodec interface {
	Value
	MarshalSlice(e *Encoder) error
	UnmarshalSlice(d *Decoder) error
}

// ValueFactory allocates a zero-value instance of a registered type, before
// its body is decoded — allocating first lets self-referential graphs
// resolve a reference to an instance still being constructed.
type ValueFactory func() SliceCodec

type ValueFactoryRegistry struct {
	factories map[string]ValueFactory
}

func NewValueFactoryRegistry() *ValueFactoryRegistry {
	return &ValueFactoryRegistry{factories: make(map[string]ValueFactory)}
}

func (r *ValueFactoryRegistry) Register(typeID string, f ValueFactory) {
	r.factories[typeID] = f
}

func (r *ValueFactoryRegistry) Lookup(typeID string) (ValueFactory, bool) {
	f, ok := r.factories[typeID]
	return f, ok
}

// UnknownValue preserves a value's slice verbatim when no local factory
// recognizes its type-id, so an intermediary can re-marshal it without
// understanding it (the "sliced format" rule in spec §4.1/§3).
type UnknownValue struct {
	typeID string
	body   []byte
}

func (u *UnknownValue) TypeID() string { return u.typeID }
func (u *UnknownValue) Bytes() []byte  { return u.body }

func (u *UnknownValue) MarshalSlice(e *Encoder) error {
	e.buf.Append(u.body)
	return nil
}

func (u *UnknownValue) UnmarshalSlice(d *Decoder) error {
	return nil // body already captured by ReadValue / readPendingValuesImpl before construction
}

// Slice flags, per the wire encoding's sliceFlags byte.
const (
	flagHasTypeIDString    = 1 << 0
	flagHasTypeIDIndex     = 1 << 1
	flagHasTypeIDCompact   = 1 << 2
	flagHasOptionalMembers = 1 << 3
	flagHasIndirectionTable = 1 << 4
	flagHasSliceSize        = 1 << 5
	flagIsLastSlice         = 1 << 6
)

type classEncodeState struct {
	ids      map[SliceCodec]int32 // instance -> 1-based id, assigned on first inline marshal
	nextID   int32
	typeIdx  map[string]int32 // type-id -> 1-based index, for type-id compression
	depth    int
}

type classDecodeState struct {
	byID  map[int32]SliceCodec
	types []string // 1-based: types[i-1] is the i'th distinct type-id seen
	depth int
}

func (e *Encoder) ensureClassState() *classEncodeState {
	if e.classes == nil {
		e.classes = &classEncodeState{ids: make(map[SliceCodec]int32), typeIdx: make(map[string]int32)}
	}
	return e.classes
}

func (d *Decoder) ensureClassState() *classDecodeState {
	if d.classes == nil {
		d.classes = &classDecodeState{byID: make(map[int32]SliceCodec)}
	}
	return d.classes
}

func (d *Decoder) depthMaxOr(def int) int {
	if d.depthMax > 0 {
		return d.depthMax
	}
	return def
}

// WriteValue marshals v inline, per encoding 1.1: 0 for nil, 1 + a fresh
// slice for a new instance, or (1-based id + 1) as a back-reference to an
// instance already marshaled earlier in this stream — the scheme that gives
// cyclic graphs support via monotonically increasing instance ids.
func (e *Encoder) WriteValue(v SliceCodec) error {
	st := e.ensureClassState()
	if v == nil || isNilSliceCodec(v) {
		e.WriteSize(0)
		return nil
	}
	if id, ok := st.ids[v]; ok {
		e.WriteSize(int(id) + 1)
		return nil
	}
	st.depth++
	defer func() { st.depth-- }()
	if st.depth > 100 {
		return ierr.Newf(ierr.MarshalException, "class graph depth exceeds limit")
	}

	st.nextID++
	id := st.nextID
	st.ids[v] = id
	e.WriteSize(1)

	// flagHasSliceSize is always set: a 4-byte body-size patch lets a reader
	// with no factory for this type-id skip the slice and preserve it
	// verbatim (UnknownValue), rather than having to understand every type.
	flags := byte(flagIsLastSlice | flagHasSliceSize)
	typeID := v.TypeID()
	idx, seen := st.typeIdx[typeID]
	if seen {
		flags |= flagHasTypeIDIndex
	} else {
		flags |= flagHasTypeIDString
		idx = int32(len(st.typeIdx)) + 1
		st.typeIdx[typeID] = idx
	}
	e.buf.WriteByte(flags)
	if seen {
		e.WriteSize(int(idx))
	} else {
		e.WriteString(typeID)
	}
	sizeOffset := e.buf.Grow(4)
	bodyStart := e.buf.Len()
	if err := v.MarshalSlice(e); err != nil {
		return err
	}
	e.buf.PatchUint32LE(sizeOffset, uint32(e.buf.Len()-bodyStart))
	return nil
}

// isNilSliceCodec reports whether a non-nil interface value wraps a nil
// pointer, the common shape for "absent" optional class members in Go
// (generated types are pointer receivers, so wrapNode(nil)-style helpers
// pass a typed nil through the SliceCodec interface).
func isNilSliceCodec(v SliceCodec) bool {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func:
		return rv.IsNil()
	default:
		return false
	}
}

// ReadValue decodes one instance reference. A nil result with a nil error
// denotes the wire's explicit "null" (size 0). The factories
// registry, when non-nil, is consulted by type-id; an unrecognized type-id
// yields *UnknownValue with its slice bytes preserved for forwarding.
func (d *Decoder) ReadValue(factories *ValueFactoryRegistry) (SliceCodec, error) {
	st := d.ensureClassState()
	ref, err := d.ReadSize()
	if err != nil {
		return nil, err
	}
	if ref == 0 {
		return nil, nil
	}
	if ref > 1 {
		id := int32(ref - 1)
		inst, ok := st.byID[id]
		if !ok {
			return nil, ierr.Newf(ierr.UnmarshalOutOfBounds, "forward reference to undecoded instance %d", id)
		}
		return inst, nil
	}

	st.depth++
	defer func() { st.depth-- }()
	if st.depth > d.depthMaxOr(100) {
		return nil, ierr.Newf(ierr.MarshalException, "class graph depth exceeds limit")
	}

	flags, err := d.ReadByte()
	if err != nil {
		return nil, err
	}
	var typeID string
	switch {
	case flags&flagHasTypeIDString != 0:
		typeID, err = d.ReadString()
		if err != nil {
			return nil, err
		}
		st.types = append(st.types, typeID)
	case flags&flagHasTypeIDIndex != 0:
		n, err := d.ReadSize()
		if err != nil {
			return nil, err
		}
		if n < 1 || n > len(st.types) {
			return nil, ierr.Newf(ierr.Encapsulation, "type-id index %d out of range", n)
		}
		typeID = st.types[n-1]
	default:
		return nil, ierr.Newf(ierr.Encapsulation, "slice carries no type-id")
	}

	bodySize, err := d.ReadInt32()
	if err != nil {
		return nil, err
	}
	bodyStart := d.buf.Pos()

	st.nextID++
	id := st.nextID

	reg := factories
	if reg == nil {
		reg = d.factories
	}
	if reg != nil {
		if f, ok := reg.Lookup(typeID); ok {
			inst := f()
			st.byID[id] = inst
			if err := inst.UnmarshalSlice(d); err != nil {
				return nil, err
			}
			if d.buf.Pos() != bodyStart+int(bodySize) {
				return nil, ierr.Newf(ierr.Encapsulation, "slice of %s consumed %d bytes, declared %d", typeID, d.buf.Pos()-bodyStart, bodySize)
			}
			return inst, nil
		}
	}
	body, err := d.buf.ReadBytes(int(bodySize))
	if err != nil {
		return nil, err
	}
	unknown := &UnknownValue{typeID: typeID, body: append([]byte(nil), body...)}
	st.byID[id] = unknown
	return unknown, nil
}
