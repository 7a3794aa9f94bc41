/*
 * Copyright (c) 2018-2024, corerpc authors. All rights reserved.
 */
package codec

import "github.com/glacio/corerpc/ierr"

// UserExceptionCodec is implemented by generated exception types.
// MarshalSlice/UnmarshalSlice handle only member data, exactly like
// SliceCodec; the differences from class marshaling (always-string type-id,
// no type-id compression, base-to-derived read order) are handled here.
type UserExceptionCodec interface {
	error
	TypeID() string
	MarshalSlice(e *Encoder) error
	UnmarshalSlice(d *Decoder) error
}

type ExceptionFactory func() UserExceptionCodec

type ExceptionFactoryRegistry struct {
	factories map[string]ExceptionFactory
}

func NewExceptionFactoryRegistry() *ExceptionFactoryRegistry {
	return &ExceptionFactoryRegistry{factories: make(map[string]ExceptionFactory)}
}

func (r *ExceptionFactoryRegistry) Register(typeID string, f ExceptionFactory) {
	r.factories[typeID] = f
}

func (r *ExceptionFactoryRegistry) Lookup(typeID string) (ExceptionFactory, bool) {
	f, ok := r.factories[typeID]
	return f, ok
}

// WriteUserException marshals e per the user-exception rules: like a class
// slice, but the type-id is always written as a string (never an index),
// and under encoding 1.0 a leading "uses-classes" flag gates whether a
// trailing pending-values block follows.
func (enc *Encoder) WriteUserException(e UserExceptionCodec, usesClasses bool) error {
	if enc.version.Eq10() {
		enc.WriteBool(usesClasses)
	}
	enc.WriteString(e.TypeID())
	sizeOffset := enc.buf.Grow(4)
	bodyStart := enc.buf.Len()
	if err := e.MarshalSlice(enc); err != nil {
		return err
	}
	enc.buf.PatchUint32LE(sizeOffset, uint32(enc.buf.Len()-bodyStart))
	if enc.version.Eq10() && usesClasses {
		return enc.FlushPendingValues10()
	}
	return nil
}

// ReadUserException decodes a user exception: an exception factory is
// consulted to allocate an empty instance by type-id (base-to-derived member
// order is the concrete type's own UnmarshalSlice responsibility). An
// unrecognized type-id yields *ierr.UnknownUserException with slice bytes
// preserved for forwarding.
func (d *Decoder) ReadUserException(factories *ExceptionFactoryRegistry) (UserExceptionCodec, error) {
	usesClasses := false
	if d.version.Eq10() {
		var err error
		usesClasses, err = d.ReadBool()
		if err != nil {
			return nil, err
		}
	}
	typeID, err := d.ReadString()
	if err != nil {
		return nil, err
	}
	bodySize, err := d.ReadInt32()
	if err != nil {
		return nil, err
	}
	bodyStart := d.buf.Pos()

	reg := factories
	if reg == nil {
		reg = d.excFactories
	}
	if reg != nil {
		if f, ok := reg.Lookup(typeID); ok {
			inst := f()
			if err := inst.UnmarshalSlice(d); err != nil {
				return nil, err
			}
			if d.buf.Pos() != bodyStart+int(bodySize) {
				return nil, ierr.Newf(ierr.Encapsulation, "exception slice of %s consumed %d bytes, declared %d", typeID, d.buf.Pos()-bodyStart, bodySize)
			}
			if usesClasses {
				if err := d.readPendingValues10(); err != nil {
					return nil, err
				}
			}
			return inst, nil
		}
	}
	body, err := d.buf.ReadBytes(int(bodySize))
	if err != nil {
		return nil, err
	}
	if usesClasses {
		if err := d.readPendingValues10(); err != nil {
			return nil, err
		}
	}
	return unknownExceptionAdapter{ierr.NewUnknownUserException(typeID, [][]byte{body})}, nil
}

// unknownExceptionAdapter lets *ierr.UnknownUserException satisfy
// UserExceptionCodec for callers that only need to forward it.
type unknownExceptionAdapter struct {
	*ierr.UnknownUserException
}

func (unknownExceptionAdapter) MarshalSlice(*Encoder) error   { return nil }
func (unknownExceptionAdapter) UnmarshalSlice(*Decoder) error { return nil }
