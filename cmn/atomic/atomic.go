// Package atomic provides named, struct-friendly wrappers over sync/atomic,
// matching how the rest of the codebase spells out atomic fields (Int64,
// Uint32, Bool, ...) instead of threading raw int64s through CAS calls.
/*
 * Copyright (c) 2018-2024, corerpc authors. All rights reserved.
 */
package atomic

import "sync/atomic"

type Bool struct{ v atomic.Bool }

func (b *Bool) Load() bool            { return b.v.Load() }
func (b *Bool) Store(val bool)        { b.v.Store(val) }
func (b *Bool) Swap(val bool) bool    { return b.v.Swap(val) }
func (b *Bool) CAS(old, new bool) bool {
	return b.v.CompareAndSwap(old, new)
}

type Int32 struct{ v atomic.Int32 }

func (i *Int32) Load() int32         { return i.v.Load() }
func (i *Int32) Store(val int32)     { i.v.Store(val) }
func (i *Int32) Add(delta int32) int32 { return i.v.Add(delta) }
func (i *Int32) Swap(val int32) int32  { return i.v.Swap(val) }
func (i *Int32) CAS(old, new int32) bool {
	return i.v.CompareAndSwap(old, new)
}

type Int64 struct{ v atomic.Int64 }

func (i *Int64) Load() int64         { return i.v.Load() }
func (i *Int64) Store(val int64)     { i.v.Store(val) }
func (i *Int64) Add(delta int64) int64 { return i.v.Add(delta) }
func (i *Int64) Swap(val int64) int64  { return i.v.Swap(val) }
func (i *Int64) CAS(old, new int64) bool {
	return i.v.CompareAndSwap(old, new)
}

type Uint32 struct{ v atomic.Uint32 }

func (u *Uint32) Load() uint32          { return u.v.Load() }
func (u *Uint32) Store(val uint32)      { u.v.Store(val) }
func (u *Uint32) Add(delta uint32) uint32 { return u.v.Add(delta) }
func (u *Uint32) CAS(old, new uint32) bool {
	return u.v.CompareAndSwap(old, new)
}

type Uint64 struct{ v atomic.Uint64 }

func (u *Uint64) Load() uint64          { return u.v.Load() }
func (u *Uint64) Store(val uint64)      { u.v.Store(val) }
func (u *Uint64) Add(delta uint64) uint64 { return u.v.Add(delta) }
func (u *Uint64) CAS(old, new uint64) bool {
	return u.v.CompareAndSwap(old, new)
}

// Pointer wraps atomic.Pointer[T] so call sites read the same as the other
// named types above instead of mixing generic-instantiation syntax in.
type Pointer[T any] struct{ v atomic.Pointer[T] }

func (p *Pointer[T]) Load() *T     { return p.v.Load() }
func (p *Pointer[T]) Store(val *T) { p.v.Store(val) }
func (p *Pointer[T]) Swap(val *T) *T {
	return p.v.Swap(val)
}
func (p *Pointer[T]) CAS(old, new *T) bool {
	return p.v.CompareAndSwap(old, new)
}
