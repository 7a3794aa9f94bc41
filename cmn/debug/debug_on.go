//go:build debug

// Package debug provides build-tag gated invariant checks: a no-op build
// (debug_off.go) for production, and this enforcing build for development
// and tests.
/*
 * Copyright (c) 2018-2024, corerpc authors. All rights reserved.
 */
package debug

import (
	"fmt"
	"net/http"
	"reflect"
	"sync"
)

func ON() bool { return true }

func Infof(format string, a ...any) { fmt.Printf("[debug] "+format+"\n", a...) }

func Func(f func()) { f() }

func Assert(cond bool, args ...any) {
	if !cond {
		panic(fmt.Sprint(append([]any{"assertion failed"}, args...)...))
	}
}

func AssertFunc(f func() bool, args ...any) { Assert(f(), args...) }

func AssertNoErr(err error) {
	if err != nil {
		panic(fmt.Sprintf("assertion failed: %v", err))
	}
}

func Assertf(cond bool, format string, args ...any) {
	if !cond {
		panic(fmt.Sprintf("assertion failed: "+format, args...))
	}
}

// AssertNotPstr panics if v is a pointer-to-string (a common accidental
// double-indirection when a value is logged instead of dereferenced).
func AssertNotPstr(v any) {
	if v == nil {
		return
	}
	if rv := reflect.ValueOf(v); rv.Kind() == reflect.Ptr && rv.Elem().Kind() == reflect.String {
		panic(fmt.Sprintf("unexpected pointer-to-string: %v", v))
	}
}

func FailTypeCast(v any) { panic(fmt.Sprintf("unexpected type: %T", v)) }

// AssertMutexLocked and friends are best-effort: Go's sync primitives don't
// expose lock state, so these rely on TryLock (added in go1.18) to probe it
// without actually blocking.
func AssertMutexLocked(mu *sync.Mutex) {
	Assert(!mu.TryLock(), "mutex expected to be locked")
}

func AssertRWMutexLocked(mu *sync.RWMutex) {
	Assert(!mu.TryLock(), "rwmutex expected to be write-locked")
}

func AssertRWMutexRLocked(mu *sync.RWMutex) {
	locked := !mu.TryLock()
	if !locked {
		mu.Unlock()
	}
	Assert(locked, "rwmutex expected to be at least read-locked")
}

func Handlers() map[string]http.HandlerFunc {
	return map[string]http.HandlerFunc{}
}
