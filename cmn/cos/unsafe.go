/*
 * Copyright (c) 2018-2024, corerpc authors. All rights reserved.
 */
package cos

import "unsafe"

// UnsafeB returns the byte slice backing s without copying. The caller must
// not mutate the result, and must not retain it past s's lifetime.
func UnsafeB(s string) []byte {
	if s == "" {
		return nil
	}
	return unsafe.Slice(unsafe.StringData(s), len(s))
}

// UnsafeS returns a string backed by b without copying. The caller must not
// mutate b afterwards.
func UnsafeS(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	return unsafe.String(&b[0], len(b))
}
