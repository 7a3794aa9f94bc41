// Package cos provides common low-level types and utilities shared across the
// connection runtime.
/*
 * Copyright (c) 2018-2024, corerpc authors. All rights reserved.
 */
package cos

import (
	"crypto/rand"
	"fmt"

	"github.com/OneOfOne/xxhash"
	"github.com/teris-io/shortid"

	"github.com/glacio/corerpc/cmn/atomic"
)

const (
	// alphabet for generating diagnostic IDs, similar to shortid.DEFAULT_ABC
	// NOTE: len(uuidABC) > 0x3f - see GenTie()
	uuidABC = "-5nZJDft6LuzsjGNpPwY7rQa39vehq4i1cV2FROo8yHSlC0BUEdWbIxMmTgKXAk_"

	LenShortID = 9 // ID length, as per https://github.com/teris-io/shortid#id-length
	tooLongID  = 32
)

const (
	mayOnlyContain = "may only contain letters, numbers, dashes (-), underscores (_)"
	OnlyNice       = "must be less than 32 characters and " + mayOnlyContain
)

var (
	sid  *shortid.Shortid
	rtie atomic.Uint32
)

// InitShortID seeds the package's ID generator. Call once at process startup;
// the seed should incorporate a process-unique value (pid, start time) so
// concurrently started processes don't collide.
func InitShortID(seed uint64) {
	sid = shortid.MustNew(4 /*worker*/, uuidABC, seed)
}

// GenUUID returns a short, loggable, non-cryptographic identifier used for
// connection and session diagnostics (never part of the wire format).
func GenUUID() (uuid string) {
	var h, t string
	uuid = sid.MustGenerate()
	if !isAlpha(uuid[0]) {
		tie := int(rtie.Add(1))
		h = string(rune('A' + tie%26))
	}
	c := uuid[len(uuid)-1]
	if c == '-' || c == '_' {
		tie := int(rtie.Add(1))
		t = string(rune('a' + tie%26))
	}
	return h + uuid + t
}

func IsValidUUID(uuid string) bool {
	return len(uuid) >= LenShortID && IsAlphaNice(uuid)
}

// HashSeed derives a deterministic-per-input, process-local shuffle seed
// (used by the endpoint resolver's Random selection policy) so the same
// proxy never reuses a seed across two resolutions within one process.
func HashSeed(s string, salt uint64) uint64 {
	return xxhash.Checksum64S(UnsafeB(s), salt)
}

// CryptoRandS returns a cryptographically random alphanumeric string of
// length l, used where GenUUID's tie-breaking structure is not wanted.
func CryptoRandS(l int) string {
	const abc = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	b := make([]byte, l)
	buf := make([]byte, l)
	if _, err := rand.Read(buf); err != nil {
		panic(fmt.Sprintf("crypto/rand: %v", err))
	}
	for i, c := range buf {
		b[i] = abc[int(c)%len(abc)]
	}
	return string(b)
}

//
// utility functions
//

func isAlpha(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// IsAlphaNice reports whether s is letters/numbers with '-'/'_' permitted
// anywhere except the first or last byte (see OnlyNice).
func IsAlphaNice(s string) bool {
	l := len(s)
	if l > tooLongID {
		return false
	}
	for i := 0; i < l; i++ {
		c := s[i]
		if isAlpha(c) || (c >= '0' && c <= '9') {
			continue
		}
		if c != '-' && c != '_' {
			return false
		}
		if i == 0 || i == l-1 {
			return false
		}
	}
	return true
}

// GenTie returns a 3-byte tie breaker, fast enough to call on every retry.
func GenTie() string {
	tie := rtie.Add(1)
	b0 := uuidABC[tie&0x3f]
	b1 := uuidABC[-tie&0x3f]
	b2 := uuidABC[(tie>>2)&0x3f]
	return string([]byte{b0, b1, b2})
}
