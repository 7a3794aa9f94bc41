// Package xoshiro256 implements the xoshiro256** RNG
// no-copyright
package xoshiro256_test

import (
	"testing"

	"github.com/glacio/corerpc/cmn/xoshiro256"
)

func TestXoshiro256Hash(t *testing.T) {
	// Hash must be deterministic for a given input...
	if xoshiro256.Hash(4573842) != xoshiro256.Hash(4573842) {
		t.Error("Hash is not deterministic")
	}
	// ...and different inputs (including the zero seed) must not collide.
	if xoshiro256.Hash(4573842) == xoshiro256.Hash(0) {
		t.Error("distinct seeds produced the same hash")
	}
	if xoshiro256.Hash(0) == 0 {
		t.Error("zero seed must not hash to zero (would defeat the non-repeating-seed guarantee)")
	}
}

func TestXoshiro256Stream(t *testing.T) {
	s := xoshiro256.New(1)
	a := s.Next()
	b := s.Next()
	if a == b {
		t.Error("consecutive outputs must differ")
	}
	// re-seeding with the same value reproduces the same stream
	s2 := xoshiro256.New(1)
	if s2.Next() != a || s2.Next() != b {
		t.Error("stream is not reproducible from the same seed")
	}
}
