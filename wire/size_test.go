package wire_test

import (
	"testing"

	"github.com/glacio/corerpc/wire"
)

func TestSizeRoundtripSmall(t *testing.T) {
	for _, n := range []int{0, 1, 254} {
		buf := wire.NewBuffer(nil)
		buf.WriteSize(n)
		if wire.SizeLen(n) != 1 {
			t.Fatalf("expected 1-byte form for %d", n)
		}
		buf.Seek(0)
		got, err := buf.ReadSize()
		if err != nil {
			t.Fatalf("ReadSize(%d): %v", n, err)
		}
		if got != n {
			t.Fatalf("expected %d, got %d", n, got)
		}
	}
}

func TestSizeRoundtripLarge(t *testing.T) {
	for _, n := range []int{255, 256, 1 << 20} {
		buf := wire.NewBuffer(nil)
		buf.WriteSize(n)
		if wire.SizeLen(n) != 5 {
			t.Fatalf("expected 5-byte form for %d", n)
		}
		buf.Seek(0)
		got, err := buf.ReadSize()
		if err != nil {
			t.Fatalf("ReadSize(%d): %v", n, err)
		}
		if got != n {
			t.Fatalf("expected %d, got %d", n, got)
		}
	}
}

func TestSizeBoundaryFlipsForm(t *testing.T) {
	// 254 stays 1-byte; one more element (255) flips to 5-byte form.
	if wire.SizeLen(254) != 1 {
		t.Fatal("expected 254 to stay in 1-byte form")
	}
	if wire.SizeLen(255) != 5 {
		t.Fatal("expected 255 to flip to 5-byte form")
	}
}
