// Package memsys provides memory management and pooled byte-buffer
// allocation on top of a fixed ladder of size classes (slabs).
/*
 * Copyright (c) 2018-2024, corerpc authors. All rights reserved.
 */
package memsys_test

import (
	"sync"
	"testing"
	"time"

	"github.com/glacio/corerpc/memsys"
)

func TestAllocFreeRoundtrip(t *testing.T) {
	mem := &memsys.MMSA{Name: "test"}
	mem.Init(0)
	defer mem.Terminate(false)

	b := mem.Alloc(100)
	if len(b) != 100 {
		t.Fatalf("expected length 100, got %d", len(b))
	}
	mem.Free(b)

	b2 := mem.Alloc(100)
	if cap(b2) != cap(b) {
		t.Fatalf("expected reuse from the same slab, cap %d vs %d", cap(b2), cap(b))
	}
}

func TestConcurrentAllocFree(t *testing.T) {
	mem := memsys.PageMM()
	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				b := mem.Alloc(memsys.PageSize * (1 + n%4))
				mem.Free(b)
			}
		}(i)
	}
	wg.Wait()
}

func TestFreeSpecReclaims(t *testing.T) {
	mem := &memsys.MMSA{Name: "reclaim"}
	mem.Init(0)
	defer mem.Terminate(false)

	for i := 0; i < 8; i++ {
		mem.Free(mem.Alloc(memsys.PageSize))
	}
	freed := mem.FreeSpec(memsys.FreeSpec{Totally: true, MinSize: memsys.PageSize})
	if freed == 0 {
		t.Fatal("expected FreeSpec to reclaim at least one buffer")
	}
}

func TestGetSlabRejectsBadSizes(t *testing.T) {
	mem := memsys.PageMM()
	if _, err := mem.GetSlab(memsys.PageSize + 1); err == nil {
		t.Fatal("expected an error for a non-page-multiple size")
	}
	h, err := mem.GetSlab(memsys.PageSize)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h.Size() != memsys.PageSize {
		t.Fatalf("expected size %d, got %d", memsys.PageSize, h.Size())
	}
}

func TestPressureIsLow(t *testing.T) {
	mem := memsys.PageMM()
	if mem.Pressure() != memsys.PressureLow {
		t.Fatal("expected PressureLow from a bounded, size-classed allocator")
	}
}

func TestStatsTracksHits(t *testing.T) {
	mem := &memsys.MMSA{Name: "stats", TimeIval: time.Second}
	mem.Init(0)
	defer mem.Terminate(false)

	mem.Free(mem.Alloc(memsys.PageSize))
	stats := mem.GetStats()
	if stats.Hits[0] == 0 {
		t.Fatal("expected at least one hit on the first slab")
	}
}
