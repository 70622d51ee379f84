package heap

import "testing"

func TestStats(t *testing.T) {
	r := newFakeReader(8)
	tf := newFakeTypeFactory()
	src := &fakeSource{
		segs: []Segment{
			{Start: 0x1000, FirstObjectAddress: 0x1000, End: 0x2000},
			{Start: 0x2000, FirstObjectAddress: 0x2000, End: 0x2800, IsLargeObjectSegment: true},
		},
		allocCtx: AllocContexts{0x1900: 0x1980},
	}
	h := NewHeap(r, tf, src, false, 1, true)

	stats, err := h.Stats()
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.SegmentCount != 2 {
		t.Errorf("SegmentCount = %d, want 2", stats.SegmentCount)
	}
	if want := int64(0x1000 + 0x800); stats.SegmentBytes != want {
		t.Errorf("SegmentBytes = %d, want %d", stats.SegmentBytes, want)
	}
	if want := int64(0x800); stats.LargeObjectSegmentBytes != want {
		t.Errorf("LargeObjectSegmentBytes = %d, want %d", stats.LargeObjectSegmentBytes, want)
	}
	if want := int64(0x80); stats.AllocationContextBytes != want {
		t.Errorf("AllocationContextBytes = %d, want %d", stats.AllocationContextBytes, want)
	}
	if stats.LiveObjects != 0 || stats.LiveBytes != 0 {
		t.Errorf("Stats() alone should leave LiveObjects/LiveBytes at zero, got %+v", stats)
	}
}

func TestStatsAccumulateOverObjectScan(t *testing.T) {
	h, _ := buildSimpleHeap(t)

	stats, err := h.Stats()
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}

	if err := h.ForEachObject(func(o Object, ty *Type, size int64) bool {
		stats.Accumulate(o, ty, size)
		return true
	}); err != nil {
		t.Fatalf("ForEachObject: %v", err)
	}

	if stats.LiveObjects != 2 {
		t.Errorf("LiveObjects = %d, want 2", stats.LiveObjects)
	}
	if want := int64(24 + 32); stats.LiveBytes != want {
		t.Errorf("LiveBytes = %d, want %d", stats.LiveBytes, want)
	}
}

func TestStatsEmptyHeap(t *testing.T) {
	r := newFakeReader(8)
	tf := newFakeTypeFactory()
	h := NewHeap(r, tf, &fakeSource{}, false, 1, true)

	stats, err := h.Stats()
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.SegmentCount != 0 || stats.SegmentBytes != 0 {
		t.Errorf("Stats on empty heap = %+v, want all zero", stats)
	}
}
