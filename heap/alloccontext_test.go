package heap

import "testing"

// S4 — allocation-context skip.
func TestSkipAllocationContext(t *testing.T) {
	seg := &Segment{Start: 0x10000, FirstObjectAddress: 0x10000, End: 0x20000}
	ctx := AllocContexts{0x10100: 0x10400}

	got := skipAllocationContext(seg, 0x10100, ctx, 8, nil)
	if want := Address(0x10418); got != want {
		t.Errorf("skipAllocationContext = %s, want %s", got, want)
	}
}

func TestSkipAllocationContextNotInMap(t *testing.T) {
	seg := &Segment{Start: 0x10000, FirstObjectAddress: 0x10000, End: 0x20000}
	ctx := AllocContexts{0x10100: 0x10400}

	got := skipAllocationContext(seg, 0x10200, ctx, 8, nil)
	if got != 0x10200 {
		t.Errorf("skipAllocationContext = %s, want unchanged 0x10200", got)
	}
}

func TestSkipAllocationContextLargeObjectSegmentUnchanged(t *testing.T) {
	seg := &Segment{Start: 0x10000, FirstObjectAddress: 0x10000, End: 0x20000, IsLargeObjectSegment: true}
	ctx := AllocContexts{0x10100: 0x10400}

	got := skipAllocationContext(seg, 0x10100, ctx, 8, nil)
	if got != 0x10100 {
		t.Errorf("skipAllocationContext on LOH segment = %s, want unchanged 0x10100", got)
	}
}

func TestSkipAllocationContextOvershootReportsAndStops(t *testing.T) {
	seg := &Segment{Start: 0x10000, FirstObjectAddress: 0x10000, End: 0x10100}
	ctx := AllocContexts{0x10100: 0x10400} // context key sits at the segment end

	var gotKind CorruptionKind
	var gotAddr Address
	reported := false
	got := skipAllocationContext(seg, 0x10100, ctx, 8, func(kind CorruptionKind, at Address) {
		reported = true
		gotKind = kind
		gotAddr = at
	})
	if got != 0 {
		t.Errorf("skipAllocationContext = %s, want sentinel 0", got)
	}
	if !reported {
		t.Fatal("expected corruption to be reported")
	}
	if gotKind != CorruptionOvershoot {
		t.Errorf("kind = %v, want CorruptionOvershoot", gotKind)
	}
	if gotAddr != 0x10100 {
		t.Errorf("reported address = %s, want 0x10100", gotAddr)
	}
}

func TestSkipAllocationContextNonProgressReportsAndStops(t *testing.T) {
	seg := &Segment{Start: 0x10000, FirstObjectAddress: 0x10000, End: 0x20000}
	// limit plus the aligned minimum size equals the key, so next == obj: no progress.
	ctx := AllocContexts{0x10100: 0x100e8} // 0x100e8 + 24 == 0x10100

	var gotKind CorruptionKind
	got := skipAllocationContext(seg, 0x10100, ctx, 8, func(kind CorruptionKind, at Address) {
		gotKind = kind
	})
	if got != 0 {
		t.Errorf("skipAllocationContext = %s, want sentinel 0", got)
	}
	if gotKind != CorruptionNonProgress {
		t.Errorf("kind = %v, want CorruptionNonProgress", gotKind)
	}
}
