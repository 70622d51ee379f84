package heap

import (
	"sort"
	"sync/atomic"
)

// Segment is a contiguous region of the managed heap.
type Segment struct {
	Start                Address
	FirstObjectAddress   Address
	End                  Address
	IsLargeObjectSegment bool
}

// Length returns End-Start.
func (s *Segment) Length() int64 {
	return s.End.Sub(s.Start)
}

// segmentIndex is a sorted, immutable array of segments with a warm-cache
// last-hit hint for address lookups. Heap walks are overwhelmingly
// sequential, so the hint turns get() into amortized O(1); a plain binary
// search would also be correct but must still maintain the hint.
type segmentIndex struct {
	segments []Segment // sorted by Start, non-overlapping
	lastHint int64     // atomic index hint; a benign race, re-validated on every use
}

func newSegmentIndex(segs []Segment) *segmentIndex {
	sorted := append([]Segment(nil), segs...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })
	return &segmentIndex{segments: sorted}
}

// get returns the segment containing a, if any.
func (si *segmentIndex) get(a Address) (*Segment, bool) {
	n := len(si.segments)
	if n == 0 {
		return nil, false
	}
	if a < si.segments[0].FirstObjectAddress || a >= si.segments[n-1].End {
		return nil, false
	}

	start := int(atomic.LoadInt64(&si.lastHint))
	if start < 0 || start >= n {
		start = 0
	}
	i := start
	for {
		seg := &si.segments[i]
		off := a.Sub(seg.Start)
		if off >= 0 && off < seg.Length() {
			atomic.StoreInt64(&si.lastHint, int64(i))
			return seg, true
		}
		i++
		if i == n {
			i = 0
		}
		if i == start {
			return nil, false
		}
	}
}

// all returns the segments in sorted order. Callers must not mutate the
// returned slice.
func (si *segmentIndex) all() []Segment {
	return si.segments
}
