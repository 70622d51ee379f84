package heap

// Stats is a best-effort size/count rollup over the current snapshot.
// SegmentBytes/AllocationContextBytes come from the snapshot's segment and
// allocation-context metadata alone and are always populated by Stats.
// LiveObjects/LiveBytes are populated only if the caller accumulates them by
// calling Accumulate once per object while driving an ObjectScanner (or
// ForEachObject) to completion; Stats itself never walks objects.
type Stats struct {
	SegmentCount            int
	SegmentBytes            int64
	LargeObjectSegmentBytes int64
	AllocationContextBytes  int64

	LiveObjects int64
	LiveBytes   int64
}

// Accumulate adds one visited object's contribution to LiveObjects and
// LiveBytes. A caller that wants those fields populated calls this once per
// object while running an ObjectScanner or ForEachObject to completion:
//
//	stats, _ := h.Stats()
//	h.ForEachObject(func(o Object, t *Type, size int64) bool {
//		stats.Accumulate(o, t, size)
//		return true
//	})
func (s *Stats) Accumulate(obj Object, t *Type, size int64) {
	s.LiveObjects++
	s.LiveBytes += size
}

// Stats computes the cheap, segment-level portion of a Stats rollup. It does
// not walk any objects; LiveObjects and LiveBytes are left at zero until the
// caller fills them in via Accumulate.
func (h *Heap) Stats() (Stats, error) {
	snap, err := h.cache.get()
	if err != nil {
		return Stats{}, err
	}
	var s Stats
	s.SegmentCount = len(snap.Segments)
	for i := range snap.Segments {
		seg := &snap.Segments[i]
		s.SegmentBytes += seg.Length()
		if seg.IsLargeObjectSegment {
			s.LargeObjectSegmentBytes += seg.Length()
		}
	}
	for ptr, limit := range snap.AllocationContexts {
		s.AllocationContextBytes += limit.Sub(ptr)
	}
	return s, nil
}
