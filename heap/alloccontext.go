package heap

// AllocContexts maps the pointer of a thread-local bump-pointer allocation
// window to its limit: the half-open range [pointer, limit) contains no live
// objects.
type AllocContexts map[Address]Address

// CorruptionKind distinguishes the two ways skipAllocationContext can detect
// a corrupt snapshot.
type CorruptionKind int

const (
	// CorruptionNonProgress means the computed next position did not
	// advance past the current one.
	CorruptionNonProgress CorruptionKind = iota
	// CorruptionOvershoot means the position being skipped from, which is
	// an allocation-context key, lies at or past the end of the segment.
	CorruptionOvershoot
)

// onCorruption is called when a scan hits a self-protection check. It is
// optional observability, never a control-flow signal: the caller always
// gets a definitive stop/continue decision from the function's return value.
type onCorruption func(kind CorruptionKind, obj Address)

// skipAllocationContext advances obj past any allocation context it
// currently sits in. It returns the position scanning should resume from, or
// 0 to signal that the current segment sweep must be abandoned.
//
// On a large-object segment there are no thread-local allocation contexts,
// so obj is returned unchanged.
func skipAllocationContext(segment *Segment, obj Address, ctx AllocContexts, ptrSize int64, report onCorruption) Address {
	if segment.IsLargeObjectSegment {
		return obj
	}
	for {
		limit, ok := ctx[obj]
		if !ok {
			return obj
		}
		next := limit.Add(align(3*ptrSize, false, ptrSize))
		if obj >= next || obj >= segment.End {
			if report != nil {
				kind := CorruptionOvershoot
				if obj >= next {
					kind = CorruptionNonProgress
				}
				report(kind, obj)
			}
			return 0
		}
		obj = next
	}
}
