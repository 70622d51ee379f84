package heap

// ReferenceKind distinguishes the three sources enumerate_object_references
// draws from, in the order they are yielded.
type ReferenceKind uint8

const (
	RefDependentHandle ReferenceKind = iota
	RefCollectibleOwner
	RefField
)

// Reference is one outgoing edge from an object, as produced by
// EnumerateReferencesWithFields. EnumerateObjectReferences exposes the same
// data without the field-level metadata.
type Reference struct {
	Kind   ReferenceKind
	Target Address
	// TargetType is the resolved type of Target, or nil if its method table
	// did not resolve (or Target is 0).
	TargetType *Type

	// ContainingType and FieldOffset are only meaningful for Kind ==
	// RefField; FieldOffset is -1 otherwise.
	ContainingType *Type
	FieldOffset    int64
}

// buildReferences computes, eagerly but boundedly (the result is at most a
// handful of dependent handles plus one reference per pointer-sized slot of
// a single object — never the whole heap), the ordered reference list for
// obj per §4.6.3/§4.6.4: dependent handles first, then the collectible
// owner, then the GC-descriptor field walk.
func (h *Heap) buildReferences(snap *Snapshot, obj Address, t *Type, carefully, considerDependentHandles bool) []Reference {
	var refs []Reference

	if considerDependentHandles {
		handles := snap.dependentHandles()
		for _, dh := range equalRangeBySource(handles, obj) {
			refs = append(refs, Reference{Kind: RefDependentHandle, Target: dh.Target, FieldOffset: -1})
		}
	}

	if t != nil && t.IsCollectible {
		ptr := h.reader.ReadPointer(t.LoaderAllocatorHandle)
		if ptr != 0 {
			refs = append(refs, Reference{Kind: RefCollectibleOwner, Target: ptr, FieldOffset: -1})
		}
	}

	if t != nil && t.ContainsPointers && t.Descriptor != nil && !t.Descriptor.IsEmpty() {
		size := ObjectSize(h.reader, obj, t)
		proceed := true
		if carefully {
			seg, found := snap.index.get(obj)
			if !found || obj.Add(size) > seg.End || (!seg.IsLargeObjectSegment && size > LargeObjectThreshold) {
				proceed = false
				h.logCorruption("careful reference enumeration", CorruptionOvershoot, obj)
			}
		}
		if proceed {
			t.Descriptor.Walk(h.reader, obj, size, func(addr Address, off int64) bool {
				var targetType *Type
				if addr != 0 {
					targetType, _ = h.GetObjectType(addr)
				}
				refs = append(refs, Reference{
					Kind:           RefField,
					Target:         addr,
					TargetType:     targetType,
					ContainingType: t,
					FieldOffset:    off,
				})
				return true
			})
		}
	}

	return refs
}

// ReferenceScanner walks the references of a single object, with full
// per-reference metadata (dependent-handle tag, or containing type + field
// offset).
type ReferenceScanner struct {
	refs []Reference
	idx  int
	err  error
}

// EnumerateReferencesWithFields returns a scanner over obj's outgoing
// references, each carrying field-level metadata. See §4.6.4.
func (h *Heap) EnumerateReferencesWithFields(obj Address, t *Type, carefully, considerDependentHandles bool) *ReferenceScanner {
	snap, err := h.cache.get()
	if err != nil {
		return &ReferenceScanner{err: err, idx: -1}
	}
	return &ReferenceScanner{refs: h.buildReferences(snap, obj, t, carefully, considerDependentHandles), idx: -1}
}

func (rs *ReferenceScanner) Next() bool {
	if rs.err != nil {
		return false
	}
	rs.idx++
	return rs.idx < len(rs.refs)
}

func (rs *ReferenceScanner) Reference() Reference { return rs.refs[rs.idx] }
func (rs *ReferenceScanner) Err() error           { return rs.err }

// ObjectRef is one outgoing reference from an object, resolved to its target
// object and type but without field-level provenance. See §4.6.3.
type ObjectRef struct {
	Target     Address
	TargetType *Type
}

// ObjectRefScanner walks the references of a single object without
// field-level metadata.
type ObjectRefScanner struct {
	inner *ReferenceScanner
}

// EnumerateObjectReferences returns a scanner over obj's outgoing
// references. See §4.6.3.
func (h *Heap) EnumerateObjectReferences(obj Address, t *Type, carefully, considerDependentHandles bool) *ObjectRefScanner {
	return &ObjectRefScanner{inner: h.EnumerateReferencesWithFields(obj, t, carefully, considerDependentHandles)}
}

func (s *ObjectRefScanner) Next() bool { return s.inner.Next() }
func (s *ObjectRefScanner) Ref() ObjectRef {
	r := s.inner.Reference()
	return ObjectRef{Target: r.Target, TargetType: r.TargetType}
}
func (s *ObjectRefScanner) Err() error { return s.inner.Err() }

// ForEachPtr calls fn for each reference obj contains, whether or not it
// resolves to a known live object. If fn returns false, iteration stops
// early.
func (h *Heap) ForEachPtr(obj Address, t *Type, carefully, considerDependentHandles bool, fn func(Reference) bool) error {
	s := h.EnumerateReferencesWithFields(obj, t, carefully, considerDependentHandles)
	for s.Next() {
		if !fn(s.Reference()) {
			break
		}
	}
	return s.Err()
}
