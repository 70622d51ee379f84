package heap

import (
	"go.uber.org/zap"
)

// Heap is the public façade: it owns the runtime handle (via HeapSource),
// the snapshot cache, and the four well-known types. After construction its
// scalars are immutable; all mutable state lives behind the snapshot cache,
// any StepLog passed to a walk, and modules' lazy fields.
type Heap struct {
	reader DataReader
	types  TypeFactory
	log    *zap.SugaredLogger

	FreeType      *Type
	ObjectType    *Type
	StringType    *Type
	ExceptionType *Type

	IsServer         bool
	LogicalHeapCount int
	CanWalkHeap      bool

	cache *snapshotCache
}

// Option configures a Heap at construction time.
type Option func(*Heap)

// WithLogger overrides the default no-op logger used for the
// corruption/self-protection diagnostic paths.
func WithLogger(log *zap.SugaredLogger) Option {
	return func(h *Heap) { h.log = log }
}

// NewHeap builds a Heap over src, resolving the four well-known types
// through types. isServer and logicalHeapCount describe the target's GC
// configuration; canWalkHeap records whether the target's runtime state
// allows a heap walk at all (e.g. not mid-GC in a way that makes the
// snapshot meaningless).
func NewHeap(reader DataReader, types TypeFactory, src HeapSource, isServer bool, logicalHeapCount int, canWalkHeap bool, opts ...Option) *Heap {
	h := &Heap{
		reader:           reader,
		types:            types,
		log:              zap.NewNop().Sugar(),
		IsServer:         isServer,
		LogicalHeapCount: logicalHeapCount,
		CanWalkHeap:      canWalkHeap,
	}
	for _, opt := range opts {
		opt(h)
	}
	h.cache = newSnapshotCache(func() (*Snapshot, error) { return buildSnapshot(src) })

	h.FreeType = types.CreateSystemType(h, 0, "free")
	h.FreeType.WellKnown = WellKnownFree
	h.ObjectType = types.CreateSystemType(h, 0, "object")
	h.ObjectType.WellKnown = WellKnownObject
	h.StringType = types.CreateSystemType(h, 0, "string")
	h.StringType.WellKnown = WellKnownString
	h.ExceptionType = types.CreateSystemType(h, 0, "exception")
	h.ExceptionType.WellKnown = WellKnownException

	return h
}

// Reader returns the DataReader this Heap was built on.
func (h *Heap) Reader() DataReader { return h.reader }

// ClearCachedData drops the current snapshot. Subsequent reads rebuild it
// from HeapSource.
func (h *Heap) ClearCachedData() {
	h.cache.clear()
}

// GetSegmentByAddress returns the segment containing a, if any.
func (h *Heap) GetSegmentByAddress(a Address) (*Segment, bool) {
	snap, err := h.cache.get()
	if err != nil {
		return nil, false
	}
	return snap.index.get(a)
}

// GetObjectType reads the method-table pointer at addr and resolves it
// through the type factory. ok is false if the method table is zero or
// unknown.
func (h *Heap) GetObjectType(addr Address) (t *Type, ok bool) {
	mt := h.reader.ReadPointer(addr)
	if mt == 0 {
		return nil, false
	}
	return h.types.GetOrCreateType(mt, addr)
}

// GetObjectSize returns the size of the object at addr, given its type.
func (h *Heap) GetObjectSize(addr Address, t *Type) int64 {
	return ObjectSize(h.reader, addr, t)
}

func (h *Heap) logCorruption(where string, kind CorruptionKind, at Address) {
	h.log.Warnw("heap walk self-protection triggered",
		"where", where, "kind", kind, "address", at)
}

// ObjectScanner lazily walks every live object in the snapshot, segment by
// segment. A segment's sweep stops when it reaches the segment's end, when a
// zero method table is read, or when the allocation-context skipper detects
// a corrupt (non-progressing or overshooting) advance.
type ObjectScanner struct {
	h       *Heap
	snap    *Snapshot
	segs    []Segment
	stepLog *StepLog

	segIdx int
	pos    Address

	curObj  Object
	curType *Type
	curSize int64

	err error
}

// EnumerateObjects returns a scanner over every object in the current
// snapshot, in segment order.
func (h *Heap) EnumerateObjects() *ObjectScanner {
	return h.enumerateObjects(nil)
}

// EnumerateObjectsWithLog is EnumerateObjects but records each visited
// object (and any corruption events) to log. A nil log is a no-op, exactly
// like EnumerateObjects.
func (h *Heap) EnumerateObjectsWithLog(log *StepLog) *ObjectScanner {
	return h.enumerateObjects(log)
}

func (h *Heap) enumerateObjects(log *StepLog) *ObjectScanner {
	snap, err := h.cache.get()
	s := &ObjectScanner{h: h, snap: snap, stepLog: log, segIdx: -1, err: err}
	if err == nil {
		s.segs = snap.Segments
	}
	return s
}

// Next advances the scanner. It returns false once the object stream is
// exhausted.
func (s *ObjectScanner) Next() bool {
	if s.err != nil {
		return false
	}
	ptrSize := s.h.reader.PointerSize()
	for {
		if s.segIdx < 0 {
			s.segIdx = 0
			if !s.enterSegment() {
				return false
			}
		}
		if s.segIdx >= len(s.segs) {
			return false
		}
		seg := &s.segs[s.segIdx]
		if s.pos >= seg.End {
			s.segIdx++
			if !s.enterSegment() {
				return false
			}
			continue
		}

		mt := s.h.reader.ReadPointer(s.pos)
		if mt == 0 {
			s.segIdx++
			if !s.enterSegment() {
				return false
			}
			continue
		}

		obj := s.pos
		t, _ := s.h.types.GetOrCreateType(mt, obj)
		var size, count int64
		if t != nil {
			size, count = ObjectSizeAndCount(s.h.reader, obj, t)
		} else {
			size = minObjectSize(ptrSize)
		}

		s.curObj = Object(obj)
		s.curType = t
		s.curSize = size

		if s.stepLog != nil {
			comp := int64(0)
			if t != nil {
				comp = t.ComponentSize
			}
			s.stepLog.record(Step{Object: obj, MethodTable: mt, BaseSize: size, ComponentSize: comp, Count: count})
		}

		next := obj.Add(align(size, seg.IsLargeObjectSegment, ptrSize))
		next = skipAllocationContext(seg, next, s.snap.AllocationContexts, ptrSize, func(kind CorruptionKind, at Address) {
			s.h.logCorruption("allocation-context skip", kind, at)
			if s.stepLog != nil {
				s.stepLog.recordCorruption(kind, at)
			}
		})
		if next == 0 {
			s.segIdx++
			if !s.enterSegment() {
				// No more segments; this Next() call still reports the
				// object we just found.
				s.pos = 0
			}
		} else {
			s.pos = next
		}
		return true
	}
}

// enterSegment positions pos at the first object address of s.segs[s.segIdx],
// advancing segIdx past any exhausted index. It returns false if there are
// no more segments.
func (s *ObjectScanner) enterSegment() bool {
	if s.segIdx >= len(s.segs) {
		return false
	}
	s.pos = s.segs[s.segIdx].FirstObjectAddress
	return true
}

// Object returns the object produced by the most recent call to Next.
func (s *ObjectScanner) Object() Object { return s.curObj }

// Type returns the type of the object produced by the most recent call to
// Next, or nil if the method table did not resolve.
func (s *ObjectScanner) Type() *Type { return s.curType }

// Size returns the size of the object produced by the most recent call to
// Next.
func (s *ObjectScanner) Size() int64 { return s.curSize }

// Err returns the error, if any, that stopped the scanner before it started
// (a snapshot-build failure).
func (s *ObjectScanner) Err() error { return s.err }

// ForEachObject calls fn with each object in the current snapshot. If fn
// returns false, iteration stops early.
func (h *Heap) ForEachObject(fn func(Object, *Type, int64) bool) error {
	s := h.EnumerateObjects()
	for s.Next() {
		if !fn(s.Object(), s.Type(), s.Size()) {
			break
		}
	}
	return s.Err()
}

// ForEachRoot calls fn with each GC root. If fn returns false, iteration
// stops early.
func (h *Heap) ForEachRoot(fn func(*Root) bool) error {
	rs := h.EnumerateRoots()
	for rs.Next() {
		if !fn(rs.Root()) {
			break
		}
	}
	return rs.Err()
}
