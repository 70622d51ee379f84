package heap

// RootKind distinguishes the three sources enumerate_roots draws from.
type RootKind uint8

const (
	RootStrongHandle RootKind = iota
	RootFinalizer
	RootStack
)

// Root is an area of memory that might keep a heap object alive.
type Root struct {
	Kind RootKind
	Name string

	// Object and MethodTable are populated for RootFinalizer roots: the
	// finalizer-root segment slot held a pointer to Object, whose method
	// table resolved to a known Type.
	Object      Address
	MethodTable Address
	Type        *Type

	// Addr is the address of the slot anchoring the root, when meaningful
	// (always set for RootFinalizer and RootStack roots with a simple
	// address; may be zero for register-resident strong handles).
	Addr Address
}

// RootScanner lazily walks the union of strong handles, finalizer roots, and
// stack roots, in that order, exactly as HeapSource's inputs present them:
// no root is dropped or coalesced, so multiplicity in the inputs is
// preserved in the output.
type RootScanner struct {
	h    *Heap
	snap *Snapshot

	strong  []*Root
	strongI int

	finSegI  int
	finPos   Address
	finDone  bool

	threads  []ThreadRoots
	threadI  int
	tRoots   []*Root
	tRootI   int

	cur  *Root
	err  error
}

// EnumerateRoots returns a scanner over every GC root known to the current
// snapshot.
func (h *Heap) EnumerateRoots() *RootScanner {
	snap, err := h.cache.get()
	rs := &RootScanner{h: h, snap: snap, err: err}
	if err == nil {
		rs.strong = snap.src.StrongHandles()
		rs.threads = snap.src.Threads()
	}
	return rs
}

// Next advances the scanner. It returns false once the root stream is
// exhausted or a snapshot-build error occurred (see Err).
func (rs *RootScanner) Next() bool {
	if rs.err != nil {
		return false
	}

	if rs.strongI < len(rs.strong) {
		rs.cur = rs.strong[rs.strongI]
		rs.strongI++
		return true
	}

	if !rs.finDone {
		if r, ok := rs.nextFinalizerRoot(); ok {
			rs.cur = r
			return true
		}
		rs.finDone = true
	}

	for {
		if rs.tRootI < len(rs.tRoots) {
			rs.cur = rs.tRoots[rs.tRootI]
			rs.tRootI++
			return true
		}
		if rs.threadI >= len(rs.threads) {
			return false
		}
		rs.tRoots = rs.threads[rs.threadI].StackRoots()
		rs.tRootI = 0
		rs.threadI++
	}
}

func (rs *RootScanner) nextFinalizerRoot() (*Root, bool) {
	r, ok := nextFinalizerRoot(rs.h, rs.snap.FinalizerRootSegments, &rs.finSegI, &rs.finPos)
	return r, ok
}

// nextFinalizerRoot walks segs slot by slot, W bytes at a time, skipping
// zero slots and slots whose method table does not resolve, and returns the
// next root found. segIdx and pos are the caller's cursor, updated in place.
func nextFinalizerRoot(h *Heap, segs []Segment, segIdx *int, pos *Address) (*Root, bool) {
	ptrSize := h.reader.PointerSize()
	for *segIdx < len(segs) {
		seg := &segs[*segIdx]
		if *pos == 0 {
			*pos = seg.Start
		}
		for *pos < seg.End {
			slot := *pos
			*pos = pos.Add(ptrSize)
			ptr := h.reader.ReadPointer(slot)
			if ptr == 0 {
				continue
			}
			mt := h.reader.ReadPointer(ptr)
			if mt == 0 {
				continue
			}
			t, ok := h.types.GetOrCreateType(mt, ptr)
			if !ok {
				continue
			}
			return &Root{Kind: RootFinalizer, Name: "finalizer", Object: ptr, MethodTable: mt, Type: t, Addr: slot}, true
		}
		*segIdx++
		*pos = 0
	}
	return nil, false
}

// Root returns the root produced by the most recent call to Next.
func (rs *RootScanner) Root() *Root { return rs.cur }

// FinalizerRootScanner walks only the finalizer roots, without the strong
// handle and stack root passes enumerate_roots also does.
type FinalizerRootScanner struct {
	h      *Heap
	snap   *Snapshot
	segIdx int
	pos    Address
	cur    *Root
	err    error
}

// EnumerateFinalizerRoots returns a scanner over just the finalizer roots of
// the current snapshot.
func (h *Heap) EnumerateFinalizerRoots() *FinalizerRootScanner {
	snap, err := h.cache.get()
	return &FinalizerRootScanner{h: h, snap: snap, err: err}
}

func (fs *FinalizerRootScanner) Next() bool {
	if fs.err != nil {
		return false
	}
	r, ok := nextFinalizerRoot(fs.h, fs.snap.FinalizerRootSegments, &fs.segIdx, &fs.pos)
	fs.cur = r
	return ok
}

func (fs *FinalizerRootScanner) Root() *Root { return fs.cur }
func (fs *FinalizerRootScanner) Err() error  { return fs.err }

// Err returns the error, if any, that stopped the scanner.
func (rs *RootScanner) Err() error { return rs.err }

// FinalizableScanner walks the finalizer-object segments, yielding the
// objects themselves: they are unreachable through any normal root but
// still pending finalization.
type FinalizableScanner struct {
	h      *Heap
	snap   *Snapshot
	segI   int
	pos    Address
	cur    Object
	err    error
}

// EnumerateFinalizableObjects returns a scanner over objects awaiting
// finalization.
func (h *Heap) EnumerateFinalizableObjects() *FinalizableScanner {
	snap, err := h.cache.get()
	return &FinalizableScanner{h: h, snap: snap, err: err}
}

func (fs *FinalizableScanner) Next() bool {
	if fs.err != nil {
		return false
	}
	ptrSize := fs.h.reader.PointerSize()
	segs := fs.snap.FinalizerObjectSegments
	for fs.segI < len(segs) {
		seg := &segs[fs.segI]
		if fs.pos == 0 {
			fs.pos = seg.Start
		}
		for fs.pos < seg.End {
			slot := fs.pos
			fs.pos = fs.pos.Add(ptrSize)
			ptr := fs.h.reader.ReadPointer(slot)
			if ptr == 0 {
				continue
			}
			fs.cur = Object(ptr)
			return true
		}
		fs.segI++
		fs.pos = 0
	}
	return false
}

func (fs *FinalizableScanner) Object() Object { return fs.cur }
func (fs *FinalizableScanner) Err() error     { return fs.err }
