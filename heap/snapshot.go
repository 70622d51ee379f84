package heap

import (
	"sort"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"
)

// DependentHandle is a conditional strong reference: while Source is live,
// Target is reachable too.
type DependentHandle struct {
	Source, Target Address
}

// HeapSource supplies the raw collaborator data a Snapshot is built from:
// the runtime handle table, goroutine/thread stacks, and so on. It is the
// seam between this package's caching and whatever owns the live connection
// to the target (the same role core.Process plays for golang.org/x/debug's
// gocore.Process).
type HeapSource interface {
	// Segments returns every heap segment, in any order.
	Segments() []Segment
	// AllocationContexts returns the current thread-local bump-pointer
	// windows.
	AllocationContexts() AllocContexts
	// FinalizerRootSegments returns the segments holding pointers to
	// objects that are still reachable and pending finalization.
	FinalizerRootSegments() []Segment
	// FinalizerObjectSegments returns the segments holding pointers to
	// objects that are unreachable except for pending finalization.
	FinalizerObjectSegments() []Segment
	// DependentHandles returns the current dependent-handle set, in any
	// order. Called at most once per snapshot.
	DependentHandles() []DependentHandle
	// StrongHandles returns every strong GC handle, as the roots it
	// directly anchors.
	StrongHandles() []*Root
	// Threads returns one root-supplier per live thread in the target.
	Threads() []ThreadRoots
}

// ThreadRoots supplies the stack roots for a single live thread.
type ThreadRoots interface {
	StackRoots() []*Root
}

// Snapshot is the immutable, atomically published bundle of heap metadata
// valid between ClearCachedData calls. Two consecutive enumerations against
// the same Snapshot and DataReader are required to produce identical
// sequences.
type Snapshot struct {
	Segments                []Segment
	AllocationContexts      AllocContexts
	FinalizerRootSegments   []Segment
	FinalizerObjectSegments []Segment

	index *segmentIndex
	src   HeapSource

	depOnce    sync.Once
	depHandles []DependentHandle
}

// dependentHandles returns the sorted dependent-handle array, building and
// latching it on first access. The latch is one-shot per snapshot: later
// calls return the same slice even if the underlying source would now
// return something different.
func (s *Snapshot) dependentHandles() []DependentHandle {
	s.depOnce.Do(func() {
		handles := append([]DependentHandle(nil), s.src.DependentHandles()...)
		sort.SliceStable(handles, func(i, j int) bool { return handles[i].Source < handles[j].Source })
		s.depHandles = handles
	})
	return s.depHandles
}

// equalRangeBySource returns the slice of handles whose Source equals src,
// using the fact that s.dependentHandles() is sorted by Source.
func equalRangeBySource(handles []DependentHandle, src Address) []DependentHandle {
	lo := sort.Search(len(handles), func(i int) bool { return handles[i].Source >= src })
	hi := sort.Search(len(handles), func(i int) bool { return handles[i].Source > src })
	return handles[lo:hi]
}

// snapshotCache is a single-slot, atomically published cache. Readers fetch
// the current snapshot; if absent, one of them builds it (via singleflight,
// so concurrent misses collapse into a single build) and publishes it
// wholesale. No reader ever observes a partially initialized Snapshot.
type snapshotCache struct {
	cur   atomic.Pointer[Snapshot]
	group singleflight.Group
	build func() (*Snapshot, error)
}

func newSnapshotCache(build func() (*Snapshot, error)) *snapshotCache {
	return &snapshotCache{build: build}
}

func (c *snapshotCache) get() (*Snapshot, error) {
	if s := c.cur.Load(); s != nil {
		return s, nil
	}
	v, err, _ := c.group.Do("snapshot", func() (interface{}, error) {
		if s := c.cur.Load(); s != nil {
			return s, nil
		}
		s, err := c.build()
		if err != nil {
			return nil, err
		}
		c.cur.Store(s)
		return s, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Snapshot), nil
}

// clear drops the current snapshot. Subsequent reads rebuild from scratch.
func (c *snapshotCache) clear() {
	c.cur.Store(nil)
}

func buildSnapshot(src HeapSource) (*Snapshot, error) {
	index := newSegmentIndex(src.Segments())
	s := &Snapshot{
		Segments:                index.all(),
		AllocationContexts:      src.AllocationContexts(),
		FinalizerRootSegments:   append([]Segment(nil), src.FinalizerRootSegments()...),
		FinalizerObjectSegments: append([]Segment(nil), src.FinalizerObjectSegments()...),
		index:                   index,
		src:                     src,
	}
	return s, nil
}
