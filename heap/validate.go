package heap

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
	"golang.org/x/xerrors"
)

// Validate eagerly checks the universal invariants of §8 against the
// current snapshot: segment monotonicity and disjointness, each allocation
// context lying inside a single segment, and dependent-handle sort order. It
// does not walk every object, so it is far cheaper than a full heap walk,
// and is meant as a "is this snapshot even well-formed" sanity check a
// caller can run before trusting an enumerator's output.
//
// The three checks are independent of each other, so they run concurrently
// and their failures are combined rather than short-circuited on the first
// one, the same way a multi-subsystem batch operation would report every
// failing subsystem instead of just the first.
func (h *Heap) Validate() error {
	snap, err := h.cache.get()
	if err != nil {
		return xerrors.Errorf("building snapshot: %w", err)
	}

	var segErr, ctxErr, depErr error
	g, _ := errgroup.WithContext(context.Background())
	g.Go(func() error { segErr = validateSegments(snap.Segments); return nil })
	g.Go(func() error { ctxErr = validateAllocContexts(snap); return nil })
	g.Go(func() error { depErr = validateDependentHandles(snap.dependentHandles()); return nil })
	_ = g.Wait()
	return multierr.Combine(segErr, ctxErr, depErr)
}

func validateSegments(segs []Segment) error {
	var err error
	for i := 0; i < len(segs); i++ {
		s := &segs[i]
		if !(s.Start <= s.FirstObjectAddress && s.FirstObjectAddress <= s.End) {
			err = multierr.Append(err, fmt.Errorf("%w: segment %d has start=%s first=%s end=%s out of order", ErrSnapshotCorrupt, i, s.Start, s.FirstObjectAddress, s.End))
		}
		if i > 0 && segs[i-1].End > s.Start {
			err = multierr.Append(err, fmt.Errorf("%w: segment %d [%s,%s) overlaps previous segment ending at %s", ErrSnapshotCorrupt, i, s.Start, s.End, segs[i-1].End))
		}
		if i > 0 && !(segs[i-1].Start < s.Start) {
			err = multierr.Append(err, fmt.Errorf("%w: segment %d does not start after segment %d", ErrSnapshotCorrupt, i, i-1))
		}
	}
	return err
}

func validateAllocContexts(snap *Snapshot) error {
	var err error
	for ptr, limit := range snap.AllocationContexts {
		seg, found := snap.index.get(ptr)
		if !found {
			err = multierr.Append(err, fmt.Errorf("%w: allocation context at %s is not within any segment", ErrSnapshotCorrupt, ptr))
			continue
		}
		if limit.Sub(seg.Start) > seg.Length() {
			err = multierr.Append(err, fmt.Errorf("%w: allocation context [%s,%s) extends past its segment", ErrSnapshotCorrupt, ptr, limit))
		}
	}
	return err
}

func validateDependentHandles(handles []DependentHandle) error {
	if !sort.SliceIsSorted(handles, func(i, j int) bool { return handles[i].Source < handles[j].Source }) {
		return fmt.Errorf("%w: dependent handles are not sorted by source", ErrSnapshotCorrupt)
	}
	return nil
}
