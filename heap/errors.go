package heap

import "errors"

// ErrSnapshotCorrupt is wrapped into Validate's aggregated error for each
// invariant violation it finds. It never crosses an enumeration boundary:
// enumerators truncate or proceed per §7 instead of returning it.
var ErrSnapshotCorrupt = errors.New("heap snapshot invariant violated")
