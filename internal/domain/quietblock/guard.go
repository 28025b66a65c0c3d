package quietblock

import (
	"time"

	"github.com/google/uuid"
)

// Admit decides whether [start, end) may be created for ownerID given a
// snapshot of the owner's blocks. It returns nil when accepted, ErrInvalidRange
// for an empty or inverted range, or an *OverlapError naming the first active
// block of the same owner that intersects the interval.
//
// Admit has no side effects. Callers must fetch the snapshot right before the
// check and hold the owner's lock until the insert completes.
func Admit(ownerID uuid.UUID, start, end time.Time, existing []*QuietBlock) error {
	if !end.After(start) {
		return ErrInvalidRange
	}

	for _, b := range existing {
		if b == nil || b.OwnerID != ownerID || !b.Active {
			continue
		}
		if b.Overlaps(start, end) {
			return &OverlapError{Conflict: b}
		}
	}
	return nil
}
