package quietblock

import (
	"time"

	"github.com/google/uuid"
)

// MaxTitleLength is the longest accepted title, in characters
const MaxTitleLength = 200

// QuietBlock is a user's reserved focus interval [Start, End)
type QuietBlock struct {
	ID           uuid.UUID `db:"id"`
	OwnerID      uuid.UUID `db:"owner_id"`
	Title        string    `db:"title"`
	Start        time.Time `db:"start_at"`
	End          time.Time `db:"end_at"`
	Active       bool      `db:"active"`
	ReminderSent bool      `db:"reminder_sent"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

// Overlaps reports whether [start, end) intersects the block. Touching
// endpoints do not overlap.
func (b *QuietBlock) Overlaps(start, end time.Time) bool {
	return start.Before(b.End) && end.After(b.Start)
}

// IsExpired returns true once now has reached the block's end
func (b *QuietBlock) IsExpired(now time.Time) bool {
	return !now.Before(b.End)
}

// HasStarted returns true once now has reached the block's start
func (b *QuietBlock) HasStarted(now time.Time) bool {
	return !now.Before(b.Start)
}

// Duration returns the length of the block
func (b *QuietBlock) Duration() time.Duration {
	return b.End.Sub(b.Start)
}
