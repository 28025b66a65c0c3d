package reminder

import (
	"time"

	"github.com/quietblocks/quietblocks-api/internal/domain/quietblock"
)

const (
	DefaultLead  = 10 * time.Minute
	DefaultSlack = 5 * time.Minute
)

// Policy decides when a block's reminder is due.
//
// A block is due at now when now is before its start and within Slack of
// start - Lead. With a trigger period P, reminders cannot fall between two
// sweeps as long as Slack >= P/2.
type Policy struct {
	Lead  time.Duration
	Slack time.Duration
}

// DefaultPolicy returns the 10 minute lead, 5 minute slack policy
func DefaultPolicy() Policy {
	return Policy{Lead: DefaultLead, Slack: DefaultSlack}
}

// ReminderAt returns the ideal reminder instant for b
func (p Policy) ReminderAt(b *quietblock.QuietBlock) time.Time {
	return b.Start.Add(-p.Lead)
}

// IsDue reports whether b should be reminded at now
func (p Policy) IsDue(b *quietblock.QuietBlock, now time.Time) bool {
	if !now.Before(b.Start) {
		return false
	}
	d := now.Sub(p.ReminderAt(b))
	if d < 0 {
		d = -d
	}
	return d <= p.Slack
}

// CoversPeriod reports whether a trigger firing every period can never skip a
// whole due window
func (p Policy) CoversPeriod(period time.Duration) bool {
	return 2*p.Slack >= period
}

// Partition splits candidates into ended blocks (end <= now) and the rest
func Partition(blocks []*quietblock.QuietBlock, now time.Time) (expired, live []*quietblock.QuietBlock) {
	for _, b := range blocks {
		if b == nil {
			continue
		}
		if b.IsExpired(now) {
			expired = append(expired, b)
		} else {
			live = append(live, b)
		}
	}
	return expired, live
}

// SelectDue returns the live, unstarted, not yet reminded blocks that are due at now
func (p Policy) SelectDue(live []*quietblock.QuietBlock, now time.Time) []*quietblock.QuietBlock {
	var due []*quietblock.QuietBlock
	for _, b := range live {
		if b.ReminderSent || !b.Active || b.HasStarted(now) {
			continue
		}
		if p.IsDue(b, now) {
			due = append(due, b)
		}
	}
	return due
}
