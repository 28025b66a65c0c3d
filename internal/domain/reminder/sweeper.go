package reminder

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/quietblocks/quietblocks-api/internal/domain/quietblock"
	"github.com/quietblocks/quietblocks-api/internal/pkg/email"
)

// Event names published to the owner's realtime feed
const (
	EventReminded = "quiet_block:reminded"
	EventExpired  = "quiet_block:expired"
)

const reminderSubject = "Your quiet block starts soon"

// Store is the part of the quiet block repository a sweep needs
type Store interface {
	ListSweepCandidates(ctx context.Context) ([]*quietblock.QuietBlock, error)
	Deactivate(ctx context.Context, ids []uuid.UUID) ([]uuid.UUID, error)
	MarkReminderSent(ctx context.Context, id uuid.UUID) (bool, error)
}

// Mailer renders and delivers a template synchronously
type Mailer interface {
	SendTemplate(ctx context.Context, to, toName, templateName, subject string, data interface{}) error
}

// Publisher pushes an event to an owner's live connections. Best effort.
type Publisher interface {
	Publish(ownerID uuid.UUID, event string, payload interface{})
}

// Summary reports one sweep
type Summary struct {
	Timestamp time.Time `json:"timestamp"`
	Processed int       `json:"processed"`
	Sent      int       `json:"sent"`
	Expired   int       `json:"expired"`
	Skipped   int       `json:"skipped"`
	Errors    int       `json:"errors"`
}

// Config tunes a Sweeper
type Config struct {
	Policy       Policy
	Concurrency  int
	DashboardURL string
	Location     *time.Location
}

// Sweeper runs the reminder scan: expire ended blocks, select the due set,
// dispatch one reminder per due block.
type Sweeper struct {
	store     Store
	contacts  ContactResolver
	mailer    Mailer
	publisher Publisher
	metrics   *Metrics
	cfg       Config
}

// NewSweeper creates reminder sweeper
func NewSweeper(store Store, contacts ContactResolver, mailer Mailer, cfg Config) *Sweeper {
	if cfg.Policy == (Policy{}) {
		cfg.Policy = DefaultPolicy()
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &Sweeper{
		store:    store,
		contacts: contacts,
		mailer:   mailer,
		cfg:      cfg,
	}
}

// WithPublisher sets the realtime publisher
func (s *Sweeper) WithPublisher(p Publisher) *Sweeper {
	s.publisher = p
	return s
}

// WithMetrics sets the Prometheus metrics sink
func (s *Sweeper) WithMetrics(m *Metrics) *Sweeper {
	s.metrics = m
	return s
}

// Sweep runs one pass at now. It fails only when the candidate read fails;
// every other failure is per block, logged and counted in the summary.
// Writes already made are never rolled back.
func (s *Sweeper) Sweep(ctx context.Context, now time.Time) (*Summary, error) {
	started := time.Now()
	summary, err := s.sweep(ctx, now)
	s.metrics.observe(summary, time.Since(started), err)
	return summary, err
}

func (s *Sweeper) sweep(ctx context.Context, now time.Time) (*Summary, error) {
	summary := &Summary{Timestamp: now}

	candidates, err := s.store.ListSweepCandidates(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreRead, err)
	}

	expired, live := Partition(candidates, now)
	if len(expired) > 0 {
		summary.Expired = s.expire(ctx, expired)
	}

	due := s.cfg.Policy.SelectDue(live, now)
	summary.Processed = len(due)

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	g.SetLimit(s.cfg.Concurrency)

	for _, b := range due {
		g.Go(func() error {
			res := s.remind(ctx, b, now)

			mu.Lock()
			defer mu.Unlock()
			if res.sent {
				summary.Sent++
			}
			if res.skipped {
				summary.Skipped++
			}
			if res.failed {
				summary.Errors++
			}
			return nil
		})
	}
	_ = g.Wait()

	log.Info().
		Time("now", now).
		Int("candidates", len(candidates)).
		Int("processed", summary.Processed).
		Int("sent", summary.Sent).
		Int("expired", summary.Expired).
		Int("skipped", summary.Skipped).
		Int("errors", summary.Errors).
		Msg("reminder sweep finished")

	return summary, nil
}

// expire deactivates ended blocks. A failed write is only logged: the blocks
// stay candidates and are retried by the next sweep. Events go out only for
// rows this call flipped; an owner read may have expired the others first.
func (s *Sweeper) expire(ctx context.Context, blocks []*quietblock.QuietBlock) int {
	ids := make([]uuid.UUID, len(blocks))
	byID := make(map[uuid.UUID]*quietblock.QuietBlock, len(blocks))
	for i, b := range blocks {
		ids[i] = b.ID
		byID[b.ID] = b
	}

	flipped, err := s.store.Deactivate(ctx, ids)
	if err != nil {
		log.Error().Err(err).Int("count", len(ids)).Msg("failed to expire quiet blocks")
		return 0
	}

	if s.publisher != nil {
		for _, id := range flipped {
			b, ok := byID[id]
			if !ok {
				continue
			}
			s.publisher.Publish(b.OwnerID, EventExpired, map[string]interface{}{
				"id":  b.ID,
				"end": b.End.In(s.cfg.Location).Format(time.RFC3339),
			})
		}
	}
	return len(flipped)
}

type remindResult struct {
	sent    bool
	skipped bool
	failed  bool
}

func (s *Sweeper) remind(ctx context.Context, b *quietblock.QuietBlock, now time.Time) remindResult {
	l := log.With().
		Str("block_id", b.ID.String()).
		Str("owner_id", b.OwnerID.String()).
		Logger()

	contact, err := s.contacts.Resolve(ctx, b.OwnerID)
	if err != nil {
		if errors.Is(err, ErrMissingEmail) {
			l.Warn().Err(err).Msg("skipping reminder: owner has no email")
		} else {
			l.Warn().Err(err).Msg("skipping reminder: contact lookup failed")
		}
		return remindResult{skipped: true, failed: true}
	}

	minutes := int(b.Start.Sub(now).Round(time.Minute) / time.Minute)
	data := email.ReminderData{
		Name:         contact.Name,
		Title:        b.Title,
		StartsAt:     b.Start.In(s.cfg.Location).Format(time.RFC3339),
		EndsAt:       b.End.In(s.cfg.Location).Format(time.RFC3339),
		MinutesUntil: minutes,
		DashboardURL: s.cfg.DashboardURL,
	}

	if err := s.mailer.SendTemplate(ctx, contact.Email, contact.Name, email.TemplateQuietBlockReminder, reminderSubject, data); err != nil {
		l.Error().Err(err).Msg("reminder dispatch failed")
		return remindResult{failed: true}
	}

	if _, err := s.store.MarkReminderSent(ctx, b.ID); err != nil {
		// sent but unmarked: a later sweep inside the window may send again
		l.Error().Err(err).Msg("failed to mark reminder sent")
		return remindResult{sent: true, failed: true}
	}

	if s.publisher != nil {
		s.publisher.Publish(b.OwnerID, EventReminded, map[string]interface{}{
			"id":    b.ID,
			"title": b.Title,
			"start": data.StartsAt,
		})
	}

	l.Info().Int("minutes_until", minutes).Msg("reminder sent")
	return remindResult{sent: true}
}
