package reminder

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

var scheduleParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// SchedulePeriod returns the longest gap between two runs of spec, looking at
// one week of runs.
func SchedulePeriod(spec string) (time.Duration, error) {
	sched, err := scheduleParser.Parse(spec)
	if err != nil {
		return 0, fmt.Errorf("invalid sweep schedule %q: %w", spec, err)
	}
	if every, ok := sched.(cron.ConstantDelaySchedule); ok {
		return every.Delay, nil
	}

	from := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	horizon := from.Add(7 * 24 * time.Hour)

	var longest time.Duration
	prev := sched.Next(from)
	for i := 0; i < 20000 && !prev.IsZero(); i++ {
		next := sched.Next(prev)
		if next.IsZero() {
			break
		}
		if gap := next.Sub(prev); gap > longest {
			longest = gap
		}
		if next.After(horizon) {
			break
		}
		prev = next
	}
	return longest, nil
}

// Scheduler triggers sweeps in process on a cron spec. Runs of one process
// never overlap: a tick that arrives while a sweep is running is skipped.
type Scheduler struct {
	cron    *cron.Cron
	sweeper *Sweeper
	timeout time.Duration
	now     func() time.Time
}

// NewScheduler creates sweep scheduler. spec accepts five-field cron
// expressions and descriptors such as "@every 5m".
func NewScheduler(sweeper *Sweeper, spec string, timeout time.Duration) (*Scheduler, error) {
	c := cron.New(
		cron.WithParser(scheduleParser),
		cron.WithChain(cron.Recover(cron.DefaultLogger), cron.SkipIfStillRunning(cron.DefaultLogger)),
	)

	s := &Scheduler{
		cron:    c,
		sweeper: sweeper,
		timeout: timeout,
		now:     time.Now,
	}

	if _, err := c.AddFunc(spec, s.run); err != nil {
		return nil, fmt.Errorf("invalid sweep schedule %q: %w", spec, err)
	}
	return s, nil
}

// Start begins scheduling in the background
func (s *Scheduler) Start() {
	s.cron.Start()
	log.Info().Msg("reminder scheduler started")
}

// Stop stops scheduling and waits for a running sweep, bounded by ctx
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		log.Info().Msg("reminder scheduler stopped")
	case <-ctx.Done():
		log.Warn().Msg("reminder scheduler stop timed out")
	}
}

func (s *Scheduler) run() {
	ctx := context.Background()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	if _, err := s.sweeper.Sweep(ctx, s.now().UTC()); err != nil {
		log.Error().Err(err).Msg("scheduled reminder sweep failed")
	}
}
