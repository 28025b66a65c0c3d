package reminder

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"

	"github.com/quietblocks/quietblocks-api/internal/config"
	"github.com/quietblocks/quietblocks-api/internal/pkg/email"
)

const contactCacheSize = 1024

// TriggerPeriod returns the longest expected gap between sweeps: the in-process
// schedule when one is set, the external poller's interval otherwise.
func TriggerPeriod(cfg *config.Config) (time.Duration, error) {
	if cfg.SweepSchedule == "" {
		return cfg.SweepInterval, nil
	}
	return SchedulePeriod(cfg.SweepSchedule)
}

// NewFromConfig builds the sweeper with its email transport, contact cache and
// metrics. It warns when the due slack cannot cover the trigger period.
func NewFromConfig(cfg *config.Config, store Store, profiles ProfileReader, reg prometheus.Registerer) (*Sweeper, error) {
	policy := Policy{Lead: cfg.ReminderLead, Slack: cfg.ReminderDueSlack}

	period, err := TriggerPeriod(cfg)
	if err != nil {
		return nil, err
	}
	if !policy.CoversPeriod(period) {
		log.Warn().
			Dur("slack", policy.Slack).
			Dur("period", period).
			Msg("REMINDER_DUE_SLACK is less than half of the sweep period, reminders can be missed between sweeps")
	}

	var sender email.Sender = email.LogSender{}
	if cfg.SendGridAPIKey != "" {
		sender = email.NewSendGridClient(email.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.EmailFrom,
			FromName:  cfg.EmailFromName,
			BaseURL:   cfg.SendGridBaseURL,
		})
	} else {
		log.Warn().Msg("SENDGRID_API_KEY not set, reminders are only logged")
	}

	emailService, err := email.NewService(sender)
	if err != nil {
		return nil, err
	}

	metrics, err := NewMetrics(reg)
	if err != nil {
		return nil, err
	}

	return NewSweeper(
		store,
		NewCachedContacts(profiles, contactCacheSize, cfg.ContactCacheTTL),
		emailService,
		Config{
			Policy:       policy,
			Concurrency:  cfg.SweepConcurrency,
			DashboardURL: cfg.FrontendURL + "/dashboard",
			Location:     cfg.DisplayLocation(),
		},
	).WithMetrics(metrics), nil
}
