package config

import (
	"testing"
	"time"
)

func TestParseOffset(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{in: "", want: 0},
		{in: "Z", want: 0},
		{in: "+05:00", want: 5 * 3600},
		{in: "-0330", want: -(3*3600 + 30*60)},
		{in: "+02", want: 2 * 3600},
		{in: "garbage", want: 0},
	}

	ref := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	for _, tt := range tests {
		_, got := ref.In(ParseOffset(tt.in)).Zone()
		if got != tt.want {
			t.Fatalf("ParseOffset(%q): expected offset %d, got %d", tt.in, tt.want, got)
		}
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("REMINDER_LEAD", "not-a-duration")
	t.Setenv("SWEEP_CONCURRENCY", "8")
	t.Setenv("ALLOWED_ORIGINS", "http://a.test, http://b.test")

	cfg := Load()
	if cfg.ReminderLead != 10*time.Minute {
		t.Fatalf("expected default lead 10m, got %s", cfg.ReminderLead)
	}
	if cfg.ReminderDueSlack != 5*time.Minute {
		t.Fatalf("expected default slack 5m, got %s", cfg.ReminderDueSlack)
	}
	if cfg.SweepConcurrency != 8 {
		t.Fatalf("expected concurrency 8, got %d", cfg.SweepConcurrency)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "http://b.test" {
		t.Fatalf("unexpected origins: %v", cfg.AllowedOrigins)
	}
}
