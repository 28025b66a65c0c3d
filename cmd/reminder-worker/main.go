package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"

	"github.com/quietblocks/quietblocks-api/internal/config"
	"github.com/quietblocks/quietblocks-api/internal/domain/quietblock"
	"github.com/quietblocks/quietblocks-api/internal/domain/realtime"
	"github.com/quietblocks/quietblocks-api/internal/domain/reminder"
	"github.com/quietblocks/quietblocks-api/internal/domain/user"
	"github.com/quietblocks/quietblocks-api/internal/pkg/database"
	"github.com/quietblocks/quietblocks-api/internal/pkg/errorhandler"
	"github.com/quietblocks/quietblocks-api/internal/pkg/logger"
)

func main() {
	once := flag.Bool("once", false, "run a single sweep, print the summary and exit")
	flag.Parse()

	cfg := config.Load()
	logger.Init(logger.Config{Level: cfg.LogLevel, Environment: cfg.Env})

	log.Info().Bool("once", *once).Msg("Starting reminder-worker")

	flushSentry, err := errorhandler.InitSentry(cfg.SentryDSN, cfg.Env)
	if err != nil {
		log.Error().Err(err).Msg("Failed to initialise Sentry, continuing without it")
	}
	defer flushSentry()

	db, err := database.NewPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer database.ClosePostgres(db)

	rdb, err := database.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer database.CloseRedis(rdb)

	schedule := cfg.SweepSchedule
	if schedule == "" {
		schedule = "@every " + cfg.SweepInterval.String()
		cfg.SweepSchedule = schedule
	}

	sweeper, err := reminder.NewFromConfig(cfg, quietblock.NewRepository(db), user.NewRepository(db), prometheus.DefaultRegisterer)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build reminder sweeper")
	}

	// Live connections sit on the API instances; events reach them over Redis.
	if rdb != nil {
		hub := realtime.NewHub(rdb)
		defer hub.Shutdown()
		sweeper.WithPublisher(hub)
	}

	if *once {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.SweepInterval)
		defer cancel()

		summary, err := sweeper.Sweep(ctx, time.Now().UTC())
		if err != nil {
			log.Error().Err(err).Msg("Reminder sweep failed")
			return
		}
		out, _ := json.Marshal(summary)
		os.Stdout.Write(append(out, '\n'))
		return
	}

	scheduler, err := reminder.NewScheduler(sweeper, schedule, cfg.SweepInterval)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create reminder scheduler")
	}
	scheduler.Start()
	log.Info().Str("schedule", schedule).Msg("reminder-worker running")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
	<-sigChan

	log.Info().Msg("Shutting down reminder-worker...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	scheduler.Stop(ctx)

	log.Info().Msg("reminder-worker stopped")
}
