package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/quietblocks/quietblocks-api/internal/config"
	"github.com/quietblocks/quietblocks-api/internal/domain/quietblock"
	"github.com/quietblocks/quietblocks-api/internal/domain/realtime"
	"github.com/quietblocks/quietblocks-api/internal/domain/reminder"
	"github.com/quietblocks/quietblocks-api/internal/domain/user"
	"github.com/quietblocks/quietblocks-api/internal/middleware"
	"github.com/quietblocks/quietblocks-api/internal/pkg/database"
	"github.com/quietblocks/quietblocks-api/internal/pkg/errorhandler"
	"github.com/quietblocks/quietblocks-api/internal/pkg/jwt"
	"github.com/quietblocks/quietblocks-api/internal/pkg/logger"
	"github.com/quietblocks/quietblocks-api/internal/pkg/response"
)

func main() {
	cfg := config.Load()
	logger.Init(logger.Config{Level: cfg.LogLevel, Environment: cfg.Env})

	log.Info().
		Str("env", cfg.Env).
		Str("port", cfg.Port).
		Msg("Starting Quiet Blocks API")

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

	migrateCtx, cancelMigrate := context.WithTimeout(context.Background(), 30*time.Second)
	if err := database.RunMigrations(migrateCtx, db); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}
	cancelMigrate()

	redisClient, err := database.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer database.CloseRedis(redisClient)

	jwtService := jwt.NewService(cfg.JWTSecret, time.Hour)

	// ---------- Repositories ----------
	quietBlockRepo := quietblock.NewRepository(db)
	userRepo := user.NewRepository(db)

	// ---------- Realtime ----------
	hub := realtime.NewHub(redisClient)
	go hub.Run()
	realtime.RegisterMetrics(prometheus.DefaultRegisterer)

	// ---------- Services ----------
	quietBlockService := quietblock.NewService(quietBlockRepo, newOwnerLocker(redisClient))

	sweeper, err := reminder.NewFromConfig(cfg, quietBlockRepo, userRepo, prometheus.DefaultRegisterer)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build reminder sweeper")
	}
	sweeper.WithPublisher(hub)

	if cfg.IsProduction() && cfg.CronSecret == "" {
		log.Warn().Msg("CRON_SECRET not set, the reminder trigger is open")
	}

	var scheduler *reminder.Scheduler
	if cfg.SweepSchedule != "" {
		scheduler, err = reminder.NewScheduler(sweeper, cfg.SweepSchedule, cfg.SweepInterval)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create reminder scheduler")
		}
		scheduler.Start()
	}

	// ---------- Router ----------
	r := newRouter(routerDeps{
		allowedOrigins: cfg.AllowedOrigins,
		authMiddleware: middleware.Auth(jwtService),
		wsAuth:         middleware.AuthWithQueryToken(jwtService),
		cronAuth:       middleware.CronAuth(cfg.CronSecret),
		quietBlocks:    quietblock.NewHandler(quietBlockService, cfg.DisplayLocation()),
		reminders:      reminder.NewHandler(sweeper, cfg.SweepInterval),
		realtime:       realtime.NewHandler(hub, cfg.AllowedOrigins),
		metrics:        promhttp.Handler(),
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if scheduler != nil {
		scheduler.Stop(ctx)
	}
	hub.Shutdown()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited properly")
}

type routerDeps struct {
	allowedOrigins []string
	authMiddleware func(http.Handler) http.Handler
	wsAuth         func(http.Handler) http.Handler
	cronAuth       func(http.Handler) http.Handler
	quietBlocks    *quietblock.Handler
	reminders      *reminder.Handler
	realtime       *realtime.Handler
	metrics        http.Handler
}

func newRouter(d routerDeps) chi.Router {
	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recover)
	r.Use(middleware.CORSHandler(d.allowedOrigins))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		response.OK(w, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", d.metrics)

	r.With(d.wsAuth).Get("/ws", d.realtime.WebSocket)

	r.Mount("/api/cron", d.reminders.Routes(d.cronAuth))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Timeout(30 * time.Second))
		r.Mount("/quiet-blocks", d.quietBlocks.Routes(d.authMiddleware))
	})

	return r
}

func newOwnerLocker(redisClient *redis.Client) quietblock.OwnerLocker {
	if redisClient == nil {
		return quietblock.NewLocalLocker()
	}
	return quietblock.NewRedisLocker(redisClient, 10*time.Second)
}
