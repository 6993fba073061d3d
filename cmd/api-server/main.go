package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/docpoint/clinic-booking/internal/api"
	"github.com/docpoint/clinic-booking/internal/booking"
	"github.com/docpoint/clinic-booking/internal/clock"
	"github.com/docpoint/clinic-booking/internal/config"
	"github.com/docpoint/clinic-booking/internal/db"
	"github.com/docpoint/clinic-booking/internal/logging"
	redisclient "github.com/docpoint/clinic-booking/internal/redis"
	"github.com/docpoint/clinic-booking/internal/review"
)

const version = "0.1.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	logger, err := logging.New(cfg.Env)
	if err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("api-server starting up",
		zap.String("env", cfg.Env),
		zap.String("http_port", cfg.HTTPPort),
		zap.String("version", version),
	)

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect Postgres
	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
	cancelPg()
	if err != nil {
		logger.Fatal("postgres connection error", zap.Error(err))
	}
	defer pgPool.Close()
	logger.Info("connected to Postgres")

	// Apply migrations
	migCtx, cancelMig := context.WithTimeout(rootCtx, 30*time.Second)
	err = db.Migrate(migCtx, pgPool)
	cancelMig()
	if err != nil {
		logger.Fatal("migration error", zap.Error(err))
	}
	logger.Info("migrations applied")

	// Connect Redis
	rdb, err := redisclient.NewRedisClient(cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
	if err != nil {
		logger.Fatal("redis connection error", zap.Error(err))
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			logger.Warn("error closing redis", zap.Error(err))
		}
	}()
	logger.Info("connected to Redis")

	bookingRepo := booking.NewPgRepository(pgPool)
	resolver := clock.NewResolver(logger)
	bookingSvc := booking.NewService(bookingRepo, resolver, logger)

	reviewRepo := review.NewPgRepository(pgPool)
	reviewSvc := review.NewService(reviewRepo, bookingRepo, logger)

	limiter := redisclient.NewFixedWindowLimiter(rdb, cfg.RateLimitMax, cfg.RateLimitWindow)

	router := api.NewRouter(api.RouterConfig{
		Booking:   bookingSvc,
		Reviews:   reviewSvc,
		Limiter:   limiter,
		JWTSecret: []byte(cfg.JWTSecret),
		Logger:    logger,
		PgPool:    pgPool,
		Redis:     rdb,
		Env:       cfg.Env,
		Version:   version,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", srv.Addr))
		serverErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	case <-rootCtx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("graceful shutdown failed", zap.Error(err))
	}

	logger.Info("api-server stopped")
}
