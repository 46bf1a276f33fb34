package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	invsvc "swifttasks-backend/internal/application/invitations"
	"swifttasks-backend/internal/application/maintenance"
	"swifttasks-backend/internal/config"
	"swifttasks-backend/internal/infrastructure/database"
	"swifttasks-backend/internal/interfaces/router"
	"swifttasks-backend/internal/monitoring"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const shutdownTimeout = 15 * time.Second

func configureLogging(cfg *config.Config) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339
	if cfg.Env != "production" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config load: %w", err)
	}
	configureLogging(cfg)

	metrics, err := monitoring.New()
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}
	app, db, rdb, err := router.CreateApp(cfg, metrics)
	if err != nil {
		return fmt.Errorf("app create: %w", err)
	}
	defer rdb.Close()

	// Verify connections before serving
	if db != nil {
		sqlDB, err := db.DB()
		if err != nil {
			return fmt.Errorf("postgres: get DB: %w", err)
		}
		defer sqlDB.Close()
		if err := sqlDB.PingContext(ctx); err != nil {
			return fmt.Errorf("postgres connection failed: %w", err)
		}
		log.Info().Msg("Postgres connected")
		if cfg.AutoMigrate {
			if err := database.AutoMigrate(db); err != nil {
				return fmt.Errorf("auto migrate: %w", err)
			}
			log.Info().Msg("schema migrated")
		}
	}
	if err := rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis connection failed: %w", err)
	}
	log.Info().Msg("Redis connected")

	if db != nil && cfg.MaintenanceEnabled {
		cleaner := maintenance.NewCleaner(db, &invsvc.Service{DB: db, Metrics: metrics}, maintenance.WithMetrics(metrics))
		if err := cleaner.Start(); err != nil {
			return fmt.Errorf("maintenance: %w", err)
		}
		defer func() { <-cleaner.Stop().Done() }()
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("server listening")
		errCh <- app.Listen(":" + cfg.Port)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	log.Info().Msg("shutting down")
	return app.ShutdownWithTimeout(shutdownTimeout)
}
