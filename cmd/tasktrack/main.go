package main

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/tasktrack/internal/api/ws"
	"github.com/gosuda/tasktrack/internal/auth"
	"github.com/gosuda/tasktrack/internal/comments"
	"github.com/gosuda/tasktrack/internal/config"
	"github.com/gosuda/tasktrack/internal/domain"
	"github.com/gosuda/tasktrack/internal/server"
	"github.com/gosuda/tasktrack/internal/store/memory"
	natsstore "github.com/gosuda/tasktrack/internal/store/nats"
	"github.com/gosuda/tasktrack/internal/store/postgres"
	redisstore "github.com/gosuda/tasktrack/internal/store/redis"
	"github.com/gosuda/tasktrack/internal/tasks"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("startup failed")
	}
}

func run() error {
	ctx := context.Background()

	// Load configuration from environment.
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	setupLogging(cfg.Log)

	checks := map[string]server.Pinger{}

	store, closeStore, err := openStore(ctx, cfg, checks)
	if err != nil {
		return err
	}
	defer closeStore()

	// Redis and NATS are optional. Without an event bus events are dropped
	// and the live feed is off; without Redis logouts only last for the
	// life of the process.
	var (
		events  domain.EventPublisher = domain.NopPublisher{}
		feed    ws.Subscriber
		revoker auth.Revoker
	)
	if cfg.Redis.Enabled() {
		client, connErr := redisstore.Connect(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if connErr != nil {
			return connErr
		}
		defer client.Close()

		pubsub := redisstore.NewPubSub(client)
		events, feed = pubsub, pubsub
		revoker = redisstore.NewTokenDenylist(client)
		checks["redis"] = server.PingFunc(func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		})
		log.Info().Str("addr", cfg.Redis.Addr).Msg("redis connected")
	}
	if cfg.NATS.Enabled() {
		nc, connErr := natsstore.Connect(cfg.NATS.URL)
		if connErr != nil {
			return connErr
		}
		defer nc.Drain() //nolint:errcheck // best effort on shutdown

		bus := natsstore.NewBus(nc)
		events, feed = bus, bus
		checks["nats"] = bus
		log.Info().Str("url", cfg.NATS.URL).Msg("nats connected; task events use nats")
	}
	if feed == nil {
		log.Warn().Msg("no event bus configured; task events and live feed disabled")
	}

	authSvc := auth.NewService(store.Users(), revoker, cfg.JWT.Secret, cfg.JWT.AccessTTL, cfg.JWT.RefreshTTL)
	taskSvc := tasks.NewService(store, events)
	commentSvc := comments.NewService(store, events)

	// Graceful shutdown on SIGINT / SIGTERM.
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	deps := server.Deps{
		Auth:     authSvc,
		Tasks:    taskSvc,
		Comments: commentSvc,
		Events:   feed,
		Checks:   checks,
	}

	srv := server.New(ctx, cfg, deps)

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Str("store", cfg.Store).Msg("starting server")
		errCh <- srv.Start(ctx)
	}()

	// Block until shutdown signal or listener failure.
	select {
	case <-ctx.Done():
	case startErr := <-errCh:
		if startErr != nil {
			return startErr
		}
	}
	log.Info().Msg("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if shutdownErr := srv.Shutdown(shutdownCtx); shutdownErr != nil {
		return shutdownErr
	}

	log.Info().Msg("stopped")
	return nil
}

func setupLogging(cfg config.LogConfig) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Format == "text" {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	} else {
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	}
}

// openStore returns the configured backend and a func releasing it.
func openStore(ctx context.Context, cfg *config.Config, checks map[string]server.Pinger) (domain.Store, func(), error) {
	switch cfg.Store {
	case config.StoreMemory:
		log.Warn().Msg("using in-memory store")
		return memory.New(), func() {}, nil

	case config.StorePostgres:
		if cfg.Database.MaxConns < 0 || cfg.Database.MaxConns > math.MaxInt32 {
			return nil, nil, fmt.Errorf("database max_conns %d out of int32 range", cfg.Database.MaxConns)
		}

		store, err := postgres.New(ctx, cfg.Database.DSN(), int32(cfg.Database.MaxConns)) //nolint:gosec // bounds checked above
		if err != nil {
			return nil, nil, err
		}

		if cfg.Database.AutoMigrate {
			if err := store.EnsureSchema(ctx); err != nil {
				store.Close()
				return nil, nil, err
			}
		}

		checks["postgres"] = store
		return store, store.Close, nil
	}

	return nil, nil, errors.New("unknown store " + cfg.Store)
}
