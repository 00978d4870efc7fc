package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/grocerypos/accounts/internal/api"
	"github.com/grocerypos/accounts/internal/api/handler"
	"github.com/grocerypos/accounts/internal/api/metrics"
	"github.com/grocerypos/accounts/internal/core/ports"
	"github.com/grocerypos/accounts/internal/core/service"
	"github.com/grocerypos/accounts/internal/infrastructure/config"
	mongodb "github.com/grocerypos/accounts/internal/infrastructure/db/mongo"
	redisdb "github.com/grocerypos/accounts/internal/infrastructure/db/redis"
	"github.com/grocerypos/accounts/internal/infrastructure/db/sqlite"
	"github.com/grocerypos/accounts/internal/infrastructure/lock"
	"github.com/grocerypos/accounts/internal/infrastructure/queue"
	"github.com/grocerypos/accounts/pkg/logger"
	"github.com/grocerypos/accounts/pkg/password"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.IsDevelopment(),
		File:   cfg.LogFile,
	})
	defer func() { _ = logger.Close() }()

	if err := run(ctx, cfg, log); err != nil {
		stop()
		fatal(log, err)
	}
}

var exit = os.Exit

// fatal records a terminal failure at fatal level, flushes the log file and
// exits with status 1.
func fatal(log zerolog.Logger, err error) {
	log.WithLevel(zerolog.FatalLevel).Err(err).Msg("server stopped with error")
	_ = logger.Close()
	exit(1)
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	db, err := sqlite.Connect(ctx, sqlite.Config{
		Path:        cfg.SQLite.Path,
		BusyTimeout: cfg.SQLite.BusyTimeout,
	}, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error().Err(err).Msg("closing sqlite")
		}
	}()

	health := map[string]handler.PingFunc{"sqlite": db.Ping}

	// Bootstrap lock: Redis when configured, otherwise in-process.
	var bootLock ports.BootstrapLock = lock.NewLocal()
	if cfg.Redis.Addr != "" {
		rdb, err := redisdb.Connect(ctx, redisdb.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return err
		}
		defer func() { _ = rdb.Close() }()
		bootLock = redisdb.NewBootstrapLock(rdb, log)
		health["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
		log.Info().Str("addr", cfg.Redis.Addr).Msg("redis bootstrap lock enabled")
	}

	// Activity trail: MongoDB when configured, otherwise discarded.
	var activity ports.ActivityRecorder = ports.NopActivityRecorder{}
	if cfg.Mongo.URI != "" {
		mclient, mdb, err := mongodb.Connect(ctx, mongodb.Config{
			URI:      cfg.Mongo.URI,
			Database: cfg.Mongo.Database,
		})
		if err != nil {
			return err
		}
		defer func() {
			if err := mclient.Disconnect(context.WithoutCancel(ctx)); err != nil {
				log.Error().Err(err).Msg("disconnecting mongo")
			}
		}()

		repo := mongodb.NewActivityRepository(mdb)
		if err := repo.EnsureIndexes(ctx); err != nil {
			return err
		}

		dispatcher := queue.NewDispatcher(cfg.ActivityWorkers, repo, log)
		dispatcher.Start(context.WithoutCancel(ctx))
		defer dispatcher.Close()

		activity = dispatcher
		health["mongo"] = func(ctx context.Context) error { return mclient.Ping(ctx, readpref.Primary()) }
		log.Info().Str("database", cfg.Mongo.Database).Int("workers", cfg.ActivityWorkers).Msg("activity trail enabled")
	}

	users := ports.UserStoreFactory(db.NewUserStore)
	auth := service.NewAuthService(users, password.NewCodec(cfg.BcryptCost), activity, log,
		service.WithMetrics(metrics.AuthCollector{}))
	bootstrap := service.NewBootstrapService(auth, bootLock, activity, log)

	state, err := bootstrap.Decide(ctx)
	if err != nil {
		return err
	}
	log.Info().Str("state", string(state)).Msg("startup decision")

	e := api.NewRouter(api.Dependencies{
		Auth:      auth,
		Bootstrap: bootstrap,
		Users:     users,
		Health:    health,
		Log:       log,
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("starting server")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	log.Info().Msg("server exited cleanly")
	return nil
}
