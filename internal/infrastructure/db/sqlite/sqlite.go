// Package sqlite persists accounts in an embedded SQLite database through
// bun. Store is a unit of work: reads track entities, mutations are queued
// and SaveChanges commits them in a single transaction.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"github.com/grocerypos/accounts/internal/core/ports"
)

const memoryPath = ":memory:"

// Config holds the database location and connection tuning.
type Config struct {
	Path        string
	BusyTimeout time.Duration
}

// Client owns the database handle shared by every unit of work.
type Client struct {
	db   *bun.DB
	log  zerolog.Logger
	opts []StoreOption
}

// Connect opens (creating when missing) the database at cfg.Path and brings
// the schema up to date. opts are applied to every store the client opens.
func Connect(ctx context.Context, cfg Config, log zerolog.Logger, opts ...StoreOption) (*Client, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("sqlite: empty database path")
	}
	if cfg.Path != memoryPath {
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
			return nil, fmt.Errorf("sqlite: create data directory: %w", err)
		}
	}

	sqldb, err := sql.Open(sqliteshim.ShimName, cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %s: %w", cfg.Path, err)
	}
	// SQLite allows one writer; a single connection also keeps :memory:
	// databases alive across calls.
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
		fmt.Sprintf("PRAGMA busy_timeout=%d", cfg.BusyTimeout.Milliseconds()),
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			db.Close()
			return nil, fmt.Errorf("sqlite: %s: %w", p, err)
		}
	}

	if err := Migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	log.Info().Str("path", cfg.Path).Msg("sqlite database ready")
	return &Client{db: db, log: log, opts: opts}, nil
}

// NewUserStore opens a fresh unit of work over users. It satisfies
// ports.UserStoreFactory.
func (c *Client) NewUserStore() ports.UserStore {
	return NewUserStore(c.db, c.log, c.opts...)
}

// DB exposes the underlying handle for migrations and tests.
func (c *Client) DB() *bun.DB {
	return c.db
}

// Ping verifies the database is reachable.
func (c *Client) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

func (c *Client) Close() error {
	return c.db.Close()
}
