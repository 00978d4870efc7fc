package sqlite

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

// The unique index spans inactive rows: a soft-deleted
// username stays reserved.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id             INTEGER PRIMARY KEY AUTOINCREMENT,
		created_at     TIMESTAMP NOT NULL,
		modified_at    TIMESTAMP,
		is_active      BOOLEAN NOT NULL DEFAULT 1,
		username       VARCHAR(50) NOT NULL,
		password_hash  VARCHAR(255) NOT NULL,
		first_name     VARCHAR(100) NOT NULL,
		last_name      VARCHAR(100) NOT NULL DEFAULT '',
		role           VARCHAR(20) NOT NULL,
		contact_number VARCHAR(20) NOT NULL DEFAULT '',
		email          VARCHAR(100) NOT NULL DEFAULT ''
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ux_users_username ON users (username)`,
	`CREATE INDEX IF NOT EXISTS ix_users_active_role ON users (is_active, role)`,
}

// Migrate creates missing tables and indexes. It is safe to run repeatedly.
func Migrate(ctx context.Context, db bun.IDB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("sqlite: migrate: %w", err)
		}
	}
	return nil
}
