package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/rs/zerolog"
	"github.com/uptrace/bun"

	"github.com/grocerypos/accounts/internal/core/domain"
)

// UserStore is the unit of work over users.
type UserStore struct {
	*Store[*domain.User]
}

func NewUserStore(db *bun.DB, log zerolog.Logger, opts ...StoreOption) *UserStore {
	newUser := func() *domain.User { return new(domain.User) }
	return &UserStore{Store: NewStore(db, "users", newUser, log, opts...)}
}

// GetByUsername matches username exactly (case-sensitive) against active
// users. The result is not tracked.
func (s *UserStore) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	if strings.TrimSpace(username) == "" {
		return nil, nil
	}

	u := new(domain.User)
	err := s.db.NewSelect().
		Model(u).
		Where("username = ?", username).
		Where("is_active = ?", true).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, translate("get by username", err)
	}
	return u, nil
}
