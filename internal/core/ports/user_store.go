package ports

import (
	"context"

	"github.com/grocerypos/accounts/internal/core/domain"
)

// RecordStore is a unit of work over one audited entity type. Reads return
// the zero T (nil) for absent rows. Add, Update and Delete only queue
// mutations; SaveChanges commits all of them atomically.
//
// A RecordStore is not safe for concurrent use; open one per logical
// operation.
type RecordStore[T domain.Audited] interface {
	GetByID(ctx context.Context, id int64) (T, error)
	GetAll(ctx context.Context) ([]T, error)
	Add(ctx context.Context, entity T) error
	Update(ctx context.Context, entity T) error
	Delete(ctx context.Context, id int64) error
	SaveChanges(ctx context.Context) error
}

// UserStore adds username lookup to the generic store.
type UserStore interface {
	RecordStore[*domain.User]

	// GetByUsername returns the active user with exactly this username, or nil.
	// The result is not tracked by the unit of work.
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
}

// UserStoreFactory opens a fresh unit of work.
type UserStoreFactory func() UserStore
