package sqlite

import (
	"errors"
	"fmt"
	"strings"

	"github.com/grocerypos/accounts/internal/core/domain"
)

// translate maps backend errors onto the domain taxonomy. Errors already
// classified by the store pass through unchanged.
func translate(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrConcurrencyConflict),
		errors.Is(err, domain.ErrInvalidArgument),
		errors.Is(err, domain.ErrPersistence):
		return err
	case isUniqueViolation(err):
		return fmt.Errorf("%w: %s: %w: %w", domain.ErrPersistence, op, domain.ErrDuplicate, err)
	default:
		return fmt.Errorf("%w: %s: %w", domain.ErrPersistence, op, err)
	}
}

// isUniqueViolation recognises the constraint message shared by both
// drivers sqliteshim can select.
func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func conflict(table string, id int64, reason string) error {
	return fmt.Errorf("%w: %s id=%d %s", domain.ErrConcurrencyConflict, table, id, reason)
}
