package ports

import (
	"context"

	"github.com/grocerypos/accounts/internal/core/domain"
)

// AuthService authenticates credentials, registers accounts and reports
// whether the first administrator exists. Absent users and rejected
// registrations are ordinary results, not errors.
type AuthService interface {
	Authenticate(ctx context.Context, username, password string) (*domain.User, error)
	Register(ctx context.Context, username, password, firstName, lastName string, role domain.Role) (bool, error)
	IsAdminProvisioned(ctx context.Context) (bool, error)
}

// AdminSetupInput carries the first-run administrator form.
type AdminSetupInput struct {
	Username        string
	Password        string
	ConfirmPassword string
	FirstName       string
	LastName        string
}

// BootstrapService decides between first-run setup and normal login.
type BootstrapService interface {
	Decide(ctx context.Context) (domain.BootstrapState, error)
	ProvisionAdmin(ctx context.Context, in AdminSetupInput) error
}

// PasswordCodec hashes credentials one way. Verify never fails; a malformed
// hash simply does not match.
type PasswordCodec interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, hash string) bool
}

// BootstrapLock serialises administrator provisioning across requests and
// processes. The returned release func must be called exactly once.
type BootstrapLock interface {
	Acquire(ctx context.Context) (release func(), err error)
}
