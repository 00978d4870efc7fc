package service

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/grocerypos/accounts/internal/core/domain"
	"github.com/grocerypos/accounts/internal/core/ports"
)

// BootstrapService routes a fresh installation to administrator setup and
// an initialised one to the login flow.
type BootstrapService struct {
	auth     ports.AuthService
	lock     ports.BootstrapLock
	activity ports.ActivityRecorder
	log      zerolog.Logger
}

func NewBootstrapService(auth ports.AuthService, lock ports.BootstrapLock, activity ports.ActivityRecorder, log zerolog.Logger) *BootstrapService {
	if activity == nil {
		activity = ports.NopActivityRecorder{}
	}
	return &BootstrapService{auth: auth, lock: lock, activity: activity, log: log}
}

// Decide returns NeedsBootstrap until an active administrator exists.
func (s *BootstrapService) Decide(ctx context.Context) (domain.BootstrapState, error) {
	provisioned, err := s.auth.IsAdminProvisioned(ctx)
	if err != nil {
		return "", err
	}
	if provisioned {
		return domain.ReadyForLogin, nil
	}
	return domain.NeedsBootstrap, nil
}

// ProvisionAdmin creates the first administrator. The existence check and
// the registration run under the bootstrap lock so two setup forms cannot
// both succeed.
func (s *BootstrapService) ProvisionAdmin(ctx context.Context, in ports.AdminSetupInput) error {
	if isBlank(in.Username) || isBlank(in.Password) || isBlank(in.ConfirmPassword) || isBlank(in.FirstName) {
		return fmt.Errorf("%w: username, password, confirmation and first name are required", domain.ErrInvalidArgument)
	}
	if utf8.RuneCountInString(in.Password) < domain.MinAdminPasswordLength {
		return fmt.Errorf("%w: minimum is %d characters", domain.ErrPasswordTooShort, domain.MinAdminPasswordLength)
	}
	if in.Password != in.ConfirmPassword {
		return domain.ErrPasswordMismatch
	}

	release, err := s.lock.Acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	provisioned, err := s.auth.IsAdminProvisioned(ctx)
	if err != nil {
		return err
	}
	if provisioned {
		s.log.Warn().Str("username", in.Username).Msg("administrator setup attempted after provisioning")
		return domain.ErrAdminAlreadyProvisioned
	}

	ok, err := s.auth.Register(ctx, in.Username, in.Password, in.FirstName, in.LastName, domain.RoleAdmin)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrRegistrationRejected
	}

	s.log.Info().Str("username", in.Username).Msg("administrator provisioned")
	s.activity.Record(ctx, domain.ActivityEvent{
		Type:     domain.ActivityAdminProvisioned,
		Username: in.Username,
		Role:     domain.RoleAdmin,
		At:       time.Now().UTC(),
	})
	return nil
}
