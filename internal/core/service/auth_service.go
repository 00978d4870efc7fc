package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/grocerypos/accounts/internal/core/domain"
	"github.com/grocerypos/accounts/internal/core/ports"
	"github.com/grocerypos/accounts/pkg/password"
)

const (
	opAuthenticate       = "authenticate"
	opRegister           = "register"
	opIsAdminProvisioned = "is_admin_provisioned"
)

// AuthService implements credential checks, registration and the
// administrator existence check. Every call opens its own unit of work.
type AuthService struct {
	users    ports.UserStoreFactory
	codec    ports.PasswordCodec
	activity ports.ActivityRecorder
	metrics  ports.AuthMetrics
	log      zerolog.Logger
	now      func() time.Time
}

// AuthOption customises an AuthService.
type AuthOption func(*AuthService)

// WithMetrics sets where authentication outcomes are counted. The default
// discards them.
func WithMetrics(m ports.AuthMetrics) AuthOption {
	return func(s *AuthService) {
		if m != nil {
			s.metrics = m
		}
	}
}

func NewAuthService(users ports.UserStoreFactory, codec ports.PasswordCodec, activity ports.ActivityRecorder, log zerolog.Logger, opts ...AuthOption) *AuthService {
	if activity == nil {
		activity = ports.NopActivityRecorder{}
	}
	s := &AuthService{
		users:    users,
		codec:    codec,
		activity: activity,
		metrics:  ports.NopAuthMetrics{},
		log:      log,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Authenticate returns the active user matching the credentials, or nil
// when they do not match. Only store failures are errors.
func (s *AuthService) Authenticate(ctx context.Context, username, plaintext string) (*domain.User, error) {
	if isBlank(username) || isBlank(plaintext) {
		s.deny(ctx, username, "blank credentials")
		return nil, nil
	}

	user, err := s.users().GetByUsername(ctx, username)
	if err != nil {
		s.metrics.LoginAttempt("error")
		return nil, s.fail(opAuthenticate, username, err)
	}
	if user == nil {
		s.deny(ctx, username, "unknown user")
		return nil, nil
	}
	if !s.codec.Verify(plaintext, user.PasswordHash) {
		s.deny(ctx, username, "password mismatch")
		return nil, nil
	}

	s.metrics.LoginAttempt("success")
	s.log.Info().Str("username", username).Int64("user_id", user.ID).Str("role", string(user.Role)).Msg("login succeeded")
	s.record(ctx, domain.ActivityLoginSucceeded, user.Username, user.ID, user.Role)
	return user, nil
}

// Register creates an active user with a hashed password. It returns false
// when the request cannot be honoured: a blank required field, a taken
// username or a value the store rejects.
func (s *AuthService) Register(ctx context.Context, username, plaintext, firstName, lastName string, role domain.Role) (bool, error) {
	if isBlank(username) || isBlank(plaintext) || isBlank(firstName) {
		return s.reject(ctx, username, role, "missing required field"), nil
	}
	if !role.Valid() {
		return s.reject(ctx, username, role, "unknown role"), nil
	}

	store := s.users()
	existing, err := store.GetByUsername(ctx, username)
	if err != nil {
		s.metrics.Registration(role, "error")
		return false, s.fail(opRegister, username, err)
	}
	if existing != nil {
		return s.reject(ctx, username, role, "username already taken"), nil
	}

	hash, err := s.codec.Hash(plaintext)
	if errors.Is(err, password.ErrInvalidInput) {
		return s.reject(ctx, username, role, "password not accepted"), nil
	}
	if err != nil {
		s.metrics.Registration(role, "error")
		return false, s.fail(opRegister, username, err)
	}

	user := domain.NewUser(username, hash, firstName, lastName, role)
	if err := store.Add(ctx, user); err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) {
			return s.reject(ctx, username, role, err.Error()), nil
		}
		s.metrics.Registration(role, "error")
		return false, s.fail(opRegister, username, err)
	}
	if err := store.SaveChanges(ctx); err != nil {
		switch {
		case errors.Is(err, domain.ErrDuplicate):
			return s.reject(ctx, username, role, "username taken concurrently"), nil
		case errors.Is(err, domain.ErrInvalidArgument):
			return s.reject(ctx, username, role, err.Error()), nil
		}
		s.metrics.Registration(role, "error")
		return false, s.fail(opRegister, username, err)
	}

	s.metrics.Registration(role, "created")
	s.log.Info().Str("username", username).Int64("user_id", user.ID).Str("role", string(role)).Msg("user registered")
	s.record(ctx, domain.ActivityUserRegistered, username, user.ID, role)
	return true, nil
}

// IsAdminProvisioned reports whether at least one active administrator
// exists.
func (s *AuthService) IsAdminProvisioned(ctx context.Context) (bool, error) {
	users, err := s.users().GetAll(ctx)
	if err != nil {
		s.metrics.AdminCheck("error")
		return false, s.fail(opIsAdminProvisioned, "", err)
	}
	for _, u := range users {
		if u.IsAdmin() {
			s.metrics.AdminCheck("provisioned")
			return true, nil
		}
	}
	s.metrics.AdminCheck("missing")
	return false, nil
}

func (s *AuthService) deny(ctx context.Context, username, reason string) {
	s.metrics.LoginAttempt("denied")
	s.log.Warn().Str("username", username).Str("reason", reason).Msg("login denied")
	s.record(ctx, domain.ActivityLoginFailed, username, 0, "")
}

func (s *AuthService) reject(ctx context.Context, username string, role domain.Role, reason string) bool {
	s.metrics.Registration(role, "rejected")
	s.log.Warn().Str("username", username).Str("role", string(role)).Str("reason", reason).Msg("registration rejected")
	s.record(ctx, domain.ActivityRegistrationRejected, username, 0, role)
	return false
}

func (s *AuthService) fail(op, username string, err error) error {
	s.log.Error().Err(err).Str("op", op).Str("username", username).Msg("auth service failure")
	return &domain.AuthServiceError{Op: op, Err: err}
}

func (s *AuthService) record(ctx context.Context, typ domain.ActivityType, username string, userID int64, role domain.Role) {
	s.activity.Record(ctx, domain.ActivityEvent{
		Type:     typ,
		Username: username,
		UserID:   userID,
		Role:     role,
		At:       s.now().UTC(),
	})
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
