package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/grocerypos/accounts/internal/core/domain"
	"github.com/grocerypos/accounts/internal/core/ports"
)

type stubAuth struct {
	provisionedFn func(ctx context.Context) (bool, error)
	registerFn    func(ctx context.Context, username, password, firstName, lastName string, role domain.Role) (bool, error)
}

func (s *stubAuth) Authenticate(context.Context, string, string) (*domain.User, error) {
	return nil, nil
}

func (s *stubAuth) Register(ctx context.Context, username, password, firstName, lastName string, role domain.Role) (bool, error) {
	if s.registerFn == nil {
		return true, nil
	}
	return s.registerFn(ctx, username, password, firstName, lastName, role)
}

func (s *stubAuth) IsAdminProvisioned(ctx context.Context) (bool, error) {
	if s.provisionedFn == nil {
		return false, nil
	}
	return s.provisionedFn(ctx)
}

type stubLock struct {
	err      error
	acquired int
	released int
}

func (l *stubLock) Acquire(context.Context) (func(), error) {
	if l.err != nil {
		return nil, l.err
	}
	l.acquired++
	return func() { l.released++ }, nil
}

func validSetup() ports.AdminSetupInput {
	return ports.AdminSetupInput{
		Username:        "admin",
		Password:        "secret1",
		ConfirmPassword: "secret1",
		FirstName:       "Store",
		LastName:        "Owner",
	}
}

func TestBootstrapService_Decide(t *testing.T) {
	cases := []struct {
		name        string
		provisioned bool
		want        domain.BootstrapState
	}{
		{"fresh install", false, domain.NeedsBootstrap},
		{"admin exists", true, domain.ReadyForLogin},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			auth := &stubAuth{provisionedFn: func(context.Context) (bool, error) { return tc.provisioned, nil }}
			svc := NewBootstrapService(auth, &stubLock{}, nil, zerolog.Nop())

			got, err := svc.Decide(context.Background())
			if err != nil {
				t.Fatalf("Decide returned error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, got)
			}
		})
	}
}

func TestBootstrapService_DecidePropagatesFailure(t *testing.T) {
	boom := &domain.AuthServiceError{Op: "is_admin_provisioned", Err: errors.New("boom")}
	auth := &stubAuth{provisionedFn: func(context.Context) (bool, error) { return false, boom }}
	svc := NewBootstrapService(auth, &stubLock{}, nil, zerolog.Nop())

	if _, err := svc.Decide(context.Background()); !errors.Is(err, domain.ErrAuthService) {
		t.Fatalf("expected ErrAuthService, got %v", err)
	}
}

func TestBootstrapService_ProvisionAdmin_Success(t *testing.T) {
	var gotRole domain.Role
	var gotUser string
	auth := &stubAuth{
		registerFn: func(_ context.Context, username, _, _, _ string, role domain.Role) (bool, error) {
			gotUser, gotRole = username, role
			return true, nil
		},
	}
	lock := &stubLock{}
	rec := &recordedActivity{}
	svc := NewBootstrapService(auth, lock, rec, zerolog.Nop())

	if err := svc.ProvisionAdmin(context.Background(), validSetup()); err != nil {
		t.Fatalf("ProvisionAdmin returned error: %v", err)
	}
	if gotUser != "admin" || gotRole != domain.RoleAdmin {
		t.Fatalf("expected admin registration, got %q/%q", gotUser, gotRole)
	}
	if lock.acquired != 1 || lock.released != 1 {
		t.Fatalf("expected lock to be acquired and released once, got %d/%d", lock.acquired, lock.released)
	}
	if got := rec.types(); len(got) != 1 || got[0] != domain.ActivityAdminProvisioned {
		t.Fatalf("unexpected activity: %v", got)
	}
}

func TestBootstrapService_ProvisionAdmin_FormValidation(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*ports.AdminSetupInput)
		want   error
	}{
		{"missing username", func(in *ports.AdminSetupInput) { in.Username = " " }, domain.ErrInvalidArgument},
		{"missing first name", func(in *ports.AdminSetupInput) { in.FirstName = "" }, domain.ErrInvalidArgument},
		{"missing confirmation", func(in *ports.AdminSetupInput) { in.ConfirmPassword = "" }, domain.ErrInvalidArgument},
		{"short password", func(in *ports.AdminSetupInput) { in.Password, in.ConfirmPassword = "12345", "12345" }, domain.ErrPasswordTooShort},
		{"mismatch", func(in *ports.AdminSetupInput) { in.ConfirmPassword = "secret2" }, domain.ErrPasswordMismatch},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			lock := &stubLock{}
			auth := &stubAuth{
				registerFn: func(context.Context, string, string, string, string, domain.Role) (bool, error) {
					t.Fatalf("Register must not be called for invalid input")
					return false, nil
				},
			}
			svc := NewBootstrapService(auth, lock, nil, zerolog.Nop())

			in := validSetup()
			tc.mutate(&in)
			if err := svc.ProvisionAdmin(context.Background(), in); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			if lock.acquired != 0 {
				t.Fatalf("lock must not be taken for invalid input")
			}
		})
	}
}

func TestBootstrapService_ProvisionAdmin_AlreadyProvisioned(t *testing.T) {
	auth := &stubAuth{
		provisionedFn: func(context.Context) (bool, error) { return true, nil },
		registerFn: func(context.Context, string, string, string, string, domain.Role) (bool, error) {
			t.Fatalf("Register must not be called once an admin exists")
			return false, nil
		},
	}
	lock := &stubLock{}
	svc := NewBootstrapService(auth, lock, nil, zerolog.Nop())

	if err := svc.ProvisionAdmin(context.Background(), validSetup()); !errors.Is(err, domain.ErrAdminAlreadyProvisioned) {
		t.Fatalf("expected ErrAdminAlreadyProvisioned, got %v", err)
	}
	if lock.released != 1 {
		t.Fatalf("expected lock to be released")
	}
}

func TestBootstrapService_ProvisionAdmin_Rejected(t *testing.T) {
	auth := &stubAuth{
		registerFn: func(context.Context, string, string, string, string, domain.Role) (bool, error) { return false, nil },
	}
	svc := NewBootstrapService(auth, &stubLock{}, nil, zerolog.Nop())

	if err := svc.ProvisionAdmin(context.Background(), validSetup()); !errors.Is(err, domain.ErrRegistrationRejected) {
		t.Fatalf("expected ErrRegistrationRejected, got %v", err)
	}
}

func TestBootstrapService_ProvisionAdmin_LockBusy(t *testing.T) {
	svc := NewBootstrapService(&stubAuth{}, &stubLock{err: domain.ErrBootstrapInProgress}, nil, zerolog.Nop())

	if err := svc.ProvisionAdmin(context.Background(), validSetup()); !errors.Is(err, domain.ErrBootstrapInProgress) {
		t.Fatalf("expected ErrBootstrapInProgress, got %v", err)
	}
}
