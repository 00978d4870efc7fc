package service

import (
	"context"
	"go/parser"
	"go/token"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/grocerypos/accounts/internal/core/domain"
	"github.com/grocerypos/accounts/pkg/password"
)

type countingMetrics struct {
	logins        map[string]int
	registrations map[string]int
	adminChecks   map[string]int
}

func newCountingMetrics() *countingMetrics {
	return &countingMetrics{
		logins:        map[string]int{},
		registrations: map[string]int{},
		adminChecks:   map[string]int{},
	}
}

func (m *countingMetrics) LoginAttempt(result string) { m.logins[result]++ }

func (m *countingMetrics) Registration(role domain.Role, result string) {
	m.registrations[string(role)+"/"+result]++
}

func (m *countingMetrics) AdminCheck(result string) { m.adminChecks[result]++ }

func TestAuthService_ReportsOutcomesToMetrics(t *testing.T) {
	db := &stubUserDB{}
	m := newCountingMetrics()
	svc := NewAuthService(db.factory(), password.NewCodec(bcrypt.MinCost), nil, zerolog.Nop(), WithMetrics(m))
	ctx := context.Background()

	if ok, _ := svc.IsAdminProvisioned(ctx); ok {
		t.Fatalf("expected empty store")
	}
	if ok, _ := svc.Register(ctx, "root", "secret1", "Root", "", domain.RoleAdmin); !ok {
		t.Fatalf("expected registration to succeed")
	}
	if ok, _ := svc.Register(ctx, "root", "secret1", "Root", "", domain.RoleAdmin); ok {
		t.Fatalf("expected duplicate to be rejected")
	}
	if u, _ := svc.Authenticate(ctx, "root", "secret1"); u == nil {
		t.Fatalf("expected login to succeed")
	}
	if u, _ := svc.Authenticate(ctx, "root", "wrong"); u != nil {
		t.Fatalf("expected login to be denied")
	}
	if ok, _ := svc.IsAdminProvisioned(ctx); !ok {
		t.Fatalf("expected administrator to be detected")
	}

	if m.logins["success"] != 1 || m.logins["denied"] != 1 {
		t.Fatalf("unexpected login counts: %v", m.logins)
	}
	if m.registrations["admin/created"] != 1 || m.registrations["admin/rejected"] != 1 {
		t.Fatalf("unexpected registration counts: %v", m.registrations)
	}
	if m.adminChecks["missing"] != 1 || m.adminChecks["provisioned"] != 1 {
		t.Fatalf("unexpected admin check counts: %v", m.adminChecks)
	}
}

func TestAuthService_DefaultMetricsAreOptional(t *testing.T) {
	svc := NewAuthService((&stubUserDB{}).factory(), password.NewCodec(bcrypt.MinCost), nil, zerolog.Nop(), WithMetrics(nil))
	if u, err := svc.Authenticate(context.Background(), "ghost", "x"); u != nil || err != nil {
		t.Fatalf("expected (nil, nil), got (%v, %v)", u, err)
	}
}

// The core layer must not reach into the HTTP adapter.
func TestServicePackage_DoesNotImportAPI(t *testing.T) {
	files, err := filepath.Glob("*.go")
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	fset := token.NewFileSet()
	for _, name := range files {
		if strings.HasSuffix(name, "_test.go") {
			continue
		}
		f, err := parser.ParseFile(fset, name, nil, parser.ImportsOnly)
		if err != nil {
			t.Fatalf("parse %s: %v", name, err)
		}
		for _, imp := range f.Imports {
			path, _ := strconv.Unquote(imp.Path.Value)
			if strings.Contains(path, "/internal/api") {
				t.Errorf("%s imports %s", name, path)
			}
		}
	}
}
