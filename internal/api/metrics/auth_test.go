package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/grocerypos/accounts/internal/core/domain"
	"github.com/grocerypos/accounts/internal/core/ports"
)

var _ ports.AuthMetrics = AuthCollector{}

func TestAuthCollector_IncrementsCounters(t *testing.T) {
	login := LoginAttemptsTotal.WithLabelValues("denied")
	reg := RegistrationsTotal.WithLabelValues("employee", "created")
	check := AdminChecksTotal.WithLabelValues("missing")
	beforeLogin, beforeReg, beforeCheck := testutil.ToFloat64(login), testutil.ToFloat64(reg), testutil.ToFloat64(check)

	c := AuthCollector{}
	c.LoginAttempt("denied")
	c.Registration(domain.RoleEmployee, "created")
	c.AdminCheck("missing")

	if got := testutil.ToFloat64(login) - beforeLogin; got != 1 {
		t.Fatalf("login counter moved by %v", got)
	}
	if got := testutil.ToFloat64(reg) - beforeReg; got != 1 {
		t.Fatalf("registration counter moved by %v", got)
	}
	if got := testutil.ToFloat64(check) - beforeCheck; got != 1 {
		t.Fatalf("admin check counter moved by %v", got)
	}
}
