package metrics

import "github.com/grocerypos/accounts/internal/core/domain"

// AuthCollector feeds the authentication counters. It satisfies
// ports.AuthMetrics.
type AuthCollector struct{}

func (AuthCollector) LoginAttempt(result string) {
	LoginAttemptsTotal.WithLabelValues(result).Inc()
}

func (AuthCollector) Registration(role domain.Role, result string) {
	RegistrationsTotal.WithLabelValues(string(role), result).Inc()
}

func (AuthCollector) AdminCheck(result string) {
	AdminChecksTotal.WithLabelValues(result).Inc()
}
