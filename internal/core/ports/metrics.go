package ports

import "github.com/grocerypos/accounts/internal/core/domain"

// AuthMetrics counts authentication outcomes. Results are short lowercase
// labels such as "success", "denied", "created", "rejected" or "error".
type AuthMetrics interface {
	LoginAttempt(result string)
	Registration(role domain.Role, result string)
	AdminCheck(result string)
}

// NopAuthMetrics discards every observation.
type NopAuthMetrics struct{}

func (NopAuthMetrics) LoginAttempt(string)              {}
func (NopAuthMetrics) Registration(domain.Role, string) {}
func (NopAuthMetrics) AdminCheck(string)                {}
