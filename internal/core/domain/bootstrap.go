package domain

// BootstrapState tells the host which flow to present on start.
type BootstrapState string

const (
	// NeedsBootstrap means no active administrator exists yet.
	NeedsBootstrap BootstrapState = "needs_bootstrap"
	// ReadyForLogin means at least one active administrator exists.
	ReadyForLogin BootstrapState = "ready_for_login"
)

// MinAdminPasswordLength is enforced by the first-run setup flow.
const MinAdminPasswordLength = 6
