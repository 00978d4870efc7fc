package domain

import "time"

// ActivityType names an auditable account event.
type ActivityType string

const (
	ActivityLoginSucceeded       ActivityType = "login_succeeded"
	ActivityLoginFailed          ActivityType = "login_failed"
	ActivityUserRegistered       ActivityType = "user_registered"
	ActivityRegistrationRejected ActivityType = "registration_rejected"
	ActivityAdminProvisioned     ActivityType = "admin_provisioned"
)

// ActivityEvent is one entry of the account audit trail. It never carries
// credentials.
type ActivityEvent struct {
	Type     ActivityType
	Username string
	UserID   int64 // zero when the account is unknown
	Role     Role  // optional
	At       time.Time
}
