package domain

import (
	"strings"
	"time"
)

// Role is the two-valued access level of a user.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleEmployee Role = "employee"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleEmployee
}

// ParseRole converts user input into a Role. Matching is case-insensitive.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	return r, r.Valid()
}

// AuditEnvelope holds the fields every persisted entity carries. They are
// maintained by the store at commit time, never by callers.
type AuditEnvelope struct {
	ID         int64      `bun:"id,pk,autoincrement" json:"id"`
	CreatedAt  time.Time  `bun:"created_at,notnull" json:"created_at"`
	ModifiedAt *time.Time `bun:"modified_at" json:"modified_at,omitempty"`
	IsActive   bool       `bun:"is_active,notnull" json:"is_active"`
}

// Audited is implemented by every entity a record store can persist.
// Audit returns nil when the entity itself is nil.
type Audited interface {
	Audit() *AuditEnvelope
}

// User models an account allowed to operate the point of sale.
type User struct {
	AuditEnvelope

	Username      string `bun:"username,notnull" json:"username" validate:"required,max=50"`
	PasswordHash  string `bun:"password_hash,notnull" json:"-" validate:"required,max=255"`
	FirstName     string `bun:"first_name,notnull" json:"first_name" validate:"required,max=100"`
	LastName      string `bun:"last_name,notnull" json:"last_name,omitempty" validate:"max=100"`
	Role          Role   `bun:"role,notnull" json:"role" validate:"required,oneof=admin employee"`
	ContactNumber string `bun:"contact_number,notnull" json:"contact_number,omitempty" validate:"max=20"`
	Email         string `bun:"email,notnull" json:"email,omitempty" validate:"max=100"`
}

// NewUser builds an active, not yet persisted user.
func NewUser(username, passwordHash, firstName, lastName string, role Role) *User {
	return &User{
		AuditEnvelope: AuditEnvelope{IsActive: true},
		Username:      username,
		PasswordHash:  passwordHash,
		FirstName:     firstName,
		LastName:      lastName,
		Role:          role,
	}
}

func (u *User) Audit() *AuditEnvelope {
	if u == nil {
		return nil
	}
	return &u.AuditEnvelope
}

// IsAdmin gates admin-only operations.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}
