package auth

import (
	"errors"
	"strings"
	"time"
)

// Role separates the two profiles this app has: the admin operates the
// engine (master switch, allowed users, test dispatches), users manage
// their own portfolio and settings.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// Status marks whether an account may sign in.
type Status string

const (
	StatusActive   Status = "active"
	StatusDisabled Status = "disabled"
)

// User is a registered account.
type User struct {
	ID        string
	Email     string
	Name      string
	Role      Role
	Status    Status
	Password  string // bcrypt hash
	CreatedAt time.Time
}

// Validate checks the minimum fields a stored user must carry.
func (u User) Validate() error {
	if u.ID == "" {
		return errors.New("id is required")
	}
	if u.Email == "" {
		return errors.New("email is required")
	}
	if u.Role != RoleAdmin && u.Role != RoleUser {
		return errors.New("unsupported role")
	}
	return nil
}

// IsActive reports whether the account may sign in.
func (u User) IsActive() bool {
	return u.Status == StatusActive
}

// IsAdmin reports whether the account may use the admin surface.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// AllowedUser is an e-mail on the registration allowlist. Accounts can only
// be created for allowed addresses.
type AllowedUser struct {
	Email     string
	CreatedAt time.Time
}

// NormalizeEmail lowercases and trims an address for allowlist comparison.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
