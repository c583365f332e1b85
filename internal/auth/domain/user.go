package domain

import (
	"strings"
	"time"
)

// User is an account. Users are never hard-deleted; deactivation clears
// IsActive and stamps DeactivatedAt.
type User struct {
	ID            string
	Email         string // trimmed, lowercased, unique
	Name          string
	PasswordHash  string // bcrypt encoded
	IsActive      bool
	CreatedAt     time.Time
	UpdatedAt     *time.Time
	LastLogin     *time.Time
	DeactivatedAt *time.Time
}

// NormalizeEmail is the canonical form emails are stored and looked up in.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
