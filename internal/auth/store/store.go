package store

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/taskboard/internal/auth/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (memory, sqlite)
// implement this. It exposes sub-repositories to keep concerns tidy and
// testable, and so a transaction can only be opened from the root.
type Store interface {
	Users() Users
	RefreshTokens() RefreshTokens
	ResetTokens() ResetTokens

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// Use it for multi-step operations that must be atomic (e.g., refresh rotation).
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the backing storage is still reachable.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	// GetUserByID returns a user by id.
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByEmail looks up by normalized email, active or not.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// ListUsers returns every user in creation order.
	ListUsers(ctx context.Context) ([]domain.User, error)

	// CreateUser inserts a new user (id is provided by app via ULID).
	// ErrAlreadyExists when the email is taken.
	CreateUser(ctx context.Context, u domain.User) error

	// UpdateName mutates the display name and bumps updated_at.
	UpdateName(ctx context.Context, userID, name string, at time.Time) error

	// UpdatePasswordHash sets the password_hash (bcrypt) and bumps updated_at.
	UpdatePasswordHash(ctx context.Context, userID, newHash string, at time.Time) error

	// UpdateEmail changes the email. ErrAlreadyExists when another user holds it.
	UpdateEmail(ctx context.Context, userID, email string, at time.Time) error

	// TouchLastLogin stamps last_login.
	TouchLastLogin(ctx context.Context, userID string, at time.Time) error

	// Deactivate clears is_active and stamps deactivated_at.
	Deactivate(ctx context.Context, userID string, at time.Time) error

	// Count returns the number of users, active or not.
	Count(ctx context.Context) (int, error)
}

type RefreshTokens interface {
	// CreateRefreshToken stores a new refresh token record.
	// ErrAlreadyExists when the hash is already present.
	CreateRefreshToken(ctx context.Context, t domain.RefreshToken) error

	// GetRefreshTokenByHash returns the record by its fingerprint.
	GetRefreshTokenByHash(ctx context.Context, hash string) (domain.RefreshToken, error)

	// DeleteRefreshToken removes one record. ErrNotFound when there was
	// nothing to remove, which is how a lost rotation race shows up.
	DeleteRefreshToken(ctx context.Context, hash string) error

	// DeleteUserRefreshTokens removes every record owned by userID.
	DeleteUserRefreshTokens(ctx context.Context, userID string) (int, error)

	// CountUserRefreshTokens counts records for userID not yet expired at now.
	CountUserRefreshTokens(ctx context.Context, userID string, now time.Time) (int, error)

	// DeleteExpiredRefreshTokens is housekeeping.
	DeleteExpiredRefreshTokens(ctx context.Context, now time.Time) (int, error)
}

type ResetTokens interface {
	// CreateResetToken stores a new reset record.
	CreateResetToken(ctx context.Context, t domain.ResetToken) error

	// GetResetTokenByHash returns the record by its fingerprint.
	GetResetTokenByHash(ctx context.Context, hash string) (domain.ResetToken, error)

	// DeleteResetToken removes one record. ErrNotFound when absent.
	DeleteResetToken(ctx context.Context, hash string) error

	// DeleteExpiredResetTokens is housekeeping.
	DeleteExpiredResetTokens(ctx context.Context, now time.Time) (int, error)
}
