package cryptox

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"
)

const (
	// DefaultCost is the bcrypt work factor used for stored passwords.
	DefaultCost = 12

	// DefaultHashTimeout bounds a single hash or verify call.
	DefaultHashTimeout = 5 * time.Second

	// bcrypt only looks at the first 72 bytes of its input.
	bcryptMaxInput = 72
)

var (
	ErrPasswordMismatch = errors.New("cryptox: password does not match")
	ErrHashTimeout      = errors.New("cryptox: password hashing exceeded its time budget")
)

// PasswordHasher hashes and verifies passwords with bcrypt. Every call runs
// under a time ceiling so a misconfigured cost or an overloaded host surfaces
// as an error instead of a hung request.
type PasswordHasher struct {
	Cost    int
	Timeout time.Duration
}

// NewPasswordHasher returns a hasher, substituting defaults for zero values.
func NewPasswordHasher(cost int, timeout time.Duration) *PasswordHasher {
	if cost == 0 {
		cost = DefaultCost
	}
	if timeout <= 0 {
		timeout = DefaultHashTimeout
	}
	return &PasswordHasher{Cost: cost, Timeout: timeout}
}

// Hash returns the bcrypt encoding of password.
func (h *PasswordHasher) Hash(ctx context.Context, password string) (string, error) {
	var encoded []byte
	err := h.bounded(ctx, func() error {
		var err error
		encoded, err = bcrypt.GenerateFromPassword(prepare(password), h.Cost)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("cryptox: hash password: %w", err)
	}
	return string(encoded), nil
}

// Verify compares password against an encoding produced by Hash. It returns
// ErrPasswordMismatch for a wrong password and another error for a corrupt
// hash or a blown time budget.
func (h *PasswordHasher) Verify(ctx context.Context, password, encoded string) error {
	err := h.bounded(ctx, func() error {
		return bcrypt.CompareHashAndPassword([]byte(encoded), prepare(password))
	})
	switch {
	case err == nil:
		return nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return ErrPasswordMismatch
	default:
		return fmt.Errorf("cryptox: verify password: %w", err)
	}
}

// bounded runs fn on its own goroutine and waits for it, the context, or the
// ceiling, whichever comes first. A timed-out fn keeps running until bcrypt
// returns; its result is discarded.
func (h *PasswordHasher) bounded(ctx context.Context, fn func() error) error {
	ctx, cancel := context.WithTimeout(ctx, h.Timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- fn() }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return ErrHashTimeout
		}
		return ctx.Err()
	}
}

// prepare pre-hashes inputs bcrypt would otherwise reject or truncate.
func prepare(password string) []byte {
	if len(password) <= bcryptMaxInput {
		return []byte(password)
	}
	sum := sha256.Sum256([]byte(password))
	return []byte(base64.RawStdEncoding.EncodeToString(sum[:]))
}
