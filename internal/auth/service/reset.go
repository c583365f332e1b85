package service

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/aussiebroadwan/taskboard/internal/auth/domain"
	"github.com/aussiebroadwan/taskboard/internal/auth/store"
	"github.com/aussiebroadwan/taskboard/pkg/cryptox"
	"github.com/aussiebroadwan/taskboard/pkg/slogx"
)

// ResetDelivery is everything a notifier needs to get a reset link to the
// account owner.
type ResetDelivery struct {
	UserID    string    `json:"userId"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Token     string    `json:"token"`
	Link      string    `json:"link"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// ResetNotifier delivers a reset token out of band. The token never goes
// back in the HTTP response.
type ResetNotifier interface {
	NotifyReset(ctx context.Context, d ResetDelivery) error
}

// LogNotifier writes the reset link to the log. It is the default when no
// broker is configured.
type LogNotifier struct{}

func (LogNotifier) NotifyReset(ctx context.Context, d ResetDelivery) error {
	slogx.FromContext(ctx).Info("password reset link issued",
		"user_id", d.UserID,
		slogx.Email(d.Email),
		"link", d.Link,
		"expires_at", d.ExpiresAt,
	)
	return nil
}

// PasswordResetService issues and redeems single-use reset tokens.
type PasswordResetService struct {
	Store    store.Store
	Tokens   *TokenIssuer
	Hasher   *cryptox.PasswordHasher
	Notifier ResetNotifier

	// ResetURL is the frontend page the link points at; the token is
	// appended as ?token=.
	ResetURL string
}

func (s *PasswordResetService) now() time.Time { return s.Tokens.now() }

// RequestReset starts a reset for email. An unknown email is not an error,
// so the response never reveals whether an account exists.
func (s *PasswordResetService) RequestReset(ctx context.Context, email string) error {
	log := slogx.FromContext(ctx)

	if !ValidEmail(email) {
		return ValidationError("Valid email is required")
	}

	u, err := s.Store.Users().GetUserByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		log.Info("password reset for unknown email", slogx.Email(email))
		return nil
	}
	if err != nil {
		return InternalError("load user", err)
	}

	token, expiresAt, err := s.Tokens.IssueResetToken(u.ID)
	if err != nil {
		return err
	}

	rec := domain.ResetToken{
		TokenHash: cryptox.FingerprintToken(token),
		UserID:    u.ID,
		ExpiresAt: expiresAt,
		CreatedAt: s.now(),
	}
	if err := s.Store.ResetTokens().CreateResetToken(ctx, rec); err != nil {
		return InternalError("store reset token", err)
	}

	d := ResetDelivery{
		UserID:    u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Token:     token,
		Link:      s.link(token),
		ExpiresAt: expiresAt,
	}
	if err := s.notifier().NotifyReset(ctx, d); err != nil {
		// The record stays; the user can simply ask again.
		return InternalError("deliver reset token", err)
	}
	return nil
}

func (s *PasswordResetService) notifier() ResetNotifier {
	if s.Notifier == nil {
		return LogNotifier{}
	}
	return s.Notifier
}

func (s *PasswordResetService) link(token string) string {
	base := s.ResetURL
	if base == "" {
		return ""
	}
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	return base + sep + "token=" + url.QueryEscape(token)
}

// ConsumeReset sets a new password using a reset token. On success the
// token is spent and every session of the user is ended.
func (s *PasswordResetService) ConsumeReset(ctx context.Context, token, newPassword string) error {
	log := slogx.FromContext(ctx)

	if token == "" || newPassword == "" {
		return ValidationError("Token and new password are required")
	}

	hash := cryptox.FingerprintToken(token)
	rec, err := s.Store.ResetTokens().GetResetTokenByHash(ctx, hash)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return InvalidError(MsgInvalidResetToken)
	case err != nil:
		return InternalError("load reset token", err)
	case rec.Expired(s.now()):
		s.discard(ctx, hash)
		return InvalidError(MsgInvalidResetToken)
	}

	if err := ValidatePassword(newPassword); err != nil {
		return err
	}

	// The token must also be one we signed; a stored hash alone is not enough.
	if claims, err := s.Tokens.VerifyResetToken(token); err != nil || claims.UserID != rec.UserID {
		log.Warn("stored reset token failed verification", "user_id", rec.UserID, "err", err)
		s.discard(ctx, hash)
		return InvalidError(MsgInvalidResetToken)
	}

	newHash, err := s.Hasher.Hash(ctx, newPassword)
	if err != nil {
		return InternalError("hash password", err)
	}

	var revoked int
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.ResetTokens().DeleteResetToken(ctx, hash); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				// Consumed concurrently.
				return InvalidError(MsgInvalidResetToken)
			}
			return InternalError("delete reset token", err)
		}
		if err := tx.Users().UpdatePasswordHash(ctx, rec.UserID, newHash, s.now()); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return InvalidError(MsgUserNotFound)
			}
			return InternalError("update password", err)
		}
		n, err := tx.RefreshTokens().DeleteUserRefreshTokens(ctx, rec.UserID)
		if err != nil {
			return InternalError("revoke sessions", err)
		}
		revoked = n
		return nil
	})
	if err != nil {
		return err
	}

	log.Info("password reset", "user_id", rec.UserID, "sessions_revoked", revoked)
	return nil
}

func (s *PasswordResetService) discard(ctx context.Context, hash string) {
	err := s.Store.ResetTokens().DeleteResetToken(ctx, hash)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		slogx.FromContext(ctx).Warn("failed to discard reset token", "err", err)
	}
}
