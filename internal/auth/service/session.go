package service

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/taskboard/internal/auth/domain"
	"github.com/aussiebroadwan/taskboard/internal/auth/store"
	"github.com/aussiebroadwan/taskboard/pkg/cryptox"
	"github.com/aussiebroadwan/taskboard/pkg/slogx"
)

// SessionService tracks live refresh tokens. A refresh token is redeemable
// only while its record exists, and each record is consumed exactly once.
type SessionService struct {
	Store  store.Store
	Tokens *TokenIssuer
}

func (s *SessionService) now() time.Time { return s.Tokens.now() }

// Register records a freshly issued refresh token. The owner and expiry are
// read from the token itself.
func (s *SessionService) Register(ctx context.Context, refreshToken string) error {
	return s.register(ctx, s.Store, refreshToken)
}

func (s *SessionService) register(ctx context.Context, st store.Store, refreshToken string) error {
	claims, err := s.Tokens.VerifyRefreshToken(refreshToken)
	if err != nil {
		return InternalError("decode issued refresh token", err)
	}

	rec := domain.RefreshToken{
		TokenHash: cryptox.FingerprintToken(refreshToken),
		UserID:    claims.UserID,
		ExpiresAt: claims.ExpiresAtTime(),
		CreatedAt: s.now(),
	}
	if err := st.RefreshTokens().CreateRefreshToken(ctx, rec); err != nil {
		return InternalError("store refresh token", err)
	}
	return nil
}

// Start issues a token pair for userID and registers its refresh token.
func (s *SessionService) Start(ctx context.Context, userID string) (domain.TokenPair, error) {
	pair, err := s.Tokens.IssueTokenPair(userID)
	if err != nil {
		return domain.TokenPair{}, err
	}
	if err := s.Register(ctx, pair.RefreshToken); err != nil {
		return domain.TokenPair{}, err
	}
	return pair, nil
}

// Rotate exchanges a live refresh token for a new pair. The old token is
// removed in the same transaction that records the new one, so of two
// concurrent rotations of one token exactly one succeeds.
func (s *SessionService) Rotate(ctx context.Context, oldToken string) (domain.TokenPair, error) {
	log := slogx.FromContext(ctx)
	hash := cryptox.FingerprintToken(oldToken)

	rec, err := s.Store.RefreshTokens().GetRefreshTokenByHash(ctx, hash)
	if errors.Is(err, store.ErrNotFound) {
		// Still verify, so an unknown token costs the same as a known one.
		_, verr := s.Tokens.VerifyRefreshToken(oldToken)
		log.Info("refresh token not registered", "token", slogx.RedactToken(oldToken), "verify_err", verr)
		return domain.TokenPair{}, InvalidError(MsgInvalidRefreshToken)
	}
	if err != nil {
		return domain.TokenPair{}, InternalError("load refresh token", err)
	}

	claims, err := s.Tokens.VerifyRefreshToken(oldToken)
	if err != nil || claims.UserID != rec.UserID {
		log.Info("refresh token failed verification", "user_id", rec.UserID, "err", err)
		s.discard(ctx, hash)
		return domain.TokenPair{}, InvalidError(MsgInvalidRefreshToken)
	}

	user, err := s.Store.Users().GetUserByID(ctx, rec.UserID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		s.discard(ctx, hash)
		return domain.TokenPair{}, InvalidError(MsgInvalidRefreshToken)
	case err != nil:
		return domain.TokenPair{}, InternalError("load user", err)
	case !user.IsActive:
		log.Info("refresh attempted for deactivated account", "user_id", user.ID)
		s.discard(ctx, hash)
		return domain.TokenPair{}, InvalidError(MsgInvalidRefreshToken)
	}

	pair, err := s.Tokens.IssueTokenPair(user.ID)
	if err != nil {
		return domain.TokenPair{}, err
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.RefreshTokens().DeleteRefreshToken(ctx, hash); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				// Someone else rotated or revoked it first.
				return InvalidError(MsgInvalidRefreshToken)
			}
			return InternalError("delete refresh token", err)
		}
		return s.register(ctx, tx, pair.RefreshToken)
	})
	if err != nil {
		return domain.TokenPair{}, err
	}

	log.Debug("refresh token rotated", "user_id", user.ID)
	return pair, nil
}

// discard drops a record that can never be redeemed. Failure only leaves
// work for housekeeping.
func (s *SessionService) discard(ctx context.Context, hash string) {
	err := s.Store.RefreshTokens().DeleteRefreshToken(ctx, hash)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		slogx.FromContext(ctx).Warn("failed to discard refresh token", "err", err)
	}
}

// Revoke removes refreshToken only when it belongs to userID. Tokens of
// other users and unknown tokens are left alone without error.
func (s *SessionService) Revoke(ctx context.Context, userID, refreshToken string) error {
	hash := cryptox.FingerprintToken(refreshToken)
	rec, err := s.Store.RefreshTokens().GetRefreshTokenByHash(ctx, hash)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return InternalError("load refresh token", err)
	}
	if rec.UserID != userID {
		slogx.FromContext(ctx).Warn("logout with another user's refresh token", "user_id", userID)
		return nil
	}

	err = s.Store.RefreshTokens().DeleteRefreshToken(ctx, hash)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return InternalError("revoke refresh token", err)
	}
	return nil
}

// RevokeAllForUser removes every refresh token owned by userID and returns
// how many there were.
func (s *SessionService) RevokeAllForUser(ctx context.Context, userID string) (int, error) {
	n, err := s.Store.RefreshTokens().DeleteUserRefreshTokens(ctx, userID)
	if err != nil {
		return 0, InternalError("revoke user refresh tokens", err)
	}
	slogx.FromContext(ctx).Info("revoked all sessions", "user_id", userID, "count", n)
	return n, nil
}

// CountActiveSessions counts unexpired refresh tokens for userID.
func (s *SessionService) CountActiveSessions(ctx context.Context, userID string) (int, error) {
	n, err := s.Store.RefreshTokens().CountUserRefreshTokens(ctx, userID, s.now())
	if err != nil {
		return 0, InternalError("count sessions", err)
	}
	return n, nil
}
