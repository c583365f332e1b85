package sqlite

import (
	"context"
	"time"

	"github.com/aussiebroadwan/taskboard/internal/auth/domain"
)

type refreshTokensRepo struct {
	db dbtx
}

func (r *refreshTokensRepo) CreateRefreshToken(ctx context.Context, t domain.RefreshToken) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO refresh_tokens (token_hash, user_id, expires_at, created_at) VALUES (?, ?, ?, ?)`,
		t.TokenHash, t.UserID, toMillis(t.ExpiresAt), toMillis(t.CreatedAt),
	)
	return mapConstraint(err)
}

func (r *refreshTokensRepo) GetRefreshTokenByHash(ctx context.Context, hash string) (domain.RefreshToken, error) {
	var (
		t                    domain.RefreshToken
		expiresAt, createdAt int64
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT token_hash, user_id, expires_at, created_at FROM refresh_tokens WHERE token_hash = ?`,
		hash,
	).Scan(&t.TokenHash, &t.UserID, &expiresAt, &createdAt)
	if err != nil {
		return domain.RefreshToken{}, mapNotFound(err)
	}

	t.ExpiresAt = fromMillis(expiresAt)
	t.CreatedAt = fromMillis(createdAt)
	return t, nil
}

func (r *refreshTokensRepo) DeleteRefreshToken(ctx context.Context, hash string) error {
	return mustAffect(r.db.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE token_hash = ?`, hash))
}

func (r *refreshTokensRepo) DeleteUserRefreshTokens(ctx context.Context, userID string) (int, error) {
	return affected(r.db.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE user_id = ?`, userID))
}

func (r *refreshTokensRepo) CountUserRefreshTokens(ctx context.Context, userID string, now time.Time) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM refresh_tokens WHERE user_id = ? AND expires_at > ?`,
		userID, toMillis(now),
	).Scan(&n)
	return n, err
}

func (r *refreshTokensRepo) DeleteExpiredRefreshTokens(ctx context.Context, now time.Time) (int, error) {
	return affected(r.db.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE expires_at <= ?`, toMillis(now)))
}
