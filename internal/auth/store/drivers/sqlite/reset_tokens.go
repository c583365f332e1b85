package sqlite

import (
	"context"
	"time"

	"github.com/aussiebroadwan/taskboard/internal/auth/domain"
)

type resetTokensRepo struct {
	db dbtx
}

func (r *resetTokensRepo) CreateResetToken(ctx context.Context, t domain.ResetToken) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO reset_tokens (token_hash, user_id, expires_at, created_at) VALUES (?, ?, ?, ?)`,
		t.TokenHash, t.UserID, toMillis(t.ExpiresAt), toMillis(t.CreatedAt),
	)
	return mapConstraint(err)
}

func (r *resetTokensRepo) GetResetTokenByHash(ctx context.Context, hash string) (domain.ResetToken, error) {
	var (
		t                    domain.ResetToken
		expiresAt, createdAt int64
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT token_hash, user_id, expires_at, created_at FROM reset_tokens WHERE token_hash = ?`,
		hash,
	).Scan(&t.TokenHash, &t.UserID, &expiresAt, &createdAt)
	if err != nil {
		return domain.ResetToken{}, mapNotFound(err)
	}

	t.ExpiresAt = fromMillis(expiresAt)
	t.CreatedAt = fromMillis(createdAt)
	return t, nil
}

func (r *resetTokensRepo) DeleteResetToken(ctx context.Context, hash string) error {
	return mustAffect(r.db.ExecContext(ctx, `DELETE FROM reset_tokens WHERE token_hash = ?`, hash))
}

func (r *resetTokensRepo) DeleteExpiredResetTokens(ctx context.Context, now time.Time) (int, error) {
	return affected(r.db.ExecContext(ctx, `DELETE FROM reset_tokens WHERE expires_at <= ?`, toMillis(now)))
}
