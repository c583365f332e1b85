package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/aussiebroadwan/taskboard/internal/auth/domain"
)

type usersRepo struct {
	db dbtx
}

const userColumns = `id, email, name, password_hash, is_active, created_at, updated_at, last_login, deactivated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (domain.User, error) {
	var (
		u             domain.User
		createdAt     int64
		updatedAt     sql.NullInt64
		lastLogin     sql.NullInt64
		deactivatedAt sql.NullInt64
	)
	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.Name,
		&u.PasswordHash,
		&u.IsActive,
		&createdAt,
		&updatedAt,
		&lastLogin,
		&deactivatedAt,
	)
	if err != nil {
		return domain.User{}, err
	}

	u.CreatedAt = fromMillis(createdAt)
	u.UpdatedAt = mapNullTimePtr(updatedAt)
	u.LastLogin = mapNullTimePtr(lastLogin)
	u.DeactivatedAt = mapNullTimePtr(deactivatedAt)
	return u, nil
}

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return u, nil
}

func (r *usersRepo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`,
		domain.NormalizeEmail(email),
	)
	u, err := scanUser(row)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return u, nil
}

func (r *usersRepo) ListUsers(ctx context.Context) ([]domain.User, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID,
		domain.NormalizeEmail(u.Email),
		u.Name,
		u.PasswordHash,
		u.IsActive,
		toMillis(u.CreatedAt),
		mapOptionalTime(u.UpdatedAt),
		mapOptionalTime(u.LastLogin),
		mapOptionalTime(u.DeactivatedAt),
	)
	return mapConstraint(err)
}

func (r *usersRepo) UpdateName(ctx context.Context, userID, name string, at time.Time) error {
	return mustAffect(r.db.ExecContext(ctx,
		`UPDATE users SET name = ?, updated_at = ? WHERE id = ?`,
		name, toMillis(at), userID,
	))
}

func (r *usersRepo) UpdatePasswordHash(ctx context.Context, userID, newHash string, at time.Time) error {
	return mustAffect(r.db.ExecContext(ctx,
		`UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`,
		newHash, toMillis(at), userID,
	))
}

func (r *usersRepo) UpdateEmail(ctx context.Context, userID, email string, at time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET email = ?, updated_at = ? WHERE id = ?`,
		domain.NormalizeEmail(email), toMillis(at), userID,
	)
	return mustAffect(res, mapConstraint(err))
}

func (r *usersRepo) TouchLastLogin(ctx context.Context, userID string, at time.Time) error {
	return mustAffect(r.db.ExecContext(ctx,
		`UPDATE users SET last_login = ? WHERE id = ?`,
		toMillis(at), userID,
	))
}

func (r *usersRepo) Deactivate(ctx context.Context, userID string, at time.Time) error {
	return mustAffect(r.db.ExecContext(ctx,
		`UPDATE users SET is_active = 0, deactivated_at = ?, updated_at = ? WHERE id = ?`,
		toMillis(at), toMillis(at), userID,
	))
}

func (r *usersRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n)
	return n, err
}
