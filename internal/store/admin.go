package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/lebbnb/apiserver/types"
	"github.com/lib/pq"
)

const uniqueViolation = "23505"

const adminColumns = `
	id, email, name, role, password_hash, is_active,
	login_attempts, lock_until, refresh_token, last_login,
	password_changed_at, created_at, updated_at`

// AdminRepository handles persistence for admin accounts.
type AdminRepository struct {
	db *sql.DB
}

func NewAdminRepository(db *sql.DB) *AdminRepository {
	return &AdminRepository{db: db}
}

func (r *AdminRepository) GetByID(ctx context.Context, id int) (types.Admin, error) {
	const query = `SELECT` + adminColumns + `
		FROM admins
		WHERE id = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

func (r *AdminRepository) GetByEmail(ctx context.Context, email string) (types.Admin, error) {
	const query = `SELECT` + adminColumns + `
		FROM admins
		WHERE email = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, strings.ToLower(strings.TrimSpace(email))))
}

func (r *AdminRepository) Create(ctx context.Context, admin types.Admin) (types.Admin, error) {
	now := time.Now()
	admin.Email = strings.ToLower(strings.TrimSpace(admin.Email))
	admin.CreatedAt = now
	admin.UpdatedAt = now

	const query = `
		INSERT INTO admins (email, name, role, password_hash, is_active, login_attempts, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, 0, $6, $7)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		admin.Email,
		admin.Name,
		admin.Role,
		admin.PasswordHash,
		admin.IsActive,
		admin.CreatedAt,
		admin.UpdatedAt,
	).Scan(&admin.ID); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return types.Admin{}, ErrDuplicate
		}
		return types.Admin{}, err
	}
	return admin, nil
}

// RecordFailedLogin applies one failed-attempt transition atomically. A lock
// that has already expired restarts the counter at 1 and clears the stale
// lock; otherwise the counter is incremented and, on reaching the threshold
// while not currently locked, the lock window is installed. The single
// conditional UPDATE means concurrent failures never lose increments.
func (r *AdminRepository) RecordFailedLogin(ctx context.Context, id int, threshold int, lockWindow time.Duration) error {
	const query = `
		UPDATE admins
		SET login_attempts = CASE
				WHEN lock_until IS NOT NULL AND lock_until <= now() THEN 1
				ELSE login_attempts + 1
			END,
			lock_until = CASE
				WHEN lock_until IS NOT NULL AND lock_until <= now() THEN NULL
				WHEN login_attempts + 1 >= $2 AND (lock_until IS NULL OR lock_until <= now()) THEN now() + make_interval(secs => $3)
				ELSE lock_until
			END,
			updated_at = now()
		WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, threshold, lockWindow.Seconds())
	if err != nil {
		return err
	}
	return checkAffected(result)
}

// RecordLogin resets the failure counters, stamps last_login, and installs
// the new refresh token in one statement.
func (r *AdminRepository) RecordLogin(ctx context.Context, id int, refreshToken string, at time.Time) error {
	const query = `
		UPDATE admins
		SET login_attempts = 0,
			lock_until = NULL,
			refresh_token = $2,
			last_login = $3,
			updated_at = now()
		WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, refreshToken, at)
	if err != nil {
		return err
	}
	return checkAffected(result)
}

// SetRefreshToken replaces the stored refresh token, superseding any
// previously issued one.
func (r *AdminRepository) SetRefreshToken(ctx context.Context, id int, refreshToken string) error {
	const query = `
		UPDATE admins
		SET refresh_token = $2,
			updated_at = now()
		WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, refreshToken)
	if err != nil {
		return err
	}
	return checkAffected(result)
}

// ClearRefreshToken removes the stored refresh token, ending the session.
func (r *AdminRepository) ClearRefreshToken(ctx context.Context, id int) error {
	const query = `
		UPDATE admins
		SET refresh_token = NULL,
			updated_at = now()
		WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	return checkAffected(result)
}

// UpdatePassword installs a new password hash, stamps password_changed_at,
// and clears the refresh token so every existing session must log in again.
func (r *AdminRepository) UpdatePassword(ctx context.Context, id int, passwordHash string, changedAt time.Time) error {
	const query = `
		UPDATE admins
		SET password_hash = $2,
			password_changed_at = $3,
			refresh_token = NULL,
			updated_at = now()
		WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, passwordHash, changedAt)
	if err != nil {
		return err
	}
	return checkAffected(result)
}

// SetActive toggles whether the account may authenticate.
func (r *AdminRepository) SetActive(ctx context.Context, id int, active bool) error {
	const query = `
		UPDATE admins
		SET is_active = $2,
			updated_at = now()
		WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, active)
	if err != nil {
		return err
	}
	return checkAffected(result)
}

func (r *AdminRepository) scanOne(row *sql.Row) (types.Admin, error) {
	var admin types.Admin
	var lockUntil, lastLogin, passwordChangedAt sql.NullTime
	var refreshToken sql.NullString
	err := row.Scan(
		&admin.ID,
		&admin.Email,
		&admin.Name,
		&admin.Role,
		&admin.PasswordHash,
		&admin.IsActive,
		&admin.LoginAttempts,
		&lockUntil,
		&refreshToken,
		&lastLogin,
		&passwordChangedAt,
		&admin.CreatedAt,
		&admin.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Admin{}, ErrNotFound
		}
		return types.Admin{}, err
	}
	if lockUntil.Valid {
		admin.LockUntil = &lockUntil.Time
	}
	if lastLogin.Valid {
		admin.LastLogin = &lastLogin.Time
	}
	if passwordChangedAt.Valid {
		admin.PasswordChangedAt = &passwordChangedAt.Time
	}
	if refreshToken.Valid {
		admin.RefreshToken = &refreshToken.String
	}
	return admin, nil
}

func checkAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
