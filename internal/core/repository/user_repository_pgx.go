package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/duynhne/poker-service/internal/core/domain"
)

const uniqueViolation = "23505"

const userColumns = `id, username, email, password_hash, google_id, reset_token_hash, reset_expires_at, created_at, last_login`

// PgxUserRepository implements domain.UserRepository using pgxpool.
type PgxUserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new PgxUserRepository.
func NewUserRepository(pool *pgxpool.Pool) *PgxUserRepository {
	return &PgxUserRepository{pool: pool}
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var (
		u         domain.User
		googleID  *string
		resetHash *string
	)
	err := row.Scan(
		&u.ID, &u.Username, &u.Email, &u.PasswordHash, &googleID,
		&resetHash, &u.ResetExpiresAt, &u.CreatedAt, &u.LastLogin,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	u.GoogleID = derefString(googleID)
	u.ResetTokenHash = derefString(resetHash)
	return &u, nil
}

// GetByID returns the user with the given id.
// Returns (nil, nil) when no user is found.
func (r *PgxUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if !isUUID(id) {
		return nil, nil
	}
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.pool.QueryRow(ctx, query, id))
}

// GetByEmail returns the user matching the given email.
// Returns (nil, nil) when no user is found.
func (r *PgxUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(r.pool.QueryRow(ctx, query, email))
}

// GetByGoogleID returns the user linked to the Google subject id.
// Returns (nil, nil) when no user is found.
func (r *PgxUserRepository) GetByGoogleID(ctx context.Context, googleID string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE google_id = $1`
	return scanUser(r.pool.QueryRow(ctx, query, googleID))
}

// GetByResetTokenHash returns the user holding the reset token hash.
// Returns (nil, nil) when no user is found.
func (r *PgxUserRepository) GetByResetTokenHash(ctx context.Context, hash string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE reset_token_hash = $1`
	return scanUser(r.pool.QueryRow(ctx, query, hash))
}

// ExistsByEmail returns true when a user with the given email already exists.
func (r *PgxUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, email).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// Create inserts a new user.
func (r *PgxUserRepository) Create(ctx context.Context, u *domain.User) error {
	query := `INSERT INTO users (id, username, email, password_hash, google_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.pool.Exec(ctx, query, u.ID, u.Username, u.Email, u.PasswordHash, nullIfEmpty(u.GoogleID), u.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return domain.ErrDuplicate
		}
		return err
	}
	return nil
}

// UpdatePassword replaces the password hash and clears any pending reset token.
func (r *PgxUserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	query := `UPDATE users
		SET password_hash = $2, reset_token_hash = NULL, reset_expires_at = NULL
		WHERE id = $1`
	return r.execOne(ctx, query, id, passwordHash)
}

// SetResetToken stores a reset token hash with its expiry.
func (r *PgxUserRepository) SetResetToken(ctx context.Context, id, tokenHash string, expiresAt time.Time) error {
	query := `UPDATE users SET reset_token_hash = $2, reset_expires_at = $3 WHERE id = $1`
	return r.execOne(ctx, query, id, tokenHash, expiresAt)
}

// ClearResetToken removes any pending reset token.
func (r *PgxUserRepository) ClearResetToken(ctx context.Context, id string) error {
	query := `UPDATE users SET reset_token_hash = NULL, reset_expires_at = NULL WHERE id = $1`
	return r.execOne(ctx, query, id)
}

// LinkGoogleID attaches a Google subject id to an existing user.
func (r *PgxUserRepository) LinkGoogleID(ctx context.Context, id, googleID string) error {
	query := `UPDATE users SET google_id = $2 WHERE id = $1`
	err := r.execOne(ctx, query, id, googleID)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return domain.ErrDuplicate
	}
	return err
}

// UpdateLastLogin sets the last_login timestamp to now for the given user.
func (r *PgxUserRepository) UpdateLastLogin(ctx context.Context, id string) error {
	query := `UPDATE users SET last_login = CURRENT_TIMESTAMP WHERE id = $1`
	return r.execOne(ctx, query, id)
}

// DeleteWithSessions deletes the user's sessions and then the user in one transaction.
func (r *PgxUserRepository) DeleteWithSessions(ctx context.Context, id string) error {
	if !isUUID(id) {
		return domain.ErrNotFound
	}
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM poker_sessions WHERE user_id = $1`, id); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return domain.ErrNotFound
		}
		return nil
	})
}

func (r *PgxUserRepository) execOne(ctx context.Context, query string, id string, args ...any) error {
	if !isUUID(id) {
		return domain.ErrNotFound
	}
	tag, err := r.pool.Exec(ctx, query, append([]any{id}, args...)...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
