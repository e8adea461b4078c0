package domain

import (
	"context"
	"time"
)

// UserRepository defines the data-access contract for user operations.
// Implementations live in internal/core/repository (Core layer).
// The Logic layer depends on this interface only, never on SQL or a driver directly.
type UserRepository interface {
	// GetByID returns the user with the given id.
	// Returns (nil, nil) when no user is found.
	GetByID(ctx context.Context, id string) (*User, error)

	// GetByEmail returns the user with the given (normalized) email.
	// Returns (nil, nil) when no user is found.
	GetByEmail(ctx context.Context, email string) (*User, error)

	// GetByGoogleID returns the user linked to the Google subject id.
	// Returns (nil, nil) when no user is found.
	GetByGoogleID(ctx context.Context, googleID string) (*User, error)

	// GetByResetTokenHash returns the user holding the reset token hash,
	// regardless of expiry. Returns (nil, nil) when no user is found.
	GetByResetTokenHash(ctx context.Context, hash string) (*User, error)

	// ExistsByEmail returns true when a user with the given email already exists.
	ExistsByEmail(ctx context.Context, email string) (bool, error)

	// Create inserts a new user. Returns ErrDuplicate when the email is taken.
	Create(ctx context.Context, u *User) error

	// UpdatePassword replaces the password hash and clears any pending reset token.
	UpdatePassword(ctx context.Context, id, passwordHash string) error

	// SetResetToken stores a reset token hash with its expiry.
	SetResetToken(ctx context.Context, id, tokenHash string, expiresAt time.Time) error

	// ClearResetToken removes any pending reset token.
	ClearResetToken(ctx context.Context, id string) error

	// LinkGoogleID attaches a Google subject id to an existing user.
	LinkGoogleID(ctx context.Context, id, googleID string) error

	// UpdateLastLogin sets the last_login timestamp to now for the given user.
	UpdateLastLogin(ctx context.Context, id string) error

	// DeleteWithSessions deletes every session owned by the user and then the
	// user, in a single transaction. Returns ErrNotFound when the user is gone.
	DeleteWithSessions(ctx context.Context, id string) error
}
