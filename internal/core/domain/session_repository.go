package domain

import (
	"context"
	"errors"
)

// Errors returned by repository implementations.
var (
	// ErrNotFound is returned by mutations whose target row does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicate is returned when a unique constraint rejects a write.
	ErrDuplicate = errors.New("duplicate record")
)

// SessionRepository defines the data-access contract for poker sessions.
// Implementations live in internal/core/repository (Core layer).
type SessionRepository interface {
	// Create inserts a new session. ID, CreatedAt and UpdatedAt are assigned
	// by the caller.
	Create(ctx context.Context, s *Session) error

	// GetByID returns the session with the given id.
	// Returns (nil, nil) when no session is found.
	GetByID(ctx context.Context, id string) (*Session, error)

	// ListByUser returns the sessions owned by userID, newest start first.
	// When activeOnly is set only sessions with IsActive are returned.
	ListByUser(ctx context.Context, userID string, activeOnly bool) ([]Session, error)

	// Update overwrites every mutable column of the stored session.
	// Returns ErrNotFound when the session no longer exists.
	Update(ctx context.Context, s *Session) error

	// Delete removes the session. Returns ErrNotFound when nothing was deleted.
	Delete(ctx context.Context, id string) error
}
