// Package v1 provides the poker-session and authentication business logic for
// API version 1.
//
// Error Handling:
// Sentinel errors below are wrapped with context using fmt.Errorf("%w") and
// matched with errors.Is in the web layer. Input problems are reported as
// *ValidationError, which also matches ErrValidation.
//
//	if session.UserID != userID {
//	    return nil, fmt.Errorf("session %s: %w", id, ErrForbidden)
//	}
//
// Error Checking (in handlers):
//
//	var verr *logicv1.ValidationError
//	switch {
//	case errors.As(err, &verr):
//	    c.JSON(http.StatusBadRequest, gin.H{"error": verr.Error(), "field": verr.Field})
//	case errors.Is(err, logicv1.ErrForbidden):
//	    c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
//	default:
//	    c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
//	}
package v1

import (
	"errors"
	"fmt"
)

// Sentinel errors for auth and session operations.
var (
	// ErrValidation is matched by every *ValidationError.
	// HTTP Status: 400 Bad Request
	ErrValidation = errors.New("validation failed")

	// ErrInvalidResetToken indicates an unknown, used or expired reset token.
	// HTTP Status: 400 Bad Request
	ErrInvalidResetToken = errors.New("invalid or expired reset token")

	// ErrInvalidCredentials indicates an unknown email or a wrong password.
	// The two cases are never distinguished.
	// HTTP Status: 401 Unauthorized
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrUnauthenticated indicates a missing token or one whose user is gone.
	// HTTP Status: 401 Unauthorized
	ErrUnauthenticated = errors.New("not authenticated")

	// ErrInvalidToken indicates a malformed, forged or expired access token.
	// HTTP Status: 401 Unauthorized
	ErrInvalidToken = errors.New("invalid token")

	// ErrForbidden indicates the session belongs to another user.
	// HTTP Status: 403 Forbidden
	ErrForbidden = errors.New("forbidden")

	// ErrUserNotFound indicates the user does not exist.
	// HTTP Status: 404 Not Found
	ErrUserNotFound = errors.New("user not found")

	// ErrSessionNotFound indicates the poker session does not exist.
	// HTTP Status: 404 Not Found
	ErrSessionNotFound = errors.New("session not found")

	// ErrUserExists indicates the email is already registered.
	// HTTP Status: 409 Conflict
	ErrUserExists = errors.New("user already exists")

	// ErrSessionFinished indicates the session was already finished.
	// HTTP Status: 409 Conflict
	ErrSessionFinished = errors.New("session already finished")

	// ErrSessionNotActive indicates a live-only operation on a finished session.
	// HTTP Status: 409 Conflict
	ErrSessionNotActive = errors.New("session is not active")
)

// ValidationError reports malformed or missing input for a single field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Is makes errors.Is(err, ErrValidation) true for every ValidationError.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
