package domain

import "time"

// User is an account. PasswordHash is empty for accounts created through
// Google sign-in only.
type User struct {
	ID           string     `json:"id"`
	Username     string     `json:"username"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	GoogleID     string     `json:"-"`
	CreatedAt    time.Time  `json:"createdAt"`
	LastLogin    *time.Time `json:"lastLogin,omitempty"`

	// Only the SHA-256 of the emailed reset token is stored.
	ResetTokenHash string     `json:"-"`
	ResetExpiresAt *time.Time `json:"-"`
}

// HasPassword reports whether the account can sign in with a password.
func (u *User) HasPassword() bool {
	return u.PasswordHash != ""
}
