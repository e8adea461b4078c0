package domain

import "context"

// Message is an outgoing email.
type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

// Mailer delivers transactional email. Implementations live in internal/core/mail.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// ExternalIdentity is the identity returned by an OAuth provider.
type ExternalIdentity struct {
	Subject       string
	Email         string
	EmailVerified bool
	Name          string
}

// IdentityProvider is a third-party OAuth login provider.
// Implementations live in internal/core/oauth.
type IdentityProvider interface {
	// AuthCodeURL returns the provider consent URL carrying state.
	AuthCodeURL(state string) string

	// Exchange trades an authorization code for the caller's identity.
	Exchange(ctx context.Context, code string) (*ExternalIdentity, error)
}
