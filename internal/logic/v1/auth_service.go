package v1

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/crypto/bcrypt"

	"github.com/duynhne/poker-service/internal/core/domain"
	"github.com/duynhne/poker-service/middleware"
	pkgzerolog "github.com/duynhne/poker-service/pkg/logger/zerolog"
)

const (
	minPasswordLength = 6
	// bcrypt ignores input beyond 72 bytes.
	maxPasswordLength = 72
	resetTokenBytes   = 20
)

// AuthOptions tunes the AuthService.
type AuthOptions struct {
	BcryptCost    int
	ResetTokenTTL time.Duration
	// FrontendURL prefixes the link sent in password reset emails.
	FrontendURL string
}

// AuthService implements authentication business rules.
// It depends on repository interfaces (injected via constructor) and
// MUST NOT access the database or SQL directly.
type AuthService struct {
	users  domain.UserRepository
	tokens *TokenIssuer
	mailer domain.Mailer
	opts   AuthOptions
	now    func() time.Time

	dummyOnce sync.Once
	dummy     []byte
}

// NewAuthService creates a new AuthService with the given dependencies.
func NewAuthService(users domain.UserRepository, tokens *TokenIssuer, mailer domain.Mailer, opts AuthOptions) *AuthService {
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}
	if opts.ResetTokenTTL <= 0 {
		opts.ResetTokenTTL = time.Hour
	}
	return &AuthService{
		users:  users,
		tokens: tokens,
		mailer: mailer,
		opts:   opts,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// dummyHash is compared against when no account matches, so an unknown email
// costs the same bcrypt work as a wrong password.
func (s *AuthService) dummyHash() []byte {
	s.dummyOnce.Do(func() {
		b := make([]byte, 16)
		_, _ = rand.Read(b)
		s.dummy, _ = bcrypt.GenerateFromPassword([]byte(hex.EncodeToString(b)), s.opts.BcryptCost)
	})
	return s.dummy
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validatePassword(field, password string) error {
	if len(password) < minPasswordLength {
		return invalid(field, fmt.Sprintf("must be at least %d characters", minPasswordLength))
	}
	if len(password) > maxPasswordLength {
		return invalid(field, fmt.Sprintf("must be at most %d bytes", maxPasswordLength))
	}
	return nil
}

// Register creates a password account and signs the user in.
func (s *AuthService) Register(ctx context.Context, req domain.RegisterRequest) (*domain.AuthResponse, error) {
	email := normalizeEmail(req.Email)
	ctx, span := startSpan(ctx, "auth.register", attribute.String("email", email))
	defer span.End()

	username := strings.TrimSpace(req.Username)
	if username == "" {
		return nil, invalid("username", "is required")
	}
	if email == "" {
		return nil, invalid("email", "is required")
	}
	if err := validatePassword("password", req.Password); err != nil {
		return nil, err
	}

	exists, err := s.users.ExistsByEmail(ctx, email)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("check existing user: %w", err)
	}
	if exists {
		span.SetAttributes(attribute.Bool("registration.success", false))
		middleware.RecordAuthEvent("register", false)
		return nil, fmt.Errorf("register %q: %w", email, ErrUserExists)
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.opts.BcryptCost)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: string(passwordHash),
		CreatedAt:    s.now(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			middleware.RecordAuthEvent("register", false)
			return nil, fmt.Errorf("register %q: %w", email, ErrUserExists)
		}
		span.RecordError(err)
		return nil, fmt.Errorf("insert user: %w", err)
	}

	response, err := s.signIn(user)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	middleware.RecordAuthEvent("register", true)
	span.SetAttributes(
		attribute.String("user.id", user.ID),
		attribute.Bool("registration.success", true),
	)
	span.AddEvent("user.registered")
	return response, nil
}

// Login verifies email and password. An unknown email and a wrong password
// both yield ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, req domain.LoginRequest) (*domain.AuthResponse, error) {
	email := normalizeEmail(req.Email)
	ctx, span := startSpan(ctx, "auth.login", attribute.String("email", email))
	defer span.End()

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("query user %q: %w", email, err)
	}
	known := user != nil && user.HasPassword()
	hash := s.dummyHash()
	if known {
		hash = []byte(user.PasswordHash)
	}
	if err := bcrypt.CompareHashAndPassword(hash, []byte(req.Password)); err != nil || !known {
		span.SetAttributes(attribute.Bool("auth.success", false))
		span.AddEvent("authentication.failed")
		middleware.RecordAuthEvent("login", false)
		return nil, fmt.Errorf("authenticate %q: %w", email, ErrInvalidCredentials)
	}

	// Best-effort, don't fail login
	if updateErr := s.users.UpdateLastLogin(ctx, user.ID); updateErr != nil {
		span.RecordError(fmt.Errorf("update last_login: %w", updateErr))
	}

	response, err := s.signIn(user)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	middleware.RecordAuthEvent("login", true)
	span.SetAttributes(
		attribute.String("user.id", user.ID),
		attribute.Bool("auth.success", true),
	)
	span.AddEvent("user.authenticated")
	return response, nil
}

func (s *AuthService) signIn(user *domain.User) (*domain.AuthResponse, error) {
	token, expiresAt, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &domain.AuthResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      *user,
	}, nil
}

// Authenticate verifies an access token and loads its user. Tokens of
// deleted accounts fail with ErrUnauthenticated.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	ctx, span := startSpan(ctx, "auth.authenticate")
	defer span.End()

	if token == "" {
		return nil, fmt.Errorf("no token: %w", ErrUnauthenticated)
	}

	userID, err := s.tokens.Verify(token)
	if err != nil {
		span.SetAttributes(attribute.Bool("token.valid", false))
		return nil, err
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("query user %s: %w", userID, err)
	}
	if user == nil {
		span.SetAttributes(attribute.Bool("token.valid", false))
		return nil, fmt.Errorf("token user %s gone: %w", userID, ErrUnauthenticated)
	}

	span.SetAttributes(
		attribute.String("user.id", user.ID),
		attribute.Bool("token.valid", true),
	)
	return user, nil
}

// Me returns the user with the given id.
func (s *AuthService) Me(ctx context.Context, userID string) (*domain.User, error) {
	ctx, span := startSpan(ctx, "auth.me", attribute.String("user.id", userID))
	defer span.End()

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("query user %s: %w", userID, err)
	}
	if user == nil {
		return nil, fmt.Errorf("lookup user %s: %w", userID, ErrUserNotFound)
	}
	return user, nil
}

// ForgotPassword emails a single-use reset link when the email belongs to an
// account. It reports success for unknown emails and delivery failures alike
// so callers cannot probe which emails are registered.
func (s *AuthService) ForgotPassword(ctx context.Context, req domain.ForgotPasswordRequest) error {
	email := normalizeEmail(req.Email)
	ctx, span := startSpan(ctx, "auth.forgot_password")
	defer span.End()

	logger := pkgzerolog.FromContext(ctx)

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("query user: %w", err)
	}
	if user == nil {
		span.SetAttributes(attribute.Bool("user.found", false))
		logger.Info().Msg("Password reset requested for unknown email")
		return nil
	}

	token, tokenHash, err := newResetToken()
	if err != nil {
		span.RecordError(err)
		return err
	}
	if err := s.users.SetResetToken(ctx, user.ID, tokenHash, s.now().Add(s.opts.ResetTokenTTL)); err != nil {
		span.RecordError(err)
		return fmt.Errorf("store reset token: %w", err)
	}

	link := s.opts.FrontendURL + "/reset-password/" + token
	msg := domain.Message{
		To:      user.Email,
		Subject: "Reset your password",
		Text: fmt.Sprintf("Hi %s,\n\nUse the link below to choose a new password. It expires in %s.\n\n%s\n\nIf you did not ask for this, ignore this email.\n",
			user.Username, s.opts.ResetTokenTTL, link),
		HTML: fmt.Sprintf(`<p>Hi %s,</p><p>Use the link below to choose a new password. It expires in %s.</p><p><a href="%s">Reset password</a></p><p>If you did not ask for this, ignore this email.</p>`,
			user.Username, s.opts.ResetTokenTTL, link),
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		span.RecordError(err)
		logger.Error().Err(err).Str("user_id", user.ID).Msg("Failed to send password reset email")
		middleware.RecordAuthEvent("forgot_password", false)
		return nil
	}

	middleware.RecordAuthEvent("forgot_password", true)
	span.AddEvent("reset.sent")
	return nil
}

// newResetToken returns a random token and the hex SHA-256 that is stored.
func newResetToken() (string, string, error) {
	b := make([]byte, resetTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", "", fmt.Errorf("generate reset token: %w", err)
	}
	token := hex.EncodeToString(b)
	return token, hashResetToken(token), nil
}

func hashResetToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// ResetPassword replaces the password of the account holding token and
// invalidates the token.
func (s *AuthService) ResetPassword(ctx context.Context, token string, req domain.ResetPasswordRequest) error {
	ctx, span := startSpan(ctx, "auth.reset_password")
	defer span.End()

	if err := validatePassword("password", req.Password); err != nil {
		return err
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return fmt.Errorf("empty reset token: %w", ErrInvalidResetToken)
	}

	user, err := s.users.GetByResetTokenHash(ctx, hashResetToken(token))
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("query reset token: %w", err)
	}
	if user == nil {
		middleware.RecordAuthEvent("reset_password", false)
		return fmt.Errorf("lookup reset token: %w", ErrInvalidResetToken)
	}
	if user.ResetExpiresAt == nil || !s.now().Before(*user.ResetExpiresAt) {
		if clearErr := s.users.ClearResetToken(ctx, user.ID); clearErr != nil {
			span.RecordError(fmt.Errorf("clear expired reset token: %w", clearErr))
		}
		middleware.RecordAuthEvent("reset_password", false)
		return fmt.Errorf("reset token of %s expired: %w", user.ID, ErrInvalidResetToken)
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.opts.BcryptCost)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.users.UpdatePassword(ctx, user.ID, string(passwordHash)); err != nil {
		span.RecordError(err)
		return fmt.Errorf("update password: %w", err)
	}

	middleware.RecordAuthEvent("reset_password", true)
	span.SetAttributes(attribute.String("user.id", user.ID))
	return nil
}

// ChangePassword replaces the password after checking the current one.
func (s *AuthService) ChangePassword(ctx context.Context, userID string, req domain.ChangePasswordRequest) error {
	ctx, span := startSpan(ctx, "auth.change_password", attribute.String("user.id", userID))
	defer span.End()

	if err := validatePassword("newPassword", req.NewPassword); err != nil {
		return err
	}

	user, err := s.Me(ctx, userID)
	if err != nil {
		return err
	}
	if !user.HasPassword() ||
		bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)) != nil {
		middleware.RecordAuthEvent("change_password", false)
		return fmt.Errorf("change password of %s: %w", userID, ErrInvalidCredentials)
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), s.opts.BcryptCost)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.users.UpdatePassword(ctx, userID, string(passwordHash)); err != nil {
		span.RecordError(err)
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("update password of %s: %w", userID, ErrUserNotFound)
		}
		return fmt.Errorf("update password: %w", err)
	}

	middleware.RecordAuthEvent("change_password", true)
	return nil
}

// OAuthLogin signs in an external identity: an account already linked to
// the subject, else the account with the same verified email (which gets
// linked), else a new account.
func (s *AuthService) OAuthLogin(ctx context.Context, identity *domain.ExternalIdentity) (*domain.AuthResponse, error) {
	ctx, span := startSpan(ctx, "auth.oauth_login")
	defer span.End()

	if identity == nil || identity.Subject == "" {
		return nil, invalid("subject", "identity provider returned no subject")
	}
	email := normalizeEmail(identity.Email)

	user, err := s.users.GetByGoogleID(ctx, identity.Subject)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("query user by google id: %w", err)
	}

	if user == nil && email != "" && identity.EmailVerified {
		user, err = s.users.GetByEmail(ctx, email)
		if err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("query user %q: %w", email, err)
		}
		if user != nil {
			if err := s.users.LinkGoogleID(ctx, user.ID, identity.Subject); err != nil {
				span.RecordError(err)
				return nil, fmt.Errorf("link google account: %w", err)
			}
			user.GoogleID = identity.Subject
			span.AddEvent("user.linked")
		}
	}

	if user == nil {
		if email == "" {
			return nil, invalid("email", "identity provider returned no email")
		}
		user = &domain.User{
			ID:        uuid.NewString(),
			Username:  oauthUsername(identity.Name, email),
			Email:     email,
			GoogleID:  identity.Subject,
			CreatedAt: s.now(),
		}
		if err := s.users.Create(ctx, user); err != nil {
			if errors.Is(err, domain.ErrDuplicate) {
				middleware.RecordAuthEvent("oauth", false)
				return nil, fmt.Errorf("create oauth user %q: %w", email, ErrUserExists)
			}
			span.RecordError(err)
			return nil, fmt.Errorf("create oauth user: %w", err)
		}
		span.AddEvent("user.registered")
	}

	if updateErr := s.users.UpdateLastLogin(ctx, user.ID); updateErr != nil {
		span.RecordError(fmt.Errorf("update last_login: %w", updateErr))
	}

	response, err := s.signIn(user)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	middleware.RecordAuthEvent("oauth", true)
	span.SetAttributes(attribute.String("user.id", user.ID))
	return response, nil
}

func oauthUsername(name, email string) string {
	if name = strings.TrimSpace(name); name != "" {
		return name
	}
	if at := strings.IndexByte(email, '@'); at > 0 {
		return email[:at]
	}
	return email
}

// DeleteAccount removes the user and every session they own in one transaction.
func (s *AuthService) DeleteAccount(ctx context.Context, userID string) error {
	ctx, span := startSpan(ctx, "auth.delete_account", attribute.String("user.id", userID))
	defer span.End()

	if err := s.users.DeleteWithSessions(ctx, userID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("delete account %s: %w", userID, ErrUserNotFound)
		}
		span.RecordError(err)
		return fmt.Errorf("delete account %s: %w", userID, err)
	}

	middleware.RecordAuthEvent("delete_account", true)
	pkgzerolog.FromContext(ctx).Info().Str("user_id", userID).Msg("Account deleted")
	return nil
}
