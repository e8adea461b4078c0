package v1

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"

	"github.com/duynhne/poker-service/internal/core/domain"
	"github.com/duynhne/poker-service/middleware"
	pkgzerolog "github.com/duynhne/poker-service/pkg/logger/zerolog"
)

const (
	oauthCookieName = "oauth_state"
	oauthStateKey   = "state"
	oauthStateTTL   = 10 * 60 // seconds
)

// Register handles POST /api/v1/auth/register.
func (h *Handler) Register(c *gin.Context) {
	span := startRequestSpan(c)
	defer span.End()

	var req domain.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, span, err)
		return
	}
	span.SetAttributes(attribute.Bool("request.valid", true))

	response, err := h.auth.Register(c.Request.Context(), req)
	if err != nil {
		respondError(c, span, err, "Registration")
		return
	}

	pkgzerolog.FromContext(c.Request.Context()).Info().Str("user_id", response.User.ID).Msg("Registration successful")
	c.JSON(http.StatusCreated, response)
}

// Login handles POST /api/v1/auth/login.
func (h *Handler) Login(c *gin.Context) {
	span := startRequestSpan(c)
	defer span.End()

	var req domain.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, span, err)
		return
	}
	span.SetAttributes(attribute.Bool("request.valid", true))

	response, err := h.auth.Login(c.Request.Context(), req)
	if err != nil {
		respondError(c, span, err, "Login")
		return
	}

	pkgzerolog.FromContext(c.Request.Context()).Info().Str("user_id", response.User.ID).Msg("Login successful")
	c.JSON(http.StatusOK, response)
}

// GetMe handles GET /api/v1/auth/me.
func (h *Handler) GetMe(c *gin.Context) {
	span := startRequestSpan(c)
	defer span.End()

	user, err := h.auth.Me(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, span, err, "Load current user")
		return
	}
	c.JSON(http.StatusOK, user)
}

// ForgotPassword handles POST /api/v1/auth/forgot-password. The answer does
// not reveal whether the email is registered.
func (h *Handler) ForgotPassword(c *gin.Context) {
	span := startRequestSpan(c)
	defer span.End()

	var req domain.ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, span, err)
		return
	}

	if err := h.auth.ForgotPassword(c.Request.Context(), req); err != nil {
		respondError(c, span, err, "Password reset request")
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "If an account exists for that email, a reset link has been sent"})
}

// ResetPassword handles POST /api/v1/auth/reset-password/:token.
func (h *Handler) ResetPassword(c *gin.Context) {
	span := startRequestSpan(c)
	defer span.End()

	var req domain.ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, span, err)
		return
	}

	if err := h.auth.ResetPassword(c.Request.Context(), c.Param("token"), req); err != nil {
		respondError(c, span, err, "Password reset")
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "Password has been reset"})
}

// ChangePassword handles POST /api/v1/auth/change-password.
func (h *Handler) ChangePassword(c *gin.Context) {
	span := startRequestSpan(c)
	defer span.End()

	var req domain.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, span, err)
		return
	}

	if err := h.auth.ChangePassword(c.Request.Context(), middleware.UserID(c), req); err != nil {
		respondError(c, span, err, "Password change")
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "Password updated"})
}

// DeleteAccount handles DELETE /api/v1/auth/account. All sessions of the
// account are deleted with it.
func (h *Handler) DeleteAccount(c *gin.Context) {
	span := startRequestSpan(c)
	defer span.End()

	if err := h.auth.DeleteAccount(c.Request.Context(), middleware.UserID(c)); err != nil {
		respondError(c, span, err, "Account deletion")
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "Account and sessions deleted"})
}

// GoogleLogin handles GET /api/v1/auth/google by redirecting to the consent
// screen with a random state remembered in a signed cookie.
func (h *Handler) GoogleLogin(c *gin.Context) {
	span := startRequestSpan(c)
	defer span.End()

	if h.google == nil || h.cookies == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Google sign-in is not configured"})
		return
	}

	state, err := randomState()
	if err != nil {
		respondError(c, span, err, "Google sign-in")
		return
	}

	// A stale or tampered cookie still yields a fresh session.
	sess, _ := h.cookies.Get(c.Request, oauthCookieName)
	sess.Values[oauthStateKey] = state
	sess.Options.MaxAge = oauthStateTTL
	sess.Options.HttpOnly = true
	sess.Options.SameSite = http.SameSiteLaxMode
	if err := sess.Save(c.Request, c.Writer); err != nil {
		respondError(c, span, err, "Google sign-in")
		return
	}

	c.Redirect(http.StatusFound, h.google.AuthCodeURL(state))
}

// GoogleCallback handles GET /api/v1/auth/google/callback.
func (h *Handler) GoogleCallback(c *gin.Context) {
	span := startRequestSpan(c)
	defer span.End()

	logger := pkgzerolog.FromContext(c.Request.Context())

	if h.google == nil || h.cookies == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Google sign-in is not configured"})
		return
	}

	sess, _ := h.cookies.Get(c.Request, oauthCookieName)
	expected, _ := sess.Values[oauthStateKey].(string)
	delete(sess.Values, oauthStateKey)
	sess.Options.MaxAge = -1
	if err := sess.Save(c.Request, c.Writer); err != nil {
		logger.Warn().Err(err).Msg("Failed to clear OAuth state cookie")
	}

	state := c.Query("state")
	if expected == "" || subtle.ConstantTimeCompare([]byte(expected), []byte(state)) != 1 {
		span.SetAttributes(attribute.Bool("oauth.state_valid", false))
		logger.Warn().Msg("OAuth state mismatch")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid OAuth state"})
		return
	}
	if providerErr := c.Query("error"); providerErr != "" {
		logger.Warn().Str("provider_error", providerErr).Msg("Google sign-in denied")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authorized"})
		return
	}
	code := c.Query("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing authorization code"})
		return
	}

	identity, err := h.google.Exchange(c.Request.Context(), code)
	if err != nil {
		respondError(c, span, err, "Google code exchange")
		return
	}

	response, err := h.auth.OAuthLogin(c.Request.Context(), identity)
	if err != nil {
		respondError(c, span, err, "Google sign-in")
		return
	}

	logger.Info().Str("user_id", response.User.ID).Msg("Google sign-in successful")
	if h.frontendURL == "" {
		c.JSON(http.StatusOK, response)
		return
	}
	c.Redirect(http.StatusFound, h.frontendURL+"/auth/google/callback?token="+url.QueryEscape(response.Token))
}

func randomState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
