package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const (
	// LegacyTokenHeader is the header older clients send the token in.
	LegacyTokenHeader = "x-auth-token"

	userIDKey    = "user_id"
	bearerPrefix = "Bearer "
)

// BearerToken extracts the access token from "Authorization: Bearer <token>",
// falling back to the legacy x-auth-token header. Returns "" when absent or
// malformed.
func BearerToken(c *gin.Context) string {
	if authHeader := c.GetHeader("Authorization"); authHeader != "" {
		if len(authHeader) <= len(bearerPrefix) || !strings.EqualFold(authHeader[:len(bearerPrefix)], bearerPrefix) {
			return ""
		}
		return strings.TrimSpace(authHeader[len(bearerPrefix):])
	}
	return strings.TrimSpace(c.GetHeader(LegacyTokenHeader))
}

// SetUserID stores the authenticated user id on the gin context and tags the
// request logger with it.
func SetUserID(c *gin.Context, userID string) {
	c.Set(userIDKey, userID)

	ctx := c.Request.Context()
	logger := zerolog.Ctx(ctx).With().Str("user_id", userID).Logger()
	c.Request = c.Request.WithContext(logger.WithContext(ctx))
}

// UserID returns the authenticated user id, or "" on public routes.
func UserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}
