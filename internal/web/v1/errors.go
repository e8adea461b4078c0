package v1

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	logicv1 "github.com/duynhne/poker-service/internal/logic/v1"
	pkgzerolog "github.com/duynhne/poker-service/pkg/logger/zerolog"
)

type errorMapping struct {
	target  error
	status  int
	message string
}

// Order matters: the first match wins.
var errorMappings = []errorMapping{
	{logicv1.ErrInvalidResetToken, http.StatusBadRequest, "Invalid or expired reset token"},
	{logicv1.ErrInvalidCredentials, http.StatusUnauthorized, "Invalid credentials"},
	{logicv1.ErrUnauthenticated, http.StatusUnauthorized, "Not authorized"},
	{logicv1.ErrInvalidToken, http.StatusUnauthorized, "Not authorized"},
	{logicv1.ErrForbidden, http.StatusForbidden, "Not allowed to access this session"},
	{logicv1.ErrSessionNotFound, http.StatusNotFound, "Session not found"},
	{logicv1.ErrUserNotFound, http.StatusNotFound, "User not found"},
	{logicv1.ErrUserExists, http.StatusConflict, "User already exists"},
	{logicv1.ErrSessionFinished, http.StatusConflict, "Session already finished"},
	{logicv1.ErrSessionNotActive, http.StatusConflict, "Session is not active"},
}

// respondError maps err onto a status and a client-safe message. Unknown
// errors become a generic 500 so store and provider details never leak.
func respondError(c *gin.Context, span trace.Span, err error, action string) {
	span.RecordError(err)
	_ = c.Error(err)
	logger := pkgzerolog.FromContext(c.Request.Context())

	var verr *logicv1.ValidationError
	if errors.As(err, &verr) {
		logger.Warn().Err(err).Str("field", verr.Field).Msg(action + " rejected")
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Error(), "field": verr.Field})
		return
	}

	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			logger.Warn().Err(err).Msg(action + " failed")
			c.JSON(m.status, gin.H{"error": m.message})
			return
		}
	}

	logger.Error().Err(err).Msg(action + " failed")
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
}

// respondBindError reports a request body or query that failed to bind.
func respondBindError(c *gin.Context, span trace.Span, err error) {
	span.SetAttributes(attribute.Bool("request.valid", false))
	span.RecordError(err)
	pkgzerolog.FromContext(c.Request.Context()).Warn().Err(err).Msg("Invalid request")

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		c.JSON(http.StatusBadRequest, gin.H{
			"error": fieldMessage(fe),
			"field": lowerFirst(fe.Field()),
		})
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
}

func fieldMessage(fe validator.FieldError) string {
	field := lowerFirst(fe.Field())
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email"
	case "min":
		return field + " must be at least " + fe.Param() + " characters"
	case "max":
		return field + " must be at most " + fe.Param() + " characters"
	default:
		return field + " is invalid"
	}
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
