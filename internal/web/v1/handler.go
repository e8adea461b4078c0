package v1

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/duynhne/poker-service/internal/core/domain"
	logicv1 "github.com/duynhne/poker-service/internal/logic/v1"
	"github.com/duynhne/poker-service/middleware"
	pkgzerolog "github.com/duynhne/poker-service/pkg/logger/zerolog"
)

// Options carries the optional collaborators of a Handler.
type Options struct {
	// Google is nil when Google sign-in is not configured.
	Google domain.IdentityProvider
	// Cookies keeps the OAuth state between redirect and callback.
	Cookies sessions.Store
	// FrontendURL receives the OAuth callback redirect; empty answers with JSON.
	FrontendURL string
}

// Handler groups HTTP handlers for the poker API v1.
// Dependencies are injected via the constructor, no global state.
type Handler struct {
	auth        *logicv1.AuthService
	sessions    *logicv1.SessionService
	google      domain.IdentityProvider
	cookies     sessions.Store
	frontendURL string
}

// NewHandler creates a new Handler.
func NewHandler(auth *logicv1.AuthService, sessionSvc *logicv1.SessionService, opts Options) *Handler {
	return &Handler{
		auth:        auth,
		sessions:    sessionSvc,
		google:      opts.Google,
		cookies:     opts.Cookies,
		frontendURL: opts.FrontendURL,
	}
}

// RegisterRoutes registers all API v1 routes on the given router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	auth := rg.Group("/auth")
	{
		auth.POST("/register", h.Register)
		auth.POST("/login", h.Login)
		auth.POST("/forgot-password", h.ForgotPassword)
		auth.POST("/reset-password/:token", h.ResetPassword)
		auth.GET("/google", h.GoogleLogin)
		auth.GET("/google/callback", h.GoogleCallback)

		authed := auth.Group("", h.RequireAuth())
		authed.GET("/me", h.GetMe)
		authed.POST("/change-password", h.ChangePassword)
		authed.DELETE("/account", h.DeleteAccount)
	}

	s := rg.Group("/sessions", h.RequireAuth())
	{
		s.GET("", h.ListSessions)
		s.POST("", h.CreateSession)
		s.GET("/active", h.ListActiveSessions)
		s.GET("/filter", h.FilterSessions)
		s.GET("/stats", h.SessionStats)
		s.GET("/:id", h.GetSession)
		s.PUT("/:id", h.UpdateSession)
		s.DELETE("/:id", h.DeleteSession)
		s.POST("/:id/buy-ins", h.AddBuyIn)
		s.POST("/:id/tips", h.AddTip)
		s.POST("/:id/pause", h.PauseSession)
		s.POST("/:id/resume", h.ResumeSession)
		s.POST("/:id/finish", h.FinishSession)
		s.POST("/:id/discard", h.DiscardSession)
	}
}

// startRequestSpan opens the web-layer span shared by every handler.
func startRequestSpan(c *gin.Context) trace.Span {
	ctx, span := middleware.StartSpan(c.Request.Context(), "http.request", trace.WithAttributes(
		attribute.String("layer", "web"),
		attribute.String("method", c.Request.Method),
		attribute.String("path", c.FullPath()),
	))
	c.Request = c.Request.WithContext(ctx)
	return span
}

// RequireAuth rejects requests without a valid access token and stores the
// caller's id for the handlers.
func (h *Handler) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		user, err := h.auth.Authenticate(ctx, middleware.BearerToken(c))
		if err != nil {
			logger := pkgzerolog.FromContext(ctx)
			if errors.Is(err, logicv1.ErrUnauthenticated) || errors.Is(err, logicv1.ErrInvalidToken) {
				logger.Warn().Err(err).Msg("Authentication failed")
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Not authorized"})
				return
			}
			logger.Error().Err(err).Msg("Authentication lookup failed")
			_ = c.Error(err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}

		middleware.SetUserID(c, user.ID)
		c.Next()
	}
}
