package v1

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/duynhne/poker-service/internal/core/domain"
	logicv1 "github.com/duynhne/poker-service/internal/logic/v1"
	"github.com/duynhne/poker-service/middleware"
)

// metricOptions reads the optional subtractTip query flag.
func metricOptions(c *gin.Context, span trace.Span) (logicv1.MetricOptions, bool) {
	raw := c.Query("subtractTip")
	if raw == "" {
		return logicv1.MetricOptions{}, true
	}
	subtract, err := strconv.ParseBool(raw)
	if err != nil {
		respondError(c, span, &logicv1.ValidationError{Field: "subtractTip", Reason: "must be true or false"}, "Read sessions")
		return logicv1.MetricOptions{}, false
	}
	return logicv1.MetricOptions{SubtractTip: subtract}, true
}

// ListSessions handles GET /api/v1/sessions.
func (h *Handler) ListSessions(c *gin.Context) {
	span := startRequestSpan(c)
	defer span.End()

	opts, ok := metricOptions(c, span)
	if !ok {
		return
	}
	sessions, err := h.sessions.List(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, span, err, "List sessions")
		return
	}
	c.JSON(http.StatusOK, logicv1.NewSessionViews(sessions, opts))
}

// ListActiveSessions handles GET /api/v1/sessions/active.
func (h *Handler) ListActiveSessions(c *gin.Context) {
	span := startRequestSpan(c)
	defer span.End()

	sessions, err := h.sessions.ListActive(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, span, err, "List active sessions")
		return
	}
	c.JSON(http.StatusOK, logicv1.NewSessionViews(sessions, logicv1.MetricOptions{}))
}

// FilterSessions handles GET /api/v1/sessions/filter.
func (h *Handler) FilterSessions(c *gin.Context) {
	span := startRequestSpan(c)
	defer span.End()

	var q domain.FilterQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondBindError(c, span, err)
		return
	}

	views, err := h.sessions.Filter(c.Request.Context(), middleware.UserID(c), q)
	if err != nil {
		respondError(c, span, err, "Filter sessions")
		return
	}
	span.SetAttributes(attribute.Int("session.count", len(views)))
	c.JSON(http.StatusOK, views)
}

// SessionStats handles GET /api/v1/sessions/stats.
func (h *Handler) SessionStats(c *gin.Context) {
	span := startRequestSpan(c)
	defer span.End()

	opts, ok := metricOptions(c, span)
	if !ok {
		return
	}
	stats, err := h.sessions.Stats(c.Request.Context(), middleware.UserID(c), opts)
	if err != nil {
		respondError(c, span, err, "Session stats")
		return
	}
	c.JSON(http.StatusOK, stats)
}

// GetSession handles GET /api/v1/sessions/:id.
func (h *Handler) GetSession(c *gin.Context) {
	span := startRequestSpan(c)
	defer span.End()

	opts, ok := metricOptions(c, span)
	if !ok {
		return
	}
	session, err := h.sessions.Get(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		respondError(c, span, err, "Get session")
		return
	}
	c.JSON(http.StatusOK, logicv1.NewSessionView(*session, opts))
}

// CreateSession handles POST /api/v1/sessions. It starts a live session
// unless the body describes a completed one.
func (h *Handler) CreateSession(c *gin.Context) {
	span := startRequestSpan(c)
	defer span.End()

	var in domain.SessionInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondBindError(c, span, err)
		return
	}

	session, err := h.sessions.Create(c.Request.Context(), middleware.UserID(c), in)
	if err != nil {
		respondError(c, span, err, "Create session")
		return
	}
	c.JSON(http.StatusCreated, logicv1.NewSessionView(*session, logicv1.MetricOptions{}))
}

// UpdateSession handles PUT /api/v1/sessions/:id as a partial update.
func (h *Handler) UpdateSession(c *gin.Context) {
	span := startRequestSpan(c)
	defer span.End()

	var in domain.SessionInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondBindError(c, span, err)
		return
	}

	session, err := h.sessions.Update(c.Request.Context(), middleware.UserID(c), c.Param("id"), in)
	if err != nil {
		respondError(c, span, err, "Update session")
		return
	}
	c.JSON(http.StatusOK, logicv1.NewSessionView(*session, logicv1.MetricOptions{}))
}

// DeleteSession handles DELETE /api/v1/sessions/:id.
func (h *Handler) DeleteSession(c *gin.Context) {
	span := startRequestSpan(c)
	defer span.End()

	if err := h.sessions.Delete(c.Request.Context(), middleware.UserID(c), c.Param("id")); err != nil {
		respondError(c, span, err, "Delete session")
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "Session deleted"})
}

// AddBuyIn handles POST /api/v1/sessions/:id/buy-ins.
func (h *Handler) AddBuyIn(c *gin.Context) {
	span := startRequestSpan(c)
	defer span.End()

	var req domain.AmountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, span, err)
		return
	}

	session, err := h.sessions.AddBuyIn(c.Request.Context(), middleware.UserID(c), c.Param("id"), req.Amount)
	if err != nil {
		respondError(c, span, err, "Add buy-in")
		return
	}
	c.JSON(http.StatusOK, logicv1.NewSessionView(*session, logicv1.MetricOptions{}))
}

// AddTip handles POST /api/v1/sessions/:id/tips.
func (h *Handler) AddTip(c *gin.Context) {
	span := startRequestSpan(c)
	defer span.End()

	var req domain.AmountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, span, err)
		return
	}

	session, err := h.sessions.AddTip(c.Request.Context(), middleware.UserID(c), c.Param("id"), req.Amount)
	if err != nil {
		respondError(c, span, err, "Add tip")
		return
	}
	c.JSON(http.StatusOK, logicv1.NewSessionView(*session, logicv1.MetricOptions{}))
}

// PauseSession handles POST /api/v1/sessions/:id/pause.
func (h *Handler) PauseSession(c *gin.Context) {
	span := startRequestSpan(c)
	defer span.End()

	session, err := h.sessions.Pause(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		respondError(c, span, err, "Pause session")
		return
	}
	c.JSON(http.StatusOK, logicv1.NewSessionView(*session, logicv1.MetricOptions{}))
}

// ResumeSession handles POST /api/v1/sessions/:id/resume.
func (h *Handler) ResumeSession(c *gin.Context) {
	span := startRequestSpan(c)
	defer span.End()

	session, err := h.sessions.Resume(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		respondError(c, span, err, "Resume session")
		return
	}
	c.JSON(http.StatusOK, logicv1.NewSessionView(*session, logicv1.MetricOptions{}))
}

// FinishSession handles POST /api/v1/sessions/:id/finish.
func (h *Handler) FinishSession(c *gin.Context) {
	span := startRequestSpan(c)
	defer span.End()

	var req domain.FinishRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, span, err)
		return
	}

	session, err := h.sessions.Finish(c.Request.Context(), middleware.UserID(c), c.Param("id"), req)
	if err != nil {
		respondError(c, span, err, "Finish session")
		return
	}
	c.JSON(http.StatusOK, logicv1.NewSessionView(*session, logicv1.MetricOptions{}))
}

// DiscardSession handles POST /api/v1/sessions/:id/discard.
func (h *Handler) DiscardSession(c *gin.Context) {
	span := startRequestSpan(c)
	defer span.End()

	if err := h.sessions.Discard(c.Request.Context(), middleware.UserID(c), c.Param("id")); err != nil {
		respondError(c, span, err, "Discard session")
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "Session discarded"})
}
