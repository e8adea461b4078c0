package v1

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/duynhne/poker-service/internal/core/domain"
	"github.com/duynhne/poker-service/middleware"
	pkgzerolog "github.com/duynhne/poker-service/pkg/logger/zerolog"
)

// SessionService implements the poker session lifecycle and history queries.
// Every operation re-checks that the caller owns the session.
type SessionService struct {
	sessions domain.SessionRepository
	now      func() time.Time
}

// NewSessionService creates a new SessionService backed by the given repository.
func NewSessionService(sessions domain.SessionRepository) *SessionService {
	return &SessionService{
		sessions: sessions,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append([]attribute.KeyValue{attribute.String("layer", "logic")}, attrs...)
	return middleware.StartSpan(ctx, name, trace.WithAttributes(attrs...))
}

// Create starts a live session, or records a completed one when the input
// says isActive=false (or omits isActive but carries a cashOut).
func (s *SessionService) Create(ctx context.Context, userID string, in domain.SessionInput) (*domain.Session, error) {
	completed := in.CashOut != nil
	if in.IsActive != nil {
		completed = !*in.IsActive
	}
	if completed {
		return s.CreateCompleted(ctx, userID, in)
	}
	return s.Start(ctx, userID, in)
}

// Start creates an active, running session with a single buy-in entry.
func (s *SessionService) Start(ctx context.Context, userID string, in domain.SessionInput) (*domain.Session, error) {
	ctx, span := startSpan(ctx, "session.start", attribute.String("user.id", userID))
	defer span.End()

	buyIn, err := requireAmount("buyIn", in.BuyIn)
	if err != nil {
		return nil, err
	}
	if in.CashOut != nil {
		return nil, invalid("cashOut", "cannot be set on an active session")
	}
	if in.EndTime != nil {
		return nil, invalid("endTime", "cannot be set on an active session")
	}

	now := s.now()
	start := now
	if in.StartTime != nil {
		start = in.StartTime.UTC()
	}

	session := &domain.Session{
		ID:          uuid.NewString(),
		UserID:      userID,
		BuyIns:      []domain.BuyIn{{Amount: buyIn, At: start}},
		StartTime:   start,
		IsActive:    true,
		IsRunning:   true,
		ResumedAt:   &now,
		Setting:     domain.SettingInPerson,
		SessionType: domain.SessionTypeCash,
		Photos:      []string{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := applyDescriptive(session, in); err != nil {
		return nil, err
	}
	if in.Tip != nil {
		if session.Tip, err = requireAmount("tip", in.Tip); err != nil {
			return nil, err
		}
	}
	if in.ElapsedSeconds != nil {
		if *in.ElapsedSeconds < 0 {
			return nil, invalid("elapsedSeconds", "must not be negative")
		}
		session.ElapsedSeconds = *in.ElapsedSeconds
	}
	session.RecalculateBuyIn()
	session.Duration = minutesCeil(session.ElapsedSeconds)

	if err := s.sessions.Create(ctx, session); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("create session: %w", err)
	}

	middleware.RecordSessionEvent("started")
	span.SetAttributes(attribute.String("session.id", session.ID))
	pkgzerolog.FromContext(ctx).Info().Str("session_id", session.ID).Msg("Session started")
	return session, nil
}

// CreateCompleted records a finished session in one step. Either duration
// (minutes) or endTime must be supplied; the missing one is derived.
func (s *SessionService) CreateCompleted(ctx context.Context, userID string, in domain.SessionInput) (*domain.Session, error) {
	ctx, span := startSpan(ctx, "session.create_completed", attribute.String("user.id", userID))
	defer span.End()

	buyIn, err := requireAmount("buyIn", in.BuyIn)
	if err != nil {
		return nil, err
	}
	cashOut, err := requireAmount("cashOut", in.CashOut)
	if err != nil {
		return nil, err
	}
	if in.StartTime == nil || in.StartTime.IsZero() {
		return nil, invalid("startTime", "is required")
	}
	start := in.StartTime.UTC()

	var (
		end      time.Time
		duration int
	)
	switch {
	case in.Duration != nil:
		if *in.Duration < 0 {
			return nil, invalid("duration", "must not be negative")
		}
		duration = *in.Duration
		end = start.Add(time.Duration(duration) * time.Minute)
		if in.EndTime != nil {
			end = in.EndTime.UTC()
		}
	case in.EndTime != nil:
		end = in.EndTime.UTC()
		duration = minutesCeil(int64(end.Sub(start) / time.Second))
	default:
		return nil, invalid("duration", "duration or endTime is required")
	}
	if end.Before(start) {
		return nil, invalid("endTime", "must not be before startTime")
	}

	now := s.now()
	session := &domain.Session{
		ID:             uuid.NewString(),
		UserID:         userID,
		BuyIns:         []domain.BuyIn{{Amount: buyIn, At: start}},
		CashOut:        &cashOut,
		StartTime:      start,
		EndTime:        &end,
		Duration:       duration,
		ElapsedSeconds: int64(duration) * 60,
		Setting:        domain.SettingInPerson,
		SessionType:    domain.SessionTypeCash,
		Photos:         []string{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := applyDescriptive(session, in); err != nil {
		return nil, err
	}
	if in.Tip != nil {
		if session.Tip, err = requireAmount("tip", in.Tip); err != nil {
			return nil, err
		}
	}
	session.RecalculateBuyIn()

	if err := s.sessions.Create(ctx, session); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("create session: %w", err)
	}

	middleware.RecordSessionEvent("recorded")
	span.SetAttributes(attribute.String("session.id", session.ID))
	return session, nil
}

// Get returns a session owned by userID.
func (s *SessionService) Get(ctx context.Context, userID, id string) (*domain.Session, error) {
	ctx, span := startSpan(ctx, "session.get", attribute.String("session.id", id))
	defer span.End()

	return s.owned(ctx, userID, id)
}

// List returns every session of userID, newest first.
func (s *SessionService) List(ctx context.Context, userID string) ([]domain.Session, error) {
	ctx, span := startSpan(ctx, "session.list", attribute.String("user.id", userID))
	defer span.End()

	sessions, err := s.sessions.ListByUser(ctx, userID, false)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("list sessions of %s: %w", userID, err)
	}
	span.SetAttributes(attribute.Int("session.count", len(sessions)))
	return sessions, nil
}

// ListActive returns the sessions of userID that are still in progress.
func (s *SessionService) ListActive(ctx context.Context, userID string) ([]domain.Session, error) {
	ctx, span := startSpan(ctx, "session.list_active", attribute.String("user.id", userID))
	defer span.End()

	sessions, err := s.sessions.ListByUser(ctx, userID, true)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("list active sessions of %s: %w", userID, err)
	}
	return sessions, nil
}

// Update applies a partial update. Only fields present in the input change;
// explicit zero values are applied.
func (s *SessionService) Update(ctx context.Context, userID, id string, in domain.SessionInput) (*domain.Session, error) {
	ctx, span := startSpan(ctx, "session.update", attribute.String("session.id", id))
	defer span.End()

	session, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	now := s.now()
	finishing := session.IsActive && in.IsActive != nil && !*in.IsActive
	if !session.IsActive && in.IsActive != nil && *in.IsActive {
		return nil, invalid("isActive", "a finished session cannot be reactivated")
	}

	if in.BuyIn != nil {
		amount, err := requireAmount("buyIn", in.BuyIn)
		if err != nil {
			return nil, err
		}
		session.BuyIns = []domain.BuyIn{{Amount: amount, At: session.StartTime}}
		session.RecalculateBuyIn()
	}
	if in.Tip != nil {
		if session.Tip, err = requireAmount("tip", in.Tip); err != nil {
			return nil, err
		}
	}
	if in.StartTime != nil {
		if in.StartTime.IsZero() {
			return nil, invalid("startTime", "must be a valid timestamp")
		}
		session.StartTime = in.StartTime.UTC()
		if in.BuyIn != nil {
			session.BuyIns[0].At = session.StartTime
		}
	}
	if err := applyDescriptive(session, in); err != nil {
		return nil, err
	}

	if session.IsActive {
		if in.CashOut != nil && !finishing {
			return nil, invalid("cashOut", "finish the session to set a cash-out")
		}
		if in.EndTime != nil && !finishing {
			return nil, invalid("endTime", "finish the session to set an end time")
		}
		if err := rebaseClock(session, in, now); err != nil {
			return nil, err
		}
		if finishing {
			cashOut, err := requireAmount("cashOut", in.CashOut)
			if err != nil {
				return nil, err
			}
			end := now
			if in.EndTime != nil {
				end = in.EndTime.UTC()
				if end.Before(session.StartTime) {
					return nil, invalid("endTime", "must not be before startTime")
				}
			}
			finish(session, cashOut, session.ElapsedAt(now), end)
		}
	} else {
		if in.CashOut != nil {
			cashOut, err := requireAmount("cashOut", in.CashOut)
			if err != nil {
				return nil, err
			}
			session.CashOut = &cashOut
		}
		if in.EndTime != nil {
			end := in.EndTime.UTC()
			session.EndTime = &end
		}
		if in.ElapsedSeconds != nil {
			if *in.ElapsedSeconds < 0 {
				return nil, invalid("elapsedSeconds", "must not be negative")
			}
			session.ElapsedSeconds = *in.ElapsedSeconds
			session.Duration = minutesCeil(*in.ElapsedSeconds)
		}
		if in.Duration != nil {
			if *in.Duration < 0 {
				return nil, invalid("duration", "must not be negative")
			}
			session.Duration = *in.Duration
		}
	}

	if session.EndTime != nil && session.EndTime.Before(session.StartTime) {
		return nil, invalid("endTime", "must not be before startTime")
	}

	if err := s.save(ctx, session, now); err != nil {
		span.RecordError(err)
		return nil, err
	}
	if finishing {
		middleware.RecordSessionEvent("finished")
	} else {
		middleware.RecordSessionEvent("updated")
	}
	return session, nil
}

// rebaseClock applies elapsedSeconds or duration supplied by a client timer
// to an active session.
func rebaseClock(session *domain.Session, in domain.SessionInput, now time.Time) error {
	var elapsed *int64
	switch {
	case in.ElapsedSeconds != nil:
		elapsed = in.ElapsedSeconds
	case in.Duration != nil:
		secs := int64(*in.Duration) * 60
		elapsed = &secs
	}
	if elapsed == nil {
		session.Duration = minutesCeil(session.ElapsedAt(now))
		return nil
	}
	if *elapsed < 0 {
		return invalid("elapsedSeconds", "must not be negative")
	}
	session.ElapsedSeconds = *elapsed
	if session.IsRunning {
		session.ResumedAt = &now
	}
	session.Duration = minutesCeil(*elapsed)
	return nil
}

// AddBuyIn appends a buy-in entry to an active session.
func (s *SessionService) AddBuyIn(ctx context.Context, userID, id string, amount *float64) (*domain.Session, error) {
	ctx, span := startSpan(ctx, "session.add_buy_in", attribute.String("session.id", id))
	defer span.End()

	value, err := requireAmount("amount", amount)
	if err != nil {
		return nil, err
	}
	session, err := s.ownedActive(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	now := s.now()
	session.BuyIns = append(session.BuyIns, domain.BuyIn{Amount: value, At: now})
	session.RecalculateBuyIn()
	session.Duration = minutesCeil(session.ElapsedAt(now))

	if err := s.save(ctx, session, now); err != nil {
		span.RecordError(err)
		return nil, err
	}
	middleware.RecordSessionEvent("buy_in")
	return session, nil
}

// AddTip adds amount to the tip of an active session.
func (s *SessionService) AddTip(ctx context.Context, userID, id string, amount *float64) (*domain.Session, error) {
	ctx, span := startSpan(ctx, "session.add_tip", attribute.String("session.id", id))
	defer span.End()

	value, err := requireAmount("amount", amount)
	if err != nil {
		return nil, err
	}
	session, err := s.ownedActive(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	session.Tip += value
	if err := s.save(ctx, session, s.now()); err != nil {
		span.RecordError(err)
		return nil, err
	}
	middleware.RecordSessionEvent("tip")
	return session, nil
}

// Pause stops the clock of an active session. Pausing a paused session is a no-op.
func (s *SessionService) Pause(ctx context.Context, userID, id string) (*domain.Session, error) {
	ctx, span := startSpan(ctx, "session.pause", attribute.String("session.id", id))
	defer span.End()

	session, err := s.ownedActive(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if !session.IsRunning {
		return session, nil
	}

	now := s.now()
	session.ElapsedSeconds = session.ElapsedAt(now)
	session.IsRunning = false
	session.ResumedAt = nil
	session.Duration = minutesCeil(session.ElapsedSeconds)

	if err := s.save(ctx, session, now); err != nil {
		span.RecordError(err)
		return nil, err
	}
	middleware.RecordSessionEvent("paused")
	return session, nil
}

// Resume restarts the clock of a paused session. Resuming a running session is a no-op.
func (s *SessionService) Resume(ctx context.Context, userID, id string) (*domain.Session, error) {
	ctx, span := startSpan(ctx, "session.resume", attribute.String("session.id", id))
	defer span.End()

	session, err := s.ownedActive(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if session.IsRunning {
		return session, nil
	}

	now := s.now()
	session.IsRunning = true
	session.ResumedAt = &now

	if err := s.save(ctx, session, now); err != nil {
		span.RecordError(err)
		return nil, err
	}
	middleware.RecordSessionEvent("resumed")
	return session, nil
}

// Finish closes an active session: cashOut is recorded, endTime is now and
// duration is the elapsed seconds rounded up to minutes. Without
// elapsedSeconds the server clock is used.
func (s *SessionService) Finish(ctx context.Context, userID, id string, req domain.FinishRequest) (*domain.Session, error) {
	ctx, span := startSpan(ctx, "session.finish", attribute.String("session.id", id))
	defer span.End()

	cashOut, err := requireAmount("cashOut", req.CashOut)
	if err != nil {
		return nil, err
	}

	session, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if !session.IsActive {
		return nil, fmt.Errorf("finish session %s: %w", id, ErrSessionFinished)
	}

	if req.Tip != nil {
		if session.Tip, err = requireAmount("tip", req.Tip); err != nil {
			return nil, err
		}
	}

	now := s.now()
	elapsed := session.ElapsedAt(now)
	if req.ElapsedSeconds != nil {
		if *req.ElapsedSeconds < 0 {
			return nil, invalid("elapsedSeconds", "must not be negative")
		}
		elapsed = *req.ElapsedSeconds
	}
	finish(session, cashOut, elapsed, now)

	if err := s.save(ctx, session, now); err != nil {
		span.RecordError(err)
		return nil, err
	}

	middleware.RecordSessionEvent("finished")
	span.SetAttributes(attribute.Int("session.duration_minutes", session.Duration))
	pkgzerolog.FromContext(ctx).Info().
		Str("session_id", session.ID).
		Int("duration", session.Duration).
		Msg("Session finished")
	return session, nil
}

func finish(session *domain.Session, cashOut float64, elapsedSeconds int64, end time.Time) {
	if end.Before(session.StartTime) {
		end = session.StartTime
	}
	session.CashOut = &cashOut
	session.EndTime = &end
	session.ElapsedSeconds = elapsedSeconds
	session.Duration = minutesCeil(elapsedSeconds)
	session.IsActive = false
	session.IsRunning = false
	session.ResumedAt = nil
}

// Discard deletes an active session without recording it.
func (s *SessionService) Discard(ctx context.Context, userID, id string) error {
	ctx, span := startSpan(ctx, "session.discard", attribute.String("session.id", id))
	defer span.End()

	if _, err := s.ownedActive(ctx, userID, id); err != nil {
		return err
	}
	if err := s.remove(ctx, id); err != nil {
		span.RecordError(err)
		return err
	}
	middleware.RecordSessionEvent("discarded")
	return nil
}

// Delete removes a session in any state.
func (s *SessionService) Delete(ctx context.Context, userID, id string) error {
	ctx, span := startSpan(ctx, "session.delete", attribute.String("session.id", id))
	defer span.End()

	if _, err := s.owned(ctx, userID, id); err != nil {
		return err
	}
	if err := s.remove(ctx, id); err != nil {
		span.RecordError(err)
		return err
	}
	middleware.RecordSessionEvent("deleted")
	return nil
}

// Filter returns the sessions of userID matching the query, in the requested order.
func (s *SessionService) Filter(ctx context.Context, userID string, q domain.FilterQuery) ([]SessionView, error) {
	ctx, span := startSpan(ctx, "session.filter", attribute.String("user.id", userID))
	defer span.End()

	filter, err := ParseFilter(q)
	if err != nil {
		return nil, err
	}
	sessions, err := s.List(ctx, userID)
	if err != nil {
		return nil, err
	}

	matched := filter.Apply(sessions)
	span.SetAttributes(attribute.Int("session.matched", len(matched)))
	return NewSessionViews(matched, filter.Metrics), nil
}

// Stats aggregates the finished sessions of userID and builds the cumulative
// profit series.
func (s *SessionService) Stats(ctx context.Context, userID string, opts MetricOptions) (*Stats, error) {
	ctx, span := startSpan(ctx, "session.stats", attribute.String("user.id", userID))
	defer span.End()

	sessions, err := s.List(ctx, userID)
	if err != nil {
		return nil, err
	}

	finished := make([]domain.Session, 0, len(sessions))
	for _, session := range sessions {
		if !session.IsActive {
			finished = append(finished, session)
		}
	}

	return &Stats{
		Summary: Aggregate(finished, opts),
		Series:  CumulativeSeries(finished, opts),
	}, nil
}

func (s *SessionService) owned(ctx context.Context, userID, id string) (*domain.Session, error) {
	session, err := s.sessions.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("query session %s: %w", id, err)
	}
	if session == nil {
		return nil, fmt.Errorf("lookup session %s: %w", id, ErrSessionNotFound)
	}
	if session.UserID != userID {
		return nil, fmt.Errorf("session %s: %w", id, ErrForbidden)
	}
	return session, nil
}

func (s *SessionService) ownedActive(ctx context.Context, userID, id string) (*domain.Session, error) {
	session, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if !session.IsActive {
		return nil, fmt.Errorf("session %s: %w", id, ErrSessionNotActive)
	}
	return session, nil
}

func (s *SessionService) save(ctx context.Context, session *domain.Session, now time.Time) error {
	session.UpdatedAt = now
	if err := s.sessions.Update(ctx, session); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("update session %s: %w", session.ID, ErrSessionNotFound)
		}
		return fmt.Errorf("update session %s: %w", session.ID, err)
	}
	return nil
}

func (s *SessionService) remove(ctx context.Context, id string) error {
	if err := s.sessions.Delete(ctx, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("delete session %s: %w", id, ErrSessionNotFound)
		}
		return fmt.Errorf("delete session %s: %w", id, err)
	}
	return nil
}

// applyDescriptive copies the classification and free-text fields present in in.
func applyDescriptive(session *domain.Session, in domain.SessionInput) error {
	if in.GameType != nil {
		session.GameType = *in.GameType
	}
	if in.Stakes != nil {
		session.Stakes = *in.Stakes
	}
	if in.Setting != nil {
		setting, ok := domain.ParseSetting(*in.Setting)
		if !ok {
			return invalid("setting", `must be "In Person" or "Online"`)
		}
		session.Setting = setting
	}
	if in.SessionType != nil {
		sessionType, ok := domain.ParseSessionType(*in.SessionType)
		if !ok {
			return invalid("sessionType", `must be "Cash" or "Tournament"`)
		}
		session.SessionType = sessionType
	}
	if in.SessionName != nil {
		session.SessionName = *in.SessionName
	}
	if in.Notes != nil {
		session.Notes = *in.Notes
	}
	if in.Photos != nil {
		photos := make([]string, len(*in.Photos))
		copy(photos, *in.Photos)
		session.Photos = photos
	}
	return nil
}

func requireAmount(field string, v *float64) (float64, error) {
	if v == nil {
		return 0, invalid(field, "is required")
	}
	if !isFinite(*v) {
		return 0, invalid(field, "must be a finite number")
	}
	if *v < 0 {
		return 0, invalid(field, "must not be negative")
	}
	return *v, nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// minutesCeil converts seconds to whole minutes, rounding up.
func minutesCeil(seconds int64) int {
	if seconds <= 0 {
		return 0
	}
	return int((seconds + 59) / 60)
}
