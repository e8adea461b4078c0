package v1

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/duynhne/poker-service/internal/core/domain"
)

// MetricOptions controls how profit is derived.
type MetricOptions struct {
	// SubtractTip deducts the session tip from profit.
	SubtractTip bool
}

var minutesPerHour = decimal.NewFromInt(60)

func profitDecimal(s *domain.Session, opts MetricOptions) decimal.Decimal {
	p := decimal.NewFromFloat(s.CashOutValue()).Sub(decimal.NewFromFloat(s.BuyIn))
	if opts.SubtractTip {
		p = p.Sub(decimal.NewFromFloat(s.Tip))
	}
	return p
}

// Profit returns cashOut - buyIn (- tip), rounded to cents.
func Profit(s *domain.Session, opts MetricOptions) float64 {
	return profitDecimal(s, opts).Round(2).InexactFloat64()
}

// ProfitPerHour returns profit divided by the duration in hours, rounded to
// cents. A session without duration yields 0.
func ProfitPerHour(s *domain.Session, opts MetricOptions) float64 {
	if s.Duration <= 0 {
		return 0
	}
	return profitDecimal(s, opts).
		Mul(minutesPerHour).
		Div(decimal.NewFromInt(int64(s.Duration))).
		Round(2).
		InexactFloat64()
}

// SessionView is a session enriched with its derived metrics. Profit fields
// are null while the session is still active.
type SessionView struct {
	domain.Session
	Profit        *float64 `json:"profit"`
	ProfitPerHour *float64 `json:"profitPerHour"`
}

// NewSessionView derives the metrics of s.
func NewSessionView(s domain.Session, opts MetricOptions) SessionView {
	v := SessionView{Session: s}
	if !s.IsActive {
		profit := Profit(&s, opts)
		perHour := ProfitPerHour(&s, opts)
		v.Profit = &profit
		v.ProfitPerHour = &perHour
	}
	return v
}

// NewSessionViews derives the metrics of every session, keeping order.
func NewSessionViews(sessions []domain.Session, opts MetricOptions) []SessionView {
	views := make([]SessionView, 0, len(sessions))
	for _, s := range sessions {
		views = append(views, NewSessionView(s, opts))
	}
	return views
}

// SeriesPoint is one step of the cumulative profit chart.
type SeriesPoint struct {
	Date       time.Time `json:"date"`
	SessionID  string    `json:"sessionId"`
	Profit     float64   `json:"profit"`
	Cumulative float64   `json:"cumulativeProfit"`
}

// CumulativeSeries orders sessions by start time (id breaks ties) and emits
// the running profit total. Sessions without a start time are skipped. The
// result does not depend on the order of the input.
func CumulativeSeries(sessions []domain.Session, opts MetricOptions) []SeriesPoint {
	ordered := make([]domain.Session, 0, len(sessions))
	for _, s := range sessions {
		if s.StartTime.IsZero() {
			continue
		}
		ordered = append(ordered, s)
	}
	sort.Slice(ordered, func(i, j int) bool {
		if !ordered[i].StartTime.Equal(ordered[j].StartTime) {
			return ordered[i].StartTime.Before(ordered[j].StartTime)
		}
		return ordered[i].ID < ordered[j].ID
	})

	points := make([]SeriesPoint, 0, len(ordered))
	running := decimal.Zero
	for i := range ordered {
		p := profitDecimal(&ordered[i], opts)
		running = running.Add(p)
		points = append(points, SeriesPoint{
			Date:       ordered[i].StartTime,
			SessionID:  ordered[i].ID,
			Profit:     p.Round(2).InexactFloat64(),
			Cumulative: running.Round(2).InexactFloat64(),
		})
	}
	return points
}

// Summary aggregates a set of sessions.
type Summary struct {
	Sessions    int     `json:"sessions"`
	TotalProfit float64 `json:"totalProfit"`
	TotalHours  float64 `json:"totalHours"`
	HourlyRate  float64 `json:"hourlyRate"`
}

// Aggregate sums profit and duration over sessions. Hours are the summed
// durations divided by 60; the hourly rate is 0 when no time was played.
func Aggregate(sessions []domain.Session, opts MetricOptions) Summary {
	profit := decimal.Zero
	var minutes int64
	for i := range sessions {
		profit = profit.Add(profitDecimal(&sessions[i], opts))
		if sessions[i].Duration > 0 {
			minutes += int64(sessions[i].Duration)
		}
	}

	summary := Summary{
		Sessions:    len(sessions),
		TotalProfit: profit.Round(2).InexactFloat64(),
		TotalHours:  decimal.NewFromInt(minutes).Div(minutesPerHour).Round(2).InexactFloat64(),
	}
	if minutes > 0 {
		summary.HourlyRate = profit.Mul(minutesPerHour).Div(decimal.NewFromInt(minutes)).Round(2).InexactFloat64()
	}
	return summary
}

// Stats is the dashboard payload.
type Stats struct {
	Summary Summary       `json:"summary"`
	Series  []SeriesPoint `json:"series"`
}
