package v1

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/duynhne/poker-service/internal/core/domain"
)

// SortKey orders filtered sessions.
type SortKey string

const (
	SortByDate          SortKey = "date"
	SortByProfit        SortKey = "profit"
	SortByDuration      SortKey = "duration"
	SortByProfitPerHour SortKey = "profitPerHour"
)

const dateLayout = "2006-01-02"

// Filter is a parsed predicate set plus sort order. Zero-valued fields impose
// no constraint.
type Filter struct {
	ProfitMin   *float64
	ProfitMax   *float64
	Setting     domain.Setting
	GameType    string
	Stakes      string
	SessionType domain.SessionType
	From        *time.Time // inclusive
	Until       *time.Time // exclusive
	SessionName string

	SortBy     SortKey
	Descending bool
	Metrics    MetricOptions
}

// ParseFilter validates the raw query. Malformed numbers and dates are
// validation errors; unknown setting, session type, sort key or order values
// fall back to no filter or the default order (date, newest first).
func ParseFilter(q domain.FilterQuery) (Filter, error) {
	f := Filter{SortBy: SortByDate, Descending: true}

	var err error
	if f.ProfitMin, err = parseAmount("profitMin", q.ProfitMin); err != nil {
		return Filter{}, err
	}
	if f.ProfitMax, err = parseAmount("profitMax", q.ProfitMax); err != nil {
		return Filter{}, err
	}

	if setting, ok := domain.ParseSetting(q.Setting); ok {
		f.Setting = setting
	}
	if sessionType, ok := domain.ParseSessionType(q.SessionType); ok {
		f.SessionType = sessionType
	}
	if !isWildcard(q.GameType) {
		f.GameType = strings.TrimSpace(q.GameType)
	}
	if !isWildcard(q.Stakes) {
		f.Stakes = strings.TrimSpace(q.Stakes)
	}
	f.SessionName = strings.TrimSpace(q.SessionName)

	if from, _, err := parseDate("startDate", q.StartDate); err != nil {
		return Filter{}, err
	} else if from != nil {
		f.From = from
	}
	if until, dayOnly, err := parseDate("endDate", q.EndDate); err != nil {
		return Filter{}, err
	} else if until != nil {
		end := until.Add(time.Nanosecond)
		if dayOnly {
			end = until.AddDate(0, 0, 1)
		}
		f.Until = &end
	}

	switch SortKey(strings.TrimSpace(q.SortBy)) {
	case SortByProfit:
		f.SortBy = SortByProfit
	case SortByDuration:
		f.SortBy = SortByDuration
	case SortByProfitPerHour:
		f.SortBy = SortByProfitPerHour
	}
	if strings.EqualFold(strings.TrimSpace(q.Order), "asc") {
		f.Descending = false
	}

	if q.SubtractTip != "" {
		subtract, err := strconv.ParseBool(q.SubtractTip)
		if err != nil {
			return Filter{}, invalid("subtractTip", "must be true or false")
		}
		f.Metrics.SubtractTip = subtract
	}

	return f, nil
}

// isWildcard reports whether a free-text enum value means "no filter".
func isWildcard(s string) bool {
	s = strings.TrimSpace(s)
	return s == "" || strings.EqualFold(s, "all") || strings.EqualFold(s, "any")
}

func parseAmount(field, raw string) (*float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || !isFinite(v) {
		return nil, invalid(field, "must be a number")
	}
	return &v, nil
}

// parseDate accepts YYYY-MM-DD (a whole UTC day) or RFC3339.
func parseDate(field, raw string) (*time.Time, bool, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, false, nil
	}
	if t, err := time.Parse(dateLayout, raw); err == nil {
		return &t, true, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, false, invalid(field, "must be YYYY-MM-DD or RFC3339")
	}
	t = t.UTC()
	return &t, false, nil
}

// Match reports whether s satisfies every predicate.
func (f Filter) Match(s *domain.Session) bool {
	if f.ProfitMin != nil || f.ProfitMax != nil {
		if !hasProfit(s) {
			return false
		}
		profit := Profit(s, f.Metrics)
		if f.ProfitMin != nil && profit < *f.ProfitMin {
			return false
		}
		if f.ProfitMax != nil && profit > *f.ProfitMax {
			return false
		}
	}
	if f.Setting != "" && s.Setting != f.Setting {
		return false
	}
	if f.SessionType != "" && s.SessionType != f.SessionType {
		return false
	}
	if f.GameType != "" && !strings.EqualFold(s.GameType.String(), f.GameType) {
		return false
	}
	if f.Stakes != "" && !strings.EqualFold(s.Stakes.String(), f.Stakes) {
		return false
	}
	if f.From != nil && s.StartTime.Before(*f.From) {
		return false
	}
	if f.Until != nil && !s.StartTime.Before(*f.Until) {
		return false
	}
	if f.SessionName != "" && !strings.Contains(strings.ToLower(s.SessionName), strings.ToLower(f.SessionName)) {
		return false
	}
	return true
}

// hasProfit reports whether s is finished with a recorded cash-out.
func hasProfit(s *domain.Session) bool {
	return !s.IsActive && s.CashOut != nil
}

// Apply returns the matching sessions in sort order. Ties keep input order.
// Profit-based orders put sessions without a profit last in either direction.
func (f Filter) Apply(sessions []domain.Session) []domain.Session {
	out := make([]domain.Session, 0, len(sessions))
	for i := range sessions {
		if f.Match(&sessions[i]) {
			out = append(out, sessions[i])
		}
	}

	less := f.less()
	byProfit := f.SortBy == SortByProfit || f.SortBy == SortByProfitPerHour
	sort.SliceStable(out, func(i, j int) bool {
		if byProfit {
			pi, pj := hasProfit(&out[i]), hasProfit(&out[j])
			if pi != pj {
				return pi
			}
			if !pi {
				return false
			}
		}
		if f.Descending {
			return less(&out[j], &out[i])
		}
		return less(&out[i], &out[j])
	})
	return out
}

func (f Filter) less() func(a, b *domain.Session) bool {
	switch f.SortBy {
	case SortByProfit:
		return func(a, b *domain.Session) bool { return Profit(a, f.Metrics) < Profit(b, f.Metrics) }
	case SortByDuration:
		return func(a, b *domain.Session) bool { return a.Duration < b.Duration }
	case SortByProfitPerHour:
		return func(a, b *domain.Session) bool {
			return ProfitPerHour(a, f.Metrics) < ProfitPerHour(b, f.Metrics)
		}
	default:
		return func(a, b *domain.Session) bool { return a.StartTime.Before(b.StartTime) }
	}
}
