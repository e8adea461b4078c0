package domain

import (
	"strings"
	"time"
)

// Setting is where a session was played.
type Setting string

const (
	SettingInPerson Setting = "In Person"
	SettingOnline   Setting = "Online"
)

// ParseSetting matches s case-insensitively against the known settings.
func ParseSetting(s string) (Setting, bool) {
	for _, v := range []Setting{SettingInPerson, SettingOnline} {
		if strings.EqualFold(strings.TrimSpace(s), string(v)) {
			return v, true
		}
	}
	return "", false
}

// SessionType distinguishes cash games from tournaments.
type SessionType string

const (
	SessionTypeCash       SessionType = "Cash"
	SessionTypeTournament SessionType = "Tournament"
)

// ParseSessionType matches s case-insensitively against the known session types.
func ParseSessionType(s string) (SessionType, bool) {
	for _, v := range []SessionType{SessionTypeCash, SessionTypeTournament} {
		if strings.EqualFold(strings.TrimSpace(s), string(v)) {
			return v, true
		}
	}
	return "", false
}

// BuyIn is a single buy-in entry of a session.
type BuyIn struct {
	Amount float64   `json:"amount"`
	At     time.Time `json:"at"`
}

// Session is one poker-playing episode owned by exactly one user.
//
// While IsActive is true the session has no EndTime and no CashOut. The live
// clock is ElapsedSeconds (time accumulated before the last resume) plus the
// time since ResumedAt while IsRunning.
type Session struct {
	ID     string `json:"id"`
	UserID string `json:"userId"`

	BuyIn   float64  `json:"buyIn"`
	BuyIns  []BuyIn  `json:"buyIns"`
	CashOut *float64 `json:"cashOut"`
	Tip     float64  `json:"tip"`

	StartTime      time.Time  `json:"startTime"`
	EndTime        *time.Time `json:"endTime"`
	Duration       int        `json:"duration"` // minutes
	ElapsedSeconds int64      `json:"elapsedSeconds"`
	IsRunning      bool       `json:"isRunning"`
	ResumedAt      *time.Time `json:"resumedAt,omitempty"`

	GameType    GameType    `json:"gameType"`
	Stakes      Stakes      `json:"stakes"`
	Setting     Setting     `json:"setting"`
	SessionType SessionType `json:"sessionType"`

	SessionName string   `json:"sessionName"`
	Notes       string   `json:"notes"`
	Photos      []string `json:"photos"`

	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// RecalculateBuyIn sets BuyIn to the sum of the buy-in entries.
func (s *Session) RecalculateBuyIn() {
	var total float64
	for _, b := range s.BuyIns {
		total += b.Amount
	}
	s.BuyIn = total
}

// ElapsedAt returns the live clock value in seconds at now.
func (s *Session) ElapsedAt(now time.Time) int64 {
	elapsed := s.ElapsedSeconds
	if s.IsRunning && s.ResumedAt != nil && now.After(*s.ResumedAt) {
		elapsed += int64(now.Sub(*s.ResumedAt) / time.Second)
	}
	return elapsed
}

// CashOutValue returns the cash-out amount, zero when not set.
func (s *Session) CashOutValue() float64 {
	if s.CashOut == nil {
		return 0
	}
	return *s.CashOut
}
