package repository

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/duynhne/poker-service/internal/core/domain"
)

// userRecord is the gorm row for users.
type userRecord struct {
	ID             string  `gorm:"primaryKey;type:varchar(36)"`
	Username       string  `gorm:"not null"`
	Email          string  `gorm:"uniqueIndex;not null"`
	PasswordHash   string  `gorm:"not null;default:''"`
	GoogleID       *string `gorm:"uniqueIndex"`
	ResetTokenHash *string `gorm:"index"`
	ResetExpiresAt *time.Time
	CreatedAt      time.Time `gorm:"autoCreateTime:false"`
	LastLogin      *time.Time
}

func (userRecord) TableName() string { return "users" }

// sessionRecord is the gorm row for poker sessions.
type sessionRecord struct {
	ID             string         `gorm:"primaryKey;type:varchar(36)"`
	UserID         string         `gorm:"index:idx_poker_sessions_user_start,priority:1;not null;type:varchar(36)"`
	BuyIn          float64        `gorm:"not null;default:0"`
	BuyIns         []domain.BuyIn `gorm:"serializer:json"`
	CashOut        *float64
	Tip            float64   `gorm:"not null;default:0"`
	StartTime      time.Time `gorm:"index:idx_poker_sessions_user_start,priority:2;not null"`
	EndTime        *time.Time
	Duration       int   `gorm:"not null;default:0"`
	ElapsedSeconds int64 `gorm:"not null;default:0"`
	IsRunning      bool  `gorm:"not null;default:false"`
	ResumedAt      *time.Time
	GameType       string
	Stakes         string
	Setting        string
	SessionType    string
	SessionName    string
	Notes          string
	Photos         []string  `gorm:"serializer:json"`
	IsActive       bool      `gorm:"index;not null"`
	CreatedAt      time.Time `gorm:"autoCreateTime:false"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime:false"`
}

func (sessionRecord) TableName() string { return "poker_sessions" }

// GormModels returns the models the embedded store migrates.
func GormModels() []any {
	return []any{&userRecord{}, &sessionRecord{}}
}

func userToRecord(u *domain.User) *userRecord {
	return &userRecord{
		ID:             u.ID,
		Username:       u.Username,
		Email:          u.Email,
		PasswordHash:   u.PasswordHash,
		GoogleID:       nullIfEmpty(u.GoogleID),
		ResetTokenHash: nullIfEmpty(u.ResetTokenHash),
		ResetExpiresAt: u.ResetExpiresAt,
		CreatedAt:      u.CreatedAt,
		LastLogin:      u.LastLogin,
	}
}

func (r *userRecord) toDomain() *domain.User {
	return &domain.User{
		ID:             r.ID,
		Username:       r.Username,
		Email:          r.Email,
		PasswordHash:   r.PasswordHash,
		GoogleID:       derefString(r.GoogleID),
		ResetTokenHash: derefString(r.ResetTokenHash),
		ResetExpiresAt: r.ResetExpiresAt,
		CreatedAt:      r.CreatedAt,
		LastLogin:      r.LastLogin,
	}
}

func sessionToRecord(s *domain.Session) *sessionRecord {
	return &sessionRecord{
		ID:             s.ID,
		UserID:         s.UserID,
		BuyIn:          s.BuyIn,
		BuyIns:         nonNilBuyIns(s.BuyIns),
		CashOut:        s.CashOut,
		Tip:            s.Tip,
		StartTime:      s.StartTime,
		EndTime:        s.EndTime,
		Duration:       s.Duration,
		ElapsedSeconds: s.ElapsedSeconds,
		IsRunning:      s.IsRunning,
		ResumedAt:      s.ResumedAt,
		GameType:       s.GameType.String(),
		Stakes:         s.Stakes.String(),
		Setting:        string(s.Setting),
		SessionType:    string(s.SessionType),
		SessionName:    s.SessionName,
		Notes:          s.Notes,
		Photos:         nonNilStrings(s.Photos),
		IsActive:       s.IsActive,
		CreatedAt:      s.CreatedAt,
		UpdatedAt:      s.UpdatedAt,
	}
}

func (r *sessionRecord) toDomain() domain.Session {
	return domain.Session{
		ID:             r.ID,
		UserID:         r.UserID,
		BuyIn:          r.BuyIn,
		BuyIns:         r.BuyIns,
		CashOut:        r.CashOut,
		Tip:            r.Tip,
		StartTime:      r.StartTime,
		EndTime:        r.EndTime,
		Duration:       r.Duration,
		ElapsedSeconds: r.ElapsedSeconds,
		IsRunning:      r.IsRunning,
		ResumedAt:      r.ResumedAt,
		GameType:       gameTypeFromColumn(r.GameType),
		Stakes:         stakesFromColumn(r.Stakes),
		Setting:        domain.Setting(r.Setting),
		SessionType:    domain.SessionType(r.SessionType),
		SessionName:    r.SessionName,
		Notes:          r.Notes,
		Photos:         r.Photos,
		IsActive:       r.IsActive,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

func isUniqueViolation(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "UNIQUE constraint failed")
}
