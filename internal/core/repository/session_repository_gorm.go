package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/duynhne/poker-service/internal/core/domain"
)

// GormSessionRepository implements domain.SessionRepository on the embedded sqlite store.
type GormSessionRepository struct {
	db *gorm.DB
}

// NewGormSessionRepository creates a new GormSessionRepository.
func NewGormSessionRepository(db *gorm.DB) *GormSessionRepository {
	return &GormSessionRepository{db: db}
}

// Create inserts a new session.
func (r *GormSessionRepository) Create(ctx context.Context, s *domain.Session) error {
	return r.db.WithContext(ctx).Create(sessionToRecord(s)).Error
}

// GetByID returns the session with the given id, or (nil, nil) when none exists.
func (r *GormSessionRepository) GetByID(ctx context.Context, id string) (*domain.Session, error) {
	var rec sessionRecord
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	s := rec.toDomain()
	return &s, nil
}

// ListByUser returns the sessions owned by userID, newest start first.
func (r *GormSessionRepository) ListByUser(ctx context.Context, userID string, activeOnly bool) ([]domain.Session, error) {
	q := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}

	var recs []sessionRecord
	if err := q.Order("start_time DESC").Order("created_at DESC").Find(&recs).Error; err != nil {
		return nil, err
	}

	sessions := make([]domain.Session, 0, len(recs))
	for i := range recs {
		sessions = append(sessions, recs[i].toDomain())
	}
	return sessions, nil
}

// Update overwrites every mutable column of the stored session.
func (r *GormSessionRepository) Update(ctx context.Context, s *domain.Session) error {
	res := r.db.WithContext(ctx).
		Model(&sessionRecord{}).
		Where("id = ?", s.ID).
		Select("*").
		Omit("id", "user_id", "created_at").
		Updates(sessionToRecord(s))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete removes the session.
func (r *GormSessionRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&sessionRecord{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
