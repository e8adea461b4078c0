package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/duynhne/poker-service/internal/core/domain"
)

// GormUserRepository implements domain.UserRepository on the embedded sqlite store.
type GormUserRepository struct {
	db *gorm.DB
}

// NewGormUserRepository creates a new GormUserRepository.
func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

func (r *GormUserRepository) first(ctx context.Context, query string, arg any) (*domain.User, error) {
	var rec userRecord
	err := r.db.WithContext(ctx).Where(query, arg).First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return rec.toDomain(), nil
}

// GetByID returns the user with the given id, or (nil, nil) when none exists.
func (r *GormUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.first(ctx, "id = ?", id)
}

// GetByEmail returns the user with the given normalized email.
func (r *GormUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.first(ctx, "email = ?", email)
}

// GetByGoogleID returns the user linked to the Google subject id.
func (r *GormUserRepository) GetByGoogleID(ctx context.Context, googleID string) (*domain.User, error) {
	return r.first(ctx, "google_id = ?", googleID)
}

// GetByResetTokenHash returns the user holding the given reset token hash.
func (r *GormUserRepository) GetByResetTokenHash(ctx context.Context, hash string) (*domain.User, error) {
	return r.first(ctx, "reset_token_hash = ?", hash)
}

// ExistsByEmail reports whether an account uses email.
func (r *GormUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&userRecord{}).Where("email = ?", email).Count(&count).Error
	return count > 0, err
}

// Create inserts a new user. A taken email or Google id yields domain.ErrDuplicate.
func (r *GormUserRepository) Create(ctx context.Context, u *domain.User) error {
	err := r.db.WithContext(ctx).Create(userToRecord(u)).Error
	if err != nil && isUniqueViolation(err) {
		return domain.ErrDuplicate
	}
	return err
}

// UpdatePassword replaces the password hash.
func (r *GormUserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	return r.updates(ctx, id, map[string]any{
		"password_hash":    passwordHash,
		"reset_token_hash": nil,
		"reset_expires_at": nil,
	})
}

// SetResetToken stores a reset token hash and its expiry.
func (r *GormUserRepository) SetResetToken(ctx context.Context, id, tokenHash string, expiresAt time.Time) error {
	return r.updates(ctx, id, map[string]any{
		"reset_token_hash": tokenHash,
		"reset_expires_at": expiresAt,
	})
}

// ClearResetToken removes any pending reset token.
func (r *GormUserRepository) ClearResetToken(ctx context.Context, id string) error {
	return r.updates(ctx, id, map[string]any{
		"reset_token_hash": nil,
		"reset_expires_at": nil,
	})
}

// LinkGoogleID attaches a Google subject id to an existing account.
func (r *GormUserRepository) LinkGoogleID(ctx context.Context, id, googleID string) error {
	err := r.updates(ctx, id, map[string]any{"google_id": googleID})
	if err != nil && !errors.Is(err, domain.ErrNotFound) && isUniqueViolation(err) {
		return domain.ErrDuplicate
	}
	return err
}

// UpdateLastLogin stamps the current time as the last login.
func (r *GormUserRepository) UpdateLastLogin(ctx context.Context, id string) error {
	return r.updates(ctx, id, map[string]any{"last_login": time.Now().UTC()})
}

// DeleteWithSessions deletes the user's sessions and then the user in one transaction.
func (r *GormUserRepository) DeleteWithSessions(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", id).Delete(&sessionRecord{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&userRecord{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrNotFound
		}
		return nil
	})
}

func (r *GormUserRepository) updates(ctx context.Context, id string, values map[string]any) error {
	res := r.db.WithContext(ctx).Model(&userRecord{}).Where("id = ?", id).Updates(values)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
