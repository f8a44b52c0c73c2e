package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Leganyst/facility-booking/internal/model"
)

type ProfileRepository interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) (*model.Profile, error)
	EnsureByUserID(ctx context.Context, userID uuid.UUID, phone string) (*model.Profile, error)
}

type GormProfileRepository struct {
	db *gorm.DB
}

func NewGormProfileRepository(db *gorm.DB) *GormProfileRepository {
	return &GormProfileRepository{db: db}
}

func (r *GormProfileRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*model.Profile, error) {
	var p model.Profile
	if err := r.db.WithContext(ctx).First(&p, "user_id = ?", userID).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// EnsureByUserID возвращает профиль пользователя, создавая его при отсутствии.
func (r *GormProfileRepository) EnsureByUserID(ctx context.Context, userID uuid.UUID, phone string) (*model.Profile, error) {
	if userID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	var p model.Profile
	tx := r.db.WithContext(ctx).First(&p, "user_id = ?", userID)
	if tx.Error == nil {
		return &p, nil
	}
	if !errors.Is(tx.Error, gorm.ErrRecordNotFound) {
		return nil, tx.Error
	}

	p = model.Profile{UserID: userID, Phone: normalizePhone(phone)}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "user_id"}}, DoNothing: true}).
		Create(&p)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return r.GetByUserID(ctx, userID)
	}
	return &p, nil
}
