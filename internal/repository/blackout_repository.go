package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Leganyst/facility-booking/internal/calendar"
	"github.com/Leganyst/facility-booking/internal/model"
)

type BlackoutRepository interface {
	// Блэкауты площадки, пересекающиеся с окном.
	ListOverlapping(ctx context.Context, facilityID uuid.UUID, window calendar.TimeRange) ([]model.Blackout, error)
	Create(ctx context.Context, blackout *model.Blackout) error
}

type GormBlackoutRepository struct {
	db *gorm.DB
}

func NewGormBlackoutRepository(db *gorm.DB) *GormBlackoutRepository {
	return &GormBlackoutRepository{db: db}
}

func (r *GormBlackoutRepository) ListOverlapping(
	ctx context.Context,
	facilityID uuid.UUID,
	window calendar.TimeRange,
) ([]model.Blackout, error) {
	window = window.UTC()
	var blackouts []model.Blackout
	err := r.db.WithContext(ctx).
		Where("facility_id = ?", facilityID).
		Where("starts_at < ? AND ends_at > ?", window.End, window.Start).
		Order("starts_at ASC").
		Find(&blackouts).Error
	if err != nil {
		return nil, err
	}
	return blackouts, nil
}

func (r *GormBlackoutRepository) Create(ctx context.Context, blackout *model.Blackout) error {
	return r.db.WithContext(ctx).Create(blackout).Error
}
