package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Leganyst/facility-booking/internal/model"
)

// FacilityRepository читает площадки и корты. Их жизненным циклом управляет провайдер,
// ядру нужны только чтение и блокировка родительской строки области.
type FacilityRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Facility, error)
	ListByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Facility, error)
	// Блокирует строку площадки до конца транзакции.
	LockByID(ctx context.Context, id uuid.UUID) (*model.Facility, error)
	Create(ctx context.Context, facility *model.Facility) error

	GetCourt(ctx context.Context, id uuid.UUID) (*model.Court, error)
	// Блокирует строку корта до конца транзакции.
	LockCourt(ctx context.Context, id uuid.UUID) (*model.Court, error)
	CountActiveCourts(ctx context.Context, facilityID uuid.UUID) (int64, error)
	CreateCourt(ctx context.Context, court *model.Court) error
}

type GormFacilityRepository struct {
	db *gorm.DB
}

func NewGormFacilityRepository(db *gorm.DB) *GormFacilityRepository {
	return &GormFacilityRepository{db: db}
}

func (r *GormFacilityRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Facility, error) {
	var f model.Facility
	if err := r.db.WithContext(ctx).First(&f, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *GormFacilityRepository) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Facility, error) {
	if len(ids) == 0 {
		return []model.Facility{}, nil
	}
	var facilities []model.Facility
	err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&facilities).Error
	if err != nil {
		return nil, err
	}
	return facilities, nil
}

func (r *GormFacilityRepository) LockByID(ctx context.Context, id uuid.UUID) (*model.Facility, error) {
	var f model.Facility
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&f, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *GormFacilityRepository) Create(ctx context.Context, facility *model.Facility) error {
	return r.db.WithContext(ctx).Create(facility).Error
}

func (r *GormFacilityRepository) GetCourt(ctx context.Context, id uuid.UUID) (*model.Court, error) {
	var c model.Court
	if err := r.db.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *GormFacilityRepository) LockCourt(ctx context.Context, id uuid.UUID) (*model.Court, error) {
	var c model.Court
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&c, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *GormFacilityRepository) CountActiveCourts(ctx context.Context, facilityID uuid.UUID) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&model.Court{}).
		Where("facility_id = ? AND is_active = ?", facilityID, true).
		Count(&n).Error
	return n, err
}

func (r *GormFacilityRepository) CreateCourt(ctx context.Context, court *model.Court) error {
	return r.db.WithContext(ctx).Create(court).Error
}
