package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Leganyst/facility-booking/internal/calendar"
	"github.com/Leganyst/facility-booking/internal/model"
)

type BookingRepository interface {
	// Создать новое бронирование.
	Create(ctx context.Context, booking *model.Booking) error
	// Получить бронирование по ID.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Booking, error)
	// Получить бронирование по ID с блокировкой строки до конца транзакции.
	LockByID(ctx context.Context, id uuid.UUID) (*model.Booking, error)
	// Сохранить интервал, цену и статус.
	UpdateSchedule(ctx context.Context, booking *model.Booking) error
	// Отменить бронирование.
	Cancel(ctx context.Context, id uuid.UUID, cancelledAt time.Time) error
	// Подтверждённые брони области, пересекающиеся с окном.
	ListConfirmedInScope(ctx context.Context, scopeKey string, window calendar.TimeRange, lock bool) ([]model.Booking, error)
	// Брони пользователя с пагинацией, новые сверху.
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]model.Booking, int64, error)
	// Брони на площадках владельца с пагинацией, новые сверху.
	ListByFacilityOwner(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]model.Booking, int64, error)
	// Подтверждённые брони, начинающиеся в [from, to).
	ListConfirmedStartingBetween(ctx context.Context, from, to time.Time) ([]model.Booking, error)
	// Записать событие аудита.
	RecordEvent(ctx context.Context, event *model.Event) error
}

// Реализация на GORM.
type GormBookingRepository struct {
	db *gorm.DB
}

func NewGormBookingRepository(db *gorm.DB) *GormBookingRepository {
	return &GormBookingRepository{db: db}
}

func (r *GormBookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	booking.StartsAt = booking.StartsAt.UTC()
	booking.EndsAt = booking.EndsAt.UTC()
	return r.db.WithContext(ctx).Create(booking).Error
}

func (r *GormBookingRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Booking, error) {
	var b model.Booking
	if err := r.db.WithContext(ctx).First(&b, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *GormBookingRepository) LockByID(ctx context.Context, id uuid.UUID) (*model.Booking, error) {
	var b model.Booking
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&b, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *GormBookingRepository) UpdateSchedule(ctx context.Context, booking *model.Booking) error {
	booking.StartsAt = booking.StartsAt.UTC()
	booking.EndsAt = booking.EndsAt.UTC()
	return r.db.WithContext(ctx).
		Model(&model.Booking{}).
		Where("id = ?", booking.ID).
		Updates(map[string]any{
			"starts_at": booking.StartsAt,
			"ends_at":   booking.EndsAt,
			"price":     booking.Price,
			"status":    booking.Status,
		}).
		Error
}

func (r *GormBookingRepository) Cancel(ctx context.Context, id uuid.UUID, cancelledAt time.Time) error {
	return r.db.WithContext(ctx).
		Model(&model.Booking{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":       model.BookingStatusCancelled,
			"cancelled_at": cancelledAt.UTC(),
		}).
		Error
}

func (r *GormBookingRepository) ListConfirmedInScope(
	ctx context.Context,
	scopeKey string,
	window calendar.TimeRange,
	lock bool,
) ([]model.Booking, error) {
	window = window.UTC()
	q := r.db.WithContext(ctx).
		Model(&model.Booking{}).
		Where("scope_key = ?", scopeKey).
		Where("status = ?", model.BookingStatusConfirmed).
		Where("starts_at < ? AND ends_at > ?", window.End, window.Start)
	if lock {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var bookings []model.Booking
	if err := q.Order("starts_at ASC").Find(&bookings).Error; err != nil {
		return nil, err
	}
	return bookings, nil
}

func (r *GormBookingRepository) ListByUser(
	ctx context.Context,
	userID uuid.UUID,
	limit, offset int,
) ([]model.Booking, int64, error) {
	var (
		bookings []model.Booking
		total    int64
	)

	q := r.db.WithContext(ctx).
		Model(&model.Booking{}).
		Where("user_id = ?", userID)

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if limit > 0 {
		q = q.Limit(limit).Offset(offset)
	}

	if err := q.Order("starts_at DESC").Find(&bookings).Error; err != nil {
		return nil, 0, err
	}

	return bookings, total, nil
}

func (r *GormBookingRepository) ListByFacilityOwner(
	ctx context.Context,
	ownerID uuid.UUID,
	limit, offset int,
) ([]model.Booking, int64, error) {
	var (
		bookings []model.Booking
		total    int64
	)

	q := r.db.WithContext(ctx).
		Model(&model.Booking{}).
		Joins("JOIN facilities ON facilities.id = bookings.facility_id").
		Where("facilities.owner_id = ?", ownerID)

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if limit > 0 {
		q = q.Limit(limit).Offset(offset)
	}

	err := q.Select("bookings.*").
		Order("bookings.starts_at DESC").
		Find(&bookings).Error
	if err != nil {
		return nil, 0, err
	}

	return bookings, total, nil
}

func (r *GormBookingRepository) ListConfirmedStartingBetween(ctx context.Context, from, to time.Time) ([]model.Booking, error) {
	var bookings []model.Booking
	err := r.db.WithContext(ctx).
		Where("status = ?", model.BookingStatusConfirmed).
		Where("starts_at >= ? AND starts_at < ?", from.UTC(), to.UTC()).
		Order("starts_at ASC").
		Find(&bookings).Error
	if err != nil {
		return nil, err
	}
	return bookings, nil
}

func (r *GormBookingRepository) RecordEvent(ctx context.Context, event *model.Event) error {
	return r.db.WithContext(ctx).Create(event).Error
}
