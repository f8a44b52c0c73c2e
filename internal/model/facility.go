package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/Leganyst/facility-booking/internal/calendar"
)

// Facility — бронируемая площадка (комплекс кортов) с часами работы и базовой ставкой.
type Facility struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`

	// Владелец-провайдер; может отсутствовать у площадок, заведённых администратором.
	OwnerID *uuid.UUID `gorm:"type:uuid;index"`

	Name        string `gorm:"type:varchar(120);not null;uniqueIndex"`
	Location    string `gorm:"type:varchar(200)"`
	Description string `gorm:"type:text"`

	// Время суток в локальном поясе площадки.
	OpenTime  datatypes.Time `gorm:"not null"`
	CloseTime datatypes.Time `gorm:"not null"`

	SlotLengthMinutes int             `gorm:"not null;default:60"`
	BasePrice         decimal.Decimal `gorm:"type:numeric(10,2);not null"`

	// IANA-имя пояса; пустое значение — пояс сервиса по умолчанию.
	TimeZone string `gorm:"type:varchar(64)"`

	CreatedAt time.Time
	UpdatedAt time.Time

	Owner  *User   `gorm:"foreignKey:OwnerID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL"`
	Courts []Court `gorm:"foreignKey:FacilityID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (f *Facility) BeforeCreate(*gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}

// Zone возвращает пояс площадки или defaultLoc, если он не задан.
func (f *Facility) Zone(defaultLoc *time.Location) (*time.Location, error) {
	if f.TimeZone == "" {
		if defaultLoc == nil {
			return time.UTC, nil
		}
		return defaultLoc, nil
	}
	loc, err := time.LoadLocation(f.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("facility %s timezone %q: %w", f.ID, f.TimeZone, err)
	}
	return loc, nil
}

// Rules переводит настройки площадки в правила календаря и проверяет их инварианты.
func (f *Facility) Rules(defaultLoc *time.Location) (calendar.Rules, error) {
	loc, err := f.Zone(defaultLoc)
	if err != nil {
		return calendar.Rules{}, err
	}
	r := calendar.Rules{
		Open:       time.Duration(f.OpenTime),
		Close:      time.Duration(f.CloseTime),
		SlotLength: time.Duration(f.SlotLengthMinutes) * time.Minute,
		Location:   loc,
	}
	if err := r.Validate(); err != nil {
		return calendar.Rules{}, fmt.Errorf("facility %s: %w", f.ID, err)
	}
	return r, nil
}

// Court — отдельно бронируемая единица внутри площадки.
type Court struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	FacilityID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_court_facility_name"`
	Name       string    `gorm:"type:varchar(50);not null;uniqueIndex:idx_court_facility_name"`
	IsActive   bool      `gorm:"not null"`

	CreatedAt time.Time
	UpdatedAt time.Time

	Facility *Facility `gorm:"foreignKey:FacilityID"`
}

func (c *Court) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// Blackout — интервал, когда площадка (все её корты) недоступна.
type Blackout struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	FacilityID uuid.UUID `gorm:"type:uuid;not null;index"`
	StartsAt   time.Time `gorm:"not null;index"`
	EndsAt     time.Time `gorm:"not null"`
	Reason     string    `gorm:"type:varchar(200)"`

	CreatedAt time.Time

	Facility *Facility `gorm:"foreignKey:FacilityID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (b *Blackout) BeforeCreate(*gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	if !b.StartsAt.Before(b.EndsAt) {
		return calendar.ErrInvalidTimeRange
	}
	b.StartsAt = b.StartsAt.UTC()
	b.EndsAt = b.EndsAt.UTC()
	return nil
}

func (b *Blackout) Occupancy() calendar.Occupancy {
	return calendar.Occupancy{
		ID:    b.ID,
		Kind:  calendar.OccupancyBlackout,
		Range: calendar.TimeRange{Start: b.StartsAt, End: b.EndsAt},
	}
}
