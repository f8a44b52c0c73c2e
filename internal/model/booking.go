package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Leganyst/facility-booking/internal/calendar"
)

type BookingStatus string

const (
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// bookings
type Booking struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`

	FacilityID uuid.UUID  `gorm:"type:uuid;not null;index"`
	CourtID    *uuid.UUID `gorm:"type:uuid;index"`
	// Материализованная область пересечений: "facility:<id>" или "court:<id>".
	ScopeKey string `gorm:"type:varchar(64);not null;index:idx_booking_scope_start"`

	UserID uuid.UUID `gorm:"type:uuid;not null;index"`

	StartsAt time.Time `gorm:"not null;index:idx_booking_scope_start"`
	EndsAt   time.Time `gorm:"not null"`

	Price  decimal.Decimal `gorm:"type:numeric(10,2);not null"`
	Status BookingStatus   `gorm:"type:varchar(16);not null;index"`

	CancelledAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Facility *Facility `gorm:"foreignKey:FacilityID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
	Court    *Court    `gorm:"foreignKey:CourtID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
	User     *User     `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
}

func (b *Booking) BeforeCreate(*gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

func (b *Booking) Scope() calendar.Scope {
	return calendar.ScopeOf(b.FacilityID, b.CourtID)
}

func (b *Booking) Range() calendar.TimeRange {
	return calendar.TimeRange{Start: b.StartsAt, End: b.EndsAt}
}

func (b *Booking) Occupancy() calendar.Occupancy {
	return calendar.Occupancy{ID: b.ID, Kind: calendar.OccupancyBooking, Range: b.Range()}
}

func (b *Booking) IsConfirmed() bool {
	return b.Status == BookingStatusConfirmed
}
