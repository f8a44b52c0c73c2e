package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repos — набор репозиториев, работающих через одно соединение или одну транзакцию.
type Repos struct {
	Users      UserRepository
	Profiles   ProfileRepository
	Facilities FacilityRepository
	Blackouts  BlackoutRepository
	Bookings   BookingRepository
}

// Store раздаёт репозитории и открывает транзакции.
type Store interface {
	Repos() Repos
	// InTx выполняет fn в одной транзакции; любая ошибка fn откатывает её целиком.
	InTx(ctx context.Context, fn func(Repos) error) error
}

type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func reposFor(db *gorm.DB) Repos {
	return Repos{
		Users:      NewGormUserRepository(db),
		Profiles:   NewGormProfileRepository(db),
		Facilities: NewGormFacilityRepository(db),
		Blackouts:  NewGormBlackoutRepository(db),
		Bookings:   NewGormBookingRepository(db),
	}
}

func (s *GormStore) Repos() Repos {
	return reposFor(s.db)
}

func (s *GormStore) InTx(ctx context.Context, fn func(Repos) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(reposFor(tx))
	})
}
