package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Leganyst/facility-booking/internal/calendar"
	"github.com/Leganyst/facility-booking/internal/model"
	"github.com/Leganyst/facility-booking/internal/repository"
)

// scopeKeyOf — ключ области по входным идентификаторам, до обращения к БД.
func scopeKeyOf(facilityID uuid.UUID, courtID *uuid.UUID) string {
	return calendar.ScopeOf(facilityID, courtID).Key()
}

// resolveScope проверяет пару (площадка, корт) и возвращает площадку и область.
// При lock=true строка родителя области (корт или площадка) блокируется до конца транзакции.
//
// Площадка с активными кортами бронируется только по корту; корт другой площадки,
// неактивный или неизвестный корт — InvalidScope.
func resolveScope(
	ctx context.Context,
	repos repository.Repos,
	facilityID uuid.UUID,
	courtID *uuid.UUID,
	lock bool,
) (*model.Facility, calendar.Scope, error) {
	var (
		f   *model.Facility
		err error
	)
	if lock && courtID == nil {
		f, err = repos.Facilities.LockByID(ctx, facilityID)
	} else {
		f, err = repos.Facilities.GetByID(ctx, facilityID)
	}
	if err != nil {
		return nil, nil, storeError("load facility", err)
	}

	if courtID == nil {
		n, err := repos.Facilities.CountActiveCourts(ctx, f.ID)
		if err != nil {
			return nil, nil, storeError("count courts", err)
		}
		if n > 0 {
			return nil, nil, calendar.Reject(calendar.KindInvalidScope,
				"facility %s has courts, court_id is required", f.ID)
		}
		return f, calendar.FacilityLevel{FacilityID: f.ID}, nil
	}

	var c *model.Court
	if lock {
		c, err = repos.Facilities.LockCourt(ctx, *courtID)
	} else {
		c, err = repos.Facilities.GetCourt(ctx, *courtID)
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, calendar.Reject(calendar.KindInvalidScope, "court %s not found", *courtID)
		}
		return nil, nil, storeError("load court", err)
	}
	if c.FacilityID != f.ID {
		return nil, nil, calendar.Reject(calendar.KindInvalidScope,
			"court %s does not belong to facility %s", c.ID, f.ID)
	}
	if !c.IsActive {
		return nil, nil, calendar.Reject(calendar.KindInvalidScope, "court %s is not active", c.ID)
	}
	return f, calendar.CourtLevel{FacilityID: f.ID, CourtID: c.ID}, nil
}

// loadSnapshot читает подтверждённые брони области и блэкауты площадки, пересекающиеся с окном.
func loadSnapshot(
	ctx context.Context,
	repos repository.Repos,
	scope calendar.Scope,
	window calendar.TimeRange,
	lock bool,
) (calendar.Snapshot, error) {
	var snap calendar.Snapshot

	bookings, err := repos.Bookings.ListConfirmedInScope(ctx, scope.Key(), window, lock)
	if err != nil {
		return snap, storeError("load bookings", err)
	}
	blackouts, err := repos.Blackouts.ListOverlapping(ctx, scope.Facility(), window)
	if err != nil {
		return snap, storeError("load blackouts", err)
	}

	snap.Bookings = make([]calendar.Occupancy, 0, len(bookings))
	for i := range bookings {
		snap.Bookings = append(snap.Bookings, bookings[i].Occupancy())
	}
	snap.Blackouts = make([]calendar.Occupancy, 0, len(blackouts))
	for i := range blackouts {
		snap.Blackouts = append(snap.Blackouts, blackouts[i].Occupancy())
	}
	return snap, nil
}

// facilityRules — правила площадки; некорректная настройка площадки — внутренняя ошибка.
func facilityRules(f *model.Facility, defaultLoc *time.Location) (calendar.Rules, error) {
	r, err := f.Rules(defaultLoc)
	if err != nil {
		return calendar.Rules{}, storeError("facility rules", err)
	}
	return r, nil
}
