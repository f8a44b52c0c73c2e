package service

import (
	"context"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Leganyst/facility-booking/internal/calendar"
	"github.com/Leganyst/facility-booking/internal/model"
)

func TestAvailabilityService_EmptyDay(t *testing.T) {
	fx := newFixture(t)

	slots, err := fx.availability.AvailableSlots(context.Background(), fx.facility.ID, nil, testDay)
	require.NoError(t, err)
	require.Len(t, slots, 14)
	assert.True(t, slots[0].Start.Equal(at(8, 0)))
	assert.True(t, slots[13].End.Equal(at(22, 0)))
}

func TestAvailabilityService_BlackoutRemovesSlots(t *testing.T) {
	fx := newFixture(t)
	fx.addBlackout(t, fx.facility, at(14, 0), at(16, 0))

	slots, err := fx.availability.AvailableSlots(context.Background(), fx.facility.ID, nil, testDay)
	require.NoError(t, err)
	assert.Equal(t, []int{8, 9, 10, 11, 12, 13, 16, 17, 18, 19, 20, 21}, slotStarts(slots))
}

func TestAvailabilityService_RoundTrip(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	before, err := fx.availability.AvailableSlots(ctx, fx.facility.ID, nil, testDay)
	require.NoError(t, err)

	b, err := fx.submit(ctx, fx.owner, nil, at(17, 0), at(18, 0))
	require.NoError(t, err)

	after, err := fx.availability.AvailableSlots(ctx, fx.facility.ID, nil, testDay)
	require.NoError(t, err)
	require.Len(t, after, len(before)-1)
	for _, s := range after {
		assert.False(t, calendar.Overlaps(s, b.Range()), "slot %v overlaps the booking", s)
	}

	_, err = fx.bookings.Cancel(ctx, b.ID, fx.owner.ID)
	require.NoError(t, err)

	restored, err := fx.availability.AvailableSlots(ctx, fx.facility.ID, nil, testDay)
	require.NoError(t, err)
	assert.Equal(t, slotStarts(before), slotStarts(restored))
}

func TestAvailabilityService_LeadTimeTrimsMorning(t *testing.T) {
	fx := newFixture(t)
	svc := NewAvailabilityService(fx.store, calendar.FixedClock(at(9, 30)), nil, time.UTC)

	slots, err := svc.AvailableSlots(context.Background(), fx.facility.ID, nil, testDay)
	require.NoError(t, err)
	require.NotEmpty(t, slots)
	assert.Equal(t, 11, slots[0].Start.Hour())
}

func TestAvailabilityService_PerCourt(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	courtA := fx.addCourt(t, fx.facility, "A", true)
	courtB := fx.addCourt(t, fx.facility, "B", true)

	_, err := fx.submit(ctx, fx.owner, &courtA.ID, at(10, 0), at(12, 0))
	require.NoError(t, err)

	slotsA, err := fx.availability.AvailableSlots(ctx, fx.facility.ID, &courtA.ID, testDay)
	require.NoError(t, err)
	assert.Len(t, slotsA, 12)

	slotsB, err := fx.availability.AvailableSlots(ctx, fx.facility.ID, &courtB.ID, testDay)
	require.NoError(t, err)
	assert.Len(t, slotsB, 14)

	_, err = fx.availability.AvailableSlots(ctx, fx.facility.ID, nil, testDay)
	require.ErrorIs(t, err, calendar.ErrInvalidScope)
}

func TestAvailabilityService_UnknownFacility(t *testing.T) {
	fx := newFixture(t)

	_, err := fx.availability.AvailableSlots(context.Background(), uuid.New(), nil, testDay)
	require.ErrorIs(t, err, calendar.ErrNotFound)
}

func TestAvailabilityService_LocalTimezone(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	// Площадка в UTC+3: 08:00 местного времени — 05:00 UTC.
	f := fx.addFacility(t, "Moscow")
	require.NoError(t, fx.db.Model(&model.Facility{}).Where("id = ?", f.ID).Update("time_zone", "Europe/Moscow").Error)

	svc := NewAvailabilityService(fx.store, calendar.FixedClock(testDay.Add(-24*time.Hour)), nil, time.UTC)
	slots, err := svc.AvailableSlots(ctx, f.ID, nil, testDay)
	require.NoError(t, err)
	require.Len(t, slots, 14)
	assert.True(t, slots[0].Start.Equal(testDay.Add(5*time.Hour)), "got %s", slots[0].Start.UTC())
}
