package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Leganyst/facility-booking/internal/calendar"
	"github.com/Leganyst/facility-booking/internal/model"
)

func (fx *fixture) insertBooking(t *testing.T, f *model.Facility, start time.Time, hours int, price string, status model.BookingStatus) {
	t.Helper()
	b := &model.Booking{
		FacilityID: f.ID,
		ScopeKey:   calendar.FacilityLevel{FacilityID: f.ID}.Key(),
		UserID:     fx.owner.ID,
		StartsAt:   start,
		EndsAt:     start.Add(time.Duration(hours) * time.Hour),
		Price:      decimal.RequireFromString(price),
		Status:     status,
	}
	require.NoError(t, fx.store.Repos().Bookings.Create(context.Background(), b))
}

func TestReportService_Usage(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	moscow := fx.addFacility(t, "Arena")
	require.NoError(t, fx.db.Model(&model.Facility{}).Where("id = ?", moscow.ID).Update("time_zone", "Europe/Moscow").Error)

	fx.insertBooking(t, fx.facility, at(10, 0), 1, "10.00", model.BookingStatusConfirmed)
	fx.insertBooking(t, fx.facility, at(12, 0), 2, "20.00", model.BookingStatusConfirmed)
	fx.insertBooking(t, fx.facility, at(14, 0), 1, "10.00", model.BookingStatusCancelled)
	fx.insertBooking(t, fx.facility, at(10, 0).Add(24*time.Hour), 1, "10.01", model.BookingStatusConfirmed)
	// 22:30 UTC — уже следующие сутки по Москве.
	fx.insertBooking(t, moscow, at(22, 30), 1, "15.50", model.BookingStatusConfirmed)
	// Вне периода отчёта.
	fx.insertBooking(t, fx.facility, at(10, 0).Add(48*time.Hour), 1, "10.00", model.BookingStatusConfirmed)

	svc := NewReportService(fx.store, nil, time.UTC)
	page, err := svc.Usage(ctx, testDay, testDay.Add(24*time.Hour), 1, 50)
	require.NoError(t, err)
	require.Len(t, page.Items, 3)
	assert.Equal(t, 3, page.Total)

	got := page.Items
	assert.Equal(t, "Arena", got[0].FacilityName)
	assert.Equal(t, "2030-05-07", got[0].Date)
	assert.Equal(t, 1, got[0].Bookings)
	assert.Equal(t, "15.50", got[0].Revenue.StringFixed(2))

	assert.Equal(t, "Central", got[1].FacilityName)
	assert.Equal(t, "2030-05-06", got[1].Date)
	assert.Equal(t, 2, got[1].Bookings)
	assert.Equal(t, "30.00", got[1].Revenue.StringFixed(2))

	assert.Equal(t, "2030-05-07", got[2].Date)
	assert.Equal(t, "10.01", got[2].Revenue.StringFixed(2))
}

func TestReportService_SwappedRangeAndPaging(t *testing.T) {
	fx := newFixture(t)
	fx.insertBooking(t, fx.facility, at(10, 0), 1, "10.00", model.BookingStatusConfirmed)
	fx.insertBooking(t, fx.facility, at(10, 0).Add(24*time.Hour), 1, "10.00", model.BookingStatusConfirmed)

	svc := NewReportService(fx.store, nil, time.UTC)
	page, err := svc.Usage(context.Background(), testDay.Add(24*time.Hour), testDay, 2, 1)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, 2, page.Total)
	assert.Equal(t, "2030-05-07", page.Items[0].Date)
	assert.True(t, page.HasPrev)
	assert.False(t, page.HasNext)
}

func TestReportService_SingleDayIsInclusive(t *testing.T) {
	fx := newFixture(t)
	fx.insertBooking(t, fx.facility, at(21, 0), 1, "10.00", model.BookingStatusConfirmed)
	fx.insertBooking(t, fx.facility, at(10, 0).Add(24*time.Hour), 1, "10.00", model.BookingStatusConfirmed)

	svc := NewReportService(fx.store, nil, time.UTC)

	page, err := svc.Usage(context.Background(), testDay, testDay, 1, 50)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "2030-05-06", page.Items[0].Date)
	assert.Equal(t, 1, page.Items[0].Bookings)

	// Время внутри даты не сужает период: берётся вся дата целиком.
	page, err = svc.Usage(context.Background(), at(15, 0), at(15, 0).Add(24*time.Hour), 1, 50)
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "2030-05-06", page.Items[0].Date)
	assert.Equal(t, "2030-05-07", page.Items[1].Date)
}

func TestReportService_InvalidRange(t *testing.T) {
	fx := newFixture(t)
	svc := NewReportService(fx.store, nil, time.UTC)

	_, err := svc.Usage(context.Background(), time.Time{}, testDay, 1, 10)
	require.ErrorIs(t, err, calendar.ErrInvalidInterval)
}
