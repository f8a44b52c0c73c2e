package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Leganyst/facility-booking/internal/calendar"
	"github.com/Leganyst/facility-booking/internal/model"
	"github.com/Leganyst/facility-booking/internal/repository"
)

// Рабочий день теста: 2030-05-06, "сейчас" — 06:00 UTC.
var (
	testDay = time.Date(2030, 5, 6, 0, 0, 0, 0, time.UTC)
	testNow = testDay.Add(6 * time.Hour)
)

func at(hour, min int) time.Time {
	return testDay.Add(time.Duration(hour)*time.Hour + time.Duration(min)*time.Minute)
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err, "open sqlite")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// Каждое соединение с :memory: — отдельная пустая база.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, model.AutoMigrate(db), "migrate")
	return db
}

type recordingNotifier struct {
	mu        sync.Mutex
	confirmed []uuid.UUID
	cancelled []uuid.UUID
	modified  []uuid.UUID
}

func (n *recordingNotifier) BookingConfirmed(_ context.Context, b model.Booking) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.confirmed = append(n.confirmed, b.ID)
	return nil
}

func (n *recordingNotifier) BookingCancelled(_ context.Context, b model.Booking) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.cancelled = append(n.cancelled, b.ID)
	return nil
}

func (n *recordingNotifier) BookingModified(_ context.Context, b model.Booking, _ calendar.TimeRange) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.modified = append(n.modified, b.ID)
	return nil
}

func (n *recordingNotifier) counts() (confirmed, cancelled, modified int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.confirmed), len(n.cancelled), len(n.modified)
}

type fixture struct {
	db       *gorm.DB
	store    *repository.GormStore
	notifier *recordingNotifier

	facility *model.Facility
	owner    *model.User
	other    *model.User

	bookings     *BookingService
	availability *AvailabilityService
}

// newFixture — площадка без кортов: 08:00–22:00, слот 60 минут, ставка 10.00.
func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := newTestDB(t)
	fx := &fixture{
		db:       db,
		store:    repository.NewGormStore(db),
		notifier: &recordingNotifier{},
	}
	fx.facility = fx.addFacility(t, "Central")
	fx.owner = fx.addUser(t, "owner")
	fx.other = fx.addUser(t, "other")
	fx.bookings = fx.bookingServiceAt(testNow)
	fx.availability = NewAvailabilityService(fx.store, calendar.FixedClock(testNow), nil, time.UTC)
	return fx
}

func (fx *fixture) bookingServiceAt(now time.Time) *BookingService {
	return NewBookingService(fx.store, calendar.FixedClock(now), WithNotifier(fx.notifier))
}

func (fx *fixture) addFacility(t *testing.T, name string) *model.Facility {
	t.Helper()
	f := &model.Facility{
		Name:              name,
		OpenTime:          datatypes.NewTime(8, 0, 0, 0),
		CloseTime:         datatypes.NewTime(22, 0, 0, 0),
		SlotLengthMinutes: 60,
		BasePrice:         decimal.RequireFromString("10.00"),
		TimeZone:          "UTC",
	}
	require.NoError(t, fx.db.Create(f).Error, "seed facility")
	return f
}

func (fx *fixture) addCourt(t *testing.T, facility *model.Facility, name string, active bool) *model.Court {
	t.Helper()
	c := &model.Court{FacilityID: facility.ID, Name: name, IsActive: active}
	require.NoError(t, fx.db.Create(c).Error, "seed court")
	return c
}

func (fx *fixture) addUser(t *testing.T, ref string) *model.User {
	t.Helper()
	u := &model.User{ExternalRef: ref, DisplayName: ref}
	require.NoError(t, fx.db.Create(u).Error, "seed user")
	return u
}

func (fx *fixture) addBlackout(t *testing.T, facility *model.Facility, start, end time.Time) {
	t.Helper()
	b := &model.Blackout{FacilityID: facility.ID, StartsAt: start, EndsAt: end, Reason: "maintenance"}
	require.NoError(t, fx.store.Repos().Blackouts.Create(context.Background(), b), "seed blackout")
}

func (fx *fixture) submit(ctx context.Context, user *model.User, courtID *uuid.UUID, start, end time.Time) (*model.Booking, error) {
	return fx.bookings.Submit(ctx, SubmitInput{
		RequesterID: user.ID,
		FacilityID:  fx.facility.ID,
		CourtID:     courtID,
		Start:       start,
		End:         end,
	})
}

func (fx *fixture) countEvents(t *testing.T, typ model.EventType) int64 {
	t.Helper()
	var n int64
	require.NoError(t, fx.db.Model(&model.Event{}).Where("event_type = ?", typ).Count(&n).Error)
	return n
}

// confirmedInScope — все подтверждённые брони области из БД.
func (fx *fixture) confirmedInScope(t *testing.T, scopeKey string) []model.Booking {
	t.Helper()
	var out []model.Booking
	require.NoError(t, fx.db.
		Where("scope_key = ? AND status = ?", scopeKey, model.BookingStatusConfirmed).
		Order("starts_at").
		Find(&out).Error)
	return out
}

func requireNoOverlaps(t *testing.T, bookings []model.Booking) {
	t.Helper()
	for i := range bookings {
		for j := i + 1; j < len(bookings); j++ {
			require.False(t, calendar.Overlaps(bookings[i].Range(), bookings[j].Range()),
				"bookings %s and %s overlap", bookings[i].ID, bookings[j].ID)
		}
	}
}

func slotStarts(slots []calendar.TimeRange) []int {
	out := make([]int, 0, len(slots))
	for _, s := range slots {
		out = append(out, s.Start.UTC().Hour())
	}
	return out
}
