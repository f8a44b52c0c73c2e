package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Leganyst/facility-booking/internal/calendar"
	"github.com/Leganyst/facility-booking/internal/model"
	"github.com/Leganyst/facility-booking/internal/service"
)

var testSecret = []byte("test-secret")

type mockResolver struct{ mock.Mock }

func (m *mockResolver) Resolve(ctx context.Context, ref string, role model.Role) (*model.User, error) {
	args := m.Called(ctx, ref, role)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

type mockBookings struct{ mock.Mock }

func (m *mockBookings) Submit(ctx context.Context, in service.SubmitInput) (*model.Booking, error) {
	args := m.Called(ctx, in)
	b, _ := args.Get(0).(*model.Booking)
	return b, args.Error(1)
}

func (m *mockBookings) Cancel(ctx context.Context, id, requester uuid.UUID) (*model.Booking, error) {
	args := m.Called(ctx, id, requester)
	b, _ := args.Get(0).(*model.Booking)
	return b, args.Error(1)
}

func (m *mockBookings) Modify(ctx context.Context, in service.ModifyInput) (*model.Booking, error) {
	args := m.Called(ctx, in)
	b, _ := args.Get(0).(*model.Booking)
	return b, args.Error(1)
}

func (m *mockBookings) Get(ctx context.Context, id, requester uuid.UUID) (*model.Booking, error) {
	args := m.Called(ctx, id, requester)
	b, _ := args.Get(0).(*model.Booking)
	return b, args.Error(1)
}

func (m *mockBookings) ListMine(ctx context.Context, requester uuid.UUID, page, size int) (calendar.Page[model.Booking], error) {
	args := m.Called(ctx, requester, page, size)
	return args.Get(0).(calendar.Page[model.Booking]), args.Error(1)
}

func (m *mockBookings) ListForProvider(ctx context.Context, provider uuid.UUID, page, size int) (calendar.Page[model.Booking], error) {
	args := m.Called(ctx, provider, page, size)
	return args.Get(0).(calendar.Page[model.Booking]), args.Error(1)
}

type mockAvailability struct{ mock.Mock }

func (m *mockAvailability) AvailableSlots(ctx context.Context, facilityID uuid.UUID, courtID *uuid.UUID, date time.Time) ([]calendar.TimeRange, error) {
	args := m.Called(ctx, facilityID, courtID, date)
	slots, _ := args.Get(0).([]calendar.TimeRange)
	return slots, args.Error(1)
}

type mockReports struct{ mock.Mock }

func (m *mockReports) Usage(ctx context.Context, from, to time.Time, page, size int) (calendar.Page[service.UsageRow], error) {
	args := m.Called(ctx, from, to, page, size)
	return args.Get(0).(calendar.Page[service.UsageRow]), args.Error(1)
}

type testAPI struct {
	router       *gin.Engine
	user         *model.User
	users        *mockResolver
	bookings     *mockBookings
	availability *mockAvailability
	reports      *mockReports
}

func newTestAPI(t *testing.T, role model.Role) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	api := &testAPI{
		user:         &model.User{ID: uuid.New(), ExternalRef: "sub-1", Role: role},
		users:        &mockResolver{},
		bookings:     &mockBookings{},
		availability: &mockAvailability{},
		reports:      &mockReports{},
	}
	api.users.On("Resolve", mock.Anything, "sub-1", role).Return(api.user, nil).Maybe()
	api.router = NewRouter(Deps{
		JWTSecret:    testSecret,
		Users:        api.users,
		Bookings:     api.bookings,
		Availability: api.availability,
		Reports:      api.reports,
	})
	return api
}

func (a *testAPI) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	tok, err := CreateAccessToken(testSecret, a.user.ExternalRef, a.user.Role, time.Hour)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+tok)

	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body errorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestJWTAuth_RejectsMissingAndForeignTokens(t *testing.T) {
	api := newTestAPI(t, model.RoleCustomer)

	req := httptest.NewRequest(http.MethodGet, "/v1/bookings", nil)
	w := httptest.NewRecorder()
	api.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	tok, err := CreateAccessToken([]byte("other-secret"), "sub-1", model.RoleCustomer, time.Hour)
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/v1/bookings", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	w = httptest.NewRecorder()
	api.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	expired, err := CreateAccessToken(testSecret, "sub-1", model.RoleCustomer, -time.Minute)
	require.NoError(t, err)
	_, err = ParseValidate(testSecret, expired)
	require.Error(t, err)
}

func TestBookingHandler_Create(t *testing.T) {
	api := newTestAPI(t, model.RoleCustomer)
	facilityID := uuid.New()
	start := time.Date(2030, 5, 6, 10, 0, 0, 0, time.UTC)

	booking := &model.Booking{
		ID:         uuid.New(),
		FacilityID: facilityID,
		UserID:     api.user.ID,
		StartsAt:   start,
		EndsAt:     start.Add(time.Hour),
		Price:      decimal.RequireFromString("10"),
		Status:     model.BookingStatusConfirmed,
	}
	api.bookings.On("Submit", mock.Anything, mock.MatchedBy(func(in service.SubmitInput) bool {
		return in.RequesterID == api.user.ID && in.FacilityID == facilityID && in.CourtID == nil && in.Start.Equal(start)
	})).Return(booking, nil).Once()

	w := api.do(t, http.MethodPost, "/v1/bookings", map[string]any{
		"facility_id": facilityID.String(),
		"start":       start.Format(time.RFC3339),
		"end":         start.Add(time.Hour).Format(time.RFC3339),
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var got bookingResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, booking.ID, got.ID)
	assert.Equal(t, "10.00", got.Price)
	assert.Equal(t, "confirmed", got.Status)
	api.bookings.AssertExpectations(t)
}

func TestBookingHandler_CreateRejections(t *testing.T) {
	cases := []struct {
		err    error
		status int
		kind   string
	}{
		{calendar.ErrSlotTaken, http.StatusConflict, "SlotTaken"},
		{calendar.ErrBlockedByBlackout, http.StatusConflict, "BlockedByBlackout"},
		{calendar.ErrNotFound, http.StatusNotFound, "NotFound"},
		{calendar.ErrInvalidScope, http.StatusUnprocessableEntity, "InvalidScope"},
		{calendar.ErrMisalignedDuration, http.StatusUnprocessableEntity, "MisalignedDuration"},
		{calendar.ErrInsufficientLeadTime, http.StatusUnprocessableEntity, "InsufficientLeadTime"},
		{errors.New("db down"), http.StatusInternalServerError, "Internal"},
	}
	for _, tc := range cases {
		t.Run(tc.kind, func(t *testing.T) {
			api := newTestAPI(t, model.RoleCustomer)
			api.bookings.On("Submit", mock.Anything, mock.Anything).Return(nil, tc.err).Once()

			w := api.do(t, http.MethodPost, "/v1/bookings", map[string]any{
				"facility_id": uuid.NewString(),
				"court_id":    uuid.NewString(),
				"start":       "2030-05-06T10:00:00Z",
				"end":         "2030-05-06T11:00:00Z",
			})
			assert.Equal(t, tc.status, w.Code)
			assert.Equal(t, tc.kind, decodeError(t, w).ErrorKind)
		})
	}
}

func TestBookingHandler_CreateBadInput(t *testing.T) {
	api := newTestAPI(t, model.RoleCustomer)

	w := api.do(t, http.MethodPost, "/v1/bookings", map[string]any{"facility_id": "nope", "start": "2030-05-06T10:00:00Z", "end": "2030-05-06T11:00:00Z"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = api.do(t, http.MethodPost, "/v1/bookings", map[string]any{"facility_id": uuid.NewString()})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	api.bookings.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything)
}

func TestBookingHandler_CancelNotOwner(t *testing.T) {
	api := newTestAPI(t, model.RoleCustomer)
	id := uuid.New()
	api.bookings.On("Cancel", mock.Anything, id, api.user.ID).Return(nil, calendar.ErrNotOwner).Once()

	w := api.do(t, http.MethodPost, "/v1/bookings/"+id.String()+"/cancel", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "NotOwner", decodeError(t, w).ErrorKind)
}

func TestBookingHandler_Modify(t *testing.T) {
	api := newTestAPI(t, model.RoleCustomer)
	id := uuid.New()
	api.bookings.On("Modify", mock.Anything, mock.MatchedBy(func(in service.ModifyInput) bool {
		return in.BookingID == id && in.RequesterID == api.user.ID
	})).Return(nil, calendar.ErrBookingCancelled).Once()

	w := api.do(t, http.MethodPatch, "/v1/bookings/"+id.String(), map[string]any{
		"start": "2030-05-06T12:00:00Z",
		"end":   "2030-05-06T13:00:00Z",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "BookingCancelled", decodeError(t, w).ErrorKind)
}

func TestBookingHandler_List(t *testing.T) {
	api := newTestAPI(t, model.RoleCustomer)
	items := []model.Booking{{ID: uuid.New(), UserID: api.user.ID, Price: decimal.RequireFromString("20"), Status: model.BookingStatusCancelled}}
	api.bookings.On("ListMine", mock.Anything, api.user.ID, 2, 5).
		Return(calendar.PageOf(items, 2, 5, 6), nil).Once()

	w := api.do(t, http.MethodGet, "/v1/bookings?page=2&page_size=5", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var page calendar.Page[bookingResponse]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	require.Len(t, page.Items, 1)
	assert.Equal(t, "20.00", page.Items[0].Price)
	assert.Equal(t, 6, page.Total)
	assert.True(t, page.HasPrev)
}

func TestBookingHandler_ListForProvider(t *testing.T) {
	customer := newTestAPI(t, model.RoleCustomer)
	w := customer.do(t, http.MethodGet, "/v1/provider/bookings", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	customer.bookings.AssertNotCalled(t, "ListForProvider", mock.Anything, mock.Anything, mock.Anything, mock.Anything)

	provider := newTestAPI(t, model.RoleProvider)
	items := []model.Booking{{ID: uuid.New(), UserID: uuid.New(), Price: decimal.RequireFromString("10"), Status: model.BookingStatusConfirmed}}
	provider.bookings.On("ListForProvider", mock.Anything, provider.user.ID, 1, calendar.DefaultPageSize).
		Return(calendar.PageOf(items, 1, calendar.DefaultPageSize, 1), nil).Once()

	w = provider.do(t, http.MethodGet, "/v1/provider/bookings", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var page calendar.Page[bookingResponse]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	require.Len(t, page.Items, 1)
	assert.Equal(t, items[0].ID, page.Items[0].ID)
	assert.Equal(t, "10.00", page.Items[0].Price)
	provider.bookings.AssertExpectations(t)
}

func TestAvailabilityHandler_Get(t *testing.T) {
	api := newTestAPI(t, model.RoleCustomer)
	facilityID := uuid.New()
	courtID := uuid.New()
	date := time.Date(2030, 5, 6, 0, 0, 0, 0, time.UTC)
	slots := []calendar.TimeRange{
		{Start: date.Add(8 * time.Hour), End: date.Add(9 * time.Hour)},
		{Start: date.Add(11 * time.Hour), End: date.Add(12 * time.Hour)},
	}
	api.availability.On("AvailableSlots", mock.Anything, facilityID, &courtID, date).Return(slots, nil).Once()

	w := api.do(t, http.MethodGet, "/v1/facilities/"+facilityID.String()+"/availability?date=2030-05-06&court_id="+courtID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var body struct {
		Date  string         `json:"date"`
		Slots []slotResponse `json:"slots"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "2030-05-06", body.Date)
	require.Len(t, body.Slots, 2)
	assert.True(t, body.Slots[1].Start.Equal(slots[1].Start))
}

func TestAvailabilityHandler_BadDate(t *testing.T) {
	api := newTestAPI(t, model.RoleCustomer)

	w := api.do(t, http.MethodGet, "/v1/facilities/"+uuid.NewString()+"/availability?date=06.05.2030", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReportHandler_RequiresAdmin(t *testing.T) {
	customer := newTestAPI(t, model.RoleCustomer)
	w := customer.do(t, http.MethodGet, "/v1/reports/usage?from=2030-05-01&to=2030-06-01", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	customer.reports.AssertNotCalled(t, "Usage", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)

	admin := newTestAPI(t, model.RoleAdmin)
	rows := []service.UsageRow{{FacilityID: uuid.New(), FacilityName: "Central", Date: "2030-05-06", Bookings: 2, Revenue: decimal.RequireFromString("20")}}
	admin.reports.On("Usage", mock.Anything,
		time.Date(2030, 5, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2030, 6, 1, 0, 0, 0, 0, time.UTC),
		1, calendar.DefaultPageSize,
	).Return(calendar.Paginate(rows, 1, calendar.DefaultPageSize), nil).Once()

	w = admin.do(t, http.MethodGet, "/v1/reports/usage?from=2030-05-01&to=2030-06-01", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"facility_name":"Central"`)
}
