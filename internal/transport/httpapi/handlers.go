package httpapi

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Leganyst/facility-booking/internal/calendar"
	"github.com/Leganyst/facility-booking/internal/model"
	"github.com/Leganyst/facility-booking/internal/service"
)

type BookingAPI interface {
	Submit(ctx context.Context, in service.SubmitInput) (*model.Booking, error)
	Cancel(ctx context.Context, bookingID, requesterID uuid.UUID) (*model.Booking, error)
	Modify(ctx context.Context, in service.ModifyInput) (*model.Booking, error)
	Get(ctx context.Context, bookingID, requesterID uuid.UUID) (*model.Booking, error)
	ListMine(ctx context.Context, requesterID uuid.UUID, page, pageSize int) (calendar.Page[model.Booking], error)
	ListForProvider(ctx context.Context, providerID uuid.UUID, page, pageSize int) (calendar.Page[model.Booking], error)
}

type AvailabilityAPI interface {
	AvailableSlots(ctx context.Context, facilityID uuid.UUID, courtID *uuid.UUID, date time.Time) ([]calendar.TimeRange, error)
}

type ReportAPI interface {
	Usage(ctx context.Context, from, to time.Time, page, pageSize int) (calendar.Page[service.UsageRow], error)
}

type bookingResponse struct {
	ID          uuid.UUID  `json:"id"`
	FacilityID  uuid.UUID  `json:"facility_id"`
	CourtID     *uuid.UUID `json:"court_id,omitempty"`
	UserID      uuid.UUID  `json:"user_id"`
	Start       time.Time  `json:"start"`
	End         time.Time  `json:"end"`
	Price       string     `json:"price"`
	Status      string     `json:"status"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

func toBookingResponse(b *model.Booking) bookingResponse {
	return bookingResponse{
		ID:          b.ID,
		FacilityID:  b.FacilityID,
		CourtID:     b.CourtID,
		UserID:      b.UserID,
		Start:       b.StartsAt.UTC(),
		End:         b.EndsAt.UTC(),
		Price:       b.Price.StringFixed(2),
		Status:      string(b.Status),
		CancelledAt: b.CancelledAt,
		CreatedAt:   b.CreatedAt,
	}
}

type BookingHandler struct {
	bookings BookingAPI
}

func NewBookingHandler(bookings BookingAPI) *BookingHandler {
	return &BookingHandler{bookings: bookings}
}

// POST /v1/bookings
func (h *BookingHandler) Create(c *gin.Context) {
	var in struct {
		FacilityID string    `json:"facility_id" binding:"required"`
		CourtID    string    `json:"court_id"`
		Start      time.Time `json:"start" binding:"required"` // RFC3339
		End        time.Time `json:"end"   binding:"required"` // RFC3339
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err.Error())
		return
	}
	facilityID, err := uuid.Parse(in.FacilityID)
	if err != nil {
		badRequest(c, "invalid facility_id")
		return
	}
	courtID, ok := optionalUUID(c, in.CourtID, "court_id")
	if !ok {
		return
	}

	b, err := h.bookings.Submit(c.Request.Context(), service.SubmitInput{
		RequesterID: requesterID(c),
		FacilityID:  facilityID,
		CourtID:     courtID,
		Start:       in.Start,
		End:         in.End,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toBookingResponse(b))
}

// POST /v1/bookings/:id/cancel
func (h *BookingHandler) Cancel(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	b, err := h.bookings.Cancel(c.Request.Context(), id, requesterID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBookingResponse(b))
}

// PATCH /v1/bookings/:id
func (h *BookingHandler) Modify(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var in struct {
		Start time.Time `json:"start" binding:"required"`
		End   time.Time `json:"end"   binding:"required"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err.Error())
		return
	}
	b, err := h.bookings.Modify(c.Request.Context(), service.ModifyInput{
		BookingID:   id,
		RequesterID: requesterID(c),
		Start:       in.Start,
		End:         in.End,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBookingResponse(b))
}

// GET /v1/bookings/:id
func (h *BookingHandler) Get(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	b, err := h.bookings.Get(c.Request.Context(), id, requesterID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBookingResponse(b))
}

// GET /v1/bookings?page=1&page_size=20
func (h *BookingHandler) List(c *gin.Context) {
	page, size := pageParams(c)
	res, err := h.bookings.ListMine(c.Request.Context(), requesterID(c), page, size)
	if err != nil {
		writeError(c, err)
		return
	}
	writeBookingPage(c, res)
}

// GET /v1/provider/bookings?page=&page_size=
func (h *BookingHandler) ListForProvider(c *gin.Context) {
	page, size := pageParams(c)
	res, err := h.bookings.ListForProvider(c.Request.Context(), requesterID(c), page, size)
	if err != nil {
		writeError(c, err)
		return
	}
	writeBookingPage(c, res)
}

func writeBookingPage(c *gin.Context, res calendar.Page[model.Booking]) {
	items := make([]bookingResponse, 0, len(res.Items))
	for i := range res.Items {
		items = append(items, toBookingResponse(&res.Items[i]))
	}
	c.JSON(http.StatusOK, calendar.Page[bookingResponse]{
		Items:    items,
		Page:     res.Page,
		PageSize: res.PageSize,
		HasNext:  res.HasNext,
		HasPrev:  res.HasPrev,
		Total:    res.Total,
	})
}

type AvailabilityHandler struct {
	availability AvailabilityAPI
}

func NewAvailabilityHandler(availability AvailabilityAPI) *AvailabilityHandler {
	return &AvailabilityHandler{availability: availability}
}

type slotResponse struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// GET /v1/facilities/:id/availability?date=2025-01-01&court_id=...
func (h *AvailabilityHandler) Get(c *gin.Context) {
	facilityID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	date, err := time.Parse(time.DateOnly, c.Query("date"))
	if err != nil {
		badRequest(c, "date must be YYYY-MM-DD")
		return
	}
	courtID, ok := optionalUUID(c, c.Query("court_id"), "court_id")
	if !ok {
		return
	}

	slots, err := h.availability.AvailableSlots(c.Request.Context(), facilityID, courtID, date)
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]slotResponse, 0, len(slots))
	for _, s := range slots {
		out = append(out, slotResponse{Start: s.Start.UTC(), End: s.End.UTC()})
	}
	c.JSON(http.StatusOK, gin.H{"date": date.Format(time.DateOnly), "slots": out})
}

type ReportHandler struct {
	reports ReportAPI
}

func NewReportHandler(reports ReportAPI) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// GET /v1/reports/usage?from=2025-01-01&to=2025-01-31 (обе даты включительно)
func (h *ReportHandler) Usage(c *gin.Context) {
	from, err := time.Parse(time.DateOnly, c.Query("from"))
	if err != nil {
		badRequest(c, "from must be YYYY-MM-DD")
		return
	}
	to, err := time.Parse(time.DateOnly, c.Query("to"))
	if err != nil {
		badRequest(c, "to must be YYYY-MM-DD")
		return
	}
	page, size := pageParams(c)
	res, err := h.reports.Usage(c.Request.Context(), from, to, page, size)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		badRequest(c, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

func optionalUUID(c *gin.Context, raw, name string) (*uuid.UUID, bool) {
	if raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		badRequest(c, "invalid "+name)
		return nil, false
	}
	return &id, true
}

func pageParams(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("page_size", strconv.Itoa(calendar.DefaultPageSize)))
	return calendar.NormalizePage(page, size)
}
