package notify

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Leganyst/facility-booking/internal/calendar"
	"github.com/Leganyst/facility-booking/internal/model"
)

// Ключи маршрутизации событий брони.
const (
	KeyBookingConfirmed = "booking.confirmed"
	KeyBookingCancelled = "booking.cancelled"
	KeyBookingUpdated   = "booking.updated"
)

// BookingMessage — тело уведомления о брони.
type BookingMessage struct {
	BookingID  uuid.UUID  `json:"booking_id"`
	FacilityID uuid.UUID  `json:"facility_id"`
	CourtID    *uuid.UUID `json:"court_id,omitempty"`
	UserID     uuid.UUID  `json:"user_id"`
	StartsAt   time.Time  `json:"starts_at"`
	EndsAt     time.Time  `json:"ends_at"`
	Price      string     `json:"price"`
	Status     string     `json:"status"`
	// Человекочитаемый интервал для текста уведомления.
	Slot string `json:"slot"`

	PreviousStartsAt *time.Time `json:"previous_starts_at,omitempty"`
	PreviousEndsAt   *time.Time `json:"previous_ends_at,omitempty"`
}

func newBookingMessage(b model.Booking, loc *time.Location) BookingMessage {
	return BookingMessage{
		BookingID:  b.ID,
		FacilityID: b.FacilityID,
		CourtID:    b.CourtID,
		UserID:     b.UserID,
		StartsAt:   b.StartsAt.UTC(),
		EndsAt:     b.EndsAt.UTC(),
		Price:      b.Price.StringFixed(2),
		Status:     string(b.Status),
		Slot:       calendar.FormatSlotForUser(b.Range(), loc),
	}
}

type jsonPublisher interface {
	PublishJSON(ctx context.Context, key string, v any) error
}

// BrokerNotifier отправляет события брони через брокер сообщений.
type BrokerNotifier struct {
	pub jsonPublisher
	loc *time.Location
}

func NewBrokerNotifier(pub jsonPublisher, loc *time.Location) *BrokerNotifier {
	if loc == nil {
		loc = time.UTC
	}
	return &BrokerNotifier{pub: pub, loc: loc}
}

func (n *BrokerNotifier) BookingConfirmed(ctx context.Context, b model.Booking) error {
	return n.pub.PublishJSON(ctx, KeyBookingConfirmed, newBookingMessage(b, n.loc))
}

func (n *BrokerNotifier) BookingCancelled(ctx context.Context, b model.Booking) error {
	return n.pub.PublishJSON(ctx, KeyBookingCancelled, newBookingMessage(b, n.loc))
}

func (n *BrokerNotifier) BookingModified(ctx context.Context, b model.Booking, previous calendar.TimeRange) error {
	msg := newBookingMessage(b, n.loc)
	start, end := previous.Start.UTC(), previous.End.UTC()
	msg.PreviousStartsAt = &start
	msg.PreviousEndsAt = &end
	return n.pub.PublishJSON(ctx, KeyBookingUpdated, msg)
}

// LogNotifier пишет уведомления в лог; используется, когда брокер не настроен.
type LogNotifier struct {
	log *slog.Logger
	loc *time.Location
}

func NewLogNotifier(log *slog.Logger, loc *time.Location) *LogNotifier {
	if log == nil {
		log = slog.Default()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &LogNotifier{log: log, loc: loc}
}

func (n *LogNotifier) BookingConfirmed(_ context.Context, b model.Booking) error {
	n.emit(KeyBookingConfirmed, b)
	return nil
}

func (n *LogNotifier) BookingCancelled(_ context.Context, b model.Booking) error {
	n.emit(KeyBookingCancelled, b)
	return nil
}

func (n *LogNotifier) BookingModified(_ context.Context, b model.Booking, previous calendar.TimeRange) error {
	n.emit(KeyBookingUpdated, b, slog.Time("previous_starts_at", previous.Start.UTC()))
	return nil
}

func (n *LogNotifier) emit(key string, b model.Booking, extra ...any) {
	args := []any{
		slog.String("event", key),
		slog.String("booking_id", b.ID.String()),
		slog.String("user_id", b.UserID.String()),
		slog.String("slot", calendar.FormatSlotForUser(b.Range(), n.loc)),
	}
	n.log.Info("notification", append(args, extra...)...)
}
