package service

import (
	"context"

	"github.com/Leganyst/facility-booking/internal/calendar"
	"github.com/Leganyst/facility-booking/internal/model"
)

// Notifier — приёмник уведомлений о бронях. Вызывается после коммита,
// асинхронно; ошибки только логируются.
type Notifier interface {
	BookingConfirmed(ctx context.Context, b model.Booking) error
	BookingCancelled(ctx context.Context, b model.Booking) error
	BookingModified(ctx context.Context, b model.Booking, previous calendar.TimeRange) error
}

type nopNotifier struct{}

func (nopNotifier) BookingConfirmed(context.Context, model.Booking) error { return nil }
func (nopNotifier) BookingCancelled(context.Context, model.Booking) error { return nil }
func (nopNotifier) BookingModified(context.Context, model.Booking, calendar.TimeRange) error {
	return nil
}
