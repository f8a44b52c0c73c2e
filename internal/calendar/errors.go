package calendar

import (
	"errors"
	"fmt"
)

// ErrorKind — машинно-читаемая причина отказа.
type ErrorKind string

const (
	KindInvalidScope         ErrorKind = "InvalidScope"
	KindInvalidInterval      ErrorKind = "InvalidInterval"
	KindMisalignedDuration   ErrorKind = "MisalignedDuration"
	KindOutsideOpeningHours  ErrorKind = "OutsideOpeningHours"
	KindInsufficientLeadTime ErrorKind = "InsufficientLeadTime"
	KindBlockedByBlackout    ErrorKind = "BlockedByBlackout"
	KindSlotTaken            ErrorKind = "SlotTaken"
	KindNotOwner             ErrorKind = "NotOwner"
	KindNotFound             ErrorKind = "NotFound"
	KindBookingCancelled     ErrorKind = "BookingCancelled"
)

// Rejection — типизированный отказ ядра бронирования.
// errors.Is сравнивает только Kind, поэтому сообщение можно уточнять.
type Rejection struct {
	Kind    ErrorKind
	Message string
}

func (r *Rejection) Error() string {
	return fmt.Sprintf("%s: %s", r.Kind, r.Message)
}

func (r *Rejection) Is(target error) bool {
	t, ok := target.(*Rejection)
	if !ok {
		return false
	}
	return t.Kind == r.Kind
}

// Reject создаёт отказ с уточнённым сообщением.
func Reject(kind ErrorKind, format string, args ...any) *Rejection {
	return &Rejection{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

var (
	ErrInvalidScope         = &Rejection{Kind: KindInvalidScope, Message: "court does not belong to the facility or is not bookable"}
	ErrInvalidInterval      = &Rejection{Kind: KindInvalidInterval, Message: "end must be after start"}
	ErrMisalignedDuration   = &Rejection{Kind: KindMisalignedDuration, Message: "duration must be a positive multiple of the slot length"}
	ErrOutsideOpeningHours  = &Rejection{Kind: KindOutsideOpeningHours, Message: "booking must be within opening hours"}
	ErrInsufficientLeadTime = &Rejection{Kind: KindInsufficientLeadTime, Message: "bookings must be made or changed at least 1 hour in advance"}
	ErrBlockedByBlackout    = &Rejection{Kind: KindBlockedByBlackout, Message: "this time falls within a blackout period"}
	ErrSlotTaken            = &Rejection{Kind: KindSlotTaken, Message: "this time overlaps with another booking"}
	ErrNotOwner             = &Rejection{Kind: KindNotOwner, Message: "booking belongs to another user"}
	ErrNotFound             = &Rejection{Kind: KindNotFound, Message: "not found"}
	ErrBookingCancelled     = &Rejection{Kind: KindBookingCancelled, Message: "booking is cancelled"}
)

// KindOf возвращает причину отказа или пустую строку для прочих ошибок.
func KindOf(err error) ErrorKind {
	var r *Rejection
	if errors.As(err, &r) {
		return r.Kind
	}
	return ""
}
