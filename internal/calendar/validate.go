package calendar

import (
	"time"

	"github.com/google/uuid"
)

// Candidate — предлагаемый интервал брони в заданной области.
type Candidate struct {
	Scope Scope
	Range TimeRange
	// Exclude — собственная бронь при переносе; в проверке пересечений не участвует.
	Exclude *uuid.UUID
}

// Snapshot — состояние хранилища, достаточное для проверки кандидата:
// подтверждённые брони той же области и блэкауты площадки.
type Snapshot struct {
	Bookings  []Occupancy
	Blackouts []Occupancy
}

// ValidateCandidate выполняет проверки в фиксированном порядке, каждая со своей причиной:
// интервал, кратность слоту, часы работы, запас времени, блэкауты, занятость.
// Чистая функция: ничего не пишет и не читает из БД.
func ValidateCandidate(r Rules, c Candidate, snap Snapshot, now time.Time) error {
	if err := r.Validate(); err != nil {
		return err
	}

	tr := c.Range
	if !tr.Start.Before(tr.End) {
		return ErrInvalidInterval
	}

	if d := tr.Duration(); d%r.SlotLength != 0 {
		return Reject(KindMisalignedDuration,
			"booking length %s is not a multiple of %s", d, r.SlotLength)
	}

	window := r.OpeningWindow(r.LocalDate(tr.Start))
	if tr.Start.Before(window.Start) || tr.End.After(window.End) {
		return ErrOutsideOpeningHours
	}

	if tr.Start.Sub(now) < MinLeadTime {
		return ErrInsufficientLeadTime
	}

	if NewLinearIndex(snap.Blackouts...).Blocked(tr) {
		return ErrBlockedByBlackout
	}

	for _, b := range snap.Bookings {
		if c.Exclude != nil && b.ID == *c.Exclude {
			continue
		}
		if Overlaps(tr, b.Range) {
			return ErrSlotTaken
		}
	}

	return nil
}
