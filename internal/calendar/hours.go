package calendar

import (
	"errors"
	"time"
)

// MinLeadTime — минимальный запас времени до начала брони
// для создания, переноса и отмены.
const MinLeadTime = time.Hour

var ErrInvalidRules = errors.New("invalid facility rules")

// Rules — расписание площадки в её локальном времени.
// Open и Close задаются как смещение от полуночи.
type Rules struct {
	Open       time.Duration
	Close      time.Duration
	SlotLength time.Duration
	Location   *time.Location
}

func (r Rules) Validate() error {
	if r.Open < 0 || r.Close > 24*time.Hour || r.Open >= r.Close {
		return ErrInvalidRules
	}
	if r.SlotLength <= 0 {
		return ErrInvalidRules
	}
	return nil
}

func (r Rules) location() *time.Location {
	if r.Location == nil {
		return time.UTC
	}
	return r.Location
}

// LocalDate приводит момент времени к календарной дате площадки (полночь по её поясу).
func (r Rules) LocalDate(t time.Time) time.Time {
	y, m, d := t.In(r.location()).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, r.location())
}

// Combine склеивает календарную дату и время суток в поясе loc.
// Используются только год/месяц/день из date.
func Combine(date time.Time, timeOfDay time.Duration, loc *time.Location) time.Time {
	y, m, d := date.Date()
	h := int(timeOfDay / time.Hour)
	min := int((timeOfDay % time.Hour) / time.Minute)
	sec := int((timeOfDay % time.Minute) / time.Second)
	return time.Date(y, m, d, h, min, sec, 0, loc)
}

// OpeningWindow — часы работы площадки в заданную дату.
func (r Rules) OpeningWindow(date time.Time) TimeRange {
	loc := r.location()
	return TimeRange{
		Start: Combine(date, r.Open, loc),
		End:   Combine(date, r.Close, loc),
	}
}

// GenerateSlots возвращает упорядоченные слоты дня: от открытия с шагом SlotLength,
// пока конец очередного слота не выходит за закрытие.
func GenerateSlots(r Rules, date time.Time) ([]TimeRange, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return SplitToTimeSlots(r.OpeningWindow(date), r.SlotLength)
}

// Clock — источник "сейчас". Передаётся явно во все проверки.
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

// FixedClock всегда возвращает одно и то же время; нужен для тестов и пересчётов.
type FixedClock time.Time

func (c FixedClock) Now() time.Time { return time.Time(c) }
