package calendar

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidTimeRange = errors.New("invalid time range")
	ErrSlotDuration     = errors.New("slot duration must be positive")
)

// TimeRange представляет полуоткрытый интервал [Start, End).
type TimeRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func (tr TimeRange) Duration() time.Duration {
	return tr.End.Sub(tr.Start)
}

// UTC возвращает тот же интервал в UTC — в таком виде он хранится в БД.
func (tr TimeRange) UTC() TimeRange {
	return TimeRange{Start: tr.Start.UTC(), End: tr.End.UTC()}
}

func (tr TimeRange) In(loc *time.Location) TimeRange {
	return TimeRange{Start: tr.Start.In(loc), End: tr.End.In(loc)}
}

// Overlaps — пересечение полуоткрытых интервалов.
// Касание концами (a.End == b.Start) пересечением не считается.
func Overlaps(a, b TimeRange) bool {
	return a.Start.Before(b.End) && a.End.After(b.Start)
}

// NormalizeTimeRange нормализует интервал:
//   - меняет местами границы, если они перепутаны;
//   - переводит в часовой пояс loc;
//   - при превышении maxDuration обрезает интервал до start+maxDuration.
//
// Если maxDuration <= 0, ограничение по длительности не применяется.
func NormalizeTimeRange(start, end time.Time, loc *time.Location, maxDuration time.Duration) (TimeRange, error) {
	if start.IsZero() || end.IsZero() {
		return TimeRange{}, ErrInvalidTimeRange
	}
	if end.Before(start) {
		start, end = end, start
	}
	if loc != nil {
		start = start.In(loc)
		end = end.In(loc)
	}
	if maxDuration > 0 && end.Sub(start) > maxDuration {
		end = start.Add(maxDuration)
	}
	if !end.After(start) {
		return TimeRange{}, ErrInvalidTimeRange
	}
	return TimeRange{Start: start, End: end}, nil
}

// SplitToTimeSlots разбивает интервал на подряд идущие слоты фиксированной длительности.
// "Хвост" короче slotDuration отбрасывается.
func SplitToTimeSlots(tr TimeRange, slotDuration time.Duration) ([]TimeRange, error) {
	if slotDuration <= 0 {
		return nil, ErrSlotDuration
	}
	slots := []TimeRange{}
	for cur := tr.Start; !cur.Add(slotDuration).After(tr.End); cur = cur.Add(slotDuration) {
		slots = append(slots, TimeRange{Start: cur, End: cur.Add(slotDuration)})
	}
	return slots, nil
}

// HasOverlap проверяет, пересекается ли newRange с чем-либо из existing,
// и возвращает все конфликтующие интервалы.
func HasOverlap(newRange TimeRange, existing []TimeRange) (bool, []TimeRange) {
	var conflicts []TimeRange
	for _, tr := range existing {
		if Overlaps(newRange, tr) {
			conflicts = append(conflicts, tr)
		}
	}
	return len(conflicts) > 0, conflicts
}

var ruWeekdays = map[time.Weekday]string{
	time.Monday:    "Понедельник",
	time.Tuesday:   "Вторник",
	time.Wednesday: "Среда",
	time.Thursday:  "Четверг",
	time.Friday:    "Пятница",
	time.Saturday:  "Суббота",
	time.Sunday:    "Воскресенье",
}

// FormatSlotForUser форматирует интервал для уведомлений.
// Если loc != nil, время переводится в часовой пояс площадки.
func FormatSlotForUser(tr TimeRange, loc *time.Location) string {
	if loc != nil {
		tr = tr.In(loc)
	}
	return fmt.Sprintf("%s, %s, %s–%s",
		ruWeekdays[tr.Start.Weekday()],
		tr.Start.Format("02.01.2006"),
		tr.Start.Format("15:04"),
		tr.End.Format("15:04"),
	)
}
