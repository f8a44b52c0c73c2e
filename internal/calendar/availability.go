package calendar

import "time"

// AvailableSlots возвращает свободные слоты даты: не пересекающиеся ни с одной
// занятостью индекса и начинающиеся не раньше now+MinLeadTime.
// Занятые слоты просто отбрасываются, отметок занятости нет.
func AvailableSlots(r Rules, date time.Time, now time.Time, index ConflictIndex) ([]TimeRange, error) {
	slots, err := GenerateSlots(r, date)
	if err != nil {
		return nil, err
	}
	free := make([]TimeRange, 0, len(slots))
	for _, s := range slots {
		if s.Start.Sub(now) < MinLeadTime {
			continue
		}
		if index != nil && index.Blocked(s) {
			continue
		}
		free = append(free, s)
	}
	return free, nil
}
