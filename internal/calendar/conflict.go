package calendar

import "github.com/google/uuid"

type OccupancyKind string

const (
	OccupancyBooking  OccupancyKind = "booking"
	OccupancyBlackout OccupancyKind = "blackout"
)

// Occupancy — занятый интервал: подтверждённая бронь области или блэкаут площадки.
type Occupancy struct {
	ID    uuid.UUID
	Kind  OccupancyKind
	Range TimeRange
}

// ConflictIndex отвечает на запросы о пересечениях в пределах одной области.
// Реализация может быть линейной или деревом интервалов — контракт тот же.
type ConflictIndex interface {
	// Conflicts возвращает все занятые интервалы, пересекающиеся с tr.
	Conflicts(tr TimeRange) []Occupancy
	// Blocked — есть ли хотя бы одно пересечение.
	Blocked(tr TimeRange) bool
}

// LinearIndex — простой перебор; на объёмах одного дня площадки этого достаточно.
type LinearIndex struct {
	items []Occupancy
}

func NewLinearIndex(items ...Occupancy) *LinearIndex {
	return &LinearIndex{items: items}
}

func (ix *LinearIndex) Add(o Occupancy) {
	ix.items = append(ix.items, o)
}

func (ix *LinearIndex) Conflicts(tr TimeRange) []Occupancy {
	var out []Occupancy
	for _, o := range ix.items {
		if Overlaps(tr, o.Range) {
			out = append(out, o)
		}
	}
	return out
}

func (ix *LinearIndex) Blocked(tr TimeRange) bool {
	for _, o := range ix.items {
		if Overlaps(tr, o.Range) {
			return true
		}
	}
	return false
}
