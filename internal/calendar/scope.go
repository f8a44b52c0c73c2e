package calendar

import "github.com/google/uuid"

// Scope — область, в которой проверяются пересечения броней:
// вся площадка (FacilityLevel) или отдельный корт (CourtLevel).
// Брони уровня площадки и брони кортов живут в непересекающихся областях.
type Scope interface {
	Facility() uuid.UUID
	// Key — стабильный ключ области; хранится в bookings.scope_key.
	Key() string
	isScope()
}

type FacilityLevel struct {
	FacilityID uuid.UUID
}

func (s FacilityLevel) Facility() uuid.UUID { return s.FacilityID }
func (s FacilityLevel) Key() string         { return "facility:" + s.FacilityID.String() }
func (FacilityLevel) isScope()              {}

type CourtLevel struct {
	FacilityID uuid.UUID
	CourtID    uuid.UUID
}

func (s CourtLevel) Facility() uuid.UUID { return s.FacilityID }
func (s CourtLevel) Key() string         { return "court:" + s.CourtID.String() }
func (CourtLevel) isScope()              {}

// ScopeOf строит область по паре (площадка, корт или nil).
func ScopeOf(facilityID uuid.UUID, courtID *uuid.UUID) Scope {
	if courtID == nil {
		return FacilityLevel{FacilityID: facilityID}
	}
	return CourtLevel{FacilityID: facilityID, CourtID: *courtID}
}
