package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Leganyst/facility-booking/internal/calendar"
	"github.com/Leganyst/facility-booking/internal/repository"
)

// AvailabilityService считает свободные слоты по данным хранилища.
// Результат — подсказка клиенту; при создании брони всё проверяется заново.
type AvailabilityService struct {
	store      repository.Store
	clock      calendar.Clock
	log        *slog.Logger
	defaultLoc *time.Location
}

func NewAvailabilityService(store repository.Store, clock calendar.Clock, log *slog.Logger, defaultLoc *time.Location) *AvailabilityService {
	if clock == nil {
		clock = calendar.SystemClock{}
	}
	if log == nil {
		log = slog.Default()
	}
	if defaultLoc == nil {
		defaultLoc = time.UTC
	}
	return &AvailabilityService{store: store, clock: clock, log: log, defaultLoc: defaultLoc}
}

// AvailableSlots возвращает свободные слоты площадки (или её корта) на календарную дату.
// Из date берутся только год, месяц и день; они трактуются в поясе площадки.
func (s *AvailabilityService) AvailableSlots(
	ctx context.Context,
	facilityID uuid.UUID,
	courtID *uuid.UUID,
	date time.Time,
) ([]calendar.TimeRange, error) {
	ctx, span := tracer.Start(ctx, "AvailabilityService.AvailableSlots", trace.WithAttributes(
		attribute.String("facility_id", facilityID.String()),
		attribute.String("date", date.Format(time.DateOnly)),
	))
	defer span.End()

	repos := s.store.Repos()
	f, scope, err := resolveScope(ctx, repos, facilityID, courtID, false)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	rules, err := facilityRules(f, s.defaultLoc)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, rules.Location)
	window := rules.OpeningWindow(day)

	snap, err := loadSnapshot(ctx, repos, scope, window, false)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	index := calendar.NewLinearIndex(snap.Bookings...)
	for _, o := range snap.Blackouts {
		index.Add(o)
	}

	slots, err := calendar.AvailableSlots(rules, day, s.clock.Now(), index)
	if err != nil {
		return nil, storeError("available slots", err)
	}
	s.log.Debug("availability computed",
		slog.String("scope", scope.Key()),
		slog.String("date", day.Format(time.DateOnly)),
		slog.Int("free", len(slots)),
	)
	return slots, nil
}
