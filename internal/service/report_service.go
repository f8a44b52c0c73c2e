package service

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Leganyst/facility-booking/internal/calendar"
	"github.com/Leganyst/facility-booking/internal/model"
	"github.com/Leganyst/facility-booking/internal/repository"
)

// MaxReportRange — наибольший период отчёта; более длинный запрос обрезается.
const MaxReportRange = 366 * 24 * time.Hour

// UsageRow — загрузка площадки за один локальный календарный день.
type UsageRow struct {
	FacilityID   uuid.UUID       `json:"facility_id"`
	FacilityName string          `json:"facility_name"`
	Date         string          `json:"date"`
	Bookings     int             `json:"bookings"`
	Revenue      decimal.Decimal `json:"revenue"`
}

// ReportService — агрегаты по подтверждённым броням прямо из основного хранилища.
type ReportService struct {
	store      repository.Store
	log        *slog.Logger
	defaultLoc *time.Location
}

func NewReportService(store repository.Store, log *slog.Logger, defaultLoc *time.Location) *ReportService {
	if log == nil {
		log = slog.Default()
	}
	if defaultLoc == nil {
		defaultLoc = time.UTC
	}
	return &ReportService{store: store, log: log, defaultLoc: defaultLoc}
}

// Usage группирует подтверждённые брони по площадке и локальной дате площадки.
// from и to — календарные даты UTC, обе включительно: в отчёт попадают брони,
// начинающиеся в [from 00:00, to+1d 00:00). Строки отсортированы по имени
// площадки, затем по дате.
func (s *ReportService) Usage(ctx context.Context, from, to time.Time, page, pageSize int) (calendar.Page[UsageRow], error) {
	ctx, span := tracer.Start(ctx, "ReportService.Usage")
	defer span.End()

	tr, err := reportRange(from, to)
	if err != nil {
		return calendar.Page[UsageRow]{}, calendar.Reject(calendar.KindInvalidInterval, "report range: %v", err)
	}

	repos := s.store.Repos()
	bookings, err := repos.Bookings.ListConfirmedStartingBetween(ctx, tr.Start, tr.End)
	if err != nil {
		return calendar.Page[UsageRow]{}, storeError("list bookings", err)
	}

	ids := make([]uuid.UUID, 0)
	seen := make(map[uuid.UUID]struct{})
	for _, b := range bookings {
		if _, ok := seen[b.FacilityID]; ok {
			continue
		}
		seen[b.FacilityID] = struct{}{}
		ids = append(ids, b.FacilityID)
	}
	facilities, err := repos.Facilities.ListByIDs(ctx, ids)
	if err != nil {
		return calendar.Page[UsageRow]{}, storeError("list facilities", err)
	}
	byID := make(map[uuid.UUID]*model.Facility, len(facilities))
	zones := make(map[uuid.UUID]*time.Location, len(facilities))
	for i := range facilities {
		f := &facilities[i]
		byID[f.ID] = f
		loc, err := f.Zone(s.defaultLoc)
		if err != nil {
			s.log.Warn("facility timezone fallback", slog.String("facility_id", f.ID.String()), slog.Any("error", err))
			loc = s.defaultLoc
		}
		zones[f.ID] = loc
	}

	type key struct {
		facility uuid.UUID
		date     string
	}
	rows := make(map[key]*UsageRow)
	for _, b := range bookings {
		f, ok := byID[b.FacilityID]
		if !ok {
			continue
		}
		k := key{facility: f.ID, date: b.StartsAt.In(zones[f.ID]).Format(time.DateOnly)}
		row, ok := rows[k]
		if !ok {
			row = &UsageRow{FacilityID: f.ID, FacilityName: f.Name, Date: k.date, Revenue: decimal.Zero}
			rows[k] = row
		}
		row.Bookings++
		row.Revenue = row.Revenue.Add(b.Price)
	}

	out := make([]UsageRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].FacilityName != out[j].FacilityName {
			return out[i].FacilityName < out[j].FacilityName
		}
		return out[i].Date < out[j].Date
	})

	return calendar.Paginate(out, page, pageSize), nil
}

// reportRange переводит пару дат в полуоткрытый интервал [from, to+1d).
func reportRange(from, to time.Time) (calendar.TimeRange, error) {
	if from.IsZero() || to.IsZero() {
		return calendar.TimeRange{}, calendar.ErrInvalidTimeRange
	}
	from, to = dateUTC(from), dateUTC(to)
	if to.Before(from) {
		from, to = to, from
	}
	return calendar.NormalizeTimeRange(from, to.AddDate(0, 0, 1), time.UTC, MaxReportRange)
}

func dateUTC(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
