package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"

	"github.com/Leganyst/facility-booking/internal/calendar"
	"github.com/Leganyst/facility-booking/internal/model"
	"github.com/Leganyst/facility-booking/internal/repository"
)

var tracer = otel.Tracer("github.com/Leganyst/facility-booking/internal/service")

// SubmitInput — запрос на новую бронь.
type SubmitInput struct {
	RequesterID uuid.UUID
	FacilityID  uuid.UUID
	CourtID     *uuid.UUID
	Start       time.Time
	End         time.Time
}

// ModifyInput — перенос брони на новый интервал.
type ModifyInput struct {
	BookingID   uuid.UUID
	RequesterID uuid.UUID
	Start       time.Time
	End         time.Time
}

// BookingService — контроллер допуска броней: создание, отмена, перенос.
// Проверка и запись для одной области идут под замком области и в одной транзакции.
type BookingService struct {
	store      repository.Store
	clock      calendar.Clock
	notifier   Notifier
	log        *slog.Logger
	defaultLoc *time.Location
	locks      *scopeLocks
}

type BookingOption func(*BookingService)

func WithNotifier(n Notifier) BookingOption {
	return func(s *BookingService) {
		if n != nil {
			s.notifier = n
		}
	}
}

func WithLogger(l *slog.Logger) BookingOption {
	return func(s *BookingService) {
		if l != nil {
			s.log = l
		}
	}
}

// WithDefaultLocation задаёт пояс для площадок без собственного TimeZone.
func WithDefaultLocation(loc *time.Location) BookingOption {
	return func(s *BookingService) {
		if loc != nil {
			s.defaultLoc = loc
		}
	}
}

func NewBookingService(store repository.Store, clock calendar.Clock, opts ...BookingOption) *BookingService {
	if clock == nil {
		clock = calendar.SystemClock{}
	}
	s := &BookingService{
		store:      store,
		clock:      clock,
		notifier:   nopNotifier{},
		log:        slog.Default(),
		defaultLoc: time.UTC,
		locks:      newScopeLocks(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit проверяет и сохраняет новую подтверждённую бронь.
func (s *BookingService) Submit(ctx context.Context, in SubmitInput) (*model.Booking, error) {
	ctx, span := tracer.Start(ctx, "BookingService.Submit", trace.WithAttributes(
		attribute.String("facility_id", in.FacilityID.String()),
		attribute.String("user_id", in.RequesterID.String()),
	))
	defer span.End()

	unlock := s.locks.Lock(scopeKeyOf(in.FacilityID, in.CourtID))
	defer unlock()

	var booking *model.Booking
	err := s.store.InTx(ctx, func(repos repository.Repos) error {
		if _, err := repos.Users.FindByID(ctx, in.RequesterID); err != nil {
			return storeError("load requester", err)
		}

		f, scope, err := resolveScope(ctx, repos, in.FacilityID, in.CourtID, true)
		if err != nil {
			return err
		}
		rules, err := facilityRules(f, s.defaultLoc)
		if err != nil {
			return err
		}

		tr := calendar.TimeRange{Start: in.Start, End: in.End}.UTC()
		snap, err := loadSnapshot(ctx, repos, scope, tr, true)
		if err != nil {
			return err
		}
		if err := calendar.ValidateCandidate(rules, calendar.Candidate{Scope: scope, Range: tr}, snap, s.clock.Now()); err != nil {
			return err
		}

		b := &model.Booking{
			FacilityID: f.ID,
			CourtID:    in.CourtID,
			ScopeKey:   scope.Key(),
			UserID:     in.RequesterID,
			StartsAt:   tr.Start,
			EndsAt:     tr.End,
			Price:      calendar.Price(f.BasePrice, int64(tr.Duration()/time.Minute)),
			Status:     model.BookingStatusConfirmed,
		}
		if err := repos.Bookings.Create(ctx, b); err != nil {
			return bookingWriteError("create booking", err)
		}
		if err := recordEvent(ctx, repos, model.EventTypeBookingCreated, b, map[string]any{
			"starts_at": b.StartsAt,
			"ends_at":   b.EndsAt,
			"price":     b.Price,
		}); err != nil {
			return err
		}
		booking = b
		return nil
	})
	if err != nil {
		s.reject(span, "submit rejected", err,
			slog.String("facility_id", in.FacilityID.String()),
			slog.String("user_id", in.RequesterID.String()),
		)
		return nil, err
	}

	s.log.Info("booking confirmed",
		slog.String("booking_id", booking.ID.String()),
		slog.String("scope", booking.ScopeKey),
		slog.String("user_id", booking.UserID.String()),
		slog.Time("starts_at", booking.StartsAt),
		slog.String("price", booking.Price.StringFixed(2)),
	)
	s.notify(ctx, booking.ID, func(ctx context.Context, b model.Booking) error {
		return s.notifier.BookingConfirmed(ctx, b)
	}, *booking)
	return booking, nil
}

// Cancel отменяет бронь владельца. Повторная отмена возвращает бронь без изменений
// и без побочных эффектов.
func (s *BookingService) Cancel(ctx context.Context, bookingID, requesterID uuid.UUID) (*model.Booking, error) {
	ctx, span := tracer.Start(ctx, "BookingService.Cancel", trace.WithAttributes(
		attribute.String("booking_id", bookingID.String()),
		attribute.String("user_id", requesterID.String()),
	))
	defer span.End()

	current, err := s.ownedBooking(ctx, s.store.Repos(), bookingID, requesterID)
	if err != nil {
		s.reject(span, "cancel rejected", err, slog.String("booking_id", bookingID.String()))
		return nil, err
	}
	if !current.IsConfirmed() {
		return current, nil
	}

	unlock := s.locks.Lock(current.ScopeKey)
	defer unlock()

	var (
		booking *model.Booking
		changed bool
	)
	err = s.store.InTx(ctx, func(repos repository.Repos) error {
		b, err := repos.Bookings.LockByID(ctx, bookingID)
		if err != nil {
			return storeError("lock booking", err)
		}
		booking = b
		if !b.IsConfirmed() {
			return nil
		}

		now := s.clock.Now()
		if b.StartsAt.Sub(now) < calendar.MinLeadTime {
			return calendar.ErrInsufficientLeadTime
		}

		if err := repos.Bookings.Cancel(ctx, b.ID, now); err != nil {
			return storeError("cancel booking", err)
		}
		cancelledAt := now.UTC()
		b.Status = model.BookingStatusCancelled
		b.CancelledAt = &cancelledAt

		if err := recordEvent(ctx, repos, model.EventTypeBookingCancelled, b, map[string]any{
			"starts_at": b.StartsAt,
			"ends_at":   b.EndsAt,
		}); err != nil {
			return err
		}
		changed = true
		return nil
	})
	if err != nil {
		s.reject(span, "cancel rejected", err, slog.String("booking_id", bookingID.String()))
		return nil, err
	}
	if !changed {
		return booking, nil
	}

	s.log.Info("booking cancelled",
		slog.String("booking_id", booking.ID.String()),
		slog.String("user_id", booking.UserID.String()),
	)
	s.notify(ctx, booking.ID, func(ctx context.Context, b model.Booking) error {
		return s.notifier.BookingCancelled(ctx, b)
	}, *booking)
	return booking, nil
}

// Modify переносит бронь на новый интервал. Площадка, корт и владелец не меняются;
// при проверке пересечений собственная бронь не учитывается.
func (s *BookingService) Modify(ctx context.Context, in ModifyInput) (*model.Booking, error) {
	ctx, span := tracer.Start(ctx, "BookingService.Modify", trace.WithAttributes(
		attribute.String("booking_id", in.BookingID.String()),
		attribute.String("user_id", in.RequesterID.String()),
	))
	defer span.End()

	current, err := s.ownedBooking(ctx, s.store.Repos(), in.BookingID, in.RequesterID)
	if err != nil {
		s.reject(span, "modify rejected", err, slog.String("booking_id", in.BookingID.String()))
		return nil, err
	}

	unlock := s.locks.Lock(current.ScopeKey)
	defer unlock()

	var (
		booking  *model.Booking
		previous calendar.TimeRange
	)
	err = s.store.InTx(ctx, func(repos repository.Repos) error {
		b, err := repos.Bookings.LockByID(ctx, in.BookingID)
		if err != nil {
			return storeError("lock booking", err)
		}
		if !b.IsConfirmed() {
			return calendar.ErrBookingCancelled
		}

		now := s.clock.Now()
		if b.StartsAt.Sub(now) < calendar.MinLeadTime {
			return calendar.ErrInsufficientLeadTime
		}

		f, scope, err := resolveScope(ctx, repos, b.FacilityID, b.CourtID, true)
		if err != nil {
			return err
		}
		rules, err := facilityRules(f, s.defaultLoc)
		if err != nil {
			return err
		}

		tr := calendar.TimeRange{Start: in.Start, End: in.End}.UTC()
		snap, err := loadSnapshot(ctx, repos, scope, tr, true)
		if err != nil {
			return err
		}
		candidate := calendar.Candidate{Scope: scope, Range: tr, Exclude: &b.ID}
		if err := calendar.ValidateCandidate(rules, candidate, snap, now); err != nil {
			return err
		}

		previous = b.Range()
		b.StartsAt = tr.Start
		b.EndsAt = tr.End
		b.Price = calendar.Price(f.BasePrice, int64(tr.Duration()/time.Minute))
		if err := repos.Bookings.UpdateSchedule(ctx, b); err != nil {
			return bookingWriteError("update booking", err)
		}
		if err := recordEvent(ctx, repos, model.EventTypeBookingUpdated, b, map[string]any{
			"previous_starts_at": previous.Start,
			"previous_ends_at":   previous.End,
			"starts_at":          b.StartsAt,
			"ends_at":            b.EndsAt,
			"price":              b.Price,
		}); err != nil {
			return err
		}
		booking = b
		return nil
	})
	if err != nil {
		s.reject(span, "modify rejected", err, slog.String("booking_id", in.BookingID.String()))
		return nil, err
	}

	s.log.Info("booking modified",
		slog.String("booking_id", booking.ID.String()),
		slog.Time("starts_at", booking.StartsAt),
		slog.Time("previous_starts_at", previous.Start),
	)
	s.notify(ctx, booking.ID, func(ctx context.Context, b model.Booking) error {
		return s.notifier.BookingModified(ctx, b, previous)
	}, *booking)
	return booking, nil
}

// Get возвращает бронь владельцу.
func (s *BookingService) Get(ctx context.Context, bookingID, requesterID uuid.UUID) (*model.Booking, error) {
	return s.ownedBooking(ctx, s.store.Repos(), bookingID, requesterID)
}

// ListMine возвращает страницу броней пользователя, новые сверху.
func (s *BookingService) ListMine(ctx context.Context, requesterID uuid.UUID, page, pageSize int) (calendar.Page[model.Booking], error) {
	page, pageSize = calendar.NormalizePage(page, pageSize)
	items, total, err := s.store.Repos().Bookings.ListByUser(ctx, requesterID, pageSize, calendar.Offset(page, pageSize))
	if err != nil {
		return calendar.Page[model.Booking]{}, storeError("list bookings", err)
	}
	return calendar.PageOf(items, page, pageSize, int(total)), nil
}

// ListForProvider возвращает страницу броней на всех площадках, которыми владеет providerID.
// Отменённые брони тоже попадают в выдачу.
func (s *BookingService) ListForProvider(ctx context.Context, providerID uuid.UUID, page, pageSize int) (calendar.Page[model.Booking], error) {
	page, pageSize = calendar.NormalizePage(page, pageSize)
	items, total, err := s.store.Repos().Bookings.ListByFacilityOwner(ctx, providerID, pageSize, calendar.Offset(page, pageSize))
	if err != nil {
		return calendar.Page[model.Booking]{}, storeError("list provider bookings", err)
	}
	return calendar.PageOf(items, page, pageSize, int(total)), nil
}

func (s *BookingService) ownedBooking(ctx context.Context, repos repository.Repos, bookingID, requesterID uuid.UUID) (*model.Booking, error) {
	b, err := repos.Bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, storeError("load booking", err)
	}
	if b.UserID != requesterID {
		return nil, calendar.ErrNotOwner
	}
	return b, nil
}

func recordEvent(ctx context.Context, repos repository.Repos, typ model.EventType, b *model.Booking, details map[string]any) error {
	raw, err := json.Marshal(details)
	if err != nil {
		return storeError("encode event details", err)
	}
	userID, bookingID := b.UserID, b.ID
	ev := &model.Event{
		EventType: typ,
		UserID:    &userID,
		BookingID: &bookingID,
		Details:   datatypes.JSON(raw),
	}
	if err := repos.Bookings.RecordEvent(ctx, ev); err != nil {
		return storeError("record event", err)
	}
	return nil
}

// notify отправляет уведомление в фоне; отмена ctx запроса на него не влияет.
func (s *BookingService) notify(ctx context.Context, bookingID uuid.UUID, send func(context.Context, model.Booking) error, b model.Booking) {
	ctx = context.WithoutCancel(ctx)
	go func() {
		if err := send(ctx, b); err != nil {
			s.log.Warn("notification failed",
				slog.String("booking_id", bookingID.String()),
				slog.Any("error", err),
			)
		}
	}()
}

// reject логирует отказ: отказы ядра — на уровне Info, прочие ошибки — Error.
func (s *BookingService) reject(span trace.Span, msg string, err error, attrs ...any) {
	span.RecordError(err)
	if kind := calendar.KindOf(err); kind != "" {
		span.SetAttributes(attribute.String("rejection", string(kind)))
		s.log.Info(msg, append(attrs, slog.String("kind", string(kind)))...)
		return
	}
	s.log.Error(msg, append(attrs, slog.Any("error", err))...)
}
