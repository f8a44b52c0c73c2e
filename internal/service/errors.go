package service

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/Leganyst/facility-booking/internal/calendar"
)

// SQLSTATE нарушений ограничений, которые на записи брони означают занятый интервал.
const (
	pgExclusionViolation = "23P01"
	pgUniqueViolation    = "23505"
)

// storeError переводит ошибки хранилища в отказы ядра: отсутствие записи — NotFound.
// Прочие ошибки заворачиваются с контекстом op.
func storeError(op string, err error) error {
	if err == nil {
		return nil
	}
	if calendar.KindOf(err) != "" {
		return err
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return calendar.ErrNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}

// bookingWriteError — storeError для вставки и переноса брони: нарушение
// исключающего или уникального ограничения означает, что интервал уже занят.
func bookingWriteError(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgExclusionViolation, pgUniqueViolation:
			return calendar.ErrSlotTaken
		}
	}
	return storeError(op, err)
}
