package model

import (
	"fmt"

	"gorm.io/gorm"
)

// Исключающее ограничение: две подтверждённые брони одной области не могут пересекаться.
// Страхует прикладную проверку, если две транзакции всё же разойдутся.
var postgresConstraints = []string{
	`CREATE EXTENSION IF NOT EXISTS btree_gist`,
	`DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'bookings_no_overlap') THEN
			ALTER TABLE bookings
				ADD CONSTRAINT bookings_no_overlap
				EXCLUDE USING gist (scope_key WITH =, tstzrange(starts_at, ends_at, '[)') WITH &&)
				WHERE (status = 'confirmed');
		END IF;
	END $$`,
	`DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'blackouts_valid_range') THEN
			ALTER TABLE blackouts ADD CONSTRAINT blackouts_valid_range CHECK (starts_at < ends_at);
		END IF;
	END $$`,
}

// AutoMigrate выполняет миграцию всех сущностей ядра бронирования.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&User{},
		&Profile{},
		&Facility{},
		&Court{},
		&Blackout{},
		&Booking{},
		&Event{},
	); err != nil {
		return err
	}

	if db.Dialector.Name() != "postgres" {
		return nil
	}
	for _, stmt := range postgresConstraints {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("postgres constraint: %w", err)
		}
	}
	return nil
}
