// Команда seed заводит демонстрационную площадку с двумя кортами.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/Leganyst/facility-booking/internal/config"
	"github.com/Leganyst/facility-booking/internal/db"
	"github.com/Leganyst/facility-booking/internal/model"
	"github.com/Leganyst/facility-booking/internal/repository"
)

const demoFacility = "Demo Sports Center"

func main() {
	log := slog.New(slog.NewTextHandler(os.Stdout, nil))
	if err := run(context.Background(), log); err != nil {
		log.Error("seed failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, log *slog.Logger) error {
	dbCfg, err := config.LoadDBConfig()
	if err != nil {
		return err
	}
	gormDB, err := db.NewGormDB(dbCfg)
	if err != nil {
		return err
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	if err := model.AutoMigrate(gormDB); err != nil {
		return err
	}

	var existing model.Facility
	err = gormDB.WithContext(ctx).Where("name = ?", demoFacility).First(&existing).Error
	if err == nil {
		log.Info("demo facility already exists", slog.String("facility_id", existing.ID.String()))
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	return repository.NewGormStore(gormDB).InTx(ctx, func(repos repository.Repos) error {
		f := &model.Facility{
			Name:              demoFacility,
			Location:          "Main street 1",
			OpenTime:          datatypes.NewTime(8, 0, 0, 0),
			CloseTime:         datatypes.NewTime(22, 0, 0, 0),
			SlotLengthMinutes: 60,
			BasePrice:         decimal.RequireFromString("10.00"),
		}
		if _, err := f.Rules(nil); err != nil {
			return err
		}
		if err := repos.Facilities.Create(ctx, f); err != nil {
			return err
		}
		for _, name := range []string{"Court 1", "Court 2"} {
			c := &model.Court{FacilityID: f.ID, Name: name, IsActive: true}
			if err := repos.Facilities.CreateCourt(ctx, c); err != nil {
				return err
			}
			log.Info("court created", slog.String("court_id", c.ID.String()), slog.String("name", name))
		}
		log.Info("demo facility created", slog.String("facility_id", f.ID.String()))
		return nil
	})
}
