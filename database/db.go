package database

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"pg-manager/config"
	"pg-manager/internal/models"
)

// Connect opens the database selected by cfg.Driver. Unique-index
// violations surface as gorm.ErrDuplicatedKey.
func Connect(cfg config.DatabaseConfig, log *logrus.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "sqlite":
		dialector = sqlite.Open(cfg.SQLitePath)
	default:
		dialector = postgres.Open(cfg.DSN())
	}

	gormLogger := logger.New(log, logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  gormLevel(log.GetLevel()),
		IgnoreRecordNotFoundError: true,
	})

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         gormLogger,
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", cfg.Driver, err)
	}

	if cfg.Driver == "sqlite" {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	log.WithFields(logrus.Fields{"driver": cfg.Driver, "host": cfg.Host, "name": cfg.Name}).
		Info("Database connection established")
	return db, nil
}

func gormLevel(l logrus.Level) logger.LogLevel {
	switch {
	case l >= logrus.DebugLevel:
		return logger.Info
	case l >= logrus.WarnLevel:
		return logger.Warn
	default:
		return logger.Error
	}
}

// ProcessMigrations creates or updates every table and index.
func ProcessMigrations(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.RefreshToken{},
		&models.Room{},
		&models.Tenant{},
		&models.RentPayment{},
		&models.MaintenanceRequest{},
	)
	if err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}
	return nil
}
