package db

import (
	"fmt"
	"os"
	"path/filepath"

	"storefront/models"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Open connects to the SQLite file at dbPath, creating its directory if
// needed, and migrates the catalog schema. Foreign keys are not created:
// product→category integrity is checked by the catalog service.
func Open(dbPath string, log *logrus.Logger) (*gorm.DB, error) {
	if dbPath != ":memory:" {
		dir := filepath.Dir(dbPath)
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("create database directory: %w", err)
			}
		}
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			log.Infof("Database file does not exist, creating: %s", dbPath)
		}
	}

	database, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		TranslateError:                           true,
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger: gormlogger.New(log, gormlogger.Config{
			LogLevel:                  gormLevel(log),
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	log.Infof("Database connected successfully at %s", dbPath)

	if err := database.AutoMigrate(&models.Category{}, &models.Product{}); err != nil {
		return nil, fmt.Errorf("migrate schema: %w", err)
	}
	return database, nil
}

func gormLevel(log *logrus.Logger) gormlogger.LogLevel {
	switch {
	case log.IsLevelEnabled(logrus.DebugLevel):
		return gormlogger.Info
	case log.IsLevelEnabled(logrus.WarnLevel):
		return gormlogger.Warn
	default:
		return gormlogger.Error
	}
}
