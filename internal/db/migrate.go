package db

import (
	"fmt"

	"go_hostcfg/internal/model"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Migrate runs database migrations for all models
func Migrate(db *gorm.DB, log *logrus.Entry) error {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	log.Info("Starting database migration...")

	models := []interface{}{
		&model.User{},
		&model.ConfigRevision{},
	}

	if err := db.AutoMigrate(models...); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	log.Infof("Database migration completed successfully (%d tables)", len(models))
	return nil
}
