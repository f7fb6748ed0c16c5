package db

import (
	"fmt"

	"go_hostcfg/internal/config"

	"github.com/glebarez/sqlite"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var database *gorm.DB

// Open opens the user store database for the configured driver
func Open(cfg config.DBConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case config.DriverMySQL:
		dialector = mysql.Open(cfg.DSN)
	case config.DriverSQLite:
		dialector = sqlite.Open(cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	gdb, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", cfg.Driver, err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping %s database: %w", cfg.Driver, err)
	}

	return gdb, nil
}

// Init opens the database and keeps it as the process-wide handle
func Init(cfg config.DBConfig, log *logrus.Entry) error {
	gdb, err := Open(cfg)
	if err != nil {
		return err
	}
	database = gdb
	log.WithField("driver", cfg.Driver).Info("Database connected")
	return nil
}

// GetDB returns the process-wide database handle
func GetDB() *gorm.DB {
	return database
}

// Close closes the process-wide database handle
func Close() error {
	if database == nil {
		return nil
	}
	sqlDB, err := database.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
