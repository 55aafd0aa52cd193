package db

import (
	"fmt"  // DSN formatting
	"time" // Slow query threshold

	"asso_funds/internal/config" // Application configuration
	"asso_funds/internal/domain" // Importing domain models

	"github.com/sirupsen/logrus" // Logging
	"gorm.io/driver/mysql"       // MySQL driver for GORM
	"gorm.io/driver/postgres"    // PostgreSQL driver for GORM
	"gorm.io/driver/sqlite"      // SQLite driver for GORM
	"gorm.io/gorm"               // GORM ORM library
	"gorm.io/gorm/logger"        // GORM logger levels
)

// DSN builds the connection string for the configured SQL driver
func DSN(cfg *config.Config) string {
	if cfg.DBDSN != "" {
		return cfg.DBDSN // Explicit DSN wins
	}
	switch cfg.DBDriver {
	case "postgres":
		return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
			cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, defaultPort(cfg.DBPort, "5432"))
	case "sqlite":
		return cfg.DBName // File path
	default:
		return cfg.DBUser + ":" + cfg.DBPassword + "@tcp(" + cfg.DBHost + ":" + defaultPort(cfg.DBPort, "3306") + ")/" + cfg.DBName + "?parseTime=true&loc=UTC"
	}
}

func defaultPort(port, fallback string) string {
	if port == "" {
		return fallback
	}
	return port
}

// Dialector returns the GORM dialector for a driver name
func Dialector(driver, dsn string) (gorm.Dialector, error) {
	switch driver {
	case "mysql":
		return mysql.Open(dsn), nil
	case "postgres":
		return postgres.Open(dsn), nil
	case "sqlite":
		return sqlite.Open(dsn), nil
	}
	return nil, fmt.Errorf("unsupported SQL driver %q", driver)
}

// Open connects to the configured SQL database
func Open(cfg *config.Config) (*gorm.DB, error) {
	d, err := Dialector(cfg.DBDriver, DSN(cfg))
	if err != nil {
		return nil, err
	}
	return OpenDialector(d, cfg.IsProd)
}

// OpenDialector opens a GORM connection with the settings every entry point shares
func OpenDialector(d gorm.Dialector, quiet bool) (*gorm.DB, error) {
	level := logger.Warn
	if quiet {
		level = logger.Error // Only errors in production
	}
	// Missing rows are reported through domain.ErrNotFound, not logged
	gormLogger := logger.New(logrus.StandardLogger(), logger.Config{
		SlowThreshold:             200 * time.Millisecond, // Slow SQL threshold
		LogLevel:                  level,                  // Log level
		IgnoreRecordNotFoundError: true,                   // Lookups of absent rows are expected
		Colorful:                  !quiet,                 // Plain output in production
	})
	return gorm.Open(d, &gorm.Config{
		TranslateError:                           true,       // Map driver errors to gorm.ErrDuplicatedKey
		DisableForeignKeyConstraintWhenMigrating: true,       // User references are lookups only
		Logger:                                   gormLogger, // GORM query logging through logrus
	})
}

// Migrate performs automatic migration for the database schema
func Migrate(db *gorm.DB) error {
	// AutoMigrate will create tables, missing columns and indexes
	if err := db.AutoMigrate(&domain.User{}, &domain.Transaction{}); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	logrus.Info("Migration completed.") // Log successful migration
	return nil
}
