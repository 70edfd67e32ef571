package config

import (
	"fmt"

	"github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"bus_backoffice/internal/logger"
	"bus_backoffice/internal/models"
)

// DSN builds the postgres data source name. DATABASE_URL wins over the
// individual DB_* settings when present.
func (c *Config) DSN() (string, error) {
	if c.DatabaseURL != "" {
		dsn, err := pq.ParseURL(c.DatabaseURL)
		if err != nil {
			return "", fmt.Errorf("parse DATABASE_URL: %w", err)
		}
		return dsn, nil
	}
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort, c.DBSSLMode, c.DBTimezone,
	), nil
}

// OpenDB connects to postgres. Duplicate-key errors are translated to
// gorm.ErrDuplicatedKey so services can classify them.
func OpenDB(cfg *Config) (*gorm.DB, error) {
	dsn, err := cfg.DSN()
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Gorm(cfg.LogLevel),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// Migrate creates or updates every table the back office uses.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(models.All()...)
}
