// Package database opens the GORM connections used by the storefront modules.
package database

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Supported drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config selects the database backend for one module. For sqlite, DSN is the
// database file path (":memory:" in tests); for postgres it is a libpq DSN.
type Config struct {
	Driver string
	DSN    string
}

// SQLite returns a sqlite config for the given file path.
func SQLite(path string) Config {
	return Config{Driver: DriverSQLite, DSN: path}
}

// Open connects to the configured database with GORM's logger silenced.
func Open(cfg Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case DriverSQLite, "":
		dialector = sqlite.Open(cfg.DSN)
	case DriverPostgres:
		dialector = postgres.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// every sqlite connection to :memory: opens its own empty database
	if cfg.Driver != DriverPostgres && cfg.DSN == ":memory:" {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get database connection: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}
	return db, nil
}

// Close closes the underlying sql.DB, ignoring a nil handle.
func Close(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping checks the connection.
func Ping(db *gorm.DB) error {
	if db == nil {
		return fmt.Errorf("database not initialized")
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database connection: %w", err)
	}
	return sqlDB.Ping()
}

// Describe returns a loggable description of cfg without credentials.
func Describe(cfg Config) string {
	if cfg.Driver == DriverPostgres {
		return "postgres"
	}
	return "sqlite:" + cfg.DSN
}
