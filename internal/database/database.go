package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	mattn "gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/beesmart/beesmart/internal/config"
	"github.com/beesmart/beesmart/internal/logging"
)

var ErrUnknownDriver = errors.New("unknown database driver")

// Database owns the process wide store handle. Repositories receive DB
// through their constructors.
type Database struct {
	DB     *gorm.DB
	driver string
	log    logrus.FieldLogger
}

// NewDatabase opens the store described by cfg and brings its schema up to date.
func NewDatabase(cfg config.Database, log logrus.FieldLogger) (*Database, error) {
	d, err := Open(cfg, log)
	if err != nil {
		return nil, err
	}

	if err := d.Initialize(context.Background()); err != nil {
		d.Close()
		return nil, err
	}

	d.log.WithField("driver", d.driver).Info("Database initialized successfully")
	return d, nil
}

// Open connects without touching the schema.
func Open(cfg config.Database, log logrus.FieldLogger) (*Database, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	driver := cfg.Driver
	if driver == "" {
		driver = config.DriverSQLite
	}

	dialector, err := dialectorFor(driver, cfg)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logging.GormLogger(log, cfg.LogLevel),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database handle: %w", err)
	}
	switch driver {
	case config.DriverPostgres:
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetConnMaxLifetime(time.Hour)
	default:
		// Every SQLite connection to :memory: is a separate database.
		if isMemoryPath(cfg.Path) {
			sqlDB.SetMaxOpenConns(1)
		}
	}

	return &Database{DB: db, driver: driver, log: log}, nil
}

func dialectorFor(driver string, cfg config.Database) (gorm.Dialector, error) {
	switch driver {
	case config.DriverSQLite:
		return mattn.Open(withParams(cfg.Path, "_foreign_keys=on&_busy_timeout=5000")), nil
	case config.DriverSQLitePure:
		return sqlite.Open(withParams(cfg.Path, "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")), nil
	case config.DriverPostgres:
		if cfg.DSN == "" {
			return nil, errors.New("DATABASE_DSN is required for the postgres driver")
		}
		return postgres.Open(cfg.DSN), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}
}

func withParams(path, params string) string {
	if path == "" {
		path = config.DefaultDatabasePath
	}
	if strings.Contains(path, "?") {
		return path + "&" + params
	}
	return path + "?" + params
}

func isMemoryPath(path string) bool {
	return path == ":memory:" || strings.Contains(path, "mode=memory")
}

// Driver returns the configured driver name.
func (d *Database) Driver() string {
	return d.driver
}

// IsSQLite reports whether the store is one of the SQLite drivers.
func (d *Database) IsSQLite() bool {
	return d.driver == config.DriverSQLite || d.driver == config.DriverSQLitePure
}

// Ping checks the store is reachable.
func (d *Database) Ping(ctx context.Context) error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
