// Package sqlite is the SQL-backed data store. It runs on the embedded
// SQLite driver by default and on Postgres through pgx.
package sqlite

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"itinerary-router/internal/database"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "pgx"

	DefaultRouteCacheTTL = time.Hour
	schemaVersion        = 1
)

// Config selects the driver and connection
type Config struct {
	Driver        string
	DSN           string
	RouteCacheTTL time.Duration
}

// Store is a SQL data store implementing database.DataStore
type Store struct {
	db     *sqlx.DB
	driver string
	mu     sync.RWMutex
	log    logrus.FieldLogger

	itineraryRepo  database.ItineraryRepository
	routeCacheRepo database.RouteCacheRepository
}

var _ database.DataStore = (*Store)(nil)

// New opens the database described by cfg and initializes the schema
func New(cfg Config, log logrus.FieldLogger) (*Store, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	driver := cfg.Driver
	if driver == "" {
		driver = DriverSQLite
	}
	if driver != DriverSQLite && driver != DriverPostgres {
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	dsn := cfg.DSN
	if driver == DriverSQLite {
		if dsn == "" {
			path, err := database.GetDefaultDBPath()
			if err != nil {
				return nil, err
			}
			dsn = path
		}
		var err error
		if dsn, err = database.ExpandHome(dsn); err != nil {
			return nil, err
		}
		if isFilePath(dsn) {
			if err := os.MkdirAll(filepath.Dir(dsn), 0700); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
	}

	log.WithField("driver", driver).Info("opening database")

	db, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if driver == DriverSQLite {
		// one writer; also keeps an in-memory database on a single connection
		db.SetMaxOpenConns(1)
		pragmas := []string{
			"PRAGMA journal_mode = WAL",
			"PRAGMA synchronous = NORMAL",
			"PRAGMA busy_timeout = 5000",
		}
		for _, pragma := range pragmas {
			if _, err := db.Exec(pragma); err != nil {
				db.Close()
				return nil, fmt.Errorf("failed to set pragma %s: %w", pragma, err)
			}
		}
	}

	store := newStore(db, driver, cfg.RouteCacheTTL, log)
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

func newStore(db *sqlx.DB, driver string, ttl time.Duration, log logrus.FieldLogger) *Store {
	if ttl <= 0 {
		ttl = DefaultRouteCacheTTL
	}
	s := &Store{
		db:     db,
		driver: driver,
		log:    log.WithField("component", "store"),
	}
	s.itineraryRepo = &itineraryRepository{store: s}
	s.routeCacheRepo = &routeCacheRepository{store: s, ttl: ttl, now: time.Now}
	return s
}

func isFilePath(dsn string) bool {
	return dsn != ":memory:" && !strings.HasPrefix(dsn, "file:")
}

func (s *Store) initSchema() error {
	var version int
	err := s.db.Get(&version, "SELECT version FROM schema_version LIMIT 1")
	if err != nil {
		// table doesn't exist yet
		return s.createSchema()
	}
	if version < schemaVersion {
		return s.runMigrations(version)
	}
	return nil
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY
		)`,
		`CREATE TABLE IF NOT EXISTS itineraries (
			session_id TEXT PRIMARY KEY,
			payload TEXT NOT NULL,
			created_at BIGINT NOT NULL,
			updated_at BIGINT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS route_cache (
			cache_key TEXT PRIMARY KEY,
			payload TEXT NOT NULL,
			expires_at BIGINT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_route_cache_expires ON route_cache(expires_at)`,
	}

	tx, err := s.db.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	if _, err := tx.Exec(tx.Rebind("INSERT INTO schema_version (version) VALUES (?)"), schemaVersion); err != nil {
		return fmt.Errorf("failed to record schema version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	s.log.WithField("version", schemaVersion).Info("schema initialized")
	return nil
}

func (s *Store) runMigrations(fromVersion int) error {
	s.log.WithFields(logrus.Fields{"from": fromVersion, "to": schemaVersion}).Info("migrating schema")
	_, err := s.db.Exec(s.db.Rebind("UPDATE schema_version SET version = ?"), schemaVersion)
	return err
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	if s.driver == DriverSQLite {
		s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
	}
	return s.db.Close()
}

// HealthCheck verifies the database connection
func (s *Store) HealthCheck(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Repository accessors
func (s *Store) Itineraries() database.ItineraryRepository { return s.itineraryRepo }
func (s *Store) RouteCache() database.RouteCacheRepository  { return s.routeCacheRepo }
