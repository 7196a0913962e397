package state

import (
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/jackc/pgx/v5/stdlib" // postgres driver
	_ "github.com/mattn/go-sqlite3"    // sqlite driver
)

// Store implements core.CatalogStore over database/sql.
type Store struct {
	db     *sql.DB
	driver Driver
	dsn    string
	logger *slog.Logger
}

// NewStore creates a store for the given driver. Call Open before use.
func NewStore(driver Driver, opts ...Option) *Store {
	s := &Store{
		driver: driver,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewSQLiteStore creates a SQLite-backed store.
func NewSQLiteStore(opts ...Option) *Store {
	return NewStore(DriverSQLite, opts...)
}

// newStoreWithDB wraps an existing connection. Used by tests.
func newStoreWithDB(db *sql.DB, driver Driver) *Store {
	s := NewStore(driver)
	s.db = db
	return s
}

// Open opens a connection to the database.
// For SQLite, dsn is a file path; use ":memory:" for an in-memory database.
func (s *Store) Open(dsn string) error {
	connStr := dsn
	if s.driver == DriverSQLite {
		// Enable foreign keys and WAL mode for better performance
		if dsn != ":memory:" {
			connStr = fmt.Sprintf("%s?_foreign_keys=on&_journal_mode=WAL", dsn)
		} else {
			connStr = ":memory:?_foreign_keys=on"
		}
	}

	db, err := sql.Open(s.driver.sqlDriverName(), connStr)
	if err != nil {
		return fmt.Errorf("failed to open %s database: %w", s.driver, err)
	}

	// Every new connection to :memory: is a fresh, empty database
	if s.driver == DriverSQLite && dsn == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	// Test connection
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping %s database: %w", s.driver, err)
	}

	s.db = db
	s.dsn = dsn
	s.logger.Debug("opened catalog store", "driver", string(s.driver))
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		err := s.db.Close()
		s.db = nil
		return err
	}
	return nil
}

// Driver returns the backend the store was created for.
func (s *Store) Driver() Driver { return s.driver }
