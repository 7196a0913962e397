// Package state provides the catalog store for column lineage edges.
//
// Store persists edges in a SQL database through database/sql. SQLite is the
// default backend; PostgreSQL is supported for shared catalogs. The schema is
// managed with goose migrations embedded in the binary.
package state

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/leapstack-labs/leaplineage/pkg/core"
)

// Driver selects the database backend.
type Driver string

// Supported drivers.
const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

// ParseDriver validates a driver name from configuration.
func ParseDriver(name string) (Driver, error) {
	switch Driver(strings.ToLower(strings.TrimSpace(name))) {
	case DriverSQLite, "sqlite3", "":
		return DriverSQLite, nil
	case DriverPostgres, "postgresql", "pgx":
		return DriverPostgres, nil
	default:
		return "", fmt.Errorf("unknown catalog driver %q (supported: sqlite, postgres)", name)
	}
}

// sqlDriverName maps a Driver to its database/sql registration name.
func (d Driver) sqlDriverName() string {
	if d == DriverPostgres {
		return "pgx"
	}
	return "sqlite3"
}

// gooseDialect maps a Driver to its goose dialect name.
func (d Driver) gooseDialect() string {
	if d == DriverPostgres {
		return "postgres"
	}
	return "sqlite3"
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for store diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Store compile-time check.
var _ core.CatalogStore = (*Store)(nil)

// rebind rewrites ? placeholders into the driver's native form.
// Queries in this package never contain a literal question mark.
func rebind(d Driver, query string) string {
	if d != DriverPostgres {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 16)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
