package config

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"
)

var (
	validDrivers = []string{"sqlite", "sqlite3", "postgres", "postgresql", "pgx"}
	validOutputs = []string{"auto", "text", "markdown", "json"}
)

// IsSQLite reports whether the catalog uses the SQLite backend.
func (c CatalogConfig) IsSQLite() bool {
	switch strings.ToLower(c.Driver) {
	case "", "sqlite", "sqlite3":
		return true
	}
	return false
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if !slices.Contains(validDrivers, strings.ToLower(c.Catalog.Driver)) {
		return fmt.Errorf("invalid catalog.driver %q, must be one of: sqlite, postgres", c.Catalog.Driver)
	}
	if c.Catalog.DSN == "" {
		return fmt.Errorf("catalog.dsn is required\nHint: set it in leaplineage.yaml or use --catalog")
	}
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return err
	}
	if c.OutputFormat != "" && !slices.Contains(validOutputs, c.OutputFormat) {
		return fmt.Errorf("invalid output %q, must be one of: %s", c.OutputFormat, strings.Join(validOutputs, ", "))
	}
	return nil
}

// ParseLogLevel converts a log_level value into a slog.Level.
func ParseLogLevel(s string) (slog.Level, error) {
	var level slog.Level
	if s == "" {
		return slog.LevelWarn, nil
	}
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("invalid log_level %q, must be one of: debug, info, warn, error", s)
	}
	return level, nil
}

// Level returns the effective log level; verbose forces debug.
func (c *Config) Level() slog.Level {
	if c.Verbose {
		return slog.LevelDebug
	}
	level, err := ParseLogLevel(c.LogLevel)
	if err != nil {
		return slog.LevelWarn
	}
	return level
}
