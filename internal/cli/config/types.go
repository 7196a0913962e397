// Package config provides configuration management for the leaplineage CLI.
//
// Values are layered with koanf: built-in defaults, then leaplineage.yaml,
// then LEAPLINEAGE_* environment variables, then explicitly set flags.
package config

// CatalogConfig selects the catalog store backend.
type CatalogConfig struct {
	Driver string `koanf:"driver"` // sqlite, postgres
	DSN    string `koanf:"dsn"`
}

// Config holds all CLI configuration options.
type Config struct {
	Catalog      CatalogConfig `koanf:"catalog"`
	GraphName    string        `koanf:"graph_name"`
	Verbose      bool          `koanf:"verbose"`
	LogLevel     string        `koanf:"log_level"`
	OutputFormat string        `koanf:"output"`

	// ProjectRoot is the directory relative paths are resolved against.
	ProjectRoot string `koanf:"-"`
}

// Default configuration values.
const (
	DefaultDriver    = "sqlite"
	DefaultCatalog   = ".leaplineage/catalog.db"
	DefaultGraphName = "Lineage"
	DefaultLogLevel  = "warn"
	DefaultOutput    = "auto" // Auto-detect: TTY=text, non-TTY=markdown
)

// Default returns a Config populated with default values.
func Default() *Config {
	return &Config{
		Catalog: CatalogConfig{
			Driver: DefaultDriver,
			DSN:    DefaultCatalog,
		},
		GraphName:    DefaultGraphName,
		LogLevel:     DefaultLogLevel,
		OutputFormat: DefaultOutput,
	}
}
