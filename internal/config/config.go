// Package config defines the grading service configuration and its loaders.
//
// Values are layered: defaults from New, then an optional YAML file, then
// GRADECURVE_* environment variables. Policy parameters may also come from a
// standalone policy file whose mappings keep their document order.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/okian/gradecurve/internal/domain/policy"
	"github.com/okian/gradecurve/internal/domain/scoreset"
)

// Store drivers.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// StoreConfig selects the run archive backend.
type StoreConfig struct {
	// Driver is one of memory, sqlite, postgres.
	Driver string `koanf:"driver"`
	// DSN is the sqlite path or the postgres connection string.
	DSN string `koanf:"dsn"`
}

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat is text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// ScoreColumns are the accepted score column headers, matched
	// case-insensitively in order.
	ScoreColumns []string `koanf:"score_columns"`
	// IDColumns are the accepted student identifier headers.
	IDColumns []string `koanf:"id_columns"`

	// OnInvalidScore is reject_all or exclude_and_mark.
	OnInvalidScore string `koanf:"on_invalid_score"`
	// Standardize adds z-scores to exported tables.
	Standardize bool `koanf:"standardize"`

	// Policy is the default grading policy.
	Policy policy.Spec `koanf:"policy"`

	Store StoreConfig `koanf:"store"`

	// ReportCacheTTL keeps fetched reports in memory; zero disables the cache.
	ReportCacheTTL time.Duration `koanf:"report_cache_ttl"`

	// MaxUploadBytes caps HTTP request bodies.
	MaxUploadBytes int64 `koanf:"max_upload_bytes"`

	// AuthSecret enables HS256 bearer auth on the API when set.
	AuthSecret string `koanf:"auth_secret"`

	// CORSOrigins lists allowed browser origins.
	CORSOrigins []string `koanf:"cors_origins"`

	// BatchWorkers bounds how many files are graded at once.
	BatchWorkers int `koanf:"batch_workers"`
}

// New returns a Config with defaults. List-valued fields stay empty here and
// are filled by applyDefaults so that a shorter list from a file or the
// environment replaces the default instead of being merged into it.
func New() *Config {
	return &Config{
		LogLevel:       "info",
		LogFormat:      "text",
		Addr:           ":9080",
		OnInvalidScore: string(scoreset.RejectAll),
		Policy:         policy.Spec{Kind: policy.KindAbsolute},
		Store:          StoreConfig{Driver: DriverMemory},
		ReportCacheTTL: 5 * time.Minute,
		MaxUploadBytes: 10 << 20,
		BatchWorkers:   4,
	}
}

// DefaultScoreColumns are the score headers recognised out of the box.
func DefaultScoreColumns() []string { return []string{"Score", "Scores"} }

// DefaultIDColumns are the identifier headers recognised out of the box.
func DefaultIDColumns() []string { return []string{"ID", "StudentID", "Student", "Name"} }

func (c *Config) applyDefaults() {
	if len(c.ScoreColumns) == 0 {
		c.ScoreColumns = DefaultScoreColumns()
	}
	if len(c.IDColumns) == 0 {
		c.IDColumns = DefaultIDColumns()
	}
	if len(c.CORSOrigins) == 0 {
		c.CORSOrigins = []string{"*"}
	}
	c.Policy = c.Policy.WithDefaults()
}

// Validate checks every field and reports the first problem.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return invalid("addr must not be empty")
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return invalid("log_level %q is not one of debug, info, warn, error", c.LogLevel)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return invalid("log_format %q is not text or json", c.LogFormat)
	}
	if _, err := scoreset.ParseInvalidPolicy(c.OnInvalidScore); err != nil {
		return invalid("on_invalid_score: %v", err)
	}
	if _, err := c.Policy.Build(); err != nil {
		return invalid("policy: %v", err)
	}
	switch c.Store.Driver {
	case DriverMemory:
	case DriverSQLite, DriverPostgres:
		if c.Store.DSN == "" {
			return invalid("store.dsn is required for driver %q", c.Store.Driver)
		}
	default:
		return invalid("store.driver %q is not one of memory, sqlite, postgres", c.Store.Driver)
	}
	if c.ReportCacheTTL < 0 {
		return invalid("report_cache_ttl must not be negative")
	}
	if c.MaxUploadBytes <= 0 {
		return invalid("max_upload_bytes must be positive")
	}
	if c.BatchWorkers < 1 {
		return invalid("batch_workers must be at least 1")
	}
	return nil
}

// InvalidPolicy returns the parsed on_invalid_score choice.
func (c *Config) InvalidPolicy() scoreset.InvalidPolicy {
	p, err := scoreset.ParseInvalidPolicy(c.OnInvalidScore)
	if err != nil {
		return scoreset.RejectAll
	}
	return p
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
}
