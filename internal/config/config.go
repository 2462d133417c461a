// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Every field has a default so the engine runs with no configuration.
// - Validation errors wrap ErrInvalidConfig.
package config

import (
	"fmt"
	"time"

	"github.com/okian/charts/internal/domain/chart"
)

// Storage drivers.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// StorageDriver selects the chart store: memory, sqlite or postgres.
	StorageDriver string `koanf:"storage_driver"`
	SQLitePath    string `koanf:"sqlite_path"`
	DatabaseURL   string `koanf:"database_url"`

	// StartYear is the calendar year of turn 1.
	StartYear int `koanf:"start_year"`

	// MaxTopLimit caps GET .../charts/{period}?limit.
	MaxTopLimit int `koanf:"max_top_limit"`

	// CatalogPath optionally replaces the embedded competitor catalog.
	CatalogPath string `koanf:"catalog_path"`

	// VarianceMin and VarianceMax bound the competitor sampling multiplier.
	VarianceMin float64 `koanf:"variance_min"`
	VarianceMax float64 `koanf:"variance_max"`

	MaxChartSize            int   `koanf:"max_chart_size"`
	LongTenureWeeks         int   `koanf:"long_tenure_weeks"`
	LongTenurePosition      int   `koanf:"long_tenure_position"`
	LowPerformanceThreshold int64 `koanf:"low_performance_threshold"`
	LowPerformancePosition  int   `koanf:"low_performance_position"`

	// CORSAllowOrigins lists allowed origins; comma separated in env.
	CORSAllowOrigins []string `koanf:"cors_allow_origins"`

	RateLimitEnabled       bool `koanf:"rate_limit_enabled"`
	RateLimitRequests      int  `koanf:"rate_limit_requests"`
	RateLimitWindowSeconds int  `koanf:"rate_limit_window_seconds"`
}

// New creates a Config populated with defaults.
func New() *Config {
	p := chart.DefaultParams()
	return &Config{
		LogLevel:                "info",
		Addr:                    ":9080",
		StorageDriver:           DriverMemory,
		SQLitePath:              "charts.db",
		StartYear:               2024,
		MaxTopLimit:             chart.MaxPosition,
		VarianceMin:             p.VarianceMin,
		VarianceMax:             p.VarianceMax,
		MaxChartSize:            p.MaxChartSize,
		LongTenureWeeks:         p.LongTenureWeeks,
		LongTenurePosition:      p.LongTenurePosition,
		LowPerformanceThreshold: p.LowPerformanceThreshold,
		LowPerformancePosition:  p.LowPerformancePosition,
		CORSAllowOrigins:        []string{"*"},
		RateLimitEnabled:        true,
		RateLimitRequests:       120,
		RateLimitWindowSeconds:  60,
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.MaxChartSize < 1 || c.MaxChartSize > chart.MaxPosition:
		return fmt.Errorf("%w: max_chart_size %d outside [1,%d]", ErrInvalidConfig, c.MaxChartSize, chart.MaxPosition)
	case c.VarianceMin <= 0 || c.VarianceMax <= 0:
		return fmt.Errorf("%w: variance range [%g,%g] must be positive", ErrInvalidConfig, c.VarianceMin, c.VarianceMax)
	case c.VarianceMin > c.VarianceMax:
		return fmt.Errorf("%w: variance range [%g,%g] is inverted", ErrInvalidConfig, c.VarianceMin, c.VarianceMax)
	case c.LongTenureWeeks < 1:
		return fmt.Errorf("%w: long_tenure_weeks must be positive", ErrInvalidConfig)
	case c.LongTenurePosition < 1 || c.LongTenurePosition > chart.MaxPosition:
		return fmt.Errorf("%w: long_tenure_position %d outside [1,%d]", ErrInvalidConfig, c.LongTenurePosition, chart.MaxPosition)
	case c.LowPerformanceThreshold < 1:
		return fmt.Errorf("%w: low_performance_threshold must be positive", ErrInvalidConfig)
	case c.LowPerformancePosition < 1 || c.LowPerformancePosition > chart.MaxPosition:
		return fmt.Errorf("%w: low_performance_position %d outside [1,%d]", ErrInvalidConfig, c.LowPerformancePosition, chart.MaxPosition)
	case c.MaxTopLimit < 1:
		return fmt.Errorf("%w: max_top_limit must be positive", ErrInvalidConfig)
	case c.RateLimitEnabled && (c.RateLimitRequests < 1 || c.RateLimitWindowSeconds < 1):
		return fmt.Errorf("%w: rate limit requests and window must be positive", ErrInvalidConfig)
	}

	switch c.StorageDriver {
	case DriverMemory:
	case DriverSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("%w: sqlite_path required for sqlite driver", ErrInvalidConfig)
		}
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("%w: database_url required for postgres driver", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown storage_driver %q", ErrInvalidConfig, c.StorageDriver)
	}
	return nil
}

// ChartParams converts the engine tunables; unset fields take defaults.
func (c *Config) ChartParams() chart.Params {
	return chart.Params{
		VarianceMin:             c.VarianceMin,
		VarianceMax:             c.VarianceMax,
		MaxChartSize:            c.MaxChartSize,
		LongTenureWeeks:         c.LongTenureWeeks,
		LongTenurePosition:      c.LongTenurePosition,
		LowPerformanceThreshold: c.LowPerformanceThreshold,
		LowPerformancePosition:  c.LowPerformancePosition,
	}.WithDefaults()
}

// RateLimitWindow returns the rate limit window as a duration.
func (c *Config) RateLimitWindow() time.Duration {
	return time.Duration(c.RateLimitWindowSeconds) * time.Second
}
