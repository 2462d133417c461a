// Package driver opens the chart store selected by configuration.
package driver

import (
	"context"
	"fmt"

	"github.com/okian/charts/internal/adapters/repository"
	"github.com/okian/charts/internal/adapters/repository/memory"
	"github.com/okian/charts/internal/adapters/repository/postgres"
	"github.com/okian/charts/internal/adapters/repository/sqlite"
	"github.com/okian/charts/internal/config"
)

// Open returns the store named by cfg.StorageDriver.
func Open(ctx context.Context, cfg *config.Config) (repository.Store, error) {
	switch cfg.StorageDriver {
	case config.DriverMemory, "":
		return memory.New(), nil
	case config.DriverSQLite:
		return sqlite.Open(cfg.SQLitePath)
	case config.DriverPostgres:
		return postgres.Open(ctx, cfg.DatabaseURL)
	default:
		return nil, fmt.Errorf("%w: unknown storage_driver %q", config.ErrInvalidConfig, cfg.StorageDriver)
	}
}
