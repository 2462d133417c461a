// Command chartctl is the chart engine operator CLI.
//
// Usage:
//
//	chartctl simulate --game demo --releases 20 --turns 12 --seed 7
//	chartctl top --game demo --period 2024-06-01 --limit 20
//	chartctl top --game demo --period 2024-06-01 --bubbling
//	chartctl history --game demo --item <release id>
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/okian/charts/internal/adapters/repository/driver"
	app "github.com/okian/charts/internal/app"
	"github.com/okian/charts/internal/config"
	"github.com/okian/charts/internal/domain/competitor"
	"github.com/okian/charts/pkg/logger"
)

// globalFlags override the loaded configuration.
type globalFlags struct {
	driver     string
	sqlitePath string
	gameID     string
	logLevel   string
}

func main() {
	// Load .env if present
	_ = godotenv.Load(".env")

	if err := logger.InitWithWriter(os.Stderr); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var flags globalFlags
	root := &cobra.Command{
		Use:          "chartctl",
		Short:        "Chart engine operator CLI",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&flags.driver, "driver", config.DriverSQLite, "Storage driver (memory, sqlite, postgres)")
	root.PersistentFlags().StringVar(&flags.sqlitePath, "db", "charts.db", "SQLite database path")
	root.PersistentFlags().StringVar(&flags.gameID, "game", "demo", "Game id")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")

	root.AddCommand(simulateCmd(&flags))
	root.AddCommand(topCmd(&flags))
	root.AddCommand(historyCmd(&flags))
	return root
}

// runWithService loads configuration, applies flags, starts the service and
// runs fn. The service is stopped afterwards.
func runWithService(cmd *cobra.Command, flags *globalFlags, fn func(ctx context.Context, svc *app.Service) error) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}
	cfg.StorageDriver = flags.driver
	cfg.SQLitePath = flags.sqlitePath
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := logger.SetLevelString(flags.logLevel); err != nil {
		return err
	}

	opts := []app.Option{
		app.WithLogger(logger.Named("chartctl")),
		app.WithParams(cfg.ChartParams()),
		app.WithStartYear(cfg.StartYear),
		app.WithMaxTopLimit(cfg.MaxTopLimit),
	}
	if cfg.CatalogPath != "" {
		catalog, err := competitor.LoadFile(cfg.CatalogPath)
		if err != nil {
			return err
		}
		opts = append(opts, app.WithCatalog(catalog))
	}

	store, err := driver.Open(ctx, cfg)
	if err != nil {
		return err
	}
	svc := app.New(append(opts, app.WithStore(store))...)
	if err := svc.Start(ctx); err != nil {
		_ = store.Close()
		return err
	}
	defer svc.Stop()

	return fn(ctx, svc)
}
