package driver_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/okian/charts/internal/adapters/repository/driver"
	"github.com/okian/charts/internal/adapters/repository/memory"
	"github.com/okian/charts/internal/adapters/repository/sqlite"
	"github.com/okian/charts/internal/config"
	. "github.com/smartystreets/goconvey/convey"
)

func TestOpen(t *testing.T) {
	ctx := context.Background()

	Convey("Given the default configuration", t, func() {
		cfg := config.New()

		Convey("Then the memory store is opened", func() {
			store, err := driver.Open(ctx, cfg)
			So(err, ShouldBeNil)
			_, ok := store.(*memory.Store)
			So(ok, ShouldBeTrue)
		})

		Convey("When sqlite is selected", func() {
			cfg.StorageDriver = config.DriverSQLite
			cfg.SQLitePath = filepath.Join(t.TempDir(), "charts.db")

			Convey("Then a sqlite store is opened", func() {
				store, err := driver.Open(ctx, cfg)
				So(err, ShouldBeNil)
				defer store.Close()
				_, ok := store.(*sqlite.Store)
				So(ok, ShouldBeTrue)
			})
		})

		Convey("When the driver is unknown", func() {
			cfg.StorageDriver = "cassandra"

			Convey("Then opening fails as invalid config", func() {
				_, err := driver.Open(ctx, cfg)
				So(errors.Is(err, config.ErrInvalidConfig), ShouldBeTrue)
			})
		})
	})
}
