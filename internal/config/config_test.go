package config_test

import (
	"errors"
	"testing"
	"time"

	"github.com/okian/charts/internal/config"
	"github.com/okian/charts/internal/domain/chart"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.StorageDriver, convey.ShouldEqual, config.DriverMemory)
			convey.So(cfg.StartYear, convey.ShouldEqual, 2024)
			convey.So(cfg.MaxTopLimit, convey.ShouldEqual, 100)
			convey.So(cfg.MaxChartSize, convey.ShouldEqual, 100)
			convey.So(cfg.VarianceMin, convey.ShouldEqual, 0.8)
			convey.So(cfg.VarianceMax, convey.ShouldEqual, 1.2)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("Then chart params match the engine defaults", func() {
			convey.So(cfg.ChartParams(), convey.ShouldResemble, chart.DefaultParams())
			convey.So(cfg.RateLimitWindow(), convey.ShouldEqual, time.Minute)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given invalid settings", t, func() {
		cases := []struct {
			name   string
			mutate func(*config.Config)
		}{
			{"empty addr", func(c *config.Config) { c.Addr = "" }},
			{"chart size zero", func(c *config.Config) { c.MaxChartSize = 0 }},
			{"chart size 101", func(c *config.Config) { c.MaxChartSize = 101 }},
			{"inverted variance", func(c *config.Config) { c.VarianceMin, c.VarianceMax = 1.3, 0.9 }},
			{"zero variance", func(c *config.Config) { c.VarianceMin = 0 }},
			{"zero tenure weeks", func(c *config.Config) { c.LongTenureWeeks = 0 }},
			{"zero tenure position", func(c *config.Config) { c.LongTenurePosition = 0 }},
			{"tenure position 101", func(c *config.Config) { c.LongTenurePosition = 101 }},
			{"zero low performance threshold", func(c *config.Config) { c.LowPerformanceThreshold = 0 }},
			{"zero low performance position", func(c *config.Config) { c.LowPerformancePosition = 0 }},
			{"low performance position 101", func(c *config.Config) { c.LowPerformancePosition = 101 }},
			{"unknown driver", func(c *config.Config) { c.StorageDriver = "mongo" }},
			{"postgres no url", func(c *config.Config) { c.StorageDriver = config.DriverPostgres }},
			{"sqlite no path", func(c *config.Config) { c.StorageDriver, c.SQLitePath = config.DriverSQLite, "" }},
			{"zero top limit", func(c *config.Config) { c.MaxTopLimit = 0 }},
			{"zero rate window", func(c *config.Config) { c.RateLimitWindowSeconds = 0 }},
		}

		for _, tc := range cases {
			convey.Convey("Then validation rejects "+tc.name, func() {
				cfg := config.New()
				tc.mutate(cfg)
				err := cfg.Validate()
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		}
	})

	convey.Convey("Given zeroed engine tunables", t, func() {
		cfg := config.New()
		cfg.LongTenureWeeks = 0
		cfg.LowPerformanceThreshold = 0

		convey.Convey("Then validation rejects them", func() {
			convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
		})

		convey.Convey("Then unvalidated params still fall back to engine defaults", func() {
			p := cfg.ChartParams()
			convey.So(p.LongTenureWeeks, convey.ShouldEqual, chart.DefaultLongTenureWeeks)
			convey.So(p.LowPerformanceThreshold, convey.ShouldEqual, int64(chart.DefaultLowPerformanceThreshold))
		})
	})
}
