package service_test

import (
	"context"
	"errors"
	"io"
	"sort"
	"testing"

	"github.com/okian/charts/internal/adapters/repository"
	"github.com/okian/charts/internal/adapters/repository/memory"
	service "github.com/okian/charts/internal/app"
	"github.com/okian/charts/internal/domain/chart"
	"github.com/okian/charts/internal/domain/period"
	"github.com/okian/charts/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	if err := logger.InitWithWriter(io.Discard); err != nil {
		panic(err)
	}
}

var errRead = errors.New("history unavailable")

// brokenReads fails every history read.
type brokenReads struct {
	*memory.Store
}

func (b *brokenReads) ItemHistory(context.Context, chart.Tx, string, string) ([]chart.Record, error) {
	return nil, errRead
}

func (b *brokenReads) HistoryForItems(context.Context, chart.Tx, string, []string) ([]chart.Record, error) {
	return nil, errRead
}

func (b *brokenReads) PeriodRecords(context.Context, chart.Tx, string, period.Key) ([]chart.Record, error) {
	return nil, errRead
}

func seed(ctx context.Context, store repository.Store, game string, releases map[string]int64) {
	for id, perf := range releases {
		So(store.UpsertRelease(ctx, nil, repository.Release{
			GameID: game, ID: id, Name: "Release " + id, Artist: "Label", Performance: perf, Active: true,
		}), ShouldBeNil)
	}
}

func startService(ctx context.Context, store repository.Store, opts ...service.Option) *service.Service {
	svc := service.New(append([]service.Option{service.WithStore(store)}, opts...)...)
	So(svc.Start(ctx), ShouldBeNil)
	return svc
}

func TestService_New(t *testing.T) {
	Convey("Given a new service without a store", t, func() {
		svc := service.New()

		Convey("Then starting it fails", func() {
			err := svc.Start(context.Background())
			So(errors.Is(err, chart.ErrNoStore), ShouldBeTrue)
		})

		Convey("Then calls before start are rejected", func() {
			_, err := svc.ProcessPeriod(context.Background(), nil, "g1", period.MustParse("2024-01-01"), 1)
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
		})
	})

	Convey("Given a new service with custom options", t, func() {
		svc := startService(context.Background(), memory.New(),
			service.WithStartYear(1990),
			service.WithMaxTopLimit(25),
			service.WithParams(chart.Params{MaxChartSize: 40}),
		)
		defer svc.Stop()

		Convey("Then stats reflect them", func() {
			stats := svc.GetStats()
			So(stats["started"], ShouldBeTrue)
			So(stats["start_year"], ShouldEqual, 1990)
			So(stats["max_top_limit"], ShouldEqual, 25)
			So(stats["catalog_entries"], ShouldEqual, 100)
			So(stats["params"].(chart.Params).MaxChartSize, ShouldEqual, 40)
		})

		Convey("Then turns map onto the configured start year", func() {
			p, err := svc.PeriodForTurn(13)
			So(err, ShouldBeNil)
			So(p, ShouldEqual, period.MustParse("1991-01-01"))
		})
	})
}

func TestService_ProcessPeriod(t *testing.T) {
	ctx := context.Background()
	jan := period.MustParse("2024-01-01")

	Convey("Given a game with releases", t, func() {
		store := memory.New()
		seed(ctx, store, "g1", map[string]int64{"big": 2_000_000, "mid": 300_000, "zero": 0})
		svc := startService(ctx, store)
		defer svc.Stop()

		Convey("When the period is processed", func() {
			res, err := svc.ProcessPeriod(ctx, nil, "g1", jan, 42)

			Convey("Then items without performance are excluded", func() {
				So(err, ShouldBeNil)
				So(res.RunID, ShouldNotBeEmpty)
				So(res.Eligible, ShouldEqual, 2)
				So(res.Ranked, ShouldEqual, 102)
				So(res.Result.Inserted, ShouldEqual, 102)

				zero := svc.ItemChart(ctx, nil, "g1", "zero")
				So(zero.History, ShouldBeEmpty)
			})

			Convey("Then the strongest release tops the chart as a debut", func() {
				top, err := svc.TopN(ctx, nil, "g1", jan, 5)
				So(err, ShouldBeNil)
				So(len(top), ShouldEqual, 5)
				So(top[0].ItemID, ShouldEqual, "big")
				So(top[0].IsDebut, ShouldBeTrue)
				So(top[0].Name, ShouldEqual, "Release big")

				st := svc.ItemChart(ctx, nil, "g1", "big")
				So(*st.CurrentPosition, ShouldEqual, 1)
				So(*st.PeakPosition, ShouldEqual, 1)
				So(st.WeeksCharted, ShouldEqual, 1)
			})

			Convey("Then processing it again inserts nothing", func() {
				again, err := svc.ProcessPeriod(ctx, nil, "g1", jan, 42)
				So(err, ShouldBeNil)
				So(again.Result.Inserted, ShouldEqual, 0)
				So(again.Result.Skipped, ShouldEqual, 102)
				So(store.Len(), ShouldEqual, 102)
			})

			Convey("Then stats track the last period", func() {
				stats := svc.GetStats()
				So(stats["periods_processed"], ShouldEqual, int64(1))
				So(stats["last_period"].(map[string]string)["g1"], ShouldEqual, "2024-01-01")
			})
		})

		Convey("When processing by turn", func() {
			res, err := svc.ProcessTurn(ctx, nil, "g1", 2, 42)
			So(err, ShouldBeNil)
			So(res.Period, ShouldEqual, period.MustParse("2024-02-01"))

			_, err = svc.ProcessTurn(ctx, nil, "g1", 0, 42)
			So(errors.Is(err, period.ErrInvalidTurn), ShouldBeTrue)
		})

		Convey("When the game id is missing", func() {
			_, err := svc.ProcessPeriod(ctx, nil, "", jan, 42)
			So(errors.Is(err, chart.ErrMissingGame), ShouldBeTrue)
		})
	})

	Convey("Given two independent runs with the same seed", t, func() {
		run := func() []chart.Record {
			store := memory.New()
			seed(ctx, store, "g1", map[string]int64{"a": 700_000, "b": 700_000})
			svc := startService(ctx, store)
			defer svc.Stop()
			_, err := svc.ProcessPeriod(ctx, nil, "g1", jan, 7)
			So(err, ShouldBeNil)
			records, err := store.PeriodRecords(ctx, nil, "g1", jan)
			So(err, ShouldBeNil)
			sort.Slice(records, func(i, j int) bool { return records[i].Identity() < records[j].Identity() })
			return records
		}

		Convey("Then the recorded periods are identical", func() {
			first, second := run(), run()
			So(first, ShouldResemble, second)

			a, _ := findRecord(first, "a")
			b, _ := findRecord(first, "b")
			So(*a.Position, ShouldBeLessThan, *b.Position)
		})
	})

	Convey("Given a game with no releases", t, func() {
		svc := startService(ctx, memory.New())
		defer svc.Stop()

		Convey("Then the chart is filled by competitors alone", func() {
			res, err := svc.ProcessPeriod(ctx, nil, "empty", jan, 1)
			So(err, ShouldBeNil)
			So(res.Eligible, ShouldEqual, 0)
			So(res.Result.Charting, ShouldEqual, 100)

			top, err := svc.TopN(ctx, nil, "empty", jan, 500)
			So(err, ShouldBeNil)
			So(len(top), ShouldEqual, 100)
		})
	})
}

func TestService_DegradedReads(t *testing.T) {
	ctx := context.Background()

	Convey("Given a store whose history reads fail", t, func() {
		svc := startService(ctx, &brokenReads{Store: memory.New()})
		defer svc.Stop()

		Convey("Then display reads degrade to zero values", func() {
			st := svc.ItemChart(ctx, nil, "g1", "x")
			So(st.ItemID, ShouldEqual, "x")
			So(st.CurrentPosition, ShouldBeNil)

			batch := svc.BatchChart(ctx, nil, "g1", []string{"x", "y"})
			So(len(batch), ShouldEqual, 2)
			So(batch["y"].WeeksCharted, ShouldEqual, 0)
		})

		Convey("Then chart views and the write path still fail", func() {
			_, err := svc.TopN(ctx, nil, "g1", period.MustParse("2024-01-01"), 10)
			So(errors.Is(err, errRead), ShouldBeTrue)

			_, err = svc.ProcessPeriod(ctx, nil, "g1", period.MustParse("2024-01-01"), 1)
			So(errors.Is(err, errRead), ShouldBeTrue)
		})
	})
}

func findRecord(records []chart.Record, id string) (chart.Record, bool) {
	for _, r := range records {
		if r.Identity() == id {
			return r, true
		}
	}
	return chart.Record{}, false
}
