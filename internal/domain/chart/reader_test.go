package chart_test

import (
	"context"
	"errors"
	"testing"

	"github.com/okian/charts/internal/adapters/repository"
	"github.com/okian/charts/internal/adapters/repository/memory"
	"github.com/okian/charts/internal/domain/chart"
	"github.com/okian/charts/internal/domain/period"
	. "github.com/smartystreets/goconvey/convey"
)

func TestReader(t *testing.T) {
	ctx := context.Background()
	jan := period.MustParse("2024-01-01")
	feb := jan.Next()

	Convey("Given two recorded periods", t, func() {
		store := memory.New()
		for _, id := range []string{"r1", "r2", "r3", "r4"} {
			So(store.UpsertRelease(ctx, nil, repository.Release{GameID: "g1", ID: id, Name: "Name " + id, Artist: "Art", Active: true}), ShouldBeNil)
		}
		writer := chart.NewWriter(store, chart.NewPolicy(chart.DefaultParams()))
		reader := chart.NewReader(store)

		_, err := writer.Record(ctx, nil, "g1", jan, []chart.Ranked{
			ranked("r1", 90000, 2),
			ranked("r2", 80000, 8),
			{Item: chart.Item{ID: "comp-1", Name: "Comp", Artist: "Rival", Performance: 95000}, Position: 1},
			ranked("r3", 600, 97),
		})
		So(err, ShouldBeNil)
		_, err = writer.Record(ctx, nil, "g1", feb, []chart.Ranked{
			ranked("r2", 85000, 3),
			ranked("r1", 70000, 6),
			ranked("r3", 500, 98),
			ranked("r4", 700, 99),
		})
		So(err, ShouldBeNil)

		Convey("When reading a single item", func() {
			st, err := reader.Item(ctx, nil, "g1", "r2")

			Convey("Then derived values reflect its history", func() {
				So(err, ShouldBeNil)
				So(len(st.History), ShouldEqual, 2)
				So(st.History[0].Period, ShouldEqual, feb)
				So(*st.CurrentPosition, ShouldEqual, 3)
				So(st.Movement, ShouldEqual, 5)
				So(st.WeeksCharted, ShouldEqual, 2)
				So(*st.PeakPosition, ShouldEqual, 3)
				So(st.IsDebut, ShouldBeFalse)
			})
		})

		Convey("When reading a batch", func() {
			stats, err := reader.Batch(ctx, nil, "g1", []string{"r1", "r3", "missing", "r1"})

			Convey("Then every requested id is present", func() {
				So(err, ShouldBeNil)
				So(len(stats), ShouldEqual, 3)
				So(*stats["r1"].PeakPosition, ShouldEqual, 2)
				So(stats["r1"].Movement, ShouldEqual, -4)
				So(stats["r3"].CurrentPosition, ShouldBeNil)
				So(stats["r3"].WeeksCharted, ShouldEqual, 0)
				So(stats["missing"].History, ShouldBeEmpty)
			})
		})

		Convey("When reading the top of a period", func() {
			top, err := reader.TopN(ctx, nil, "g1", jan, 5)

			Convey("Then only positions within the limit appear in order", func() {
				So(err, ShouldBeNil)
				So(len(top), ShouldEqual, 2)
				So(*top[0].Position, ShouldEqual, 1)
				So(top[0].Name, ShouldEqual, "Comp")
				So(top[0].IsCompetitor, ShouldBeTrue)
				So(*top[1].Position, ShouldEqual, 2)
				So(top[1].Name, ShouldEqual, "Name r1")
			})
		})

		Convey("When reading items bubbling under", func() {
			under, err := reader.BubblingUnder(ctx, nil, "g1", feb, 10)

			Convey("Then tracked player items appear best first", func() {
				So(err, ShouldBeNil)
				So(len(under), ShouldEqual, 2)
				So(under[0].ItemID, ShouldEqual, "r4")
				So(under[1].ItemID, ShouldEqual, "r3")
				So(under[0].Position, ShouldBeNil)
			})
		})

		Convey("When the limit is invalid", func() {
			_, err := reader.TopN(ctx, nil, "g1", jan, 0)
			So(errors.Is(err, chart.ErrInvalidLimit), ShouldBeTrue)
			_, err = reader.BubblingUnder(ctx, nil, "g1", jan, -1)
			So(errors.Is(err, chart.ErrInvalidLimit), ShouldBeTrue)
		})

		Convey("When the limit is large it is capped", func() {
			top, err := reader.TopN(ctx, nil, "g1", feb, 1000)
			So(err, ShouldBeNil)
			So(len(top), ShouldEqual, 2)
		})
	})

	Convey("Given a store that fails", t, func() {
		reader := chart.NewReader(&failingStore{Store: memory.New(), failOn: "history_for_items"})
		_, err := reader.Batch(ctx, nil, "g1", []string{"a"})
		So(errors.Is(err, errBoom), ShouldBeTrue)

		reader = chart.NewReader(&failingStore{Store: memory.New(), failOn: "item_history"})
		_, err = reader.Item(ctx, nil, "g1", "a")
		So(errors.Is(err, errBoom), ShouldBeTrue)

		reader = chart.NewReader(&failingStore{Store: memory.New(), failOn: "period_records"})
		_, err = reader.TopN(ctx, nil, "g1", jan, 10)
		So(errors.Is(err, errBoom), ShouldBeTrue)
	})

	Convey("Given an empty batch request", t, func() {
		store := &countingStore{Store: memory.New()}
		stats, err := chart.NewReader(store).Batch(ctx, nil, "g1", nil)
		So(err, ShouldBeNil)
		So(stats, ShouldBeEmpty)
		So(store.batchCalls, ShouldEqual, 0)
	})
}
