package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with a fresh registry and custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test"),
				WithSubsystem("charts"),
				WithHistogramBuckets([]float64{1, 10}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then it should register its collectors on that registry", func() {
				So(manager, ShouldNotBeNil)
				manager.periodsProcessed.Inc()
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				names := make([]string, 0, len(families))
				for _, f := range families {
					names = append(names, f.GetName())
				}
				So(names, ShouldContain, "test_charts_periods_processed_total")
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("When recording inserted records", func() {
			before := testutil.ToFloat64(globalManager.recordsInserted.WithLabelValues("player"))
			RecordRecordsInserted("player", 3)
			RecordRecordsInserted("player", 0)

			Convey("Then only positive counts are added", func() {
				after := testutil.ToFloat64(globalManager.recordsInserted.WithLabelValues("player"))
				So(after-before, ShouldEqual, 3)
			})
		})

		Convey("When recording exits and gauges", func() {
			before := testutil.ToFloat64(globalManager.chartExits.WithLabelValues("low_performance"))
			RecordChartExit("low_performance")
			UpdateChartingEntries(97)

			So(testutil.ToFloat64(globalManager.chartExits.WithLabelValues("low_performance"))-before, ShouldEqual, 1)
			So(testutil.ToFloat64(globalManager.chartingEntries), ShouldEqual, 97)
		})

		Convey("When recording latency and errors it should not panic", func() {
			So(func() {
				RecordPeriodProcessed(12)
				RecordStoreLatency("sqlite", "insert_records", 1.5)
				RecordErrorByComponent("writer", "store_error")
				RecordDegradedRead("item_chart")
				RecordHTTPRequest("top", "GET", "200")
				RecordHTTPRequestDuration("top", "GET", "200", 3)
				RecordRecordsSkipped(2)
				RecordDebuts(1)
				UpdateEligibleItems(4)
				UpdateCatalogEntries(100)
			}, ShouldNotPanic)
		})

		Convey("Then the custom registry should be exposed", func() {
			So(GetRegistry(), ShouldNotBeNil)
		})
	})
}
