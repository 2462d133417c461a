package api

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	service "github.com/okian/charts/internal/app"
	"github.com/okian/charts/internal/domain/period"
	. "github.com/smartystreets/goconvey/convey"
)

func TestIPLimiter_Sweep(t *testing.T) {
	Convey("Given a limiter with a one minute window and a fake clock", t, func() {
		clock := time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)
		l := newIPLimiter(10, time.Minute)
		l.now = func() time.Time { return clock }

		for i := range 50 {
			l.get(fmt.Sprintf("10.0.0.%d", i))
		}
		So(l.size(), ShouldEqual, 50)

		Convey("When one client keeps calling and the rest go idle", func() {
			for range 3 {
				clock = clock.Add(time.Minute)
				l.get("10.0.0.7")
			}

			Convey("Then idle buckets are swept and the active one stays", func() {
				So(l.size(), ShouldEqual, 1)
				So(l.limiters, ShouldContainKey, "10.0.0.7")
			})
		})

		Convey("When clients return within two windows", func() {
			clock = clock.Add(90 * time.Second)
			l.get("10.0.0.1")

			Convey("Then nothing is swept", func() {
				So(l.size(), ShouldEqual, 50)
			})
		})

		Convey("When a swept client comes back", func() {
			first := l.get("10.0.0.3")
			So(first.Allow(), ShouldBeTrue)
			clock = clock.Add(5 * time.Minute)
			again := l.get("10.0.0.3")

			Convey("Then it gets a fresh bucket", func() {
				So(again, ShouldNotPointTo, first)
				So(l.size(), ShouldEqual, 1)
				So(again.AllowN(clock, l.burst), ShouldBeTrue)
			})
		})
	})
}

func TestClassify(t *testing.T) {
	Convey("Given handler failures", t, func() {
		cases := []struct {
			err    error
			status int
			code   string
		}{
			{badRequest("op", "limit %d", 0), http.StatusBadRequest, "bad_request"},
			{Wrap("op", period.ErrInvalidPeriod), http.StatusBadRequest, "bad_request"},
			{Wrap("op", service.ErrNotStarted), http.StatusServiceUnavailable, "unavailable"},
			{Wrap("op", errors.New("disk full")), http.StatusInternalServerError, "internal_error"},
		}

		Convey("Then each maps onto its status and code", func() {
			for _, tc := range cases {
				status, code := classify(tc.err)
				So(status, ShouldEqual, tc.status)
				So(code, ShouldEqual, tc.code)
			}
		})
	})
}
