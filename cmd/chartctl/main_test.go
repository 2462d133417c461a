package main

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/okian/charts/internal/adapters/repository/memory"
	app "github.com/okian/charts/internal/app"
	"github.com/okian/charts/internal/domain/period"
	"github.com/okian/charts/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func TestSyntheticReleases(t *testing.T) {
	convey.Convey("Given simulation options", t, func() {
		opts := simOptions{gameID: "demo", releases: 8, turns: 6, seed: 3}

		convey.Convey("Then the release set is reproducible", func() {
			a, b := syntheticReleases(opts), syntheticReleases(opts)
			convey.So(a, convey.ShouldResemble, b)
			convey.So(len(a), convey.ShouldEqual, 8)
		})

		convey.Convey("Then performance is zero before debut and decays after", func() {
			r := syntheticRelease{debut: 3, peak: 1_000_000}
			convey.So(r.performance(2), convey.ShouldEqual, 0)
			convey.So(r.performance(3), convey.ShouldEqual, 1_000_000)
			convey.So(r.performance(4), convey.ShouldBeLessThan, r.performance(3))
		})
	})
}

func TestSimulate(t *testing.T) {
	if err := logger.InitWithWriter(io.Discard); err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	convey.Convey("Given a service over a memory store", t, func() {
		store := memory.New()
		svc := app.New(app.WithStore(store))
		convey.So(svc.Start(ctx), convey.ShouldBeNil)
		defer svc.Stop()

		convey.Convey("When three turns are simulated", func() {
			var out bytes.Buffer
			opts := simOptions{gameID: "demo", releases: 5, turns: 3, seed: 9}
			err := simulate(ctx, svc, opts, &out)

			convey.Convey("Then each turn is reported and charted", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(strings.Count(out.String(), "\n"), convey.ShouldEqual, 3)
				convey.So(out.String(), convey.ShouldContainSubstring, "2024-03-01")

				top, err := svc.TopN(ctx, nil, "demo", period.MustParse("2024-03-01"), 100)
				convey.So(err, convey.ShouldBeNil)
				convey.So(len(top), convey.ShouldEqual, 100)
			})

			convey.Convey("Then re-running inserts nothing new", func() {
				before := store.Len()
				var again bytes.Buffer
				convey.So(simulate(ctx, svc, opts, &again), convey.ShouldBeNil)
				convey.So(store.Len(), convey.ShouldEqual, before)
				convey.So(again.String(), convey.ShouldContainSubstring, "inserted=0")
			})
		})

		convey.Convey("When the options are invalid", func() {
			err := simulate(ctx, svc, simOptions{gameID: "demo", turns: 0}, io.Discard)
			convey.So(err, convey.ShouldNotBeNil)
		})
	})
}

func TestCommands(t *testing.T) {
	if err := logger.InitWithWriter(io.Discard); err != nil {
		t.Fatal(err)
	}

	convey.Convey("Given a sqlite database filled by simulate", t, func() {
		db := filepath.Join(t.TempDir(), "charts.db")
		run := func(args ...string) (string, error) {
			var out bytes.Buffer
			root := rootCmd()
			root.SetOut(&out)
			root.SetErr(io.Discard)
			root.SetArgs(append([]string{"--db", db, "--game", "g1"}, args...))
			err := root.Execute()
			return out.String(), err
		}

		_, err := run("simulate", "--releases", "4", "--turns", "2", "--seed", "5")
		convey.So(err, convey.ShouldBeNil)

		convey.Convey("Then top prints the chart", func() {
			out, err := run("top", "--period", "2024-02", "--limit", "3")
			convey.So(err, convey.ShouldBeNil)
			lines := strings.Split(strings.TrimSpace(out), "\n")
			convey.So(len(lines), convey.ShouldEqual, 4)
			convey.So(lines[0], convey.ShouldStartWith, "POS")
		})

		convey.Convey("Then history prints a release summary", func() {
			id := syntheticReleases(simOptions{gameID: "g1", releases: 4, turns: 2, seed: 5})[0].id
			out, err := run("history", "--item", id)
			convey.So(err, convey.ShouldBeNil)
			convey.So(out, convey.ShouldContainSubstring, "item "+id)
			convey.So(out, convey.ShouldContainSubstring, "2024-02-01")
		})

		convey.Convey("Then top requires a period", func() {
			_, err := run("top")
			convey.So(err, convey.ShouldNotBeNil)
		})
	})
}
