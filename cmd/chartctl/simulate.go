package main

import (
	"context"
	"fmt"
	"io"
	"math"
	"math/rand"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/okian/charts/internal/adapters/repository"
	app "github.com/okian/charts/internal/app"
	"github.com/okian/charts/internal/domain/chart"
)

// Release lifecycle shape for synthetic games.
const (
	minPeakPerformance = 200_000
	peakSpread         = 1_800_000
	decayPerTurn       = 0.85
)

type simOptions struct {
	gameID   string
	releases int
	turns    int
	seed     int64
}

// syntheticRelease is one generated release and its lifecycle.
type syntheticRelease struct {
	id    string
	name  string
	debut int
	peak  int64
}

// performance returns the release's performance at turn; zero before debut.
func (r syntheticRelease) performance(turn int) int64 {
	if turn < r.debut {
		return 0
	}
	return int64(float64(r.peak) * math.Pow(decayPerTurn, float64(turn-r.debut)))
}

// syntheticReleases builds a reproducible release set. Ids derive from the
// game and index so re-running a simulation targets the same releases.
func syntheticReleases(opts simOptions) []syntheticRelease {
	rng := rand.New(rand.NewSource(opts.seed)) //nolint:gosec // simulation only
	out := make([]syntheticRelease, 0, opts.releases)
	for i := range opts.releases {
		out = append(out, syntheticRelease{
			id:    uuid.NewSHA1(uuid.NameSpaceOID, fmt.Appendf(nil, "%s/%d", opts.gameID, i)).String(),
			name:  fmt.Sprintf("Release %03d", i+1),
			debut: 1 + rng.Intn(opts.turns),
			peak:  minPeakPerformance + rng.Int63n(peakSpread),
		})
	}
	return out
}

// simulate refreshes release performance and processes each turn inside one
// transaction, writing a summary line per turn to out.
func simulate(ctx context.Context, svc *app.Service, opts simOptions, out io.Writer) error {
	if opts.releases < 0 || opts.turns < 1 {
		return fmt.Errorf("simulate: need releases >= 0 and turns >= 1")
	}
	releases := syntheticReleases(opts)

	for turn := 1; turn <= opts.turns; turn++ {
		var res app.PeriodResult
		err := svc.WithTx(ctx, func(tx chart.Tx) error {
			for _, r := range releases {
				if err := svc.SeedRelease(ctx, tx, repository.Release{
					GameID:      opts.gameID,
					ID:          r.id,
					Name:        r.name,
					Artist:      "Player Label",
					Performance: r.performance(turn),
					Active:      true,
				}); err != nil {
					return err
				}
			}
			var err error
			res, err = svc.ProcessTurn(ctx, tx, opts.gameID, turn, opts.seed)
			return err
		})
		if err != nil {
			return fmt.Errorf("simulate turn %d: %w", turn, err)
		}
		fmt.Fprintf(out, "turn %3d  %s  eligible=%d inserted=%d skipped=%d charting=%d debuts=%d\n",
			turn, res.Period, res.Eligible, res.Result.Inserted, res.Result.Skipped, res.Result.Charting, res.Result.Debuts)
	}
	return nil
}

func simulateCmd(flags *globalFlags) *cobra.Command {
	var opts simOptions
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Seed synthetic releases and run chart turns",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithService(cmd, flags, func(ctx context.Context, svc *app.Service) error {
				opts.gameID = flags.gameID
				return simulate(ctx, svc, opts, cmd.OutOrStdout())
			})
		},
	}
	cmd.Flags().IntVar(&opts.releases, "releases", 20, "Number of synthetic releases")
	cmd.Flags().IntVar(&opts.turns, "turns", 12, "Number of turns to run")
	cmd.Flags().Int64Var(&opts.seed, "seed", 1, "Base seed for releases and competitor sampling")
	return cmd
}
