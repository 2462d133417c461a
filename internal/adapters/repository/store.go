// Package repository defines the chart storage backends' shared contract.
package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/charts/internal/domain/chart"
	"github.com/okian/charts/pkg/metrics"
)

// Release is a player-owned entity the engine ranks. Active releases with
// positive performance are the eligible items of a game.
type Release struct {
	GameID      string `db:"game_id" json:"game_id"`
	ID          string `db:"id" json:"id"`
	Name        string `db:"name" json:"name"`
	Artist      string `db:"artist" json:"artist"`
	Performance int64  `db:"performance" json:"performance"`
	Active      bool   `db:"active" json:"active"`
}

// Validate checks the fields every backend requires.
func (r Release) Validate() error {
	if r.GameID == "" || r.ID == "" {
		return fmt.Errorf("%w: game id and id are required", ErrInvalidRelease)
	}
	return nil
}

// Item converts the release into a rankable player item.
func (r Release) Item() chart.Item {
	return chart.Item{
		ID:          r.ID,
		Name:        r.Name,
		Artist:      r.Artist,
		Performance: r.Performance,
		PlayerOwned: true,
		OwnerID:     r.ID,
	}
}

// Store is a chart.Store that can also seed releases.
type Store interface {
	chart.Store

	// UpsertRelease inserts or replaces a release.
	UpsertRelease(ctx context.Context, tx chart.Tx, r Release) error

	// WithTx runs fn inside one backend transaction, committing when fn
	// returns nil and rolling back otherwise.
	WithTx(ctx context.Context, fn func(tx chart.Tx) error) error

	// Close releases the backend's resources.
	Close() error
}

// Observe records the latency of one store operation started at start.
func Observe(backend, operation string, start time.Time) {
	metrics.RecordStoreLatency(backend, operation, float64(time.Since(start).Microseconds())/1000)
}
