package chart_test

import (
	"context"
	"errors"
	"fmt"

	"github.com/okian/charts/internal/adapters/repository/memory"
	"github.com/okian/charts/internal/domain/chart"
	"github.com/okian/charts/internal/domain/competitor"
	"github.com/okian/charts/internal/domain/period"
)

var errBoom = errors.New("boom")

// linearCatalog returns n competitors with popularity spread evenly from
// 950000 down to 50000.
func linearCatalog(n int) *competitor.Catalog {
	entries := make([]competitor.Entry, n)
	for i := range n {
		var pop int64 = 950000
		if n > 1 {
			pop = 950000 - int64(i)*900000/int64(n-1)
		}
		entries[i] = competitor.Entry{
			ID:         fmt.Sprintf("comp-%03d", i+1),
			Name:       fmt.Sprintf("Song %d", i+1),
			Artist:     fmt.Sprintf("Artist %d", i+1),
			Popularity: pop,
			Genre:      "pop",
		}
	}
	c, err := competitor.New("test", entries)
	if err != nil {
		panic(err)
	}
	return c
}

func flatParams() chart.Params {
	p := chart.DefaultParams()
	p.VarianceMin, p.VarianceMax = 1, 1
	return p
}

func player(id string, perf int64) chart.Item {
	return chart.Item{ID: id, Name: "Release " + id, Artist: "Label", Performance: perf, PlayerOwned: true}
}

func ranked(id string, perf int64, pos int) chart.Ranked {
	return chart.Ranked{Item: player(id, perf), Position: pos}
}

func find(records []chart.Record, id string) (chart.Record, bool) {
	for _, r := range records {
		if r.Identity() == id {
			return r, true
		}
	}
	return chart.Record{}, false
}

// failingStore wraps a memory store and fails the named operation.
type failingStore struct {
	*memory.Store
	failOn string
}

func (f *failingStore) PeriodRecords(ctx context.Context, tx chart.Tx, gameID string, p period.Key) ([]chart.Record, error) {
	if f.failOn == "period_records" {
		return nil, errBoom
	}
	return f.Store.PeriodRecords(ctx, tx, gameID, p)
}

func (f *failingStore) HistoryForItems(ctx context.Context, tx chart.Tx, gameID string, ids []string) ([]chart.Record, error) {
	if f.failOn == "history_for_items" {
		return nil, errBoom
	}
	return f.Store.HistoryForItems(ctx, tx, gameID, ids)
}

func (f *failingStore) ItemHistory(ctx context.Context, tx chart.Tx, gameID, itemID string) ([]chart.Record, error) {
	if f.failOn == "item_history" {
		return nil, errBoom
	}
	return f.Store.ItemHistory(ctx, tx, gameID, itemID)
}

func (f *failingStore) InsertRecords(ctx context.Context, tx chart.Tx, records []chart.Record) (int, error) {
	if f.failOn == "insert_records" {
		return 0, errBoom
	}
	return f.Store.InsertRecords(ctx, tx, records)
}

// countingStore counts history fetches.
type countingStore struct {
	*memory.Store
	batchCalls int
	itemCalls  int
}

func (c *countingStore) HistoryForItems(ctx context.Context, tx chart.Tx, gameID string, ids []string) ([]chart.Record, error) {
	c.batchCalls++
	return c.Store.HistoryForItems(ctx, tx, gameID, ids)
}

func (c *countingStore) ItemHistory(ctx context.Context, tx chart.Tx, gameID, itemID string) ([]chart.Record, error) {
	c.itemCalls++
	return c.Store.ItemHistory(ctx, tx, gameID, itemID)
}
