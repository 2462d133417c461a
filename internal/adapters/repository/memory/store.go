// Package memory is an in-process chart store.
//
// Uniqueness of (game, period, item) and (game, period, competitor) is
// enforced with keyed maps, so duplicate inserts are dropped the same way
// the SQL backends drop them.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/okian/charts/internal/adapters/repository"
	"github.com/okian/charts/internal/domain/chart"
	"github.com/okian/charts/internal/domain/period"
)

const backend = "memory"

type recordKey struct {
	game   string
	period period.Key
	id     string
}

type releaseKey struct {
	game string
	id   string
}

// Store keeps releases and chart records in memory. It supports a nil
// transaction handle only.
type Store struct {
	mu          sync.RWMutex
	releases    map[releaseKey]repository.Release
	players     map[recordKey]chart.Record
	competitors map[recordKey]chart.Record
}

// New returns an empty store.
func New() *Store {
	return &Store{
		releases:    make(map[releaseKey]repository.Release),
		players:     make(map[recordKey]chart.Record),
		competitors: make(map[recordKey]chart.Record),
	}
}

var _ repository.Store = (*Store)(nil)

func checkTx(tx chart.Tx) error {
	if tx != nil {
		return fmt.Errorf("memory: %w: %T", repository.ErrUnsupportedTx, tx)
	}
	return nil
}

// UpsertRelease inserts or replaces a release.
func (s *Store) UpsertRelease(_ context.Context, tx chart.Tx, r repository.Release) error {
	if err := checkTx(tx); err != nil {
		return err
	}
	if err := r.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	s.releases[releaseKey{r.GameID, r.ID}] = r
	s.mu.Unlock()
	return nil
}

// EligibleItems returns the active releases of a game ordered by id.
func (s *Store) EligibleItems(_ context.Context, tx chart.Tx, gameID string) ([]chart.Item, error) {
	defer repository.Observe(backend, "eligible_items", time.Now())
	if err := checkTx(tx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]chart.Item, 0)
	for k, r := range s.releases {
		if k.game != gameID || !r.Active {
			continue
		}
		items = append(items, r.Item())
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items, nil
}

// InsertRecords stores records, skipping any that already exist.
func (s *Store) InsertRecords(_ context.Context, tx chart.Tx, records []chart.Record) (int, error) {
	defer repository.Observe(backend, "insert_records", time.Now())
	if err := checkTx(tx); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	inserted := 0
	for _, r := range records {
		target := s.players
		if r.IsCompetitor {
			target = s.competitors
		}
		k := recordKey{r.GameID, r.Period, r.Identity()}
		if _, ok := target[k]; ok {
			continue
		}
		target[k] = cloneRecord(r)
		inserted++
	}
	return inserted, nil
}

// ItemHistory returns every record of one item.
func (s *Store) ItemHistory(_ context.Context, tx chart.Tx, gameID, itemID string) ([]chart.Record, error) {
	defer repository.Observe(backend, "item_history", time.Now())
	return s.history(tx, gameID, []string{itemID})
}

// HistoryForItems returns every record of the given items.
func (s *Store) HistoryForItems(_ context.Context, tx chart.Tx, gameID string, itemIDs []string) ([]chart.Record, error) {
	defer repository.Observe(backend, "history_for_items", time.Now())
	return s.history(tx, gameID, itemIDs)
}

func (s *Store) history(tx chart.Tx, gameID string, itemIDs []string) ([]chart.Record, error) {
	if err := checkTx(tx); err != nil {
		return nil, err
	}
	want := make(map[string]struct{}, len(itemIDs))
	for _, id := range itemIDs {
		want[id] = struct{}{}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]chart.Record, 0)
	for k, r := range s.players {
		if k.game != gameID {
			continue
		}
		if _, ok := want[k.id]; !ok {
			continue
		}
		out = append(out, s.withRelease(r))
	}
	return out, nil
}

// PeriodRecords returns every record of one period.
func (s *Store) PeriodRecords(_ context.Context, tx chart.Tx, gameID string, p period.Key) ([]chart.Record, error) {
	defer repository.Observe(backend, "period_records", time.Now())
	if err := checkTx(tx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]chart.Record, 0)
	for k, r := range s.players {
		if k.game == gameID && k.period == p {
			out = append(out, s.withRelease(r))
		}
	}
	for k, r := range s.competitors {
		if k.game == gameID && k.period == p {
			out = append(out, cloneRecord(r))
		}
	}
	return out, nil
}

// Len returns the number of stored chart records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.players) + len(s.competitors)
}

// WithTx calls fn with a nil handle. Writes made before fn fails are kept;
// the memory backend has no rollback.
func (s *Store) WithTx(_ context.Context, fn func(tx chart.Tx) error) error {
	return fn(nil)
}

// Close is a no-op.
func (s *Store) Close() error { return nil }

// withRelease fills display fields of a player record. Callers hold mu.
func (s *Store) withRelease(r chart.Record) chart.Record {
	r = cloneRecord(r)
	if rel, ok := s.releases[releaseKey{r.GameID, r.ItemID}]; ok {
		r.Name, r.Artist = rel.Name, rel.Artist
	}
	return r
}

func cloneRecord(r chart.Record) chart.Record {
	if r.Position != nil {
		p := *r.Position
		r.Position = &p
	}
	return r
}
