package chart

import (
	"context"
	"fmt"
	"sort"

	"github.com/okian/charts/internal/domain/period"
)

// Reader derives chart views and per-item stats from persisted records.
type Reader struct {
	store Store
}

// NewReader returns a reader over store.
func NewReader(store Store) *Reader {
	return &Reader{store: store}
}

// Item returns the full stats of one player item.
func (r *Reader) Item(ctx context.Context, tx Tx, gameID, itemID string) (Stats, error) {
	const op = "chart.Reader.Item"
	if r.store == nil {
		return Stats{ItemID: itemID}, fmt.Errorf("%s: %w", op, ErrNoStore)
	}
	history, err := r.store.ItemHistory(ctx, tx, gameID, itemID)
	if err != nil {
		return Stats{ItemID: itemID}, fmt.Errorf("%s: %w", op, err)
	}
	return Summarize(itemID, history), nil
}

// Batch returns stats for every requested item using one history fetch.
// Items without history map to zero-valued stats.
func (r *Reader) Batch(ctx context.Context, tx Tx, gameID string, itemIDs []string) (map[string]Stats, error) {
	const op = "chart.Reader.Batch"
	out := make(map[string]Stats, len(itemIDs))
	if len(itemIDs) == 0 {
		return out, nil
	}
	if r.store == nil {
		return out, fmt.Errorf("%s: %w", op, ErrNoStore)
	}

	ids := make([]string, 0, len(itemIDs))
	seen := make(map[string]struct{}, len(itemIDs))
	for _, id := range itemIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}

	records, err := r.store.HistoryForItems(ctx, tx, gameID, ids)
	if err != nil {
		return out, fmt.Errorf("%s: %w", op, err)
	}
	grouped := make(map[string][]Record, len(ids))
	for _, rec := range records {
		if rec.IsCompetitor {
			continue
		}
		grouped[rec.ItemID] = append(grouped[rec.ItemID], rec)
	}
	for _, id := range ids {
		out[id] = Summarize(id, grouped[id])
	}
	return out, nil
}

// TopN returns the charting records of period p with position in [1, n],
// ordered by position. n is capped at MaxPosition.
func (r *Reader) TopN(ctx context.Context, tx Tx, gameID string, p period.Key, n int) ([]Entry, error) {
	const op = "chart.Reader.TopN"
	if n < 1 {
		return nil, fmt.Errorf("%s: %w: %d", op, ErrInvalidLimit, n)
	}
	n = min(n, MaxPosition)
	records, err := r.periodRecords(ctx, tx, gameID, p)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	entries := make([]Entry, 0, n)
	for _, rec := range records {
		if rec.Position == nil || *rec.Position < 1 || *rec.Position > n {
			continue
		}
		entries = append(entries, toEntry(rec))
	}
	sort.Slice(entries, func(i, j int) bool { return *entries[i].Position < *entries[j].Position })
	return entries, nil
}

// BubblingUnder returns up to n tracked player records of period p, the
// items that were evaluated but held no position, best performance first.
func (r *Reader) BubblingUnder(ctx context.Context, tx Tx, gameID string, p period.Key, n int) ([]Entry, error) {
	const op = "chart.Reader.BubblingUnder"
	if n < 1 {
		return nil, fmt.Errorf("%s: %w: %d", op, ErrInvalidLimit, n)
	}
	n = min(n, MaxPosition)
	records, err := r.periodRecords(ctx, tx, gameID, p)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	entries := make([]Entry, 0)
	for _, rec := range records {
		if rec.IsCompetitor || rec.Charting() {
			continue
		}
		entries = append(entries, toEntry(rec))
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Performance != entries[j].Performance {
			return entries[i].Performance > entries[j].Performance
		}
		return entries[i].ItemID < entries[j].ItemID
	})
	if len(entries) > n {
		entries = entries[:n]
	}
	return entries, nil
}

func (r *Reader) periodRecords(ctx context.Context, tx Tx, gameID string, p period.Key) ([]Record, error) {
	if r.store == nil {
		return nil, ErrNoStore
	}
	return r.store.PeriodRecords(ctx, tx, gameID, p)
}

func toEntry(rec Record) Entry {
	e := Entry{
		ItemID:       rec.ItemID,
		CompetitorID: rec.CompetitorID,
		IsCompetitor: rec.IsCompetitor,
		Name:         rec.Name,
		Artist:       rec.Artist,
		Performance:  rec.Performance,
		Movement:     rec.Movement,
		IsDebut:      rec.IsDebut,
	}
	if rec.Position != nil {
		e.Position = intPtr(*rec.Position)
	}
	return e
}
