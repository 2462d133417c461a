package chart

import (
	"context"
	"fmt"

	"github.com/okian/charts/internal/domain/period"
	"github.com/okian/charts/pkg/logger"
	"github.com/okian/charts/pkg/metrics"
)

// Record kinds used in metrics labels.
const (
	kindPlayer     = "player"
	kindCompetitor = "competitor"
	kindMixed      = "mixed"
)

// WriterOption configures a Writer.
type WriterOption func(*Writer)

// WithWriterLogger sets the writer's logger.
func WithWriterLogger(l logger.Logger) WriterOption {
	return func(w *Writer) {
		if l != nil {
			w.log = l
		}
	}
}

// Writer turns a ranked field into persisted records for one period.
type Writer struct {
	store  Store
	policy Policy
	log    logger.Logger
}

// NewWriter returns a writer persisting through store.
func NewWriter(store Store, policy Policy, opts ...WriterOption) *Writer {
	w := &Writer{
		store:  store,
		policy: policy,
		log:    logger.Default().Named("chart_writer"),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Result summarizes one Record call.
type Result struct {
	Inserted int `json:"inserted"`
	// Skipped counts items already recorded for the period, including rows
	// the store dropped on conflict.
	Skipped  int            `json:"skipped"`
	Charting int            `json:"charting"`
	Tracked  int            `json:"tracked"`
	Debuts   int            `json:"debuts"`
	Exits    map[Reason]int `json:"exits"`
}

// Record writes one record for every ranked item not yet recorded in period
// p. Store errors are returned wrapped and nothing is retried; calling it
// again for the same inputs writes nothing new.
func (w *Writer) Record(ctx context.Context, tx Tx, gameID string, p period.Key, ranked []Ranked) (Result, error) {
	const op = "chart.Writer.Record"
	res := Result{Exits: map[Reason]int{}}

	if w.store == nil {
		return res, fmt.Errorf("%s: %w", op, ErrNoStore)
	}
	if gameID == "" {
		return res, fmt.Errorf("%s: %w", op, ErrMissingGame)
	}

	existing, err := w.store.PeriodRecords(ctx, tx, gameID, p)
	if err != nil {
		metrics.RecordErrorByComponent("chart_writer", "period_records")
		return res, fmt.Errorf("%s: period records: %w", op, err)
	}
	recordedItems := make(map[string]struct{}, len(existing))
	recordedCompetitors := make(map[string]struct{}, len(existing))
	for _, r := range existing {
		if r.IsCompetitor {
			recordedCompetitors[r.CompetitorID] = struct{}{}
		} else {
			recordedItems[r.ItemID] = struct{}{}
		}
	}

	var players, competitors []Ranked
	pendingOwners := make([]string, 0)
	for _, it := range ranked {
		if it.PlayerOwned {
			owner := it.Owner()
			if _, ok := recordedItems[owner]; ok {
				res.Skipped++
				continue
			}
			recordedItems[owner] = struct{}{}
			players = append(players, it)
			pendingOwners = append(pendingOwners, owner)
			continue
		}
		if _, ok := recordedCompetitors[it.ID]; ok {
			res.Skipped++
			continue
		}
		recordedCompetitors[it.ID] = struct{}{}
		competitors = append(competitors, it)
	}

	histories := map[string][]Record{}
	if len(pendingOwners) > 0 {
		prior, err := w.store.HistoryForItems(ctx, tx, gameID, pendingOwners)
		if err != nil {
			metrics.RecordErrorByComponent("chart_writer", "history_for_items")
			return res, fmt.Errorf("%s: item history: %w", op, err)
		}
		for _, r := range prior {
			if r.IsCompetitor {
				continue
			}
			histories[r.ItemID] = append(histories[r.ItemID], r)
		}
		for id := range histories {
			SortRecent(histories[id])
		}
	}

	records := make([]Record, 0, len(players)+len(competitors))
	for _, it := range players {
		rec := w.playerRecord(ctx, gameID, p, it, histories[it.Owner()], &res)
		records = append(records, rec)
	}
	for _, it := range competitors {
		rec := Record{
			GameID:       gameID,
			Period:       p,
			Performance:  it.Performance,
			IsCompetitor: true,
			CompetitorID: it.ID,
			Name:         it.Name,
			Artist:       it.Artist,
		}
		if w.policy.CompetitorCharts(it.Position) {
			rec.Position = intPtr(it.Position)
			res.Charting++
		} else {
			res.Tracked++
		}
		records = append(records, rec)
	}

	if len(records) == 0 {
		metrics.RecordRecordsSkipped(res.Skipped)
		return res, nil
	}

	inserted, err := w.store.InsertRecords(ctx, tx, records)
	if err != nil {
		metrics.RecordErrorByComponent("chart_writer", "insert_records")
		return res, fmt.Errorf("%s: insert records: %w", op, err)
	}
	res.Inserted = inserted
	res.Skipped += len(records) - inserted

	if inserted == len(records) {
		metrics.RecordRecordsInserted(kindPlayer, len(players))
		metrics.RecordRecordsInserted(kindCompetitor, len(competitors))
	} else {
		metrics.RecordRecordsInserted(kindMixed, inserted)
	}
	metrics.RecordRecordsSkipped(res.Skipped)
	metrics.RecordDebuts(res.Debuts)
	for reason, n := range res.Exits {
		for range n {
			metrics.RecordChartExit(string(reason))
		}
	}
	return res, nil
}

func (w *Writer) playerRecord(ctx context.Context, gameID string, p period.Key, it Ranked, history []Record, res *Result) Record {
	weeks := WeeksCharted(history, p)
	decision := w.policy.Evaluate(it.Performance, weeks, it.Position)
	position := w.policy.chartPosition(decision, it.Position)

	rec := Record{
		GameID:      gameID,
		Period:      p,
		Performance: it.Performance,
		Position:    position,
		ItemID:      it.Owner(),
		Movement:    Movement(PriorPosition(history, p), position),
		IsDebut:     position != nil && !hasChartedBefore(history, p),
	}

	if position == nil {
		res.Tracked++
		res.Exits[decision.Reason]++
		w.log.Debug(ctx, "item kept off chart",
			logger.String("game_id", gameID),
			logger.String("period", p.String()),
			logger.String("item_id", rec.ItemID),
			logger.Int("overall_position", it.Position),
			logger.Int("weeks_charted", weeks),
			logger.String("reason", string(decision.Reason)),
		)
		return rec
	}
	res.Charting++
	if rec.IsDebut {
		res.Debuts++
	}
	return rec
}
