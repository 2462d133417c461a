package chart

import (
	"context"

	"github.com/okian/charts/internal/domain/period"
)

// Tx is an opaque transaction handle owned by the caller. The engine passes
// it through to the Store untouched; nil means no ambient transaction.
type Tx any

// Store is the persistence contract the engine depends on.
//
// InsertRecords must treat rows that collide with the (game, period, item)
// or (game, period, competitor) uniqueness constraint as no-ops and report
// only the rows actually written. Returned record slices carry no ordering
// guarantee.
type Store interface {
	// EligibleItems returns the player items active in a game.
	EligibleItems(ctx context.Context, tx Tx, gameID string) ([]Item, error)

	// InsertRecords writes records in one batch, ignoring duplicates.
	InsertRecords(ctx context.Context, tx Tx, records []Record) (int, error)

	// ItemHistory returns every record of one player item.
	ItemHistory(ctx context.Context, tx Tx, gameID, itemID string) ([]Record, error)

	// PeriodRecords returns every record of one period.
	PeriodRecords(ctx context.Context, tx Tx, gameID string, p period.Key) ([]Record, error)

	// HistoryForItems returns every record of the given player items in one call.
	HistoryForItems(ctx context.Context, tx Tx, gameID string, itemIDs []string) ([]Record, error)
}
