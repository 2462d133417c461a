package service

import (
	"context"

	"github.com/okian/charts/internal/domain/chart"
	"github.com/okian/charts/internal/domain/period"
	"github.com/okian/charts/pkg/logger"
	"github.com/okian/charts/pkg/metrics"
)

// ItemChart returns the chart stats of one item. Read failures degrade to
// zero-valued stats so a display path never blocks on chart history.
func (s *Service) ItemChart(ctx context.Context, tx chart.Tx, gameID, itemID string) chart.Stats {
	if err := s.ready(); err != nil {
		return chart.Stats{ItemID: itemID}
	}
	st, err := s.reader.Item(ctx, tx, gameID, itemID)
	if err != nil {
		s.degraded(ctx, "item_chart", err, logger.String("game_id", gameID), logger.String("item_id", itemID))
		return chart.Stats{ItemID: itemID}
	}
	return st
}

// BatchChart returns chart stats for every requested item with one history
// fetch. Read failures degrade to zero-valued stats for every id.
func (s *Service) BatchChart(ctx context.Context, tx chart.Tx, gameID string, itemIDs []string) map[string]chart.Stats {
	empty := func() map[string]chart.Stats {
		out := make(map[string]chart.Stats, len(itemIDs))
		for _, id := range itemIDs {
			out[id] = chart.Stats{ItemID: id}
		}
		return out
	}
	if err := s.ready(); err != nil {
		return empty()
	}
	stats, err := s.reader.Batch(ctx, tx, gameID, itemIDs)
	if err != nil {
		s.degraded(ctx, "batch_chart", err, logger.String("game_id", gameID), logger.Int("items", len(itemIDs)))
		return empty()
	}
	return stats
}

// TopN returns the top n entries of a period, n capped at the configured
// maximum.
func (s *Service) TopN(ctx context.Context, tx chart.Tx, gameID string, p period.Key, n int) ([]chart.Entry, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if n > s.maxTopLimit {
		n = s.maxTopLimit
	}
	return s.reader.TopN(ctx, tx, gameID, p, n)
}

// BubblingUnder returns tracked items of a period that held no position.
func (s *Service) BubblingUnder(ctx context.Context, tx chart.Tx, gameID string, p period.Key, n int) ([]chart.Entry, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if n > s.maxTopLimit {
		n = s.maxTopLimit
	}
	return s.reader.BubblingUnder(ctx, tx, gameID, p, n)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	last := make(map[string]string, len(s.lastPeriod))
	for game, p := range s.lastPeriod {
		last[game] = p.String()
	}
	return map[string]interface{}{
		"started":           s.started,
		"catalog_version":   s.catalog.Version(),
		"catalog_entries":   s.catalog.Len(),
		"periods_processed": s.periodsProcessed,
		"last_period":       last,
		"start_year":        s.startYear,
		"max_top_limit":     s.maxTopLimit,
		"params":            s.params,
	}
}

func (s *Service) degraded(ctx context.Context, op string, err error, fields ...logger.Field) {
	metrics.RecordDegradedRead(op)
	metrics.RecordErrorByComponent("chart_service", op)
	fields = append(fields, logger.String("operation", op), logger.Error(err))
	s.logger.Warn(ctx, "chart read degraded", fields...)
}
