package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/okian/charts/internal/domain/chart"
	"github.com/okian/charts/internal/domain/period"
	"github.com/okian/charts/pkg/logger"
	"github.com/okian/charts/pkg/metrics"
)

// PeriodResult describes one processed period.
type PeriodResult struct {
	RunID    string       `json:"run_id"`
	GameID   string       `json:"game_id"`
	Period   period.Key   `json:"period"`
	Eligible int          `json:"eligible"`
	Ranked   int          `json:"ranked"`
	Result   chart.Result `json:"result"`
}

// ProcessPeriod ranks the game's eligible items against the sampled field and
// records the period. All store calls run on tx. Errors are returned as is
// for the caller to roll back and retry the whole period. On a transaction
// opened by WithTx the period shows in GetStats only once it commits.
func (s *Service) ProcessPeriod(ctx context.Context, tx chart.Tx, gameID string, p period.Key, seed int64) (PeriodResult, error) {
	const op = "service.ProcessPeriod"
	out := PeriodResult{RunID: uuid.NewString(), GameID: gameID, Period: p}
	if err := s.ready(); err != nil {
		return out, err
	}
	if gameID == "" {
		return out, fmt.Errorf("%s: %w", op, chart.ErrMissingGame)
	}
	start := time.Now()

	items, err := s.store.EligibleItems(ctx, tx, gameID)
	if err != nil {
		metrics.RecordErrorByComponent("chart_service", "eligible_items")
		return out, fmt.Errorf("%s: eligible items: %w", op, err)
	}
	eligible := make([]chart.Item, 0, len(items))
	for _, it := range items {
		if it.Performance > 0 {
			eligible = append(eligible, it)
		}
	}

	competitors := s.sampler.Sample(chart.PeriodSeed(gameID, p, seed))
	ranked := chart.Rank(competitors, eligible)

	res, err := s.writer.Record(ctx, tx, gameID, p, ranked)
	if err != nil {
		return out, fmt.Errorf("%s: %w", op, err)
	}

	out.Eligible = len(eligible)
	out.Ranked = len(ranked)
	out.Result = res

	s.mu.Lock()
	if waiting, ok := s.pending[tx]; ok && tx != nil {
		s.pending[tx] = append(waiting, committedPeriod{gameID: gameID, period: p})
	} else {
		s.countPeriod(gameID, p)
	}
	s.mu.Unlock()

	metrics.RecordPeriodProcessed(float64(time.Since(start).Microseconds()) / 1000)
	metrics.UpdateEligibleItems(len(eligible))
	metrics.UpdateChartingEntries(res.Charting)

	s.logger.Info(ctx, "chart period recorded",
		logger.String("run_id", out.RunID),
		logger.String("game_id", gameID),
		logger.String("period", p.String()),
		logger.Int("eligible", len(eligible)),
		logger.Int("inserted", res.Inserted),
		logger.Int("skipped", res.Skipped),
		logger.Int("charting", res.Charting),
		logger.Int("tracked", res.Tracked),
		logger.Int("debuts", res.Debuts),
		logger.Duration("took", time.Since(start)),
	)
	return out, nil
}

type committedPeriod struct {
	gameID string
	period period.Key
}

// countPeriod updates the processed counters. Callers hold s.mu.
func (s *Service) countPeriod(gameID string, p period.Key) {
	s.periodsProcessed++
	if last, ok := s.lastPeriod[gameID]; !ok || last.Before(p) {
		s.lastPeriod[gameID] = p
	}
}

// ProcessTurn converts a 1-based turn into its period and processes it.
func (s *Service) ProcessTurn(ctx context.Context, tx chart.Tx, gameID string, turn int, seed int64) (PeriodResult, error) {
	p, err := period.FromTurn(turn, s.startYear)
	if err != nil {
		return PeriodResult{GameID: gameID}, fmt.Errorf("service.ProcessTurn: %w", err)
	}
	return s.ProcessPeriod(ctx, tx, gameID, p, seed)
}

// PeriodForTurn returns the period of a 1-based turn.
func (s *Service) PeriodForTurn(turn int) (period.Key, error) {
	return period.FromTurn(turn, s.startYear)
}
