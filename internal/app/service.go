// Package service wires the chart engine to a store and exposes the period
// write path and the read-side views used by the HTTP API and the CLI.
package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/okian/charts/internal/adapters/repository"
	"github.com/okian/charts/internal/domain/chart"
	"github.com/okian/charts/internal/domain/competitor"
	"github.com/okian/charts/internal/domain/period"
	"github.com/okian/charts/pkg/logger"
	"github.com/okian/charts/pkg/metrics"
)

const defaultStartYear = 2024

// Service runs chart periods and serves chart reads.
type Service struct {
	mu sync.RWMutex

	// Core components
	store   repository.Store
	catalog *competitor.Catalog
	sampler *chart.Sampler
	policy  chart.Policy
	writer  *chart.Writer
	reader  *chart.Reader

	// Configuration
	params      chart.Params
	startYear   int
	maxTopLimit int

	// State
	started          bool
	periodsProcessed int64
	lastPeriod       map[string]period.Key
	// periods recorded on an open WithTx transaction, counted on commit
	pending map[chart.Tx][]committedPeriod

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the chart store.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithCatalog replaces the embedded competitor catalog.
func WithCatalog(c *competitor.Catalog) Option {
	return func(s *Service) {
		if c != nil {
			s.catalog = c
		}
	}
}

// WithParams sets the engine tunables. Unset fields take defaults.
func WithParams(p chart.Params) Option {
	return func(s *Service) {
		s.params = p.WithDefaults()
	}
}

// WithStartYear sets the calendar year of turn 1.
func WithStartYear(year int) Option {
	return func(s *Service) {
		if year > 0 {
			s.startYear = year
		}
	}
}

// WithMaxTopLimit caps chart view sizes.
func WithMaxTopLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxTopLimit = min(n, chart.MaxPosition)
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		catalog:     competitor.Default(),
		params:      chart.DefaultParams(),
		startYear:   defaultStartYear,
		maxTopLimit: chart.MaxPosition,
		lastPeriod:  make(map[string]period.Key),
		pending:     make(map[chart.Tx][]committedPeriod),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start builds the engine components. It fails when no store is configured.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Default().Named("chart_service")
	}
	if s.store == nil {
		return fmt.Errorf("start chart service: %w", chart.ErrNoStore)
	}

	s.sampler = chart.NewSampler(s.catalog, s.params)
	s.policy = chart.NewPolicy(s.params)
	s.writer = chart.NewWriter(s.store, s.policy, chart.WithWriterLogger(s.logger.Named("writer")))
	s.reader = chart.NewReader(s.store)
	metrics.UpdateCatalogEntries(s.catalog.Len())

	s.started = true
	s.logger.Info(ctx, "chart service started",
		logger.String("catalog_version", s.catalog.Version()),
		logger.Int("catalog_entries", s.catalog.Len()),
		logger.Int("max_chart_size", s.params.MaxChartSize),
		logger.Int("start_year", s.startYear),
	)
	return nil
}

// Stop closes the store.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	if err := s.store.Close(); err != nil {
		s.logger.Warn(context.Background(), "closing chart store", logger.Error(err))
	}
	s.started = false
	s.logger.Info(context.Background(), "chart service stopped")
}

func (s *Service) ready() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return ErrNotStarted
	}
	return nil
}

// WithTx runs fn inside one store transaction. Periods processed on it
// reach GetStats only when it commits.
func (s *Service) WithTx(ctx context.Context, fn func(tx chart.Tx) error) error {
	if err := s.ready(); err != nil {
		return err
	}
	var open chart.Tx
	err := s.store.WithTx(ctx, func(tx chart.Tx) error {
		if tx != nil {
			open = tx
			s.mu.Lock()
			s.pending[tx] = nil
			s.mu.Unlock()
		}
		return fn(tx)
	})
	if open == nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	done := s.pending[open]
	delete(s.pending, open)
	if err == nil {
		for _, c := range done {
			s.countPeriod(c.gameID, c.period)
		}
	}
	return err
}

// SeedRelease inserts or replaces a player-owned release.
func (s *Service) SeedRelease(ctx context.Context, tx chart.Tx, r repository.Release) error {
	if err := s.ready(); err != nil {
		return err
	}
	return s.store.UpsertRelease(ctx, tx, r)
}
