// Package postgres provides a PostgreSQL-backed chart store on pgx.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/okian/charts/internal/adapters/repository"
	"github.com/okian/charts/internal/domain/chart"
	"github.com/okian/charts/internal/domain/period"
)

const backend = "postgres"

// Option configures the pool.
type Option func(*pgxpool.Config)

// WithMaxConns caps the pool size.
func WithMaxConns(n int32) Option {
	return func(c *pgxpool.Config) {
		if n > 0 {
			c.MaxConns = n
		}
	}
}

// Store persists releases and chart records in PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

var _ repository.Store = (*Store)(nil)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// Open connects to databaseURL, verifies connectivity and applies the schema.
func Open(ctx context.Context, databaseURL string, opts ...Option) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}
	cfg.MaxConnIdleTime = 5 * time.Minute
	for _, opt := range opts {
		opt(cfg)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &Store{pool: pool}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// Close closes the pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

var schema = []string{ //nolint:gochecknoglobals // migration statements
	`CREATE TABLE IF NOT EXISTS releases (
		game_id TEXT NOT NULL,
		id TEXT NOT NULL,
		name TEXT NOT NULL,
		artist TEXT NOT NULL,
		performance BIGINT NOT NULL DEFAULT 0,
		active BOOLEAN NOT NULL DEFAULT TRUE,
		PRIMARY KEY (game_id, id)
	)`,
	`CREATE TABLE IF NOT EXISTS chart_records (
		id BIGSERIAL PRIMARY KEY,
		game_id TEXT NOT NULL,
		period DATE NOT NULL,
		performance BIGINT NOT NULL,
		position INTEGER CHECK (position IS NULL OR position BETWEEN 1 AND 100),
		is_debut BOOLEAN NOT NULL DEFAULT FALSE,
		movement INTEGER NOT NULL DEFAULT 0,
		release_id TEXT,
		is_competitor BOOLEAN NOT NULL DEFAULT FALSE,
		competitor_id TEXT,
		competitor_name TEXT,
		competitor_artist TEXT
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ux_chart_records_release
		ON chart_records(game_id, period, release_id) WHERE release_id IS NOT NULL`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ux_chart_records_competitor
		ON chart_records(game_id, period, competitor_id) WHERE is_competitor`,
	`CREATE INDEX IF NOT EXISTS idx_chart_records_release ON chart_records(game_id, release_id)`,
}

func (s *Store) migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) conn(tx chart.Tx) (querier, error) {
	switch t := tx.(type) {
	case nil:
		return s.pool, nil
	case pgx.Tx:
		return t, nil
	default:
		return nil, fmt.Errorf("postgres: %w: %T", repository.ErrUnsupportedTx, tx)
	}
}

// WithTx runs fn inside one transaction.
func (s *Store) WithTx(ctx context.Context, fn func(tx chart.Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres: commit: %w", err)
	}
	return nil
}

// UpsertRelease inserts or replaces a release.
func (s *Store) UpsertRelease(ctx context.Context, tx chart.Tx, r repository.Release) error {
	defer repository.Observe(backend, "upsert_release", time.Now())
	if err := r.Validate(); err != nil {
		return err
	}
	q, err := s.conn(tx)
	if err != nil {
		return err
	}
	_, err = q.Exec(ctx, `INSERT INTO releases (game_id, id, name, artist, performance, active)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (game_id, id) DO UPDATE SET
			name = EXCLUDED.name,
			artist = EXCLUDED.artist,
			performance = EXCLUDED.performance,
			active = EXCLUDED.active`,
		r.GameID, r.ID, r.Name, r.Artist, r.Performance, r.Active)
	if err != nil {
		return fmt.Errorf("postgres: upsert release: %w", err)
	}
	return nil
}

// EligibleItems returns the active releases of a game ordered by id.
func (s *Store) EligibleItems(ctx context.Context, tx chart.Tx, gameID string) ([]chart.Item, error) {
	defer repository.Observe(backend, "eligible_items", time.Now())
	q, err := s.conn(tx)
	if err != nil {
		return nil, err
	}
	rows, err := q.Query(ctx, `SELECT game_id, id, name, artist, performance, active FROM releases
		WHERE game_id = $1 AND active ORDER BY id`, gameID)
	if err != nil {
		return nil, fmt.Errorf("postgres: eligible items: %w", err)
	}
	releases, err := pgx.CollectRows(rows, pgx.RowToStructByName[repository.Release])
	if err != nil {
		return nil, fmt.Errorf("postgres: eligible items: %w", err)
	}
	items := make([]chart.Item, len(releases))
	for i, r := range releases {
		items[i] = r.Item()
	}
	return items, nil
}

const insertRecord = `INSERT INTO chart_records
	(game_id, period, performance, position, is_debut, movement,
	 release_id, is_competitor, competitor_id, competitor_name, competitor_artist)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	ON CONFLICT DO NOTHING`

// InsertRecords sends all rows as one pgx batch. Rows colliding with the
// unique indexes are skipped. Without an ambient transaction the batch runs
// in its own.
func (s *Store) InsertRecords(ctx context.Context, tx chart.Tx, records []chart.Record) (int, error) {
	defer repository.Observe(backend, "insert_records", time.Now())
	if len(records) == 0 {
		return 0, nil
	}
	if tx == nil {
		inserted := 0
		err := s.WithTx(ctx, func(own chart.Tx) error {
			n, err := insertBatch(ctx, own.(pgx.Tx), records)
			inserted = n
			return err
		})
		return inserted, err
	}
	q, err := s.conn(tx)
	if err != nil {
		return 0, err
	}
	return insertBatch(ctx, q, records)
}

func insertBatch(ctx context.Context, q querier, records []chart.Record) (int, error) {
	batch := &pgx.Batch{}
	for _, r := range records {
		row := toRow(r)
		batch.Queue(insertRecord, row.GameID, row.Period, row.Performance, row.Position, row.IsDebut,
			row.Movement, row.ReleaseID, row.IsCompetitor, row.CompetitorID, row.Name, row.Artist)
	}

	br := q.SendBatch(ctx, batch)
	inserted := 0
	var execErr error
	for range records {
		tag, err := br.Exec()
		if err != nil {
			execErr = err
			break
		}
		inserted += int(tag.RowsAffected())
	}
	if err := errors.Join(execErr, br.Close()); err != nil {
		return inserted, fmt.Errorf("postgres: insert records: %w", err)
	}
	return inserted, nil
}

const selectRecords = `SELECT c.game_id, c.period, c.performance, c.position, c.is_debut, c.movement,
		c.release_id, c.is_competitor, c.competitor_id,
		COALESCE(r.name, c.competitor_name) AS name,
		COALESCE(r.artist, c.competitor_artist) AS artist
	FROM chart_records c
	LEFT JOIN releases r ON r.game_id = c.game_id AND r.id = c.release_id`

// ItemHistory returns every record of one release.
func (s *Store) ItemHistory(ctx context.Context, tx chart.Tx, gameID, itemID string) ([]chart.Record, error) {
	defer repository.Observe(backend, "item_history", time.Now())
	return s.selectRecords(ctx, tx, selectRecords+` WHERE c.game_id = $1 AND c.release_id = $2`, gameID, itemID)
}

// HistoryForItems returns every record of the given releases in one query.
func (s *Store) HistoryForItems(ctx context.Context, tx chart.Tx, gameID string, itemIDs []string) ([]chart.Record, error) {
	defer repository.Observe(backend, "history_for_items", time.Now())
	if len(itemIDs) == 0 {
		return []chart.Record{}, nil
	}
	return s.selectRecords(ctx, tx, selectRecords+` WHERE c.game_id = $1 AND c.release_id = ANY($2)`, gameID, itemIDs)
}

// PeriodRecords returns every record of one period.
func (s *Store) PeriodRecords(ctx context.Context, tx chart.Tx, gameID string, p period.Key) ([]chart.Record, error) {
	defer repository.Observe(backend, "period_records", time.Now())
	return s.selectRecords(ctx, tx, selectRecords+` WHERE c.game_id = $1 AND c.period = $2`, gameID, p.Time())
}

func (s *Store) selectRecords(ctx context.Context, tx chart.Tx, query string, args ...any) ([]chart.Record, error) {
	q, err := s.conn(tx)
	if err != nil {
		return nil, err
	}
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: select records: %w", err)
	}
	scanned, err := pgx.CollectRows(rows, pgx.RowToStructByName[recordRow])
	if err != nil {
		return nil, fmt.Errorf("postgres: select records: %w", err)
	}
	out := make([]chart.Record, len(scanned))
	for i, r := range scanned {
		out[i] = r.record()
	}
	return out, nil
}
