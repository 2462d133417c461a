// Package sqlite provides a SQLite-backed chart store.
package sqlite

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/okian/charts/internal/adapters/repository"
	"github.com/okian/charts/internal/domain/chart"
	"github.com/okian/charts/internal/domain/period"
)

const (
	backend = "sqlite"
	// insertChunk bounds rows per INSERT statement; 11 params each.
	insertChunk = 200
)

// Store persists releases and chart records in SQLite.
type Store struct {
	db *sqlx.DB
}

var _ repository.Store = (*Store)(nil)

// Open opens or creates a SQLite database at path and applies the schema.
func Open(path string) (*Store, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// One writer keeps SQLITE_BUSY out of concurrent period runs.
	conn.SetMaxOpenConns(1)

	s := &Store{db: conn}
	if err := s.migrate(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS releases (
		game_id TEXT NOT NULL,
		id TEXT NOT NULL,
		name TEXT NOT NULL,
		artist TEXT NOT NULL,
		performance INTEGER NOT NULL DEFAULT 0,
		active INTEGER NOT NULL DEFAULT 1,
		PRIMARY KEY (game_id, id)
	);

	CREATE TABLE IF NOT EXISTS chart_records (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		game_id TEXT NOT NULL,
		period TEXT NOT NULL,
		performance INTEGER NOT NULL,
		position INTEGER CHECK (position IS NULL OR position BETWEEN 1 AND 100),
		is_debut INTEGER NOT NULL DEFAULT 0,
		movement INTEGER NOT NULL DEFAULT 0,
		release_id TEXT,
		is_competitor INTEGER NOT NULL DEFAULT 0,
		competitor_id TEXT,
		competitor_name TEXT,
		competitor_artist TEXT
	);

	CREATE UNIQUE INDEX IF NOT EXISTS ux_chart_records_release
		ON chart_records(game_id, period, release_id) WHERE release_id IS NOT NULL;
	CREATE UNIQUE INDEX IF NOT EXISTS ux_chart_records_competitor
		ON chart_records(game_id, period, competitor_id) WHERE is_competitor = 1;
	CREATE INDEX IF NOT EXISTS idx_chart_records_period ON chart_records(game_id, period);
	CREATE INDEX IF NOT EXISTS idx_chart_records_release ON chart_records(game_id, release_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// ext resolves the handle to run against: the ambient transaction when one
// is given, the pool otherwise.
func (s *Store) ext(tx chart.Tx) (sqlx.ExtContext, error) {
	switch t := tx.(type) {
	case nil:
		return s.db, nil
	case *sqlx.Tx:
		return t, nil
	default:
		return nil, fmt.Errorf("sqlite: %w: %T", repository.ErrUnsupportedTx, tx)
	}
}

// WithTx runs fn inside one transaction.
func (s *Store) WithTx(ctx context.Context, fn func(tx chart.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit: %w", err)
	}
	return nil
}

// UpsertRelease inserts or replaces a release.
func (s *Store) UpsertRelease(ctx context.Context, tx chart.Tx, r repository.Release) error {
	defer repository.Observe(backend, "upsert_release", time.Now())
	if err := r.Validate(); err != nil {
		return err
	}
	q, err := s.ext(tx)
	if err != nil {
		return err
	}
	_, err = q.ExecContext(ctx, `INSERT INTO releases (game_id, id, name, artist, performance, active)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(game_id, id) DO UPDATE SET
			name = excluded.name,
			artist = excluded.artist,
			performance = excluded.performance,
			active = excluded.active`,
		r.GameID, r.ID, r.Name, r.Artist, r.Performance, r.Active)
	if err != nil {
		return fmt.Errorf("sqlite: upsert release: %w", err)
	}
	return nil
}

// EligibleItems returns the active releases of a game ordered by id.
func (s *Store) EligibleItems(ctx context.Context, tx chart.Tx, gameID string) ([]chart.Item, error) {
	defer repository.Observe(backend, "eligible_items", time.Now())
	q, err := s.ext(tx)
	if err != nil {
		return nil, err
	}
	var rows []repository.Release
	err = sqlx.SelectContext(ctx, q, &rows,
		`SELECT game_id, id, name, artist, performance, active FROM releases
		WHERE game_id = ? AND active = 1 ORDER BY id`, gameID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: eligible items: %w", err)
	}
	items := make([]chart.Item, len(rows))
	for i, r := range rows {
		items[i] = r.Item()
	}
	return items, nil
}

// InsertRecords writes records with INSERT OR IGNORE so rows colliding with
// the unique indexes are skipped. Without an ambient transaction the batch
// runs in its own.
func (s *Store) InsertRecords(ctx context.Context, tx chart.Tx, records []chart.Record) (int, error) {
	defer repository.Observe(backend, "insert_records", time.Now())
	if len(records) == 0 {
		return 0, nil
	}
	if tx == nil {
		inserted := 0
		err := s.WithTx(ctx, func(own chart.Tx) error {
			n, err := insertRecords(ctx, own.(*sqlx.Tx), records)
			inserted = n
			return err
		})
		return inserted, err
	}
	q, err := s.ext(tx)
	if err != nil {
		return 0, err
	}
	return insertRecords(ctx, q, records)
}

func insertRecords(ctx context.Context, q sqlx.ExecerContext, records []chart.Record) (int, error) {
	inserted := 0
	for start := 0; start < len(records); start += insertChunk {
		end := min(start+insertChunk, len(records))
		n, err := insertChunkRows(ctx, q, records[start:end])
		if err != nil {
			return inserted, fmt.Errorf("sqlite: insert records: %w", err)
		}
		inserted += n
	}
	return inserted, nil
}

func insertChunkRows(ctx context.Context, q sqlx.ExecerContext, records []chart.Record) (int, error) {
	var b strings.Builder
	b.WriteString(`INSERT OR IGNORE INTO chart_records
		(game_id, period, performance, position, is_debut, movement,
		 release_id, is_competitor, competitor_id, competitor_name, competitor_artist) VALUES `)
	args := make([]any, 0, len(records)*11)
	for i, r := range records {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString("(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
		row := toRow(r)
		args = append(args, row.GameID, row.Period, row.Performance, row.Position, row.IsDebut,
			row.Movement, row.ReleaseID, row.IsCompetitor, row.CompetitorID, row.Name, row.Artist)
	}
	res, err := q.ExecContext(ctx, b.String(), args...)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
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
	return s.selectRecords(ctx, tx, selectRecords+` WHERE c.game_id = ? AND c.release_id = ?`, gameID, itemID)
}

// HistoryForItems returns every record of the given releases in one query.
func (s *Store) HistoryForItems(ctx context.Context, tx chart.Tx, gameID string, itemIDs []string) ([]chart.Record, error) {
	defer repository.Observe(backend, "history_for_items", time.Now())
	if len(itemIDs) == 0 {
		return []chart.Record{}, nil
	}
	query, args, err := sqlx.In(selectRecords+` WHERE c.game_id = ? AND c.release_id IN (?)`, gameID, itemIDs)
	if err != nil {
		return nil, fmt.Errorf("sqlite: history for items: %w", err)
	}
	return s.selectRecords(ctx, tx, query, args...)
}

// PeriodRecords returns every record of one period.
func (s *Store) PeriodRecords(ctx context.Context, tx chart.Tx, gameID string, p period.Key) ([]chart.Record, error) {
	defer repository.Observe(backend, "period_records", time.Now())
	return s.selectRecords(ctx, tx, selectRecords+` WHERE c.game_id = ? AND c.period = ?`, gameID, p.String())
}

func (s *Store) selectRecords(ctx context.Context, tx chart.Tx, query string, args ...any) ([]chart.Record, error) {
	q, err := s.ext(tx)
	if err != nil {
		return nil, err
	}
	var rows []recordRow
	if err := sqlx.SelectContext(ctx, q, &rows, q.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("sqlite: select records: %w", err)
	}
	out := make([]chart.Record, 0, len(rows))
	for _, r := range rows {
		rec, err := r.record()
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}
