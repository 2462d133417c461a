package sqlite

import (
	"database/sql"
	"fmt"

	"github.com/okian/charts/internal/domain/chart"
	"github.com/okian/charts/internal/domain/period"
)

type recordRow struct {
	GameID       string         `db:"game_id"`
	Period       string         `db:"period"`
	Performance  int64          `db:"performance"`
	Position     sql.NullInt64  `db:"position"`
	IsDebut      bool           `db:"is_debut"`
	Movement     int            `db:"movement"`
	ReleaseID    sql.NullString `db:"release_id"`
	IsCompetitor bool           `db:"is_competitor"`
	CompetitorID sql.NullString `db:"competitor_id"`
	Name         sql.NullString `db:"name"`
	Artist       sql.NullString `db:"artist"`
}

func toRow(r chart.Record) recordRow {
	row := recordRow{
		GameID:       r.GameID,
		Period:       r.Period.String(),
		Performance:  r.Performance,
		IsDebut:      r.IsDebut,
		Movement:     r.Movement,
		IsCompetitor: r.IsCompetitor,
	}
	if r.Position != nil {
		row.Position = sql.NullInt64{Int64: int64(*r.Position), Valid: true}
	}
	if r.IsCompetitor {
		row.CompetitorID = sql.NullString{String: r.CompetitorID, Valid: true}
		row.Name = sql.NullString{String: r.Name, Valid: true}
		row.Artist = sql.NullString{String: r.Artist, Valid: true}
	} else {
		row.ReleaseID = sql.NullString{String: r.ItemID, Valid: true}
	}
	return row
}

func (r recordRow) record() (chart.Record, error) {
	p, err := period.Parse(r.Period)
	if err != nil {
		return chart.Record{}, fmt.Errorf("sqlite: stored period %q: %w", r.Period, err)
	}
	rec := chart.Record{
		GameID:       r.GameID,
		Period:       p,
		Performance:  r.Performance,
		IsDebut:      r.IsDebut,
		Movement:     r.Movement,
		ItemID:       r.ReleaseID.String,
		IsCompetitor: r.IsCompetitor,
		CompetitorID: r.CompetitorID.String,
		Name:         r.Name.String,
		Artist:       r.Artist.String,
	}
	if r.Position.Valid {
		pos := int(r.Position.Int64)
		rec.Position = &pos
	}
	return rec, nil
}
