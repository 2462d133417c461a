package postgres

import (
	"time"

	"github.com/okian/charts/internal/domain/chart"
	"github.com/okian/charts/internal/domain/period"
)

type recordRow struct {
	GameID       string    `db:"game_id"`
	Period       time.Time `db:"period"`
	Performance  int64     `db:"performance"`
	Position     *int32    `db:"position"`
	IsDebut      bool      `db:"is_debut"`
	Movement     int32     `db:"movement"`
	ReleaseID    *string   `db:"release_id"`
	IsCompetitor bool      `db:"is_competitor"`
	CompetitorID *string   `db:"competitor_id"`
	Name         *string   `db:"name"`
	Artist       *string   `db:"artist"`
}

func toRow(r chart.Record) recordRow {
	row := recordRow{
		GameID:       r.GameID,
		Period:       r.Period.Time(),
		Performance:  r.Performance,
		IsDebut:      r.IsDebut,
		Movement:     int32(r.Movement), //nolint:gosec // bounded by chart size
		IsCompetitor: r.IsCompetitor,
	}
	if r.Position != nil {
		p := int32(*r.Position) //nolint:gosec // bounded by chart size
		row.Position = &p
	}
	if r.IsCompetitor {
		row.CompetitorID, row.Name, row.Artist = &r.CompetitorID, &r.Name, &r.Artist
	} else {
		row.ReleaseID = &r.ItemID
	}
	return row
}

func (r recordRow) record() chart.Record {
	rec := chart.Record{
		GameID:       r.GameID,
		Period:       period.FromTime(r.Period),
		Performance:  r.Performance,
		IsDebut:      r.IsDebut,
		Movement:     int(r.Movement),
		IsCompetitor: r.IsCompetitor,
		ItemID:       deref(r.ReleaseID),
		CompetitorID: deref(r.CompetitorID),
		Name:         deref(r.Name),
		Artist:       deref(r.Artist),
	}
	if r.Position != nil {
		p := int(*r.Position)
		rec.Position = &p
	}
	return rec
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
