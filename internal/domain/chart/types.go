// Package chart implements the weekly chart engine: competitor sampling,
// ranking, the charting/exit policy, and the append-only chart history.
package chart

import (
	"github.com/okian/charts/internal/domain/period"
)

// MaxPosition is the last persistable chart position.
const MaxPosition = 100

// Item is one entry competing for a position in a period.
type Item struct {
	ID          string
	Name        string
	Artist      string
	Performance int64
	PlayerOwned bool
	// OwnerID references the persisted entity behind a player item. Empty
	// means the item ID is the owner.
	OwnerID string
}

// Owner returns the identity under which a player item's history is kept.
func (i Item) Owner() string {
	if i.OwnerID != "" {
		return i.OwnerID
	}
	return i.ID
}

// Ranked is an item with its overall position in the combined field.
// Positions beyond MaxPosition are kept so the policy can see how far
// outside the chart an item fell.
type Ranked struct {
	Item
	Position int
}

// Record is one persisted chart row for (game, period, item).
type Record struct {
	GameID      string     `json:"game_id"`
	Period      period.Key `json:"period"`
	Performance int64      `json:"performance"`
	// Position is nil when the item was tracked but did not chart.
	Position *int `json:"position"`
	IsDebut  bool `json:"is_debut"`
	Movement int  `json:"movement"`

	// ItemID is the owning player item; empty for competitor rows.
	ItemID       string `json:"item_id,omitempty"`
	IsCompetitor bool   `json:"is_competitor"`
	CompetitorID string `json:"competitor_id,omitempty"`

	// Name and Artist are denormalized on competitor rows. Stores may fill
	// them from the owning entity when reading player rows.
	Name   string `json:"name"`
	Artist string `json:"artist"`
}

// Charting reports whether the record holds a visible position.
func (r Record) Charting() bool { return r.Position != nil }

// Identity returns the item or competitor id the record belongs to.
func (r Record) Identity() string {
	if r.IsCompetitor {
		return r.CompetitorID
	}
	return r.ItemID
}

// Stats are the derived chart values for one item.
type Stats struct {
	ItemID string `json:"item_id,omitempty"`
	// History is ordered most recent period first.
	History         []Record `json:"history"`
	CurrentPosition *int     `json:"current_position"`
	Movement        int      `json:"movement"`
	WeeksCharted    int      `json:"weeks_charted"`
	PeakPosition    *int     `json:"peak_position"`
	IsDebut         bool     `json:"is_debut"`
}

// Entry is one line of a rendered chart view.
type Entry struct {
	Position     *int   `json:"position"`
	ItemID       string `json:"item_id,omitempty"`
	CompetitorID string `json:"competitor_id,omitempty"`
	IsCompetitor bool   `json:"is_competitor"`
	Name         string `json:"name"`
	Artist       string `json:"artist"`
	Performance  int64  `json:"performance"`
	Movement     int    `json:"movement"`
	IsDebut      bool   `json:"is_debut"`
}

func intPtr(v int) *int { return &v }
