package chart

import (
	"sort"

	"github.com/okian/charts/internal/domain/period"
)

// SortRecent orders records most recent period first, in place. Records of
// the same period keep a stable order by identity.
func SortRecent(records []Record) {
	sort.SliceStable(records, func(i, j int) bool {
		if records[i].Period != records[j].Period {
			return records[j].Period.Before(records[i].Period)
		}
		return records[i].Identity() < records[j].Identity()
	})
}

// WeeksCharted counts records strictly before p that hold a position.
func WeeksCharted(history []Record, p period.Key) int {
	n := 0
	for _, r := range history {
		if r.Period.Before(p) && r.Charting() {
			n++
		}
	}
	return n
}

// PriorPosition scans a most-recent-first history for the latest record
// strictly before p that held a position.
func PriorPosition(recent []Record, p period.Key) *int {
	for _, r := range recent {
		if !r.Period.Before(p) {
			continue
		}
		if r.Charting() {
			return intPtr(*r.Position)
		}
	}
	return nil
}

// Movement is prior minus current; 0 when either side is missing.
func Movement(prior, current *int) int {
	if prior == nil || current == nil {
		return 0
	}
	return *prior - *current
}

// hasChartedBefore reports whether any record strictly before p charted.
func hasChartedBefore(history []Record, p period.Key) bool {
	for _, r := range history {
		if r.Period.Before(p) && r.Charting() {
			return true
		}
	}
	return false
}

// Summarize derives read-side stats from an item's full history. Movement
// and debut are read as stored on the most recent record.
func Summarize(itemID string, history []Record) Stats {
	recent := make([]Record, len(history))
	copy(recent, history)
	SortRecent(recent)

	st := Stats{ItemID: itemID, History: recent}
	if len(recent) == 0 {
		return st
	}

	latest := recent[0]
	if latest.Position != nil {
		st.CurrentPosition = intPtr(*latest.Position)
	}
	st.Movement = latest.Movement
	st.IsDebut = latest.IsDebut

	for _, r := range recent {
		if !r.Charting() {
			continue
		}
		st.WeeksCharted++
		if st.PeakPosition == nil || *r.Position < *st.PeakPosition {
			st.PeakPosition = intPtr(*r.Position)
		}
	}
	return st
}
