package chart

import "sort"

// Rank merges competitors and player items and assigns positions over the
// whole field: performance descending, then identifier ascending. Positions
// past MaxPosition are returned as computed.
func Rank(competitors, players []Item) []Ranked {
	all := make([]Item, 0, len(competitors)+len(players))
	all = append(all, competitors...)
	all = append(all, players...)

	sort.Slice(all, func(i, j int) bool { return less(all[i], all[j]) })

	ranked := make([]Ranked, len(all))
	for i, it := range all {
		ranked[i] = Ranked{Item: it, Position: i + 1}
	}
	return ranked
}

// less orders by performance DESC, id ASC.
func less(a, b Item) bool {
	if a.Performance != b.Performance {
		return a.Performance > b.Performance
	}
	return a.ID < b.ID
}
