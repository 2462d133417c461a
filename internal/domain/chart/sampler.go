package chart

import (
	"encoding/binary"
	"hash/fnv"
	"math"
	"math/rand"

	"github.com/okian/charts/internal/domain/competitor"
	"github.com/okian/charts/internal/domain/period"
)

// Sampler draws this period's competitor performance from the catalog.
type Sampler struct {
	catalog  *competitor.Catalog
	min, max float64
}

// NewSampler returns a sampler over catalog using the variance range in
// params. Unset or inverted ranges fall back to the defaults.
func NewSampler(catalog *competitor.Catalog, params Params) *Sampler {
	p := params.WithDefaults()
	return &Sampler{catalog: catalog, min: p.VarianceMin, max: p.VarianceMax}
}

// Sample returns one competitor item per catalog entry, in catalog order.
// The result depends only on seed, the range and the catalog.
func (s *Sampler) Sample(seed int64) []Item {
	if s.catalog == nil {
		return nil
	}
	entries := s.catalog.Entries()
	rng := rand.New(rand.NewSource(seed)) //nolint:gosec // simulation, not crypto
	span := s.max - s.min

	items := make([]Item, 0, len(entries))
	for _, e := range entries {
		multiplier := s.min + rng.Float64()*span
		items = append(items, Item{
			ID:          e.ID,
			Name:        e.Name,
			Artist:      e.Artist,
			Performance: int64(math.Round(float64(e.Popularity) * multiplier)),
		})
	}
	return items
}

// PeriodSeed scopes a base seed to one (game, period) pair so every period
// draws its own reproducible stream.
func PeriodSeed(gameID string, p period.Key, base int64) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(gameID))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(p))
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(base))
	_, _ = h.Write(buf[:])
	return int64(h.Sum64() & math.MaxInt64)
}
