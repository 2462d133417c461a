// Package period defines chart period keys.
//
// A period is one calendar month. Keys are always normalized to the first day
// of the containing month, read in the time's own location, and rendered as "2006-01-02" so they sort
// lexically in chronological order.
package period

import (
	"fmt"
	"strings"
	"time"
)

// Layout is the canonical string form of a Key.
const Layout = "2006-01-02"

// PeriodsPerYear is the fixed number of periods in a simulated year.
const PeriodsPerYear = 12

// accepted input layouts, tried in order.
var layouts = []string{ //nolint:gochecknoglobals // read-only parse table
	Layout,
	"2006-01",
	time.RFC3339,
	time.RFC3339Nano,
}

// Key identifies a chart period.
type Key string

// FromTime normalizes t to the first day of its month in t's location.
func FromTime(t time.Time) Key {
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	return Key(first.Format(Layout))
}

// Parse accepts a date, a year-month or an RFC3339 timestamp and returns the
// normalized key for the containing month.
func Parse(s string) (Key, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("parse period: %w", ErrInvalidPeriod)
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return FromTime(t), nil
		}
	}
	return "", fmt.Errorf("parse period %q: %w", s, ErrInvalidPeriod)
}

// MustParse is Parse for literals known to be valid. It panics otherwise.
func MustParse(s string) Key {
	k, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return k
}

// FromTurn converts a 1-based simulated turn into a period key, where turn 1
// is January of startYear.
func FromTurn(turn, startYear int) (Key, error) {
	if turn < 1 {
		return "", fmt.Errorf("turn %d: %w", turn, ErrInvalidTurn)
	}
	idx := turn - 1
	year := startYear + idx/PeriodsPerYear
	month := time.Month(idx%PeriodsPerYear + 1)
	return FromTime(time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)), nil
}

// Time returns the first instant of the period.
func (k Key) Time() time.Time {
	t, err := time.Parse(Layout, string(k))
	if err != nil {
		return time.Time{}
	}
	return t
}

// String implements fmt.Stringer.
func (k Key) String() string { return string(k) }

// Before reports whether k is strictly earlier than other.
func (k Key) Before(other Key) bool { return k < other }

// Next returns the following period.
func (k Key) Next() Key { return FromTime(k.Time().AddDate(0, 1, 0)) }

// Prev returns the preceding period.
func (k Key) Prev() Key { return FromTime(k.Time().AddDate(0, -1, 0)) }
