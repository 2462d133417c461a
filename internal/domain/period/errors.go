package period

import "errors"

// Sentinel kinds for period errors.
var (
	ErrInvalidPeriod = errors.New("invalid period")
	ErrInvalidTurn   = errors.New("invalid turn")
)
