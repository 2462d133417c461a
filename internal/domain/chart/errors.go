package chart

import "errors"

// Sentinel kinds for chart errors.
var (
	ErrInvalidLimit = errors.New("invalid chart limit")
	ErrMissingGame  = errors.New("missing game id")
	ErrNoStore      = errors.New("chart store not configured")
)
