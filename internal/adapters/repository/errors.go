package repository

import "errors"

// Sentinel kinds for storage errors.
var (
	ErrUnsupportedTx  = errors.New("unsupported transaction handle")
	ErrInvalidRelease = errors.New("invalid release")
)
