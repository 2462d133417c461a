package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/okian/charts/internal/adapters/repository"
	service "github.com/okian/charts/internal/app"
	"github.com/okian/charts/internal/domain/chart"
	"github.com/okian/charts/internal/domain/period"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest  = errors.New("bad request")
	ErrRateLimited = errors.New("too many requests")
)

// Wrap annotates err with the handler operation.
func Wrap(op string, err error) error {
	return fmt.Errorf("%s: %w", op, err)
}

// badRequest wraps ErrBadRequest with a detail message.
func badRequest(op, format string, args ...any) error {
	return fmt.Errorf("%s: %w: %s", op, ErrBadRequest, fmt.Sprintf(format, args...))
}

// classify maps an error onto an HTTP status and response code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, chart.ErrInvalidLimit),
		errors.Is(err, chart.ErrMissingGame),
		errors.Is(err, period.ErrInvalidPeriod),
		errors.Is(err, period.ErrInvalidTurn),
		errors.Is(err, repository.ErrInvalidRelease):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, service.ErrNotStarted):
		return http.StatusServiceUnavailable, "unavailable"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
