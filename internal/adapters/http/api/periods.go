package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	service "github.com/okian/charts/internal/app"
	"github.com/okian/charts/internal/domain/chart"
	"github.com/okian/charts/internal/domain/period"
)

const maxBodyBytes = 1 << 20

// periodRequest is the body of POST /api/v1/games/{gameID}/periods. Exactly
// one of Period and Turn is set.
type periodRequest struct {
	Period string `json:"period"`
	Turn   *int   `json:"turn"`
	Seed   int64  `json:"seed"`
}

func (p periodRequest) validate() error {
	const op = "api.period_request"
	hasPeriod := strings.TrimSpace(p.Period) != ""
	switch {
	case hasPeriod && p.Turn != nil:
		return badRequest(op, "set either period or turn, not both")
	case !hasPeriod && p.Turn == nil:
		return badRequest(op, "missing period or turn")
	}
	return nil
}

// PeriodHandler runs the period write path.
type PeriodHandler struct {
	deps Dependencies
}

// NewPeriodHandler creates a new period handler.
func NewPeriodHandler(deps Dependencies) *PeriodHandler {
	return &PeriodHandler{deps: deps}
}

// HandlePostPeriod handles POST /api/v1/games/{gameID}/periods. The whole
// period runs in one store transaction.
func (h *PeriodHandler) HandlePostPeriod(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_period"
	gameID := chi.URLParam(r, "gameID")

	var req periodRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeFailure(w, badRequest(op, "invalid json: %v", err))
		return
	}
	if err := req.validate(); err != nil {
		writeFailure(w, err)
		return
	}

	var p period.Key
	if req.Turn == nil {
		parsed, err := period.Parse(req.Period)
		if err != nil {
			writeFailure(w, Wrap(op, err))
			return
		}
		p = parsed
	}

	ctx := r.Context()
	var res service.PeriodResult
	err := h.deps.WithTx(ctx, func(tx chart.Tx) error {
		var err error
		if req.Turn != nil {
			res, err = h.deps.ProcessTurn(ctx, tx, gameID, *req.Turn, req.Seed)
		} else {
			res, err = h.deps.ProcessPeriod(ctx, tx, gameID, p, req.Seed)
		}
		return err
	})
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, res)
}
