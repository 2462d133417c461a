package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/okian/charts/internal/domain/chart"
	"github.com/okian/charts/internal/domain/period"
)

// chartResponse is one rendered chart view.
type chartResponse struct {
	GameID  string        `json:"game_id"`
	Period  period.Key    `json:"period"`
	Entries []chart.Entry `json:"entries"`
}

// ChartHandler serves period chart views.
type ChartHandler struct {
	deps Dependencies
}

// NewChartHandler creates a new chart handler.
func NewChartHandler(deps Dependencies) *ChartHandler {
	return &ChartHandler{deps: deps}
}

// HandleGetChart handles GET /api/v1/games/{gameID}/charts/{period}?limit=N.
func (h *ChartHandler) HandleGetChart(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, "api.get_chart", h.deps.TopN)
}

// HandleGetBubbling handles GET /api/v1/games/{gameID}/charts/{period}/bubbling?limit=N.
func (h *ChartHandler) HandleGetBubbling(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, "api.get_bubbling", h.deps.BubblingUnder)
}

type chartView func(ctx context.Context, tx chart.Tx, gameID string, p period.Key, n int) ([]chart.Entry, error)

func (h *ChartHandler) serve(w http.ResponseWriter, r *http.Request, op string, view chartView) {
	gameID := chi.URLParam(r, "gameID")
	p, err := period.Parse(chi.URLParam(r, "period"))
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	n, err := parseLimit(r)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}

	entries, err := view(r.Context(), nil, gameID, p, n)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	if entries == nil {
		entries = []chart.Entry{}
	}
	writeJSON(w, http.StatusOK, chartResponse{GameID: gameID, Period: p, Entries: entries})
}

// parseLimit reads ?limit, defaulting to a full chart.
func parseLimit(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return chart.MaxPosition, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, chart.ErrInvalidLimit
	}
	return n, nil
}
