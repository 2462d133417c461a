package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

const maxBatchItems = 500

type batchRequest struct {
	ItemIDs []string `json:"item_ids"`
}

// ItemHandler serves per-item chart stats.
type ItemHandler struct {
	deps Dependencies
}

// NewItemHandler creates a new item handler.
func NewItemHandler(deps Dependencies) *ItemHandler {
	return &ItemHandler{deps: deps}
}

// HandleGetItem handles GET /api/v1/games/{gameID}/items/{itemID}/chart.
// Stats degrade to zero values rather than failing.
func (h *ItemHandler) HandleGetItem(w http.ResponseWriter, r *http.Request) {
	gameID := chi.URLParam(r, "gameID")
	itemID := chi.URLParam(r, "itemID")
	writeJSON(w, http.StatusOK, h.deps.ItemChart(r.Context(), nil, gameID, itemID))
}

// HandlePostBatch handles POST /api/v1/games/{gameID}/items/chart.
func (h *ItemHandler) HandlePostBatch(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_item_batch"
	gameID := chi.URLParam(r, "gameID")

	var req batchRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeFailure(w, badRequest(op, "invalid json: %v", err))
		return
	}
	if len(req.ItemIDs) > maxBatchItems {
		writeFailure(w, badRequest(op, "at most %d item_ids per request", maxBatchItems))
		return
	}
	writeJSON(w, http.StatusOK, h.deps.BatchChart(r.Context(), nil, gameID, req.ItemIDs))
}
