// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	corslib "github.com/rs/cors"

	"github.com/okian/charts/internal/adapters/http/swagger"
	service "github.com/okian/charts/internal/app"
	"github.com/okian/charts/internal/domain/chart"
	"github.com/okian/charts/internal/domain/period"
	"github.com/okian/charts/pkg/logger"
)

// Dependencies required by HTTP handlers. *service.Service satisfies it.
type Dependencies interface {
	WithTx(ctx context.Context, fn func(tx chart.Tx) error) error
	ProcessPeriod(ctx context.Context, tx chart.Tx, gameID string, p period.Key, seed int64) (service.PeriodResult, error)
	ProcessTurn(ctx context.Context, tx chart.Tx, gameID string, turn int, seed int64) (service.PeriodResult, error)

	TopN(ctx context.Context, tx chart.Tx, gameID string, p period.Key, n int) ([]chart.Entry, error)
	BubblingUnder(ctx context.Context, tx chart.Tx, gameID string, p period.Key, n int) ([]chart.Entry, error)
	ItemChart(ctx context.Context, tx chart.Tx, gameID, itemID string) chart.Stats
	BatchChart(ctx context.Context, tx chart.Tx, gameID string, itemIDs []string) map[string]chart.Stats

	StatsProvider
}

// Option configures a Server.
type Option func(*Server)

// WithCORSOrigins sets the allowed CORS origins.
func WithCORSOrigins(origins []string) Option {
	return func(s *Server) {
		if len(origins) > 0 {
			s.corsOrigins = origins
		}
	}
}

// WithRateLimit enables per-IP rate limiting of requests per window.
func WithRateLimit(requests int, window time.Duration) Option {
	return func(s *Server) {
		if requests > 0 && window > 0 {
			s.rateRequests = requests
			s.rateWindow = window
		}
	}
}

// WithLogger sets the request logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// Server wires HTTP routes for the chart API.
type Server struct {
	healthHandler *HealthHandler
	statsHandler  *StatsHandler
	periodHandler *PeriodHandler
	chartHandler  *ChartHandler
	itemHandler   *ItemHandler

	corsOrigins  []string
	rateRequests int
	rateWindow   time.Duration
	logger       logger.Logger
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, opts ...Option) *Server {
	s := &Server{
		healthHandler: NewHealthHandler(),
		statsHandler:  NewStatsHandler(deps),
		periodHandler: NewPeriodHandler(deps),
		chartHandler:  NewChartHandler(deps),
		itemHandler:   NewItemHandler(deps),
		corsOrigins:   []string{"*"},
		logger:        logger.Default().Named("http"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router returns the chi router with middleware and all routes attached.
func (s *Server) Router() *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(RequestLogger(s.logger))
	r.Use(MetricsMiddleware)

	c := corslib.New(corslib.Options{
		AllowedOrigins: s.corsOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id", "Retry-After"},
	})
	r.Use(c.Handler)

	if s.rateRequests > 0 {
		r.Use(RateLimitMiddleware(s.rateRequests, s.rateWindow))
	}

	r.Get("/healthz", s.healthHandler.HandleHealth)
	r.Get("/metrics", s.healthHandler.HandleHealth)
	r.Get("/stats", s.statsHandler.HandleStats)
	swagger.Register(r)

	r.Route("/api/v1/games/{gameID}", func(r chi.Router) {
		r.Post("/periods", s.periodHandler.HandlePostPeriod)
		r.Get("/charts/{period}", s.chartHandler.HandleGetChart)
		r.Get("/charts/{period}/bubbling", s.chartHandler.HandleGetBubbling)
		r.Get("/items/{itemID}/chart", s.itemHandler.HandleGetItem)
		r.Post("/items/chart", s.itemHandler.HandlePostBatch)
	})

	return r
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeFailure maps err onto its status and code.
func writeFailure(w http.ResponseWriter, err error) {
	status, code := classify(err)
	writeError(w, status, code, err)
}
