// Package server exposes the order-flow and whale-wall operations over HTTP.
package server

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"orderflow-lab/internal/domain"
	"orderflow-lab/internal/ingest"
	"orderflow-lab/internal/observability"
	"orderflow-lab/internal/storage"
	"orderflow-lab/internal/walls"
)

// SummaryCache is the read-through cache surface the server needs.
// A nil cache disables caching entirely.
type SummaryCache interface {
	Get(ctx context.Context, symbol string, windowSeconds int) (*domain.OrderFlowSummary, error)
	Set(ctx context.Context, summary *domain.OrderFlowSummary) error
}

// Options configures the HTTP server.
type Options struct {
	TradeSource ingest.TradeSource
	Recorder    *walls.Recorder

	// Snapshots serves the history endpoint; nil disables it.
	Snapshots storage.FlowSnapshotStore
	// Cache short-circuits summary recomputation; nil disables it.
	Cache SummaryCache

	// RequestTimeout bounds each request, upstream fetch included.
	RequestTimeout time.Duration

	Logger *log.Logger
}

// Server holds the handler dependencies.
type Server struct {
	source    ingest.TradeSource
	recorder  *walls.Recorder
	snapshots storage.FlowSnapshotStore
	cache     SummaryCache
	timeout   time.Duration
	logger    *log.Logger
}

// New creates a Server from options.
func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	timeout := opts.RequestTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	return &Server{
		source:    opts.TradeSource,
		recorder:  opts.Recorder,
		snapshots: opts.Snapshots,
		cache:     opts.Cache,
		timeout:   timeout,
		logger:    logger,
	}
}

// Routes builds the HTTP handler tree.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(requestLogger(s.logger))
	r.Use(requestTimeout(s.timeout))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Handle("/metrics", observability.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/orderflow", s.handleOrderFlow)
		r.Get("/orderflow/history", s.handleFlowHistory)
		r.Post("/whale-walls", s.handleRecordWall)
		r.Get("/whale-walls", s.handleListWalls)
		r.Delete("/whale-walls", s.handleClearWalls)
	})

	return r
}
