// Package server exposes the extraction pipeline and the stored sales orders
// over HTTP.
package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/joseph-ayodele/invoice-extractor/internal/export"
	"github.com/joseph-ayodele/invoice-extractor/internal/metrics"
	"github.com/joseph-ayodele/invoice-extractor/internal/repository"
)

// Server carries the handler dependencies.
type Server struct {
	pipeline Runner
	orders   repository.SalesOrders
	exporter *export.Service
	logger   *slog.Logger
}

func New(pipeline Runner, orders repository.SalesOrders, exporter *export.Service, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{pipeline: pipeline, orders: orders, exporter: exporter, logger: logger}
}

// Router builds the chi router with the full route surface.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))
	r.Use(metrics.Middleware())

	r.Get("/healthz", s.handleHealthz)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Post("/upload", s.handleUpload)
	r.Route("/sales_orders", func(r chi.Router) {
		r.Get("/", s.handleListOrders)
		r.Post("/", s.handleCreateOrder)
		r.Get("/{orderID}", s.handleGetOrder)
		r.Put("/{orderID}", s.handleUpdateOrder)
		r.Delete("/{orderID}", s.handleDeleteOrder)
		r.Get("/{orderID}/export", s.handleExportOrder)
	})
	return r
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
