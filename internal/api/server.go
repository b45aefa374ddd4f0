package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/amaumene/cinearchive/internal/api/handlers"
	"github.com/amaumene/cinearchive/internal/api/middleware"
	"github.com/amaumene/cinearchive/internal/collection"
	"github.com/amaumene/cinearchive/internal/config"
	"github.com/amaumene/cinearchive/internal/metrics"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// Server represents the HTTP server
type Server struct {
	server   *http.Server
	store    *collection.Store
	enricher handlers.Enricher
	metrics  *metrics.Metrics
	logger   *logrus.Logger
}

// NewServer creates a new HTTP server
func NewServer(cfg *config.Config, store *collection.Store, enricher handlers.Enricher, m *metrics.Metrics, logger *logrus.Logger) *Server {
	s := &Server{
		store:    store,
		enricher: enricher,
		metrics:  m,
		logger:   logger,
	}

	s.server = &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      s.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 2*time.Duration(cfg.GeminiTimeoutSeconds)*time.Second + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Router configures all HTTP routes
func (s *Server) Router() http.Handler {
	router := mux.NewRouter()
	router.Use(middleware.Logging(s.logger))

	healthHandler := handlers.NewHealthHandler(s.logger)
	router.Handle("/health", healthHandler).Methods(http.MethodGet)

	statusHandler := handlers.NewStatusHandler(s.store, s.logger)
	router.Handle("/status", statusHandler).Methods(http.MethodGet)

	router.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)

	records := handlers.NewRecordsHandler(s.store, s.enricher, s.logger)
	recordsRouter := router.PathPrefix("/api/records").Subrouter()
	recordsRouter.HandleFunc("", records.List).Methods(http.MethodGet)
	recordsRouter.HandleFunc("", records.Create).Methods(http.MethodPost)
	recordsRouter.HandleFunc("/{id}/progress", records.Progress).Methods(http.MethodPut)
	recordsRouter.HandleFunc("/{id}/favorite", records.Favorite).Methods(http.MethodPost)
	recordsRouter.HandleFunc("/{id}", records.Delete).Methods(http.MethodDelete)

	return router
}

// Start starts the HTTP server
func (s *Server) Start(ctx context.Context) error {
	s.logger.WithField("port", s.server.Addr).Info("Starting HTTP server")

	errChan := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		return s.Shutdown(context.Background())
	}
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return s.server.Shutdown(shutdownCtx)
}
