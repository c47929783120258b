// Package api serves a canvas log over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const shutdownTimeout = 5 * time.Second

// Router returns the HTTP handler with all routes configured
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Prometheus metrics endpoint (unprotected for scraping)
	gatherer := s.config.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.metrics.InstrumentHandler("GET", "/api/v1/health", s.handleHealth))
		r.Get("/records", s.metrics.InstrumentHandler("GET", "/api/v1/records", s.handleListRecords))
		r.Get("/identities/{index}", s.metrics.InstrumentHandler("GET", "/api/v1/identities/{index}", s.handleGetIdentity))

		// Writes need the API key
		r.Group(func(r chi.Router) {
			r.Use(apiKeyMiddleware(s.config.APIKey))
			r.Post("/placements", s.metrics.InstrumentHandler("POST", "/api/v1/placements", s.handleAppendPlacement))
			r.Post("/identities", s.metrics.InstrumentHandler("POST", "/api/v1/identities", s.handleRegisterIdentity))
		})
	})

	return r
}

// StartServer serves s until ctx is cancelled, then shuts down gracefully
func StartServer(ctx context.Context, s *Server) error {
	return serve(ctx, s, shutdownTimeout)
}

func serve(ctx context.Context, s *Server, timeout time.Duration) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.config.Bind, s.config.Port),
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	s.logger.Info("starting canvaslog API server",
		zap.String("addr", srv.Addr),
		zap.String("log", s.config.LogPath),
	)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		s.logger.Info("shutting down API server")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	}
}
