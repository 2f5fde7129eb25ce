package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mohammed-shakir/listing-map/internal/core/config"
	"github.com/mohammed-shakir/listing-map/internal/core/health"
	middleware "github.com/mohammed-shakir/listing-map/internal/core/middleware"
	"github.com/mohammed-shakir/listing-map/internal/core/router"
)

type Options struct {
	Routes   router.Deps
	Backend  health.Pinger
	Consumer health.ReadinessReporter
}

// NewHandler assembles middleware, probes and the /v1 API.
func NewHandler(cfg config.Config, logger *slog.Logger, opts Options) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recover())
	r.Use(chimw.RealIP)
	r.Use(middleware.Logging(logger))
	r.Use(middleware.CORS())
	r.Use(middleware.Metrics())

	r.Get("/healthz", health.Liveness())
	r.Get("/readyz", health.Readiness(opts.Backend, opts.Consumer, cfg.RepoTimeout))
	if cfg.Metrics.Enabled && cfg.Metrics.Addr == "" {
		r.Handle(cfg.Metrics.Path, promhttp.Handler())
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.RateLimit(cfg.RateLimitRPM))
		if opts.Routes.Logger == nil {
			opts.Routes.Logger = logger
		}
		if opts.Routes.Timeout == 0 {
			opts.Routes.Timeout = cfg.RepoTimeout
		}
		router.Register(r, opts.Routes)
	})
	return r
}

// sets up http and starts serving
func Run(ctx context.Context, cfg config.Config, logger *slog.Logger, handler http.Handler) error {
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http listen", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return nil
	case err := <-errCh:
		return err
	}
}
