// SPDX-FileCopyrightText: 2026 The pathwatch authors
//
// SPDX-License-Identifier: Apache-2.0

// Package api exposes the diagnostic capabilities over HTTP: one-shot runs,
// continuous session management, statistics, the result schema and the
// prometheus metrics endpoint.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pathwatch/pathwatch/internal/logger"
	"github.com/pathwatch/pathwatch/pkg/diagnostic"
)

const (
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

var _ API = (*api)(nil)

// API is the HTTP surface of pathwatch.
type API interface {
	// Run serves the api until the context is canceled or Shutdown is called.
	Run(ctx context.Context) error
	// Shutdown gracefully stops the api server.
	Shutdown(ctx context.Context) error
}

type api struct {
	server   *http.Server
	config   Config
	runner   *diagnostic.Runner
	sessions *diagnostic.SessionManager
	registry *prometheus.Registry

	// base is the long-lived context sessions started over the api run in.
	// A session must outlive the request that created it.
	base context.Context
}

// New creates a new api serving the given runner and session manager.
func New(cfg Config, runner *diagnostic.Runner, sessions *diagnostic.SessionManager, registry *prometheus.Registry) API {
	return &api{
		config:   cfg,
		runner:   runner,
		sessions: sessions,
		registry: registry,
	}
}

// Run serves the http api. It blocks until the context is canceled or the
// server fails.
func (a *api) Run(ctx context.Context) error {
	ctx, cancel := logger.NewContextWithLogger(ctx)
	defer cancel()
	log := logger.FromContext(ctx)
	a.base = ctx

	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(logger.Middleware(ctx))
	a.routes(router)

	a.server = &http.Server{
		Addr:              a.config.address(),
		Handler:           router,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	cErr := make(chan error, 1)
	go func() {
		cErr <- a.server.ListenAndServe()
	}()

	log.InfoContext(ctx, "Serving API", "address", a.server.Addr)
	select {
	case <-ctx.Done():
		return a.Shutdown(ctx)
	case err := <-cErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("api server failed: %w", err)
	}
}

// Shutdown gracefully stops the api server.
func (a *api) Shutdown(ctx context.Context) error {
	if a.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := a.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown api server: %w", err)
	}
	return nil
}

func (a *api) routes(router chi.Router) {
	router.Get("/healthz", a.handleHealth)
	router.Handle("/metrics", promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}))

	router.Route("/v1", func(r chi.Router) {
		r.Post("/runs", a.handleRun)
		r.Get("/schema", a.handleSchema)
		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", a.handleSessionStart)
			r.Get("/", a.handleSessionList)
			r.Delete("/{id}", a.handleSessionStop)
			r.Get("/{id}/stats", a.handleSessionStats)
		})
	})
}

func (a *api) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleRun performs one synchronous diagnostic run. Diagnostic failures are
// part of the result body, not http errors; only an undecodable request is
// rejected.
func (a *api) handleRun(w http.ResponseWriter, r *http.Request) {
	var cfg diagnostic.Config
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("failed to decode run config: %w", err))
		return
	}

	res := a.runner.RunOnce(r.Context(), cfg, nil)
	writeJSON(w, http.StatusOK, res)
}

func (a *api) handleSessionStart(w http.ResponseWriter, r *http.Request) {
	var cfg diagnostic.Config
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("failed to decode session config: %w", err))
		return
	}

	id, err := a.sessions.Start(a.base, cfg, nil)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (a *api) handleSessionList(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, a.sessions.ActiveSessions())
}

// handleSessionStop stops a session. Stopping is idempotent, so an unknown
// id still answers 204.
func (a *api) handleSessionStop(w http.ResponseWriter, r *http.Request) {
	if err := a.sessions.Stop(chi.URLParam(r, "id")); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *api) handleSessionStats(w http.ResponseWriter, r *http.Request) {
	stats, err := a.sessions.SessionStatistics(chi.URLParam(r, "id"))
	if err != nil {
		var nf diagnostic.ErrSessionNotFound
		if errors.As(err, &nf) {
			writeError(w, http.StatusNotFound, err)
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (a *api) handleSchema(w http.ResponseWriter, r *http.Request) {
	ref, err := diagnostic.Schema()
	if err != nil {
		logger.FromContext(r.Context()).ErrorContext(r.Context(), "Failed to generate schema", "error", err)
		writeError(w, http.StatusInternalServerError, ErrCreateOpenapiSchema{err: err})
		return
	}
	writeJSON(w, http.StatusOK, ref)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// The status line is already written, an encode failure can only be logged
	// by the middleware above.
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
