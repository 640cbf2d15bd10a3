// SPDX-FileCopyrightText: 2026 The pathwatch authors
//
// SPDX-License-Identifier: Apache-2.0

// Package service wires the pathwatch components together: the monitor
// loader, the session manager, the http api and the telemetry provider.
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pathwatch/pathwatch/internal/discovery"
	"github.com/pathwatch/pathwatch/internal/logger"
	"github.com/pathwatch/pathwatch/pkg/api"
	"github.com/pathwatch/pathwatch/pkg/config"
	"github.com/pathwatch/pathwatch/pkg/diagnostic"
	"github.com/pathwatch/pathwatch/pkg/monitor"
	"github.com/pathwatch/pathwatch/pkg/service/metrics"
)

const shutdownTimeout = time.Second * 90

// Service is the main struct of the pathwatch application
type Service struct {
	// config is the startup configuration of the service
	config *config.Config
	// runner executes diagnostic runs
	runner *diagnostic.Runner
	// sessions manages the continuous diagnostic sessions
	sessions *diagnostic.SessionManager
	// api is the service's API
	api api.API
	// loader is used to load the monitor configuration
	loader config.Loader
	// metrics is used to collect metrics
	metrics metrics.Provider
	// active maps monitor names to their session ids
	active map[string]activeMonitor
	// cMonitors is used to signal that the monitor configuration has changed
	cMonitors chan monitor.Config
	// cErr is used to handle non-recoverable errors of the service components
	cErr chan error
	// cDone is used to signal that the service was shut down because of an error
	cDone chan struct{}
	// shutOnce is used to ensure that the shutdown function is only called once
	shutOnce sync.Once
}

type activeMonitor struct {
	id     string
	config diagnostic.Config
}

// New creates a new service from a given startup configuration
func New(cfg *config.Config) *Service {
	m := metrics.New(cfg.Telemetry)

	resolver := diagnostic.NewCachingResolver(diagnostic.NewResolver(), 0)
	runner := diagnostic.NewRunner(
		discovery.NewExecutor(),
		diagnostic.NewProcessor(resolver, diagnostic.NewProber()),
	)
	sessions := diagnostic.NewSessionManager(runner)

	s := &Service{
		config:    cfg,
		runner:    runner,
		sessions:  sessions,
		metrics:   m,
		api:       api.New(cfg.Api, runner, sessions, m.GetRegistry()),
		active:    make(map[string]activeMonitor),
		cMonitors: make(chan monitor.Config, 1),
		cErr:      make(chan error, 1),
		cDone:     make(chan struct{}, 1),
		shutOnce:  sync.Once{},
	}
	s.loader = config.NewLoader(cfg, s.cMonitors)

	return s
}

// Run starts the service
func (s *Service) Run(ctx context.Context) error {
	ctx, cancel := logger.NewContextWithLogger(ctx)
	log := logger.FromContext(ctx)
	defer cancel()

	err := s.metrics.InitTracing(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}

	s.registerMetrics(ctx)

	if s.config.HasMonitorFile() {
		go func() {
			s.cErr <- s.loader.Run(ctx)
		}()
	}

	go func() {
		s.cErr <- s.api.Run(ctx)
	}()

	for {
		select {
		case cfg := <-s.cMonitors:
			s.reconcile(ctx, cfg)
		case <-ctx.Done():
			s.shutdown(ctx)
		case err := <-s.cErr:
			if err != nil {
				log.Error("Non-recoverable error in service component", "error", err)
				s.shutdown(ctx)
			}
		case <-s.cDone:
			log.InfoContext(ctx, "Service was shut down")
			return ErrFinalShutdown
		}
	}
}

// registerMetrics registers the diagnostic collectors and the instance info
// on the prometheus registry.
func (s *Service) registerMetrics(ctx context.Context) {
	log := logger.FromContext(ctx)
	s.metrics.GetRegistry().MustRegister(s.runner.GetMetricCollectors()...)

	err := metrics.RegisterInstanceInfo(
		s.metrics.GetRegistry(),
		s.config.Name,
		s.config.Metadata.Team.Name,
		s.config.Metadata.Team.Email,
		s.config.Metadata.Platform,
	)
	if err != nil {
		log.WarnContext(ctx, "Failed to register instance info metric", "error", err)
	}
}

// reconcile aligns the running sessions with the monitor configuration:
// removed monitors are stopped, new ones are started and changed ones are
// restarted. A monitor that fails to start does not block the others.
func (s *Service) reconcile(ctx context.Context, cfg monitor.Config) {
	log := logger.FromContext(ctx)
	if err := cfg.Validate(ctx); err != nil {
		log.ErrorContext(ctx, "Refusing invalid monitor configuration", "error", err)
		return
	}

	desired := make(map[string]monitor.Monitor, len(cfg.Monitors))
	for _, m := range cfg.Monitors {
		desired[m.Name] = m
	}

	for name, am := range s.active {
		m, ok := desired[name]
		if ok && am.config == m.Diagnostic {
			continue
		}
		if err := s.sessions.Stop(am.id); err != nil {
			log.WarnContext(ctx, "Failed to stop monitor session", "monitor", name, "error", err)
		}
		delete(s.active, name)
		if !ok {
			if err := s.runner.RemoveLabelledMetrics(am.config.Target); err != nil {
				log.DebugContext(ctx, "No metrics to remove for monitor", "monitor", name, "error", err)
			}
			log.InfoContext(ctx, "Stopped monitor", "monitor", name)
		}
	}

	for name, m := range desired {
		if _, ok := s.active[name]; ok {
			continue
		}
		id, err := s.sessions.Start(ctx, m.Diagnostic, nil)
		if err != nil {
			log.ErrorContext(ctx, "Failed to start monitor", "monitor", name, "error", err)
			continue
		}
		s.active[name] = activeMonitor{id: id, config: m.Diagnostic}
		log.InfoContext(ctx, "Started monitor", "monitor", name, "target", m.Diagnostic.Target)
	}
}

// shutdown shuts down the service and all managed components gracefully.
func (s *Service) shutdown(ctx context.Context) {
	errC := ctx.Err()
	log := logger.FromContext(ctx)
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	s.shutOnce.Do(func() {
		log.InfoContext(ctx, "Shutting down service")
		var sErrs ErrShutdown
		s.sessions.StopAll()
		sErrs.errAPI = s.api.Shutdown(ctx)
		sErrs.errMetrics = s.metrics.Shutdown(ctx)
		s.loader.Shutdown(ctx)

		if sErrs.HasError() {
			log.ErrorContext(ctx, "Failed to shutdown gracefully", "contextError", errC, "errors", sErrs)
		}

		// Signal that shutdown is complete
		s.cDone <- struct{}{}
	})
}
