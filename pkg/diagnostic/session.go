// SPDX-FileCopyrightText: 2026 The pathwatch authors
//
// SPDX-License-Identifier: Apache-2.0

package diagnostic

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/pathwatch/pathwatch/internal/logger"
)

// session is one continuous diagnostic loop. Its hop registry accumulates
// history across runs. The registry lock is held for a whole run, so listing
// sessions must never need it: the run counter is atomic and the remaining
// fields are immutable after construction.
type session struct {
	// mu serializes registry access against statistics readers.
	mu       sync.Mutex
	id       string
	config   Config
	started  time.Time
	runs     atomic.Int64
	registry map[string]*Hop
	cancel   context.CancelFunc
	done     chan struct{}
}

// SessionInfo is the externally visible summary of an active session.
type SessionInfo struct {
	ID       string        `json:"id"`
	Target   string        `json:"target"`
	Runs     int           `json:"runs"`
	Duration time.Duration `json:"duration"`
}

// SessionManager owns all continuous diagnostic sessions. It is safe for
// concurrent use.
type SessionManager struct {
	mu       sync.RWMutex
	runner   *Runner
	sessions map[string]*session
}

// NewSessionManager creates a new session manager on top of the given runner.
func NewSessionManager(runner *Runner) *SessionManager {
	return &SessionManager{
		runner:   runner,
		sessions: make(map[string]*session),
	}
}

// Start validates the config, registers a new continuous session and returns
// its id immediately. The session loop runs in the background until the
// context is canceled or the session is stopped; a failing run is reported
// through the update callback and does not end the session.
func (m *SessionManager) Start(ctx context.Context, cfg Config, onUpdate UpdateFunc) (string, error) {
	cfg, err := cfg.ValidateContinuous()
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithCancel(ctx)
	s := &session{
		id:       uuid.NewString(),
		config:   cfg,
		started:  time.Now(),
		registry: make(map[string]*Hop),
		cancel:   cancel,
		done:     make(chan struct{}),
	}

	m.mu.Lock()
	m.sessions[s.id] = s
	m.mu.Unlock()

	go m.loop(ctx, s, onUpdate)
	return s.id, nil
}

// loop drives one session: run, publish, sleep, repeat. The session outlives
// failing runs; only cancellation or an explicit stop ends it.
func (m *SessionManager) loop(ctx context.Context, s *session, onUpdate UpdateFunc) {
	defer close(s.done)
	log := logger.FromContext(ctx).With("session", s.id, "target", s.config.Target)
	log.InfoContext(ctx, "Starting continuous diagnostic session", "interval", s.config.Interval.String())

	for {
		// The registry lock is held for the whole run: statistics readers
		// see pre- or post-run state, never a half-merged registry.
		run := int(s.runs.Add(1))
		s.mu.Lock()
		res := m.runner.run(ctx, s.config, run, s.registry, onUpdate)
		s.mu.Unlock()

		if !res.Success {
			log.WarnContext(ctx, "Diagnostic run failed, session continues", "run", run, "error", res.Error)
		}

		select {
		case <-ctx.Done():
			log.InfoContext(ctx, "Continuous diagnostic session stopped", "runs", run)
			return
		case <-time.After(s.config.Interval):
		}
	}
}

// Stop ends one session and waits for its loop to exit. Stop is idempotent:
// stopping an unknown or already stopped session is not an error.
func (m *SessionManager) Stop(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	if !ok {
		return nil
	}
	s.cancel()
	<-s.done
	return nil
}

// StopAll ends every active session and waits for their loops to exit.
// Safe to call repeatedly.
func (m *SessionManager) StopAll() {
	m.mu.Lock()
	sessions := make([]*session, 0, len(m.sessions))
	for id, s := range m.sessions {
		sessions = append(sessions, s)
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	for _, s := range sessions {
		s.cancel()
		<-s.done
	}
}

// ActiveSessions lists the currently registered sessions.
func (m *SessionManager) ActiveSessions() []SessionInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()

	infos := make([]SessionInfo, 0, len(m.sessions))
	for _, s := range m.sessions {
		infos = append(infos, SessionInfo{
			ID:       s.id,
			Target:   s.config.Target,
			Runs:     int(s.runs.Load()),
			Duration: time.Since(s.started),
		})
	}
	return infos
}

// SessionStatistics calculates statistics over the accumulated hop state of
// one session.
func (m *SessionManager) SessionStatistics(id string) (Statistics, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return Statistics{}, ErrSessionNotFound{ID: id}
	}

	s.mu.Lock()
	hops := make([]*Hop, 0, len(s.registry))
	for _, h := range s.registry {
		hops = append(hops, h)
	}
	s.mu.Unlock()
	return Calculate(hops), nil
}
