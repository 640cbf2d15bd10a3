// SPDX-FileCopyrightText: 2026 The pathwatch authors
//
// SPDX-License-Identifier: Apache-2.0

package diagnostic

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pathwatch/pathwatch/internal/discovery"
)

func TestSessionManager_Lifecycle(t *testing.T) {
	m := NewSessionManager(newTestRunner(t, testEvents(), map[string]time.Duration{
		"192.0.2.1": 2 * time.Millisecond,
		"192.0.2.2": 9 * time.Millisecond,
		"192.0.2.4": 25 * time.Millisecond,
	}))

	completed := make(chan HopUpdate, 16)
	id, err := m.Start(t.Context(), Config{Target: "192.0.2.4", PingHops: true, Interval: time.Second}, func(u HopUpdate) {
		if u.Kind == UpdateComplete {
			completed <- u
		}
	})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	select {
	case u := <-completed:
		assert.Equal(t, 1, u.Run)
		assert.Len(t, u.AllHops, 4)
		assert.Equal(t, 4, u.Statistics.TotalHops)
	case <-time.After(5 * time.Second):
		t.Fatal("first run did not complete in time")
	}

	infos := m.ActiveSessions()
	require.Len(t, infos, 1)
	assert.Equal(t, id, infos[0].ID)
	assert.Equal(t, "192.0.2.4", infos[0].Target)
	assert.GreaterOrEqual(t, infos[0].Runs, 1)

	stats, err := m.SessionStatistics(id)
	require.NoError(t, err)
	assert.Equal(t, 4, stats.TotalHops)
	assert.NotEmpty(t, stats.Hops, "session hops accumulate run history")

	require.NoError(t, m.Stop(id))
	assert.Empty(t, m.ActiveSessions())

	// Stop is idempotent, a second call on the same id is not an error.
	require.NoError(t, m.Stop(id))
}

func TestSessionManager_RunCompleteCarriesSessionState(t *testing.T) {
	first := []discovery.HopEvent{
		{Index: 1, Address: "192.0.2.1", RTTs: []time.Duration{2 * time.Millisecond}},
		{Index: 2, Address: "192.0.2.2", RTTs: []time.Duration{9 * time.Millisecond}},
	}
	second := []discovery.HopEvent{
		{Index: 3, Address: "192.0.2.3", RTTs: []time.Duration{12 * time.Millisecond}},
	}
	var calls atomic.Int64
	executor := &ExecutorMock{
		StartFunc: func(_ context.Context, _ discovery.Config) (discovery.Run, error) {
			if calls.Add(1) == 1 {
				return &RunMock{HopEvents: first}, nil
			}
			return &RunMock{HopEvents: second}, nil
		},
	}
	prober := &ProberMock{
		ProbeFunc: func(_ context.Context, _ string, _ time.Duration) (time.Duration, error) {
			return 3 * time.Millisecond, nil
		},
	}
	m := NewSessionManager(NewRunner(executor, NewProcessor(&ResolverMock{}, prober)))

	completed := make(chan HopUpdate, 16)
	_, err := m.Start(t.Context(), Config{Target: "192.0.2.3", PingHops: true, Interval: time.Second}, func(u HopUpdate) {
		if u.Kind == UpdateComplete {
			completed <- u
		}
	})
	require.NoError(t, err)
	defer m.StopAll()

	wait := func() HopUpdate {
		t.Helper()
		select {
		case u := <-completed:
			return u
		case <-time.After(5 * time.Second):
			t.Fatal("run did not complete in time")
			return HopUpdate{}
		}
	}

	u := wait()
	assert.Equal(t, 1, u.Run)
	require.Len(t, u.AllHops, 2)
	assert.Equal(t, 2, u.Statistics.TotalHops)

	// The second completion reports the cumulative hop set of the whole
	// session in hop order, while the statistics cover just that run.
	u = wait()
	assert.Equal(t, 2, u.Run)
	require.Len(t, u.AllHops, 3)
	assert.Equal(t, 1, u.AllHops[0].Index)
	assert.Equal(t, 2, u.AllHops[1].Index)
	assert.Equal(t, 3, u.AllHops[2].Index)
	assert.Equal(t, 1, u.Statistics.TotalHops)
}

func TestSessionManager_Start_InvalidConfig(t *testing.T) {
	m := NewSessionManager(newTestRunner(t, nil, nil))

	_, err := m.Start(t.Context(), Config{Target: "192.0.2.4"}, nil)

	var ice ErrInvalidConfig
	require.ErrorAs(t, err, &ice)
	assert.Equal(t, "interval", ice.Field)
	assert.Empty(t, m.ActiveSessions())
}

func TestSessionManager_SessionSurvivesFailingRuns(t *testing.T) {
	ran := make(chan struct{}, 16)
	executor := &ExecutorMock{
		StartFunc: func(_ context.Context, _ discovery.Config) (discovery.Run, error) {
			ran <- struct{}{}
			return &RunMock{Err: discovery.ErrDiscoveryFailed{ExitCode: 1, Stderr: "network is down"}}, nil
		},
	}
	m := NewSessionManager(NewRunner(executor, NewProcessor(&ResolverMock{}, &ProberMock{})))

	_, err := m.Start(t.Context(), Config{Target: "192.0.2.4", Interval: time.Second}, nil)
	require.NoError(t, err)
	defer m.StopAll()

	for range 2 {
		select {
		case <-ran:
		case <-time.After(5 * time.Second):
			t.Fatal("session stopped ticking after a failed run")
		}
	}
	assert.Len(t, m.ActiveSessions(), 1, "failing runs must not end the session")
}

func TestSessionManager_ActiveSessionsDuringRun(t *testing.T) {
	// Probes without an answer hang for the full probe timeout, keeping the
	// first run in flight while the session list is read.
	m := NewSessionManager(newTestRunner(t, testEvents(), nil))

	id, err := m.Start(t.Context(), Config{Target: "192.0.2.4", PingHops: true, Interval: time.Second}, nil)
	require.NoError(t, err)
	defer m.StopAll()
	time.Sleep(50 * time.Millisecond)

	done := make(chan []SessionInfo, 1)
	go func() { done <- m.ActiveSessions() }()
	select {
	case infos := <-done:
		require.Len(t, infos, 1)
		assert.Equal(t, id, infos[0].ID)
	case <-time.After(200 * time.Millisecond):
		t.Fatal("listing sessions blocked on an in-flight run")
	}
}

func TestSessionManager_StopAll(t *testing.T) {
	m := NewSessionManager(newTestRunner(t, testEvents(), nil))

	for range 3 {
		_, err := m.Start(t.Context(), Config{Target: "192.0.2.4", Interval: time.Second}, nil)
		require.NoError(t, err)
	}
	require.Len(t, m.ActiveSessions(), 3)

	m.StopAll()
	assert.Empty(t, m.ActiveSessions())

	// Repeated calls are harmless.
	m.StopAll()
}

func TestSessionManager_SessionStatistics_UnknownID(t *testing.T) {
	m := NewSessionManager(newTestRunner(t, nil, nil))

	_, err := m.SessionStatistics("missing")

	var nf ErrSessionNotFound
	require.ErrorAs(t, err, &nf)
}

func TestSessionManager_ContextCancelEndsLoop(t *testing.T) {
	m := NewSessionManager(newTestRunner(t, testEvents(), nil))

	ctx, cancel := context.WithCancel(t.Context())
	id, err := m.Start(ctx, Config{Target: "192.0.2.4", Interval: time.Second}, nil)
	require.NoError(t, err)

	cancel()

	// The loop exits on its own; Stop afterwards just deregisters it.
	require.Eventually(t, func() bool {
		m.mu.RLock()
		s, ok := m.sessions[id]
		m.mu.RUnlock()
		if !ok {
			return true
		}
		select {
		case <-s.done:
			return true
		default:
			return false
		}
	}, 5*time.Second, 50*time.Millisecond, "session loop should exit on context cancellation")

	require.NoError(t, m.Stop(id))
}
