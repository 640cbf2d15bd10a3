// SPDX-FileCopyrightText: 2026 The pathwatch authors
//
// SPDX-License-Identifier: Apache-2.0

package diagnostic

import (
	"context"
	"time"

	"github.com/pathwatch/pathwatch/internal/discovery"
)

// ExecutorMock is a mock implementation of discovery.Executor.
type ExecutorMock struct {
	StartFunc func(ctx context.Context, cfg discovery.Config) (discovery.Run, error)
}

func (m *ExecutorMock) Start(ctx context.Context, cfg discovery.Config) (discovery.Run, error) {
	return m.StartFunc(ctx, cfg)
}

// RunMock is a mock implementation of discovery.Run replaying a fixed
// event sequence.
type RunMock struct {
	HopEvents []discovery.HopEvent
	Err       error
}

func (m *RunMock) Events() <-chan discovery.HopEvent {
	ch := make(chan discovery.HopEvent, len(m.HopEvents))
	for _, ev := range m.HopEvents {
		ch <- ev
	}
	close(ch)
	return ch
}

func (m *RunMock) Wait() error { return m.Err }
func (m *RunMock) Cancel()     {}

// ResolverMock is a mock implementation of Resolver.
type ResolverMock struct {
	LookupAddrFunc func(ctx context.Context, addr string) ([]string, error)
	LookupHostFunc func(ctx context.Context, host string) ([]string, error)
}

func (m *ResolverMock) LookupAddr(ctx context.Context, addr string) ([]string, error) {
	if m.LookupAddrFunc == nil {
		return nil, nil
	}
	return m.LookupAddrFunc(ctx, addr)
}

func (m *ResolverMock) LookupHost(ctx context.Context, host string) ([]string, error) {
	if m.LookupHostFunc == nil {
		return []string{host}, nil
	}
	return m.LookupHostFunc(ctx, host)
}

// ProberMock is a mock implementation of Prober.
type ProberMock struct {
	ProbeFunc func(ctx context.Context, address string, timeout time.Duration) (time.Duration, error)
}

func (m *ProberMock) Probe(ctx context.Context, address string, timeout time.Duration) (time.Duration, error) {
	return m.ProbeFunc(ctx, address, timeout)
}
