// SPDX-FileCopyrightText: 2026 The pathwatch authors
//
// SPDX-License-Identifier: Apache-2.0

package diagnostic

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/pathwatch/pathwatch/internal/discovery"
	"github.com/pathwatch/pathwatch/internal/logger"
)

// UpdateKind discriminates the streamed progress events of a run.
type UpdateKind string

const (
	// UpdateHop reports one newly discovered hop of a one-shot run.
	UpdateHop UpdateKind = "hop"
	// UpdateContinuousHop reports one newly discovered hop of a session run.
	UpdateContinuousHop UpdateKind = "continuous_hop"
	// UpdateComplete reports a finished run with the full hop list.
	UpdateComplete UpdateKind = "complete"
	// UpdateError reports a failed run. Within a session the loop continues
	// with the next tick regardless.
	UpdateError UpdateKind = "run_error"
)

// HopUpdate is one streamed progress event. Hop is set for hop events,
// AllHops and Statistics for completion events, Error for failed runs. Run
// carries the session run counter and is zero for one-shot runs. For session
// runs AllHops is the cumulative hop set of the whole session, not just the
// hops observed by this run.
type HopUpdate struct {
	Kind       UpdateKind
	Hop        *Hop
	Progress   int
	Run        int
	AllHops    []*Hop
	Statistics Statistics
	Error      string
}

// UpdateFunc receives streamed progress events during a run. Callbacks are
// invoked sequentially from the run's goroutine.
type UpdateFunc func(HopUpdate)

// RunResult is the outcome of one full diagnostic run. Failures are carried
// in-band: Success is false and Error holds the cause.
type RunResult struct {
	Success    bool          `json:"success"`
	Target     string        `json:"target"`
	Address    string        `json:"address,omitempty"`
	Hostname   string        `json:"hostname,omitempty"`
	Hops       []*Hop        `json:"hops,omitempty"`
	Statistics Statistics    `json:"statistics"`
	Duration   time.Duration `json:"duration"`
	Error      string        `json:"error,omitempty"`
}

// Runner executes diagnostic runs: hop discovery, enrichment, probing and
// statistics. It is safe for concurrent use.
type Runner struct {
	executor  discovery.Executor
	processor *Processor
	metrics   metrics
	tracer    trace.Tracer
}

// NewRunner creates a new runner on top of the given discovery executor and
// hop processor.
func NewRunner(executor discovery.Executor, processor *Processor) *Runner {
	return &Runner{
		executor:  executor,
		processor: processor,
		metrics:   newMetrics(),
		tracer:    otel.Tracer("pathwatch.diagnostic"),
	}
}

// GetMetricCollectors exposes the runner's prometheus collectors.
func (r *Runner) GetMetricCollectors() []prometheus.Collector {
	return r.metrics.GetCollectors()
}

// RemoveLabelledMetrics removes the metrics labelled with the passed target.
func (r *Runner) RemoveLabelledMetrics(target string) error {
	return r.metrics.Remove(target)
}

// RunOnce validates the config and performs one diagnostic run against a
// fresh hop registry. It never panics and never returns a Go error: every
// failure is reported through the result.
func (r *Runner) RunOnce(ctx context.Context, cfg Config, onUpdate UpdateFunc) RunResult {
	started := time.Now()
	cfg, err := cfg.Validate()
	if err != nil {
		return r.fail(cfg.Target, started, 0, err, onUpdate)
	}
	return r.run(ctx, cfg, 0, make(map[string]*Hop), onUpdate)
}

// run performs one diagnostic run against the given hop registry. The config
// must already be validated; run is the session run counter, zero for
// one-shot runs.
func (r *Runner) run(ctx context.Context, cfg Config, run int, registry map[string]*Hop, onUpdate UpdateFunc) (res RunResult) {
	started := time.Now()
	log := logger.FromContext(ctx)
	ctx, span := r.tracer.Start(ctx, "diagnostic.run", trace.WithAttributes(
		attribute.String("target", cfg.Target),
		attribute.Int("run", run),
	))
	defer span.End()
	defer func() {
		if !res.Success {
			span.SetStatus(codes.Error, res.Error)
		}
		r.metrics.Set(cfg.Target, res)
	}()

	resolution, err := ResolveTarget(ctx, r.processor.resolver, cfg.Target)
	if err != nil {
		span.RecordError(err)
		return r.fail(cfg.Target, started, run, err, onUpdate)
	}

	hops, err := r.discover(ctx, cfg, run, registry, onUpdate)
	if err != nil {
		log.ErrorContext(ctx, "Hop discovery failed", "target", cfg.Target, "error", err)
		span.RecordError(err)
		return r.fail(cfg.Target, started, run, err, onUpdate)
	}

	r.partition(hops, cfg)
	r.probe(ctx, hops, cfg)

	now := time.Now()
	merged := make([]*Hop, 0, len(hops))
	for _, h := range hops {
		annotateDiscrepancy(h)
		merged = append(merged, r.processor.MergeHistory(registry, h, run, now))
	}
	backfillPings(merged, cfg, now)

	result := RunResult{
		Success:    true,
		Target:     cfg.Target,
		Address:    resolution.Address,
		Hostname:   resolution.Hostname,
		Hops:       merged,
		Statistics: Calculate(merged),
		Duration:   time.Since(started),
	}
	if onUpdate != nil {
		allHops := merged
		if run > 0 {
			allHops = registryHops(registry)
		}
		onUpdate(HopUpdate{Kind: UpdateComplete, Run: run, AllHops: allHops, Statistics: result.Statistics})
	}
	log.DebugContext(ctx, "Diagnostic run finished", "target", cfg.Target, "hops", len(merged), "duration", result.Duration)
	return result
}

// discover streams raw hop events from the discovery capability and turns
// them into enriched hops, carrying over the history of previously observed
// hops so classification can see it.
func (r *Runner) discover(ctx context.Context, cfg Config, run int, registry map[string]*Hop, onUpdate UpdateFunc) ([]*Hop, error) {
	dr, err := r.executor.Start(ctx, cfg.discovery())
	if err != nil {
		return nil, err
	}
	defer dr.Cancel()

	kind := UpdateHop
	if run > 0 {
		kind = UpdateContinuousHop
	}

	var hops []*Hop
	for ev := range dr.Events() {
		h, perr := r.processor.ProcessHop(ctx, ev, cfg, false)
		if perr != nil {
			return nil, perr
		}

		if known, ok := registry[h.Key()]; ok {
			h.Hostname = coalesce(h.Hostname, known.Hostname)
			h.PingHistory = known.PingHistory
			h.RunHistory = known.RunHistory
			h.PacketLoss = known.PacketLoss
		}
		h.Classification = r.processor.Classify(h, cfg)
		h.Priority = r.processor.Priority(h)

		hops = append(hops, h)
		if onUpdate != nil {
			onUpdate(HopUpdate{Kind: kind, Hop: h, Progress: len(hops), Run: run})
		}
	}

	if werr := dr.Wait(); werr != nil {
		return nil, werr
	}
	return hops, nil
}

// partition marks hops excluded from probing. Skip filtering runs first,
// then the hop limit cuts the remaining probe-eligible hops, fastest first
// when prioritization is enabled.
func (r *Runner) partition(hops []*Hop, cfg Config) {
	var eligible []*Hop
	for _, h := range hops {
		h.Skipped = false
		h.Limited = false
		if !h.Responsive() {
			continue
		}
		if shouldSkip(h, cfg) {
			h.Skipped = true
			continue
		}
		eligible = append(eligible, h)
	}

	if cfg.MaxHopsToProcess <= 0 || len(eligible) <= cfg.MaxHopsToProcess {
		return
	}

	if cfg.PrioritizeFastHops {
		sort.SliceStable(eligible, func(i, j int) bool {
			if eligible[i].Priority != eligible[j].Priority {
				return eligible[i].Priority < eligible[j].Priority
			}
			return eligible[i].Index < eligible[j].Index
		})
	}
	for _, h := range eligible[cfg.MaxHopsToProcess:] {
		h.Limited = true
	}
}

// shouldSkip reports whether the config excludes the hop from probing.
func shouldSkip(h *Hop, cfg Config) bool {
	if cfg.SkipSlowHops {
		switch h.Classification.Category {
		case CategorySlow, CategoryVerySlow, CategoryIncreasingLatency:
			return true
		}
		if lat, ok := h.Latency(); ok && lat > cfg.SlowHopThreshold {
			return true
		}
	}
	if cfg.SkipPacketLoss && h.PacketLoss > 0 {
		return true
	}
	return false
}

// probe probes all remaining probe-eligible hops concurrently and waits for
// every probe to settle. Each probe is bounded by the fixed probe timeout,
// so a batch takes roughly one timeout even when every hop is silent.
func (r *Runner) probe(ctx context.Context, hops []*Hop, cfg Config) {
	if !cfg.PingHops {
		return
	}

	var wg sync.WaitGroup
	for _, h := range hops {
		if !h.Responsive() || h.Skipped || h.Limited {
			continue
		}
		wg.Add(1)
		go func(h *Hop) {
			defer wg.Done()
			r.processor.ProbeHop(ctx, h, defaultProbeTimeout)
		}(h)
	}
	wg.Wait()
}

// backfillPings gives responsive hops without any ping history a synthetic
// timeout entry. Skipped and limited hops are covered too, so downstream
// charts always find at least one entry per hop.
func backfillPings(hops []*Hop, cfg Config, now time.Time) {
	if !cfg.PingHops {
		return
	}
	for _, h := range hops {
		if !h.Responsive() || len(h.PingHistory) > 0 {
			continue
		}
		h.recordPing(PingRecord{Timestamp: now, Reachable: false, LongTimeout: true})
		h.PacketLoss = lossRate(h.PingHistory)
	}
}

// registryHops returns the cumulative hop set of a session in hop order.
func registryHops(registry map[string]*Hop) []*Hop {
	hops := make([]*Hop, 0, len(registry))
	for _, h := range registry {
		hops = append(hops, h)
	}
	sort.Slice(hops, func(i, j int) bool {
		if hops[i].Index != hops[j].Index {
			return hops[i].Index < hops[j].Index
		}
		return hops[i].Address < hops[j].Address
	})
	return hops
}

func (r *Runner) fail(target string, started time.Time, run int, err error, onUpdate UpdateFunc) RunResult {
	if onUpdate != nil {
		onUpdate(HopUpdate{Kind: UpdateError, Run: run, Error: err.Error()})
	}
	return RunResult{
		Target:   target,
		Duration: time.Since(started),
		Error:    err.Error(),
	}
}

func coalesce(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
