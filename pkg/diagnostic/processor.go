// SPDX-FileCopyrightText: 2026 The pathwatch authors
//
// SPDX-License-Identifier: Apache-2.0

package diagnostic

import (
	"context"
	"fmt"
	"time"

	"github.com/pathwatch/pathwatch/internal/discovery"
	"github.com/pathwatch/pathwatch/internal/logger"
)

// Latency thresholds for slow-hop classification. The bands are heuristic
// defaults, not verified network-engineering constants.
const (
	moderatelySlowThreshold = 20 * time.Millisecond
	slowThreshold           = 50 * time.Millisecond
	verySlowThreshold       = 100 * time.Millisecond

	// increasingLatencyFactor triggers the increasing-latency category when
	// the recent ping average exceeds the current latency by this factor.
	increasingLatencyFactor = 1.5

	// longTimeoutThreshold marks probe outcomes that took at least this long.
	longTimeoutThreshold = time.Second
)

// Priority bands for probe ordering. Lower is probed first.
const (
	priorityBand1 = 5 * time.Millisecond
	priorityBand2 = 10 * time.Millisecond
	priorityBand3 = 20 * time.Millisecond
	priorityBand4 = 50 * time.Millisecond

	prioritySlowest = 5
	// prioritySkipped ranks skip-recommended hops behind every latency band.
	prioritySkipped = 100
)

// Processor turns raw discovery events into enriched hops and maintains the
// per-hop history across repeated observations.
type Processor struct {
	resolver Resolver
	prober   Prober
}

// NewProcessor creates a new hop processor using the given reverse-DNS and
// reachability capabilities.
func NewProcessor(resolver Resolver, prober Prober) *Processor {
	return &Processor{
		resolver: resolver,
		prober:   prober,
	}
}

// ProcessHop turns one raw hop event into an enriched hop. Reverse DNS is
// attempted when the config asks for it, bounded by the hostname timeout;
// a failed lookup is not an error, the hostname just stays empty. When
// probeNow is set and the config enables hop pinging, one reachability probe
// is performed immediately; callers that probe in batches pass false.
func (p *Processor) ProcessHop(ctx context.Context, ev discovery.HopEvent, cfg Config, probeNow bool) (*Hop, error) {
	if err := validateEvent(ev); err != nil {
		return nil, err
	}

	h := &Hop{
		Index:         ev.Index,
		Address:       ev.Address,
		DiscoveryRTTs: ev.RTTs,
	}

	if h.Responsive() && cfg.ResolveHosts {
		h.Hostname = p.resolveHostname(ctx, h.Address, cfg.HostnameTimeout)
	}

	if probeNow && cfg.PingHops && h.Responsive() {
		p.ProbeHop(ctx, h, defaultProbeTimeout)
	}

	return h, nil
}

// validateEvent checks the shape of a raw hop event at the processor
// boundary.
func validateEvent(ev discovery.HopEvent) error {
	if ev.Index < 1 {
		return ErrProcessing{Reason: fmt.Sprintf("hop index %d out of range", ev.Index)}
	}
	if !ev.Unresponsive && ev.Address == "" {
		return ErrProcessing{Reason: fmt.Sprintf("hop %d has neither address nor timeout marker", ev.Index)}
	}
	if ev.Unresponsive && ev.Address != "" {
		return ErrProcessing{Reason: fmt.Sprintf("hop %d carries both address and timeout marker", ev.Index)}
	}
	return nil
}

// resolveHostname performs a reverse-DNS lookup bounded by the given timeout.
// Failure is soft: the result is simply an empty hostname.
func (p *Processor) resolveHostname(ctx context.Context, address string, timeout time.Duration) string {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	names, err := p.resolver.LookupAddr(ctx, address)
	if err != nil || len(names) == 0 {
		logger.FromContext(ctx).DebugContext(ctx, "Reverse DNS lookup failed", "address", address, "error", err)
		return ""
	}
	return cleanHostname(names[0])
}

// Classify derives the slow-hop classification for a hop. The fixed
// threshold ladder is evaluated first, then the increasing-latency and
// packet-loss categories override it in that order. Config-driven
// thresholds are applied independently: either source can recommend a skip.
func (p *Processor) Classify(h *Hop, cfg Config) Classification {
	var c Classification

	lat, ok := h.Latency()
	if ok {
		switch {
		case lat > verySlowThreshold:
			c = Classification{Category: CategoryVerySlow, SkipRecommended: true, Reason: fmt.Sprintf("latency %v above %v", lat, verySlowThreshold)}
		case lat >= slowThreshold:
			c = Classification{Category: CategorySlow, SkipRecommended: true, Reason: fmt.Sprintf("latency %v above %v", lat, slowThreshold)}
		case lat >= moderatelySlowThreshold:
			c = Classification{Category: CategoryModeratelySlow, Reason: fmt.Sprintf("latency %v above %v", lat, moderatelySlowThreshold)}
		}

		if avg, n := recentPingAverage(h); n > 0 && float64(avg) > increasingLatencyFactor*float64(lat) {
			c = Classification{Category: CategoryIncreasingLatency, SkipRecommended: true, Reason: fmt.Sprintf("recent ping average %v exceeds %.1fx current latency %v", avg, increasingLatencyFactor, lat)}
		}
	}

	if h.PacketLoss > 0 {
		c = Classification{Category: CategoryPacketLoss, SkipRecommended: true, Reason: fmt.Sprintf("%.1f%% packet loss", h.PacketLoss)}
	}

	if cfg.SkipSlowHops && ok && lat > cfg.SlowHopThreshold {
		c.SkipRecommended = true
		if c.Reason == "" {
			c.Reason = fmt.Sprintf("latency %v above configured threshold %v", lat, cfg.SlowHopThreshold)
		}
	}
	if cfg.SkipPacketLoss && h.PacketLoss > 0 {
		c.SkipRecommended = true
		if c.Reason == "" {
			c.Reason = fmt.Sprintf("%.1f%% packet loss", h.PacketLoss)
		}
	}

	return c
}

// recentPingAverage returns the mean latency over the reachable entries of
// the hop's ping history and how many entries contributed to it.
func recentPingAverage(h *Hop) (time.Duration, int) {
	var sum time.Duration
	n := 0
	for _, rec := range h.PingHistory {
		if rec.Reachable {
			sum += rec.Latency
			n++
		}
	}
	if n == 0 {
		return 0, 0
	}
	return sum / time.Duration(n), n
}

// Priority ranks a hop for probe ordering when the hop count is limited.
// Lower is probed first; skip-recommended hops rank behind everything else.
func (p *Processor) Priority(h *Hop) int {
	if h.Classification.SkipRecommended {
		return prioritySkipped
	}

	lat, ok := h.Latency()
	if !ok {
		return prioritySlowest
	}
	switch {
	case lat < priorityBand1:
		return 1
	case lat < priorityBand2:
		return 2
	case lat < priorityBand3:
		return 3
	case lat < priorityBand4:
		return 4
	default:
		return prioritySlowest
	}
}

// MergeHistory merges one observed hop into the registry keyed by hop key.
// Repeated observations of the same physical hop update the existing record
// in place instead of creating duplicates. The observation is appended to
// the run history and, when the hop was probed, to the ping history; both
// windows evict their oldest entry once full. Returns the canonical hop.
func (p *Processor) MergeHistory(registry map[string]*Hop, h *Hop, run int, now time.Time) *Hop {
	existing, ok := registry[h.Key()]
	if !ok {
		existing = h
		registry[h.Key()] = existing
	} else {
		existing.DiscoveryRTTs = h.DiscoveryRTTs
		existing.Probe = h.Probe
		existing.Classification = h.Classification
		existing.Priority = h.Priority
		existing.Skipped = h.Skipped
		existing.Limited = h.Limited
		existing.Discrepancy = h.Discrepancy
		// Hostnames accumulate across runs: a lookup that failed earlier may
		// succeed later, but a known name is never dropped.
		if existing.Hostname == "" {
			existing.Hostname = h.Hostname
		}
	}

	reachable := h.Probe != nil && h.Probe.Reachable
	var latency time.Duration
	if reachable {
		latency = h.Probe.Latency
	}

	existing.recordRun(RunRecord{Run: run, Timestamp: now, Reachable: reachable, Latency: latency})
	if h.Probe != nil {
		existing.recordPing(PingRecord{
			Timestamp:   now,
			Reachable:   reachable,
			Latency:     latency,
			Slow:        reachable && latency > verySlowThreshold,
			LongTimeout: !reachable,
		})
		existing.PacketLoss = lossRate(existing.PingHistory)
	}

	return existing
}

// lossRate computes the percentage of unreachable entries in a ping history.
func lossRate(history []PingRecord) float64 {
	if len(history) == 0 {
		return 0
	}
	lost := 0
	for _, rec := range history {
		if !rec.Reachable {
			lost++
		}
	}
	return float64(lost) / float64(len(history)) * 100
}
