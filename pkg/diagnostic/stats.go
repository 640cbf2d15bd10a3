// SPDX-FileCopyrightText: 2026 The pathwatch authors
//
// SPDX-License-Identifier: Apache-2.0

package diagnostic

import (
	"fmt"
	"math"
	"time"
)

// Trend describes how a hop's latency develops across runs.
type Trend string

const (
	TrendIncreasing   Trend = "increasing"
	TrendDecreasing   Trend = "decreasing"
	TrendStable       Trend = "stable"
	TrendInsufficient Trend = "insufficient_data"
)

const (
	// trendMinSamples is the minimum latency history length for a trend verdict.
	trendMinSamples = 4
	// trendStableBand is the relative change between the first-half and
	// second-half latency mean below which a hop counts as stable.
	// Provisional default, not a verified network-engineering threshold.
	trendStableBand = 0.03
)

// Relative discrepancy bands between discovery-phase latency and probe
// latency. Provisional defaults: the two are measured by different
// mechanisms and can legitimately diverge.
const (
	discrepancyModerate = 0.25
	discrepancyHigh     = 0.5
	discrepancySevere   = 1.0
)

// Thresholds for the qualitative performance summary.
const (
	lossPoorThreshold        = 10.0
	lossGoodThreshold        = 5.0
	latencyPoorThreshold     = 100 * time.Millisecond
	latencyExcellentCeiling  = 50 * time.Millisecond
	unreachablePoorThreshold = 0.3
)

// LatencySummary aggregates a set of latency samples.
type LatencySummary struct {
	Avg     time.Duration `json:"avg"`
	Min     time.Duration `json:"min"`
	Max     time.Duration `json:"max"`
	Samples int           `json:"samples"`
}

// PerformanceRating is the qualitative verdict over a whole hop list.
type PerformanceRating string

const (
	RatingExcellent PerformanceRating = "excellent"
	RatingGood      PerformanceRating = "good"
	RatingFair      PerformanceRating = "fair"
	RatingPoor      PerformanceRating = "poor"
)

// Performance is the qualitative summary with textual recommendations.
type Performance struct {
	Rating          PerformanceRating `json:"rating"`
	Recommendations []string          `json:"recommendations,omitempty"`
}

// HopStats holds the cross-run statistics of one hop in a continuous session.
type HopStats struct {
	Key string `json:"key"`
	// StabilityRate is the percentage of runs in which the hop was reachable.
	StabilityRate float64 `json:"stabilityRate"`
	// Trend classifies the hop's latency development across runs.
	Trend Trend `json:"trend"`
	// Runs is the number of run observations backing the statistics.
	Runs int `json:"runs"`
}

// Statistics summarizes a collection of enriched hops. It is always derived
// on demand from the hop state at the time of calculation, never stored.
type Statistics struct {
	TotalHops       int `json:"totalHops"`
	ReachableHops   int `json:"reachableHops"`
	UnreachableHops int `json:"unreachableHops"`
	ProbedHops      int `json:"probedHops"`
	SkippedHops     int `json:"skippedHops"`
	LimitedHops     int `json:"limitedHops"`
	// DiscoveryLatency aggregates the discovery-phase round-trip samples.
	// Not comparable with ProbeLatency, the two are measured differently.
	DiscoveryLatency LatencySummary `json:"discoveryLatency"`
	// ProbeLatency aggregates the dedicated reachability probe samples.
	ProbeLatency LatencySummary `json:"probeLatency"`
	// PacketLossRate is probed-but-unreachable over probed, in percent.
	PacketLossRate float64 `json:"packetLossRate"`
	// Performance is the qualitative summary over the whole hop list.
	Performance Performance `json:"performance"`
	// Hops holds per-hop cross-run statistics, keyed by hop key.
	// Only populated for hops observed by a continuous session.
	Hops map[string]HopStats `json:"hops,omitempty"`
}

// Calculate derives statistics from a hop collection. It is a pure function:
// the same input always yields the same output.
func Calculate(hops []*Hop) Statistics {
	stats := Statistics{TotalHops: len(hops)}

	var discoverySamples, probeSamples []time.Duration
	for _, h := range hops {
		discoverySamples = append(discoverySamples, h.DiscoveryRTTs...)

		if h.Skipped {
			stats.SkippedHops++
		}
		if h.Limited {
			stats.LimitedHops++
		}
		if h.Probe == nil {
			continue
		}
		stats.ProbedHops++
		if h.Probe.Reachable {
			stats.ReachableHops++
			probeSamples = append(probeSamples, h.Probe.Latency)
		} else {
			stats.UnreachableHops++
		}

		if len(h.RunHistory) > 0 {
			if stats.Hops == nil {
				stats.Hops = make(map[string]HopStats)
			}
			stats.Hops[h.Key()] = hopStats(h)
		}
	}

	stats.DiscoveryLatency = summarize(discoverySamples)
	stats.ProbeLatency = summarize(probeSamples)
	if stats.ProbedHops > 0 {
		stats.PacketLossRate = float64(stats.UnreachableHops) / float64(stats.ProbedHops) * 100
	}
	stats.Performance = performance(stats)
	return stats
}

func summarize(samples []time.Duration) LatencySummary {
	s := LatencySummary{Samples: len(samples)}
	if len(samples) == 0 {
		return s
	}

	s.Min = samples[0]
	s.Max = samples[0]
	var sum time.Duration
	for _, sample := range samples {
		sum += sample
		if sample < s.Min {
			s.Min = sample
		}
		if sample > s.Max {
			s.Max = sample
		}
	}
	s.Avg = sum / time.Duration(len(samples))
	return s
}

func hopStats(h *Hop) HopStats {
	reachable := 0
	for _, rec := range h.RunHistory {
		if rec.Reachable {
			reachable++
		}
	}

	var latencies []time.Duration
	for _, rec := range h.PingHistory {
		if rec.Reachable {
			latencies = append(latencies, rec.Latency)
		}
	}

	return HopStats{
		Key:           h.Key(),
		StabilityRate: float64(reachable) / float64(len(h.RunHistory)) * 100,
		Trend:         classifyTrend(latencies),
		Runs:          len(h.RunHistory),
	}
}

// classifyTrend compares the mean of the first half of the latency history
// against the mean of the second half. Changes within the stable band are
// treated as noise.
func classifyTrend(latencies []time.Duration) Trend {
	if len(latencies) < trendMinSamples {
		return TrendInsufficient
	}

	half := len(latencies) / 2
	first := mean(latencies[:half])
	second := mean(latencies[len(latencies)-half:])
	if first == 0 {
		return TrendInsufficient
	}

	change := (float64(second) - float64(first)) / float64(first)
	switch {
	case change > trendStableBand:
		return TrendIncreasing
	case change < -trendStableBand:
		return TrendDecreasing
	default:
		return TrendStable
	}
}

func mean(samples []time.Duration) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	var sum time.Duration
	for _, sample := range samples {
		sum += sample
	}
	return sum / time.Duration(len(samples))
}

func performance(stats Statistics) Performance {
	var perf Performance

	if stats.PacketLossRate > lossPoorThreshold {
		perf.Recommendations = append(perf.Recommendations,
			fmt.Sprintf("packet loss rate of %.1f%% exceeds %.0f%%, investigate lossy hops", stats.PacketLossRate, lossPoorThreshold))
	}
	if stats.ProbeLatency.Samples > 0 && stats.ProbeLatency.Avg > latencyPoorThreshold {
		perf.Recommendations = append(perf.Recommendations,
			fmt.Sprintf("average latency of %v exceeds %v, the path is slow", stats.ProbeLatency.Avg, latencyPoorThreshold))
	}
	if stats.TotalHops > 0 && float64(stats.UnreachableHops)/float64(stats.TotalHops) > unreachablePoorThreshold {
		perf.Recommendations = append(perf.Recommendations,
			fmt.Sprintf("%d of %d hops are unreachable, the route may be filtered or broken", stats.UnreachableHops, stats.TotalHops))
	}

	switch {
	case len(perf.Recommendations) > 0:
		perf.Rating = RatingPoor
	case stats.PacketLossRate == 0 && stats.ProbeLatency.Avg < latencyExcellentCeiling:
		perf.Rating = RatingExcellent
	case stats.PacketLossRate < lossGoodThreshold && stats.ProbeLatency.Avg < latencyPoorThreshold:
		perf.Rating = RatingGood
	default:
		perf.Rating = RatingFair
	}
	return perf
}

// annotateDiscrepancy flags hops whose probe latency diverges from their
// discovery-phase latency. The bands are provisional heuristics.
func annotateDiscrepancy(h *Hop) {
	if h.Probe == nil || !h.Probe.Reachable || len(h.DiscoveryRTTs) == 0 {
		return
	}

	base := mean(h.DiscoveryRTTs)
	if base == 0 {
		return
	}
	diff := math.Abs(float64(h.Probe.Latency)-float64(base)) / float64(base)
	switch {
	case diff >= discrepancySevere:
		h.Discrepancy = "severe"
	case diff >= discrepancyHigh:
		h.Discrepancy = "high"
	case diff >= discrepancyModerate:
		h.Discrepancy = "moderate"
	}
}
