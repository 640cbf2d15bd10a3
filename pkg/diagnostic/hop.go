// SPDX-FileCopyrightText: 2026 The pathwatch authors
//
// SPDX-License-Identifier: Apache-2.0

package diagnostic

import (
	"encoding/json"
	"fmt"
	"time"
)

const (
	// pingHistorySize bounds the sliding window of probe outcomes kept per hop.
	pingHistorySize = 20
	// runHistorySize bounds the sliding window of run observations kept per hop.
	runHistorySize = 10
)

// SlowHopCategory classifies how a hop behaves latency-wise.
type SlowHopCategory string

// Slow-hop categories, ordered by increasing precedence.
const (
	CategoryNone              SlowHopCategory = ""
	CategoryModeratelySlow    SlowHopCategory = "moderately_slow"
	CategorySlow              SlowHopCategory = "slow"
	CategoryVerySlow          SlowHopCategory = "very_slow"
	CategoryIncreasingLatency SlowHopCategory = "increasing_latency"
	CategoryPacketLoss        SlowHopCategory = "packet_loss"
)

// Classification is the slow-hop verdict for one hop.
type Classification struct {
	// Category is the slow-hop category the hop falls into.
	Category SlowHopCategory `json:"category,omitempty"`
	// SkipRecommended is set when the hop should not be probed further.
	SkipRecommended bool `json:"skipRecommended,omitempty"`
	// Reason names the threshold that triggered the recommendation.
	Reason string `json:"reason,omitempty"`
}

// ProbeResult is the outcome of a single reachability probe.
// Latency is only meaningful when Reachable is set.
type ProbeResult struct {
	Reachable bool          `json:"reachable"`
	Latency   time.Duration `json:"-"`
}

func (p ProbeResult) MarshalJSON() ([]byte, error) {
	type alias ProbeResult
	out := struct {
		Latency *string `json:"latency,omitempty"`
		alias
	}{alias: alias(p)}
	if p.Reachable {
		lat := p.Latency.String()
		out.Latency = &lat
	}
	return json.Marshal(&out)
}

// PingRecord is one entry of a hop's bounded probe history.
type PingRecord struct {
	Timestamp time.Time     `json:"timestamp"`
	Reachable bool          `json:"reachable"`
	Latency   time.Duration `json:"latency"`
	// Slow marks latencies above 100ms.
	Slow bool `json:"slow,omitempty"`
	// LongTimeout marks probes that took one second or longer to settle.
	LongTimeout bool `json:"longTimeout,omitempty"`
}

// RunRecord is one entry of a hop's bounded per-run history.
type RunRecord struct {
	Run       int           `json:"run"`
	Timestamp time.Time     `json:"timestamp"`
	Reachable bool          `json:"reachable"`
	Latency   time.Duration `json:"latency"`
}

// Hop is one enriched hop along the path to a target.
// It is created from a raw discovery event and accumulates probe results and
// history across repeated observations of the same hop key.
type Hop struct {
	// Index is the hop distance from the source, starting at 1.
	Index int `json:"index"`
	// Address is the responding address, empty for unresponsive hops.
	Address string `json:"address,omitempty"`
	// Hostname is the reverse-DNS name of the address, if resolution succeeded.
	Hostname string `json:"hostname,omitempty"`
	// DiscoveryRTTs holds the round-trip samples captured during discovery.
	DiscoveryRTTs []time.Duration `json:"discoveryRtts,omitempty"`
	// Probe holds the latest dedicated reachability probe, nil until probed.
	Probe *ProbeResult `json:"probe,omitempty"`
	// PacketLoss is the probe loss rate for this hop in percent.
	PacketLoss float64 `json:"packetLoss"`
	// PingHistory is the sliding window of recent probe outcomes.
	PingHistory []PingRecord `json:"pingHistory,omitempty"`
	// RunHistory is the sliding window of recent run observations.
	RunHistory []RunRecord `json:"runHistory,omitempty"`
	// Classification is the slow-hop verdict for this hop.
	Classification Classification `json:"classification"`
	// Priority is the processing rank, lower is probed first.
	Priority int `json:"priority"`
	// Skipped is set when filtering excluded the hop from probing.
	Skipped bool `json:"skipped,omitempty"`
	// Limited is set when the hop was probe-eligible but cut by maxHopsToProcess.
	Limited bool `json:"limited,omitempty"`
	// Discrepancy annotates a mismatch between discovery and probe latency.
	Discrepancy string `json:"discrepancy,omitempty"`
}

// Key returns the stable identifier correlating the same physical hop
// across runs: hop index plus address.
func (h *Hop) Key() string {
	return HopKey(h.Index, h.Address)
}

// HopKey builds the stable hop identifier from an index and address.
func HopKey(index int, address string) string {
	return fmt.Sprintf("%d|%s", index, address)
}

// Responsive reports whether the hop has a usable address.
func (h *Hop) Responsive() bool {
	return h.Address != ""
}

// Latency returns the best current latency estimate for the hop: the latest
// probe latency when available, otherwise the mean of the discovery samples.
// The second return value is false when no sample exists at all.
func (h *Hop) Latency() (time.Duration, bool) {
	if h.Probe != nil && h.Probe.Reachable {
		return h.Probe.Latency, true
	}
	if len(h.DiscoveryRTTs) == 0 {
		return 0, false
	}
	var sum time.Duration
	for _, rtt := range h.DiscoveryRTTs {
		sum += rtt
	}
	return sum / time.Duration(len(h.DiscoveryRTTs)), true
}

// recordPing appends a probe outcome to the ping history, evicting the oldest
// entry once the window is full.
func (h *Hop) recordPing(rec PingRecord) {
	h.PingHistory = append(h.PingHistory, rec)
	if len(h.PingHistory) > pingHistorySize {
		h.PingHistory = h.PingHistory[len(h.PingHistory)-pingHistorySize:]
	}
}

// recordRun appends a run observation to the run history, evicting the oldest
// entry once the window is full.
func (h *Hop) recordRun(rec RunRecord) {
	h.RunHistory = append(h.RunHistory, rec)
	if len(h.RunHistory) > runHistorySize {
		h.RunHistory = h.RunHistory[len(h.RunHistory)-runHistorySize:]
	}
}

func (h *Hop) String() string {
	name := h.Hostname
	if name == "" {
		name = h.Address
	}
	if name == "" {
		name = "*"
	}

	latency := "-"
	if lat, ok := h.Latency(); ok {
		latency = lat.String()
	}
	return fmt.Sprintf("%-2d  %-45.45s  %s", h.Index, name, latency)
}
