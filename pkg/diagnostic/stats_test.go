// SPDX-FileCopyrightText: 2026 The pathwatch authors
//
// SPDX-License-Identifier: Apache-2.0

package diagnostic

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ms(values ...float64) []time.Duration {
	out := make([]time.Duration, len(values))
	for i, v := range values {
		out[i] = time.Duration(v * float64(time.Millisecond))
	}
	return out
}

func TestClassifyTrend(t *testing.T) {
	cases := []struct {
		name      string
		latencies []time.Duration
		want      Trend
	}{
		{
			name:      "too few samples",
			latencies: ms(10, 10, 10),
			want:      TrendInsufficient,
		},
		{
			name:      "empty history",
			latencies: nil,
			want:      TrendInsufficient,
		},
		{
			name:      "flat history is stable",
			latencies: ms(10, 10, 10, 10, 10, 10),
			want:      TrendStable,
		},
		{
			name:      "single raised sample tips the trend",
			latencies: ms(10, 10, 10, 10, 10, 11),
			want:      TrendIncreasing,
		},
		{
			name:      "small wobble stays stable",
			latencies: ms(10, 10, 10, 10, 10, 10.2),
			want:      TrendStable,
		},
		{
			name:      "clear increase",
			latencies: ms(10, 12, 14, 30, 35, 40),
			want:      TrendIncreasing,
		},
		{
			name:      "clear decrease",
			latencies: ms(40, 35, 30, 14, 12, 10),
			want:      TrendDecreasing,
		},
		{
			name:      "odd sample count compares equal halves",
			latencies: ms(10, 10, 10, 20, 20),
			want:      TrendIncreasing,
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, classifyTrend(c.latencies))
		})
	}
}

func TestCalculate(t *testing.T) {
	hops := []*Hop{
		{
			Index:         1,
			Address:       "192.0.2.1",
			DiscoveryRTTs: ms(1, 2),
			Probe:         &ProbeResult{Reachable: true, Latency: 2 * time.Millisecond},
		},
		{
			Index:         2,
			Address:       "192.0.2.2",
			DiscoveryRTTs: ms(4),
			Probe:         &ProbeResult{Reachable: true, Latency: 6 * time.Millisecond},
		},
		{
			Index:   3,
			Address: "192.0.2.3",
			Probe:   &ProbeResult{Reachable: false},
		},
		{
			Index:   4,
			Address: "192.0.2.4",
			Skipped: true,
		},
		{
			Index: 5,
		},
	}

	got := Calculate(hops)

	assert.Equal(t, 5, got.TotalHops)
	assert.Equal(t, 3, got.ProbedHops)
	assert.Equal(t, 2, got.ReachableHops)
	assert.Equal(t, 1, got.UnreachableHops)
	assert.Equal(t, 1, got.SkippedHops)
	assert.Zero(t, got.LimitedHops)

	assert.Equal(t, 3, got.DiscoveryLatency.Samples)
	assert.Equal(t, time.Millisecond, got.DiscoveryLatency.Min)
	assert.Equal(t, 4*time.Millisecond, got.DiscoveryLatency.Max)

	assert.Equal(t, 2, got.ProbeLatency.Samples)
	assert.Equal(t, 4*time.Millisecond, got.ProbeLatency.Avg)

	assert.InDelta(t, 100.0/3.0, got.PacketLossRate, 0.001)
	assert.Empty(t, got.Hops, "no run history, no per-hop statistics")
}

func TestCalculate_Deterministic(t *testing.T) {
	hops := []*Hop{
		{
			Index:         1,
			Address:       "192.0.2.1",
			DiscoveryRTTs: ms(3),
			Probe:         &ProbeResult{Reachable: true, Latency: 3 * time.Millisecond},
			RunHistory: []RunRecord{
				{Run: 1, Reachable: true, Latency: 3 * time.Millisecond},
				{Run: 2, Reachable: false},
			},
			PingHistory: []PingRecord{
				{Reachable: true, Latency: 3 * time.Millisecond},
				{Reachable: false},
			},
		},
	}

	first := Calculate(hops)
	second := Calculate(hops)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("repeated calculation over identical input differs: -first +second\n%s", diff)
	}
}

func TestCalculate_PerHopStatistics(t *testing.T) {
	h := &Hop{
		Index:   1,
		Address: "192.0.2.1",
		Probe:   &ProbeResult{Reachable: true, Latency: 10 * time.Millisecond},
	}
	for run := 1; run <= 4; run++ {
		h.RunHistory = append(h.RunHistory, RunRecord{Run: run, Reachable: run != 2, Latency: 10 * time.Millisecond})
	}
	for _, lat := range ms(10, 10, 20, 20) {
		h.PingHistory = append(h.PingHistory, PingRecord{Reachable: true, Latency: lat})
	}

	got := Calculate([]*Hop{h})

	require.Contains(t, got.Hops, h.Key())
	hs := got.Hops[h.Key()]
	assert.InDelta(t, 75.0, hs.StabilityRate, 0.001)
	assert.Equal(t, TrendIncreasing, hs.Trend)
	assert.Equal(t, 4, hs.Runs)
}

func TestCalculate_Performance(t *testing.T) {
	probe := func(lat time.Duration, reachable bool) *Hop {
		return &Hop{Address: "192.0.2.1", Probe: &ProbeResult{Reachable: reachable, Latency: lat}}
	}

	t.Run("clean fast path is excellent", func(t *testing.T) {
		got := Calculate([]*Hop{probe(5*time.Millisecond, true), probe(8*time.Millisecond, true)})
		assert.Equal(t, RatingExcellent, got.Performance.Rating)
		assert.Empty(t, got.Performance.Recommendations)
	})

	t.Run("heavy loss is poor with recommendation", func(t *testing.T) {
		got := Calculate([]*Hop{
			probe(5*time.Millisecond, true),
			probe(0, false),
			probe(0, false),
		})
		assert.Equal(t, RatingPoor, got.Performance.Rating)
		assert.NotEmpty(t, got.Performance.Recommendations)
	})

	t.Run("slow path is poor", func(t *testing.T) {
		got := Calculate([]*Hop{probe(150*time.Millisecond, true), probe(200*time.Millisecond, true)})
		assert.Equal(t, RatingPoor, got.Performance.Rating)
	})
}

func TestAnnotateDiscrepancy(t *testing.T) {
	cases := []struct {
		name string
		hop  *Hop
		want string
	}{
		{
			name: "close latencies stay unannotated",
			hop: &Hop{
				DiscoveryRTTs: ms(10),
				Probe:         &ProbeResult{Reachable: true, Latency: 11 * time.Millisecond},
			},
		},
		{
			name: "moderate divergence",
			hop: &Hop{
				DiscoveryRTTs: ms(10),
				Probe:         &ProbeResult{Reachable: true, Latency: 13 * time.Millisecond},
			},
			want: "moderate",
		},
		{
			name: "high divergence",
			hop: &Hop{
				DiscoveryRTTs: ms(10),
				Probe:         &ProbeResult{Reachable: true, Latency: 16 * time.Millisecond},
			},
			want: "high",
		},
		{
			name: "severe divergence",
			hop: &Hop{
				DiscoveryRTTs: ms(2),
				Probe:         &ProbeResult{Reachable: true, Latency: 40 * time.Millisecond},
			},
			want: "severe",
		},
		{
			name: "unprobed hop stays unannotated",
			hop:  &Hop{DiscoveryRTTs: ms(10)},
		},
		{
			name: "no discovery samples",
			hop:  &Hop{Probe: &ProbeResult{Reachable: true, Latency: 10 * time.Millisecond}},
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			annotateDiscrepancy(c.hop)
			assert.Equal(t, c.want, c.hop.Discrepancy)
		})
	}
}
