// SPDX-FileCopyrightText: 2026 The pathwatch authors
//
// SPDX-License-Identifier: Apache-2.0

package diagnostic

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHop_Latency(t *testing.T) {
	cases := []struct {
		name   string
		hop    *Hop
		want   time.Duration
		wantOk bool
	}{
		{
			name:   "probe latency wins",
			hop:    &Hop{DiscoveryRTTs: []time.Duration{50 * time.Millisecond}, Probe: &ProbeResult{Reachable: true, Latency: 10 * time.Millisecond}},
			want:   10 * time.Millisecond,
			wantOk: true,
		},
		{
			name:   "unreachable probe falls back to discovery mean",
			hop:    &Hop{DiscoveryRTTs: []time.Duration{10 * time.Millisecond, 20 * time.Millisecond}, Probe: &ProbeResult{Reachable: false}},
			want:   15 * time.Millisecond,
			wantOk: true,
		},
		{
			name: "no samples at all",
			hop:  &Hop{},
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, ok := c.hop.Latency()
			assert.Equal(t, c.wantOk, ok)
			assert.Equal(t, c.want, got)
		})
	}
}

func TestHopKey(t *testing.T) {
	a := &Hop{Index: 3, Address: "192.0.2.1"}
	b := &Hop{Index: 3, Address: "192.0.2.1", Hostname: "gw.example.com"}
	c := &Hop{Index: 4, Address: "192.0.2.1"}

	assert.Equal(t, a.Key(), b.Key(), "enrichment must not change the key")
	assert.NotEqual(t, a.Key(), c.Key(), "same address at a different distance is a different hop")
}

func TestProbeResult_MarshalJSON(t *testing.T) {
	reachable, err := json.Marshal(ProbeResult{Reachable: true, Latency: 1500 * time.Microsecond})
	require.NoError(t, err)
	assert.JSONEq(t, `{"reachable":true,"latency":"1.5ms"}`, string(reachable))

	unreachable, err := json.Marshal(ProbeResult{Reachable: false, Latency: 42 * time.Millisecond})
	require.NoError(t, err)
	assert.JSONEq(t, `{"reachable":false}`, string(unreachable), "latency of an unreachable probe is meaningless and omitted")
}
