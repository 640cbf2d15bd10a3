// SPDX-FileCopyrightText: 2026 The pathwatch authors
//
// SPDX-License-Identifier: Apache-2.0

package diagnostic

import (
	"context"
	"fmt"
	"math"
	"os/exec"
	"regexp"
	"strconv"
	"time"
)

// defaultProbeTimeout is the fixed per-probe timeout used when probing a
// batch of hops. An unresponsive hop is abandoned after this long rather
// than retried, prioritizing overall scan speed over single-hop accuracy.
const defaultProbeTimeout = time.Second

// Prober is the reachability-probe capability: send one probe to an address,
// get back the round-trip time or an error when the address did not answer.
type Prober interface {
	Probe(ctx context.Context, address string, timeout time.Duration) (time.Duration, error)
}

var _ Prober = (*pingProber)(nil)

type pingProber struct {
	binary    string
	buildArgs func(address string, timeout time.Duration) []string
}

// NewProber creates a new Prober backed by the system ping binary.
func NewProber() Prober {
	return &pingProber{
		binary:    "ping",
		buildArgs: pingArgs,
	}
}

func pingArgs(address string, timeout time.Duration) []string {
	secs := int(math.Ceil(timeout.Seconds()))
	if secs < 1 {
		secs = 1
	}
	return []string{"-n", "-c", "1", "-W", strconv.Itoa(secs), address}
}

var rttPattern = regexp.MustCompile(`time[=<]([0-9.]+) *ms`)

func (p *pingProber) Probe(ctx context.Context, address string, timeout time.Duration) (time.Duration, error) {
	out, err := exec.CommandContext(ctx, p.binary, p.buildArgs(address, timeout)...).Output() // #nosec G204 // address comes from discovery output and is a literal IP
	if err != nil {
		return 0, fmt.Errorf("probe to %s failed: %w", address, err)
	}

	m := rttPattern.FindSubmatch(out)
	if m == nil {
		return 0, fmt.Errorf("probe to %s returned no round-trip time", address)
	}
	rtt, err := strconv.ParseFloat(string(m[1]), 64)
	if err != nil {
		return 0, fmt.Errorf("probe to %s returned unparseable round-trip time: %w", address, err)
	}
	return time.Duration(rtt * float64(time.Millisecond)), nil
}

// Probe issues a single reachability probe bounded by the given timeout.
// The probe races against a timer; whichever settles first wins. A losing
// probe is abandoned, never awaited further: the external probe primitive
// may not support cancellation, so its eventual result is simply discarded.
func (p *Processor) Probe(ctx context.Context, address string, timeout time.Duration) ProbeResult {
	type outcome struct {
		latency time.Duration
		err     error
	}

	ch := make(chan outcome, 1)
	go func() {
		latency, err := p.prober.Probe(ctx, address, timeout)
		ch <- outcome{latency: latency, err: err}
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case out := <-ch:
		if out.err != nil {
			return ProbeResult{Reachable: false}
		}
		return ProbeResult{Reachable: true, Latency: out.latency}
	case <-timer.C:
		return ProbeResult{Reachable: false}
	case <-ctx.Done():
		return ProbeResult{Reachable: false}
	}
}

// ProbeHop probes the hop's address and folds the outcome into the hop.
func (p *Processor) ProbeHop(ctx context.Context, h *Hop, timeout time.Duration) {
	if !h.Responsive() {
		return
	}
	res := p.Probe(ctx, h.Address, timeout)
	h.Probe = &res
}
