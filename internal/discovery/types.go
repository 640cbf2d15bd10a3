// SPDX-FileCopyrightText: 2026 The pathwatch authors
//
// SPDX-License-Identifier: Apache-2.0

package discovery

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/pathwatch/pathwatch/internal/helper"
)

// Protocol represents the probe protocol used for hop discovery.
type Protocol string

// Protocol constants for hop discovery.
const (
	ProtocolICMP Protocol = "icmp"
	ProtocolUDP  Protocol = "udp"
	ProtocolTCP  Protocol = "tcp"
)

func (p Protocol) String() string {
	switch p {
	case ProtocolICMP, ProtocolUDP, ProtocolTCP:
		return string(p)
	default:
		return "unknown"
	}
}

func (p Protocol) IsValid() bool {
	valid := []Protocol{ProtocolICMP, ProtocolUDP, ProtocolTCP}
	return slices.Contains(valid, p)
}

// Config contains the configuration for one discovery run.
type Config struct {
	// Target is the address or hostname to trace to.
	Target string `json:"target" yaml:"target" mapstructure:"target"`
	// MaxHops is the maximum number of hops to discover.
	MaxHops int `json:"maxHops" yaml:"maxHops" mapstructure:"maxHops"`
	// Protocol is the probe protocol to use.
	Protocol Protocol `json:"protocol" yaml:"protocol" mapstructure:"protocol"`
	// Port is the destination port for tcp/udp probes.
	Port int `json:"port,omitempty" yaml:"port,omitempty" mapstructure:"port"`
	// Timeout bounds the whole discovery run. Zero means no timeout.
	Timeout time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty" mapstructure:"timeout"`
	// Retry is the retry configuration for spawning the discovery process.
	Retry helper.RetryConfig `json:"retry" yaml:"retry" mapstructure:"retry"`
}

func (c Config) Validate() error {
	if c.Target == "" {
		return errors.New("discovery target cannot be empty")
	}
	if c.MaxHops < 1 || c.MaxHops > 64 {
		return fmt.Errorf("invalid max hops: %d, must be between 1 and 64", c.MaxHops)
	}
	if c.Protocol != "" && !c.Protocol.IsValid() {
		return fmt.Errorf("invalid discovery protocol: %s", c.Protocol)
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("invalid discovery port: %d, must be between 0 and 65535", c.Port)
	}
	return c.Retry.Validate()
}

// HopEvent is one raw hop as emitted by the discovery process.
type HopEvent struct {
	// Index is the hop distance from the source, starting at 1.
	Index int `json:"index"`
	// Address is the responding address. Empty when the hop timed out.
	Address string `json:"address,omitempty"`
	// Unresponsive is set when the hop did not answer within the probe window.
	Unresponsive bool `json:"unresponsive,omitempty"`
	// RTTs holds the discovery-phase round-trip samples for the hop.
	RTTs []time.Duration `json:"rtts,omitempty"`
}

func (e HopEvent) String() string {
	if e.Unresponsive {
		return fmt.Sprintf("%-2d  *", e.Index)
	}
	return fmt.Sprintf("%-2d  %-45.45s  %v", e.Index, e.Address, e.RTTs)
}

// Run is one in-flight discovery run.
type Run interface {
	// Events returns the stream of hop events. The channel is closed when the
	// underlying process has finished or the run was canceled.
	Events() <-chan HopEvent
	// Wait blocks until the run has finished and returns the final outcome.
	// A nil error means the route was traced to completion.
	Wait() error
	// Cancel terminates the underlying discovery process. It is safe to call
	// multiple times and after the run has finished.
	Cancel()
}

// Executor is able to start discovery runs.
type Executor interface {
	// Start begins a discovery run for the given config. The returned Run
	// streams hop events as the process reports them.
	Start(ctx context.Context, cfg Config) (Run, error)
}
