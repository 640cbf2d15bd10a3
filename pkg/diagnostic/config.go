// SPDX-FileCopyrightText: 2026 The pathwatch authors
//
// SPDX-License-Identifier: Apache-2.0

package diagnostic

import (
	"fmt"
	"net"
	"time"

	"github.com/pathwatch/pathwatch/internal/discovery"
	"github.com/pathwatch/pathwatch/internal/helper"
)

const (
	minMaxHops = 1
	maxMaxHops = 64

	minHostnameTimeout = time.Second
	maxHostnameTimeout = 30 * time.Second

	minInterval = time.Second
	maxInterval = 60 * time.Second

	defaultMaxHops         = 30
	defaultHostnameTimeout = 5 * time.Second
)

// Config is the validated configuration of one diagnostic request.
// It is treated as immutable once validated; continuous sessions re-validate
// a fresh copy for every tick.
type Config struct {
	// Target is the address or hostname to diagnose.
	Target string `json:"target" yaml:"target" mapstructure:"target"`
	// MaxHops is the maximum number of hops to discover (1-64).
	MaxHops int `json:"maxHops" yaml:"maxHops" mapstructure:"maxHops"`
	// Protocol is the probe protocol for hop discovery.
	Protocol discovery.Protocol `json:"protocol" yaml:"protocol" mapstructure:"protocol"`
	// Port is the destination port, required for tcp and udp.
	Port int `json:"port,omitempty" yaml:"port,omitempty" mapstructure:"port"`
	// ResolveHosts enables reverse-DNS resolution for discovered hops.
	ResolveHosts bool `json:"resolveHosts" yaml:"resolveHosts" mapstructure:"resolveHosts"`
	// HostnameTimeout bounds each reverse-DNS lookup (1s-30s).
	HostnameTimeout time.Duration `json:"hostnameTimeout" yaml:"hostnameTimeout" mapstructure:"hostnameTimeout"`
	// PingHops enables dedicated reachability probes per hop.
	PingHops bool `json:"pingHops" yaml:"pingHops" mapstructure:"pingHops"`
	// Interval is the pause between runs of a continuous session (1s-60s).
	Interval time.Duration `json:"interval,omitempty" yaml:"interval,omitempty" mapstructure:"interval"`
	// Timeout bounds one whole discovery run. Zero means no timeout.
	Timeout time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty" mapstructure:"timeout"`
	// Retry is the retry configuration for spawning the discovery process.
	Retry helper.RetryConfig `json:"retry" yaml:"retry" mapstructure:"retry"`

	// SkipSlowHops excludes hops slower than SlowHopThreshold from probing.
	SkipSlowHops bool `json:"skipSlowHops" yaml:"skipSlowHops" mapstructure:"skipSlowHops"`
	// SlowHopThreshold is the latency above which a hop counts as slow.
	SlowHopThreshold time.Duration `json:"slowHopThreshold,omitempty" yaml:"slowHopThreshold,omitempty" mapstructure:"slowHopThreshold"`
	// SkipPacketLoss excludes hops with observed packet loss from probing.
	SkipPacketLoss bool `json:"skipPacketLoss" yaml:"skipPacketLoss" mapstructure:"skipPacketLoss"`
	// PrioritizeFastHops probes fast hops first when limiting hop count.
	PrioritizeFastHops bool `json:"prioritizeFastHops" yaml:"prioritizeFastHops" mapstructure:"prioritizeFastHops"`
	// MaxHopsToProcess caps how many hops are probed per run.
	// Zero means all probe-eligible hops are processed.
	MaxHopsToProcess int `json:"maxHopsToProcess,omitempty" yaml:"maxHopsToProcess,omitempty" mapstructure:"maxHopsToProcess"`
}

// withDefaults returns a copy of the config with unset optional
// fields filled in.
func (c Config) withDefaults() Config {
	if c.MaxHops == 0 {
		c.MaxHops = defaultMaxHops
	}
	if c.HostnameTimeout == 0 {
		c.HostnameTimeout = defaultHostnameTimeout
	}
	if c.SlowHopThreshold == 0 {
		c.SlowHopThreshold = verySlowThreshold
	}
	return c
}

// Validate checks the config for a one-shot run and returns a canonical copy
// with defaults applied.
func (c Config) Validate() (Config, error) {
	cfg := c.withDefaults()

	if cfg.Target == "" {
		return cfg, ErrInvalidConfig{Field: "target", Reason: "must not be empty"}
	}
	if cfg.MaxHops < minMaxHops || cfg.MaxHops > maxMaxHops {
		return cfg, ErrInvalidConfig{Field: "maxHops", Reason: fmt.Sprintf("must be between %d and %d", minMaxHops, maxMaxHops)}
	}
	if cfg.Protocol != "" && !cfg.Protocol.IsValid() {
		return cfg, ErrInvalidConfig{Field: "protocol", Reason: fmt.Sprintf("must be one of %s, %s or %s", discovery.ProtocolICMP, discovery.ProtocolUDP, discovery.ProtocolTCP)}
	}
	if cfg.Protocol == discovery.ProtocolTCP || cfg.Protocol == discovery.ProtocolUDP {
		if cfg.Port < 1 || cfg.Port > 65535 {
			return cfg, ErrInvalidConfig{Field: "port", Reason: "must be between 1 and 65535 for tcp and udp"}
		}
	}
	if cfg.HostnameTimeout < minHostnameTimeout || cfg.HostnameTimeout > maxHostnameTimeout {
		return cfg, ErrInvalidConfig{Field: "hostnameTimeout", Reason: fmt.Sprintf("must be between %v and %v", minHostnameTimeout, maxHostnameTimeout)}
	}
	if cfg.Timeout < 0 {
		return cfg, ErrInvalidConfig{Field: "timeout", Reason: "must not be negative"}
	}
	if cfg.MaxHopsToProcess < 0 || cfg.MaxHopsToProcess > cfg.MaxHops {
		return cfg, ErrInvalidConfig{Field: "maxHopsToProcess", Reason: "must be between 1 and maxHops"}
	}
	if err := cfg.Retry.Validate(); err != nil {
		return cfg, ErrInvalidConfig{Field: "retry", Reason: err.Error()}
	}
	return cfg, nil
}

// ValidateContinuous checks the config for a continuous session. On top of
// the one-shot rules the interval must be present and in range.
func (c Config) ValidateContinuous() (Config, error) {
	cfg, err := c.Validate()
	if err != nil {
		return cfg, err
	}
	if cfg.Interval < minInterval || cfg.Interval > maxInterval {
		return cfg, ErrInvalidConfig{Field: "interval", Reason: fmt.Sprintf("must be between %v and %v", minInterval, maxInterval)}
	}
	return cfg, nil
}

// discovery translates the config into a discovery run config.
func (c Config) discovery() discovery.Config {
	return discovery.Config{
		Target:   c.Target,
		MaxHops:  c.MaxHops,
		Protocol: c.Protocol,
		Port:     c.Port,
		Timeout:  c.Timeout,
		Retry:    c.Retry,
	}
}

// IsLiteralAddress reports whether the target is a literal IP address.
func (c Config) IsLiteralAddress() bool {
	return net.ParseIP(c.Target) != nil
}
