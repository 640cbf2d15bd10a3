// SPDX-FileCopyrightText: 2026 The pathwatch authors
//
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/pathwatch/pathwatch/internal/discovery"
	"github.com/pathwatch/pathwatch/internal/logger"
	"github.com/pathwatch/pathwatch/pkg/diagnostic"
)

// NewCmdTrace creates a new trace command
func NewCmdTrace() *cobra.Command {
	var (
		cfg      diagnostic.Config
		protocol string
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "trace [target]",
		Short: "Run a one-shot path diagnostic against a target",
		Long: "Run a one-shot path diagnostic: discovers the hops towards the target, probes\n" +
			"their reachability and prints per-hop results and path statistics.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg.Target = args[0]
			cfg.Protocol = discovery.Protocol(protocol)
			return trace(cmd, cfg, asJSON)
		},
	}

	cmd.Flags().IntVar(&cfg.MaxHops, "max-hops", 0, "maximum number of hops to discover (1-64)")
	cmd.Flags().StringVar(&protocol, "protocol", "", "discovery protocol: icmp, udp or tcp")
	cmd.Flags().IntVar(&cfg.Port, "port", 0, "destination port for tcp and udp discovery")
	cmd.Flags().BoolVar(&cfg.ResolveHosts, "resolve", false, "resolve hop addresses to hostnames")
	cmd.Flags().DurationVar(&cfg.HostnameTimeout, "resolve-timeout", 0, "timeout per hostname lookup")
	cmd.Flags().BoolVar(&cfg.PingHops, "ping", true, "probe each discovered hop for reachability")
	cmd.Flags().DurationVar(&cfg.Timeout, "timeout", 0, "timeout for the whole discovery run")
	cmd.Flags().BoolVar(&cfg.SkipSlowHops, "skip-slow", false, "skip probing hops classified as slow")
	cmd.Flags().DurationVar(&cfg.SlowHopThreshold, "slow-threshold", 0, "latency above which a hop counts as slow")
	cmd.Flags().BoolVar(&cfg.SkipPacketLoss, "skip-loss", false, "skip probing hops with observed packet loss")
	cmd.Flags().BoolVar(&cfg.PrioritizeFastHops, "prioritize-fast", false, "probe fast hops first when limiting")
	cmd.Flags().IntVar(&cfg.MaxHopsToProcess, "limit", 0, "maximum number of hops to probe, 0 for all")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full result as json")

	return cmd
}

func trace(cmd *cobra.Command, cfg diagnostic.Config, asJSON bool) error {
	ctx, cancel := logger.NewContextWithLogger(cmd.Context())
	defer cancel()

	resolver := diagnostic.NewCachingResolver(diagnostic.NewResolver(), 0)
	runner := diagnostic.NewRunner(
		discovery.NewExecutor(),
		diagnostic.NewProcessor(resolver, diagnostic.NewProber()),
	)

	var onUpdate diagnostic.UpdateFunc
	out := cmd.OutOrStdout()
	if !asJSON {
		onUpdate = func(u diagnostic.HopUpdate) {
			if u.Kind == diagnostic.UpdateHop {
				fmt.Fprintln(out, u.Hop)
			}
		}
		fmt.Fprintf(out, "Tracing path to %s\n", cfg.Target)
	}

	started := time.Now()
	res := runner.RunOnce(ctx, cfg, onUpdate)

	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			return fmt.Errorf("failed to encode result: %w", err)
		}
	} else {
		printSummary(out, res, time.Since(started))
	}

	if !res.Success {
		return fmt.Errorf("diagnostic failed: %s", res.Error)
	}
	return nil
}

func printSummary(out io.Writer, res diagnostic.RunResult, elapsed time.Duration) {
	if !res.Success {
		fmt.Fprintf(out, "\nDiagnostic failed after %v: %s\n", elapsed.Round(time.Millisecond), res.Error)
		return
	}

	s := res.Statistics
	fmt.Fprintf(out, "\n%d hops, %d reachable, %d unreachable", s.TotalHops, s.ReachableHops, s.UnreachableHops)
	if s.SkippedHops > 0 || s.LimitedHops > 0 {
		fmt.Fprintf(out, " (%d skipped, %d limited)", s.SkippedHops, s.LimitedHops)
	}
	fmt.Fprintln(out)

	if s.ProbeLatency.Samples > 0 {
		fmt.Fprintf(out, "latency avg %v, min %v, max %v\n", s.ProbeLatency.Avg, s.ProbeLatency.Min, s.ProbeLatency.Max)
	}
	fmt.Fprintf(out, "packet loss %.1f%%, rating %s\n", s.PacketLossRate, s.Performance.Rating)
	for _, rec := range s.Performance.Recommendations {
		fmt.Fprintf(out, "  - %s\n", rec)
	}
	fmt.Fprintf(out, "finished in %v\n", elapsed.Round(time.Millisecond))
}
