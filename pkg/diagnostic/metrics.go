// SPDX-FileCopyrightText: 2026 The pathwatch authors
//
// SPDX-License-Identifier: Apache-2.0

package diagnostic

import (
	"github.com/prometheus/client_golang/prometheus"
)

// metrics defines the metric collectors of the path diagnostic
type metrics struct {
	hops     *prometheus.GaugeVec
	loss     *prometheus.GaugeVec
	duration *prometheus.HistogramVec
	runs     *prometheus.CounterVec
}

// newMetrics initializes the metric collectors of the path diagnostic
func newMetrics() metrics {
	return metrics{
		hops: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "pathwatch_route_hops",
				Help: "Number of hops discovered on the route to the target, split by reachability.",
			},
			[]string{"target", "reachable"},
		),
		loss: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "pathwatch_packet_loss_percent",
				Help: "Probe packet loss across the route to the target in percent.",
			},
			[]string{"target"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "pathwatch_run_duration_seconds",
				Help: "Histogram of full diagnostic run durations in seconds.",
			},
			[]string{"target"},
		),
		runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pathwatch_runs_total",
				Help: "Total number of diagnostic runs per target and outcome.",
			},
			[]string{"target", "status"},
		),
	}
}

// GetCollectors returns all metric collectors
func (m *metrics) GetCollectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.hops,
		m.loss,
		m.duration,
		m.runs,
	}
}

// Set records the metrics of one finished diagnostic run
func (m *metrics) Set(target string, res RunResult) {
	status := "success"
	if !res.Success {
		status = "error"
	}
	m.runs.WithLabelValues(target, status).Inc()
	m.duration.WithLabelValues(target).Observe(res.Duration.Seconds())
	if !res.Success {
		return
	}

	m.hops.WithLabelValues(target, "true").Set(float64(res.Statistics.ReachableHops))
	m.hops.WithLabelValues(target, "false").Set(float64(res.Statistics.UnreachableHops))
	m.loss.WithLabelValues(target).Set(res.Statistics.PacketLossRate)
}

// Remove removes the metrics of one target
func (m *metrics) Remove(target string) error {
	if m.hops.DeletePartialMatch(prometheus.Labels{"target": target}) == 0 {
		return ErrMetricNotFound{Label: target}
	}

	if !m.loss.DeleteLabelValues(target) {
		return ErrMetricNotFound{Label: target}
	}

	if m.duration.DeletePartialMatch(prometheus.Labels{"target": target}) == 0 {
		return ErrMetricNotFound{Label: target}
	}

	if m.runs.DeletePartialMatch(prometheus.Labels{"target": target}) == 0 {
		return ErrMetricNotFound{Label: target}
	}

	return nil
}
