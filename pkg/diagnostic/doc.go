// SPDX-FileCopyrightText: 2026 The pathwatch authors
//
// SPDX-License-Identifier: Apache-2.0

// Package diagnostic implements live network-path diagnostics: it discovers
// the hops towards a target, probes their reachability, classifies slow and
// lossy hops and aggregates per-run and cross-run statistics. Diagnostics
// run either once or continuously in managed sessions.
package diagnostic
