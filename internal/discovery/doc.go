// SPDX-FileCopyrightText: 2026 The pathwatch authors
//
// SPDX-License-Identifier: Apache-2.0

// Package discovery drives an external hop-discovery process (the system
// traceroute binary) and turns its output into an ordered stream of hop
// events.
//
// It exposes an [Executor] for starting discovery runs against a target with
// a [Config]. A started [Run] emits one [HopEvent] per discovered hop on its
// Events channel in strictly increasing hop-index order and reports the final
// outcome through Wait.
//
// Key features:
//   - Streams hops as they are printed by the underlying process, so callers
//     see progress before the full route is known
//   - Cooperative cancellation that terminates the underlying process group,
//     never leaking an orphaned subprocess
//   - Optional overall timeout; the default is no timeout since discovery
//     duration is inherently variable
//   - Configurable retry policy for spawning the process via [helper.RetryConfig]
//   - Fully mockable ([Executor] and [Run] are interfaces) for unit testing
//
// Typical usage:
//
//	exec := discovery.NewExecutor()
//	run, err := exec.Start(ctx, discovery.Config{Target: "8.8.8.8", MaxHops: 30})
//	for ev := range run.Events() { ... }
//	err = run.Wait()
package discovery
