// Package metrics provides Prometheus metrics for monitoring.
//
// Key metrics:
//   - Poll fetch outcomes, latencies and discarded stale responses
//   - Control action invocations by result
//   - Push channel connection state and frame rates
//   - Trade archive insert and conflict counts
//
// A nil *Metrics is valid and records nothing, so components can be
// constructed without a registry in tests.
package metrics
