// Package poller implements the Resource Poller component.
//
// A Poller[T]:
//   - Fetches one endpoint immediately on Start, then every Interval
//   - Keeps the last successful value when a fetch fails
//   - Applies responses in dispatch order, never arrival order
//   - Applies nothing after Stop, including responses already in flight
//
// Refresh and Exec run out-of-band on the caller's goroutine and share the
// loop's sequence numbers. Neither shifts the ticker phase.
package poller
