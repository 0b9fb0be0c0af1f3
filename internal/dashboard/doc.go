// Package dashboard derives the small read models the dashboard shows next to
// the polled snapshots: arbitrage summary, position P&L percent, uptime text
// and a bounded history of portfolio value.
package dashboard
