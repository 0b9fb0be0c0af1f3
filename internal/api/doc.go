// Package api provides the client for the trading agent's dashboard API.
//
// REST endpoints live under the /api prefix:
//   - GET  /status, /performance, /exposure, /positions, /trades?limit=N, /arbitrage
//   - POST /arbitrage/scan
//   - POST /control/start, /control/stop, /control/dry-run/{true|false}
//
// Push channel:
//   - ws(s)://<host>/ws
//
// Requests are never retried. Failures surface as *NetworkError, *HTTPError
// or *DecodeError.
package api
