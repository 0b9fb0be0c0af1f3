// Package session owns everything one dashboard consumer needs: the API
// client, one poller per resource, the action invoker, the push channel and
// the portfolio value history.
//
// A Session is created stopped. Start begins polling and connects the push
// channel in the background; a failed connection only shows up in the
// channel status. Stop tears everything down, after which no snapshot
// changes.
package session
