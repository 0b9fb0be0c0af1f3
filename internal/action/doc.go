// Package action implements the Action Invoker component.
//
// Each named action (start, stop, set-mode, scan) has its own busy guard.
// While an action is in flight, invoking it again returns ErrBusy without
// issuing a call. Errors from the remote call are returned unchanged and
// never retried.
//
// The scan action applies its result through the arbitrage poller, so a
// scan result and a polled cache result never diverge.
package action
