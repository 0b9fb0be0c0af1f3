// Package live implements the Live Event Channel component.
//
// A Channel holds one WebSocket connection to the agent's push endpoint:
//   - States move connecting -> open -> closed
//   - Frames that are not valid JSON are dropped without a state change
//   - Valid frames only replace LastMessage; they never touch polled data
//   - Close is idempotent and nothing changes after it returns
//
// By default a lost connection stays closed. Reconnect.Enabled turns on
// bounded exponential backoff with jitter.
package live
