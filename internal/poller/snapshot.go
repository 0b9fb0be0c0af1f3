package poller

import "time"

// Snapshot is the latest known state of a polled resource.
type Snapshot[T any] struct {
	Value     T         `json:"value"`
	HasValue  bool      `json:"has_value"`       // false until the first successful fetch
	Err       string    `json:"error,omitempty"` // message of the most recent failure, "" after a success
	Loading   bool      `json:"loading"`         // true from Start until the first response is applied
	FetchedAt time.Time `json:"fetched_at"`      // time of the last successful fetch
	Seq       uint64    `json:"seq"`             // sequence number of the applied response
}

// Stale reports whether the snapshot holds a value alongside a newer error.
func (s Snapshot[T]) Stale() bool {
	return s.HasValue && s.Err != ""
}
