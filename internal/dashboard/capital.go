package dashboard

import (
	"time"

	"github.com/probablyprofit/dashsync/internal/api"
)

// DefaultCapitalPoints is how many portfolio values the chart keeps.
const DefaultCapitalPoints = 30

// CapitalPoint is one portfolio value sample.
type CapitalPoint struct {
	Time  time.Time `json:"time"`
	Value float64   `json:"value"`
}

// CapitalHistory keeps the most recent portfolio values.
type CapitalHistory struct {
	ring *Ring[CapitalPoint]
}

// NewCapitalHistory creates a history of at most points samples.
// Non-positive points selects DefaultCapitalPoints.
func NewCapitalHistory(points int) *CapitalHistory {
	if points <= 0 {
		points = DefaultCapitalPoints
	}
	return &CapitalHistory{ring: NewRing[CapitalPoint](points)}
}

// Record appends the current capital of a performance snapshot.
func (h *CapitalHistory) Record(at time.Time, perf api.PerformanceResponse) {
	h.ring.Push(CapitalPoint{Time: at, Value: perf.CurrentCapital})
}

// Points returns the samples, oldest first.
func (h *CapitalHistory) Points() []CapitalPoint {
	return h.ring.Items()
}

// Latest returns the newest sample.
func (h *CapitalHistory) Latest() (CapitalPoint, bool) {
	return h.ring.Last()
}

// Stats reports how many samples are held and how many were dropped.
func (h *CapitalHistory) Stats() RingStats {
	return h.ring.Stats()
}
