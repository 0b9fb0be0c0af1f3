package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "dashsync"

// Result labels shared across collectors.
const (
	ResultOK      = "ok"
	ResultError   = "error"
	ResultBusy    = "busy"
	ResultDropped = "dropped"
)

// Metrics holds every collector exported by the sync layer.
type Metrics struct {
	pollFetches   *prometheus.CounterVec
	pollStale     *prometheus.CounterVec
	pollDuration  *prometheus.HistogramVec
	actions       *prometheus.CounterVec
	liveConnected prometheus.Gauge
	liveFrames    *prometheus.CounterVec
	archiveRows   *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
// Registration panics on duplicate registration, like prometheus.MustRegister.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		pollFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "poll",
			Name:      "fetches_total",
			Help:      "Completed resource fetches by resource and result.",
		}, []string{"resource", "result"}),
		pollStale: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "poll",
			Name:      "stale_discarded_total",
			Help:      "Responses discarded because a newer one was applied or the poller was stopped.",
		}, []string{"resource"}),
		pollDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "poll",
			Name:      "fetch_seconds",
			Help:      "Fetch latency by resource.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"resource"}),
		actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "action",
			Name:      "invocations_total",
			Help:      "Control action invocations by action and result.",
		}, []string{"action", "result"}),
		liveConnected: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "live",
			Name:      "connected",
			Help:      "1 while the push channel is open.",
		}),
		liveFrames: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "live",
			Name:      "frames_total",
			Help:      "Push frames received by result.",
		}, []string{"result"}),
		archiveRows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "archive",
			Name:      "rows_total",
			Help:      "Archived trade rows by result.",
		}, []string{"result"}),
	}

	if reg != nil {
		reg.MustRegister(
			m.pollFetches,
			m.pollStale,
			m.pollDuration,
			m.actions,
			m.liveConnected,
			m.liveFrames,
			m.archiveRows,
		)
	}

	return m
}

// ObserveFetch records one completed fetch.
func (m *Metrics) ObserveFetch(resource string, err error, d time.Duration) {
	if m == nil {
		return
	}
	m.pollFetches.WithLabelValues(resource, result(err)).Inc()
	m.pollDuration.WithLabelValues(resource).Observe(d.Seconds())
}

// StaleDiscarded records a response that was not applied.
func (m *Metrics) StaleDiscarded(resource string) {
	if m == nil {
		return
	}
	m.pollStale.WithLabelValues(resource).Inc()
}

// ObserveAction records one action invocation.
func (m *Metrics) ObserveAction(action, res string) {
	if m == nil {
		return
	}
	m.actions.WithLabelValues(action, res).Inc()
}

// SetConnected sets the push channel gauge.
func (m *Metrics) SetConnected(connected bool) {
	if m == nil {
		return
	}
	if connected {
		m.liveConnected.Set(1)
	} else {
		m.liveConnected.Set(0)
	}
}

// ObserveFrame records one received push frame.
func (m *Metrics) ObserveFrame(res string) {
	if m == nil {
		return
	}
	m.liveFrames.WithLabelValues(res).Inc()
}

// ObserveArchive records archived rows.
func (m *Metrics) ObserveArchive(inserted, conflicts int) {
	if m == nil {
		return
	}
	m.archiveRows.WithLabelValues("inserted").Add(float64(inserted))
	m.archiveRows.WithLabelValues("conflict").Add(float64(conflicts))
}

func result(err error) string {
	if err != nil {
		return ResultError
	}
	return ResultOK
}
