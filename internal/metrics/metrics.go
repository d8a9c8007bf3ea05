package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Poll kinds.
const (
	KindLive    = "live"
	KindHistory = "history"
)

// Poll results.
const (
	ResultOK      = "ok"
	ResultNoData  = "no_data"
	ResultError   = "error"
	ResultSkipped = "skipped"
	ResultStale   = "stale"
)

// Snapshot operation results.
const (
	SnapshotOK       = "ok"
	SnapshotNotFound = "not_found"
	SnapshotCorrupt  = "corrupt"
	SnapshotError    = "error"
)

// Metrics holds the monitor's collectors. A nil *Metrics is valid and
// records nothing, which keeps tests and library callers free of registries.
type Metrics struct {
	polls          *prometheus.CounterVec
	fetchDuration  *prometheus.HistogramVec
	historyLen     prometheus.Gauge
	line1          prometheus.Gauge
	aerators       prometheus.Gauge
	snapshotOps    *prometheus.CounterVec
	deviceChanges  prometheus.Counter
	lastLiveUpdate prometheus.Gauge
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		polls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pondmon_polls_total",
			Help: "Poll outcomes by kind and result.",
		}, []string{"kind", "result"}),
		fetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pondmon_fetch_duration_seconds",
			Help:    "Device API request latency.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 10),
		}, []string{"kind"}),
		historyLen: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "pondmon_history_readings",
			Help: "Readings currently held in the history window.",
		}),
		line1: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "pondmon_live_line1_amperes",
			Help: "Latest live line 1 current.",
		}),
		aerators: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "pondmon_aerators_running",
			Help: "Estimated running aerators from the latest live reading.",
		}),
		snapshotOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pondmon_snapshot_operations_total",
			Help: "History snapshot loads and saves by result.",
		}, []string{"op", "result"}),
		deviceChanges: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pondmon_device_changes_total",
			Help: "Device id changes applied by the session.",
		}),
		lastLiveUpdate: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "pondmon_live_last_update_timestamp_seconds",
			Help: "Wall clock time of the latest applied live reading.",
		}),
	}

	reg.MustRegister(
		m.polls,
		m.fetchDuration,
		m.historyLen,
		m.line1,
		m.aerators,
		m.snapshotOps,
		m.deviceChanges,
		m.lastLiveUpdate,
	)

	return m
}

// Poll records the outcome of one poll.
func (m *Metrics) Poll(kind, result string) {
	if m == nil {
		return
	}
	m.polls.WithLabelValues(kind, result).Inc()
}

// ObserveFetch records a device API round trip.
func (m *Metrics) ObserveFetch(kind string, d time.Duration) {
	if m == nil {
		return
	}
	m.fetchDuration.WithLabelValues(kind).Observe(d.Seconds())
}

// SetHistoryLen records the window size.
func (m *Metrics) SetHistoryLen(n int) {
	if m == nil {
		return
	}
	m.historyLen.Set(float64(n))
}

// SetLive records the latest live reading.
func (m *Metrics) SetLive(line1 float64, aerators int, at time.Time) {
	if m == nil {
		return
	}
	m.line1.Set(line1)
	m.aerators.Set(float64(aerators))
	m.lastLiveUpdate.Set(float64(at.Unix()))
}

// Snapshot records a snapshot load or save.
func (m *Metrics) Snapshot(op, result string) {
	if m == nil {
		return
	}
	m.snapshotOps.WithLabelValues(op, result).Inc()
}

// DeviceChanged records a device switch.
func (m *Metrics) DeviceChanged() {
	if m == nil {
		return
	}
	m.deviceChanges.Inc()
}
