package dispatch

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// RequestDuration records per-request latency from arrival to reply
	// flush, per spec.md 4.H step 7.
	RequestDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "infod",
		Subsystem: "dispatch",
		Name:      "request_duration_seconds",
		Help:      "Latency of a single Info-plane request from arrival to reply flush.",
		Buckets:   prometheus.DefBuckets,
	})

	// RequestsTotal counts completed requests.
	RequestsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "infod",
		Subsystem: "dispatch",
		Name:      "requests_total",
		Help:      "Total number of completed Info-plane requests.",
	})

	// ConnectionsOpened and ConnectionsClosed are the paired
	// opened/closed counters from spec.md 5: gauges built from them must
	// read closed before opened, so the derived "open" count never goes
	// negative.
	ConnectionsOpened = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "infod",
		Subsystem: "dispatch",
		Name:      "connections_opened_total",
		Help:      "Total connections accepted.",
	})
	ConnectionsClosed = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "infod",
		Subsystem: "dispatch",
		Name:      "connections_closed_total",
		Help:      "Total connections closed.",
	})

	// WorkerPoolSize is the live worker-pool gauge, set by the Pool
	// whenever a worker is spawned or exits.
	WorkerPoolSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "infod",
		Subsystem: "dispatch",
		Name:      "worker_pool_size",
		Help:      "Current live worker count in the dispatch pool.",
	})
)

func init() {
	prometheus.MustRegister(RequestDuration, RequestsTotal, ConnectionsOpened, ConnectionsClosed, WorkerPoolSize)
}

// opened and closed mirror ConnectionsOpened/ConnectionsClosed as plain
// atomics so the gauge in OpenConnections can be computed without reaching
// into the Prometheus counter internals.
var (
	opened atomic.Uint64
	closed atomic.Uint64
)

// RecordConnectionOpened increments both the exported counter and the
// internal accounting used by OpenConnections.
func RecordConnectionOpened() {
	opened.Add(1)
	ConnectionsOpened.Inc()
}

// RecordConnectionClosed increments the closed counter first in program
// order; OpenConnections always reads closed before opened, matching the
// pairing rule in spec.md 5 and 8 (open gauge never negative).
func RecordConnectionClosed() {
	closed.Add(1)
	ConnectionsClosed.Inc()
}

// OpenConnections computes the paired-counter gauge: closed is read before
// opened so a racing pair of updates can only over-report, never go
// negative.
func OpenConnections() int64 {
	c := closed.Load()
	o := opened.Load()
	return int64(o) - int64(c)
}
