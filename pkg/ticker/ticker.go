// Package ticker implements the Ticker (component E): a dedicated loop
// that, once per configured interval, computes per-interval rates and
// emits a structured multi-line frame to the log. The loop shape —
// time.NewTicker plus a select over the ticker channel and a stop
// channel, with an immediate first tick.
package ticker

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/cuemby/infod/pkg/log"
	"github.com/cuemby/infod/pkg/stats"
)

// DefaultInterval is the ticker's default period, per spec.md 4.E.
const DefaultInterval = time.Second

// RatePublisher is implemented by a stats.Source that can also receive the
// Ticker's computed per-interval rates, so the Stats Collector reads a
// published rate instead of recomputing it from the raw cumulative counter
// (spec.md 4.E: "stores the result in global publishable fields").
type RatePublisher interface {
	PublishFabricRate(bytesPerSec float64)
}

// Ticker runs the periodic frame-emission loop. The zero value is not
// usable; construct with New.
type Ticker struct {
	interval time.Duration
	source   stats.Source
	nodeID   string

	mu       sync.Mutex
	prevFabricBytes uint64
	prevCaptured    time.Time

	stopCh chan struct{}
	doneCh chan struct{}
}

// New returns a Ticker that reads from source every interval. interval <= 0
// is replaced with DefaultInterval.
func New(nodeID string, interval time.Duration, source stats.Source) *Ticker {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Ticker{
		interval: interval,
		source:   source,
		nodeID:   nodeID,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins the ticker loop in a new goroutine. It emits one frame
// immediately, then one per interval, until Stop is called.
func (t *Ticker) Start() {
	go func() {
		defer close(t.doneCh)
		tk := time.NewTicker(t.interval)
		defer tk.Stop()

		t.emitFrame()
		for {
			select {
			case <-tk.C:
				// Observing shutdown here, rather than after the
				// select fires, would still let a frame through once
				// shutdown starts; check first so the ticker exits
				// before emitting a partial frame (spec.md 4.E).
				select {
				case <-t.stopCh:
					return
				default:
				}
				t.emitFrame()
			case <-t.stopCh:
				return
			}
		}
	}()
}

// Stop signals the loop to exit and blocks until it has.
func (t *Ticker) Stop() {
	close(t.stopCh)
	<-t.doneCh
}

// SetInterval changes the ticker's period. Start reads the period once, so
// this only affects a Ticker that has not been started yet; a running loop
// keeps the period it started with.
func (t *Ticker) SetInterval(d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if d > 0 {
		t.interval = d
	}
}

func (t *Ticker) emitFrame() {
	now := time.Now()
	snap := t.source.Snapshot()

	elapsed := t.elapsedSeconds(now)
	fabricRate := t.fabricRate(snap.FabricBytes, elapsed)
	if pub, ok := t.source.(RatePublisher); ok {
		pub.PublishFabricRate(fabricRate)
	}

	logger := log.WithComponent("ticker")

	logger.Info().
		Str("node_id", t.nodeID).
		Int("cluster_size", snap.ClusterSize).
		Msg("system: node identity and cluster size")

	if len(snap.ClockSkewOutliers) > 0 {
		logger.Info().Strs("outliers", snap.ClockSkewOutliers).Msg("system: clock skew outliers")
	}

	logger.Info().
		Float64("cpu_pct", snap.SystemCPUPercent).
		Int64("mem_bytes", snap.SystemMemoryBytes).
		Msg("system: cpu/memory")

	logger.Info().
		Float64("process_cpu_pct", snap.ProcessCPUPercent).
		Int64("heap_bytes", snap.ProcessHeapBytes).
		Int("threads", snap.ProcessThreads).
		Msg("process: cpu/heap/threads")

	logger.Info().Int("depth", snap.InProgressQueueDepth).Msg("in-progress: queue depth")

	for class, count := range snap.FDGaugesByClass {
		logger.Info().Str("class", class).Int64("fds", count).Msg("fds: per-connection-class gauge")
	}

	logger.Info().
		Uint64("hb_rx", snap.HeartbeatRx).
		Uint64("hb_tx", snap.HeartbeatTx).
		Msg("heartbeat: traffic counters")

	logger.Info().Float64("fabric_bytes_per_sec", fabricRate).Msg("fabric: byte rate")

	if snap.EarlyFailures > 0 {
		logger.Info().Uint64("count", snap.EarlyFailures).Msg("early-failures")
	}
	if snap.BatchIndexCounters > 0 {
		logger.Info().Uint64("count", snap.BatchIndexCounters).Msg("batch-index")
	}

	for _, ns := range snap.Namespaces {
		t.emitNamespaceLine(logger, ns)
	}
}

// emitNamespaceLine writes one namespace-scoped line, suppressed when all
// counters are zero except `objects`, which is always emitted (spec.md 4.E).
func (t *Ticker) emitNamespaceLine(logger zerolog.Logger, ns stats.NamespaceFrame) {
	if ns.IsZero() {
		logger.Info().Str("namespace", ns.Name).Uint64("objects", ns.Objects).Msg("namespace: objects")
		return
	}

	nsLogger := log.WithNamespace(ns.Name)
	nsLogger.Info().Uint64("objects", ns.Objects).Uint64("tombstones", ns.Tombstones).Msg("namespace: objects")

	if ns.MigrationsTotal > 0 {
		pct := float64(ns.MigrationsDone) / float64(ns.MigrationsTotal) * 100
		nsLogger.Info().Uint64("total", ns.MigrationsTotal).Uint64("done", ns.MigrationsDone).Float64("pct", pct).Msg("namespace: migrations")
	}
	if ns.MemoryUsedBytes > 0 {
		nsLogger.Info().Int64("bytes", ns.MemoryUsedBytes).Msg("namespace: memory")
	}
	if ns.DeviceUsedBytes > 0 {
		nsLogger.Info().Int64("bytes", ns.DeviceUsedBytes).Msg("namespace: device usage")
	}
	if ns.ClientTxns > 0 {
		nsLogger.Info().Uint64("txns", ns.ClientTxns).Msg("namespace: client transactions")
	}
	if ns.DuplicateResolve > 0 {
		nsLogger.Info().Uint64("count", ns.DuplicateResolve).Msg("namespace: duplicate resolution")
	}
	if ns.Retransmits > 0 {
		nsLogger.Info().Uint64("count", ns.Retransmits).Msg("namespace: retransmits")
	}
	if ns.ReRepl > 0 {
		nsLogger.Info().Uint64("count", ns.ReRepl).Msg("namespace: re-replication")
	}
	if ns.SpecialErrors > 0 {
		nsLogger.Info().Uint64("count", ns.SpecialErrors).Msg("namespace: special errors")
	}
}

func (t *Ticker) elapsedSeconds(now time.Time) float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.prevCaptured.IsZero() {
		t.prevCaptured = now
		return 1
	}
	d := now.Sub(t.prevCaptured).Seconds()
	t.prevCaptured = now
	if d < 1 {
		// Rates are never infinite: floor the divisor to 1 second
		// (spec.md 4.E, 8).
		return 1
	}
	return d
}

// fabricRate computes the per-interval delta of a monotonic byte counter
// divided by the elapsed wall-clock seconds, floored to 1s.
func (t *Ticker) fabricRate(current uint64, elapsedSeconds float64) float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	prev := t.prevFabricBytes
	t.prevFabricBytes = current
	if current < prev {
		// Counter reset (process restart of the producer); report 0
		// rather than a negative rate.
		return 0
	}
	delta := current - prev
	return float64(delta) / elapsedSeconds
}
