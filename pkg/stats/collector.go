package stats

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/cuemby/infod/pkg/dynbuf"
	"github.com/cuemby/infod/pkg/infoerr"
	"github.com/cuemby/infod/pkg/nodeconfig"
	"github.com/cuemby/infod/pkg/types"
)

// Collector assembles the `statistics` endpoint and `namespace/<n>` tree
// endpoint, pulling from Source for live counters and from a
// best-practices reporter for the small dynamic endpoint supplemented from
// original_source/ (spec.md SUPPLEMENTED FEATURES).
type Collector struct {
	source  Source
	mutator *nodeconfig.Mutator

	opened atomic.Uint64
	closed atomic.Uint64

	badPractices func() []string
}

func New(source Source) *Collector {
	return &Collector{source: source, badPractices: func() []string { return nil }}
}

// SetBadPracticesReporter installs the callback info_get_best_practices
// stands in for: a list of outstanding best-practice violation messages,
// empty when none are outstanding.
func (c *Collector) SetBadPracticesReporter(fn func() []string) {
	c.badPractices = fn
}

// SetMutator attaches the Config Mutator NamespaceTree renders per-namespace
// configuration fields from. Optional; nil omits those fields from the
// tree's output.
func (c *Collector) SetMutator(m *nodeconfig.Mutator) {
	c.mutator = m
}

// RecordOpened and RecordClosed track paired connection-lifecycle counters.
// OpenGauge always reads closed before opened (spec.md 5, 8): the "open"
// gauge derived from this pairing can only over-report during a race,
// never go negative.
func (c *Collector) RecordOpened() { c.opened.Add(1) }
func (c *Collector) RecordClosed() { c.closed.Add(1) }

func (c *Collector) OpenGauge() int64 {
	closed := int64(c.closed.Load())
	opened := int64(c.opened.Load())
	return opened - closed
}

var (
	namespaceObjects = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "infod",
		Subsystem: "stats",
		Name:      "namespace_objects",
		Help:      "Object count per namespace, mirrored from the statistics endpoint.",
	}, []string{"namespace"})

	openConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "infod",
		Subsystem: "stats",
		Name:      "open_connections",
		Help:      "Open connections, derived from paired opened/closed counters.",
	})
)

func init() {
	prometheus.MustRegister(namespaceObjects, openConnections)
}

// Statistics is the `statistics` endpoint's dynamic handler: a long
// key=value; list built from the live Frame. Compression ratio is not
// part of this list; NamespaceTree renders it per namespace.
func (c *Collector) Statistics(_ string, buf *dynbuf.Buf) error {
	f := c.source.Snapshot()

	openConnections.Set(float64(c.OpenGauge()))

	buf.AppendPairInt("cluster_size", int64(f.ClusterSize))
	buf.AppendPairInt("open_connections", c.OpenGauge())
	buf.AppendPairUint("heartbeat_rx", f.HeartbeatRx)
	buf.AppendPairUint("heartbeat_tx", f.HeartbeatTx)
	buf.AppendPairFloat("fabric_bytes_per_sec", f.FabricBytesPerSec, 2)
	buf.AppendPairUint("early_failures", f.EarlyFailures)
	buf.AppendPairUint("batch_index", f.BatchIndexCounters)

	for _, ns := range f.Namespaces {
		namespaceObjects.WithLabelValues(ns.Name).Set(float64(ns.Objects))
	}

	buf.Chomp(';')
	return nil
}

// BestPractices is the best-practices dynamic endpoint supplemented from
// original_source/as/src/base/thr_info.c's info_get_best_practices: it
// reports the literal "none" when no violations are outstanding, and the
// comma-joined messages otherwise.
func (c *Collector) BestPractices(_ string, buf *dynbuf.Buf) error {
	items := c.badPractices()
	if len(items) == 0 {
		buf.AppendString("none")
		return nil
	}
	buf.AppendString(dynbuf.Join(items, ","))
	return nil
}

// NamespaceTree is the `namespace/<n>` tree endpoint: a key=value; list for
// one namespace, including its compression ratio and the NamespaceConfig
// fields the Config Mutator owns.
func (c *Collector) NamespaceTree(_ string, subtree string, buf *dynbuf.Buf) error {
	f := c.source.Snapshot()
	for _, ns := range f.Namespaces {
		if ns.Name != subtree {
			continue
		}
		buf.AppendPairUint("objects", ns.Objects)
		buf.AppendPairUint("tombstones", ns.Tombstones)
		buf.AppendPairInt("memory_used_bytes", ns.MemoryUsedBytes)
		buf.AppendPairInt("device_used_bytes", ns.DeviceUsedBytes)
		ratio := CompressionRatio(types.NamespaceStats{AvgCompSize: ns.AvgCompSize, AvgOrigSize: ns.AvgOrigSize})
		buf.AppendPairFloat("compression_ratio", ratio, 3)
		if c.mutator != nil {
			cfg := c.mutator.Namespace(subtree)
			buf.AppendPairInt("replication-factor", int64(cfg.ReplicationFactor))
			buf.AppendPairBool("strong-consistency", cfg.StrongConsistency)
			buf.AppendPairBool("compression", cfg.CompressionOn)
			buf.AppendPairBool("pending_quiesce", cfg.PendingQuiesce)
		}
		buf.Chomp(';')
		return nil
	}
	return infoerr.Newf(infoerr.NotFound, "unknown namespace: %s", subtree)
}

// CompressionRatio is the namespace tree's compression ratio: the
// zero-denominator convention of types.NamespaceStats.CompressionRatio
// (spec.md 4.F).
func CompressionRatio(n types.NamespaceStats) float64 {
	return n.CompressionRatio()
}
