package stats

import (
	"math"
	"runtime"
	"sync/atomic"

	"github.com/cuemby/infod/pkg/nodeconfig"
)

// NodeSource is the Source the node server wires the Ticker and Collector
// to: process-runtime counters read from the Go runtime, and a per-
// namespace object count this node actually tracks in-process. The storage
// engine, heartbeat subsystem, and fabric transport are out-of-scope
// external collaborators (spec.md 1) — their counters default to zero
// here rather than being fabricated.
type NodeSource struct {
	mutator *nodeconfig.Mutator

	// objects and tombstones are keyed by namespace and updated by
	// whatever in-process write path exercises a namespace; absent
	// entries read as zero.
	objects     map[string]uint64
	tombstones  map[string]uint64
	avgCompSize map[string]float64
	avgOrigSize map[string]float64

	// fabricRate holds the Ticker's most recently published
	// fabric-byte-rate, as math.Float64bits: Statistics reads this
	// published value rather than recomputing it from FabricBytes
	// (spec.md 4.E).
	fabricRate atomic.Uint64
}

func NewNodeSource(mutator *nodeconfig.Mutator) *NodeSource {
	return &NodeSource{
		mutator:     mutator,
		objects:     make(map[string]uint64),
		tombstones:  make(map[string]uint64),
		avgCompSize: make(map[string]float64),
		avgOrigSize: make(map[string]float64),
	}
}

// SetNamespaceCounts installs the live object/tombstone counts for ns,
// overwriting any previous values.
func (s *NodeSource) SetNamespaceCounts(ns string, objects, tombstones uint64) {
	s.objects[ns] = objects
	s.tombstones[ns] = tombstones
}

// SetNamespaceCompression installs the live average-compressed and
// average-original record sizes for ns, used to derive its compression
// ratio (spec.md 4.F).
func (s *NodeSource) SetNamespaceCompression(ns string, avgCompSize, avgOrigSize float64) {
	s.avgCompSize[ns] = avgCompSize
	s.avgOrigSize[ns] = avgOrigSize
}

// PublishFabricRate implements ticker.RatePublisher: it records the
// Ticker's most recently computed fabric-byte rate for Snapshot to include.
func (s *NodeSource) PublishFabricRate(bytesPerSec float64) {
	s.fabricRate.Store(math.Float64bits(bytesPerSec))
}

// Snapshot implements Source. A single-node bootstrap reports ClusterSize
// 1 and zeroed heartbeat/fabric counters — there are no peers to heartbeat
// with until the clustering Non-goal (spec.md's exchange subsystem) is
// implemented by a collaborator outside this plane.
func (s *NodeSource) Snapshot() Frame {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	f := Frame{
		ClusterSize:       1,
		ProcessHeapBytes:  int64(mem.HeapAlloc),
		ProcessThreads:    runtime.NumGoroutine(),
		FabricBytesPerSec: math.Float64frombits(s.fabricRate.Load()),
	}

	for _, ns := range s.mutator.Namespaces() {
		f.Namespaces = append(f.Namespaces, NamespaceFrame{
			Name:        ns,
			Objects:     s.objects[ns],
			Tombstones:  s.tombstones[ns],
			AvgCompSize: s.avgCompSize[ns],
			AvgOrigSize: s.avgOrigSize[ns],
		})
	}
	return f
}
