// Package nodeconfig implements the Config Mutator (component D): the
// context=…;key=… parameter tuple applied to live configuration, with
// per-key validation, cross-field constraints, edition gates, and
// concurrency ordering guarantees (spec.md 4.D, 5).
package nodeconfig

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/cuemby/infod/pkg/types"
)

// ProcessState is the process-wide configuration tier: threads,
// thresholds, timeouts, feature toggles.
type ProcessState struct {
	InfoThreads                int
	TickerIntervalSeconds      int
	ServiceThreads             int
	CPUPinning                 bool
	DefaultTTLReaperConfigured bool
	DefaultTTLOptOut           bool
	LatencyHistogramEnabled    bool
}

func defaultProcessState() *ProcessState {
	return &ProcessState{
		InfoThreads:           8,
		TickerIntervalSeconds: 1,
		ServiceThreads:        16,
	}
}

// NamespaceState is the per-namespace configuration tier. MaxWriteCacheLen
// is derived from MaxWriteCacheBytes: the mutator must publish the derived
// field first and the primary field last under release ordering, so a
// concurrent lock-free reader observes either the fully-old or
// fully-new pair, never a torn combination (spec.md 4.D, 5).
type NamespaceState struct {
	Name                string
	MemoryBytes         int64
	ReplicationFactor   int
	DefaultTTL          time.Duration
	StrongConsistency   bool
	CompressionOn       bool
	PendingQuiesce      bool
	MaxWriteCacheBytes  int64
	MaxWriteCacheLen    int64 // derived: MaxWriteCacheBytes / recordSizeEstimate
}

func (n *NamespaceState) clone() *NamespaceState {
	c := *n
	return &c
}

// Mutator owns the live process and per-namespace configuration state.
// All config-set calls serialize on mu; reads never take mu — they load an
// atomic snapshot pointer, matching the "readers of configuration do not
// lock" contract in spec.md 4.D.
type Mutator struct {
	mu sync.Mutex

	process    atomic.Pointer[ProcessState]
	namespaces sync.Map // string -> *atomic.Pointer[NamespaceState]

	edition types.Edition
	cpuCount int

	// OnResizeThreads is invoked with the info-threads count whenever
	// info-threads or service-threads is mutated, wiring the config
	// change through to the dispatcher's worker pool (component H).
	OnResizeThreads func(threads int)

	// OnHistogramClear is invoked with a histogram name whenever its
	// enablement flag transitions, per the state-machine rule in
	// spec.md 4.D: clear-before-enable, clear-after-disable.
	OnHistogramClear func(name string)

	// OnConfigApplied is invoked after a config-set call has been applied
	// successfully, letting an external collaborator (e.g. an audit-event
	// broker) observe accepted mutations without polling config-get.
	OnConfigApplied func(context, key, value string)
}

// New returns a Mutator seeded with default process state and edition.
func New(edition types.Edition, cpuCount int) *Mutator {
	m := &Mutator{edition: edition, cpuCount: cpuCount}
	m.process.Store(defaultProcessState())
	return m
}

// Process returns the current process configuration snapshot. Safe to call
// without synchronization; it is never mutated in place.
func (m *Mutator) Process() *ProcessState {
	return m.process.Load()
}

// Namespace returns the current snapshot for ns, creating a zero-valued one
// on first access (matching the source's lazy per-namespace config table).
func (m *Mutator) Namespace(ns string) *NamespaceState {
	if v, ok := m.namespaces.Load(ns); ok {
		return v.(*atomic.Pointer[NamespaceState]).Load()
	}
	ptr := &atomic.Pointer[NamespaceState]{}
	ptr.Store(&NamespaceState{Name: ns})
	actual, _ := m.namespaces.LoadOrStore(ns, ptr)
	return actual.(*atomic.Pointer[NamespaceState]).Load()
}

func (m *Mutator) namespacePtr(ns string) *atomic.Pointer[NamespaceState] {
	if v, ok := m.namespaces.Load(ns); ok {
		return v.(*atomic.Pointer[NamespaceState])
	}
	ptr := &atomic.Pointer[NamespaceState]{}
	ptr.Store(&NamespaceState{Name: ns})
	actual, _ := m.namespaces.LoadOrStore(ns, ptr)
	return actual.(*atomic.Pointer[NamespaceState])
}
