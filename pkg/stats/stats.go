// Package stats implements the Stats Collector (component F): the
// `statistics` endpoint and `namespace/<n>` tree endpoint, plus the
// snapshot type the Ticker (component E) renders into log frames.
package stats

import "github.com/cuemby/infod/pkg/types"

// NamespaceFrame is the subset of a namespace's counters the Ticker prints
// once per frame.
type NamespaceFrame struct {
	Name             string
	Objects          uint64
	Tombstones       uint64
	MigrationsTotal  uint64
	MigrationsDone   uint64
	MemoryUsedBytes  int64
	DeviceUsedBytes  int64
	ClientTxns       uint64
	DuplicateResolve uint64
	Retransmits      uint64
	ReRepl           uint64
	SpecialErrors    uint64
	AvgCompSize      float64
	AvgOrigSize      float64
}

// IsZero reports whether every counter but Objects is zero — the
// suppression predicate for namespace ticker lines (spec.md 4.E: "Each
// namespace line is suppressed when all its counters are zero, except
// objects which is always emitted").
func (n NamespaceFrame) IsZero() bool {
	return n.Tombstones == 0 &&
		n.MigrationsTotal == 0 &&
		n.MigrationsDone == 0 &&
		n.MemoryUsedBytes == 0 &&
		n.DeviceUsedBytes == 0 &&
		n.ClientTxns == 0 &&
		n.DuplicateResolve == 0 &&
		n.Retransmits == 0 &&
		n.ReRepl == 0 &&
		n.SpecialErrors == 0
}

// Frame is the full per-interval snapshot the Ticker consumes.
type Frame struct {
	ClusterSize           int
	ClockSkewOutliers     []string
	SystemCPUPercent      float64
	SystemMemoryBytes     int64
	ProcessCPUPercent     float64
	ProcessHeapBytes      int64
	ProcessThreads        int
	InProgressQueueDepth  int
	FDGaugesByClass       map[string]int64
	HeartbeatRx           uint64
	HeartbeatTx           uint64
	FabricBytes           uint64
	FabricBytesPerSec     float64
	EarlyFailures         uint64
	BatchIndexCounters    uint64
	Namespaces            []NamespaceFrame
}

// Source is the external collaborator the Collector and Ticker pull raw
// counters from — the storage engine, heartbeat subsystem, and process
// runtime are all out-of-scope collaborators named only by this interface
// (spec.md 1).
type Source interface {
	Snapshot() Frame
}
