// Package cluster implements the handful of cluster-facing commands
// supplemented from original_source/as/src/base/thr_info.c that spec.md's
// clustering/exchange Non-goal leaves out of scope for topology itself but
// does not exclude as commands: cluster-stable and the replicas family.
// A single-node bootstrap has no real partition-replica map to report, so
// these are grounded on the roster SMD module (the one piece of
// cluster-membership state this plane actually owns) rather than on a
// fabricated topology.
package cluster

import (
	"strconv"

	"github.com/cuemby/infod/pkg/dynbuf"
	"github.com/cuemby/infod/pkg/infoerr"
	"github.com/cuemby/infod/pkg/paramstr"
	"github.com/cuemby/infod/pkg/stats"
	"github.com/cuemby/infod/pkg/types"
)

// Cluster holds the cluster key cluster-stable snapshots before and after
// its migration check, per the original's "snapshot the key, check
// migration state, re-snapshot, reject if the key moved" sequence.
type Cluster struct {
	source stats.Source
	key    types.ClusterKey
}

func New(source stats.Source, key types.ClusterKey) *Cluster {
	return &Cluster{source: source, key: key}
}

// Key returns the cluster's current key, for collaborators (the exchange
// subsystem, out of this plane's scope) that bump it on topology change.
func (c *Cluster) Key() types.ClusterKey {
	return c.key
}

// Stable implements cluster-stable: optional size, ignore-migrations, and
// namespace parameters. It rejects with unstable-cluster if the observed
// cluster size doesn't match an expected size, or if migrations are
// in-flight for the checked scope and ignore-migrations wasn't requested.
func (c *Cluster) Stable(_ string, params paramstr.Params, buf *dynbuf.Buf) error {
	before := c.key
	frame := c.source.Snapshot()

	if sizeStr := params.GetDefault("size", ""); sizeStr != "" {
		expected, err := strconv.Atoi(sizeStr)
		if err != nil || expected < 0 {
			return infoerr.Newf(infoerr.BadParam, "invalid size: %s", sizeStr)
		}
		if frame.ClusterSize != expected {
			return infoerr.New(infoerr.Conflict, "unstable-cluster")
		}
	}

	ignoreMigrations := params.GetDefault("ignore-migrations", "false") == "true"
	if !ignoreMigrations {
		ns := params.GetDefault("namespace", "")
		for _, n := range frame.Namespaces {
			if ns != "" && n.Name != ns {
				continue
			}
			if n.MigrationsDone < n.MigrationsTotal {
				return infoerr.New(infoerr.Conflict, "unstable-cluster")
			}
		}
	}

	if c.key != before {
		return infoerr.New(infoerr.Conflict, "unstable-cluster")
	}

	buf.AppendUintHex(uint64(c.key))
	return nil
}
