package cluster

import (
	"strconv"
	"strings"

	"github.com/cuemby/infod/pkg/dynbuf"
	"github.com/cuemby/infod/pkg/infoerr"
	"github.com/cuemby/infod/pkg/paramstr"
	"github.com/cuemby/infod/pkg/smd"
	"github.com/cuemby/infod/pkg/types"
)

// Replicas implements the replicas/replicas-max/replicas-all commands. A
// single-node bootstrap has no partition-to-replica map (that belongs to
// the exchange subsystem spec.md's Non-goals exclude), so the descriptor
// for a namespace is derived from its roster entry: the first node listed
// is "master", every other node is a replica, colon-joined as the
// original's replica descriptor is.
type Replicas struct {
	smd *smd.SMD
}

func NewReplicas(s *smd.SMD) *Replicas {
	return &Replicas{smd: s}
}

// Replicas renders the master plus every replica node for the requested
// namespace, unbounded.
func (r *Replicas) Replicas(_ string, params paramstr.Params, buf *dynbuf.Buf) error {
	return r.render(params, buf, 0)
}

// ReplicasMax renders the master plus replicas, bounded by the "max"
// parameter (spec.md SUPPLEMENTED FEATURES).
func (r *Replicas) ReplicasMax(_ string, params paramstr.Params, buf *dynbuf.Buf) error {
	max := 0
	if maxStr := params.GetDefault("max", ""); maxStr != "" {
		parsed, err := strconv.Atoi(maxStr)
		if err != nil || parsed < 0 {
			return infoerr.Newf(infoerr.BadParam, "invalid max: %s", maxStr)
		}
		max = parsed
	}
	return r.render(params, buf, max)
}

// ReplicasAll renders every node in the roster, unbounded.
func (r *Replicas) ReplicasAll(_ string, params paramstr.Params, buf *dynbuf.Buf) error {
	return r.render(params, buf, 0)
}

func (r *Replicas) render(params paramstr.Params, buf *dynbuf.Buf, max int) error {
	ns, _ := params.Get("namespace", 128)
	if ns == "" {
		return infoerr.New(infoerr.BadParam, "missing required parameter: namespace")
	}
	value, ok := r.rosterValue(ns)
	if !ok {
		return infoerr.Newf(infoerr.NotFound, "no roster entry for namespace: %s", ns)
	}

	nodes := strings.Split(value, ",")
	if max > 0 && len(nodes) > max {
		nodes = nodes[:max]
	}
	for i, n := range nodes {
		if i > 0 {
			buf.AppendByte(':')
		}
		buf.AppendString(n)
	}
	return nil
}

func (r *Replicas) rosterValue(ns string) (string, bool) {
	records, err := r.smd.Snapshot(types.SMDModuleRoster)
	if err != nil {
		return "", false
	}
	for _, rec := range records {
		if rec.Key == ns {
			return rec.Value, true
		}
	}
	return "", false
}
