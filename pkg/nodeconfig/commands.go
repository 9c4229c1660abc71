package nodeconfig

import (
	"sort"

	"github.com/cuemby/infod/pkg/dynbuf"
	"github.com/cuemby/infod/pkg/paramstr"
)

// Namespaces returns the names of every namespace this Mutator has seen a
// config-set for, sorted for stable output.
func (m *Mutator) Namespaces() []string {
	var out []string
	m.namespaces.Range(func(k, _ interface{}) bool {
		out = append(out, k.(string))
		return true
	})
	sort.Strings(out)
	return out
}

// QuiesceAll sets pending_quiesce on every known namespace (spec.md 8
// scenario 4).
func (m *Mutator) QuiesceAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ns := range m.Namespaces() {
		ptr := m.namespacePtr(ns)
		next := ptr.Load().clone()
		next.PendingQuiesce = true
		ptr.Store(next)
	}
}

// UnquiesceAll clears pending_quiesce on every known namespace.
func (m *Mutator) UnquiesceAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ns := range m.Namespaces() {
		ptr := m.namespacePtr(ns)
		next := ptr.Load().clone()
		next.PendingQuiesce = false
		ptr.Store(next)
	}
}

// RenderServiceConfig appends the service-context configuration as
// key=value; pairs, matching config-get's expected round-trip form
// (spec.md 8 scenario 2).
func (m *Mutator) RenderServiceConfig(buf *dynbuf.Buf) {
	p := m.Process()
	buf.AppendPairInt("ticker-interval", int64(p.TickerIntervalSeconds))
	buf.AppendPairInt("info-threads", int64(p.InfoThreads))
	buf.AppendPairInt("service-threads", int64(p.ServiceThreads))
	buf.AppendPairBool("cpu-pinning", p.CPUPinning)
	buf.AppendPairBool("latency-histogram", p.LatencyHistogramEnabled)
	buf.Chomp(';')
}

// RenderNamespaceConfig appends ns's configuration as key=value; pairs.
func (m *Mutator) RenderNamespaceConfig(ns string, buf *dynbuf.Buf) {
	n := m.Namespace(ns)
	buf.AppendPairInt("memory-size", n.MemoryBytes)
	buf.AppendPairInt("replication-factor", int64(n.ReplicationFactor))
	buf.AppendPairInt("default-ttl", int64(n.DefaultTTL.Seconds()))
	buf.AppendPairBool("strong-consistency", n.StrongConsistency)
	buf.AppendPairBool("compression", n.CompressionOn)
	buf.AppendPairBool("pending_quiesce", n.PendingQuiesce)
	buf.Chomp(';')
}

// ConfigGet is the config-get command handler: renders the configuration
// for the requested context (and, for namespace, the requested namespace).
func (m *Mutator) ConfigGet(_ string, params paramstr.Params, buf *dynbuf.Buf) error {
	ctx := params.GetDefault("context", "service")
	switch ctx {
	case "namespace":
		ns := params.GetDefault("id", "")
		m.RenderNamespaceConfig(ns, buf)
	default:
		m.RenderServiceConfig(buf)
	}
	return nil
}

// ConfigSet is the config-set command handler, dispatching to
// Set/SetNamespace based on the context parameter.
func (m *Mutator) ConfigSet(_ string, params paramstr.Params, buf *dynbuf.Buf) error {
	ctx := params.GetDefault("context", "")
	all := params.All()
	delete(all, "context")
	delete(all, "id")

	var applyErr error
	if ctx == "namespace" {
		ns := params.GetDefault("id", "")
		for k, v := range all {
			if err := m.SetNamespace(ns, k, v); err != nil {
				applyErr = err
				break
			}
		}
	} else {
		for k, v := range all {
			if err := m.Set(ctx, k, v); err != nil {
				applyErr = err
				break
			}
		}
	}

	if applyErr != nil {
		buf.AppendString("error")
		return applyErr
	}
	buf.AppendString("ok")
	return nil
}
