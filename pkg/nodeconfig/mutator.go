package nodeconfig

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cuemby/infod/pkg/dynbuf"
	"github.com/cuemby/infod/pkg/infoerr"
	"github.com/cuemby/infod/pkg/log"
	"github.com/cuemby/infod/pkg/paramstr"
)

// Set applies value to key within context, enforcing validation,
// cross-field constraints, and edition gates. It returns nil on success
// (wire reply "ok") or a classified error (wire reply "error" — the wire
// body is intentionally opaque; the rejected key is logged locally).
func (m *Mutator) Set(ctx string, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var err error
	switch ctx {
	case "service":
		err = m.setService(key, value)
	case "network":
		err = m.setNetwork(key, value)
	case "namespace":
		err = fmt.Errorf("namespace context requires a namespace target via SetNamespace")
	case "security":
		err = m.setSecurity(key, value)
	case "xdr":
		err = m.setXDR(key, value)
	default:
		err = infoerr.Newf(infoerr.BadParam, "unknown context: %s", ctx)
	}
	if err != nil {
		log.WithComponent("config").Warn().Str("context", ctx).Str("key", key).Str("value", value).Err(err).Msg("config-set rejected")
		return err
	}
	if m.OnConfigApplied != nil {
		m.OnConfigApplied(ctx, key, value)
	}
	return nil
}

// SetNamespace applies value to key within the namespace context for ns.
func (m *Mutator) SetNamespace(ns, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	err := m.setNamespaceKey(ns, key, value)
	if err != nil {
		log.WithComponent("config").Warn().Str("context", "namespace").Str("namespace", ns).Str("key", key).Str("value", value).Err(err).Msg("config-set rejected")
		return err
	}
	if m.OnConfigApplied != nil {
		m.OnConfigApplied("namespace:"+ns, key, value)
	}
	return nil
}

func (m *Mutator) setService(key, value string) error {
	proc := m.Process()
	next := *proc

	switch key {
	case "ticker-interval":
		n, err := parsePositiveInt(value)
		if err != nil {
			return infoerr.Newf(infoerr.BadParam, "ticker-interval: %v", err)
		}
		next.TickerIntervalSeconds = n

	case "info-threads":
		n, err := parsePositiveInt(value)
		if err != nil {
			return infoerr.Newf(infoerr.BadParam, "info-threads: %v", err)
		}
		next.InfoThreads = n

	case "service-threads":
		n, err := parsePositiveInt(value)
		if err != nil {
			return infoerr.Newf(infoerr.BadParam, "service-threads: %v", err)
		}
		if next.CPUPinning && m.cpuCount > 0 && n%m.cpuCount != 0 {
			return infoerr.Newf(infoerr.BadParam, "service-threads must be a multiple of CPU count %d when CPU pinning is enabled", m.cpuCount)
		}
		next.ServiceThreads = n

	case "cpu-pinning":
		b, err := parseBool(value)
		if err != nil {
			return infoerr.Newf(infoerr.BadParam, "cpu-pinning: %v", err)
		}
		next.CPUPinning = b

	case "default-ttl-reaper-configured":
		b, err := parseBool(value)
		if err != nil {
			return infoerr.Newf(infoerr.BadParam, "default-ttl-reaper-configured: %v", err)
		}
		next.DefaultTTLReaperConfigured = b

	case "default-ttl-opt-out":
		b, err := parseBool(value)
		if err != nil {
			return infoerr.Newf(infoerr.BadParam, "default-ttl-opt-out: %v", err)
		}
		next.DefaultTTLOptOut = b

	case "latency-histogram":
		b, err := parseBool(value)
		if err != nil {
			return infoerr.Newf(infoerr.BadParam, "latency-histogram: %v", err)
		}
		m.toggleHistogram(&next, "latency", b)

	default:
		return infoerr.Newf(infoerr.BadParam, "unknown service key: %s", key)
	}

	m.process.Store(&next)
	if (key == "info-threads" || key == "service-threads") && m.OnResizeThreads != nil {
		m.OnResizeThreads(next.InfoThreads)
	}
	return nil
}

// toggleHistogram implements the state-machine rule from spec.md 4.D:
// disabled->enabled clears the histogram first (so the newly-enabled
// histogram starts empty); enabled->disabled clears it after flipping the
// flag (so no stale partial aggregate is ever presented as "current").
func (m *Mutator) toggleHistogram(proc *ProcessState, name string, enable bool) {
	wasEnabled := proc.LatencyHistogramEnabled
	if enable && !wasEnabled {
		if m.OnHistogramClear != nil {
			m.OnHistogramClear(name)
		}
		proc.LatencyHistogramEnabled = true
		return
	}
	if !enable && wasEnabled {
		proc.LatencyHistogramEnabled = false
		if m.OnHistogramClear != nil {
			m.OnHistogramClear(name)
		}
	}
}

func (m *Mutator) setNetwork(key, value string) error {
	switch key {
	case "tip":
		return m.tip(value)
	default:
		return infoerr.Newf(infoerr.BadParam, "unknown network key: %s", key)
	}
}

// tip validates a heartbeat mesh-seed tip request nested inside
// config-set's network context: host must be non-empty, port must parse as
// an integer, tls must parse as a bool. The actual mesh-seed registration
// is the heartbeat subsystem's concern (an out-of-scope external
// collaborator); this records only the validation outcome.
func (m *Mutator) tip(params string) error {
	host, port, tls := "", "", ""
	for _, pair := range strings.Split(params, ";") {
		kv := strings.SplitN(pair, "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch kv[0] {
		case "host":
			host = kv[1]
		case "port":
			port = kv[1]
		case "tls":
			tls = kv[1]
		}
	}
	return validateTip(host, port, tls)
}

// Tip is the top-level `tip` command (spec.md 8 scenario 5):
// tip:host=1.2.3.4;port=3002;tls=false. It shares the heartbeat mesh-seed
// validation rule with the nested config-set/network/tip path above.
func (m *Mutator) Tip(_ string, params paramstr.Params, buf *dynbuf.Buf) error {
	host, _ := params.Get("host", 0)
	port, _ := params.Get("port", 0)
	tls := params.GetDefault("tls", "false")
	if err := validateTip(host, port, tls); err != nil {
		return err
	}
	buf.AppendString("ok")
	return nil
}

func validateTip(host, port, tls string) error {
	if host == "" {
		return infoerr.New(infoerr.BadParam, "tip: missing host")
	}
	if _, err := strconv.Atoi(port); err != nil {
		return infoerr.Newf(infoerr.BadParam, "tip: bad port: %v", err)
	}
	if _, err := parseBool(tls); err != nil {
		return infoerr.Newf(infoerr.BadParam, "tip: bad tls: %v", err)
	}
	return nil
}

func (m *Mutator) setSecurity(key, value string) error {
	if m.edition != "enterprise" {
		return infoerr.Newf(infoerr.EnterpriseOnly, "security context requires the enterprise edition")
	}
	switch key {
	default:
		return infoerr.Newf(infoerr.BadParam, "unknown security key: %s", key)
	}
}

func (m *Mutator) setXDR(key, value string) error {
	switch key {
	default:
		return infoerr.Newf(infoerr.BadParam, "unknown xdr key: %s", key)
	}
}

func (m *Mutator) setNamespaceKey(ns, key, value string) error {
	ptr := m.namespacePtr(ns)
	cur := ptr.Load()
	next := cur.clone()

	switch key {
	case "memory-size":
		n, err := parsePositiveInt64(value)
		if err != nil {
			return infoerr.Newf(infoerr.BadParam, "memory-size: %v", err)
		}
		floor := cur.MemoryBytes / 2
		if cur.MemoryBytes > 0 && n < floor {
			return infoerr.Newf(infoerr.BadParam, "memory-size: %d is below the monotonic floor %d (half of current)", n, floor)
		}
		next.MemoryBytes = n

	case "replication-factor":
		n, err := parsePositiveInt(value)
		if err != nil {
			return infoerr.Newf(infoerr.BadParam, "replication-factor: %v", err)
		}
		next.ReplicationFactor = n

	case "default-ttl":
		d, err := parseDuration(value)
		if err != nil {
			return infoerr.Newf(infoerr.BadParam, "default-ttl: %v", err)
		}
		proc := m.Process()
		if d != 0 && !proc.DefaultTTLReaperConfigured && !proc.DefaultTTLOptOut {
			return infoerr.New(infoerr.BadParam, "default-ttl: non-zero TTL requires a configured reaper or an explicit opt-out")
		}
		next.DefaultTTL = d

	case "strong-consistency":
		b, err := parseBool(value)
		if err != nil {
			return infoerr.Newf(infoerr.BadParam, "strong-consistency: %v", err)
		}
		if b && m.edition != "enterprise" {
			return infoerr.New(infoerr.EnterpriseOnly, "strong-consistency requires the enterprise edition")
		}
		next.StrongConsistency = b

	case "compression":
		b, err := parseBool(value)
		if err != nil {
			return infoerr.Newf(infoerr.BadParam, "compression: %v", err)
		}
		next.CompressionOn = b

	case "max-write-cache-bytes":
		n, err := parsePositiveInt64(value)
		if err != nil {
			return infoerr.Newf(infoerr.BadParam, "max-write-cache-bytes: %v", err)
		}
		// Derived field published first, primary last, with release
		// ordering via the single atomic snapshot swap below — a
		// concurrent reader of ptr.Load() only ever observes the old
		// snapshot or the fully-updated new one, never a torn mix.
		next.MaxWriteCacheLen = n / recordSizeEstimate
		next.MaxWriteCacheBytes = n

	default:
		return infoerr.Newf(infoerr.BadParam, "unknown namespace key: %s", key)
	}

	ptr.Store(next)
	return nil
}

// recordSizeEstimate is the divisor used to derive a write-cache queue
// length from a byte budget; a fixed constant here stands in for the
// storage engine's actual average-record-size estimator (out of scope).
const recordSizeEstimate = 512

func parsePositiveInt(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("must be non-negative")
	}
	return n, nil
}

func parsePositiveInt64(s string) (int64, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("must be non-negative")
	}
	return n, nil
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "true", "yes":
		return true, nil
	case "false", "no":
		return false, nil
	default:
		return false, fmt.Errorf("expected true|false|yes|no, got %q", s)
	}
}
