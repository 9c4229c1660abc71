package main

import (
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/cuemby/infod/pkg/cluster"
	"github.com/cuemby/infod/pkg/dispatch"
	"github.com/cuemby/infod/pkg/dynbuf"
	"github.com/cuemby/infod/pkg/events"
	"github.com/cuemby/infod/pkg/log"
	"github.com/cuemby/infod/pkg/nodeconfig"
	"github.com/cuemby/infod/pkg/paramstr"
	"github.com/cuemby/infod/pkg/registry"
	"github.com/cuemby/infod/pkg/security"
	"github.com/cuemby/infod/pkg/smd"
	"github.com/cuemby/infod/pkg/smd/forward"
	"github.com/cuemby/infod/pkg/stats"
	"github.com/cuemby/infod/pkg/ticker"
	"github.com/cuemby/infod/pkg/types"
)

var (
	Version = "dev"
	Commit  = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "infod",
	Short:   "infod - Info subsystem node server",
	Long:    "infod serves the text-protocol introspection and administration plane described in spec.md: lookups, config mutation, SMD-mediated commands, and the periodic ticker.",
	Version: Version,
	RunE:    runServe,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf("infod version %s\nCommit: %s\n", Version, Commit))

	flags := rootCmd.Flags()
	flags.String("node-id", "node-1", "This node's identifier")
	flags.String("bind-addr", "127.0.0.1:3003", "Address the text protocol listens on")
	flags.String("smd-bind-addr", "127.0.0.1:7300", "Address the SMD Raft transport binds to")
	flags.String("smd-forward-addr", "127.0.0.1:7301", "Address the SMD leader-forward gRPC service listens on")
	flags.String("data-dir", "./data", "Directory for SMD's durable state")
	flags.String("metrics-addr", "127.0.0.1:9090", "Address the Prometheus metrics endpoint listens on")
	flags.String("edition", "community", "Build edition: community or enterprise")
	flags.Int("cpu-count", 4, "CPU count used to validate service-threads pinning")
	flags.Int("queue-depth", 4096, "Dispatch pool queue depth")
	flags.Int("workers", 8, "Initial dispatch pool worker count")
	flags.Int("sindex-max-per-namespace", 256, "Per-namespace secondary-index definition cap")
	flags.String("log-level", "info", "Log level (debug, info, warn, error)")
	flags.Bool("log-json", false, "Output logs in JSON format")
}

func runServe(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	nodeIDStr, _ := flags.GetString("node-id")
	bindAddr, _ := flags.GetString("bind-addr")
	smdBindAddr, _ := flags.GetString("smd-bind-addr")
	smdForwardAddr, _ := flags.GetString("smd-forward-addr")
	dataDir, _ := flags.GetString("data-dir")
	metricsAddr, _ := flags.GetString("metrics-addr")
	editionStr, _ := flags.GetString("edition")
	cpuCount, _ := flags.GetInt("cpu-count")
	queueDepth, _ := flags.GetInt("queue-depth")
	workers, _ := flags.GetInt("workers")
	sindexMax, _ := flags.GetInt("sindex-max-per-namespace")
	logLevel, _ := flags.GetString("log-level")
	logJSON, _ := flags.GetBool("log-json")

	log.Init(log.Config{Level: log.Level(logLevel), JSONOutput: logJSON})
	logger := log.WithComponent("infod")

	edition := types.Edition(editionStr)
	nodeID := types.NodeID(nodeIDStr)

	broker := events.NewBroker()
	broker.Start()
	defer broker.Stop()
	go logEvents(broker.Subscribe(), logger)

	mutator := nodeconfig.New(edition, cpuCount)
	mutator.OnConfigApplied = func(ctx, key, value string) {
		broker.Publish(&events.Event{Type: events.EventConfigChanged, Message: ctx + ":" + key + "=" + value})
	}
	source := stats.NewNodeSource(mutator)
	collector := stats.New(source)
	collector.SetBadPracticesReporter(func() []string { return nil })

	tk := ticker.New(string(nodeID), ticker.DefaultInterval, source)
	tk.Start()
	defer tk.Stop()

	smdCfg := smd.Config{
		NodeID:   nodeIDStr,
		BindAddr: smdBindAddr,
		DataDir:  filepath.Join(dataDir, "smd"),
	}
	s, err := smd.Bootstrap(smdCfg)
	if err != nil {
		return fmt.Errorf("infod: smd bootstrap: %w", err)
	}
	defer s.Close()

	s.SetForwardDialer(func(addr string) (*forward.Client, error) {
		cc, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
		if err != nil {
			return nil, err
		}
		return forward.NewClient(cc), nil
	})

	grpcServer := grpc.NewServer()
	grpcServer.RegisterService(&forward.ServiceDesc, s)
	grpcLn, err := net.Listen("tcp", smdForwardAddr)
	if err != nil {
		return fmt.Errorf("infod: smd forward listen: %w", err)
	}
	go func() {
		if err := grpcServer.Serve(grpcLn); err != nil {
			logger.Error().Err(err).Msg("smd leader-forward server stopped")
		}
	}()

	sindex := smd.NewSindex(s, sindexMax)
	sindex.SetBroker(broker)
	roster := smd.NewRoster(s)
	roster.SetBroker(broker)
	truncate := smd.NewTruncate(s)
	truncate.SetBroker(broker)
	udf := smd.NewUDF(s)
	udf.SetBroker(broker)
	replicas := cluster.NewReplicas(s)
	clus := cluster.New(source, types.ClusterKey(0))

	collector.SetMutator(mutator)

	reg := registry.New()
	registerEndpoints(reg, mutator, collector, sindex, roster, truncate, udf, replicas, clus, nodeIDStr, edition)

	authz := security.AllowAll{}
	dispatcher := dispatch.New(reg, authz, auditLogger())

	pool := dispatch.NewPool(queueDepth, workers, dispatcher.Handle)
	defer pool.Close()
	mutator.OnResizeThreads = pool.Resize

	ln, err := net.Listen("tcp", bindAddr)
	if err != nil {
		return fmt.Errorf("infod: listen: %w", err)
	}
	listener := dispatch.NewListener(pool)
	go func() {
		if err := listener.Serve(ln); err != nil {
			logger.Info().Err(err).Msg("info listener stopped")
		}
	}()
	logger.Info().Str("addr", bindAddr).Msg("info protocol listening")

	go func() {
		http.Handle("/metrics", promhttp.Handler())
		if err := http.ListenAndServe(metricsAddr, nil); err != nil {
			logger.Error().Err(err).Msg("metrics server stopped")
		}
	}()
	logger.Info().Str("addr", metricsAddr).Msg("metrics endpoint listening")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh
	logger.Info().Msg("shutting down")

	_ = ln.Close()
	grpcServer.GracefulStop()
	return nil
}

// auditLogger renders one structured log line per command invocation,
// the audit trail spec.md 4.H names as an external collaborator's
// concern — here it is just a log sink, not a durable store.
func auditLogger() dispatch.AuditFunc {
	logger := log.WithComponent("audit")
	return func(auditID, connID, principal, name, params string, err error) {
		ev := logger.Info()
		if err != nil {
			ev = logger.Warn().Err(err)
		}
		ev.Str("audit_id", auditID).
			Str("conn_id", connID).
			Str("principal", principal).
			Str("command", name).
			Str("params", params).
			Msg("command invoked")
	}
}

// logEvents drains the broker's mutation-event feed to a structured log
// sink, standing in for whatever external collaborator (e.g. a metrics or
// alerting pipeline) would otherwise subscribe to sub.
func logEvents(sub events.Subscriber, logger zerolog.Logger) {
	for ev := range sub {
		logger.Info().Str("event", string(ev.Type)).Str("detail", ev.Message).Time("ts", ev.Timestamp).Msg("mutation event")
	}
}

func registerEndpoints(
	reg *registry.Registry,
	mutator *nodeconfig.Mutator,
	collector *stats.Collector,
	sindex *smd.Sindex,
	roster *smd.Roster,
	truncate *smd.Truncate,
	udf *smd.UDF,
	replicas *cluster.Replicas,
	clus *cluster.Cluster,
	nodeID string,
	edition types.Edition,
) {
	reg.RegisterStatic(registry.StaticEntry{Name: "node-id", Value: []byte(nodeID), Default: true})
	reg.RegisterStatic(registry.StaticEntry{Name: "edition", Value: []byte(edition), Default: true})
	reg.RegisterStatic(registry.StaticEntry{Name: "build", Value: []byte(Version), Default: true})
	reg.RegisterStatic(registry.StaticEntry{Name: "version", Value: []byte(fmt.Sprintf("%s build %s", edition, Version)), Default: true})
	// services lists this node's peer service addresses; a single-node
	// bootstrap has none (spec.md's clustering exchange subsystem is an
	// out-of-scope external collaborator, per NodeSource.Snapshot).
	reg.RegisterStatic(registry.StaticEntry{Name: "services", Value: []byte(""), Default: true})

	reg.RegisterDynamic(registry.DynamicEntry{Name: "statistics", Fn: collector.Statistics, Default: true})
	reg.RegisterDynamic(registry.DynamicEntry{Name: "best-practices", Fn: collector.BestPractices})
	reg.RegisterDynamic(registry.DynamicEntry{Name: "roster", Fn: roster.Get})
	reg.RegisterDynamic(registry.DynamicEntry{Name: "udf-list", Fn: udf.List})
	reg.RegisterTree(registry.TreeEntry{Name: "namespace", Fn: collector.NamespaceTree})

	reg.RegisterCommand(registry.CommandEntry{Name: "config-get", Fn: mutator.ConfigGet})
	reg.RegisterCommand(registry.CommandEntry{Name: "config-set", Fn: mutator.ConfigSet, Permission: security.PermConfigWrite})
	reg.RegisterCommand(registry.CommandEntry{Name: "sindex-create", Fn: sindex.Create, Permission: security.PermSindexWrite})
	reg.RegisterCommand(registry.CommandEntry{Name: "sindex-delete", Fn: sindex.Delete, Permission: security.PermSindexWrite})
	reg.RegisterCommand(registry.CommandEntry{Name: "roster-set", Fn: roster.Set, Permission: security.PermRosterWrite})
	reg.RegisterCommand(registry.CommandEntry{Name: "truncate", Fn: truncate.Command, Permission: security.PermTruncate})
	reg.RegisterCommand(registry.CommandEntry{Name: "truncate-undo", Fn: truncate.Undo, Permission: security.PermTruncate})
	reg.RegisterCommand(registry.CommandEntry{Name: "cluster-stable", Fn: clus.Stable})
	reg.RegisterCommand(registry.CommandEntry{Name: "replicas", Fn: replicas.Replicas})
	reg.RegisterCommand(registry.CommandEntry{Name: "replicas-max", Fn: replicas.ReplicasMax})
	reg.RegisterCommand(registry.CommandEntry{Name: "replicas-all", Fn: replicas.ReplicasAll})
	reg.RegisterCommand(registry.CommandEntry{Name: "quiesce", Fn: quiesceCommand(mutator), Permission: security.PermConfigWrite})
	reg.RegisterCommand(registry.CommandEntry{Name: "quiesce-undo", Fn: quiesceUndoCommand(mutator), Permission: security.PermConfigWrite})
	reg.RegisterCommand(registry.CommandEntry{Name: "tip", Fn: mutator.Tip})
	reg.RegisterCommand(registry.CommandEntry{Name: "udf-put", Fn: udf.Put, Permission: security.PermUDFWrite})
	reg.RegisterCommand(registry.CommandEntry{Name: "udf-remove", Fn: udf.Remove, Permission: security.PermUDFWrite})
	reg.RegisterCommand(registry.CommandEntry{Name: "udf-clear-cache", Fn: udf.ClearCache, Permission: security.PermUDFWrite})
}

func quiesceCommand(m *nodeconfig.Mutator) registry.CommandFunc {
	return func(_ string, _ paramstr.Params, buf *dynbuf.Buf) error {
		m.QuiesceAll()
		buf.AppendString("ok")
		return nil
	}
}

func quiesceUndoCommand(m *nodeconfig.Mutator) registry.CommandFunc {
	return func(_ string, _ paramstr.Params, buf *dynbuf.Buf) error {
		m.UnquiesceAll()
		buf.AppendString("ok")
		return nil
	}
}
