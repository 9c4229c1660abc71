package smd

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/hashicorp/raft"
	raftboltdb "github.com/hashicorp/raft-boltdb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/cuemby/infod/pkg/infoerr"
	"github.com/cuemby/infod/pkg/log"
	"github.com/cuemby/infod/pkg/smd/forward"
	"github.com/cuemby/infod/pkg/types"
)

// Config configures a single-node-bootstrappable SMD instance, with short
// timeouts suited to a narrow internal metadata store rather than a
// general-purpose cluster store.
type Config struct {
	NodeID   string
	BindAddr string
	DataDir  string
}

// SMD is the replicated, tombstoned metadata store described in spec.md
// 3/4.G: get_all(module, visitor) and blocking_set/delete(module, key,
// [value], timeout), implemented as a Raft group over FSM/Store.
type SMD struct {
	nodeID string
	raft   *raft.Raft
	fsm    *FSM
	store  *Store

	// forwardDial resolves the leader's address to a forward.Client for
	// non-leader nodes; nil in single-node/test configurations where
	// forwarding is never exercised.
	forwardDial func(addr string) (*forward.Client, error)
}

// Bootstrap opens the durable store and starts a single-node Raft group:
// tuned raft.Config, TCP transport, file snapshot store, boltdb log/stable
// store, then BootstrapCluster with this node as the sole voter.
func Bootstrap(cfg Config) (*SMD, error) {
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("smd: data dir: %w", err)
	}

	store, err := OpenStore(filepath.Join(cfg.DataDir, "smd.db"))
	if err != nil {
		return nil, err
	}
	fsm := NewFSM(store)

	raftCfg := raft.DefaultConfig()
	raftCfg.LocalID = raft.ServerID(cfg.NodeID)
	raftCfg.HeartbeatTimeout = 500 * time.Millisecond
	raftCfg.ElectionTimeout = 500 * time.Millisecond
	raftCfg.CommitTimeout = 50 * time.Millisecond
	raftCfg.LeaderLeaseTimeout = 250 * time.Millisecond

	addr, err := net.ResolveTCPAddr("tcp", cfg.BindAddr)
	if err != nil {
		return nil, fmt.Errorf("smd: resolve bind addr: %w", err)
	}
	transport, err := raft.NewTCPTransport(cfg.BindAddr, addr, 3, 10*time.Second, os.Stderr)
	if err != nil {
		return nil, fmt.Errorf("smd: tcp transport: %w", err)
	}

	snapshots, err := raft.NewFileSnapshotStore(cfg.DataDir, 2, os.Stderr)
	if err != nil {
		return nil, fmt.Errorf("smd: snapshot store: %w", err)
	}

	logStore, err := raftboltdb.NewBoltStore(filepath.Join(cfg.DataDir, "raft-log.db"))
	if err != nil {
		return nil, fmt.Errorf("smd: raft log store: %w", err)
	}
	stableStore, err := raftboltdb.NewBoltStore(filepath.Join(cfg.DataDir, "raft-stable.db"))
	if err != nil {
		return nil, fmt.Errorf("smd: raft stable store: %w", err)
	}

	r, err := raft.NewRaft(raftCfg, fsm, logStore, stableStore, snapshots, transport)
	if err != nil {
		return nil, fmt.Errorf("smd: new raft: %w", err)
	}

	cfgFuture := r.GetConfiguration()
	if err := cfgFuture.Error(); err != nil {
		return nil, fmt.Errorf("smd: get configuration: %w", err)
	}
	if len(cfgFuture.Configuration().Servers) == 0 {
		bootstrapCfg := raft.Configuration{
			Servers: []raft.Server{{ID: raftCfg.LocalID, Address: transport.LocalAddr()}},
		}
		if err := r.BootstrapCluster(bootstrapCfg).Error(); err != nil {
			return nil, fmt.Errorf("smd: bootstrap cluster: %w", err)
		}
	}

	return &SMD{nodeID: cfg.NodeID, raft: r, fsm: fsm, store: store}, nil
}

// SetForwardDialer installs the function used to dial the current leader
// for commands issued on a non-leader node.
func (s *SMD) SetForwardDialer(dial func(addr string) (*forward.Client, error)) {
	s.forwardDial = dial
}

func (s *SMD) IsLeader() bool {
	return s.raft.State() == raft.Leader
}

func (s *SMD) LeaderAddr() string {
	addr, _ := s.raft.LeaderWithID()
	return string(addr)
}

func (s *SMD) Close() error {
	if err := s.raft.Shutdown().Error(); err != nil {
		return err
	}
	return s.store.Close()
}

// GetAll visits every live record in module without going through Raft —
// reads are local and lock-free against the Store's bbolt snapshot.
func (s *SMD) GetAll(module types.SMDModule, visitor func(key, value string) bool) error {
	return s.store.GetAll(module, visitor)
}

// Snapshot returns every live record in module, for the
// snapshot-classify-apply pattern (spec.md 4.G).
func (s *SMD) Snapshot(module types.SMDModule) ([]types.SMDRecord, error) {
	return s.store.Snapshot(module)
}

// BlockingSet applies a set(module, key, value) through Raft, forwarding to
// the leader first if this node isn't one. timeout <= 0 means unbounded.
func (s *SMD) BlockingSet(ctx context.Context, module types.SMDModule, key, value string, timeout time.Duration) error {
	return s.apply(ctx, Command{Op: "set", Module: module, Key: key, Value: value}, timeout)
}

// BlockingDelete applies a delete(module, key) through Raft.
func (s *SMD) BlockingDelete(ctx context.Context, module types.SMDModule, key string, timeout time.Duration) error {
	return s.apply(ctx, Command{Op: "delete", Module: module, Key: key}, timeout)
}

func (s *SMD) apply(ctx context.Context, cmd Command, timeout time.Duration) error {
	if !s.IsLeader() {
		return s.applyViaForward(ctx, cmd, timeout)
	}

	data, err := json.Marshal(cmd)
	if err != nil {
		return fmt.Errorf("smd: marshal command: %w", err)
	}

	// raft.Apply treats a non-positive timeout as no timeout.
	future := s.raft.Apply(data, timeout)
	if err := future.Error(); err != nil {
		if err == raft.ErrEnqueueTimeout {
			return infoerr.New(infoerr.Timeout, "timeout")
		}
		return err
	}
	if resp := future.Response(); resp != nil {
		if respErr, ok := resp.(error); ok && respErr != nil {
			return respErr
		}
	}
	return nil
}

func (s *SMD) applyViaForward(ctx context.Context, cmd Command, timeout time.Duration) error {
	if s.forwardDial == nil {
		return fmt.Errorf("smd: not leader and no forward dialer configured")
	}
	leaderAddr := s.LeaderAddr()
	if leaderAddr == "" {
		return infoerr.New(infoerr.Timeout, "timeout")
	}

	client, err := s.forwardDial(leaderAddr)
	if err != nil {
		return fmt.Errorf("smd: dial leader %s: %w", leaderAddr, err)
	}

	payload, err := structpb.NewStruct(map[string]interface{}{
		"op":     cmd.Op,
		"module": string(cmd.Module),
		"key":    cmd.Key,
		"value":  cmd.Value,
	})
	if err != nil {
		return fmt.Errorf("smd: encode forward payload: %w", err)
	}

	callCtx := ctx
	var cancel context.CancelFunc
	if timeout > 0 {
		callCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	_, err = client.Apply(callCtx, payload)
	if err != nil {
		if callCtx.Err() == context.DeadlineExceeded {
			return infoerr.New(infoerr.Timeout, "timeout")
		}
		return err
	}
	return nil
}

// Apply implements forward.Server for the leader side of the leader-forward
// RPC: decode the forwarded command and apply it locally through Raft.
func (s *SMD) Apply(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	fields := req.AsMap()
	cmd := Command{
		Op:     fmt.Sprint(fields["op"]),
		Module: types.SMDModule(fmt.Sprint(fields["module"])),
		Key:    fmt.Sprint(fields["key"]),
		Value:  fmt.Sprint(fields["value"]),
	}
	if err := s.apply(ctx, cmd, 30*time.Second); err != nil {
		log.WithComponent("smd").Warn().Err(err).Str("op", cmd.Op).Msg("leader-forward apply failed")
		return nil, err
	}
	return structpb.NewStruct(map[string]interface{}{"ok": true})
}
