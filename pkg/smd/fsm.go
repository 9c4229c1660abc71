package smd

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/hashicorp/raft"

	"github.com/cuemby/infod/pkg/types"
)

// Command is the Raft log entry SMD applies: a JSON-over-raft envelope
// specialized to the module/key/value/op vocabulary of spec.md's SMD
// primitives.
type Command struct {
	Op     string          `json:"op"` // "set" or "delete"
	Module types.SMDModule `json:"module"`
	Key    string          `json:"key"`
	Value  string          `json:"value"`
}

// FSM applies Commands against a Store: a mutex-guarded Apply/Snapshot/
// Restore trio over a storage backend, with a two-operation switch (set,
// delete) rather than a fixed per-entity one.
type FSM struct {
	mu    sync.RWMutex
	store *Store
}

func NewFSM(store *Store) *FSM {
	return &FSM{store: store}
}

// Apply implements raft.FSM. It returns an error (not panics) for an
// unmarshal failure or unknown op, surfaced to the caller via the
// raft.ApplyFuture's Response().
func (f *FSM) Apply(log *raft.Log) interface{} {
	var cmd Command
	if err := json.Unmarshal(log.Data, &cmd); err != nil {
		return fmt.Errorf("smd: unmarshal command: %w", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	switch cmd.Op {
	case "set":
		return f.store.Set(cmd.Module, cmd.Key, cmd.Value)
	case "delete":
		return f.store.Delete(cmd.Module, cmd.Key)
	default:
		return fmt.Errorf("smd: unknown command: %s", cmd.Op)
	}
}

// Snapshot implements raft.FSM: a point-in-time capture of every module's
// records, RLock'd while walking the store.
func (f *FSM) Snapshot() (raft.FSMSnapshot, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	snap := &Snapshot{}
	for _, m := range allModules {
		records, err := f.store.Snapshot(m)
		if err != nil {
			return nil, err
		}
		snap.Records = append(snap.Records, records...)
	}
	return snap, nil
}

// Restore implements raft.FSM: replays a snapshot's records back into the
// store under the write lock.
func (f *FSM) Restore(rc io.ReadCloser) error {
	defer rc.Close()

	var snap Snapshot
	if err := json.NewDecoder(rc).Decode(&snap); err != nil {
		return fmt.Errorf("smd: decode snapshot: %w", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	for _, rec := range snap.Records {
		if err := f.store.Set(rec.Module, rec.Key, rec.Value); err != nil {
			return err
		}
	}
	return nil
}

// Snapshot is the raft.FSMSnapshot implementation: JSON-encode to the
// sink, cancel on error, no-op release.
type Snapshot struct {
	Records []types.SMDRecord `json:"records"`
}

func (s *Snapshot) Persist(sink raft.SnapshotSink) error {
	if err := json.NewEncoder(sink).Encode(s); err != nil {
		_ = sink.Cancel()
		return err
	}
	return sink.Close()
}

func (s *Snapshot) Release() {}
