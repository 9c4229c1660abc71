// Package registry implements the Endpoint Registry (component C): four
// tables — static, dynamic, tree, command — mapping names to handlers.
// Registration is serialized under a mutex; lookups during dispatch read an
// immutable snapshot swapped atomically on write, per the design note in
// spec.md 9 ("re-express as a process-scoped registry object... exposing
// read access through an immutable snapshot pointer atomically swapped on
// update").
package registry

import (
	"sync"
	"sync/atomic"

	"github.com/cuemby/infod/pkg/dynbuf"
	"github.com/cuemby/infod/pkg/paramstr"
)

// Permission is the authorization tag a Command handler requires. The
// concrete permission set is owned by pkg/security; the registry only
// carries it through to the dispatcher.
type Permission string

// StaticEntry is a name bound to an opaque byte value served verbatim.
type StaticEntry struct {
	Name    string
	Value   []byte
	Default bool // included in the "dump all defaults" response
}

// DynamicFunc produces a value for a dynamic entry's name.
type DynamicFunc func(name string, buf *dynbuf.Buf) error

// DynamicEntry is a name bound to a producer function.
type DynamicEntry struct {
	Name    string
	Fn      DynamicFunc
	Default bool
}

// TreeFunc produces a value for a tree entry's name and one subtree token
// (the path segment after the first '/').
type TreeFunc func(name, subtree string, buf *dynbuf.Buf) error

// TreeEntry is a name bound to a subtree-aware producer.
type TreeEntry struct {
	Name string
	Fn   TreeFunc
}

// CommandFunc produces a value for a command's name and parsed parameters.
type CommandFunc func(name string, params paramstr.Params, buf *dynbuf.Buf) error

// CommandEntry is a name bound to a producer and a required permission.
type CommandEntry struct {
	Name       string
	Fn         CommandFunc
	Permission Permission
}

// snapshot is the immutable table set swapped atomically on registration.
type snapshot struct {
	static  map[string]StaticEntry
	dynamic map[string]DynamicEntry
	tree    map[string]TreeEntry
	command map[string]CommandEntry
}

func emptySnapshot() *snapshot {
	return &snapshot{
		static:  make(map[string]StaticEntry),
		dynamic: make(map[string]DynamicEntry),
		tree:    make(map[string]TreeEntry),
		command: make(map[string]CommandEntry),
	}
}

// clone returns a shallow copy of s suitable for mutation before being
// published as the new snapshot. Entry values themselves are not copied
// (handlers are immutable once registered).
func (s *snapshot) clone() *snapshot {
	n := emptySnapshot()
	for k, v := range s.static {
		n.static[k] = v
	}
	for k, v := range s.dynamic {
		n.dynamic[k] = v
	}
	for k, v := range s.tree {
		n.tree[k] = v
	}
	for k, v := range s.command {
		n.command[k] = v
	}
	return n
}

// Registry is the process-scoped endpoint table. The zero value is not
// usable; construct with New.
type Registry struct {
	mu       sync.Mutex // serializes registration only, never dispatch reads
	snapshot atomic.Pointer[snapshot]
}

// New returns an empty Registry.
func New() *Registry {
	r := &Registry{}
	r.snapshot.Store(emptySnapshot())
	return r
}

func (r *Registry) current() *snapshot {
	return r.snapshot.Load()
}

// RegisterStatic adds or overwrites a static entry. Re-registering the same
// name is idempotent (overwrites), matching the registry's "registration
// is idempotent on name" invariant. Setting an empty value clears it — the
// only runtime unregistration the registry supports.
func (r *Registry) RegisterStatic(e StaticEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	next := r.current().clone()
	if len(e.Value) == 0 {
		delete(next.static, e.Name)
	} else {
		next.static[e.Name] = e
	}
	r.snapshot.Store(next)
}

// RegisterDynamic adds or overwrites a dynamic entry.
func (r *Registry) RegisterDynamic(e DynamicEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	next := r.current().clone()
	next.dynamic[e.Name] = e
	r.snapshot.Store(next)
}

// RegisterTree adds or overwrites a tree entry.
func (r *Registry) RegisterTree(e TreeEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	next := r.current().clone()
	next.tree[e.Name] = e
	r.snapshot.Store(next)
}

// RegisterCommand adds or overwrites a command entry.
func (r *Registry) RegisterCommand(e CommandEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	next := r.current().clone()
	next.command[e.Name] = e
	r.snapshot.Store(next)
}

// LookupResult tags which variant a Lookup matched, so the dispatcher can
// apply the right calling convention without a second search.
type LookupResult struct {
	Static  *StaticEntry
	Dynamic *DynamicEntry
	Tree    *TreeEntry
}

// Lookup searches static, then dynamic, then tree tables for name, in that
// fixed order, stopping at the first hit. It never touches the mutex: the
// read is a single atomic load followed by map reads on an immutable
// snapshot.
func (r *Registry) Lookup(name string) (LookupResult, bool) {
	s := r.current()
	if e, ok := s.static[name]; ok {
		return LookupResult{Static: &e}, true
	}
	if e, ok := s.dynamic[name]; ok {
		return LookupResult{Dynamic: &e}, true
	}
	if e, ok := s.tree[name]; ok {
		return LookupResult{Tree: &e}, true
	}
	return LookupResult{}, false
}

// LookupCommand searches only the command table.
func (r *Registry) LookupCommand(name string) (CommandEntry, bool) {
	e, ok := r.current().command[name]
	return e, ok
}

// DefaultStatic returns every static entry with Default set, in no
// particular order — callers sort if stable output is required.
func (r *Registry) DefaultStatic() []StaticEntry {
	s := r.current()
	out := make([]StaticEntry, 0, len(s.static))
	for _, e := range s.static {
		if e.Default {
			out = append(out, e)
		}
	}
	return out
}

// DefaultDynamic returns every dynamic entry with Default set.
func (r *Registry) DefaultDynamic() []DynamicEntry {
	s := r.current()
	out := make([]DynamicEntry, 0, len(s.dynamic))
	for _, e := range s.dynamic {
		if e.Default {
			out = append(out, e)
		}
	}
	return out
}
