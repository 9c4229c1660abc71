package smd

import (
	"context"
	"strings"

	"github.com/cuemby/infod/pkg/dynbuf"
	"github.com/cuemby/infod/pkg/events"
	"github.com/cuemby/infod/pkg/infoerr"
	"github.com/cuemby/infod/pkg/paramstr"
	"github.com/cuemby/infod/pkg/types"
)

// Roster wraps an SMD instance with the roster-set/roster command handlers,
// the second worked example of the snapshot-classify-apply pattern named in
// spec.md 4.G: "roster-set, truncate, eviction-reset" all follow sindex's
// model. Unlike sindex, the roster key space is one entry per namespace, so
// there is no name-collision classification step — only idempotent replay.
type Roster struct {
	smd    *SMD
	broker *events.Broker
}

func NewRoster(s *SMD) *Roster {
	return &Roster{smd: s}
}

// SetBroker attaches an event broker that Set will publish to after a
// successful apply. Optional; nil leaves publishing disabled.
func (r *Roster) SetBroker(b *events.Broker) {
	r.broker = b
}

// Set implements roster-set: namespace's authoritative node list is replaced
// wholesale. The value is a comma-separated, order-preserved node id list;
// an identical resubmission is a no-op apply.
func (r *Roster) Set(_ string, params paramstr.Params, buf *dynbuf.Buf) error {
	ns, _ := params.Get("namespace", 128)
	if ns == "" {
		return infoerr.New(infoerr.BadParam, "missing required parameter: namespace")
	}
	nodes, _ := params.Get("nodes", 4096)
	if nodes == "" {
		return infoerr.New(infoerr.BadParam, "missing required parameter: nodes")
	}

	current, ok := r.smd.store.Get(types.SMDModuleRoster, ns)
	if ok && current == nodes {
		buf.AppendString("ok")
		return nil
	}

	if err := r.smd.BlockingSet(context.Background(), types.SMDModuleRoster, ns, nodes, 0); err != nil {
		return err
	}
	if r.broker != nil {
		r.broker.Publish(&events.Event{Type: events.EventRosterSet, Message: ns})
	}
	buf.AppendString("ok")
	return nil
}

// Get implements the roster lookup, rendering the stored node list for
// every namespace with a roster entry as ns=n1:n2, entries joined by ';'.
func (r *Roster) Get(_ string, buf *dynbuf.Buf) error {
	records, err := r.smd.Snapshot(types.SMDModuleRoster)
	if err != nil {
		return err
	}
	for i, rec := range records {
		if i > 0 {
			buf.AppendByte(';')
		}
		buf.AppendString(rec.Key)
		buf.AppendByte('=')
		buf.AppendString(strings.ReplaceAll(rec.Value, ",", ":"))
	}
	return nil
}
