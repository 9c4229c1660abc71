package smd

import (
	"context"
	"strconv"
	"time"

	"github.com/cuemby/infod/pkg/dynbuf"
	"github.com/cuemby/infod/pkg/events"
	"github.com/cuemby/infod/pkg/infoerr"
	"github.com/cuemby/infod/pkg/paramstr"
	"github.com/cuemby/infod/pkg/types"
)

// Truncate wraps an SMD instance with the truncate/truncate-undo command
// handlers, the third worked example of spec.md 4.G's snapshot-classify-
// apply pattern. A truncate record's key is "<namespace>" or
// "<namespace>|<set>"; its value is the last-update-time threshold (in
// nanoseconds since epoch) below which records are treated as expired.
// Re-issuing the same or an older threshold is idempotent; undo removes the
// record rather than setting a new threshold.
type Truncate struct {
	smd    *SMD
	broker *events.Broker
}

func NewTruncate(s *SMD) *Truncate {
	return &Truncate{smd: s}
}

// SetBroker attaches an event broker that Command/Undo will publish to
// after a successful apply. Optional; nil leaves publishing disabled.
func (t *Truncate) SetBroker(b *events.Broker) {
	t.broker = b
}

// Command implements truncate: namespace required, set optional, lut
// (last-update-time, nanoseconds) optional and defaulting to now.
func (t *Truncate) Command(_ string, params paramstr.Params, buf *dynbuf.Buf) error {
	ns, _ := params.Get("namespace", 128)
	if ns == "" {
		return infoerr.New(infoerr.BadParam, "missing required parameter: namespace")
	}
	key := ns
	if set, _ := params.Get("set", 128); set != "" {
		key = ns + "|" + set
	}

	lutStr := params.GetDefault("lut", "")
	var lut int64
	if lutStr == "" {
		lut = time.Now().UnixNano()
	} else {
		parsed, err := strconv.ParseInt(lutStr, 10, 64)
		if err != nil || parsed < 0 {
			return infoerr.Newf(infoerr.BadParam, "invalid lut: %s", lutStr)
		}
		lut = parsed
	}

	current, ok := t.smd.store.Get(types.SMDModuleTruncate, key)
	if ok {
		currentLUT, err := strconv.ParseInt(current, 10, 64)
		if err == nil && lut <= currentLUT {
			// Idempotent: the requested threshold is no newer than the
			// one already in effect.
			buf.AppendString("ok")
			return nil
		}
	}

	if err := t.smd.BlockingSet(context.Background(), types.SMDModuleTruncate, key, strconv.FormatInt(lut, 10), 0); err != nil {
		return err
	}
	if t.broker != nil {
		t.broker.Publish(&events.Event{Type: events.EventTruncateIssued, Message: key})
	}
	buf.AppendString("ok")
	return nil
}

// Undo implements truncate-undo: clears a previously issued truncation
// threshold. Absent key is idempotent success, matching sindex-delete's
// and roster's treatment of a no-op unwind.
func (t *Truncate) Undo(_ string, params paramstr.Params, buf *dynbuf.Buf) error {
	ns, _ := params.Get("namespace", 128)
	if ns == "" {
		return infoerr.New(infoerr.BadParam, "missing required parameter: namespace")
	}
	key := ns
	if set, _ := params.Get("set", 128); set != "" {
		key = ns + "|" + set
	}

	if _, ok := t.smd.store.Get(types.SMDModuleTruncate, key); !ok {
		buf.AppendString("ok")
		return nil
	}

	if err := t.smd.BlockingDelete(context.Background(), types.SMDModuleTruncate, key, 0); err != nil {
		return err
	}
	if t.broker != nil {
		t.broker.Publish(&events.Event{Type: events.EventTruncateUndone, Message: key})
	}
	buf.AppendString("ok")
	return nil
}
