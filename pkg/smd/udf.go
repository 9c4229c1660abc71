package smd

import (
	"context"
	"encoding/base64"
	"strings"

	"github.com/cuemby/infod/pkg/dynbuf"
	"github.com/cuemby/infod/pkg/events"
	"github.com/cuemby/infod/pkg/infoerr"
	"github.com/cuemby/infod/pkg/paramstr"
	"github.com/cuemby/infod/pkg/types"
)

// UDF wraps an SMD instance with the udf-put/udf-remove/udf-clear-cache
// command handlers: original_source/as/src/base/thr_info.c registers these
// under PERM_UDF_ADMIN, distinct from the sindex family's PERM_SINDEX_ADMIN
// (spec.md 4.H's second legacy error framing applies only here).
type UDF struct {
	smd    *SMD
	broker *events.Broker
}

func NewUDF(s *SMD) *UDF {
	return &UDF{smd: s}
}

// SetBroker attaches an event broker that Put/Remove will publish to after
// a successful apply. Optional; nil leaves publishing disabled.
func (u *UDF) SetBroker(b *events.Broker) {
	u.broker = b
}

func (u *UDF) publish(typ events.EventType, msg string) {
	if u.broker == nil {
		return
	}
	u.broker.Publish(&events.Event{Type: typ, Message: msg})
}

// Put implements udf-put: register (or idempotently re-register) a UDF
// module's compiled content, keyed by filename.
func (u *UDF) Put(_ string, params paramstr.Params, buf *dynbuf.Buf) error {
	filename, _ := params.Get("filename", 256)
	if filename == "" {
		return infoerr.New(infoerr.BadParam, "missing required parameter: filename")
	}
	content, outcome := params.Get("content", 65536)
	if outcome == paramstr.TooLong {
		return infoerr.New(infoerr.TooLong, "content exceeds bound")
	}
	if content == "" {
		return infoerr.New(infoerr.BadParam, "missing required parameter: content")
	}
	if _, err := base64.StdEncoding.DecodeString(content); err != nil {
		return infoerr.Newf(infoerr.BadParam, "content: invalid base64: %v", err)
	}
	udfType := params.GetDefault("udf-type", "LUA")
	value := composeUDFValue(udfType, content)

	records, err := u.smd.Snapshot(types.SMDModuleUDF)
	if err != nil {
		return err
	}
	for _, rec := range records {
		if rec.Key == filename && rec.Value == value {
			// Idempotent: identical content already applied.
			buf.AppendString("ok")
			return nil
		}
	}

	if err := u.smd.BlockingSet(context.Background(), types.SMDModuleUDF, filename, value, 0); err != nil {
		return err
	}
	u.publish(events.EventUDFPut, filename)
	buf.AppendString("ok")
	return nil
}

// Remove implements udf-remove. Absent filename is idempotent success,
// mirroring sindex-delete's treatment of an absent name.
func (u *UDF) Remove(_ string, params paramstr.Params, buf *dynbuf.Buf) error {
	filename, _ := params.Get("filename", 256)
	if filename == "" {
		return infoerr.New(infoerr.BadParam, "missing required parameter: filename")
	}

	records, err := u.smd.Snapshot(types.SMDModuleUDF)
	if err != nil {
		return err
	}
	present := false
	for _, rec := range records {
		if rec.Key == filename {
			present = true
			break
		}
	}
	if !present {
		buf.AppendString("ok")
		return nil
	}

	if err := u.smd.BlockingDelete(context.Background(), types.SMDModuleUDF, filename, 0); err != nil {
		return err
	}
	u.publish(events.EventUDFRemoved, filename)
	buf.AppendString("ok")
	return nil
}

// ClearCache implements udf-clear-cache. The compiled-script cache is a
// purely local, node-scoped concern — original_source never replicates it
// through SMD — so this acknowledges without touching the SMD store.
func (u *UDF) ClearCache(_ string, _ paramstr.Params, buf *dynbuf.Buf) error {
	buf.AppendString("ok")
	return nil
}

// List implements the udf-list dynamic endpoint: filename=type pairs for
// every registered UDF module, the PERM_NONE counterpart to udf-get in
// original_source/as/src/base/thr_info.c.
func (u *UDF) List(_ string, buf *dynbuf.Buf) error {
	records, err := u.smd.Snapshot(types.SMDModuleUDF)
	if err != nil {
		return err
	}
	for i, rec := range records {
		if i > 0 {
			buf.AppendByte(';')
		}
		udfType, _ := splitUDFValue(rec.Value)
		buf.AppendString(rec.Key)
		buf.AppendByte('=')
		buf.AppendString(udfType)
	}
	return nil
}

// composeUDFValue and splitUDFValue encode a UDF record's type alongside
// its base64 content in one SMD value, "type:content".
func composeUDFValue(udfType, content string) string {
	return udfType + ":" + content
}

func splitUDFValue(value string) (udfType, content string) {
	parts := strings.SplitN(value, ":", 2)
	if len(parts) != 2 {
		return value, ""
	}
	return parts[0], parts[1]
}
