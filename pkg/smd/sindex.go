package smd

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/go-msgpack/codec"

	"github.com/cuemby/infod/pkg/dynbuf"
	"github.com/cuemby/infod/pkg/events"
	"github.com/cuemby/infod/pkg/infoerr"
	"github.com/cuemby/infod/pkg/paramstr"
	"github.com/cuemby/infod/pkg/types"
)

// Sindex wraps an SMD instance with the secondary-index command handlers,
// the worked SMD-mediated-command example from spec.md 4.G.
type Sindex struct {
	smd      *SMD
	maxPerNS int
	broker   *events.Broker
}

func NewSindex(s *SMD, maxPerNamespace int) *Sindex {
	if maxPerNamespace <= 0 {
		maxPerNamespace = 256
	}
	return &Sindex{smd: s, maxPerNS: maxPerNamespace}
}

// SetBroker attaches an event broker that Create/Delete will publish to
// after a successful apply. Optional; nil leaves publishing disabled.
func (sx *Sindex) SetBroker(b *events.Broker) {
	sx.broker = b
}

func (sx *Sindex) publish(typ events.EventType, msg string) {
	if sx.broker == nil {
		return
	}
	sx.broker.Publish(&events.Event{Type: typ, Message: msg})
}

// Create implements sindex-create (spec.md 4.G steps 1-5).
func (sx *Sindex) Create(_ string, params paramstr.Params, buf *dynbuf.Buf) error {
	def, err := sx.parseDef(params)
	if err != nil {
		return err
	}

	key := composeSindexKey(def)

	records, err := sx.smd.Snapshot(types.SMDModuleSindex)
	if err != nil {
		return err
	}

	var (
		existingKeyPresent bool
		nameMatchCount     int
		nameMatchKey       string
		namespaceTotal     int
	)
	for _, rec := range records {
		ns, _, _ := splitSindexKey(rec.Key)
		if ns != def.Namespace {
			continue
		}
		namespaceTotal++
		if rec.Key == key {
			existingKeyPresent = true
		}
		if rec.Value == def.IndexName {
			nameMatchCount++
			nameMatchKey = rec.Key
		}
	}

	switch {
	case existingKeyPresent:
		// Idempotent: identical definition already applied.
		buf.AppendString("ok")
		return nil

	case nameMatchCount == 1:
		if nameMatchKey != key {
			return infoerr.Newf(infoerr.Conflict, "index %s already exists with a different definition", def.IndexName)
		}

	case nameMatchCount >= 2:
		return infoerr.Newf(infoerr.Conflict, "indexname %s is not unique, ambiguous, rename required", def.IndexName)

	case namespaceTotal >= sx.maxPerNS:
		return infoerr.Newf(infoerr.MaxCount, "namespace %s is at its sindex definition cap (%d)", def.Namespace, sx.maxPerNS)
	}

	if err := sx.smd.BlockingSet(context.Background(), types.SMDModuleSindex, key, def.IndexName, 0); err != nil {
		return err
	}
	sx.publish(events.EventSindexCreated, def.IndexName)
	buf.AppendString("ok")
	return nil
}

// Delete implements sindex-delete, mirroring Create: locate a unique key
// by name, issue blocking_delete. Absent name is idempotent success;
// ambiguous name is a conflict.
func (sx *Sindex) Delete(_ string, params paramstr.Params, buf *dynbuf.Buf) error {
	ns, _ := params.Get("ns", 128)
	if ns == "" {
		return infoerr.New(infoerr.BadParam, "missing required parameter: ns")
	}
	indexName, _ := params.Get("indexname", 128)
	if indexName == "" {
		return infoerr.New(infoerr.BadParam, "missing required parameter: indexname")
	}

	records, err := sx.smd.Snapshot(types.SMDModuleSindex)
	if err != nil {
		return err
	}

	var matchKey string
	matchCount := 0
	for _, rec := range records {
		recNS, _, _ := splitSindexKey(rec.Key)
		if recNS != ns || rec.Value != indexName {
			continue
		}
		matchCount++
		matchKey = rec.Key
	}

	switch matchCount {
	case 0:
		buf.AppendString("ok") // idempotent: absent name is success
		return nil
	case 1:
		if err := sx.smd.BlockingDelete(context.Background(), types.SMDModuleSindex, matchKey, 0); err != nil {
			return err
		}
		sx.publish(events.EventSindexDeleted, indexName)
		buf.AppendString("ok")
		return nil
	default:
		return infoerr.Newf(infoerr.Conflict, "indexname %s is not unique, ambiguous, rename required", indexName)
	}
}

func (sx *Sindex) parseDef(params paramstr.Params) (types.SindexDef, error) {
	var def types.SindexDef

	def.Namespace, _ = params.Get("ns", 128)
	if def.Namespace == "" {
		return def, infoerr.New(infoerr.BadParam, "missing required parameter: ns")
	}
	def.IndexName, _ = params.Get("indexname", 128)
	if def.IndexName == "" {
		return def, infoerr.New(infoerr.BadParam, "missing required parameter: indexname")
	}

	indexData, outcome := params.Get("indexdata", 256)
	if outcome == paramstr.TooLong {
		return def, infoerr.New(infoerr.TooLong, "indexdata exceeds bound")
	}
	if indexData == "" {
		return def, infoerr.New(infoerr.BadParam, "missing required parameter: indexdata")
	}
	parts := strings.SplitN(indexData, ",", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return def, infoerr.New(infoerr.BadParam, "indexdata must be <bin>,<type>")
	}
	def.Bin, def.KeyType = parts[0], parts[1]

	def.Set = params.GetDefault("set", "")

	def.IndexType = params.GetDefault("indextype", types.IndexTypeDefault)
	switch def.IndexType {
	case types.IndexTypeDefault, types.IndexTypeList, types.IndexTypeMapKeys, types.IndexTypeMapValues:
	default:
		return def, infoerr.Newf(infoerr.BadParam, "unknown indextype: %s", def.IndexType)
	}

	ctxB64 := params.GetDefault("context", "")
	if ctxB64 != "" {
		if err := validateCDTContext(ctxB64); err != nil {
			return def, err
		}
		def.ContextB64 = ctxB64
	}

	return def, nil
}

// validateCDTContext decodes and validates a base64-encoded CDT context
// path, per spec.md 4.G step 2: rejection kinds are invalid-base64,
// invalid-cdt-context, not-normalized-msgpack.
func validateCDTContext(ctxB64 string) error {
	raw, err := base64.StdEncoding.DecodeString(ctxB64)
	if err != nil {
		return infoerr.Newf(infoerr.BadParam, "invalid-base64: %v", err)
	}
	if len(raw) == 0 {
		return infoerr.New(infoerr.BadParam, "invalid-cdt-context: empty context")
	}

	var mh codec.MsgpackHandle
	dec := codec.NewDecoderBytes(raw, &mh)
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return infoerr.Newf(infoerr.BadParam, "invalid-cdt-context: %v", err)
	}
	if dec.NumBytesRead() != len(raw) {
		// Trailing bytes after one decodable value: not a single
		// normalized msgpack-encoded context path.
		return infoerr.New(infoerr.BadParam, "not-normalized-msgpack: trailing bytes")
	}
	if _, ok := v.([]interface{}); !ok {
		return infoerr.New(infoerr.BadParam, "invalid-cdt-context: expected an array of path steps")
	}
	return nil
}

// composeSindexKey deterministically composes the SMD key for a sindex
// definition, per spec.md 6: two definitions differing in any component
// yield distinct keys.
func composeSindexKey(def types.SindexDef) string {
	return fmt.Sprintf("%s|%s|%s|%s|%s|%s", def.Namespace, def.Set, def.Bin, def.ContextB64, def.IndexType, def.KeyType)
}

func splitSindexKey(key string) (namespace, set, rest string) {
	parts := strings.SplitN(key, "|", 3)
	if len(parts) < 2 {
		return key, "", ""
	}
	if len(parts) == 2 {
		return parts[0], parts[1], ""
	}
	return parts[0], parts[1], parts[2]
}
