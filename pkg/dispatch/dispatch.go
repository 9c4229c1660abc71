package dispatch

import (
	"time"

	"github.com/google/uuid"

	"github.com/cuemby/infod/pkg/dynbuf"
	"github.com/cuemby/infod/pkg/infoerr"
	"github.com/cuemby/infod/pkg/log"
	"github.com/cuemby/infod/pkg/paramstr"
	"github.com/cuemby/infod/pkg/registry"
	"github.com/cuemby/infod/pkg/security"
)

// AuditFunc records a command invocation for audit purposes. The audit
// trail itself — storage, retention — is an external collaborator's
// concern; the dispatcher only calls this hook once per command line.
type AuditFunc func(auditID, connID, principal, name, params string, err error)

// Dispatcher implements component H's routing: it resolves each request
// line against the registry, enforces authorization for commands, and
// assembles the framed reply. One Dispatcher is shared by every worker in
// a Pool; all of its fields are read-only after construction or
// independently synchronized (registry.Registry, security.Authorizer).
type Dispatcher struct {
	Registry   *registry.Registry
	Authorizer security.Authorizer
	Audit      AuditFunc
}

// New returns a Dispatcher wired to reg and authz. A nil AuditFunc is
// replaced with a no-op.
func New(reg *registry.Registry, authz security.Authorizer, audit AuditFunc) *Dispatcher {
	if audit == nil {
		audit = func(string, string, string, string, string, error) {}
	}
	return &Dispatcher{Registry: reg, Authorizer: authz, Audit: audit}
}

// Handle is a Pool HandlerFunc: it processes tx end to end, including the
// framed write-back and latency/throughput metrics (spec.md 4.H steps 1-7).
func (d *Dispatcher) Handle(tx *Transaction) {
	buf := dynbuf.New()
	buf.AppendBytes(make([]byte, HeaderSize)) // header placeholder

	bodyStart := buf.Len()
	if len(tx.Body) == 0 {
		d.writeDefaults(buf)
	} else {
		d.writeBody(tx, buf)
	}
	bodyLen := uint32(buf.Len() - bodyStart)

	out := buf.Bytes()
	EncodeHeader(out[:HeaderSize], bodyLen)

	if _, err := tx.Conn.Write(out); err != nil {
		log.WithComponent("dispatch").Warn().Err(err).Str("conn_id", tx.ConnID).Msg("reply write failed, closing connection")
		_ = tx.Conn.Close()
	}

	RequestDuration.Observe(time.Since(tx.ArrivedAt).Seconds())
	RequestsTotal.Inc()
}

// writeDefaults implements the "dump all defaults" response for an empty
// request body: every default-flagged static entry, then every
// default-flagged dynamic entry, each as name\tvalue\n.
func (d *Dispatcher) writeDefaults(buf *dynbuf.Buf) {
	for _, e := range d.Registry.DefaultStatic() {
		buf.AppendNameValue(e.Name, string(e.Value))
	}
	for _, e := range d.Registry.DefaultDynamic() {
		scratch := dynbuf.NewSize(256)
		if err := e.Fn(e.Name, scratch); err != nil {
			buf.AppendNameValue(e.Name, errorValue(err))
			continue
		}
		buf.AppendNameValue(e.Name, scratch.String())
	}
}

func (d *Dispatcher) writeBody(tx *Transaction, buf *dynbuf.Buf) {
	lines := ParseBody(string(tx.Body))
	for _, line := range lines {
		if line.IsCommand {
			d.dispatchCommand(tx, line, buf)
			continue
		}
		d.dispatchLookup(line, buf)
	}
}

func (d *Dispatcher) dispatchLookup(line Line, buf *dynbuf.Buf) {
	res, ok := d.Registry.Lookup(line.Name)
	if !ok {
		if base, _, isTree := SplitTreeName(line.Name); isTree {
			res, ok = d.Registry.Lookup(base)
			ok = ok && res.Tree != nil
		}
	}
	if !ok {
		buf.AppendNameValue(line.Name, errorValue(infoerr.New(infoerr.NotFound, "no such endpoint: "+line.Name)))
		return
	}
	scratch := dynbuf.NewSize(256)
	var err error
	switch {
	case res.Static != nil:
		buf.AppendNameValue(line.Name, string(res.Static.Value))
		return
	case res.Dynamic != nil:
		err = res.Dynamic.Fn(line.Name, scratch)
	case res.Tree != nil:
		base, subtree, _ := SplitTreeName(line.Name)
		err = res.Tree.Fn(base, subtree, scratch)
	}
	if err != nil {
		buf.AppendNameValue(line.Name, errorValue(err))
		return
	}
	buf.AppendNameValue(line.Name, scratch.String())
}

func (d *Dispatcher) dispatchCommand(tx *Transaction, line Line, buf *dynbuf.Buf) {
	wireName := line.Name + ":" + line.Params
	auditID := uuid.NewString()

	entry, ok := d.Registry.LookupCommand(line.Name)
	if !ok {
		err := infoerr.New(infoerr.NotFound, "no such command: "+line.Name)
		buf.AppendNameValue(wireName, errorValue(err))
		d.Audit(auditID, tx.ConnID, tx.Principal.Name, line.Name, line.Params, err)
		return
	}

	if d.Authorizer != nil {
		if err := d.Authorizer.Authorize(tx.Principal, entry.Permission); err != nil {
			buf.AppendNameValue(wireName, commandErrorValue(line.Name, err))
			d.Audit(auditID, tx.ConnID, tx.Principal.Name, line.Name, line.Params, err)
			return
		}
	}

	scratch := dynbuf.NewSize(256)
	err := entry.Fn(line.Name, paramstr.Parse(line.Params), scratch)
	d.Audit(auditID, tx.ConnID, tx.Principal.Name, line.Name, line.Params, err)
	if err != nil && scratch.Len() == 0 {
		// The handler didn't render its own outcome (e.g. config-set's
		// literal "ok"/"error" body) — fall back to the classified
		// ERROR:/FAIL: rendering derived from the returned error.
		buf.AppendNameValue(wireName, commandErrorValue(line.Name, err))
		return
	}
	buf.AppendNameValue(wireName, scratch.String())
}

// errorValue renders err in ERROR:<code>:<detail> form for a classified
// infoerr.Error, or the opaque literal "error" for anything else. Used by
// lookups, which have no legacy FAIL: variant.
func errorValue(err error) string {
	if ie, ok := err.(*infoerr.Error); ok {
		return string(ie.Wire())
	}
	return string(infoerr.GenericReply)
}

// commandErrorValue renders a command failure, using the legacy FAIL:
// framing for sindex-family commands and the literal "error=role_violation"
// framing for UDF-admin commands denied on authorization grounds (both
// preserved for client compatibility per spec.md 4.H), and ERROR: for
// every other command.
func commandErrorValue(name string, err error) string {
	ie, ok := err.(*infoerr.Error)
	if !ok {
		return string(infoerr.GenericReply)
	}
	if isUDFAdminCommand(name) && ie.Kind == infoerr.Auth {
		return "error=role_violation"
	}
	if isSindexCommand(name) {
		return string(ie.WireFail())
	}
	return string(ie.Wire())
}

func isSindexCommand(name string) bool {
	switch name {
	case "sindex-create", "sindex-delete":
		return true
	default:
		return false
	}
}

func isUDFAdminCommand(name string) bool {
	switch name {
	case "udf-put", "udf-remove", "udf-clear-cache":
		return true
	default:
		return false
	}
}
