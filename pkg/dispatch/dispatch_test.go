package dispatch

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/infod/pkg/dynbuf"
	"github.com/cuemby/infod/pkg/infoerr"
	"github.com/cuemby/infod/pkg/paramstr"
	"github.com/cuemby/infod/pkg/registry"
	"github.com/cuemby/infod/pkg/security"
)

type fakeConn struct {
	bytes.Buffer
	closed bool
}

func (c *fakeConn) Close() error { c.closed = true; return nil }

func decodeReply(t *testing.T, raw []byte) string {
	t.Helper()
	n, err := DecodeHeader(raw[:HeaderSize])
	require.NoError(t, err)
	body := raw[HeaderSize:]
	require.Len(t, body, int(n))
	return string(body)
}

func newTestRegistry() *registry.Registry {
	reg := registry.New()
	reg.RegisterStatic(registry.StaticEntry{Name: "node-id", Value: []byte("node-1"), Default: true})
	reg.RegisterDynamic(registry.DynamicEntry{Name: "statistics", Fn: func(name string, buf *dynbuf.Buf) error {
		buf.AppendString("cluster_size=1")
		return nil
	}, Default: true})
	reg.RegisterTree(registry.TreeEntry{Name: "namespace", Fn: func(name, subtree string, buf *dynbuf.Buf) error {
		buf.AppendString("objects=0;ns=" + subtree)
		return nil
	}})
	reg.RegisterCommand(registry.CommandEntry{
		Name: "roster-set",
		Fn: func(name string, params paramstr.Params, buf *dynbuf.Buf) error {
			buf.AppendString("ok")
			return nil
		},
		Permission: "roster-write",
	})
	reg.RegisterCommand(registry.CommandEntry{
		Name: "sindex-create",
		Fn: func(name string, params paramstr.Params, buf *dynbuf.Buf) error {
			return infoerr.New(infoerr.Conflict, "already exists")
		},
	})
	reg.RegisterCommand(registry.CommandEntry{
		Name: "udf-put",
		Fn: func(name string, params paramstr.Params, buf *dynbuf.Buf) error {
			buf.AppendString("ok")
			return nil
		},
		Permission: "udf-write",
	})
	return reg
}

func TestDispatchEmptyBodyReturnsDefaults(t *testing.T) {
	d := New(newTestRegistry(), security.AllowAll{}, nil)
	conn := &fakeConn{}
	d.Handle(&Transaction{Conn: conn, ConnID: "c1", ArrivedAt: time.Now()})

	body := decodeReply(t, conn.Bytes())
	assert.Contains(t, body, "node-id\tnode-1\n")
	assert.Contains(t, body, "statistics\tcluster_size=1\n")
}

func TestDispatchLookupMiss(t *testing.T) {
	d := New(newTestRegistry(), security.AllowAll{}, nil)
	conn := &fakeConn{}
	d.Handle(&Transaction{Conn: conn, ConnID: "c1", Body: []byte("no-such-endpoint\n"), ArrivedAt: time.Now()})

	body := decodeReply(t, conn.Bytes())
	assert.Contains(t, body, "no-such-endpoint\tERROR::no such endpoint: no-such-endpoint\n")
}

func TestDispatchTreeLookup(t *testing.T) {
	d := New(newTestRegistry(), security.AllowAll{}, nil)
	conn := &fakeConn{}
	d.Handle(&Transaction{Conn: conn, ConnID: "c1", Body: []byte("namespace/test\n"), ArrivedAt: time.Now()})

	body := decodeReply(t, conn.Bytes())
	assert.Contains(t, body, "namespace/test\tobjects=0;ns=test\n")
}

func TestDispatchCommandSuccess(t *testing.T) {
	d := New(newTestRegistry(), security.AllowAll{}, nil)
	conn := &fakeConn{}
	d.Handle(&Transaction{Conn: conn, ConnID: "c1", Body: []byte("roster-set:namespace=test;nodes=n1\n"), ArrivedAt: time.Now()})

	body := decodeReply(t, conn.Bytes())
	assert.Contains(t, body, "roster-set:namespace=test;nodes=n1\tok\n")
}

func TestDispatchCommandUnknown(t *testing.T) {
	d := New(newTestRegistry(), security.AllowAll{}, nil)
	conn := &fakeConn{}
	d.Handle(&Transaction{Conn: conn, ConnID: "c1", Body: []byte("bogus-command:a=1\n"), ArrivedAt: time.Now()})

	body := decodeReply(t, conn.Bytes())
	assert.Contains(t, body, "bogus-command:a=1\tERROR::no such command: bogus-command\n")
}

func TestDispatchCommandUsesLegacyFailFramingForSindex(t *testing.T) {
	d := New(newTestRegistry(), security.AllowAll{}, nil)
	conn := &fakeConn{}
	d.Handle(&Transaction{Conn: conn, ConnID: "c1", Body: []byte("sindex-create:ns=test\n"), ArrivedAt: time.Now()})

	body := decodeReply(t, conn.Bytes())
	assert.Contains(t, body, "FAIL::already exists")
}

func TestDispatchDeniesUnauthorizedCommand(t *testing.T) {
	authz := security.NewRoleAuthorizer() // grants nothing
	d := New(newTestRegistry(), authz, nil)
	conn := &fakeConn{}
	d.Handle(&Transaction{Conn: conn, ConnID: "c1", Principal: security.Principal{Name: "bob"}, Body: []byte("roster-set:namespace=test;nodes=n1\n"), ArrivedAt: time.Now()})

	body := decodeReply(t, conn.Bytes())
	assert.Contains(t, body, "ERROR::permission denied")
}

func TestDispatchUsesRoleViolationFramingForDeniedUDFAdmin(t *testing.T) {
	authz := security.NewRoleAuthorizer() // grants nothing
	d := New(newTestRegistry(), authz, nil)
	conn := &fakeConn{}
	d.Handle(&Transaction{Conn: conn, ConnID: "c1", Principal: security.Principal{Name: "bob"}, Body: []byte("udf-put:filename=test.lua\n"), ArrivedAt: time.Now()})

	body := decodeReply(t, conn.Bytes())
	assert.Contains(t, body, "error=role_violation")
}

func TestDispatchAuditCalledOnce(t *testing.T) {
	var calls int
	d := New(newTestRegistry(), security.AllowAll{}, func(auditID, connID, principal, name, params string, err error) {
		calls++
	})
	conn := &fakeConn{}
	d.Handle(&Transaction{Conn: conn, ConnID: "c1", Body: []byte("roster-set:namespace=test;nodes=n1\n"), ArrivedAt: time.Now()})

	assert.Equal(t, 1, calls)
}
