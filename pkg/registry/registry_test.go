package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cuemby/infod/pkg/dynbuf"
	"github.com/cuemby/infod/pkg/paramstr"
)

func TestRegisterAndLookupStatic(t *testing.T) {
	r := New()
	r.RegisterStatic(StaticEntry{Name: "node-id", Value: []byte("node-1"), Default: true})

	res, ok := r.Lookup("node-id")
	assert.True(t, ok)
	assert.NotNil(t, res.Static)
	assert.Equal(t, []byte("node-1"), res.Static.Value)
}

func TestRegisterStaticEmptyValueClears(t *testing.T) {
	r := New()
	r.RegisterStatic(StaticEntry{Name: "node-id", Value: []byte("node-1")})
	r.RegisterStatic(StaticEntry{Name: "node-id", Value: nil})

	_, ok := r.Lookup("node-id")
	assert.False(t, ok)
}

func TestLookupOrderStaticBeforeDynamicBeforeTree(t *testing.T) {
	r := New()
	r.RegisterTree(TreeEntry{Name: "dup", Fn: func(name, subtree string, buf *dynbuf.Buf) error { return nil }})
	r.RegisterDynamic(DynamicEntry{Name: "dup", Fn: func(name string, buf *dynbuf.Buf) error { return nil }})
	r.RegisterStatic(StaticEntry{Name: "dup", Value: []byte("static-wins")})

	res, ok := r.Lookup("dup")
	assert.True(t, ok)
	assert.NotNil(t, res.Static)
	assert.Nil(t, res.Dynamic)
	assert.Nil(t, res.Tree)
}

func TestRegisterCommandAndLookupCommand(t *testing.T) {
	r := New()
	called := false
	r.RegisterCommand(CommandEntry{
		Name: "roster-set",
		Fn: func(name string, params paramstr.Params, buf *dynbuf.Buf) error {
			called = true
			return nil
		},
		Permission: "roster-write",
	})

	entry, ok := r.LookupCommand("roster-set")
	assert.True(t, ok)
	assert.Equal(t, Permission("roster-write"), entry.Permission)
	assert.NoError(t, entry.Fn("roster-set", paramstr.Parse(""), dynbuf.NewSize(0)))
	assert.True(t, called)
}

func TestLookupCommandMiss(t *testing.T) {
	r := New()
	_, ok := r.LookupCommand("no-such-command")
	assert.False(t, ok)
}

func TestDefaultStaticAndDynamic(t *testing.T) {
	r := New()
	r.RegisterStatic(StaticEntry{Name: "node-id", Value: []byte("node-1"), Default: true})
	r.RegisterStatic(StaticEntry{Name: "edition", Value: []byte("community")})
	r.RegisterDynamic(DynamicEntry{Name: "statistics", Fn: func(string, *dynbuf.Buf) error { return nil }, Default: true})
	r.RegisterDynamic(DynamicEntry{Name: "best-practices", Fn: func(string, *dynbuf.Buf) error { return nil }})

	defaultStatic := r.DefaultStatic()
	assert.Len(t, defaultStatic, 1)
	assert.Equal(t, "node-id", defaultStatic[0].Name)

	defaultDynamic := r.DefaultDynamic()
	assert.Len(t, defaultDynamic, 1)
	assert.Equal(t, "statistics", defaultDynamic[0].Name)
}

func TestRegisterIsIdempotentOnName(t *testing.T) {
	r := New()
	r.RegisterStatic(StaticEntry{Name: "build", Value: []byte("v1")})
	r.RegisterStatic(StaticEntry{Name: "build", Value: []byte("v2")})

	res, ok := r.Lookup("build")
	assert.True(t, ok)
	assert.Equal(t, []byte("v2"), res.Static.Value)
}
