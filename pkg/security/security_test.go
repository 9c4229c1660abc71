package security

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cuemby/infod/pkg/registry"
)

func TestPrincipalHasRole(t *testing.T) {
	p := Principal{Name: "alice", Roles: []string{"admin", "operator"}}
	assert.True(t, p.HasRole("admin"))
	assert.False(t, p.HasRole("viewer"))
}

func TestAllowAllGrantsEverything(t *testing.T) {
	var a Authorizer = AllowAll{}
	assert.NoError(t, a.Authorize(Anonymous, registry.Permission("anything")))
}

func TestRoleAuthorizerGrantsOnlyRegisteredRoles(t *testing.T) {
	a := NewRoleAuthorizer()
	a.Grant(PermConfigWrite, "admin")

	admin := Principal{Name: "alice", Roles: []string{"admin"}}
	viewer := Principal{Name: "bob", Roles: []string{"viewer"}}

	assert.NoError(t, a.Authorize(admin, PermConfigWrite))
	assert.ErrorIs(t, a.Authorize(viewer, PermConfigWrite), ErrPermissionDenied)
}

func TestRoleAuthorizerDeniesUnregisteredPermission(t *testing.T) {
	a := NewRoleAuthorizer()
	admin := Principal{Name: "alice", Roles: []string{"admin"}}
	assert.ErrorIs(t, a.Authorize(admin, PermTruncate), ErrPermissionDenied)
}
