package security

import "github.com/cuemby/infod/pkg/registry"

// Principal identifies the authenticated caller on a connection. The
// external collaborator that performs authentication populates this once
// per connection; the dispatcher reads it per command.
type Principal struct {
	Name  string
	Roles []string
}

// HasRole reports whether the principal carries role.
func (p Principal) HasRole(role string) bool {
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Anonymous is the principal used for connections the external
// authenticator has not yet populated, or when authentication is disabled.
var Anonymous = Principal{Name: "anonymous"}

// Authorizer grants or denies a registry.Permission for a Principal. The
// dispatcher calls Authorize once per command line before invoking its
// handler.
type Authorizer interface {
	Authorize(p Principal, perm registry.Permission) error
}

// AllowAll is the default Authorizer: every principal is granted every
// permission. Suitable for embedding and for tests; production deployments
// plug in the real authenticator/authorizer collaborator.
type AllowAll struct{}

func (AllowAll) Authorize(Principal, registry.Permission) error {
	return nil
}

// RoleAuthorizer grants a permission only to principals carrying a role
// registered for it. Unregistered permissions are denied to everyone —
// register every command's required permission explicitly.
type RoleAuthorizer struct {
	// Roles maps a permission to the set of roles that may invoke it.
	Roles map[registry.Permission][]string
}

func NewRoleAuthorizer() *RoleAuthorizer {
	return &RoleAuthorizer{Roles: make(map[registry.Permission][]string)}
}

func (a *RoleAuthorizer) Grant(perm registry.Permission, roles ...string) {
	a.Roles[perm] = append(a.Roles[perm], roles...)
}

func (a *RoleAuthorizer) Authorize(p Principal, perm registry.Permission) error {
	for _, role := range a.Roles[perm] {
		if p.HasRole(role) {
			return nil
		}
	}
	return ErrPermissionDenied
}
