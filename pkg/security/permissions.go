package security

import "github.com/cuemby/infod/pkg/registry"

// The permission vocabulary commands declare when they register
// themselves, grouped by the kind of state a command mutates (spec.md's
// minimal auth model: a command either requires nothing beyond a
// connection, or requires one of these roles via RoleAuthorizer).
const (
	PermConfigWrite registry.Permission = "config-write"
	PermSindexWrite registry.Permission = "sindex-write"
	PermRosterWrite registry.Permission = "roster-write"
	PermTruncate    registry.Permission = "truncate"
	PermUDFWrite    registry.Permission = "udf-write"
)
