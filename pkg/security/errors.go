package security

import "github.com/cuemby/infod/pkg/infoerr"

// ErrPermissionDenied is returned by Authorizer implementations when a
// principal lacks the required role. The dispatcher renders it on the wire
// as infoerr.Auth.
var ErrPermissionDenied = infoerr.New(infoerr.Auth, "permission denied")
