/*
Package security is the Info plane's narrow view of authentication and
authorization. The network listener, TLS handshake, and security-principal
source of truth are out-of-scope external collaborators (spec.md 1) — this
package only defines the interface the Dispatcher (pkg/dispatch) calls per
command: a Principal carried on the connection and an Authorizer that grants
or denies a Permission for it.

No certificate issuance, no secret encryption, and no session management
live here; those belong to the collaborator this package stands in for.
*/
package security
