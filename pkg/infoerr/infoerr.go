// Package infoerr is the closed error-kind taxonomy the Info plane uses on
// the wire. Validation failures are recovered locally and rendered as a
// reply line; they never propagate as Go panics. Internal invariant
// violations (registry corruption, unreachable enum cases) are not part of
// this taxonomy — callers log.Fatal on those instead.
package infoerr

import "fmt"

// Kind is one of the error kinds named in the wire protocol. The zero value
// is not a valid Kind; use Generic for unclassified failures.
type Kind string

const (
	BadParam       Kind = "bad-param"
	TooLong        Kind = "too-long"
	NotFound       Kind = "not-found"
	Conflict       Kind = "conflict"
	MaxCount       Kind = "max-count"
	EnterpriseOnly Kind = "enterprise-only"
	Timeout        Kind = "timeout"
	Auth           Kind = "auth"
	Generic        Kind = "generic"
)

// Error is a classified Info-plane error carrying a wire Kind and a
// human-readable detail. It satisfies the standard error interface so it
// composes with %w and errors.As/Is.
type Error struct {
	Kind   Kind
	Detail string
}

func New(kind Kind, detail string) *Error {
	return &Error{Kind: kind, Detail: detail}
}

func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

func (e *Error) Error() string {
	return string(e.Kind) + ": " + e.Detail
}

// Code renders the wire error code segment for this Kind. The original
// source leaves this segment empty for most kinds (ERROR::bad-param) rather
// than assigning numeric codes; this rendition preserves that framing
// instead of inventing codes the source never had.
func (e *Error) Code() string {
	return ""
}

// Wire renders the exact ERROR:<code>:<detail> framing used by lookups and
// most commands.
func (e *Error) Wire() []byte {
	return []byte("ERROR:" + e.Code() + ":" + e.Detail)
}

// WireFail renders the legacy FAIL:<code>:<detail> framing preserved for
// sindex-command client compatibility.
func (e *Error) WireFail() []byte {
	return []byte("FAIL:" + e.Code() + ":" + e.Detail)
}

// GenericReply is the literal "error" body used by the Config Mutator: the wire
// reply is intentionally opaque so clients cannot parse an error taxonomy
// out of a config-set failure.
var GenericReply = []byte("error")

// OK is the literal success body used by the Config Mutator and
// SMD-mediated commands.
var OK = []byte("ok")
