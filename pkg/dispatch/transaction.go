package dispatch

import (
	"io"
	"time"

	"github.com/cuemby/infod/pkg/security"
)

// Conn is the minimal connection surface the dispatcher needs. The real
// network listener and TLS handshake are out-of-scope external
// collaborators (spec.md 1); this interface is all dispatch depends on, so
// tests can drive it with an in-memory implementation.
type Conn interface {
	io.Writer
	Close() error
}

// Transaction is a queued request: a connection handle, the raw request
// body, and an arrival timestamp used only for the completion-latency
// histogram.
type Transaction struct {
	Conn      Conn
	ConnID    string
	Principal security.Principal
	Body      []byte
	ArrivedAt time.Time
}
