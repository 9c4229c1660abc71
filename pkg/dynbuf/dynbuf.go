// Package dynbuf implements the Dyn-Buf reply builder: an append-only byte
// buffer with typed formatters used to assemble every Info reply and every
// Ticker frame line. A Dyn-Buf is scoped to a single request or frame and is
// never shared across goroutines.
package dynbuf

import (
	"strconv"
	"strings"
)

// DefaultCapacity is the size a reply buffer is preallocated to, matching
// the dispatcher's "avoid growth in the common case" contract (spec 4.H).
const DefaultCapacity = 128 * 1024

// Buf is a growable byte buffer. The zero value is usable but will grow
// from nothing; callers on the request hot path should use New, which
// preallocates DefaultCapacity.
type Buf struct {
	b []byte
}

// New returns a Buf preallocated to DefaultCapacity.
func New() *Buf {
	return &Buf{b: make([]byte, 0, DefaultCapacity)}
}

// NewSize returns a Buf preallocated to the given capacity. Passing 0 is
// valid: the backing slice transparently promotes to heap on first append,
// same as the default-capacity case, just with an earlier reallocation.
func NewSize(capacity int) *Buf {
	return &Buf{b: make([]byte, 0, capacity)}
}

// Bytes returns the accumulated buffer. The returned slice aliases the
// Buf's internal storage and must not be retained past the next append.
func (b *Buf) Bytes() []byte { return b.b }

// String returns the accumulated buffer as a string copy.
func (b *Buf) String() string { return string(b.b) }

// Len reports the number of bytes appended so far.
func (b *Buf) Len() int { return len(b.b) }

// Reset empties the buffer without releasing its backing array.
func (b *Buf) Reset() { b.b = b.b[:0] }

// AppendString appends s verbatim.
func (b *Buf) AppendString(s string) *Buf {
	b.b = append(b.b, s...)
	return b
}

// AppendBytes appends p verbatim.
func (b *Buf) AppendBytes(p []byte) *Buf {
	b.b = append(b.b, p...)
	return b
}

// AppendByte appends a single byte.
func (b *Buf) AppendByte(c byte) *Buf {
	b.b = append(b.b, c)
	return b
}

// AppendUint appends an unsigned integer in decimal.
func (b *Buf) AppendUint(v uint64) *Buf {
	b.b = strconv.AppendUint(b.b, v, 10)
	return b
}

// AppendUintHex appends an unsigned integer in lowercase hex, no "0x"
// prefix, matching the cluster-key rendering convention.
func (b *Buf) AppendUintHex(v uint64) *Buf {
	b.b = strconv.AppendUint(b.b, v, 16)
	return b
}

// AppendInt appends a signed integer in decimal.
func (b *Buf) AppendInt(v int64) *Buf {
	b.b = strconv.AppendInt(b.b, v, 10)
	return b
}

// AppendBool appends "true" or "false".
func (b *Buf) AppendBool(v bool) *Buf {
	b.b = strconv.AppendBool(b.b, v)
	return b
}

// AppendFloat appends a float with the given decimal precision.
func (b *Buf) AppendFloat(v float64, precision int) *Buf {
	b.b = strconv.AppendFloat(b.b, v, 'f', precision, 64)
	return b
}

// AppendSafeString appends s, or the literal "null" if s is empty. Mirrors
// the source's safe-string appender used where a value may be legitimately
// absent (best-practices reporting, optional namespace fields).
func (b *Buf) AppendSafeString(s string) *Buf {
	if s == "" {
		return b.AppendString("null")
	}
	return b.AppendString(s)
}

// AppendPair appends "key=value;", the canonical key=value pair form used
// to build statistics and namespace reply bodies. The trailing semicolon is
// chomped from the last pair via Chomp.
func (b *Buf) AppendPair(key, value string) *Buf {
	b.b = append(b.b, key...)
	b.b = append(b.b, '=')
	b.b = append(b.b, value...)
	b.b = append(b.b, ';')
	return b
}

// AppendPairUint appends "key=<v>;" for an unsigned integer value.
func (b *Buf) AppendPairUint(key string, v uint64) *Buf {
	b.b = append(b.b, key...)
	b.b = append(b.b, '=')
	b.b = strconv.AppendUint(b.b, v, 10)
	b.b = append(b.b, ';')
	return b
}

// AppendPairInt appends "key=<v>;" for a signed integer value.
func (b *Buf) AppendPairInt(key string, v int64) *Buf {
	b.b = append(b.b, key...)
	b.b = append(b.b, '=')
	b.b = strconv.AppendInt(b.b, v, 10)
	b.b = append(b.b, ';')
	return b
}

// AppendPairFloat appends "key=<v>;" for a float value with the given
// precision.
func (b *Buf) AppendPairFloat(key string, v float64, precision int) *Buf {
	b.b = append(b.b, key...)
	b.b = append(b.b, '=')
	b.b = strconv.AppendFloat(b.b, v, 'f', precision, 64)
	b.b = append(b.b, ';')
	return b
}

// AppendPairBool appends "key=true;" or "key=false;".
func (b *Buf) AppendPairBool(key string, v bool) *Buf {
	b.b = append(b.b, key...)
	b.b = append(b.b, '=')
	b.b = strconv.AppendBool(b.b, v)
	b.b = append(b.b, ';')
	return b
}

// Chomp removes a single trailing byte if it equals sentinel. No-op on an
// empty buffer or a mismatched trailing byte.
func (b *Buf) Chomp(sentinel byte) *Buf {
	if n := len(b.b); n > 0 && b.b[n-1] == sentinel {
		b.b = b.b[:n-1]
	}
	return b
}

// AppendLine appends s followed by a newline, the per-result terminator
// used when concatenating multiple endpoint results in a single reply.
func (b *Buf) AppendLine(s string) *Buf {
	b.b = append(b.b, s...)
	b.b = append(b.b, '\n')
	return b
}

// AppendNameValue appends "name\tvalue\n", the canonical reply-line form
// for both lookups and commands.
func (b *Buf) AppendNameValue(name, value string) *Buf {
	b.b = append(b.b, name...)
	b.b = append(b.b, '\t')
	b.b = append(b.b, value...)
	b.b = append(b.b, '\n')
	return b
}

// Join is a convenience for building a comma-joined list inside a larger
// Dyn-Buf, mirroring the nested-dyn-buf pattern the source uses for
// info_get_endpoints (build a sub-list, then splice it into the parent).
func Join(items []string, sep string) string {
	return strings.Join(items, sep)
}
