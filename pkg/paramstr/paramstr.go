// Package paramstr implements the parameter-string grammar used by command
// requests and SMD key composition: a semicolon-delimited list of
// "key=value" pairs, values opaque and bounded by the caller.
package paramstr

import "strings"

// Outcome classifies the result of a Get lookup.
type Outcome int

const (
	// Found means the key was present and its value fit within the
	// caller's bound.
	Found Outcome = iota
	// Missing means the key was not present in the parameter string.
	Missing
	// TooLong means the key was present but its value exceeds the
	// caller's bound. The caller must treat this as a structured error,
	// never silently truncate.
	TooLong
)

// Params is a parsed, read-only view over a parameter string. Parsing is a
// single linear scan; individual lookups via Get re-scan in O(n) since
// parameter strings are bounded to a few kilobytes (spec 4.B).
type Params struct {
	raw string
}

// Parse wraps a raw "k=v;k=v" parameter string for lookup. Parse itself
// does no allocation or validation — validation happens per-key in Get.
func Parse(raw string) Params {
	return Params{raw: raw}
}

// Get extracts the value for key, enforcing maxLen on the value length.
// maxLen <= 0 means unbounded.
func Get(raw, key string, maxLen int) (value string, outcome Outcome) {
	for _, pair := range splitPairs(raw) {
		k, v, ok := splitPair(pair)
		if !ok || k != key {
			continue
		}
		if maxLen > 0 && len(v) > maxLen {
			return v, TooLong
		}
		return v, Found
	}
	return "", Missing
}

// Get is the method form of the package-level Get, scanning this Params'
// underlying raw string.
func (p Params) Get(key string, maxLen int) (string, Outcome) {
	return Get(p.raw, key, maxLen)
}

// GetDefault returns the value for key, or def if the key is missing or
// too long. Callers that need to distinguish too-long from missing must use
// Get directly; GetDefault is for optional parameters where both absent
// states are handled identically.
func (p Params) GetDefault(key, def string) string {
	v, outcome := p.Get(key, 0)
	if outcome != Found {
		return def
	}
	return v
}

// Has reports whether key is present, regardless of value length.
func (p Params) Has(key string) bool {
	_, outcome := p.Get(key, 0)
	return outcome != Missing
}

// All returns every key/value pair in the parameter string, in order of
// appearance. Malformed pairs (no '=') are skipped.
func (p Params) All() map[string]string {
	out := make(map[string]string)
	for _, pair := range splitPairs(p.raw) {
		k, v, ok := splitPair(pair)
		if ok {
			out[k] = v
		}
	}
	return out
}

func splitPairs(raw string) []string {
	if raw == "" {
		return nil
	}
	return strings.Split(raw, ";")
}

func splitPair(pair string) (key, value string, ok bool) {
	if pair == "" {
		return "", "", false
	}
	i := strings.IndexByte(pair, '=')
	if i < 0 {
		return "", "", false
	}
	return pair[:i], pair[i+1:], true
}

// Encode renders key/value pairs back into "k=v;k=v" form, in the order
// given. Used by tests and by commands that need to round-trip a parameter
// string (config-get / config-set verification, spec 8).
func Encode(pairs [][2]string) string {
	parts := make([]string, 0, len(pairs))
	for _, kv := range pairs {
		parts = append(parts, kv[0]+"="+kv[1])
	}
	return strings.Join(parts, ";")
}
