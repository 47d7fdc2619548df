// Package httpmsg implements the HTTP/1.1 message codec: parsing request
// bytes into a structured Request and serializing a Response back to bytes.
// It deliberately does not use net/http — the fixture server owns the wire
// format end to end so that a driving test can observe exactly the bytes
// that were parsed and exactly the bytes that will be written.
package httpmsg

import "strings"

// headerPair is one key/value occurrence. Headers preserves the exact
// insertion order of every occurrence, including repeats of the same key,
// so that serialization round-trips a handler's intent faithfully.
type headerPair struct {
	Key   string
	Value string
}

// Headers is a multi-valued, insertion-ordered header map. Keys are stored
// exactly as received (or as set by a handler); lookups are case-insensitive,
// matching RFC 7230 §3.2 field-name semantics.
type Headers struct {
	pairs []headerPair
}

// Add appends a key/value occurrence, preserving any existing values for key.
func (h *Headers) Add(key, value string) {
	h.pairs = append(h.pairs, headerPair{Key: key, Value: value})
}

// Set replaces all existing occurrences of key with a single value.
func (h *Headers) Set(key, value string) {
	h.Del(key)
	h.Add(key, value)
}

// Del removes every occurrence of key.
func (h *Headers) Del(key string) {
	out := h.pairs[:0]
	for _, p := range h.pairs {
		if !strings.EqualFold(p.Key, key) {
			out = append(out, p)
		}
	}
	h.pairs = out
}

// Values returns every value recorded for key, in insertion order. It
// returns nil if key was never set.
func (h *Headers) Values(key string) []string {
	var vals []string
	for _, p := range h.pairs {
		if strings.EqualFold(p.Key, key) {
			vals = append(vals, p.Value)
		}
	}
	return vals
}

// Get returns the first value recorded for key, or "" if absent.
func (h *Headers) Get(key string) string {
	for _, p := range h.pairs {
		if strings.EqualFold(p.Key, key) {
			return p.Value
		}
	}
	return ""
}

// Count returns the number of occurrences of key.
func (h *Headers) Count(key string) int {
	n := 0
	for _, p := range h.pairs {
		if strings.EqualFold(p.Key, key) {
			n++
		}
	}
	return n
}

// Pairs returns every key/value occurrence in insertion order. The returned
// slice is a copy; changing it does not affect h.
func (h *Headers) Pairs() []struct{ Key, Value string } {
	out := make([]struct{ Key, Value string }, len(h.pairs))
	for i, p := range h.pairs {
		out[i] = struct{ Key, Value string }{Key: p.Key, Value: p.Value}
	}
	return out
}

// containsToken reports whether value contains token as a comma-separated,
// case-insensitive element (used for Connection/Upgrade token matching).
func containsToken(value, token string) bool {
	for _, part := range strings.Split(value, ",") {
		if strings.EqualFold(strings.TrimSpace(part), token) {
			return true
		}
	}
	return false
}
