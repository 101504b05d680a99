package reader

import "strings"

// headerSpan is one header line's name/value, sliced out of the working
// buffer at parse time. Copied into strings (not kept as []byte aliases) so
// HeaderView is safe to retain after the buffer is reused.
type headerSpan struct {
	name  string
	value string
}

// HeaderView is a read-only view over a request's header block, with
// ASCII case-insensitive name lookups per §3 and invariant 4.
type HeaderView struct {
	spans []headerSpan
}

// Get returns the first header value matching name (case-insensitively).
func (h HeaderView) Get(name string) (string, bool) {
	for _, s := range h.spans {
		if strings.EqualFold(s.name, name) {
			return s.value, true
		}
	}
	return "", false
}

// Values returns every header value matching name, in wire order.
func (h HeaderView) Values(name string) []string {
	var out []string
	for _, s := range h.spans {
		if strings.EqualFold(s.name, name) {
			out = append(out, s.value)
		}
	}
	return out
}

// All calls fn for every (name, value) pair in wire order. fn returning
// false stops iteration early.
func (h HeaderView) All(fn func(name, value string) bool) {
	for _, s := range h.spans {
		if !fn(s.name, s.value) {
			return
		}
	}
}

// Len returns the number of header lines.
func (h HeaderView) Len() int { return len(h.spans) }

func trimOWS(s string) string {
	return strings.Trim(s, " \t")
}
