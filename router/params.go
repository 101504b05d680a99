// Package router implements §4.3: path matching, method dispatch, layers,
// and extractors over a parsed reader.Request.
package router

// Params accumulates typed path parameters as a route descriptor is
// matched left to right, kept as a plain slice of values rather than
// modeled as a recursive tuple type. No arity bound is enforced.
type Params struct {
	values []any
}

// Push appends one matched, parsed path parameter.
func (p *Params) Push(v any) {
	p.values = append(p.values, v)
}

// At returns the i'th path parameter, panicking if the handler's declared
// arity doesn't match what the route actually captured — a configuration
// bug, not a request-time error.
func (p *Params) At(i int) any {
	return p.values[i]
}

// Len returns how many parameters have been captured so far.
func (p *Params) Len() int { return len(p.values) }

// Truncate discards every parameter pushed since Len() returned n, so a
// failed match doesn't leave stray parameters visible to a sibling route
// that goes on to match the same request.
func (p *Params) Truncate(n int) {
	p.values = p.values[:n]
}
