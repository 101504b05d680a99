package router

import (
	"strconv"

	"code.cloudfoundry.org/picogorouter/urlcodec"
)

// PathMatcher is one link in a path description, per §4.3: it either
// consumes a literal prefix or splits and parses one typed segment.
// Failure to match is a signal to try the fallback, never an error.
type PathMatcher interface {
	Match(path urlcodec.String, params *Params) (rest urlcodec.String, ok bool)
}

// Literal matches an exact path prefix, requiring the boundary not split a
// percent-escape (urlcodec.StripPrefix enforces that).
type Literal string

func (l Literal) Match(path urlcodec.String, _ *Params) (urlcodec.String, bool) {
	return path.StripPrefix(string(l))
}

// SegmentParser converts one decoded path segment's text into T, following
// the same contract as strconv.ParseInt/ParseFloat et al: a non-nil error
// means "does not match".
type SegmentParser[T any] func(s string) (T, error)

// Segment matches and decodes exactly one '/'-delimited path segment.
type Segment[T any] struct {
	Parse SegmentParser[T]
}

func (s Segment[T]) Match(path urlcodec.String, params *Params) (urlcodec.String, bool) {
	raw, rest := path.SplitFirstSegment()
	decoded, err := raw.DecodeToString()
	if err != nil {
		return path, false
	}
	value, err := s.Parse(decoded)
	if err != nil {
		return path, false
	}
	params.Push(value)
	return rest, true
}

// StringSegment matches any single non-empty segment, decoded as a string.
func StringSegment() Segment[string] {
	return Segment[string]{Parse: func(s string) (string, error) {
		if s == "" {
			return "", strconv.ErrSyntax
		}
		return s, nil
	}}
}

// IntSegment matches a single segment parseable as an int64.
func IntSegment() Segment[int64] {
	return Segment[int64]{Parse: func(s string) (int64, error) { return strconv.ParseInt(s, 10, 64) }}
}

// Seq matches a sequence of matchers left to right, each seeing the
// params produced by its predecessors; the whole sequence fails atomically
// if any link fails.
type Seq []PathMatcher

func (seq Seq) Match(path urlcodec.String, params *Params) (urlcodec.String, bool) {
	rest := path
	for _, m := range seq {
		var ok bool
		rest, ok = m.Match(rest, params)
		if !ok {
			return path, false
		}
	}
	return rest, true
}
