package reader

import (
	"errors"
	"fmt"
)

// Sentinel errors matching §7's request-format taxonomy. Callers use
// errors.Is against these; ErrBadRequestLine and ErrHeaderMissingColon
// both mean "this isn't a well-formed HTTP/1.1 request head".
var (
	// ErrBadRequestLine is returned when the first line is not exactly
	// three whitespace-separated tokens, or a token is not valid UTF-8.
	ErrBadRequestLine = errors.New("reader: request line is not METHOD SP URL SP VERSION")

	// ErrHeaderMissingColon is returned when a non-empty header line has
	// no ':'.
	ErrHeaderMissingColon = errors.New("reader: header line does not contain a colon")

	// ErrHeadTooLarge is returned when the request line or header block
	// does not fit in the working buffer.
	ErrHeadTooLarge = errors.New("reader: request head does not fit in buffer")

	// ErrChunkedRequestUnsupported is returned for a request body declared
	// with Transfer-Encoding: chunked, which this core does not parse
	// (Open Question #1 in SPEC_FULL.md — resolved as "reject").
	ErrChunkedRequestUnsupported = errors.New("reader: chunked request bodies are not supported")

	// ErrNotUpgraded is returned by Connection.Upgrade when the request
	// did not carry an Upgrade header.
	ErrNotUpgraded = errors.New("reader: request was not an upgrade request")
)

// BufferTooSmallError is returned by BodyConnection.ReadAll when the body
// does not fit in the unused tail of the working buffer.
type BufferTooSmallError struct {
	ContentLength int
	BufferLength  int
}

func (e *BufferTooSmallError) Error() string {
	return fmt.Sprintf("reader: content-length %d exceeds body buffer capacity %d", e.ContentLength, e.BufferLength)
}

// IOError wraps an underlying socket error, distinguishing it from
// request-format errors per §7's taxonomy.
type IOError struct {
	Op  string
	Err error
}

func (e *IOError) Error() string { return fmt.Sprintf("reader: %s: %v", e.Op, e.Err) }
func (e *IOError) Unwrap() error { return e.Err }
