// Package reader implements §4.1: a byte-by-byte request-line/header parser
// operating on a single fixed-size buffer shared between the raw socket
// stream, the parsed request head, and the unread body window.
package reader

import (
	"bytes"
	"context"
	"io"
	"net"
	"strconv"
	"strings"
	"sync/atomic"
	"unicode/utf8"

	"go.uber.org/zap"

	"code.cloudfoundry.org/picogorouter/logger"
)

// Reader drives one connection's worth of HTTP/1.1 requests over a single
// caller-supplied buffer. It is not safe for concurrent use — the core
// never parallelizes a single connection (§5).
type Reader struct {
	buf      []byte
	socket   io.Reader
	log      logger.Logger
	start    int
	end      int
	upgraded atomic.Bool
}

// New wraps buf (never reallocated) and socket as a request reader.
func New(buf []byte, socket io.Reader, log logger.Logger) *Reader {
	return &Reader{buf: buf, socket: socket, log: log}
}

// compact rotates unread bytes to offset 0, satisfying §3's "the buffer is
// never reallocated" invariant by reusing capacity instead of growing.
func (r *Reader) compact() {
	if r.start == 0 {
		return
	}
	n := copy(r.buf, r.buf[r.start:r.end])
	r.start = 0
	r.end = n
}

func (r *Reader) fill(ctx context.Context) (int, error) {
	if r.end >= len(r.buf) {
		return 0, ErrHeadTooLarge
	}
	n, err := r.socket.Read(r.buf[r.end:])
	if err != nil && err != io.EOF {
		return 0, &IOError{Op: "read", Err: err}
	}
	r.end += n
	if n == 0 {
		return 0, io.EOF
	}
	return n, nil
}

// RequestIsPending reports whether another request can be read: true if
// bytes are already buffered or a socket read returns data; false if the
// connection has been upgraded or the peer has closed (EOF).
func (r *Reader) RequestIsPending(ctx context.Context) (bool, error) {
	if r.upgraded.Load() {
		return false, nil
	}

	r.compact()
	if r.end > r.start {
		return true, nil
	}

	_, err := r.fill(ctx)
	if err == io.EOF {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// findTerminator scans buf[from:end] for "\r\n", returning the absolute index of
// the '\r', or -1 if not found. Bare "\n" also terminates a line, matching
// common HTTP/1.1 leniency.
func (r *Reader) findTerminator(from int) int {
	window := r.buf[from:r.end]
	if idx := bytes.IndexByte(window, '\n'); idx >= 0 {
		end := from + idx
		if end > from && r.buf[end-1] == '\r' {
			return end - 1
		}
		return end
	}
	return -1
}

// readLine returns the absolute [start, end) range of the next line
// (excluding its terminator), growing the buffer from the socket as needed.
func (r *Reader) readLine(ctx context.Context, from int) (int, int, error) {
	for {
		if end := r.findTerminator(from); end >= 0 {
			return from, end, nil
		}
		if _, err := r.fill(ctx); err != nil {
			if err == io.EOF {
				return 0, 0, io.ErrUnexpectedEOF
			}
			return 0, 0, err
		}
	}
}

// lineTerminatorLen returns how many bytes the terminator of the line
// ending at lineEnd occupies (1 for bare \n, 2 for \r\n).
func (r *Reader) lineTerminatorLen(lineEnd int) int {
	if lineEnd < r.end && r.buf[lineEnd] == '\r' {
		return 2
	}
	return 1
}

// Request is one parsed HTTP/1.1 request head, per §3.
type Request struct {
	Method      string
	URL         string
	Path        string
	Query       string
	Fragment    string
	HTTPVersion string
	Headers     HeaderView

	// RemoteAddr and LocalAddr are stamped by the caller (serve.Serve) from
	// the underlying socket, when available; extractors read them, the
	// parser never sets or inspects them.
	RemoteAddr net.Addr
	LocalAddr  net.Addr

	body *BodyConnection
}

// Body returns the facade for reading (or discarding) this request's body.
func (req *Request) Body() *BodyConnection { return req.body }

// Read parses one complete request head from the socket/buffer, per the
// algorithm in §4.1.
func (r *Reader) Read(ctx context.Context) (*Request, error) {
	r.compact()
	pos := 0

	lineStart, lineEnd, err := r.readLine(ctx, pos)
	if err != nil {
		return nil, err
	}
	pos = lineEnd + r.lineTerminatorLen(lineEnd)

	tokens := strings.Fields(string(r.buf[lineStart:lineEnd]))
	if len(tokens) != 3 {
		return nil, ErrBadRequestLine
	}
	method, rawURL, version := tokens[0], tokens[1], tokens[2]
	if !utf8.ValidString(method) || !utf8.ValidString(rawURL) || !utf8.ValidString(version) {
		return nil, ErrBadRequestLine
	}

	var spans []headerSpan
	for {
		hStart, hEnd, err := r.readLine(ctx, pos)
		if err != nil {
			return nil, err
		}
		termLen := r.lineTerminatorLen(hEnd)
		pos = hEnd + termLen

		if hStart == hEnd {
			break
		}

		line := r.buf[hStart:hEnd]
		colon := bytes.IndexByte(line, ':')
		if colon < 0 {
			return nil, ErrHeaderMissingColon
		}

		name := string(bytes.TrimSpace(line[:colon]))
		value := trimOWS(string(line[colon+1:]))
		spans = append(spans, headerSpan{name: name, value: value})
	}

	headers := HeaderView{spans: spans}

	contentLength := 0
	if cl, ok := headers.Get("Content-Length"); ok {
		n, perr := strconv.Atoi(strings.TrimSpace(cl))
		if perr == nil && n >= 0 {
			contentLength = n
		}
	}
	if _, ok := headers.Get("Transfer-Encoding"); ok {
		return nil, ErrChunkedRequestUnsupported
	}

	path, query, fragment := splitURL(rawURL)

	headEnd := pos
	buffered := r.end - headEnd
	if buffered < 0 {
		buffered = 0
	}

	body := &BodyConnection{
		reader:        r,
		contentLength: contentLength,
		headEnd:       headEnd,
		bufferedLen:   min(buffered, contentLength),
		socketReadN:   0,
	}

	req := &Request{
		Method:      method,
		URL:         rawURL,
		Path:        path,
		Query:       query,
		Fragment:    fragment,
		HTTPVersion: version,
		Headers:     headers,
		body:        body,
	}

	return req, nil
}

func splitURL(raw string) (path, query, fragment string) {
	rest := raw
	if idx := strings.IndexByte(rest, '#'); idx >= 0 {
		fragment = rest[idx+1:]
		rest = rest[:idx]
	}
	if idx := strings.IndexByte(rest, '?'); idx >= 0 {
		query = rest[idx+1:]
		rest = rest[:idx]
	}
	path = rest
	return
}

// LogFields is a convenience used by serve and handlers packages to attach
// request identity to a logger.Logger the way the teacher's accesslog does.
func (req *Request) LogFields() []zap.Field {
	return []zap.Field{zap.String("method", req.Method), zap.String("path", req.Path)}
}
