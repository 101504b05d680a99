package reader

import (
	"context"
	"io"
)

// BodyConnection holds the declared content length, the unread byte window
// already buffered alongside the head, and a reference to the socket for
// the remainder, per §3's "Request body connection".
type BodyConnection struct {
	reader        *Reader
	contentLength int
	headEnd       int // absolute offset in reader.buf where the body starts
	bufferedLen   int // how many already-buffered bytes belong to the body
	socketReadN   int // bytes of the body read from the socket so far (beyond bufferedLen)
	consumed      bool
}

// ContentLength returns the declared Content-Length (0 if absent).
func (b *BodyConnection) ContentLength() int { return b.contentLength }

// ReadAll fills the unused tail of the working buffer with exactly
// ContentLength bytes and returns it as a slice into that buffer.
func (b *BodyConnection) ReadAll(ctx context.Context) ([]byte, error) {
	r := b.reader
	available := len(r.buf) - b.headEnd
	if b.contentLength > available {
		return nil, &BufferTooSmallError{ContentLength: b.contentLength, BufferLength: available}
	}

	target := b.headEnd + b.contentLength
	for r.end < target {
		if _, err := r.fill(ctx); err != nil {
			if err == io.EOF {
				return nil, io.ErrUnexpectedEOF
			}
			return nil, err
		}
	}

	b.consumed = true
	b.socketReadN = b.contentLength - b.bufferedLen
	return r.buf[b.headEnd:target], nil
}

// bodyReader streams the body: first the bytes already sitting in the
// working buffer, then further reads pulled directly from the socket,
// strictly bounded by ContentLength.
type bodyReader struct {
	conn      *BodyConnection
	bufOffset int // bytes of the pre-buffered window already returned
	sockRead  int // bytes read from the socket so far, beyond the buffered window
}

func (br *bodyReader) Read(p []byte) (int, error) {
	conn := br.conn
	r := conn.reader

	if br.bufOffset < conn.bufferedLen {
		start := conn.headEnd + br.bufOffset
		remaining := conn.bufferedLen - br.bufOffset
		n := copy(p, r.buf[start:start+remaining])
		br.bufOffset += n
		return n, nil
	}

	remaining := conn.contentLength - conn.bufferedLen - br.sockRead
	if remaining <= 0 {
		return 0, io.EOF
	}
	if len(p) > remaining {
		p = p[:remaining]
	}

	n, err := r.socket.Read(p)
	br.sockRead += n
	if br.sockRead > conn.socketReadN {
		conn.socketReadN = br.sockRead
	}
	if err != nil && err != io.EOF {
		return n, &IOError{Op: "read", Err: err}
	}
	return n, err
}

// Reader returns an io.Reader over the body, bounded by ContentLength. Each
// call starts a fresh read cursor; callers should call it at most once.
func (b *BodyConnection) Reader() io.Reader {
	b.consumed = true
	return &bodyReader{conn: b}
}

// Finalize consumes any remaining body bytes (buffering or discarding) and
// yields a Connection handle for post-response use, per §3/§4.1.
func (b *BodyConnection) Finalize(ctx context.Context) (*Connection, error) {
	r := b.reader

	if !b.consumed {
		if _, err := b.ReadAll(ctx); err != nil {
			if _, ok := err.(*BufferTooSmallError); ok {
				// Caller never asked to buffer the body and it doesn't fit:
				// discard it from the socket directly instead of erroring,
				// since finalize must not fail just because nobody read it.
				if err2 := b.discardFromSocket(ctx); err2 != nil {
					return nil, err2
				}
			} else {
				return nil, err
			}
		}
	} else if b.socketReadN < b.contentLength-b.bufferedLen {
		if err := b.discardFromSocket(ctx); err != nil {
			return nil, err
		}
	}

	// Advance past the head and body; any bytes still in [target:r.end)
	// belong to a pipelined next request and survive the next compaction.
	target := b.headEnd + b.contentLength
	if target > r.end {
		target = r.end
	}
	r.start = target

	return &Connection{reader: r}, nil
}

func (b *BodyConnection) discardFromSocket(ctx context.Context) error {
	r := b.reader
	remaining := b.contentLength - b.bufferedLen - b.socketReadN
	scratch := make([]byte, 4096)
	for remaining > 0 {
		n := len(scratch)
		if n > remaining {
			n = remaining
		}
		read, err := r.socket.Read(scratch[:n])
		remaining -= read
		if err != nil {
			if err == io.EOF {
				return io.ErrUnexpectedEOF
			}
			return &IOError{Op: "read", Err: err}
		}
	}
	return nil
}

// UpgradeToken proves the request carried an Upgrade header, the capability
// required to obtain a raw post-handshake reader (§3, §4.4 WebSocket).
type UpgradeToken struct{ valid bool }

// NewUpgradeToken validates that headers declared an Upgrade and returns a
// token usable with Connection.Upgrade.
func NewUpgradeToken(headers HeaderView) (UpgradeToken, error) {
	if _, ok := headers.Get("Upgrade"); !ok {
		return UpgradeToken{}, ErrNotUpgraded
	}
	return UpgradeToken{valid: true}, nil
}

// Connection is a buffered reader over the post-body byte stream plus the
// shared "upgraded" flag, per §3.
type Connection struct {
	reader *Reader
}

// Upgrade sets the upgraded flag (so RequestIsPending subsequently reports
// false) and returns a raw reader/writer over the socket for protocol
// handoff (e.g. WebSocket framing).
func (c *Connection) Upgrade(token UpgradeToken) (io.ReadWriter, error) {
	if !token.valid {
		return nil, ErrNotUpgraded
	}
	c.reader.upgraded.Store(true)
	return &connReadWriter{reader: c.reader}, nil
}

// WaitForDisconnection drains the connection until EOF, used by long-lived
// bodies (SSE) to detect client disconnection.
func (c *Connection) WaitForDisconnection(ctx context.Context) error {
	r := c.reader
	scratch := make([]byte, 512)
	for {
		r.compact()
		if r.end > r.start {
			r.start = r.end
			continue
		}
		n, err := r.socket.Read(scratch)
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return &IOError{Op: "read", Err: err}
		}
		if n == 0 {
			return nil
		}
	}
}

// connReadWriter adapts the shared buffer + socket into an io.ReadWriter for
// use after an upgrade handshake (e.g. WebSocket frames).
type connReadWriter struct {
	reader *Reader
}

func (c *connReadWriter) Read(p []byte) (int, error) {
	r := c.reader
	r.compact()
	if r.end > r.start {
		n := copy(p, r.buf[r.start:r.end])
		r.start += n
		return n, nil
	}
	n, err := r.socket.Read(p)
	if err != nil && err != io.EOF {
		return n, &IOError{Op: "read", Err: err}
	}
	return n, err
}

func (c *connReadWriter) Write(p []byte) (int, error) {
	w, ok := c.reader.socket.(io.Writer)
	if !ok {
		return 0, io.ErrClosedPipe
	}
	return w.Write(p)
}
