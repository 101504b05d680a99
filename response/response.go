// Package response implements §4.4: emitting a well-formed HTTP/1.1 response
// over a buffered writer, honoring keep-alive policy and supporting the
// streaming body kinds (chunked, SSE, WebSocket) alongside fixed content.
package response

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// Header is one response header line, kept as a slice (not a map) so
// handlers can emit headers in a deliberate order, mirroring the teacher's
// plaintext error writer's direct header manipulation.
type Header struct {
	Name  string
	Value string
}

// Headers is an ordered, append-only header list.
type Headers []Header

// Set appends a header. Repeated names are legal (e.g. Set-Cookie).
func (h *Headers) Set(name, value string) {
	*h = append(*h, Header{Name: name, Value: value})
}

// Has reports whether name is present, case-insensitively.
func (h Headers) Has(name string) bool {
	for _, hdr := range h {
		if strings.EqualFold(hdr.Name, name) {
			return true
		}
	}
	return false
}

// Body is implemented by every response body kind: Content, Chunked,
// EventStream, and WebSocket (as a handshake body).
type Body interface {
	// headers returns the headers this body kind contributes, in addition
	// to whatever the handler already set.
	headers() Headers
	// write drives the body over w after the head has been flushed.
	write(w *bufio.Writer) error
}

// Response is one handler's reply: a status line, a header set, and a body.
type Response struct {
	Status  int
	Headers Headers
	Body    Body
}

// KeepAlive is the serve loop's decision (§4.5) about the Connection header,
// passed down into WriteHead so the body kind never has to know about it.
type KeepAlive bool

const (
	Close     KeepAlive = false
	KeepAliveOn KeepAlive = true
)

// WriteHead writes the status line and headers, injecting Connection unless
// the handler already set one, per §4.4 steps 1-4.
func WriteHead(w *bufio.Writer, resp *Response, keepAlive KeepAlive) error {
	if _, err := fmt.Fprintf(w, "HTTP/1.1 %d %s\r\n", resp.Status, StatusText(resp.Status)); err != nil {
		return err
	}

	suppressConnection := resp.Headers.Has("Connection")

	allHeaders := append(Headers{}, resp.Headers...)
	if resp.Body != nil {
		allHeaders = append(allHeaders, resp.Body.headers()...)
	}

	for _, h := range allHeaders {
		if _, err := fmt.Fprintf(w, "%s: %s\r\n", h.Name, h.Value); err != nil {
			return err
		}
	}

	if !suppressConnection {
		value := "close"
		if keepAlive {
			value = "keep-alive"
		}
		if _, err := fmt.Fprintf(w, "Connection: %s\r\n", value); err != nil {
			return err
		}
	}

	_, err := w.WriteString("\r\n")
	return err
}

// Write writes the full response (head + body) and flushes. EventStream
// and WebSocketStream bodies are handed to WriteSSE and WriteWS with ctx,
// which the serve loop cancels when shutdown fires.
func Write(ctx context.Context, w *bufio.Writer, resp *Response, keepAlive KeepAlive, discardBody bool) error {
	if err := WriteHead(w, resp, keepAlive); err != nil {
		return err
	}
	if resp.Body == nil || discardBody {
		return w.Flush()
	}

	if stream, ok := resp.Body.(*EventStream); ok {
		return WriteSSE(ctx, w, stream)
	}

	if ws, ok := resp.Body.(*WebSocketStream); ok {
		return WriteWS(ctx, w, ws)
	}

	if err := resp.Body.write(w); err != nil {
		return err
	}
	return w.Flush()
}
