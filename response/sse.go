package response

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// EventStream is a Server-Sent Events body, per §4.4. Produce runs for the
// lifetime of the stream; it should periodically check ctx.Done() (wired by
// the serve loop to the shutdown signal) and return when it fires.
type EventStream struct {
	Produce func(ctx context.Context, ew *EventWriter) error
}

func (e *EventStream) headers() Headers {
	h := Headers{}
	h.Set("Cache-Control", "no-cache")
	h.Set("Content-Type", "text/event-stream")
	return h
}

func (e *EventStream) write(w *bufio.Writer) error {
	panic("response: EventStream must be driven via WriteSSE, not Write")
}

// EventWriter drives the Server-Sent Events wire format. The serve loop's
// shutdown-timeout budget now races the whole Produce call from outside
// (serve.writeResponse), rather than this writer tracking a per-write
// latch, so a stuck Produce is abandoned on its own timer without needing
// EventWriter's cooperation.
type EventWriter struct {
	w *bufio.Writer
}

// WriteKeepalive emits a comment-only SSE line to keep the connection alive
// through idle proxies.
func (ew *EventWriter) WriteKeepalive() error {
	if _, err := ew.w.WriteString(":\n\n"); err != nil {
		return err
	}
	return ew.w.Flush()
}

// WriteEvent emits a named event with (possibly multi-line) data.
func (ew *EventWriter) WriteEvent(name, data string) error {
	if _, err := fmt.Fprintf(ew.w, "event:%s\n", name); err != nil {
		return err
	}
	for _, line := range strings.Split(data, "\n") {
		if _, err := fmt.Fprintf(ew.w, "data:%s\n", line); err != nil {
			return err
		}
	}
	if _, err := ew.w.WriteString("\n"); err != nil {
		return err
	}
	return ew.w.Flush()
}

// WriteSSE drives an EventStream body to completion, honoring ctx
// cancellation between events (the Produce callback is expected to select
// on ctx.Done() itself; this just wires up the writer and propagates).
func WriteSSE(ctx context.Context, w *bufio.Writer, stream *EventStream) error {
	ew := &EventWriter{w: w}
	return stream.Produce(ctx, ew)
}
