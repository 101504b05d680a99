package handlers

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"time"

	"code.cloudfoundry.org/picogorouter/reader"
	"code.cloudfoundry.org/picogorouter/response"
	"code.cloudfoundry.org/picogorouter/router"
)

// errClientClosed marks a clean close initiated by the peer, distinct from
// a read error.
var errClientClosed = errors.New("handlers: client closed websocket")

type echoEvent struct {
	Type    string `json:"type"`
	Payload string `json:"payload,omitempty"`
	Value   uint64 `json:"value,omitempty"`
}

// Echo answers GET /ws with a WebSocket connection that echoes every text
// message back tagged as an "echo" event, while independently pushing a
// "count" event once per tick — two concurrent loops sharing one
// connection, grounded on picoserve's graceful_shutdown_web_sockets example.
//
// The counter loop exits as soon as ctx is cancelled (the serve loop wires
// this to the shutdown signal) and sends a 1001 close frame. The echo loop
// blocks in ReadMessage and has no way to observe ctx directly; it unblocks
// when the connection itself closes, which is exactly what happens when a
// drain's abandon timeout expires and the acceptor force-closes the socket.
func Echo(tickInterval time.Duration) router.Handler {
	return router.HandlerFunc(func(ctx context.Context, req *reader.Request, params *router.Params) (*response.Response, error) {
		key, err := response.ValidateHandshake(response.HandshakeRequest{Method: req.Method, Headers: req.Headers})
		if err != nil {
			return response.PlainError(response.StatusBadRequest, err.Error()), nil
		}

		token, err := reader.NewUpgradeToken(req.Headers)
		if err != nil {
			return response.PlainError(response.StatusBadRequest, err.Error()), nil
		}

		conn, err := req.Body().Finalize(ctx)
		if err != nil {
			return nil, err
		}

		raw, err := conn.Upgrade(token)
		if err != nil {
			return response.PlainError(response.StatusBadRequest, err.Error()), nil
		}

		resp := response.HandshakeResponse(key, "")
		resp.Body = &response.WebSocketStream{
			Serve: func(ctx context.Context, w *bufio.Writer) error {
				return serveEcho(ctx, w, raw, tickInterval)
			},
		}
		return resp, nil
	})
}

func serveEcho(ctx context.Context, w *bufio.Writer, r io.Reader, tickInterval time.Duration) error {
	var writeMu sync.Mutex
	writeFrame := func(opcode response.Opcode, payload []byte) error {
		writeMu.Lock()
		defer writeMu.Unlock()
		if err := response.WriteFrame(w, &response.Frame{FIN: true, Opcode: opcode, Payload: payload}); err != nil {
			return err
		}
		return w.Flush()
	}

	echoDone := make(chan error, 1)
	counterDone := make(chan error, 1)

	go func() { echoDone <- runEchoLoop(r, writeFrame) }()
	go func() { counterDone <- runCounterLoop(ctx, tickInterval, writeFrame) }()

	var closeCode uint16 = 1000
	closeReason := "closing"

	select {
	case err := <-echoDone:
		if err != nil && !errors.Is(err, errClientClosed) && !errors.Is(err, io.EOF) {
			closeCode, closeReason = response.CloseCodeFor(err), "protocol error"
		}
	case err := <-counterDone:
		if err != nil {
			closeCode, closeReason = response.CloseCodeFor(err), "write error"
		} else {
			closeCode, closeReason = 1001, "Server is shutting down"
		}
	}

	return writeFrame(response.OpClose, response.ClosePayload(closeCode, closeReason))
}

func runEchoLoop(r io.Reader, writeFrame func(response.Opcode, []byte) error) error {
	for {
		msg, err := response.ReadMessage(r)
		if err != nil {
			return err
		}

		switch msg.Opcode {
		case response.OpText:
			payload, err := json.Marshal(echoEvent{Type: "echo", Payload: string(msg.Data)})
			if err != nil {
				return err
			}
			if err := writeFrame(response.OpText, payload); err != nil {
				return err
			}
		case response.OpBinary:
			// ignored, matching the reference implementation
		case response.OpClose:
			return errClientClosed
		case response.OpPing:
			if err := writeFrame(response.OpPong, msg.Data); err != nil {
				return err
			}
		}
	}
}

func runCounterLoop(ctx context.Context, interval time.Duration, writeFrame func(response.Opcode, []byte) error) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for value := uint64(0); ; value++ {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			payload, err := json.Marshal(echoEvent{Type: "count", Value: value})
			if err != nil {
				return err
			}
			if err := writeFrame(response.OpText, payload); err != nil {
				return err
			}
		}
	}
}
