// Package serve implements §4.5: driving one accepted socket through zero
// or more request/response cycles subject to the timeout ladder and an
// external shutdown signal.
package serve

import (
	"bufio"
	"context"
	"strings"

	"code.cloudfoundry.org/picogorouter/clockgw"
	"code.cloudfoundry.org/picogorouter/config"
	"code.cloudfoundry.org/picogorouter/logger"
	"code.cloudfoundry.org/picogorouter/netio"
	"code.cloudfoundry.org/picogorouter/reader"
	"code.cloudfoundry.org/picogorouter/response"
	"code.cloudfoundry.org/picogorouter/router"
	"code.cloudfoundry.org/picogorouter/urlcodec"

	"go.uber.org/zap"
)

// ShutdownSignal is how callers tell a Serve loop to wind down. Done is
// closed to broadcast the signal to every concurrent race in the loop;
// Reason, valid once Done is closed, reports why.
type ShutdownSignal struct {
	Done   <-chan struct{}
	Reason func() any
}

// Summary reports how a connection ended.
type Summary struct {
	HandledRequests int
	ShutdownReason  any
}

// Serve drives socket until the peer disconnects, a request fails to
// parse, or shutdown fires, per §4.5.
func Serve(
	ctx context.Context,
	socket netio.Socket,
	buf []byte,
	root router.Node,
	shutdown ShutdownSignal,
	timer clockgw.Timer,
	cfg *config.Config,
	log logger.Logger,
) (Summary, error) {
	readHalf, writeHalf := socket.Split()
	bw := bufio.NewWriter(writeHalf)
	r := reader.New(buf, readHalf, log)

	// streamCtx is cancelled the moment shutdown fires, so a long-running
	// body (an SSE producer, a WebSocket echo loop) or an in-flight handler
	// dispatch can observe it via ctx.Done() without each caller re-deriving
	// its own watcher against shutdown.Done.
	streamCtx, cancelStream := context.WithCancel(ctx)
	defer cancelStream()
	go func() {
		select {
		case <-shutdown.Done:
			cancelStream()
		case <-streamCtx.Done():
		}
	}()

	handled := 0
	persistent := false

	for {
		startTimeout := cfg.Timeouts.StartReadRequest
		if persistent {
			startTimeout = cfg.Timeouts.PersistentStartReadRequest
		}

		pending, shutdownReason, err := waitForRequestOrShutdown(ctx, r, startTimeout, shutdown, timer)
		if err != nil {
			_ = socket.Shutdown(ctx, cfg.Timeouts.Write, timer)
			return Summary{HandledRequests: handled}, err
		}
		if shutdownReason != nil {
			_ = socket.Shutdown(ctx, cfg.Timeouts.Write, timer)
			return Summary{HandledRequests: handled, ShutdownReason: shutdownReason}, nil
		}
		if !pending {
			_ = socket.Shutdown(ctx, cfg.Timeouts.Write, timer)
			return Summary{HandledRequests: handled}, nil
		}

		req, err := readRequestWithTimeout(ctx, r, cfg.Timeouts.ReadRequest, timer)
		if err != nil {
			log.Warn("read-request-failed", zap.Error(err))
			writeBadRequest(bw, err)
			_ = socket.Shutdown(ctx, cfg.Timeouts.Write, timer)
			return Summary{HandledRequests: handled}, err
		}

		if addresser, ok := socket.(netio.Addresser); ok {
			req.RemoteAddr = addresser.RemoteAddr()
			req.LocalAddr = addresser.LocalAddr()
		}

		keepAlive := decideKeepAlive(cfg.KeepAlive, req)

		resp, shutdownReason, herr := handle(streamCtx, root, req, shutdown, timer, cfg, log)
		if herr != nil {
			_ = socket.Shutdown(ctx, cfg.Timeouts.Write, timer)
			return Summary{HandledRequests: handled, ShutdownReason: shutdownReason}, herr
		}

		discardBody := req.Method == "HEAD"
		writeReason, err := writeResponse(ctx, streamCtx, bw, resp, keepAlive, discardBody, shutdown, timer, cfg, log)
		if err != nil {
			_ = socket.Shutdown(ctx, cfg.Timeouts.Write, timer)
			if shutdownReason == nil {
				shutdownReason = writeReason
			}
			return Summary{HandledRequests: handled, ShutdownReason: shutdownReason}, err
		}
		if shutdownReason == nil {
			shutdownReason = writeReason
		}

		if _, err := req.Body().Finalize(ctx); err != nil {
			_ = socket.Shutdown(ctx, cfg.Timeouts.Write, timer)
			return Summary{HandledRequests: handled + 1}, err
		}

		handled++
		persistent = true

		if shutdownReason != nil {
			_ = socket.Shutdown(ctx, cfg.Timeouts.Write, timer)
			return Summary{HandledRequests: handled, ShutdownReason: shutdownReason}, nil
		}
		if !keepAlive {
			_ = socket.Shutdown(ctx, cfg.Timeouts.Write, timer)
			return Summary{HandledRequests: handled}, nil
		}
	}
}

func decideKeepAlive(policy config.KeepAlivePolicy, req *reader.Request) response.KeepAlive {
	if policy == config.KeepAlivePolicyClose {
		return response.Close
	}

	keepAlive := req.HTTPVersion == "HTTP/1.1"

	if conn, ok := req.Headers.Get("Connection"); ok {
		lower := strings.ToLower(conn)
		if strings.Contains(lower, "close") {
			keepAlive = false
		}
		if strings.Contains(lower, "upgrade") {
			keepAlive = false
		}
	}

	return response.KeepAlive(keepAlive)
}

func writeBadRequest(bw *bufio.Writer, err error) {
	resp := response.PlainError(response.StatusBadRequest, err.Error())
	_ = response.Write(context.Background(), bw, resp, response.Close, false)
}

// writeResponse drives response.Write on its own goroutine and races it
// against shutdown the same way handle races the handler dispatch, per
// §4.5's third bullet: a streaming body (SSE producer, WebSocket loop) is
// exactly the "producing/streaming the response" phase that bullet names,
// and cancelling streamCtx alone only reaches handlers that cooperatively
// select on it. ctx (not streamCtx, which shutdown already cancels) backs
// the abandon timer so the budget isn't collapsed by the very signal it's
// meant to measure from.
func writeResponse(
	ctx context.Context,
	streamCtx context.Context,
	bw *bufio.Writer,
	resp *response.Response,
	keepAlive response.KeepAlive,
	discardBody bool,
	shutdown ShutdownSignal,
	timer clockgw.Timer,
	cfg *config.Config,
	log logger.Logger,
) (any, error) {
	doneCh := make(chan error, 1)
	go func() {
		doneCh <- response.Write(streamCtx, bw, resp, keepAlive, discardBody)
	}()

	select {
	case err := <-doneCh:
		return nil, err
	case <-shutdown.Done:
	}

	reason := shutdown.Reason()

	if cfg.ShutdownTimeout <= 0 {
		return reason, <-doneCh
	}

	abandonCh := make(chan struct{})
	go func() {
		_ = timer.Delay(ctx, cfg.ShutdownTimeout)
		close(abandonCh)
	}()

	select {
	case err := <-doneCh:
		return reason, err
	case <-abandonCh:
		log.Info("response-write-abandoned-on-shutdown")
		return reason, errResponseWriteAbandoned
	}
}

func handle(
	ctx context.Context,
	root router.Node,
	req *reader.Request,
	shutdown ShutdownSignal,
	timer clockgw.Timer,
	cfg *config.Config,
	log logger.Logger,
) (*response.Response, any, error) {
	handlerCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	type handlerResult struct {
		resp *response.Response
		err  error
	}
	doneCh := make(chan handlerResult, 1)

	go func() {
		params := &router.Params{}
		resp, err := root.Route(handlerCtx, req, urlcodec.String(req.Path), params)
		doneCh <- handlerResult{resp, err}
	}()

	select {
	case res := <-doneCh:
		return res.resp, nil, res.err
	case <-shutdown.Done:
	}

	reason := shutdown.Reason()

	// Cancel handlerCtx now so a cooperative handler (one that selects on
	// ctx.Done(), e.g. an SSE or WebSocket loop) can wind itself down
	// immediately rather than waiting out the full abandon timeout.
	cancel()

	if cfg.ShutdownTimeout <= 0 {
		res := <-doneCh
		return res.resp, reason, res.err
	}

	abandonCh := make(chan struct{})
	go func() {
		_ = timer.Delay(ctx, cfg.ShutdownTimeout)
		close(abandonCh)
	}()

	select {
	case res := <-doneCh:
		return res.resp, reason, res.err
	case <-abandonCh:
		cancel()
		log.Info("handler-abandoned-on-shutdown")
		return nil, reason, errHandlerAbandoned
	}
}
