package serve

import (
	"context"
	"errors"
	"time"

	"code.cloudfoundry.org/picogorouter/clockgw"
	"code.cloudfoundry.org/picogorouter/reader"
)

// ErrReadRequestTimeout is returned when a request head isn't fully parsed
// within the read_request budget (§4.5: "surface as read error").
var ErrReadRequestTimeout = errors.New("serve: read_request timeout exceeded")

var errHandlerAbandoned = errors.New("serve: handler abandoned after shutdown-timeout budget expired")

var errResponseWriteAbandoned = errors.New("serve: response write abandoned after shutdown-timeout budget expired")

// waitForRequestOrShutdown races socket readability against shutdown and
// the start-read timeout, per §4.5. Timeout expiry is reported as
// (false, nil, nil): the normal idle-close path, not an error.
func waitForRequestOrShutdown(
	ctx context.Context,
	r *reader.Reader,
	timeout time.Duration,
	shutdown ShutdownSignal,
	timer clockgw.Timer,
) (pending bool, shutdownReason any, err error) {
	// A shutdown that has already fired wins over a pending request, so an
	// idle connection never starts reading another request after shutdown.
	select {
	case <-shutdown.Done:
		return false, shutdown.Reason(), nil
	default:
	}

	type result struct {
		pending bool
		err     error
	}
	resultCh := make(chan result, 1)
	go func() {
		p, e := r.RequestIsPending(ctx)
		resultCh <- result{p, e}
	}()

	var timeoutCh chan struct{}
	if timeout > 0 {
		timeoutCh = make(chan struct{})
		go func() {
			_ = timer.Delay(ctx, timeout)
			close(timeoutCh)
		}()
	}

	select {
	case res := <-resultCh:
		return res.pending, nil, res.err
	case <-shutdown.Done:
		return false, shutdown.Reason(), nil
	case <-timeoutCh:
		return false, nil, nil
	}
}

// readRequestWithTimeout races head parsing against the read_request
// budget; expiry here IS an error (§4.5).
func readRequestWithTimeout(
	ctx context.Context,
	r *reader.Reader,
	timeout time.Duration,
	timer clockgw.Timer,
) (*reader.Request, error) {
	type result struct {
		req *reader.Request
		err error
	}
	resultCh := make(chan result, 1)
	go func() {
		req, err := r.Read(ctx)
		resultCh <- result{req, err}
	}()

	var timeoutCh chan struct{}
	if timeout > 0 {
		timeoutCh = make(chan struct{})
		go func() {
			_ = timer.Delay(ctx, timeout)
			close(timeoutCh)
		}()
	}

	select {
	case res := <-resultCh:
		return res.req, res.err
	case <-timeoutCh:
		return nil, ErrReadRequestTimeout
	}
}
