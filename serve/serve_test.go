package serve_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"code.cloudfoundry.org/clock/fakeclock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"code.cloudfoundry.org/picogorouter/clockgw"
	"code.cloudfoundry.org/picogorouter/config"
	"code.cloudfoundry.org/picogorouter/logger"
	"code.cloudfoundry.org/picogorouter/netio"
	"code.cloudfoundry.org/picogorouter/reader"
	"code.cloudfoundry.org/picogorouter/response"
	"code.cloudfoundry.org/picogorouter/router"
	"code.cloudfoundry.org/picogorouter/serve"
)

// fakeSocket drives a single in-memory connection: reads come from `in`,
// writes land in `out`, and Shutdown just records that it was called.
type fakeSocket struct {
	in   *bytes.Buffer
	out  *bytes.Buffer
	shut bool
}

func (s *fakeSocket) Split() (netio.ReadHalf, netio.WriteHalf) {
	return s.in, s.out
}

func (s *fakeSocket) Shutdown(ctx context.Context, writeTimeout time.Duration, timer clockgw.Timer) error {
	s.shut = true
	return nil
}

func neverShutdown() serve.ShutdownSignal {
	return serve.ShutdownSignal{Done: make(chan struct{}), Reason: func() any { return nil }}
}

func pingRoot() router.Node {
	return &router.Route{
		Matcher: router.Literal("/ping"),
		Methods: router.Get(router.HandlerFunc(func(ctx context.Context, req *reader.Request, params *router.Params) (*response.Response, error) {
			return &response.Response{Status: response.StatusOK, Body: response.Text("text/plain", "pong")}, nil
		})),
	}
}

func TestServeHandlesOneRequestThenCloses(t *testing.T) {
	socket := &fakeSocket{in: bytes.NewBufferString("GET /ping HTTP/1.1\r\nConnection: close\r\n\r\n"), out: &bytes.Buffer{}}
	fc := fakeclock.NewFakeClock(time.Unix(0, 0))
	timer := clockgw.New(fc)
	cfg := config.DefaultConfig()
	buf := make([]byte, 4096)
	log := logger.CreateLogger("serve-test")

	summary, err := serve.Serve(context.Background(), socket, buf, pingRoot(), neverShutdown(), timer, cfg, log)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.HandledRequests)
	assert.Contains(t, socket.out.String(), "200 OK")
	assert.Contains(t, socket.out.String(), "pong")
	assert.True(t, socket.shut)
}

func TestServeClosesOnIdleEOF(t *testing.T) {
	socket := &fakeSocket{in: bytes.NewBufferString(""), out: &bytes.Buffer{}}
	fc := fakeclock.NewFakeClock(time.Unix(0, 0))
	timer := clockgw.New(fc)
	cfg := config.DefaultConfig()
	buf := make([]byte, 4096)
	log := logger.CreateLogger("serve-test")

	summary, err := serve.Serve(context.Background(), socket, buf, pingRoot(), neverShutdown(), timer, cfg, log)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.HandledRequests)
}

func TestServeKeepAliveServesSecondRequest(t *testing.T) {
	raw := "GET /ping HTTP/1.1\r\n\r\nGET /ping HTTP/1.1\r\nConnection: close\r\n\r\n"
	socket := &fakeSocket{in: bytes.NewBufferString(raw), out: &bytes.Buffer{}}
	fc := fakeclock.NewFakeClock(time.Unix(0, 0))
	timer := clockgw.New(fc)
	cfg := config.DefaultConfig()
	buf := make([]byte, 4096)
	log := logger.CreateLogger("serve-test")

	summary, err := serve.Serve(context.Background(), socket, buf, pingRoot(), neverShutdown(), timer, cfg, log)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.HandledRequests)
}

func TestServeShutdownDuringIdleReturnsReason(t *testing.T) {
	socket := &fakeSocket{in: bytes.NewBufferString(""), out: &bytes.Buffer{}}
	fc := fakeclock.NewFakeClock(time.Unix(0, 0))
	timer := clockgw.New(fc)
	cfg := config.DefaultConfig()
	buf := make([]byte, 4096)
	log := logger.CreateLogger("serve-test")

	done := make(chan struct{})
	close(done)
	shutdown := serve.ShutdownSignal{Done: done, Reason: func() any { return "draining" }}

	summary, err := serve.Serve(context.Background(), socket, buf, pingRoot(), shutdown, timer, cfg, log)
	require.NoError(t, err)
	assert.Equal(t, "draining", summary.ShutdownReason)
}

func TestServeCancelsHandlerContextOnShutdown(t *testing.T) {
	observedDone := make(chan struct{})
	root := &router.Route{
		Matcher: router.Literal("/stream"),
		Methods: router.Get(router.HandlerFunc(func(ctx context.Context, req *reader.Request, params *router.Params) (*response.Response, error) {
			<-ctx.Done()
			close(observedDone)
			return &response.Response{Status: response.StatusOK, Body: response.Text("text/plain", "done")}, nil
		})),
	}

	socket := &fakeSocket{in: bytes.NewBufferString("GET /stream HTTP/1.1\r\n\r\n"), out: &bytes.Buffer{}}
	fc := fakeclock.NewFakeClock(time.Unix(0, 0))
	timer := clockgw.New(fc)
	cfg := config.DefaultConfig()
	buf := make([]byte, 4096)
	log := logger.CreateLogger("serve-test")

	shutdownCh := make(chan struct{})
	shutdown := serve.ShutdownSignal{Done: shutdownCh, Reason: func() any { return "draining" }}

	go func() {
		time.Sleep(10 * time.Millisecond)
		close(shutdownCh)
	}()

	summary, err := serve.Serve(context.Background(), socket, buf, root, shutdown, timer, cfg, log)
	require.NoError(t, err)
	assert.Equal(t, "draining", summary.ShutdownReason)

	select {
	case <-observedDone:
	case <-time.After(time.Second):
		t.Fatal("handler never observed ctx cancellation on shutdown")
	}
}

// TestServeAbandonsNonCooperatingStreamOnShutdownTimeout covers the phase
// TestServeCancelsHandlerContextOnShutdown doesn't: a streaming body whose
// Produce loop never checks ctx.Done(). The serve loop must still return
// once cfg.ShutdownTimeout elapses, rather than blocking on the stream
// forever.
func TestServeAbandonsNonCooperatingStreamOnShutdownTimeout(t *testing.T) {
	blockForever := make(chan struct{})
	started := make(chan struct{})
	root := &router.Route{
		Matcher: router.Literal("/stream"),
		Methods: router.Get(router.HandlerFunc(func(ctx context.Context, req *reader.Request, params *router.Params) (*response.Response, error) {
			stream := &response.EventStream{
				Produce: func(ctx context.Context, ew *response.EventWriter) error {
					close(started)
					<-blockForever
					return nil
				},
			}
			return &response.Response{Status: response.StatusOK, Body: stream}, nil
		})),
	}

	socket := &fakeSocket{in: bytes.NewBufferString("GET /stream HTTP/1.1\r\n\r\n"), out: &bytes.Buffer{}}
	fc := fakeclock.NewFakeClock(time.Unix(0, 0))
	timer := clockgw.New(fc)
	cfg := config.DefaultConfig()
	// Zero out the head-parsing timeouts so the only timer left racing
	// against fc is writeResponse's own abandon timer; the request is
	// already fully buffered, so neither timeout would fire anyway.
	cfg.Timeouts.StartReadRequest = 0
	cfg.Timeouts.PersistentStartReadRequest = 0
	cfg.Timeouts.ReadRequest = 0
	cfg.ShutdownTimeout = 5 * time.Second
	buf := make([]byte, 4096)
	log := logger.CreateLogger("serve-test")

	shutdownCh := make(chan struct{})
	shutdown := serve.ShutdownSignal{Done: shutdownCh, Reason: func() any { return "draining" }}

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = serve.Serve(context.Background(), socket, buf, root, shutdown, timer, cfg, log)
	}()

	// Fire shutdown only once Produce is running, so the stream phase is
	// what shutdown interrupts rather than the idle wait before the request.
	select {
	case <-started:
	case <-time.After(time.Second):
		t.Fatal("stream never started")
	}
	close(shutdownCh)

	// The handler returned before shutdown fired, so writeResponse's abandon
	// timer is the only one waiting on fc.
	fc.WaitForWatcherAndIncrement(5 * time.Second)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("serve loop never abandoned the non-cooperating stream")
	}
}
