package accept_test

import (
	"bufio"
	"bytes"
	"context"
	"net"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"code.cloudfoundry.org/picogorouter/accept"
	"code.cloudfoundry.org/picogorouter/common/health"
	"code.cloudfoundry.org/picogorouter/config"
	"code.cloudfoundry.org/picogorouter/logger"
	"code.cloudfoundry.org/picogorouter/reader"
	"code.cloudfoundry.org/picogorouter/response"
	"code.cloudfoundry.org/picogorouter/router"
)

func testConfig(t *testing.T) *config.Config {
	cfg := config.DefaultConfig()
	cfg.Host = "127.0.0.1"
	cfg.Port = 0
	cfg.DrainTimeout = 2 * time.Second
	require.NoError(t, cfg.Process())
	return cfg
}

func pingRoot() router.Node {
	return &router.Route{
		Matcher: router.Literal("/ping"),
		Methods: router.Get(router.HandlerFunc(func(ctx context.Context, req *reader.Request, params *router.Params) (*response.Response, error) {
			return &response.Response{Status: response.StatusOK, Body: response.Text("text/plain", "pong")}, nil
		})),
	}
}

func TestAcceptorServesRequests(t *testing.T) {
	var buf bytes.Buffer
	log := logger.CreateLoggerWithSink("accept-test", zapcore.AddSync(&buf))

	cfg := testConfig(t)
	a := accept.New(cfg, pingRoot(), nil, log)

	ready := make(chan struct{})
	signals := make(chan os.Signal, 1)
	runDone := make(chan error, 1)
	go func() { runDone <- a.Run(signals, ready) }()

	select {
	case <-ready:
	case <-time.After(2 * time.Second):
		t.Fatal("acceptor never became ready")
	}

	conn, err := net.Dial("tcp", a.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write([]byte("GET /ping HTTP/1.1\r\nHost: x\r\nConnection: close\r\n\r\n"))
	require.NoError(t, err)

	respReader := bufio.NewReader(conn)
	status, err := respReader.ReadString('\n')
	require.NoError(t, err)
	assert.Contains(t, status, "200")

	signals <- os.Interrupt
	select {
	case err := <-runDone:
		require.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("acceptor never drained")
	}
}

func TestHealthAcceptorServesHealthRoute(t *testing.T) {
	var buf bytes.Buffer
	log := logger.CreateLoggerWithSink("health-test", zapcore.AddSync(&buf))

	cfg := testConfig(t)
	heartbeat := &health.Health{}
	heartbeat.SetHealth(health.Healthy)

	a := accept.NewHealthAcceptor(cfg, heartbeat, log)

	ready := make(chan struct{})
	signals := make(chan os.Signal, 1)
	runDone := make(chan error, 1)
	go func() { runDone <- a.Run(signals, ready) }()

	select {
	case <-ready:
	case <-time.After(2 * time.Second):
		t.Fatal("health acceptor never became ready")
	}

	conn, err := net.Dial("tcp", a.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write([]byte("GET /health HTTP/1.1\r\nHost: x\r\nConnection: close\r\n\r\n"))
	require.NoError(t, err)

	status, err := bufio.NewReader(conn).ReadString('\n')
	require.NoError(t, err)
	assert.Contains(t, status, "200")

	signals <- os.Interrupt
	select {
	case err := <-runDone:
		require.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("health acceptor never drained")
	}
}
