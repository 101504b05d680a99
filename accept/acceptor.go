// Package accept runs the accept loop: it owns the listener, wraps each
// accepted connection in a netio.Socket, and drives it through serve.Serve
// on its own goroutine, the way the teacher's Router owns listener
// lifecycle, connection tracking, and drain around its http.Server.
package accept

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/armon/go-proxyproto"
	"go.uber.org/zap"

	"code.cloudfoundry.org/clock"

	"code.cloudfoundry.org/picogorouter/clockgw"
	"code.cloudfoundry.org/picogorouter/config"
	"code.cloudfoundry.org/picogorouter/logger"
	"code.cloudfoundry.org/picogorouter/metrics"
	"code.cloudfoundry.org/picogorouter/netio"
	"code.cloudfoundry.org/picogorouter/router"
	"code.cloudfoundry.org/picogorouter/serve"
)

const proxyProtocolHeaderTimeout = 100 * time.Millisecond

// ErrDrainTimeout is returned by Drain when active connections don't finish
// within the configured budget.
var ErrDrainTimeout = errors.New("accept: drain timeout")

// Acceptor owns one listener and the connections it accepts, feeding each
// through serve.Serve until the connection closes or a drain finishes it.
type Acceptor struct {
	cfg      *config.Config
	root     router.Node
	log      logger.Logger
	timer    clockgw.Timer
	reporter *metrics.Reporter

	listener net.Listener

	mu          sync.Mutex
	activeConns map[net.Conn]struct{}
	drainDone   chan struct{}

	shutdown     chan struct{}
	shutdownOnce sync.Once
	reason       atomic.Value

	stopping atomic.Bool
	done     chan struct{}
}

// New builds an Acceptor serving root through cfg's listener settings.
func New(cfg *config.Config, root router.Node, rep *metrics.Reporter, log logger.Logger) *Acceptor {
	return &Acceptor{
		cfg:         cfg,
		root:        root,
		log:         log,
		timer:       clockgw.New(clock.NewClock()),
		reporter:    rep,
		activeConns: make(map[net.Conn]struct{}),
		shutdown:    make(chan struct{}),
		done:        make(chan struct{}),
	}
}

// Addr returns the bound listener's address. Only valid after Run has
// signaled ready.
func (a *Acceptor) Addr() net.Addr {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.listener == nil {
		return nil
	}
	return a.listener.Addr()
}

// Run implements ifrit.Runner: it listens, accepts, and blocks until a
// signal arrives, at which point it drains and returns.
func (a *Acceptor) Run(signals <-chan os.Signal, ready chan<- struct{}) error {
	listener, err := net.Listen("tcp", a.cfg.Addr())
	if err != nil {
		return fmt.Errorf("accept: listen %s: %w", a.cfg.Addr(), err)
	}

	if a.cfg.EnablePROXY {
		listener = &proxyproto.Listener{Listener: listener, ProxyHeaderTimeout: proxyProtocolHeaderTimeout}
	}

	if a.cfg.TLS != nil {
		cert, err := tls.LoadX509KeyPair(a.cfg.TLS.CertFile, a.cfg.TLS.KeyFile)
		if err != nil {
			listener.Close()
			return fmt.Errorf("accept: loading TLS keypair: %w", err)
		}
		listener = newTLSListener(listener, &tls.Config{Certificates: []tls.Certificate{cert}}, a.log)
	}

	a.mu.Lock()
	a.listener = listener
	a.mu.Unlock()
	a.log.Info("listener-started", zap.String("addr", listener.Addr().String()))

	errCh := make(chan error, 1)
	go a.acceptLoop(errCh)

	close(ready)

	select {
	case err := <-errCh:
		return err
	case sig := <-signals:
		a.log.Info("acceptor-draining", zap.String("signal", sig.String()))
		if err := a.Drain(context.Background(), a.cfg.DrainWait, a.cfg.DrainTimeout); err != nil {
			a.log.Error("acceptor-drain-failed", zap.Error(err))
		}
		a.log.Info("acceptor-exited")
		return nil
	}
}

func (a *Acceptor) acceptLoop(errCh chan<- error) {
	defer close(a.done)
	for {
		conn, err := a.listener.Accept()
		if err != nil {
			if a.stopping.Load() {
				return
			}
			errCh <- err
			return
		}

		a.mu.Lock()
		a.activeConns[conn] = struct{}{}
		a.mu.Unlock()

		go a.handleConn(conn)
	}
}

func (a *Acceptor) handleConn(conn net.Conn) {
	defer a.untrack(conn)
	defer conn.Close()

	buf := make([]byte, a.cfg.BufferSize)
	socket := netio.NewTCPSocket(conn)
	shutdown := serve.ShutdownSignal{
		Done:   a.shutdown,
		Reason: func() any { return a.reason.Load() },
	}

	summary, err := serve.Serve(context.Background(), socket, buf, a.root, shutdown, a.timer, a.cfg, a.log)
	if err != nil {
		a.log.Debug("connection-closed", zap.Error(err), zap.Int("handled_requests", summary.HandledRequests))
		return
	}
	a.log.Debug("connection-closed", zap.Int("handled_requests", summary.HandledRequests))
}

func (a *Acceptor) untrack(conn net.Conn) {
	a.mu.Lock()
	delete(a.activeConns, conn)
	if a.drainDone != nil && len(a.activeConns) == 0 {
		close(a.drainDone)
		a.drainDone = nil
	}
	a.mu.Unlock()
}

// Drain stops accepting new connections, waits, then broadcasts shutdown to
// every in-flight serve loop and waits up to timeout for them to finish.
func (a *Acceptor) Drain(ctx context.Context, wait, timeout time.Duration) error {
	a.stopListening()

	if wait > 0 {
		_ = a.timer.Delay(ctx, wait)
	}

	a.shutdownOnce.Do(func() {
		a.reason.Store(any("drain"))
		close(a.shutdown)
	})

	drained := make(chan struct{})
	a.mu.Lock()
	if len(a.activeConns) == 0 {
		close(drained)
	} else {
		a.drainDone = drained
	}
	a.mu.Unlock()

	if timeout <= 0 {
		<-drained
		return nil
	}

	select {
	case <-drained:
		return nil
	case <-time.After(timeout):
		a.forceCloseActive()
		return ErrDrainTimeout
	}
}

func (a *Acceptor) forceCloseActive() {
	a.mu.Lock()
	defer a.mu.Unlock()
	for conn := range a.activeConns {
		conn.Close()
	}
}

func (a *Acceptor) stopListening() {
	a.stopping.Store(true)
	if a.listener != nil {
		_ = a.listener.Close()
		<-a.done
	}
}
