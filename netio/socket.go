// Package netio wraps an accepted connection as the opaque Socket the serve
// loop drives, per §6's External Interfaces: split into independent read
// and write halves, plus an orderly, timeout-bounded shutdown.
package netio

import (
	"context"
	"net"
	"time"

	"code.cloudfoundry.org/picogorouter/clockgw"
)

// ReadHalf is the read side of a split Socket.
type ReadHalf interface {
	Read(p []byte) (int, error)
}

// WriteHalf is the write side of a split Socket. It has no Flush of its
// own; the core wraps it in a *bufio.Writer upstream and flushes that.
type WriteHalf interface {
	Write(p []byte) (int, error)
}

// Socket is the opaque connection type the serve loop consumes.
type Socket interface {
	Split() (ReadHalf, WriteHalf)
	// Shutdown performs an orderly close, bounded by writeTimeout.
	Shutdown(ctx context.Context, writeTimeout time.Duration, timer clockgw.Timer) error
}

// Addresser is an optional capability a Socket may implement to expose the
// underlying connection's addresses, e.g. for a request-info extractor.
type Addresser interface {
	RemoteAddr() net.Addr
	LocalAddr() net.Addr
}

// TCPSocket adapts a *net.TCPConn (or any net.Conn, including one wrapped
// by github.com/armon/go-proxyproto for PROXY-protocol-aware listeners) to
// Socket.
type TCPSocket struct {
	conn net.Conn
}

// NewTCPSocket wraps an accepted net.Conn.
func NewTCPSocket(conn net.Conn) *TCPSocket {
	return &TCPSocket{conn: conn}
}

// RemoteAddr and LocalAddr implement Addresser.
func (s *TCPSocket) RemoteAddr() net.Addr { return s.conn.RemoteAddr() }
func (s *TCPSocket) LocalAddr() net.Addr  { return s.conn.LocalAddr() }

func (s *TCPSocket) Split() (ReadHalf, WriteHalf) {
	return s.conn, s.conn
}

// Shutdown asks the OS for a half-close (if available) so pending writes
// flush to the peer, then closes outright once writeTimeout elapses or the
// orderly path isn't available.
func (s *TCPSocket) Shutdown(ctx context.Context, writeTimeout time.Duration, timer clockgw.Timer) error {
	type closeWriter interface {
		CloseWrite() error
	}

	if cw, ok := s.conn.(closeWriter); ok {
		if err := cw.CloseWrite(); err != nil {
			return s.conn.Close()
		}
	}

	if writeTimeout <= 0 {
		return s.conn.Close()
	}

	_ = timer.Delay(ctx, writeTimeout)
	return s.conn.Close()
}
