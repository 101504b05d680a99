package accept

import (
	"crypto/tls"
	"net"

	"go.uber.org/zap"

	"code.cloudfoundry.org/picogorouter/logger"
)

// tlsListener is a modified version of the standard library's crypto/tls
// listener. After accepting a new connection it performs the TLS handshake
// on a dedicated goroutine so a slow or hostile client can't block Accept
// for the rest of the listener, logging handshake failures with as much
// connection metadata as is available.
type tlsListener struct {
	net.Listener
	config *tls.Config
	log    logger.Logger
}

// newTLSListener wraps inner so every accepted connection is served through
// a *tls.Conn, with the handshake itself happening off Accept's hot path.
func newTLSListener(inner net.Listener, config *tls.Config, log logger.Logger) net.Listener {
	return &tlsListener{Listener: inner, config: config, log: log}
}

func (l *tlsListener) Accept() (net.Conn, error) {
	c, err := l.Listener.Accept()
	if err != nil {
		return nil, err
	}
	tlsConn := tls.Server(c, l.config)

	go func() {
		if err := tlsConn.Handshake(); err != nil {
			logHandshakeErr(err, tlsConn, l.log)
		}
	}()

	return tlsConn, nil
}

func logHandshakeErr(err error, c *tls.Conn, log logger.Logger) {
	state := c.ConnectionState()

	fields := []zap.Field{
		zap.Error(err),
		zap.String("client_addr", c.RemoteAddr().String()),
		zap.Bool("tls_resumed", state.DidResume),
	}

	if len(state.PeerCertificates) > 0 {
		fields = append(fields,
			zap.String("client_cert_subject", state.PeerCertificates[0].Subject.String()),
			zap.String("client_cert_issuer", state.PeerCertificates[0].Issuer.String()),
		)
	}
	if state.CipherSuite != 0 {
		fields = append(fields, zap.String("cipher_suite", tls.CipherSuiteName(state.CipherSuite)))
	}
	if state.Version != 0 {
		fields = append(fields, zap.String("tls_version", tls.VersionName(state.Version)))
	}
	if state.ServerName != "" {
		fields = append(fields, zap.String("sni", state.ServerName))
	}

	log.Error("tls-handshake-failed", fields...)
}
