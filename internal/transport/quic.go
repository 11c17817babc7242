package transport

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"fmt"
	"io"
	"math/big"
	"net"
	"time"

	"github.com/quic-go/quic-go"
)

// alpnProtocol identifies the slkrd transfer protocol during the QUIC
// handshake.
const alpnProtocol = "slkrd/1"

// quicSession is one QUIC connection carrying a single bidirectional
// stream. The dialing peer opens the stream and must write first so the
// accepting side sees it.
type quicSession struct {
	conn   *quic.Conn
	stream *quic.Stream
}

func (s *quicSession) Read(p []byte) (int, error)  { return s.stream.Read(p) }
func (s *quicSession) Write(p []byte) (int, error) { return s.stream.Write(p) }

func (s *quicSession) SetReadDeadline(t time.Time) error  { return s.stream.SetReadDeadline(t) }
func (s *quicSession) SetWriteDeadline(t time.Time) error { return s.stream.SetWriteDeadline(t) }

func (s *quicSession) RemoteAddr() net.Addr { return s.conn.RemoteAddr() }

// Close finishes the stream, waits briefly for the peer's own FIN so
// buffered data is not discarded by the connection close, then closes
// the connection.
func (s *quicSession) Close() error {
	_ = s.stream.Close()
	_ = s.stream.SetReadDeadline(time.Now().Add(3 * time.Second))
	_, _ = io.Copy(io.Discard, s.stream)
	return s.conn.CloseWithError(0, "done")
}

type quicListener struct {
	ln *quic.Listener
}

func listenQUIC(port int) (Listener, error) {
	tlsConf, err := serverTLSConfig()
	if err != nil {
		return nil, err
	}
	ln, err := quic.ListenAddr(fmt.Sprintf(":%d", port), tlsConf, defaultQUICConfig())
	if err != nil {
		return nil, fmt.Errorf("transport: quic listen: %w", err)
	}
	return &quicListener{ln: ln}, nil
}

func (l *quicListener) Accept(ctx context.Context) (Session, error) {
	conn, err := l.ln.Accept(ctx)
	if err != nil {
		return nil, err
	}
	stream, err := conn.AcceptStream(ctx)
	if err != nil {
		_ = conn.CloseWithError(0, "no stream")
		return nil, err
	}
	return &quicSession{conn: conn, stream: stream}, nil
}

func (l *quicListener) Addr() net.Addr {
	return l.ln.Addr()
}

func (l *quicListener) Close() error {
	return l.ln.Close()
}

func dialQUIC(ctx context.Context, addr string, timeout time.Duration) (Session, error) {
	dialCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	conn, err := quic.DialAddr(dialCtx, addr, clientTLSConfig(), defaultQUICConfig())
	if err != nil {
		return nil, fmt.Errorf("transport: quic dial %s: %w", addr, err)
	}
	stream, err := conn.OpenStreamSync(dialCtx)
	if err != nil {
		_ = conn.CloseWithError(0, "no stream")
		return nil, fmt.Errorf("transport: quic open stream: %w", err)
	}
	return &quicSession{conn: conn, stream: stream}, nil
}

func defaultQUICConfig() *quic.Config {
	return &quic.Config{
		KeepAlivePeriod: 10 * time.Second,
		MaxIdleTimeout:  30 * time.Second,
	}
}

// serverTLSConfig returns a TLS configuration with a fresh self-signed
// certificate. The passcode handshake pairs the peers; the certificate
// only satisfies QUIC's mandatory TLS layer.
func serverTLSConfig() (*tls.Config, error) {
	cert, err := generateSelfSignedCert()
	if err != nil {
		return nil, fmt.Errorf("transport: self-signed cert: %w", err)
	}
	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		NextProtos:   []string{alpnProtocol},
	}, nil
}

func clientTLSConfig() *tls.Config {
	return &tls.Config{
		InsecureSkipVerify: true,
		NextProtos:         []string{alpnProtocol},
	}
}

func generateSelfSignedCert() (tls.Certificate, error) {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return tls.Certificate{}, err
	}

	template := x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject: pkix.Name{
			Organization: []string{"slkrd"},
		},
		NotBefore:             time.Now(),
		NotAfter:              time.Now().Add(24 * time.Hour),
		KeyUsage:              x509.KeyUsageKeyEncipherment | x509.KeyUsageDigitalSignature,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
	}

	certDER, err := x509.CreateCertificate(rand.Reader, &template, &template, &priv.PublicKey, priv)
	if err != nil {
		return tls.Certificate{}, err
	}

	return tls.Certificate{
		Certificate: [][]byte{certDER},
		PrivateKey:  priv,
	}, nil
}
