// Package transport provides the ordered, reliable, bidirectional byte
// stream the transfer engine runs over. Two backends exist: a plain TCP
// connection and a single QUIC bidirectional stream. The engine treats
// both uniformly through Session.
package transport

import (
	"context"
	"fmt"
	"io"
	"net"
	"strconv"
	"time"
)

// Kind names a transport backend.
type Kind string

const (
	KindTCP  Kind = "tcp"
	KindQUIC Kind = "quic"
)

// Session is an established byte stream between paired peers. Reads and
// writes honor the deadlines; Close releases the underlying connection.
type Session interface {
	io.Reader
	io.Writer
	io.Closer
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	RemoteAddr() net.Addr
}

// Listener accepts incoming sessions on the sender side.
type Listener interface {
	// Accept waits for the next incoming session. It returns ctx.Err()
	// if the context is canceled first.
	Accept(ctx context.Context) (Session, error)
	Addr() net.Addr
	Close() error
}

// Listen binds a listener of the given kind on the given port. Port 0
// picks an ephemeral port; the chosen one is available from Addr.
func Listen(kind Kind, port int) (Listener, error) {
	switch kind {
	case KindTCP:
		return listenTCP(port)
	case KindQUIC:
		return listenQUIC(port)
	default:
		return nil, fmt.Errorf("transport: unknown kind %q", kind)
	}
}

// Dial connects to a listening peer and returns the established session.
func Dial(ctx context.Context, kind Kind, addr string, timeout time.Duration) (Session, error) {
	switch kind {
	case KindTCP:
		return dialTCP(ctx, addr, timeout)
	case KindQUIC:
		return dialQUIC(ctx, addr, timeout)
	default:
		return nil, fmt.Errorf("transport: unknown kind %q", kind)
	}
}

// ListenAddrs returns the non-loopback IPv4 addresses a peer can be
// reached on for the given port, falling back to loopback when the host
// has none. Used for operator-facing "dial me here" hints.
func ListenAddrs(port int) []string {
	addrs := make([]string, 0)
	ifaces, err := net.InterfaceAddrs()
	if err == nil {
		for _, addr := range ifaces {
			ipnet, ok := addr.(*net.IPNet)
			if !ok || ipnet.IP == nil {
				continue
			}
			if ipnet.IP.IsLoopback() {
				continue
			}
			if ip4 := ipnet.IP.To4(); ip4 != nil {
				addrs = append(addrs, net.JoinHostPort(ip4.String(), strconv.Itoa(port)))
			}
		}
	}
	if len(addrs) == 0 {
		addrs = append(addrs, net.JoinHostPort("127.0.0.1", strconv.Itoa(port)))
	}
	return addrs
}

// EnsurePort appends the default port to addr when the operator left it
// off.
func EnsurePort(addr string, defaultPort int) string {
	if _, _, err := net.SplitHostPort(addr); err == nil {
		return addr
	}
	return net.JoinHostPort(addr, strconv.Itoa(defaultPort))
}
