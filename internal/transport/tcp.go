package transport

import (
	"context"
	"fmt"
	"net"
	"time"
)

// tcpListener adapts net.Listener to the context-aware Listener.
type tcpListener struct {
	ln net.Listener
}

func listenTCP(port int) (Listener, error) {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return nil, fmt.Errorf("transport: tcp listen: %w", err)
	}
	return &tcpListener{ln: ln}, nil
}

func (l *tcpListener) Accept(ctx context.Context) (Session, error) {
	type res struct {
		conn net.Conn
		err  error
	}
	ch := make(chan res, 1)
	go func() {
		c, err := l.ln.Accept()
		ch <- res{conn: c, err: err}
	}()
	select {
	case <-ctx.Done():
		_ = l.ln.Close()
		return nil, ctx.Err()
	case r := <-ch:
		if r.err != nil {
			return nil, r.err
		}
		return r.conn, nil
	}
}

func (l *tcpListener) Addr() net.Addr {
	return l.ln.Addr()
}

func (l *tcpListener) Close() error {
	return l.ln.Close()
}

func dialTCP(ctx context.Context, addr string, timeout time.Duration) (Session, error) {
	d := net.Dialer{Timeout: timeout}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("transport: tcp dial %s: %w", addr, err)
	}
	return conn, nil
}
