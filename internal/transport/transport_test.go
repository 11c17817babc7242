package transport

import (
	"context"
	"io"
	"net"
	"strings"
	"testing"
	"time"
)

func TestTCPLoopback(t *testing.T) {
	testLoopback(t, KindTCP)
}

func TestQUICLoopback(t *testing.T) {
	testLoopback(t, KindQUIC)
}

// testLoopback checks that a dialed session and an accepted session form
// one ordered byte stream in both directions.
func testLoopback(t *testing.T, kind Kind) {
	t.Helper()

	ln, err := Listen(kind, 0)
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer ln.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	addr := loopbackAddr(t, ln.Addr())

	type accepted struct {
		sess Session
		err  error
	}
	acceptCh := make(chan accepted, 1)
	go func() {
		sess, err := ln.Accept(ctx)
		acceptCh <- accepted{sess, err}
	}()

	client, err := Dial(ctx, kind, addr, 5*time.Second)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer client.Close()

	// The dialer writes first so stream-based transports surface the
	// session on the accept side.
	if _, err := client.Write([]byte("482913")); err != nil {
		t.Fatalf("client write: %v", err)
	}

	srv := <-acceptCh
	if srv.err != nil {
		t.Fatalf("Accept: %v", srv.err)
	}
	defer srv.sess.Close()

	buf := make([]byte, 6)
	if err := srv.sess.SetReadDeadline(time.Now().Add(5 * time.Second)); err != nil {
		t.Fatalf("SetReadDeadline: %v", err)
	}
	if _, err := io.ReadFull(srv.sess, buf); err != nil {
		t.Fatalf("server read: %v", err)
	}
	if string(buf) != "482913" {
		t.Errorf("server read %q, want %q", buf, "482913")
	}

	// And back the other way.
	if _, err := srv.sess.Write([]byte("pong")); err != nil {
		t.Fatalf("server write: %v", err)
	}
	reply := make([]byte, 4)
	if err := client.SetReadDeadline(time.Now().Add(5 * time.Second)); err != nil {
		t.Fatalf("SetReadDeadline: %v", err)
	}
	if _, err := io.ReadFull(client, reply); err != nil {
		t.Fatalf("client read: %v", err)
	}
	if string(reply) != "pong" {
		t.Errorf("client read %q, want %q", reply, "pong")
	}
}

func TestAcceptHonorsContext(t *testing.T) {
	ln, err := Listen(KindTCP, 0)
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer ln.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err = ln.Accept(ctx)
	if err == nil {
		t.Fatal("Accept should fail once the context expires")
	}
}

func TestDialUnreachable(t *testing.T) {
	ctx := context.Background()
	// Port from the TEST-NET style reserved loopback range with nothing
	// listening.
	_, err := Dial(ctx, KindTCP, "127.0.0.1:1", 500*time.Millisecond)
	if err == nil {
		t.Fatal("Dial to a dead port should fail")
	}
}

func TestListenUnknownKind(t *testing.T) {
	if _, err := Listen(Kind("carrier-pigeon"), 0); err == nil {
		t.Error("expected error for unknown listener kind")
	}
	if _, err := Dial(context.Background(), Kind("carrier-pigeon"), "127.0.0.1:1", time.Second); err == nil {
		t.Error("expected error for unknown dialer kind")
	}
}

func TestEnsurePort(t *testing.T) {
	if got := EnsurePort("10.0.0.2", 42425); got != "10.0.0.2:42425" {
		t.Errorf("EnsurePort = %q", got)
	}
	if got := EnsurePort("10.0.0.2:9000", 42425); got != "10.0.0.2:9000" {
		t.Errorf("EnsurePort = %q", got)
	}
}

func TestListenAddrsNeverEmpty(t *testing.T) {
	addrs := ListenAddrs(42425)
	if len(addrs) == 0 {
		t.Fatal("ListenAddrs returned nothing")
	}
	for _, a := range addrs {
		if !strings.HasSuffix(a, ":42425") {
			t.Errorf("addr %q missing port", a)
		}
	}
}

// loopbackAddr rewrites a wildcard listen address to a dialable
// loopback address.
func loopbackAddr(t *testing.T, addr net.Addr) string {
	t.Helper()
	_, port, err := net.SplitHostPort(addr.String())
	if err != nil {
		t.Fatalf("SplitHostPort(%q): %v", addr, err)
	}
	return net.JoinHostPort("127.0.0.1", port)
}
