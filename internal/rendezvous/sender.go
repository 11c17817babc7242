// Package rendezvous maps a passcode to a live, connected transport
// session on both sides of a transfer. Two strategies exist: direct
// (the receiver dials a configured address) and broadcast (the sender
// announces itself on the local subnet until a receiver pairs).
package rendezvous

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strconv"
	"time"

	"github.com/slkrd/slkrd/internal/config"
	"github.com/slkrd/slkrd/internal/passcode"
	"github.com/slkrd/slkrd/internal/transfer"
	"github.com/slkrd/slkrd/internal/transport"
	"github.com/slkrd/slkrd/pkg/wire"
)

// Sender owns the listening half of rendezvous. It binds the transfer
// port at construction so the chosen address is known before the wait
// begins, keeps accepting while wrong-passcode attempts come and go, and
// hands the first matching session to the caller.
type Sender struct {
	cfg      *config.Config
	log      *slog.Logger
	code     passcode.Passcode
	filename string
	ln       transport.Listener
	ann      wire.Announcement
}

// NewSender binds the transfer listener. A bind failure is terminal and
// reported as ConnectionFailed.
func NewSender(cfg *config.Config, log *slog.Logger, code passcode.Passcode, filename string) (*Sender, error) {
	ln, err := transport.Listen(transport.Kind(cfg.Transport), cfg.TransferPort)
	if err != nil {
		return nil, fmt.Errorf("%w: bind transfer port: %v", transfer.ErrConnectionFailed, err)
	}
	s := &Sender{
		cfg:      cfg,
		log:      log,
		code:     code,
		filename: filename,
		ln:       ln,
	}
	s.ann = wire.NewAnnouncement(string(code), filename, s.port())
	return s, nil
}

// Addr returns the bound transfer address.
func (s *Sender) Addr() net.Addr { return s.ln.Addr() }

// Close releases the transfer listener.
func (s *Sender) Close() error { return s.ln.Close() }

// Await accepts connection attempts until one presents the matching
// passcode or the retry budget's time window expires. A wrong guess is
// rejected individually and never tears down the listener; multiple
// simultaneous attempts are evaluated one by one.
func (s *Sender) Await(ctx context.Context) (transport.Session, error) {
	window := time.Duration(s.cfg.RetryBudget) * s.cfg.AnnounceInterval
	ctx, cancel := context.WithTimeout(ctx, window)
	defer cancel()

	if s.cfg.Discovery == config.DiscoveryBroadcast {
		go s.announce(ctx)
	}

	for {
		sess, err := s.ln.Accept(ctx)
		if err != nil {
			switch {
			case errors.Is(err, context.DeadlineExceeded):
				return nil, fmt.Errorf("%w: no receiver appeared within %v", transfer.ErrTimeout, window)
			case ctx.Err() != nil:
				return nil, ctx.Err()
			default:
				return nil, fmt.Errorf("%w: accept: %v", transfer.ErrConnectionFailed, err)
			}
		}

		if err := s.verify(sess); err != nil {
			s.log.Warn("rejected pairing attempt",
				slog.String("peer", sess.RemoteAddr().String()),
				slog.String("reason", err.Error()))
			_ = sess.Close()
			continue
		}

		s.log.Info("paired", slog.String("peer", sess.RemoteAddr().String()))
		return sess, nil
	}
}

// verify reads the peer's passcode and compares it byte-for-byte.
func (s *Sender) verify(sess transport.Session) error {
	if err := sess.SetReadDeadline(time.Now().Add(s.cfg.HandshakeTimeout)); err != nil {
		return fmt.Errorf("set deadline: %w", err)
	}
	presented := make([]byte, len(s.code))
	if _, err := io.ReadFull(sess, presented); err != nil {
		return fmt.Errorf("read passcode: %w", err)
	}
	if !bytes.Equal(presented, []byte(s.code)) {
		return errors.New("passcode mismatch")
	}
	return sess.SetReadDeadline(time.Time{})
}

// announce repeats the discovery announcement on the broadcast address
// until the context ends. The announcement carries this sender session's
// token and advertised transfer port.
func (s *Sender) announce(ctx context.Context) {
	payload, err := s.ann.Encode()
	if err != nil {
		s.log.Error("encode announcement", slog.String("error", err.Error()))
		return
	}

	pc, err := net.ListenPacket("udp4", ":0")
	if err != nil {
		s.log.Error("open announcement socket", slog.String("error", err.Error()))
		return
	}
	defer pc.Close()

	dst := &net.UDPAddr{
		IP:   net.ParseIP(s.cfg.BroadcastAddr),
		Port: s.cfg.DiscoveryPort,
	}

	ticker := time.NewTicker(s.cfg.AnnounceInterval)
	defer ticker.Stop()

	s.log.Debug("announcing",
		slog.String("broadcast", dst.String()),
		slog.Int("transfer_port", s.port()))

	for {
		if _, err := pc.WriteTo(payload, dst); err != nil {
			s.log.Warn("announce write", slog.String("error", err.Error()))
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *Sender) port() int {
	_, portStr, err := net.SplitHostPort(s.ln.Addr().String())
	if err != nil {
		return s.cfg.TransferPort
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return s.cfg.TransferPort
	}
	return port
}
