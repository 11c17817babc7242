package rendezvous

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"time"

	"github.com/cenkalti/backoff"

	"github.com/slkrd/slkrd/internal/config"
	"github.com/slkrd/slkrd/internal/passcode"
	"github.com/slkrd/slkrd/internal/transfer"
	"github.com/slkrd/slkrd/internal/transport"
	"github.com/slkrd/slkrd/pkg/wire"
)

// FindSender locates the announcing sender for the given passcode and
// returns a connected session with the passcode already presented.
// Pairing success is confirmed by the transfer header that follows; a
// sender that rejects the passcode simply closes the stream.
func FindSender(ctx context.Context, cfg *config.Config, log *slog.Logger, code passcode.Passcode) (transport.Session, error) {
	switch cfg.Discovery {
	case config.DiscoveryDirect:
		return findDirect(ctx, cfg, log, code)
	case config.DiscoveryBroadcast:
		return findBroadcast(ctx, cfg, log, code)
	default:
		return nil, fmt.Errorf("%w: unknown discovery mode %q", transfer.ErrConnectionFailed, cfg.Discovery)
	}
}

// findDirect dials the configured sender address, retrying with constant
// spacing until the retry budget runs out.
func findDirect(ctx context.Context, cfg *config.Config, log *slog.Logger, code passcode.Passcode) (transport.Session, error) {
	if cfg.PeerAddr == "" {
		return nil, fmt.Errorf("%w: direct mode requires a sender address", transfer.ErrConnectionFailed)
	}
	addr := transport.EnsurePort(cfg.PeerAddr, cfg.TransferPort)

	var sess transport.Session
	attempt := 0
	op := func() error {
		attempt++
		s, err := dialAndPresent(ctx, cfg, addr, code)
		if err != nil {
			log.Debug("connect attempt failed",
				slog.Int("attempt", attempt),
				slog.String("addr", addr),
				slog.String("error", err.Error()))
			return err
		}
		sess = s
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(cfg.AnnounceInterval), uint64(cfg.RetryBudget)),
		ctx,
	)
	if err := backoff.Retry(op, policy); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: connecting to %s", transfer.ErrTimeout, addr)
		}
		return nil, fmt.Errorf("%w: %s: %v", transfer.ErrConnectionFailed, addr, err)
	}

	log.Info("connected to sender", slog.String("addr", addr))
	return sess, nil
}

// findBroadcast listens for discovery announcements and dials the first
// sender whose passcode matches exactly. Non-matching announcements and
// undecodable datagrams are ignored silently; they are ambient noise,
// not errors.
func findBroadcast(ctx context.Context, cfg *config.Config, log *slog.Logger, code passcode.Passcode) (transport.Session, error) {
	pc, err := net.ListenPacket("udp4", fmt.Sprintf(":%d", cfg.DiscoveryPort))
	if err != nil {
		return nil, fmt.Errorf("%w: bind discovery port: %v", transfer.ErrConnectionFailed, err)
	}
	defer pc.Close()

	window := time.Duration(cfg.RetryBudget) * cfg.AnnounceInterval
	deadline := time.Now().Add(window)
	log.Debug("searching for sender",
		slog.Int("discovery_port", cfg.DiscoveryPort),
		slog.Duration("window", window))

	buf := make([]byte, 2048)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := pc.SetReadDeadline(deadline); err != nil {
			return nil, fmt.Errorf("set deadline: %w", err)
		}

		n, src, err := pc.ReadFrom(buf)
		if err != nil {
			var nerr net.Error
			if errors.As(err, &nerr) && nerr.Timeout() {
				return nil, fmt.Errorf("%w: no matching announcement within %v", transfer.ErrTimeout, window)
			}
			return nil, fmt.Errorf("%w: discovery read: %v", transfer.ErrConnectionFailed, err)
		}

		ann, err := wire.DecodeAnnouncement(buf[:n])
		if err != nil {
			continue
		}
		if ann.Passcode != string(code) {
			continue
		}

		host, _, err := net.SplitHostPort(src.String())
		if err != nil {
			continue
		}
		addr := net.JoinHostPort(host, strconv.Itoa(ann.TransferPort))
		log.Info("found sender",
			slog.String("addr", addr),
			slog.String("file", ann.Filename),
			slog.String("session", ann.SessionToken))

		sess, err := dialAndPresent(ctx, cfg, addr, code)
		if err != nil {
			// The sender may have just gone away; keep searching
			// inside the same window.
			log.Warn("dial announced sender",
				slog.String("addr", addr),
				slog.String("error", err.Error()))
			continue
		}
		return sess, nil
	}
}

// dialAndPresent connects and immediately writes the raw passcode bytes,
// per the pairing handshake.
func dialAndPresent(ctx context.Context, cfg *config.Config, addr string, code passcode.Passcode) (transport.Session, error) {
	sess, err := transport.Dial(ctx, transport.Kind(cfg.Transport), addr, cfg.HandshakeTimeout)
	if err != nil {
		return nil, err
	}
	if err := sess.SetWriteDeadline(time.Now().Add(cfg.HandshakeTimeout)); err != nil {
		_ = sess.Close()
		return nil, err
	}
	if _, err := sess.Write([]byte(code)); err != nil {
		_ = sess.Close()
		return nil, fmt.Errorf("present passcode: %w", err)
	}
	if err := sess.SetWriteDeadline(time.Time{}); err != nil {
		_ = sess.Close()
		return nil, err
	}
	return sess, nil
}
