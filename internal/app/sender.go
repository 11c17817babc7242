// Package app wires passcode, rendezvous, and the transfer engine into
// the two top-level flows: offering a file and fetching one.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"path/filepath"

	"github.com/slkrd/slkrd/internal/config"
	"github.com/slkrd/slkrd/internal/passcode"
	"github.com/slkrd/slkrd/internal/progress"
	"github.com/slkrd/slkrd/internal/rendezvous"
	"github.com/slkrd/slkrd/internal/transfer"
)

// Sender offers one file for transfer. Construction generates the
// passcode and binds the transfer listener, so the passcode and bound
// address are available for display before Run blocks.
type Sender struct {
	cfg  *config.Config
	log  *slog.Logger
	sink progress.Sink
	path string
	code passcode.Passcode
	rdv  *rendezvous.Sender
}

// NewSender validates the source path, generates a fresh passcode, and
// binds the transfer listener.
func NewSender(cfg *config.Config, log *slog.Logger, sink progress.Sink, path string) (*Sender, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", transfer.ErrFileNotFound, path)
		}
		return nil, fmt.Errorf("stat source: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("source %s is a directory, want a single file", path)
	}

	auth := passcode.New(cfg.PasscodeAlphabet, cfg.PasscodeLength)
	code, err := auth.Generate()
	if err != nil {
		return nil, err
	}

	rdv, err := rendezvous.NewSender(cfg, log, code, filepath.Base(path))
	if err != nil {
		return nil, err
	}

	return &Sender{
		cfg:  cfg,
		log:  log,
		sink: sink,
		path: path,
		code: code,
		rdv:  rdv,
	}, nil
}

// Passcode returns the generated pairing passcode for display.
func (s *Sender) Passcode() passcode.Passcode { return s.code }

// Addr returns the bound transfer address.
func (s *Sender) Addr() net.Addr { return s.rdv.Addr() }

// Close releases the transfer listener without running a transfer.
func (s *Sender) Close() error { return s.rdv.Close() }

// Run waits for a paired receiver and streams the file to it. A
// transient fault mid-transfer returns to waiting for the next receiver,
// up to the configured session retry count; the fresh attempt restarts
// from byte zero.
func (s *Sender) Run(ctx context.Context) (*transfer.Outcome, error) {
	defer s.rdv.Close()

	eng := transfer.NewEngine(s.cfg.ChunkSize, s.cfg.IOTimeout, s.sink, s.log)

	var lastErr error
	for attempt := 0; attempt <= s.cfg.SessionRetries; attempt++ {
		sess, err := s.rdv.Await(ctx)
		if err != nil {
			return nil, err
		}

		out, err := eng.Send(ctx, sess, s.path)
		_ = sess.Close()
		if err == nil {
			return out, nil
		}
		if !retryable(err) {
			return nil, err
		}
		lastErr = err
		s.log.Warn("transfer attempt failed, waiting for a new receiver",
			slog.Int("attempt", attempt+1),
			slog.String("error", err.Error()))
	}
	return nil, fmt.Errorf("out of session retries: %w", lastErr)
}

// retryable reports whether a whole-session restart is worth attempting.
// Operator-fixable conditions (missing source, occupied destination, bad
// passcode) are terminal.
func retryable(err error) bool {
	return errors.Is(err, transfer.ErrTimeout) ||
		errors.Is(err, transfer.ErrConnectionFailed) ||
		transfer.IsIncomplete(err)
}
