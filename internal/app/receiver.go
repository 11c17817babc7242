package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/slkrd/slkrd/internal/config"
	"github.com/slkrd/slkrd/internal/passcode"
	"github.com/slkrd/slkrd/internal/progress"
	"github.com/slkrd/slkrd/internal/rendezvous"
	"github.com/slkrd/slkrd/internal/transfer"
)

// Receiver fetches the file offered under a passcode. Construction
// validates the typed passcode; no network I/O happens until Run.
type Receiver struct {
	cfg  *config.Config
	log  *slog.Logger
	sink progress.Sink
	code passcode.Passcode
}

// NewReceiver validates the passcode against the configured alphabet and
// length. A malformed passcode fails here, before any socket is opened.
func NewReceiver(cfg *config.Config, log *slog.Logger, sink progress.Sink, rawCode string) (*Receiver, error) {
	auth := passcode.New(cfg.PasscodeAlphabet, cfg.PasscodeLength)
	code, err := auth.Validate(rawCode)
	if err != nil {
		return nil, err
	}
	return &Receiver{
		cfg:  cfg,
		log:  log,
		sink: sink,
		code: code,
	}, nil
}

// Run locates the sender, pairs, and receives the file into the
// configured output directory. Transient faults restart the whole
// session (search, pair, transfer) up to the configured retry count;
// each fresh attempt truncates the partial file and starts from byte
// zero.
func (r *Receiver) Run(ctx context.Context) (*transfer.Outcome, error) {
	eng := transfer.NewEngine(r.cfg.ChunkSize, r.cfg.IOTimeout, r.sink, r.log)

	var lastErr error
	for attempt := 0; attempt <= r.cfg.SessionRetries; attempt++ {
		if attempt > 0 {
			r.log.Warn("restarting session",
				slog.Int("attempt", attempt+1),
				slog.String("error", lastErr.Error()))
		}

		sess, err := rendezvous.FindSender(ctx, r.cfg, r.log, r.code)
		if err != nil {
			return nil, err
		}

		out, err := eng.Receive(ctx, sess, r.cfg.OutDir)
		_ = sess.Close()
		if err == nil {
			return out, nil
		}
		if !retryable(err) {
			return nil, err
		}
		lastErr = err
	}
	return nil, fmt.Errorf("out of session retries: %w", lastErr)
}
