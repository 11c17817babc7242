package transfer

import (
	"time"

	"github.com/slkrd/slkrd/internal/progress"
)

// State holds the progress counters for exactly one transfer. It is
// owned by the engine for the transfer's lifetime and discarded when the
// transfer terminates, so sequential transfers in one process cannot
// leak state into each other.
type state struct {
	filename   string
	totalBytes int64
	bytesMoved int64
	startedAt  time.Time
}

func newState(filename string, totalBytes int64) *state {
	return &state{
		filename:   filename,
		totalBytes: totalBytes,
		startedAt:  time.Now(),
	}
}

func (s *state) advance(n int) {
	s.bytesMoved += int64(n)
}

func (s *state) event() progress.Event {
	return progress.Event{
		Filename:   s.filename,
		BytesMoved: s.bytesMoved,
		TotalBytes: s.totalBytes,
	}
}

func (s *state) elapsed() time.Duration {
	return time.Since(s.startedAt)
}

// Outcome summarizes a completed transfer.
type Outcome struct {
	Filename   string
	BytesMoved int64
	Dest       string // receiver side: final path the file was written to
	Duration   time.Duration
}
