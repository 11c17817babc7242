package transfer

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
)

// Terminal failure kinds. Every failure surfaced to a caller matches
// exactly one of these with errors.Is / errors.As, so a presentation
// layer can tell "wrong passcode" from "peer unreachable" from
// "disk full" without inspecting platform error codes.
var (
	// ErrFileNotFound reports a missing source file.
	ErrFileNotFound = errors.New("file not found")

	// ErrInvalidPasscode reports a malformed passcode (wrong length or
	// characters outside the alphabet). Raised before any network I/O.
	ErrInvalidPasscode = errors.New("invalid passcode")

	// ErrConnectionFailed reports that rendezvous never completed.
	ErrConnectionFailed = errors.New("connection failed")

	// ErrTimeout reports that a bounded wait expired.
	ErrTimeout = errors.New("timeout")

	// ErrFileExists reports a destination path collision. The existing
	// file is never touched.
	ErrFileExists = errors.New("file exists")
)

// IncompleteTransferError reports a byte-count mismatch after the stream
// ended: the peer closed before delivering the declared file size.
type IncompleteTransferError struct {
	Received uint64
	Expected uint64
}

func (e *IncompleteTransferError) Error() string {
	return fmt.Sprintf("incomplete transfer: received %d of %d bytes", e.Received, e.Expected)
}

// IsIncomplete reports whether err carries an IncompleteTransferError.
func IsIncomplete(err error) bool {
	var ite *IncompleteTransferError
	return errors.As(err, &ite)
}

// wrapIO maps deadline and cancellation faults from the session onto the
// taxonomy; everything else passes through wrapped as a plain transfer
// fault so the caller still sees the underlying cause.
func wrapIO(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, os.ErrDeadlineExceeded):
		return fmt.Errorf("%s: %w: %v", op, ErrTimeout, err)
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%s: %w: %v", op, ErrTimeout, err)
	default:
		var nerr net.Error
		if errors.As(err, &nerr) && nerr.Timeout() {
			return fmt.Errorf("%s: %w: %v", op, ErrTimeout, err)
		}
		return fmt.Errorf("%s: %w", op, err)
	}
}
