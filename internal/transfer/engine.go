// Package transfer moves exactly one file across an established
// transport session: header exchange, chunk loop, timeout control, and
// byte-count integrity accounting.
package transfer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/slkrd/slkrd/internal/bufpool"
	"github.com/slkrd/slkrd/internal/progress"
	"github.com/slkrd/slkrd/internal/transport"
	"github.com/slkrd/slkrd/pkg/wire"
)

// Engine drives one direction of the file-content exchange over an
// established session. One engine owns one session and one destination
// for the transfer's lifetime.
type Engine struct {
	chunkSize int
	ioTimeout time.Duration
	sink      progress.Sink
	limiter   *progress.Limiter
	log       *slog.Logger
}

// NewEngine returns an engine writing chunks of chunkSize bytes with the
// given in-flight I/O timeout. A nil sink discards progress events.
func NewEngine(chunkSize int, ioTimeout time.Duration, sink progress.Sink, log *slog.Logger) *Engine {
	if sink == nil {
		sink = progress.Discard
	}
	if log == nil {
		log = slog.Default()
	}
	return &Engine{
		chunkSize: chunkSize,
		ioTimeout: ioTimeout,
		sink:      sink,
		limiter:   progress.NewLimiter(progress.DefaultInterval),
		log:       log,
	}
}

// Send writes the transfer header followed by the source file's bytes in
// chunks of at most chunkSize. The session stays open on return; the
// caller owns its lifecycle.
func (e *Engine) Send(ctx context.Context, sess transport.Session, sourcePath string) (*Outcome, error) {
	f, err := os.Open(sourcePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, sourcePath)
		}
		return nil, fmt.Errorf("open source: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat source: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("source %s is a directory", sourcePath)
	}

	name := filepath.Base(sourcePath)
	size := info.Size()
	st := newState(name, size)

	e.log.Debug("sending header", slog.String("file", name), slog.Int64("size", size))
	if err := sess.SetWriteDeadline(time.Now().Add(e.ioTimeout)); err != nil {
		return nil, fmt.Errorf("set deadline: %w", err)
	}
	if err := wire.WriteHeader(sess, wire.Header{Size: uint64(size), Name: name}); err != nil {
		return nil, wrapIO("send header", err)
	}

	e.sink.Publish(st.event())

	pool := bufpool.ForChunkSize(e.chunkSize)
	buf := pool.Get()
	defer pool.Put(buf)

	for st.bytesMoved < size {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("send canceled: %w", err)
		}

		n, rerr := io.ReadFull(f, buf)
		if rerr != nil && rerr != io.EOF && rerr != io.ErrUnexpectedEOF {
			return nil, fmt.Errorf("read source: %w", rerr)
		}
		if n == 0 {
			// Source ended early; the byte-count check below reports it.
			break
		}

		if err := sess.SetWriteDeadline(time.Now().Add(e.ioTimeout)); err != nil {
			return nil, fmt.Errorf("set deadline: %w", err)
		}
		if _, err := sess.Write(buf[:n]); err != nil {
			return nil, wrapIO("send chunk", err)
		}
		st.advance(n)
		if e.limiter.Allow() {
			e.sink.Publish(st.event())
		}
	}

	if st.bytesMoved != size {
		return nil, &IncompleteTransferError{
			Received: uint64(st.bytesMoved),
			Expected: uint64(size),
		}
	}

	e.sink.Publish(st.event())
	e.log.Info("send complete",
		slog.String("file", name),
		slog.Int64("bytes", st.bytesMoved),
		slog.Duration("elapsed", st.elapsed()))

	return &Outcome{Filename: name, BytesMoved: st.bytesMoved, Duration: st.elapsed()}, nil
}

// Receive reads the transfer header and then the declared number of
// payload bytes, writing them to a file named by the header inside
// destDir. The file is written to a .part path and renamed into place on
// success; a failed attempt leaves the .part file on disk for inspection
// (and truncation by a retry).
func (e *Engine) Receive(ctx context.Context, sess transport.Session, destDir string) (*Outcome, error) {
	if err := sess.SetReadDeadline(time.Now().Add(e.ioTimeout)); err != nil {
		return nil, fmt.Errorf("set deadline: %w", err)
	}
	hdr, err := wire.ReadHeader(sess)
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			// Peer closed before the header: it never accepted the pairing.
			return nil, fmt.Errorf("%w: peer closed before header", ErrConnectionFailed)
		}
		return nil, wrapIO("receive header", err)
	}

	// Announced names are untrusted; strip any path component.
	name := filepath.Base(hdr.Name)
	if name == "." || name == string(filepath.Separator) {
		return nil, fmt.Errorf("invalid filename %q in header", hdr.Name)
	}
	size := int64(hdr.Size)

	dest := filepath.Join(destDir, name)
	if _, err := os.Stat(dest); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrFileExists, dest)
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("stat destination: %w", err)
	}

	part := dest + ".part"
	f, err := os.OpenFile(part, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("create destination: %w", err)
	}
	defer f.Close()

	st := newState(name, size)
	e.log.Debug("receiving", slog.String("file", name), slog.Int64("size", size))
	e.sink.Publish(st.event())

	pool := bufpool.ForChunkSize(e.chunkSize)
	buf := pool.Get()
	defer pool.Put(buf)

	for st.bytesMoved < size {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("receive canceled: %w", err)
		}

		want := size - st.bytesMoved
		if want > int64(e.chunkSize) {
			want = int64(e.chunkSize)
		}
		if err := sess.SetReadDeadline(time.Now().Add(e.ioTimeout)); err != nil {
			return nil, fmt.Errorf("set deadline: %w", err)
		}
		n, rerr := sess.Read(buf[:want])
		if n > 0 {
			if _, werr := f.Write(buf[:n]); werr != nil {
				return nil, fmt.Errorf("write destination: %w", werr)
			}
			st.advance(n)
			if e.limiter.Allow() {
				e.sink.Publish(st.event())
			}
		}
		if rerr != nil {
			if errors.Is(rerr, io.EOF) {
				break
			}
			return nil, wrapIO("receive chunk", rerr)
		}
	}

	if st.bytesMoved != size {
		return nil, &IncompleteTransferError{
			Received: uint64(st.bytesMoved),
			Expected: uint64(size),
		}
	}

	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("close destination: %w", err)
	}
	// Re-check before the rename; the pre-existence check is the only
	// guard against clobbering.
	if _, err := os.Stat(dest); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrFileExists, dest)
	}
	if err := os.Rename(part, dest); err != nil {
		return nil, fmt.Errorf("finalize destination: %w", err)
	}

	e.sink.Publish(st.event())
	e.log.Info("receive complete",
		slog.String("file", name),
		slog.Int64("bytes", st.bytesMoved),
		slog.Duration("elapsed", st.elapsed()))

	return &Outcome{Filename: name, BytesMoved: st.bytesMoved, Dest: dest, Duration: st.elapsed()}, nil
}
