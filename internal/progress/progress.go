// Package progress carries transfer-progress events from the engine to
// an external presentation layer. The engine never blocks on a sink.
package progress

import (
	"sync"
	"sync/atomic"
	"time"
)

// Event is one progress observation. BytesMoved is monotonically
// non-decreasing over the lifetime of a transfer and equals TotalBytes
// on the final event of a successful one.
type Event struct {
	Filename   string
	BytesMoved int64
	TotalBytes int64
}

// Sink receives progress events. Implementations must not block; the
// engine calls Publish from the chunk loop.
type Sink interface {
	Publish(Event)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(Event)

func (f SinkFunc) Publish(e Event) { f(e) }

// Discard is a sink that drops every event.
var Discard Sink = SinkFunc(func(Event) {})

// ChanSink delivers events over a buffered channel, dropping events when
// the consumer falls behind so the transfer never stalls on display.
type ChanSink struct {
	ch        chan Event
	closeOnce sync.Once
}

// NewChanSink returns a sink buffering up to size events.
func NewChanSink(size int) *ChanSink {
	if size <= 0 {
		size = 16
	}
	return &ChanSink{ch: make(chan Event, size)}
}

// Publish enqueues the event, or drops it if the buffer is full.
func (s *ChanSink) Publish(e Event) {
	select {
	case s.ch <- e:
	default:
	}
}

// Events returns the receive side of the sink.
func (s *ChanSink) Events() <-chan Event {
	return s.ch
}

// Close closes the event channel. Publish must not be called after Close.
func (s *ChanSink) Close() {
	s.closeOnce.Do(func() { close(s.ch) })
}

// Limiter rate-limits progress emission so it never becomes the
// throughput bottleneck. Allow reports whether enough wall time has
// passed since the last allowed call; it is safe for concurrent use.
type Limiter struct {
	interval time.Duration
	last     int64
}

// DefaultInterval spaces progress events. Emission tighter than ~100ms
// buys nothing and costs throughput.
const DefaultInterval = 150 * time.Millisecond

// NewLimiter returns a limiter with the given interval, or
// DefaultInterval when interval is not positive.
func NewLimiter(interval time.Duration) *Limiter {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Limiter{interval: interval}
}

// Allow reports whether an event should be emitted now.
func (l *Limiter) Allow() bool {
	now := time.Now().UnixNano()
	prev := atomic.LoadInt64(&l.last)
	if now-prev < int64(l.interval) {
		return false
	}
	return atomic.CompareAndSwapInt64(&l.last, prev, now)
}
