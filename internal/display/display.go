// Package display renders progress events on the terminal. It is the
// only package that writes to the screen during a transfer; the engine
// publishes events and never blocks on rendering.
package display

import (
	"fmt"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/slkrd/slkrd/internal/progress"
)

// Bar consumes a progress event stream and draws a byte-count progress
// bar on stderr. The bar is created lazily from the first event, which
// carries the filename and total size.
type Bar struct {
	done  chan struct{}
	stats progress.Stats
}

// Watch starts rendering events until the channel closes. The operation
// string prefixes the bar description ("sending", "receiving").
func Watch(operation string, events <-chan progress.Event) *Bar {
	b := &Bar{done: make(chan struct{})}
	go b.loop(operation, events)
	return b
}

func (b *Bar) loop(operation string, events <-chan progress.Event) {
	defer close(b.done)

	var bar *progressbar.ProgressBar
	meter := progress.NewMeter()

	for e := range events {
		if bar == nil {
			meter.Start(e.TotalBytes)
			bar = progressbar.NewOptions64(e.TotalBytes,
				progressbar.OptionSetDescription(fmt.Sprintf("%s %s", operation, e.Filename)),
				progressbar.OptionSetWriter(os.Stderr),
				progressbar.OptionShowBytes(true),
				progressbar.OptionSetWidth(50),
				progressbar.OptionThrottle(100*time.Millisecond),
				progressbar.OptionSetRenderBlankState(true),
				progressbar.OptionShowElapsedTimeOnFinish(),
				progressbar.OptionSetPredictTime(false),
			)
		}
		meter.Observe(e.BytesMoved)
		_ = bar.Set64(e.BytesMoved)
	}

	if bar != nil {
		_ = bar.Finish()
		fmt.Fprintln(os.Stderr)
	}
	b.stats = meter.Snapshot()
}

// Wait blocks until the event stream has closed and returns the final
// meter snapshot.
func (b *Bar) Wait() progress.Stats {
	<-b.done
	return b.stats
}
