// Package receiver implements the "slkrd receive" command.
package receiver

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/slkrd/slkrd/internal/app"
	"github.com/slkrd/slkrd/internal/config"
	"github.com/slkrd/slkrd/internal/display"
	"github.com/slkrd/slkrd/internal/logging"
	"github.com/slkrd/slkrd/internal/progress"
)

const displayRounding = 10 * time.Millisecond

func Run(args []string) {
	cfg, rest, err := config.Parse("slkrd receive", args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			printUsage()
			return
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if len(rest) != 1 {
		printUsage()
		os.Exit(2)
	}

	log := logging.New("slkrd-receiver", cfg.LogLevel)
	sink := progress.NewChanSink(64)

	r, err := app.NewReceiver(cfg, log, sink, rest[0])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Println("Searching for sender...")
	bar := display.Watch("receiving", sink.Events())
	out, err := r.Run(ctx)
	sink.Close()
	bar.Wait()

	if err != nil {
		log.Error("receive failed", "error", err)
		os.Exit(1)
	}
	fmt.Printf("Saved %s (%d bytes in %s)\n", out.Dest, out.BytesMoved, out.Duration.Round(displayRounding))
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "usage: slkrd receive [flags] <passcode>")
	fmt.Fprintln(os.Stderr, "fetches the file offered under the passcode into -out (default .)")
	fmt.Fprintln(os.Stderr, "run 'slkrd receive -h' for the full flag list")
}
