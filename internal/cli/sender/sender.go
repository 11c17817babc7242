// Package sender implements the "slkrd send" command.
package sender

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
	cfg, rest, err := config.Parse("slkrd send", args)
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

	log := logging.New("slkrd-sender", cfg.LogLevel)
	sink := progress.NewChanSink(64)

	s, err := app.NewSender(cfg, log, sink, rest[0])
	if err != nil {
		log.Error("cannot offer file", "error", err)
		os.Exit(1)
	}

	fmt.Printf("Passcode: %s\n", s.Passcode())
	if cfg.Discovery == config.DiscoveryDirect {
		fmt.Printf("Listening on %s\n", s.Addr())
		fmt.Printf("On the other machine: slkrd receive -discovery direct -addr <this-host> %s\n", s.Passcode())
	} else {
		fmt.Printf("On the other machine: slkrd receive %s\n", s.Passcode())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bar := display.Watch("sending", sink.Events())
	out, err := s.Run(ctx)
	sink.Close()
	bar.Wait()

	if err != nil {
		log.Error("send failed", "error", err)
		os.Exit(1)
	}
	fmt.Printf("Sent %s (%d bytes in %s)\n", out.Filename, out.BytesMoved, out.Duration.Round(displayRounding))
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "usage: slkrd send [flags] <file>")
	fmt.Fprintln(os.Stderr, "offers a single file and prints the passcode a receiver needs")
	fmt.Fprintln(os.Stderr, "run 'slkrd send -h' for the full flag list")
}
