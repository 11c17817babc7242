package main

import (
	"fmt"
	"os"

	"github.com/slkrd/slkrd/internal/cli/receiver"
	"github.com/slkrd/slkrd/internal/cli/sender"
)

const version = "v0.1.0"

func main() {
	args := os.Args[1:]
	if len(args) == 0 {
		printUsage()
		os.Exit(2)
	}
	if hasVersionFlag(args) {
		fmt.Printf("slkrd %s\n", version)
		return
	}

	switch args[0] {
	case "send":
		sender.Run(args[1:])
	case "receive":
		receiver.Run(args[1:])
	default:
		if hasHelpFlag(args) {
			printUsage()
			return
		}
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", args[0])
		printUsage()
		os.Exit(2)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "usage: slkrd <command> [args]")
	fmt.Fprintln(os.Stderr, "commands:")
	fmt.Fprintln(os.Stderr, "  send     offer a single file and print a passcode")
	fmt.Fprintln(os.Stderr, "  receive  fetch the file offered under a passcode")
	fmt.Fprintln(os.Stderr, "quick examples:")
	fmt.Fprintln(os.Stderr, "  slkrd send ./report.pdf")
	fmt.Fprintln(os.Stderr, "  slkrd receive -out ./downloads 482913")
	fmt.Fprintln(os.Stderr, "to learn detailed usage:")
	fmt.Fprintln(os.Stderr, "  slkrd send --help")
	fmt.Fprintln(os.Stderr, "  slkrd receive --help")
}

func hasHelpFlag(args []string) bool {
	for _, arg := range args {
		if arg == "--help" || arg == "-h" {
			return true
		}
	}
	return false
}

func hasVersionFlag(args []string) bool {
	for _, arg := range args {
		if arg == "--version" || arg == "-v" {
			return true
		}
	}
	return false
}
