package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"
)

// DiscoveryMode selects how the peers find each other.
type DiscoveryMode string

const (
	// DiscoveryDirect has the sender listen on a well-known port and the
	// receiver dial a configured address.
	DiscoveryDirect DiscoveryMode = "direct"

	// DiscoveryBroadcast has the sender announce itself on the local
	// subnet and the receiver filter announcements by passcode.
	DiscoveryBroadcast DiscoveryMode = "broadcast"
)

// TransportKind selects the byte-stream backend for the session.
type TransportKind string

const (
	TransportTCP  TransportKind = "tcp"
	TransportQUIC TransportKind = "quic"
)

// Config holds all options for one sender or receiver invocation.
type Config struct {
	ChunkSize int           // bytes per write in the chunk loop
	Discovery DiscoveryMode // direct or broadcast
	Transport TransportKind // tcp or quic

	PeerAddr      string // direct mode, receiver side: sender host[:port]
	TransferPort  int    // sender listen port for the transfer session
	DiscoveryPort int    // broadcast mode: announcement port
	BroadcastAddr string // broadcast destination address

	RetryBudget      int           // bounded discovery attempts
	AnnounceInterval time.Duration // spacing between discovery attempts
	SessionRetries   int           // whole-transfer restarts after transient faults

	HandshakeTimeout time.Duration // rendezvous and passcode round-trip steps
	IOTimeout        time.Duration // per chunk read/write in flight

	OutDir   string // receiver: directory the file is written into
	LogLevel string

	PasscodeLength   int
	PasscodeAlphabet string // empty means digits
}

// Default returns the configuration used when no flag or environment
// variable overrides it. Chunk size matches the protocol default of 64 KiB.
func Default() *Config {
	return &Config{
		ChunkSize:        64 * 1024,
		Discovery:        DiscoveryBroadcast,
		Transport:        TransportTCP,
		TransferPort:     42425,
		DiscoveryPort:    42424,
		BroadcastAddr:    "255.255.255.255",
		RetryBudget:      30,
		AnnounceInterval: time.Second,
		SessionRetries:   3,
		HandshakeTimeout: 10 * time.Second,
		IOTimeout:        5 * time.Minute,
		OutDir:           ".",
		LogLevel:         "info",
		PasscodeLength:   6,
	}
}

// Parse parses client configuration from flags and environment
// variables. Flags take precedence over environment. It returns the
// config and the remaining positional arguments.
func Parse(name string, args []string) (*Config, []string, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	return parseWithFlagSet(fs, args)
}

// parseWithFlagSet is an internal helper for testing with isolated flag sets.
func parseWithFlagSet(fs *flag.FlagSet, args []string) (*Config, []string, error) {
	cfg := Default()

	// Read from environment first
	if v := os.Getenv("SLKRD_DISCOVERY"); v != "" {
		cfg.Discovery = DiscoveryMode(v)
	}
	if v := os.Getenv("SLKRD_TRANSPORT"); v != "" {
		cfg.Transport = TransportKind(v)
	}
	if v := os.Getenv("SLKRD_PEER_ADDR"); v != "" {
		cfg.PeerAddr = v
	}
	if v := os.Getenv("SLKRD_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("SLKRD_OUT"); v != "" {
		cfg.OutDir = v
	}
	if v := os.Getenv("SLKRD_CHUNK_SIZE"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.ChunkSize = parsed
		}
	}

	// Flags override environment
	var discovery, transport string
	fs.StringVar(&discovery, "discovery", string(cfg.Discovery), "discovery mode (direct, broadcast)")
	fs.StringVar(&transport, "transport", string(cfg.Transport), "transport backend (tcp, quic)")
	fs.StringVar(&cfg.PeerAddr, "addr", cfg.PeerAddr, "sender address for direct mode (receiver side)")
	fs.IntVar(&cfg.TransferPort, "port", cfg.TransferPort, "transfer listen port (sender side)")
	fs.IntVar(&cfg.DiscoveryPort, "discovery-port", cfg.DiscoveryPort, "discovery announcement port")
	fs.StringVar(&cfg.BroadcastAddr, "broadcast-addr", cfg.BroadcastAddr, "discovery broadcast address")
	fs.IntVar(&cfg.ChunkSize, "chunk-size", cfg.ChunkSize, "bytes per write in the chunk loop")
	fs.IntVar(&cfg.RetryBudget, "retry-budget", cfg.RetryBudget, "bounded discovery attempt count")
	fs.DurationVar(&cfg.AnnounceInterval, "announce-interval", cfg.AnnounceInterval, "spacing between discovery attempts")
	fs.IntVar(&cfg.SessionRetries, "session-retries", cfg.SessionRetries, "whole-transfer restarts after transient faults")
	fs.DurationVar(&cfg.HandshakeTimeout, "handshake-timeout", cfg.HandshakeTimeout, "rendezvous step timeout")
	fs.DurationVar(&cfg.IOTimeout, "io-timeout", cfg.IOTimeout, "in-flight chunk I/O timeout")
	fs.StringVar(&cfg.OutDir, "out", cfg.OutDir, "directory to save the received file into")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (debug, info, warn, error)")

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	cfg.Discovery = DiscoveryMode(discovery)
	cfg.Transport = TransportKind(transport)

	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	return cfg, fs.Args(), nil
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if c.ChunkSize <= 0 {
		return fmt.Errorf("config: chunk size must be positive, got %d", c.ChunkSize)
	}
	switch c.Discovery {
	case DiscoveryDirect, DiscoveryBroadcast:
	default:
		return fmt.Errorf("config: unknown discovery mode %q", c.Discovery)
	}
	switch c.Transport {
	case TransportTCP, TransportQUIC:
	default:
		return fmt.Errorf("config: unknown transport %q", c.Transport)
	}
	if c.TransferPort < 0 || c.TransferPort > 65535 {
		return fmt.Errorf("config: invalid transfer port %d", c.TransferPort)
	}
	if c.DiscoveryPort <= 0 || c.DiscoveryPort > 65535 {
		return fmt.Errorf("config: invalid discovery port %d", c.DiscoveryPort)
	}
	if c.RetryBudget <= 0 {
		return fmt.Errorf("config: retry budget must be positive, got %d", c.RetryBudget)
	}
	if c.SessionRetries < 0 {
		return fmt.Errorf("config: session retries must not be negative, got %d", c.SessionRetries)
	}
	if c.AnnounceInterval <= 0 {
		return fmt.Errorf("config: announce interval must be positive, got %v", c.AnnounceInterval)
	}
	if c.HandshakeTimeout <= 0 || c.IOTimeout <= 0 {
		return fmt.Errorf("config: timeouts must be positive")
	}
	if c.PasscodeLength <= 0 {
		return fmt.Errorf("config: passcode length must be positive, got %d", c.PasscodeLength)
	}
	return nil
}
