package config

import (
	"flag"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	cfg, rest, err := parseWithFlagSet(fs, nil)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(rest) != 0 {
		t.Errorf("positional args = %v, want none", rest)
	}
	if cfg.ChunkSize != 64*1024 {
		t.Errorf("ChunkSize = %d, want %d", cfg.ChunkSize, 64*1024)
	}
	if cfg.Discovery != DiscoveryBroadcast {
		t.Errorf("Discovery = %q, want %q", cfg.Discovery, DiscoveryBroadcast)
	}
	if cfg.Transport != TransportTCP {
		t.Errorf("Transport = %q, want %q", cfg.Transport, TransportTCP)
	}
	if cfg.SessionRetries != 3 {
		t.Errorf("SessionRetries = %d, want 3", cfg.SessionRetries)
	}
	if cfg.AnnounceInterval != time.Second {
		t.Errorf("AnnounceInterval = %v, want 1s", cfg.AnnounceInterval)
	}
}

func TestFlagsOverrideDefaults(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	cfg, rest, err := parseWithFlagSet(fs, []string{
		"--discovery", "direct",
		"--transport", "quic",
		"--addr", "192.168.1.20:5000",
		"--chunk-size", "32768",
		"--retry-budget", "5",
		"--io-timeout", "90s",
		"/tmp/file.bin",
	})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.Discovery != DiscoveryDirect {
		t.Errorf("Discovery = %q, want direct", cfg.Discovery)
	}
	if cfg.Transport != TransportQUIC {
		t.Errorf("Transport = %q, want quic", cfg.Transport)
	}
	if cfg.PeerAddr != "192.168.1.20:5000" {
		t.Errorf("PeerAddr = %q", cfg.PeerAddr)
	}
	if cfg.ChunkSize != 32768 {
		t.Errorf("ChunkSize = %d, want 32768", cfg.ChunkSize)
	}
	if cfg.RetryBudget != 5 {
		t.Errorf("RetryBudget = %d, want 5", cfg.RetryBudget)
	}
	if cfg.IOTimeout != 90*time.Second {
		t.Errorf("IOTimeout = %v, want 90s", cfg.IOTimeout)
	}
	if len(rest) != 1 || rest[0] != "/tmp/file.bin" {
		t.Errorf("positional args = %v, want [/tmp/file.bin]", rest)
	}
}

func TestEnvironmentFallback(t *testing.T) {
	t.Setenv("SLKRD_DISCOVERY", "direct")
	t.Setenv("SLKRD_PEER_ADDR", "10.0.0.7")
	t.Setenv("SLKRD_CHUNK_SIZE", "1024")

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	cfg, _, err := parseWithFlagSet(fs, nil)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.Discovery != DiscoveryDirect {
		t.Errorf("Discovery = %q, want direct (from env)", cfg.Discovery)
	}
	if cfg.PeerAddr != "10.0.0.7" {
		t.Errorf("PeerAddr = %q, want 10.0.0.7 (from env)", cfg.PeerAddr)
	}
	if cfg.ChunkSize != 1024 {
		t.Errorf("ChunkSize = %d, want 1024 (from env)", cfg.ChunkSize)
	}
}

func TestFlagsWinOverEnvironment(t *testing.T) {
	t.Setenv("SLKRD_DISCOVERY", "broadcast")

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	cfg, _, err := parseWithFlagSet(fs, []string{"--discovery", "direct"})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.Discovery != DiscoveryDirect {
		t.Errorf("Discovery = %q, want direct (flag over env)", cfg.Discovery)
	}
}

func TestValidateRejects(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero chunk size", func(c *Config) { c.ChunkSize = 0 }},
		{"negative chunk size", func(c *Config) { c.ChunkSize = -1 }},
		{"bad discovery mode", func(c *Config) { c.Discovery = "multicast" }},
		{"bad transport", func(c *Config) { c.Transport = "sctp" }},
		{"bad transfer port", func(c *Config) { c.TransferPort = 70000 }},
		{"bad discovery port", func(c *Config) { c.DiscoveryPort = 0 }},
		{"zero retry budget", func(c *Config) { c.RetryBudget = 0 }},
		{"negative session retries", func(c *Config) { c.SessionRetries = -1 }},
		{"zero announce interval", func(c *Config) { c.AnnounceInterval = 0 }},
		{"zero handshake timeout", func(c *Config) { c.HandshakeTimeout = 0 }},
		{"zero passcode length", func(c *Config) { c.PasscodeLength = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() = nil, want error")
			}
		})
	}
}
