package main

import (
	"crypto/ed25519"
	"crypto/rand"
	"flag"
	"fmt"
	"math"
	"os"
	"time"
)

// Config holds the node configuration.
type Config struct {
	// DataPath is the directory for persistent storage.
	DataPath string

	// HTTPAddress is the HTTP API listen address.
	HTTPAddress string

	// KeyPath is the path to the Ed25519 private key file.
	KeyPath string

	// PrivateKey is the node's Ed25519 identity key.
	PrivateKey ed25519.PrivateKey

	// MaxClaimLength is the maximum claim size in bytes.
	MaxClaimLength uint64

	// BlockInterval is the time between blocks.
	BlockInterval time.Duration

	// MempoolSize is the maximum number of pending calls.
	MempoolSize int

	// LogLevel is the minimum log level (debug, info, warn, error).
	LogLevel string

	// RestorePath is a zstd snapshot applied to an empty data directory at startup.
	RestorePath string
}

// parseFlags parses command-line flags into Config.
func parseFlags() *Config {
	cfg := &Config{}

	flag.StringVar(&cfg.DataPath, "data", "./data", "Data directory path")
	flag.StringVar(&cfg.HTTPAddress, "http", ":8080", "HTTP API address")
	flag.StringVar(&cfg.KeyPath, "key", "", "Ed25519 private key path (generates new if missing)")
	flag.Uint64Var(&cfg.MaxClaimLength, "max-claim-length", 256, "Maximum claim size in bytes")
	flag.DurationVar(&cfg.BlockInterval, "block-interval", time.Second, "Time between blocks")
	flag.IntVar(&cfg.MempoolSize, "mempool", 4096, "Maximum pending transactions")
	flag.StringVar(&cfg.LogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.StringVar(&cfg.RestorePath, "restore", "", "Snapshot file to restore into an empty data directory")
	flag.Parse()

	return cfg
}

// validate checks flag values that the flag package cannot.
func (c *Config) validate() error {
	if c.MaxClaimLength > math.MaxUint32 {
		return fmt.Errorf("max-claim-length %d exceeds %d", c.MaxClaimLength, uint32(math.MaxUint32))
	}

	if c.BlockInterval <= 0 {
		return fmt.Errorf("block-interval must be positive")
	}

	if c.MempoolSize <= 0 {
		return fmt.Errorf("mempool must be positive")
	}

	return nil
}

// loadOrGenerateKey loads the private key from file or generates a new one.
func loadOrGenerateKey(keyPath string) (ed25519.PrivateKey, error) {
	if keyPath == "" {
		return generateNewKey()
	}

	data, err := os.ReadFile(keyPath)
	if os.IsNotExist(err) {
		return generateAndSaveKey(keyPath)
	}

	if err != nil {
		return nil, fmt.Errorf("read key file:\n%w", err)
	}

	if len(data) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("invalid key size: got %d, want %d", len(data), ed25519.PrivateKeySize)
	}

	return ed25519.PrivateKey(data), nil
}

// generateNewKey creates a new Ed25519 private key.
func generateNewKey() (ed25519.PrivateKey, error) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate key:\n%w", err)
	}

	return priv, nil
}

// generateAndSaveKey creates a new key and saves it to the given path.
func generateAndSaveKey(path string) (ed25519.PrivateKey, error) {
	priv, err := generateNewKey()
	if err != nil {
		return nil, err
	}

	if err := os.WriteFile(path, priv, 0600); err != nil {
		return nil, fmt.Errorf("save key to %s:\n%w", path, err)
	}

	return priv, nil
}
