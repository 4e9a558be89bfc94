package main

import (
	"crypto/ed25519"
	"encoding/hex"
	"fmt"
	"os"

	"ClaimChain/internal/logger"
)

func main() {
	cfg := parseFlags()

	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(2)
	}

	logger.Init(level)

	if err := run(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// run is the main entry point with error handling.
func run(cfg *Config) error {
	var err error
	cfg.PrivateKey, err = loadOrGenerateKey(cfg.KeyPath)
	if err != nil {
		return fmt.Errorf("load key:\n%w", err)
	}

	node, err := NewNode(cfg)
	if err != nil {
		return fmt.Errorf("create node:\n%w", err)
	}

	printStartupInfo(cfg, node)

	return node.Run()
}

// printStartupInfo displays node configuration at startup.
func printStartupInfo(cfg *Config, node *Node) {
	pubKey := cfg.PrivateKey.Public().(ed25519.PublicKey)

	logger.Info("starting ClaimChain node",
		"pubkey", hex.EncodeToString(pubKey),
		"http", cfg.HTTPAddress,
		"data", cfg.DataPath,
		"height", node.chain.Height(),
	)

	logger.Info("registry configuration",
		"max_claim_length", cfg.MaxClaimLength,
		"block_interval", cfg.BlockInterval,
		"mempool", cfg.MempoolSize,
	)
}
