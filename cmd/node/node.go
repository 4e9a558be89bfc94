package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"ClaimChain/internal/api"
	"ClaimChain/internal/chain"
	"ClaimChain/internal/claims"
	"ClaimChain/internal/logger"
	"ClaimChain/internal/metrics"
	"ClaimChain/internal/state"
	"ClaimChain/internal/storage"
	"ClaimChain/internal/sync"
)

// Node represents a running ClaimChain node.
type Node struct {
	cfg     *Config
	storage *storage.Storage
	metrics *metrics.Metrics
	chain   *chain.Chain
	api     *api.Server
}

// NewNode creates and initializes a new node.
func NewNode(cfg *Config) (*Node, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	n := &Node{cfg: cfg, metrics: metrics.New()}

	if err := n.initStorage(); err != nil {
		return nil, err
	}

	if cfg.RestorePath != "" {
		if err := n.restoreSnapshot(); err != nil {
			n.Close()
			return nil, err
		}
	}

	if err := n.initChain(); err != nil {
		n.Close()
		return nil, err
	}

	n.api = api.New(cfg.HTTPAddress, n.chain, n.metrics)

	return n, nil
}

// initStorage initializes the Pebble storage.
func (n *Node) initStorage() error {
	dbPath := n.cfg.DataPath + "/db"

	if err := os.MkdirAll(n.cfg.DataPath, 0755); err != nil {
		return fmt.Errorf("create data directory:\n%w", err)
	}

	db, err := storage.New(dbPath)
	if err != nil {
		return fmt.Errorf("init storage:\n%w", err)
	}

	n.storage = db

	return nil
}

// restoreSnapshot seeds an empty store from the snapshot file.
func (n *Node) restoreSnapshot() error {
	height, err := state.NewJournal(n.storage).Height()
	if err != nil {
		return fmt.Errorf("read height:\n%w", err)
	}

	count, err := state.NewClaimStore(n.storage).Count()
	if err != nil {
		return fmt.Errorf("count claims:\n%w", err)
	}

	if height != 0 || count != 0 {
		return fmt.Errorf("restore needs an empty data directory, found height %d with %d claims", height, count)
	}

	compressed, err := os.ReadFile(n.cfg.RestorePath)
	if err != nil {
		return fmt.Errorf("read snapshot:\n%w", err)
	}

	data, err := sync.DecompressSnapshot(compressed)
	if err != nil {
		return fmt.Errorf("decompress snapshot:\n%w", err)
	}

	info, err := sync.ApplySnapshot(n.storage, data, uint32(n.cfg.MaxClaimLength))
	if err != nil {
		return fmt.Errorf("apply snapshot:\n%w", err)
	}

	logger.Info("snapshot restored",
		"height", info.Height,
		"claims", info.Claims,
		"checksum", hex.EncodeToString(info.Checksum[:8]),
	)

	return nil
}

// initChain creates the block producer over the store.
func (n *Node) initChain() error {
	c, err := chain.New(n.storage, chain.Config{
		Registry:      claims.Config{MaxClaimLength: uint32(n.cfg.MaxClaimLength)},
		BlockInterval: n.cfg.BlockInterval,
		MempoolSize:   n.cfg.MempoolSize,
	}, chain.WithMetrics(n.metrics))
	if err != nil {
		return fmt.Errorf("init chain:\n%w", err)
	}

	c.OnBlock(logBlock)
	n.chain = c

	return nil
}

// Run starts the node and blocks until shutdown signal.
func (n *Node) Run() error {
	if err := n.api.Start(); err != nil {
		return fmt.Errorf("start api:\n%w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		n.chain.Run(ctx)
		close(done)
	}()

	n.waitForShutdown()

	// stop accepting calls before the producer exits
	n.api.Stop()
	cancel()
	<-done

	return n.Close()
}

// logBlock logs the outcome of every call in a committed block.
func logBlock(b *chain.Block) {
	for _, r := range b.Receipts {
		hash := hex.EncodeToString(r.TxHash[:8])

		if r.Success {
			logger.Info("committed tx", "hash", hash, "kind", r.Kind, "sender", r.Sender.Short())
		} else {
			logger.Warn("rejected tx", "hash", hash, "kind", r.Kind, "code", r.ErrorCode)
		}
	}
}

// waitForShutdown blocks until SIGINT or SIGTERM is received.
func (n *Node) waitForShutdown() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", "signal", sig.String())
}

// Close shuts down all node components gracefully.
func (n *Node) Close() error {
	if n.api != nil {
		n.api.Stop()
	}

	if n.storage != nil {
		return n.storage.Close()
	}

	return nil
}
