package chain

import (
	"errors"
	"time"

	"ClaimChain/internal/claims"
	"ClaimChain/internal/state"
)

const (
	// defaultBlockInterval is the default time between blocks.
	defaultBlockInterval = time.Second

	// defaultMempoolSize is the default maximum number of pending calls.
	defaultMempoolSize = 4096

	// defaultMaxBlockCalls is the default maximum number of calls per block.
	defaultMaxBlockCalls = 1024
)

var (
	// ErrDuplicateTx is returned when a call is already pending or included.
	ErrDuplicateTx = errors.New("duplicate transaction")

	// ErrMempoolFull is returned when the mempool cannot take more calls.
	ErrMempoolFull = errors.New("mempool full")

	// ErrUnknownCall is returned for calls that name no registry operation.
	ErrUnknownCall = errors.New("unknown call kind")
)

// Config holds the chain parameters.
type Config struct {
	// Registry holds the claim registry constants.
	Registry claims.Config

	// BlockInterval is the time between block production attempts.
	BlockInterval time.Duration

	// MempoolSize is the maximum number of pending calls.
	MempoolSize int

	// MaxBlockCalls is the maximum number of calls applied per block.
	MaxBlockCalls int
}

// withDefaults fills zero fields with defaults.
func (c Config) withDefaults() Config {
	if c.BlockInterval <= 0 {
		c.BlockInterval = defaultBlockInterval
	}

	if c.MempoolSize <= 0 {
		c.MempoolSize = defaultMempoolSize
	}

	if c.MaxBlockCalls <= 0 {
		c.MaxBlockCalls = defaultMaxBlockCalls
	}

	return c
}

// Block summarizes a committed block.
type Block struct {
	Height   uint64             // Height is the block number and the logical time of its calls
	Receipts []state.Receipt    // Receipts holds one outcome per call, in order
	Events   []state.EventEntry // Events holds the events of successful calls, in order
}

// blockClock is the logical time seen by every call of one block.
type blockClock uint64

// Now returns the block height.
func (c blockClock) Now() uint64 {
	return uint64(c)
}
