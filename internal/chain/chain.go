package chain

import (
	"context"
	"fmt"
	"sync"
	"time"

	"ClaimChain/internal/auth"
	"ClaimChain/internal/claims"
	"ClaimChain/internal/logger"
	"ClaimChain/internal/metrics"
	"ClaimChain/internal/state"
	"ClaimChain/internal/storage"
	snapshot "ClaimChain/internal/sync"
	"ClaimChain/internal/types"
)

// Chain orders authenticated calls into blocks and applies them to the
// claim registry one at a time. It is the only writer of registry state.
type Chain struct {
	cfg     Config           // cfg holds the chain parameters
	db      *storage.Storage // db holds committed state
	metrics *metrics.Metrics // metrics is optional

	mu         sync.Mutex            // mu protects the fields below
	pending    []*auth.Call          // pending calls in arrival order
	pendingSet map[[32]byte]struct{} // pendingSet holds hashes not yet committed
	height     uint64                // height is the last committed block
	listeners  []func(*Block)        // listeners run after each commit

	produceMu sync.Mutex // produceMu serializes block production
}

// Option configures a Chain.
type Option func(*Chain)

// WithMetrics reports block and call outcomes to m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Chain) {
		c.metrics = m
	}
}

// New creates a chain over db, resuming from the stored height.
func New(db *storage.Storage, cfg Config, opts ...Option) (*Chain, error) {
	c := &Chain{
		cfg:        cfg.withDefaults(),
		db:         db,
		pendingSet: make(map[[32]byte]struct{}),
	}

	for _, opt := range opts {
		opt(c)
	}

	height, err := state.NewJournal(db).Height()
	if err != nil {
		return nil, fmt.Errorf("load height:\n%w", err)
	}

	c.height = height

	if c.metrics != nil {
		c.metrics.Height.Set(float64(height))
	}

	return c, nil
}

// Submit queues an authenticated call for the next block.
func (c *Chain) Submit(call *auth.Call) error {
	switch call.Kind {
	case types.CallKindCreateClaim, types.CallKindRevokeClaim, types.CallKindTransferClaim:
	default:
		return fmt.Errorf("%w: %s", ErrUnknownCall, call.Kind)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// pendingSet is checked before receipts: a hash leaves pendingSet only
	// after its receipt is committed.
	if _, exists := c.pendingSet[call.Hash]; exists {
		return fmt.Errorf("%w: %s already pending", ErrDuplicateTx, call.HashHex()[:16])
	}

	included, err := state.NewJournal(c.db).HasReceipt(call.Hash)
	if err != nil {
		return fmt.Errorf("check receipt:\n%w", err)
	}

	if included {
		return fmt.Errorf("%w: %s already included", ErrDuplicateTx, call.HashHex()[:16])
	}

	if len(c.pending) >= c.cfg.MempoolSize {
		return ErrMempoolFull
	}

	c.pending = append(c.pending, call)
	c.pendingSet[call.Hash] = struct{}{}
	c.setPendingGauge()

	return nil
}

// Run produces blocks every BlockInterval until ctx is cancelled.
func (c *Chain) Run(ctx context.Context) {
	ticker := time.NewTicker(c.cfg.BlockInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := c.ProduceBlock(); err != nil {
				logger.Error("block production failed", "error", err)
			}
		case <-ctx.Done():
			return
		}
	}
}

// ProduceBlock applies pending calls as the next block and commits it.
// Returns nil when there is nothing to apply. On a storage failure the
// calls are put back at the head of the mempool and nothing is committed.
func (c *Chain) ProduceBlock() (*Block, error) {
	c.produceMu.Lock()
	defer c.produceMu.Unlock()

	calls := c.takePending()
	if len(calls) == 0 {
		return nil, nil
	}

	start := time.Now()

	block, err := c.applyBlock(c.Height()+1, calls)
	if err != nil {
		c.requeue(calls)
		return nil, err
	}

	c.finishBlock(block, calls)

	logger.Info("block committed",
		"height", block.Height,
		"calls", len(block.Receipts),
		"events", len(block.Events),
		logger.Timed(start),
	)

	if c.metrics != nil {
		c.metrics.Blocks.Inc()
		c.metrics.Height.Set(float64(block.Height))
		c.metrics.BlockDuration.Observe(time.Since(start).Seconds())
	}

	return block, nil
}

// applyBlock runs calls against a batch and commits it with the journal entries.
func (c *Chain) applyBlock(height uint64, calls []*auth.Call) (*Block, error) {
	batch := c.db.NewBatch()
	defer batch.Close()

	sink := &blockSink{height: height}
	registry := claims.NewRegistry(c.cfg.Registry, state.NewClaimStore(batch), blockClock(height), sink)
	journal := state.NewJournal(batch)

	block := &Block{Height: height}

	for i, call := range calls {
		err := applyCall(registry, call)
		if err != nil && !claims.IsRejection(err) {
			return nil, fmt.Errorf("apply tx %s:\n%w", call.HashHex()[:16], err)
		}

		receipt := state.Receipt{
			TxHash:    call.Hash,
			Height:    height,
			Index:     uint32(i),
			Kind:      call.Kind,
			Sender:    call.Sender,
			Success:   err == nil,
			ErrorCode: claims.Code(err),
		}

		if err := journal.PutReceipt(receipt); err != nil {
			return nil, fmt.Errorf("put receipt:\n%w", err)
		}

		block.Receipts = append(block.Receipts, receipt)

		if err != nil {
			logger.Debug("call rejected",
				"height", height,
				"tx", call.HashHex()[:16],
				"sender", call.Sender.Short(),
				"error", err,
			)
		}
	}

	for i, ev := range sink.events {
		entry := state.EventEntry{Height: height, Index: uint32(i), Event: ev}

		if err := journal.PutEvent(entry); err != nil {
			return nil, fmt.Errorf("put event:\n%w", err)
		}

		block.Events = append(block.Events, entry)
	}

	if err := journal.SetHeight(height); err != nil {
		return nil, fmt.Errorf("set height:\n%w", err)
	}

	if err := batch.Commit(); err != nil {
		return nil, fmt.Errorf("commit block %d:\n%w", height, err)
	}

	return block, nil
}

// applyCall dispatches a call to the registry operation it names.
func applyCall(registry *claims.Registry, call *auth.Call) error {
	switch call.Kind {
	case types.CallKindCreateClaim:
		return registry.CreateClaim(call.Sender, call.Claim)
	case types.CallKindRevokeClaim:
		return registry.RevokeClaim(call.Sender, call.Claim)
	case types.CallKindTransferClaim:
		return registry.TransferClaim(call.Sender, call.Claim, call.Dest)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownCall, call.Kind)
	}
}

// takePending removes up to MaxBlockCalls calls from the head of the mempool.
// Their hashes stay in pendingSet until the block commits.
func (c *Chain) takePending() []*auth.Call {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := min(len(c.pending), c.cfg.MaxBlockCalls)
	calls := c.pending[:n:n]
	c.pending = c.pending[n:]
	c.setPendingGauge()

	return calls
}

// requeue puts calls back at the head of the mempool after a failed block.
func (c *Chain) requeue(calls []*auth.Call) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.pending = append(calls, c.pending...)
	c.setPendingGauge()
}

// finishBlock publishes the new height and notifies listeners.
func (c *Chain) finishBlock(block *Block, calls []*auth.Call) {
	c.mu.Lock()

	c.height = block.Height
	for _, call := range calls {
		delete(c.pendingSet, call.Hash)
	}

	listeners := make([]func(*Block), len(c.listeners))
	copy(listeners, c.listeners)

	c.mu.Unlock()

	for _, fn := range listeners {
		fn(block)
	}

	for _, r := range block.Receipts {
		if c.metrics != nil {
			c.metrics.ObserveCall(r.Kind.String(), r.ErrorCode)
		}
	}
}

// setPendingGauge updates the mempool gauge (caller must hold mu).
func (c *Chain) setPendingGauge() {
	if c.metrics != nil {
		c.metrics.Pending.Set(float64(len(c.pending)))
	}
}

// OnBlock registers fn to run after every committed block.
// fn runs on the producing goroutine and must not block.
func (c *Chain) OnBlock(fn func(*Block)) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.listeners = append(c.listeners, fn)
}

// Height returns the last committed block height.
func (c *Chain) Height() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.height
}

// PendingCount returns the number of calls waiting for a block.
func (c *Chain) PendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.pending)
}

// MaxClaimLength returns the configured fingerprint limit.
func (c *Chain) MaxClaimLength() uint32 {
	return c.cfg.Registry.MaxClaimLength
}

// Claim returns the committed record for content.
// Fails with claims.ErrClaimTooLong or claims.ErrClaimNotExist.
func (c *Chain) Claim(content []byte) (claims.Fingerprint, claims.Record, error) {
	registry := claims.NewRegistry(c.cfg.Registry, state.NewClaimStore(c.db), blockClock(c.Height()), nil)
	return registry.Lookup(content)
}

// ClaimCount returns the number of live claims.
func (c *Chain) ClaimCount() (int, error) {
	return state.NewClaimStore(c.db).Count()
}

// Receipt returns the receipt of an included call, or nil if unknown.
func (c *Chain) Receipt(hash [32]byte) (*state.Receipt, error) {
	return state.NewJournal(c.db).Receipt(hash)
}

// Events returns the events committed at height.
func (c *Chain) Events(height uint64) ([]state.EventEntry, error) {
	return state.NewJournal(c.db).Events(height)
}

// IsPending reports whether a call hash is waiting for a block.
func (c *Chain) IsPending(hash [32]byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, ok := c.pendingSet[hash]
	return ok
}

// Snapshot serializes the committed claims at the current height.
// Block production waits until the claims have been read.
func (c *Chain) Snapshot() ([]byte, error) {
	c.produceMu.Lock()
	defer c.produceMu.Unlock()

	return snapshot.CreateSnapshot(c.db, c.Height())
}
