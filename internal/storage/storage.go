package storage

import (
	"errors"
	"sync"
	"time"

	"github.com/cockroachdb/pebble"
)

const (
	// defaultSyncInterval is the default interval between WAL syncs.
	defaultSyncInterval = 100 * time.Millisecond
)

// Reader reads keys from the store or from a pending batch.
type Reader interface {
	// Get returns the value for key, or nil if it does not exist.
	Get(key []byte) ([]byte, error)
	// IteratePrefix visits every key with the given prefix in lexicographic order.
	IteratePrefix(prefix []byte, fn func(key, value []byte) error) error
}

// ReadWriter is a Reader that can also mutate keys.
type ReadWriter interface {
	Reader
	Set(key, value []byte) error
	Delete(key []byte) error
}

// KeyValue represents a key-value pair for batch operations.
type KeyValue struct {
	Key   []byte // Key is the key to store
	Value []byte // Value is the value to store
}

// Storage provides a key-value store backed by Pebble.
// Single writes are non-blocking (NoSync) and a background goroutine
// periodically syncs the WAL to disk. Batches commit with a sync.
type Storage struct {
	db       *pebble.DB    // db is the underlying Pebble database
	stopSync chan struct{} // stopSync signals the sync goroutine to stop
	wg       sync.WaitGroup
}

// New creates a new Storage instance at the given path.
// It starts a background goroutine that syncs the WAL periodically.
func New(path string) (*Storage, error) {
	opts := &pebble.Options{
		Cache:                       pebble.NewCache(32 << 20), // 32 MB cache
		MemTableSize:                16 << 20,                  // 16 MB memtable
		MemTableStopWritesThreshold: 2,
	}

	db, err := pebble.Open(path, opts)
	if err != nil {
		return nil, err
	}

	s := &Storage{
		db:       db,
		stopSync: make(chan struct{}),
	}

	s.startSyncLoop()

	return s, nil
}

// Get retrieves the value for the given key.
// Returns nil if the key does not exist.
func (s *Storage) Get(key []byte) ([]byte, error) {
	return copyValue(s.db.Get(key))
}

// Has reports whether key exists.
func (s *Storage) Has(key []byte) (bool, error) {
	value, err := s.Get(key)
	return value != nil, err
}

// Set stores a key-value pair.
func (s *Storage) Set(key, value []byte) error {
	return s.db.Set(key, value, pebble.NoSync)
}

// Delete removes a key from the store.
func (s *Storage) Delete(key []byte) error {
	return s.db.Delete(key, pebble.NoSync)
}

// SetBatch atomically stores multiple key-value pairs.
func (s *Storage) SetBatch(pairs []KeyValue) error {
	batch := s.NewBatch()
	defer batch.Close()

	for _, kv := range pairs {
		if err := batch.Set(kv.Key, kv.Value); err != nil {
			return err
		}
	}

	return batch.Commit()
}

// IteratePrefix calls fn for each key-value pair with the given prefix.
// Keys and values are only valid during the callback.
func (s *Storage) IteratePrefix(prefix []byte, fn func(key, value []byte) error) error {
	iter, err := s.db.NewIter(prefixOptions(prefix))
	if err != nil {
		return err
	}

	return walk(iter, fn)
}

// NewBatch starts an indexed batch. Reads through the batch see its own
// pending writes on top of the committed state. Nothing is visible to
// other readers until Commit.
func (s *Storage) NewBatch() *Batch {
	return &Batch{b: s.db.NewIndexedBatch()}
}

// Close stops the sync goroutine and closes the database.
// It performs a final sync before closing to ensure durability.
func (s *Storage) Close() error {
	close(s.stopSync)
	s.wg.Wait()

	if err := s.sync(); err != nil {
		return err
	}

	return s.db.Close()
}

// startSyncLoop starts the background goroutine that periodically syncs the WAL.
func (s *Storage) startSyncLoop() {
	s.wg.Add(1)

	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(defaultSyncInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				_ = s.sync()
			case <-s.stopSync:
				return
			}
		}
	}()
}

// sync forces a WAL sync to disk.
func (s *Storage) sync() error {
	return s.db.LogData(nil, pebble.Sync)
}

// Batch is a set of writes applied atomically on Commit.
type Batch struct {
	b *pebble.Batch // b is the underlying indexed batch
}

// Get reads key, seeing writes staged in this batch.
func (b *Batch) Get(key []byte) ([]byte, error) {
	return copyValue(b.b.Get(key))
}

// Set stages a write.
func (b *Batch) Set(key, value []byte) error {
	return b.b.Set(key, value, nil)
}

// Delete stages a deletion.
func (b *Batch) Delete(key []byte) error {
	return b.b.Delete(key, nil)
}

// IteratePrefix visits keys with the given prefix, including staged writes.
func (b *Batch) IteratePrefix(prefix []byte, fn func(key, value []byte) error) error {
	iter, err := b.b.NewIter(prefixOptions(prefix))
	if err != nil {
		return err
	}

	return walk(iter, fn)
}

// Len returns the number of staged operations.
func (b *Batch) Len() int {
	return int(b.b.Count())
}

// Commit applies all staged writes atomically and syncs the WAL.
func (b *Batch) Commit() error {
	return b.b.Commit(pebble.Sync)
}

// Close releases the batch. Uncommitted writes are discarded.
func (b *Batch) Close() error {
	return b.b.Close()
}

// copyValue copies a Pebble value so it outlives the closer.
// Maps ErrNotFound to a nil value.
func copyValue(value []byte, closer interface{ Close() error }, err error) ([]byte, error) {
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer closer.Close()

	result := make([]byte, len(value))
	copy(result, value)

	return result, nil
}

// walk drives iter from the first key and closes it.
func walk(iter *pebble.Iterator, fn func(key, value []byte) error) error {
	defer iter.Close()

	for iter.First(); iter.Valid(); iter.Next() {
		value, err := iter.ValueAndErr()
		if err != nil {
			return err
		}

		if err := fn(iter.Key(), value); err != nil {
			return err
		}
	}

	return iter.Error()
}

// prefixOptions bounds an iterator to keys starting with prefix.
func prefixOptions(prefix []byte) *pebble.IterOptions {
	return &pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: prefixUpperBound(prefix),
	}
}

// prefixUpperBound computes the exclusive upper bound for a prefix scan.
// Increments the last byte; returns nil if prefix is all 0xFF (full range).
func prefixUpperBound(prefix []byte) []byte {
	upper := make([]byte, len(prefix))
	copy(upper, prefix)

	for i := len(upper) - 1; i >= 0; i-- {
		upper[i]++
		if upper[i] != 0 {
			return upper
		}
		upper = upper[:i]
	}

	return nil
}
