package state

import (
	"fmt"
	"math"

	flatbuffers "github.com/google/flatbuffers/go"
	"github.com/zeebo/blake3"

	"ClaimChain/internal/claims"
	"ClaimChain/internal/storage"
	"ClaimChain/internal/types"
)

const (
	// keyHashSize is the length of the hashed key segment.
	keyHashSize = 16
)

// claimKeyPrefix is the Pebble key prefix for claim records.
var claimKeyPrefix = []byte("p:")

// ClaimEntry is a fingerprint with its record, for export.
type ClaimEntry struct {
	Fingerprint claims.Fingerprint // Fingerprint is the claim key
	Record      claims.Record      // Record is the owner and timestamp
}

// ClaimStore stores fingerprint -> record mappings in Pebble.
// It implements claims.Store over a Storage or a pending Batch.
type ClaimStore struct {
	db storage.ReadWriter // db is the storage or batch written to
}

// NewClaimStore creates a claim store backed by db.
func NewClaimStore(db storage.ReadWriter) *ClaimStore {
	return &ClaimStore{db: db}
}

// Contains reports whether fp has a live record.
func (s *ClaimStore) Contains(fp claims.Fingerprint) (bool, error) {
	value, err := s.db.Get(makeClaimKey(fp))
	if err != nil {
		return false, err
	}

	return value != nil, nil
}

// Get returns the record for fp.
func (s *ClaimStore) Get(fp claims.Fingerprint) (claims.Record, bool, error) {
	value, err := s.db.Get(makeClaimKey(fp))
	if err != nil || value == nil {
		return claims.Record{}, false, err
	}

	rec, err := decodeRecord(value)
	if err != nil {
		return claims.Record{}, false, fmt.Errorf("decode record %s:\n%w", fp, err)
	}

	return rec, true, nil
}

// Insert stores rec under fp.
func (s *ClaimStore) Insert(fp claims.Fingerprint, rec claims.Record) error {
	return s.db.Set(makeClaimKey(fp), encodeRecord(rec))
}

// Remove deletes the record for fp.
func (s *ClaimStore) Remove(fp claims.Fingerprint) error {
	return s.db.Delete(makeClaimKey(fp))
}

// Export returns all live claims in key order.
func (s *ClaimStore) Export() ([]ClaimEntry, error) {
	var entries []ClaimEntry

	err := s.db.IteratePrefix(claimKeyPrefix, func(key, value []byte) error {
		fp, err := parseClaimKey(key)
		if err != nil {
			return err
		}

		rec, err := decodeRecord(value)
		if err != nil {
			return fmt.Errorf("decode record %s:\n%w", fp, err)
		}

		entries = append(entries, ClaimEntry{Fingerprint: fp, Record: rec})

		return nil
	})

	return entries, err
}

// Count returns the number of live claims.
func (s *ClaimStore) Count() (int, error) {
	count := 0

	err := s.db.IteratePrefix(claimKeyPrefix, func(_, _ []byte) error {
		count++
		return nil
	})

	return count, err
}

// makeClaimKey builds the key for a fingerprint:
// "p:" + blake3(fp)[:16] + fp bytes.
// The hash spreads keys evenly; the raw bytes keep the fingerprint recoverable.
func makeClaimKey(fp claims.Fingerprint) []byte {
	raw := fp.Bytes()
	sum := blake3.Sum256(raw)

	key := make([]byte, 0, len(claimKeyPrefix)+keyHashSize+len(raw))
	key = append(key, claimKeyPrefix...)
	key = append(key, sum[:keyHashSize]...)
	key = append(key, raw...)

	return key
}

// parseClaimKey recovers the fingerprint from a claim key.
func parseClaimKey(key []byte) (claims.Fingerprint, error) {
	headerLen := len(claimKeyPrefix) + keyHashSize
	if len(key) < headerLen {
		return claims.Fingerprint{}, fmt.Errorf("claim key too short: %d", len(key))
	}

	return claims.NewFingerprint(key[headerLen:], math.MaxUint32)
}

// encodeRecord serializes a record as a ClaimRecord table.
func encodeRecord(rec claims.Record) []byte {
	builder := flatbuffers.NewBuilder(64)

	ownerVec := builder.CreateByteVector(rec.Owner[:])

	types.ClaimRecordStart(builder)
	types.ClaimRecordAddOwner(builder, ownerVec)
	types.ClaimRecordAddTimestamp(builder, rec.Timestamp)
	builder.Finish(types.ClaimRecordEnd(builder))

	return builder.FinishedBytes()
}

// decodeRecord parses a ClaimRecord table.
func decodeRecord(data []byte) (rec claims.Record, retErr error) {
	// FlatBuffers panics on malformed data
	defer func() {
		if r := recover(); r != nil {
			retErr = fmt.Errorf("malformed claim record")
		}
	}()

	if len(data) < 8 {
		return claims.Record{}, fmt.Errorf("claim record too short: %d", len(data))
	}

	tbl := types.GetRootAsClaimRecord(data, 0)

	owner := tbl.OwnerBytes()
	if len(owner) != len(rec.Owner) {
		return claims.Record{}, fmt.Errorf("invalid owner size: %d", len(owner))
	}

	copy(rec.Owner[:], owner)
	rec.Timestamp = tbl.Timestamp()

	return rec, nil
}
