package sync

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"sort"

	flatbuffers "github.com/google/flatbuffers/go"
	"github.com/klauspost/compress/zstd"
	"github.com/zeebo/blake3"

	"ClaimChain/internal/claims"
	"ClaimChain/internal/state"
	"ClaimChain/internal/storage"
	"ClaimChain/internal/types"
)

const (
	// snapshotVersion is the current snapshot format version.
	snapshotVersion = 1

	// checksumSize is the size of the blake3 checksum.
	checksumSize = 32
)

// Info describes an applied snapshot.
type Info struct {
	Version  uint32   // Version is the snapshot format version
	Height   uint64   // Height is the block height the snapshot was taken at
	Claims   int      // Claims is the number of claims restored
	Checksum [32]byte // Checksum is the verified content checksum
}

// CreateSnapshot serializes every live claim at the given height.
// Claims are ordered by fingerprint so equal states give equal bytes.
func CreateSnapshot(db storage.ReadWriter, height uint64) ([]byte, error) {
	entries, err := state.NewClaimStore(db).Export()
	if err != nil {
		return nil, fmt.Errorf("collect claims:\n%w", err)
	}

	return buildSnapshot(height, entries), nil
}

// buildSnapshot creates the FlatBuffers snapshot with checksum.
func buildSnapshot(height uint64, entries []state.ClaimEntry) []byte {
	sortEntries(entries)

	checksum := computeChecksum(snapshotVersion, height, entries)

	builder := flatbuffers.NewBuilder(1024)

	claimOffsets := make([]flatbuffers.UOffsetT, len(entries))
	for i, e := range entries {
		fpOffset := builder.CreateByteVector(e.Fingerprint.Bytes())
		ownerOffset := builder.CreateByteVector(e.Record.Owner[:])

		types.SnapshotClaimStart(builder)
		types.SnapshotClaimAddFingerprint(builder, fpOffset)
		types.SnapshotClaimAddOwner(builder, ownerOffset)
		types.SnapshotClaimAddTimestamp(builder, e.Record.Timestamp)
		claimOffsets[i] = types.SnapshotClaimEnd(builder)
	}

	types.SnapshotStartClaimsVector(builder, len(claimOffsets))
	for i := len(claimOffsets) - 1; i >= 0; i-- {
		builder.PrependUOffsetT(claimOffsets[i])
	}
	claimsVector := builder.EndVector(len(claimOffsets))

	checksumOffset := builder.CreateByteVector(checksum[:])

	types.SnapshotStart(builder)
	types.SnapshotAddVersion(builder, snapshotVersion)
	types.SnapshotAddHeight(builder, height)
	types.SnapshotAddClaims(builder, claimsVector)
	types.SnapshotAddChecksum(builder, checksumOffset)
	builder.Finish(types.SnapshotEnd(builder))

	return builder.FinishedBytes()
}

// sortEntries sorts claims by fingerprint bytes.
func sortEntries(entries []state.ClaimEntry) {
	sort.Slice(entries, func(i, j int) bool {
		return bytes.Compare(entries[i].Fingerprint.Bytes(), entries[j].Fingerprint.Bytes()) < 0
	})
}

// computeChecksum computes a blake3 checksum over canonical snapshot data.
// Format: version (4 bytes) + height (8 bytes) + for each claim:
// fingerprint length (4 bytes) + fingerprint + owner (32 bytes) + timestamp (8 bytes).
func computeChecksum(version uint32, height uint64, entries []state.ClaimEntry) [32]byte {
	hasher := blake3.New()

	var buf [8]byte
	binary.BigEndian.PutUint32(buf[:4], version)
	hasher.Write(buf[:4])

	binary.BigEndian.PutUint64(buf[:], height)
	hasher.Write(buf[:])

	for _, e := range entries {
		fp := e.Fingerprint.Bytes()

		binary.BigEndian.PutUint32(buf[:4], uint32(len(fp)))
		hasher.Write(buf[:4])
		hasher.Write(fp)
		hasher.Write(e.Record.Owner[:])

		binary.BigEndian.PutUint64(buf[:], e.Record.Timestamp)
		hasher.Write(buf[:])
	}

	var checksum [32]byte
	hasher.Sum(checksum[:0])

	return checksum
}

// CompressSnapshot compresses snapshot data using zstd.
func CompressSnapshot(data []byte) ([]byte, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create encoder:\n%w", err)
	}
	defer encoder.Close()

	return encoder.EncodeAll(data, nil), nil
}

// DecompressSnapshot decompresses zstd-compressed snapshot data.
func DecompressSnapshot(data []byte) ([]byte, error) {
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create decoder:\n%w", err)
	}
	defer decoder.Close()

	return decoder.DecodeAll(data, nil)
}

// ApplySnapshot replaces every claim in db with the snapshot content and
// sets the block height, in one atomic batch. Claims longer than maxLen
// are refused, since the registry could never reach them.
func ApplySnapshot(db *storage.Storage, data []byte, maxLen uint32) (*Info, error) {
	info, entries, err := decodeSnapshot(data, maxLen)
	if err != nil {
		return nil, err
	}

	batch := db.NewBatch()
	defer batch.Close()

	store := state.NewClaimStore(batch)

	existing, err := store.Export()
	if err != nil {
		return nil, fmt.Errorf("read existing claims:\n%w", err)
	}

	for _, e := range existing {
		if err := store.Remove(e.Fingerprint); err != nil {
			return nil, fmt.Errorf("remove claim %s:\n%w", e.Fingerprint, err)
		}
	}

	for _, e := range entries {
		if err := store.Insert(e.Fingerprint, e.Record); err != nil {
			return nil, fmt.Errorf("write claim %s:\n%w", e.Fingerprint, err)
		}
	}

	if err := state.NewJournal(batch).SetHeight(info.Height); err != nil {
		return nil, fmt.Errorf("set height:\n%w", err)
	}

	if err := batch.Commit(); err != nil {
		return nil, fmt.Errorf("commit snapshot:\n%w", err)
	}

	return info, nil
}

// decodeSnapshot parses a snapshot and verifies its checksum.
func decodeSnapshot(data []byte, maxLen uint32) (info *Info, entries []state.ClaimEntry, retErr error) {
	// FlatBuffers panics on malformed data
	defer func() {
		if r := recover(); r != nil {
			retErr = fmt.Errorf("malformed snapshot")
		}
	}()

	if len(data) < 8 {
		return nil, nil, fmt.Errorf("snapshot too short: %d", len(data))
	}

	snapshot := types.GetRootAsSnapshot(data, 0)

	if snapshot.Version() != snapshotVersion {
		return nil, nil, fmt.Errorf("unsupported snapshot version %d", snapshot.Version())
	}

	stored := snapshot.ChecksumBytes()
	if len(stored) != checksumSize {
		return nil, nil, fmt.Errorf("invalid checksum length: %d", len(stored))
	}

	entries = make([]state.ClaimEntry, snapshot.ClaimsLength())
	var c types.SnapshotClaim

	for i := range entries {
		if !snapshot.Claims(&c, i) {
			return nil, nil, fmt.Errorf("read claim %d", i)
		}

		// NewFingerprint copies the bytes out of the buffer
		fp, err := claims.NewFingerprint(c.FingerprintBytes(), maxLen)
		if err != nil {
			return nil, nil, fmt.Errorf("claim %d:\n%w", i, err)
		}

		owner := c.OwnerBytes()
		if len(owner) != len(claims.AccountID{}) {
			return nil, nil, fmt.Errorf("claim %d: invalid owner size %d", i, len(owner))
		}

		var rec claims.Record
		copy(rec.Owner[:], owner)
		rec.Timestamp = c.Timestamp()

		entries[i] = state.ClaimEntry{Fingerprint: fp, Record: rec}
	}

	sortEntries(entries)
	computed := computeChecksum(snapshot.Version(), snapshot.Height(), entries)

	if !bytes.Equal(computed[:], stored) {
		return nil, nil, fmt.Errorf("checksum mismatch")
	}

	if err := checkUnique(entries); err != nil {
		return nil, nil, err
	}

	info = &Info{
		Version:  snapshot.Version(),
		Height:   snapshot.Height(),
		Claims:   len(entries),
		Checksum: computed,
	}

	return info, entries, nil
}

// checkUnique rejects sorted entries that repeat a fingerprint.
func checkUnique(entries []state.ClaimEntry) error {
	for i := 1; i < len(entries); i++ {
		if entries[i].Fingerprint == entries[i-1].Fingerprint {
			return fmt.Errorf("duplicate claim %s", entries[i].Fingerprint)
		}
	}

	return nil
}
