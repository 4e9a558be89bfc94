package claims

import (
	"encoding/hex"
	"fmt"
)

// AccountID is an authenticated account identity (an Ed25519 public key).
type AccountID [32]byte

// String returns the hex encoding of the account.
func (a AccountID) String() string {
	return hex.EncodeToString(a[:])
}

// Short returns the first 8 bytes in hex, for logs.
func (a AccountID) Short() string {
	return hex.EncodeToString(a[:8])
}

// Fingerprint is the bounded-length identity of a claimed piece of content.
// The zero value is the empty fingerprint. Equal bytes give equal fingerprints,
// so a Fingerprint can be used as a map key.
type Fingerprint struct {
	raw string // raw holds the fingerprint bytes
}

// NewFingerprint validates content against maxLen and returns its fingerprint.
// Returns ErrClaimTooLong if content is longer than maxLen bytes.
func NewFingerprint(content []byte, maxLen uint32) (Fingerprint, error) {
	if uint64(len(content)) > uint64(maxLen) {
		return Fingerprint{}, fmt.Errorf("%w: %d bytes, max %d", ErrClaimTooLong, len(content), maxLen)
	}

	return Fingerprint{raw: string(content)}, nil
}

// Bytes returns a copy of the fingerprint bytes.
func (f Fingerprint) Bytes() []byte {
	return []byte(f.raw)
}

// Len returns the fingerprint length in bytes.
func (f Fingerprint) Len() int {
	return len(f.raw)
}

// String returns the hex encoding of the fingerprint.
func (f Fingerprint) String() string {
	return hex.EncodeToString([]byte(f.raw))
}

// Record is the value stored for a live fingerprint.
type Record struct {
	Owner     AccountID // Owner is the only account allowed to revoke or transfer
	Timestamp uint64    // Timestamp is the block height of creation or last transfer
}

// Config holds the registry constants fixed at initialization.
type Config struct {
	// MaxClaimLength is the maximum fingerprint length in bytes.
	MaxClaimLength uint32
}
