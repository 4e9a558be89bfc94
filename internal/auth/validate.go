package auth

import (
	"bytes"
	"crypto/ed25519"
	"errors"
	"fmt"

	"github.com/zeebo/blake3"

	"ClaimChain/internal/types"
)

const (
	// hashSize is the expected size of a transaction hash.
	hashSize = 32

	// senderSize is the expected size of an Ed25519 public key.
	senderSize = 32

	// signatureSize is the expected size of an Ed25519 signature.
	signatureSize = 64

	// MaxTxSize is the maximum accepted transaction size in bytes.
	MaxTxSize = 64 << 10
)

// ErrUnauthenticated is returned for every rejected transaction.
var ErrUnauthenticated = errors.New("unauthenticated")

// Authenticate checks a signed transaction and returns the call it carries.
// It verifies field sizes, the call kind, the hash and the Ed25519 signature.
// The claim length is not checked here; the registry enforces it.
func Authenticate(data []byte) (call *Call, retErr error) {
	// FlatBuffers panics on malformed data, recover gracefully
	defer func() {
		if r := recover(); r != nil {
			call, retErr = nil, fmt.Errorf("%w: malformed transaction data", ErrUnauthenticated)
		}
	}()

	if len(data) < 8 {
		return nil, fmt.Errorf("%w: transaction data too short", ErrUnauthenticated)
	}

	if len(data) > MaxTxSize {
		return nil, fmt.Errorf("%w: transaction too large: %d bytes", ErrUnauthenticated, len(data))
	}

	tx := types.GetRootAsTransaction(data, 0)

	if err := validateFieldSizes(tx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}

	if err := validateHash(tx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}

	if err := validateSignature(tx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}

	return extractCall(tx, data), nil
}

// validateFieldSizes checks that all fixed-size fields have the correct length.
func validateFieldSizes(tx *types.Transaction) error {
	if len(tx.HashBytes()) != hashSize {
		return fmt.Errorf("invalid hash size: got %d, want %d", len(tx.HashBytes()), hashSize)
	}

	if len(tx.SenderBytes()) != senderSize {
		return fmt.Errorf("invalid sender size: got %d, want %d", len(tx.SenderBytes()), senderSize)
	}

	if len(tx.SignatureBytes()) != signatureSize {
		return fmt.Errorf("invalid signature size: got %d, want %d", len(tx.SignatureBytes()), signatureSize)
	}

	switch tx.Kind() {
	case types.CallKindCreateClaim, types.CallKindRevokeClaim:
		if tx.DestLength() != 0 {
			return fmt.Errorf("unexpected dest for %s", tx.Kind())
		}
	case types.CallKindTransferClaim:
		if tx.DestLength() != senderSize {
			return fmt.Errorf("invalid dest size: got %d, want %d", tx.DestLength(), senderSize)
		}
	default:
		return fmt.Errorf("unknown call kind %s", tx.Kind())
	}

	return nil
}

// validateHash recomputes the transaction hash and compares it to the declared hash.
func validateHash(tx *types.Transaction) error {
	unsigned := buildUnsignedTx(tx.SenderBytes(), tx.Kind(), tx.ClaimBytes(), tx.DestBytes(), tx.Nonce())
	expected := blake3.Sum256(unsigned)

	if !bytes.Equal(tx.HashBytes(), expected[:]) {
		return fmt.Errorf("hash mismatch")
	}

	return nil
}

// validateSignature verifies the Ed25519 signature over the transaction hash.
func validateSignature(tx *types.Transaction) error {
	if !ed25519.Verify(tx.SenderBytes(), tx.HashBytes(), tx.SignatureBytes()) {
		return fmt.Errorf("invalid signature")
	}

	return nil
}

// extractCall copies the verified fields out of the FlatBuffers table.
func extractCall(tx *types.Transaction, data []byte) *Call {
	call := &Call{
		Kind:  tx.Kind(),
		Nonce: tx.Nonce(),
		Claim: make([]byte, len(tx.ClaimBytes())),
		Raw:   make([]byte, len(data)),
	}

	copy(call.Hash[:], tx.HashBytes())
	copy(call.Sender[:], tx.SenderBytes())
	copy(call.Dest[:], tx.DestBytes())
	copy(call.Claim, tx.ClaimBytes())
	copy(call.Raw, data)

	return call
}
