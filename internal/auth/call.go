package auth

import (
	"crypto/ed25519"
	"encoding/hex"

	flatbuffers "github.com/google/flatbuffers/go"
	"github.com/zeebo/blake3"

	"ClaimChain/internal/claims"
	"ClaimChain/internal/types"
)

// Call is a registry call whose sender has been authenticated.
type Call struct {
	Hash   [32]byte         // Hash is blake3 of the unsigned transaction
	Sender claims.AccountID // Sender is the verified signer
	Kind   types.CallKind   // Kind selects the registry operation
	Claim  []byte           // Claim is the raw content bytes
	Dest   claims.AccountID // Dest is the new owner for transfers
	Nonce  uint64           // Nonce distinguishes otherwise identical calls
	Raw    []byte           // Raw is the signed transaction as received
}

// HashHex returns the hex encoding of the call hash.
func (c *Call) HashHex() string {
	return hex.EncodeToString(c.Hash[:])
}

// Build creates a signed transaction for a registry call.
// dest is ignored unless kind is CallKindTransferClaim.
// Returns the transaction bytes and its hash.
func Build(priv ed25519.PrivateKey, kind types.CallKind, claim []byte, dest claims.AccountID, nonce uint64) ([]byte, [32]byte) {
	sender := priv.Public().(ed25519.PublicKey)

	var destBytes []byte
	if kind == types.CallKindTransferClaim {
		destBytes = dest[:]
	}

	unsigned := buildUnsignedTx(sender, kind, claim, destBytes, nonce)
	hash := blake3.Sum256(unsigned)
	sig := ed25519.Sign(priv, hash[:])

	builder := flatbuffers.NewBuilder(256)

	hashVec := builder.CreateByteVector(hash[:])
	senderVec := builder.CreateByteVector(sender)
	sigVec := builder.CreateByteVector(sig)
	claimVec := builder.CreateByteVector(claim)

	var destVec flatbuffers.UOffsetT
	if destBytes != nil {
		destVec = builder.CreateByteVector(destBytes)
	}

	types.TransactionStart(builder)
	types.TransactionAddHash(builder, hashVec)
	types.TransactionAddSender(builder, senderVec)
	types.TransactionAddSignature(builder, sigVec)
	types.TransactionAddKind(builder, kind)
	types.TransactionAddClaim(builder, claimVec)
	if destBytes != nil {
		types.TransactionAddDest(builder, destVec)
	}
	types.TransactionAddNonce(builder, nonce)
	builder.Finish(types.TransactionEnd(builder))

	return builder.FinishedBytes(), hash
}

// buildUnsignedTx builds the bytes that are hashed and signed:
// the Transaction table without hash and signature.
// Field order must stay identical between Build and Authenticate.
func buildUnsignedTx(sender []byte, kind types.CallKind, claim, dest []byte, nonce uint64) []byte {
	builder := flatbuffers.NewBuilder(128)

	claimVec := builder.CreateByteVector(claim)
	senderVec := builder.CreateByteVector(sender)

	var destVec flatbuffers.UOffsetT
	if len(dest) > 0 {
		destVec = builder.CreateByteVector(dest)
	}

	types.TransactionStart(builder)
	types.TransactionAddSender(builder, senderVec)
	types.TransactionAddKind(builder, kind)
	types.TransactionAddClaim(builder, claimVec)
	if len(dest) > 0 {
		types.TransactionAddDest(builder, destVec)
	}
	types.TransactionAddNonce(builder, nonce)
	builder.Finish(types.TransactionEnd(builder))

	return builder.FinishedBytes()
}
