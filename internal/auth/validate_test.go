package auth

import (
	"bytes"
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"testing"

	flatbuffers "github.com/google/flatbuffers/go"
	"github.com/zeebo/blake3"

	"ClaimChain/internal/claims"
	"ClaimChain/internal/types"
)

func newKey(t *testing.T) ed25519.PrivateKey {
	t.Helper()

	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}

	return priv
}

func senderOf(priv ed25519.PrivateKey) claims.AccountID {
	var id claims.AccountID
	copy(id[:], priv.Public().(ed25519.PublicKey))
	return id
}

func TestAuthenticate_Create(t *testing.T) {
	priv := newKey(t)

	data, hash := Build(priv, types.CallKindCreateClaim, []byte("doc"), claims.AccountID{}, 7)

	call, err := Authenticate(data)
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}

	if call.Hash != hash {
		t.Error("hash mismatch")
	}

	if call.Sender != senderOf(priv) {
		t.Error("sender mismatch")
	}

	if call.Kind != types.CallKindCreateClaim || call.Nonce != 7 || !bytes.Equal(call.Claim, []byte("doc")) {
		t.Errorf("unexpected call %+v", call)
	}

	if call.Dest != (claims.AccountID{}) {
		t.Error("create call should have zero dest")
	}
}

func TestAuthenticate_Transfer(t *testing.T) {
	priv := newKey(t)
	dest := claims.AccountID{0xC0, 0xFF}

	data, _ := Build(priv, types.CallKindTransferClaim, []byte("doc"), dest, 1)

	call, err := Authenticate(data)
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}

	if call.Dest != dest {
		t.Errorf("dest mismatch: %s", call.Dest.Short())
	}
}

func TestAuthenticate_EmptyClaim(t *testing.T) {
	data, _ := Build(newKey(t), types.CallKindRevokeClaim, nil, claims.AccountID{}, 0)

	call, err := Authenticate(data)
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}

	if len(call.Claim) != 0 {
		t.Errorf("expected empty claim, got %x", call.Claim)
	}
}

func TestAuthenticate_NonceChangesHash(t *testing.T) {
	priv := newKey(t)

	_, h1 := Build(priv, types.CallKindCreateClaim, []byte("doc"), claims.AccountID{}, 1)
	_, h2 := Build(priv, types.CallKindCreateClaim, []byte("doc"), claims.AccountID{}, 2)

	if h1 == h2 {
		t.Error("different nonces should produce different hashes")
	}
}

func TestAuthenticate_Garbage(t *testing.T) {
	inputs := [][]byte{
		nil,
		[]byte("short"),
		bytes.Repeat([]byte{0xFF}, 64),
		make([]byte, MaxTxSize+1),
	}

	for _, data := range inputs {
		if _, err := Authenticate(data); !errors.Is(err, ErrUnauthenticated) {
			t.Errorf("len %d: expected ErrUnauthenticated, got %v", len(data), err)
		}
	}
}

func TestAuthenticate_WrongSignature(t *testing.T) {
	priv := newKey(t)
	other := newKey(t)

	// Signed by other but claims priv as sender
	sender := priv.Public().(ed25519.PublicKey)
	unsigned := buildUnsignedTx(sender, types.CallKindCreateClaim, []byte("doc"), nil, 0)
	data := rebuild(t, unsigned, sender, func(hash []byte) []byte {
		return ed25519.Sign(other, hash)
	})

	if _, err := Authenticate(data); !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestAuthenticate_TamperedClaim(t *testing.T) {
	priv := newKey(t)
	data, _ := Build(priv, types.CallKindCreateClaim, []byte("aaaa"), claims.AccountID{}, 0)

	// Flip the claim bytes in place; the declared hash no longer matches
	idx := bytes.Index(data, []byte("aaaa"))
	if idx < 0 {
		t.Fatal("claim bytes not found in transaction")
	}
	copy(data[idx:], "bbbb")

	if _, err := Authenticate(data); !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestAuthenticate_TransferWithoutDest(t *testing.T) {
	priv := newKey(t)
	sender := priv.Public().(ed25519.PublicKey)

	unsigned := buildUnsignedTx(sender, types.CallKindTransferClaim, []byte("doc"), nil, 0)
	data := rebuildKind(t, unsigned, sender, types.CallKindTransferClaim, func(hash []byte) []byte {
		return ed25519.Sign(priv, hash)
	})

	if _, err := Authenticate(data); !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestAuthenticate_UnknownKind(t *testing.T) {
	priv := newKey(t)
	sender := priv.Public().(ed25519.PublicKey)

	unsigned := buildUnsignedTx(sender, types.CallKind(99), []byte("doc"), nil, 0)
	data := rebuildKind(t, unsigned, sender, types.CallKind(99), func(hash []byte) []byte {
		return ed25519.Sign(priv, hash)
	})

	if _, err := Authenticate(data); !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("expected ErrUnauthenticated, got %v", err)
	}
}

// rebuild assembles a create transaction around a custom signer.
func rebuild(t *testing.T, unsigned, sender []byte, sign func(hash []byte) []byte) []byte {
	t.Helper()
	return rebuildKind(t, unsigned, sender, types.CallKindCreateClaim, sign)
}

// rebuildKind assembles a transaction of the given kind with claim "doc",
// no dest and nonce 0, hashing unsigned and signing with sign.
func rebuildKind(t *testing.T, unsigned, sender []byte, kind types.CallKind, sign func(hash []byte) []byte) []byte {
	t.Helper()

	hash := hashOf(unsigned)
	sig := sign(hash)

	builder := flatbuffers.NewBuilder(256)
	hashVec := builder.CreateByteVector(hash)
	senderVec := builder.CreateByteVector(sender)
	sigVec := builder.CreateByteVector(sig)
	claimVec := builder.CreateByteVector([]byte("doc"))

	types.TransactionStart(builder)
	types.TransactionAddHash(builder, hashVec)
	types.TransactionAddSender(builder, senderVec)
	types.TransactionAddSignature(builder, sigVec)
	types.TransactionAddKind(builder, kind)
	types.TransactionAddClaim(builder, claimVec)
	types.TransactionAddNonce(builder, 0)
	builder.Finish(types.TransactionEnd(builder))

	return builder.FinishedBytes()
}

func hashOf(data []byte) []byte {
	sum := blake3.Sum256(data)
	return sum[:]
}
