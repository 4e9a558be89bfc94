package client

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"

	"ClaimChain/internal/auth"
	"ClaimChain/internal/claims"
	"ClaimChain/internal/types"
)

// CreateClaim claims content for the wallet's account.
// Returns the transaction hash; the outcome is in its receipt.
func (w *Wallet) CreateClaim(c *Client, content []byte) (string, error) {
	hash, err := w.submit(c, types.CallKindCreateClaim, content, claims.AccountID{})
	if err != nil {
		return "", fmt.Errorf("submit create tx:\n%w", err)
	}

	return hash, nil
}

// RevokeClaim removes a claim owned by the wallet.
func (w *Wallet) RevokeClaim(c *Client, content []byte) (string, error) {
	hash, err := w.submit(c, types.CallKindRevokeClaim, content, claims.AccountID{})
	if err != nil {
		return "", fmt.Errorf("submit revoke tx:\n%w", err)
	}

	return hash, nil
}

// TransferClaim gives a claim owned by the wallet to dest.
func (w *Wallet) TransferClaim(c *Client, content []byte, dest claims.AccountID) (string, error) {
	hash, err := w.submit(c, types.CallKindTransferClaim, content, dest)
	if err != nil {
		return "", fmt.Errorf("submit transfer tx:\n%w", err)
	}

	return hash, nil
}

// submit signs a call with a random nonce and posts it.
func (w *Wallet) submit(c *Client, kind types.CallKind, content []byte, dest claims.AccountID) (string, error) {
	txBytes, _ := auth.Build(w.privKey, kind, content, dest, randomNonce())

	return submitTx(c.nodeAddr, txBytes)
}

// randomNonce returns a random nonce so repeated calls get distinct hashes.
func randomNonce() uint64 {
	var buf [8]byte
	rand.Read(buf[:])

	return binary.LittleEndian.Uint64(buf[:])
}
