package client

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	"ClaimChain/internal/claims"
)

const (
	// receiptPollInterval is the delay between receipt lookups in WaitReceipt.
	receiptPollInterval = 100 * time.Millisecond
)

// Client connects to a ClaimChain node via HTTP.
type Client struct {
	nodeAddr string // nodeAddr is the HTTP address (e.g. "127.0.0.1:8080")
}

// Wallet holds an Ed25519 keypair used to sign registry calls.
type Wallet struct {
	privKey ed25519.PrivateKey // privKey is the Ed25519 private key
	account claims.AccountID   // account is the public key as an account ID
}

// Status is the node state reported by GET /status.
type Status struct {
	Height         uint64 `json:"height"`
	Pending        int    `json:"pending"`
	Claims         int    `json:"claims"`
	MaxClaimLength uint32 `json:"maxClaimLength"`
}

// ClaimInfo is a committed claim.
type ClaimInfo struct {
	Fingerprint []byte           // Fingerprint is the claimed bytes
	Owner       claims.AccountID // Owner is the current owner
	Timestamp   uint64           // Timestamp is the block height of the last create or transfer
}

// Receipt is the outcome of an included transaction.
type Receipt struct {
	TxHash    string           // TxHash is the hex transaction hash
	Height    uint64           // Height is the including block
	Index     uint32           // Index is the position in the block
	Kind      string           // Kind is the registry operation
	Sender    claims.AccountID // Sender is the signer
	Success   bool             // Success is true if the call was applied
	ErrorCode string           // ErrorCode is the registry error name on failure
}

// Event is a registry event emitted in a block.
type Event struct {
	Height        uint64           // Height is the emitting block
	Index         uint32           // Index orders events within the block
	Kind          string           // Kind is ClaimCreated, ClaimRevoked or ClaimTransfered
	Claim         []byte           // Claim is the content bytes
	Account       claims.AccountID // Account is set for create and revoke
	PreviousOwner claims.AccountID // PreviousOwner is set for transfers
	Caller        claims.AccountID // Caller is set for transfers
}

// NewClient creates a client for the node at nodeAddr.
// It checks the node is reachable with GET /health.
func NewClient(nodeAddr string) (*Client, error) {
	var health struct {
		Status string `json:"status"`
	}

	if err := httpGet("http://"+nodeAddr+"/health", &health); err != nil {
		return nil, fmt.Errorf("check health:\n%w", err)
	}

	return &Client{nodeAddr: nodeAddr}, nil
}

// NewWallet creates a new wallet with a random Ed25519 keypair.
func NewWallet() *Wallet {
	_, priv, _ := ed25519.GenerateKey(rand.Reader)
	return WalletFromKey(priv)
}

// WalletFromKey creates a wallet from an existing private key.
func WalletFromKey(priv ed25519.PrivateKey) *Wallet {
	w := &Wallet{privKey: priv}
	copy(w.account[:], priv.Public().(ed25519.PublicKey))

	return w
}

// Account returns the wallet's account ID.
func (w *Wallet) Account() claims.AccountID {
	return w.account
}

// Status returns the node status.
func (c *Client) Status() (*Status, error) {
	var s Status

	if err := httpGet("http://"+c.nodeAddr+"/status", &s); err != nil {
		return nil, fmt.Errorf("get status:\n%w", err)
	}

	return &s, nil
}

// GetClaim returns the committed claim on content.
// Fails with claims.ErrClaimNotExist or claims.ErrClaimTooLong.
func (c *Client) GetClaim(content []byte) (*ClaimInfo, error) {
	var resp struct {
		Fingerprint string `json:"fingerprint"`
		Owner       string `json:"owner"`
		Timestamp   uint64 `json:"timestamp"`
	}

	url := "http://" + c.nodeAddr + "/claim/" + hex.EncodeToString(content)
	if err := httpGet(url, &resp); err != nil {
		return nil, fmt.Errorf("get claim:\n%w", err)
	}

	fp, err := hex.DecodeString(resp.Fingerprint)
	if err != nil {
		return nil, fmt.Errorf("invalid fingerprint hex:\n%w", err)
	}

	owner, err := ParseAccount(resp.Owner)
	if err != nil {
		return nil, err
	}

	return &ClaimInfo{Fingerprint: fp, Owner: owner, Timestamp: resp.Timestamp}, nil
}

// Receipt returns the receipt of an included transaction.
// Fails with ErrNotFound while the transaction is pending or unknown.
func (c *Client) Receipt(hash string) (*Receipt, error) {
	var resp struct {
		TxHash    string `json:"txHash"`
		Height    uint64 `json:"height"`
		Index     uint32 `json:"index"`
		Kind      string `json:"kind"`
		Sender    string `json:"sender"`
		Success   bool   `json:"success"`
		ErrorCode string `json:"error"`
	}

	if err := httpGet("http://"+c.nodeAddr+"/receipt/"+hash, &resp); err != nil {
		return nil, fmt.Errorf("get receipt:\n%w", err)
	}

	sender, err := ParseAccount(resp.Sender)
	if err != nil {
		return nil, err
	}

	return &Receipt{
		TxHash:    resp.TxHash,
		Height:    resp.Height,
		Index:     resp.Index,
		Kind:      resp.Kind,
		Sender:    sender,
		Success:   resp.Success,
		ErrorCode: resp.ErrorCode,
	}, nil
}

// WaitReceipt polls for a receipt until it exists or timeout elapses.
func (c *Client) WaitReceipt(hash string, timeout time.Duration) (*Receipt, error) {
	deadline := time.Now().Add(timeout)

	for {
		r, err := c.Receipt(hash)
		if err == nil {
			return r, nil
		}

		if !errors.Is(err, ErrNotFound) {
			return nil, err
		}

		if time.Now().After(deadline) {
			return nil, fmt.Errorf("receipt %s not available after %v:\n%w", hash, timeout, err)
		}

		time.Sleep(receiptPollInterval)
	}
}

// Events returns the events emitted at height.
func (c *Client) Events(height uint64) ([]Event, error) {
	var resp []struct {
		Height        uint64 `json:"height"`
		Index         uint32 `json:"index"`
		Kind          string `json:"kind"`
		Claim         string `json:"claim"`
		Account       string `json:"account"`
		PreviousOwner string `json:"previousOwner"`
		Caller        string `json:"caller"`
	}

	url := "http://" + c.nodeAddr + "/events/" + strconv.FormatUint(height, 10)
	if err := httpGet(url, &resp); err != nil {
		return nil, fmt.Errorf("get events:\n%w", err)
	}

	events := make([]Event, len(resp))

	for i, r := range resp {
		claim, err := hex.DecodeString(r.Claim)
		if err != nil {
			return nil, fmt.Errorf("invalid claim hex:\n%w", err)
		}

		events[i] = Event{Height: r.Height, Index: r.Index, Kind: r.Kind, Claim: claim}

		for _, f := range []struct {
			hex string
			dst *claims.AccountID
		}{
			{r.Account, &events[i].Account},
			{r.PreviousOwner, &events[i].PreviousOwner},
			{r.Caller, &events[i].Caller},
		} {
			if f.hex == "" {
				continue
			}

			if *f.dst, err = ParseAccount(f.hex); err != nil {
				return nil, err
			}
		}
	}

	return events, nil
}

// Snapshot downloads the node's zstd compressed snapshot.
func (c *Client) Snapshot() ([]byte, error) {
	data, err := httpGetBytes("http://" + c.nodeAddr + "/snapshot")
	if err != nil {
		return nil, fmt.Errorf("get snapshot:\n%w", err)
	}

	return data, nil
}

// ParseAccount parses a hex encoded 32-byte account ID.
func ParseAccount(s string) (claims.AccountID, error) {
	var id claims.AccountID

	raw, err := hex.DecodeString(s)
	if err != nil || len(raw) != len(id) {
		return id, fmt.Errorf("invalid account: %q", s)
	}

	copy(id[:], raw)

	return id, nil
}
