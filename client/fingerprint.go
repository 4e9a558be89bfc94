package client

import (
	"fmt"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
)

// Fingerprint returns the sha2-256 multihash of a document (34 bytes).
// Claiming the multihash instead of the document keeps any file under
// the node's claim length limit.
func Fingerprint(data []byte) ([]byte, error) {
	sum, err := multihash.Sum(data, multihash.SHA2_256, -1)
	if err != nil {
		return nil, fmt.Errorf("hash document:\n%w", err)
	}

	return sum, nil
}

// CID returns the CIDv1 (raw + sha2-256) of a document, for display.
// Its multihash equals Fingerprint(data).
func CID(data []byte) (cid.Cid, error) {
	sum, err := Fingerprint(data)
	if err != nil {
		return cid.Undef, err
	}

	return cid.NewCidV1(cid.Raw, sum), nil
}

// FingerprintFromCID returns the claim bytes for a CID string.
func FingerprintFromCID(s string) ([]byte, error) {
	c, err := cid.Decode(s)
	if err != nil {
		return nil, fmt.Errorf("decode cid:\n%w", err)
	}

	return c.Hash(), nil
}
