package client

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"ClaimChain/internal/claims"
)

var (
	// ErrNotFound is returned when the node has no such resource.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateTx is returned when the node already has the transaction.
	ErrDuplicateTx = errors.New("duplicate transaction")

	// ErrMempoolFull is returned when the node cannot queue more transactions.
	ErrMempoolFull = errors.New("mempool full")
)

// APIError is a non-2xx response from the node.
type APIError struct {
	Method  string // Method is the HTTP method
	URL     string // URL is the request URL
	Status  int    // Status is the HTTP status code
	Code    string // Code is the registry error name, if any
	Message string // Message is the node's error message
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s %s: status %d: %s (%s)", e.Method, e.URL, e.Status, e.Message, e.Code)
	}

	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.URL, e.Status, e.Message)
}

// Unwrap maps the response to a sentinel so callers can use errors.Is.
func (e *APIError) Unwrap() error {
	switch e.Code {
	case claims.Code(claims.ErrClaimNotExist):
		return claims.ErrClaimNotExist
	case claims.Code(claims.ErrClaimTooLong):
		return claims.ErrClaimTooLong
	}

	switch e.Status {
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusConflict:
		return ErrDuplicateTx
	case http.StatusServiceUnavailable:
		return ErrMempoolFull
	}

	return nil
}

// submitTx sends transaction bytes to a node via POST /tx and returns the hash.
func submitTx(nodeAddr string, txBytes []byte) (string, error) {
	url := "http://" + nodeAddr + "/tx"

	resp, err := http.Post(url, "application/octet-stream", bytes.NewReader(txBytes))
	if err != nil {
		return "", fmt.Errorf("post tx:\n%w", err)
	}
	defer func() { io.Copy(io.Discard, resp.Body); resp.Body.Close() }()

	if resp.StatusCode != http.StatusAccepted {
		return "", readAPIError("POST", url, resp)
	}

	var result struct {
		Hash string `json:"hash"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode tx response:\n%w", err)
	}

	return result.Hash, nil
}

// httpGet performs a GET request and decodes the JSON response.
func httpGet(url string, result any) error {
	resp, err := http.Get(url)
	if err != nil {
		return fmt.Errorf("GET %s:\n%w", url, err)
	}
	defer func() { io.Copy(io.Discard, resp.Body); resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return readAPIError("GET", url, resp)
	}

	return json.NewDecoder(resp.Body).Decode(result)
}

// httpGetBytes performs a GET request and returns the raw body.
func httpGetBytes(url string) ([]byte, error) {
	resp, err := http.Get(url)
	if err != nil {
		return nil, fmt.Errorf("GET %s:\n%w", url, err)
	}
	defer func() { io.Copy(io.Discard, resp.Body); resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, readAPIError("GET", url, resp)
	}

	return io.ReadAll(resp.Body)
}

// readAPIError builds an APIError from an error response body.
func readAPIError(method, url string, resp *http.Response) error {
	var body struct {
		Error string `json:"error"`
		Code  string `json:"code"`
	}

	// a body that is not JSON still yields the status
	_ = json.NewDecoder(resp.Body).Decode(&body)

	return &APIError{
		Method:  method,
		URL:     url,
		Status:  resp.StatusCode,
		Code:    body.Code,
		Message: body.Error,
	}
}
