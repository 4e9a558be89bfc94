package api

import (
	"encoding/hex"

	"ClaimChain/internal/claims"
	"ClaimChain/internal/state"
)

// SubmitResponse is returned by POST /tx.
type SubmitResponse struct {
	Hash string `json:"hash"`
}

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// ClaimResponse is returned by GET /claim/{content}.
type ClaimResponse struct {
	Fingerprint string `json:"fingerprint"`
	Owner       string `json:"owner"`
	Timestamp   uint64 `json:"timestamp"`
}

// ReceiptResponse is returned by GET /receipt/{hash}.
type ReceiptResponse struct {
	TxHash    string `json:"txHash"`
	Height    uint64 `json:"height"`
	Index     uint32 `json:"index"`
	Kind      string `json:"kind"`
	Sender    string `json:"sender"`
	Success   bool   `json:"success"`
	ErrorCode string `json:"error,omitempty"`
}

// EventResponse is one element of GET /events/{height}.
// Caller and PreviousOwner are only set for transfers; Account otherwise.
type EventResponse struct {
	Height        uint64 `json:"height"`
	Index         uint32 `json:"index"`
	Kind          string `json:"kind"`
	Claim         string `json:"claim"`
	Account       string `json:"account,omitempty"`
	PreviousOwner string `json:"previousOwner,omitempty"`
	Caller        string `json:"caller,omitempty"`
}

// StatusResponse is returned by GET /status.
type StatusResponse struct {
	Height         uint64 `json:"height"`
	Pending        int    `json:"pending"`
	Claims         int    `json:"claims"`
	MaxClaimLength uint32 `json:"maxClaimLength"`
}

func toReceiptResponse(r *state.Receipt) ReceiptResponse {
	return ReceiptResponse{
		TxHash:    hex.EncodeToString(r.TxHash[:]),
		Height:    r.Height,
		Index:     r.Index,
		Kind:      r.Kind.String(),
		Sender:    r.Sender.String(),
		Success:   r.Success,
		ErrorCode: r.ErrorCode,
	}
}

func toEventResponse(e state.EventEntry) EventResponse {
	resp := EventResponse{
		Height: e.Height,
		Index:  e.Index,
		Kind:   string(e.Event.Kind()),
		Claim:  hex.EncodeToString(e.Event.Content()),
	}

	switch ev := e.Event.(type) {
	case claims.ClaimCreated:
		resp.Account = ev.Account.String()
	case claims.ClaimRevoked:
		resp.Account = ev.Account.String()
	case claims.ClaimTransferred:
		resp.PreviousOwner = ev.PreviousOwner.String()
		resp.Caller = ev.Caller.String()
	}

	return resp
}
