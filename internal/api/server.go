package api

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"ClaimChain/internal/auth"
	"ClaimChain/internal/chain"
	"ClaimChain/internal/claims"
	"ClaimChain/internal/logger"
	"ClaimChain/internal/metrics"
	"ClaimChain/internal/state"
	"ClaimChain/internal/sync"
)

// Backend is the node state the API reads and submits to.
// *chain.Chain implements it.
type Backend interface {
	Submit(call *auth.Call) error
	Claim(content []byte) (claims.Fingerprint, claims.Record, error)
	Receipt(hash [32]byte) (*state.Receipt, error)
	IsPending(hash [32]byte) bool
	Events(height uint64) ([]state.EventEntry, error)
	Height() uint64
	PendingCount() int
	ClaimCount() (int, error)
	MaxClaimLength() uint32
	Snapshot() ([]byte, error)
}

// Server is the HTTP API server.
type Server struct {
	addr    string           // addr is the HTTP listen address
	backend Backend          // backend is the chain served
	metrics *metrics.Metrics // metrics is served on /metrics when set
	server  *http.Server     // server is the underlying HTTP server
}

// New creates a new HTTP API server. m may be nil.
func New(addr string, backend Backend, m *metrics.Metrics) *Server {
	return &Server{
		addr:    addr,
		backend: backend,
		metrics: m,
	}
}

// Handler returns the routes of the API.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /tx", s.handleSubmitTx)
	mux.HandleFunc("GET /claim/{content}", s.handleClaim)
	mux.HandleFunc("GET /receipt/{hash}", s.handleReceipt)
	mux.HandleFunc("GET /events/{height}", s.handleEvents)
	mux.HandleFunc("GET /status", s.handleStatus)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /snapshot", s.handleSnapshot)

	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics.Handler())
	}

	return mux
}

// Start starts the HTTP server in a goroutine.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.addr,
		Handler:      s.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		logger.Info("http api started", "addr", s.addr)

		if err := s.server.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("http server error", "error", err)
		}
	}()

	return nil
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop() error {
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return s.server.Shutdown(ctx)
}

// handleSubmitTx handles POST /tx requests.
func (s *Server) handleSubmitTx(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, auth.MaxTxSize+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "", "failed to read body")
		return
	}

	if len(body) == 0 {
		writeError(w, http.StatusBadRequest, "", "empty transaction")
		return
	}

	call, err := auth.Authenticate(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "", err.Error())
		return
	}

	if err := s.backend.Submit(call); err != nil {
		switch {
		case errors.Is(err, chain.ErrDuplicateTx):
			writeError(w, http.StatusConflict, "", err.Error())
		case errors.Is(err, chain.ErrMempoolFull):
			writeError(w, http.StatusServiceUnavailable, "", err.Error())
		case errors.Is(err, chain.ErrUnknownCall):
			writeError(w, http.StatusBadRequest, "", err.Error())
		default:
			logger.Error("submit failed", "tx", call.HashHex()[:16], "error", err)
			writeError(w, http.StatusInternalServerError, "", "submit failed")
		}
		return
	}

	logger.Debug("tx submitted",
		"hash", call.HashHex()[:16],
		"kind", call.Kind,
		"sender", call.Sender.Short(),
	)

	writeJSON(w, http.StatusAccepted, SubmitResponse{Hash: call.HashHex()})
}

// handleClaim handles GET /claim/{content} where content is hex encoded.
func (s *Server) handleClaim(w http.ResponseWriter, r *http.Request) {
	content, err := hex.DecodeString(r.PathValue("content"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "", "claim must be hex encoded")
		return
	}

	fp, rec, err := s.backend.Claim(content)
	switch {
	case errors.Is(err, claims.ErrClaimTooLong):
		writeError(w, http.StatusBadRequest, claims.Code(err), err.Error())
		return
	case errors.Is(err, claims.ErrClaimNotExist):
		writeError(w, http.StatusNotFound, claims.Code(err), "claim not found")
		return
	case err != nil:
		logger.Error("claim lookup failed", "error", err)
		writeError(w, http.StatusInternalServerError, "", "lookup failed")
		return
	}

	writeJSON(w, http.StatusOK, ClaimResponse{
		Fingerprint: hex.EncodeToString(fp.Bytes()),
		Owner:       rec.Owner.String(),
		Timestamp:   rec.Timestamp,
	})
}

// handleReceipt handles GET /receipt/{hash}.
func (s *Server) handleReceipt(w http.ResponseWriter, r *http.Request) {
	hash, ok := parseHash(r.PathValue("hash"))
	if !ok {
		writeError(w, http.StatusBadRequest, "", "hash must be 32 hex encoded bytes")
		return
	}

	receipt, err := s.backend.Receipt(hash)
	if err != nil {
		logger.Error("receipt lookup failed", "error", err)
		writeError(w, http.StatusInternalServerError, "", "lookup failed")
		return
	}

	if receipt == nil {
		if s.backend.IsPending(hash) {
			writeError(w, http.StatusNotFound, "", "transaction pending")
			return
		}

		writeError(w, http.StatusNotFound, "", "transaction unknown")
		return
	}

	writeJSON(w, http.StatusOK, toReceiptResponse(receipt))
}

// handleEvents handles GET /events/{height}.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	height, err := strconv.ParseUint(r.PathValue("height"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "", "height must be an unsigned integer")
		return
	}

	entries, err := s.backend.Events(height)
	if err != nil {
		logger.Error("events lookup failed", "height", height, "error", err)
		writeError(w, http.StatusInternalServerError, "", "lookup failed")
		return
	}

	events := make([]EventResponse, 0, len(entries))
	for _, e := range entries {
		events = append(events, toEventResponse(e))
	}

	writeJSON(w, http.StatusOK, events)
}

// handleHealth handles GET /health requests.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// handleStatus handles GET /status requests.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	count, err := s.backend.ClaimCount()
	if err != nil {
		logger.Error("claim count failed", "error", err)
		writeError(w, http.StatusInternalServerError, "", "status not available")
		return
	}

	writeJSON(w, http.StatusOK, StatusResponse{
		Height:         s.backend.Height(),
		Pending:        s.backend.PendingCount(),
		Claims:         count,
		MaxClaimLength: s.backend.MaxClaimLength(),
	})
}

// handleSnapshot handles GET /snapshot, returning a zstd compressed snapshot.
func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	data, err := s.backend.Snapshot()
	if err != nil {
		logger.Error("create snapshot failed", "error", err)
		writeError(w, http.StatusInternalServerError, "", "snapshot failed")
		return
	}

	compressed, err := sync.CompressSnapshot(data)
	if err != nil {
		logger.Error("compress snapshot failed", "error", err)
		writeError(w, http.StatusInternalServerError, "", "snapshot failed")
		return
	}

	logger.Info("snapshot served",
		"raw", len(data),
		"compressed", len(compressed),
		logger.Timed(start),
	)

	w.Header().Set("Content-Type", "application/zstd")
	w.WriteHeader(http.StatusOK)
	w.Write(compressed)
}

// parseHash decodes a 32-byte hex hash.
func parseHash(s string) ([32]byte, bool) {
	var hash [32]byte

	raw, err := hex.DecodeString(s)
	if err != nil || len(raw) != len(hash) {
		return hash, false
	}

	copy(hash[:], raw)

	return hash, true
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes an error response. code is the registry error name, if any.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}
