package api

import (
	"bytes"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"ClaimChain/internal/auth"
	"ClaimChain/internal/chain"
	"ClaimChain/internal/claims"
	"ClaimChain/internal/metrics"
	"ClaimChain/internal/storage"
	"ClaimChain/internal/sync"
	"ClaimChain/internal/types"
)

// testNode bundles a chain and the API serving it.
type testNode struct {
	chain   *chain.Chain
	handler http.Handler
}

func newTestNode(t *testing.T, maxLen uint32, mempool int) *testNode {
	t.Helper()

	db, err := storage.New(filepath.Join(t.TempDir(), "db"))
	if err != nil {
		t.Fatalf("failed to create storage: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	m := metrics.New()

	c, err := chain.New(db, chain.Config{
		Registry:    claims.Config{MaxClaimLength: maxLen},
		MempoolSize: mempool,
	}, chain.WithMetrics(m))
	if err != nil {
		t.Fatalf("chain.New: %v", err)
	}

	return &testNode{chain: c, handler: New(":0", c, m).Handler()}
}

// do runs a request against the node's routes.
func (n *testNode) do(method, path string, body []byte) *httptest.ResponseRecorder {
	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	}

	req := httptest.NewRequest(method, path, r)
	w := httptest.NewRecorder()
	n.handler.ServeHTTP(w, req)

	return w
}

// produce commits the pending calls.
func (n *testNode) produce(t *testing.T) {
	t.Helper()

	if _, err := n.chain.ProduceBlock(); err != nil {
		t.Fatalf("ProduceBlock: %v", err)
	}
}

func newKey(t *testing.T) ed25519.PrivateKey {
	t.Helper()

	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}

	return priv
}

func accountOf(priv ed25519.PrivateKey) claims.AccountID {
	var id claims.AccountID
	copy(id[:], priv.Public().(ed25519.PublicKey))
	return id
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("failed to parse response %q: %v", w.Body.String(), err)
	}

	return v
}

func TestHealthEndpoint(t *testing.T) {
	n := newTestNode(t, 8, 0)

	w := n.do("GET", "/health", nil)

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}

	if resp := decode[map[string]string](t, w); resp["status"] != "ok" {
		t.Errorf("expected status ok, got %s", resp["status"])
	}
}

func TestSubmitTx_Success(t *testing.T) {
	n := newTestNode(t, 8, 0)

	tx, hash := auth.Build(newKey(t), types.CallKindCreateClaim, []byte("doc"), claims.AccountID{}, 1)

	w := n.do("POST", "/tx", tx)
	if w.Code != http.StatusAccepted {
		t.Fatalf("expected status 202, got %d: %s", w.Code, w.Body.String())
	}

	if resp := decode[SubmitResponse](t, w); resp.Hash != hex.EncodeToString(hash[:]) {
		t.Errorf("expected hash %x, got %s", hash, resp.Hash)
	}

	if n.chain.PendingCount() != 1 {
		t.Errorf("expected 1 pending call, got %d", n.chain.PendingCount())
	}
}

func TestSubmitTx_EmptyBody(t *testing.T) {
	n := newTestNode(t, 8, 0)

	if w := n.do("POST", "/tx", nil); w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", w.Code)
	}
}

func TestSubmitTx_InvalidData(t *testing.T) {
	n := newTestNode(t, 8, 0)

	if w := n.do("POST", "/tx", []byte("invalid")); w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", w.Code)
	}
}

func TestSubmitTx_TamperedClaim(t *testing.T) {
	n := newTestNode(t, 8, 0)

	tx, _ := auth.Build(newKey(t), types.CallKindCreateClaim, []byte("doc"), claims.AccountID{}, 1)
	idx := bytes.Index(tx, []byte("doc"))
	tx[idx] = 'x'

	if w := n.do("POST", "/tx", tx); w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", w.Code)
	}

	if n.chain.PendingCount() != 0 {
		t.Error("tampered call should not reach the mempool")
	}
}

func TestSubmitTx_Duplicate(t *testing.T) {
	n := newTestNode(t, 8, 0)

	tx, _ := auth.Build(newKey(t), types.CallKindCreateClaim, []byte("doc"), claims.AccountID{}, 1)

	n.do("POST", "/tx", tx)

	w := n.do("POST", "/tx", tx)
	if w.Code != http.StatusConflict {
		t.Errorf("expected status 409, got %d", w.Code)
	}
}

func TestSubmitTx_MempoolFull(t *testing.T) {
	n := newTestNode(t, 8, 1)
	key := newKey(t)

	first, _ := auth.Build(key, types.CallKindCreateClaim, []byte("a"), claims.AccountID{}, 1)
	second, _ := auth.Build(key, types.CallKindCreateClaim, []byte("b"), claims.AccountID{}, 2)

	n.do("POST", "/tx", first)

	if w := n.do("POST", "/tx", second); w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status 503, got %d", w.Code)
	}
}

func TestClaimEndpoint(t *testing.T) {
	n := newTestNode(t, 8, 0)
	key := newKey(t)

	tx, _ := auth.Build(key, types.CallKindCreateClaim, []byte("doc"), claims.AccountID{}, 1)
	n.do("POST", "/tx", tx)
	n.produce(t)

	w := n.do("GET", "/claim/"+hex.EncodeToString([]byte("doc")), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	resp := decode[ClaimResponse](t, w)

	if resp.Owner != accountOf(key).String() {
		t.Errorf("unexpected owner %s", resp.Owner)
	}

	if resp.Timestamp != 1 || resp.Fingerprint != hex.EncodeToString([]byte("doc")) {
		t.Errorf("unexpected claim %+v", resp)
	}
}

func TestClaimEndpoint_Errors(t *testing.T) {
	n := newTestNode(t, 4, 0)

	w := n.do("GET", "/claim/"+hex.EncodeToString([]byte("none")), nil)
	if w.Code != http.StatusNotFound || decode[ErrorResponse](t, w).Code != "ClaimNotExist" {
		t.Errorf("missing claim: got %d %s", w.Code, w.Body.String())
	}

	w = n.do("GET", "/claim/"+hex.EncodeToString([]byte("too long")), nil)
	if w.Code != http.StatusBadRequest || decode[ErrorResponse](t, w).Code != "ClaimTooLong" {
		t.Errorf("long claim: got %d %s", w.Code, w.Body.String())
	}

	if w = n.do("GET", "/claim/zz", nil); w.Code != http.StatusBadRequest {
		t.Errorf("bad hex: expected 400, got %d", w.Code)
	}
}

func TestReceiptEndpoint(t *testing.T) {
	n := newTestNode(t, 8, 0)
	alice := newKey(t)
	bob := newKey(t)

	ok, okHash := auth.Build(alice, types.CallKindCreateClaim, []byte("doc"), claims.AccountID{}, 1)
	bad, badHash := auth.Build(bob, types.CallKindRevokeClaim, []byte("doc"), claims.AccountID{}, 1)

	n.do("POST", "/tx", ok)
	n.do("POST", "/tx", bad)

	// pending calls have no receipt yet
	if w := n.do("GET", "/receipt/"+hex.EncodeToString(okHash[:]), nil); w.Code != http.StatusNotFound {
		t.Errorf("pending: expected 404, got %d", w.Code)
	}

	n.produce(t)

	w := n.do("GET", "/receipt/"+hex.EncodeToString(okHash[:]), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	r := decode[ReceiptResponse](t, w)
	if !r.Success || r.Height != 1 || r.Index != 0 || r.Kind != "CreateClaim" {
		t.Errorf("unexpected receipt %+v", r)
	}

	r = decode[ReceiptResponse](t, n.do("GET", "/receipt/"+hex.EncodeToString(badHash[:]), nil))
	if r.Success || r.ErrorCode != "NotClaimOwner" || r.Sender != accountOf(bob).String() {
		t.Errorf("unexpected receipt %+v", r)
	}

	if w := n.do("GET", "/receipt/abcd", nil); w.Code != http.StatusBadRequest {
		t.Errorf("short hash: expected 400, got %d", w.Code)
	}
}

func TestEventsEndpoint(t *testing.T) {
	n := newTestNode(t, 8, 0)
	alice := newKey(t)
	carol := newKey(t)

	create, _ := auth.Build(alice, types.CallKindCreateClaim, []byte("doc"), claims.AccountID{}, 1)
	transfer, _ := auth.Build(alice, types.CallKindTransferClaim, []byte("doc"), accountOf(carol), 2)

	n.do("POST", "/tx", create)
	n.do("POST", "/tx", transfer)
	n.produce(t)

	w := n.do("GET", "/events/1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	events := decode[[]EventResponse](t, w)
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}

	if events[0].Kind != "ClaimCreated" || events[0].Account != accountOf(alice).String() {
		t.Errorf("unexpected first event %+v", events[0])
	}

	if events[1].Kind != "ClaimTransfered" || events[1].PreviousOwner != accountOf(alice).String() {
		t.Errorf("unexpected second event %+v", events[1])
	}

	if empty := decode[[]EventResponse](t, n.do("GET", "/events/99", nil)); len(empty) != 0 {
		t.Errorf("expected no events, got %d", len(empty))
	}

	if w := n.do("GET", "/events/abc", nil); w.Code != http.StatusBadRequest {
		t.Errorf("bad height: expected 400, got %d", w.Code)
	}
}

func TestStatusEndpoint(t *testing.T) {
	n := newTestNode(t, 16, 0)
	key := newKey(t)

	tx, _ := auth.Build(key, types.CallKindCreateClaim, []byte("doc"), claims.AccountID{}, 1)
	n.do("POST", "/tx", tx)
	n.produce(t)

	pending, _ := auth.Build(key, types.CallKindCreateClaim, []byte("next"), claims.AccountID{}, 2)
	n.do("POST", "/tx", pending)

	s := decode[StatusResponse](t, n.do("GET", "/status", nil))

	want := StatusResponse{Height: 1, Pending: 1, Claims: 1, MaxClaimLength: 16}
	if s != want {
		t.Errorf("got %+v, want %+v", s, want)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	n := newTestNode(t, 8, 0)

	tx, _ := auth.Build(newKey(t), types.CallKindCreateClaim, []byte("doc"), claims.AccountID{}, 1)
	n.do("POST", "/tx", tx)
	n.produce(t)

	w := n.do("GET", "/metrics", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	if !strings.Contains(w.Body.String(), `claimchain_calls_applied_total{kind="CreateClaim"} 1`) {
		t.Errorf("applied counter missing from:\n%s", w.Body.String())
	}
}

func TestSnapshotEndpoint(t *testing.T) {
	n := newTestNode(t, 8, 0)

	tx, _ := auth.Build(newKey(t), types.CallKindCreateClaim, []byte("doc"), claims.AccountID{}, 1)
	n.do("POST", "/tx", tx)
	n.produce(t)

	w := n.do("GET", "/snapshot", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	raw, err := sync.DecompressSnapshot(w.Body.Bytes())
	if err != nil {
		t.Fatalf("DecompressSnapshot: %v", err)
	}

	snapshot := types.GetRootAsSnapshot(raw, 0)
	if snapshot.Height() != 1 || snapshot.ClaimsLength() != 1 {
		t.Errorf("unexpected snapshot height %d claims %d", snapshot.Height(), snapshot.ClaimsLength())
	}
}
