package claims

import (
	"bytes"
	"errors"
	"maps"
	"testing"
)

// memStore is a map-backed Store for tests.
type memStore struct {
	records map[Fingerprint]Record
	failing error // failing is returned by every call when set
}

func newMemStore() *memStore {
	return &memStore{records: make(map[Fingerprint]Record)}
}

func (m *memStore) Contains(fp Fingerprint) (bool, error) {
	if m.failing != nil {
		return false, m.failing
	}
	_, ok := m.records[fp]
	return ok, nil
}

func (m *memStore) Get(fp Fingerprint) (Record, bool, error) {
	if m.failing != nil {
		return Record{}, false, m.failing
	}
	rec, ok := m.records[fp]
	return rec, ok, nil
}

func (m *memStore) Insert(fp Fingerprint, rec Record) error {
	if m.failing != nil {
		return m.failing
	}
	m.records[fp] = rec
	return nil
}

func (m *memStore) Remove(fp Fingerprint) error {
	if m.failing != nil {
		return m.failing
	}
	delete(m.records, fp)
	return nil
}

// manualClock returns a settable height.
type manualClock struct {
	height uint64
}

func (c *manualClock) Now() uint64 { return c.height }

// eventLog captures emitted events.
type eventLog struct {
	events []Event
}

func (l *eventLog) Emit(ev Event) { l.events = append(l.events, ev) }

// fixture bundles a registry with its collaborators.
type fixture struct {
	reg    *Registry
	store  *memStore
	clock  *manualClock
	events *eventLog
}

func newFixture(t *testing.T, maxLen uint32) *fixture {
	t.Helper()

	f := &fixture{
		store:  newMemStore(),
		clock:  &manualClock{height: 1},
		events: &eventLog{},
	}
	f.reg = NewRegistry(Config{MaxClaimLength: maxLen}, f.store, f.clock, f.events)

	return f
}

// snapshot copies the store contents for later comparison.
func (f *fixture) snapshot() map[Fingerprint]Record {
	return maps.Clone(f.store.records)
}

func account(b byte) AccountID {
	var a AccountID
	for i := range a {
		a[i] = b
	}
	return a
}

var (
	alice = account(0xA1)
	bob   = account(0xB0)
	carol = account(0xC0)
)

func fingerprint(t *testing.T, content []byte) Fingerprint {
	t.Helper()

	fp, err := NewFingerprint(content, uint32(len(content)))
	if err != nil {
		t.Fatalf("NewFingerprint: %v", err)
	}

	return fp
}

func TestNewFingerprint_Boundary(t *testing.T) {
	if _, err := NewFingerprint([]byte{1, 2, 3, 4}, 4); err != nil {
		t.Errorf("exact length should be accepted: %v", err)
	}

	if _, err := NewFingerprint([]byte{1, 2, 3, 4, 5}, 4); !errors.Is(err, ErrClaimTooLong) {
		t.Errorf("expected ErrClaimTooLong, got %v", err)
	}

	if _, err := NewFingerprint(nil, 0); err != nil {
		t.Errorf("empty content within zero limit should be accepted: %v", err)
	}
}

func TestNewFingerprint_Equality(t *testing.T) {
	a, _ := NewFingerprint([]byte("abc"), 8)
	b, _ := NewFingerprint([]byte{'a', 'b', 'c'}, 8)

	if a != b {
		t.Error("equal bytes should give equal fingerprints")
	}

	c, _ := NewFingerprint([]byte("ab"), 8)
	if a == c {
		t.Error("prefix should not equal full fingerprint")
	}
}

func TestNewFingerprint_CopiesInput(t *testing.T) {
	buf := []byte{1, 2, 3}
	fp, _ := NewFingerprint(buf, 8)

	buf[0] = 9

	if !bytes.Equal(fp.Bytes(), []byte{1, 2, 3}) {
		t.Errorf("fingerprint aliased caller buffer: %x", fp.Bytes())
	}
}

func TestCreateClaim(t *testing.T) {
	f := newFixture(t, 8)
	f.clock.height = 7

	if err := f.reg.CreateClaim(alice, []byte("doc")); err != nil {
		t.Fatalf("CreateClaim: %v", err)
	}

	rec, ok := f.store.records[fingerprint(t, []byte("doc"))]
	if !ok {
		t.Fatal("record not stored")
	}

	if rec.Owner != alice || rec.Timestamp != 7 {
		t.Errorf("unexpected record %+v", rec)
	}

	if len(f.events.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(f.events.events))
	}

	ev, ok := f.events.events[0].(ClaimCreated)
	if !ok {
		t.Fatalf("expected ClaimCreated, got %T", f.events.events[0])
	}

	if ev.Account != alice || string(ev.Claim) != "doc" {
		t.Errorf("unexpected event %+v", ev)
	}
}

func TestCreateClaim_Uniqueness(t *testing.T) {
	f := newFixture(t, 8)

	if err := f.reg.CreateClaim(alice, []byte("doc")); err != nil {
		t.Fatalf("CreateClaim: %v", err)
	}

	for _, caller := range []AccountID{alice, bob} {
		err := f.reg.CreateClaim(caller, []byte("doc"))
		if !errors.Is(err, ErrProofAlreadyExist) {
			t.Errorf("caller %s: expected ErrProofAlreadyExist, got %v", caller.Short(), err)
		}
	}
}

func TestRevokeClaim(t *testing.T) {
	f := newFixture(t, 8)
	_ = f.reg.CreateClaim(alice, []byte("doc"))

	if err := f.reg.RevokeClaim(alice, []byte("doc")); err != nil {
		t.Fatalf("RevokeClaim: %v", err)
	}

	if len(f.store.records) != 0 {
		t.Error("record should be removed")
	}

	ev, ok := f.events.events[1].(ClaimRevoked)
	if !ok || ev.Account != alice || string(ev.Claim) != "doc" {
		t.Errorf("unexpected event %+v", f.events.events[1])
	}
}

func TestRevokeClaim_NotExist(t *testing.T) {
	f := newFixture(t, 8)

	err := f.reg.RevokeClaim(alice, []byte("doc"))
	if !errors.Is(err, ErrClaimNotExist) {
		t.Errorf("expected ErrClaimNotExist, got %v", err)
	}
}

func TestRevokeThenRecreate(t *testing.T) {
	f := newFixture(t, 8)

	_ = f.reg.CreateClaim(alice, []byte("doc"))
	_ = f.reg.RevokeClaim(alice, []byte("doc"))

	if err := f.reg.CreateClaim(bob, []byte("doc")); err != nil {
		t.Fatalf("recreate: %v", err)
	}

	_, rec, err := f.reg.Lookup([]byte("doc"))
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}

	if rec.Owner != bob {
		t.Errorf("expected owner bob, got %s", rec.Owner.Short())
	}
}

func TestTransferClaim(t *testing.T) {
	f := newFixture(t, 8)
	f.clock.height = 3
	_ = f.reg.CreateClaim(alice, []byte("doc"))

	f.clock.height = 9
	if err := f.reg.TransferClaim(alice, []byte("doc"), bob); err != nil {
		t.Fatalf("TransferClaim: %v", err)
	}

	if len(f.store.records) != 1 {
		t.Fatalf("expected exactly 1 record, got %d", len(f.store.records))
	}

	rec := f.store.records[fingerprint(t, []byte("doc"))]
	if rec.Owner != bob {
		t.Errorf("expected owner bob, got %s", rec.Owner.Short())
	}

	if rec.Timestamp != 9 {
		t.Errorf("expected timestamp 9, got %d", rec.Timestamp)
	}

	ev, ok := f.events.events[1].(ClaimTransferred)
	if !ok {
		t.Fatalf("expected ClaimTransferred, got %T", f.events.events[1])
	}

	if ev.PreviousOwner != alice || ev.Caller != alice || string(ev.Claim) != "doc" {
		t.Errorf("unexpected event %+v", ev)
	}

	if ev.Kind() != "ClaimTransfered" {
		t.Errorf("unexpected kind %q", ev.Kind())
	}
}

func TestTransferClaim_Self(t *testing.T) {
	f := newFixture(t, 8)
	_ = f.reg.CreateClaim(alice, []byte("doc"))

	f.clock.height = 5
	if err := f.reg.TransferClaim(alice, []byte("doc"), alice); err != nil {
		t.Fatalf("self transfer: %v", err)
	}

	rec := f.store.records[fingerprint(t, []byte("doc"))]
	if rec.Owner != alice || rec.Timestamp != 5 {
		t.Errorf("self transfer should refresh timestamp, got %+v", rec)
	}

	if len(f.events.events) != 2 {
		t.Errorf("self transfer should emit an event, got %d events", len(f.events.events))
	}
}

func TestOwnershipGating(t *testing.T) {
	f := newFixture(t, 8)
	_ = f.reg.CreateClaim(alice, []byte("doc"))
	before := f.snapshot()

	if err := f.reg.RevokeClaim(bob, []byte("doc")); !errors.Is(err, ErrNotClaimOwner) {
		t.Errorf("revoke: expected ErrNotClaimOwner, got %v", err)
	}

	if err := f.reg.TransferClaim(bob, []byte("doc"), bob); !errors.Is(err, ErrNotClaimOwner) {
		t.Errorf("transfer: expected ErrNotClaimOwner, got %v", err)
	}

	if !maps.Equal(before, f.store.records) {
		t.Error("record changed after rejected calls")
	}
}

func TestExistenceCheckedBeforeOwnership(t *testing.T) {
	f := newFixture(t, 8)

	err := f.reg.TransferClaim(bob, []byte("doc"), carol)
	if !errors.Is(err, ErrClaimNotExist) {
		t.Errorf("expected ErrClaimNotExist, got %v", err)
	}
}

func TestLengthBoundary_AllOperations(t *testing.T) {
	f := newFixture(t, 4)
	exact := []byte{1, 2, 3, 4}
	over := []byte{1, 2, 3, 4, 5}

	if err := f.reg.CreateClaim(alice, over); !errors.Is(err, ErrClaimTooLong) {
		t.Errorf("create: expected ErrClaimTooLong, got %v", err)
	}

	if err := f.reg.RevokeClaim(alice, over); !errors.Is(err, ErrClaimTooLong) {
		t.Errorf("revoke: expected ErrClaimTooLong, got %v", err)
	}

	if err := f.reg.TransferClaim(alice, over, bob); !errors.Is(err, ErrClaimTooLong) {
		t.Errorf("transfer: expected ErrClaimTooLong, got %v", err)
	}

	if err := f.reg.CreateClaim(alice, exact); err != nil {
		t.Errorf("create exact: %v", err)
	}

	if err := f.reg.TransferClaim(alice, exact, bob); err != nil {
		t.Errorf("transfer exact: %v", err)
	}

	if err := f.reg.RevokeClaim(bob, exact); err != nil {
		t.Errorf("revoke exact: %v", err)
	}
}

func TestClaimTooLong_BeforeStoreAccess(t *testing.T) {
	f := newFixture(t, 2)
	f.store.failing = errors.New("store offline")

	err := f.reg.CreateClaim(alice, []byte("toolong"))
	if !errors.Is(err, ErrClaimTooLong) {
		t.Errorf("expected ErrClaimTooLong before store access, got %v", err)
	}
}

func TestNoOpOnFailure(t *testing.T) {
	f := newFixture(t, 4)
	_ = f.reg.CreateClaim(alice, []byte{1})
	_ = f.reg.CreateClaim(bob, []byte{2})

	before := f.snapshot()
	eventsBefore := len(f.events.events)

	failing := []struct {
		name string
		call func() error
		want error
	}{
		{"too long", func() error { return f.reg.CreateClaim(alice, []byte{1, 2, 3, 4, 5}) }, ErrClaimTooLong},
		{"already exists", func() error { return f.reg.CreateClaim(carol, []byte{1}) }, ErrProofAlreadyExist},
		{"not exist", func() error { return f.reg.RevokeClaim(alice, []byte{3}) }, ErrClaimNotExist},
		{"not owner revoke", func() error { return f.reg.RevokeClaim(alice, []byte{2}) }, ErrNotClaimOwner},
		{"not owner transfer", func() error { return f.reg.TransferClaim(carol, []byte{1}, carol) }, ErrNotClaimOwner},
	}

	for _, tc := range failing {
		f.clock.height++

		if err := tc.call(); !errors.Is(err, tc.want) {
			t.Errorf("%s: expected %v, got %v", tc.name, tc.want, err)
		}

		if !maps.Equal(before, f.store.records) {
			t.Errorf("%s: registry state changed", tc.name)
		}

		if len(f.events.events) != eventsBefore {
			t.Errorf("%s: event emitted on failure", tc.name)
		}
	}
}

func TestStoreFailure_NoEvent(t *testing.T) {
	f := newFixture(t, 8)
	f.store.failing = errors.New("disk full")

	err := f.reg.CreateClaim(alice, []byte("doc"))
	if err == nil {
		t.Fatal("expected error")
	}

	if IsRejection(err) {
		t.Errorf("store failure should not be a rejection, got code %q", Code(err))
	}

	if len(f.events.events) != 0 {
		t.Error("event emitted on store failure")
	}
}

func TestCode(t *testing.T) {
	f := newFixture(t, 1)

	err := f.reg.CreateClaim(alice, []byte("xx"))
	if Code(err) != "ClaimTooLong" {
		t.Errorf("expected ClaimTooLong, got %q", Code(err))
	}

	if Code(nil) != "" {
		t.Error("nil error should have empty code")
	}

	if Code(errors.New("boom")) != "Internal" {
		t.Error("foreign error should be Internal")
	}
}

// TestEndToEnd follows the Alice, Bob and Carol scenario with a 4-byte limit.
func TestEndToEnd(t *testing.T) {
	f := newFixture(t, 4)
	doc := []byte{1, 2, 3, 4}

	if err := f.reg.CreateClaim(alice, doc); err != nil {
		t.Fatalf("alice create: %v", err)
	}

	created := f.events.events[0].(ClaimCreated)
	if created.Account != alice || !bytes.Equal(created.Claim, doc) {
		t.Errorf("unexpected created event %+v", created)
	}

	if err := f.reg.CreateClaim(bob, doc); !errors.Is(err, ErrProofAlreadyExist) {
		t.Errorf("bob create: expected ErrProofAlreadyExist, got %v", err)
	}

	f.clock.height = 2
	if err := f.reg.TransferClaim(alice, doc, carol); err != nil {
		t.Fatalf("alice transfer: %v", err)
	}

	transferred := f.events.events[1].(ClaimTransferred)
	if transferred.PreviousOwner != alice || transferred.Caller != alice || !bytes.Equal(transferred.Claim, doc) {
		t.Errorf("unexpected transfer event %+v", transferred)
	}

	if err := f.reg.RevokeClaim(alice, doc); !errors.Is(err, ErrNotClaimOwner) {
		t.Errorf("alice revoke: expected ErrNotClaimOwner, got %v", err)
	}

	if err := f.reg.RevokeClaim(carol, doc); err != nil {
		t.Fatalf("carol revoke: %v", err)
	}

	if _, _, err := f.reg.Lookup(doc); !errors.Is(err, ErrClaimNotExist) {
		t.Errorf("expected fingerprint absent, got %v", err)
	}

	if len(f.events.events) != 3 {
		t.Errorf("expected 3 events, got %d", len(f.events.events))
	}
}
