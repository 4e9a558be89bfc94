package state

import (
	"encoding/binary"
	"fmt"

	flatbuffers "github.com/google/flatbuffers/go"

	"ClaimChain/internal/claims"
	"ClaimChain/internal/storage"
	"ClaimChain/internal/types"
)

// Key prefixes for the block journal.
var (
	prefixReceipt = []byte("x:") // x:<txhash> -> Receipt
	prefixEvent   = []byte("e:") // e:<height><index> -> Event
	prefixMeta    = []byte("m:") // m:height -> uint64
)

// heightKey holds the last committed block height.
var heightKey = append(append([]byte{}, prefixMeta...), "height"...)

// Receipt is the outcome of one call included in a block.
type Receipt struct {
	TxHash    [32]byte         // TxHash identifies the call
	Height    uint64           // Height is the including block
	Index     uint32           // Index is the position in the block
	Kind      types.CallKind   // Kind is the registry operation
	Sender    claims.AccountID // Sender is the authenticated caller
	Success   bool             // Success is true if the registry applied the call
	ErrorCode string           // ErrorCode is the registry error name on failure
}

// EventEntry is a journaled registry event.
type EventEntry struct {
	Height uint64       // Height is the block that emitted the event
	Index  uint32       // Index orders events within the block
	Event  claims.Event // Event is the registry event
}

// Journal records block metadata: height, receipts and events.
type Journal struct {
	db storage.ReadWriter // db is the storage or batch written to
}

// NewJournal creates a journal backed by db.
func NewJournal(db storage.ReadWriter) *Journal {
	return &Journal{db: db}
}

// Height returns the last committed block height, or 0 for a fresh store.
func (j *Journal) Height() (uint64, error) {
	data, err := j.db.Get(heightKey)
	if err != nil || len(data) < 8 {
		return 0, err
	}

	return binary.BigEndian.Uint64(data), nil
}

// SetHeight records the committed block height.
func (j *Journal) SetHeight(height uint64) error {
	data := make([]byte, 8)
	binary.BigEndian.PutUint64(data, height)

	return j.db.Set(heightKey, data)
}

// PutReceipt stores a receipt under its tx hash.
func (j *Journal) PutReceipt(r Receipt) error {
	return j.db.Set(makeReceiptKey(r.TxHash), encodeReceipt(r))
}

// Receipt returns the receipt for a tx hash, or nil if the call was never included.
func (j *Journal) Receipt(hash [32]byte) (*Receipt, error) {
	data, err := j.db.Get(makeReceiptKey(hash))
	if err != nil || data == nil {
		return nil, err
	}

	return decodeReceipt(data)
}

// HasReceipt reports whether a tx hash was already included.
func (j *Journal) HasReceipt(hash [32]byte) (bool, error) {
	data, err := j.db.Get(makeReceiptKey(hash))
	return data != nil, err
}

// PutEvent appends an event to its block.
func (j *Journal) PutEvent(e EventEntry) error {
	data, err := encodeEvent(e)
	if err != nil {
		return err
	}

	return j.db.Set(makeEventKey(e.Height, e.Index), data)
}

// Events returns the events of a block in emission order.
func (j *Journal) Events(height uint64) ([]EventEntry, error) {
	prefix := makeEventKey(height, 0)[:len(prefixEvent)+8]

	var entries []EventEntry

	err := j.db.IteratePrefix(prefix, func(_, value []byte) error {
		e, err := decodeEvent(value)
		if err != nil {
			return err
		}

		entries = append(entries, e)

		return nil
	})

	return entries, err
}

// makeReceiptKey creates a storage key for a receipt.
func makeReceiptKey(hash [32]byte) []byte {
	key := make([]byte, len(prefixReceipt)+32)
	copy(key, prefixReceipt)
	copy(key[len(prefixReceipt):], hash[:])
	return key
}

// makeEventKey creates a storage key for an event.
// Big-endian height and index keep events ordered by block then position.
func makeEventKey(height uint64, index uint32) []byte {
	key := make([]byte, len(prefixEvent)+8+4)
	copy(key, prefixEvent)
	binary.BigEndian.PutUint64(key[len(prefixEvent):], height)
	binary.BigEndian.PutUint32(key[len(prefixEvent)+8:], index)
	return key
}

// encodeReceipt serializes a receipt as a Receipt table.
func encodeReceipt(r Receipt) []byte {
	builder := flatbuffers.NewBuilder(128)

	hashVec := builder.CreateByteVector(r.TxHash[:])
	senderVec := builder.CreateByteVector(r.Sender[:])
	codeOff := builder.CreateString(r.ErrorCode)

	types.ReceiptStart(builder)
	types.ReceiptAddTxHash(builder, hashVec)
	types.ReceiptAddHeight(builder, r.Height)
	types.ReceiptAddIndex(builder, r.Index)
	types.ReceiptAddSuccess(builder, r.Success)
	types.ReceiptAddErrorCode(builder, codeOff)
	types.ReceiptAddKind(builder, r.Kind)
	types.ReceiptAddSender(builder, senderVec)
	builder.Finish(types.ReceiptEnd(builder))

	return builder.FinishedBytes()
}

// decodeReceipt parses a Receipt table.
func decodeReceipt(data []byte) (r *Receipt, retErr error) {
	defer func() {
		if rec := recover(); rec != nil {
			retErr = fmt.Errorf("malformed receipt")
		}
	}()

	tbl := types.GetRootAsReceipt(data, 0)

	if len(tbl.TxHashBytes()) != 32 || len(tbl.SenderBytes()) != 32 {
		return nil, fmt.Errorf("malformed receipt")
	}

	r = &Receipt{
		Height:    tbl.Height(),
		Index:     tbl.Index(),
		Kind:      tbl.Kind(),
		Success:   tbl.Success(),
		ErrorCode: string(tbl.ErrorCode()),
	}
	copy(r.TxHash[:], tbl.TxHashBytes())
	copy(r.Sender[:], tbl.SenderBytes())

	return r, nil
}

// encodeEvent serializes an event as an Event table.
func encodeEvent(e EventEntry) ([]byte, error) {
	var (
		kind            types.EventKind
		account, caller claims.AccountID
	)

	switch ev := e.Event.(type) {
	case claims.ClaimCreated:
		kind, account = types.EventKindClaimCreated, ev.Account
	case claims.ClaimRevoked:
		kind, account = types.EventKindClaimRevoked, ev.Account
	case claims.ClaimTransferred:
		kind, account, caller = types.EventKindClaimTransfered, ev.PreviousOwner, ev.Caller
	default:
		return nil, fmt.Errorf("unknown event type %T", e.Event)
	}

	builder := flatbuffers.NewBuilder(128)

	accountVec := builder.CreateByteVector(account[:])
	callerVec := builder.CreateByteVector(caller[:])
	claimVec := builder.CreateByteVector(e.Event.Content())

	types.EventStart(builder)
	types.EventAddKind(builder, kind)
	types.EventAddHeight(builder, e.Height)
	types.EventAddIndex(builder, e.Index)
	types.EventAddAccount(builder, accountVec)
	types.EventAddCaller(builder, callerVec)
	types.EventAddClaim(builder, claimVec)
	builder.Finish(types.EventEnd(builder))

	return builder.FinishedBytes(), nil
}

// decodeEvent parses an Event table back into a registry event.
func decodeEvent(data []byte) (e EventEntry, retErr error) {
	defer func() {
		if rec := recover(); rec != nil {
			retErr = fmt.Errorf("malformed event")
		}
	}()

	tbl := types.GetRootAsEvent(data, 0)

	var account, caller claims.AccountID
	copy(account[:], tbl.AccountBytes())
	copy(caller[:], tbl.CallerBytes())

	content := make([]byte, len(tbl.ClaimBytes()))
	copy(content, tbl.ClaimBytes())

	e.Height = tbl.Height()
	e.Index = tbl.Index()

	switch tbl.Kind() {
	case types.EventKindClaimCreated:
		e.Event = claims.ClaimCreated{Account: account, Claim: content}
	case types.EventKindClaimRevoked:
		e.Event = claims.ClaimRevoked{Account: account, Claim: content}
	case types.EventKindClaimTransfered:
		e.Event = claims.ClaimTransferred{PreviousOwner: account, Caller: caller, Claim: content}
	default:
		return EventEntry{}, fmt.Errorf("unknown event kind %s", tbl.Kind())
	}

	return e, nil
}
