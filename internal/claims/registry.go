package claims

import "fmt"

// Store is the persistent Fingerprint -> Record map.
type Store interface {
	// Contains reports whether fp has a live record.
	Contains(fp Fingerprint) (bool, error)
	// Get returns the record for fp and whether it exists.
	Get(fp Fingerprint) (Record, bool, error)
	// Insert stores rec under fp, replacing any existing record.
	Insert(fp Fingerprint, rec Record) error
	// Remove deletes the record for fp.
	Remove(fp Fingerprint) error
}

// Clock supplies the current logical time (block height).
type Clock interface {
	Now() uint64
}

// EventSink receives one event per successful operation.
type EventSink interface {
	Emit(ev Event)
}

// Registry enforces the claim state transitions.
// It does no locking: callers must apply operations one at a time.
type Registry struct {
	cfg    Config    // cfg holds the fingerprint limit
	store  Store     // store holds the fingerprint -> record map
	clock  Clock     // clock dates created and transferred records
	events EventSink // events receives the outcome of successful operations
}

// NewRegistry creates a registry over the given collaborators.
func NewRegistry(cfg Config, store Store, clock Clock, events EventSink) *Registry {
	return &Registry{
		cfg:    cfg,
		store:  store,
		clock:  clock,
		events: events,
	}
}

// MaxClaimLength returns the configured fingerprint limit.
func (r *Registry) MaxClaimLength() uint32 {
	return r.cfg.MaxClaimLength
}

// CreateClaim records caller as the owner of content.
// Fails with ErrClaimTooLong or ErrProofAlreadyExist.
func (r *Registry) CreateClaim(caller AccountID, content []byte) error {
	fp, err := NewFingerprint(content, r.cfg.MaxClaimLength)
	if err != nil {
		return err
	}

	exists, err := r.store.Contains(fp)
	if err != nil {
		return fmt.Errorf("lookup claim:\n%w", err)
	}

	if exists {
		return fmt.Errorf("%w: %s", ErrProofAlreadyExist, fp)
	}

	rec := Record{Owner: caller, Timestamp: r.clock.Now()}
	if err := r.store.Insert(fp, rec); err != nil {
		return fmt.Errorf("insert claim:\n%w", err)
	}

	r.events.Emit(ClaimCreated{Account: caller, Claim: clone(content)})

	return nil
}

// RevokeClaim removes a claim owned by caller.
// Fails with ErrClaimTooLong, ErrClaimNotExist or ErrNotClaimOwner.
func (r *Registry) RevokeClaim(caller AccountID, content []byte) error {
	fp, _, err := r.owned(caller, content)
	if err != nil {
		return err
	}

	if err := r.store.Remove(fp); err != nil {
		return fmt.Errorf("remove claim:\n%w", err)
	}

	r.events.Emit(ClaimRevoked{Account: caller, Claim: clone(content)})

	return nil
}

// TransferClaim hands a claim owned by caller to dest and refreshes its timestamp.
// A transfer to caller itself is a normal transfer.
// Fails with ErrClaimTooLong, ErrClaimNotExist or ErrNotClaimOwner.
func (r *Registry) TransferClaim(caller AccountID, content []byte, dest AccountID) error {
	fp, rec, err := r.owned(caller, content)
	if err != nil {
		return err
	}

	next := Record{Owner: dest, Timestamp: r.clock.Now()}
	if err := r.store.Insert(fp, next); err != nil {
		return fmt.Errorf("update claim:\n%w", err)
	}

	r.events.Emit(ClaimTransferred{
		PreviousOwner: rec.Owner,
		Caller:        caller,
		Claim:         clone(content),
	})

	return nil
}

// Lookup returns the live record for content.
// Fails with ErrClaimTooLong or ErrClaimNotExist.
func (r *Registry) Lookup(content []byte) (Fingerprint, Record, error) {
	fp, err := NewFingerprint(content, r.cfg.MaxClaimLength)
	if err != nil {
		return Fingerprint{}, Record{}, err
	}

	rec, found, err := r.store.Get(fp)
	if err != nil {
		return fp, Record{}, fmt.Errorf("lookup claim:\n%w", err)
	}

	if !found {
		return fp, Record{}, fmt.Errorf("%w: %s", ErrClaimNotExist, fp)
	}

	return fp, rec, nil
}

// owned resolves content to a live record owned by caller.
// Existence is checked before ownership.
func (r *Registry) owned(caller AccountID, content []byte) (Fingerprint, Record, error) {
	fp, rec, err := r.Lookup(content)
	if err != nil {
		return fp, rec, err
	}

	if rec.Owner != caller {
		return fp, rec, fmt.Errorf("%w: %s owned by %s", ErrNotClaimOwner, fp, rec.Owner.Short())
	}

	return fp, rec, nil
}

// clone copies content so events do not alias caller buffers.
func clone(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
