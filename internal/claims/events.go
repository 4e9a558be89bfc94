package claims

// EventKind names an event type. The strings are part of the journal format.
type EventKind string

const (
	KindClaimCreated     EventKind = "ClaimCreated"
	KindClaimRevoked     EventKind = "ClaimRevoked"
	KindClaimTransferred EventKind = "ClaimTransfered"
)

// Event is emitted once per successful registry operation.
type Event interface {
	Kind() EventKind
	// Content returns the raw content bytes the caller submitted.
	Content() []byte
}

// ClaimCreated records a new claim.
type ClaimCreated struct {
	Account AccountID
	Claim   []byte
}

// ClaimRevoked records a removed claim.
type ClaimRevoked struct {
	Account AccountID
	Claim   []byte
}

// ClaimTransferred records an ownership change. PreviousOwner always equals
// Caller; both are kept to preserve the (owner, caller, content) field order.
type ClaimTransferred struct {
	PreviousOwner AccountID
	Caller        AccountID
	Claim         []byte
}

func (e ClaimCreated) Kind() EventKind     { return KindClaimCreated }
func (e ClaimRevoked) Kind() EventKind     { return KindClaimRevoked }
func (e ClaimTransferred) Kind() EventKind { return KindClaimTransferred }

func (e ClaimCreated) Content() []byte     { return e.Claim }
func (e ClaimRevoked) Content() []byte     { return e.Claim }
func (e ClaimTransferred) Content() []byte { return e.Claim }
