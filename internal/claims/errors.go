package claims

import "errors"

// Registry error kinds. Operations wrap these with detail; use errors.Is to match.
var (
	ErrClaimTooLong      = errors.New("claim too long")
	ErrProofAlreadyExist = errors.New("proof already exists")
	ErrClaimNotExist     = errors.New("claim does not exist")
	ErrNotClaimOwner     = errors.New("not claim owner")
)

// codes maps each error kind to its stable name.
var codes = []struct {
	err  error
	code string
}{
	{ErrClaimTooLong, "ClaimTooLong"},
	{ErrProofAlreadyExist, "ProofAlreadyExist"},
	{ErrClaimNotExist, "ClaimNotExist"},
	{ErrNotClaimOwner, "NotClaimOwner"},
}

// Code returns the stable name of a registry error kind.
// Returns "" for nil and "Internal" for errors that are not registry kinds.
func Code(err error) string {
	if err == nil {
		return ""
	}

	for _, c := range codes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}

	return "Internal"
}

// IsRejection reports whether err is one of the four registry error kinds,
// as opposed to a store failure.
func IsRejection(err error) bool {
	code := Code(err)
	return code != "" && code != "Internal"
}
