// Package apperr defines the coded sentinel errors shared by the ledger and
// registry services. Every failing operation aborts with exactly one of
// these; the HTTP layer surfaces the code in the error payload.
package apperr

import "errors"

// Error is a sentinel failure with a small stable integer code.
type Error struct {
	Code    int
	Message string
}

func (e *Error) Error() string { return e.Message }

var (
	// ErrNotOwner rejects a mutation attempted by anyone but the owner.
	ErrNotOwner = &Error{Code: 1, Message: "caller is not the owner"}
	// ErrPolicyNotFound rejects a policy mutation when the entry has no policy.
	ErrPolicyNotFound = &Error{Code: 2, Message: "no policy exists for entry"}
	// ErrAlreadyExists rejects creating a second policy for the same entry.
	ErrAlreadyExists = &Error{Code: 3, Message: "policy already exists for entry"}
	// ErrAlreadyAuthorized rejects granting an address that is already listed.
	ErrAlreadyAuthorized = &Error{Code: 4, Message: "address is already authorized"}
	// ErrNotAuthorized rejects revoking an address that is not listed.
	ErrNotAuthorized = &Error{Code: 5, Message: "address is not authorized"}
	// ErrInvalidSealType rejects grant and revoke on a public policy.
	ErrInvalidSealType = &Error{Code: 6, Message: "operation requires a private seal"}
	// ErrEntryRefNotFound rejects a sequence lookup with no minted entry.
	ErrEntryRefNotFound = &Error{Code: 7, Message: "no entry minted at sequence"}
)

// CodeOf extracts the integer code from err, or 0 when err carries none.
func CodeOf(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return 0
}
