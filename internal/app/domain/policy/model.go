// Package policy defines the access policy registry domain model.
package policy

import "time"

// SealType is the access-control mode of a piece of sealed content.
type SealType string

const (
	// SealPublic content is readable by anyone.
	SealPublic SealType = "public"
	// SealPrivate content is readable by the owner and the authorized list.
	SealPrivate SealType = "private"
)

// AccessPolicy is the access-control record for one entry. The seal type is
// immutable after creation and a policy is never deleted. Authorized is only
// populated for private policies and holds no duplicates; revoke preserves
// the relative order of the remaining addresses.
type AccessPolicy struct {
	ID      string
	EntryID string
	// Owner is the address recorded at policy-creation time. It is not
	// re-derived from the entry asset on later operations.
	Owner      string
	Seal       SealType
	Authorized []string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// IsPublic reports whether the policy seals content publicly.
func (p AccessPolicy) IsPublic() bool {
	return p.Seal == SealPublic
}

// Grants reports whether the policy grants read access to requester.
// The owner always has access; a public seal admits everyone.
func (p AccessPolicy) Grants(requester string) bool {
	if p.IsPublic() {
		return true
	}
	if requester == p.Owner {
		return true
	}
	for _, addr := range p.Authorized {
		if addr == requester {
			return true
		}
	}
	return false
}
