package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGrants(t *testing.T) {
	private := AccessPolicy{
		EntryID:    "entry-1",
		Owner:      "alice",
		Seal:       SealPrivate,
		Authorized: []string{"bob", "carol"},
	}

	assert.True(t, private.Grants("alice"), "owner always has access")
	assert.True(t, private.Grants("bob"))
	assert.True(t, private.Grants("carol"))
	assert.False(t, private.Grants("dave"))
	assert.False(t, private.Grants(""))

	public := AccessPolicy{EntryID: "entry-2", Owner: "alice", Seal: SealPublic}
	assert.True(t, public.Grants("anyone"))
	assert.True(t, public.Grants(""))
}

func TestIsPublic(t *testing.T) {
	assert.True(t, AccessPolicy{Seal: SealPublic}.IsPublic())
	assert.False(t, AccessPolicy{Seal: SealPrivate}.IsPublic())
}
