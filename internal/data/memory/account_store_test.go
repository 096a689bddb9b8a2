package memory

import (
	"testing"

	"github.com/payments-engine/internal/domain/account"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountStore_GetOrCreate(t *testing.T) {
	store := NewAccountStore(account.DisputePolicyStrict)
	assert.Equal(t, 0, store.Len())

	first := store.GetOrCreate(4)
	require.NotNil(t, first)
	assert.Equal(t, uint16(4), first.Client)
	assert.Equal(t, 1, store.Len())

	first.Available = 500
	again := store.GetOrCreate(4)
	assert.Same(t, first, again, "the same account must be returned for a known client")
	assert.Equal(t, 1, store.Len())

	store.GetOrCreate(5)
	assert.Equal(t, 2, store.Len())
	assert.Len(t, store.All(), 2)
}
