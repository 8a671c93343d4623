package idgen

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bradenmacdonald/ratio/internal/domain"
)

func TestPrefixForOpen(t *testing.T) {
	t.Parallel()

	assert.Equal(t, int64(0), PrefixForOpen(0))
	assert.Equal(t, int64(1_000_000), PrefixForOpen(1))
	assert.Equal(t, int64(42_000_000), PrefixForOpen(42))
}

func TestNextID_FreshBlock(t *testing.T) {
	t.Parallel()

	b := domain.NewBudget(1, "X")
	assert.Equal(t, int64(2_000_000), NextID(b, domain.CollectionAccounts, 2_000_000))
}

func TestNextID_SkipsExistingIDs(t *testing.T) {
	t.Parallel()

	b := domain.NewBudget(1, "X")
	b = b.SetAccount(domain.Account{ID: 2_000_000, Name: "A"})
	b = b.SetAccount(domain.Account{ID: 2_000_001, Name: "B"})
	b = b.SetAccount(domain.Account{ID: 2_000_003, Name: "D"})

	assert.Equal(t, int64(2_000_002), NextID(b, domain.CollectionAccounts, 2_000_000))
}

func TestNextID_CollectionsAreIndependent(t *testing.T) {
	t.Parallel()

	b := domain.NewBudget(1, "X")
	b = b.SetAccount(domain.Account{ID: 1_000_000, Name: "A"})

	assert.Equal(t, int64(1_000_001), NextID(b, domain.CollectionAccounts, 1_000_000))
	assert.Equal(t, int64(1_000_000), NextID(b, domain.CollectionTransactions, 1_000_000))
}
