package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlain_RoundTrip(t *testing.T) {
	t.Parallel()

	original := testBudget(t)

	restored, err := FromPlain(original.ToPlain())
	require.NoError(t, err)
	assert.True(t, original.Equal(restored))
}

func TestPlain_RoundTripThroughJSON(t *testing.T) {
	t.Parallel()

	original := testBudget(t)

	raw, err := json.Marshal(original.ToPlain())
	require.NoError(t, err)

	var plain map[string]any
	require.NoError(t, json.Unmarshal(raw, &plain))

	restored, err := FromPlain(plain)
	require.NoError(t, err)
	assert.True(t, original.Equal(restored))
}

func TestPlain_EmptyBudget(t *testing.T) {
	t.Parallel()

	b := NewBudget(3, "Empty")
	restored, err := FromPlain(b.ToPlain())
	require.NoError(t, err)
	assert.True(t, b.Equal(restored))
	assert.Empty(t, restored.Accounts())
	assert.Empty(t, restored.Transactions())
}

func TestFromPlain_RejectsInvertedDateRange(t *testing.T) {
	t.Parallel()

	plain := NewBudget(1, "X").ToPlain()
	plain["startDate"] = int64(500)
	plain["endDate"] = int64(100)

	_, err := FromPlain(plain)
	require.ErrorIs(t, err, ErrValidation)
}

func TestFromPlain_RejectsMissingDates(t *testing.T) {
	t.Parallel()

	_, err := FromPlain(map[string]any{"id": int64(1), "name": "X"})
	require.ErrorIs(t, err, ErrValidation)
}

func TestFromPlain_RejectsBadTransfer(t *testing.T) {
	t.Parallel()

	b := NewBudget(1, "X")
	plain := b.ToPlain()
	plain["transactions"] = []any{
		map[string]any{
			"id":         int64(1),
			"isTransfer": true,
			"detail": []any{
				map[string]any{"amount": "5", "categoryId": int64(9)},
			},
		},
	}

	_, err := FromPlain(plain)
	require.ErrorIs(t, err, ErrValidation)
}

func TestPlain_NullableTransactionDate(t *testing.T) {
	t.Parallel()

	b := Budget{}
	b, err := b.WithDates(date("2024-01-01"), date("2024-12-31"))
	require.NoError(t, err)
	b = b.SetTransaction(Transaction{ID: 1, Pending: true})

	plain := b.ToPlain()
	txns := plain["transactions"].([]any)
	require.Len(t, txns, 1)
	assert.Nil(t, txns[0].(map[string]any)["date"])

	restored, err := FromPlain(plain)
	require.NoError(t, err)
	txn, ok := restored.Transaction(1)
	require.True(t, ok)
	assert.Nil(t, txn.Date)
}

func TestPlain_AutomaticVersusFixedRules(t *testing.T) {
	t.Parallel()

	b := Budget{}
	b, err := b.WithDates(0, 1)
	require.NoError(t, err)
	b = b.SetCategory(Category{ID: 1, Name: "Flexible"})
	b = b.SetCategory(Category{ID: 2, Name: "Fixed", Rules: []CategoryRule{}})

	restored, err := FromPlain(b.ToPlain())
	require.NoError(t, err)

	flexible, _ := restored.Category(1)
	fixed, _ := restored.Category(2)
	assert.True(t, flexible.IsAutomatic())
	assert.False(t, fixed.IsAutomatic())
	assert.True(t, b.Equal(restored))
}
