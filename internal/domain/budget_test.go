package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func datePtr(s string) *Date {
	d := date(s)
	return &d
}

func amount(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// testBudget builds a small but fully populated document.
func testBudget(t *testing.T) Budget {
	t.Helper()

	b := NewBudget(7, "Household")
	b, err := b.WithDates(date("2024-01-01"), date("2024-12-31"))
	require.NoError(t, err)

	b = b.SetAccount(Account{
		ID: 1, Name: "Checking", InitialBalance: amount("250.00"),
		CurrencyCode: "CAD", Position: 0,
	})
	b = b.SetAccount(Account{
		ID: 2, Name: "Cash", CurrencyCode: "CAD", Position: 1,
		Metadata: map[string]any{"externalAccountId": "abc123"},
	})
	b = b.SetCategoryGroup(CategoryGroup{ID: 10, Name: "Essentials"})
	b = b.SetCategory(Category{
		ID: 20, Name: "Groceries", GroupID: 10, CurrencyCode: "CAD",
		Rules: []CategoryRule{{Amount: amount("400"), Period: PeriodMonth, RepeatN: 1}},
	})
	b = b.SetCategory(Category{ID: 21, Name: "Misc", GroupID: 10, CurrencyCode: "CAD"})
	b = b.SetTransaction(Transaction{
		ID: 100, Date: datePtr("2024-03-15"), Who: "Superstore", AccountID: 1,
		Detail: []TransactionDetail{
			{Amount: amount("-54.10"), Description: "food", CategoryID: 20},
			{Amount: amount("-9.99"), Description: "other", CategoryID: 21},
		},
	})
	b = b.SetTransaction(Transaction{
		ID: 101, Who: "pending cheque", Pending: true,
		Detail: []TransactionDetail{{Amount: amount("-20")}},
	})
	return b
}

func TestBudget_MutatorsDoNotTouchOriginal(t *testing.T) {
	t.Parallel()

	original := testBudget(t)
	snapshot := testBudget(t)

	modified := original.SetAccount(Account{ID: 3, Name: "Savings"})
	modified = modified.DeleteTransaction(100)
	modified = modified.WithName("Renamed")
	modified = modified.DeleteCategory(20)

	assert.True(t, original.Equal(snapshot), "original must be unchanged")
	assert.False(t, modified.Equal(original))

	_, ok := original.Account(3)
	assert.False(t, ok)
	_, ok = original.Transaction(100)
	assert.True(t, ok)
}

func TestBudget_AccountOrdering(t *testing.T) {
	t.Parallel()

	b := Budget{}
	b = b.SetAccount(Account{ID: 5, Name: "Third", Position: 2})
	b = b.SetAccount(Account{ID: 9, Name: "First", Position: 0})
	b = b.SetAccount(Account{ID: 2, Name: "Second", Position: 1})

	accounts := b.Accounts()
	require.Len(t, accounts, 3)
	assert.Equal(t, "First", accounts[0].Name)
	assert.Equal(t, "Second", accounts[1].Name)
	assert.Equal(t, "Third", accounts[2].Name)
}

func TestBudget_WithDates_RejectsInvertedRange(t *testing.T) {
	t.Parallel()

	b := Budget{}
	_, err := b.WithDates(date("2024-06-01"), date("2024-01-01"))
	require.ErrorIs(t, err, ErrValidation)
}

func TestBudget_HasID(t *testing.T) {
	t.Parallel()

	b := testBudget(t)
	assert.True(t, b.HasID(CollectionAccounts, 1))
	assert.True(t, b.HasID(CollectionCategories, 20))
	assert.True(t, b.HasID(CollectionCategoryGroups, 10))
	assert.True(t, b.HasID(CollectionTransactions, 101))
	assert.False(t, b.HasID(CollectionTransactions, 999))
	assert.False(t, b.HasID("no-such-collection", 1))
}

func TestBudget_DeleteLeavesDanglingReferences(t *testing.T) {
	t.Parallel()

	b := testBudget(t)
	b = b.DeleteCategory(20)

	txn, ok := b.Transaction(100)
	require.True(t, ok)
	assert.Equal(t, int64(20), txn.Detail[0].CategoryID, "dangling reference is kept")
}

func TestNewBudget_CoversCurrentYear(t *testing.T) {
	t.Parallel()

	b := NewBudget(1, "New Budget")
	year := time.Now().Year()
	assert.Equal(t, DateFromYMD(year, time.January, 1), b.StartDate)
	assert.Equal(t, DateFromYMD(year, time.December, 31), b.EndDate)
	assert.Equal(t, "New Budget", b.Name)
}

func TestDate_RoundTripAndClamp(t *testing.T) {
	t.Parallel()

	d := date("2011-12-13")
	assert.Equal(t, "2011-12-13", d.String())
	assert.Equal(t, Date(0), date("2000-01-01"))

	start, end := date("2024-01-01"), date("2024-12-31")
	assert.Equal(t, start, date("2023-05-01").Clamp(start, end))
	assert.Equal(t, end, date("2025-05-01").Clamp(start, end))
	assert.Equal(t, date("2024-05-01"), date("2024-05-01").Clamp(start, end))
}
