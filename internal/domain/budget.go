// Package domain defines the budget document model: an immutable, versioned
// aggregate of accounts, categories, category groups, and transactions.
// Every mutating method returns a new Budget value and leaves the receiver
// untouched, so concurrent in-flight references stay valid. Only the touched
// collection map is cloned per mutation; unchanged collections are shared
// between versions.
package domain

import (
	"cmp"
	"slices"
	"time"
)

// Collection names, used for ID allocation and lookups by collection.
const (
	CollectionAccounts       = "accounts"
	CollectionCategories     = "categories"
	CollectionCategoryGroups = "categoryGroups"
	CollectionTransactions   = "transactions"
)

// Budget is the versioned document being edited. The zero value is a valid
// empty document.
type Budget struct {
	ID           int64
	Name         string
	CurrencyCode string
	StartDate    Date
	EndDate      Date

	accounts     map[int64]Account
	categories   map[int64]Category
	groups       map[int64]CategoryGroup
	transactions map[int64]Transaction
}

// NewBudget creates an empty budget covering the current calendar year.
func NewBudget(id int64, name string) Budget {
	year := time.Now().Year()
	return Budget{
		ID:           id,
		Name:         name,
		CurrencyCode: "USD",
		StartDate:    DateFromYMD(year, time.January, 1),
		EndDate:      DateFromYMD(year, time.December, 31),
	}
}

// WithName returns a copy with the given name.
func (b Budget) WithName(name string) Budget {
	b.Name = name
	return b
}

// WithCurrency returns a copy with the given currency code.
func (b Budget) WithCurrency(code string) Budget {
	b.CurrencyCode = code
	return b
}

// WithDates returns a copy with the given date range. The range only is
// stored; callers holding a "current date" concept must reclamp it
// themselves.
func (b Budget) WithDates(start, end Date) (Budget, error) {
	if start > end {
		return b, NewValidationError("startDate", "startDate must not be after endDate")
	}
	b.StartDate = start
	b.EndDate = end
	return b, nil
}

// ---------------------------------------------------------------------------
// Accounts
// ---------------------------------------------------------------------------

// Account returns the account with the given ID.
func (b Budget) Account(id int64) (Account, bool) {
	a, ok := b.accounts[id]
	return a, ok
}

// Accounts returns all accounts ordered by position, then ID.
func (b Budget) Accounts() []Account {
	out := make([]Account, 0, len(b.accounts))
	for _, a := range b.accounts {
		out = append(out, a)
	}
	slices.SortFunc(out, func(a, c Account) int {
		if n := cmp.Compare(a.Position, c.Position); n != 0 {
			return n
		}
		return cmp.Compare(a.ID, c.ID)
	})
	return out
}

// SetAccount returns a copy with the account inserted or replaced.
func (b Budget) SetAccount(a Account) Budget {
	b.accounts = cloneWith(b.accounts, a.ID, a)
	return b
}

// DeleteAccount returns a copy without the given account. Transactions
// referencing the account keep their dangling AccountID; it is treated as
// "unassigned" in computations.
func (b Budget) DeleteAccount(id int64) Budget {
	b.accounts = cloneWithout(b.accounts, id)
	return b
}

// ---------------------------------------------------------------------------
// Categories and groups
// ---------------------------------------------------------------------------

// Category returns the category with the given ID.
func (b Budget) Category(id int64) (Category, bool) {
	c, ok := b.categories[id]
	return c, ok
}

// Categories returns all categories ordered by ID.
func (b Budget) Categories() []Category {
	out := make([]Category, 0, len(b.categories))
	for _, c := range b.categories {
		out = append(out, c)
	}
	slices.SortFunc(out, func(a, c Category) int { return cmp.Compare(a.ID, c.ID) })
	return out
}

// SetCategory returns a copy with the category inserted or replaced.
func (b Budget) SetCategory(c Category) Budget {
	b.categories = cloneWith(b.categories, c.ID, c)
	return b
}

// DeleteCategory returns a copy without the given category. Transaction
// details referencing it keep their dangling CategoryID, treated as
// "no category".
func (b Budget) DeleteCategory(id int64) Budget {
	b.categories = cloneWithout(b.categories, id)
	return b
}

// CategoryGroup returns the group with the given ID.
func (b Budget) CategoryGroup(id int64) (CategoryGroup, bool) {
	g, ok := b.groups[id]
	return g, ok
}

// CategoryGroups returns all groups ordered by position, then ID.
func (b Budget) CategoryGroups() []CategoryGroup {
	out := make([]CategoryGroup, 0, len(b.groups))
	for _, g := range b.groups {
		out = append(out, g)
	}
	slices.SortFunc(out, func(a, c CategoryGroup) int {
		if n := cmp.Compare(a.Position, c.Position); n != 0 {
			return n
		}
		return cmp.Compare(a.ID, c.ID)
	})
	return out
}

// SetCategoryGroup returns a copy with the group inserted or replaced.
func (b Budget) SetCategoryGroup(g CategoryGroup) Budget {
	b.groups = cloneWith(b.groups, g.ID, g)
	return b
}

// DeleteCategoryGroup returns a copy without the given group.
func (b Budget) DeleteCategoryGroup(id int64) Budget {
	b.groups = cloneWithout(b.groups, id)
	return b
}

// ---------------------------------------------------------------------------
// Transactions
// ---------------------------------------------------------------------------

// Transaction returns the transaction with the given ID.
func (b Budget) Transaction(id int64) (Transaction, bool) {
	t, ok := b.transactions[id]
	return t, ok
}

// Transactions returns all transactions ordered by ID.
func (b Budget) Transactions() []Transaction {
	out := make([]Transaction, 0, len(b.transactions))
	for _, t := range b.transactions {
		out = append(out, t)
	}
	slices.SortFunc(out, func(a, c Transaction) int { return cmp.Compare(a.ID, c.ID) })
	return out
}

// SetTransaction returns a copy with the transaction inserted or replaced.
func (b Budget) SetTransaction(t Transaction) Budget {
	b.transactions = cloneWith(b.transactions, t.ID, t)
	return b
}

// DeleteTransaction returns a copy without the given transaction.
func (b Budget) DeleteTransaction(id int64) Budget {
	b.transactions = cloneWithout(b.transactions, id)
	return b
}

// ---------------------------------------------------------------------------
// Lookup by collection name
// ---------------------------------------------------------------------------

// HasID reports whether an entity with the given ID exists in the named
// collection. Unknown collection names report false.
func (b Budget) HasID(collection string, id int64) bool {
	switch collection {
	case CollectionAccounts:
		_, ok := b.accounts[id]
		return ok
	case CollectionCategories:
		_, ok := b.categories[id]
		return ok
	case CollectionCategoryGroups:
		_, ok := b.groups[id]
		return ok
	case CollectionTransactions:
		_, ok := b.transactions[id]
		return ok
	}
	return false
}

// Equal reports whether two budgets hold the same document. Money amounts
// compare by value, so a deserialized budget equals its source.
func (b Budget) Equal(o Budget) bool {
	if b.ID != o.ID || b.Name != o.Name || b.CurrencyCode != o.CurrencyCode ||
		b.StartDate != o.StartDate || b.EndDate != o.EndDate {
		return false
	}
	if !mapsEqualFunc(b.accounts, o.accounts, Account.Equal) {
		return false
	}
	if !mapsEqualFunc(b.categories, o.categories, Category.Equal) {
		return false
	}
	if !mapsEqualFunc(b.groups, o.groups, CategoryGroup.Equal) {
		return false
	}
	return mapsEqualFunc(b.transactions, o.transactions, Transaction.Equal)
}

// ---------------------------------------------------------------------------
// Copy-on-write helpers
// ---------------------------------------------------------------------------

func cloneWith[V any](m map[int64]V, id int64, v V) map[int64]V {
	out := make(map[int64]V, len(m)+1)
	for k, old := range m {
		out[k] = old
	}
	out[id] = v
	return out
}

func cloneWithout[V any](m map[int64]V, id int64) map[int64]V {
	if _, ok := m[id]; !ok {
		return m
	}
	out := make(map[int64]V, len(m))
	for k, old := range m {
		if k != id {
			out[k] = old
		}
	}
	return out
}

func mapsEqualFunc[V any](a, b map[int64]V, eq func(V, V) bool) bool {
	if len(a) != len(b) {
		return false
	}
	for k, av := range a {
		bv, ok := b[k]
		if !ok || !eq(av, bv) {
			return false
		}
	}
	return true
}
