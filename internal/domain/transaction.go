package domain

import "github.com/shopspring/decimal"

// TransactionDetail is one line of a transaction. Split transactions carry
// more than one detail entry, each with its own amount and category.
type TransactionDetail struct {
	Amount      decimal.Decimal
	Description string
	CategoryID  int64 // 0 = no category
}

// Equal reports whether two details hold the same values.
func (d TransactionDetail) Equal(e TransactionDetail) bool {
	return d.Amount.Equal(e.Amount) &&
		d.Description == e.Description &&
		d.CategoryID == e.CategoryID
}

// Transaction is a single dated money movement. Date is nil while the
// transaction is pending and unscheduled; AccountID is 0 while unassigned.
// A transfer transaction has exactly one detail entry with no category.
type Transaction struct {
	ID         int64
	Date       *Date
	Who        string
	AccountID  int64
	IsTransfer bool
	Detail     []TransactionDetail
	Pending    bool
	Metadata   map[string]any
}

// Equal reports whether two transactions hold the same values.
func (t Transaction) Equal(u Transaction) bool {
	if t.ID != u.ID || t.Who != u.Who || t.AccountID != u.AccountID ||
		t.IsTransfer != u.IsTransfer || t.Pending != u.Pending {
		return false
	}
	if !datePtrEqual(t.Date, u.Date) {
		return false
	}
	if len(t.Detail) != len(u.Detail) {
		return false
	}
	for i := range t.Detail {
		if !t.Detail[i].Equal(u.Detail[i]) {
			return false
		}
	}
	return metadataEqual(t.Metadata, u.Metadata)
}

// Validate checks the transaction's internal invariants.
func (t Transaction) Validate() error {
	if t.IsTransfer {
		if len(t.Detail) != 1 {
			return NewValidationError("detail", "a transfer must have exactly one detail entry")
		}
		if t.Detail[0].CategoryID != 0 {
			return NewValidationError("detail", "a transfer cannot have a category")
		}
	}
	return nil
}
