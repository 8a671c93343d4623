package domain

import (
	"reflect"

	"github.com/shopspring/decimal"
)

// Account is a financial account within a budget (e.g. a checking account or
// a cash wallet). Accounts keep an explicit position so the user-defined
// ordering survives serialization.
type Account struct {
	ID             int64
	Name           string
	InitialBalance decimal.Decimal
	CurrencyCode   string
	Metadata       map[string]any
	Position       int
}

// Equal reports whether two accounts hold the same values. Decimal amounts
// compare by numeric value, not representation.
func (a Account) Equal(b Account) bool {
	return a.ID == b.ID &&
		a.Name == b.Name &&
		a.InitialBalance.Equal(b.InitialBalance) &&
		a.CurrencyCode == b.CurrencyCode &&
		a.Position == b.Position &&
		metadataEqual(a.Metadata, b.Metadata)
}

// metadataEqual compares two open key/value bags. Empty and nil are the same.
func metadataEqual(a, b map[string]any) bool {
	if len(a) == 0 && len(b) == 0 {
		return true
	}
	return reflect.DeepEqual(a, b)
}
