package domain

import "github.com/shopspring/decimal"

// Budgeting periods for fixed category rules.
const (
	PeriodDay   = "day"
	PeriodWeek  = "week"
	PeriodMonth = "month"
	PeriodYear  = "year"
)

// CategoryGroup is a named, ordered grouping of categories.
type CategoryGroup struct {
	ID       int64
	Name     string
	Position int
}

// Equal reports whether two category groups hold the same values.
func (g CategoryGroup) Equal(h CategoryGroup) bool {
	return g == h
}

// CategoryRule describes one recurring budgeted amount for a category, e.g.
// "$50 every 2 weeks". A rule with an empty Period applies once.
type CategoryRule struct {
	Amount    decimal.Decimal
	Period    string
	RepeatN   int64
	StartDate *Date
	EndDate   *Date
}

// Equal reports whether two rules hold the same values.
func (r CategoryRule) Equal(s CategoryRule) bool {
	return r.Amount.Equal(s.Amount) &&
		r.Period == s.Period &&
		r.RepeatN == s.RepeatN &&
		datePtrEqual(r.StartDate, s.StartDate) &&
		datePtrEqual(r.EndDate, s.EndDate)
}

// Category is a budget category. Rules == nil means the category uses
// flexible (automatic) budgeting; a non-nil slice (possibly empty) means a
// fixed recurring budget.
type Category struct {
	ID           int64
	Name         string
	GroupID      int64 // 0 = no group
	CurrencyCode string
	Notes        string
	Rules        []CategoryRule
}

// IsAutomatic reports whether the category uses flexible budgeting.
func (c Category) IsAutomatic() bool {
	return c.Rules == nil
}

// Equal reports whether two categories hold the same values. A nil rule list
// (automatic budgeting) is distinct from an empty one.
func (c Category) Equal(d Category) bool {
	if c.ID != d.ID || c.Name != d.Name || c.GroupID != d.GroupID ||
		c.CurrencyCode != d.CurrencyCode || c.Notes != d.Notes {
		return false
	}
	if (c.Rules == nil) != (d.Rules == nil) || len(c.Rules) != len(d.Rules) {
		return false
	}
	for i := range c.Rules {
		if !c.Rules[i].Equal(d.Rules[i]) {
			return false
		}
	}
	return true
}

func datePtrEqual(a, b *Date) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
