package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ToPlain converts the budget to a plain nested-map representation suitable
// for JSON encoding and storage. FromPlain(ToPlain(b)) reproduces b exactly.
//
// Collections are emitted as lists: accounts and category groups in display
// order, categories and transactions ordered by ID. Money amounts are emitted
// as decimal strings, dates as day numbers.
func (b Budget) ToPlain() map[string]any {
	accounts := make([]any, 0, len(b.accounts))
	for _, a := range b.Accounts() {
		accounts = append(accounts, accountToPlain(a))
	}
	groups := make([]any, 0, len(b.groups))
	for _, g := range b.CategoryGroups() {
		groups = append(groups, map[string]any{
			"id":       g.ID,
			"name":     g.Name,
			"position": g.Position,
		})
	}
	categories := make([]any, 0, len(b.categories))
	for _, c := range b.Categories() {
		categories = append(categories, categoryToPlain(c))
	}
	transactions := make([]any, 0, len(b.transactions))
	for _, t := range b.Transactions() {
		transactions = append(transactions, transactionToPlain(t))
	}

	return map[string]any{
		"id":             b.ID,
		"name":           b.Name,
		"currencyCode":   b.CurrencyCode,
		"startDate":      int64(b.StartDate),
		"endDate":        int64(b.EndDate),
		"accounts":       accounts,
		"categoryGroups": groups,
		"categories":     categories,
		"transactions":   transactions,
	}
}

func accountToPlain(a Account) map[string]any {
	out := map[string]any{
		"id":             a.ID,
		"name":           a.Name,
		"initialBalance": a.InitialBalance.String(),
		"currencyCode":   a.CurrencyCode,
		"position":       a.Position,
	}
	if len(a.Metadata) > 0 {
		out["metadata"] = a.Metadata
	}
	return out
}

func categoryToPlain(c Category) map[string]any {
	out := map[string]any{
		"id":           c.ID,
		"name":         c.Name,
		"groupId":      c.GroupID,
		"currencyCode": c.CurrencyCode,
		"notes":        c.Notes,
		"rules":        nil,
	}
	if c.Rules != nil {
		rules := make([]any, 0, len(c.Rules))
		for _, r := range c.Rules {
			rules = append(rules, ruleToPlain(r))
		}
		out["rules"] = rules
	}
	return out
}

func ruleToPlain(r CategoryRule) map[string]any {
	out := map[string]any{
		"amount":  r.Amount.String(),
		"period":  r.Period,
		"repeatN": r.RepeatN,
	}
	if r.StartDate != nil {
		out["startDate"] = int64(*r.StartDate)
	}
	if r.EndDate != nil {
		out["endDate"] = int64(*r.EndDate)
	}
	return out
}

func transactionToPlain(t Transaction) map[string]any {
	detail := make([]any, 0, len(t.Detail))
	for _, d := range t.Detail {
		detail = append(detail, map[string]any{
			"amount":      d.Amount.String(),
			"description": d.Description,
			"categoryId":  d.CategoryID,
		})
	}
	out := map[string]any{
		"id":         t.ID,
		"who":        t.Who,
		"accountId":  t.AccountID,
		"isTransfer": t.IsTransfer,
		"detail":     detail,
		"pending":    t.Pending,
	}
	if t.Date != nil {
		out["date"] = int64(*t.Date)
	} else {
		out["date"] = nil
	}
	if len(t.Metadata) > 0 {
		out["metadata"] = t.Metadata
	}
	return out
}

// FromPlain builds a Budget from its plain nested-map representation (as
// produced by ToPlain, or decoded from client-supplied JSON). It validates
// document-level invariants: the date range must be ordered and transfer
// transactions must have a single uncategorized detail entry. Dangling
// entity references are preserved as-is; computations treat them as
// unassigned.
func FromPlain(plain map[string]any) (Budget, error) {
	b := Budget{}
	b.ID, _ = plainInt64(plain["id"])
	b.Name, _ = plainString(plain["name"])
	b.CurrencyCode, _ = plainString(plain["currencyCode"])

	start, ok := plainInt64(plain["startDate"])
	if !ok {
		return Budget{}, NewValidationError("startDate", "missing or not a number")
	}
	end, ok := plainInt64(plain["endDate"])
	if !ok {
		return Budget{}, NewValidationError("endDate", "missing or not a number")
	}
	var err error
	if b, err = b.WithDates(Date(start), Date(end)); err != nil {
		return Budget{}, err
	}

	for _, item := range plainList(plain["accounts"]) {
		a, err := accountFromPlain(item)
		if err != nil {
			return Budget{}, err
		}
		b = b.SetAccount(a)
	}
	for _, item := range plainList(plain["categoryGroups"]) {
		g := CategoryGroup{}
		g.ID, _ = plainInt64(item["id"])
		g.Name, _ = plainString(item["name"])
		pos, _ := plainInt64(item["position"])
		g.Position = int(pos)
		b = b.SetCategoryGroup(g)
	}
	for _, item := range plainList(plain["categories"]) {
		c, err := categoryFromPlain(item)
		if err != nil {
			return Budget{}, err
		}
		b = b.SetCategory(c)
	}
	for _, item := range plainList(plain["transactions"]) {
		t, err := transactionFromPlain(item)
		if err != nil {
			return Budget{}, err
		}
		if err := t.Validate(); err != nil {
			return Budget{}, err
		}
		b = b.SetTransaction(t)
	}
	return b, nil
}

func accountFromPlain(item map[string]any) (Account, error) {
	a := Account{}
	a.ID, _ = plainInt64(item["id"])
	a.Name, _ = plainString(item["name"])
	a.CurrencyCode, _ = plainString(item["currencyCode"])
	pos, _ := plainInt64(item["position"])
	a.Position = int(pos)
	if v, present := item["initialBalance"]; present {
		bal, ok := plainDecimal(v)
		if !ok {
			return Account{}, NewValidationError("initialBalance", "not a valid amount")
		}
		a.InitialBalance = bal
	}
	a.Metadata, _ = item["metadata"].(map[string]any)
	return a, nil
}

func categoryFromPlain(item map[string]any) (Category, error) {
	c := Category{}
	c.ID, _ = plainInt64(item["id"])
	c.Name, _ = plainString(item["name"])
	c.GroupID, _ = plainInt64(item["groupId"])
	c.CurrencyCode, _ = plainString(item["currencyCode"])
	c.Notes, _ = plainString(item["notes"])
	if rules, present := item["rules"]; present && rules != nil {
		list, ok := rules.([]any)
		if !ok {
			return Category{}, NewValidationError("rules", "not a list")
		}
		c.Rules = make([]CategoryRule, 0, len(list))
		for _, rv := range list {
			rm, ok := rv.(map[string]any)
			if !ok {
				return Category{}, NewValidationError("rules", "rule is not an object")
			}
			r, err := ruleFromPlain(rm)
			if err != nil {
				return Category{}, err
			}
			c.Rules = append(c.Rules, r)
		}
	}
	return c, nil
}

func ruleFromPlain(item map[string]any) (CategoryRule, error) {
	r := CategoryRule{}
	amount, ok := plainDecimal(item["amount"])
	if !ok {
		return CategoryRule{}, NewValidationError("amount", "not a valid amount")
	}
	r.Amount = amount
	r.Period, _ = plainString(item["period"])
	r.RepeatN, _ = plainInt64(item["repeatN"])
	if v, ok := plainInt64(item["startDate"]); ok {
		d := Date(v)
		r.StartDate = &d
	}
	if v, ok := plainInt64(item["endDate"]); ok {
		d := Date(v)
		r.EndDate = &d
	}
	return r, nil
}

func transactionFromPlain(item map[string]any) (Transaction, error) {
	t := Transaction{}
	t.ID, _ = plainInt64(item["id"])
	t.Who, _ = plainString(item["who"])
	t.AccountID, _ = plainInt64(item["accountId"])
	t.IsTransfer, _ = item["isTransfer"].(bool)
	t.Pending, _ = item["pending"].(bool)
	if v, ok := plainInt64(item["date"]); ok {
		d := Date(v)
		t.Date = &d
	}
	for _, dv := range plainList(item["detail"]) {
		amount, ok := plainDecimal(dv["amount"])
		if !ok {
			return Transaction{}, NewValidationError("detail", "amount is not valid")
		}
		d := TransactionDetail{Amount: amount}
		d.Description, _ = plainString(dv["description"])
		d.CategoryID, _ = plainInt64(dv["categoryId"])
		t.Detail = append(t.Detail, d)
	}
	t.Metadata, _ = item["metadata"].(map[string]any)
	return t, nil
}

// ---------------------------------------------------------------------------
// Plain-value coercion. JSON decoding yields float64 for all numbers, while
// values built in-process may be int/int64; both are accepted.
// ---------------------------------------------------------------------------

func plainInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case float64:
		return int64(n), true
	case int32:
		return int64(n), true
	}
	return 0, false
}

func plainString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

func plainDecimal(v any) (decimal.Decimal, bool) {
	switch n := v.(type) {
	case string:
		d, err := decimal.NewFromString(n)
		if err != nil {
			return decimal.Decimal{}, false
		}
		return d, true
	case float64:
		return decimal.NewFromFloat(n), true
	case int64:
		return decimal.NewFromInt(n), true
	case int:
		return decimal.NewFromInt(int64(n)), true
	}
	return decimal.Decimal{}, false
}

func plainList(v any) []map[string]any {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]map[string]any, 0, len(list))
	for _, item := range list {
		m, ok := item.(map[string]any)
		if ok {
			out = append(out, m)
		}
	}
	return out
}

// PlainString is a debugging aid; it is not the persisted form.
func (b Budget) PlainString() string {
	return fmt.Sprintf("Budget(%d %q, %d accounts, %d categories, %d transactions)",
		b.ID, b.Name, len(b.accounts), len(b.categories), len(b.transactions))
}
