package action

import "github.com/bradenmacdonald/ratio/internal/domain"

// Apply runs the reducer: it returns the document that results from applying
// the action to b. b itself is never modified. Mutating actions whose
// BudgetID does not match the document, or whose payload cannot be applied
// safely, fail with domain.ErrMalformedAction. Non-mutating kinds (NOOP and
// any unrecognized marker type) return the document unchanged.
func Apply(b domain.Budget, a Action) (domain.Budget, error) {
	if !a.Kind.Mutates() {
		return b, nil
	}
	if a.BudgetID != b.ID {
		return b, malformed("action budgetId %d does not match document %d", a.BudgetID, b.ID)
	}
	return applyToBudget(b, a)
}

// applyToBudget dispatches a mutation that already passed the budget check.
// Sub-actions of a batch re-enter here directly so they inherit the parent's
// budget check.
func applyToBudget(b domain.Budget, a Action) (domain.Budget, error) {
	switch a.Kind {
	case KindSetName:
		return b.WithName(a.Name), nil

	case KindSetCurrency:
		return b.WithCurrency(a.CurrencyCode), nil

	case KindSetDate:
		next, err := b.WithDates(a.StartDate, a.EndDate)
		if err != nil {
			return b, malformed("invalid date range: %v", err)
		}
		return next, nil

	case KindUpdateAccount:
		return applyUpdateAccount(b, a)
	case KindDeleteAccount:
		if !b.HasID(domain.CollectionAccounts, a.ID) {
			return b, malformed("cannot delete missing account %d", a.ID)
		}
		return b.DeleteAccount(a.ID), nil

	case KindUpdateCategory:
		return applyUpdateCategory(b, a)
	case KindDeleteCategory:
		if !b.HasID(domain.CollectionCategories, a.ID) {
			return b, malformed("cannot delete missing category %d", a.ID)
		}
		return b.DeleteCategory(a.ID), nil

	case KindUpdateGroup:
		return applyUpdateGroup(b, a)
	case KindDeleteGroup:
		if !b.HasID(domain.CollectionCategoryGroups, a.ID) {
			return b, malformed("cannot delete missing category group %d", a.ID)
		}
		return b.DeleteCategoryGroup(a.ID), nil

	case KindUpdateTxn:
		return applyUpdateTransaction(b, a)
	case KindDeleteTxn:
		if !b.HasID(domain.CollectionTransactions, a.ID) {
			return b, malformed("cannot delete missing transaction %d", a.ID)
		}
		return b.DeleteTransaction(a.ID), nil

	case KindUpdateTxns:
		return applyBatch(b, a)
	}
	return b, nil
}

func applyUpdateAccount(b domain.Budget, a Action) (domain.Budget, error) {
	if a.ID <= 0 {
		return b, malformed("account action requires a positive id")
	}
	data := a.Account
	if data == nil {
		return b, malformed("account action has no data")
	}
	account, _ := b.Account(a.ID) // zero value when creating
	account.ID = a.ID
	account.Name = data.Name.Or(account.Name)
	account.InitialBalance = data.InitialBalance.Or(account.InitialBalance)
	account.CurrencyCode = data.CurrencyCode.Or(account.CurrencyCode)
	account.Position = data.Position.Or(account.Position)
	if data.Metadata.Set {
		account.Metadata = data.Metadata.Value
	}
	return b.SetAccount(account), nil
}

func applyUpdateCategory(b domain.Budget, a Action) (domain.Budget, error) {
	if a.ID <= 0 {
		return b, malformed("category action requires a positive id")
	}
	data := a.Category
	if data == nil {
		return b, malformed("category action has no data")
	}
	category, _ := b.Category(a.ID)
	category.ID = a.ID
	category.Name = data.Name.Or(category.Name)
	category.GroupID = data.GroupID.Or(category.GroupID)
	category.CurrencyCode = data.CurrencyCode.Or(category.CurrencyCode)
	category.Notes = data.Notes.Or(category.Notes)
	if data.Rules.Set {
		category.Rules = rulesFromData(data.Rules.Value)
	}
	return b.SetCategory(category), nil
}

func applyUpdateGroup(b domain.Budget, a Action) (domain.Budget, error) {
	if a.ID <= 0 {
		return b, malformed("category group action requires a positive id")
	}
	data := a.Group
	if data == nil {
		return b, malformed("category group action has no data")
	}
	group, _ := b.CategoryGroup(a.ID)
	group.ID = a.ID
	group.Name = data.Name.Or(group.Name)
	group.Position = data.Position.Or(group.Position)
	return b.SetCategoryGroup(group), nil
}

func applyUpdateTransaction(b domain.Budget, a Action) (domain.Budget, error) {
	if a.ID <= 0 {
		return b, malformed("transaction action requires a positive id")
	}
	data := a.Transaction
	if data == nil {
		return b, malformed("transaction action has no data")
	}
	txn, _ := b.Transaction(a.ID)
	txn.ID = a.ID
	if data.Date.Set {
		txn.Date = data.Date.Value
	}
	txn.Who = data.Who.Or(txn.Who)
	txn.AccountID = data.AccountID.Or(txn.AccountID)
	txn.IsTransfer = data.IsTransfer.Or(txn.IsTransfer)
	txn.Pending = data.Pending.Or(txn.Pending)
	if data.Detail.Set {
		txn.Detail = detailFromData(data.Detail.Value)
	}
	if data.Metadata.Set {
		txn.Metadata = data.Metadata.Value
	}
	if err := txn.Validate(); err != nil {
		return b, malformed("transaction %d: %v", a.ID, err)
	}
	return b.SetTransaction(txn), nil
}

// applyBatch applies an UPDATE_MULTIPLE_TRANSACTIONS action: each sub-action
// must be a transaction update or delete. Sub-actions apply in order; the
// whole batch fails (document unchanged) if any sub-action fails.
func applyBatch(b domain.Budget, a Action) (domain.Budget, error) {
	next := b
	for _, sub := range a.SubActions {
		if sub.Kind != KindUpdateTxn && sub.Kind != KindDeleteTxn {
			return b, malformed("batch sub-action has kind %s", sub.Kind)
		}
		var err error
		next, err = applyToBudget(next, sub)
		if err != nil {
			return b, err
		}
	}
	return next, nil
}

func rulesFromData(data []CategoryRuleData) []domain.CategoryRule {
	if data == nil {
		return nil
	}
	rules := make([]domain.CategoryRule, len(data))
	for i, r := range data {
		rules[i] = domain.CategoryRule{
			Amount:    r.Amount,
			Period:    r.Period,
			RepeatN:   r.RepeatN,
			StartDate: r.StartDate,
			EndDate:   r.EndDate,
		}
	}
	return rules
}

func detailFromData(data []DetailData) []domain.TransactionDetail {
	detail := make([]domain.TransactionDetail, len(data))
	for i, d := range data {
		detail[i] = domain.TransactionDetail{
			Amount:      d.Amount,
			Description: d.Description,
			CategoryID:  d.CategoryID,
		}
	}
	return detail
}
