package action

import "github.com/bradenmacdonald/ratio/internal/domain"

// Invert computes the undo action for a, evaluated against the document as it
// was BEFORE a was applied. Updates invert to updates restoring the previous
// values of exactly the fields the payload touched; creating updates invert
// to deletes; deletes invert to full re-creating updates. The inverse must be
// computed pre-apply because a delete destroys the data its inverse needs.
func Invert(before domain.Budget, a Action) (Action, error) {
	if !a.Kind.Mutates() {
		return Action{Kind: KindNoop, BudgetID: a.BudgetID}, nil
	}
	if a.BudgetID != before.ID {
		return Action{}, malformed("action budgetId %d does not match document %d", a.BudgetID, before.ID)
	}
	return invertOnBudget(before, a)
}

func invertOnBudget(before domain.Budget, a Action) (Action, error) {
	switch a.Kind {
	case KindSetName:
		return Action{Kind: KindSetName, BudgetID: a.BudgetID, Name: before.Name}, nil

	case KindSetCurrency:
		return Action{Kind: KindSetCurrency, BudgetID: a.BudgetID, CurrencyCode: before.CurrencyCode}, nil

	case KindSetDate:
		return Action{
			Kind:      KindSetDate,
			BudgetID:  a.BudgetID,
			StartDate: before.StartDate,
			EndDate:   before.EndDate,
		}, nil

	case KindUpdateAccount:
		account, exists := before.Account(a.ID)
		if !exists {
			return Action{Kind: KindDeleteAccount, BudgetID: a.BudgetID, ID: a.ID}, nil
		}
		if a.Account == nil {
			return Action{}, malformed("account action has no data")
		}
		return Action{
			Kind:     KindUpdateAccount,
			BudgetID: a.BudgetID,
			ID:       a.ID,
			Account:  priorAccountData(account, *a.Account),
		}, nil

	case KindDeleteAccount:
		account, exists := before.Account(a.ID)
		if !exists {
			return Action{}, malformed("cannot delete missing account %d", a.ID)
		}
		return Action{
			Kind:     KindUpdateAccount,
			BudgetID: a.BudgetID,
			ID:       a.ID,
			Account:  fullAccountData(account),
		}, nil

	case KindUpdateCategory:
		category, exists := before.Category(a.ID)
		if !exists {
			return Action{Kind: KindDeleteCategory, BudgetID: a.BudgetID, ID: a.ID}, nil
		}
		if a.Category == nil {
			return Action{}, malformed("category action has no data")
		}
		return Action{
			Kind:     KindUpdateCategory,
			BudgetID: a.BudgetID,
			ID:       a.ID,
			Category: priorCategoryData(category, *a.Category),
		}, nil

	case KindDeleteCategory:
		category, exists := before.Category(a.ID)
		if !exists {
			return Action{}, malformed("cannot delete missing category %d", a.ID)
		}
		return Action{
			Kind:     KindUpdateCategory,
			BudgetID: a.BudgetID,
			ID:       a.ID,
			Category: fullCategoryData(category),
		}, nil

	case KindUpdateGroup:
		group, exists := before.CategoryGroup(a.ID)
		if !exists {
			return Action{Kind: KindDeleteGroup, BudgetID: a.BudgetID, ID: a.ID}, nil
		}
		if a.Group == nil {
			return Action{}, malformed("category group action has no data")
		}
		return Action{
			Kind:     KindUpdateGroup,
			BudgetID: a.BudgetID,
			ID:       a.ID,
			Group:    priorGroupData(group, *a.Group),
		}, nil

	case KindDeleteGroup:
		group, exists := before.CategoryGroup(a.ID)
		if !exists {
			return Action{}, malformed("cannot delete missing category group %d", a.ID)
		}
		return Action{
			Kind:     KindUpdateGroup,
			BudgetID: a.BudgetID,
			ID:       a.ID,
			Group:    fullGroupData(group),
		}, nil

	case KindUpdateTxn:
		txn, exists := before.Transaction(a.ID)
		if !exists {
			return Action{Kind: KindDeleteTxn, BudgetID: a.BudgetID, ID: a.ID}, nil
		}
		if a.Transaction == nil {
			return Action{}, malformed("transaction action has no data")
		}
		return Action{
			Kind:        KindUpdateTxn,
			BudgetID:    a.BudgetID,
			ID:          a.ID,
			Transaction: priorTransactionData(txn, *a.Transaction),
		}, nil

	case KindDeleteTxn:
		txn, exists := before.Transaction(a.ID)
		if !exists {
			return Action{}, malformed("cannot delete missing transaction %d", a.ID)
		}
		return Action{
			Kind:        KindUpdateTxn,
			BudgetID:    a.BudgetID,
			ID:          a.ID,
			Transaction: fullTransactionData(txn),
		}, nil

	case KindUpdateTxns:
		return invertBatch(before, a)
	}
	return Action{Kind: KindNoop, BudgetID: a.BudgetID}, nil
}

// invertBatch inverts each sub-action against the intermediate document state
// and reverses the order, so that applying the inverse batch walks the
// changes back exactly.
func invertBatch(before domain.Budget, a Action) (Action, error) {
	inverses := make([]Action, 0, len(a.SubActions))
	current := before
	for _, sub := range a.SubActions {
		if sub.Kind != KindUpdateTxn && sub.Kind != KindDeleteTxn {
			return Action{}, malformed("batch sub-action has kind %s", sub.Kind)
		}
		inv, err := invertOnBudget(current, sub)
		if err != nil {
			return Action{}, err
		}
		inverses = append(inverses, inv)
		current, err = applyToBudget(current, sub)
		if err != nil {
			return Action{}, err
		}
	}
	// Reverse in place.
	for i, j := 0, len(inverses)-1; i < j; i, j = i+1, j-1 {
		inverses[i], inverses[j] = inverses[j], inverses[i]
	}
	return Action{Kind: KindUpdateTxns, BudgetID: a.BudgetID, SubActions: inverses}, nil
}

// ---------------------------------------------------------------------------
// Prior-value payload builders. "prior" variants snapshot only the fields the
// forward payload touched; "full" variants snapshot the whole entity for
// delete inversion.
// ---------------------------------------------------------------------------

func priorAccountData(prev domain.Account, data AccountData) *AccountData {
	out := &AccountData{}
	if data.Name.Set {
		out.Name = Some(prev.Name)
	}
	if data.InitialBalance.Set {
		out.InitialBalance = Some(prev.InitialBalance)
	}
	if data.CurrencyCode.Set {
		out.CurrencyCode = Some(prev.CurrencyCode)
	}
	if data.Metadata.Set {
		out.Metadata = Some(prev.Metadata)
	}
	if data.Position.Set {
		out.Position = Some(prev.Position)
	}
	return out
}

func fullAccountData(a domain.Account) *AccountData {
	return &AccountData{
		Name:           Some(a.Name),
		InitialBalance: Some(a.InitialBalance),
		CurrencyCode:   Some(a.CurrencyCode),
		Metadata:       Some(a.Metadata),
		Position:       Some(a.Position),
	}
}

func priorCategoryData(prev domain.Category, data CategoryData) *CategoryData {
	out := &CategoryData{}
	if data.Name.Set {
		out.Name = Some(prev.Name)
	}
	if data.GroupID.Set {
		out.GroupID = Some(prev.GroupID)
	}
	if data.CurrencyCode.Set {
		out.CurrencyCode = Some(prev.CurrencyCode)
	}
	if data.Notes.Set {
		out.Notes = Some(prev.Notes)
	}
	if data.Rules.Set {
		out.Rules = Some(rulesToData(prev.Rules))
	}
	return out
}

func fullCategoryData(c domain.Category) *CategoryData {
	return &CategoryData{
		Name:         Some(c.Name),
		GroupID:      Some(c.GroupID),
		CurrencyCode: Some(c.CurrencyCode),
		Notes:        Some(c.Notes),
		Rules:        Some(rulesToData(c.Rules)),
	}
}

func priorGroupData(prev domain.CategoryGroup, data GroupData) *GroupData {
	out := &GroupData{}
	if data.Name.Set {
		out.Name = Some(prev.Name)
	}
	if data.Position.Set {
		out.Position = Some(prev.Position)
	}
	return out
}

func fullGroupData(g domain.CategoryGroup) *GroupData {
	return &GroupData{Name: Some(g.Name), Position: Some(g.Position)}
}

func priorTransactionData(prev domain.Transaction, data TransactionData) *TransactionData {
	out := &TransactionData{}
	if data.Date.Set {
		out.Date = Some(prev.Date)
	}
	if data.Who.Set {
		out.Who = Some(prev.Who)
	}
	if data.AccountID.Set {
		out.AccountID = Some(prev.AccountID)
	}
	if data.IsTransfer.Set {
		out.IsTransfer = Some(prev.IsTransfer)
	}
	if data.Detail.Set {
		out.Detail = Some(detailToData(prev.Detail))
	}
	if data.Pending.Set {
		out.Pending = Some(prev.Pending)
	}
	if data.Metadata.Set {
		out.Metadata = Some(prev.Metadata)
	}
	return out
}

func fullTransactionData(t domain.Transaction) *TransactionData {
	return &TransactionData{
		Date:       Some(t.Date),
		Who:        Some(t.Who),
		AccountID:  Some(t.AccountID),
		IsTransfer: Some(t.IsTransfer),
		Detail:     Some(detailToData(t.Detail)),
		Pending:    Some(t.Pending),
		Metadata:   Some(t.Metadata),
	}
}

func rulesToData(rules []domain.CategoryRule) []CategoryRuleData {
	if rules == nil {
		return nil
	}
	out := make([]CategoryRuleData, len(rules))
	for i, r := range rules {
		out[i] = CategoryRuleData{
			Amount:    r.Amount,
			Period:    r.Period,
			RepeatN:   r.RepeatN,
			StartDate: r.StartDate,
			EndDate:   r.EndDate,
		}
	}
	return out
}

func detailToData(detail []domain.TransactionDetail) []DetailData {
	out := make([]DetailData, len(detail))
	for i, d := range detail {
		out[i] = DetailData{
			Amount:      d.Amount,
			Description: d.Description,
			CategoryID:  d.CategoryID,
		}
	}
	return out
}
