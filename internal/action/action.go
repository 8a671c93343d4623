// Package action defines the closed set of budget mutation actions, the
// reducer that applies them to a document, and the inverter that derives the
// undo action for each. Every mutating action carries enough payload to be
// reversed given the pre-action document.
package action

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/bradenmacdonald/ratio/internal/domain"
)

// Kind identifies an action type. The set of kinds with reducer semantics is
// closed; unrecognized kinds pass the document through unchanged, which keeps
// forward-compatible marker actions harmless.
type Kind string

const (
	KindNoop           Kind = "NOOP"
	KindSetName        Kind = "SET_NAME"
	KindSetCurrency    Kind = "SET_CURRENCY"
	KindSetDate        Kind = "SET_DATE"
	KindUpdateAccount  Kind = "UPDATE_ACCOUNT"
	KindDeleteAccount  Kind = "DELETE_ACCOUNT"
	KindUpdateCategory Kind = "UPDATE_CATEGORY"
	KindDeleteCategory Kind = "DELETE_CATEGORY"
	KindUpdateGroup    Kind = "UPDATE_CATEGORY_GROUP"
	KindDeleteGroup    Kind = "DELETE_CATEGORY_GROUP"
	KindUpdateTxn      Kind = "UPDATE_TRANSACTION"
	KindDeleteTxn      Kind = "DELETE_TRANSACTION"
	KindUpdateTxns     Kind = "UPDATE_MULTIPLE_TRANSACTIONS"
)

// Mutates reports whether the kind has reducer semantics (i.e. it can change
// the document). NOOP and unknown kinds do not.
func (k Kind) Mutates() bool {
	switch k {
	case KindSetName, KindSetCurrency, KindSetDate,
		KindUpdateAccount, KindDeleteAccount,
		KindUpdateCategory, KindDeleteCategory,
		KindUpdateGroup, KindDeleteGroup,
		KindUpdateTxn, KindDeleteTxn, KindUpdateTxns:
		return true
	}
	return false
}

// Action is one budget mutation. Only the fields relevant to Kind are
// populated; see the wire format in MarshalJSON.
type Action struct {
	Kind     Kind
	BudgetID int64

	// Entity actions (UPDATE_*/DELETE_*).
	ID int64

	// Scalar setters.
	Name         string
	CurrencyCode string
	StartDate    domain.Date
	EndDate      domain.Date

	// Per-entity update payloads.
	Account     *AccountData
	Category    *CategoryData
	Group       *GroupData
	Transaction *TransactionData

	// UPDATE_MULTIPLE_TRANSACTIONS batch.
	SubActions []Action
}

// AccountData is the merge payload for UPDATE_ACCOUNT.
type AccountData struct {
	Name           Opt[string]           `json:"name,omitzero"`
	InitialBalance Opt[decimal.Decimal]  `json:"initialBalance,omitzero"`
	CurrencyCode   Opt[string]           `json:"currencyCode,omitzero"`
	Metadata       Opt[map[string]any]   `json:"metadata,omitzero"`
	Position       Opt[int]              `json:"position,omitzero"`
}

// GroupData is the merge payload for UPDATE_CATEGORY_GROUP.
type GroupData struct {
	Name     Opt[string] `json:"name,omitzero"`
	Position Opt[int]    `json:"position,omitzero"`
}

// CategoryRuleData is the wire form of one category budgeting rule.
type CategoryRuleData struct {
	Amount    decimal.Decimal `json:"amount"`
	Period    string          `json:"period,omitempty"`
	RepeatN   int64           `json:"repeatN,omitempty"`
	StartDate *domain.Date    `json:"startDate,omitempty"`
	EndDate   *domain.Date    `json:"endDate,omitempty"`
}

// CategoryData is the merge payload for UPDATE_CATEGORY. Rules replace the
// category's rule list wholesale: present-and-null switches the category to
// automatic budgeting, absent leaves the rules untouched.
type CategoryData struct {
	Name         Opt[string]             `json:"name,omitzero"`
	GroupID      Opt[int64]              `json:"groupId,omitzero"`
	CurrencyCode Opt[string]             `json:"currencyCode,omitzero"`
	Notes        Opt[string]             `json:"notes,omitzero"`
	Rules        Opt[[]CategoryRuleData] `json:"rules,omitzero"`
}

// DetailData is the wire form of one transaction detail line.
type DetailData struct {
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description,omitempty"`
	CategoryID  int64           `json:"categoryId,omitempty"`
}

// TransactionData is the merge payload for UPDATE_TRANSACTION. Date is
// nullable: present-and-null clears the date (pending-unscheduled).
// Detail and Metadata replace wholesale when present.
type TransactionData struct {
	Date       Opt[*domain.Date]   `json:"date,omitzero"`
	Who        Opt[string]         `json:"who,omitzero"`
	AccountID  Opt[int64]          `json:"accountId,omitzero"`
	IsTransfer Opt[bool]           `json:"isTransfer,omitzero"`
	Detail     Opt[[]DetailData]   `json:"detail,omitzero"`
	Pending    Opt[bool]           `json:"pending,omitzero"`
	Metadata   Opt[map[string]any] `json:"metadata,omitzero"`
}

// envelope is the JSON wire form shared by all action kinds.
type envelope struct {
	Type       Kind            `json:"type"`
	BudgetID   int64           `json:"budgetId,omitempty"`
	ID         int64           `json:"id,omitempty"`
	Name       *string         `json:"name,omitempty"`
	Currency   *string         `json:"currencyCode,omitempty"`
	StartDate  *domain.Date    `json:"startDate,omitempty"`
	EndDate    *domain.Date    `json:"endDate,omitempty"`
	Data       json.RawMessage `json:"data,omitempty"`
	SubActions []Action        `json:"subActions,omitempty"`
}

// Parse decodes an action from its JSON wire form.
func Parse(raw []byte) (Action, error) {
	var a Action
	if err := json.Unmarshal(raw, &a); err != nil {
		return Action{}, fmt.Errorf("parse action: %w", err)
	}
	return a, nil
}

func (a *Action) UnmarshalJSON(b []byte) error {
	var env envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return err
	}
	if env.Type == "" {
		return fmt.Errorf("action has no type")
	}

	*a = Action{Kind: env.Type, BudgetID: env.BudgetID, ID: env.ID}
	switch env.Type {
	case KindSetName:
		if env.Name != nil {
			a.Name = *env.Name
		}
	case KindSetCurrency:
		if env.Currency != nil {
			a.CurrencyCode = *env.Currency
		}
	case KindSetDate:
		if env.StartDate != nil {
			a.StartDate = *env.StartDate
		}
		if env.EndDate != nil {
			a.EndDate = *env.EndDate
		}
	case KindUpdateAccount:
		a.Account = &AccountData{}
		return unmarshalData(env.Data, a.Account)
	case KindUpdateCategory:
		a.Category = &CategoryData{}
		return unmarshalData(env.Data, a.Category)
	case KindUpdateGroup:
		a.Group = &GroupData{}
		return unmarshalData(env.Data, a.Group)
	case KindUpdateTxn:
		a.Transaction = &TransactionData{}
		return unmarshalData(env.Data, a.Transaction)
	case KindUpdateTxns:
		a.SubActions = env.SubActions
	}
	return nil
}

func unmarshalData(raw json.RawMessage, into any) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, into)
}

func (a Action) MarshalJSON() ([]byte, error) {
	env := envelope{Type: a.Kind, BudgetID: a.BudgetID, ID: a.ID}
	var err error
	switch a.Kind {
	case KindSetName:
		env.Name = &a.Name
	case KindSetCurrency:
		env.Currency = &a.CurrencyCode
	case KindSetDate:
		start, end := a.StartDate, a.EndDate
		env.StartDate, env.EndDate = &start, &end
	case KindUpdateAccount:
		env.Data, err = marshalData(a.Account)
	case KindUpdateCategory:
		env.Data, err = marshalData(a.Category)
	case KindUpdateGroup:
		env.Data, err = marshalData(a.Group)
	case KindUpdateTxn:
		env.Data, err = marshalData(a.Transaction)
	case KindUpdateTxns:
		env.SubActions = a.SubActions
	}
	if err != nil {
		return nil, err
	}
	return json.Marshal(env)
}

func marshalData(data any) (json.RawMessage, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return raw, nil
}

// malformed builds a MalformedAction error with a reason.
func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", domain.ErrMalformedAction, fmt.Sprintf(format, args...))
}
