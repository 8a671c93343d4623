package budget

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/bradenmacdonald/ratio/internal/domain"
	"github.com/bradenmacdonald/ratio/pkg/ctxutil"
)

// DefaultName is used when create_budget is called without a name.
const DefaultName = "New Budget"

// Create makes a new budget owned by the authenticated user. template, when
// non-nil, seeds the document: its id is replaced but its name is kept, and
// the name parameter is ignored. Without a template the budget starts empty,
// covering the current calendar year, named name (or DefaultName).
func (s *Service) Create(ctx context.Context, name string, template map[string]any) (domain.BudgetSummary, error) {
	owner, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return domain.BudgetSummary{}, domain.ErrNotAuthorized
	}

	var summary domain.BudgetSummary
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		meta, err := s.repo.InsertMeta(txCtx, owner)
		if err != nil {
			return fmt.Errorf("insert metadata: %w", err)
		}

		var doc domain.Budget
		if template != nil {
			doc, err = domain.FromPlain(template)
			if err != nil {
				return fmt.Errorf("invalid template: %w", err)
			}
			doc.ID = meta.ID
		} else {
			if name == "" {
				name = DefaultName
			}
			doc = domain.NewBudget(meta.ID, name)
		}

		data, err := json.Marshal(doc.ToPlain())
		if err != nil {
			return fmt.Errorf("marshal document: %w", err)
		}
		if err := s.repo.UpsertData(txCtx, meta.ID, data); err != nil {
			return fmt.Errorf("store document: %w", err)
		}

		summary = domain.BudgetSummary{ID: meta.ID, Name: doc.Name}
		return nil
	})
	if err != nil {
		return domain.BudgetSummary{}, s.internal(ctx, "budget.Create", err)
	}

	s.log.InfoContext(ctx, "budget created",
		slog.Int64("budget_id", summary.ID),
		slog.String("owner", owner.String()))

	return summary, nil
}
