package budget

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/bradenmacdonald/ratio/internal/action"
	"github.com/bradenmacdonald/ratio/internal/domain"
	"github.com/bradenmacdonald/ratio/internal/notify"
	"github.com/bradenmacdonald/ratio/pkg/ctxutil"
)

// Update applies one action to the budget it names and returns the assigned
// change id. The whole read-apply-write cycle runs under the budget's row
// lock, which gives every budget a total order of changes. origin identifies
// the submitting connection so the fanout can skip it.
func (s *Service) Update(ctx context.Context, origin uuid.UUID, act action.Action) (int64, error) {
	owner, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return 0, domain.ErrNotAuthorized
	}

	actionJSON, err := json.Marshal(act)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrMalformedAction, err)
	}

	var changeID int64
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		meta, err := s.repo.GetMetaForUpdate(txCtx, act.BudgetID)
		if err != nil {
			return err
		}
		if meta.Owner != owner {
			return domain.ErrNotAuthorized
		}

		raw, err := s.repo.GetData(txCtx, act.BudgetID)
		if err != nil {
			return fmt.Errorf("load document: %w", err)
		}
		var plain map[string]any
		if err := json.Unmarshal(raw, &plain); err != nil {
			return fmt.Errorf("decode document: %w", err)
		}
		doc, err := domain.FromPlain(plain)
		if err != nil {
			return fmt.Errorf("restore document: %w", err)
		}

		next, err := action.Apply(doc, act)
		if err != nil {
			return err
		}

		data, err := json.Marshal(next.ToPlain())
		if err != nil {
			return fmt.Errorf("marshal document: %w", err)
		}
		if err := s.repo.UpsertData(txCtx, act.BudgetID, data); err != nil {
			return fmt.Errorf("store document: %w", err)
		}

		changeID, err = s.repo.AppendChange(txCtx, act.BudgetID, actionJSON)
		if err != nil {
			return fmt.Errorf("append changelog: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, s.internal(ctx, "budget.Update", err)
	}

	// The change is committed; a failed broadcast only delays other clients
	// until their next re-fetch.
	ev := notify.Event{BudgetID: act.BudgetID, Origin: origin, Action: actionJSON}
	if err := s.pub.Publish(ctx, ev); err != nil {
		s.log.WarnContext(ctx, "failed to publish accepted action",
			slog.Int64("budget_id", act.BudgetID),
			slog.Any("error", err))
	}

	s.log.DebugContext(ctx, "budget updated",
		slog.Int64("budget_id", act.BudgetID),
		slog.Int64("change_id", changeID),
		slog.String("action", string(act.Kind)))

	return changeID, nil
}
