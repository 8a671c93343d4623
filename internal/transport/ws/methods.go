package ws

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/bradenmacdonald/ratio/internal/action"
)

func (h *Handler) call(ctx context.Context, connID uuid.UUID, method string, params json.RawMessage) (any, *Error) {
	switch method {
	case MethodCreateBudget:
		return h.createBudget(ctx, params)
	case MethodGetBudget:
		return h.getBudget(ctx, connID, params)
	case MethodUpdateBudget:
		return h.updateBudget(ctx, connID, params)
	case MethodWatchBudget:
		return h.watchBudget(ctx, connID, params)
	default:
		return nil, errMethodNotFound(method)
	}
}

func (h *Handler) createBudget(ctx context.Context, params json.RawMessage) (any, *Error) {
	var p CreateParams
	if len(params) > 0 {
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, errInvalidParams("budgetJson")
		}
	}

	summary, err := h.budgets.Create(ctx, p.Name, p.BudgetJSON)
	if err != nil {
		return nil, h.toRPCError(ctx, err)
	}
	return CreateResult{ID: summary.ID, Name: summary.Name}, nil
}

func (h *Handler) getBudget(ctx context.Context, connID uuid.UUID, params json.RawMessage) (any, *Error) {
	var p GetParams
	if err := json.Unmarshal(params, &p); err != nil || p.BudgetID == nil {
		return nil, errInvalidParams("budgetId")
	}

	result, err := h.budgets.Get(ctx, *p.BudgetID)
	if err != nil {
		return nil, h.toRPCError(ctx, err)
	}
	if p.WatchBudget {
		h.registry.SetWatch(connID, *p.BudgetID)
	}
	return GetResult{
		Data:         json.RawMessage(result.Data),
		Version:      result.Version,
		SafeIDPrefix: result.SafeIDPrefix,
	}, nil
}

func (h *Handler) updateBudget(ctx context.Context, connID uuid.UUID, params json.RawMessage) (any, *Error) {
	var p UpdateParams
	if err := json.Unmarshal(params, &p); err != nil || len(p.Action) == 0 || isNull(p.Action) {
		return nil, errInvalidParams("action")
	}

	act, err := action.Parse(p.Action)
	if err != nil {
		return nil, errInvalidParams("action")
	}
	if act.BudgetID == 0 {
		return nil, errInvalidParams("budgetId")
	}

	changeID, err := h.budgets.Update(ctx, connID, act)
	if err != nil {
		return nil, h.toRPCError(ctx, err)
	}
	return UpdateResult{ChangeID: changeID}, nil
}

func (h *Handler) watchBudget(ctx context.Context, connID uuid.UUID, params json.RawMessage) (any, *Error) {
	var p WatchParams
	if err := json.Unmarshal(params, &p); err != nil || len(p.BudgetID) == 0 {
		return nil, errInvalidParams("budgetId")
	}

	if isNull(p.BudgetID) {
		h.registry.SetWatch(connID, 0)
		return nil, nil
	}

	var budgetID int64
	if err := json.Unmarshal(p.BudgetID, &budgetID); err != nil {
		return nil, errInvalidParams("budgetId")
	}
	if err := h.budgets.Authorize(ctx, budgetID); err != nil {
		return nil, h.toRPCError(ctx, err)
	}
	h.registry.SetWatch(connID, budgetID)
	return nil, nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
