package rest

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/bradenmacdonald/ratio/internal/domain"
)

// budgetLister defines the minimal interface needed by BudgetHandler.
type budgetLister interface {
	ListByOwner(ctx context.Context) ([]domain.BudgetSummary, error)
}

// BudgetHandler serves the budget listing endpoint. Everything else about
// budgets goes through the websocket RPC surface.
type BudgetHandler struct {
	svc budgetLister
	log *slog.Logger
}

// NewBudgetHandler creates a BudgetHandler.
func NewBudgetHandler(svc budgetLister, logger *slog.Logger) *BudgetHandler {
	return &BudgetHandler{svc: svc, log: logger.With("handler", "budget")}
}

type budgetSummaryResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// List handles GET /budgets, returning the authenticated user's budgets.
func (h *BudgetHandler) List(w http.ResponseWriter, r *http.Request) {
	budgets, err := h.svc.ListByOwner(r.Context())
	if err != nil {
		if errors.Is(err, domain.ErrNotAuthorized) {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		h.log.ErrorContext(r.Context(), "internal error", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	out := make([]budgetSummaryResponse, 0, len(budgets))
	for _, b := range budgets {
		out = append(out, budgetSummaryResponse{ID: b.ID, Name: b.Name})
	}
	writeJSON(w, http.StatusOK, map[string]any{"budgets": out})
}
