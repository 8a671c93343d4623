package budget

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bradenmacdonald/ratio/internal/domain"
	"github.com/bradenmacdonald/ratio/internal/idgen"
	"github.com/bradenmacdonald/ratio/pkg/ctxutil"
)

// OpenResult is what a client needs to start editing a budget.
type OpenResult struct {
	// Data is the raw JSON document snapshot.
	Data []byte
	// Version is the highest accepted change id, 0 for a fresh budget.
	Version int64
	// SafeIDPrefix is this session's reserved ID block.
	SafeIDPrefix int64
}

// Get opens a budget for the authenticated user: it bumps the open counter to
// reserve a safe-ID block and returns the current document and version.
func (s *Service) Get(ctx context.Context, budgetID int64) (OpenResult, error) {
	owner, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return OpenResult{}, domain.ErrNotAuthorized
	}

	var result OpenResult
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		meta, err := s.repo.GetMeta(txCtx, budgetID)
		if err != nil {
			return err
		}
		if meta.Owner != owner {
			return domain.ErrNotAuthorized
		}

		openCount, err := s.repo.IncrementOpenCount(txCtx, budgetID)
		if err != nil {
			return fmt.Errorf("increment open count: %w", err)
		}

		data, err := s.repo.GetData(txCtx, budgetID)
		if err != nil {
			return fmt.Errorf("load document: %w", err)
		}
		version, err := s.repo.Version(txCtx, budgetID)
		if err != nil {
			return fmt.Errorf("load version: %w", err)
		}

		result = OpenResult{
			Data:         data,
			Version:      version,
			SafeIDPrefix: idgen.PrefixForOpen(openCount),
		}
		return nil
	})
	if err != nil {
		return OpenResult{}, s.internal(ctx, "budget.Get", err)
	}

	s.log.DebugContext(ctx, "budget opened",
		slog.Int64("budget_id", budgetID),
		slog.Int64("safe_id_prefix", result.SafeIDPrefix))

	return result, nil
}

// Authorize verifies that the budget exists and belongs to the authenticated
// user, without reserving an ID block. Used by watch subscriptions.
func (s *Service) Authorize(ctx context.Context, budgetID int64) error {
	owner, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return domain.ErrNotAuthorized
	}

	meta, err := s.repo.GetMeta(ctx, budgetID)
	if err != nil {
		return s.internal(ctx, "budget.Authorize", err)
	}
	if meta.Owner != owner {
		return domain.ErrNotAuthorized
	}
	return nil
}

// ListByOwner returns the authenticated user's budgets, newest first.
func (s *Service) ListByOwner(ctx context.Context) ([]domain.BudgetSummary, error) {
	owner, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return nil, domain.ErrNotAuthorized
	}

	budgets, err := s.repo.ListByOwner(ctx, owner)
	if err != nil {
		return nil, s.internal(ctx, "budget.ListByOwner", err)
	}
	return budgets, nil
}

// internal passes well-known domain errors through and converts everything
// else to ErrInternal, logging the detail server-side only.
func (s *Service) internal(ctx context.Context, op string, err error) error {
	switch {
	case errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrNotAuthorized),
		errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidParameters),
		errors.Is(err, domain.ErrMalformedAction),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return err
	}

	s.log.ErrorContext(ctx, "internal error",
		slog.String("op", op),
		slog.Any("error", err))
	return domain.ErrInternal
}
