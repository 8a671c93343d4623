// Package budget implements the server side of budget synchronization:
// creating budgets, opening them with a safe-ID prefix, and serializing
// action updates through the per-budget row lock.
package budget

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/bradenmacdonald/ratio/internal/domain"
	"github.com/bradenmacdonald/ratio/internal/notify"
)

// budgetRepo defines the persistence interface needed by the budget service.
type budgetRepo interface {
	InsertMeta(ctx context.Context, owner uuid.UUID) (domain.BudgetMeta, error)
	GetMeta(ctx context.Context, budgetID int64) (domain.BudgetMeta, error)
	GetMetaForUpdate(ctx context.Context, budgetID int64) (domain.BudgetMeta, error)
	IncrementOpenCount(ctx context.Context, budgetID int64) (int64, error)
	GetData(ctx context.Context, budgetID int64) ([]byte, error)
	UpsertData(ctx context.Context, budgetID int64, data []byte) error
	AppendChange(ctx context.Context, budgetID int64, action []byte) (int64, error)
	Version(ctx context.Context, budgetID int64) (int64, error)
	ListByOwner(ctx context.Context, owner uuid.UUID) ([]domain.BudgetSummary, error)
}

// txManager defines the transaction manager interface needed by the budget service.
type txManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// publisher broadcasts accepted actions to watching connections.
type publisher interface {
	Publish(ctx context.Context, ev notify.Event) error
}

// Service implements budget operations.
type Service struct {
	log  *slog.Logger
	repo budgetRepo
	tx   txManager
	pub  publisher
}

// NewService creates a new budget service instance.
func NewService(logger *slog.Logger, repo budgetRepo, tx txManager, pub publisher) *Service {
	return &Service{
		log:  logger.With("service", "budget"),
		repo: repo,
		tx:   tx,
		pub:  pub,
	}
}
