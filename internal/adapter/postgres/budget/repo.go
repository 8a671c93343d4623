// Package budget implements budget persistence using PostgreSQL.
// The document snapshot lives in budget_data as jsonb; every accepted action
// is appended to budget_changelog with a per-budget gapless change_id.
package budget

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/bradenmacdonald/ratio/internal/adapter/postgres"
	"github.com/bradenmacdonald/ratio/internal/domain"
)

// Repo provides budget metadata, document and changelog persistence.
type Repo struct {
	pool *pgxpool.Pool
	sb   sq.StatementBuilderType
}

// New creates a new budget repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{
		pool: pool,
		sb:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// ---------------------------------------------------------------------------
// SQL
// ---------------------------------------------------------------------------

const insertMetaSQL = `
INSERT INTO budget_metadata (owner, open_count, created_at)
VALUES ($1, 0, $2)
RETURNING id, owner, open_count, created_at`

const getMetaSQL = `
SELECT id, owner, open_count, created_at
FROM budget_metadata
WHERE id = $1`

// getMetaForUpdateSQL takes a row lock that serializes all writers of one
// budget. Callers must be inside a transaction or the lock is released
// immediately.
const getMetaForUpdateSQL = getMetaSQL + `
FOR UPDATE`

const incrementOpenCountSQL = `
UPDATE budget_metadata
SET open_count = open_count + 1
WHERE id = $1
RETURNING open_count`

const getDataSQL = `
SELECT data
FROM budget_data
WHERE budget_id = $1`

const upsertDataSQL = `
INSERT INTO budget_data (budget_id, data, change_date)
VALUES ($1, $2, $3)
ON CONFLICT (budget_id) DO UPDATE
SET data = EXCLUDED.data, change_date = EXCLUDED.change_date`

// appendChangeSQL computes the next change_id from the current maximum. This
// is only gapless because every caller holds the budget_metadata row lock.
const appendChangeSQL = `
INSERT INTO budget_changelog (budget_id, change_id, action, created_at)
SELECT $1, COALESCE(MAX(change_id), 0) + 1, $2, $3
FROM budget_changelog
WHERE budget_id = $1
RETURNING change_id`

const versionSQL = `
SELECT COALESCE(MAX(change_id), 0)
FROM budget_changelog
WHERE budget_id = $1`

// ---------------------------------------------------------------------------
// Metadata
// ---------------------------------------------------------------------------

// InsertMeta creates the control row for a new budget and returns it with the
// generated id.
func (r *Repo) InsertMeta(ctx context.Context, owner uuid.UUID) (domain.BudgetMeta, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	var m domain.BudgetMeta
	err := querier.QueryRow(ctx, insertMetaSQL, owner, time.Now().UTC()).
		Scan(&m.ID, &m.Owner, &m.OpenCount, &m.CreatedAt)
	if err != nil {
		return domain.BudgetMeta{}, postgres.MapError(err, "budget", owner)
	}

	return m, nil
}

// GetMeta returns the control row for a budget.
func (r *Repo) GetMeta(ctx context.Context, budgetID int64) (domain.BudgetMeta, error) {
	return r.getMeta(ctx, budgetID, getMetaSQL)
}

// GetMetaForUpdate returns the control row with a FOR UPDATE lock, blocking
// until concurrent writers of the same budget release it.
func (r *Repo) GetMetaForUpdate(ctx context.Context, budgetID int64) (domain.BudgetMeta, error) {
	return r.getMeta(ctx, budgetID, getMetaForUpdateSQL)
}

func (r *Repo) getMeta(ctx context.Context, budgetID int64, query string) (domain.BudgetMeta, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	var m domain.BudgetMeta
	err := querier.QueryRow(ctx, query, budgetID).
		Scan(&m.ID, &m.Owner, &m.OpenCount, &m.CreatedAt)
	if err != nil {
		return domain.BudgetMeta{}, postgres.MapError(err, "budget", budgetID)
	}

	return m, nil
}

// IncrementOpenCount bumps the open counter and returns the new value.
func (r *Repo) IncrementOpenCount(ctx context.Context, budgetID int64) (int64, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	var count int64
	if err := querier.QueryRow(ctx, incrementOpenCountSQL, budgetID).Scan(&count); err != nil {
		return 0, postgres.MapError(err, "budget", budgetID)
	}

	return count, nil
}

// ---------------------------------------------------------------------------
// Document snapshot
// ---------------------------------------------------------------------------

// GetData returns the raw jsonb document snapshot for a budget.
func (r *Repo) GetData(ctx context.Context, budgetID int64) ([]byte, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	var data []byte
	if err := querier.QueryRow(ctx, getDataSQL, budgetID).Scan(&data); err != nil {
		return nil, postgres.MapError(err, "budget", budgetID)
	}

	return data, nil
}

// UpsertData replaces the document snapshot for a budget.
func (r *Repo) UpsertData(ctx context.Context, budgetID int64, data []byte) error {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	if _, err := querier.Exec(ctx, upsertDataSQL, budgetID, data, time.Now().UTC()); err != nil {
		return postgres.MapError(err, "budget", budgetID)
	}

	return nil
}

// ---------------------------------------------------------------------------
// Changelog
// ---------------------------------------------------------------------------

// AppendChange appends the action to the budget's changelog and returns the
// assigned change id. The caller must hold the budget's row lock; otherwise
// two writers can race to the same change_id and one insert fails on the
// primary key.
func (r *Repo) AppendChange(ctx context.Context, budgetID int64, action []byte) (int64, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	var changeID int64
	err := querier.QueryRow(ctx, appendChangeSQL, budgetID, action, time.Now().UTC()).
		Scan(&changeID)
	if err != nil {
		return 0, postgres.MapError(err, "budget", budgetID)
	}

	return changeID, nil
}

// Version returns the budget's current version: the highest change id, or
// zero for a budget with no accepted changes yet.
func (r *Repo) Version(ctx context.Context, budgetID int64) (int64, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	var version int64
	if err := querier.QueryRow(ctx, versionSQL, budgetID).Scan(&version); err != nil {
		return 0, postgres.MapError(err, "budget", budgetID)
	}

	return version, nil
}

// ---------------------------------------------------------------------------
// Listings
// ---------------------------------------------------------------------------

// ListByOwner returns id and name of every budget owned by the user, newest
// first. The name is read out of the jsonb snapshot.
func (r *Repo) ListByOwner(ctx context.Context, owner uuid.UUID) ([]domain.BudgetSummary, error) {
	query, args, err := r.sb.
		Select("m.id", "COALESCE(d.data->>'name', '')").
		From("budget_metadata m").
		LeftJoin("budget_data d ON d.budget_id = m.id").
		Where(sq.Eq{"m.owner": owner}).
		OrderBy("m.created_at DESC", "m.id DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list query: %w", err)
	}

	querier := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := querier.Query(ctx, query, args...)
	if err != nil {
		return nil, postgres.MapError(err, "budget", owner)
	}
	defer rows.Close()

	var budgets []domain.BudgetSummary
	for rows.Next() {
		var s domain.BudgetSummary
		if err := rows.Scan(&s.ID, &s.Name); err != nil {
			return nil, fmt.Errorf("scan budget summary: %w", err)
		}
		budgets = append(budgets, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate budget summaries: %w", err)
	}

	if budgets == nil {
		budgets = []domain.BudgetSummary{}
	}

	return budgets, nil
}
