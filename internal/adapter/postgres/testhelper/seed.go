package testhelper

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bradenmacdonald/ratio/internal/domain"
)

// uniqueSuffix returns a short unique string for generating non-conflicting test data.
func uniqueSuffix() string {
	return uuid.New().String()[:8]
}

// SeedUser creates a user with a throwaway password hash.
// Returns a filled domain.User.
func SeedUser(t *testing.T, pool *pgxpool.Pool) domain.User {
	t.Helper()
	ctx := context.Background()

	suffix := uniqueSuffix()
	user := domain.User{
		ID:           uuid.New(),
		Email:        "testuser-" + suffix + "@example.com",
		ShortName:    "Test " + suffix,
		PasswordHash: "$2a$10$testhashtesthashtesthashtesthashtesthashtesthashtestha",
		CreatedAt:    time.Now().UTC().Truncate(time.Microsecond),
	}

	_, err := pool.Exec(ctx,
		`INSERT INTO users (id, email, short_name, password_hash, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		user.ID, user.Email, user.ShortName, user.PasswordHash, user.CreatedAt,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedUser insert user: %v", err)
	}

	return user
}

// SeedBudget creates a budget owned by the user: a metadata row plus the
// document snapshot. Returns the budget id and the stored document.
func SeedBudget(t *testing.T, pool *pgxpool.Pool, owner uuid.UUID, name string) (int64, domain.Budget) {
	t.Helper()
	ctx := context.Background()

	var budgetID int64
	err := pool.QueryRow(ctx,
		`INSERT INTO budget_metadata (owner, open_count, created_at)
		 VALUES ($1, 0, $2)
		 RETURNING id`,
		owner, time.Now().UTC(),
	).Scan(&budgetID)
	if err != nil {
		t.Fatalf("testhelper: SeedBudget insert metadata: %v", err)
	}

	budget := domain.NewBudget(budgetID, name)

	data, err := json.Marshal(budget.ToPlain())
	if err != nil {
		t.Fatalf("testhelper: SeedBudget marshal document: %v", err)
	}

	_, err = pool.Exec(ctx,
		`INSERT INTO budget_data (budget_id, data, change_date)
		 VALUES ($1, $2, $3)`,
		budgetID, data, time.Now().UTC(),
	)
	if err != nil {
		t.Fatalf("testhelper: SeedBudget insert data: %v", err)
	}

	return budgetID, budget
}
