package domain

import (
	"time"

	"github.com/google/uuid"
)

// User is an account holder. PasswordHash is a bcrypt hash and never leaves
// the auth service.
type User struct {
	ID           uuid.UUID
	Email        string
	ShortName    string
	PasswordHash string
	CreatedAt    time.Time
}

// BudgetMeta is the per-budget control row. OpenCount increments on every
// open and seeds the safe-ID prefix handed to that session.
type BudgetMeta struct {
	ID        int64
	Owner     uuid.UUID
	OpenCount int64
	CreatedAt time.Time
}

// BudgetSummary is what budget listings return.
type BudgetSummary struct {
	ID   int64
	Name string
}
