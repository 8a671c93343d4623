// Package user implements the User repository using PostgreSQL.
package user

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/bradenmacdonald/ratio/internal/adapter/postgres"
	"github.com/bradenmacdonald/ratio/internal/domain"
)

// Repo provides user persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new user repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const createUserSQL = `
INSERT INTO users (id, email, short_name, password_hash, created_at)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, email, short_name, password_hash, created_at`

const getUserByIDSQL = `
SELECT id, email, short_name, password_hash, created_at
FROM users
WHERE id = $1`

// Email lookups are case-insensitive, matching the unique index on
// lower(email).
const getUserByEmailSQL = `
SELECT id, email, short_name, password_hash, created_at
FROM users
WHERE lower(email) = lower($1)`

// Create inserts a new user and returns the persisted domain.User.
// A duplicate email results in domain.ErrAlreadyExists.
func (r *Repo) Create(ctx context.Context, u domain.User) (domain.User, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC().Truncate(time.Microsecond)
	}

	var out domain.User
	err := querier.QueryRow(ctx, createUserSQL, u.ID, u.Email, u.ShortName, u.PasswordHash, u.CreatedAt).
		Scan(&out.ID, &out.Email, &out.ShortName, &out.PasswordHash, &out.CreatedAt)
	if err != nil {
		return domain.User{}, postgres.MapError(err, "user", u.Email)
	}

	return out, nil
}

// GetByID returns a user by primary key.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (domain.User, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	var out domain.User
	err := querier.QueryRow(ctx, getUserByIDSQL, id).
		Scan(&out.ID, &out.Email, &out.ShortName, &out.PasswordHash, &out.CreatedAt)
	if err != nil {
		return domain.User{}, postgres.MapError(err, "user", id)
	}

	return out, nil
}

// GetByEmail returns a user by email address, case-insensitively.
func (r *Repo) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	var out domain.User
	err := querier.QueryRow(ctx, getUserByEmailSQL, email).
		Scan(&out.ID, &out.Email, &out.ShortName, &out.PasswordHash, &out.CreatedAt)
	if err != nil {
		return domain.User{}, postgres.MapError(err, "user", email)
	}

	return out, nil
}
