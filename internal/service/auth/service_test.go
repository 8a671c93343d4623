package auth

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/bradenmacdonald/ratio/internal/config"
	"github.com/bradenmacdonald/ratio/internal/domain"
)

// userRepoFake implements userRepo with overridable functions.
type userRepoFake struct {
	getByIDFn    func(ctx context.Context, id uuid.UUID) (domain.User, error)
	getByEmailFn func(ctx context.Context, email string) (domain.User, error)
	createFn     func(ctx context.Context, u domain.User) (domain.User, error)
}

func (f *userRepoFake) GetByID(ctx context.Context, id uuid.UUID) (domain.User, error) {
	return f.getByIDFn(ctx, id)
}

func (f *userRepoFake) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	return f.getByEmailFn(ctx, email)
}

func (f *userRepoFake) Create(ctx context.Context, u domain.User) (domain.User, error) {
	return f.createFn(ctx, u)
}

// jwtFake issues predictable tokens.
type jwtFake struct {
	validateFn func(token string) (uuid.UUID, error)
}

func (f *jwtFake) GenerateAccessToken(userID uuid.UUID) (string, error) {
	return "token-for-" + userID.String(), nil
}

func (f *jwtFake) ValidateAccessToken(token string) (uuid.UUID, error) {
	if f.validateFn != nil {
		return f.validateFn(token)
	}
	return uuid.Nil, domain.ErrNotAuthorized
}

func testConfig() config.AuthConfig {
	return config.AuthConfig{
		JWTSecret:        "test-secret-at-least-32-chars-long-for-security",
		JWTIssuer:        "ratio-test",
		AccessTokenTTL:   15 * time.Minute,
		PasswordHashCost: bcrypt.MinCost,
	}
}

func newService(users userRepo, jwt jwtManager) *Service {
	return NewService(slog.New(slog.DiscardHandler), users, jwt, testConfig())
}

func TestRegister_HappyPath(t *testing.T) {
	t.Parallel()

	var created domain.User
	users := &userRepoFake{
		createFn: func(_ context.Context, u domain.User) (domain.User, error) {
			u.ID = uuid.New()
			created = u
			return u, nil
		},
	}

	svc := newService(users, &jwtFake{})

	result, err := svc.Register(context.Background(), RegisterInput{
		Email:     "  braden@example.com ",
		ShortName: "Braden",
		Password:  "correct horse battery",
	})
	require.NoError(t, err)

	assert.Equal(t, "braden@example.com", created.Email, "email must be trimmed, case preserved")
	assert.NotEqual(t, "correct horse battery", created.PasswordHash)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(created.PasswordHash), []byte("correct horse battery")))
	assert.Equal(t, "token-for-"+created.ID.String(), result.AccessToken)
}

func TestRegister_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input RegisterInput
	}{
		{"missing email", RegisterInput{Password: "long enough pw"}},
		{"bad email", RegisterInput{Email: "not-an-email", Password: "long enough pw"}},
		{"missing password", RegisterInput{Email: "a@b.com"}},
		{"short password", RegisterInput{Email: "a@b.com", Password: "short"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			svc := newService(&userRepoFake{}, &jwtFake{})
			_, err := svc.Register(context.Background(), tt.input)
			require.ErrorIs(t, err, domain.ErrValidation)
		})
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	t.Parallel()

	users := &userRepoFake{
		createFn: func(_ context.Context, _ domain.User) (domain.User, error) {
			return domain.User{}, domain.ErrAlreadyExists
		},
	}
	svc := newService(users, &jwtFake{})

	_, err := svc.Register(context.Background(), RegisterInput{
		Email:    "taken@example.com",
		Password: "long enough pw",
	})
	require.ErrorIs(t, err, domain.ErrAlreadyExists)
}

func TestLogin_HappyPath(t *testing.T) {
	t.Parallel()

	hash, err := bcrypt.GenerateFromPassword([]byte("hunter22hunter22"), bcrypt.MinCost)
	require.NoError(t, err)

	stored := domain.User{ID: uuid.New(), Email: "braden@example.com", PasswordHash: string(hash)}
	users := &userRepoFake{
		getByEmailFn: func(_ context.Context, email string) (domain.User, error) {
			assert.Equal(t, stored.Email, email)
			return stored, nil
		},
	}
	svc := newService(users, &jwtFake{})

	result, err := svc.Login(context.Background(), LoginInput{
		Email:    "braden@example.com",
		Password: "hunter22hunter22",
	})
	require.NoError(t, err)
	assert.Equal(t, stored.ID, result.User.ID)
	assert.NotEmpty(t, result.AccessToken)
}

func TestLogin_WrongPassword(t *testing.T) {
	t.Parallel()

	hash, err := bcrypt.GenerateFromPassword([]byte("the right password"), bcrypt.MinCost)
	require.NoError(t, err)

	users := &userRepoFake{
		getByEmailFn: func(_ context.Context, _ string) (domain.User, error) {
			return domain.User{ID: uuid.New(), PasswordHash: string(hash)}, nil
		},
	}
	svc := newService(users, &jwtFake{})

	_, err = svc.Login(context.Background(), LoginInput{Email: "a@b.com", Password: "the wrong password"})
	require.ErrorIs(t, err, domain.ErrNotAuthorized)
}

func TestLogin_UnknownEmail(t *testing.T) {
	t.Parallel()

	users := &userRepoFake{
		getByEmailFn: func(_ context.Context, _ string) (domain.User, error) {
			return domain.User{}, domain.ErrNotFound
		},
	}
	svc := newService(users, &jwtFake{})

	_, err := svc.Login(context.Background(), LoginInput{Email: "a@b.com", Password: "whatever pw"})
	require.ErrorIs(t, err, domain.ErrNotAuthorized, "unknown email must look identical to a bad password")
}

func TestAuthenticate(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	jwt := &jwtFake{
		validateFn: func(token string) (uuid.UUID, error) {
			if token == "good" {
				return userID, nil
			}
			return uuid.Nil, assert.AnError
		},
	}
	svc := newService(&userRepoFake{}, jwt)

	got, err := svc.Authenticate(context.Background(), "good")
	require.NoError(t, err)
	assert.Equal(t, userID, got)

	_, err = svc.Authenticate(context.Background(), "bad")
	require.ErrorIs(t, err, domain.ErrNotAuthorized)
}
