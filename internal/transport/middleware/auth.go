package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/bradenmacdonald/ratio/pkg/ctxutil"
)

type tokenValidator interface {
	Authenticate(ctx context.Context, token string) (uuid.UUID, error)
}

// Auth resolves the request's access token into a user id on the context.
// Requests without a token pass through anonymously; downstream handlers
// decide whether identity is required. The token is taken from the
// Authorization header, or from the "token" query parameter for websocket
// upgrades, where browsers cannot set custom headers.
func Auth(validator tokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractToken(r)
			if token == "" {
				next.ServeHTTP(w, r) // Anonymous
				return
			}
			userID, err := validator.Authenticate(r.Context(), token)
			if err != nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			ctx := ctxutil.WithUserID(r.Context(), userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func extractToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return r.URL.Query().Get("token")
}
