package app

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/bradenmacdonald/ratio/internal/config"
	"github.com/bradenmacdonald/ratio/internal/transport/middleware"
	"github.com/bradenmacdonald/ratio/internal/transport/rest"
	"github.com/bradenmacdonald/ratio/internal/transport/ws"
)

type tokenValidator interface {
	Authenticate(ctx context.Context, token string) (uuid.UUID, error)
}

type routerDeps struct {
	log       *slog.Logger
	cfg       *config.Config
	auth      *rest.AuthHandler
	budgets   *rest.BudgetHandler
	health    *rest.HealthHandler
	rpc       *ws.Handler
	validator tokenValidator
	limiter   *middleware.RateLimiter
}

// newRouter builds the HTTP routing table. The auth endpoints are rate
// limited per client IP; everything passes through the shared middleware
// chain, which resolves the bearer token (header or token query parameter)
// into a user identity.
func newRouter(d routerDeps) http.Handler {
	mux := http.NewServeMux()

	rate := d.limiter.Limit(d.cfg.Auth.RatePerMinute)
	mux.Handle("POST /api/auth/register", rate(http.HandlerFunc(d.auth.Register)))
	mux.Handle("POST /api/auth/login", rate(http.HandlerFunc(d.auth.Login)))

	mux.HandleFunc("GET /api/budgets", d.budgets.List)

	mux.HandleFunc("GET /healthz/live", d.health.Live)
	mux.HandleFunc("GET /healthz/ready", d.health.Ready)
	mux.HandleFunc("GET /healthz", d.health.Health)

	mux.Handle("GET /budget-rpc", d.rpc)

	return middleware.Chain(
		middleware.Recovery(d.log),
		middleware.RequestID,
		middleware.Logger(d.log),
		middleware.CORS(d.cfg.CORS),
		middleware.Auth(d.validator),
	)(mux)
}
