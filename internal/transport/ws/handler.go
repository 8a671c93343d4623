package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"github.com/bradenmacdonald/ratio/internal/action"
	"github.com/bradenmacdonald/ratio/internal/config"
	"github.com/bradenmacdonald/ratio/internal/domain"
	"github.com/bradenmacdonald/ratio/internal/notify"
	"github.com/bradenmacdonald/ratio/internal/service/budget"
	"github.com/bradenmacdonald/ratio/pkg/ctxutil"
)

// budgetService defines the operations the RPC surface exposes.
type budgetService interface {
	Create(ctx context.Context, name string, template map[string]any) (domain.BudgetSummary, error)
	Get(ctx context.Context, budgetID int64) (budget.OpenResult, error)
	Update(ctx context.Context, origin uuid.UUID, act action.Action) (int64, error)
	Authorize(ctx context.Context, budgetID int64) error
}

// Handler upgrades /budget-rpc requests to websockets and serves JSON-RPC
// calls over them. Each connection gets a uuid identity that doubles as the
// origin marker for the action fanout.
type Handler struct {
	log      *slog.Logger
	budgets  budgetService
	registry *notify.Registry
	cfg      config.SyncConfig
}

// NewHandler creates the websocket RPC handler.
func NewHandler(logger *slog.Logger, budgets budgetService, registry *notify.Registry, cfg config.SyncConfig) *Handler {
	return &Handler{
		log:      logger.With("handler", "ws"),
		budgets:  budgets,
		registry: registry,
		cfg:      cfg,
	}
}

// ServeHTTP accepts the websocket upgrade. An unauthenticated connection is
// told "Unauthorized" in a plain text frame and closed, so clients can show
// a login prompt instead of retrying.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	sock, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		h.log.WarnContext(r.Context(), "websocket accept failed", slog.Any("error", err))
		return
	}

	userID, ok := ctxutil.UserIDFromCtx(r.Context())
	if !ok {
		h.log.InfoContext(r.Context(), "unauthorized websocket connection attempt")
		ctx, cancel := context.WithTimeout(context.Background(), h.cfg.WriteTimeout)
		defer cancel()
		_ = sock.Write(ctx, websocket.MessageText, []byte("Unauthorized"))
		_ = sock.Close(websocket.StatusNormalClosure, "")
		return
	}

	sock.SetReadLimit(h.cfg.MaxMessageBytes)
	h.serve(r.Context(), sock, userID)
}

func (h *Handler) serve(ctx context.Context, sock *websocket.Conn, userID uuid.UUID) {
	connID := uuid.New()
	c := &conn{sock: sock, writeTimeout: h.cfg.WriteTimeout}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	h.registry.Register(connID, func(ev notify.Event) {
		if err := c.notify(ctx, NotifyBudgetAction, ActionParams{Action: ev.Action}); err != nil {
			h.log.WarnContext(ctx, "failed to push budget_action",
				slog.String("conn_id", connID.String()),
				slog.Any("error", err))
		}
	})
	defer h.registry.Unregister(connID)
	defer sock.Close(websocket.StatusNormalClosure, "")

	go h.ping(ctx, sock, connID)

	// Clients wait for this before sending, which is more reliable than
	// sending right after their open event.
	if err := c.notify(ctx, NotifyConnectionReady, nil); err != nil {
		return
	}

	h.log.InfoContext(ctx, "websocket connected", slog.String("conn_id", connID.String()))
	defer h.log.InfoContext(ctx, "websocket disconnected", slog.String("conn_id", connID.String()))

	for {
		_, data, err := sock.Read(ctx)
		if err != nil {
			return
		}
		h.dispatch(ctx, c, connID, data)
	}
}

// ping keeps idle sockets alive past intermediary 60s timeouts.
func (h *Handler) ping(ctx context.Context, sock *websocket.Conn, connID uuid.UUID) {
	ticker := time.NewTicker(h.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pctx, cancel := context.WithTimeout(ctx, h.cfg.WriteTimeout)
			err := sock.Ping(pctx)
			cancel()
			if err != nil {
				h.log.DebugContext(ctx, "ping failed", slog.String("conn_id", connID.String()))
				return
			}
		}
	}
}

func (h *Handler) dispatch(ctx context.Context, c *conn, connID uuid.UUID, data []byte) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		_ = c.replyError(ctx, nil, &Error{Code: CodeParseError, Message: "parse error"})
		return
	}
	if req.Method == "" {
		_ = c.replyError(ctx, req.ID, &Error{Code: CodeInvalidRequest, Message: "invalid request"})
		return
	}

	h.log.DebugContext(ctx, "rpc call",
		slog.String("method", req.Method),
		slog.String("conn_id", connID.String()))

	result, rpcErr := h.call(ctx, connID, req.Method, req.Params)
	if len(req.ID) == 0 {
		return // notification, no reply
	}
	if rpcErr != nil {
		_ = c.replyError(ctx, req.ID, rpcErr)
		return
	}
	_ = c.reply(ctx, req.ID, result)
}
