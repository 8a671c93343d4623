package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const listenRetryDelay = 2 * time.Second

// PostgresBroker publishes events with pg_notify and listens on a dedicated
// connection, so events reach subscribers in every server process sharing the
// database.
type PostgresBroker struct {
	pool *pgxpool.Pool
	dsn  string
	log  *slog.Logger
}

// NewPostgresBroker creates a broker. The pool is used for publishing; the
// DSN for the dedicated listen connection.
func NewPostgresBroker(pool *pgxpool.Pool, dsn string, log *slog.Logger) *PostgresBroker {
	return &PostgresBroker{
		pool: pool,
		dsn:  dsn,
		log:  log.With("component", "notify"),
	}
}

// Publish broadcasts the event on the shared channel. NOTIFY fires on commit,
// so when called inside a transaction the event is only delivered if the
// transaction commits.
func (b *PostgresBroker) Publish(ctx context.Context, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	if _, err := b.pool.Exec(ctx, `SELECT pg_notify($1, $2)`, Channel, string(payload)); err != nil {
		return fmt.Errorf("pg_notify: %w", err)
	}

	return nil
}

// Listen blocks delivering notifications to h until ctx is canceled. The
// dedicated connection is re-established after failures; notifications sent
// while disconnected are lost, which is acceptable because clients re-fetch
// on reconnect.
func (b *PostgresBroker) Listen(ctx context.Context, h Handler) error {
	for {
		err := b.listenOnce(ctx, h)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		b.log.Error("listener disconnected, retrying", "error", err)

		select {
		case <-time.After(listenRetryDelay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (b *PostgresBroker) listenOnce(ctx context.Context, h Handler) error {
	conn, err := pgx.Connect(ctx, b.dsn)
	if err != nil {
		return fmt.Errorf("connect listener: %w", err)
	}
	defer conn.Close(context.Background())

	if _, err := conn.Exec(ctx, "LISTEN "+Channel); err != nil {
		return fmt.Errorf("listen %s: %w", Channel, err)
	}
	b.log.Info("listening for budget actions", "channel", Channel)

	for {
		n, err := conn.WaitForNotification(ctx)
		if err != nil {
			return fmt.Errorf("wait for notification: %w", err)
		}

		var ev Event
		if err := json.Unmarshal([]byte(n.Payload), &ev); err != nil {
			b.log.Warn("dropping malformed notification", "error", err)
			continue
		}
		h(ev)
	}
}
