// Command ratio-client is a minimal sync client: it connects to a server,
// opens one budget, and streams every action applied to it until interrupted.
//
// Usage:
//
//	ratio-client -url ws://localhost:8080/budget-rpc -token <jwt> -budget 42
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/bradenmacdonald/ratio/internal/client"
)

func main() {
	var (
		url      = flag.String("url", "ws://localhost:8080/budget-rpc", "server RPC endpoint")
		token    = flag.String("token", "", "access token (JWT)")
		budgetID = flag.Int64("budget", 0, "budget id to watch")
	)
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	if *budgetID == 0 {
		logger.Error("-budget is required")
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cl := client.New(client.Options{URL: *url, Token: *token, Logger: logger})
	sess := client.NewSession(cl, logger)
	sess.Bind(cl)
	// Log every push on top of the session's own handling.
	cl.OnNotification(func(method string, params json.RawMessage) {
		logger.Info("server push", slog.String("method", method), slog.String("params", string(params)))
		sess.HandleNotification(method, params)
	})

	if err := cl.Connect(ctx); err != nil {
		logger.Error("connect failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer cl.Close()

	if err := sess.Open(ctx, *budgetID); err != nil {
		logger.Error("open budget failed", slog.Any("error", err))
		os.Exit(1)
	}

	doc, _ := sess.Budget()
	logger.Info("watching budget",
		slog.String("budget", doc.PlainString()),
		slog.Int64("version", sess.Version()),
		slog.Int64("safe_id_prefix", sess.SafeIDPrefix()),
	)

	<-ctx.Done()
	logger.Info("shutting down")
}
