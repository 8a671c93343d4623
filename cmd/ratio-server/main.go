// Command ratio-server runs the budget synchronization server: REST auth
// endpoints plus the JSON-RPC websocket surface at /budget-rpc.
//
// Configuration is read from CONFIG_PATH (default ./config.yaml) and the
// environment; see internal/config.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/bradenmacdonald/ratio/internal/app"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx); err != nil {
		slog.Error("server exited", slog.Any("error", err))
		os.Exit(1)
	}
}
