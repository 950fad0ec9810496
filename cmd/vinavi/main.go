package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"

	"github.com/vinavi-labs/vinavi/cmd/commands"
	"github.com/vinavi-labs/vinavi/internal/config"
	"github.com/vinavi-labs/vinavi/internal/secrets"
)

func main() {
	if err := config.LoadDotenv(config.DotenvPath()); err != nil {
		slog.Warn("failed to load .env", "error", err)
	}
	if keys, err := secrets.DecryptEnv(secrets.KeyPath()); err != nil {
		slog.Warn("failed to decrypt secrets", "error", err)
	} else if len(keys) > 0 {
		slog.Debug("secrets decrypted", "count", len(keys))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	cmd := commands.NewRootCommand()
	if err := cmd.Run(ctx, os.Args); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}
