package commands

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/vinavi-labs/vinavi/internal/events"
	"github.com/vinavi-labs/vinavi/internal/gateway"
	"github.com/vinavi-labs/vinavi/internal/heartbeat"
	"github.com/vinavi-labs/vinavi/internal/sessions"
	"github.com/vinavi-labs/vinavi/internal/storage"
	"github.com/vinavi-labs/vinavi/web"
)

// NewServeCommand returns the serve subcommand.
func NewServeCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the Vinavi gateway and web UI",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "Host to listen on",
			},
			&cli.IntFlag{
				Name:  "port",
				Usage: "Port to listen on",
			},
			&cli.BoolFlag{
				Name:  "no-ui",
				Usage: "Serve the API only",
			},
		},
		Action: runServe,
	}
}

func runServe(ctx context.Context, cmd *cli.Command) error {
	setupLogging(cmd)

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.IsSet("host") {
		cfg.Server.Host = cmd.String("host")
	}
	if cmd.IsSet("port") {
		cfg.Server.Port = cmd.Int("port")
	}

	bus := events.NewBus(cfg.Events.BufferSize)
	defer bus.Close()

	store := sessions.NewMemoryStore()

	svc, err := newCompanion(ctx, cfg, bus, store)
	if err != nil {
		return err
	}

	usage := storage.NewUsageTracker(bus, store)
	defer usage.Close()

	if cfg.Transcripts.Enabled {
		tl := storage.NewTranscriptLogger(cfg.Transcripts.Dir, bus)
		defer tl.Close()
		slog.Info("transcript logging enabled", "dir", cfg.Transcripts.Dir)
	}

	sweeper, err := sessions.NewSweeper(store, bus, cfg.Sessions.IdleTTL.Duration(), cfg.Sessions.SweepSchedule)
	if err != nil {
		return fmt.Errorf("session sweeper: %w", err)
	}
	sweeper.Start()
	defer sweeper.Stop()

	ui := web.SPAHandler()
	if cmd.Bool("no-ui") {
		ui = nil
	}
	server := gateway.NewServer(cfg.Server, bus, svc, ui)

	hb := heartbeat.NewWriter(heartbeat.DefaultPath(), fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		30*time.Second, func() int { return len(store.List()) })
	if err := hb.Start(); err != nil {
		slog.Warn("heartbeat disabled", "error", err)
	}
	defer hb.Stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
