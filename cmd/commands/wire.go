package commands

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	appcb "github.com/vinavi-labs/vinavi/internal/callbacks"
	"github.com/vinavi-labs/vinavi/internal/companion"
	"github.com/vinavi-labs/vinavi/internal/config"
	"github.com/vinavi-labs/vinavi/internal/events"
	"github.com/vinavi-labs/vinavi/internal/exercise"
	"github.com/vinavi-labs/vinavi/internal/llm"
	"github.com/vinavi-labs/vinavi/internal/models"
	"github.com/vinavi-labs/vinavi/internal/moderation"
	"github.com/vinavi-labs/vinavi/internal/prompts"
	"github.com/vinavi-labs/vinavi/internal/retrieval"
	"github.com/vinavi-labs/vinavi/internal/sessions"
	"github.com/vinavi-labs/vinavi/internal/speech"
)

func setupLogging(cmd *cli.Command) {
	if cmd.Bool("debug") {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}
}

// loadConfig reads the --config file. A missing file yields the defaults.
func loadConfig(cmd *cli.Command) (*config.Config, error) {
	path := cmd.String("config")
	cfg, err := config.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		slog.Warn("config not found, using defaults", "path", path)
		return config.Default(), nil
	}
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// newCompanion wires the service from config. A passage index that cannot be
// opened only disables the retrieval-backed options.
func newCompanion(ctx context.Context, cfg *config.Config, bus *events.Bus, store sessions.Store) (*companion.Service, error) {
	registry := models.NewRegistry(cfg.Models)
	client := llm.NewClient(registry, appcb.NewEventBusHandler(bus))

	set, err := prompts.Load(cfg.Prompts.File)
	if err != nil {
		return nil, fmt.Errorf("load prompts: %w", err)
	}
	profiles, err := llm.Profiles(cfg.Profiles)
	if err != nil {
		return nil, fmt.Errorf("profiles: %w", err)
	}

	blocklist, err := moderation.NewBlocklist(cfg.Moderation.Blocklist, cfg.Moderation.BlocklistFile)
	if err != nil {
		return nil, fmt.Errorf("load blocklist: %w", err)
	}
	slog.Debug("blocklist loaded", "entries", blocklist.Len())

	svcCfg := companion.Config{
		Store:         store,
		Bus:           bus,
		LLM:           client,
		Prompts:       set,
		Profiles:      profiles,
		Gate:          moderation.NewGate(client, set, profiles[llm.PathModeration], blocklist),
		Exercises:     exercise.NewGenerator(client, set, profiles, cfg.Exercises.Items),
		Speech:        speech.NewGoogleTTS(cfg.Speech),
		Retrieval:     cfg.Retrieval,
		HistoryWindow: cfg.Conversation.HistoryWindow,
		Refusal:       cfg.Moderation.Refusal,
	}

	if ix, err := openIndex(ctx, cfg); err != nil {
		slog.Warn("passage index unavailable, meaning and example are disabled", "path", cfg.Index.Path, "error", err)
		svcCfg.IndexErr = err
	} else {
		slog.Info("passage index opened", "collection", cfg.Index.Collection, "passages", ix.Count())
		svcCfg.Index = ix
	}

	return companion.New(svcCfg), nil
}

func openIndex(ctx context.Context, cfg *config.Config) (*retrieval.Index, error) {
	embedder, err := retrieval.NewEmbedder(ctx, cfg.Embedding)
	if err != nil {
		return nil, err
	}
	return retrieval.Open(ctx, cfg.Index.Path, cfg.Index.Collection, embedder)
}
