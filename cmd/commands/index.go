package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/vinavi-labs/vinavi/internal/retrieval"
)

// NewIndexCommand returns the index subcommand.
func NewIndexCommand() *cli.Command {
	return &cli.Command{
		Name:  "index",
		Usage: "Manage the passage index used by meaning and example",
		Commands: []*cli.Command{
			{
				Name:      "build",
				Usage:     "Embed a text corpus (passages separated by blank lines) into the index",
				ArgsUsage: "<corpus.txt>...",
				Action:    runIndexBuild,
			},
			{
				Name:   "stats",
				Usage:  "Show the number of indexed passages",
				Action: runIndexStats,
			},
			{
				Name:      "search",
				Usage:     "Query the index with the meaning settings",
				ArgsUsage: "<text>",
				Action:    runIndexSearch,
			},
		},
	}
}

func runIndexBuild(ctx context.Context, cmd *cli.Command) error {
	setupLogging(cmd)
	if cmd.Args().Len() == 0 {
		return fmt.Errorf("usage: vinavi index build <corpus.txt>...")
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	embedder, err := retrieval.NewEmbedder(ctx, cfg.Embedding)
	if err != nil {
		return err
	}

	for _, path := range cmd.Args().Slice() {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open corpus: %w", err)
		}
		passages, err := retrieval.SplitPassages(f)
		f.Close()
		if err != nil {
			return err
		}

		stats, err := retrieval.Build(ctx, cfg.Index.Path, cfg.Index.Collection, path, passages, embedder)
		if err != nil {
			return err
		}
		fmt.Printf("%s: %d passages added (%d total)\n", path, stats.Passages, stats.Total)
	}
	return nil
}

func runIndexStats(ctx context.Context, cmd *cli.Command) error {
	setupLogging(cmd)
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	ix, err := openIndex(ctx, cfg)
	if err != nil {
		return err
	}
	fmt.Printf("%s/%s: %d passages\n", cfg.Index.Path, cfg.Index.Collection, ix.Count())
	return nil
}

func runIndexSearch(ctx context.Context, cmd *cli.Command) error {
	setupLogging(cmd)
	query := cmd.Args().First()
	if query == "" {
		return fmt.Errorf("usage: vinavi index search <text>")
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	ix, err := openIndex(ctx, cfg)
	if err != nil {
		return err
	}

	passages, err := ix.Search(ctx, query, cfg.Retrieval.Meaning.TopK, cfg.Retrieval.Meaning.MinSimilarity())
	if err != nil {
		return err
	}
	p := newPrinter()
	if len(passages) == 0 {
		p.muted("no passage above the threshold")
		return nil
	}
	for _, ps := range passages {
		p.heading(fmt.Sprintf("%s (%.3f)", ps.ID, ps.Similarity))
		fmt.Println(ps.Content)
	}
	return nil
}
