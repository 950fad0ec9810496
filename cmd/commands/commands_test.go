package commands

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/urfave/cli/v3"

	"github.com/vinavi-labs/vinavi/internal/config"
)

func TestRootCommand_Subcommands(t *testing.T) {
	root := NewRootCommand()
	want := []string{"serve", "ask", "practice", "status", "sessions", "index", "secret"}
	for _, name := range want {
		if root.Command(name) == nil {
			t.Errorf("missing subcommand %q", name)
		}
	}
}

// probe runs the root command with a subcommand that loads the config.
func probe(t *testing.T, args ...string) (*config.Config, error) {
	t.Helper()
	var (
		got *config.Config
		err error
	)
	root := NewRootCommand()
	root.Commands = append(root.Commands, &cli.Command{
		Name: "probe",
		Action: func(_ context.Context, cmd *cli.Command) error {
			got, err = loadConfig(cmd)
			return nil
		},
	})
	if runErr := root.Run(context.Background(), append(append([]string{"vinavi"}, args...), "probe")); runErr != nil {
		t.Fatalf("run: %v", runErr)
	}
	return got, err
}

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := probe(t, "--config", filepath.Join(t.TempDir(), "absent.jsonc"))
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Server.Port != 18430 {
		t.Fatalf("expected default port, got %d", cfg.Server.Port)
	}
}

func TestLoadConfig_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.jsonc")
	data := `{
		// local development
		"server": {"port": 9000},
		"retrieval": {"example": {"top_k": 7}},
	}`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := probe(t, "--config", path)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Server.Port != 9000 || cfg.Retrieval.Example.TopK != 7 {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if cfg.Retrieval.Meaning.TopK != 4 {
		t.Fatalf("meaning defaults lost: %+v", cfg.Retrieval.Meaning)
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.jsonc")
	if err := os.WriteFile(path, []byte("{"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := probe(t, "--config", path); err == nil {
		t.Fatal("expected parse error")
	}
}
