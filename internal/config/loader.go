package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/tailscale/hujson"
)

var envTemplateRe = regexp.MustCompile(`\$\{\{\s*\.Env\.(\w+)\s*\}\}`)

// Load reads a JSONC config file, expands ${{ .Env.VAR }} templates, strips
// comments and trailing commas, unmarshals it into Config, and applies defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Expand environment variable templates (before standardizing, since templates are in strings)
	expanded := expandEnvTemplates(string(data))

	std, err := hujson.Standardize([]byte(expanded))
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(std, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

// Default returns a config populated only with defaults.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// expandEnvTemplates replaces ${{ .Env.VAR }} with the env var value.
func expandEnvTemplates(s string) string {
	return envTemplateRe.ReplaceAllStringFunc(s, func(match string) string {
		parts := envTemplateRe.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}
		return os.Getenv(parts[1])
	})
}

// applyDefaults fills in zero-value fields with sensible defaults.
func applyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "127.0.0.1"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 18430
	}

	if cfg.Models.Default == "" && len(cfg.Models.Providers) == 0 {
		cfg.Models.Default = "openai"
		cfg.Models.Providers = map[string]ProviderConfig{
			"openai": {Driver: "openai", Model: "gpt-4o"},
		}
	}

	if cfg.Embedding.Driver == "" {
		cfg.Embedding.Driver = "openai"
	}
	if cfg.Embedding.Model == "" && cfg.Embedding.Driver == "openai" {
		cfg.Embedding.Model = "text-embedding-ada-002"
	}

	if cfg.Index.Path == "" {
		cfg.Index.Path = filepath.Join(VinaviPath(), "data", "vectorstore_med")
	}
	if cfg.Index.Collection == "" {
		cfg.Index.Collection = "tamil_passages"
	}

	if cfg.Retrieval.Meaning.TopK == 0 {
		cfg.Retrieval.Meaning.TopK = 4
		if cfg.Retrieval.Meaning.Threshold == 0 && cfg.Retrieval.Meaning.MaxDistance == 0 {
			cfg.Retrieval.Meaning.MaxDistance = 0.8
		}
	}
	if cfg.Retrieval.Example.TopK == 0 {
		cfg.Retrieval.Example.TopK = 5
	}

	if cfg.Conversation.HistoryWindow <= 0 {
		cfg.Conversation.HistoryWindow = 10
	}

	if cfg.Exercises.Items <= 0 {
		cfg.Exercises.Items = 3
	}

	if cfg.Moderation.Refusal == "" {
		cfg.Moderation.Refusal = "மன்னிக்கவும், நான் அந்த கேள்விக்கு பதில் அளிக்க முடியாது."
	}
	if cfg.Moderation.BlocklistFile == "" {
		cfg.Moderation.BlocklistFile = filepath.Join(VinaviPath(), "blocklist.txt")
	}

	if cfg.Speech.Language == "" {
		cfg.Speech.Language = "ta"
	}
	if cfg.Speech.Timeout == 0 {
		cfg.Speech.Timeout = Duration(10 * time.Second)
	}

	if cfg.Sessions.IdleTTL == 0 {
		cfg.Sessions.IdleTTL = Duration(2 * time.Hour)
	}
	if cfg.Sessions.SweepSchedule == "" {
		cfg.Sessions.SweepSchedule = "@every 10m"
	}

	if cfg.Events.BufferSize == 0 {
		cfg.Events.BufferSize = 1024
	}

	if cfg.Transcripts.Dir == "" {
		cfg.Transcripts.Dir = filepath.Join(VinaviPath(), "transcripts")
	}
	// Auth resolution is deferred to models.ResolveAuth() at model init time.
}
