package models

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"

	"github.com/vinavi-labs/vinavi/internal/config"
)

// CreateModel creates a chat model from a provider config.
func CreateModel(ctx context.Context, cfg config.ProviderConfig) (model.BaseChatModel, error) {
	driver := strings.ToLower(cfg.Driver)
	if driver == "ollama" {
		return NewOllama(ctx, cfg)
	}

	if _, known := driverKeyEnv[driver]; !known {
		return nil, fmt.Errorf("unknown driver: %s", cfg.Driver)
	}
	apiKey, err := ResolveAuth(cfg)
	if err != nil {
		return nil, fmt.Errorf("resolve auth: %w", err)
	}

	switch driver {
	case "openai":
		return NewOpenAI(ctx, cfg, apiKey)
	case "mistral":
		return NewMistral(ctx, cfg, apiKey)
	case "claude":
		return NewClaude(ctx, cfg, apiKey)
	default:
		return NewGemini(ctx, cfg, apiKey)
	}
}

// optionFloat reads a numeric provider option as float32.
func optionFloat(opts map[string]any, key string) (float32, bool) {
	v, ok := opts[key].(float64)
	return float32(v), ok
}
