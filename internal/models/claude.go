package models

import (
	"context"

	"github.com/cloudwego/eino-ext/components/model/claude"
	"github.com/cloudwego/eino/components/model"

	"github.com/vinavi-labs/vinavi/internal/config"
)

const (
	defaultClaudeModel     = "claude-sonnet-4-5"
	defaultClaudeMaxTokens = 2048
)

// NewClaude creates an Anthropic Claude ChatModel.
func NewClaude(ctx context.Context, cfg config.ProviderConfig, apiKey string) (model.BaseChatModel, error) {
	modelConfig := &claude.Config{
		APIKey:    apiKey,
		Model:     cfg.Model,
		MaxTokens: cfg.MaxTokens,
	}
	if modelConfig.Model == "" {
		modelConfig.Model = defaultClaudeModel
	}
	// Claude rejects requests without max_tokens.
	if modelConfig.MaxTokens == 0 {
		modelConfig.MaxTokens = defaultClaudeMaxTokens
	}
	if cfg.BaseURL != "" {
		baseURL := cfg.BaseURL
		modelConfig.BaseURL = &baseURL
	}
	if t, ok := optionFloat(cfg.Options, "temperature"); ok {
		modelConfig.Temperature = &t
	}

	return claude.NewChatModel(ctx, modelConfig)
}
