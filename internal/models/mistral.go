package models

import (
	"context"
	"time"

	einoopenai "github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"

	"github.com/vinavi-labs/vinavi/internal/config"
)

const (
	defaultMistralBaseURL = "https://api.mistral.ai/v1"
	defaultMistralModel   = "mistral-small-latest"
)

// NewMistral creates a Mistral ChatModel over the OpenAI-compatible API.
func NewMistral(ctx context.Context, cfg config.ProviderConfig, apiKey string) (model.BaseChatModel, error) {
	modelConfig := &einoopenai.ChatModelConfig{
		APIKey:  apiKey,
		Model:   cfg.Model,
		BaseURL: cfg.BaseURL,
		Timeout: 2 * time.Minute,
	}
	if modelConfig.Model == "" {
		modelConfig.Model = defaultMistralModel
	}
	if modelConfig.BaseURL == "" {
		modelConfig.BaseURL = defaultMistralBaseURL
	}

	if cfg.MaxTokens > 0 {
		maxTokens := cfg.MaxTokens
		modelConfig.MaxCompletionTokens = &maxTokens
	}
	if d := cfg.Timeout.Duration(); d > 0 {
		modelConfig.Timeout = d
	}
	if t, ok := optionFloat(cfg.Options, "temperature"); ok {
		modelConfig.Temperature = &t
	}
	if p, ok := optionFloat(cfg.Options, "top_p"); ok {
		modelConfig.TopP = &p
	}

	return einoopenai.NewChatModel(ctx, modelConfig)
}
