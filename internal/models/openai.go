package models

import (
	"context"
	"time"

	einoopenai "github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"

	"github.com/vinavi-labs/vinavi/internal/config"
)

// NewOpenAI creates a new OpenAI ChatModel.
func NewOpenAI(ctx context.Context, cfg config.ProviderConfig, apiKey string) (model.BaseChatModel, error) {
	modelConfig := &einoopenai.ChatModelConfig{
		APIKey:  apiKey,
		Model:   cfg.Model,
		BaseURL: cfg.BaseURL,
		Timeout: 60 * time.Second,
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

	return einoopenai.NewChatModel(ctx, modelConfig)
}
