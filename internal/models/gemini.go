package models

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/gemini"
	"github.com/cloudwego/eino/components/model"
	"google.golang.org/genai"

	"github.com/vinavi-labs/vinavi/internal/config"
)

const defaultGeminiModel = "gemini-2.5-flash"

// NewGemini creates a Google Gemini ChatModel.
func NewGemini(ctx context.Context, cfg config.ProviderConfig, apiKey string) (model.BaseChatModel, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	modelConfig := &gemini.Config{
		Client: client,
		Model:  cfg.Model,
	}
	if modelConfig.Model == "" {
		modelConfig.Model = defaultGeminiModel
	}
	if cfg.MaxTokens > 0 {
		maxTokens := cfg.MaxTokens
		modelConfig.MaxTokens = &maxTokens
	}
	if t, ok := optionFloat(cfg.Options, "temperature"); ok {
		modelConfig.Temperature = &t
	}

	return gemini.NewChatModel(ctx, modelConfig)
}
