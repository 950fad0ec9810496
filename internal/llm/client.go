// Package llm executes formatted prompts against the configured chat models.
package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/vinavi-labs/vinavi/internal/models"
)

// Completer runs one prompt and returns the completion text.
type Completer interface {
	Complete(ctx context.Context, p Profile, msgs []*schema.Message) (string, error)
}

// ModelSource resolves a provider name to a chat model.
// *models.Registry satisfies it.
type ModelSource interface {
	Get(ctx context.Context, name string) (model.BaseChatModel, error)
}

// Client is the Completer backed by a model registry.
type Client struct {
	models   ModelSource
	handlers []callbacks.Handler
}

// NewClient creates a client. Handlers receive the chat model callbacks of
// every call.
func NewClient(src ModelSource, handlers ...callbacks.Handler) *Client {
	return &Client{models: src, handlers: handlers}
}

// Complete sends msgs with the profile's model, temperature and token bound.
// Errors are classified by models.HandleError and never retried.
func (c *Client) Complete(ctx context.Context, p Profile, msgs []*schema.Message) (string, error) {
	m, err := c.models.Get(ctx, p.Provider)
	if err != nil {
		return "", fmt.Errorf("%s: %w", p.Name, err)
	}

	var opts []model.Option
	if p.Model != "" {
		opts = append(opts, model.WithModel(p.Model))
	}
	if p.Temperature != nil {
		opts = append(opts, model.WithTemperature(*p.Temperature))
	}
	if p.MaxTokens > 0 {
		opts = append(opts, model.WithMaxTokens(p.MaxTokens))
	}

	if len(c.handlers) > 0 {
		provider := p.Provider
		if provider == "" {
			provider = "default"
		}
		ctx = callbacks.InitCallbacks(ctx, &callbacks.RunInfo{
			Name:      p.Name,
			Type:      provider,
			Component: components.ComponentOfChatModel,
		}, c.handlers...)
	}

	start := time.Now()
	out, err := m.Generate(ctx, msgs, opts...)
	if err != nil {
		slog.Warn("llm call failed", "path", p.Name, "provider", p.Provider, "error", err)
		return "", fmt.Errorf("%s: %w", p.Name, models.HandleError(err))
	}
	slog.Debug("llm call", "path", p.Name, "provider", p.Provider, "duration", time.Since(start))

	if out == nil {
		return "", nil
	}
	return strings.TrimSpace(out.Content), nil
}
