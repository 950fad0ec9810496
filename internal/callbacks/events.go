// Package callbacks provides Eino callback handlers that bridge to the event bus.
package callbacks

import (
	"context"
	"time"

	"github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components/model"
	ub "github.com/cloudwego/eino/utils/callbacks"

	"github.com/vinavi-labs/vinavi/internal/events"
)

type startTimeKey struct{}

// NewEventBusHandler creates a chat model callback handler that publishes
// internal.llm.call events to the bus. RunInfo.Name carries the prompt path
// and RunInfo.Type the provider.
func NewEventBusHandler(bus *events.Bus) callbacks.Handler {
	publish := func(ctx context.Context, payload events.LLMCallPayload) {
		if sid := events.SessionIDFromContext(ctx); sid != "" {
			bus.Publish(events.NewTypedEventWithSession(events.SourceModel, payload, sid))
		} else {
			bus.Publish(events.NewTypedEvent(events.SourceModel, payload))
		}
	}

	elapsed := func(ctx context.Context) time.Duration {
		if start, ok := ctx.Value(startTimeKey{}).(time.Time); ok {
			return time.Since(start)
		}
		return 0
	}

	modelHandler := &ub.ModelCallbackHandler{
		OnStart: func(ctx context.Context, info *callbacks.RunInfo, input *model.CallbackInput) context.Context {
			publish(ctx, events.LLMCallPayload{
				Phase:        "request",
				Model:        info.Name,
				Provider:     info.Type,
				MessageCount: len(input.Messages),
			})
			return context.WithValue(ctx, startTimeKey{}, time.Now())
		},

		OnEnd: func(ctx context.Context, info *callbacks.RunInfo, output *model.CallbackOutput) context.Context {
			payload := events.LLMCallPayload{
				Phase:    "response",
				Model:    info.Name,
				Provider: info.Type,
				Duration: elapsed(ctx),
			}
			if usage := tokenUsage(output); usage != nil {
				payload.TokensInput = usage.PromptTokens
				payload.TokensOutput = usage.CompletionTokens
			}
			publish(ctx, payload)
			return ctx
		},

		OnError: func(ctx context.Context, info *callbacks.RunInfo, err error) context.Context {
			publish(ctx, events.LLMCallPayload{
				Phase:    "error",
				Model:    info.Name,
				Provider: info.Type,
				Duration: elapsed(ctx),
				Error:    truncatePayload(err.Error(), 500),
			})
			return ctx
		},
	}

	return ub.NewHandlerHelper().
		ChatModel(modelHandler).
		Handler()
}

// tokenUsage prefers the usage reported on the callback output and falls
// back to the response metadata of the message.
func tokenUsage(output *model.CallbackOutput) *model.TokenUsage {
	if output == nil {
		return nil
	}
	if output.TokenUsage != nil {
		return output.TokenUsage
	}
	if output.Message != nil && output.Message.ResponseMeta != nil && output.Message.ResponseMeta.Usage != nil {
		u := output.Message.ResponseMeta.Usage
		return &model.TokenUsage{
			PromptTokens:     u.PromptTokens,
			CompletionTokens: u.CompletionTokens,
			TotalTokens:      u.TotalTokens,
		}
	}
	return nil
}

func truncatePayload(s string, maxLen int) string {
	if maxLen <= 0 || len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "... (truncated)"
}
