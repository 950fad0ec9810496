package exercise

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/vinavi-labs/vinavi/internal/llm"
	"github.com/vinavi-labs/vinavi/internal/prompts"
)

// Generator drives both exercise prompts.
type Generator struct {
	llm      llm.Completer
	prompts  *prompts.Set
	profiles map[string]llm.Profile
	count    int
}

// NewGenerator creates a generator asking for count items per exercise.
func NewGenerator(c llm.Completer, set *prompts.Set, profiles map[string]llm.Profile, count int) *Generator {
	if count <= 0 {
		count = 3
	}
	return &Generator{llm: c, prompts: set, profiles: profiles, count: count}
}

// Generate asks the model for a new exercise of the given kind.
func (g *Generator) Generate(ctx context.Context, kind Kind) (*Exercise, error) {
	req := prompts.GenerateExerciseRequest{Kind: string(kind), Count: g.count}
	msgs, err := g.prompts.Build(ctx, req)
	if err != nil {
		return nil, err
	}
	resp, err := g.llm.Complete(ctx, g.profiles[req.Profile()], msgs)
	if err != nil {
		return nil, fmt.Errorf("generate %s: %w", kind, err)
	}
	ex, err := Parse(kind, resp)
	if err != nil {
		slog.Warn("exercise generation returned no usable content", "kind", kind, "response_len", len(resp))
		return nil, err
	}
	return ex, nil
}

// Validate returns free-text feedback on answers. answers must line up
// one-to-one with the exercise items.
func (g *Generator) Validate(ctx context.Context, ex *Exercise, answers []string) (string, error) {
	if len(answers) != len(ex.Items) {
		return "", fmt.Errorf("%w: got %d, want %d", ErrAnswerCount, len(answers), len(ex.Items))
	}
	req := prompts.ValidateExerciseRequest{
		Kind:    string(ex.Kind),
		Passage: ex.Passage,
		Items:   ex.Items,
		Answers: answers,
	}
	msgs, err := g.prompts.Build(ctx, req)
	if err != nil {
		return "", err
	}
	feedback, err := g.llm.Complete(ctx, g.profiles[req.Profile()], msgs)
	if err != nil {
		return "", fmt.Errorf("validate %s: %w", ex.Kind, err)
	}
	return feedback, nil
}
