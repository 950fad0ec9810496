// Package moderation decides whether child input is appropriate before any
// answering prompt runs.
package moderation

import (
	"context"
	"log/slog"
	"strings"

	"github.com/vinavi-labs/vinavi/internal/llm"
	"github.com/vinavi-labs/vinavi/internal/prompts"
)

// Verdict is the outcome of one check. It is never persisted.
type Verdict struct {
	Inappropriate bool
	// Matched is the blocklist entry that fired, empty for model verdicts.
	Matched string
}

// Gate classifies text with the blocklist first and the moderation prompt second.
type Gate struct {
	llm       llm.Completer
	prompts   *prompts.Set
	profile   llm.Profile
	blocklist *Blocklist
}

// NewGate creates a gate. blocklist may be nil.
func NewGate(c llm.Completer, set *prompts.Set, profile llm.Profile, blocklist *Blocklist) *Gate {
	return &Gate{llm: c, prompts: set, profile: profile, blocklist: blocklist}
}

// Check classifies one text. Blank text is appropriate without a model call.
// Transport errors are returned as-is.
func (g *Gate) Check(ctx context.Context, text string) (Verdict, error) {
	if strings.TrimSpace(text) == "" {
		return Verdict{}, nil
	}
	if word, ok := g.blocklist.Match(text); ok {
		slog.Info("blocklist hit", "entry", word)
		return Verdict{Inappropriate: true, Matched: word}, nil
	}

	msgs, err := g.prompts.Build(ctx, prompts.ModerationRequest{Text: text})
	if err != nil {
		return Verdict{}, err
	}
	reply, err := g.llm.Complete(ctx, g.profile, msgs)
	if err != nil {
		return Verdict{}, err
	}
	return Verdict{Inappropriate: isAffirmative(reply)}, nil
}

// CheckAll checks texts in order and stops at the first flagged one.
// It returns that index, or -1 when everything is appropriate.
func (g *Gate) CheckAll(ctx context.Context, texts []string) (int, Verdict, error) {
	for i, t := range texts {
		v, err := g.Check(ctx, t)
		if err != nil {
			return -1, Verdict{}, err
		}
		if v.Inappropriate {
			return i, v, nil
		}
	}
	return -1, Verdict{}, nil
}

func isAffirmative(reply string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(reply)), "yes")
}
