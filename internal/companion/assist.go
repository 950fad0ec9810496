package companion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/vinavi-labs/vinavi/internal/events"
	"github.com/vinavi-labs/vinavi/internal/prompts"
	"github.com/vinavi-labs/vinavi/internal/retrieval"
	"github.com/vinavi-labs/vinavi/internal/sessions"
)

// Option is the assist-mode prompt path.
type Option string

const (
	OptionMeaning     Option = "meaning"
	OptionExample     Option = "example"
	OptionTranslation Option = "translation"
)

var optionLabels = map[Option]string{
	OptionMeaning:     "பொருள்",
	OptionExample:     "உதாரணம்",
	OptionTranslation: "மொழிபெயர்ப்பு",
}

// Options lists the assist options in display order.
func Options() []Option {
	return []Option{OptionMeaning, OptionExample, OptionTranslation}
}

// ParseOption accepts an option id or its Tamil label.
func ParseOption(s string) (Option, error) {
	s = strings.TrimSpace(s)
	for _, o := range Options() {
		if s == string(o) || s == optionLabels[o] {
			return o, nil
		}
	}
	return "", fmt.Errorf("unknown option %q", s)
}

// Label returns the Tamil display name.
func (o Option) Label() string { return optionLabels[o] }

// Ask answers a one-shot assist question. Flagged input gets the refusal
// reply and no answering prompt runs.
func (s *Service) Ask(ctx context.Context, id, option, text string) (*Result, error) {
	opt, err := ParseOption(option)
	if err != nil {
		return nil, newError(KindInvalidMode, err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, newError(KindInvalidInput, errors.New("empty question"))
	}

	mode := string(sessions.ModeAssist)
	if _, err := s.begin(id, func(sess *sessions.Session) error {
		if err := requireMode(sess, sessions.ModeAssist); err != nil {
			return err
		}
		sess.Record(sessions.RoleUser, text, s.now())
		return nil
	}); err != nil {
		return nil, err
	}
	defer s.releaseOnPanic(id, nil)
	s.publish(id, events.UserMessagePayload{Mode: mode, Option: string(opt), Content: text})
	ctx = events.ContextWithSessionID(ctx, id)

	if blocked, res, err := s.moderateInput(ctx, id, mode, text, nil); blocked || err != nil {
		return res, err
	}

	answer, err := s.answer(ctx, opt, text)
	if err != nil {
		s.publish(id, events.AssistantMessagePayload{Mode: mode, Option: string(opt), Error: err.Error()})
		slog.Warn("assist answer failed", "session_id", id, "option", opt, "error", err)
		return nil, s.fail(id, err)
	}

	sess, err := s.finish(id, func(sess *sessions.Session) {
		sess.Record(sessions.RoleAssistant, answer, s.now())
		sess.LastAnswer = answer
	})
	if err != nil {
		return nil, err
	}
	s.publish(id, events.AssistantMessagePayload{Mode: mode, Option: string(opt), Content: answer})
	return &Result{Reply: answer, Session: sess}, nil
}

func (s *Service) answer(ctx context.Context, opt Option, text string) (string, error) {
	switch opt {
	case OptionMeaning:
		passages, err := s.search(ctx, text, s.cfg.Retrieval.Meaning.TopK, s.cfg.Retrieval.Meaning.MinSimilarity())
		if err != nil {
			return "", err
		}
		out, err := s.complete(ctx, prompts.MeaningRequest{Question: text, Context: retrieval.JoinContext(passages)})
		if err != nil {
			return "", err
		}
		return NormalizeBullets(out, 2), nil
	case OptionExample:
		passages, err := s.search(ctx, text, s.cfg.Retrieval.Example.TopK, s.cfg.Retrieval.Example.MinSimilarity())
		if err != nil {
			return "", err
		}
		return s.complete(ctx, prompts.ExampleRequest{Question: text, Context: retrieval.JoinContext(passages)})
	default:
		return s.complete(ctx, prompts.TranslationRequest{Text: text})
	}
}

func (s *Service) search(ctx context.Context, query string, k int, threshold float32) ([]retrieval.Passage, error) {
	if s.cfg.Index == nil {
		err := s.cfg.IndexErr
		if err == nil {
			err = retrieval.ErrIndexMissing
		}
		return nil, newError(KindMissingResource, err)
	}
	passages, err := s.cfg.Index.Search(ctx, query, k, threshold)
	if err != nil {
		return nil, err
	}
	slog.Debug("retrieved passages", "count", len(passages), "k", k, "threshold", threshold)
	return passages, nil
}

// moderateInput runs the gate on free text. When the text is flagged it
// records the refusal, clears the processing flag and returns blocked=true.
// onBlock may adjust mode-specific state alongside the refusal.
func (s *Service) moderateInput(ctx context.Context, id, mode, text string, onBlock func(*sessions.Session)) (bool, *Result, error) {
	verdict, err := s.cfg.Gate.Check(ctx, text)
	if err != nil {
		slog.Warn("moderation failed", "session_id", id, "error", err)
		return false, nil, s.fail(id, err)
	}
	if !verdict.Inappropriate {
		return false, nil, nil
	}

	refusal := s.cfg.Refusal
	sess, err := s.finish(id, func(sess *sessions.Session) {
		sess.Record(sessions.RoleAssistant, refusal, s.now())
		sess.LastAnswer = refusal
		if onBlock != nil {
			onBlock(sess)
		}
	})
	if err != nil {
		return true, nil, err
	}
	slog.Info("input blocked by moderation", "session_id", id, "mode", mode)
	s.publish(id, events.ModerationBlockedPayload{Mode: mode, Stage: events.ModerationStageInput, Index: -1, Matched: verdict.Matched})
	s.publish(id, events.AssistantMessagePayload{Mode: mode, Content: refusal})
	return true, &Result{Reply: refusal, Blocked: true, Session: sess}, nil
}

// NormalizeBullets keeps at most n non-empty lines and renders each as a
// "- " bullet, dropping any numbering or bullet marker the model used.
func NormalizeBullets(text string, n int) string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = stripMarker(strings.TrimSpace(line))
		if line == "" {
			continue
		}
		out = append(out, "- "+line)
		if len(out) == n {
			break
		}
	}
	return strings.Join(out, "\n")
}

func stripMarker(line string) string {
	if strings.HasPrefix(line, "**") {
		return line
	}
	for _, p := range []string{"- ", "* ", "• ", "-", "*", "•"} {
		if strings.HasPrefix(line, p) {
			return strings.TrimSpace(line[len(p):])
		}
	}
	// "1." or "1)"
	i := 0
	for i < len(line) && line[i] >= '0' && line[i] <= '9' {
		i++
	}
	if i > 0 && i < len(line) && (line[i] == '.' || line[i] == ')') {
		return strings.TrimSpace(line[i+1:])
	}
	return line
}
