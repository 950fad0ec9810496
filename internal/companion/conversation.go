package companion

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/vinavi-labs/vinavi/internal/events"
	"github.com/vinavi-labs/vinavi/internal/prompts"
	"github.com/vinavi-labs/vinavi/internal/sessions"
)

// expandTurn is the synthetic child reply that precedes every expansion.
const expandTurn = "ஆம்"

// Converse continues the open-ended conversation. The first accepted
// submission starts the buffer; later ones replay the windowed history.
// Flagged input is refused and the buffer is left untouched.
func (s *Service) Converse(ctx context.Context, id, text string) (*Result, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, newError(KindInvalidInput, errors.New("empty message"))
	}

	mode := string(sessions.ModeConversation)
	started, err := s.begin(id, func(sess *sessions.Session) error {
		if err := requireMode(sess, sessions.ModeConversation); err != nil {
			return err
		}
		sess.Record(sessions.RoleUser, text, s.now())
		return nil
	})
	if err != nil {
		return nil, err
	}
	defer s.releaseOnPanic(id, nil)
	s.publish(id, events.UserMessagePayload{Mode: mode, Content: text})
	ctx = events.ContextWithSessionID(ctx, id)

	clearExpansions := func(sess *sessions.Session) { sess.Expansions = nil }
	if blocked, res, err := s.moderateInput(ctx, id, mode, text, clearExpansions); blocked || err != nil {
		return res, err
	}

	answer, err := s.complete(ctx, prompts.ConversationRequest{
		History: started.Window(s.cfg.HistoryWindow),
		Input:   text,
	})
	if err != nil {
		s.publish(id, events.AssistantMessagePayload{Mode: mode, Error: err.Error()})
		slog.Warn("conversation failed", "session_id", id, "error", err)
		return nil, s.fail(id, err)
	}

	sess, err := s.finish(id, func(sess *sessions.Session) {
		now := s.now()
		sess.Buffer(sessions.RoleUser, text, now)
		sess.Buffer(sessions.RoleAssistant, answer, now)
		sess.Record(sessions.RoleAssistant, answer, now)
		sess.LastAnswer = answer
		sess.Expansions = nil
	})
	if err != nil {
		return nil, err
	}
	s.publish(id, events.AssistantMessagePayload{Mode: mode, Content: answer})
	return &Result{Reply: answer, Session: sess}, nil
}

// Expand elaborates on the last answer. It needs an active conversation.
// The buffer gains the synthetic "ஆம்" turn and the continuation; the
// transcript and the expansion list gain only the continuation.
func (s *Service) Expand(ctx context.Context, id string) (*Result, error) {
	mode := string(sessions.ModeConversation)
	started, err := s.begin(id, func(sess *sessions.Session) error {
		if err := requireMode(sess, sessions.ModeConversation); err != nil {
			return err
		}
		if len(sess.Conversation) == 0 || sess.LastAnswer == "" {
			return newError(KindInvalidInput, errors.New("no answer to expand"))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	defer s.releaseOnPanic(id, nil)
	ctx = events.ContextWithSessionID(ctx, id)

	more, err := s.complete(ctx, prompts.ExpandRequest{
		History:    started.Window(s.cfg.HistoryWindow),
		LastAnswer: started.LastAnswer,
	})
	if err != nil {
		s.publish(id, events.AssistantMessagePayload{Mode: mode, Expansion: true, Error: err.Error()})
		slog.Warn("expand failed", "session_id", id, "error", err)
		return nil, s.fail(id, err)
	}

	sess, err := s.finish(id, func(sess *sessions.Session) {
		now := s.now()
		sess.Buffer(sessions.RoleUser, expandTurn, now)
		sess.Buffer(sessions.RoleAssistant, more, now)
		sess.Record(sessions.RoleAssistant, more, now)
		sess.Expansions = append(sess.Expansions, more)
	})
	if err != nil {
		return nil, err
	}
	s.publish(id, events.AssistantMessagePayload{Mode: mode, Content: more, Expansion: true})
	return &Result{Reply: more, Session: sess}, nil
}
