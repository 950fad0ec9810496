// Package companion orchestrates moderation, prompt paths and session state
// for each child-facing action.
package companion

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/vinavi-labs/vinavi/internal/config"
	"github.com/vinavi-labs/vinavi/internal/events"
	"github.com/vinavi-labs/vinavi/internal/exercise"
	"github.com/vinavi-labs/vinavi/internal/llm"
	"github.com/vinavi-labs/vinavi/internal/moderation"
	"github.com/vinavi-labs/vinavi/internal/prompts"
	"github.com/vinavi-labs/vinavi/internal/retrieval"
	"github.com/vinavi-labs/vinavi/internal/sessions"
	"github.com/vinavi-labs/vinavi/internal/speech"
)

// Config holds dependencies for the service.
type Config struct {
	Store     sessions.Store
	Bus       *events.Bus // nil-safe
	LLM       llm.Completer
	Prompts   *prompts.Set
	Profiles  map[string]llm.Profile
	Gate      *moderation.Gate
	Exercises *exercise.Generator
	Speech    speech.Synthesizer // nil disables read-aloud

	// Index is nil when the passage index could not be opened; IndexErr says why.
	Index    retrieval.Searcher
	IndexErr error

	Retrieval     config.RetrievalConfig
	HistoryWindow int
	Refusal       string
}

// Service is the single entry point used by the gateway and the CLI.
type Service struct {
	cfg Config
	now func() time.Time
}

// Result is what an action produced.
type Result struct {
	// Reply is the text to show, empty for actions without one.
	Reply string `json:"reply,omitempty"`
	// Blocked is set when the input was refused by moderation.
	Blocked bool              `json:"blocked,omitempty"`
	Session *sessions.Session `json:"session"`
}

// New creates a service.
func New(cfg Config) *Service {
	if cfg.HistoryWindow <= 0 {
		cfg.HistoryWindow = 10
	}
	if cfg.Refusal == "" {
		cfg.Refusal = "மன்னிக்கவும், நான் அந்த கேள்விக்கு பதில் அளிக்க முடியாது."
	}
	if cfg.Profiles == nil {
		cfg.Profiles = llm.DefaultProfiles()
	}
	return &Service{cfg: cfg, now: time.Now}
}

// CreateSession starts a session. An empty mode means assist.
func (s *Service) CreateSession(_ context.Context, mode string) (*sessions.Session, error) {
	m := sessions.ModeAssist
	if mode != "" {
		var err error
		if m, err = sessions.ParseMode(mode); err != nil {
			return nil, newError(KindInvalidMode, err)
		}
	}
	sess, err := s.cfg.Store.Create(m)
	if err != nil {
		return nil, classify(err)
	}
	slog.Info("session created", "session_id", sess.ID, "mode", m)
	s.publish(sess.ID, events.SessionCreatedPayload{Mode: string(m)})
	return sess, nil
}

// Snapshot returns a copy of the session.
func (s *Service) Snapshot(_ context.Context, id string) (*sessions.Session, error) {
	sess, err := s.cfg.Store.Get(id)
	if err != nil {
		return nil, classify(err)
	}
	return sess, nil
}

// List returns session summaries, most recent first.
func (s *Service) List(_ context.Context) []sessions.Summary {
	return s.cfg.Store.List()
}

// CloseSession deletes a session.
func (s *Service) CloseSession(_ context.Context, id string) error {
	sess, err := s.cfg.Store.Get(id)
	if err != nil {
		return classify(err)
	}
	if err := s.cfg.Store.Delete(id); err != nil {
		return classify(err)
	}
	s.publish(id, events.SessionClosedPayload{Turns: len(sess.Transcript)})
	return nil
}

// SwitchMode changes mode, clearing every piece of mode-specific state.
// Switching to the current mode is a no-op.
func (s *Service) SwitchMode(_ context.Context, id, mode string) (*sessions.Session, error) {
	m, err := sessions.ParseMode(mode)
	if err != nil {
		return nil, newError(KindInvalidMode, err)
	}

	var from sessions.Mode
	sess, err := s.cfg.Store.Update(id, func(sess *sessions.Session) error {
		if sess.Processing {
			return newError(KindBusy, nil)
		}
		from = sess.Mode
		if from != m {
			sess.SwitchMode(m)
		}
		return nil
	})
	if err != nil {
		return nil, classify(err)
	}
	if from != m {
		slog.Info("mode switched", "session_id", id, "from", from, "to", m)
		s.publish(id, events.SessionModeChangedPayload{From: string(from), To: string(m)})
	}
	return sess, nil
}

// begin validates and marks the session as processing.
func (s *Service) begin(id string, fn func(sess *sessions.Session) error) (*sessions.Session, error) {
	sess, err := s.cfg.Store.Update(id, func(sess *sessions.Session) error {
		if sess.Processing {
			return newError(KindBusy, nil)
		}
		if fn != nil {
			if err := fn(sess); err != nil {
				return err
			}
		}
		sess.Processing = true
		return nil
	})
	if err != nil {
		return nil, classify(err)
	}
	return sess, nil
}

// finish applies fn and clears the processing flag.
func (s *Service) finish(id string, fn func(sess *sessions.Session)) (*sessions.Session, error) {
	sess, err := s.cfg.Store.Update(id, func(sess *sessions.Session) error {
		if fn != nil {
			fn(sess)
		}
		sess.Processing = false
		return nil
	})
	if err != nil {
		return nil, classify(err)
	}
	return sess, nil
}

// releaseOnPanic clears the processing flag when an action panics after
// begin, applying restore first, then panics again for the caller's recovery.
func (s *Service) releaseOnPanic(id string, restore func(sess *sessions.Session)) {
	r := recover()
	if r == nil {
		return
	}
	if _, err := s.finish(id, restore); err != nil {
		slog.Debug("clear processing flag", "session_id", id, "error", err)
	}
	slog.Error("action panicked", "session_id", id, "panic", r)
	panic(r)
}

// fail clears the processing flag and returns the classified error.
func (s *Service) fail(id string, err error) error {
	if _, ferr := s.finish(id, nil); ferr != nil {
		slog.Debug("clear processing flag", "session_id", id, "error", ferr)
	}
	return classify(err)
}

func (s *Service) publish(id string, payload events.EventPayload) {
	if s.cfg.Bus == nil {
		return
	}
	s.cfg.Bus.Publish(events.NewTypedEventWithSession(events.SourceCompanion, payload, id))
}

func (s *Service) complete(ctx context.Context, r prompts.Request) (string, error) {
	msgs, err := s.cfg.Prompts.Build(ctx, r)
	if err != nil {
		return "", err
	}
	return s.cfg.LLM.Complete(ctx, s.cfg.Profiles[r.Profile()], msgs)
}

func requireMode(sess *sessions.Session, modes ...sessions.Mode) error {
	for _, m := range modes {
		if sess.Mode == m {
			return nil
		}
	}
	return newError(KindInvalidMode, fmt.Errorf("action not available in mode %q", sess.Mode))
}
