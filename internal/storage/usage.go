// Package storage holds bus subscribers that record session activity.
package storage

import (
	"log/slog"

	"github.com/vinavi-labs/vinavi/internal/events"
	"github.com/vinavi-labs/vinavi/internal/sessions"
)

// UsageTracker subscribes to LLM call events and accumulates token usage per session.
type UsageTracker struct {
	store       sessions.Store
	unsubscribe func()
}

// NewUsageTracker creates a tracker listening for LLM response events.
func NewUsageTracker(bus *events.Bus, store sessions.Store) *UsageTracker {
	ut := &UsageTracker{store: store}
	ut.unsubscribe = bus.Subscribe(ut.handleEvent, events.EventLLMCall)
	return ut
}

// Close unsubscribes the tracker from the event bus.
func (ut *UsageTracker) Close() {
	if ut.unsubscribe != nil {
		ut.unsubscribe()
	}
}

func (ut *UsageTracker) handleEvent(e events.Event) {
	if e.SessionID == "" {
		return
	}
	payload, ok := events.ExtractPayload[events.LLMCallPayload](e)
	if !ok || payload.Phase != "response" {
		return
	}
	if payload.TokensInput == 0 && payload.TokensOutput == 0 {
		return
	}

	_, err := ut.store.Update(e.SessionID, func(s *sessions.Session) error {
		s.TokenUsage.Input += payload.TokensInput
		s.TokenUsage.Output += payload.TokensOutput
		return nil
	})
	if err != nil {
		slog.Debug("usage tracker: session not found", "session_id", e.SessionID, "error", err)
	}
}
