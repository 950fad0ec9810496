package storage

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/vinavi-labs/vinavi/internal/events"
	"github.com/vinavi-labs/vinavi/internal/sessions"
)

func publishLLMEvent(bus *events.Bus, sessionID, phase string, tokensIn, tokensOut int) {
	payload := events.LLMCallPayload{
		Phase:        phase,
		Model:        "test-model",
		TokensInput:  tokensIn,
		TokensOutput: tokensOut,
	}
	bus.Publish(events.NewTypedEventWithSession(events.SourceModel, payload, sessionID))
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestUsageTracker_Accumulation(t *testing.T) {
	bus := events.NewBus(64)
	defer bus.Close()

	store := sessions.NewMemoryStore()
	sess, err := store.Create(sessions.ModeAssist)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	ut := NewUsageTracker(bus, store)
	defer ut.Close()

	publishLLMEvent(bus, sess.ID, "response", 100, 50)
	publishLLMEvent(bus, sess.ID, "response", 200, 80)

	waitFor(t, func() bool {
		got, _ := store.Get(sess.ID)
		return got.TokenUsage.Input == 300 && got.TokenUsage.Output == 130
	})
}

func TestUsageTracker_Filtering(t *testing.T) {
	bus := events.NewBus(64)
	defer bus.Close()

	store := sessions.NewMemoryStore()
	sess, _ := store.Create(sessions.ModeAssist)

	ut := NewUsageTracker(bus, store)
	defer ut.Close()

	publishLLMEvent(bus, sess.ID, "request", 999, 999)
	publishLLMEvent(bus, "", "response", 999, 999)
	publishLLMEvent(bus, "sess_unknown", "response", 999, 999)
	publishLLMEvent(bus, sess.ID, "response", 10, 5)

	waitFor(t, func() bool {
		got, _ := store.Get(sess.ID)
		return got.TokenUsage.Input == 10
	})
	time.Sleep(50 * time.Millisecond)

	got, _ := store.Get(sess.ID)
	if got.TokenUsage.Input != 10 || got.TokenUsage.Output != 5 {
		t.Errorf("usage = %+v, want {10 5}", got.TokenUsage)
	}
}

func readLines(t *testing.T, path string) []events.Event {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	var out []events.Event
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var e events.Event
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			t.Fatalf("unmarshal line: %v", err)
		}
		out = append(out, e)
	}
	return out
}

func TestTranscriptLogger_SessionRouting(t *testing.T) {
	dir := t.TempDir()
	bus := events.NewBus(64)
	defer bus.Close()

	tl := NewTranscriptLogger(dir, bus)
	defer tl.Close()

	bus.Publish(events.NewTypedEventWithSession(events.SourceCompanion,
		events.UserMessagePayload{Mode: "conversation", Content: "வணக்கம்"}, "sess_abc123"))
	bus.Publish(events.NewTypedEventWithSession(events.SourceCompanion,
		events.AssistantMessagePayload{Mode: "conversation", Content: "வணக்கம்!"}, "sess_abc123"))
	bus.Publish(events.NewTypedEvent(events.SourceSessions, events.SessionCreatedPayload{Mode: "assist"}))

	sessPath := filepath.Join(dir, "sess_abc123.jsonl")
	waitFor(t, func() bool { return len(readLines(t, sessPath)) == 2 })
	waitFor(t, func() bool { return len(readLines(t, filepath.Join(dir, "_global.jsonl"))) == 1 })

	seen := map[events.EventType]bool{}
	for _, e := range readLines(t, sessPath) {
		seen[e.Type] = true
	}
	if !seen[events.EventUserMessage] || !seen[events.EventAssistantMessage] {
		t.Errorf("missing conversational events: %v", seen)
	}
}

func TestTranscriptLogger_IgnoresLLMCalls(t *testing.T) {
	dir := t.TempDir()
	bus := events.NewBus(64)
	defer bus.Close()

	tl := NewTranscriptLogger(dir, bus)
	defer tl.Close()

	publishLLMEvent(bus, "sess_x", "response", 1, 1)
	bus.Publish(events.NewTypedEventWithSession(events.SourceCompanion,
		events.ExerciseResetPayload{Kind: "comprehension", Reason: events.ResetRequested}, "sess_x"))

	path := filepath.Join(dir, "sess_x.jsonl")
	waitFor(t, func() bool { return len(readLines(t, path)) == 1 })
	time.Sleep(50 * time.Millisecond)

	lines := readLines(t, path)
	if len(lines) != 1 || lines[0].Type != events.EventExerciseReset {
		t.Errorf("unexpected transcript contents: %+v", lines)
	}
}

func TestTranscriptLogger_KeepsPublishOrder(t *testing.T) {
	dir := t.TempDir()
	bus := events.NewBus(256)
	defer bus.Close()

	tl := NewTranscriptLogger(dir, bus)
	const turns = 50
	for range turns {
		bus.Publish(events.NewTypedEventWithSession(events.SourceCompanion,
			events.UserMessagePayload{Mode: "conversation", Content: "கேள்வி"}, "sess_order"))
		bus.Publish(events.NewTypedEventWithSession(events.SourceCompanion,
			events.AssistantMessagePayload{Mode: "conversation", Content: "பதில்"}, "sess_order"))
	}

	path := filepath.Join(dir, "sess_order.jsonl")
	waitFor(t, func() bool { return len(readLines(t, path)) == 2*turns })
	tl.Close()
	tl.Close()

	for i, e := range readLines(t, path) {
		want := events.EventUserMessage
		if i%2 == 1 {
			want = events.EventAssistantMessage
		}
		if e.Type != want {
			t.Fatalf("line %d: got %s, want %s", i, e.Type, want)
		}
	}
}
