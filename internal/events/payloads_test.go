package events

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestTypedEvent_Types(t *testing.T) {
	tests := []struct {
		payload EventPayload
		want    EventType
	}{
		{SessionCreatedPayload{Mode: "assist"}, EventSessionCreated},
		{SessionModeChangedPayload{From: "assist", To: "fill_blank"}, EventSessionModeChanged},
		{SessionExpiredPayload{IdleFor: time.Hour}, EventSessionExpired},
		{SessionClosedPayload{}, EventSessionClosed},
		{UserMessagePayload{Content: "x"}, EventUserMessage},
		{AssistantMessagePayload{Content: "x"}, EventAssistantMessage},
		{ModerationBlockedPayload{Stage: ModerationStageInput, Index: -1}, EventModerationBlocked},
		{ExerciseStartedPayload{Kind: "comprehension"}, EventExerciseStarted},
		{ExerciseFeedbackPayload{Kind: "fill_blank"}, EventExerciseFeedback},
		{ExerciseResetPayload{Reason: ResetRequested}, EventExerciseReset},
		{LLMCallPayload{Phase: "request"}, EventLLMCall},
	}
	for _, tt := range tests {
		evt := NewTypedEvent(SourceCompanion, tt.payload)
		if evt.Type != tt.want {
			t.Errorf("%T: type = %q, want %q", tt.payload, evt.Type, tt.want)
		}
		if evt.ID == "" || evt.Timestamp.IsZero() {
			t.Errorf("%T: missing id or timestamp", tt.payload)
		}
	}
}

func TestExtractPayload_AssistantMessage(t *testing.T) {
	want := AssistantMessagePayload{
		Mode:      "conversation",
		Content:   "* எலுமிச்சை சாறு சுவையானது.",
		Expansion: true,
	}
	evt := NewTypedEventWithSession(SourceCompanion, want, "s1")
	if evt.SessionID != "s1" {
		t.Fatalf("expected session s1, got %q", evt.SessionID)
	}

	got, ok := ExtractPayload[AssistantMessagePayload](evt)
	if !ok {
		t.Fatal("ExtractPayload returned false")
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("payload mismatch (-want +got):\n%s", diff)
	}
}

func TestExtractPayload_ModerationBlocked(t *testing.T) {
	want := ModerationBlockedPayload{Mode: "fill_blank", Stage: ModerationStageAnswers, Index: 2}
	got, ok := ExtractPayload[ModerationBlockedPayload](NewTypedEvent(SourceCompanion, want))
	if !ok {
		t.Fatal("ExtractPayload returned false")
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("payload mismatch (-want +got):\n%s", diff)
	}
}

func TestExtractPayload_LLMCall(t *testing.T) {
	want := LLMCallPayload{
		Phase:        "response",
		Model:        "meaning",
		Provider:     "openai",
		TokensInput:  120,
		TokensOutput: 30,
		Duration:     1500 * time.Millisecond,
	}
	got, ok := ExtractPayload[LLMCallPayload](NewTypedEvent(SourceModel, want))
	if !ok {
		t.Fatal("ExtractPayload returned false")
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("payload mismatch (-want +got):\n%s", diff)
	}
}

func TestExtractPayload_WrongType(t *testing.T) {
	evt := NewTypedEvent(SourceCompanion, UserMessagePayload{Content: "hi"})
	if _, ok := ExtractPayload[ExerciseStartedPayload](evt); ok {
		t.Error("expected mismatch between user.message and ExerciseStartedPayload")
	}
}
