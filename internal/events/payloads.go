package events

import (
	"encoding/json"
	"time"
)

// EventPayload is the interface all typed payloads implement.
type EventPayload interface {
	EventType() EventType
}

// =============================================================================
// SESSION EVENTS
// =============================================================================

type SessionCreatedPayload struct {
	Mode string `json:"mode"`
}

func (SessionCreatedPayload) EventType() EventType { return EventSessionCreated }

type SessionModeChangedPayload struct {
	From string `json:"from"`
	To   string `json:"to"`
}

func (SessionModeChangedPayload) EventType() EventType { return EventSessionModeChanged }

type SessionExpiredPayload struct {
	IdleFor time.Duration `json:"idle_for"`
}

func (SessionExpiredPayload) EventType() EventType { return EventSessionExpired }

type SessionClosedPayload struct {
	Turns int `json:"turns"`
}

func (SessionClosedPayload) EventType() EventType { return EventSessionClosed }

// =============================================================================
// MESSAGE EVENTS
// =============================================================================

type UserMessagePayload struct {
	Mode    string `json:"mode"`
	Option  string `json:"option,omitempty"`
	Content string `json:"content"`
}

func (UserMessagePayload) EventType() EventType { return EventUserMessage }

type AssistantMessagePayload struct {
	Mode      string `json:"mode"`
	Option    string `json:"option,omitempty"`
	Content   string `json:"content"`
	Expansion bool   `json:"expansion,omitempty"`
	Error     string `json:"error,omitempty"`
}

func (AssistantMessagePayload) EventType() EventType { return EventAssistantMessage }

// ModerationStage tells which input the gate rejected.
type ModerationStage string

const (
	ModerationStageInput   ModerationStage = "input"
	ModerationStageAnswers ModerationStage = "answers"
)

type ModerationBlockedPayload struct {
	Mode  string          `json:"mode"`
	Stage ModerationStage `json:"stage"`
	// Index of the first flagged answer; -1 for free-text input.
	Index   int    `json:"index"`
	Matched string `json:"matched,omitempty"`
}

func (ModerationBlockedPayload) EventType() EventType { return EventModerationBlocked }

// =============================================================================
// EXERCISE EVENTS
// =============================================================================

type ExerciseStartedPayload struct {
	Kind  string `json:"kind"`
	Items int    `json:"items"`
}

func (ExerciseStartedPayload) EventType() EventType { return EventExerciseStarted }

type ExerciseFeedbackPayload struct {
	Kind     string `json:"kind"`
	Answers  int    `json:"answers"`
	Feedback string `json:"feedback"`
}

func (ExerciseFeedbackPayload) EventType() EventType { return EventExerciseFeedback }

// ExerciseResetReason explains why an exercise went back to NotStarted.
type ExerciseResetReason string

const (
	ResetRequested       ExerciseResetReason = "requested"
	ResetEmptyGeneration ExerciseResetReason = "empty_generation"
	ResetGenerationError ExerciseResetReason = "generation_error"
)

type ExerciseResetPayload struct {
	Kind   string              `json:"kind"`
	Reason ExerciseResetReason `json:"reason"`
}

func (ExerciseResetPayload) EventType() EventType { return EventExerciseReset }

// =============================================================================
// INTERNAL EVENTS
// =============================================================================

type LLMCallPayload struct {
	Phase        string        `json:"phase"`
	Model        string        `json:"model"`
	Provider     string        `json:"provider,omitempty"`
	MessageCount int           `json:"message_count,omitempty"`
	TokensInput  int           `json:"tokens_input,omitempty"`
	TokensOutput int           `json:"tokens_output,omitempty"`
	Duration     time.Duration `json:"duration,omitempty"`
	Error        string        `json:"error,omitempty"`
}

func (LLMCallPayload) EventType() EventType { return EventLLMCall }

// =============================================================================
// TYPED EVENT CONSTRUCTORS
// =============================================================================

func NewTypedEvent(source EventSource, payload EventPayload) Event {
	return Event{
		ID:        generateEventID(),
		Type:      payload.EventType(),
		Timestamp: time.Now(),
		Source:    source,
		Payload:   toMap(payload),
	}
}

func NewTypedEventWithSession(source EventSource, payload EventPayload, sessionID string) Event {
	e := NewTypedEvent(source, payload)
	e.SessionID = sessionID
	return e
}

func toMap(v any) map[string]any {
	var result map[string]any
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return nil
	}
	return result
}

// =============================================================================
// TYPED PAYLOAD EXTRACTORS
// =============================================================================

// ExtractPayload decodes the payload of e into T. It fails when the event
// type does not match T.
func ExtractPayload[T EventPayload](e Event) (T, bool) {
	var result T
	if result.EventType() != e.Type {
		return result, false
	}
	data, err := json.Marshal(e.Payload)
	if err != nil {
		return result, false
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return result, false
	}
	return result, true
}
