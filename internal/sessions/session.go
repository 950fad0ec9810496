// Package sessions holds per-child session state in process memory.
package sessions

import (
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/schema"

	"github.com/vinavi-labs/vinavi/internal/exercise"
)

// Mode selects which prompt paths a session uses.
type Mode string

const (
	ModeAssist        Mode = "assist"
	ModeComprehension Mode = "comprehension"
	ModeFillBlank     Mode = "fill_blank"
	ModeConversation  Mode = "conversation"
)

var modeLabels = map[Mode]string{
	ModeAssist:        "தமிழ் உதவி",
	ModeComprehension: "கருத்தறிதல்",
	ModeFillBlank:     "நிரப்புக",
	ModeConversation:  "விரிவாக",
}

// Modes lists the selectable modes in display order.
func Modes() []Mode {
	return []Mode{ModeAssist, ModeComprehension, ModeFillBlank, ModeConversation}
}

// ParseMode accepts a mode id or its Tamil label.
func ParseMode(s string) (Mode, error) {
	s = strings.TrimSpace(s)
	for _, m := range Modes() {
		if s == string(m) || s == modeLabels[m] {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown mode %q", s)
}

// Label returns the Tamil display name.
func (m Mode) Label() string { return modeLabels[m] }

// ExerciseKind returns the exercise kind served by an exercise mode.
func (m Mode) ExerciseKind() (exercise.Kind, bool) {
	switch m {
	case ModeComprehension:
		return exercise.KindComprehension, true
	case ModeFillBlank:
		return exercise.KindFillBlank, true
	}
	return "", false
}

// Role identifies the author of a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one message. Turns are only ever appended.
type Turn struct {
	Role    Role      `json:"role"`
	Content string    `json:"content"`
	At      time.Time `json:"at"`
}

// ToSchemaMessage converts a turn to an Eino schema.Message.
func (t Turn) ToSchemaMessage() *schema.Message {
	if t.Role == RoleAssistant {
		return schema.AssistantMessage(t.Content, nil)
	}
	return schema.UserMessage(t.Content)
}

// TokenUsage tracks cumulative token consumption for a session.
type TokenUsage struct {
	Input  int `json:"input"`
	Output int `json:"output"`
}

// ExerciseState is the single exercise a session may hold.
type ExerciseState struct {
	State    exercise.State     `json:"state"`
	Exercise *exercise.Exercise `json:"exercise,omitempty"`
	Answers  []string           `json:"answers,omitempty"`
	Feedback string             `json:"feedback,omitempty"`
}

// Session is the state of one child's visit.
type Session struct {
	ID        string    `json:"id"`
	Mode      Mode      `json:"mode"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Transcript is everything said in the session, across modes.
	Transcript []Turn `json:"transcript"`

	// Conversation mode buffer.
	Conversation []Turn   `json:"conversation,omitempty"`
	LastAnswer   string   `json:"last_answer,omitempty"`
	Expansions   []string `json:"expansions,omitempty"`

	Exercise   ExerciseState `json:"exercise"`
	Processing bool          `json:"processing"`
	TokenUsage TokenUsage    `json:"token_usage"`
}

// Summary is the listing view of a session.
type Summary struct {
	ID        string    `json:"id"`
	Mode      Mode      `json:"mode"`
	Turns     int       `json:"turns"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Summary returns the listing view.
func (s *Session) Summary() Summary {
	return Summary{ID: s.ID, Mode: s.Mode, Turns: len(s.Transcript), CreatedAt: s.CreatedAt, UpdatedAt: s.UpdatedAt}
}

// Record appends a turn to the transcript.
func (s *Session) Record(role Role, content string, at time.Time) {
	s.Transcript = append(s.Transcript, Turn{Role: role, Content: content, At: at})
}

// Buffer appends a turn to the conversation buffer only.
func (s *Session) Buffer(role Role, content string, at time.Time) {
	s.Conversation = append(s.Conversation, Turn{Role: role, Content: content, At: at})
}

// SwitchMode changes mode and clears all mode-specific state.
// The transcript survives.
func (s *Session) SwitchMode(m Mode) {
	s.Mode = m
	s.Conversation = nil
	s.LastAnswer = ""
	s.Expansions = nil
	s.Processing = false
	s.ResetExercise()
}

// ResetExercise returns the exercise to NotStarted.
func (s *Session) ResetExercise() {
	s.Exercise = ExerciseState{State: exercise.StateNotStarted}
	s.Processing = false
}

// Window returns the last n conversation turns as schema messages.
func (s *Session) Window(n int) []*schema.Message {
	turns := s.Conversation
	if n > 0 && len(turns) > n {
		turns = turns[len(turns)-n:]
	}
	out := make([]*schema.Message, len(turns))
	for i, t := range turns {
		out[i] = t.ToSchemaMessage()
	}
	return out
}

// Clone returns a deep copy so readers never share slices with the store.
func (s *Session) Clone() *Session {
	c := *s
	c.Transcript = append([]Turn(nil), s.Transcript...)
	c.Conversation = append([]Turn(nil), s.Conversation...)
	c.Expansions = append([]string(nil), s.Expansions...)
	c.Exercise.Exercise = s.Exercise.Exercise.Clone()
	c.Exercise.Answers = append([]string(nil), s.Exercise.Answers...)
	return &c
}
