// Package exercise generates comprehension and fill-in-the-blank exercises
// and asks the model for feedback on a child's answers.
package exercise

import (
	"errors"
	"fmt"
	"strings"

	"github.com/vinavi-labs/vinavi/internal/prompts"
)

// Kind is the exercise variant.
type Kind string

const (
	KindComprehension Kind = prompts.KindComprehension
	KindFillBlank     Kind = prompts.KindFillBlank
)

// ParseKind validates a kind name.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.TrimSpace(strings.ToLower(s))); k {
	case KindComprehension, KindFillBlank:
		return k, nil
	default:
		return "", fmt.Errorf("unknown exercise kind %q", s)
	}
}

// State is the lifecycle position of a session's exercise.
type State string

const (
	StateNotStarted State = "not_started"
	StateStarted    State = "started"
	StateSubmitted  State = "submitted"
	StateFeedback   State = "feedback"
)

// Exercise is a generated passage with its questions or blank hints.
type Exercise struct {
	Kind    Kind     `json:"kind"`
	Passage string   `json:"passage"`
	Items   []string `json:"items"`
}

// ErrEmptyExercise is returned when generation produced no passage or no items.
var ErrEmptyExercise = errors.New("generated exercise is empty")

// ErrAnswerCount is returned when the number of answers differs from the number of items.
var ErrAnswerCount = errors.New("answer count does not match item count")

// EmptyMessage is the Tamil message shown when generation comes back empty.
func EmptyMessage(k Kind) string {
	if k == KindFillBlank {
		return "பகுதி அல்லது குறைவுகள் காலியாக உள்ளன. தயவுசெய்து மீண்டும் முயற்சிக்கவும்."
	}
	return "பகுதி அல்லது கேள்விகள் காலியாக உள்ளன. தயவுசெய்து மீண்டும் முயற்சிக்கவும்."
}

// Clone returns a deep copy.
func (e *Exercise) Clone() *Exercise {
	if e == nil {
		return nil
	}
	c := *e
	c.Items = append([]string(nil), e.Items...)
	return &c
}
