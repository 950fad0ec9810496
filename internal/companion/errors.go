package companion

import (
	"errors"
	"fmt"

	"github.com/vinavi-labs/vinavi/internal/exercise"
	"github.com/vinavi-labs/vinavi/internal/retrieval"
	"github.com/vinavi-labs/vinavi/internal/sessions"
)

// ErrorKind classifies failures at the service boundary.
type ErrorKind string

const (
	KindInvalidMode       ErrorKind = "invalid_mode"
	KindInvalidInput      ErrorKind = "invalid_input"
	KindModerationBlocked ErrorKind = "moderation_blocked"
	KindEmptyExercise     ErrorKind = "empty_exercise"
	KindNoExercise        ErrorKind = "no_exercise"
	KindMissingResource   ErrorKind = "missing_resource"
	KindBusy              ErrorKind = "busy"
	KindNotFound          ErrorKind = "not_found"
	KindUpstream          ErrorKind = "upstream"
)

var messages = map[ErrorKind]string{
	KindInvalidMode:       "தவறான விருப்பம் தேர்ந்தெடுக்கப்பட்டது.",
	KindInvalidInput:      "உள்ளீடு சரியாக இல்லை. தயவுசெய்து மீண்டும் முயற்சிக்கவும்.",
	KindModerationBlocked: "உங்கள் பதில்களில் தவறான அல்லது பொருத்தமற்ற உள்ளடக்கம் உள்ளது. தயவுசெய்து சரிசெய்து மீண்டும் முயற்சிக்கவும்.",
	KindEmptyExercise:     exercise.EmptyMessage(exercise.KindComprehension),
	KindNoExercise:        "பயிற்சி இன்னும் தொடங்கப்படவில்லை. முதலில் ஒரு பயிற்சியைத் தொடங்கவும்.",
	KindMissingResource:   "தேவையான தரவு கிடைக்கவில்லை. பின்னர் மீண்டும் முயற்சிக்கவும்.",
	KindBusy:              "தயவுசெய்து காத்திருக்கவும். முந்தைய கோரிக்கை இன்னும் செயலாக்கப்படுகிறது.",
	KindNotFound:          "அமர்வு கிடைக்கவில்லை.",
	KindUpstream:          "ஒரு பிழை ஏற்பட்டது. தயவுசெய்து மீண்டும் முயற்சிக்கவும்.",
}

// Error is returned by every Service operation. Message is safe to show a child.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

func newError(kind ErrorKind, err error) *Error {
	return &Error{Kind: kind, Message: messages[kind], Err: err}
}

// InvalidInput wraps err as an invalid_input error.
func InvalidInput(err error) *Error {
	return newError(KindInvalidInput, err)
}

// MessageFor returns the displayable message of kind.
func MessageFor(kind ErrorKind) string {
	return messages[kind]
}

// KindOf returns the kind of err, or KindUpstream for foreign errors.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUpstream
}

// classify maps a lower-layer error onto the service taxonomy.
func classify(err error) *Error {
	var e *Error
	switch {
	case errors.As(err, &e):
		return e
	case errors.Is(err, sessions.ErrNotFound):
		return newError(KindNotFound, err)
	case errors.Is(err, retrieval.ErrIndexMissing):
		return newError(KindMissingResource, err)
	case errors.Is(err, exercise.ErrEmptyExercise):
		return newError(KindEmptyExercise, err)
	case errors.Is(err, exercise.ErrAnswerCount):
		return newError(KindInvalidInput, err)
	default:
		return newError(KindUpstream, err)
	}
}
