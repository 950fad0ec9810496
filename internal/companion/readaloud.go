package companion

import (
	"context"
	"errors"
	"fmt"

	"github.com/vinavi-labs/vinavi/internal/sessions"
	"github.com/vinavi-labs/vinavi/internal/speech"
)

// Source selects what ReadAloud speaks.
type Source string

const (
	SourceLast      Source = "last"
	SourceExpansion Source = "expansion"
	SourceFeedback  Source = "feedback"
)

// ReadAloud synthesizes the chosen text of the session.
func (s *Service) ReadAloud(ctx context.Context, id string, source Source) (*speech.Audio, error) {
	if s.cfg.Speech == nil {
		return nil, newError(KindMissingResource, errors.New("speech disabled"))
	}
	sess, err := s.cfg.Store.Get(id)
	if err != nil {
		return nil, classify(err)
	}

	text, err := speakable(sess, source)
	if err != nil {
		return nil, err
	}
	audio, err := s.cfg.Speech.Synthesize(ctx, text)
	if err != nil {
		if errors.Is(err, speech.ErrNothingToSay) {
			return nil, newError(KindInvalidInput, err)
		}
		return nil, newError(KindUpstream, err)
	}
	return audio, nil
}

func speakable(sess *sessions.Session, source Source) (string, error) {
	var text string
	switch source {
	case SourceLast, "":
		text = sess.LastAnswer
	case SourceExpansion:
		if n := len(sess.Expansions); n > 0 {
			text = sess.Expansions[n-1]
		}
	case SourceFeedback:
		text = sess.Exercise.Feedback
	default:
		return "", newError(KindInvalidInput, fmt.Errorf("unknown speech source %q", source))
	}
	if text == "" {
		return "", newError(KindInvalidInput, fmt.Errorf("nothing to read for %q", source))
	}
	return text, nil
}
