package companion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/vinavi-labs/vinavi/internal/events"
	"github.com/vinavi-labs/vinavi/internal/exercise"
	"github.com/vinavi-labs/vinavi/internal/sessions"
)

const generationFailedMessage = "பயிற்சி தயாரிப்பதில் ஒரு பிழை ஏற்பட்டது. தயவுசெய்து மீண்டும் முயற்சிக்கவும்."

func exerciseKind(sess *sessions.Session) (exercise.Kind, error) {
	kind, ok := sess.Mode.ExerciseKind()
	if !ok {
		return "", newError(KindInvalidMode, fmt.Errorf("mode %q has no exercise", sess.Mode))
	}
	return kind, nil
}

// StartExercise generates the session's exercise. An empty or failed
// generation leaves the exercise NotStarted.
func (s *Service) StartExercise(ctx context.Context, id string) (*Result, error) {
	var kind exercise.Kind
	if _, err := s.begin(id, func(sess *sessions.Session) error {
		var err error
		if kind, err = exerciseKind(sess); err != nil {
			return err
		}
		if sess.Exercise.State != exercise.StateNotStarted {
			return newError(KindInvalidInput, errors.New("exercise already started"))
		}
		return nil
	}); err != nil {
		return nil, err
	}
	defer s.releaseOnPanic(id, func(sess *sessions.Session) { sess.ResetExercise() })
	ctx = events.ContextWithSessionID(ctx, id)

	ex, err := s.cfg.Exercises.Generate(ctx, kind)
	if err != nil {
		reason := events.ResetGenerationError
		if errors.Is(err, exercise.ErrEmptyExercise) {
			reason = events.ResetEmptyGeneration
		}
		if _, ferr := s.finish(id, func(sess *sessions.Session) { sess.ResetExercise() }); ferr != nil {
			return nil, ferr
		}
		s.publish(id, events.ExerciseResetPayload{Kind: string(kind), Reason: reason})
		slog.Warn("exercise generation failed", "session_id", id, "kind", kind, "error", err)

		e := classify(err)
		switch e.Kind {
		case KindEmptyExercise:
			e.Message = exercise.EmptyMessage(kind)
		case KindUpstream:
			e.Message = generationFailedMessage
		}
		return nil, e
	}

	sess, err := s.finish(id, func(sess *sessions.Session) {
		sess.Exercise = sessions.ExerciseState{State: exercise.StateStarted, Exercise: ex}
	})
	if err != nil {
		return nil, err
	}
	slog.Info("exercise started", "session_id", id, "kind", kind, "items", len(ex.Items))
	s.publish(id, events.ExerciseStartedPayload{Kind: string(kind), Items: len(ex.Items)})
	return &Result{Session: sess}, nil
}

// SubmitAnswers moderates every answer and, when all pass, asks for
// feedback. A flagged answer blocks validation and leaves the exercise as it was.
func (s *Service) SubmitAnswers(ctx context.Context, id string, answers []string) (*Result, error) {
	var (
		kind         exercise.Kind
		ex           *exercise.Exercise
		prior        exercise.State
		priorAnswers []string
	)
	if _, err := s.begin(id, func(sess *sessions.Session) error {
		var err error
		if kind, err = exerciseKind(sess); err != nil {
			return err
		}
		st := sess.Exercise.State
		if sess.Exercise.Exercise == nil || (st != exercise.StateStarted && st != exercise.StateFeedback) {
			return newError(KindNoExercise, errors.New("no exercise to answer"))
		}
		if len(answers) != len(sess.Exercise.Exercise.Items) {
			return newError(KindInvalidInput, fmt.Errorf("%w: got %d, want %d",
				exercise.ErrAnswerCount, len(answers), len(sess.Exercise.Exercise.Items)))
		}
		ex, prior = sess.Exercise.Exercise.Clone(), st
		priorAnswers = append([]string(nil), sess.Exercise.Answers...)
		return nil
	}); err != nil {
		return nil, err
	}
	restore := func(sess *sessions.Session) {
		sess.Exercise.State = prior
		sess.Exercise.Answers = priorAnswers
	}
	defer s.releaseOnPanic(id, restore)
	ctx = events.ContextWithSessionID(ctx, id)

	idx, verdict, err := s.cfg.Gate.CheckAll(ctx, answers)
	if err != nil {
		return nil, s.fail(id, err)
	}
	if verdict.Inappropriate {
		if _, err := s.finish(id, nil); err != nil {
			return nil, err
		}
		slog.Info("answer blocked by moderation", "session_id", id, "index", idx)
		s.publish(id, events.ModerationBlockedPayload{
			Mode: string(kind), Stage: events.ModerationStageAnswers, Index: idx, Matched: verdict.Matched,
		})
		return nil, newError(KindModerationBlocked, fmt.Errorf("answer %d flagged", idx+1))
	}

	submitted := append([]string(nil), answers...)
	if _, err := s.cfg.Store.Update(id, func(sess *sessions.Session) error {
		sess.Exercise.State = exercise.StateSubmitted
		sess.Exercise.Answers = submitted
		return nil
	}); err != nil {
		return nil, classify(err)
	}

	feedback, err := s.cfg.Exercises.Validate(ctx, ex, answers)
	if err != nil {
		slog.Warn("exercise validation failed", "session_id", id, "error", err)
		if _, ferr := s.finish(id, restore); ferr != nil {
			return nil, ferr
		}
		return nil, classify(err)
	}

	sess, err := s.finish(id, func(sess *sessions.Session) {
		sess.Exercise.State = exercise.StateFeedback
		sess.Exercise.Feedback = feedback
	})
	if err != nil {
		return nil, err
	}
	s.publish(id, events.ExerciseFeedbackPayload{Kind: string(kind), Answers: len(answers), Feedback: feedback})
	return &Result{Reply: feedback, Session: sess}, nil
}

// ResetExercise discards the exercise, answers and feedback ("புதிய பயிற்சி").
func (s *Service) ResetExercise(_ context.Context, id string) (*sessions.Session, error) {
	var kind exercise.Kind
	sess, err := s.cfg.Store.Update(id, func(sess *sessions.Session) error {
		var err error
		if kind, err = exerciseKind(sess); err != nil {
			return err
		}
		if sess.Processing {
			return newError(KindBusy, nil)
		}
		sess.ResetExercise()
		return nil
	})
	if err != nil {
		return nil, classify(err)
	}
	s.publish(id, events.ExerciseResetPayload{Kind: string(kind), Reason: events.ResetRequested})
	return sess, nil
}
