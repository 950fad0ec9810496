package commands

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/vinavi-labs/vinavi/internal/companion"
	"github.com/vinavi-labs/vinavi/internal/events"
	"github.com/vinavi-labs/vinavi/internal/exercise"
	"github.com/vinavi-labs/vinavi/internal/sessions"
)

// NewPracticeCommand returns the practice subcommand.
func NewPracticeCommand() *cli.Command {
	return &cli.Command{
		Name:  "practice",
		Usage: "Run one comprehension or fill-in-the-blank exercise in the terminal",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "kind",
				Aliases: []string{"k"},
				Usage:   "comprehension or fill_blank",
				Value:   string(exercise.KindComprehension),
			},
		},
		Action: runPractice,
	}
}

func runPractice(ctx context.Context, cmd *cli.Command) error {
	setupLogging(cmd)

	kind, err := exercise.ParseKind(cmd.String("kind"))
	if err != nil {
		return err
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	bus := events.NewBus(cfg.Events.BufferSize)
	defer bus.Close()

	svc, err := newCompanion(ctx, cfg, bus, sessions.NewMemoryStore())
	if err != nil {
		return err
	}

	p := newPrinter()
	sess, err := svc.CreateSession(ctx, string(kind))
	if err != nil {
		return reportError(p, err)
	}

	p.muted("பயிற்சி தயாராகிறது...")
	res, err := svc.StartExercise(ctx, sess.ID)
	if err != nil {
		return reportError(p, err)
	}
	ex := res.Session.Exercise.Exercise

	p.heading(sess.Mode.Label())
	p.reply(ex.Passage)
	if kind == exercise.KindComprehension {
		for i, q := range ex.Items {
			p.muted(fmt.Sprintf("%d. %s", i+1, q))
		}
	}

	answers, err := readAnswers(ex)
	if err != nil {
		return err
	}

	res, err = svc.SubmitAnswers(ctx, sess.ID, answers)
	if err != nil {
		return reportError(p, err)
	}
	p.heading("மதிப்பீடு")
	p.reply(res.Session.Exercise.Feedback)
	return nil
}

// readAnswers prompts for one answer per item on stdin.
func readAnswers(ex *exercise.Exercise) ([]string, error) {
	scanner := bufio.NewScanner(os.Stdin)
	answers := make([]string, 0, len(ex.Items))
	for i := range ex.Items {
		fmt.Fprintf(os.Stderr, "(%d) ", i+1)
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return nil, fmt.Errorf("read answer: %w", err)
			}
			return nil, companion.InvalidInput(fmt.Errorf("expected %d answers, got %d", len(ex.Items), i))
		}
		answers = append(answers, strings.TrimSpace(scanner.Text()))
	}
	return answers, nil
}
