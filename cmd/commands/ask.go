package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/vinavi-labs/vinavi/internal/companion"
	"github.com/vinavi-labs/vinavi/internal/events"
	"github.com/vinavi-labs/vinavi/internal/sessions"
)

// NewAskCommand returns the ask subcommand.
func NewAskCommand() *cli.Command {
	return &cli.Command{
		Name:      "ask",
		Usage:     "Ask the companion one question without a running gateway",
		ArgsUsage: "<text>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "mode",
				Aliases: []string{"m"},
				Usage:   "assist or conversation",
				Value:   string(sessions.ModeAssist),
			},
			&cli.StringFlag{
				Name:    "option",
				Aliases: []string{"o"},
				Usage:   "Assist option: meaning, example or translation",
				Value:   string(companion.OptionMeaning),
			},
			&cli.IntFlag{
				Name:  "expand",
				Usage: "Follow-up expansions to request in conversation mode",
			},
			&cli.StringFlag{
				Name:  "speak",
				Usage: "Write the last reply as MP3 to this file",
			},
		},
		Action: runAsk,
	}
}

func runAsk(ctx context.Context, cmd *cli.Command) error {
	setupLogging(cmd)

	text := strings.Join(cmd.Args().Slice(), " ")
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("usage: vinavi ask <text>")
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
	sess, err := svc.CreateSession(ctx, cmd.String("mode"))
	if err != nil {
		return reportError(p, err)
	}

	source := companion.SourceLast
	switch sess.Mode {
	case sessions.ModeAssist:
		opt, err := companion.ParseOption(cmd.String("option"))
		if err != nil {
			return reportError(p, err)
		}
		res, err := svc.Ask(ctx, sess.ID, string(opt), text)
		if err != nil {
			return reportError(p, err)
		}
		printResult(p, opt.Label(), res)

	case sessions.ModeConversation:
		res, err := svc.Converse(ctx, sess.ID, text)
		if err != nil {
			return reportError(p, err)
		}
		printResult(p, sessions.ModeConversation.Label(), res)

		for i := 0; i < cmd.Int("expand") && !res.Blocked; i++ {
			if res, err = svc.Expand(ctx, sess.ID); err != nil {
				return reportError(p, err)
			}
			printResult(p, "மேலும்", res)
			source = companion.SourceExpansion
		}

	default:
		return fmt.Errorf("mode %q is not available in ask, use practice", sess.Mode)
	}

	if path := cmd.String("speak"); path != "" {
		audio, err := svc.ReadAloud(ctx, sess.ID, source)
		if err != nil {
			return reportError(p, err)
		}
		if err := os.WriteFile(path, audio.Data, 0o644); err != nil {
			return fmt.Errorf("write audio: %w", err)
		}
		p.muted(fmt.Sprintf("audio: %s (%d bytes)", path, len(audio.Data)))
	}
	return nil
}

func printResult(p *printer, title string, res *companion.Result) {
	if res.Blocked {
		p.failure(res.Reply)
		return
	}
	p.heading(title)
	p.reply(res.Reply)
}

// reportError prints the child-facing message and returns err for the exit status.
func reportError(p *printer, err error) error {
	var e *companion.Error
	if errors.As(err, &e) {
		p.failure(e.Message)
	}
	return err
}
