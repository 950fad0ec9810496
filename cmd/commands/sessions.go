package commands

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/urfave/cli/v3"

	"github.com/vinavi-labs/vinavi/internal/sessions"
)

// NewSessionsCommand returns the sessions subcommand.
func NewSessionsCommand() *cli.Command {
	return &cli.Command{
		Name:  "sessions",
		Usage: "Inspect sessions of a running gateway",
		Flags: []cli.Flag{gatewayFlag()},
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List active sessions",
				Action: runSessionsList,
			},
			{
				Name:      "show",
				Usage:     "Show the transcript of a session",
				ArgsUsage: "<session_id>",
				Action:    runSessionsShow,
			},
		},
		DefaultCommand: "list",
	}
}

func runSessionsList(ctx context.Context, cmd *cli.Command) error {
	var list []sessions.Summary
	if err := getJSON(ctx, cmd.String("gateway"), "/api/sessions", &list); err != nil {
		return fmt.Errorf("list sessions: %w", err)
	}

	if len(list) == 0 {
		fmt.Println("No sessions found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tMODE\tTURNS\tUPDATED")
	for _, s := range list {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n",
			s.ID,
			s.Mode,
			s.Turns,
			s.UpdatedAt.Format("2006-01-02 15:04"),
		)
	}
	return w.Flush()
}

func runSessionsShow(ctx context.Context, cmd *cli.Command) error {
	sessionID := cmd.Args().First()
	if sessionID == "" {
		return fmt.Errorf("usage: vinavi sessions show <session_id>")
	}

	var sess sessions.Session
	if err := getJSON(ctx, cmd.String("gateway"), "/api/sessions/"+sessionID, &sess); err != nil {
		return fmt.Errorf("load session: %w", err)
	}

	p := newPrinter()
	p.heading(fmt.Sprintf("%s · %s", sess.ID, sess.Mode.Label()))
	if len(sess.Transcript) == 0 {
		p.muted("No messages in this session.")
		return nil
	}
	for _, t := range sess.Transcript {
		fmt.Printf("[%s] %s: %s\n", t.At.Format("15:04:05"), t.Role, t.Content)
	}
	p.muted(fmt.Sprintf("tokens: %d in, %d out", sess.TokenUsage.Input, sess.TokenUsage.Output))
	return nil
}
