package commands

import (
	"github.com/urfave/cli/v3"

	"github.com/vinavi-labs/vinavi/internal/config"
)

// NewRootCommand returns the top-level CLI command.
func NewRootCommand() *cli.Command {
	return &cli.Command{
		Name:  "vinavi",
		Usage: "A Tamil learning companion for children",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config file",
				Value:   config.ConfigPath(),
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug logging",
			},
		},
		Commands: []*cli.Command{
			NewServeCommand(),
			NewAskCommand(),
			NewPracticeCommand(),
			NewStatusCommand(),
			NewSessionsCommand(),
			NewIndexCommand(),
			NewSecretCommand(),
		},
	}
}
