package commands

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/vinavi-labs/vinavi/internal/config"
	"github.com/vinavi-labs/vinavi/internal/secrets"
)

// NewSecretCommand returns the secret subcommand.
func NewSecretCommand() *cli.Command {
	return &cli.Command{
		Name:  "secret",
		Usage: "Manage encrypted API keys in the .env file",
		Commands: []*cli.Command{
			{
				Name:  "init",
				Usage: "Create the age identity used to encrypt secrets",
				Action: func(_ context.Context, _ *cli.Command) error {
					id, err := secrets.GenerateIdentity(secrets.KeyPath())
					if err != nil {
						return err
					}
					fmt.Printf("identity: %s\npublic key: %s\n", secrets.KeyPath(), id.Recipient())
					return nil
				},
			},
			{
				Name:      "set",
				Usage:     "Encrypt a value and store it in the .env file",
				ArgsUsage: "<KEY> [value]",
				Action:    runSecretSet,
			},
		},
	}
}

func runSecretSet(_ context.Context, cmd *cli.Command) error {
	key := cmd.Args().Get(0)
	if key == "" {
		return fmt.Errorf("usage: vinavi secret set <KEY> [value]")
	}

	value := cmd.Args().Get(1)
	if value == "" {
		var err error
		if value, err = readSecret(key); err != nil {
			return err
		}
	}
	if value == "" {
		return fmt.Errorf("empty value for %s", key)
	}

	id, err := secrets.GenerateIdentity(secrets.KeyPath())
	if err != nil {
		return err
	}
	blob, err := secrets.Encrypt(value, id.Recipient())
	if err != nil {
		return err
	}
	if err := secrets.SetEntry(config.DotenvPath(), key, blob); err != nil {
		return err
	}
	fmt.Printf("%s stored in %s\n", key, config.DotenvPath())
	return nil
}

// readSecret reads a value without echo on a terminal, or one line from a pipe.
func readSecret(key string) (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		fmt.Fprintf(os.Stderr, "%s: ", key)
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("read secret: %w", err)
		}
		return strings.TrimSpace(string(b)), nil
	}
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read secret: %w", err)
	}
	return strings.TrimSpace(line), nil
}
