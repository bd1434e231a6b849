package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"salesagent/pkg/config"
)

func secretsCmd() *cli.Command {
	return &cli.Command{
		Name:  "secrets",
		Usage: "Manage the encrypted API key file",
		Subcommands: []*cli.Command{
			{
				Name:      "set",
				Usage:     "Store a secret, e.g. secrets set GOOGLE_API_KEY",
				ArgsUsage: "NAME [VALUE]",
				Action: func(c *cli.Context) error {
					if c.NArg() < 1 {
						return errors.New("secret name is required")
					}
					name := strings.TrimSpace(c.Args().Get(0))
					value := c.Args().Get(1)
					in, out := c.App.Reader, c.App.Writer

					if value == "" {
						var err error
						value, err = readPassword(in, out, fmt.Sprintf("Value for %s: ", name))
						if err != nil {
							return err
						}
					}
					return setSecret(projectDir(c), name, value, in, out)
				},
			},
			{
				Name:  "list",
				Usage: "List stored secret names",
				Action: func(c *cli.Context) error {
					dir := projectDir(c)
					if !config.SecretsFileExists(dir) {
						fmt.Fprintln(c.App.Writer, "No secrets file.")
						return nil
					}
					if err := unlockSecrets(dir, c.App.Reader, c.App.Writer); err != nil {
						return err
					}
					for _, name := range config.SecretNames() {
						fmt.Fprintln(c.App.Writer, name)
					}
					return nil
				},
			},
		},
	}
}

// setSecret merges one secret into the encrypted file, creating it if needed.
func setSecret(dir, name, value string, in io.Reader, out io.Writer) error {
	if name == "" || value == "" {
		return errors.New("secret name and value must be non-empty")
	}

	password := os.Getenv(passwordEnv)
	if password == "" {
		var err error
		password, err = readPassword(in, out, "Secrets password: ")
		if err != nil {
			return err
		}
	}
	if password == "" {
		return errors.New("a password is required to encrypt secrets")
	}

	secrets := map[string]string{}
	if config.SecretsFileExists(dir) {
		existing, err := config.DecryptSecretsFile(dir, password)
		if err != nil {
			return fmt.Errorf("failed to unlock existing secrets: %w", err)
		}
		secrets = existing
	}
	secrets[name] = value

	if err := config.EncryptSecretsFile(dir, password, secrets); err != nil {
		return fmt.Errorf("failed to encrypt secrets: %w", err)
	}
	fmt.Fprintf(out, "🔐 Saved %s to %s\n", name, config.SecretsPath(dir))
	return nil
}
