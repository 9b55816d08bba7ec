package system

import (
	"errors"
	"fmt"

	"github.com/julianstephens/daybook/internal/cli"
	"github.com/julianstephens/daybook/internal/keyring"
	"github.com/julianstephens/daybook/internal/storage/postgres"
)

// ConfigSetConnectionCmd stores the PostgreSQL connection string in the OS keyring
type ConfigSetConnectionCmd struct {
	ConnectionString string `arg:"" help:"PostgreSQL connection string to store in keyring"`
}

func (cmd *ConfigSetConnectionCmd) Run(ctx *cli.Context) error {
	out := ctx.Stdout()
	if _, err := postgres.ValidateConnString(cmd.ConnectionString); err != nil {
		if !errors.Is(err, postgres.ErrEmbeddedCredentials) {
			return fmt.Errorf("invalid connection string: %w", err)
		}
		// The keyring is encrypted, so a password is acceptable here
		fmt.Fprintln(out, "⚠️  Warning: Connection string contains embedded credentials.")
		fmt.Fprintln(out, "   It will be stored as-is in the encrypted OS keyring.")
	}

	if err := keyring.SetConnectionString(cmd.ConnectionString); err != nil {
		return fmt.Errorf("failed to store connection string in keyring: %w", err)
	}

	fmt.Fprintln(out, "✓ Connection string stored successfully in OS keyring")
	fmt.Fprintln(out, "  Pass --config postgres:// (without credentials) to use it")
	return nil
}

// ConfigShowConnectionCmd prints the stored connection string with the password masked
type ConfigShowConnectionCmd struct{}

func (cmd *ConfigShowConnectionCmd) Run(ctx *cli.Context) error {
	connStr, err := keyring.GetConnectionString()
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return errors.New("no connection string found in keyring. Use 'daybook config set-connection' to store one")
		}
		return fmt.Errorf("failed to retrieve connection string from keyring: %w", err)
	}

	fmt.Fprintln(ctx.Stdout(), "Connection string retrieved from keyring:")
	fmt.Fprintln(ctx.Stdout(), keyring.MaskPassword(connStr))
	return nil
}

// ConfigClearConnectionCmd removes the connection string from the OS keyring
type ConfigClearConnectionCmd struct{}

func (cmd *ConfigClearConnectionCmd) Run(ctx *cli.Context) error {
	if err := keyring.DeleteConnectionString(); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return errors.New("no connection string found in keyring")
		}
		return fmt.Errorf("failed to delete connection string from keyring: %w", err)
	}

	fmt.Fprintln(ctx.Stdout(), "✓ Connection string deleted from OS keyring")
	return nil
}
