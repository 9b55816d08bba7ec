package system

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/julianstephens/daybook/internal/cli"
	"github.com/julianstephens/daybook/internal/storage"
)

// lastDate sorts after every valid date key.
const lastDate = "9999-12-31"

type InitCmd struct {
	Force  bool   `help:"Force reset by deleting existing storage before initialization."`
	Source string `help:"Source database path or connection string to copy the current user's data from."`
}

func (c *InitCmd) Run(ctx *cli.Context) error {
	out := ctx.Stdout()
	if c.Force {
		if err := c.reset(ctx); err != nil {
			return err
		}
	}

	if err := ctx.Store.Init(); err != nil {
		return err
	}
	fmt.Fprintf(out, "Initialized daybook storage at: %s\n", ctx.Store.GetConfigPath())

	if c.Source != "" {
		fmt.Fprintf(out, "Copying data from: %s\n", c.Source)
		if err := c.copyFrom(ctx); err != nil {
			return fmt.Errorf("copy failed: %w", err)
		}
		fmt.Fprintln(out, "Copy completed successfully!")
	}
	return nil
}

func (c *InitCmd) reset(ctx *cli.Context) error {
	path := ctx.Store.GetConfigPath()
	if storage.BackendFor(path) == storage.BackendPostgres {
		return fmt.Errorf("--force is not supported for PostgreSQL storage")
	}

	if c.Source != "" {
		absPath, err := filepath.Abs(path)
		if err == nil {
			path = absPath
		}
		if absSource, err := filepath.Abs(c.Source); err == nil && absSource == path {
			return fmt.Errorf("cannot use --force when source and destination are the same: %s", path)
		}
	}

	if _, err := os.Stat(path); err == nil {
		if err := ctx.Store.Close(); err != nil {
			return fmt.Errorf("failed to close existing storage: %w", err)
		}
		if err := os.RemoveAll(path); err != nil {
			return fmt.Errorf("failed to delete existing storage: %w", err)
		}
		fmt.Fprintf(ctx.Stdout(), "Deleted existing storage at: %s\n", path)
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to access existing storage: %w", err)
	}
	return nil
}

// copyFrom copies settings, the template and every record of the current
// user from another store.
func (c *InitCmd) copyFrom(ctx *cli.Context) error {
	if storage.IsPostgres(c.Source) && storage.HasEmbeddedCredentials(c.Source) {
		return fmt.Errorf("PostgreSQL source connection string contains embedded credentials. Use environment variables or .pgpass instead")
	}

	source := storage.New(c.Source)
	if err := source.Load(); err != nil {
		return fmt.Errorf("failed to load source storage: %w", err)
	}
	defer source.Close()

	out := ctx.Stdout()
	bg := context.Background()

	fmt.Fprintln(out, "  Copying settings...")
	settings, err := source.GetSettings()
	if err != nil {
		return fmt.Errorf("failed to get settings from source: %w", err)
	}
	if err := ctx.Store.SaveSettings(settings); err != nil {
		return fmt.Errorf("failed to save settings to destination: %w", err)
	}

	fmt.Fprintln(out, "  Copying template...")
	tpl, err := source.GetTemplate(bg, ctx.User)
	if err != nil {
		return fmt.Errorf("failed to get template from source: %w", err)
	}
	if tpl != nil {
		if err := ctx.Store.SaveTemplate(bg, *tpl); err != nil {
			return fmt.Errorf("failed to save template: %w", err)
		}
	}

	fmt.Fprintln(out, "  Copying day records...")
	records, err := source.QueryMostRecent(bg, ctx.User, lastDate, 0)
	if err != nil {
		return fmt.Errorf("failed to get records from source: %w", err)
	}
	for _, rec := range records {
		if err := ctx.Store.UpsertRecord(bg, rec); err != nil {
			return fmt.Errorf("failed to copy record %s: %w", rec.DateKey, err)
		}
	}
	fmt.Fprintf(out, "    Copied %d records\n", len(records))
	return nil
}
