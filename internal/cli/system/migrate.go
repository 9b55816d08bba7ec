package system

import (
	"context"
	"fmt"

	"github.com/mitchellh/go-homedir"

	"github.com/julianstephens/daybook/internal/cli"
	"github.com/julianstephens/daybook/internal/daybook"
)

// MigrateLegacyCmd runs the legacy normalization pass over the user's whole history.
type MigrateLegacyCmd struct {
	Rules string `help:"YAML file with legacy id rules. Overrides the legacy_rules_path setting."`
}

func (c *MigrateLegacyCmd) Run(ctx *cli.Context) error {
	svc := ctx.Service
	if c.Rules != "" {
		path, err := homedir.Expand(c.Rules)
		if err != nil {
			return fmt.Errorf("failed to expand %s: %w", c.Rules, err)
		}
		cfg, err := daybook.ConfigFromSettings(ctx.Settings, nil, path)
		if err != nil {
			return err
		}
		if svc, err = daybook.New(ctx.Store, cfg); err != nil {
			return err
		}
	}

	ctx.PerformAutomaticBackup()

	summary, err := cli.Retry(context.Background(), func(bg context.Context) (daybook.MigrationSummary, error) {
		return svc.MigrateHistory(bg, ctx.User)
	})
	if err != nil {
		return fmt.Errorf("legacy migration failed: %w", err)
	}

	out := ctx.Stdout()
	if summary.Rewritten == 0 {
		fmt.Fprintf(out, "Scanned %d records. Nothing to migrate.\n", summary.Scanned)
		return nil
	}
	r := summary.Report
	fmt.Fprintf(out, "✓ Rewrote %d of %d records\n", summary.Rewritten, summary.Scanned)
	fmt.Fprintf(out, "  Legacy tasks removed:   %d\n", r.PurgedTasks)
	fmt.Fprintf(out, "  Legacy habits removed:  %d\n", r.PurgedHabits)
	fmt.Fprintf(out, "  Categories inferred:    %d\n", r.InferredCategory)
	fmt.Fprintf(out, "  Statuses repaired:      %d\n", r.RepairedStatus)
	fmt.Fprintf(out, "  Habit values coerced:   %d\n", r.CoercedHabits)
	return nil
}
