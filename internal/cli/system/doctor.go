package system

import (
	"context"
	"fmt"
	"time"

	"github.com/julianstephens/daybook/internal/backup"
	"github.com/julianstephens/daybook/internal/cli"
	"github.com/julianstephens/daybook/internal/models"
	"github.com/julianstephens/daybook/internal/storage"
	"github.com/julianstephens/daybook/internal/utils"
)

type DoctorCmd struct{}

type check struct {
	name    string
	run     func(*cli.Context) error
	warning bool // failures are reported but do not fail the command
	needsDB bool
}

var checks = []check{
	{name: "Storage reachable", run: checkStoreReachable},
	{name: "Schema version", run: checkSchemaVersion, needsDB: true},
	{name: "Backups present", run: checkBackupsPresent, warning: true},
	{name: "Timezone", run: checkTimezone, needsDB: true},
	{name: "Clock", run: checkClock},
	{name: "Record integrity", run: checkRecords, needsDB: true},
}

func (cmd *DoctorCmd) Run(ctx *cli.Context) error {
	out := ctx.Stdout()
	fmt.Fprintln(out, "Running diagnostics...")
	fmt.Fprintln(out)

	hasError := false
	dbReachable := true
	for i, c := range checks {
		if c.needsDB && !dbReachable {
			fmt.Fprintf(out, "⊘ %s: SKIPPED (storage not reachable)\n", c.name)
			continue
		}
		err := c.run(ctx)
		switch {
		case err == nil:
			fmt.Fprintf(out, "✓ %s: OK\n", c.name)
		case c.warning:
			fmt.Fprintf(out, "⚠ %s: WARNING\n", c.name)
			fmt.Fprintf(out, "   %v\n", err)
		default:
			fmt.Fprintf(out, "❌ %s: FAIL\n", c.name)
			fmt.Fprintf(out, "   Error: %v\n", err)
			hasError = true
			if i == 0 {
				dbReachable = false
			}
		}
	}

	fmt.Fprintln(out)
	if hasError {
		fmt.Fprintln(out, "Diagnostics completed with errors.")
		return fmt.Errorf("one or more health checks failed")
	}
	fmt.Fprintln(out, "All diagnostics passed!")
	return nil
}

func checkStoreReachable(ctx *cli.Context) error {
	if err := ctx.Store.Load(); err != nil {
		return fmt.Errorf("failed to load storage: %w", err)
	}
	if _, err := ctx.Store.GetSettings(); err != nil {
		return fmt.Errorf("failed to read settings: %w", err)
	}
	return nil
}

func checkSchemaVersion(ctx *cli.Context) error {
	versioned, ok := ctx.Store.(storage.Versioned)
	if !ok {
		// The document store has no schema
		return nil
	}
	current, latest, err := versioned.SchemaVersion()
	if err != nil {
		return err
	}
	if current != latest {
		return fmt.Errorf("schema at version %d, latest is %d; run 'daybook init' to migrate", current, latest)
	}
	return nil
}

func checkBackupsPresent(ctx *cli.Context) error {
	if storage.BackendFor(ctx.Store.GetConfigPath()) != storage.BackendSQLite {
		return nil
	}
	backups, err := backup.NewManager(ctx.Store.GetConfigPath()).List()
	if err != nil {
		return fmt.Errorf("failed to list backups: %w", err)
	}
	if len(backups) == 0 {
		return fmt.Errorf("no backups found - consider creating one with 'daybook backup create'")
	}
	return nil
}

func checkTimezone(ctx *cli.Context) error {
	settings, err := ctx.Store.GetSettings()
	if err != nil {
		return err
	}
	if !utils.ValidateTimezone(settings.Timezone) {
		return fmt.Errorf("unknown timezone %q", settings.Timezone)
	}
	return nil
}

func checkClock(*cli.Context) error {
	now := time.Now()
	if now.Year() < 2020 || now.Year() > 2100 {
		return fmt.Errorf("system time appears incorrect: %s", now.Format(time.RFC3339))
	}
	return nil
}

// checkRecords scans the user's history for data the legacy pass would rewrite.
func checkRecords(ctx *cli.Context) error {
	records, err := ctx.Store.QueryMostRecent(context.Background(), ctx.User, lastDate, 0)
	if err != nil {
		return err
	}
	for _, rec := range records {
		if err := recordProblem(rec); err != nil {
			return fmt.Errorf("%s: %w (run 'daybook migrate-legacy')", rec.DateKey, err)
		}
	}
	return nil
}

func recordProblem(rec models.DayRecord) error {
	if !utils.IsValidDateKey(rec.DateKey) {
		return fmt.Errorf("invalid date key")
	}
	seen := make(map[string]bool, len(rec.Tasks))
	for _, t := range rec.Tasks {
		if seen[t.ID] {
			return fmt.Errorf("duplicate task ID %s", t.ID)
		}
		seen[t.ID] = true
		if !t.Category.Valid() {
			return fmt.Errorf("task %s has no valid category", t.ID)
		}
		if !t.Status.Valid() {
			return fmt.Errorf("task %s has invalid status %q", t.ID, t.Status)
		}
	}
	for _, h := range rec.Habits {
		if h.NeedsNormalize() {
			return fmt.Errorf("habit %s has a value that does not match its type", h.ID)
		}
	}
	return nil
}
