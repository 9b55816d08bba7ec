package backups

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/julianstephens/daybook/internal/backup"
	"github.com/julianstephens/daybook/internal/cli"
	"github.com/julianstephens/daybook/internal/storage"
)

// requireSQLite refuses backup commands for stores that are not a local file.
func requireSQLite(ctx *cli.Context) error {
	if b := storage.BackendFor(ctx.Store.GetConfigPath()); b != storage.BackendSQLite {
		return fmt.Errorf("backups are only supported for SQLite storage (current backend: %s)", b)
	}
	return nil
}

type BackupCreateCmd struct{}

func (c *BackupCreateCmd) Run(ctx *cli.Context) error {
	if err := requireSQLite(ctx); err != nil {
		return err
	}

	mgr := backup.NewManager(ctx.Store.GetConfigPath())
	backupPath, err := mgr.Create()
	if err != nil {
		return fmt.Errorf("backup failed: %w", err)
	}

	fmt.Fprintf(ctx.Stdout(), "✓ Backup created: %s\n", filepath.Base(backupPath))
	return nil
}

type BackupListCmd struct{}

func (c *BackupListCmd) Run(ctx *cli.Context) error {
	if err := requireSQLite(ctx); err != nil {
		return err
	}

	out := ctx.Stdout()
	mgr := backup.NewManager(ctx.Store.GetConfigPath())
	backups, err := mgr.List()
	if err != nil {
		return fmt.Errorf("failed to list backups: %w", err)
	}

	if len(backups) == 0 {
		fmt.Fprintln(out, "No backups found.")
		fmt.Fprintf(out, "Backups are stored in: %s\n", mgr.Dir())
		return nil
	}

	fmt.Fprintf(out, "Available backups (%d total):\n\n", len(backups))
	for _, b := range backups {
		sizeKB := float64(b.Size) / 1024.0
		fmt.Fprintf(out, "  %s  %s  (%.1f KB)\n", b.Timestamp.Format("2006-01-02 15:04:05"), b.Name, sizeKB)
	}
	fmt.Fprintf(out, "\nBackup directory: %s\n", mgr.Dir())
	return nil
}

type BackupRestoreCmd struct {
	BackupFile string `arg:"" help:"Path or filename of the backup to restore."`
	Yes        bool   `short:"y" help:"Skip the confirmation prompt."`
}

func (c *BackupRestoreCmd) Run(ctx *cli.Context) error {
	if err := requireSQLite(ctx); err != nil {
		return err
	}

	out := ctx.Stdout()
	mgr := backup.NewManager(ctx.Store.GetConfigPath())
	backupPath := mgr.Resolve(c.BackupFile)
	if _, err := os.Stat(backupPath); os.IsNotExist(err) {
		return fmt.Errorf("backup file not found: %s", backupPath)
	}

	if !c.Yes {
		ok, err := ctx.Confirm(
			"Restore from "+filepath.Base(backupPath)+"?",
			"This replaces your current database. A backup of it is taken first.",
		)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(out, "Restore cancelled.")
			return nil
		}
	}

	// Close the current store connection before restoring
	if err := ctx.Store.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to close database connection: %v\n", err)
	}

	safety, err := mgr.Restore(backupPath)
	if err != nil {
		return fmt.Errorf("restore failed: %w", err)
	}

	fmt.Fprintln(out, "✓ Database restored successfully!")
	if safety != "" {
		fmt.Fprintf(out, "  Previous database saved as %s\n", filepath.Base(safety))
	}
	return ctx.Store.Load()
}
