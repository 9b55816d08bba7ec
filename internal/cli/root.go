package cli

import (
	"context"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/sethvargo/go-retry"

	"github.com/julianstephens/daybook/internal/backup"
	"github.com/julianstephens/daybook/internal/constants"
	"github.com/julianstephens/daybook/internal/daybook"
	apperrors "github.com/julianstephens/daybook/internal/errors"
	"github.com/julianstephens/daybook/internal/logger"
	"github.com/julianstephens/daybook/internal/models"
	"github.com/julianstephens/daybook/internal/storage"
)

type Context struct {
	Store    storage.Provider
	Service  *daybook.Service
	Settings models.Settings
	User     string

	// Out receives command output; nil means stdout.
	Out io.Writer
	// Interactive enables prompts. main sets it when stdin is a terminal.
	Interactive bool
}

func (c *Context) Stdout() io.Writer {
	if c.Out == nil {
		return os.Stdout
	}
	return c.Out
}

// StdinIsTerminal reports whether prompts can be shown.
func StdinIsTerminal() bool {
	fd := os.Stdin.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// PerformAutomaticBackup creates an automatic backup and silently handles errors.
// Only file-backed SQLite stores can be snapshotted.
func (c *Context) PerformAutomaticBackup() {
	if storage.BackendFor(c.Store.GetConfigPath()) != storage.BackendSQLite {
		logger.Debug("Skipping automatic backup for non-SQLite store")
		return
	}
	mgr := backup.NewManager(c.Store.GetConfigPath())
	if _, err := mgr.Create(); err != nil {
		// Log warning but don't interrupt user workflow
		logger.Warn("Automatic backup failed", "error", err)
	}
}

func backoff() retry.Backoff {
	return retry.WithMaxRetries(constants.StoreMaxRetries, retry.NewExponential(constants.StoreRetryBackoff))
}

// Retry runs fn, retrying with exponential backoff while the store reports
// itself unavailable. Any other error is returned immediately.
func Retry[T any](ctx context.Context, fn func(context.Context) (T, error)) (T, error) {
	var out T
	err := retry.Do(ctx, backoff(), func(ctx context.Context) error {
		v, err := fn(ctx)
		if err != nil {
			if apperrors.IsRetryable(err) {
				logger.Debug("Store unavailable, retrying", "error", err)
				return retry.RetryableError(err)
			}
			return err
		}
		out = v
		return nil
	})
	return out, err
}

// RetryErr is Retry for operations without a result.
func RetryErr(ctx context.Context, fn func(context.Context) error) error {
	_, err := Retry(ctx, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}
