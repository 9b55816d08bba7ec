package days

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/julianstephens/daybook/internal/cli"
	apperrors "github.com/julianstephens/daybook/internal/errors"
	"github.com/julianstephens/daybook/internal/models"
)

type SubmitCmd struct {
	Date string `arg:"" optional:"" help:"Day to submit (YYYY-MM-DD). Defaults to today."`
}

func (c *SubmitCmd) Run(ctx *cli.Context) error {
	date := resolveDate(ctx, c.Date)
	rec, err := cli.Retry(context.Background(), func(bg context.Context) (models.DayRecord, error) {
		return ctx.Service.Submit(bg, ctx.User, date, ctx.User)
	})
	if err != nil {
		return fmt.Errorf("failed to submit %s: %w", date, err)
	}
	fmt.Fprintf(ctx.Stdout(), "✓ Submitted and locked %s\n", rec.DateKey)
	return nil
}

type UnlockCmd struct {
	Date   string `arg:"" optional:"" help:"Day to unlock (YYYY-MM-DD). Defaults to today."`
	Reason string `short:"r" help:"Why the day is being reopened. Prompted for when omitted."`
}

func (c *UnlockCmd) Run(ctx *cli.Context) error {
	date := resolveDate(ctx, c.Date)

	reason := strings.TrimSpace(c.Reason)
	if reason == "" {
		prompted, err := ctx.PromptUnlockReason(date)
		if err != nil {
			if errors.Is(err, cli.ErrPromptUnavailable) {
				return apperrors.ErrEmptyUnlockReason
			}
			return err
		}
		reason = prompted
	}

	rec, err := cli.Retry(context.Background(), func(bg context.Context) (models.DayRecord, error) {
		return ctx.Service.Unlock(bg, ctx.User, date, reason, ctx.User)
	})
	if err != nil {
		return fmt.Errorf("failed to unlock %s: %w", date, err)
	}
	fmt.Fprintf(ctx.Stdout(), "✓ Unlocked %s (unlock #%d)\n", rec.DateKey, len(rec.UnlockHistory))
	return nil
}
