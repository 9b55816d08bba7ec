package days

import (
	"context"
	"errors"
	"fmt"

	"github.com/julianstephens/daybook/internal/cli"
	apperrors "github.com/julianstephens/daybook/internal/errors"
	"github.com/julianstephens/daybook/internal/lock"
	"github.com/julianstephens/daybook/internal/models"
)

type TodayCmd struct{}

func (c *TodayCmd) Run(ctx *cli.Context) error {
	rec, err := cli.Retry(context.Background(), func(bg context.Context) (models.DayRecord, error) {
		return ctx.Service.EnsureTodayRecord(bg, ctx.User)
	})
	if err != nil {
		return fmt.Errorf("failed to load today: %w", err)
	}
	state, err := ctx.Service.EvaluateLockState(rec.DateKey, &rec)
	if err != nil {
		return err
	}
	cli.RenderDay(ctx.Stdout(), rec.DateKey, &rec, state)
	return nil
}

type DayCmd struct {
	Date string `arg:"" help:"Day to show (YYYY-MM-DD)."`
}

type loaded struct {
	rec   *models.DayRecord
	state lock.State
}

func (c *DayCmd) Run(ctx *cli.Context) error {
	res, err := cli.Retry(context.Background(), func(bg context.Context) (loaded, error) {
		rec, state, err := ctx.Service.Load(bg, ctx.User, c.Date)
		return loaded{rec, state}, err
	})
	if errors.Is(err, apperrors.ErrFutureAccessDenied) {
		fmt.Fprintf(ctx.Stdout(), "%s  %s\n", c.Date, cli.StateBadge(lock.Blocked))
		return fmt.Errorf("%s is in the future: %w", c.Date, err)
	}
	if err != nil {
		return err
	}
	cli.RenderDay(ctx.Stdout(), c.Date, res.rec, res.state)
	return nil
}

// resolveDate defaults an omitted date to today.
func resolveDate(ctx *cli.Context, date string) string {
	if date == "" {
		return ctx.Service.Today()
	}
	return date
}
