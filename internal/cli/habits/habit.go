package habits

import (
	"context"
	"fmt"

	"github.com/julianstephens/daybook/internal/cli"
	"github.com/julianstephens/daybook/internal/daybook"
	"github.com/julianstephens/daybook/internal/models"
)

type HabitAddCmd struct {
	Label string `arg:"" help:"Habit label."`
	Type  string `default:"toggle" enum:"toggle,number" help:"Habit type (toggle or number)."`
	Unit  string `help:"Unit for number habits, e.g. pages or km."`
}

func (c *HabitAddCmd) Run(ctx *cli.Context) error {
	if c.Unit != "" && models.HabitType(c.Type) != models.HabitNumber {
		return fmt.Errorf("--unit only applies to number habits")
	}
	habit, err := daybook.NewHabit(c.Label, models.HabitType(c.Type), c.Unit)
	if err != nil {
		return err
	}
	habit, err = cli.Retry(context.Background(), func(bg context.Context) (models.Habit, error) {
		return ctx.Service.AddHabit(bg, ctx.User, habit)
	})
	if err != nil {
		return fmt.Errorf("failed to add habit: %w", err)
	}
	fmt.Fprintf(ctx.Stdout(), "✓ Tracking %s habit %q (ID: %s)\n", habit.Type, habit.Label, habit.ID)
	return nil
}

type HabitSetCmd struct {
	ID    string `arg:"" help:"Habit ID or unique prefix."`
	Value string `arg:"" help:"New value: true/false for toggles, a number for number habits."`
	Date  string `help:"Day to record (YYYY-MM-DD). Defaults to today."`
}

func (c *HabitSetCmd) Run(ctx *cli.Context) error {
	date := c.Date
	if date == "" {
		date = ctx.Service.Today()
	}

	id := c.ID
	rec, _, err := ctx.Service.Load(context.Background(), ctx.User, date)
	if err != nil {
		return err
	}
	if rec != nil {
		if id, err = cli.ResolveHabitID(rec, c.ID); err != nil {
			return err
		}
	}

	habit, err := cli.Retry(context.Background(), func(bg context.Context) (models.Habit, error) {
		return ctx.Service.SetHabit(bg, ctx.User, date, id, c.Value)
	})
	if err != nil {
		return fmt.Errorf("failed to set habit: %w", err)
	}
	fmt.Fprintf(ctx.Stdout(), "✓ %s: %s\n", habit.Label, cli.FormatHabitValue(habit))
	return nil
}
