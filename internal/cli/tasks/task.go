package tasks

import (
	"context"
	"fmt"

	"github.com/julianstephens/daybook/internal/cli"
	"github.com/julianstephens/daybook/internal/daybook"
	"github.com/julianstephens/daybook/internal/models"
)

type TaskAddCmd struct {
	Name string `arg:"" help:"Task name."`
	Time string `help:"Time anchor (HH:MM). Sets the category."`
}

func (c *TaskAddCmd) Run(ctx *cli.Context) error {
	task, err := daybook.NewTask(c.Name, c.Time)
	if err != nil {
		return err
	}
	task, err = cli.Retry(context.Background(), func(bg context.Context) (models.Task, error) {
		return ctx.Service.AddTask(bg, ctx.User, task)
	})
	if err != nil {
		return fmt.Errorf("failed to add task: %w", err)
	}
	fmt.Fprintf(ctx.Stdout(), "✓ Added task %q to %s (ID: %s)\n", task.Name, task.Category, task.ID)
	return nil
}

type TaskCycleCmd struct {
	ID   string `arg:"" help:"Task ID or unique prefix."`
	Date string `help:"Day the task belongs to (YYYY-MM-DD). Defaults to today."`
}

func (c *TaskCycleCmd) Run(ctx *cli.Context) error {
	date, id, err := resolveTask(ctx, c.Date, c.ID)
	if err != nil {
		return err
	}
	task, err := cli.Retry(context.Background(), func(bg context.Context) (models.Task, error) {
		return ctx.Service.CycleTask(bg, ctx.User, date, id)
	})
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}
	fmt.Fprintf(ctx.Stdout(), "✓ %s is now %s\n", task.Name, task.Status)
	return nil
}

type TaskRemoveCmd struct {
	ID   string `arg:"" help:"Task ID or unique prefix."`
	Date string `help:"Day to remove the task from (YYYY-MM-DD). Defaults to today."`
}

func (c *TaskRemoveCmd) Run(ctx *cli.Context) error {
	date, id, err := resolveTask(ctx, c.Date, c.ID)
	if err != nil {
		return err
	}
	err = cli.RetryErr(context.Background(), func(bg context.Context) error {
		return ctx.Service.RemoveTask(bg, ctx.User, date, id)
	})
	if err != nil {
		return fmt.Errorf("failed to remove task: %w", err)
	}
	fmt.Fprintf(ctx.Stdout(), "✓ Removed task %s from %s\n", id, date)
	return nil
}

// resolveTask defaults the date to today and expands an id prefix against
// that day's record.
func resolveTask(ctx *cli.Context, date, ref string) (string, string, error) {
	if date == "" {
		date = ctx.Service.Today()
	}
	rec, _, err := ctx.Service.Load(context.Background(), ctx.User, date)
	if err != nil {
		return "", "", err
	}
	if rec == nil {
		return date, ref, nil
	}
	id, err := cli.ResolveTaskID(rec, ref)
	return date, id, err
}
