package days

import (
	"context"
	"fmt"

	"github.com/gosuri/uitable"

	"github.com/julianstephens/daybook/internal/cli"
	"github.com/julianstephens/daybook/internal/models"
)

type HistoryCmd struct {
	Limit  int    `short:"n" default:"7" help:"Number of days to show."`
	Before string `help:"Show days strictly before this date (YYYY-MM-DD). Defaults to including today."`
}

func (c *HistoryCmd) Run(ctx *cli.Context) error {
	records, err := cli.Retry(context.Background(), func(bg context.Context) ([]models.DayRecord, error) {
		return ctx.Service.History(bg, ctx.User, c.Before, c.Limit)
	})
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}

	if len(records) == 0 {
		fmt.Fprintln(ctx.Stdout(), "No history yet.")
		return nil
	}

	tbl := uitable.New()
	tbl.MaxColWidth = 40
	tbl.AddRow("DATE", "STATE", "DONE", "MISSED", "HABITS", "UNLOCKS")
	for _, rec := range records {
		state, err := ctx.Service.EvaluateLockState(rec.DateKey, &rec)
		if err != nil {
			return err
		}
		done, missed := taskCounts(rec)
		tbl.AddRow(
			rec.DateKey,
			string(state),
			fmt.Sprintf("%d/%d", done, len(rec.Tasks)),
			missed,
			habitSummary(rec),
			len(rec.UnlockHistory),
		)
	}
	fmt.Fprintln(ctx.Stdout(), tbl)
	return nil
}

func taskCounts(rec models.DayRecord) (done, missed int) {
	for _, t := range rec.Tasks {
		switch t.Status {
		case models.TaskChecked:
			done++
		case models.TaskMissed:
			missed++
		}
	}
	return done, missed
}

// habitSummary counts toggles that are on and number habits above zero.
func habitSummary(rec models.DayRecord) string {
	active := 0
	for _, h := range rec.Habits {
		switch v := h.Value.(type) {
		case bool:
			if v {
				active++
			}
		case float64:
			if v > 0 {
				active++
			}
		}
	}
	return fmt.Sprintf("%d/%d", active, len(rec.Habits))
}
