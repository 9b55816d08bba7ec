package tasks

import (
	"context"
	"fmt"

	"github.com/gosuri/uitable"

	"github.com/julianstephens/daybook/internal/cli"
)

type TemplateShowCmd struct{}

func (c *TemplateShowCmd) Run(ctx *cli.Context) error {
	tpl, err := ctx.Store.GetTemplate(context.Background(), ctx.User)
	if err != nil {
		return fmt.Errorf("failed to load template: %w", err)
	}
	if tpl == nil || len(tpl.Tasks) == 0 {
		fmt.Fprintln(ctx.Stdout(), "No template yet. Tasks added with 'daybook task add' become the template.")
		return nil
	}

	fmt.Fprintf(ctx.Stdout(), "Template (updated %s):\n\n", tpl.UpdatedAt.Local().Format("2006-01-02 15:04"))
	tbl := uitable.New()
	tbl.AddRow("ID", "NAME", "TIME", "CATEGORY")
	for _, t := range tpl.Tasks {
		tbl.AddRow(t.ID, t.Name, t.Time, t.Category)
	}
	fmt.Fprintln(ctx.Stdout(), tbl)
	return nil
}
