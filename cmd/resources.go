package cmd

import (
	"fmt"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/dyemelianov/rapsflow/internal/resource"
)

func newResourcesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resources",
		Short: "List resources tracked in the ledger",
		RunE:  runResources,
	}
	cmd.Flags().String("workflow", "", "restrict to a single workflow id")
	return cmd
}

func runResources(cmd *cobra.Command, args []string) error {
	app, err := newAppContext(cmd)
	if err != nil {
		return err
	}

	workflowID, _ := cmd.Flags().GetString("workflow")

	var resources []resource.Tracked
	if workflowID != "" {
		resources = app.ledger.ResourcesFor(workflowID)
	} else {
		resources = app.ledger.AllResources()
	}

	out := cmd.OutOrStdout()
	if len(resources) == 0 {
		fmt.Fprintf(out, "%s\n", text.Colors{text.FgHiYellow, text.Bold}.Sprint("No tracked resources"))
		return nil
	}

	sort.Slice(resources, func(i, j int) bool { return resources[i].CreatedAt.Before(resources[j].CreatedAt) })

	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{
		text.Colors{text.FgHiBlue, text.Bold}.Sprint("ID"),
		text.Colors{text.FgHiBlue, text.Bold}.Sprint("KIND"),
		text.Colors{text.FgHiBlue, text.Bold}.Sprint("NAME"),
		text.Colors{text.FgHiBlue, text.Bold}.Sprint("WORKFLOW"),
		text.Colors{text.FgHiBlue, text.Bold}.Sprint("AGE"),
		text.Colors{text.FgHiBlue, text.Bold}.Sprint("EST. COST/MO"),
	})

	var totalCost float64
	for _, r := range resources {
		cost := r.EstimatedMonthlyCost()
		totalCost += cost
		t.AppendRow(table.Row{
			text.Colors{text.FgHiCyan, text.Bold}.Sprint(r.ID),
			string(r.Kind),
			r.Name,
			r.WorkflowID,
			r.Age().Round(1e9),
			fmt.Sprintf("$%.3f", cost),
		})
	}

	t.Render()
	fmt.Fprintf(out, "\n%s %s %s %s $%.2f\n",
		text.Colors{text.FgHiMagenta, text.Bold}.Sprint("▶"),
		text.FgHiBlue.Sprint("Total:"),
		text.Bold.Sprint(len(resources)),
		text.FgHiBlue.Sprint("resources, est. monthly cost"),
		totalCost)
	return nil
}
