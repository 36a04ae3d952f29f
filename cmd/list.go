package cmd

import (
	"fmt"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	rstrings "github.com/dyemelianov/rapsflow/pkg/strings"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List discovered workflows",
		RunE:  runList,
	}
}

func runList(cmd *cobra.Command, args []string) error {
	app, err := newAppContext(cmd)
	if err != nil {
		return err
	}

	metas := app.discovery.All()
	if len(metas) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "%s\n", text.Colors{text.FgHiYellow, text.Bold}.Sprint("No workflows found"))
		return nil
	}

	sort.Slice(metas, func(i, j int) bool { return metas[i].ID < metas[j].ID })

	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{
		text.Colors{text.FgHiBlue, text.Bold}.Sprint("ID"),
		text.Colors{text.FgHiBlue, text.Bold}.Sprint("NAME"),
		text.Colors{text.FgHiBlue, text.Bold}.Sprint("CATEGORY"),
		text.Colors{text.FgHiBlue, text.Bold}.Sprint("DESCRIPTION"),
	})

	for _, m := range metas {
		t.AppendRow(table.Row{
			text.Colors{text.FgHiCyan, text.Bold}.Sprint(m.ID),
			m.Name,
			string(m.Category),
			rstrings.TruncateDescription(m.Description, rstrings.DefaultDescriptionMaxLen),
		})
	}

	t.Render()
	fmt.Fprintf(cmd.OutOrStdout(), "\n%s %s %s %s\n",
		text.Colors{text.FgHiMagenta, text.Bold}.Sprint("▶"),
		text.FgHiBlue.Sprint("Total:"),
		text.Bold.Sprint(len(metas)),
		text.FgHiBlue.Sprint("workflows"))
	return nil
}
