package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/chzyer/readline"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/dyemelianov/rapsflow/internal/cleanup"
	"github.com/dyemelianov/rapsflow/internal/resource"
)

func newCleanupCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "cleanup <workflow-id>",
		Short: "Clean up resources a workflow run left behind",
		Args:  cobra.ExactArgs(1),
		RunE:  runCleanup,
	}
	root.Flags().String("mode", string(cleanup.ModeAutomatic), "automatic|manual|interactive|dry-run")
	root.Flags().String("strategy", string(cleanup.StrategyImmediate), "immediate|age-based|cost-based")
	root.Flags().Duration("max-age", time.Hour, "minimum resource age to clean up (age-based strategy)")
	root.Flags().Float64("cost-threshold", 0, "remaining cost ceiling in USD (cost-based strategy)")

	root.AddCommand(newCleanupRecoverCmd())
	return root
}

func runCleanup(cmd *cobra.Command, args []string) error {
	app, err := newAppContext(cmd)
	if err != nil {
		return err
	}

	workflowID := args[0]
	mode := cleanup.Mode(mustFlagString(cmd, "mode"))
	strategyKind := cleanup.StrategyKind(mustFlagString(cmd, "strategy"))
	maxAge, _ := cmd.Flags().GetDuration("max-age")
	costThreshold, _ := cmd.Flags().GetFloat64("cost-threshold")

	out := cmd.OutOrStdout()
	orch := cleanup.NewOrchestrator(app.ledger, func(r resource.Tracked) bool {
		return promptConfirmResource(out, r)
	})

	strategy := cleanup.Strategy{Kind: strategyKind, MaxAge: maxAge, CostThreshold: costThreshold}
	orch.SetStrategy(workflowID, strategy)

	result, err := orch.CleanupWorkflow(cmd.Context(), workflowID, mode)
	if err != nil {
		return fmt.Errorf("cleanup %s: %w", workflowID, err)
	}

	printCleanupResult(out, result)
	return nil
}

func newCleanupRecoverCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "recover",
		Short: "List workflows interrupted mid-run with outstanding resources",
		RunE:  runCleanupRecover,
	}
}

// runCleanupRecover treats any workflow that still owns tracked resources as
// a candidate recovery: the CLI has no separate record of "interrupted" runs
// across process invocations, so leftover resources in the ledger are the
// observable signal that a run never reached its own cleanup step.
func runCleanupRecover(cmd *cobra.Command, args []string) error {
	app, err := newAppContext(cmd)
	if err != nil {
		return err
	}

	byWorkflow := map[string][]resource.Tracked{}
	for _, r := range app.ledger.AllResources() {
		byWorkflow[r.WorkflowID] = append(byWorkflow[r.WorkflowID], r)
	}

	out := cmd.OutOrStdout()
	if len(byWorkflow) == 0 {
		fmt.Fprintf(out, "%s\n", text.Colors{text.FgHiGreen, text.Bold}.Sprint("No interrupted workflows"))
		return nil
	}

	orch := cleanup.NewOrchestrator(app.ledger, nil)
	for workflowID, resources := range byWorkflow {
		oldest := resources[0].CreatedAt
		for _, r := range resources[1:] {
			if r.CreatedAt.Before(oldest) {
				oldest = r.CreatedAt
			}
		}
		record := orch.HandleInterruptedWorkflow(workflowID, oldest)
		fmt.Fprintf(out, "%s %s (%d resources outstanding)\n",
			text.Colors{text.FgHiYellow, text.Bold}.Sprint("⚠"), record.WorkflowID, len(record.CreatedResourceIDs))
		for _, instr := range record.HumanInstructions {
			fmt.Fprintf(out, "  - %s\n", instr)
		}
	}
	return nil
}

func printCleanupResult(out io.Writer, result cleanup.Result) {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{
		text.Colors{text.FgHiBlue, text.Bold}.Sprint("RESOURCE ID"),
		text.Colors{text.FgHiBlue, text.Bold}.Sprint("OUTCOME"),
	})
	for _, id := range result.CleanedIDs {
		t.AppendRow(table.Row{id, text.Colors{text.FgHiGreen, text.Bold}.Sprint("cleaned")})
	}
	for id, reason := range result.FailedIDsWithErr {
		t.AppendRow(table.Row{id, text.Colors{text.FgHiRed, text.Bold}.Sprintf("skipped: %s", reason)})
	}
	fmt.Fprintln(out, t.Render())
	fmt.Fprintf(out, "%s mode=%s cleaned=%d duration=%s\n",
		text.Colors{text.FgHiMagenta, text.Bold}.Sprint("▶"), result.Mode, len(result.CleanedIDs), result.Duration)
}

func promptConfirmResource(out io.Writer, r resource.Tracked) bool {
	rl, err := readline.New(fmt.Sprintf("Clean up %s %q? [y/N] ", r.Kind, r.Name))
	if err != nil {
		return false
	}
	defer rl.Close()

	line, err := rl.Readline()
	if err != nil {
		return false
	}
	return line == "y" || line == "Y" || line == "yes"
}

func mustFlagString(cmd *cobra.Command, name string) string {
	v, _ := cmd.Flags().GetString(name)
	return v
}
