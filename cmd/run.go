package cmd

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/chzyer/readline"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/dyemelianov/rapsflow/internal/cleanup"
	"github.com/dyemelianov/rapsflow/internal/workflow"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <workflow-id>",
		Short: "Execute a workflow step by step",
		Args:  cobra.ExactArgs(1),
		RunE:  runRun,
	}
	cmd.Flags().Bool("interactive", true, "pause for confirmation between steps")
	cmd.Flags().Bool("auto-cleanup", true, "clean up tracked resources automatically on completion")
	cmd.Flags().Duration("timeout", 30*time.Minute, "overall run timeout")
	return cmd
}

func runRun(cmd *cobra.Command, args []string) error {
	app, err := newAppContext(cmd)
	if err != nil {
		return err
	}

	id := args[0]
	def, ok := app.discovery.Get(id)
	if !ok {
		return fmt.Errorf("workflow %q not found", id)
	}
	if result, verr := app.discovery.Validate(id); verr == nil && !result.Valid {
		return &validationFailedError{msg: fmt.Sprintf("workflow %q failed validation: %s", id, strings.Join(result.Errors, "; "))}
	}

	interactive, _ := cmd.Flags().GetBool("interactive")
	autoCleanup, _ := cmd.Flags().GetBool("auto-cleanup")
	timeout, _ := cmd.Flags().GetDuration("timeout")

	opts := workflow.DefaultOptions()
	opts.Interactive = interactive
	opts.AutoCleanup = autoCleanup
	opts.Timeout = timeout

	executor := workflow.NewExecutor(app.client)

	handle, err := executor.Execute(cmd.Context(), def, opts)
	if err != nil {
		var prereqErr *workflow.PrerequisiteError
		if isPrerequisiteError(err, &prereqErr) {
			return &prerequisiteFailedError{msg: err.Error()}
		}
		return err
	}

	events, err := executor.Events(handle)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	sp := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	sp.Writer = out

	var runErr error
	for ev := range events {
		switch ev.Kind {
		case workflow.EventStarted:
			fmt.Fprintf(out, "%s %s\n", text.Colors{text.FgHiBlue, text.Bold}.Sprint("▶"), def.Metadata.Name)
		case workflow.EventStepStarted:
			sp.Suffix = " " + ev.StepID
			sp.Start()
		case workflow.EventStepCompleted:
			sp.Stop()
			fmt.Fprintf(out, "%s %s\n", text.Colors{text.FgHiGreen, text.Bold}.Sprint("✓"), ev.StepID)
		case workflow.EventPaused:
			sp.Stop()
			if !promptContinue(out) {
				fmt.Fprintf(out, "%s run stopped; the remaining steps were not run\n", text.Colors{text.FgHiYellow, text.Bold}.Sprint("⏸"))
				return nil
			}
			if rerr := executor.Resume(handle); rerr != nil {
				runErr = rerr
			}
		case workflow.EventCompleted:
			sp.Stop()
			fmt.Fprintf(out, "%s workflow completed\n", text.Colors{text.FgHiGreen, text.Bold}.Sprint("✓"))
		case workflow.EventFailed:
			sp.Stop()
			fmt.Fprintf(out, "%s workflow failed: %v\n", text.Colors{text.FgHiRed, text.Bold}.Sprint("✗"), ev.Err)
			runErr = ev.Err
		case workflow.EventCancelled:
			sp.Stop()
			fmt.Fprintf(out, "%s workflow cancelled\n", text.Colors{text.FgHiYellow, text.Bold}.Sprint("⊘"))
		}
	}
	if runErr != nil {
		return runErr
	}

	if autoCleanup {
		orch := cleanup.NewOrchestrator(app.ledger, nil)
		if _, cerr := orch.CleanupWorkflow(cmd.Context(), id, cleanup.ModeAutomatic); cerr != nil {
			fmt.Fprintf(out, "%s cleanup failed: %v\n", text.Colors{text.FgHiYellow, text.Bold}.Sprint("warning:"), cerr)
		}
	}
	return nil
}

func isPrerequisiteError(err error, target **workflow.PrerequisiteError) bool {
	pe, ok := err.(*workflow.PrerequisiteError)
	if ok {
		*target = pe
	}
	return ok
}

// promptContinue reads a yes/no confirmation from the terminal; a blank
// line or "y"/"yes" (case-insensitive) continues the run.
func promptContinue(w io.Writer) bool {
	rl, err := readline.New("Continue to next step? [Y/n] ")
	if err != nil {
		fmt.Fprintf(w, "unable to read confirmation, stopping: %v\n", err)
		return false
	}
	defer rl.Close()

	line, err := rl.Readline()
	if err != nil {
		return false
	}
	line = strings.ToLower(strings.TrimSpace(line))
	return line == "" || line == "y" || line == "yes"
}
