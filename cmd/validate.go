package cmd

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <workflow-id>",
		Short: "Validate a discovered workflow's structural invariants",
		Args:  cobra.ExactArgs(1),
		RunE:  runValidate,
	}
}

func runValidate(cmd *cobra.Command, args []string) error {
	app, err := newAppContext(cmd)
	if err != nil {
		return err
	}

	id := args[0]
	result, err := app.discovery.Validate(id)
	if err != nil {
		return fmt.Errorf("validate %s: %w", id, err)
	}

	out := cmd.OutOrStdout()
	for _, w := range result.Warnings {
		fmt.Fprintf(out, "%s %s\n", text.Colors{text.FgHiYellow, text.Bold}.Sprint("warning:"), w)
	}
	for _, e := range result.Errors {
		fmt.Fprintf(out, "%s %s\n", text.Colors{text.FgHiRed, text.Bold}.Sprint("error:"), e)
	}

	if !result.Valid {
		fmt.Fprintf(out, "%s %s\n", text.Colors{text.FgHiRed, text.Bold}.Sprint("✗"), id)
		return &validationFailedError{msg: fmt.Sprintf("workflow %q failed validation", id)}
	}

	fmt.Fprintf(out, "%s %s is valid\n", text.Colors{text.FgHiGreen, text.Bold}.Sprint("✓"), id)
	return nil
}
