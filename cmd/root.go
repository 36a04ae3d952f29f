package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// Exit codes for CLI commands.
const (
	// ExitCodeSuccess indicates successful execution.
	ExitCodeSuccess = 0
	// ExitCodeError indicates a general error (command failed, invalid arguments).
	ExitCodeError = 1
	// ExitCodeValidationFailed indicates a workflow failed validation.
	ExitCodeValidationFailed = 2
	// ExitCodePrerequisiteFailed indicates the raps CLI or auth prerequisites were not met.
	ExitCodePrerequisiteFailed = 3
)

// rootCmd represents the base command for the rapsflow application. It is
// the entry point when the application is called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "rapsflow",
	Short: "Discover, validate, and run interactive RAPS demonstration workflows",
	Long: `rapsflow discovers declarative workflow scripts, validates their
prerequisites, executes them as sequences of raps CLI invocations, tracks
every resource they create, and orchestrates cleanup.`,
	// SilenceUsage prevents Cobra from printing the usage message on errors
	// that are handled by the application.
	SilenceUsage: true,
}

// SetVersion sets the version for the root command. Called from main to
// inject the application version at build time.
func SetVersion(v string) {
	rootCmd.Version = v
}

// GetVersion returns the current version of the application.
func GetVersion() string {
	return rootCmd.Version
}

// Execute is the main entry point for the CLI application.
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "rapsflow version %s\n" .Version}}`)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(getExitCode(err))
	}
}

// getExitCode determines the appropriate exit code based on the error type.
func getExitCode(err error) int {
	switch err.(type) {
	case *validationFailedError:
		return ExitCodeValidationFailed
	case *prerequisiteFailedError:
		return ExitCodePrerequisiteFailed
	default:
		return ExitCodeError
	}
}

func init() {
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newListCmd())
	rootCmd.AddCommand(newValidateCmd())
	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newCleanupCmd())
	rootCmd.AddCommand(newResourcesCmd())
	rootCmd.AddCommand(newWatchCmd())

	rootCmd.PersistentFlags().String("workflow-dir", "", "directory to discover workflow definitions from (default: config workflow_dir)")
	rootCmd.PersistentFlags().String("config-dir", "", "directory containing config.yaml (default: ~/.config/rapsflow)")
}
