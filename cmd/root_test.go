package cmd

import (
	"testing"
)

func TestSetVersion(t *testing.T) {
	testVersion := "1.2.3-test"
	SetVersion(testVersion)

	if rootCmd.Version != testVersion {
		t.Errorf("Expected version to be %s, got %s", testVersion, rootCmd.Version)
	}
}

func TestRootCommand(t *testing.T) {
	if rootCmd.Use != "rapsflow" {
		t.Errorf("Expected Use to be 'rapsflow', got %s", rootCmd.Use)
	}
	if rootCmd.Short == "" {
		t.Error("Expected Short description to be set")
	}
	if !rootCmd.SilenceUsage {
		t.Error("Expected SilenceUsage to be true")
	}
}

func TestSubcommands(t *testing.T) {
	commands := rootCmd.Commands()

	expectedCommands := []string{"version", "list", "validate", "run", "cleanup", "resources", "watch"}
	foundCommands := make(map[string]bool)
	for _, cmd := range commands {
		foundCommands[cmd.Name()] = true
	}

	for _, expected := range expectedCommands {
		if !foundCommands[expected] {
			t.Errorf("Expected subcommand %s to be registered", expected)
		}
	}
}

func TestGetExitCode(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"validation failure", &validationFailedError{msg: "bad"}, ExitCodeValidationFailed},
		{"prerequisite failure", &prerequisiteFailedError{msg: "bad"}, ExitCodePrerequisiteFailed},
	}
	for _, c := range cases {
		if got := getExitCode(c.err); got != c.want {
			t.Errorf("%s: expected exit code %d, got %d", c.name, c.want, got)
		}
	}
}
