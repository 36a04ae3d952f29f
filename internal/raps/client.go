package raps

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/dyemelianov/rapsflow/pkg/logging"
)

// execCommandContext is a package variable so tests can substitute a fake
// subprocess without touching PATH.
var execCommandContext = exec.CommandContext

// Config configures a Client.
type Config struct {
	// BinaryPath is the raps executable to invoke. Defaults to "raps".
	BinaryPath string
	// DefaultTimeout bounds a single command when Execute is called with a
	// non-positive timeout.
	DefaultTimeout time.Duration
	// ParseJSONOutput requests --output json and attempts to parse stdout.
	ParseJSONOutput bool
	// Environment is merged into the subprocess environment.
	Environment map[string]string
}

// DefaultConfig mirrors the external CLI's own defaults.
func DefaultConfig() Config {
	return Config{
		BinaryPath:      "raps",
		DefaultTimeout:  300 * time.Second,
		ParseJSONOutput: true,
		Environment:     map[string]string{},
	}
}

// Result is the outcome of one subprocess invocation.
type Result struct {
	ExitCode   int
	Stdout     string
	Stderr     string
	Duration   time.Duration
	ParsedJSON map[string]any
	Success    bool
}

// ErrorMessage renders a human-readable summary of a failed Result, or ""
// when the command succeeded.
func (r Result) ErrorMessage() string {
	if r.Success {
		return ""
	}
	msg := fmt.Sprintf("raps command failed with exit code %d", r.ExitCode)
	if r.Stderr != "" {
		msg += "\nError output: " + r.Stderr
	}
	if r.Stdout != "" {
		msg += "\nStandard output: " + r.Stdout
	}
	return msg
}

func newResult(exitCode int, stdout, stderr string, duration time.Duration) Result {
	r := Result{ExitCode: exitCode, Stdout: stdout, Stderr: stderr, Duration: duration, Success: exitCode == 0}
	if r.Success && strings.TrimSpace(stdout) != "" {
		var parsed map[string]any
		if err := json.Unmarshal([]byte(stdout), &parsed); err == nil {
			r.ParsedJSON = parsed
		}
		// parse failure is not an error: parsed_json simply stays absent.
	}
	return r
}

// Client executes Commands against the configured raps binary.
type Client struct {
	cfg Config
}

// NewClient constructs a Client with the given configuration.
func NewClient(cfg Config) *Client {
	if cfg.BinaryPath == "" {
		cfg.BinaryPath = "raps"
	}
	if cfg.DefaultTimeout <= 0 {
		cfg.DefaultTimeout = 300 * time.Second
	}
	return &Client{cfg: cfg}
}

// Execute runs cmd as a subprocess under the given timeout, returning once
// the process exits, the deadline passes, or spawning fails. A timeout is a
// distinct failure mode from a non-zero exit: both leave Success false, but
// a timeout never returns a Result with a real ExitCode.
func (c *Client) Execute(ctx context.Context, cmd Command, timeout time.Duration, env map[string]string) (Result, error) {
	if timeout <= 0 {
		timeout = c.cfg.DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	args := BuildArgs(cmd, c.cfg.ParseJSONOutput)
	logging.Debug("raps", "executing: %s %s", c.cfg.BinaryPath, strings.Join(args, " "))

	execCmd := execCommandContext(ctx, c.cfg.BinaryPath, args...)
	execCmd.Env = mergedEnv(c.cfg.Environment, env)

	var stdout, stderr strings.Builder
	execCmd.Stdout = &stdout
	execCmd.Stderr = &stderr

	start := time.Now()
	runErr := execCmd.Run()
	duration := time.Since(start)

	if ctx.Err() == context.DeadlineExceeded {
		return Result{Duration: duration}, fmt.Errorf("raps command timed out after %s", timeout)
	}

	if runErr != nil {
		var exitErr *exec.ExitError
		if !isExitError(runErr, &exitErr) {
			return Result{Duration: duration}, fmt.Errorf("failed to execute raps CLI %q: %w", c.cfg.BinaryPath, runErr)
		}
	}

	result := newResult(execCmd.ProcessState.ExitCode(), stdout.String(), stderr.String(), duration)
	if result.Success {
		logging.Debug("raps", "command completed in %s", duration)
	} else {
		logging.Warn("raps", "command failed: %s", result.ErrorMessage())
	}
	return result, nil
}

func isExitError(err error, target **exec.ExitError) bool {
	ee, ok := err.(*exec.ExitError)
	if ok {
		*target = ee
	}
	return ok
}

func mergedEnv(base, extra map[string]string) []string {
	merged := map[string]string{}
	for _, kv := range os.Environ() {
		if i := strings.IndexByte(kv, '='); i >= 0 {
			merged[kv[:i]] = kv[i+1:]
		}
	}
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range extra {
		merged[k] = v
	}
	out := make([]string, 0, len(merged))
	for k, v := range merged {
		out = append(out, k+"="+v)
	}
	return out
}

// ValidateCLI runs "--version" and fails unless the binary is present and
// exits successfully. Required before any workflow is allowed to execute.
func (c *Client) ValidateCLI(ctx context.Context) error {
	result, err := c.Execute(ctx, CustomCommand("--version"), 10*time.Second, nil)
	if err != nil {
		return fmt.Errorf("raps CLI validation failed: %w", err)
	}
	if !result.Success {
		return fmt.Errorf("raps CLI validation failed: %s", result.ErrorMessage())
	}
	return nil
}

// CheckAuthStatus reports whether the user is currently authenticated.
func (c *Client) CheckAuthStatus(ctx context.Context) (bool, error) {
	result, err := c.Execute(ctx, AuthCommand(AuthStatus), 10*time.Second, nil)
	if err != nil {
		return false, err
	}
	return result.Success, nil
}
