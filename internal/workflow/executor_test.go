package workflow

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dyemelianov/rapsflow/internal/raps"
)

type fakeInvoker struct {
	authenticated bool
	cliOK         bool
	results       map[string]raps.Result // keyed by command kind/action
	commands      []raps.Command         // every command passed to Execute, in order
}

func (f *fakeInvoker) ValidateCLI(ctx context.Context) error {
	if f.cliOK {
		return nil
	}
	return fmt.Errorf("raps binary not found")
}

func (f *fakeInvoker) CheckAuthStatus(ctx context.Context) (bool, error) {
	return f.authenticated, nil
}

func (f *fakeInvoker) Execute(ctx context.Context, cmd raps.Command, timeout time.Duration, env map[string]string) (raps.Result, error) {
	f.commands = append(f.commands, cmd)
	key := string(cmd.Kind) + ":" + cmd.Action
	if res, ok := f.results[key]; ok {
		return res, nil
	}
	return raps.Result{Success: true, ExitCode: 0}, nil
}

func waitForStatus(t *testing.T, exec *Executor, handle ExecutionHandle, want Status, timeout time.Duration) Progress {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		p, err := exec.Progress(handle)
		require.NoError(t, err)
		if p.Status == want {
			return p
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for status %s", want)
	return Progress{}
}

func minimalDefinition() Definition {
	return Definition{
		Metadata: Metadata{ID: "wf", Name: "Workflow"},
		Steps: []Step{
			{ID: "s1", Name: "step one", Command: raps.BucketCommand(raps.BucketCreate, "b", nil)},
		},
	}
}

func TestExecutor_PrerequisiteGateEnumeratesAllFailures(t *testing.T) {
	invoker := &fakeInvoker{authenticated: false, cliOK: false}
	exec := NewExecutor(invoker)

	def := minimalDefinition()
	def.Metadata.RequiredAssets = []string{"/does/not/exist"}

	_, err := exec.Execute(context.Background(), def, DefaultOptions())
	require.Error(t, err)

	var prereqErr *PrerequisiteError
	require.ErrorAs(t, err, &prereqErr)
	assert.Len(t, prereqErr.Failures, 3)
}

func TestExecutor_NonInteractiveRunCompletes(t *testing.T) {
	invoker := &fakeInvoker{authenticated: true, cliOK: true}
	exec := NewExecutor(invoker)

	opts := DefaultOptions()
	opts.Interactive = false

	handle, err := exec.Execute(context.Background(), minimalDefinition(), opts)
	require.NoError(t, err)

	waitForStatus(t, exec, handle, StatusCompleted, time.Second)
}

func TestExecutor_InteractivePausesAfterFirstStep(t *testing.T) {
	invoker := &fakeInvoker{authenticated: true, cliOK: true}
	exec := NewExecutor(invoker)

	def := minimalDefinition()
	def.Steps = append(def.Steps, Step{ID: "s2", Name: "step two", Command: raps.BucketCommand(raps.BucketDelete, "b", nil)})

	opts := DefaultOptions()
	opts.Interactive = true

	handle, err := exec.Execute(context.Background(), def, opts)
	require.NoError(t, err)

	waitForStatus(t, exec, handle, StatusPaused, time.Second)

	require.NoError(t, exec.Resume(handle))
	waitForStatus(t, exec, handle, StatusCompleted, time.Second)
}

func TestExecutor_StepFailureTransitionsToFailed(t *testing.T) {
	invoker := &fakeInvoker{
		authenticated: true,
		cliOK:         true,
		results: map[string]raps.Result{
			"bucket:create": {Success: false, ExitCode: 1, Stderr: "bucket already exists"},
		},
	}
	exec := NewExecutor(invoker)

	opts := DefaultOptions()
	opts.Interactive = false

	handle, err := exec.Execute(context.Background(), minimalDefinition(), opts)
	require.NoError(t, err)

	waitForStatus(t, exec, handle, StatusFailed, time.Second)
}

func TestExecutor_PlaceholderFlowsBetweenSteps(t *testing.T) {
	invoker := &fakeInvoker{
		authenticated: true,
		cliOK:         true,
		results: map[string]raps.Result{
			"translate:start": {Success: true, ExitCode: 0, ParsedJSON: map[string]any{"urn": "u-123"}},
		},
	}
	exec := NewExecutor(invoker)

	def := Definition{
		Metadata: Metadata{ID: "wf", Name: "Workflow"},
		Steps: []Step{
			{ID: "step1", Name: "translate", Command: raps.TranslateCommand(raps.TranslateStart, map[string]any{"urn": "placeholder"})},
			{ID: "step2", Name: "status", Command: raps.TranslateCommand(raps.TranslateStatus, map[string]any{"urn": "{urn}"})},
		},
	}
	opts := DefaultOptions()
	opts.Interactive = false

	handle, err := exec.Execute(context.Background(), def, opts)
	require.NoError(t, err)
	waitForStatus(t, exec, handle, StatusCompleted, time.Second)

	require.Len(t, invoker.commands, 2)
	assert.Equal(t, "u-123", invoker.commands[1].Params["urn"])
}

func TestExecutor_CancelStopsBeforeNextStep(t *testing.T) {
	invoker := &fakeInvoker{authenticated: true, cliOK: true}
	exec := NewExecutor(invoker)

	def := minimalDefinition()
	def.Steps = append(def.Steps, Step{ID: "s2", Name: "step two", Command: raps.BucketCommand(raps.BucketDelete, "b", nil)})

	opts := DefaultOptions()
	opts.Interactive = true

	handle, err := exec.Execute(context.Background(), def, opts)
	require.NoError(t, err)
	waitForStatus(t, exec, handle, StatusPaused, time.Second)

	require.NoError(t, exec.Cancel(handle))
	require.NoError(t, exec.Resume(handle))
	waitForStatus(t, exec, handle, StatusCancelled, time.Second)
}

func TestExecutor_EventSequenceMatchesCausalOrder(t *testing.T) {
	invoker := &fakeInvoker{authenticated: true, cliOK: true}
	exec := NewExecutor(invoker)

	opts := DefaultOptions()
	opts.Interactive = false

	handle, err := exec.Execute(context.Background(), minimalDefinition(), opts)
	require.NoError(t, err)

	events, err := exec.Events(handle)
	require.NoError(t, err)

	var kinds []EventKind
	for ev := range events {
		kinds = append(kinds, ev.Kind)
	}

	require.NotEmpty(t, kinds)
	assert.Equal(t, EventStarted, kinds[0])
	assert.Equal(t, EventCompleted, kinds[len(kinds)-1])
}

func TestRecoverySuggestions_MatchesErrorTable(t *testing.T) {
	assert.Contains(t, RecoverySuggestions(raps.KindAuth, "invalid credentials"), "re-login")
	assert.Contains(t, RecoverySuggestions(raps.KindBucket, "bucket already exists"), "choose a different name")
	assert.Contains(t, RecoverySuggestions(raps.KindBucket, "permission denied"), "grant OSS scope")
	assert.Contains(t, RecoverySuggestions(raps.KindObject, "object not found"), "verify bucket and key")
	assert.Contains(t, RecoverySuggestions(raps.KindTranslate, "invalid urn"), "verify URN / supported format")
	assert.Contains(t, RecoverySuggestions(raps.KindBucket, "network timeout occurred"), "check connectivity")
}
