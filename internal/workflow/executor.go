package workflow

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/dyemelianov/rapsflow/internal/raps"
	"github.com/dyemelianov/rapsflow/pkg/logging"
)

// Invoker is the subset of internal/raps.Client the executor depends on.
type Invoker interface {
	Execute(ctx context.Context, cmd raps.Command, timeout time.Duration, env map[string]string) (raps.Result, error)
	ValidateCLI(ctx context.Context) error
	CheckAuthStatus(ctx context.Context) (bool, error)
}

// ExecutionHandle identifies one workflow run.
type ExecutionHandle struct {
	RunID      uuid.UUID
	WorkflowID string
}

// Progress is a point-in-time snapshot of a run.
type Progress struct {
	Status          Status
	CurrentStepID   string
	CompletedSteps  int
	TotalSteps      int
	ProgressPercent float64
	EstRemaining    *time.Duration
}

// PrerequisiteError enumerates every failed prerequisite check at once,
// per spec.md §4.D.
type PrerequisiteError struct {
	Failures []string
}

func (e *PrerequisiteError) Error() string {
	return fmt.Sprintf("prerequisites not met: %s", strings.Join(e.Failures, "; "))
}

// runState is one run's mutable execution state, guarded by mu.
type runState struct {
	mu sync.Mutex

	def     Definition
	options Options

	status        Status
	stepIndex     int
	completed     []StepResult
	createdIDs    []string
	startTime     time.Time
	stepDurations []time.Duration
	placeholders  map[string]string

	broker *broker
	cancel bool
}

func newRunState(def Definition, opts Options, runID uuid.UUID) *runState {
	now := time.Now().UTC()
	return &runState{
		def:       def,
		options:   opts,
		status:    StatusPending,
		startTime: now,
		placeholders: map[string]string{
			"uuid":      runID.String(),
			"timestamp": strconv.FormatInt(now.Unix(), 10),
		},
		broker: newBroker(),
	}
}

// Executor drives workflow definitions through their steps (spec.md §4.D).
type Executor struct {
	invoker Invoker

	mu   sync.Mutex
	runs map[uuid.UUID]*runState
}

// NewExecutor constructs an Executor bound to invoker.
func NewExecutor(invoker Invoker) *Executor {
	return &Executor{invoker: invoker, runs: map[uuid.UUID]*runState{}}
}

// CheckPrerequisites runs the CLI-version, auth-status, and required-asset
// checks concurrently and reports every failure at once rather than the
// first (spec.md §4.D).
func (e *Executor) CheckPrerequisites(ctx context.Context, def Definition) error {
	var (
		mu       sync.Mutex
		failures []string
	)
	record := func(msg string) {
		mu.Lock()
		failures = append(failures, msg)
		mu.Unlock()
	}

	var g errgroup.Group
	g.Go(func() error {
		if err := e.invoker.ValidateCLI(ctx); err != nil {
			record(fmt.Sprintf("raps CLI unavailable: %v", err))
		}
		return nil
	})
	g.Go(func() error {
		authenticated, err := e.invoker.CheckAuthStatus(ctx)
		if err != nil || !authenticated {
			record("not authenticated: run raps auth login")
		}
		return nil
	})
	for _, asset := range def.Metadata.RequiredAssets {
		asset := asset
		g.Go(func() error {
			if _, err := os.Stat(asset); err != nil {
				record(fmt.Sprintf("required asset missing: %s", asset))
			}
			return nil
		})
	}
	_ = g.Wait()

	if len(failures) == 0 {
		return nil
	}
	sort.Strings(failures)
	return &PrerequisiteError{Failures: failures}
}

// Execute checks prerequisites, then starts a background run and returns a
// handle immediately. Prerequisite failure aborts before any execution
// state is created.
func (e *Executor) Execute(ctx context.Context, def Definition, opts Options) (ExecutionHandle, error) {
	if err := e.CheckPrerequisites(ctx, def); err != nil {
		return ExecutionHandle{}, err
	}

	handle := ExecutionHandle{RunID: uuid.New(), WorkflowID: def.Metadata.ID}
	state := newRunState(def, opts, handle.RunID)

	e.mu.Lock()
	e.runs[handle.RunID] = state
	e.mu.Unlock()

	state.mu.Lock()
	state.status = StatusRunning
	state.mu.Unlock()
	state.broker.publish(Event{Kind: EventStarted, Handle: handle, At: time.Now().UTC()})

	go e.runLoop(handle, state)
	return handle, nil
}

// Progress reports a snapshot of handle's current state.
func (e *Executor) Progress(handle ExecutionHandle) (Progress, error) {
	state, err := e.stateFor(handle)
	if err != nil {
		return Progress{}, err
	}

	state.mu.Lock()
	defer state.mu.Unlock()

	total := len(state.def.Steps)
	p := Progress{
		Status:         state.status,
		CompletedSteps: len(state.completed),
		TotalSteps:     total,
	}
	if total > 0 {
		p.ProgressPercent = float64(p.CompletedSteps) / float64(total)
	}
	if state.stepIndex < total {
		p.CurrentStepID = state.def.Steps[state.stepIndex].ID
	}
	if len(state.stepDurations) > 0 {
		var sum time.Duration
		for _, d := range state.stepDurations {
			sum += d
		}
		avg := sum / time.Duration(len(state.stepDurations))
		remaining := avg * time.Duration(total-p.CompletedSteps)
		p.EstRemaining = &remaining
	}
	return p, nil
}

// Cancel requests handle's run stop at the next scheduling point; the
// in-flight step, if any, is allowed to finish but its result is discarded.
func (e *Executor) Cancel(handle ExecutionHandle) error {
	state, err := e.stateFor(handle)
	if err != nil {
		return err
	}
	state.mu.Lock()
	defer state.mu.Unlock()
	if isTerminal(state.status) {
		return nil
	}
	state.cancel = true
	return nil
}

// Resume continues a paused run from its next step, spawning a fresh
// background task that inherits the same state under the lock.
func (e *Executor) Resume(handle ExecutionHandle) error {
	state, err := e.stateFor(handle)
	if err != nil {
		return err
	}
	state.mu.Lock()
	if state.status != StatusPaused {
		state.mu.Unlock()
		return fmt.Errorf("run %s is not paused", handle.RunID)
	}
	state.status = StatusRunning
	state.mu.Unlock()

	go e.runLoop(handle, state)
	return nil
}

func (e *Executor) stateFor(handle ExecutionHandle) (*runState, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	state, ok := e.runs[handle.RunID]
	if !ok {
		return nil, ErrNotFound
	}
	return state, nil
}

func isTerminal(s Status) bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	default:
		return false
	}
}

// runLoop implements the scheduling loop of spec.md §4.D. It is invoked
// once per background task; pausing and cancellation return from this
// function rather than blocking inside it.
func (e *Executor) runLoop(handle ExecutionHandle, state *runState) {
	for {
		state.mu.Lock()
		if isTerminal(state.status) {
			state.mu.Unlock()
			return
		}
		if state.cancel {
			state.status = StatusCancelled
			state.mu.Unlock()
			state.broker.publish(Event{Kind: EventCancelled, Handle: handle, At: time.Now().UTC()})
			state.broker.close()
			return
		}
		if state.options.Timeout > 0 && time.Since(state.startTime) > state.options.Timeout {
			state.status = StatusFailed
			state.mu.Unlock()
			state.broker.publish(Event{Kind: EventFailed, Handle: handle, Err: fmt.Errorf("workflow run exceeded timeout %s", state.options.Timeout), At: time.Now().UTC()})
			state.broker.close()
			return
		}

		total := len(state.def.Steps)
		if state.stepIndex >= total {
			state.status = StatusCompleted
			state.mu.Unlock()
			state.broker.publish(Event{Kind: EventCompleted, Handle: handle, At: time.Now().UTC()})
			state.broker.close()
			return
		}

		if state.options.Interactive && len(state.completed) > 0 {
			state.status = StatusPaused
			state.mu.Unlock()
			state.broker.publish(Event{Kind: EventPaused, Handle: handle, At: time.Now().UTC()})
			return
		}

		step := state.def.Steps[state.stepIndex]
		state.mu.Unlock()

		result, err := e.executeStep(handle, state, step)
		if err != nil {
			state.mu.Lock()
			state.status = StatusFailed
			state.mu.Unlock()
			state.broker.publish(Event{Kind: EventFailed, Handle: handle, StepID: step.ID, Result: &result, Err: err, At: time.Now().UTC()})
			state.broker.close()
			return
		}

		state.mu.Lock()
		if state.cancel {
			// Cancel arrived while the step was in flight: its result is
			// discarded and the loop top reports the cancellation.
			state.mu.Unlock()
			continue
		}
		state.completed = append(state.completed, result)
		state.stepDurations = append(state.stepDurations, result.EndTime.Sub(result.StartTime))
		state.stepIndex++
		state.mu.Unlock()
		state.broker.publish(Event{Kind: EventStepCompleted, Handle: handle, StepID: step.ID, Result: &result, At: time.Now().UTC()})
	}
}

// executeStep substitutes placeholders, dispatches to the invoker, and
// folds a successful JSON output back into the placeholder map. The
// returned error is non-nil only for a failed/non-zero-exit step; a
// dispatch error from the invoker itself is wrapped the same way so the
// caller has one failure path.
func (e *Executor) executeStep(handle ExecutionHandle, state *runState, step Step) (StepResult, error) {
	state.mu.Lock()
	values := make(map[string]string, len(state.placeholders))
	for k, v := range state.placeholders {
		values[k] = v
	}
	state.mu.Unlock()

	cmd, err := SubstituteCommand(step.Command, values)
	if err != nil {
		return StepResult{}, fmt.Errorf("step %q: substitute placeholders: %w", step.ID, err)
	}

	state.broker.publish(Event{Kind: EventStepStarted, Handle: handle, StepID: step.ID, At: time.Now().UTC()})

	start := time.Now().UTC()
	res, execErr := e.invoker.Execute(context.Background(), cmd, state.options.Timeout, nil)
	end := time.Now().UTC()

	result := StepResult{StepID: step.ID, StartTime: start, EndTime: end}
	if execErr != nil {
		result.Status = StatusFailed
		result.Stderr = execErr.Error()
		return result, fmt.Errorf("step %q: %w", step.ID, execErr)
	}

	result.ExitCode = res.ExitCode
	result.Stdout = res.Stdout
	result.Stderr = res.Stderr

	if !res.Success {
		result.Status = StatusFailed
		suggestions := RecoverySuggestions(cmd.Kind, res.Stderr)
		return result, fmt.Errorf("step %q failed (exit %d): %s; suggestions: %s",
			step.ID, res.ExitCode, res.ErrorMessage(), strings.Join(suggestions, ", "))
	}

	result.Status = StatusCompleted
	state.mu.Lock()
	for k, v := range scalarLeaves(res.ParsedJSON) {
		state.placeholders[k] = v
		state.placeholders[step.ID+"."+k] = v
	}
	state.mu.Unlock()
	return result, nil
}

// scalarLeaves extracts the top-level scalar fields of a JSON object into
// string form, per spec.md §4.D step 4.
func scalarLeaves(obj map[string]any) map[string]string {
	out := map[string]string{}
	for k, v := range obj {
		switch val := v.(type) {
		case string:
			out[k] = val
		case bool:
			out[k] = strconv.FormatBool(val)
		case float64:
			out[k] = strconv.FormatFloat(val, 'f', -1, 64)
		case nil:
			// omit
		default:
			// non-scalar leaves (nested objects/arrays) are not promoted.
		}
	}
	return out
}

// RecoverySuggestions implements the kind x stderr-substring match table of
// spec.md §7. Suggestions are advisory only.
func RecoverySuggestions(kind raps.Kind, stderr string) []string {
	lower := strings.ToLower(stderr)
	var out []string

	if kind == raps.KindAuth {
		out = append(out, "re-login", "verify client id/secret")
	}
	if kind == raps.KindBucket && strings.Contains(lower, "already exists") {
		out = append(out, "choose a different name")
	}
	if kind == raps.KindBucket && strings.Contains(lower, "permission") {
		out = append(out, "grant OSS scope")
	}
	if kind == raps.KindObject && strings.Contains(lower, "not found") {
		out = append(out, "verify bucket and key")
	}
	if kind == raps.KindTranslate && (strings.Contains(lower, "urn") || strings.Contains(lower, "format")) {
		out = append(out, "verify URN / supported format")
	}
	if strings.Contains(lower, "network") || strings.Contains(lower, "timeout") {
		out = append(out, "check connectivity")
	}
	if len(out) == 0 {
		logging.Debug("executor", "no recovery suggestion matched for kind %s", kind)
	}
	return out
}
