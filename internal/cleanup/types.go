// Package cleanup implements the Cleanup Orchestrator: policy-driven
// cleanup across one or many workflow runs, interrupted-workflow recovery
// instructions, and dry-run reporting.
package cleanup

import (
	"time"

	"github.com/dyemelianov/rapsflow/internal/resource"
)

// Mode selects how cleanup is carried out.
type Mode string

const (
	// ModeAutomatic executes cleanup commands per each resource's policy.
	ModeAutomatic Mode = "automatic"
	// ModeManual emits textual instructions only; nothing is invoked.
	ModeManual Mode = "manual"
	// ModeInteractive prompts per resource via an injected predicate before
	// invoking its cleanup commands.
	ModeInteractive Mode = "interactive"
	// ModeDryRun reports what would be cleaned; makes zero subprocess calls.
	ModeDryRun Mode = "dry-run"
)

// StrategyKind is the closed set of per-run cleanup triggers.
type StrategyKind string

const (
	StrategyImmediate StrategyKind = "immediate"
	StrategyScheduled StrategyKind = "scheduled"
	StrategyAgeBased  StrategyKind = "age-based"
	StrategyCostBased StrategyKind = "cost-based"
)

// Strategy selects when cleanup runs for a given workflow.
type Strategy struct {
	Kind StrategyKind

	ExecuteAt      time.Time     // StrategyScheduled
	MaxAge         time.Duration // StrategyAgeBased
	CostThreshold  float64       // StrategyCostBased
}

// InterruptedCleanup records the resources an interrupted run left behind
// and how to remove them.
type InterruptedCleanup struct {
	WorkflowID         string
	InterruptedAt      time.Time
	CreatedResourceIDs []resource.ID
	HumanInstructions  []string
	AutomatedCommands  []string
}

// Result is the per-workflow outcome of one cleanup invocation, extending
// resource.CleanupResult with the mode it ran under.
type Result struct {
	resource.CleanupResult
	WorkflowID string
	Mode       Mode
}

// OrchestrationResult aggregates the outcome of orchestrating cleanup
// across one or more workflows.
type OrchestrationResult struct {
	Success           bool
	Mode              Mode
	PerWorkflowResults []Result
	FailedCleanups    []string
	TotalDuration     time.Duration
	CostSavings       float64
}
