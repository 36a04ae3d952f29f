// Package workflow discovers, validates, and executes declarative workflow
// definitions: a parsed YAML model, a dependency DAG over workflow ids, and
// a stepwise executor that drives the raps CLI invoker per step.
package workflow

import (
	"time"

	"github.com/dyemelianov/rapsflow/internal/raps"
)

// Category is the closed set of workflow categories (spec.md §3).
type Category string

const (
	CategoryObjectStorage    Category = "object-storage"
	CategoryModelDerivative  Category = "model-derivative"
	CategoryDataManagement   Category = "data-management"
	CategoryDesignAutomation Category = "design-automation"
	CategoryConstructionCloud Category = "construction-cloud"
	CategoryRealityCapture   Category = "reality-capture"
	CategoryWebhooks         Category = "webhooks"
	CategoryEndToEnd         Category = "end-to-end"
)

// PrerequisiteType is the closed set of prerequisite kinds.
type PrerequisiteType string

const (
	PrereqAuthentication PrerequisiteType = "authentication"
	PrereqPermissions    PrerequisiteType = "permissions"
	PrereqExternalTool   PrerequisiteType = "external-tool"
	PrereqAssets         PrerequisiteType = "assets"
)

// Prerequisite is one human-described precondition for running a workflow.
type Prerequisite struct {
	Type        PrerequisiteType `yaml:"type"`
	Description string           `yaml:"description"`
}

// CostEstimate is an optional declared cost ceiling.
type CostEstimate struct {
	Description string  `yaml:"description"`
	MaxCostUSD  float64 `yaml:"max_cost_usd"`
}

// Metadata is the `metadata:` block of a workflow definition file.
type Metadata struct {
	ID                string         `yaml:"id"`
	Name              string         `yaml:"name"`
	Description       string         `yaml:"description"`
	Category          Category       `yaml:"category"`
	Prerequisites     []Prerequisite `yaml:"prerequisites"`
	EstimatedDuration int            `yaml:"estimated_duration"`
	CostEstimate      *CostEstimate  `yaml:"cost_estimate,omitempty"`
	RequiredAssets    []string       `yaml:"required_assets"`

	// ScriptPath is the file the definition was loaded from; not part of
	// the wire format.
	ScriptPath string `yaml:"-"`
}

// Step is one element of a workflow.
type Step struct {
	ID                string         `yaml:"id"`
	Name              string         `yaml:"name"`
	Description       string         `yaml:"description"`
	Command           raps.Command   `yaml:"command"`
	ExpectedDuration  *int           `yaml:"expected_duration,omitempty"`
	CleanupCommands   []raps.Command `yaml:"cleanup_commands,omitempty"`
}

// Definition is a fully parsed workflow definition file.
type Definition struct {
	Metadata     Metadata       `yaml:"metadata"`
	Steps        []Step         `yaml:"steps"`
	Cleanup      []raps.Command `yaml:"cleanup,omitempty"`
	Dependencies []string       `yaml:"dependencies,omitempty"`
}

// Status is the closed set of run statuses.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusPaused    Status = "paused"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Options carries per-run execution options.
type Options struct {
	Interactive bool
	Verbose     bool
	AutoCleanup bool
	Timeout     time.Duration
}

// DefaultOptions mirrors the original implementation's defaults.
func DefaultOptions() Options {
	return Options{Interactive: true, Verbose: false, AutoCleanup: true, Timeout: 30 * time.Minute}
}

// StepResult is the outcome of one executed step.
type StepResult struct {
	StepID    string
	Status    Status
	StartTime time.Time
	EndTime   time.Time
	Stdout    string
	Stderr    string
	ExitCode  int
}

// ValidationResult reports the outcome of validate().
type ValidationResult struct {
	Valid    bool
	Errors   []string
	Warnings []string
}
