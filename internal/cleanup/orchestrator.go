package cleanup

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/dyemelianov/rapsflow/internal/raps"
	"github.com/dyemelianov/rapsflow/internal/resource"
	"github.com/dyemelianov/rapsflow/pkg/logging"
)

// maxConcurrentCleanups bounds how many workflows Orchestrate cleans up at
// once; per-workflow cleanup can itself shell out to several raps
// subprocesses, so an unbounded fan-out across many workflows risks
// overwhelming the CLI's own rate limits.
const maxConcurrentCleanups = 4

// Ledger is the subset of resource.Ledger the orchestrator depends on.
// Depending on the interface rather than the concrete type keeps
// Orchestrator testable with a fake.
type Ledger interface {
	ResourcesFor(workflowID string) []resource.Tracked
	PolicyFor(kind resource.Kind) resource.Policy
	CostSummaryFor(workflowID string) resource.CostSummary
	Cleanup(ctx context.Context, workflowID string) (resource.CleanupResult, error)
	CleanupOne(ctx context.Context, r resource.Tracked) error
}

// Confirm decides, in ModeInteractive, whether a single resource should be
// cleaned up. Tests and CLI callers inject their own implementation rather
// than the orchestrator simulating per-kind decisions itself.
type Confirm func(r resource.Tracked) bool

// Orchestrator dispatches cleanup across Strategies and Modes (spec.md
// §4.E), and tracks interrupted-workflow recovery records.
type Orchestrator struct {
	mu sync.Mutex

	ledger             Ledger
	interactiveConfirm Confirm
	strategies         map[string]Strategy
	interrupted        map[string]InterruptedCleanup
}

// NewOrchestrator constructs an Orchestrator. confirm may be nil when the
// caller never uses ModeInteractive; calling Orchestrate in that mode
// without a confirm function is an error.
func NewOrchestrator(ledger Ledger, confirm Confirm) *Orchestrator {
	return &Orchestrator{
		ledger:             ledger,
		interactiveConfirm: confirm,
		strategies:         map[string]Strategy{},
		interrupted:        map[string]InterruptedCleanup{},
	}
}

// SetStrategy assigns a cleanup strategy for workflowID; absent an explicit
// assignment a workflow defaults to StrategyImmediate.
func (o *Orchestrator) SetStrategy(workflowID string, s Strategy) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.strategies[workflowID] = s
}

func (o *Orchestrator) strategyFor(workflowID string) Strategy {
	o.mu.Lock()
	defer o.mu.Unlock()
	if s, ok := o.strategies[workflowID]; ok {
		return s
	}
	return Strategy{Kind: StrategyImmediate}
}

// CleanupWorkflow runs workflowID's assigned strategy under mode.
func (o *Orchestrator) CleanupWorkflow(ctx context.Context, workflowID string, mode Mode) (Result, error) {
	logging.Info("cleanup", "starting cleanup for workflow %s (mode: %s)", workflowID, mode)

	strategy := o.strategyFor(workflowID)
	var (
		res resource.CleanupResult
		err error
	)
	switch strategy.Kind {
	case StrategyImmediate:
		res, err = o.executeWithMode(ctx, workflowID, mode)
	case StrategyScheduled:
		res, err = o.schedule(workflowID, strategy.ExecuteAt)
	case StrategyAgeBased:
		res, err = o.executeAgeBased(ctx, workflowID, strategy.MaxAge, mode)
	case StrategyCostBased:
		res, err = o.executeCostBased(ctx, workflowID, strategy.CostThreshold, mode)
	default:
		return Result{}, fmt.Errorf("unknown cleanup strategy: %s", strategy.Kind)
	}
	if err != nil {
		return Result{}, err
	}
	return Result{CleanupResult: res, WorkflowID: workflowID, Mode: mode}, nil
}

// executeWithMode dispatches StrategyImmediate per mode: Automatic actually
// invokes cleanup commands through the ledger; Manual only produces
// instructions; Interactive confirms per resource before invoking; DryRun
// inspects policy without ever calling the invoker (spec.md §4.E, §9 —
// resolving the cleanup-vs-marking ambiguity in favor of invoke-and-record
// for Automatic and Interactive).
func (o *Orchestrator) executeWithMode(ctx context.Context, workflowID string, mode Mode) (resource.CleanupResult, error) {
	switch mode {
	case ModeAutomatic:
		return o.ledger.Cleanup(ctx, workflowID)
	case ModeManual:
		return o.generateManualInstructions(workflowID)
	case ModeInteractive:
		return o.executeInteractive(ctx, workflowID)
	case ModeDryRun:
		return o.executeDryRun(workflowID), nil
	default:
		return resource.CleanupResult{}, fmt.Errorf("unknown cleanup mode: %s", mode)
	}
}

// generateManualInstructions produces a textual instruction per resource
// without invoking anything, using the same per-kind phrasing as
// ManualInstructionFor.
func (o *Orchestrator) generateManualInstructions(workflowID string) (resource.CleanupResult, error) {
	start := time.Now()
	resources := o.ledger.ResourcesFor(workflowID)

	result := resource.CleanupResult{Success: true, FailedIDsWithErr: map[resource.ID]string{}}
	for _, r := range resources {
		instruction := ManualInstructionFor(r)
		logging.Info("cleanup", "manual instruction: %s", instruction)
		result.CleanedIDs = append(result.CleanedIDs, r.ID)
	}
	result.Duration = time.Since(start)
	return result, nil
}

// executeInteractive confirms each resource via the injected predicate
// before invoking its cleanup commands through the ledger.
func (o *Orchestrator) executeInteractive(ctx context.Context, workflowID string) (resource.CleanupResult, error) {
	if o.interactiveConfirm == nil {
		return resource.CleanupResult{}, fmt.Errorf("interactive cleanup requires a confirmation function")
	}

	start := time.Now()
	resources := o.ledger.ResourcesFor(workflowID)
	result := resource.CleanupResult{Success: true, FailedIDsWithErr: map[resource.ID]string{}}

	for _, r := range resources {
		if !o.interactiveConfirm(r) {
			logging.Info("cleanup", "user declined cleanup for resource: %s", r.Name)
			result.FailedIDsWithErr[r.ID] = "user declined cleanup"
			result.Success = false
			continue
		}
		logging.Info("cleanup", "user confirmed cleanup for resource: %s", r.Name)
		if err := o.cleanupOne(ctx, r); err != nil {
			result.Success = false
			result.FailedIDsWithErr[r.ID] = err.Error()
			continue
		}
		result.CleanedIDs = append(result.CleanedIDs, r.ID)
	}
	result.Duration = time.Since(start)
	return result, nil
}

func (o *Orchestrator) cleanupOne(ctx context.Context, r resource.Tracked) error {
	return o.ledger.CleanupOne(ctx, r)
}

// executeDryRun reports what each resource's policy would do without ever
// invoking the ledger's Cleanup or the underlying raps client (spec.md's
// Scenario 5: dry-run makes zero subprocess calls).
func (o *Orchestrator) executeDryRun(workflowID string) resource.CleanupResult {
	start := time.Now()
	resources := o.ledger.ResourcesFor(workflowID)

	result := resource.CleanupResult{Success: true, FailedIDsWithErr: map[resource.ID]string{}}
	for _, r := range resources {
		policy := o.ledger.PolicyFor(r.Kind)
		switch {
		case policy.ShouldCleanup(r.Age()):
			logging.Info("cleanup", "would clean up: %s (%s)", r.Name, r.Kind)
			result.CleanedIDs = append(result.CleanedIDs, r.ID)
		case policy.Kind == resource.PolicyDelayed:
			logging.Info("cleanup", "would skip (too young): %s (%s)", r.Name, r.Kind)
			result.FailedIDsWithErr[r.ID] = "resource too young"
		case policy.Kind == resource.PolicyNever:
			logging.Info("cleanup", "would skip (never cleanup policy): %s (%s)", r.Name, r.Kind)
			result.FailedIDsWithErr[r.ID] = "never cleanup policy"
		default:
			logging.Info("cleanup", "would skip (manual policy): %s (%s)", r.Name, r.Kind)
			result.FailedIDsWithErr[r.ID] = "manual cleanup policy"
		}
	}
	result.Duration = time.Since(start)
	return result
}

// schedule records the intent to clean up later; spec.md leaves scheduled
// execution itself to an external job runner, so this only reports which
// resources are pending and does not invoke anything.
func (o *Orchestrator) schedule(workflowID string, at time.Time) (resource.CleanupResult, error) {
	resources := o.ledger.ResourcesFor(workflowID)
	logging.Info("cleanup", "scheduled cleanup for %d resources in workflow %s at %s", len(resources), workflowID, at.Format(time.RFC3339))

	ids := make([]resource.ID, 0, len(resources))
	for _, r := range resources {
		ids = append(ids, r.ID)
	}
	return resource.CleanupResult{Success: true, CleanedIDs: ids, FailedIDsWithErr: map[resource.ID]string{}}, nil
}

// executeAgeBased cleans up every resource at or beyond maxAge; mode is
// honored the same way executeWithMode honors it, except the age filter
// gates which resources are candidates at all.
func (o *Orchestrator) executeAgeBased(ctx context.Context, workflowID string, maxAge time.Duration, mode Mode) (resource.CleanupResult, error) {
	if mode == ModeInteractive && o.interactiveConfirm == nil {
		return resource.CleanupResult{}, fmt.Errorf("interactive cleanup requires a confirmation function")
	}
	start := time.Now()
	resources := o.ledger.ResourcesFor(workflowID)

	result := resource.CleanupResult{Success: true, FailedIDsWithErr: map[resource.ID]string{}}
	for _, r := range resources {
		if r.Age() < maxAge {
			result.FailedIDsWithErr[r.ID] = "resource too young"
			continue
		}
		if mode == ModeDryRun {
			result.CleanedIDs = append(result.CleanedIDs, r.ID)
			continue
		}
		if mode == ModeManual {
			logging.Info("cleanup", "manual instruction: %s", ManualInstructionFor(r))
			result.CleanedIDs = append(result.CleanedIDs, r.ID)
			continue
		}
		if mode == ModeInteractive && !o.interactiveConfirm(r) {
			result.Success = false
			result.FailedIDsWithErr[r.ID] = "user declined cleanup"
			continue
		}
		if err := o.cleanupOne(ctx, r); err != nil {
			result.Success = false
			result.FailedIDsWithErr[r.ID] = err.Error()
			continue
		}
		result.CleanedIDs = append(result.CleanedIDs, r.ID)
	}
	result.Duration = time.Since(start)
	return result, nil
}

// executeCostBased cleans up resources in descending estimated-cost order
// until the workflow's remaining cost is at or below threshold (spec.md
// Scenario 6). Below-threshold workflows are left untouched entirely.
func (o *Orchestrator) executeCostBased(ctx context.Context, workflowID string, threshold float64, mode Mode) (resource.CleanupResult, error) {
	start := time.Now()
	summary := o.ledger.CostSummaryFor(workflowID)
	result := resource.CleanupResult{Success: true, FailedIDsWithErr: map[resource.ID]string{}}

	if summary.TotalCost <= threshold {
		logging.Info("cleanup", "workflow %s cost $%.2f is within threshold $%.2f, skipping", workflowID, summary.TotalCost, threshold)
		result.Duration = time.Since(start)
		return result, nil
	}

	resources := o.ledger.ResourcesFor(workflowID)
	sortByCostDescending(resources)

	remaining := summary.TotalCost
	for _, r := range resources {
		if remaining <= threshold {
			break
		}
		cost := r.EstimatedMonthlyCost()
		if mode != ModeDryRun {
			if err := o.cleanupOne(ctx, r); err != nil {
				result.Success = false
				result.FailedIDsWithErr[r.ID] = err.Error()
				continue
			}
		}
		result.CleanedIDs = append(result.CleanedIDs, r.ID)
		remaining -= cost
	}
	result.Duration = time.Since(start)
	return result, nil
}

func sortByCostDescending(resources []resource.Tracked) {
	for i := 1; i < len(resources); i++ {
		for j := i; j > 0 && resources[j].EstimatedMonthlyCost() > resources[j-1].EstimatedMonthlyCost(); j-- {
			resources[j], resources[j-1] = resources[j-1], resources[j]
		}
	}
}

// ManualInstructionFor renders the human-readable cleanup instruction for a
// single resource, grouped by kind.
func ManualInstructionFor(r resource.Tracked) string {
	switch r.Kind {
	case resource.KindBucket:
		return fmt.Sprintf("Delete bucket %q using: raps bucket delete %s", r.Name, r.ExternalID)
	case resource.KindObject:
		return fmt.Sprintf("Delete object %q from bucket %q using: raps object delete %s %s", r.Name, r.Attributes.BucketName, r.Attributes.BucketName, r.ExternalID)
	case resource.KindTranslation:
		return fmt.Sprintf("Translation %q for URN %q will expire automatically", r.Name, r.Attributes.SourceURN)
	case resource.KindDesignAutomationWorkItem:
		return fmt.Sprintf("Work item %q for activity %q will expire automatically", r.Name, r.Attributes.ActivityID)
	case resource.KindPhotoscene:
		return fmt.Sprintf("Delete photoscene %q using: raps reality delete %s", r.Name, r.ExternalID)
	case resource.KindWebhook:
		return fmt.Sprintf("Delete webhook %q using: raps webhook delete %s", r.Name, r.ExternalID)
	case resource.KindFolder:
		return fmt.Sprintf("Delete folder %q in project %q manually through the ACC interface", r.Name, r.Attributes.ProjectID)
	case resource.KindItem:
		return fmt.Sprintf("Delete item %q in project %q manually through the ACC interface", r.Name, r.Attributes.ProjectID)
	default:
		return fmt.Sprintf("Clean up %s %q manually", r.Kind, r.Name)
	}
}

// HandleInterruptedWorkflow records every resource workflowID had created
// before it was interrupted, along with human instructions and the
// automated cleanup commands each resource carries.
func (o *Orchestrator) HandleInterruptedWorkflow(workflowID string, interruptedAt time.Time) InterruptedCleanup {
	resources := o.ledger.ResourcesFor(workflowID)

	ids := make([]resource.ID, 0, len(resources))
	humanInstructions := make([]string, 0, len(resources))
	var automated []string
	for _, r := range resources {
		ids = append(ids, r.ID)
		humanInstructions = append(humanInstructions, fmt.Sprintf(
			"Clean up %s %q (external id: %s) created before interruption", r.Kind, r.Name, r.ExternalID))
		for _, cmd := range resource.GenerateCleanupCommands(r) {
			automated = append(automated, describeCommand(cmd))
		}
	}

	record := InterruptedCleanup{
		WorkflowID:         workflowID,
		InterruptedAt:      interruptedAt,
		CreatedResourceIDs: ids,
		HumanInstructions:  humanInstructions,
		AutomatedCommands:  automated,
	}

	o.mu.Lock()
	o.interrupted[workflowID] = record
	o.mu.Unlock()
	return record
}

func describeCommand(cmd raps.Command) string {
	return fmt.Sprintf("raps %s %s", cmd.Kind, cmd.Action)
}

// GetInterruptedWorkflows returns every recorded interruption.
func (o *Orchestrator) GetInterruptedWorkflows() []InterruptedCleanup {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]InterruptedCleanup, 0, len(o.interrupted))
	for _, v := range o.interrupted {
		out = append(out, v)
	}
	return out
}

// ClearInterrupted drops workflowID's interruption record once it has been
// handled.
func (o *Orchestrator) ClearInterrupted(workflowID string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.interrupted, workflowID)
}

// Orchestrate runs cleanup across every workflow id, up to maxConcurrentCleanups
// at a time, accumulating cost savings and per-workflow results. A single
// workflow's failure does not prevent the rest from running.
func (o *Orchestrator) Orchestrate(ctx context.Context, workflowIDs []string, mode Mode) (OrchestrationResult, error) {
	start := time.Now()
	logging.Info("cleanup", "starting cleanup orchestration for %d workflows (mode: %s)", len(workflowIDs), mode)

	sem := semaphore.NewWeighted(maxConcurrentCleanups)
	var mu sync.Mutex
	out := OrchestrationResult{Success: true, Mode: mode}

	var wg sync.WaitGroup
	for _, id := range workflowIDs {
		id := id
		if err := sem.Acquire(ctx, 1); err != nil {
			mu.Lock()
			out.Success = false
			out.FailedCleanups = append(out.FailedCleanups, fmt.Sprintf("%s: %v", id, err))
			mu.Unlock()
			continue
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer sem.Release(1)

			summary := o.ledger.CostSummaryFor(id)
			result, err := o.CleanupWorkflow(ctx, id, mode)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				out.Success = false
				out.FailedCleanups = append(out.FailedCleanups, fmt.Sprintf("%s: %v", id, err))
				logging.Error("cleanup", err, "failed to clean up workflow %s", id)
				return
			}
			out.PerWorkflowResults = append(out.PerWorkflowResults, result)
			out.CostSavings += summary.TotalCost
			if !result.Success {
				out.Success = false
			}
		}()
	}
	wg.Wait()
	out.TotalDuration = time.Since(start)

	logging.Info("cleanup", "cleanup orchestration completed: %d workflows, %d failures, $%.2f cost savings (%s)",
		len(out.PerWorkflowResults), len(out.FailedCleanups), out.CostSavings, out.TotalDuration)
	return out, nil
}
