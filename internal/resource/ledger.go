package resource

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dyemelianov/rapsflow/internal/raps"
	"github.com/dyemelianov/rapsflow/pkg/logging"
)

// Invoker is the subset of internal/raps.Client the ledger needs to run
// cleanup commands. Depending on this interface (rather than *raps.Client
// directly) keeps the ledger testable with a fake and matches the
// "construct with dependencies injected" guidance of spec.md §9.
type Invoker interface {
	Execute(ctx context.Context, cmd raps.Command, timeout time.Duration, env map[string]string) (raps.Result, error)
}

// Ledger is the Resource Ledger of spec.md §4.B: an in-memory map of tracked
// resources backed by a single snapshot file, guarded by a read/write lock
// so any number of readers or one writer may proceed at a time.
type Ledger struct {
	mu sync.RWMutex

	resources      map[ID]Tracked
	byWorkflow     map[string]map[ID]struct{}
	policies       map[Kind]Policy
	costOverrides  map[ID]float64
	lastUpdated    time.Time

	snapshotPath string
	invoker      Invoker
}

// NewLedger constructs a ledger persisted at snapshotPath, attempting to
// load existing state. Absence of the file is not an error; a malformed
// file is logged and the ledger starts empty, leaving the bad file on disk
// untouched until the next successful save (spec.md §4.B, §7).
func NewLedger(snapshotPath string, invoker Invoker) *Ledger {
	l := &Ledger{
		resources:     map[ID]Tracked{},
		byWorkflow:    map[string]map[ID]struct{}{},
		policies:      DefaultPolicies(),
		costOverrides: map[ID]float64{},
		snapshotPath:  snapshotPath,
		invoker:       invoker,
	}
	if err := l.load(); err != nil {
		logging.Error("ledger", err, "failed to load snapshot %s, starting empty", snapshotPath)
	}
	return l
}

// Track inserts resource into the ledger, rewriting its name to a demo name
// if necessary, then persists before returning (invariant 3 of spec.md §3).
func (l *Ledger) Track(resource Tracked) (ID, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	resource.Name = EnsureDemoName(resource.Kind, resource.Name, resource.CreatedAt.Unix())
	l.resources[resource.ID] = resource
	if l.byWorkflow[resource.WorkflowID] == nil {
		l.byWorkflow[resource.WorkflowID] = map[ID]struct{}{}
	}
	l.byWorkflow[resource.WorkflowID][resource.ID] = struct{}{}

	if err := l.saveLocked(); err != nil {
		delete(l.resources, resource.ID)
		delete(l.byWorkflow[resource.WorkflowID], resource.ID)
		return ID{}, fmt.Errorf("track resource: %w", err)
	}
	return resource.ID, nil
}

// Untrack removes a resource from every index and persists before
// returning.
func (l *Ledger) Untrack(id ID) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	resource, ok := l.resources[id]
	if !ok {
		return fmt.Errorf("untrack resource: %w: %s", ErrNotFound, id)
	}
	delete(l.resources, id)
	delete(l.costOverrides, id)
	if wf, ok := l.byWorkflow[resource.WorkflowID]; ok {
		delete(wf, id)
		if len(wf) == 0 {
			delete(l.byWorkflow, resource.WorkflowID)
		}
	}
	if err := l.saveLocked(); err != nil {
		return fmt.Errorf("untrack resource: %w", err)
	}
	return nil
}

// ResourcesFor returns every resource owned by workflowID, ordered by
// creation time (insertion order), matching spec.md §4.B's cleanup
// iteration order.
func (l *Ledger) ResourcesFor(workflowID string) []Tracked {
	l.mu.RLock()
	defer l.mu.RUnlock()
	ids := l.byWorkflow[workflowID]
	out := make([]Tracked, 0, len(ids))
	for id := range ids {
		out = append(out, l.resources[id])
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// AllResources returns every resource in the ledger.
func (l *Ledger) AllResources() []Tracked {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Tracked, 0, len(l.resources))
	for _, r := range l.resources {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// Get returns a single resource by id.
func (l *Ledger) Get(id ID) (Tracked, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	r, ok := l.resources[id]
	return r, ok
}

// PolicyFor returns the cleanup policy for a kind, falling back to
// PolicyManual for unknown kinds.
func (l *Ledger) PolicyFor(kind Kind) Policy {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if p, ok := l.policies[kind]; ok {
		return p
	}
	return Policy{Kind: PolicyManual}
}

// RecordActualCost overrides the heuristic cost estimate for a resource,
// used once a real billing figure is known.
func (l *Ledger) RecordActualCost(id ID, usd float64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.resources[id]; !ok {
		return fmt.Errorf("record actual cost: %w: %s", ErrNotFound, id)
	}
	l.costOverrides[id] = usd
	return l.saveLocked()
}

func (l *Ledger) costOf(r Tracked) float64 {
	if override, ok := l.costOverrides[r.ID]; ok {
		return override
	}
	return r.EstimatedMonthlyCost()
}

// CostSummaryFor computes a CostSummary over one workflow's resources.
func (l *Ledger) CostSummaryFor(workflowID string) CostSummary {
	l.mu.RLock()
	defer l.mu.RUnlock()
	summary := NewCostSummary()
	for id := range l.byWorkflow[workflowID] {
		r := l.resources[id]
		cost := l.costOf(r)
		summary.TotalCost += cost
		summary.CostByKind[r.Kind] += cost
		summary.CostByResource[r.ID] = cost
	}
	return summary
}

// ExceedsThreshold reports whether workflowID's current cost summary is
// over usd.
func (l *Ledger) ExceedsThreshold(workflowID string, usd float64) bool {
	return l.CostSummaryFor(workflowID).ExceedsThreshold(usd)
}

// EstimateCost is a pure pre-execution heuristic over a list of commands
// that do not yet correspond to tracked resources: it looks only at command
// kind/action, not at any resource the command might eventually create.
func EstimateCost(commands []raps.Command) CostSummary {
	summary := NewCostSummary()
	for _, cmd := range commands {
		var cost float64
		switch cmd.Kind {
		case raps.KindBucket:
			if cmd.Action == raps.BucketCreate {
				cost = 0.01
			}
		case raps.KindObject:
			if cmd.Action == raps.ObjectUpload {
				cost = 0.023
			}
		case raps.KindTranslate:
			if cmd.Action == raps.TranslateStart {
				cost = 0.50
			}
		case raps.KindDesignAutomation:
			if cmd.Action == raps.DesignAutoWorkItemRun {
				cost = 0.10
			}
		}
		summary.TotalCost += cost
	}
	return summary
}

// Cleanup iterates workflowID's resources in insertion order; for each whose
// policy says it should be cleaned now, its cleanup commands run in order
// through the invoker. Per-resource outcomes are recorded; partial failure
// does not stop the iteration (spec.md §4.B).
func (l *Ledger) Cleanup(ctx context.Context, workflowID string) (CleanupResult, error) {
	start := time.Now()
	resources := l.ResourcesFor(workflowID)

	result := CleanupResult{Success: true, FailedIDsWithErr: map[ID]string{}}
	for _, r := range resources {
		policy := l.PolicyFor(r.Kind)
		if !policy.ShouldCleanup(r.Age()) {
			continue
		}
		if err := l.runCleanupCommands(ctx, r); err != nil {
			result.Success = false
			result.FailedIDsWithErr[r.ID] = err.Error()
			logging.Audit(logging.AuditEvent{Action: "cleanup", Outcome: "failure", ResourceID: r.ID.String(), Target: workflowID, Error: err.Error()})
			continue
		}
		if err := l.Untrack(r.ID); err != nil {
			result.Success = false
			result.FailedIDsWithErr[r.ID] = err.Error()
			continue
		}
		result.CleanedIDs = append(result.CleanedIDs, r.ID)
		logging.Audit(logging.AuditEvent{Action: "cleanup", Outcome: "success", ResourceID: r.ID.String(), Target: workflowID})
	}
	result.Duration = time.Since(start)
	return result, nil
}

// CleanupOne runs r's cleanup commands through the invoker and, on success,
// untracks it. Used by callers (e.g. the cleanup orchestrator) that decide
// per-resource whether to clean up rather than sweeping a whole workflow.
func (l *Ledger) CleanupOne(ctx context.Context, r Tracked) error {
	if err := l.runCleanupCommands(ctx, r); err != nil {
		logging.Audit(logging.AuditEvent{Action: "cleanup", Outcome: "failure", ResourceID: r.ID.String(), Target: r.WorkflowID, Error: err.Error()})
		return err
	}
	if err := l.Untrack(r.ID); err != nil {
		return err
	}
	logging.Audit(logging.AuditEvent{Action: "cleanup", Outcome: "success", ResourceID: r.ID.String(), Target: r.WorkflowID})
	return nil
}

func (l *Ledger) runCleanupCommands(ctx context.Context, r Tracked) error {
	commands := GenerateCleanupCommands(r)
	for _, cmd := range commands {
		res, err := l.invoker.Execute(ctx, cmd, 0, nil)
		if err != nil {
			return fmt.Errorf("cleanup %s: %w", r.Name, err)
		}
		if !res.Success {
			return fmt.Errorf("cleanup %s: %s", r.Name, res.ErrorMessage())
		}
	}
	return nil
}

// GenerateCleanupCommands returns the resource's own cleanup-commands list
// if it has one, else a kind-specific default delete command.
func GenerateCleanupCommands(r Tracked) []raps.Command {
	if len(r.CleanupCommands) > 0 {
		return r.CleanupCommands
	}
	switch r.Kind {
	case KindBucket:
		return []raps.Command{raps.BucketCommand(raps.BucketDelete, r.Name, map[string]any{"force": true})}
	case KindObject:
		return []raps.Command{raps.ObjectCommand(raps.ObjectDelete, r.Attributes.BucketName, map[string]any{"object_key": r.Name})}
	default:
		return nil
	}
}
