package workflow

import (
	"fmt"
	"os"

	"github.com/dyemelianov/rapsflow/internal/raps"
	"github.com/dyemelianov/rapsflow/internal/resource"
)

// Validate checks a discovered workflow's structural invariants, per
// spec.md §4.C. Errors block execution; warnings do not.
func (d *Discovery) Validate(id string) (ValidationResult, error) {
	def, ok := d.Get(id)
	if !ok {
		return ValidationResult{}, ErrNotFound
	}

	d.mu.RLock()
	edges := d.edges
	definitions := d.definitions
	d.mu.RUnlock()

	if hasCycle(edges, id) {
		return ValidationResult{Valid: false, Errors: []string{fmt.Sprintf("circular dependency involving %q", id)}}, nil
	}

	result := ValidationResult{Valid: true}
	addError := func(format string, args ...any) {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf(format, args...))
	}
	addWarning := func(format string, args ...any) {
		result.Warnings = append(result.Warnings, fmt.Sprintf(format, args...))
	}

	if def.Metadata.ID == "" {
		addError("empty workflow id")
	}
	if def.Metadata.Name == "" {
		addError("empty workflow name")
	}
	if def.Metadata.Description == "" {
		addWarning("empty description")
	}
	if len(def.Steps) == 0 {
		addError("workflow has zero steps")
	}

	seenStepIDs := map[string]bool{}
	for _, step := range def.Steps {
		if step.ID == "" {
			addError("empty step id")
		} else if seenStepIDs[step.ID] {
			addError("Duplicate step ID: %s", step.ID)
		}
		seenStepIDs[step.ID] = true

		if step.Name == "" {
			addError("empty step name for step %q", step.ID)
		}

		if err := validateCommand(step.Command); err != nil {
			addError("step %q: %v", step.ID, err)
		}
	}

	for _, assetPath := range def.Metadata.RequiredAssets {
		if _, err := os.Stat(assetPath); err != nil {
			addWarning("required asset %q does not currently exist on disk", assetPath)
		}
	}

	for _, depID := range def.Dependencies {
		if _, ok := definitions[depID]; !ok {
			addError("dependency references unknown workflow id: %s", depID)
		}
	}

	if def.Metadata.CostEstimate != nil {
		estimate := estimateWorkflowCommandCost(def)
		if estimate > def.Metadata.CostEstimate.MaxCostUSD {
			addWarning("estimated cost %.2f exceeds declared ceiling %.2f", estimate, def.Metadata.CostEstimate.MaxCostUSD)
		}
	}

	return result, nil
}

func validateCommand(cmd raps.Command) error {
	switch cmd.Kind {
	case raps.KindBucket:
		if bucketName(cmd) == "" {
			return fmt.Errorf("bucket command requires bucket_name")
		}
	case raps.KindObject:
		if bucketName(cmd) == "" {
			return fmt.Errorf("object command requires bucket_name")
		}
	case raps.KindCustom:
		program, _ := cmd.Params["command"].(string)
		if program == "" {
			return fmt.Errorf("custom command requires a non-empty program")
		}
	}
	return nil
}

func bucketName(cmd raps.Command) string {
	v, _ := cmd.Params["bucket_name"].(string)
	return v
}

func estimateWorkflowCommandCost(def Definition) float64 {
	commands := make([]raps.Command, 0, len(def.Steps))
	for _, s := range def.Steps {
		commands = append(commands, s.Command)
	}
	return resource.EstimateCost(commands).TotalCost
}
