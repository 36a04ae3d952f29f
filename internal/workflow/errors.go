package workflow

import "errors"

var (
	// ErrNotFound is returned when a workflow id is unknown.
	ErrNotFound = errors.New("workflow not found")
	// ErrCycle is returned when the dependency graph contains a cycle
	// reachable from the queried workflow.
	ErrCycle = errors.New("circular dependency")
)

// DiscoveryError records a file that failed to parse during discover();
// the walk continues past it (spec.md §4.C).
type DiscoveryError struct {
	Path string
	Err  error
}

func (e *DiscoveryError) Error() string {
	return "discover " + e.Path + ": " + e.Err.Error()
}

func (e *DiscoveryError) Unwrap() error { return e.Err }
