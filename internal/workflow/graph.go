package workflow

import "fmt"

// hasCycle runs a path-based DFS: a node is removed from the current path's
// visited set when the recursion returns from it, so only back-edges within
// the current DFS path are flagged as cycles, not edges shared across
// separate branches. Grounded on the original implementation's
// has_circular_dependency.
func hasCycle(edges map[string][]string, start string) bool {
	onPath := map[string]bool{}
	var visit func(node string) bool
	visit = func(node string) bool {
		if onPath[node] {
			return true
		}
		onPath[node] = true
		for _, dep := range edges[node] {
			if visit(dep) {
				return true
			}
		}
		onPath[node] = false
		return false
	}
	return visit(start)
}

// topoOrder returns start's dependencies before start itself, via DFS
// post-order, so that "each dependency precedes its dependants"
// (spec.md §4.C). visited prevents re-emitting a workflow already placed
// earlier in the order by a sibling branch.
func topoOrder(edges map[string][]string, start string) ([]string, error) {
	if hasCycle(edges, start) {
		return nil, fmt.Errorf("%w: cycle reachable from %q", ErrCycle, start)
	}
	visited := map[string]bool{}
	var order []string
	var visit func(node string)
	visit = func(node string) {
		if visited[node] {
			return
		}
		visited[node] = true
		for _, dep := range edges[node] {
			visit(dep)
		}
		order = append(order, node)
	}
	visit(start)
	return order, nil
}
