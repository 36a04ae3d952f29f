package resource

import "fmt"

// EnsureDemoName rewrites name into a kind-specific demo name when it does
// not already satisfy IsDemoName, per spec.md §6's naming rules.
func EnsureDemoName(kind Kind, name string, now int64) string {
	if IsDemoName(name) {
		return name
	}
	switch kind {
	case KindBucket:
		return fmt.Sprintf("raps-demo-bucket-%d", now)
	case KindObject:
		return fmt.Sprintf("demo-%d-%s", now, name)
	case KindFolder:
		return fmt.Sprintf("RAPS Demo - %s - %d", name, now)
	case KindPhotoscene:
		return fmt.Sprintf("raps-demo-photoscene-%d", now)
	default:
		return "demo-" + name
	}
}
