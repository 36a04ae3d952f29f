package workflow

import (
	"regexp"

	"github.com/dyemelianov/rapsflow/internal/raps"
)

var placeholderPattern = regexp.MustCompile(`\{([^}]+)\}`)

// substitutePlaceholders replaces every `{name}` occurrence in s with the
// placeholder map's value for name, left as-is when absent. Idempotent on
// strings containing no `{...}` patterns.
func substitutePlaceholders(s string, values map[string]string) string {
	return placeholderPattern.ReplaceAllStringFunc(s, func(match string) string {
		name := match[1 : len(match)-1]
		if v, ok := values[name]; ok {
			return v
		}
		return match
	})
}

// walkAndSubstitute recurses through a generic JSON-like tree (the same
// shape Command.ToMap/FromMap produce), substituting placeholders in every
// string leaf. This is the "serialize, walk strings, deserialize" design
// spec.md §9 recommends, so the substitution logic knows nothing about
// which command kind or field it is touching.
func walkAndSubstitute(node any, values map[string]string) any {
	switch v := node.(type) {
	case string:
		return substitutePlaceholders(v, values)
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, val := range v {
			out[k] = walkAndSubstitute(val, values)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, val := range v {
			out[i] = walkAndSubstitute(val, values)
		}
		return out
	default:
		return v
	}
}

// SubstituteCommand deep-substitutes placeholders across every string field
// of cmd, including nested ones, per spec.md §4.D step 1.
func SubstituteCommand(cmd raps.Command, values map[string]string) (raps.Command, error) {
	substituted := walkAndSubstitute(cmd.ToMap(), values)
	raw, ok := substituted.(map[string]any)
	if !ok {
		return raps.Command{}, nil
	}
	return raps.FromMap(raw)
}
