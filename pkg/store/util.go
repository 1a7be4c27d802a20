package store

import "slices"

// Accumulate appends v to existing unless it is empty or already present.
// existing is never modified.
func Accumulate(existing []string, v string) []string {
	out := slices.Clone(existing)
	if out == nil {
		out = []string{}
	}
	if v == "" || slices.Contains(out, v) {
		return out
	}
	return append(out, v)
}

// MergeProperties overlays update onto existing: keys in update win, other
// existing keys are kept.
func MergeProperties(existing, update map[string]any) map[string]any {
	out := make(map[string]any, len(existing)+len(update))
	for k, v := range existing {
		out[k] = v
	}
	for k, v := range update {
		out[k] = v
	}
	return out
}
