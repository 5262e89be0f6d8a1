package patch

import (
	"fmt"

	"github.com/zjrosen/strand/internal/structural"
)

// Merge produces the state resulting from a partial replacement mapping.
// Each replacement value is deep-cloned before assignment so caller-owned
// objects are never aliased into state. Fields absent from partial are
// preserved untouched. Returns the new state plus forward/inverse patches.
func Merge(state, partial map[string]any) (map[string]any, []Patch, []Patch, error) {
	next := structural.MustClone(state).(map[string]any)

	for key, value := range partial {
		cloned, err := structural.Clone(value)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("partial value for %q: %w", key, err)
		}
		next[key] = cloned
	}

	forward, inverse := DiffMaps(state, next)
	return next, forward, inverse, nil
}

// ApplyDraft invokes fn with a mutable draft cloned from state. Edits to the
// draft look like in-place mutation; maps and slices inside it are
// first-class mutable containers. The original state is never touched. The
// resulting state is the draft itself, re-validated as clonable so a
// mutation that smuggled in an unreproducible value (a func, a chan) fails
// loudly instead of corrupting state.
func ApplyDraft(state map[string]any, fn func(draft map[string]any)) (map[string]any, []Patch, []Patch, error) {
	draft := structural.MustClone(state).(map[string]any)
	fn(draft)

	// Re-clone to verify every value the draft now holds is structurally
	// sound, and to cut any aliases fn may have kept to draft internals.
	validated, err := structural.Clone(draft)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("draft mutation produced invalid state: %w", err)
	}
	next := validated.(map[string]any)

	forward, inverse := DiffMaps(state, next)
	return next, forward, inverse, nil
}
