package patch

import (
	"sort"

	"github.com/zjrosen/strand/internal/structural"
)

// DiffMaps computes the ordered structural edits that turn old into new,
// together with their exact inverses. Applying forward to old yields new;
// applying inverse to new reconstructs old. Neither input is mutated, and
// patch values reference the input structures rather than copies: callers
// that hold on to patches must not mutate the states they were diffed from
// (the store never does — committed states are immutable).
func DiffMaps(old, new map[string]any) (forward, inverse []Patch) {
	return diffMaps(old, new, nil)
}

func diffMaps(old, new map[string]any, path []string) (forward, inverse []Patch) {
	keys := make([]string, 0, len(old)+len(new))
	seen := make(map[string]struct{}, len(old)+len(new))
	for k := range old {
		keys = append(keys, k)
		seen[k] = struct{}{}
	}
	for k := range new {
		if _, ok := seen[k]; !ok {
			keys = append(keys, k)
		}
	}
	// Deterministic patch order keeps the revert law easy to reason about.
	sort.Strings(keys)

	for _, k := range keys {
		oldV, inOld := old[k]
		newV, inNew := new[k]
		p := childPath(path, k)

		switch {
		case !inOld:
			forward = append(forward, Patch{Op: OpAdd, Path: p, Value: newV})
			inverse = append(inverse, Patch{Op: OpRemove, Path: p})

		case !inNew:
			forward = append(forward, Patch{Op: OpRemove, Path: p})
			inverse = append(inverse, Patch{Op: OpAdd, Path: p, Value: oldV})

		default:
			f, i := diffValues(oldV, newV, p)
			forward = append(forward, f...)
			inverse = append(inverse, i...)
		}
	}
	return forward, inverse
}

func diffValues(oldV, newV any, path []string) (forward, inverse []Patch) {
	if oldMap, ok := oldV.(map[string]any); ok {
		if newMap, ok := newV.(map[string]any); ok {
			return diffMaps(oldMap, newMap, path)
		}
	}
	if oldList, ok := oldV.([]any); ok {
		if newList, ok := newV.([]any); ok {
			return diffSlices(oldList, newList, path)
		}
	}
	if structural.Equal(oldV, newV) {
		return nil, nil
	}
	forward = []Patch{{Op: OpReplace, Path: path, Value: newV}}
	inverse = []Patch{{Op: OpReplace, Path: path, Value: oldV}}
	return forward, inverse
}

func diffSlices(old, new []any, path []string) (forward, inverse []Patch) {
	common := len(old)
	if len(new) < common {
		common = len(new)
	}

	for i := 0; i < common; i++ {
		f, inv := diffValues(old[i], new[i], childPath(path, indexSegment(i)))
		forward = append(forward, f...)
		inverse = append(inverse, inv...)
	}

	// Grown tail: forward appends in ascending order, inverse removes in
	// descending order so indices stay valid during sequential replay.
	for i := common; i < len(new); i++ {
		forward = append(forward, Patch{Op: OpAdd, Path: childPath(path, indexSegment(i)), Value: new[i]})
	}
	for i := len(new) - 1; i >= common; i-- {
		inverse = append(inverse, Patch{Op: OpRemove, Path: childPath(path, indexSegment(i))})
	}

	// Shrunk tail: forward removes descending, inverse re-adds ascending.
	for i := len(old) - 1; i >= common; i-- {
		forward = append(forward, Patch{Op: OpRemove, Path: childPath(path, indexSegment(i))})
	}
	for i := common; i < len(old); i++ {
		inverse = append(inverse, Patch{Op: OpAdd, Path: childPath(path, indexSegment(i)), Value: old[i]})
	}

	return forward, inverse
}
