package patch

import (
	"github.com/zjrosen/strand/internal/log"
	"github.com/zjrosen/strand/internal/structural"
)

// Apply replays patches onto a deep clone of state and returns the result.
// The input state is never mutated.
//
// Apply is tolerant by design: a patch whose parent path no longer exists,
// or whose index is out of range, is skipped. This is what gives revert
// closures their best-effort semantics when further mutations landed after
// the patches were captured.
func Apply(state map[string]any, patches []Patch) map[string]any {
	out := structural.MustClone(state).(map[string]any)
	for _, p := range patches {
		if !applyOne(out, p) {
			log.Debug(log.CatPatch, "skipping inapplicable patch", "patch", p.String())
		}
	}
	return out
}

// applyOne applies a single patch in place. Returns false when the target
// path cannot be resolved against the current structure.
func applyOne(root map[string]any, p Patch) bool {
	if len(p.Path) == 0 {
		return false
	}

	parent, ok := resolveParent(root, p.Path)
	if !ok {
		return false
	}
	last := p.Path[len(p.Path)-1]

	// Slices need their parent re-linked when the length changes, so
	// resolveParent hands back a slot writer instead of the raw slice.
	switch target := parent.(type) {
	case map[string]any:
		return applyToMap(target, last, p)
	case *sliceSlot:
		return applyToSlice(target, last, p)
	default:
		return false
	}
}

// sliceSlot lets a patch grow or shrink a slice and write the new header
// back into the container that holds it.
type sliceSlot struct {
	get func() []any
	set func([]any)
}

// resolveParent walks to the container holding the final path segment.
func resolveParent(root map[string]any, path []string) (any, bool) {
	var current any = root
	var slot *sliceSlot

	for _, seg := range path[:len(path)-1] {
		seg := seg
		switch c := current.(type) {
		case map[string]any:
			next, ok := c[seg]
			if !ok {
				return nil, false
			}
			current = next
			slot = &sliceSlot{
				get: func() []any { v, _ := c[seg].([]any); return v },
				set: func(s []any) { c[seg] = s },
			}
		case []any:
			i, ok := parseIndex(seg)
			if !ok || i >= len(c) {
				return nil, false
			}
			current = c[i]
			slot = &sliceSlot{
				get: func() []any { v, _ := c[i].([]any); return v },
				set: func(s []any) { c[i] = s },
			}
		default:
			return nil, false
		}
	}

	switch current.(type) {
	case map[string]any:
		return current, true
	case []any:
		if slot == nil {
			return nil, false
		}
		return slot, true
	default:
		return nil, false
	}
}

func applyToMap(target map[string]any, key string, p Patch) bool {
	switch p.Op {
	case OpAdd, OpReplace:
		target[key] = structural.MustClone(p.Value)
		return true
	case OpRemove:
		if _, ok := target[key]; !ok {
			return false
		}
		delete(target, key)
		return true
	default:
		return false
	}
}

func applyToSlice(slot *sliceSlot, seg string, p Patch) bool {
	s := slot.get()
	i, ok := parseIndex(seg)
	if !ok {
		return false
	}

	switch p.Op {
	case OpAdd:
		value := structural.MustClone(p.Value)
		if i >= len(s) {
			slot.set(append(s, value))
		} else {
			s = append(s[:i], append([]any{value}, s[i:]...)...)
			slot.set(s)
		}
		return true
	case OpReplace:
		if i >= len(s) {
			return false
		}
		s[i] = structural.MustClone(p.Value)
		return true
	case OpRemove:
		if i >= len(s) {
			return false
		}
		slot.set(append(s[:i], s[i+1:]...))
		return true
	default:
		return false
	}
}
