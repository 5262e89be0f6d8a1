package store

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/zjrosen/strand/internal/memo"
)

// ValidateSelector checks f for purity against the store's current state.
// The result slots under (id, keys) in the store cache, so callers can
// partition validation sites the same way binding consumers partition
// their snapshots.
func (s *Store) ValidateSelector(f Selector, id string, keys ...string) error {
	if s == nil {
		return &UsageError{Op: "validate", Reason: "no store instance"}
	}
	if f == nil {
		return &UsageError{Op: "validate", Reason: "nil selector"}
	}
	return validateSelector(s.current(), f, s.cache, id, keys...)
}

// validateSelector detects non-deterministic derivation functions by double
// invocation: f is called twice with identical state, each result is passed
// through the cache under the same (id, keys) path, and the two results are
// compared for strict identity. A selector that fabricates a fresh value on
// every call fails here even when the values are structurally equal, since
// the contract for selectors is identical output for identical input.
func validateSelector(state State, f Selector, cache *memo.Cache, id string, keys ...string) error {
	r1 := f(state)
	cache.Store(r1, id, keys...)
	r2 := f(state)
	cache.Store(r2, id, keys...)

	if identical(r1, r2) {
		return nil
	}
	return &PurityError{
		SelectorID: strings.Join(append([]string{id}, keys...), "/"),
		Diff:       renderDiff(r1, r2),
	}
}

// identical is the Go rendering of strict identity: reference kinds compare
// by backing pointer, comparable scalars by ==, everything else is distinct.
func identical(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	av, bv := reflect.ValueOf(a), reflect.ValueOf(b)
	if av.Kind() != bv.Kind() {
		return false
	}

	switch av.Kind() {
	case reflect.Map, reflect.Pointer, reflect.Chan, reflect.Func, reflect.UnsafePointer:
		return av.Pointer() == bv.Pointer()
	case reflect.Slice:
		return av.Pointer() == bv.Pointer() && av.Len() == bv.Len()
	default:
		if !av.Comparable() || !bv.Comparable() {
			return false
		}
		return a == b
	}
}

// renderDiff produces a readable diff of the two selector results for the
// purity error message.
func renderDiff(a, b any) string {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(renderValue(a), renderValue(b), false)

	if len(diffs) == 1 && diffs[0].Type == diffmatchpatch.DiffEqual {
		return "  (results are structurally equal but not the same reference)\n"
	}

	var sb strings.Builder
	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			fmt.Fprintf(&sb, "  -%s\n", d.Text)
		case diffmatchpatch.DiffInsert:
			fmt.Fprintf(&sb, "  +%s\n", d.Text)
		}
	}
	return sb.String()
}

func renderValue(v any) string {
	out, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%#v", v)
	}
	return string(out)
}
