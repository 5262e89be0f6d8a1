package store

import (
	"fmt"
	"strings"
)

// UsageError reports an operation invoked outside its required scope, such
// as mutating through a nil store or passing a nil mutation descriptor.
// Fatal to the calling operation; never retried.
type UsageError struct {
	Op     string
	Reason string
}

func (e *UsageError) Error() string {
	return fmt.Sprintf("store: %s: %s", e.Op, e.Reason)
}

// PurityError reports a derivation function found non-deterministic by
// double invocation. A selector must return the identical result for
// identical input; one that fabricates a fresh value per call defeats
// memoization and can drive the host into an unbounded re-render loop.
type PurityError struct {
	SelectorID string
	Diff       string
}

func (e *PurityError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "store: selector %s is not pure: two invocations with identical state returned different results\n", e.SelectorID)
	b.WriteString("selectors must be deterministic and referentially stable, e.g.\n")
	b.WriteString("  good: func(s State) any { return s[\"count\"] }\n")
	b.WriteString("  bad:  func(s State) any { return map[string]any{} } // fresh value per call\n")
	if e.Diff != "" {
		b.WriteString("result diff:\n")
		b.WriteString(e.Diff)
	}
	return b.String()
}
