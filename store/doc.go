// Package store implements a reactive state container with fine-grained
// subscription and memoized derived values.
//
// A Store owns a single structured state value. Writes go through Mutate
// (draft-function edits) or Patch (partial replacement maps); both commit a
// brand-new state value, hand back a best-effort revert closure, and notify
// every subscriber synchronously. Reads go through Bind, which ties a
// selector to the subscription system and memoizes its output so
// structurally-equal recomputations return the identical reference — the
// host render loop compares references and skips re-renders that would
// change nothing.
//
// A Binding exposes the pull-based external-store triple (Subscribe,
// GetSnapshot, GetServerSnapshot) the host scheduler consumes. Shared
// returns registry-backed instances that survive hot-reload style
// re-construction under the same identifier.
package store
