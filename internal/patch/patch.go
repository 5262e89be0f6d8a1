// Package patch implements the immutable update engine. A mutation is
// described either as a partial replacement map or as a function editing a
// draft copy of the state; both produce a new state value plus forward and
// inverse patch sets, without mutating the original. Inverse patches applied
// to the new state structurally reconstruct the old one.
package patch

import (
	"fmt"
	"strconv"
	"strings"
)

// Op is a structural edit operation kind.
type Op string

const (
	OpAdd     Op = "add"
	OpReplace Op = "replace"
	OpRemove  Op = "remove"
)

// Patch is a single structural edit. Path segments are map keys; slice
// indices are rendered as decimal segments.
type Patch struct {
	Op    Op
	Path  []string
	Value any
}

func (p Patch) String() string {
	if p.Op == OpRemove {
		return fmt.Sprintf("%s /%s", p.Op, strings.Join(p.Path, "/"))
	}
	return fmt.Sprintf("%s /%s = %v", p.Op, strings.Join(p.Path, "/"), p.Value)
}

// indexSegment renders a slice index as a path segment.
func indexSegment(i int) string {
	return strconv.Itoa(i)
}

// parseIndex interprets a path segment as a slice index.
func parseIndex(seg string) (int, bool) {
	i, err := strconv.Atoi(seg)
	if err != nil || i < 0 {
		return 0, false
	}
	return i, true
}

// childPath appends seg to path without sharing the backing array with
// sibling branches of the diff walk.
func childPath(path []string, seg string) []string {
	out := make([]string, len(path)+1)
	copy(out, path)
	out[len(path)] = seg
	return out
}
