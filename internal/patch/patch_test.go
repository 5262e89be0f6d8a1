package patch

import (
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/zjrosen/strand/internal/structural"
)

func state() map[string]any {
	return map[string]any{
		"count": 0,
		"name":  "a",
		"user": map[string]any{
			"email": "a@example.com",
			"tags":  []any{"x", "y"},
		},
	}
}

// === Unit Tests: DiffMaps ===

func TestDiffMaps_NoChanges(t *testing.T) {
	forward, inverse := DiffMaps(state(), state())
	require.Empty(t, forward)
	require.Empty(t, inverse)
}

func TestDiffMaps_ScalarReplace(t *testing.T) {
	old := state()
	new := state()
	new["count"] = 5

	forward, inverse := DiffMaps(old, new)
	require.Len(t, forward, 1)
	require.Equal(t, OpReplace, forward[0].Op)
	require.Equal(t, []string{"count"}, forward[0].Path)
	require.Equal(t, 5, forward[0].Value)

	require.Len(t, inverse, 1)
	require.Equal(t, 0, inverse[0].Value)
}

func TestDiffMaps_AddAndRemove(t *testing.T) {
	old := map[string]any{"a": 1}
	new := map[string]any{"b": 2}

	forward, inverse := DiffMaps(old, new)
	require.True(t, structural.Equal(new, Apply(old, forward)))
	require.True(t, structural.Equal(old, Apply(new, inverse)))
}

func TestDiffMaps_NestedPath(t *testing.T) {
	old := state()
	new := state()
	new["user"].(map[string]any)["email"] = "b@example.com"

	forward, _ := DiffMaps(old, new)
	require.Len(t, forward, 1)
	require.Equal(t, []string{"user", "email"}, forward[0].Path)
}

func TestDiffMaps_SliceGrowAndShrink(t *testing.T) {
	old := map[string]any{"tags": []any{"x"}}
	grown := map[string]any{"tags": []any{"x", "y", "z"}}

	forward, inverse := DiffMaps(old, grown)
	require.True(t, structural.Equal(grown, Apply(old, forward)))
	require.True(t, structural.Equal(old, Apply(grown, inverse)))

	forward, inverse = DiffMaps(grown, old)
	require.True(t, structural.Equal(old, Apply(grown, forward)))
	require.True(t, structural.Equal(grown, Apply(old, inverse)))
}

// === Unit Tests: Merge ===

func TestMerge_PreservesUnrelatedFields(t *testing.T) {
	old := map[string]any{"count": 0, "name": "a"}

	next, _, _, err := Merge(old, map[string]any{"count": 10})
	require.NoError(t, err)
	require.Equal(t, 10, next["count"])
	require.Equal(t, "a", next["name"])
	require.Equal(t, 0, old["count"])
}

func TestMerge_ClonesPartialValues(t *testing.T) {
	caller := map[string]any{"nested": 1}

	next, _, _, err := Merge(map[string]any{}, map[string]any{"obj": caller})
	require.NoError(t, err)

	// Mutating the caller's object must not reach into state.
	caller["nested"] = 2
	require.Equal(t, 1, next["obj"].(map[string]any)["nested"])
}

func TestMerge_InverseRestores(t *testing.T) {
	old := state()
	next, _, inverse, err := Merge(old, map[string]any{"count": 10, "extra": true})
	require.NoError(t, err)
	require.True(t, structural.Equal(old, Apply(next, inverse)))
}

func TestMerge_RejectsUnsupportedValues(t *testing.T) {
	_, _, _, err := Merge(map[string]any{}, map[string]any{"f": func() {}})
	require.Error(t, err)
	var unsupported *structural.UnsupportedValueError
	require.ErrorAs(t, err, &unsupported)
}

// === Unit Tests: ApplyDraft ===

func TestApplyDraft_OriginalUntouched(t *testing.T) {
	old := state()
	next, forward, inverse, err := ApplyDraft(old, func(draft map[string]any) {
		draft["count"] = 5
		draft["user"].(map[string]any)["tags"] = append(
			draft["user"].(map[string]any)["tags"].([]any), "z")
	})
	require.NoError(t, err)

	require.Equal(t, 0, old["count"])
	require.Len(t, old["user"].(map[string]any)["tags"], 2)
	require.Equal(t, 5, next["count"])
	require.Len(t, next["user"].(map[string]any)["tags"], 3)
	require.NotEmpty(t, forward)
	require.True(t, structural.Equal(old, Apply(next, inverse)))
}

func TestApplyDraft_DeleteKey(t *testing.T) {
	old := state()
	next, _, inverse, err := ApplyDraft(old, func(draft map[string]any) {
		delete(draft, "name")
	})
	require.NoError(t, err)

	_, exists := next["name"]
	require.False(t, exists)
	require.True(t, structural.Equal(old, Apply(next, inverse)))
}

func TestApplyDraft_FailsLoudlyOnInvalidValue(t *testing.T) {
	_, _, _, err := ApplyDraft(state(), func(draft map[string]any) {
		draft["cb"] = func() {}
	})
	require.Error(t, err)
	var unsupported *structural.UnsupportedValueError
	require.ErrorAs(t, err, &unsupported)
}

// === Unit Tests: Apply tolerance ===

func TestApply_SkipsMissingParents(t *testing.T) {
	current := map[string]any{"a": 1}
	patches := []Patch{
		{Op: OpReplace, Path: []string{"gone", "deep"}, Value: 2},
		{Op: OpReplace, Path: []string{"a"}, Value: 3},
	}

	out := Apply(current, patches)
	require.Equal(t, 3, out["a"])
	_, exists := out["gone"]
	require.False(t, exists)
}

func TestApply_SkipsOutOfRangeIndices(t *testing.T) {
	current := map[string]any{"tags": []any{"x"}}
	out := Apply(current, []Patch{
		{Op: OpReplace, Path: []string{"tags", "5"}, Value: "y"},
		{Op: OpRemove, Path: []string{"tags", "9"}},
	})
	require.True(t, structural.Equal(current, out))
}

// === Property Tests ===

// TestProperty_DiffApplyRoundTrip verifies for arbitrary state pairs that
// forward patches transform old into new and inverse patches undo them.
func TestProperty_DiffApplyRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		old := genMap(t, 3)
		new := genMap(t, 3)

		forward, inverse := DiffMaps(old, new)
		require.True(t, structural.Equal(new, Apply(old, forward)))
		require.True(t, structural.Equal(old, Apply(new, inverse)))
	})
}

func genMap(t *rapid.T, depth int) map[string]any {
	n := rapid.IntRange(0, 4).Draw(t, "keys")
	m := make(map[string]any, n)
	for i := 0; i < n; i++ {
		key := rapid.StringMatching(`[a-c]`).Draw(t, "key")
		m[key] = genValue(t, depth)
	}
	return m
}

func genValue(t *rapid.T, depth int) any {
	choices := 3
	if depth > 0 {
		choices = 5
	}
	switch rapid.IntRange(0, choices-1).Draw(t, "kind") {
	case 0:
		return rapid.IntRange(-5, 5).Draw(t, "int")
	case 1:
		return rapid.StringMatching(`[a-z]{0,4}`).Draw(t, "string")
	case 2:
		return rapid.Bool().Draw(t, "bool")
	case 3:
		return genMap(t, depth-1)
	default:
		n := rapid.IntRange(0, 3).Draw(t, "len")
		list := make([]any, n)
		for i := range list {
			list[i] = genValue(t, depth-1)
		}
		return list
	}
}
