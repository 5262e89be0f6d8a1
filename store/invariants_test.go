package store

import (
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/zjrosen/strand/internal/structural"
)

// ============================================================================
// Property-Based Tests for Store Invariants
// ============================================================================

// TestProperty_MutateRevertRoundTrip verifies the round-trip law: applying
// any mutation descriptor and then its revert closure yields a state
// structurally equal to the original, given no intervening mutation.
func TestProperty_MutateRevertRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		initial := genState(t)
		s, err := New(WithInitialState(initial))
		require.NoError(t, err)

		before := s.GetSnapshot()

		var revert Revert
		if rapid.Bool().Draw(t, "useDraft") {
			key := rapid.StringMatching(`[a-c]`).Draw(t, "key")
			value := genLeaf(t)
			remove := rapid.Bool().Draw(t, "remove")
			revert, err = s.Mutate(func(draft State) {
				if remove {
					delete(draft, key)
				} else {
					draft[key] = value
				}
			})
		} else {
			revert, err = s.Patch(genState(t))
		}
		require.NoError(t, err)

		revert()
		require.True(t, structural.Equal(before, s.GetSnapshot()),
			"revert did not restore the original state")
	})
}

// TestProperty_SnapshotStableWithoutMutation verifies memoization
// stability: two snapshot reads with no intervening mutation are
// reference-equal for any selector over any state.
func TestProperty_SnapshotStableWithoutMutation(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s, err := New(WithInitialState(genState(t)))
		require.NoError(t, err)

		key := rapid.StringMatching(`[a-c]`).Draw(t, "key")
		b := s.Bind(func(st State) any { return st[key] })
		defer b.Close()

		first, err := b.GetSnapshot()
		require.NoError(t, err)
		second, err := b.GetSnapshot()
		require.NoError(t, err)
		require.True(t, sameRef(first, second))
	})
}

// TestProperty_CommitNeverMutatesPriorState verifies immutability: the
// state reference read before a mutation is structurally unchanged by it.
func TestProperty_CommitNeverMutatesPriorState(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s, err := New(WithInitialState(genState(t)))
		require.NoError(t, err)

		held := s.GetSnapshot()
		witness := structural.MustClone(held)

		_, err = s.Patch(genState(t))
		require.NoError(t, err)
		_, err = s.Mutate(func(draft State) { draft["k"] = 1 })
		require.NoError(t, err)

		require.True(t, structural.Equal(witness, held),
			"a commit mutated a previously returned state value")
	})
}

func genState(t *rapid.T) State {
	n := rapid.IntRange(0, 3).Draw(t, "fields")
	m := make(State, n)
	for i := 0; i < n; i++ {
		key := rapid.StringMatching(`[a-c]`).Draw(t, "field")
		m[key] = genLeaf(t)
	}
	return m
}

func genLeaf(t *rapid.T) any {
	switch rapid.IntRange(0, 3).Draw(t, "leafKind") {
	case 0:
		return rapid.IntRange(-100, 100).Draw(t, "int")
	case 1:
		return rapid.StringMatching(`[a-z]{0,4}`).Draw(t, "string")
	case 2:
		n := rapid.IntRange(0, 3).Draw(t, "len")
		list := make([]any, n)
		for i := range list {
			list[i] = rapid.IntRange(0, 9).Draw(t, "elem")
		}
		return list
	default:
		return map[string]any{
			"v": rapid.IntRange(0, 9).Draw(t, "nested"),
		}
	}
}
