package store

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// === Unit Tests: ValidateSelector ===

func TestValidate_StableDerivationPasses(t *testing.T) {
	s := newTestStore(t)

	err := s.ValidateSelector(func(st State) any { return st["count"] }, "site")
	require.NoError(t, err)
}

func TestValidate_StateSubtreePasses(t *testing.T) {
	s := newBindingStore(t)

	// Selecting a subtree returns the same reference on both invocations.
	err := s.ValidateSelector(selectUser, "site")
	require.NoError(t, err)
}

func TestValidate_FreshValuePerCallFails(t *testing.T) {
	s := newTestStore(t)

	// A new (even empty) object per call is not referentially stable.
	err := s.ValidateSelector(func(State) any { return map[string]any{} }, "site")
	var purity *PurityError
	require.ErrorAs(t, err, &purity)
	require.Contains(t, err.Error(), "not pure")
	require.Contains(t, err.Error(), "site")
}

func TestValidate_NonDeterministicValueFails(t *testing.T) {
	s := newTestStore(t)

	n := 0
	err := s.ValidateSelector(func(State) any { n++; return n }, "site")
	var purity *PurityError
	require.ErrorAs(t, err, &purity)
	require.Contains(t, err.Error(), "result diff")
}

func TestValidate_ExtraKeysPartitionSites(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.ValidateSelector(func(st State) any { return st["count"] }, "site", "a"))
	require.NoError(t, s.ValidateSelector(func(st State) any { return st["name"] }, "site", "b"))
}

func TestValidate_UsageErrors(t *testing.T) {
	var nilStore *Store
	var usage *UsageError
	require.ErrorAs(t, nilStore.ValidateSelector(Identity, "site"), &usage)

	s := newTestStore(t)
	require.ErrorAs(t, s.ValidateSelector(nil, "site"), &usage)
}

// === Unit Tests: purity checking on bound snapshots ===

func TestBinding_PurityCheckedSnapshot(t *testing.T) {
	s, err := New(
		WithInitialState(State{"count": 0}),
		WithPurityCheck(true),
	)
	require.NoError(t, err)

	good := s.Bind(func(st State) any { return st["count"] })
	defer good.Close()
	_, err = good.GetSnapshot()
	require.NoError(t, err)

	bad := s.Bind(func(State) any { return map[string]any{} })
	defer bad.Close()
	_, err = bad.GetSnapshot()
	var purity *PurityError
	require.ErrorAs(t, err, &purity)
}

func TestBinding_PurityCheckDisabledByDefault(t *testing.T) {
	s, err := New(WithInitialState(State{"count": 0}))
	require.NoError(t, err)

	// Fresh-but-equal values are tolerated when checking is off; the cache
	// still stabilizes them.
	b := s.Bind(func(State) any { return map[string]any{"fixed": 1} })
	defer b.Close()

	first, err := b.GetSnapshot()
	require.NoError(t, err)
	second, err := b.GetSnapshot()
	require.NoError(t, err)
	require.True(t, sameRef(first, second))
}
