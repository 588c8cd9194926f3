package diferenco

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// reconstruct replays opcodes against old and new to rebuild new byte-for-byte,
// the round-trip law every strategy must satisfy.
func reconstruct(old, new []string, ops []Opcode) []string {
	var out []string
	for _, op := range ops {
		switch op.Kind {
		case Equal:
			out = append(out, old[op.OldStart:op.OldEnd]...)
		case Delete:
			// contributes nothing to new
		case Insert:
			out = append(out, new[op.NewStart:op.NewEnd]...)
		case Modify:
			out = append(out, new[op.NewStart:op.NewEnd]...)
		}
	}
	return out
}

func allStrategies() map[string]Strategy[string] {
	return map[string]Strategy[string]{
		"myers":    MyersStrategy[string]{},
		"patience": PatienceStrategy[string]{},
		"minimal":  MinimalStrategy[string]{},
	}
}

func TestRoundTripAcrossStrategies(t *testing.T) {
	cases := []struct {
		name     string
		old, new []string
	}{
		{"identical", []string{"a", "b", "c"}, []string{"a", "b", "c"}},
		{"myers-scenario", []string{"a", "b", "c"}, []string{"a", "x", "c"}},
		{"empty-old", nil, []string{"a", "b"}},
		{"empty-new", []string{"a", "b"}, nil},
		{"both-empty", nil, nil},
		{"full-replace", []string{"a", "b"}, []string{"x", "y", "z"}},
		{"shuffle", []string{"a", "b", "c", "d"}, []string{"d", "c", "b", "a"}},
		{"duplicates", []string{"x", "a", "x", "b", "x"}, []string{"x", "b", "x", "a", "x"}},
	}
	for _, tc := range cases {
		for name, strat := range allStrategies() {
			t.Run(tc.name+"/"+name, func(t *testing.T) {
				ops := strat.Compute(tc.old, tc.new)
				got := reconstruct(tc.old, tc.new, ops)
				if len(tc.new) == 0 {
					require.Empty(t, got)
				} else {
					require.Equal(t, tc.new, got)
				}
			})
		}
	}
}

func TestMyersScenario(t *testing.T) {
	old := []string{"a", "b", "c"}
	new := []string{"a", "x", "c"}
	ops := MyersDiff(old, new)

	require.Equal(t, reconstruct(old, new, ops), new)

	var kinds []OpKind
	for _, op := range ops {
		kinds = append(kinds, op.Kind)
	}
	require.Contains(t, [][]OpKind{
		{Equal, Delete, Insert, Equal},
		{Equal, Modify, Equal},
	}, kinds)
}

func TestMinimalPrefersModifyOnTie(t *testing.T) {
	ops := MinimalDiff([]string{"a"}, []string{"b"})
	require.Len(t, ops, 1)
	require.Equal(t, Modify, ops[0].Kind)
}

func TestPatienceFallsBackToMyersWithoutAnchors(t *testing.T) {
	// every line repeats, so no unique anchors exist anywhere.
	old := []string{"x", "x", "x"}
	new := []string{"x", "x"}
	ops := PatienceDiff(old, new)
	require.Equal(t, reconstruct(old, new, ops), new)
}

func TestCoalesceMergesAdjacentSameKind(t *testing.T) {
	ops := coalesce([]Opcode{
		{Kind: Equal, OldStart: 0, OldEnd: 1, NewStart: 0, NewEnd: 1},
		{Kind: Equal, OldStart: 1, OldEnd: 2, NewStart: 1, NewEnd: 2},
		{Kind: Delete, OldStart: 2, OldEnd: 3, NewStart: 2, NewEnd: 2},
	})
	require.Len(t, ops, 2)
	require.Equal(t, Opcode{Kind: Equal, OldStart: 0, OldEnd: 2, NewStart: 0, NewEnd: 2}, ops[0])
}

func TestCommonPrefixSuffixLength(t *testing.T) {
	require.Equal(t, 2, commonPrefixLength([]string{"a", "b", "c"}, []string{"a", "b", "x"}))
	require.Equal(t, 1, commonSuffixLength([]string{"a", "b", "c"}, []string{"x", "y", "c"}))
	require.Equal(t, 0, commonPrefixLength([]string{"a"}, []string{"b"}))
}
