package diferenco

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPatienceDiffAnchorsOnUniqueLines(t *testing.T) {
	// "func main" appears once on each side and anchors the alignment; the
	// surrounding noise lines recurse independently around it.
	old := []string{"package p", "import a", "func main", "x := 1", "end"}
	new := []string{"package p", "import b", "func main", "x := 2", "end"}
	ops := PatienceDiff(old, new)
	require.Equal(t, reconstruct(old, new, ops), new)

	var sawAnchor bool
	for _, op := range ops {
		if op.Kind == Equal && old[op.OldStart] == "func main" {
			sawAnchor = true
		}
	}
	require.True(t, sawAnchor)
}

func TestPatienceDiffEmptyInputs(t *testing.T) {
	require.Empty(t, PatienceDiff[string](nil, nil))
	require.Equal(t, []Opcode{{Kind: Insert, OldStart: 0, OldEnd: 0, NewStart: 0, NewEnd: 1}}, PatienceDiff[string](nil, []string{"a"}))
}

func TestUniqueAnchorsIgnoresRepeats(t *testing.T) {
	old := []string{"x", "a", "x"}
	new := []string{"x", "a", "x"}
	anchors := uniqueAnchors(old, new)
	require.Len(t, anchors, 1)
	require.Equal(t, "a", old[anchors[0].oldIdx])
}

func TestLongestIncreasingByNew(t *testing.T) {
	anchors := []anchor{{oldIdx: 0, newIdx: 2}, {oldIdx: 1, newIdx: 0}, {oldIdx: 2, newIdx: 1}}
	chain := longestIncreasingByNew(anchors)
	for i := 1; i < len(chain); i++ {
		require.Less(t, chain[i-1].newIdx, chain[i].newIdx)
	}
}

func TestPatienceStrategyDelegates(t *testing.T) {
	var s PatienceStrategy[string]
	old := []string{"a", "b"}
	new := []string{"a", "c"}
	require.Equal(t, PatienceDiff(old, new), s.Compute(old, new))
}
