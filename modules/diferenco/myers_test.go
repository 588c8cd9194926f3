package diferenco

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMyersDiffNeverEmitsModify(t *testing.T) {
	ops := MyersDiff([]string{"a", "b", "c", "d"}, []string{"a", "x", "y", "d"})
	for _, op := range ops {
		require.NotEqual(t, Modify, op.Kind)
	}
}

func TestMyersDiffEmptyInputs(t *testing.T) {
	require.Empty(t, MyersDiff[string](nil, nil))

	ops := MyersDiff[string](nil, []string{"a", "b"})
	require.Equal(t, []Opcode{{Kind: Insert, OldStart: 0, OldEnd: 0, NewStart: 0, NewEnd: 2}}, ops)

	ops = MyersDiff([]string{"a", "b"}, nil)
	require.Equal(t, []Opcode{{Kind: Delete, OldStart: 0, OldEnd: 2, NewStart: 0, NewEnd: 0}}, ops)
}

func TestMyersDiffIdentical(t *testing.T) {
	seq := []string{"a", "b", "c"}
	ops := MyersDiff(seq, seq)
	require.Equal(t, []Opcode{{Kind: Equal, OldStart: 0, OldEnd: 3, NewStart: 0, NewEnd: 3}}, ops)
}

func TestMyersStrategyDelegates(t *testing.T) {
	var s MyersStrategy[string]
	old := []string{"a", "b"}
	new := []string{"a", "c"}
	require.Equal(t, MyersDiff(old, new), s.Compute(old, new))
}
