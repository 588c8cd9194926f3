package ids

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewProducesDistinctIDs(t *testing.T) {
	require.NotEqual(t, New(), New())
}
