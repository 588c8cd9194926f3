package repo

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConfigPathJoinsDotDir(t *testing.T) {
	got := configPath("/srv/work")
	require.Equal(t, filepath.Join("/srv/work", ".linage", "config.toml"), got)
}

func TestWorkingTreeReaderMissingFileReportsAbsent(t *testing.T) {
	root := t.TempDir()
	wt := workingTreeReader{root: root}

	text, present, err := wt.ReadLocal("nope.txt")
	require.NoError(t, err)
	require.False(t, present)
	require.Empty(t, text)
}
