package detect

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/antgroup/linage/modules/plumbing"
	"github.com/antgroup/linage/pkg/linage/object"
	"github.com/antgroup/linage/pkg/linage/scan"
	"github.com/antgroup/linage/pkg/linage/watch"
	"github.com/stretchr/testify/require"
)

func newDetector(t *testing.T, root string) *Detector {
	t.Helper()
	h, err := plumbing.NewHasher("SHA256")
	require.NoError(t, err)
	s := scan.New(root, nil, h)
	return New(s)
}

func TestScanMarksNewFile(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("hi"), 0o644))

	d := newDetector(t, root)
	require.NoError(t, d.Scan(context.Background(), map[string]object.FileRecord{}, 0, nil))

	require.Equal(t, New, d.Dirty()["a.txt"])
}

func TestScanMarksModifiedFile(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("hi"), 0o644))

	head := map[string]object.FileRecord{"a.txt": {Path: "a.txt", Digest: plumbing.NewDigest("deadbeef")}}
	d := newDetector(t, root)
	require.NoError(t, d.Scan(context.Background(), head, 0, nil))

	require.Equal(t, Modified, d.Dirty()["a.txt"])
}

func TestScanLeavesUnchangedFileClean(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("hi"), 0o644))

	h, err := plumbing.NewHasher("SHA256")
	require.NoError(t, err)
	digest := h.HashText("hi")

	head := map[string]object.FileRecord{"a.txt": {Path: "a.txt", Digest: digest}}
	d := newDetector(t, root)
	require.NoError(t, d.Scan(context.Background(), head, 0, nil))

	_, dirty := d.Dirty()["a.txt"]
	require.False(t, dirty)
}

func TestScanMarksDeletedFileMissingOnDisk(t *testing.T) {
	root := t.TempDir()
	head := map[string]object.FileRecord{"gone.txt": {Path: "gone.txt", Digest: plumbing.NewDigest("abc")}}

	d := newDetector(t, root)
	require.NoError(t, d.Scan(context.Background(), head, 0, nil))

	require.Equal(t, Deleted, d.Dirty()["gone.txt"])
}

func TestScanReportsProgressAcrossPartitions(t *testing.T) {
	root := t.TempDir()
	for i := 0; i < 10; i++ {
		require.NoError(t, os.WriteFile(filepath.Join(root, string(rune('a'+i))+".txt"), []byte("x"), 0o644))
	}

	d := newDetector(t, root)
	var calls int
	require.NoError(t, d.Scan(context.Background(), map[string]object.FileRecord{}, 3, func(n int) {
		calls++
	}))
	require.Greater(t, calls, 0)
}

func TestOnWatchEventUpdatesDirtyImmediately(t *testing.T) {
	d := newDetector(t, t.TempDir())

	d.OnWatchEvent(watch.Event{Path: "new.txt", Kind: watch.Created})
	require.Equal(t, New, d.Dirty()["new.txt"])

	d.OnWatchEvent(watch.Event{Path: "new.txt", Kind: watch.Modified})
	require.Equal(t, Modified, d.Dirty()["new.txt"])

	d.OnWatchEvent(watch.Event{Path: "new.txt", Kind: watch.Deleted})
	require.Equal(t, Deleted, d.Dirty()["new.txt"])
}

func TestClearRemovesFromDirtySet(t *testing.T) {
	d := newDetector(t, t.TempDir())
	d.OnWatchEvent(watch.Event{Path: "f.txt", Kind: watch.Created})
	d.Clear("f.txt")

	_, dirty := d.Dirty()["f.txt"]
	require.False(t, dirty)
}

func TestHasConflictMissingFile(t *testing.T) {
	d := newDetector(t, t.TempDir())
	require.True(t, d.HasConflict("a.txt", "abc", "", false))
}

func TestHasConflictDigestMismatch(t *testing.T) {
	d := newDetector(t, t.TempDir())
	require.True(t, d.HasConflict("a.txt", "abc", "def", true))
	require.False(t, d.HasConflict("a.txt", "abc", "abc", true))
}

func TestScanRespectsCancellation(t *testing.T) {
	root := t.TempDir()
	for i := 0; i < 20; i++ {
		require.NoError(t, os.WriteFile(filepath.Join(root, string(rune('a'+i))+".txt"), []byte("x"), 0o644))
	}

	d := newDetector(t, root)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := d.Scan(ctx, map[string]object.FileRecord{}, 0, nil)
	require.Error(t, err)
}
