package watch

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// eventKey records each (path, kind) pair on its own, so a later event on
// the same path (a write after a create) does not hide an earlier one.
type eventKey struct {
	path string
	kind EventKind
}

func waitFor(t *testing.T, events *sync.Map, path string, kind EventKind) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if v, ok := events.Load(eventKey{path, kind}); ok && v.(Event).Kind == kind {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s on %s", kind, path)
}

func TestWatcherDetectsCreateAndWrite(t *testing.T) {
	root := t.TempDir()
	w, err := New(false)
	require.NoError(t, err)
	defer w.Stop()
	require.NoError(t, w.Add(root))

	var events sync.Map
	w.Start(func(ev Event) {
		events.Store(eventKey{filepath.Clean(ev.Path), ev.Kind}, ev)
	})

	target := filepath.Join(root, "a.txt")
	require.NoError(t, os.WriteFile(target, []byte("hello"), 0o644))
	waitFor(t, &events, target, Created)
	waitFor(t, &events, target, Modified)
}

func TestWatcherDetectsRemove(t *testing.T) {
	root := t.TempDir()
	target := filepath.Join(root, "b.txt")
	require.NoError(t, os.WriteFile(target, []byte("x"), 0o644))

	w, err := New(false)
	require.NoError(t, err)
	defer w.Stop()
	require.NoError(t, w.Add(root))

	var events sync.Map
	w.Start(func(ev Event) {
		events.Store(eventKey{filepath.Clean(ev.Path), ev.Kind}, ev)
	})

	require.NoError(t, os.Remove(target))
	waitFor(t, &events, target, Deleted)
}

func TestWatcherRecursiveWatchesSubdirectories(t *testing.T) {
	root := t.TempDir()
	sub := filepath.Join(root, "sub")
	require.NoError(t, os.Mkdir(sub, 0o755))

	w, err := New(true)
	require.NoError(t, err)
	defer w.Stop()
	require.NoError(t, w.Add(root))

	var events sync.Map
	w.Start(func(ev Event) {
		events.Store(eventKey{filepath.Clean(ev.Path), ev.Kind}, ev)
	})

	target := filepath.Join(sub, "c.txt")
	require.NoError(t, os.WriteFile(target, []byte("y"), 0o644))
	waitFor(t, &events, target, Created)
}

func TestWatcherStopIsIdempotent(t *testing.T) {
	w, err := New(false)
	require.NoError(t, err)
	require.NoError(t, w.Stop())
	require.NoError(t, w.Stop())
}

func TestEventKindString(t *testing.T) {
	require.Equal(t, "CREATED", Created.String())
	require.Equal(t, "MODIFIED", Modified.String())
	require.Equal(t, "DELETED", Deleted.String())
	require.Equal(t, "RENAMED", Renamed.String())
}
