package recovery

import (
	"context"
	"testing"
	"time"

	"github.com/antgroup/linage/pkg/linage/object"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	branches map[string]*object.Branch
}

func newFakeStore() *fakeStore {
	return &fakeStore{branches: map[string]*object.Branch{}}
}

func (f *fakeStore) GetBranch(ctx context.Context, name string) (*object.Branch, error) {
	return f.branches[name], nil
}

func (f *fakeStore) SaveBranch(ctx context.Context, b *object.Branch) error {
	cp := *b
	f.branches[b.Name] = &cp
	return nil
}

func TestAppendAndReadRoundTrip(t *testing.T) {
	root := t.TempDir()
	m := New(root)

	e := Entry{Timestamp: time.Now(), Old: "a1", New: "b2", Action: "commit"}
	require.NoError(t, m.Append("main", e))

	entries, err := m.Read("main")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "a1", entries[0].Old)
	require.Equal(t, "b2", entries[0].New)
	require.Equal(t, "commit", entries[0].Action)
}

func TestAppendIsAppendOnly(t *testing.T) {
	root := t.TempDir()
	m := New(root)

	require.NoError(t, m.Append("main", Entry{Timestamp: time.Now(), New: "c1", Action: "commit"}))
	require.NoError(t, m.Append("main", Entry{Timestamp: time.Now(), Old: "c1", New: "c2", Action: "commit"}))

	entries, err := m.Read("main")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, "c1", entries[0].New)
	require.Equal(t, "c2", entries[1].New)
}

func TestReadMissingLogReturnsEmpty(t *testing.T) {
	m := New(t.TempDir())
	entries, err := m.Read("nonexistent")
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestRootlessOldEntrySerializesAsNull(t *testing.T) {
	root := t.TempDir()
	m := New(root)
	require.NoError(t, m.Append("main", Entry{Timestamp: time.Now(), New: "c1", Action: "commit"}))

	entries, err := m.Read("main")
	require.NoError(t, err)
	require.Equal(t, "", entries[0].Old)
}

func TestFormatEntryMatchesReflogLineFormat(t *testing.T) {
	ts := time.Date(2026, 3, 5, 9, 30, 15, 0, time.UTC)

	require.Equal(t, "2026-03-05 09:30:15\tnull\tc1\tcommit\n",
		formatEntry(Entry{Timestamp: ts, New: "c1", Action: "commit"}))
	require.Equal(t, "2026-03-05 09:30:15\tc1\tc2\tcommit\n",
		formatEntry(Entry{Timestamp: ts, Old: "c1", New: "c2", Action: "commit"}))

	e, err := parseEntry("2026-03-05 09:30:15\tc1\tc2\tcommit")
	require.NoError(t, err)
	require.True(t, ts.Equal(e.Timestamp))
	require.Equal(t, "c1", e.Old)
	require.Equal(t, "c2", e.New)
	require.Equal(t, "commit", e.Action)
}

func TestRollbackBranchMovesHeadAndLogs(t *testing.T) {
	root := t.TempDir()
	store := newFakeStore()
	store.branches["main"] = &object.Branch{Name: "main", Head: "c2"}
	m := New(root)

	require.NoError(t, m.RollbackBranch(context.Background(), store, "main", "c1"))
	require.Equal(t, "c1", store.branches["main"].Head)

	entries, err := m.Read("main")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "c2", entries[0].Old)
	require.Equal(t, "c1", entries[0].New)
	require.Equal(t, "rollback", entries[0].Action)
}

func TestFindDanglingExcludesReachableCommits(t *testing.T) {
	commits := map[string]*object.Commit{
		"root":   {ID: "root"},
		"head":   {ID: "head", Parents: []string{"root"}},
		"orphan": {ID: "orphan"},
	}
	branches := []*object.Branch{{Name: "main", Head: "head"}}

	dangling := FindDangling(commits, branches)
	require.ElementsMatch(t, []string{"orphan"}, dangling)
}

func TestRecoverCreatesInactiveBranchAndLogs(t *testing.T) {
	root := t.TempDir()
	store := newFakeStore()
	m := New(root)

	b, err := m.Recover(context.Background(), store, "c9", "rescue")
	require.NoError(t, err)
	require.Equal(t, "c9", b.Head)
	require.False(t, b.Active)

	entries, err := m.Read("rescue")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "recover", entries[0].Action)
}
