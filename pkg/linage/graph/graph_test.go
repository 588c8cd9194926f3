package graph

import (
	"context"
	"testing"
	"time"

	"github.com/antgroup/linage/modules/diferenco"
	"github.com/antgroup/linage/modules/plumbing"
	"github.com/antgroup/linage/pkg/linage/blobstore"
	"github.com/antgroup/linage/pkg/linage/merge"
	"github.com/antgroup/linage/pkg/linage/object"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	commits   map[string]*object.Commit
	branches  map[string]*object.Branch
	conflicts []object.Conflict
}

func newFakeStore() *fakeStore {
	return &fakeStore{commits: map[string]*object.Commit{}, branches: map[string]*object.Branch{}}
}

func (f *fakeStore) SaveCommit(ctx context.Context, c *object.Commit) error {
	cp := *c
	f.commits[c.ID] = &cp
	return nil
}
func (f *fakeStore) GetCommit(ctx context.Context, id string) (*object.Commit, error) {
	return f.commits[id], nil
}
func (f *fakeStore) ListCommits(ctx context.Context) ([]*object.Commit, error) {
	var out []*object.Commit
	for _, c := range f.commits {
		out = append(out, c)
	}
	return out, nil
}
func (f *fakeStore) SaveBranch(ctx context.Context, b *object.Branch) error {
	cp := *b
	f.branches[b.Name] = &cp
	return nil
}
func (f *fakeStore) GetBranch(ctx context.Context, name string) (*object.Branch, error) {
	return f.branches[name], nil
}
func (f *fakeStore) ListBranches(ctx context.Context) ([]*object.Branch, error) {
	var out []*object.Branch
	for _, b := range f.branches {
		out = append(out, b)
	}
	return out, nil
}
func (f *fakeStore) DeleteBranch(ctx context.Context, name string) error {
	delete(f.branches, name)
	return nil
}
func (f *fakeStore) SaveConflict(ctx context.Context, c *object.Conflict) error {
	f.conflicts = append(f.conflicts, *c)
	return nil
}

func newService(t *testing.T) (*Service, *fakeStore) {
	t.Helper()
	store := newFakeStore()
	hasher, err := plumbing.NewHasher("SHA256")
	require.NoError(t, err)
	s, err := New(context.Background(), store, hasher, 0, 0, 0)
	require.NoError(t, err)
	return s, store
}

func commitWithDigest(id string, ts time.Time, parents ...string) *object.Commit {
	return &object.Commit{ID: id, Digest: digestFor(id), Timestamp: ts, Parents: parents}
}

func digestFor(s string) (d [32]byte) {
	copy(d[:], s)
	return d
}

func TestCreateBranchSeedsAtActiveHead(t *testing.T) {
	s, _ := newService(t)
	_, err := s.CreateBranch(context.Background(), "main")
	require.NoError(t, err)
	require.NoError(t, s.SwitchBranch(context.Background(), "main"))

	c := commitWithDigest("c1", time.Now())
	require.NoError(t, s.AddCommit(context.Background(), c))
	require.Equal(t, "c1", s.CurrentBranch().Head)

	_, err = s.CreateBranch(context.Background(), "feature")
	require.NoError(t, err)
	feature, err := s.GetBranch("feature")
	require.NoError(t, err)
	require.Equal(t, "c1", feature.Head)
}

func TestCreateBranchFailsWhenCommitsExistWithoutActive(t *testing.T) {
	s, store := newService(t)
	store.commits["orphan"] = commitWithDigest("orphan", time.Now())
	s.commits["orphan"] = store.commits["orphan"]

	_, err := s.CreateBranch(context.Background(), "main")
	require.Error(t, err)
}

func TestCreateBranchDuplicateNameFails(t *testing.T) {
	s, _ := newService(t)
	_, err := s.CreateBranch(context.Background(), "main")
	require.NoError(t, err)
	_, err = s.CreateBranch(context.Background(), "main")
	require.Error(t, err)
}

func TestSwitchBranchUnknownFails(t *testing.T) {
	s, _ := newService(t)
	require.Error(t, s.SwitchBranch(context.Background(), "ghost"))
}

func TestDeleteActiveBranchFails(t *testing.T) {
	s, _ := newService(t)
	_, err := s.CreateBranch(context.Background(), "main")
	require.NoError(t, err)
	require.NoError(t, s.SwitchBranch(context.Background(), "main"))
	require.Error(t, s.DeleteBranch(context.Background(), "main"))
}

func TestHistoryOrdersByTimestampDescending(t *testing.T) {
	s, _ := newService(t)
	_, err := s.CreateBranch(context.Background(), "main")
	require.NoError(t, err)
	require.NoError(t, s.SwitchBranch(context.Background(), "main"))

	base := time.Now()
	c1 := commitWithDigest("c1", base)
	require.NoError(t, s.AddCommit(context.Background(), c1))
	c2 := commitWithDigest("c2", base.Add(time.Minute), "c1")
	require.NoError(t, s.AddCommit(context.Background(), c2))

	history, err := s.History()
	require.NoError(t, err)
	require.Len(t, history, 2)
	require.Equal(t, "c2", history[0].ID)
	require.Equal(t, "c1", history[1].ID)
}

func TestFindCommonAncestorReturnsSharedParent(t *testing.T) {
	s, _ := newService(t)
	base := time.Now()
	root := commitWithDigest("root", base)
	s.commits["root"] = root
	left := commitWithDigest("left", base.Add(time.Minute), "root")
	s.commits["left"] = left
	right := commitWithDigest("right", base.Add(2*time.Minute), "root")
	s.commits["right"] = right

	require.Equal(t, "root", s.FindCommonAncestor("left", "right"))
}

func TestFindCommonAncestorNoneFound(t *testing.T) {
	s, _ := newService(t)
	a := commitWithDigest("a", time.Now())
	s.commits["a"] = a
	b := commitWithDigest("b", time.Now())
	s.commits["b"] = b

	require.Equal(t, "", s.FindCommonAncestor("a", "b"))
}

func TestAddCommitRejectsDuplicateID(t *testing.T) {
	s, _ := newService(t)
	c := commitWithDigest("c1", time.Now())
	require.NoError(t, s.AddCommit(context.Background(), c))
	require.Error(t, s.AddCommit(context.Background(), c))
}

func TestAddCommitRejectsZeroDigest(t *testing.T) {
	s, _ := newService(t)
	c := &object.Commit{ID: "c1", Timestamp: time.Now()}
	require.Error(t, s.AddCommit(context.Background(), c))
}

func TestRebaseReplaysChainWithFreshDigestsOntoNewParent(t *testing.T) {
	ctx := context.Background()
	s, _ := newService(t)
	base := time.Now()

	_, err := s.CreateBranch(ctx, "main")
	require.NoError(t, err)
	require.NoError(t, s.SwitchBranch(ctx, "main"))

	m1 := &object.Commit{ID: "m1", Digest: digestFor("m1"), Message: "m1", Timestamp: base}
	require.NoError(t, s.AddCommit(ctx, m1))

	_, err = s.CreateBranch(ctx, "feature")
	require.NoError(t, err)

	m2 := &object.Commit{ID: "m2", Digest: digestFor("m2"), Message: "m2", Timestamp: base.Add(time.Minute), Parents: []string{"m1"}}
	require.NoError(t, s.AddCommit(ctx, m2))

	require.NoError(t, s.SwitchBranch(ctx, "feature"))
	f1 := &object.Commit{ID: "f1", Digest: digestFor("f1"), Message: "f1", Timestamp: base.Add(2 * time.Minute), Parents: []string{"m1"}}
	require.NoError(t, s.AddCommit(ctx, f1))
	f2 := &object.Commit{ID: "f2", Digest: digestFor("f2"), Message: "f2", Timestamp: base.Add(3 * time.Minute), Parents: []string{"f1"}}
	require.NoError(t, s.AddCommit(ctx, f2))

	require.NoError(t, s.Rebase(ctx, "m2"))

	feature, err := s.GetBranch("feature")
	require.NoError(t, err)
	require.NotEqual(t, "f2", feature.Head)

	replayedF2, ok := s.commits[feature.Head]
	require.True(t, ok)
	require.Equal(t, "f2", replayedF2.Message)
	require.Len(t, replayedF2.Parents, 1)
	replayedF1, ok := s.commits[replayedF2.Parents[0]]
	require.True(t, ok)
	require.Equal(t, "f1", replayedF1.Message)
	require.Equal(t, []string{"m2"}, replayedF1.Parents)

	require.NotEqual(t, f1.Digest, replayedF1.Digest)
	require.NotEqual(t, f2.Digest, replayedF2.Digest)
	require.False(t, replayedF1.Digest.IsZero())
	require.False(t, replayedF2.Digest.IsZero())

	// The original commits are untouched by the replay.
	require.Equal(t, "f2", s.commits["f2"].ID)
	require.Equal(t, []string{"f1"}, s.commits["f2"].Parents)
}

func TestRebaseFailsWithoutCommonAncestor(t *testing.T) {
	ctx := context.Background()
	s, _ := newService(t)

	_, err := s.CreateBranch(ctx, "main")
	require.NoError(t, err)
	require.NoError(t, s.SwitchBranch(ctx, "main"))

	a := &object.Commit{ID: "a", Digest: digestFor("a"), Timestamp: time.Now()}
	require.NoError(t, s.AddCommit(ctx, a))

	require.Error(t, s.Rebase(ctx, "nonexistent"))
}

func newBlobStore(t *testing.T, hasher plumbing.Hasher) *blobstore.Store {
	t.Helper()
	bs, err := blobstore.Open(t.TempDir(), hasher)
	require.NoError(t, err)
	return bs
}

// mergeFixture wires two branches, "main" and "feature", each diverging from
// a shared base commit that wrote path with baseText, to exercise
// GraphService.Merge.
func mergeFixture(t *testing.T, baseText, localText, remoteText string) (*Service, *blobstore.Store) {
	t.Helper()
	ctx := context.Background()
	hasher, err := plumbing.NewHasher("SHA256")
	require.NoError(t, err)
	blobs := newBlobStore(t, hasher)

	snapshotFor := func(text string) object.Snapshot {
		digest, err := blobs.Put([]byte(text))
		require.NoError(t, err)
		return object.Snapshot{Files: []object.FileRecord{{Path: "a.txt", Digest: digest}}}
	}

	s, _ := newService(t)
	base := time.Now()

	_, err = s.CreateBranch(ctx, "main")
	require.NoError(t, err)
	require.NoError(t, s.SwitchBranch(ctx, "main"))

	baseCommit := &object.Commit{ID: "base", Digest: digestFor("base"), Timestamp: base, Snapshot: snapshotFor(baseText)}
	require.NoError(t, s.AddCommit(ctx, baseCommit))

	_, err = s.CreateBranch(ctx, "feature")
	require.NoError(t, err)

	localCommit := &object.Commit{ID: "local", Digest: digestFor("local"), Timestamp: base.Add(time.Minute), Parents: []string{"base"}, Snapshot: snapshotFor(localText)}
	require.NoError(t, s.AddCommit(ctx, localCommit))

	require.NoError(t, s.SwitchBranch(ctx, "feature"))
	remoteCommit := &object.Commit{ID: "remote", Digest: digestFor("remote"), Timestamp: base.Add(time.Minute), Parents: []string{"base"}, Snapshot: snapshotFor(remoteText)}
	require.NoError(t, s.AddCommit(ctx, remoteCommit))

	require.NoError(t, s.SwitchBranch(ctx, "main"))
	return s, blobs
}

func TestMergeCleanWhenOnlyOneSideChanged(t *testing.T) {
	s, blobs := mergeFixture(t, "a\nb\nc\n", "a\nb\nc\n", "a\nREMOTE\nc\n")
	engine := merge.New(diferenco.MyersStrategy[string]{})

	conflicts, err := s.Merge(context.Background(), "feature", blobs, nil, engine)
	require.NoError(t, err)
	require.Empty(t, conflicts)
}

func TestMergeConflictsWhenBothSidesEditSameLine(t *testing.T) {
	s, blobs := mergeFixture(t, "a\nb\nc\n", "a\nLOCAL\nc\n", "a\nREMOTE\nc\n")
	engine := merge.New(diferenco.MyersStrategy[string]{})

	conflicts, err := s.Merge(context.Background(), "feature", blobs, nil, engine)
	require.NoError(t, err)
	require.Len(t, conflicts, 1)
	require.Equal(t, "a.txt", conflicts[0].Path)
	require.False(t, conflicts[0].Resolved)
}
