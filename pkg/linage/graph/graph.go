// Package graph implements the commit DAG, branch pointers, and merge/rebase
// orchestration. In-memory caches are hydrated from a MetadataStore at
// construction and kept coherent by every mutating operation: a persistence
// failure rolls back the provisional cache update rather than diverging from
// the store.
package graph

import (
	"context"
	"sort"
	"time"

	"github.com/antgroup/linage/internal/ids"
	"github.com/antgroup/linage/modules/plumbing"
	"github.com/antgroup/linage/pkg/linage/blobstore"
	"github.com/antgroup/linage/pkg/linage/errs"
	"github.com/antgroup/linage/pkg/linage/merge"
	"github.com/antgroup/linage/pkg/linage/object"
	"github.com/dgraph-io/ristretto/v2"
	"github.com/emirpasic/gods/trees/binaryheap"
)

// Store is the persistence surface GraphService needs. metadata.Store
// satisfies it.
type Store interface {
	SaveCommit(ctx context.Context, c *object.Commit) error
	GetCommit(ctx context.Context, id string) (*object.Commit, error)
	ListCommits(ctx context.Context) ([]*object.Commit, error)
	SaveBranch(ctx context.Context, b *object.Branch) error
	GetBranch(ctx context.Context, name string) (*object.Branch, error)
	ListBranches(ctx context.Context) ([]*object.Branch, error)
	DeleteBranch(ctx context.Context, name string) error
	SaveConflict(ctx context.Context, c *object.Conflict) error
}

// Service is the in-memory commit graph, hydrated from and kept coherent
// with a Store.
type Service struct {
	store  Store
	hasher plumbing.Hasher

	commits      map[string]*object.Commit
	branches     map[string]*object.Branch
	activeBranch string

	historyCache []*object.Commit
	hydration    *ristretto.Cache[string, *object.Commit]
}

// New constructs a Service and hydrates its caches from store. A
// numCounters of zero or less disables the hydration cache. hasher recomputes commit digests
// for commits Rebase replays onto a new parent.
func New(ctx context.Context, store Store, hasher plumbing.Hasher, numCounters, maxCost, bufferItems int64) (*Service, error) {
	s := &Service{
		store:    store,
		hasher:   hasher,
		commits:  make(map[string]*object.Commit),
		branches: make(map[string]*object.Branch),
	}

	if numCounters > 0 {
		cache, err := ristretto.NewCache(&ristretto.Config[string, *object.Commit]{
			NumCounters: numCounters,
			MaxCost:     maxCost,
			BufferItems: bufferItems,
		})
		if err != nil {
			return nil, errs.New(errs.IoError, "graph", "hydration_cache", err)
		}
		s.hydration = cache
	}

	commits, err := store.ListCommits(ctx)
	if err != nil {
		return nil, err
	}
	for _, c := range commits {
		s.commits[c.ID] = c
	}

	branches, err := store.ListBranches(ctx)
	if err != nil {
		return nil, err
	}
	for _, b := range branches {
		s.branches[b.Name] = b
		if b.Active {
			s.activeBranch = b.Name
		}
	}
	return s, nil
}

// AddCommit validates pre-conditions, persists the commit, and — if an
// active branch exists — advances its head.
func (s *Service) AddCommit(ctx context.Context, c *object.Commit) error {
	if c.Digest.IsZero() {
		return errs.New(errs.InvalidInput, "graph", c.ID, nil)
	}
	if _, exists := s.commits[c.ID]; exists {
		return errs.New(errs.Conflict, "graph", c.ID, nil)
	}

	if err := s.store.SaveCommit(ctx, c); err != nil {
		return err
	}
	s.commits[c.ID] = c
	s.historyCache = nil

	if s.activeBranch != "" {
		b := s.branches[s.activeBranch]
		oldHead := b.Head
		b.Head = c.ID
		if err := s.store.SaveBranch(ctx, b); err != nil {
			b.Head = oldHead
			return err
		}
	}
	return nil
}

// CreateBranch fails if the name already exists, or if commits exist but no
// branch is active. It seeds the new branch at the active branch's head.
func (s *Service) CreateBranch(ctx context.Context, name string) (*object.Branch, error) {
	if _, exists := s.branches[name]; exists {
		return nil, errs.New(errs.Conflict, "graph", name, nil)
	}
	var head string
	if s.activeBranch != "" {
		head = s.branches[s.activeBranch].Head
	} else if len(s.commits) > 0 {
		return nil, errs.New(errs.InvalidInput, "graph", name, nil)
	}

	b := &object.Branch{Name: name, Head: head, Active: false, CreatedAt: time.Now()}
	if err := s.store.SaveBranch(ctx, b); err != nil {
		return nil, err
	}
	s.branches[name] = b
	return b, nil
}

// GetBranch returns a cached branch by name.
func (s *Service) GetBranch(name string) (*object.Branch, error) {
	b, ok := s.branches[name]
	if !ok {
		return nil, errs.New(errs.NotFound, "graph", name, nil)
	}
	return b, nil
}

// ListBranches returns every known branch.
func (s *Service) ListBranches() []*object.Branch {
	out := make([]*object.Branch, 0, len(s.branches))
	for _, b := range s.branches {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// CurrentBranch returns the active branch, or nil if none is attached.
func (s *Service) CurrentBranch() *object.Branch {
	if s.activeBranch == "" {
		return nil
	}
	return s.branches[s.activeBranch]
}

// SwitchBranch attaches name as the active branch.
func (s *Service) SwitchBranch(ctx context.Context, name string) error {
	target, ok := s.branches[name]
	if !ok {
		return errs.New(errs.NotFound, "graph", name, nil)
	}
	prevActive := s.activeBranch

	if prevActive != "" {
		prev := s.branches[prevActive]
		prev.Active = false
		if err := s.store.SaveBranch(ctx, prev); err != nil {
			prev.Active = true
			return err
		}
	}
	target.Active = true
	if err := s.store.SaveBranch(ctx, target); err != nil {
		target.Active = false
		if prevActive != "" {
			s.branches[prevActive].Active = true
			_ = s.store.SaveBranch(ctx, s.branches[prevActive])
		}
		return err
	}

	s.activeBranch = name
	s.historyCache = nil
	return nil
}

// DeleteBranch removes a branch. It fails if name is the active branch.
func (s *Service) DeleteBranch(ctx context.Context, name string) error {
	if name == s.activeBranch {
		return errs.New(errs.InvalidInput, "graph", name, nil)
	}
	if _, ok := s.branches[name]; !ok {
		return errs.New(errs.NotFound, "graph", name, nil)
	}
	if err := s.store.DeleteBranch(ctx, name); err != nil {
		return err
	}
	delete(s.branches, name)
	return nil
}

// History returns commits reachable from the active branch's head, ordered
// by timestamp descending. The result is cached until invalidated by a
// mutating operation.
func (s *Service) History() ([]*object.Commit, error) {
	if s.activeBranch == "" {
		return nil, nil
	}
	if s.historyCache != nil {
		return s.historyCache, nil
	}

	head := s.branches[s.activeBranch].Head
	if head == "" {
		return nil, nil
	}

	seen := make(map[string]bool)
	heap := binaryheap.NewWith(func(a, b any) int {
		ca, cb := a.(*object.Commit), b.(*object.Commit)
		if ca.Timestamp.Before(cb.Timestamp) {
			return 1
		}
		if ca.Timestamp.After(cb.Timestamp) {
			return -1
		}
		return 0
	})
	if c, ok := s.commits[head]; ok {
		heap.Push(c)
	}

	var out []*object.Commit
	for {
		v, ok := heap.Pop()
		if !ok {
			break
		}
		c := v.(*object.Commit)
		if seen[c.ID] {
			continue
		}
		seen[c.ID] = true
		out = append(out, c)
		for _, p := range c.Parents {
			if pc, ok := s.commits[p]; ok && !seen[pc.ID] {
				heap.Push(pc)
			}
		}
	}

	s.historyCache = out
	return out, nil
}

func (s *Service) ancestors(id string) map[string]bool {
	visited := make(map[string]bool)
	queue := []string{id}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if visited[cur] {
			continue
		}
		visited[cur] = true
		if c, ok := s.commits[cur]; ok {
			queue = append(queue, c.Parents...)
		}
	}
	return visited
}

// FindCommonAncestor walks all of b's ancestors (b included) breadth-first,
// collects every one that is also in a's ancestor set (a included), and
// returns the candidate with the latest timestamp; among equal timestamps
// the one reached first wins. Returns "" if a and b share no common ancestor.
func (s *Service) FindCommonAncestor(a, b string) string {
	aAncestors := s.ancestors(a)

	visited := make(map[string]bool)
	queue := []string{b}
	var candidates []string
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if visited[cur] {
			continue
		}
		visited[cur] = true
		if aAncestors[cur] {
			candidates = append(candidates, cur)
		}
		if c, ok := s.commits[cur]; ok {
			queue = append(queue, c.Parents...)
		}
	}
	if len(candidates) == 0 {
		return ""
	}
	best := candidates[0]
	for _, id := range candidates[1:] {
		if s.commits[id].Timestamp.After(s.commits[best].Timestamp) {
			best = id
		}
	}
	return best
}

// WorkingTreeReader resolves a path's current on-disk text, when present.
type WorkingTreeReader interface {
	ReadLocal(path string) (text string, present bool, err error)
}

// Merge finds the merge base of the active branch and source, then performs
// a three-way merge of every path in the union of base/local/remote
// snapshots. Conflicts are persisted and returned; an empty result means a
// clean merge, whose commit remains the caller's responsibility.
func (s *Service) Merge(ctx context.Context, source string, blobs *blobstore.Store, wt WorkingTreeReader, engine *merge.Engine) ([]object.Conflict, error) {
	if s.activeBranch == "" {
		return nil, errs.New(errs.InvalidInput, "graph", source, nil)
	}
	sourceBranch, ok := s.branches[source]
	if !ok {
		return nil, errs.New(errs.NotFound, "graph", source, nil)
	}
	localHead := s.branches[s.activeBranch].Head
	remoteHead := sourceBranch.Head

	baseID := s.FindCommonAncestor(localHead, remoteHead)
	if baseID == "" {
		return nil, errs.New(errs.Conflict, "graph", source, nil)
	}

	baseCommit := s.commits[baseID]
	localCommit := s.commits[localHead]
	remoteCommit := s.commits[remoteHead]

	paths := make(map[string]struct{})
	byPath := func(snap object.Snapshot) map[string]object.FileRecord {
		m := make(map[string]object.FileRecord, len(snap.Files))
		for _, f := range snap.Files {
			m[f.Path] = f
			paths[f.Path] = struct{}{}
		}
		return m
	}
	baseFiles := byPath(baseCommit.Snapshot)
	localFiles := byPath(localCommit.Snapshot)
	remoteFiles := byPath(remoteCommit.Snapshot)

	readText := func(rec object.FileRecord, ok bool) (string, error) {
		if !ok || rec.Deleted {
			return "", nil
		}
		data, err := blobs.Get(rec.Digest)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}

	var conflicts []object.Conflict
	for path := range paths {
		baseRec, baseOK := baseFiles[path]
		localRec, localOK := localFiles[path]
		remoteRec, remoteOK := remoteFiles[path]

		baseText, err := readText(baseRec, baseOK)
		if err != nil {
			return nil, err
		}
		remoteText, err := readText(remoteRec, remoteOK)
		if err != nil {
			return nil, err
		}

		localText := ""
		if wt != nil {
			if text, present, err := wt.ReadLocal(path); err == nil && present {
				localText = text
			} else {
				localText, err = readText(localRec, localOK)
				if err != nil {
					return nil, err
				}
			}
		} else {
			localText, err = readText(localRec, localOK)
			if err != nil {
				return nil, err
			}
		}

		result := engine.Merge(path, baseText, localText, remoteText)
		if !result.Success {
			for i := range result.Conflicts {
				if err := s.store.SaveConflict(ctx, &result.Conflicts[i]); err != nil {
					return nil, err
				}
			}
			conflicts = append(conflicts, result.Conflicts...)
		}
	}
	return conflicts, nil
}

// Rebase replays the active branch's commits since its merge base with onto
// atop onto, assigning each replayed commit a fresh id and timestamp while
// preserving message and author.
func (s *Service) Rebase(ctx context.Context, onto string) error {
	if s.activeBranch == "" {
		return errs.New(errs.InvalidInput, "graph", onto, nil)
	}
	active := s.branches[s.activeBranch]
	if active.Head == "" {
		return errs.New(errs.InvalidInput, "graph", onto, nil)
	}

	base := s.FindCommonAncestor(active.Head, onto)
	if base == "" {
		return errs.New(errs.Conflict, "graph", onto, nil)
	}

	var chain []*object.Commit
	seen := make(map[string]bool)
	for cur := active.Head; cur != base && cur != ""; {
		if seen[cur] {
			return errs.New(errs.Corruption, "graph", cur, nil)
		}
		seen[cur] = true
		c, ok := s.commits[cur]
		if !ok {
			return errs.New(errs.NotFound, "graph", cur, nil)
		}
		chain = append(chain, c)
		if len(c.Parents) == 0 {
			break
		}
		cur = c.Parents[0]
	}
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}

	parent := onto
	for _, original := range chain {
		replayed := &object.Commit{
			ID:          ids.New(),
			Message:     original.Message,
			AuthorName:  original.AuthorName,
			AuthorEmail: original.AuthorEmail,
			Timestamp:   time.Now(),
			Parents:     []string{parent},
			Snapshot:    original.Snapshot,
			AIAssisted:  original.AIAssisted,
		}
		replayed.Digest = replayed.ComputeDigest(s.hasher)

		if err := s.AddCommitNoAdvance(ctx, replayed); err != nil {
			return err
		}
		parent = replayed.ID
	}

	oldHead := active.Head
	active.Head = parent
	if err := s.store.SaveBranch(ctx, active); err != nil {
		active.Head = oldHead
		return err
	}
	s.historyCache = nil
	return nil
}

// AddCommitNoAdvance persists and caches a commit without moving any
// branch's head, used internally by Rebase to build the replayed chain
// before the active branch is advanced atomically at the end.
func (s *Service) AddCommitNoAdvance(ctx context.Context, c *object.Commit) error {
	if c.Digest.IsZero() {
		return errs.New(errs.InvalidInput, "graph", c.ID, nil)
	}
	if _, exists := s.commits[c.ID]; exists {
		return errs.New(errs.Conflict, "graph", c.ID, nil)
	}
	if err := s.store.SaveCommit(ctx, c); err != nil {
		return err
	}
	s.commits[c.ID] = c
	return nil
}
