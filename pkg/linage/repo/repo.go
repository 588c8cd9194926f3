// Package repo wires every component together into the repository façade
// commands enter through: opening/initializing the on-disk and metadata
// stores, starting the watcher-fed change detector, and orchestrating
// commit/branch/merge/rebase/recovery operations end to end.
package repo

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/antgroup/linage/internal/config"
	"github.com/antgroup/linage/internal/ids"
	"github.com/antgroup/linage/internal/logging"
	"github.com/antgroup/linage/modules/diferenco"
	"github.com/antgroup/linage/modules/plumbing"
	"github.com/antgroup/linage/pkg/linage/blobstore"
	"github.com/antgroup/linage/pkg/linage/detect"
	"github.com/antgroup/linage/pkg/linage/errs"
	"github.com/antgroup/linage/pkg/linage/graph"
	"github.com/antgroup/linage/pkg/linage/ignore"
	"github.com/antgroup/linage/pkg/linage/linetrack"
	"github.com/antgroup/linage/pkg/linage/merge"
	"github.com/antgroup/linage/pkg/linage/metadata"
	"github.com/antgroup/linage/pkg/linage/object"
	"github.com/antgroup/linage/pkg/linage/recovery"
	"github.com/antgroup/linage/pkg/linage/scan"
	"github.com/antgroup/linage/pkg/linage/watch"
	"github.com/sirupsen/logrus"
)

const dotDir = ".linage"

// Repository is the opened, wired-together engine for a single working
// tree.
type Repository struct {
	root   string
	cfg    config.Config
	hasher plumbing.Hasher

	Blobs    *blobstore.Store
	Meta     *metadata.Store
	Ignore   *ignore.Filter
	Scanner  *scan.Scanner
	Detector *detect.Detector
	Graph       *graph.Service
	Recovery    *recovery.Manager
	MergeEngine *merge.Engine
	Tracker     *linetrack.Tracker

	watcher *watch.Watcher
	log     *logrus.Entry
}

func configPath(root string) string {
	return filepath.Join(root, dotDir, "config.toml")
}

// Init creates a fresh repository at root: the .linage directory, the blob
// store, the metadata schema, and an initial active branch. It uses
// config.Default(), or the file at dbCfgPath when given; no config file is
// written under .linage, so Open falls back to config.Default() unless one
// is placed at .linage/config.toml.
func Init(ctx context.Context, root, branchName string, dbCfgPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Join(root, dotDir), 0o755); err != nil {
		return nil, errs.New(errs.IoError, "repo", root, err)
	}

	cfg := config.Default()
	if dbCfgPath != "" {
		loaded, err := config.Load(dbCfgPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	r, err := open(ctx, root, cfg)
	if err != nil {
		return nil, err
	}

	if err := r.Meta.ApplySchema(ctx); err != nil {
		return nil, err
	}
	if branchName == "" {
		branchName = "main"
	}
	branch, err := r.Graph.CreateBranch(ctx, branchName)
	if err != nil {
		return nil, err
	}
	if err := r.Graph.SwitchBranch(ctx, branch.Name); err != nil {
		return nil, err
	}
	return r, nil
}

// Open loads an existing repository at root.
func Open(ctx context.Context, root string) (*Repository, error) {
	cfg := config.Default()
	if loaded, err := config.Load(configPath(root)); err == nil {
		cfg = loaded
	}
	return open(ctx, root, cfg)
}

func open(ctx context.Context, root string, cfg config.Config) (*Repository, error) {
	hasher, err := plumbing.NewHasher(cfg.TrimmedHashAlgorithm())
	if err != nil {
		return nil, errs.New(errs.InvalidInput, "repo", cfg.HashAlgorithm, err)
	}

	blobs, err := blobstore.Open(root, hasher)
	if err != nil {
		return nil, err
	}

	meta, err := metadata.Open(cfg.Database.DSN())
	if err != nil {
		return nil, err
	}

	filter := ignore.New()
	if err := filter.LoadFile(filepath.Join(root, ".linageignore")); err != nil && !os.IsNotExist(err) {
		return nil, errs.New(errs.IoError, "repo", root, err)
	}

	scanner := scan.New(root, filter, hasher)
	detector := detect.New(scanner)

	svc, err := graph.New(ctx, meta, hasher, cfg.Cache.NumCounters, cfg.Cache.MaxCost, cfg.Cache.BufferItems)
	if err != nil {
		return nil, err
	}

	strategy := diferenco.Strategy[string](diferenco.MyersStrategy[string]{})
	logger := logging.New(cfg.LogLevel)

	return &Repository{
		root:     root,
		cfg:      cfg,
		hasher:   hasher,
		Blobs:    blobs,
		Meta:     meta,
		Ignore:   filter,
		Scanner:  scanner,
		Detector: detector,
		Graph:    svc,
		Recovery: recovery.New(root),
		MergeEngine: merge.New(strategy),
		Tracker:  linetrack.New(strategy, hasher),
		log:      logging.Component(logger, "repo"),
	}, nil
}

// StartWatching registers a Watcher over the repository root and folds its
// events into Detector. recursive controls whether subdirectories are
// watched.
func (r *Repository) StartWatching(recursive bool) error {
	w, err := watch.New(recursive)
	if err != nil {
		return errs.New(errs.IoError, "repo", r.root, err)
	}
	if err := w.Add(r.root); err != nil {
		return errs.New(errs.IoError, "repo", r.root, err)
	}
	w.Start(r.Detector.OnWatchEvent)
	r.watcher = w
	return nil
}

// Close stops the watcher (if started) and closes the metadata store.
func (r *Repository) Close() error {
	if r.watcher != nil {
		_ = r.watcher.Stop()
	}
	return r.Meta.Close()
}

func (r *Repository) headSnapshot(ctx context.Context) (object.Snapshot, error) {
	branch := r.Graph.CurrentBranch()
	if branch == nil || branch.Head == "" {
		return object.Snapshot{}, nil
	}
	commit, err := r.Meta.GetCommit(ctx, branch.Head)
	if err != nil {
		return object.Snapshot{}, err
	}
	return commit.Snapshot, nil
}

// ScanChanges walks the working tree and folds every difference against the
// active branch's head snapshot into Detector's dirty set, for callers (like
// the CLI) that don't run a background Watcher.
func (r *Repository) ScanChanges(ctx context.Context) error {
	head, err := r.headSnapshot(ctx)
	if err != nil {
		return err
	}
	byPath := make(map[string]object.FileRecord, len(head.Files))
	for _, f := range head.Files {
		byPath[f.Path] = f
	}
	return r.Detector.Scan(ctx, byPath, 0, nil)
}

// Commit snapshots the current dirty set, writes changed blobs, derives
// line changes against the previous head, and advances the active branch.
func (r *Repository) Commit(ctx context.Context, message, authorName, authorEmail string, aiAssisted bool) (*object.Commit, error) {
	head, err := r.headSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	headByPath := make(map[string]object.FileRecord, len(head.Files))
	for _, f := range head.Files {
		headByPath[f.Path] = f
	}

	dirty := r.Detector.Dirty()
	files := make(map[string]object.FileRecord, len(head.Files))
	for _, f := range head.Files {
		files[f.Path] = f
	}

	now := time.Now()
	var lineChanges []object.LineChange
	commitID := ids.New()

	for path, status := range dirty {
		if status == detect.Deleted {
			prev, existed := headByPath[path]
			delete(files, path)
			if existed && !prev.Deleted {
				oldText, err := r.Blobs.Get(prev.Digest)
				if err != nil {
					return nil, err
				}
				lineChanges = append(lineChanges, r.Tracker.Track(string(oldText), "", commitID, now)...)
			}
			continue
		}

		data, err := os.ReadFile(filepath.Join(r.root, path))
		if err != nil {
			return nil, errs.New(errs.IoError, "repo", path, err)
		}
		digest, err := r.Blobs.Put(data)
		if err != nil {
			return nil, err
		}
		info, err := os.Stat(filepath.Join(r.root, path))
		if err != nil {
			return nil, errs.New(errs.IoError, "repo", path, err)
		}
		files[path] = object.FileRecord{Path: path, Digest: digest, Size: info.Size(), ModifiedAt: info.ModTime()}

		prev, existed := headByPath[path]
		var oldText string
		if existed && !prev.Deleted {
			prevData, err := r.Blobs.Get(prev.Digest)
			if err != nil {
				return nil, err
			}
			oldText = string(prevData)
		}
		lineChanges = append(lineChanges, r.Tracker.Track(oldText, string(data), commitID, now)...)
	}

	snapshot := object.Snapshot{Timestamp: now}
	for _, f := range files {
		snapshot.Files = append(snapshot.Files, f)
	}

	var parents []string
	if branch := r.Graph.CurrentBranch(); branch != nil && branch.Head != "" {
		parents = []string{branch.Head}
	}

	commit := &object.Commit{
		ID:          commitID,
		Message:     message,
		AuthorName:  authorName,
		AuthorEmail: authorEmail,
		Timestamp:   now,
		Parents:     parents,
		Snapshot:    snapshot,
		AIAssisted:  aiAssisted,
	}
	commit.Digest = commit.ComputeDigest(r.hasher)

	if err := r.Graph.AddCommit(ctx, commit); err != nil {
		return nil, err
	}
	if len(lineChanges) > 0 {
		if err := r.Meta.BatchSaveLineChanges(ctx, lineChanges); err != nil {
			return nil, err
		}
	}
	if aiAssisted {
		if err := r.Meta.SaveAIActivity(ctx, &object.AIActivity{CommitID: commitID, Note: "ai_assisted_commit", Timestamp: now}); err != nil {
			return nil, err
		}
	}

	for path := range dirty {
		r.Detector.Clear(path)
	}
	if branch := r.Graph.CurrentBranch(); branch != nil {
		var parent string
		if len(parents) > 0 {
			parent = parents[0]
		}
		if err := r.Recovery.Append(branch.Name, recovery.Entry{
			Timestamp: now, Old: parent, New: commitID, Action: "commit",
		}); err != nil {
			return nil, err
		}
	}
	return commit, nil
}

// workingTreeReader adapts Repository to graph.WorkingTreeReader.
type workingTreeReader struct {
	root string
}

func (w workingTreeReader) ReadLocal(path string) (string, bool, error) {
	data, err := os.ReadFile(filepath.Join(w.root, path))
	if os.IsNotExist(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return string(data), true, nil
}

// Merge three-way merges source into the active branch's working tree.
func (r *Repository) Merge(ctx context.Context, source string) ([]object.Conflict, error) {
	return r.Graph.Merge(ctx, source, r.Blobs, workingTreeReader{root: r.root}, r.MergeEngine)
}

// Stats reports combined blob and metadata counters.
type Stats struct {
	metadata.Statistics
	BlobCount      int64
	BlobTotalBytes int64
}

// Stats aggregates BlobStore and MetadataStore counters.
func (r *Repository) Stats(ctx context.Context) (Stats, error) {
	s, err := r.Meta.Statistics(ctx)
	if err != nil {
		return Stats{}, err
	}
	return Stats{
		Statistics:     s,
		BlobCount:      r.Blobs.Count(),
		BlobTotalBytes: r.Blobs.TotalBytes(),
	}, nil
}
