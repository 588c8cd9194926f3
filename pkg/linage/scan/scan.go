// Package scan implements the recursive working-tree walk that produces
// content-hashed FileRecord values, honoring an IgnoreFilter and reporting
// progress at configurable intervals.
package scan

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/antgroup/linage/modules/plumbing"
	"github.com/antgroup/linage/pkg/linage/errs"
	"github.com/antgroup/linage/pkg/linage/ignore"
	"github.com/antgroup/linage/pkg/linage/object"
	"golang.org/x/sync/errgroup"
)

// Scanner walks a working tree rooted at Root, skipping paths the Filter
// ignores.
type Scanner struct {
	Root   string
	Filter *ignore.Filter
	Hasher plumbing.Hasher
}

// New returns a Scanner rooted at root.
func New(root string, filter *ignore.Filter, hasher plumbing.Hasher) *Scanner {
	return &Scanner{Root: root, Filter: filter, Hasher: hasher}
}

// ProgressFunc is invoked every progressEvery files scanned.
type ProgressFunc func(scanned int)

// candidate is a walked path still awaiting its content hash.
type candidate struct {
	path string
	rel  string
	info fs.FileInfo
}

// Scan walks the tree to find every non-ignored file, then hashes the
// results concurrently, bounded by hardware concurrency — the walk itself
// is an inherently sequential directory traversal, but hashing file
// contents dominates its cost and parallelizes cleanly. Records arrive on
// the returned channel in hashing-completion order, not walk order. The
// error channel receives at most one value and is closed alongside the
// record channel. The returned channels are finite and non-restartable —
// call Scan again for a fresh walk.
func (s *Scanner) Scan(ctx context.Context, progressEvery int, onProgress ProgressFunc) (<-chan object.FileRecord, <-chan error) {
	out := make(chan object.FileRecord)
	errc := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errc)

		var candidates []candidate
		walkErr := filepath.WalkDir(s.Root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			rel, err := filepath.Rel(s.Root, path)
			if err != nil {
				return err
			}
			if rel == "." {
				return nil
			}
			rel = filepath.ToSlash(rel)

			if d.IsDir() {
				if s.Filter != nil && s.Filter.IsIgnored(rel, true) {
					return filepath.SkipDir
				}
				return nil
			}
			if s.Filter != nil && s.Filter.IsIgnored(rel, false) {
				return nil
			}

			info, err := d.Info()
			if err != nil {
				return err
			}
			candidates = append(candidates, candidate{path: path, rel: rel, info: info})
			return nil
		})
		if walkErr != nil {
			errc <- walkErr
			return
		}

		if err := s.hashPartitioned(ctx, candidates, out, progressEvery, onProgress); err != nil {
			errc <- err
		}
	}()

	return out, errc
}

// hashPartitioned splits candidates across workers bounded by
// runtime.GOMAXPROCS(0), hashing each file's contents concurrently and
// sending completed records to out.
func (s *Scanner) hashPartitioned(ctx context.Context, candidates []candidate, out chan<- object.FileRecord, progressEvery int, onProgress ProgressFunc) error {
	if len(candidates) == 0 {
		return nil
	}

	workers := runtime.GOMAXPROCS(0)
	if workers > len(candidates) {
		workers = len(candidates)
	}
	if workers < 1 {
		workers = 1
	}
	chunk := (len(candidates) + workers - 1) / workers

	var scanned int
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for start := 0; start < len(candidates); start += chunk {
		end := start + chunk
		if end > len(candidates) {
			end = len(candidates)
		}
		partition := candidates[start:end]

		g.Go(func() error {
			for _, c := range partition {
				rec, err := s.record(c)
				if err != nil {
					return err
				}

				select {
				case out <- rec:
				case <-gctx.Done():
					return errs.New(errs.Cancelled, "scan", c.rel, gctx.Err())
				}
			}

			if progressEvery > 0 && onProgress != nil {
				mu.Lock()
				scanned += len(partition)
				n := scanned
				mu.Unlock()
				if n%progressEvery < len(partition) {
					onProgress(n)
				}
			}
			return nil
		})
	}

	return g.Wait()
}

func (s *Scanner) record(c candidate) (object.FileRecord, error) {
	f, err := os.Open(c.path)
	if err != nil {
		return object.FileRecord{}, err
	}
	defer f.Close()

	digest, err := s.Hasher.HashStream(f)
	if err != nil {
		return object.FileRecord{}, err
	}
	return object.FileRecord{
		Path:       c.rel,
		Digest:     digest,
		Size:       c.info.Size(),
		ModifiedAt: c.info.ModTime(),
	}, nil
}
