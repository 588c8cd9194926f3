// Package detect maintains the working tree's dirty set relative to the
// HEAD snapshot, fed by both Watcher events and explicit scans.
package detect

import (
	"context"
	"runtime"
	"sync"

	"github.com/antgroup/linage/pkg/linage/errs"
	"github.com/antgroup/linage/pkg/linage/object"
	"github.com/antgroup/linage/pkg/linage/scan"
	"github.com/antgroup/linage/pkg/linage/watch"
	"golang.org/x/sync/errgroup"
)

// Status is the dirty classification of a working-tree path.
type Status int

const (
	New Status = iota
	Modified
	Deleted
)

func (s Status) String() string {
	switch s {
	case New:
		return "NEW"
	case Modified:
		return "MODIFIED"
	case Deleted:
		return "DELETED"
	default:
		return "UNKNOWN"
	}
}

// ProgressFunc is invoked every N files compared during a scan.
type ProgressFunc func(compared int)

// Detector tracks the dirty set for a working tree rooted at Scanner.Root.
type Detector struct {
	scanner *scan.Scanner
	dirty   sync.Map // path -> Status
}

// New returns a Detector driven by the given Scanner.
func New(scanner *scan.Scanner) *Detector {
	return &Detector{scanner: scanner}
}

// OnWatchEvent folds a single Watcher event into the dirty set. DELETED
// records deletion; CREATED/MODIFIED record the corresponding status.
func (d *Detector) OnWatchEvent(ev watch.Event) {
	switch ev.Kind {
	case watch.Deleted:
		d.dirty.Store(ev.Path, Deleted)
	case watch.Created:
		d.dirty.Store(ev.Path, New)
	case watch.Modified, watch.Renamed:
		d.dirty.Store(ev.Path, Modified)
	}
}

// Dirty returns a snapshot of the current dirty set.
func (d *Detector) Dirty() map[string]Status {
	out := make(map[string]Status)
	d.dirty.Range(func(k, v any) bool {
		out[k.(string)] = v.(Status)
		return true
	})
	return out
}

// Clear removes path from the dirty set, e.g. after it has been committed.
func (d *Detector) Clear(path string) {
	d.dirty.Delete(path)
}

// Scan recomputes the dirty set against head by walking the working tree
// and comparing digests. The comparison is partitioned across the file
// list and bounded by hardware concurrency; cancellation is checked at
// partition boundaries.
func (d *Detector) Scan(ctx context.Context, head map[string]object.FileRecord, progressEvery int, onProgress ProgressFunc) error {
	out, errc := d.scanner.Scan(ctx, 0, nil)

	var live []object.FileRecord
	for rec := range out {
		live = append(live, rec)
	}
	if err := <-errc; err != nil {
		return errs.New(errs.IoError, "detect", "scan", err)
	}

	livePaths := make(map[string]struct{}, len(live))
	for _, rec := range live {
		livePaths[rec.Path] = struct{}{}
	}

	if err := d.comparePartitioned(ctx, live, head, progressEvery, onProgress); err != nil {
		return err
	}

	for path := range head {
		if _, ok := livePaths[path]; !ok {
			d.dirty.Store(path, Deleted)
		}
	}
	return nil
}

func (d *Detector) comparePartitioned(ctx context.Context, live []object.FileRecord, head map[string]object.FileRecord, progressEvery int, onProgress ProgressFunc) error {
	if len(live) == 0 {
		return nil
	}

	workers := runtime.GOMAXPROCS(0)
	if workers > len(live) {
		workers = len(live)
	}
	if workers < 1 {
		workers = 1
	}
	chunk := (len(live) + workers - 1) / workers

	var compared int
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for start := 0; start < len(live); start += chunk {
		end := start + chunk
		if end > len(live) {
			end = len(live)
		}
		partition := live[start:end]

		g.Go(func() error {
			select {
			case <-gctx.Done():
				return errs.New(errs.Cancelled, "detect", "scan", gctx.Err())
			default:
			}

			for _, rec := range partition {
				headRec, ok := head[rec.Path]
				switch {
				case !ok:
					d.dirty.Store(rec.Path, New)
				case headRec.Digest != rec.Digest:
					d.dirty.Store(rec.Path, Modified)
				default:
					d.dirty.Delete(rec.Path)
				}
			}

			if progressEvery > 0 && onProgress != nil {
				mu.Lock()
				compared += len(partition)
				n := compared
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

// HasConflict reports whether the on-disk file at path is missing or its
// digest differs from expectedDigest.
func (d *Detector) HasConflict(path string, expectedDigest string, onDiskDigest string, onDiskExists bool) bool {
	if !onDiskExists {
		return true
	}
	return onDiskDigest != expectedDigest
}
