// Package watch maps OS filesystem notifications to the engine's own
// {path, event_kind, timestamp} shape and forwards them to a caller-supplied
// callback.
package watch

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// EventKind is the normalized kind of a filesystem change.
type EventKind int

const (
	Created EventKind = iota
	Modified
	Deleted
	Renamed
)

func (k EventKind) String() string {
	switch k {
	case Created:
		return "CREATED"
	case Modified:
		return "MODIFIED"
	case Deleted:
		return "DELETED"
	case Renamed:
		return "RENAMED"
	default:
		return "UNKNOWN"
	}
}

// Event is one normalized filesystem change.
type Event struct {
	Path      string
	Kind      EventKind
	Timestamp time.Time
}

// Watcher wraps fsnotify, optionally watching subdirectories as they are
// discovered. Stop is idempotent.
type Watcher struct {
	fsw       *fsnotify.Watcher
	recursive bool

	stopOnce sync.Once
	done     chan struct{}
}

// New returns a Watcher. When recursive is true, Add walks the given root
// and registers every subdirectory.
func New(recursive bool) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{fsw: fsw, recursive: recursive, done: make(chan struct{})}, nil
}

// Add registers root (and, if recursive, every subdirectory under it) for
// notifications.
func (w *Watcher) Add(root string) error {
	if !w.recursive {
		return w.fsw.Add(root)
	}
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.fsw.Add(path)
		}
		return nil
	})
}

// Start launches the dispatch goroutine, invoking onEvent for every
// normalized event until Stop is called. It returns immediately.
func (w *Watcher) Start(onEvent func(Event)) {
	go func() {
		for {
			select {
			case ev, ok := <-w.fsw.Events:
				if !ok {
					return
				}
				onEvent(w.normalize(ev))
			case _, ok := <-w.fsw.Errors:
				if !ok {
					return
				}
			case <-w.done:
				return
			}
		}
	}()
}

func (w *Watcher) normalize(ev fsnotify.Event) Event {
	kind := Modified
	switch {
	case ev.Has(fsnotify.Create):
		kind = Created
		if w.recursive {
			if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
				_ = w.fsw.Add(ev.Name)
			}
		}
	case ev.Has(fsnotify.Remove):
		kind = Deleted
	case ev.Has(fsnotify.Rename):
		kind = Renamed
	case ev.Has(fsnotify.Write), ev.Has(fsnotify.Chmod):
		kind = Modified
	}
	return Event{Path: ev.Name, Kind: kind, Timestamp: time.Now()}
}

// Stop closes the underlying watcher. Safe to call more than once.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.done)
		err = w.fsw.Close()
	})
	return err
}
