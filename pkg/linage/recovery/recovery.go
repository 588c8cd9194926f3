// Package recovery maintains an append-only per-branch reflog and uses it
// (plus the commit graph) to roll branches back, find dangling commits, and
// recover a commit onto a fresh branch.
package recovery

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/antgroup/linage/pkg/linage/errs"
	"github.com/antgroup/linage/pkg/linage/object"
)

const logsDir = "logs"

// timestampLayout is the reflog's on-disk timestamp format: a sortable,
// second-granularity, space-separated date and time.
const timestampLayout = "2006-01-02 15:04:05"

// Entry is one reflog line: <timestamp>\t<old or "null">\t<new>\t<action>.
type Entry struct {
	Timestamp time.Time
	Old       string
	New       string
	Action    string
}

// Store is the persistence surface RecoveryManager needs.
type Store interface {
	GetBranch(ctx context.Context, name string) (*object.Branch, error)
	SaveBranch(ctx context.Context, b *object.Branch) error
}

// Manager appends reflog entries under <root>/.linage/logs/<branch>.log.
type Manager struct {
	root string
}

// New returns a Manager rooted at repoRoot (the repository's working-tree
// root, not the .linage directory itself).
func New(repoRoot string) *Manager {
	return &Manager{root: repoRoot}
}

func (m *Manager) logPath(branch string) string {
	return filepath.Join(m.root, ".linage", logsDir, branch+".log")
}

func formatEntry(e Entry) string {
	old := e.Old
	if old == "" {
		old = "null"
	}
	return fmt.Sprintf("%s\t%s\t%s\t%s\n", e.Timestamp.UTC().Format(timestampLayout), old, e.New, e.Action)
}

func parseEntry(line string) (Entry, error) {
	parts := strings.SplitN(line, "\t", 4)
	if len(parts) != 4 {
		return Entry{}, fmt.Errorf("malformed reflog line: %q", line)
	}
	ts, err := time.Parse(timestampLayout, parts[0])
	if err != nil {
		return Entry{}, fmt.Errorf("malformed reflog timestamp: %q", parts[0])
	}
	old := parts[1]
	if old == "null" {
		old = ""
	}
	return Entry{Timestamp: ts.UTC(), Old: old, New: parts[2], Action: parts[3]}, nil
}

// Append writes one entry to branch's reflog, creating the log file and its
// parent directory if needed.
func (m *Manager) Append(branch string, e Entry) error {
	path := m.logPath(branch)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errs.New(errs.IoError, "recovery", branch, err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return errs.New(errs.IoError, "recovery", branch, err)
	}
	defer f.Close()
	if _, err := f.WriteString(formatEntry(e)); err != nil {
		return errs.New(errs.IoError, "recovery", branch, err)
	}
	return nil
}

// Read returns branch's reflog entries in file order (oldest first).
func (m *Manager) Read(branch string) ([]Entry, error) {
	f, err := os.Open(m.logPath(branch))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errs.New(errs.IoError, "recovery", branch, err)
	}
	defer f.Close()

	var entries []Entry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r\n")
		if line == "" {
			continue
		}
		e, err := parseEntry(line)
		if err != nil {
			return nil, errs.New(errs.Corruption, "recovery", branch, err)
		}
		entries = append(entries, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, errs.New(errs.IoError, "recovery", branch, err)
	}
	return entries, nil
}

// RollbackBranch moves branch's head to target, recording a reflog entry
// and persisting the move.
func (m *Manager) RollbackBranch(ctx context.Context, store Store, branch, target string) error {
	b, err := store.GetBranch(ctx, branch)
	if err != nil {
		return err
	}
	oldHead := b.Head
	b.Head = target
	if err := store.SaveBranch(ctx, b); err != nil {
		return err
	}
	return m.Append(branch, Entry{Timestamp: time.Now(), Old: oldHead, New: target, Action: "rollback"})
}

// FindDangling returns every commit id in commits not reachable from any
// branch head via BFS over parent pointers.
func FindDangling(commits map[string]*object.Commit, branches []*object.Branch) []string {
	reachable := make(map[string]bool)
	var queue []string
	for _, b := range branches {
		if b.Head != "" {
			queue = append(queue, b.Head)
		}
	}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if reachable[cur] {
			continue
		}
		reachable[cur] = true
		if c, ok := commits[cur]; ok {
			queue = append(queue, c.Parents...)
		}
	}

	var dangling []string
	for id := range commits {
		if !reachable[id] {
			dangling = append(dangling, id)
		}
	}
	return dangling
}

// Recover creates a new, inactive branch at commitID and logs the recovery.
func (m *Manager) Recover(ctx context.Context, store Store, commitID, newBranchName string) (*object.Branch, error) {
	b := &object.Branch{Name: newBranchName, Head: commitID, Active: false, CreatedAt: time.Now()}
	if err := store.SaveBranch(ctx, b); err != nil {
		return nil, err
	}
	if err := m.Append(newBranchName, Entry{Timestamp: time.Now(), Old: "", New: commitID, Action: "recover"}); err != nil {
		return nil, err
	}
	return b, nil
}
