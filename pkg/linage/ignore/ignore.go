// Package ignore implements gitignore-style path filtering: ordered glob
// rules where the last match wins, backed by the glob engine in glob.go.
package ignore

import (
	"bufio"
	"os"
	"strings"
)

// rule is one compiled pattern line.
type rule struct {
	raw     string
	negate  bool
	dirOnly bool
	m       *globPattern
}

// Filter evaluates a path against an ordered set of rules. Rules are
// evaluated in insertion order; the last rule that matches decides the
// outcome, so a later negation re-includes a path excluded earlier.
type Filter struct {
	rules []rule
}

// New returns a Filter seeded with DefaultPatterns.
func New() *Filter {
	f := &Filter{}
	for _, p := range DefaultPatterns() {
		f.AddPattern(p)
	}
	return f
}

// DefaultPatterns returns the fixed set of rules every repository ignores
// unless explicitly re-included.
func DefaultPatterns() []string {
	return []string{
		".git/",
		".linage/",
		"bin/",
		"obj/",
		"*.exe",
		"*.dll",
		"*.log",
		".DS_Store",
		"Thumbs.db",
	}
}

// AddPattern compiles and appends a single gitignore-style pattern line.
// Blank lines and comment lines (leading '#') are ignored.
func (f *Filter) AddPattern(p string) {
	line := strings.TrimRight(p, "\r\n")
	if line == "" || strings.HasPrefix(line, "#") {
		return
	}

	r := rule{raw: line}
	if strings.HasPrefix(line, "!") {
		r.negate = true
		line = line[1:]
	}
	if strings.HasSuffix(line, "/") {
		r.dirOnly = true
		line = strings.TrimSuffix(line, "/")
	}
	// The leading slash stays in the compiled pattern: it becomes an empty
	// first component, which pins the match to the repository root.
	anchored := strings.HasPrefix(line, "/")

	opts := []patternOpt{foldCase, matchContents}
	if !anchored && !strings.Contains(line, "/") {
		opts = append(opts, matchBasename)
	}
	r.m = newGlobPattern(line, opts...)
	f.rules = append(f.rules, r)
}

// LoadFile reads a .gitignore-formatted file, adding one rule per non-empty,
// non-comment line.
func (f *Filter) LoadFile(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		f.AddPattern(scanner.Text())
	}
	return scanner.Err()
}

// IsIgnored reports whether path (repository-relative, '/'-separated) is
// ignored under the rules accumulated so far.
func (f *Filter) IsIgnored(path string, isDir bool) bool {
	ignored := false
	for _, r := range f.rules {
		target, dir := path, isDir
		if r.dirOnly && !isDir {
			// A directory-only rule reaches a file only through the
			// directories that contain it.
			i := strings.LastIndexByte(path, '/')
			if i < 0 {
				continue
			}
			target, dir = path[:i], true
		}
		if !r.m.match(target, dir) {
			continue
		}
		ignored = !r.negate
	}
	return ignored
}
