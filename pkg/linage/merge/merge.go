// Package merge implements three-way text merge at line granularity:
// three fast paths, then an overlap check between the base-index sets each
// side touched, falling back to a literal conflict-marker block when they
// overlap and a best-effort base-index walk when they don't.
package merge

import (
	"runtime"
	"strings"

	"github.com/antgroup/linage/modules/diferenco"
	"github.com/antgroup/linage/pkg/linage/linetrack"
	"github.com/antgroup/linage/pkg/linage/object"
)

const (
	markerLocal  = "<<<<<<< LOCAL"
	markerSplit  = "======="
	markerRemote = ">>>>>>> REMOTE"
)

// Engine performs three-way merges using strategy for the base→local and
// base→remote alignments.
type Engine struct {
	strategy diferenco.Strategy[string]
}

// New returns an Engine driven by strategy. A nil strategy defaults to
// Myers.
func New(strategy diferenco.Strategy[string]) *Engine {
	if strategy == nil {
		strategy = diferenco.MyersStrategy[string]{}
	}
	return &Engine{strategy: strategy}
}

// Result is the outcome of a three-way merge for one path.
type Result struct {
	Success    bool
	MergedText string
	Conflicts  []object.Conflict
}

func newline() string {
	if runtime.GOOS == "windows" {
		return "\r\n"
	}
	return "\n"
}

// Merge performs a three-way merge of baseText/localText/remoteText for
// path, trying the fast paths before falling back to line-index alignment.
func (e *Engine) Merge(path, baseText, localText, remoteText string) Result {
	if localText == remoteText {
		return Result{Success: true, MergedText: localText}
	}
	if baseText == localText {
		return Result{Success: true, MergedText: remoteText}
	}
	if baseText == remoteText {
		return Result{Success: true, MergedText: localText}
	}

	baseLines := linetrack.SplitLines(baseText)
	localLines := linetrack.SplitLines(localText)
	remoteLines := linetrack.SplitLines(remoteText)

	localOps := e.strategy.Compute(baseLines, localLines)
	remoteOps := e.strategy.Compute(baseLines, remoteLines)

	localTouched := touchedBaseIndices(localOps)
	remoteTouched := touchedBaseIndices(remoteOps)

	if overlaps(localTouched, remoteTouched) {
		merged := strings.Join([]string{
			markerLocal, localText, markerSplit, remoteText, markerRemote,
		}, newline())
		return Result{
			Success:    false,
			MergedText: merged,
			Conflicts: []object.Conflict{{
				Path:       path,
				BaseText:   baseText,
				LocalText:  localText,
				RemoteText: remoteText,
			}},
		}
	}

	merged := make([]string, 0, len(baseLines))
	for i, base := range baseLines {
		switch {
		case localTouched[i]:
			if i < len(localLines) {
				merged = append(merged, localLines[i])
			}
		case remoteTouched[i]:
			if i < len(remoteLines) {
				merged = append(merged, remoteLines[i])
			}
		default:
			merged = append(merged, base)
		}
	}
	text := strings.Join(merged, newline())
	if len(merged) > 0 {
		text += newline()
	}
	return Result{Success: true, MergedText: text}
}

// touchedBaseIndices returns the set of base-line indices covered by any
// non-Equal opcode's old range.
func touchedBaseIndices(ops []diferenco.Opcode) map[int]bool {
	touched := make(map[int]bool)
	for _, op := range ops {
		if op.Kind == diferenco.Equal {
			continue
		}
		for i := op.OldStart; i < op.OldEnd; i++ {
			touched[i] = true
		}
	}
	return touched
}

func overlaps(a, b map[int]bool) bool {
	small, large := a, b
	if len(b) < len(a) {
		small, large = b, a
	}
	for i := range small {
		if large[i] {
			return true
		}
	}
	return false
}
