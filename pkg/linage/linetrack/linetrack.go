// Package linetrack converts a diff strategy's opcodes over old/new text
// into the hashed per-line LineChange records the metadata store persists.
package linetrack

import (
	"strings"
	"time"

	"github.com/antgroup/linage/modules/diferenco"
	"github.com/antgroup/linage/modules/plumbing"
	"github.com/antgroup/linage/pkg/linage/object"
)

// Tracker splits text on universal newlines and runs a diff Strategy over
// the resulting lines to produce LineChange records.
type Tracker struct {
	strategy diferenco.Strategy[string]
	hasher   plumbing.Hasher
}

// New returns a Tracker driven by strategy, hashing lines with hasher.
func New(strategy diferenco.Strategy[string], hasher plumbing.Hasher) *Tracker {
	return &Tracker{strategy: strategy, hasher: hasher}
}

// SplitLines splits text on \r\n, \r, and \n (universal newlines), dropping
// the terminators. A trailing newline does not produce a trailing empty
// line; text with no trailing newline still yields its final line.
func SplitLines(text string) []string {
	if text == "" {
		return nil
	}
	normalized := strings.ReplaceAll(text, "\r\n", "\n")
	normalized = strings.ReplaceAll(normalized, "\r", "\n")
	lines := strings.Split(normalized, "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// Track computes LineChange records for the transition from oldText to
// newText, stamped with now and attributed to commitID.
func (t *Tracker) Track(oldText, newText string, commitID string, now time.Time) []object.LineChange {
	oldLines := SplitLines(oldText)
	newLines := SplitLines(newText)
	ops := t.strategy.Compute(oldLines, newLines)

	var changes []object.LineChange
	for _, op := range ops {
		switch op.Kind {
		case diferenco.Equal:
			continue
		case diferenco.Insert:
			for i := op.NewStart; i < op.NewEnd; i++ {
				changes = append(changes, object.LineChange{
					LineNumber: i + 1,
					NewDigest:  t.hasher.HashText(newLines[i]),
					Type:       object.Added,
					Timestamp:  now,
					CommitID:   commitID,
				})
			}
		case diferenco.Delete:
			for i := op.OldStart; i < op.OldEnd; i++ {
				changes = append(changes, object.LineChange{
					LineNumber: i + 1,
					OldDigest:  t.hasher.HashText(oldLines[i]),
					Type:       object.Deleted,
					Timestamp:  now,
					CommitID:   commitID,
				})
			}
		case diferenco.Modify:
			oldLen := op.OldEnd - op.OldStart
			newLen := op.NewEnd - op.NewStart
			overlap := min(oldLen, newLen)
			for i := 0; i < overlap; i++ {
				changes = append(changes, object.LineChange{
					LineNumber: op.NewStart + i + 1,
					OldDigest:  t.hasher.HashText(oldLines[op.OldStart+i]),
					NewDigest:  t.hasher.HashText(newLines[op.NewStart+i]),
					Type:       object.Modified,
					Timestamp:  now,
					CommitID:   commitID,
				})
			}
			for i := overlap; i < newLen; i++ {
				changes = append(changes, object.LineChange{
					LineNumber: op.NewStart + i + 1,
					NewDigest:  t.hasher.HashText(newLines[op.NewStart+i]),
					Type:       object.Added,
					Timestamp:  now,
					CommitID:   commitID,
				})
			}
			for i := overlap; i < oldLen; i++ {
				changes = append(changes, object.LineChange{
					LineNumber: op.OldStart + i + 1,
					OldDigest:  t.hasher.HashText(oldLines[op.OldStart+i]),
					Type:       object.Deleted,
					Timestamp:  now,
					CommitID:   commitID,
				})
			}
		}
	}
	return changes
}
