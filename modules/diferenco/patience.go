// MIT License

// Copyright (c) 2022 Peter Evans

// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:

// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.

// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package diferenco

// PatienceStrategy anchors on lines that occur exactly once on both sides,
// aligns those anchors by longest increasing subsequence, and recurses
// between them. Subranges with no unique anchor fall back to Myers.
type PatienceStrategy[E comparable] struct{}

func (PatienceStrategy[E]) Compute(old, new []E) []Opcode {
	return PatienceDiff(old, new)
}

// PatienceDiff computes the patience diff between old and new.
func PatienceDiff[E comparable](old, new []E) []Opcode {
	return coalesce(patienceRange(old, 0, len(old), new, 0, len(new)))
}

// patienceRange aligns old[oStart:oEnd] against new[nStart:nEnd], emitting
// Opcodes with indices in the full original coordinate space.
func patienceRange[E comparable](old []E, oStart, oEnd int, new []E, nStart, nEnd int) []Opcode {
	oSub, nSub := old[oStart:oEnd], new[nStart:nEnd]

	if len(oSub) == 0 && len(nSub) == 0 {
		return nil
	}
	if len(oSub) == 0 {
		return []Opcode{{Kind: Insert, OldStart: oStart, OldEnd: oStart, NewStart: nStart, NewEnd: nEnd}}
	}
	if len(nSub) == 0 {
		return []Opcode{{Kind: Delete, OldStart: oStart, OldEnd: oEnd, NewStart: nStart, NewEnd: nStart}}
	}

	// Peel off a common prefix and suffix; these are free anchors that need
	// no LCS computation.
	if p := commonPrefixLength(oSub, nSub); p > 0 {
		eq := Opcode{Kind: Equal, OldStart: oStart, OldEnd: oStart + p, NewStart: nStart, NewEnd: nStart + p}
		return append([]Opcode{eq}, patienceRange(old, oStart+p, oEnd, new, nStart+p, nEnd)...)
	}
	if s := commonSuffixLength(oSub, nSub); s > 0 {
		eq := Opcode{Kind: Equal, OldStart: oEnd - s, OldEnd: oEnd, NewStart: nEnd - s, NewEnd: nEnd}
		return append(patienceRange(old, oStart, oEnd-s, new, nStart, nEnd-s), eq)
	}

	anchors := uniqueAnchors(oSub, nSub)
	if len(anchors) == 0 {
		// No shared unique line in this subrange: Myers is the fallback.
		ops := MyersDiff(oSub, nSub)
		return shiftOpcodes(ops, oStart, nStart)
	}

	chain := longestIncreasingByNew(anchors)
	if len(chain) == 0 {
		ops := MyersDiff(oSub, nSub)
		return shiftOpcodes(ops, oStart, nStart)
	}

	var out []Opcode
	prevO, prevN := 0, 0
	for _, a := range chain {
		out = append(out, patienceRange(old, oStart+prevO, oStart+a.oldIdx, new, nStart+prevN, nStart+a.newIdx)...)
		out = append(out, Opcode{Kind: Equal, OldStart: oStart + a.oldIdx, OldEnd: oStart + a.oldIdx + 1, NewStart: nStart + a.newIdx, NewEnd: nStart + a.newIdx + 1})
		prevO, prevN = a.oldIdx+1, a.newIdx+1
	}
	out = append(out, patienceRange(old, oStart+prevO, oEnd, new, nStart+prevN, nEnd)...)
	return out
}

func shiftOpcodes(ops []Opcode, oOffset, nOffset int) []Opcode {
	out := make([]Opcode, len(ops))
	for i, op := range ops {
		out[i] = Opcode{
			Kind:     op.Kind,
			OldStart: op.OldStart + oOffset,
			OldEnd:   op.OldEnd + oOffset,
			NewStart: op.NewStart + nOffset,
			NewEnd:   op.NewEnd + nOffset,
		}
	}
	return out
}

type anchor struct {
	oldIdx, newIdx int
}

// uniqueAnchors returns, for each element value that appears exactly once in
// both old and new, the (oldIdx, newIdx) pair — in old-index order.
func uniqueAnchors[E comparable](old, new []E) []anchor {
	oldCount := make(map[E]int, len(old))
	oldPos := make(map[E]int, len(old))
	for i, e := range old {
		oldCount[e]++
		oldPos[e] = i
	}
	newCount := make(map[E]int, len(new))
	newPos := make(map[E]int, len(new))
	for i, e := range new {
		newCount[e]++
		newPos[e] = i
	}
	anchors := make([]anchor, 0)
	for e, c := range oldCount {
		if c != 1 || newCount[e] != 1 {
			continue
		}
		anchors = append(anchors, anchor{oldIdx: oldPos[e], newIdx: newPos[e]})
	}
	// Stable by old index; map iteration order is not, so sort.
	for i := 1; i < len(anchors); i++ {
		for j := i; j > 0 && anchors[j-1].oldIdx > anchors[j].oldIdx; j-- {
			anchors[j-1], anchors[j] = anchors[j], anchors[j-1]
		}
	}
	return anchors
}

// longestIncreasingByNew returns the longest subsequence of anchors (already
// sorted by oldIdx) whose newIdx is also strictly increasing, computed in
// O(N log N) via patience sorting over piles.
func longestIncreasingByNew(anchors []anchor) []anchor {
	if len(anchors) == 0 {
		return nil
	}
	// pileTops[i] = index into anchors of the smallest-newIdx anchor that
	// terminates an increasing run of length i+1.
	pileTops := make([]int, 0, len(anchors))
	predecessor := make([]int, len(anchors))
	for i, a := range anchors {
		lo, hi := 0, len(pileTops)
		for lo < hi {
			mid := (lo + hi) / 2
			if anchors[pileTops[mid]].newIdx < a.newIdx {
				lo = mid + 1
			} else {
				hi = mid
			}
		}
		if lo > 0 {
			predecessor[i] = pileTops[lo-1]
		} else {
			predecessor[i] = -1
		}
		if lo == len(pileTops) {
			pileTops = append(pileTops, i)
		} else {
			pileTops[lo] = i
		}
	}
	chain := make([]anchor, len(pileTops))
	idx := pileTops[len(pileTops)-1]
	for i := len(pileTops) - 1; i >= 0; i-- {
		chain[i] = anchors[idx]
		idx = predecessor[idx]
	}
	return chain
}
