package vsearch

// LinearAligner computes the same global alignment as SIMDAligner but in
// working memory linear in the sequence lengths (pairs under directBase
// cells use a full O(qlen*tlen) table instead), for pairs the vectorised aligner
// refuses (AlignBatch's Overflowed flag, or a length product over
// MaxSeqLenProduct). It is the scalar, full-width counterpart: no lane
// packing, no int16 saturation, 64-bit scores throughout.
type LinearAligner struct {
	Scorer *ScoreMatrix
	Gaps   *GapModel

	// directBase bounds the cell count at which Align switches from
	// Hirschberg recursion to a direct, fully-backtracked DP table.
	// Below this the O(qlen*tlen) table is cheap enough to allocate
	// outright and gives an exact backtrace with no split-boundary
	// approximation.
	directBase int
}

// NewLinearAligner builds a fallback aligner sharing scorer/gaps with the
// vectorised aligner; scorer must use the same alphabet as the sequences
// Align is called with.
func NewLinearAligner(scorer *ScoreMatrix, gaps *GapModel) *LinearAligner {
	return &LinearAligner{Scorer: scorer, Gaps: gaps, directBase: 1 << 20}
}

// Align runs a global alignment of query against target, recursing via
// Hirschberg's divide-and-conquer when the subproblem is too large for a
// direct table, and a region-aware Gotoh DP with full backtrace
// otherwise.
func (a *LinearAligner) Align(query, target []byte) AlignResult {
	ops := a.align(query, target, 0, len(query), 0, len(target), true, true, true, true)
	matches, mismatches, gapCols, gapEvents := tallyOps(query, target, ops)
	score := a.scoreOps(query, target, ops)
	return AlignResult{
		Score:      score,
		Alen:       matches + mismatches + gapCols,
		Matches:    matches,
		Mismatches: mismatches,
		Gaps:       gapEvents,
		Indels:     gapCols,
		Cigar:      renderCigar(ops),
	}
}

// align recurses over query[qs:qe] vs target[ts:te]. qLeftEdge/qRightEdge
// (resp. t*) report whether this subrange touches the original sequence's
// left/right boundary, so the region-aware gap penalties (free end-gaps,
// etc) are only applied at the true ends, not at an internal Hirschberg
// split point.
func (a *LinearAligner) align(query, target []byte, qs, qe, ts, te int, qLeftEdge, qRightEdge, tLeftEdge, tRightEdge bool) []cigarOp {
	qn, tn := qe-qs, te-ts

	if qn == 0 && tn == 0 {
		return nil
	}
	if qn == 0 {
		return []cigarOp{{op: 'I', n: tn}}
	}
	if tn == 0 {
		return []cigarOp{{op: 'D', n: qn}}
	}
	if qn*tn <= a.directBase {
		return a.directAlign(query[qs:qe], target[ts:te], qLeftEdge, qRightEdge, tLeftEdge, tRightEdge)
	}

	mid := qs + qn/2
	fwdH, fwdE := a.scoreRow(query, target, qs, mid, ts, te, qLeftEdge, tLeftEdge, tRightEdge, false)
	bwdH, bwdE := a.scoreRow(reverseSeq(query[mid:qe]), reverseSeq(target[ts:te]), 0, qe-mid, 0, tn, qRightEdge, tRightEdge, tLeftEdge, true)

	split := bestSplit(fwdH, fwdE, bwdH, bwdE)

	left := a.align(query, target, qs, mid, ts, ts+split, qLeftEdge, false, tLeftEdge, false)
	right := a.align(query, target, mid, qe, ts+split, te, false, qRightEdge, false, tRightEdge)
	return mergeCigarOps(left, right)
}

// scoreRow runs a forward (or, given pre-reversed inputs, "backward") NW
// score-only sweep of query[qs:qe] against target[ts:te], returning the
// final H and E rows (length tn+1). Only the query axis's left edge and
// the target axis's left/right edges matter for region selection; the
// query axis's right edge is irrelevant since the sweep never reaches it
// (it stops at row qe-qs, an internal boundary) except when reversed=true
// signals this is already the reversed, "forward-shaped" backward sweep.
func (a *LinearAligner) scoreRow(query, target []byte, qs, qe, ts, te int, qAtLeftEdge, tAtLeftEdge, tAtRightEdge bool, reversed bool) ([]int64, []int64) {
	qn, tn := qe-qs, te-ts
	h := make([]int64, tn+1)
	e := make([]int64, tn+1)
	negInf := int64(-1) << 40

	gq := a.Gaps.Get(AxisQuery, RegionInterior)
	gtLeft := a.Gaps.Get(AxisTarget, RegionLeft)
	gtInt := a.Gaps.Get(AxisTarget, RegionInterior)
	gtRight := a.Gaps.Get(AxisTarget, RegionRight)
	gapForT := func(j int) GapPenalty {
		if j == 0 && tAtLeftEdge {
			return gtLeft
		}
		if j == tn && tAtRightEdge {
			return gtRight
		}
		return gtInt
	}

	h[0] = 0
	e[0] = negInf
	var f0 int64 = negInf
	for j := 1; j <= tn; j++ {
		gp := gapForT(j)
		f0 = max64(h[j-1]-gp.Open, f0-gp.Extend)
		h[j] = f0
		e[j] = negInf
	}

	prev := make([]int64, tn+1)
	for i := 1; i <= qn; i++ {
		copy(prev, h)
		qOpen, qExt := gq.Open, gq.Extend
		if i == 1 && qAtLeftEdge {
			qOpen = a.Gaps.Get(AxisQuery, RegionLeft).Open
			qExt = a.Gaps.Get(AxisQuery, RegionLeft).Extend
		}
		leftH := h[0]
		e[0] = max64(prev[0]-qOpen, e[0]-qExt)
		h[0] = e[0]
		var f int64 = negInf
		qi := qs + i - 1
		for j := 1; j <= tn; j++ {
			gp := gapForT(j)
			diag := prev[j-1] + a.Scorer.Wide(query[qi], target[ts+j-1])
			e[j] = max64(prev[j]-qOpen, e[j]-qExt)
			f = max64(leftH-gp.Open, f-gp.Extend)
			best := diag
			if e[j] > best {
				best = e[j]
			}
			if f > best {
				best = f
			}
			leftH = h[j]
			h[j] = best
		}
	}
	_ = reversed
	return h, e
}

// bestSplit finds the target column that maximizes the combined forward
// and reversed-backward score at the Hirschberg midpoint, the standard
// Needleman-Wunsch-with-middle-row split rule. The E (gap) rows
// participate in the maximization so a vertical gap run spanning the
// midpoint still yields a split with an optimal total score; the run may
// land one column off from where a full state-matching variant would put
// it, which mergeCigarOps absorbs when the halves are joined.
func bestSplit(fwdH, fwdE, bwdH, bwdE []int64) int {
	tn := len(fwdH) - 1
	best := fwdH[0] + bwdH[tn]
	bestJ := 0
	for j := 0; j <= tn; j++ {
		if v := fwdH[j] + bwdH[tn-j]; v > best {
			best, bestJ = v, j
		}
		if v := fwdE[j] + bwdE[tn-j]; v > best {
			best, bestJ = v, j
		}
	}
	return bestJ
}

func reverseSeq(s []byte) []byte {
	out := make([]byte, len(s))
	for i, b := range s {
		out[len(s)-1-i] = b
	}
	return out
}

// directAlign runs a full O(qlen*tlen) region-aware Gotoh DP with an
// explicit backtrace, used for Hirschberg base cases small enough to
// afford the table outright.
func (a *LinearAligner) directAlign(query, target []byte, qLeftEdge, qRightEdge, tLeftEdge, tRightEdge bool) []cigarOp {
	qn, tn := len(query), len(target)
	negInf := int64(-1) << 40

	type cell struct {
		h, e, f int64
	}
	table := make([][]cell, qn+1)
	for i := range table {
		table[i] = make([]cell, tn+1)
	}

	gqLeft, gqInt, gqRight := a.Gaps.Get(AxisQuery, RegionLeft), a.Gaps.Get(AxisQuery, RegionInterior), a.Gaps.Get(AxisQuery, RegionRight)
	gtLeft, gtInt, gtRight := a.Gaps.Get(AxisTarget, RegionLeft), a.Gaps.Get(AxisTarget, RegionInterior), a.Gaps.Get(AxisTarget, RegionRight)

	gapQ := func(i int) GapPenalty {
		if i == 0 && qLeftEdge {
			return gqLeft
		}
		if i == qn && qRightEdge {
			return gqRight
		}
		return gqInt
	}
	gapT := func(j int) GapPenalty {
		if j == 0 && tLeftEdge {
			return gtLeft
		}
		if j == tn && tRightEdge {
			return gtRight
		}
		return gtInt
	}

	table[0][0] = cell{h: 0, e: negInf, f: negInf}
	f0 := negInf
	for j := 1; j <= tn; j++ {
		gp := gapT(j)
		f0 = max64(table[0][j-1].h-gp.Open, f0-gp.Extend)
		table[0][j] = cell{h: f0, e: negInf, f: f0}
	}
	e0 := negInf
	for i := 1; i <= qn; i++ {
		gp := gapQ(i)
		e0 = max64(table[i-1][0].h-gp.Open, e0-gp.Extend)
		table[i][0] = cell{h: e0, e: e0, f: negInf}
	}

	for i := 1; i <= qn; i++ {
		gp := gapQ(i)
		for j := 1; j <= tn; j++ {
			gt := gapT(j)
			diag := table[i-1][j-1].h + a.Scorer.Wide(query[i-1], target[j-1])
			e := max64(table[i-1][j].h-gp.Open, table[i-1][j].e-gp.Extend)
			f := max64(table[i][j-1].h-gt.Open, table[i][j-1].f-gt.Extend)
			h := diag
			if e > h {
				h = e
			}
			if f > h {
				h = f
			}
			table[i][j] = cell{h: h, e: e, f: f}
		}
	}

	// The walk is stateful: once inside a gap run it keeps consuming
	// that run while extension was the better (or equal) continuation,
	// leaving the run only where the run's score came from a fresh
	// open. Re-deciding from H at every cell instead can wander off the
	// path the DP actually scored.
	var ops []cigarOp
	appendRun := func(op byte) {
		if len(ops) > 0 && ops[len(ops)-1].op == op {
			ops[len(ops)-1].n++
			return
		}
		ops = append(ops, cigarOp{op: op, n: 1})
	}
	i, j := qn, tn
	state := 0 // 0 = deciding, 1 = vertical run (D), 2 = horizontal run (I)
	for i > 0 && j > 0 {
		c := table[i][j]
		switch state {
		case 1:
			appendRun('D')
			if gp := gapQ(i); c.e == table[i-1][j].h-gp.Open {
				state = 0
			}
			i--
			continue
		case 2:
			appendRun('I')
			if gp := gapT(j); c.f == table[i][j-1].h-gp.Open {
				state = 0
			}
			j--
			continue
		}
		switch {
		case c.h == table[i-1][j-1].h+a.Scorer.Wide(query[i-1], target[j-1]):
			appendRun('M')
			i--
			j--
		case c.h == c.e:
			state = 1
		default:
			state = 2
		}
	}
	for i > 0 {
		appendRun('D')
		i--
	}
	for j > 0 {
		appendRun('I')
		j--
	}
	reverseCigarOps(ops)
	return ops
}

func mergeCigarOps(left, right []cigarOp) []cigarOp {
	if len(left) == 0 {
		return right
	}
	if len(right) == 0 {
		return left
	}
	if left[len(left)-1].op == right[0].op {
		out := make([]cigarOp, 0, len(left)+len(right)-1)
		out = append(out, left[:len(left)-1]...)
		out = append(out, cigarOp{op: left[len(left)-1].op, n: left[len(left)-1].n + right[0].n})
		out = append(out, right[1:]...)
		return out
	}
	out := make([]cigarOp, 0, len(left)+len(right))
	out = append(out, left...)
	out = append(out, right...)
	return out
}

func tallyOps(query, target []byte, ops []cigarOp) (matches, mismatches, gapCols, gapEvents uint32) {
	qi, tj := 0, 0
	for _, r := range ops {
		switch r.op {
		case 'M':
			for k := 0; k < r.n; k++ {
				if query[qi] == target[tj] {
					matches++
				} else {
					mismatches++
				}
				qi++
				tj++
			}
		case 'D':
			gapCols += uint32(r.n)
			gapEvents++
			qi += r.n
		case 'I':
			gapCols += uint32(r.n)
			gapEvents++
			tj += r.n
		}
	}
	return
}

// scoreOps recomputes the alignment score exactly along ops, the same
// recompute-don't-trust discipline the SIMD aligner's backtrace uses.
func (a *LinearAligner) scoreOps(query, target []byte, ops []cigarOp) int64 {
	var score int64
	qi, tj := 0, 0
	qlen, tlen := len(query), len(target)
	for _, r := range ops {
		switch r.op {
		case 'M':
			for k := 0; k < r.n; k++ {
				score += a.Scorer.Wide(query[qi], target[tj])
				qi++
				tj++
			}
		case 'D':
			gp := a.endAwareGapQ(qi, qlen)
			score -= gp.Open + gp.Extend*int64(r.n-1)
			qi += r.n
		case 'I':
			gp := a.endAwareGapT(tj, tlen)
			score -= gp.Open + gp.Extend*int64(r.n-1)
			tj += r.n
		}
	}
	return score
}

func (a *LinearAligner) endAwareGapQ(pos, n int) GapPenalty {
	if pos == 0 {
		return a.Gaps.Get(AxisQuery, RegionLeft)
	}
	if pos >= n {
		return a.Gaps.Get(AxisQuery, RegionRight)
	}
	return a.Gaps.Get(AxisQuery, RegionInterior)
}

func (a *LinearAligner) endAwareGapT(pos, n int) GapPenalty {
	if pos == 0 {
		return a.Gaps.Get(AxisTarget, RegionLeft)
	}
	if pos >= n {
		return a.Gaps.Get(AxisTarget, RegionRight)
	}
	return a.Gaps.Get(AxisTarget, RegionInterior)
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
