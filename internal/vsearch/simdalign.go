package vsearch

import "math"

// Lanes is the channel width of the vectorised aligner: up to 8
// independent targets are aligned against one query in lockstep, in
// 16-bit signed arithmetic.
const Lanes = 8

// CDepth is the number of database columns a real SIMD implementation
// would process per inner-loop round before checking for saturation.
// This implementation checks for overflow once per completed lane
// instead (see overflowCheck), so CDepth is kept only as a documented
// equivalence point with that design.
const CDepth = 4

// MaxSeqLenProduct is a length-product tripwire: pairs whose
// query_len * target_len exceeds this are never attempted in the
// vectorised aligner and are routed straight to the linear-memory
// fallback.
const MaxSeqLenProduct = 25_000_000

// direction bit indices within the per-cell, per-channel 2-bit group.
const (
	dirUp = iota
	dirLeft
	dirExtUp
	dirExtLeft
)

// dirWord packs, for one DP cell, the four direction flags for all 8
// channels into a single uint64: 4 directions x 8 channels x 2 bits =
// 64 bits exactly.
type dirWord uint64

func (w dirWord) get(channel, dir int) bool {
	shift := uint(dir*16 + channel*2)
	return (w>>shift)&0x3 != 0
}

func (w *dirWord) set(channel, dir int, v bool) {
	shift := uint(dir*16 + channel*2)
	*w &^= dirWord(0x3) << shift
	if v {
		*w |= dirWord(0x1) << shift
	}
}

// AlignResult is the output of one pairwise alignment, independent of
// which aligner (SIMD or linear-memory) produced it: the two must agree
// on this tuple whenever the SIMD run does not overflow.
type AlignResult struct {
	Overflowed bool
	Score      int64
	Alen       uint32
	Matches    uint32
	Mismatches uint32
	Gaps       uint32 // number of gap *events* (runs), not gap columns
	Indels     uint32 // number of gap columns (I/D run lengths summed)
	Cigar      string
}

// SIMDAligner computes, for up to Lanes targets at once, a global
// Needleman-Wunsch alignment against one query with per-end affine gap
// penalties, 16-bit saturating arithmetic and overflow detection, and a
// direction-bit backtrace into a CIGAR string.
type SIMDAligner struct {
	Scorer *ScoreMatrix
	Gaps   *GapModel

	// per-worker scratch, grown on demand and reused across batches.
	// buf is shared by all lanes of a batch: every lane addresses it
	// with the same stride (the widest target in the batch) and only
	// touches its own 2-bit groups, so the 8 channels' direction bits
	// interleave without clobbering each other.
	h, e   [Lanes][]int16
	buf    []dirWord
	stride int
}

// NewSIMDAligner builds an aligner sharing scorer/gaps across batches;
// scorer must use the same alphabet as the sequences AlignBatch is
// called with.
func NewSIMDAligner(scorer *ScoreMatrix, gaps *GapModel) *SIMDAligner {
	return &SIMDAligner{Scorer: scorer, Gaps: gaps}
}

// AlignBatch aligns query against up to Lanes targets. Each result's
// Overflowed flag, when true, means the caller must re-run that pair
// through the linear-memory fallback aligner; AlignBatch still returns a
// (discarded) placeholder result for overflowed channels so callers can
// index results by the same batch position as targets.
func (a *SIMDAligner) AlignBatch(query []byte, targets [][]byte) []AlignResult {
	n := len(targets)
	if n > Lanes {
		panic("vsearch: AlignBatch given more than Lanes targets")
	}
	results := make([]AlignResult, n)
	qlen := len(query)

	maxTlen := 0
	for _, t := range targets {
		if len(t) > maxTlen {
			maxTlen = len(t)
		}
	}
	if qlen == 0 || maxTlen == 0 {
		for i := range results {
			results[i] = a.trivialResult(query, targets[i])
		}
		return results
	}

	for i, t := range targets {
		if qlen*len(t) > MaxSeqLenProduct {
			results[i] = AlignResult{Overflowed: true}
		}
	}

	a.ensureScratch(qlen, maxTlen)
	overflowed := make([]bool, n)
	for i := range overflowed {
		overflowed[i] = results[i].Overflowed
	}

	for lane := 0; lane < n; lane++ {
		if overflowed[lane] {
			continue
		}
		a.runLane(lane, query, targets[lane])
	}

	for lane := 0; lane < n; lane++ {
		if overflowed[lane] {
			continue
		}
		if a.overflowCheck(lane, qlen, len(targets[lane])) {
			results[lane] = AlignResult{Overflowed: true}
			continue
		}
		results[lane] = a.backtrace(lane, query, targets[lane])
	}
	return results
}

func (a *SIMDAligner) trivialResult(query, target []byte) AlignResult {
	qlen, tlen := len(query), len(target)
	if qlen == 0 && tlen == 0 {
		return AlignResult{Cigar: ""}
	}
	gq := a.Gaps.Get(AxisQuery, RegionInterior)
	gt := a.Gaps.Get(AxisTarget, RegionInterior)
	if qlen == 0 {
		return AlignResult{
			Alen: uint32(tlen), Gaps: 1, Indels: uint32(tlen),
			Score: -(gt.Open + gt.Extend*int64(tlen-1)),
			Cigar: cigarRun(tlen, 'I'),
		}
	}
	return AlignResult{
		Alen: uint32(qlen), Gaps: 1, Indels: uint32(qlen),
		Score: -(gq.Open + gq.Extend*int64(qlen-1)),
		Cigar: cigarRun(qlen, 'D'),
	}
}

func (a *SIMDAligner) ensureScratch(qlen, tlen int) {
	a.stride = tlen + 1
	need := (qlen + 1) * a.stride
	if len(a.buf) < need {
		a.buf = make([]dirWord, need)
	}
	for lane := 0; lane < Lanes; lane++ {
		if len(a.h[lane]) < tlen+1 {
			a.h[lane] = make([]int16, tlen+1)
			a.e[lane] = make([]int16, tlen+1)
		}
	}
}

func (a *SIMDAligner) cell(i, j int) *dirWord {
	return &a.buf[i*a.stride+j]
}

// runLane runs the Gotoh affine-gap recurrence for one channel, writing
// direction bits into the shared, channel-indexed dir buffer and leaving
// the final score in h[lane][tlen]. Overflow is checked separately by
// overflowCheck once the full lane has run rather than every CDepth
// columns: runLane notes whether any cell's H came within the overflow
// margin and, if so, pins h[lane][tlen] to the int16 ceiling, so the
// final-row scan in overflowCheck also catches a saturation in an
// earlier row.
func (a *SIMDAligner) runLane(lane int, query, target []byte) {
	qlen, tlen := len(query), len(target)
	h, e := a.h[lane], a.e[lane]

	gqLeft := a.Gaps.Get(AxisQuery, RegionLeft)
	gqInt := a.Gaps.Get(AxisQuery, RegionInterior)
	gqRight := a.Gaps.Get(AxisQuery, RegionRight)
	gtLeft := a.Gaps.Get(AxisTarget, RegionLeft)
	gtInt := a.Gaps.Get(AxisTarget, RegionInterior)
	gtRight := a.Gaps.Get(AxisTarget, RegionRight)

	gapFor := func(axis Axis, idx, n int, left, interior, right GapPenalty) GapPenalty {
		if idx == 0 {
			return left
		}
		if idx == n {
			return right
		}
		return interior
	}

	// Direction convention: "up" consumes a query residue without a
	// target residue (CIGAR D, a gap in the target); "left" consumes a
	// target residue without a query residue (CIGAR I, a gap in the
	// query). The E recurrence (query-consuming) is governed by the
	// query axis gap penalties and is reached by advancing the row; F
	// (target-consuming) is governed by the target axis and is reached
	// by advancing the column.
	const negInf = math.MinInt16 / 2

	// Any H within 1024 of either int16 bound marks the lane saturated;
	// the mark is folded into h[tlen] at the end so that overflowCheck's
	// scan of the final row sees a saturation from any earlier row too.
	saturated := false
	mark := func(v int16) {
		if v <= math.MinInt16+1024 || v >= math.MaxInt16-1024 {
			saturated = true
		}
	}

	// row 0: no query residues consumed yet, so the only reachable
	// state is a horizontal (F/left/I) run across the target.
	h[0] = 0
	e[0] = negInf
	var rowF0 int16 = negInf
	for j := 1; j <= tlen; j++ {
		gp := gapFor(AxisTarget, j, tlen, gtLeft, gtInt, gtRight)
		fOpen := sat16(int64(h[j-1]) - gp.Open)
		fExt := sat16(int64(rowF0) - gp.Extend)
		newF := fOpen
		extLeft := false
		if fExt > fOpen {
			newF = fExt
			extLeft = true
		}
		rowF0 = newF
		h[j] = newF
		mark(newF)
		e[j] = negInf
		// Every lane rewrites all four of its own direction bits in
		// every visited cell, so stale bits from the previous batch
		// never need a bulk clear.
		c := a.cell(0, j)
		c.set(lane, dirUp, false)
		c.set(lane, dirLeft, true)
		c.set(lane, dirExtUp, false)
		c.set(lane, dirExtLeft, extLeft)
	}

	prevH := make([]int16, tlen+1)
	for i := 1; i <= qlen; i++ {
		copy(prevH, h)
		gpQ := gapFor(AxisQuery, i, qlen, gqLeft, gqInt, gqRight)

		// column 0: no target residues consumed yet on this row, so
		// the only reachable state is a vertical (E/up/D) run.
		eOpen0 := sat16(int64(prevH[0]) - gpQ.Open)
		eExt0 := sat16(int64(e[0]) - gpQ.Extend)
		newE0 := eOpen0
		extUp0 := false
		if eExt0 > eOpen0 {
			newE0 = eExt0
			extUp0 = true
		}
		e[0] = newE0
		h[0] = newE0
		mark(newE0)
		{
			c := a.cell(i, 0)
			c.set(lane, dirUp, true)
			c.set(lane, dirLeft, false)
			c.set(lane, dirExtUp, extUp0)
			c.set(lane, dirExtLeft, false)
		}
		leftH := newE0 // h of (i, 0), the cell just written

		var rowF int16 = negInf
		for j := 1; j <= tlen; j++ {
			gpT := gapFor(AxisTarget, j, tlen, gtLeft, gtInt, gtRight)

			diag := sat16(int64(prevH[j-1]) + int64(a.Scorer.Narrow(query[i-1], target[j-1])))

			eOpen := sat16(int64(prevH[j]) - gpQ.Open)
			eExt := sat16(int64(e[j]) - gpQ.Extend)
			newE := eOpen
			extUp := false
			if eExt > eOpen {
				newE = eExt
				extUp = true
			}
			e[j] = newE

			fOpen := sat16(int64(leftH) - gpT.Open)
			fExt := sat16(int64(rowF) - gpT.Extend)
			newF := fOpen
			extLeft := false
			if fExt > fOpen {
				newF = fExt
				extLeft = true
			}
			rowF = newF

			best := diag
			up, left := false, false
			if newE > best {
				best, up, left = newE, true, false
			}
			if newF > best {
				best, up, left = newF, false, true
			}

			h[j] = best
			leftH = best
			mark(best)

			c := a.cell(i, j)
			c.set(lane, dirUp, up)
			c.set(lane, dirLeft, left)
			c.set(lane, dirExtUp, extUp)
			c.set(lane, dirExtLeft, extLeft)
		}
	}
	if saturated {
		h[tlen] = math.MaxInt16
	}
}

// overflowCheck reports whether any H value computed for this lane
// saturated the int16 range, collapsing the per-round min/max tracking a
// real SIMD implementation would do into a single post-hoc scan of the
// final H row, which carries runLane's saturation mark (see runLane's doc
// comment).
func (a *SIMDAligner) overflowCheck(lane, qlen, tlen int) bool {
	h := a.h[lane]
	for j := 0; j <= tlen; j++ {
		if h[j] <= math.MinInt16+1024 || h[j] >= math.MaxInt16-1024 {
			return true
		}
	}
	_ = qlen
	return false
}

func sat16(v int64) int16 {
	if v > math.MaxInt16 {
		return math.MaxInt16
	}
	if v < math.MinInt16 {
		return math.MinInt16
	}
	return int16(v)
}

// backtrace walks the direction buffer for one lane from (qlen,tlen)
// toward the origin, respecting gap-extension continuation: once in an
// insertion/deletion state, the ext-left/ext-up bits force the walk to
// remain in that state instead of re-evaluating open-vs-extend at every
// cell.
func (a *SIMDAligner) backtrace(lane int, query, target []byte) AlignResult {
	qlen, tlen := len(query), len(target)
	i, j := qlen, tlen
	var runs []cigarOp
	var matches, mismatches, gapCols uint32
	var gapEvents uint32
	state := 0 // 0 = diagonal, 1 = up (D, gap in target), 2 = left (I, gap in query)

	appendRun := func(op byte) {
		if len(runs) > 0 && runs[len(runs)-1].op == op {
			runs[len(runs)-1].n++
			return
		}
		runs = append(runs, cigarOp{op: op, n: 1})
		if op != 'M' {
			gapEvents++
		}
	}

	for i > 0 && j > 0 {
		w := *a.cell(i, j)
		switch state {
		case 1: // continuing a vertical gap (D): consumes query, not target
			appendRun('D')
			gapCols++
			i--
			if !w.get(lane, dirExtUp) {
				state = 0
			}
			continue
		case 2: // continuing a horizontal gap (I): consumes target, not query
			appendRun('I')
			gapCols++
			j--
			if !w.get(lane, dirExtLeft) {
				state = 0
			}
			continue
		}
		switch {
		case w.get(lane, dirUp):
			state = 1
		case w.get(lane, dirLeft):
			state = 2
		default:
			if query[i-1] == target[j-1] {
				matches++
			} else {
				mismatches++
			}
			appendRun('M')
			i--
			j--
		}
	}
	for i > 0 {
		appendRun('D')
		gapCols++
		i--
	}
	for j > 0 {
		appendRun('I')
		gapCols++
		j--
	}
	reverseCigarOps(runs)

	var score int64
	// Recompute score along the realised path so the returned Score
	// matches the realised CIGAR exactly, rather than trusting h[tlen]
	// directly.
	qi, tj := 0, 0
	for _, r := range runs {
		switch r.op {
		case 'M':
			for k := 0; k < r.n; k++ {
				score += a.Scorer.Wide(query[qi], target[tj])
				qi++
				tj++
			}
		case 'D':
			gp := a.endAwareGap(AxisQuery, qi, qlen)
			score -= gp.Open + gp.Extend*int64(r.n-1)
			qi += r.n
		case 'I':
			gp := a.endAwareGap(AxisTarget, tj, tlen)
			score -= gp.Open + gp.Extend*int64(r.n-1)
			tj += r.n
		}
	}

	return AlignResult{
		Score:      score,
		Alen:       matches + mismatches + gapCols,
		Matches:    matches,
		Mismatches: mismatches,
		Gaps:       gapEvents,
		Indels:     gapCols,
		Cigar:      renderCigar(runs),
	}
}

func (a *SIMDAligner) endAwareGap(axis Axis, pos, n int) GapPenalty {
	if pos == 0 {
		return a.Gaps.Get(axis, RegionLeft)
	}
	if pos >= n {
		return a.Gaps.Get(axis, RegionRight)
	}
	return a.Gaps.Get(axis, RegionInterior)
}

type cigarOp struct {
	op byte
	n  int
}

func reverseCigarOps(ops []cigarOp) {
	for i, j := 0, len(ops)-1; i < j; i, j = i+1, j-1 {
		ops[i], ops[j] = ops[j], ops[i]
	}
}

func renderCigar(ops []cigarOp) string {
	if len(ops) == 0 {
		return ""
	}
	buf := make([]byte, 0, len(ops)*4)
	for _, r := range ops {
		buf = appendItoa(buf, r.n)
		buf = append(buf, r.op)
	}
	return string(buf)
}

func cigarRun(n int, op byte) string {
	if n == 0 {
		return ""
	}
	return renderCigar([]cigarOp{{op: op, n: n}})
}

func appendItoa(buf []byte, n int) []byte {
	if n == 0 {
		return append(buf, '0')
	}
	start := len(buf)
	for n > 0 {
		buf = append(buf, byte('0'+n%10))
		n /= 10
	}
	for i, j := start, len(buf)-1; i < j; i, j = i+1, j-1 {
		buf[i], buf[j] = buf[j], buf[i]
	}
	return buf
}
