package vsearch

// IdentityDefinition selects which of a hit's five percent-identity
// definitions (id0..id4) drives acceptance.
type IdentityDefinition int

const (
	// IdCDHit divides matches by the shorter sequence's length.
	IdCDHit IdentityDefinition = iota
	// IdAllDiffs divides matches by the full alignment length.
	IdAllDiffs
	// IdInternalDiffs divides matches by the alignment length with
	// terminal gap runs trimmed off.
	IdInternalDiffs
	// IdMarineBiologyLab is 100 * (1 - (mismatches+gaps)/longest).
	IdMarineBiologyLab
	// IdBlast is the same ratio as IdAllDiffs (BLAST's own definition
	// happens to coincide with it for a global alignment).
	IdBlast
)

// PreAlignFilter holds the thresholds applied to a (query, candidate)
// pair before any alignment runs: abundance bounds and ratios, length
// ratios, exact prefix/suffix identity probes, and self-exclusion by
// label or by content.
type PreAlignFilter struct {
	MaxQuerySize               uint64
	MinTargetSize              uint64
	MinSizeRatio, MaxSizeRatio float64
	MinQT, MaxQT               float64
	MinSL, MaxSL               float64
	IDPrefix, IDSuffix         int
	Self, SelfID               bool
}

// Accept reports whether (query, target) survives the pre-alignment
// filter given the candidate's shared k-mer count is otherwise eligible.
func (f *PreAlignFilter) Accept(query *Record, target *Record) bool {
	qlen, tlen := len(query.Sequence), len(target.Sequence)

	if query.Abundance > f.MaxQuerySize && f.MaxQuerySize > 0 {
		return false
	}
	if target.Abundance < f.MinTargetSize {
		return false
	}
	if f.MinSizeRatio > 0 && float64(query.Abundance) < f.MinSizeRatio*float64(target.Abundance) {
		return false
	}
	if f.MaxSizeRatio > 0 && float64(query.Abundance) > f.MaxSizeRatio*float64(target.Abundance) {
		return false
	}
	if f.MinQT > 0 && float64(qlen) < f.MinQT*float64(tlen) {
		return false
	}
	if f.MaxQT > 0 && float64(qlen) > f.MaxQT*float64(tlen) {
		return false
	}
	if f.MinSL > 0 {
		shorter, longer := float64(qlen), float64(tlen)
		if qlen > tlen {
			shorter, longer = longer, shorter
		}
		if shorter < f.MinSL*longer {
			return false
		}
	}
	if f.MaxSL > 0 {
		shorter, longer := float64(qlen), float64(tlen)
		if qlen > tlen {
			shorter, longer = longer, shorter
		}
		if shorter > f.MaxSL*longer {
			return false
		}
	}
	if f.IDPrefix > 0 {
		if qlen < f.IDPrefix || tlen < f.IDPrefix || !bytesEqualN(query.Sequence, target.Sequence, f.IDPrefix) {
			return false
		}
	}
	if f.IDSuffix > 0 {
		if qlen < f.IDSuffix || tlen < f.IDSuffix ||
			!bytesEqualN(query.Sequence[qlen-f.IDSuffix:], target.Sequence[tlen-f.IDSuffix:], f.IDSuffix) {
			return false
		}
	}
	if f.Self && string(query.ID()) == string(target.ID()) {
		return false
	}
	if f.SelfID && qlen == tlen && bytesEqualN(query.Sequence, target.Sequence, qlen) {
		return false
	}
	return true
}

func bytesEqualN(a, b []byte, n int) bool {
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// PostAlignFilter holds the thresholds applied after alignment. A hit
// that fails the identity threshold but passes WeakID is a "weak" hit:
// reported but not accepted.
type PostAlignFilter struct {
	Identity   IdentityDefinition
	MinID      float64 // fraction 0..1
	MaxID      float64 // fraction 0..1; 0 means unset, no ceiling
	WeakID     float64 // fraction 0..1
	MaxSubs    uint32  // 0 means unset, no ceiling
	MaxGaps    uint32  // 0 means unset, no ceiling
	MinCols    uint32
	LeftJust   bool
	RightJust  bool
	QueryCov   float64
	TargetCov  float64
	MinMatchID float64 // percent of matches among (matches+mismatches)
	MaxDiffs   uint32  // substitutions+indels; 0 means unset, no ceiling
}

// AlignTrim fills in a hit's terminal-gap trim fields and its five
// identity definitions from its already-populated NW* fields and Cigar.
// It must run once per aligned hit, before Evaluate.
func AlignTrim(h *Hit, qlen, tlen int) {
	ops := parseCigar(h.Cigar)
	h.TrimQLeft, h.TrimTLeft, h.TrimQRight, h.TrimTRight = 0, 0, 0, 0

	if len(ops) > 0 && ops[0].op != 'M' {
		if ops[0].op == 'D' {
			h.TrimQLeft = uint32(ops[0].n)
		} else {
			h.TrimTLeft = uint32(ops[0].n)
		}
	}
	if n := len(ops); n > 0 && ops[n-1].op != 'M' {
		last := ops[n-1]
		if last.op == 'D' {
			h.TrimQRight = uint32(last.n)
		} else {
			h.TrimTRight = uint32(last.n)
		}
	}

	internalAlen := h.NWAlen - h.TrimQLeft - h.TrimTLeft - h.TrimQRight - h.TrimTRight
	internalIndels := h.NWIndels - h.TrimQLeft - h.TrimTLeft - h.TrimQRight - h.TrimTRight
	internalGaps := h.NWGaps
	if h.TrimQLeft+h.TrimTLeft > 0 {
		internalGaps--
	}
	if h.TrimQRight+h.TrimTRight > 0 {
		internalGaps--
	}

	shortest, longest := qlen, tlen
	if tlen < qlen {
		shortest, longest = tlen, qlen
	}

	id0 := pct(h.NWMatches, uint32(shortest))
	id1 := pct(h.NWMatches, h.NWAlen)
	id2 := pct(h.NWMatches, internalAlen)
	id3 := 0.0
	if longest > 0 {
		id3 = 100.0 * (1.0 - float64(h.NWMismatch+h.NWGaps)/float64(longest))
		if id3 < 0 {
			id3 = 0
		}
	}
	id4 := id1

	h.IdentityDef = [5]float64{id0, id1, id2, id3, id4}
	h.internalAlen = internalAlen
	h.internalIndels = internalIndels
	h.internalGaps = internalGaps
}

func pct(num, den uint32) float64 {
	if den == 0 {
		return 0
	}
	return 100.0 * float64(num) / float64(den)
}

// Evaluate applies f to an already-AlignTrim'd hit, setting
// Accepted/Rejected/Weak and Identity. qlen/tlen are the untrimmed query
// and target lengths, needed for the coverage thresholds.
func (f *PostAlignFilter) Evaluate(h *Hit, qlen, tlen int) {
	h.Identity = h.IdentityDef[f.Identity]

	ok := h.Identity >= 100.0*f.WeakID &&
		(f.MaxSubs == 0 || h.NWMismatch <= f.MaxSubs) &&
		(f.MaxGaps == 0 || h.internalGaps <= f.MaxGaps) &&
		h.internalAlen >= f.MinCols &&
		(!f.LeftJust || h.TrimQLeft+h.TrimTLeft == 0) &&
		(!f.RightJust || h.TrimQRight+h.TrimTRight == 0) &&
		float64(h.internalAlen) >= f.QueryCov*float64(qlen) &&
		float64(h.internalAlen) >= f.TargetCov*float64(tlen) &&
		(f.MaxID == 0 || h.Identity <= 100.0*f.MaxID) &&
		matchPct(h.NWMatches, h.NWMismatch) >= f.MinMatchID &&
		(f.MaxDiffs == 0 || h.NWMismatch+h.internalIndels <= f.MaxDiffs)

	if !ok {
		h.Rejected = true
		h.Weak = false
		return
	}
	if h.Identity >= 100.0*f.MinID {
		h.Accepted = true
		h.Weak = false
		return
	}
	h.Rejected = true
	h.Weak = true
}

func matchPct(matches, mismatches uint32) float64 {
	total := matches + mismatches
	if total == 0 {
		return 0
	}
	return 100.0 * float64(matches) / float64(total)
}

func parseCigar(s string) []cigarOp {
	var ops []cigarOp
	n := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= '0' && c <= '9' {
			n = n*10 + int(c-'0')
			continue
		}
		if n == 0 {
			n = 1
		}
		ops = append(ops, cigarOp{op: c, n: n})
		n = 0
	}
	return ops
}
