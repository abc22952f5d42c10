package vsearch

import "testing"

// noLimit is an explicit stand-in for "effectively unbounded" in tests
// that want to make clear they aren't exercising a MaxSubs/MaxGaps/
// MaxDiffs cap, even though PostAlignFilter.Evaluate already treats the
// zero value of those fields as unset (matching MaxID's convention).
const noLimit = ^uint32(0)

// syntheticHit builds a Hit from already-known NW* fields and a CIGAR,
// the shape AlignTrim expects to have been filled in by an aligner.
func syntheticHit(target int, cigar string, matches, mismatches, gaps, indels uint32) *Hit {
	return &Hit{
		Target:     target,
		NWAlen:     matches + mismatches + indels,
		NWMatches:  matches,
		NWMismatch: mismatches,
		NWGaps:     gaps,
		NWIndels:   indels,
		Cigar:      cigar,
		Aligned:    true,
	}
}

// TestIdentityDefinitionRelationships covers the relationships the five
// identity definitions must satisfy: id0 is at least id1 (it divides by
// the shorter sequence rather than the full alignment length), id4
// equals id1 exactly, and id3 never exceeds id0.
func TestIdentityDefinitionRelationships(t *testing.T) {
	h := syntheticHit(0, "8M2I8M", 16, 0, 1, 2)
	qlen, tlen := 16, 18 // target 2 longer: one internal 2-base gap in the query (I)

	AlignTrim(h, qlen, tlen)

	id0, id1, _, id3, id4 := h.IdentityDef[0], h.IdentityDef[1], h.IdentityDef[2], h.IdentityDef[3], h.IdentityDef[4]

	if id4 != id1 {
		t.Errorf("id4 (%v) must equal id1 (%v)", id4, id1)
	}
	if id0 < id1 {
		t.Errorf("id0 (%v) must be >= id1 (%v): id0 divides by the shorter sequence, id1 by the full alignment", id0, id1)
	}
	if id3 > id0+1e-9 {
		t.Errorf("id3 (%v) must not exceed id0 (%v)", id3, id0)
	}
	if id0 > 100.0+1e-9 {
		t.Errorf("id0 (%v) must not exceed 100", id0)
	}
}

// TestPostAlignFilterAcceptRejectWeak checks the three-way split: a hit
// at or above MinID is accepted, one between WeakID and MinID is weak
// (rejected but reported), and one below WeakID is plainly rejected.
func TestPostAlignFilterAcceptRejectWeak(t *testing.T) {
	f := &PostAlignFilter{
		Identity: IdCDHit, MinID: 0.90, WeakID: 0.50,
		MaxSubs: noLimit, MaxGaps: noLimit, MaxDiffs: noLimit,
	}

	accept := syntheticHit(0, "20M", 20, 0, 0, 0)
	AlignTrim(accept, 20, 20)
	f.Evaluate(accept, 20, 20)
	if !accept.Accepted || accept.Rejected || accept.Weak {
		t.Errorf("a perfect match should be accepted, got accepted=%v rejected=%v weak=%v",
			accept.Accepted, accept.Rejected, accept.Weak)
	}

	weak := syntheticHit(0, "20M", 14, 6, 0, 0)
	AlignTrim(weak, 20, 20)
	f.Evaluate(weak, 20, 20)
	if weak.Accepted || !weak.Rejected || !weak.Weak {
		t.Errorf("a 70%% identity hit should be weak (between WeakID and MinID), got accepted=%v rejected=%v weak=%v",
			weak.Accepted, weak.Rejected, weak.Weak)
	}

	reject := syntheticHit(0, "20M", 4, 16, 0, 0)
	AlignTrim(reject, 20, 20)
	f.Evaluate(reject, 20, 20)
	if reject.Accepted || !reject.Rejected || reject.Weak {
		t.Errorf("a 20%% identity hit should be plainly rejected, got accepted=%v rejected=%v weak=%v",
			reject.Accepted, reject.Rejected, reject.Weak)
	}
}

// TestPostAlignFilterMaxSubs checks a hard per-field rejection threshold
// independent of identity.
func TestPostAlignFilterMaxSubs(t *testing.T) {
	f := &PostAlignFilter{Identity: IdCDHit, MinID: 0.50, WeakID: 0, MaxSubs: 1, MaxGaps: noLimit, MaxDiffs: noLimit}
	h := syntheticHit(0, "18M", 16, 2, 0, 0)
	AlignTrim(h, 18, 18)
	f.Evaluate(h, 18, 18)
	if h.Accepted || !h.Rejected {
		t.Errorf("a hit with 2 mismatches should be rejected when MaxSubs=1, got accepted=%v rejected=%v",
			h.Accepted, h.Rejected)
	}
}
