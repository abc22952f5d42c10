package vsearch

import "sort"

// Strand identifies which strand of a nucleotide query produced a hit.
type Strand byte

const (
	Plus  Strand = '+'
	Minus Strand = '-'
)

// Hit is produced by the search driver for one (query, target) pair that
// survived the accept/reject pipeline far enough to be reported. It is
// constructed by the aligner, mutated in place by alignTrim and the
// post-alignment filter, and finally sorted by Less before being handed
// to an output sink.
type Hit struct {
	Target     int
	Strand     Strand
	KmerCount  uint32
	NWScore    int64
	NWAlen     uint32
	NWMatches  uint32
	NWMismatch uint32
	NWGaps     uint32
	NWIndels   uint32
	Cigar      string

	IdentityDef [5]float64
	Identity    float64 // the definition selected by IdentityDefinition

	TrimQLeft, TrimQRight uint32
	TrimTLeft, TrimTRight uint32

	// internal* are derived by AlignTrim and consumed by
	// PostAlignFilter.Evaluate; they are not part of the reported hit
	// record itself.
	internalAlen   uint32
	internalIndels uint32
	internalGaps   uint32

	Accepted bool
	Rejected bool
	Aligned  bool
	Weak     bool
}

// Less implements the strict hit ordering: accepted hits sort before
// non-accepted, then by descending identity, then by ascending target
// ordinal. It is the sole ordering used when a query's hit list is
// finalized for the output sink.
func (h *Hit) Less(other *Hit) bool {
	if h.Accepted != other.Accepted {
		return h.Accepted // accepted-first
	}
	if h.Identity != other.Identity {
		return h.Identity > other.Identity // identity desc
	}
	return h.Target < other.Target // target asc
}

// SortHits orders hits in place using Hit.Less. It is not used for the
// top-score selector's candidate heap (see topscore.go), only for the
// final per-query hit list handed to the output sink.
func SortHits(hits []*Hit) {
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Less(hits[j]) })
}
