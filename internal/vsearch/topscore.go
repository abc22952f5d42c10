package vsearch

import "container/heap"

// Candidate is a provisional search target surfaced by the top-score
// selector, before any alignment has run.
type Candidate struct {
	SeqNo  int
	Count  uint32 // shared k-mer count against the query
	Length int    // target sequence length, used as a tie-breaker
}

// candidateHeap is a bounded min-heap ordered so the *worst* candidate
// (by the admission ordering) sits at index 0 and is evicted first when
// the heap is full. Ties break by ascending length then ascending seqno:
// shorter target wins, then lower ordinal wins.
type candidateHeap []Candidate

func (h candidateHeap) Len() int { return len(h) }
func (h candidateHeap) Less(i, j int) bool {
	a, b := h[i], h[j]
	if a.Count != b.Count {
		return a.Count < b.Count // min-heap on count: worst candidate first
	}
	if a.Length != b.Length {
		return a.Length > b.Length // longer is "worse" under the tie-break (shorter wins ties)
	}
	return a.SeqNo > b.SeqNo // higher ordinal is "worse" (lower ordinal wins ties)
}
func (h candidateHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *candidateHeap) Push(x interface{}) { *h = append(*h, x.(Candidate)) }
func (h *candidateHeap) Pop() interface{} {
	old := *h
	n := len(old)
	v := old[n-1]
	*h = old[:n-1]
	return v
}

// TopScoreSelector counts query/target shared k-mers via the index's
// bitmap or list representation and keeps the top `capacity` candidates
// in a bounded min-heap. One selector is reused per worker goroutine
// across queries (its counts buffer is sized to the index's record
// count), the same per-thread scratch discipline the aligner scratch
// buffers follow.
type TopScoreSelector struct {
	index    *KmerIndex
	db       *Database
	capacity int
	counts   []uint32 // scratch, sized db.Len(), zeroed before each use
}

// NewTopScoreSelector builds a selector over index/db with the given
// bounded-heap capacity (maxaccepts + maxrejects + delayed-batch
// headroom).
func NewTopScoreSelector(index *KmerIndex, db *Database, capacity int) *TopScoreSelector {
	return &TopScoreSelector{
		index:    index,
		db:       db,
		capacity: capacity,
		counts:   make([]uint32, db.Len()),
	}
}

// Select counts, for every unique k-mer of the query, how many indexed
// records share it, then returns up to capacity candidates meeting the
// admission filters, sorted descending by count (ties per the heap's
// ordering, reversed to ascending-length/ascending-ordinal on output).
func (s *TopScoreSelector) Select(queryKmers []uint32, minCount uint32, minFreq float64) []Candidate {
	for i := range s.counts {
		s.counts[i] = 0
	}
	for _, km := range queryKmers {
		if ba, ok := s.index.Bitmap(km); ok {
			scanBitmapAdd(ba, s.counts)
			continue
		}
		for _, seqID := range s.index.Records(km) {
			s.counts[seqID]++
		}
	}

	admit := minCount
	if freqMin := uint32(minFreq * float64(len(queryKmers))); freqMin > admit {
		admit = freqMin
	}

	h := make(candidateHeap, 0, s.capacity+1)
	heap.Init(&h)
	for seqID, c := range s.counts {
		if c == 0 || c < admit {
			continue
		}
		cand := Candidate{SeqNo: seqID, Count: c, Length: len(s.db.At(seqID).Sequence)}
		if h.Len() < s.capacity {
			heap.Push(&h, cand)
		} else if cand.Count > h[0].Count ||
			(cand.Count == h[0].Count && candidateBetter(cand, h[0])) {
			heap.Pop(&h)
			heap.Push(&h, cand)
		}
	}

	out := make([]Candidate, h.Len())
	copy(out, h)
	sortCandidatesDescending(out)
	return out
}

// candidateBetter reports whether a should displace b as the weakest
// heap member when counts tie, using the same tie-break the heap uses:
// shorter sequence wins, then lower ordinal wins.
func candidateBetter(a, b Candidate) bool {
	if a.Length != b.Length {
		return a.Length < b.Length
	}
	return a.SeqNo < b.SeqNo
}

// sortCandidatesDescending orders by descending count, then ascending
// length, then ascending seqno -- the user-facing candidate order.
func sortCandidatesDescending(c []Candidate) {
	for i := 1; i < len(c); i++ {
		v := c[i]
		j := i - 1
		for j >= 0 && candidateLess(v, c[j]) {
			c[j+1] = c[j]
			j--
		}
		c[j+1] = v
	}
}

func candidateLess(a, b Candidate) bool {
	if a.Count != b.Count {
		return a.Count > b.Count
	}
	if a.Length != b.Length {
		return a.Length < b.Length
	}
	return a.SeqNo < b.SeqNo
}

// scanBitmapAdd increments counts[j] for every record j with its bit set
// in ba. In the absence of real SSSE3/SSE2 intrinsics this is expressed
// as a plain linear scan over the dense bitmap -- a portable stand-in for
// the vectorised scan a C implementation would run here.
func scanBitmapAdd(ba interface {
	GetBit(uint64) (bool, error)
}, counts []uint32) {
	for j := range counts {
		if set, _ := ba.GetBit(uint64(j)); set {
			counts[j]++
		}
	}
}
