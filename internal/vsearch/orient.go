package vsearch

// OrientResult reports which strand a read's k-mer content best matches
// against a reference k-mer index.
type OrientResult struct {
	Strand      Strand
	Oriented    bool
	CountFwd    int
	CountRev    int
}

// Orienter decides per-kmer, then per-read, which strand of a nucleotide
// read matches a reference index, with a threshold at each stage: a
// k-mer only votes for a strand if that strand's index hit count beats
// the other by kmerHitsFactor, and a read is only oriented if its
// winning strand's vote count beats the other by readVoteFactor and
// clears minVotes.
type Orienter struct {
	index     *KmerIndex
	extractor *KmerExtractor
	alphabet  *Alphabet
}

const (
	kmerHitsFactor = 8
	readVoteFactor = 4
	minVotes       = 1
)

// NewOrienter builds an Orienter over a reference k-mer index.
func NewOrienter(index *KmerIndex) *Orienter {
	return &Orienter{
		index:     index,
		extractor: NewKmerExtractor(index.Alphabet, index.K),
		alphabet:  index.Alphabet,
	}
}

// Orient classifies seq, a canonical-code nucleotide read.
func (o *Orienter) Orient(seq []byte) OrientResult {
	fwdKmers := o.extractor.Unique(seq)

	countFwd, countRev := 0, 0
	for _, kmer := range fwdKmers {
		hitsFwd := o.index.Count(kmer)
		hitsRev := o.index.Count(rcKmer(kmer, o.extractor.k))
		switch {
		case hitsFwd > kmerHitsFactor*hitsRev:
			countFwd++
		case hitsRev > kmerHitsFactor*hitsFwd:
			countRev++
		}
	}

	switch {
	case countFwd >= minVotes && countFwd >= readVoteFactor*countRev:
		return OrientResult{Strand: Plus, Oriented: true, CountFwd: countFwd, CountRev: countRev}
	case countRev >= minVotes && countRev >= readVoteFactor*countFwd:
		return OrientResult{Strand: Minus, Oriented: true, CountFwd: countFwd, CountRev: countRev}
	default:
		return OrientResult{Oriented: false, CountFwd: countFwd, CountRev: countRev}
	}
}

// rcKmer reverse-complements a packed 2-bit-per-base k-mer code in place,
// the word-level equivalent of ReverseComplement for a single k-mer
// rather than a full sequence.
func rcKmer(kmer uint32, k int) uint32 {
	var rev uint32
	for i := 0; i < k; i++ {
		bits := kmer & 3
		complement := bits ^ 3
		rev = (rev << 2) | complement
		kmer >>= 2
	}
	return rev
}
