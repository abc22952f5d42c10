package vsearch

// StrandMode selects which strand(s) of a nucleotide query are searched.
type StrandMode int

const (
	StrandPlus StrandMode = iota
	StrandBoth
)

// SearchConfig bundles the read-only state every Driver shares: the
// index, the score/gap model, and the accept/reject policy. Per-worker
// scratch (extractor, selector, aligners) lives on the Driver itself.
type SearchConfig struct {
	DB    *Database
	Index *KmerIndex

	// Exact, when non-nil, is consulted by Search before the k-mer
	// pipeline. It must only be populated when the caller has selected
	// exact-search mode explicitly: wiring it unconditionally would fold
	// exact search into ordinary search, truncating every run whose
	// query happens to byte-match a database record to that single
	// exact hit.
	Exact          *ExactIndex
	KmerLen        int
	MinKmerMatches uint32
	MinKmerFreq    float64

	Scorer *ScoreMatrix
	Gaps   *GapModel

	PreFilter  *PreAlignFilter
	PostFilter *PostAlignFilter

	// Dust, if non-nil, masks low-complexity regions of the query
	// before k-mer extraction. The unmasked query is still what gets
	// aligned; only k-mer extraction sees the masked copy.
	Dust *Dust

	MaxAccepts int
	MaxRejects int
	Strand     StrandMode
}

// Driver runs the per-query search pipeline: mask/extract k-mers, select
// candidates via the top-score selector, align in batches of up to
// SIMDAligner lanes, apply the accept/reject policy, and return a sorted
// hit list. One Driver is owned by a single worker goroutine: the
// extractor, selector and both aligners it holds are that worker's
// private scratch, while cfg itself is read-only and freely shared.
type Driver struct {
	cfg       *SearchConfig
	extractor *KmerExtractor
	selector  *TopScoreSelector
	simd      *SIMDAligner
	linear    *LinearAligner
}

// NewDriver builds a Driver over cfg; cfg's Index/DB must already be
// built before any queries are run. Each worker goroutine needs its own
// Driver, all sharing one cfg.
func NewDriver(cfg *SearchConfig) *Driver {
	return &Driver{
		cfg:       cfg,
		extractor: NewKmerExtractor(cfg.Index.Alphabet, cfg.KmerLen),
		selector:  NewTopScoreSelector(cfg.Index, cfg.DB, cfg.MaxAccepts+cfg.MaxRejects+maxDelayed),
		simd:      NewSIMDAligner(cfg.Scorer, cfg.Gaps),
		linear:    NewLinearAligner(cfg.Scorer, cfg.Gaps),
	}
}

// maxDelayed is the extra headroom kept in the candidate heap beyond
// maxaccepts+maxrejects, so a handful of ties at the cutoff can still be
// resolved by full alignment before the driver commits to a final list.
const maxDelayed = 16

// Search runs the full pipeline for query and returns every hit it
// aligned -- accepted, weak and rejected -- sorted by Hit.Less.
func (d *Driver) Search(query *Record) []*Hit {
	if len(query.Sequence) == 0 {
		return nil
	}

	var hits []*Hit
	if d.cfg.Exact != nil {
		if matches := d.cfg.Exact.Search(query.Sequence); len(matches) > 0 {
			hits = append(hits, d.exactHits(query, matches)...)
		}
	}
	if len(hits) == 0 {
		hits = append(hits, d.searchStrand(query, query.Sequence, Plus)...)
		if d.cfg.Strand == StrandBoth {
			rc := ReverseComplement(query.Sequence, d.cfg.Index.Alphabet)
			hits = append(hits, d.searchStrand(query, rc, Minus)...)
		}
	}

	SortHits(hits)
	return d.limit(hits)
}

func (d *Driver) exactHits(query *Record, matches []int32) []*Hit {
	var score int64
	for _, c := range query.Sequence {
		score += d.cfg.Scorer.Wide(c, c)
	}
	out := make([]*Hit, 0, len(matches))
	for _, m := range matches {
		qlen := len(query.Sequence)
		h := &Hit{
			Target:     int(m),
			Strand:     Plus,
			KmerCount:  0,
			NWScore:    score,
			NWAlen:     uint32(qlen),
			NWMatches:  uint32(qlen),
			NWMismatch: 0,
			NWGaps:     0,
			NWIndels:   0,
			Cigar:      cigarRun(qlen, 'M'),
			Aligned:    true,
		}
		AlignTrim(h, qlen, qlen)
		if d.cfg.PostFilter != nil {
			d.cfg.PostFilter.Evaluate(h, qlen, qlen)
		} else {
			h.Identity = 100.0
			h.Accepted = true
		}
		out = append(out, h)
	}
	return out
}

func (d *Driver) searchStrand(query *Record, seq []byte, strand Strand) []*Hit {
	maskedSeq := seq
	if d.cfg.Dust != nil {
		maskedSeq = d.cfg.Dust.Mask(seq)
	}
	kmers := d.extractor.Unique(maskedSeq)
	candidates := d.selector.Select(kmers, d.cfg.MinKmerMatches, d.cfg.MinKmerFreq)

	admitted := candidates[:0:0]
	for _, c := range candidates {
		target := d.cfg.DB.At(int(c.SeqNo))
		if d.cfg.PreFilter == nil || d.cfg.PreFilter.Accept(query, target) {
			admitted = append(admitted, c)
		}
	}

	var hits []*Hit
	accepts, rejects := 0, 0
	for batchStart := 0; batchStart < len(admitted); batchStart += Lanes {
		if accepts >= d.cfg.MaxAccepts || rejects >= d.cfg.MaxRejects {
			break
		}
		end := batchStart + Lanes
		if end > len(admitted) {
			end = len(admitted)
		}
		batch := admitted[batchStart:end]

		targets := make([][]byte, len(batch))
		for i, c := range batch {
			targets[i] = d.cfg.DB.At(int(c.SeqNo)).Sequence
		}
		results := d.simd.AlignBatch(seq, targets)

		for i, c := range batch {
			res := results[i]
			if res.Overflowed {
				res = d.linear.Align(seq, targets[i])
			}
			h := &Hit{
				Target:     int(c.SeqNo),
				Strand:     strand,
				KmerCount:  c.Count,
				NWScore:    res.Score,
				NWAlen:     res.Alen,
				NWMatches:  res.Matches,
				NWMismatch: res.Mismatches,
				NWGaps:     res.Gaps,
				NWIndels:   res.Indels,
				Cigar:      res.Cigar,
				Aligned:    true,
			}
			AlignTrim(h, len(seq), len(targets[i]))
			if d.cfg.PostFilter != nil {
				d.cfg.PostFilter.Evaluate(h, len(seq), len(targets[i]))
			}
			if h.Accepted {
				accepts++
			} else if h.Rejected && !h.Weak {
				rejects++
			}
			hits = append(hits, h)
		}
	}
	return hits
}

func (d *Driver) limit(hits []*Hit) []*Hit {
	if d.cfg.MaxAccepts <= 0 {
		return hits
	}
	accepted := 0
	out := make([]*Hit, 0, len(hits))
	for _, h := range hits {
		if h.Accepted {
			if accepted >= d.cfg.MaxAccepts {
				continue
			}
			accepted++
		}
		out = append(out, h)
	}
	return out
}
