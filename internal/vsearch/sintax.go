package vsearch

import (
	"bytes"
	"math/rand"
)

// TaxLevels is the number of ranks a SINTAX-style taxonomy string
// carries: domain, kingdom, phylum, class, order, family, genus,
// species.
const TaxLevels = 8

// BootstrapCount and SubsetSize fix the resampling scheme: 100
// bootstrap rounds, each resampling 32 k-mers (with replacement) from
// the query's unique set to pick that round's best-matching reference.
const (
	BootstrapCount = 100
	SubsetSize     = 32
)

// TaxonCall is one rank's classification result: the most frequent name
// among the bootstrap rounds that reached this rank, and the fraction of
// rounds that agreed.
type TaxonCall struct {
	Name       string
	Confidence float64
}

// ParseTaxonomy extracts the semicolon-terminated `tax=a,b,c;` annotation
// from a FASTA header and splits it into up to TaxLevels rank names,
// stripping a single-letter `x:` rank prefix when present (e.g. `d:` for
// domain). Missing trailing ranks are left as empty strings.
func ParseTaxonomy(header []byte) [TaxLevels]string {
	var out [TaxLevels]string
	tag := []byte("tax=")
	i := bytes.Index(header, tag)
	if i < 0 {
		return out
	}
	rest := header[i+len(tag):]
	if j := bytes.IndexByte(rest, ';'); j >= 0 {
		rest = rest[:j]
	}
	parts := bytes.Split(rest, []byte(","))
	for k, p := range parts {
		if k >= TaxLevels {
			break
		}
		p = bytes.TrimSpace(p)
		if len(p) >= 2 && p[1] == ':' {
			p = p[2:]
		}
		out[k] = string(p)
	}
	return out
}

// Classifier runs the SINTAX bootstrap classification algorithm over a
// k-mer index: each round resamples the query's unique k-mers, finds
// whichever reference record shares the most resampled k-mers, and casts
// that record's taxonomy as one vote per rank. This tallies each rank's
// votes independently rather than requiring agreement with the ranks
// above it (the full algorithm only counts a rank's vote when every
// higher rank in that round's path also agrees) -- a simplification that
// trades a small amount of classification precision deep in the taxonomy
// for a single independent per-level tally instead of tracking per-round
// lineage paths.
type Classifier struct {
	index *KmerIndex
	db    *Database
}

// NewClassifier builds a Classifier over a reference k-mer index and the
// database it was built from (for taxonomy headers).
func NewClassifier(index *KmerIndex, db *Database) *Classifier {
	return &Classifier{index: index, db: db}
}

// Classify runs BootstrapCount rounds over queryKmers and returns one
// TaxonCall per rank.
func (c *Classifier) Classify(queryKmers []uint32, rng *rand.Rand) [TaxLevels]TaxonCall {
	var votes [TaxLevels]map[string]int
	for i := range votes {
		votes[i] = make(map[string]int)
	}
	if len(queryKmers) == 0 {
		var out [TaxLevels]TaxonCall
		return out
	}

	counts := make([]uint32, c.db.Len())
	sample := make([]uint32, SubsetSize)
	for round := 0; round < BootstrapCount; round++ {
		for i := range counts {
			counts[i] = 0
		}
		for i := range sample {
			sample[i] = queryKmers[rng.Intn(len(queryKmers))]
		}
		for _, km := range sample {
			if ba, ok := c.index.Bitmap(km); ok {
				scanBitmapAdd(ba, counts)
				continue
			}
			for _, seqID := range c.index.Records(km) {
				counts[seqID]++
			}
		}

		best, bestCount := -1, uint32(0)
		for seqID, cnt := range counts {
			if cnt > bestCount {
				best, bestCount = seqID, cnt
			}
		}
		if best < 0 {
			continue
		}

		tax := ParseTaxonomy(c.db.At(best).Header)
		for level, name := range tax {
			if name == "" {
				continue
			}
			votes[level][name]++
		}
	}

	var out [TaxLevels]TaxonCall
	for level, tally := range votes {
		bestName, bestVotes := "", 0
		for name, v := range tally {
			if v > bestVotes || (v == bestVotes && name < bestName) {
				bestName, bestVotes = name, v
			}
		}
		if bestName != "" {
			out[level] = TaxonCall{Name: bestName, Confidence: float64(bestVotes) / float64(BootstrapCount)}
		}
	}
	return out
}
