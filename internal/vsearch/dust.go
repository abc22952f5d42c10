package vsearch

// Dust implements the optional low-complexity masking step run before
// k-mer extraction: a sliding-window triplet frequency score, the
// statistic NCBI's DUST filter uses, adapted here to operate on
// canonical-alphabet codes instead of raw ASCII bytes.
type Dust struct {
	Window    int
	Threshold float64
}

// NewDust builds a masker with a 64-symbol window and a per-window
// score ceiling of 20; the ceiling is scaled up from DUST's published
// 2.0 cutoff because scoring here is on raw repeated-triplet counts
// rather than a normalized statistic.
func NewDust() *Dust {
	return &Dust{Window: 64, Threshold: 20}
}

// Mask returns a copy of seq with every position inside a low-complexity
// window replaced by code 0 (the alphabet's gap/unknown code), so that
// k-mer extraction naturally treats masked runs the same way it treats
// ambiguous symbols: they invalidate any k-mer window they touch.
func (d *Dust) Mask(seq []byte) []byte {
	out := make([]byte, len(seq))
	copy(out, seq)
	if len(seq) < 3 {
		return out
	}
	win := d.Window
	if win > len(seq) {
		win = len(seq)
	}
	var counts [64]int // triplet codes 0..63, clamped for non-nucleotide codes
	for start := 0; start+3 <= len(seq); start += win / 2 {
		end := start + win
		if end > len(seq) {
			end = len(seq)
		}
		for i := range counts {
			counts[i] = 0
		}
		var score int
		for i := start; i+3 <= end; i++ {
			t := tripletCode(seq[i], seq[i+1], seq[i+2])
			score += counts[t]
			counts[t]++
		}
		windows := end - start - 2
		if windows <= 0 {
			continue
		}
		if float64(score)/float64(windows) > d.Threshold {
			for i := start; i < end; i++ {
				out[i] = 0
			}
		}
		if end == len(seq) {
			break
		}
	}
	return out
}

// tripletCode folds three canonical codes into a 6-bit bucket, clamping
// each code to 0-3 first so amino-acid codes (0-31) still land in a
// bounded table instead of indexing out of range; triplet resolution is
// lost for protein input, where DUST-style masking is a nucleotide
// filter to begin with.
func tripletCode(a, b, c byte) int {
	clamp := func(x byte) int { return int(x) & 3 }
	return clamp(a)<<4 | clamp(b)<<2 | clamp(c)
}
