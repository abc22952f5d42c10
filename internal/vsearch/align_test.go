package vsearch

import "testing"

func newTestAligners() (*SIMDAligner, *LinearAligner) {
	scorer := NewScoreMatrix(Nucleotide, 2, -4)
	gaps := NewGapModel(20, 2)
	gaps.Set(AxisQuery, RegionLeft, 0, 0)
	gaps.Set(AxisQuery, RegionRight, 0, 0)
	gaps.Set(AxisTarget, RegionLeft, 0, 0)
	gaps.Set(AxisTarget, RegionRight, 0, 0)
	return NewSIMDAligner(scorer, gaps), NewLinearAligner(scorer, gaps)
}

// TestAlignerAgreement runs the fixture table every pairwise aligner in
// this package must agree on whenever the SIMD aligner does not
// overflow: identical score, alignment length and CIGAR.
func TestAlignerAgreement(t *testing.T) {
	simd, linear := newTestAligners()

	cases := []struct {
		name           string
		query, target  string
	}{
		{"identical", "ACGTACGTACGT", "ACGTACGTACGT"},
		{"single-mismatch", "ACGTACGTACGT", "ACGTACCTACGT"},
		{"single-insertion-in-target", "ACGTACGTACGT", "ACGTACCGTACGT"},
		{"single-deletion-in-target", "ACGTACGTACGT", "ACGTAGTACGT"},
		{"short-query", "ACG", "ACGTACGTACGT"},
		{"no-similarity", "AAAAAAAAAA", "TTTTTTTTTT"},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			q := canonicalize(t, Nucleotide, c.query)
			tg := canonicalize(t, Nucleotide, c.target)

			simdRes := simd.AlignBatch(q, [][]byte{tg})[0]
			if simdRes.Overflowed {
				t.Fatalf("unexpected SIMD overflow for a short fixture")
			}
			linRes := linear.Align(q, tg)

			if simdRes.Score != linRes.Score {
				t.Errorf("score mismatch: simd=%d linear=%d", simdRes.Score, linRes.Score)
			}
			if simdRes.Alen != linRes.Alen {
				t.Errorf("alen mismatch: simd=%d linear=%d", simdRes.Alen, linRes.Alen)
			}
			if simdRes.Cigar != linRes.Cigar {
				t.Errorf("cigar mismatch: simd=%q linear=%q", simdRes.Cigar, linRes.Cigar)
			}
		})
	}
}

// TestAlignBatchMultiTarget aligns one query against a full batch of
// targets of differing lengths in a single AlignBatch call and checks
// every channel against the linear aligner: the interleaved direction
// bits of one channel must not disturb any other channel's backtrace.
func TestAlignBatchMultiTarget(t *testing.T) {
	simd, linear := newTestAligners()

	query := canonicalize(t, Nucleotide, "ACGTACGTACGTACGTACGT")
	targetSeqs := []string{
		"ACGTACGTACGTACGTACGT",
		"ACGTACCTACGTACGTACGT",
		"ACGTACGTACGTACGT",
		"ACGTACGTCACGTACGTACGTT",
		"TTTTTTTTTTTTTTTTTTTT",
		"ACGT",
		"ACGTACGTACGTACGTACGTACGTACGT",
		"GTACGTACGTACGTACGTAC",
	}
	targets := make([][]byte, len(targetSeqs))
	for i, s := range targetSeqs {
		targets[i] = canonicalize(t, Nucleotide, s)
	}

	results := simd.AlignBatch(query, targets)
	for i, res := range results {
		if res.Overflowed {
			t.Fatalf("target %d: unexpected overflow", i)
		}
		want := linear.Align(query, targets[i])
		if res.Score != want.Score {
			t.Errorf("target %d: score = %d, linear says %d", i, res.Score, want.Score)
		}
		if res.Matches != want.Matches || res.Mismatches != want.Mismatches {
			t.Errorf("target %d: matches/mismatches = %d/%d, linear says %d/%d",
				i, res.Matches, res.Mismatches, want.Matches, want.Mismatches)
		}
		if res.Cigar != want.Cigar {
			t.Errorf("target %d: cigar = %q, linear says %q", i, res.Cigar, want.Cigar)
		}
	}
}

// TestAlignBatchOverflowRoutesToLinear exercises the MaxSeqLenProduct
// tripwire at its exact boundary: 5000x5000 must run the SIMD path,
// 5001x5001 must not.
func TestAlignBatchOverflowRoutesToLinear(t *testing.T) {
	simd, _ := newTestAligners()

	under := make([]byte, 5000)
	for i := range under {
		under[i] = 1 // 'A'
	}
	res := simd.AlignBatch(under, [][]byte{under})[0]
	if res.Overflowed {
		t.Errorf("5000x5000 pair should not trip MaxSeqLenProduct")
	}

	over := make([]byte, 5001)
	for i := range over {
		over[i] = 1
	}
	res = simd.AlignBatch(over, [][]byte{over})[0]
	if !res.Overflowed {
		t.Errorf("5001x5001 pair should trip MaxSeqLenProduct and route to the linear aligner")
	}
}

// TestAlignBatchSaturationOverflow forces 16-bit saturation with a huge
// match bonus over a long identical pair (the best path is the pure
// diagonal, so the running H really does cross the int16 ceiling): the
// channel must be flagged Overflowed, and the linear-memory fallback
// must still produce a full-width result for the same pair.
func TestAlignBatchSaturationOverflow(t *testing.T) {
	scorer := NewScoreMatrix(Nucleotide, 1000, -4)
	gaps := NewGapModel(20, 2)
	simd := NewSIMDAligner(scorer, gaps)
	linear := NewLinearAligner(scorer, gaps)

	q := make([]byte, 2000)
	for i := range q {
		q[i] = 1 // 'A'
	}

	res := simd.AlignBatch(q, [][]byte{q})[0]
	if !res.Overflowed {
		t.Fatalf("a 2000-base identical pair at +1000 per match must saturate int16")
	}

	linRes := linear.Align(q, q)
	if linRes.Overflowed {
		t.Fatalf("the linear aligner has no overflow condition")
	}
	if linRes.Score != 1000*2000 {
		t.Errorf("fallback score = %d, want %d", linRes.Score, 1000*2000)
	}
	if linRes.Matches != 2000 || linRes.Cigar != "2000M" {
		t.Errorf("fallback alignment = %d matches, cigar %q; want 2000 matches, 2000M",
			linRes.Matches, linRes.Cigar)
	}
}

func TestAlignBatchEmptyQuery(t *testing.T) {
	simd, _ := newTestAligners()
	target := canonicalize(t, Nucleotide, "ACGT")
	res := simd.AlignBatch(nil, [][]byte{target})[0]
	if res.Overflowed {
		t.Fatalf("empty query should not overflow, it should produce a trivial result")
	}
	if res.Alen != uint32(len(target)) {
		t.Errorf("expected alignment length %d for an empty query against a %d-base target, got %d",
			len(target), len(target), res.Alen)
	}
	if res.Cigar != cigarRun(len(target), 'I') {
		t.Errorf("expected an all-insertion CIGAR, got %q", res.Cigar)
	}
}

// TestAlignerOriginalScoringRegime exercises the aligners under the same
// scoring parameters as the reference NW test fixture this CIGAR/score
// convention was distilled from (match=5, mismatch=-4, gap_open=5,
// gap_extend=1, free end-gaps), reproducing the same family of outcomes
// (all-match, two different mismatch ratios, all-mismatch, and a clean
// interior insertion run) against hand-verified sequences.
func TestAlignerOriginalScoringRegime(t *testing.T) {
	scorer := NewScoreMatrix(Nucleotide, 5, -4)
	gaps := NewGapModel(5, 1)
	gaps.Set(AxisQuery, RegionLeft, 0, 0)
	gaps.Set(AxisQuery, RegionRight, 0, 0)
	gaps.Set(AxisTarget, RegionLeft, 0, 0)
	gaps.Set(AxisTarget, RegionRight, 0, 0)
	simd := NewSIMDAligner(scorer, gaps)
	linear := NewLinearAligner(scorer, gaps)

	query := "ACAT"
	cases := []struct {
		name      string
		target    string
		wantScore int64
		wantCigar string
	}{
		{"all-match", "ACAT", 20, "4M"},
		{"two-of-four-match", "ATAG", 2, "4M"},
		{"one-of-four-match", "ATCG", -7, "4M"},
		{"all-mismatch", "GTCG", -16, "4M"},
		{"interior-insertion", "ACGGAT", 14, "2M2I2M"},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			q := canonicalize(t, Nucleotide, query)
			tg := canonicalize(t, Nucleotide, c.target)

			simdRes := simd.AlignBatch(q, [][]byte{tg})[0]
			if simdRes.Overflowed {
				t.Fatalf("unexpected SIMD overflow for a short fixture")
			}
			if simdRes.Score != c.wantScore {
				t.Errorf("simd score = %d, want %d", simdRes.Score, c.wantScore)
			}
			if simdRes.Cigar != c.wantCigar {
				t.Errorf("simd cigar = %q, want %q", simdRes.Cigar, c.wantCigar)
			}

			linRes := linear.Align(q, tg)
			if linRes.Score != c.wantScore {
				t.Errorf("linear score = %d, want %d", linRes.Score, c.wantScore)
			}
			if linRes.Cigar != c.wantCigar {
				t.Errorf("linear cigar = %q, want %q", linRes.Cigar, c.wantCigar)
			}
		})
	}
}
