package vsearch

import "testing"

func buildOrientIndex(t *testing.T, seqs []string) *KmerIndex {
	t.Helper()
	db := NewDatabase(Nucleotide)
	for _, s := range seqs {
		addRecord(t, db, s)
	}
	index, err := BuildKmerIndex(db, 8)
	if err != nil {
		t.Fatalf("building reference index: %v", err)
	}
	return index
}

// TestOrienterFlipsReverseComplement: a read that is the reverse
// complement of a reference record must be assigned the minus strand,
// since every one of its k-mers hits the index only after
// reverse-complementing.
func TestOrienterFlipsReverseComplement(t *testing.T) {
	refs := []string{
		"ACGGTTCAGGCATCATCCATGGGACCCTTTAAACCCGGGTTTCAAG",
		"TTGGCCAAGGCCTTAACCGGTTAACCGGTTAAGGCCTTAACCGGAA",
	}
	index := buildOrientIndex(t, refs)
	orienter := NewOrienter(index)

	fwd := canonicalize(t, Nucleotide, refs[0])
	res := orienter.Orient(fwd)
	if !res.Oriented || res.Strand != Plus {
		t.Fatalf("forward read: oriented=%v strand=%q (fwd=%d rev=%d), want plus",
			res.Oriented, res.Strand, res.CountFwd, res.CountRev)
	}

	rc := ReverseComplement(fwd, Nucleotide)
	res = orienter.Orient(rc)
	if !res.Oriented || res.Strand != Minus {
		t.Fatalf("reverse-complement read: oriented=%v strand=%q (fwd=%d rev=%d), want minus",
			res.Oriented, res.Strand, res.CountFwd, res.CountRev)
	}
}

// TestOrienterInconclusiveOnForeignRead: a read sharing no k-mers with
// the reference on either strand collects no votes and stays unoriented.
func TestOrienterInconclusiveOnForeignRead(t *testing.T) {
	index := buildOrientIndex(t, []string{
		"ACGGTTCAGGCATCATCCATGGGACCCTTTAAACCCGGGTTTCAAG",
	})
	orienter := NewOrienter(index)

	foreign := canonicalize(t, Nucleotide, "GGGGGGGGGGGGGGGGGGGGGGGG")
	res := orienter.Orient(foreign)
	if res.Oriented {
		t.Fatalf("foreign read should be inconclusive, got strand %q (fwd=%d rev=%d)",
			res.Strand, res.CountFwd, res.CountRev)
	}
}
