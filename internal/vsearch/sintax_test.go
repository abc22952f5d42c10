package vsearch

import (
	"math/rand"
	"testing"
)

func TestParseTaxonomy(t *testing.T) {
	cases := []struct {
		header string
		want   [TaxLevels]string
	}{
		{
			"seq1;tax=d:Bacteria,p:Firmicutes,c:Bacilli;",
			[TaxLevels]string{"Bacteria", "Firmicutes", "Bacilli", "", "", "", "", ""},
		},
		{
			"seq2 no taxonomy here",
			[TaxLevels]string{},
		},
		{
			"seq3;tax=Bacteria,Firmicutes;more",
			[TaxLevels]string{"Bacteria", "Firmicutes", "", "", "", "", "", ""},
		},
	}
	for _, c := range cases {
		got := ParseTaxonomy([]byte(c.header))
		if got != c.want {
			t.Errorf("ParseTaxonomy(%q) = %v, want %v", c.header, got, c.want)
		}
	}
}

// TestClassifierPicksMatchingTaxon builds a tiny reference of two
// sequences drawn from disjoint symbol pairs (A/C vs G/T, so no window of
// any length can ever be shared between them) and checks that a query
// identical to one of them is classified into that sequence's taxonomy.
func TestClassifierPicksMatchingTaxon(t *testing.T) {
	db := NewDatabase(Nucleotide)
	seqs := []string{
		"ACAACCCAACCCACCAAAAACAAA",
		"GTGGTTTGGTTTGTTGGGGGTGGG",
	}
	taxa := []string{
		"d:Bacteria,p:Firmicutes;",
		"d:Archaea,p:Euryarchaeota;",
	}
	for i, s := range seqs {
		header := []byte("seq" + string(rune('0'+i)) + ";tax=" + taxa[i])
		seq := canonicalize(t, Nucleotide, s)
		rec, err := NewRecord(i, header, seq, nil, 1)
		if err != nil {
			t.Fatalf("building record %d: %v", i, err)
		}
		if err := db.Add(rec); err != nil {
			t.Fatalf("adding record %d: %v", i, err)
		}
	}

	const k = 4
	index, err := BuildKmerIndex(db, k)
	if err != nil {
		t.Fatalf("building k-mer index: %v", err)
	}
	classifier := NewClassifier(index, db)
	extractor := NewKmerExtractor(Nucleotide, k)

	query := canonicalize(t, Nucleotide, seqs[0])
	kmers := extractor.Unique(query)
	if len(kmers) == 0 {
		t.Fatalf("query produced no unique k-mers")
	}

	calls := classifier.Classify(kmers, rand.New(rand.NewSource(1)))
	if calls[0].Name != "Bacteria" {
		t.Errorf("rank 0 = %q, want Bacteria", calls[0].Name)
	}
	if calls[1].Name != "Firmicutes" {
		t.Errorf("rank 1 = %q, want Firmicutes", calls[1].Name)
	}
	if calls[0].Confidence <= 0 {
		t.Errorf("rank 0 confidence = %v, want > 0 (query shares every k-mer only with its own reference)", calls[0].Confidence)
	}
}

// TestClassifierEmptyQuery covers the boundary case of a query with no
// unique k-mers (e.g. shorter than k): Classify must return all-empty
// calls rather than panicking.
func TestClassifierEmptyQuery(t *testing.T) {
	db := NewDatabase(Nucleotide)
	rec, err := NewRecord(0, []byte("seq0;tax=d:Bacteria;"), canonicalize(t, Nucleotide, "ACGTACGTACGT"), nil, 1)
	if err != nil {
		t.Fatalf("building record: %v", err)
	}
	if err := db.Add(rec); err != nil {
		t.Fatalf("adding record: %v", err)
	}
	index, err := BuildKmerIndex(db, 8)
	if err != nil {
		t.Fatalf("building k-mer index: %v", err)
	}
	classifier := NewClassifier(index, db)

	calls := classifier.Classify(nil, rand.New(rand.NewSource(1)))
	for level, c := range calls {
		if c.Name != "" {
			t.Errorf("rank %d = %q, want empty for a k-mer-less query", level, c.Name)
		}
	}
}
