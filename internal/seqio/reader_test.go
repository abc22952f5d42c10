package seqio

import (
	"strings"
	"testing"

	"github.com/torognes/vsearch-sub001/internal/vsearch"
)

func TestLoaderFastq(t *testing.T) {
	data := "@read1;size=3;\nACGT\n+\nIIII\n@read2\nTTTTAC\n+\nIIIIII\n"
	loader := NewLoader(vsearch.Nucleotide)
	queries, err := loader.LoadQueries(strings.NewReader(data))
	if err != nil {
		t.Fatalf("LoadQueries: %v", err)
	}
	if len(queries) != 2 {
		t.Fatalf("got %d queries, want 2", len(queries))
	}
	if string(queries[0].ID()) != "read1;size=3;" {
		t.Errorf("record 0 ID = %q", queries[0].ID())
	}
	if queries[0].Abundance != 3 {
		t.Errorf("record 0 abundance = %d, want 3", queries[0].Abundance)
	}
	if queries[1].Abundance != 1 {
		t.Errorf("record 1 abundance = %d, want 1 (no size= annotation)", queries[1].Abundance)
	}
	if len(queries[0].Sequence) != 4 {
		t.Errorf("record 0 sequence length = %d, want 4", len(queries[0].Sequence))
	}
	if len(queries[0].Quality) != 4 {
		t.Errorf("record 0 quality length = %d, want 4", len(queries[0].Quality))
	}
}

func TestLoaderFasta(t *testing.T) {
	data := ">seq1 first\nACGTACGT\n>seq2;size=5;\nTTGGCCAA\n"
	loader := NewLoader(vsearch.Nucleotide)
	db, err := loader.LoadDatabase(strings.NewReader(data))
	if err != nil {
		t.Fatalf("LoadDatabase: %v", err)
	}
	if db.Len() != 2 {
		t.Fatalf("got %d records, want 2", db.Len())
	}
	if string(db.At(0).ID()) != "seq1" {
		t.Errorf("record 0 ID = %q, want %q", db.At(0).ID(), "seq1")
	}
	if db.At(1).Abundance != 5 {
		t.Errorf("record 1 abundance = %d, want 5", db.At(1).Abundance)
	}
}

func TestLoaderRejectsUnknownMarker(t *testing.T) {
	loader := NewLoader(vsearch.Nucleotide)
	_, err := loader.LoadQueries(strings.NewReader("not a sequence file"))
	if err == nil {
		t.Fatalf("expected an error for a stream with no '>' or '@' marker")
	}
}
