package seqio

import (
	"io"

	"github.com/biogo/biogo/alphabet"
	"github.com/biogo/biogo/io/seqio"
	"github.com/biogo/biogo/io/seqio/fasta"
	"github.com/biogo/biogo/seq/linear"
	"github.com/pkg/errors"

	"github.com/torognes/vsearch-sub001/internal/vsearch"
)

// biogoAlphabet picks the biogo alphabet.Alphabet matching one of this
// core's own two Alphabet values, redundant/ambiguity-permissive in both
// cases: legality is this core's own Alphabet.Canonicalize's job (the
// 256-entry classification table), not biogo's, so the template alphabet
// here only needs to be permissive enough not to reject a byte before
// Canonicalize ever sees it.
func biogoAlphabet(a *vsearch.Alphabet) alphabet.Alphabet {
	if a.Size == 16 {
		return alphabet.DNAredundant
	}
	return alphabet.Protein
}

// fastaScanner adapts biogo's seqio.Scanner to this package's rawRecord
// shape, with the template sequence's alphabet chosen to match whichever
// alphabet the search core was built with.
type fastaScanner struct {
	sc *seqio.Scanner
}

func newFastaScanner(r io.Reader, vAlphabet *vsearch.Alphabet) *fastaScanner {
	template := linear.NewSeq("", nil, biogoAlphabet(vAlphabet))
	return &fastaScanner{sc: seqio.NewScanner(fasta.NewReader(r, template))}
}

func (f *fastaScanner) next() (*rawRecord, bool, error) {
	if !f.sc.Next() {
		if err := f.sc.Error(); err != nil && err != io.EOF {
			return nil, false, errors.Wrap(err, "seqio: reading FASTA record")
		}
		return nil, false, nil
	}
	seq, ok := f.sc.Seq().(*linear.Seq)
	if !ok {
		return nil, false, errors.New("seqio: unexpected sequence type from FASTA reader")
	}
	header := []byte(seq.Name())
	if seq.Desc != "" {
		header = append(header, ' ')
		header = append(header, []byte(seq.Desc)...)
	}
	raw := make([]byte, len(seq.Seq))
	for i, l := range seq.Seq {
		raw[i] = byte(l)
	}
	return &rawRecord{header: header, sequence: raw}, true, nil
}
