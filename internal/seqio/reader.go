package seqio

import (
	"bufio"
	"io"

	"github.com/pkg/errors"

	"github.com/torognes/vsearch-sub001/internal/vsearch"
)

// recordScanner is satisfied by both the FASTA and FASTQ scanners; Loader
// picks one based on the stream's leading byte.
type recordScanner interface {
	next() (*rawRecord, bool, error)
}

// Loader turns a (possibly compressed) FASTA or FASTQ byte stream into
// canonicalized vsearch.Record values, one side for reference databases
// and one for query streams.
type Loader struct {
	Alphabet *vsearch.Alphabet
	Fastq    FastqOptions
	Strip    *vsearch.StripCounts
}

// NewLoader builds a Loader with the default FASTQ quality window.
func NewLoader(alphabet *vsearch.Alphabet) *Loader {
	return &Loader{Alphabet: alphabet, Fastq: DefaultFastqOptions, Strip: &vsearch.StripCounts{}}
}

// scannerFor decompresses r (if needed) and peeks its first byte to
// choose between the FASTA and FASTQ scanners.
func (l *Loader) scannerFor(r io.Reader) (recordScanner, error) {
	decompressed, err := Open(r)
	if err != nil {
		return nil, err
	}
	br := bufio.NewReaderSize(decompressed, 64*1024)
	lead, err := br.Peek(1)
	if err != nil {
		if err == io.EOF {
			return &emptyScanner{}, nil
		}
		return nil, errors.Wrap(err, "seqio: peeking record marker")
	}
	switch lead[0] {
	case '@':
		return newFastqScanner(br, l.Fastq), nil
	case '>':
		return newFastaScanner(br, l.Alphabet), nil
	default:
		return nil, vsearch.NewInvalidFormatError(0,
			"unrecognized record marker %q: expected '>' (FASTA) or '@' (FASTQ)", lead[0])
	}
}

type emptyScanner struct{}

func (emptyScanner) next() (*rawRecord, bool, error) { return nil, false, nil }

// canonicalize turns one raw record into a vsearch.Record at the given
// ordinal, running the sequence through Loader's Alphabet and extracting
// the `;size=N;` abundance annotation from the header.
func (l *Loader) canonicalize(ordinal int, raw *rawRecord) (*vsearch.Record, error) {
	dst := make([]byte, len(raw.sequence))
	var line int
	n, err := l.Alphabet.Canonicalize(dst, raw.sequence, &line, l.Strip)
	if err != nil {
		return nil, err
	}
	dst = dst[:n]

	abundance, err := ParseAbundance(raw.header)
	if err != nil {
		return nil, err
	}

	var quality []byte
	if raw.quality != nil {
		// FASTQ quality tracks the raw sequence 1:1 before
		// canonicalization strips anything; canonicalization for
		// FASTQ input never strips bytes in practice (FASTQ streams
		// carry no interior whitespace), so n == len(raw.sequence)
		// and quality needs no re-indexing.
		quality = raw.quality
		if len(quality) != n {
			return nil, vsearch.NewInvalidFormatError(0,
				"record %d: canonicalized sequence length %d no longer matches quality length %d",
				ordinal, n, len(quality))
		}
	}

	return vsearch.NewRecord(ordinal, raw.header, dst, quality, abundance)
}

// LoadDatabase reads every record from r into a frozen Database.
func (l *Loader) LoadDatabase(r io.Reader) (*vsearch.Database, error) {
	sc, err := l.scannerFor(r)
	if err != nil {
		return nil, err
	}
	db := vsearch.NewDatabase(l.Alphabet)
	for ordinal := 0; ; ordinal++ {
		raw, ok, err := sc.next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		rec, err := l.canonicalize(ordinal, raw)
		if err != nil {
			return nil, err
		}
		if err := db.Add(rec); err != nil {
			return nil, err
		}
	}
	return db, nil
}

// LoadQueries reads every record from r into a query slice, consumed once
// by the search driver's worker pool.
func (l *Loader) LoadQueries(r io.Reader) ([]*vsearch.Record, error) {
	sc, err := l.scannerFor(r)
	if err != nil {
		return nil, err
	}
	var queries []*vsearch.Record
	for ordinal := 0; ; ordinal++ {
		raw, ok, err := sc.next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		rec, err := l.canonicalize(ordinal, raw)
		if err != nil {
			return nil, err
		}
		queries = append(queries, rec)
	}
	return queries, nil
}
