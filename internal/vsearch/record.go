package vsearch

import "bytes"

// Record is an immutable database or query entry: a header, a canonical
// sequence, optional quality scores (FASTQ only), and an abundance parsed
// from a `;size=N;` header annotation. Records are numbered by insertion
// order and that ordinal never changes; every downstream table (k-mer
// index, exact-match index, Hit.Target) indexes by this ordinal.
type Record struct {
	Header      []byte
	Sequence    []byte // canonical alphabet codes, not printable letters
	Quality     []byte // nil unless the source was FASTQ
	Abundance   uint64
	HeaderIDLen uint32 // length of Header up to first whitespace
	ordinal     int
}

// Ordinal returns the record's fixed insertion-order index.
func (r *Record) Ordinal() int { return r.ordinal }

// ID returns the header up to (but not including) the first whitespace
// byte, the conventional sequence identifier.
func (r *Record) ID() []byte { return r.Header[:r.HeaderIDLen] }

// NewRecord builds a Record, deriving HeaderIDLen by scanning header for
// the first whitespace byte. sequence must already be in canonical
// alphabet codes (see Alphabet.Canonicalize); NewRecord does not validate
// legality, since by this point the canonicalizing scan already has.
func NewRecord(ordinal int, header, sequence, quality []byte, abundance uint64) (*Record, error) {
	if len(sequence) == 0 {
		return nil, newError(InvalidFormat, 0, "record %d: empty sequence", ordinal)
	}
	if quality != nil && len(quality) != len(sequence) {
		return nil, newError(InvalidFormat, 0,
			"record %d: quality length %d does not match sequence length %d",
			ordinal, len(quality), len(sequence))
	}
	idLen := len(header)
	if i := bytes.IndexAny(header, " \t"); i >= 0 {
		idLen = i
	}
	return &Record{
		Header:      header,
		Sequence:    sequence,
		Quality:     quality,
		Abundance:   abundance,
		HeaderIDLen: uint32(idLen),
		ordinal:     ordinal,
	}, nil
}
