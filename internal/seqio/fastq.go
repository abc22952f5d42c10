package seqio

import (
	"bufio"
	"io"

	"github.com/torognes/vsearch-sub001/internal/vsearch"
)

// FastqOptions carries the quality-decoding knobs: an ASCII offset (33
// or 64) and a window, outside of which a quality byte is a fatal
// OutOfRange error rather than a silently clamped value (clamping only
// ever happens in the SFF importer's own rescaling step, a different
// code path from live FASTQ ingestion).
type FastqOptions struct {
	AsciiOffset int
	QMin, QMax  int
}

// DefaultFastqOptions is the conventional Sanger-style window: Q0-Q41
// offset by 33.
var DefaultFastqOptions = FastqOptions{AsciiOffset: 33, QMin: 0, QMax: 41}

// rawRecord is one parsed-but-not-yet-canonicalized input record: header
// and sequence/quality bytes exactly as they appeared in the stream.
type rawRecord struct {
	header   []byte
	sequence []byte
	quality  []byte // nil for FASTA
}

// fastqScanner reads 4-line FASTQ records, one per call to next,
// validating the '@'/'+' markers, the sequence/quality length match and
// the quality window. Line numbers in errors count from 1.
type fastqScanner struct {
	sc   *bufio.Scanner
	opts FastqOptions
	line int
}

func newFastqScanner(r io.Reader, opts FastqOptions) *fastqScanner {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 64*1024*1024)
	return &fastqScanner{sc: sc, opts: opts}
}

func (f *fastqScanner) readLine() ([]byte, bool) {
	if !f.sc.Scan() {
		return nil, false
	}
	f.line++
	line := f.sc.Bytes()
	out := make([]byte, len(line))
	copy(out, line)
	return out, true
}

// next returns the next record, or (nil, false, nil) at clean EOF.
func (f *fastqScanner) next() (*rawRecord, bool, error) {
	headerLine, ok := f.readLine()
	if !ok {
		return nil, false, f.sc.Err()
	}
	if len(headerLine) == 0 || headerLine[0] != '@' {
		return nil, false, vsearch.NewInvalidFormatError(f.line, "FASTQ record must start with '@'")
	}
	seqLine, ok := f.readLine()
	if !ok {
		return nil, false, vsearch.NewInvalidFormatError(f.line, "truncated FASTQ record: missing sequence line")
	}
	plusLine, ok := f.readLine()
	if !ok || len(plusLine) == 0 || plusLine[0] != '+' {
		return nil, false, vsearch.NewInvalidFormatError(f.line, "truncated FASTQ record: missing '+' separator")
	}
	qualLine, ok := f.readLine()
	if !ok {
		return nil, false, vsearch.NewInvalidFormatError(f.line, "truncated FASTQ record: missing quality line")
	}
	if len(qualLine) != len(seqLine) {
		return nil, false, vsearch.NewInvalidFormatError(f.line,
			"quality length %d does not match sequence length %d", len(qualLine), len(seqLine))
	}
	lo := f.opts.AsciiOffset + f.opts.QMin
	hi := f.opts.AsciiOffset + f.opts.QMax
	for _, q := range qualLine {
		if int(q) < lo || int(q) > hi {
			return nil, false, vsearch.NewOutOfRangeError(f.line,
				"quality byte %q out of configured range [%d,%d]", q, lo, hi)
		}
	}
	return &rawRecord{header: headerLine[1:], sequence: seqLine, quality: qualLine}, true, nil
}
