// Package out writes search results to the two tabular report formats
// exercised end-to-end by this repository's tests: BLAST-6 and UC. Full
// richness (SAM, alnout, userout, biom) is out of scope; these two writers
// exist only far enough to drive vsearch.Hit through a real output sink.
package out

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/torognes/vsearch-sub001/internal/vsearch"
)

// B6Writer writes BLAST-6 tabular rows (query id, target id, percent
// identity, alignment length, mismatches, gap opens, q.start, q.end,
// t.start, t.end, score, cigar), one row per accepted hit, as a
// csv.Writer with a tab delimiter.
type B6Writer struct {
	csv *csv.Writer
}

// NewB6Writer wraps w in a BLAST-6 tab-delimited writer.
func NewB6Writer(w io.Writer) *B6Writer {
	cw := csv.NewWriter(w)
	cw.Comma = '\t'
	cw.UseCRLF = false
	return &B6Writer{csv: cw}
}

// WriteHit emits one BLAST-6 row for hit, found for query against the
// record at target in db. Non-accepted hits are still written (callers
// decide what to filter; this writer formats, it doesn't select).
func (w *B6Writer) WriteHit(query *vsearch.Record, db *vsearch.Database, hit *vsearch.Hit) error {
	target := db.At(hit.Target)
	qStart, qEnd := b6QueryRange(query, hit)
	tStart, tEnd := b6TargetRange(target, hit)
	record := []string{
		string(query.ID()),
		string(target.ID()),
		fmt.Sprintf("%.1f", hit.Identity),
		fmt.Sprintf("%d", hit.NWAlen),
		fmt.Sprintf("%d", hit.NWMismatch),
		fmt.Sprintf("%d", hit.NWGaps),
		fmt.Sprintf("%d", qStart),
		fmt.Sprintf("%d", qEnd),
		fmt.Sprintf("%d", tStart),
		fmt.Sprintf("%d", tEnd),
		fmt.Sprintf("%d", hit.NWScore),
		hit.Cigar,
	}
	return w.csv.Write(record)
}

// Flush flushes the underlying csv.Writer and returns its deferred error.
func (w *B6Writer) Flush() error {
	w.csv.Flush()
	return w.csv.Error()
}

// b6QueryRange reports 1-based, strand-oriented query coordinates: plus
// strand counts from TrimQLeft+1; minus strand is reported 3'->5' as
// BLAST-6 convention requires (start > end).
func b6QueryRange(query *vsearch.Record, hit *vsearch.Hit) (int, int) {
	n := uint32(len(query.Sequence))
	lo := hit.TrimQLeft + 1
	hi := n - hit.TrimQRight
	if hit.Strand == vsearch.Minus {
		return int(hi), int(lo)
	}
	return int(lo), int(hi)
}

func b6TargetRange(target *vsearch.Record, hit *vsearch.Hit) (int, int) {
	n := uint32(len(target.Sequence))
	lo := hit.TrimTLeft + 1
	hi := n - hit.TrimTRight
	return int(lo), int(hi)
}
