package out

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/torognes/vsearch-sub001/internal/vsearch"
)

// UCWriter writes the UC format's H (hit) and N (no-hit) record types,
// the two record types a similarity search (as opposed to a clustering
// run) ever emits. S/C records are clustering-only and out of scope.
type UCWriter struct {
	csv *csv.Writer
	n   int
}

// NewUCWriter wraps w in a tab-delimited UC writer.
func NewUCWriter(w io.Writer) *UCWriter {
	cw := csv.NewWriter(w)
	cw.Comma = '\t'
	cw.UseCRLF = false
	return &UCWriter{csv: cw}
}

// WriteHit emits one 'H' record for one accepted hit of query.
func (w *UCWriter) WriteHit(query *vsearch.Record, db *vsearch.Database, hit *vsearch.Hit) error {
	target := db.At(hit.Target)
	record := []string{
		"H",
		fmt.Sprintf("%d", w.n),
		fmt.Sprintf("%d", len(query.Sequence)),
		fmt.Sprintf("%.1f", hit.Identity),
		string(hit.Strand),
		"0",
		"0",
		hit.Cigar,
		string(query.ID()),
		string(target.ID()),
	}
	w.n++
	return w.csv.Write(record)
}

// WriteNoHit emits one 'N' record for a query that produced no accepted
// hit at all.
func (w *UCWriter) WriteNoHit(query *vsearch.Record) error {
	record := []string{
		"N", fmt.Sprintf("%d", w.n), fmt.Sprintf("%d", len(query.Sequence)),
		"*", "*", "*", "*", "*", string(query.ID()), "*",
	}
	w.n++
	return w.csv.Write(record)
}

// Flush flushes the underlying csv.Writer and returns its deferred error.
func (w *UCWriter) Flush() error {
	w.csv.Flush()
	return w.csv.Error()
}
