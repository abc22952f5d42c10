// Command vsearch-orient reorients nucleotide reads to match the strand
// of a reference FASTA database, using the k-mer vote rule in
// internal/vsearch/orient.go. Reads whose vote is inconclusive are passed
// through on their input strand and flagged in the output header.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"path"

	"github.com/torognes/vsearch-sub001/internal/seqio"
	"github.com/torognes/vsearch-sub001/internal/vsearch"
)

var (
	flagKmerLen = 8
	flagQuiet   = false
)

func init() {
	flag.IntVar(&flagKmerLen, "wordlength", flagKmerLen, "K-mer length used to index the reference.")
	flag.BoolVar(&flagQuiet, "quiet", flagQuiet, "When set, suppress progress output.")
	flag.Usage = usage
	flag.Parse()
}

func main() {
	vsearch.Verbose = !flagQuiet

	if flag.NArg() < 3 {
		usage()
	}
	refPath, readsPath, outPath := flag.Arg(0), flag.Arg(1), flag.Arg(2)

	alphabet := vsearch.Nucleotide
	loader := seqio.NewLoader(alphabet)

	ref, err := os.Open(refPath)
	if err != nil {
		fatalf("opening reference file: %s\n", err)
	}
	refDB, err := loader.LoadDatabase(ref)
	ref.Close()
	if err != nil {
		fatalf("reading reference: %s\n", err)
	}

	index, err := vsearch.BuildKmerIndex(refDB, flagKmerLen)
	if err != nil {
		fatalf("building reference index: %s\n", err)
	}
	orienter := vsearch.NewOrienter(index)

	reads, err := os.Open(readsPath)
	if err != nil {
		fatalf("opening reads file: %s\n", err)
	}
	queries, err := loader.LoadQueries(reads)
	reads.Close()
	if err != nil {
		fatalf("reading reads: %s\n", err)
	}

	out, err := os.Create(outPath)
	if err != nil {
		fatalf("creating output file: %s\n", err)
	}
	defer out.Close()
	w := bufio.NewWriter(out)
	defer w.Flush()

	var flipped, kept, inconclusive int
	for _, q := range queries {
		result := orienter.Orient(q.Sequence)
		seq := q.Sequence
		status := "inconclusive"
		switch {
		case result.Oriented && result.Strand == vsearch.Minus:
			seq = vsearch.ReverseComplement(seq, alphabet)
			status = "reoriented"
			flipped++
		case result.Oriented:
			status = "kept"
			kept++
		default:
			inconclusive++
		}
		fmt.Fprintf(w, ">%s orient=%s fwd=%d rev=%d\n", q.ID(), status, result.CountFwd, result.CountRev)
		writeWrapped(w, seq, alphabet)
	}
	vsearch.Vprintf("reoriented=%d kept=%d inconclusive=%d\n", flipped, kept, inconclusive)
}

func writeWrapped(w *bufio.Writer, seq []byte, alphabet *vsearch.Alphabet) {
	const width = 80
	for i := 0; i < len(seq); i += width {
		end := i + width
		if end > len(seq) {
			end = len(seq)
		}
		for _, code := range seq[i:end] {
			w.WriteByte(alphabet.Letter(code))
		}
		w.WriteByte('\n')
	}
}

func fatalf(format string, v ...interface{}) {
	fmt.Fprintf(os.Stderr, format, v...)
	os.Exit(1)
}

func usage() {
	fmt.Fprintf(os.Stderr,
		"\nUsage: %s [flags] reference-fasta-file reads-fasta-file output-fasta-file\n\n",
		path.Base(os.Args[0]))
	flag.PrintDefaults()
	os.Exit(1)
}
