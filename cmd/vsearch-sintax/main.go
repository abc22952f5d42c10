// Command vsearch-sintax runs SINTAX bootstrap taxonomic classification
// of a query FASTA file against a reference FASTA database whose headers
// carry `tax=domain,kingdom,...;` annotations, using the k-mer bootstrap
// voting scheme in internal/vsearch/sintax.go.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"path"
	"strings"

	"github.com/torognes/vsearch-sub001/internal/seqio"
	"github.com/torognes/vsearch-sub001/internal/vsearch"
)

var (
	flagKmerLen = 8
	flagCutoff  = 0.8
	flagQuiet   = false
	flagSeed    = int64(1)
)

func init() {
	flag.IntVar(&flagKmerLen, "wordlength", flagKmerLen, "K-mer length used to index the reference.")
	flag.Float64Var(&flagCutoff, "sintax_cutoff", flagCutoff, "Minimum bootstrap confidence to report a rank's call.")
	flag.BoolVar(&flagQuiet, "quiet", flagQuiet, "When set, suppress progress output.")
	flag.Int64Var(&flagSeed, "seed", flagSeed, "Bootstrap resampling seed; fixed for reproducible output.")
	flag.Usage = usage
	flag.Parse()
}

func main() {
	vsearch.Verbose = !flagQuiet

	if flag.NArg() < 3 {
		usage()
	}
	refPath, queryPath, outPath := flag.Arg(0), flag.Arg(1), flag.Arg(2)

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
	classifier := vsearch.NewClassifier(index, refDB)
	extractor := vsearch.NewKmerExtractor(alphabet, flagKmerLen)

	qf, err := os.Open(queryPath)
	if err != nil {
		fatalf("opening query file: %s\n", err)
	}
	queries, err := loader.LoadQueries(qf)
	qf.Close()
	if err != nil {
		fatalf("reading queries: %s\n", err)
	}

	out, err := os.Create(outPath)
	if err != nil {
		fatalf("creating output file: %s\n", err)
	}
	defer out.Close()
	w := bufio.NewWriter(out)
	defer w.Flush()

	rng := rand.New(rand.NewSource(flagSeed))
	progress := &vsearch.ProgressBar{Label: "Classifying", Total: uint64(len(queries))}
	for _, q := range queries {
		kmers := extractor.Unique(q.Sequence)
		calls := classifier.Classify(kmers, rng)
		writeCalls(w, q, calls)
		progress.Increment()
	}
	progress.ClearAndDisplay()
	vsearch.Vprint("\n")
}

func writeCalls(w *bufio.Writer, q *vsearch.Record, calls [vsearch.TaxLevels]vsearch.TaxonCall) {
	fmt.Fprintf(w, "%s\t", q.ID())
	var parts []string
	for _, c := range calls {
		if c.Name == "" || c.Confidence < flagCutoff {
			break
		}
		parts = append(parts, fmt.Sprintf("%s(%.2f)", c.Name, c.Confidence))
	}
	fmt.Fprintf(w, "%s\n", strings.Join(parts, ","))
}

func fatalf(format string, v ...interface{}) {
	fmt.Fprintf(os.Stderr, format, v...)
	os.Exit(1)
}

func usage() {
	fmt.Fprintf(os.Stderr,
		"\nUsage: %s [flags] reference-fasta-file query-fasta-file output-file\n\n",
		path.Base(os.Args[0]))
	flag.PrintDefaults()
	os.Exit(1)
}
