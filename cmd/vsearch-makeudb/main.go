// Command vsearch-makeudb builds a k-mer index over a FASTA database
// and serializes it to the UDB binary format, so repeated searches can
// load the prebuilt index instead of re-indexing per run.
package main

import (
	"flag"
	"fmt"
	"os"
	"path"

	"github.com/torognes/vsearch-sub001/internal/seqio"
	"github.com/torognes/vsearch-sub001/internal/udb"
	"github.com/torognes/vsearch-sub001/internal/vsearch"
)

var (
	flagKmerLen = 8
	flagProtein = false
	flagQuiet   = false
)

func init() {
	flag.IntVar(&flagKmerLen, "wordlength", flagKmerLen, "K-mer length to index.")
	flag.BoolVar(&flagProtein, "protein", flagProtein, "Treat the database as amino-acid sequences.")
	flag.BoolVar(&flagQuiet, "quiet", flagQuiet, "When set, suppress progress output.")
	flag.Usage = usage
	flag.Parse()
}

func main() {
	vsearch.Verbose = !flagQuiet

	if flag.NArg() < 2 {
		usage()
	}
	fastaPath, udbPath := flag.Arg(0), flag.Arg(1)

	alphabet := vsearch.Nucleotide
	if flagProtein {
		alphabet = vsearch.AminoAcid
	}

	in, err := os.Open(fastaPath)
	if err != nil {
		fatalf("opening database file: %s\n", err)
	}
	defer in.Close()

	loader := seqio.NewLoader(alphabet)
	db, err := loader.LoadDatabase(in)
	if err != nil {
		fatalf("reading database: %s\n", err)
	}
	vsearch.Vprintf("read %d records\n", db.Len())
	if total := loader.Strip.Total(); total > 0 {
		vsearch.Vprintf("stripped %d sequence characters\n", total)
	}

	index, err := vsearch.BuildKmerIndex(db, flagKmerLen)
	if err != nil {
		fatalf("building k-mer index: %s\n", err)
	}

	out, err := os.Create(udbPath)
	if err != nil {
		fatalf("creating UDB file: %s\n", err)
	}
	defer out.Close()
	if err := udb.WriteFile(out, index, db); err != nil {
		fatalf("writing UDB file: %s\n", err)
	}
}

func fatalf(format string, v ...interface{}) {
	fmt.Fprintf(os.Stderr, format, v...)
	os.Exit(1)
}

func usage() {
	fmt.Fprintf(os.Stderr,
		"\nUsage: %s [flags] database-fasta-file output-udb-file\n\n", path.Base(os.Args[0]))
	flag.PrintDefaults()
	os.Exit(1)
}
