// Command vsearch-search runs a global-alignment similarity search of a
// query FASTA/FASTQ file against a database FASTA file (or a prebuilt UDB
// index), and writes BLAST-6 and/or UC reports. It wires together every
// component in internal/vsearch behind plain flag/fatalf/Verbose
// conventions.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path"
	"runtime"

	"github.com/torognes/vsearch-sub001/internal/out"
	"github.com/torognes/vsearch-sub001/internal/seqio"
	"github.com/torognes/vsearch-sub001/internal/udb"
	"github.com/torognes/vsearch-sub001/internal/vsearch"
)

var (
	flagDB         = ""
	flagUDB        = ""
	flagKmerLen    = 8
	flagID         = 0.75
	flagWeakID     = 0.0
	flagMaxAccepts = 1
	flagMaxRejects = 32
	flagStrandBoth = false
	flagProtein    = false
	flagThreads    = runtime.NumCPU()
	flagQuiet      = false
	flagMatch      = int64(2)
	flagMismatch   = int64(-4)
	flagGapOpen    = int64(20)
	flagGapExtend  = int64(2)
	flagB6Out      = ""
	flagUCOut      = ""
	flagDust       = true
	flagExact      = false
	flagMaxSubs    = 0
	flagMaxGaps    = 0
	flagMaxDiffs   = 0
)

func init() {
	flag.StringVar(&flagDB, "db", flagDB, "Database FASTA file.")
	flag.StringVar(&flagUDB, "udb", flagUDB,
		"Prebuilt UDB index file; takes precedence over -db when both are given.")
	flag.IntVar(&flagKmerLen, "wordlength", flagKmerLen, "K-mer length used to index the database.")
	flag.Float64Var(&flagID, "id", flagID, "Minimum fractional identity to accept a hit.")
	flag.Float64Var(&flagWeakID, "weak_id", flagWeakID, "Minimum fractional identity to report a weak hit.")
	flag.IntVar(&flagMaxAccepts, "maxaccepts", flagMaxAccepts, "Maximum accepted hits per query.")
	flag.IntVar(&flagMaxRejects, "maxrejects", flagMaxRejects, "Maximum rejected candidates considered per query.")
	flag.BoolVar(&flagStrandBoth, "strand_both", flagStrandBoth, "Search both strands of nucleotide queries.")
	flag.BoolVar(&flagProtein, "protein", flagProtein, "Treat the database and query as amino-acid sequences.")
	flag.IntVar(&flagThreads, "threads", flagThreads, "Number of search worker goroutines.")
	flag.BoolVar(&flagQuiet, "quiet", flagQuiet, "When set, suppress progress output.")
	flag.Int64Var(&flagMatch, "match", flagMatch, "Match score.")
	flag.Int64Var(&flagMismatch, "mismatch", flagMismatch, "Mismatch score (negative).")
	flag.Int64Var(&flagGapOpen, "gapopen", flagGapOpen, "Gap open penalty.")
	flag.Int64Var(&flagGapExtend, "gapext", flagGapExtend, "Gap extend penalty.")
	flag.StringVar(&flagB6Out, "blast6out", flagB6Out, "Write BLAST-6 tabular report to this file.")
	flag.StringVar(&flagUCOut, "uc", flagUCOut, "Write UC report to this file.")
	flag.BoolVar(&flagDust, "dust", flagDust, "Mask low-complexity regions before k-mer extraction.")
	flag.BoolVar(&flagExact, "exact", flagExact,
		"Bypass the k-mer/alignment pipeline and report only byte-identical database matches.")
	flag.IntVar(&flagMaxSubs, "maxsubs", flagMaxSubs, "Maximum substitutions allowed in an accepted hit (0 = unlimited).")
	flag.IntVar(&flagMaxGaps, "maxgaps", flagMaxGaps, "Maximum interior gaps allowed in an accepted hit (0 = unlimited).")
	flag.IntVar(&flagMaxDiffs, "maxdiffs", flagMaxDiffs, "Maximum substitutions+indels allowed in an accepted hit (0 = unlimited).")
	flag.Usage = usage
	flag.Parse()
}

func main() {
	vsearch.Verbose = !flagQuiet

	if flag.NArg() < 1 {
		usage()
	}
	queryPath := flag.Arg(0)

	alphabet := vsearch.Nucleotide
	if flagProtein {
		alphabet = vsearch.AminoAcid
	}

	index, db, kmerLen := buildOrLoadIndex(alphabet)

	scorer := vsearch.NewScoreMatrix(alphabet, flagMatch, flagMismatch)
	gaps := vsearch.NewGapModel(flagGapOpen, flagGapExtend)
	gaps.Set(vsearch.AxisQuery, vsearch.RegionLeft, 0, 0)
	gaps.Set(vsearch.AxisQuery, vsearch.RegionRight, 0, 0)
	gaps.Set(vsearch.AxisTarget, vsearch.RegionLeft, 0, 0)
	gaps.Set(vsearch.AxisTarget, vsearch.RegionRight, 0, 0)

	// -exact forces the identity threshold to 1.0 regardless of any
	// user-supplied -id: an exact hit is already a 100%-identity match,
	// so there is nothing for a lower threshold to relax.
	minID := flagID
	if flagExact {
		minID = 1.0
	}

	cfg := &vsearch.SearchConfig{
		DB:             db,
		Index:          index,
		KmerLen:        kmerLen,
		MinKmerMatches: 1,
		MinKmerFreq:    0,
		Scorer:         scorer,
		Gaps:           gaps,
		PostFilter: &vsearch.PostAlignFilter{
			Identity: vsearch.IdCDHit,
			MinID:    minID,
			WeakID:   flagWeakID,
			MaxSubs:  uint32(flagMaxSubs),
			MaxGaps:  uint32(flagMaxGaps),
			MaxDiffs: uint32(flagMaxDiffs),
		},
		MaxAccepts: flagMaxAccepts,
		MaxRejects: flagMaxRejects,
	}
	if flagExact {
		cfg.Exact = vsearch.BuildExactIndex(db)
	}
	if flagStrandBoth && alphabet.Size == 16 {
		cfg.Strand = vsearch.StrandBoth
	}
	if flagDust {
		cfg.Dust = vsearch.NewDust()
	}

	qf, err := os.Open(queryPath)
	if err != nil {
		fatalf("opening query file: %s\n", err)
	}
	defer qf.Close()
	loader := seqio.NewLoader(alphabet)
	queries, err := loader.LoadQueries(qf)
	if err != nil {
		fatalf("reading queries: %s\n", err)
	}
	reportStripped(loader.Strip)

	b6w, ucw, closers := openReportWriters()
	defer func() {
		for _, c := range closers {
			c.Close()
		}
	}()

	progress := &vsearch.ProgressBar{Label: "Searching", Total: uint64(len(queries))}
	drivers := make([]*vsearch.Driver, flagThreads)
	for i := range drivers {
		drivers[i] = vsearch.NewDriver(cfg)
	}

	pool := &vsearch.Pool{
		Workers:  flagThreads,
		Progress: progress,
		Process: func(worker int, q *vsearch.Record) []*vsearch.Hit {
			return drivers[worker].Search(q)
		},
		Emit: func(q *vsearch.Record, hits []*vsearch.Hit) {
			emit(q, db, hits, b6w, ucw)
		},
	}
	pool.Run(queries)
	progress.ClearAndDisplay()
	vsearch.Vprint("\n")

	if b6w != nil {
		if err := b6w.Flush(); err != nil {
			fatalf("flushing BLAST-6 output: %s\n", err)
		}
	}
	if ucw != nil {
		if err := ucw.Flush(); err != nil {
			fatalf("flushing UC output: %s\n", err)
		}
	}
}

func buildOrLoadIndex(alphabet *vsearch.Alphabet) (*vsearch.KmerIndex, *vsearch.Database, int) {
	if flagUDB != "" {
		f, err := os.Open(flagUDB)
		if err != nil {
			fatalf("opening UDB index: %s\n", err)
		}
		defer f.Close()
		index, db, err := udb.ReadFile(f, alphabet)
		if err != nil {
			fatalf("reading UDB index: %s\n", err)
		}
		// The word length is baked into the index file; -wordlength is
		// ignored for a prebuilt index.
		return index, db, index.K
	}
	if flagDB == "" {
		fatalf("one of -db or -udb is required\n")
	}
	f, err := os.Open(flagDB)
	if err != nil {
		fatalf("opening database file: %s\n", err)
	}
	defer f.Close()

	// A prebuilt index handed to -db still loads: the UDB magic is
	// checked before falling back to FASTA/FASTQ parsing.
	peek := make([]byte, 4)
	n, _ := io.ReadFull(f, peek)
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		fatalf("rewinding database file: %s\n", err)
	}
	if udb.DetectMagic(peek[:n]) {
		index, db, err := udb.ReadFile(f, alphabet)
		if err != nil {
			fatalf("reading UDB index: %s\n", err)
		}
		return index, db, index.K
	}

	loader := seqio.NewLoader(alphabet)
	db, err := loader.LoadDatabase(f)
	if err != nil {
		fatalf("reading database: %s\n", err)
	}
	reportStripped(loader.Strip)
	index, err := vsearch.BuildKmerIndex(db, flagKmerLen)
	if err != nil {
		fatalf("building k-mer index: %s\n", err)
	}
	return index, db, flagKmerLen
}

// reportStripped prints the per-byte strip histogram accumulated while
// canonicalizing a stream, once, after the stream has been fully read.
func reportStripped(s *vsearch.StripCounts) {
	if s.Total() == 0 {
		return
	}
	vsearch.Vprintf("stripped %d sequence characters:\n", s.Total())
	for b := 0; b < 256; b++ {
		if n := s.ByByte(byte(b)); n > 0 {
			vsearch.Vprintf("  %q: %d\n", byte(b), n)
		}
	}
}

func openReportWriters() (*out.B6Writer, *out.UCWriter, []*os.File) {
	var b6w *out.B6Writer
	var ucw *out.UCWriter
	var closers []*os.File
	if flagB6Out != "" {
		f, err := os.Create(flagB6Out)
		if err != nil {
			fatalf("creating BLAST-6 output: %s\n", err)
		}
		b6w = out.NewB6Writer(f)
		closers = append(closers, f)
	}
	if flagUCOut != "" {
		f, err := os.Create(flagUCOut)
		if err != nil {
			fatalf("creating UC output: %s\n", err)
		}
		ucw = out.NewUCWriter(f)
		closers = append(closers, f)
	}
	return b6w, ucw, closers
}

func emit(q *vsearch.Record, db *vsearch.Database, hits []*vsearch.Hit, b6w *out.B6Writer, ucw *out.UCWriter) {
	var noHit = true
	for _, h := range hits {
		if !h.Accepted {
			continue
		}
		noHit = false
		if b6w != nil {
			if err := b6w.WriteHit(q, db, h); err != nil {
				errorf("writing BLAST-6 row: %s\n", err)
			}
		}
		if ucw != nil {
			if err := ucw.WriteHit(q, db, h); err != nil {
				errorf("writing UC row: %s\n", err)
			}
		}
	}
	if noHit && ucw != nil {
		if err := ucw.WriteNoHit(q); err != nil {
			errorf("writing UC no-hit row: %s\n", err)
		}
	}
}

func fatalf(format string, v ...interface{}) {
	fmt.Fprintf(os.Stderr, format, v...)
	os.Exit(1)
}

func errorf(format string, v ...interface{}) {
	fmt.Fprintf(os.Stderr, format, v...)
}

func usage() {
	fmt.Fprintf(os.Stderr,
		"\nUsage: %s [flags] query-fasta-file\n\n", path.Base(os.Args[0]))
	flag.PrintDefaults()
	os.Exit(1)
}
