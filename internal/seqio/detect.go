// Package seqio implements the record iterator the search core
// consumes: FASTA/FASTQ parsing with transparent gzip/bzip2
// decompression, quality-offset handling, and the `;size=N;` abundance
// scanner, feeding canonicalized vsearch.Record values into a
// vsearch.Database.
package seqio

import (
	"bufio"
	"compress/bzip2"
	"io"

	"github.com/pkg/errors"

	kgzip "github.com/klauspost/compress/gzip"
)

// gzipMagic and bzip2Magic select the decompressor for an input stream.
var (
	gzipMagic  = [2]byte{0x1f, 0x8b}
	bzip2Magic = [2]byte{0x42, 0x5a}
)

// detectReader peeks the first two bytes of r without consuming them
// from the caller's perspective (the peeked bytes are still delivered
// through the returned reader), then wraps r in the matching
// decompressor. bufio.Reader.Peek stands in for a seek/rewind, so the
// input need not be seekable; UDB, the one format that requires real
// seeking, never goes through this path.
func detectReader(r io.Reader) (io.Reader, error) {
	br := bufio.NewReaderSize(r, 64*1024)
	peek, err := br.Peek(2)
	if err != nil && err != io.EOF {
		return nil, errors.Wrap(err, "seqio: peeking magic bytes")
	}
	var magic [2]byte
	copy(magic[:], peek)
	switch magic {
	case gzipMagic:
		gz, err := kgzip.NewReader(br)
		if err != nil {
			return nil, errors.Wrap(err, "seqio: opening gzip stream")
		}
		return gz, nil
	case bzip2Magic:
		return bzip2.NewReader(br), nil
	default:
		return br, nil
	}
}

// Open wraps r with transparent gzip/bzip2 decompression based on its
// leading magic bytes, for both database and query input streams.
func Open(r io.Reader) (io.Reader, error) {
	return detectReader(r)
}
