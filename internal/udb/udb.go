// Package udb reads and writes the binary pre-built index format: a
// fixed 50-word header, a flat per-k-mer match-count table, the
// concatenated per-k-mer record lists, a second header carrying 64-bit
// totals, then header and sequence blobs each preceded by an
// offset/length table. All words are little-endian; writers stream in
// one pass.
package udb

import (
	"bufio"
	"encoding/binary"
	"io"

	"github.com/golang/snappy"
	"github.com/pkg/errors"

	"github.com/torognes/vsearch-sub001/internal/seqio"
	"github.com/torognes/vsearch-sub001/internal/vsearch"
)

// Magic values, spelling "UDBF"/"fBDU" etc when read as little-endian
// uint32s.
const (
	magicHeader1  = 0x55444246 // "UDBF"
	magicSentinel = 0x55444233 // "UDB3"
	magicHeader2  = 0x55444234 // "UDB4"
	sentinel1     = 0x005e0db3
	sentinel2     = 0x005e0db4
	magicTrailer  = 0x55444266 // "fBDU"
	alphaTagNT    = 0x0000746e // "nt"
)

// header1Words is the fixed size of the first header block, in uint32
// words.
const header1Words = 50

// WriteFile serializes idx and db in full to w. Sequences are written as
// this module's own canonical-code bytes rather than re-expanded ASCII --
// this format never leaves the program's own canonical representation,
// so there is nothing to round-trip through printable letters for.
// Headers are written as their raw text.
func WriteFile(w io.Writer, idx *vsearch.KmerIndex, db *vsearch.Database) error {
	bw := bufio.NewWriter(w)
	var werr error
	put32 := func(v uint32) {
		if werr != nil {
			return
		}
		werr = binary.Write(bw, binary.LittleEndian, v)
	}

	seqCount := uint32(db.Len())
	count, hash, index, bitmap := idx.Tables()

	header1 := make([]uint32, header1Words)
	header1[0] = magicHeader1
	header1[2] = 32
	header1[4] = uint32(idx.K)
	header1[5] = 1
	header1[6] = 100
	header1[11] = 0
	header1[13] = seqCount
	header1[17] = alphaTagNT
	header1[49] = magicTrailer
	for _, v := range header1 {
		put32(v)
	}

	for _, c := range count {
		put32(c)
	}
	put32(magicSentinel)

	// The record-list blob (every k-mer's member ordinals, in k-mer
	// order) is built in memory as a flat little-endian uint32 stream,
	// then snappy-compressed as one block; the blob's final size is
	// already known once count[] has been tallied, so whole-block
	// framing is simpler than a streaming snappy writer.
	var raw []byte
	for km, c := range count {
		if c == 0 {
			continue
		}
		if ba, ok := bitmap[uint32(km)]; ok {
			for seqID := uint32(0); seqID < seqCount; seqID++ {
				if set, _ := ba.GetBit(uint64(seqID)); set {
					raw = binary.LittleEndian.AppendUint32(raw, seqID)
				}
			}
			continue
		}
		start := hash[km]
		for _, seqID := range index[start : start+c] {
			raw = binary.LittleEndian.AppendUint32(raw, seqID)
		}
	}
	compressed := snappy.Encode(nil, raw)
	put32(uint32(len(compressed)))
	if werr == nil {
		_, werr = bw.Write(compressed)
	}

	var ntCount, headerChars uint64
	for _, rec := range db.All() {
		ntCount += uint64(len(rec.Sequence))
		headerChars += uint64(len(rec.Header)) + 1
	}

	put32(magicHeader2)
	put32(sentinel1)
	put32(seqCount)
	put32(uint32(ntCount & 0xffffffff))
	put32(uint32(ntCount >> 32))
	put32(uint32(headerChars & 0xffffffff))
	put32(uint32(headerChars >> 32))
	put32(sentinel2)

	var sum uint32
	for _, rec := range db.All() {
		put32(sum)
		sum += uint32(len(rec.Header)) + 1
	}
	for _, rec := range db.All() {
		if werr != nil {
			break
		}
		_, werr = bw.Write(rec.Header)
		if werr == nil {
			werr = bw.WriteByte(0)
		}
	}

	for _, rec := range db.All() {
		put32(uint32(len(rec.Sequence)))
	}
	for _, rec := range db.All() {
		if werr != nil {
			break
		}
		_, werr = bw.Write(rec.Sequence)
	}

	if werr != nil {
		return errors.Wrap(werr, "udb: write")
	}
	return bw.Flush()
}

// ReadFile parses a UDB stream back into a KmerIndex and Database over
// alphabet, validating both magic headers and the trailer tag.
func ReadFile(r io.Reader, alphabet *vsearch.Alphabet) (*vsearch.KmerIndex, *vsearch.Database, error) {
	br := bufio.NewReader(r)
	var rerr error
	get32 := func() uint32 {
		if rerr != nil {
			return 0
		}
		var v uint32
		rerr = binary.Read(br, binary.LittleEndian, &v)
		return v
	}

	header1 := make([]uint32, header1Words)
	for i := range header1 {
		header1[i] = get32()
	}
	if rerr != nil {
		return nil, nil, errors.Wrap(rerr, "udb: read header")
	}
	if header1[0] != magicHeader1 || header1[2] != 32 || header1[49] != magicTrailer ||
		header1[17] != alphaTagNT || header1[4] < 3 || header1[4] > 15 || header1[13] == 0 {
		return nil, nil, errors.New("udb: invalid header")
	}
	k := int(header1[4])
	seqCount := int(header1[13])

	tableLen := 1 << uint(2*k)
	count := make([]uint32, tableLen)
	for i := range count {
		count[i] = get32()
	}
	if sentinel := get32(); rerr == nil && sentinel != magicSentinel {
		return nil, nil, errors.New("udb: missing UDB3 sentinel")
	}

	// Bitmap-backed and list-backed k-mers were interleaved on disk in
	// k-mer order with no per-entry tag distinguishing them; both were
	// written out as count[km] plain record-ordinal words, so reloading
	// always reconstructs a list-backed index and never reinstates the
	// dense bitmap representation for frequent k-mers.
	hash := make([]uint32, tableLen)
	var total uint32
	for km, c := range count {
		hash[km] = total
		total += c
	}

	compLen := get32()
	if rerr != nil {
		return nil, nil, errors.Wrap(rerr, "udb: read k-mer list block length")
	}
	compressed := make([]byte, compLen)
	if _, rerr = io.ReadFull(br, compressed); rerr != nil {
		return nil, nil, errors.Wrap(rerr, "udb: read k-mer list block")
	}
	raw, err := snappy.Decode(nil, compressed)
	if err != nil {
		return nil, nil, errors.Wrap(err, "udb: decompress k-mer list block")
	}
	if uint32(len(raw)) != total*4 {
		return nil, nil, errors.New("udb: k-mer list block has the wrong decompressed length")
	}
	index := make([]uint32, total)
	for i := range index {
		index[i] = binary.LittleEndian.Uint32(raw[i*4:])
	}

	if h2 := get32(); h2 != magicHeader2 {
		return nil, nil, errors.New("udb: missing UDB4 header")
	}
	if s := get32(); s != sentinel1 {
		return nil, nil, errors.New("udb: bad UDB4 sentinel 1")
	}
	_ = get32() // seqcount repeated
	ntLo := uint64(get32())
	ntHi := uint64(get32())
	_ = ntLo | ntHi<<32
	hdrLo := uint64(get32())
	hdrHi := uint64(get32())
	_ = hdrLo | hdrHi<<32
	if s := get32(); s != sentinel2 {
		return nil, nil, errors.New("udb: bad UDB4 sentinel 2")
	}

	headerOffsets := make([]uint32, seqCount)
	for i := range headerOffsets {
		headerOffsets[i] = get32()
	}
	if rerr != nil {
		return nil, nil, errors.Wrap(rerr, "udb: read header offset table")
	}

	headers := make([][]byte, seqCount)
	for i := 0; i < seqCount; i++ {
		var line []byte
		line, rerr = br.ReadBytes(0)
		if rerr != nil {
			return nil, nil, errors.Wrap(rerr, "udb: read header text")
		}
		headers[i] = line[:len(line)-1]
	}

	seqLens := make([]uint32, seqCount)
	for i := range seqLens {
		seqLens[i] = get32()
	}
	if rerr != nil {
		return nil, nil, errors.Wrap(rerr, "udb: read sequence length table")
	}

	db := vsearch.NewDatabase(alphabet)
	for i := 0; i < seqCount; i++ {
		seq := make([]byte, seqLens[i])
		if _, rerr = io.ReadFull(br, seq); rerr != nil {
			return nil, nil, errors.Wrap(rerr, "udb: read sequence bytes")
		}
		// Abundance is not serialized separately; the annotation
		// travels with the header text.
		abundance, err := seqio.ParseAbundance(headers[i])
		if err != nil {
			return nil, nil, errors.Wrap(err, "udb: rebuild abundance")
		}
		rec, err := vsearch.NewRecord(i, headers[i], seq, nil, abundance)
		if err != nil {
			return nil, nil, errors.Wrap(err, "udb: rebuild record")
		}
		if err := db.Add(rec); err != nil {
			return nil, nil, errors.Wrap(err, "udb: rebuild database")
		}
	}

	idx := vsearch.NewKmerIndexFromTables(alphabet, k, seqCount, count, hash, index, nil)
	return idx, db, nil
}

// DetectMagic reports whether the first four bytes of peek equal the
// UDB file signature, the single-read check a caller makes before
// falling back to treating the input as FASTA/FASTQ.
func DetectMagic(peek []byte) bool {
	if len(peek) < 4 {
		return false
	}
	v := binary.LittleEndian.Uint32(peek)
	return v == magicHeader1
}
