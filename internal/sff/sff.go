// Package sff converts Roche/454 Standard Flowgram Format files into
// FASTQ records: big-endian header validation, clip handling, and
// quality rescaling. Only flowgram format 1 is supported.
package sff

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
)

const magic = 0x2e736666 // ".sff"
const commonHeaderStart = 31

type commonHeader struct {
	Magic         uint32
	Version       uint32
	IndexOffset   uint64
	IndexLength   uint32
	NumReads      uint32
	HeaderLength  uint16
	KeyLength     uint16
	FlowsPerRead  uint16
	FlowgramCode  uint8
}

type readHeader struct {
	ReadHeaderLength uint16
	NameLength       uint16
	NumberOfBases    uint32
	ClipQualLeft     uint16
	ClipQualRight    uint16
	ClipAdapterLeft  uint16
	ClipAdapterRight uint16
}

// FastqRecord is one converted read: upper-case within the clip region,
// lower-case outside it (unless Clip removed the outside entirely).
type FastqRecord struct {
	Name    []byte
	Bases   []byte
	Quality []byte
}

// ConvertOptions holds the quality-rescaling knobs: incoming Roche
// quality values are clamped to [QMin,QMax] then offset by AsciiBase
// before being written out as FASTQ quality characters.
type ConvertOptions struct {
	QMin      int
	QMax      int
	AsciiBase int
	Clip      bool // drop bases/quality outside the clip region entirely
}

// DefaultOptions emits the conventional Sanger-style encoding: Q0-Q41
// offset by 33.
var DefaultOptions = ConvertOptions{QMin: 0, QMax: 41, AsciiBase: 33, Clip: false}

// Convert streams r's reads to a channel of FastqRecord, closing it at
// EOF or on the first error (sent on the error channel before close).
// A single goroutine walks the binary structure while the caller drains
// records at its own pace.
func Convert(r io.Reader, opts ConvertOptions) (<-chan FastqRecord, <-chan error) {
	records := make(chan FastqRecord, 64)
	errs := make(chan error, 1)

	go func() {
		defer close(records)
		defer close(errs)
		if err := convert(r, opts, records); err != nil {
			errs <- err
		}
	}()
	return records, errs
}

func convert(r io.Reader, opts ConvertOptions, out chan<- FastqRecord) error {
	br := bufio.NewReader(r)

	var hdr commonHeader
	if err := binary.Read(br, binary.BigEndian, &hdr); err != nil {
		return fmt.Errorf("sff: reading common header: %w", err)
	}
	filepos := uint64(commonHeaderStart)

	if hdr.Magic != magic {
		return fmt.Errorf("sff: invalid magic number %#x, want %#x", hdr.Magic, magic)
	}
	if hdr.Version != 1 {
		return fmt.Errorf("sff: unsupported version %d", hdr.Version)
	}
	if hdr.FlowgramCode != 1 {
		return fmt.Errorf("sff: unsupported flowgram format code %d", hdr.FlowgramCode)
	}
	if hdr.KeyLength != 4 {
		return fmt.Errorf("sff: unexpected key length %d, want 4", hdr.KeyLength)
	}
	wantHeaderLen := uint16(8 * ((commonHeaderStart + int(hdr.FlowsPerRead) + int(hdr.KeyLength) + 7) / 8))
	if hdr.HeaderLength != wantHeaderLen {
		return fmt.Errorf("sff: incorrect header length %d, want %d", hdr.HeaderLength, wantHeaderLen)
	}
	if hdr.IndexLength > 0 && hdr.IndexLength < 8 {
		return fmt.Errorf("sff: index length %d too small", hdr.IndexLength)
	}

	if err := skip(br, uint64(hdr.FlowsPerRead)); err != nil {
		return fmt.Errorf("sff: reading flow chars: %w", err)
	}
	filepos += uint64(hdr.FlowsPerRead)

	key := make([]byte, hdr.KeyLength)
	if _, err := io.ReadFull(br, key); err != nil {
		return fmt.Errorf("sff: reading key sequence: %w", err)
	}
	filepos += uint64(hdr.KeyLength)

	paddingLen := uint64(hdr.HeaderLength) - uint64(hdr.FlowsPerRead) - uint64(hdr.KeyLength) - commonHeaderStart
	if err := skip(br, paddingLen); err != nil {
		return fmt.Errorf("sff: reading header padding: %w", err)
	}
	filepos += paddingLen

	indexDone := hdr.IndexOffset == 0 || hdr.IndexLength == 0
	var indexPadding uint64
	if hdr.IndexLength&7 > 0 {
		indexPadding = 8 - uint64(hdr.IndexLength&7)
	}

	for readNo := uint32(0); readNo < hdr.NumReads; readNo++ {
		if !indexDone && filepos == hdr.IndexOffset {
			if err := skip(br, 8); err != nil {
				return fmt.Errorf("sff: reading index header: %w", err)
			}
			filepos += 8
			indexSize := uint64(hdr.IndexLength) - 8 + indexPadding
			if err := skip(br, indexSize); err != nil {
				return fmt.Errorf("sff: reading index block: %w", err)
			}
			filepos += indexSize
			indexDone = true
		}

		var rh readHeader
		if err := binary.Read(br, binary.BigEndian, &rh); err != nil {
			return fmt.Errorf("sff: reading read header %d: %w", readNo, err)
		}
		filepos += 16

		wantRHLen := uint16(8 * ((16 + int(rh.NameLength) + 7) / 8))
		if rh.ReadHeaderLength != wantRHLen {
			return fmt.Errorf("sff: read %d: bad read header length %d", readNo, rh.ReadHeaderLength)
		}
		if uint32(rh.ClipQualLeft) > rh.NumberOfBases || uint32(rh.ClipAdapterLeft) > rh.NumberOfBases ||
			uint32(rh.ClipQualRight) > rh.NumberOfBases || uint32(rh.ClipAdapterRight) > rh.NumberOfBases {
			return fmt.Errorf("sff: read %d: clip value exceeds number of bases", readNo)
		}

		name := make([]byte, rh.NameLength)
		if _, err := io.ReadFull(br, name); err != nil {
			return fmt.Errorf("sff: reading read name %d: %w", readNo, err)
		}
		filepos += uint64(rh.NameLength)

		rhPad := uint64(rh.ReadHeaderLength) - uint64(rh.NameLength) - 16
		if err := skip(br, rhPad); err != nil {
			return fmt.Errorf("sff: reading read header padding %d: %w", readNo, err)
		}
		filepos += rhPad

		if err := skip(br, 2*uint64(hdr.FlowsPerRead)); err != nil {
			return fmt.Errorf("sff: reading flowgram values %d: %w", readNo, err)
		}
		filepos += 2 * uint64(hdr.FlowsPerRead)

		if err := skip(br, uint64(rh.NumberOfBases)); err != nil {
			return fmt.Errorf("sff: reading flow indices %d: %w", readNo, err)
		}
		filepos += uint64(rh.NumberOfBases)

		bases := make([]byte, rh.NumberOfBases)
		if _, err := io.ReadFull(br, bases); err != nil {
			return fmt.Errorf("sff: reading bases %d: %w", readNo, err)
		}
		filepos += uint64(rh.NumberOfBases)

		rawQual := make([]byte, rh.NumberOfBases)
		if _, err := io.ReadFull(br, rawQual); err != nil {
			return fmt.Errorf("sff: reading quality scores %d: %w", readNo, err)
		}
		filepos += uint64(rh.NumberOfBases)

		quality := make([]byte, rh.NumberOfBases)
		for i, q := range rawQual {
			score := int(q)
			if score < opts.QMin {
				score = opts.QMin
			}
			if score > opts.QMax {
				score = opts.QMax
			}
			quality[i] = byte(opts.AsciiBase + score)
		}

		dataLen := 2*uint64(hdr.FlowsPerRead) + 3*uint64(rh.NumberOfBases)
		paddedLen := 8 * ((dataLen + 7) / 8)
		if err := skip(br, paddedLen-dataLen); err != nil {
			return fmt.Errorf("sff: reading read data padding %d: %w", readNo, err)
		}
		filepos += paddedLen - dataLen

		clipStart := max16(1, rh.ClipQualLeft, rh.ClipAdapterLeft) - 1
		clipEnd := rh.NumberOfBases
		if rh.ClipQualRight != 0 && uint32(rh.ClipQualRight) < clipEnd {
			clipEnd = uint32(rh.ClipQualRight)
		}
		if rh.ClipAdapterRight != 0 && uint32(rh.ClipAdapterRight) < clipEnd {
			clipEnd = uint32(rh.ClipAdapterRight)
		}

		for i := range bases {
			if uint32(i) < uint32(clipStart) || uint32(i) >= clipEnd {
				bases[i] = toLower(bases[i])
			} else {
				bases[i] = toUpper(bases[i])
			}
		}

		start, end := uint32(0), rh.NumberOfBases
		if opts.Clip {
			start, end = uint32(clipStart), clipEnd
		}

		out <- FastqRecord{
			Name:    name,
			Bases:   bases[start:end],
			Quality: quality[start:end],
		}
	}

	if !indexDone && filepos == hdr.IndexOffset {
		if err := skip(br, 8); err == nil {
			indexSize := uint64(hdr.IndexLength) - 8
			_ = skip(br, indexSize)
		}
	}

	return nil
}

func skip(r io.Reader, n uint64) error {
	_, err := io.CopyN(io.Discard, r, int64(n))
	return err
}

func max16(vals ...uint16) uint16 {
	m := vals[0]
	for _, v := range vals[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

func toLower(b byte) byte {
	if b >= 'A' && b <= 'Z' {
		return b + 32
	}
	return b
}

func toUpper(b byte) byte {
	if b >= 'a' && b <= 'z' {
		return b - 32
	}
	return b
}
