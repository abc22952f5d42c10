package sff

import (
	"bytes"
	"encoding/binary"
	"testing"
)

// buildSFF assembles a minimal, single-read SFF file by hand, following
// the same field layout convert() parses: common header, flow chars,
// key, header padding, then one read (read header, name, padding,
// flowgram values, flow indices, bases, quality, data padding).
func buildSFF(t *testing.T, bases, quality []byte) []byte {
	t.Helper()
	const flowsPerRead = 4
	const keyLength = 4
	const name = "RD01"

	headerLen := uint16(8 * ((commonHeaderStart + flowsPerRead + keyLength + 7) / 8))

	var buf bytes.Buffer
	hdr := commonHeader{
		Magic:        magic,
		Version:      1,
		IndexOffset:  0,
		IndexLength:  0,
		NumReads:     1,
		HeaderLength: headerLen,
		KeyLength:    keyLength,
		FlowsPerRead: flowsPerRead,
		FlowgramCode: 1,
	}
	if err := binary.Write(&buf, binary.BigEndian, &hdr); err != nil {
		t.Fatalf("writing common header: %v", err)
	}
	buf.Write([]byte("TACG"))             // flow chars
	buf.Write([]byte("TCAG"))             // key
	headerPad := int(headerLen) - commonHeaderStart - flowsPerRead - keyLength
	buf.Write(make([]byte, headerPad))

	rhLen := uint16(8 * ((16 + len(name) + 7) / 8))
	rh := readHeader{
		ReadHeaderLength: rhLen,
		NameLength:       uint16(len(name)),
		NumberOfBases:    uint32(len(bases)),
		ClipQualLeft:     0,
		ClipQualRight:    0,
		ClipAdapterLeft:  0,
		ClipAdapterRight: 0,
	}
	if err := binary.Write(&buf, binary.BigEndian, &rh); err != nil {
		t.Fatalf("writing read header: %v", err)
	}
	buf.Write([]byte(name))
	rhPad := int(rhLen) - 16 - len(name)
	buf.Write(make([]byte, rhPad))

	buf.Write(make([]byte, 2*flowsPerRead)) // flowgram values
	buf.Write(make([]byte, len(bases)))     // flow indices
	buf.Write(bases)
	buf.Write(quality)

	dataLen := 2*flowsPerRead + 3*len(bases)
	paddedLen := 8 * ((dataLen + 7) / 8)
	buf.Write(make([]byte, paddedLen-dataLen))

	return buf.Bytes()
}

func TestConvertSingleRead(t *testing.T) {
	raw := buildSFF(t, []byte("acgtacgt"), []byte{30, 30, 30, 30, 30, 30, 30, 30})

	records, errs := Convert(bytes.NewReader(raw), DefaultOptions)

	var got []FastqRecord
	for r := range records {
		got = append(got, r)
	}
	if err := <-errs; err != nil {
		t.Fatalf("Convert returned error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 record, got %d", len(got))
	}
	rec := got[0]
	if string(rec.Name) != "RD01" {
		t.Errorf("Name = %q, want RD01", rec.Name)
	}
	// No clip set, so the whole read counts as "within clip" and is
	// upper-cased, even though the raw input was lower-case.
	if string(rec.Bases) != "ACGTACGT" {
		t.Errorf("Bases = %q, want ACGTACGT", rec.Bases)
	}
	wantQual := string([]byte{33 + 30, 33 + 30, 33 + 30, 33 + 30, 33 + 30, 33 + 30, 33 + 30, 33 + 30})
	if string(rec.Quality) != wantQual {
		t.Errorf("Quality = %q, want %q", rec.Quality, wantQual)
	}
}

func TestConvertRejectsBadMagic(t *testing.T) {
	raw := buildSFF(t, []byte("acgt"), []byte{20, 20, 20, 20})
	raw[0] = 0x00 // corrupt the magic number

	records, errs := Convert(bytes.NewReader(raw), DefaultOptions)
	for range records {
	}
	if err := <-errs; err == nil {
		t.Fatalf("expected an error for a corrupted magic number, got nil")
	}
}

func TestConvertClipTrimsOutput(t *testing.T) {
	const flowsPerRead = 4
	const keyLength = 4
	const name = "RD02"
	bases := []byte("AACCGGTT")
	quality := []byte{30, 30, 30, 30, 30, 30, 30, 30}

	headerLen := uint16(8 * ((commonHeaderStart + flowsPerRead + keyLength + 7) / 8))
	var buf bytes.Buffer
	hdr := commonHeader{
		Magic: magic, Version: 1, NumReads: 1,
		HeaderLength: headerLen, KeyLength: keyLength,
		FlowsPerRead: flowsPerRead, FlowgramCode: 1,
	}
	if err := binary.Write(&buf, binary.BigEndian, &hdr); err != nil {
		t.Fatalf("writing common header: %v", err)
	}
	buf.Write([]byte("TACG"))
	buf.Write([]byte("TCAG"))
	buf.Write(make([]byte, int(headerLen)-commonHeaderStart-flowsPerRead-keyLength))

	rhLen := uint16(8 * ((16 + len(name) + 7) / 8))
	rh := readHeader{
		ReadHeaderLength: rhLen,
		NameLength:       uint16(len(name)),
		NumberOfBases:    uint32(len(bases)),
		ClipQualLeft:     2,
		ClipQualRight:    6,
	}
	if err := binary.Write(&buf, binary.BigEndian, &rh); err != nil {
		t.Fatalf("writing read header: %v", err)
	}
	buf.Write([]byte(name))
	buf.Write(make([]byte, int(rhLen)-16-len(name)))
	buf.Write(make([]byte, 2*flowsPerRead))
	buf.Write(make([]byte, len(bases)))
	buf.Write(bases)
	buf.Write(quality)
	dataLen := 2*flowsPerRead + 3*len(bases)
	paddedLen := 8 * ((dataLen + 7) / 8)
	buf.Write(make([]byte, paddedLen-dataLen))

	opts := DefaultOptions
	opts.Clip = true
	records, errs := Convert(bytes.NewReader(buf.Bytes()), opts)
	var got []FastqRecord
	for r := range records {
		got = append(got, r)
	}
	if err := <-errs; err != nil {
		t.Fatalf("Convert returned error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 record, got %d", len(got))
	}
	// ClipQualLeft=2, ClipQualRight=6 -> 0-indexed clip region [1:6).
	if string(got[0].Bases) != "ACCGG" {
		t.Errorf("Bases = %q, want ACCGG (clip region [1:6))", got[0].Bases)
	}
}
