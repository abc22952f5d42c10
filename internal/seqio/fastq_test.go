package seqio

import (
	"strings"
	"testing"
)

func TestFastqScannerBasic(t *testing.T) {
	data := "@read1 desc\nACGT\n+\nIIII\n@read2\nTTTT\n+read2\nIIII\n"
	sc := newFastqScanner(strings.NewReader(data), DefaultFastqOptions)

	rec, ok, err := sc.next()
	if err != nil || !ok {
		t.Fatalf("first record: ok=%v err=%v", ok, err)
	}
	if string(rec.header) != "read1 desc" {
		t.Errorf("header = %q, want %q", rec.header, "read1 desc")
	}
	if string(rec.sequence) != "ACGT" {
		t.Errorf("sequence = %q, want %q", rec.sequence, "ACGT")
	}
	if string(rec.quality) != "IIII" {
		t.Errorf("quality = %q, want %q", rec.quality, "IIII")
	}

	rec, ok, err = sc.next()
	if err != nil || !ok {
		t.Fatalf("second record: ok=%v err=%v", ok, err)
	}
	if string(rec.header) != "read2" {
		t.Errorf("header = %q, want %q", rec.header, "read2")
	}

	_, ok, err = sc.next()
	if err != nil || ok {
		t.Fatalf("expected clean EOF, got ok=%v err=%v", ok, err)
	}
}

func TestFastqScannerLengthMismatch(t *testing.T) {
	data := "@read1\nACGT\n+\nII\n"
	sc := newFastqScanner(strings.NewReader(data), DefaultFastqOptions)
	_, _, err := sc.next()
	if err == nil {
		t.Fatalf("expected an error for mismatched sequence/quality length")
	}
}

func TestFastqScannerQualityOutOfRange(t *testing.T) {
	data := "@read1\nACGT\n+\n!!!!\n" // '!' = ASCII 33, offset 33 => Q=0, within [0,41]
	sc := newFastqScanner(strings.NewReader(data), DefaultFastqOptions)
	if _, _, err := sc.next(); err != nil {
		t.Fatalf("Q=0 should be within the default window, got %v", err)
	}

	// A byte well above qmax (41+33=74='J') should be fatal.
	data = "@read1\nACGT\n+\n~~~~\n" // '~' = 126, way above 74
	sc = newFastqScanner(strings.NewReader(data), DefaultFastqOptions)
	if _, _, err := sc.next(); err == nil {
		t.Fatalf("expected an OutOfRange error for a quality byte above qmax")
	}
}

func TestFastqScannerTruncated(t *testing.T) {
	data := "@read1\nACGT\n+\n"
	sc := newFastqScanner(strings.NewReader(data), DefaultFastqOptions)
	if _, _, err := sc.next(); err == nil {
		t.Fatalf("expected an error for a truncated record missing its quality line")
	}
}
