package seqio

import (
	"bytes"
	"io"
	"strings"
	"testing"

	kgzip "github.com/klauspost/compress/gzip"
)

func TestOpenPlainPassthrough(t *testing.T) {
	r, err := Open(strings.NewReader(">seq1\nACGT\n"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	got, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("reading: %v", err)
	}
	if string(got) != ">seq1\nACGT\n" {
		t.Errorf("got %q", got)
	}
}

func TestOpenGzip(t *testing.T) {
	var buf bytes.Buffer
	gw := kgzip.NewWriter(&buf)
	if _, err := gw.Write([]byte(">seq1\nACGT\n")); err != nil {
		t.Fatalf("compressing fixture: %v", err)
	}
	if err := gw.Close(); err != nil {
		t.Fatalf("closing gzip writer: %v", err)
	}

	r, err := Open(&buf)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	got, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("reading decompressed stream: %v", err)
	}
	if string(got) != ">seq1\nACGT\n" {
		t.Errorf("got %q", got)
	}
}
