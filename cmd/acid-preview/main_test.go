package main

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/cwbudde/algo-acid/acid"
)

func TestWriteCSVStride(t *testing.T) {
	off, on := acid.PreviewPair(48000, nil, 100)

	var buf bytes.Buffer
	if err := writeCSV(&buf, off, on, 10); err != nil {
		t.Fatalf("writeCSV: %v", err)
	}
	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if len(records) != 11 {
		t.Fatalf("got %d records, want header + 10 rows", len(records))
	}
	if records[0][0] != "t" || len(records[0]) != 8 {
		t.Fatalf("unexpected header %v", records[0])
	}
	if records[1][0] != "0" {
		t.Fatalf("first row time = %q, want 0", records[1][0])
	}
}
