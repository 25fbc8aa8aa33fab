package payload_test

import (
	"bytes"
	"testing"

	"github.com/tidalcomms/sbd/payload"
)

func TestCompressDecompressRoundTrip(t *testing.T) {
	original := bytes.Repeat([]byte("the quick brown fox jumps over the lazy dog, "), 4)

	compressed, err := payload.Compress(original, 0)
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}
	if len(compressed) >= len(original) {
		t.Errorf("expected compression to shrink a repetitive payload: %d >= %d", len(compressed), len(original))
	}

	got, err := payload.Decompress(compressed)
	if err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	if !bytes.Equal(got, original) {
		t.Errorf("round trip mismatch: got %q, want %q", got, original)
	}
}

func TestDecompressRejectsGarbage(t *testing.T) {
	if _, err := payload.Decompress([]byte{0xff, 0xff, 0xff}); err == nil {
		t.Error("expected an error decompressing non-deflate data")
	}
}
