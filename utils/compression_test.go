package utils

import (
	"bytes"
	"strings"
	"testing"
)

func TestCompressDecompressRoundTrip(t *testing.T) {
	data := []byte(strings.Repeat("The archival record contains testimony and exhibits. ", 40))

	for _, alg := range []CompressionAlgorithm{CompressionNone, CompressionGzip, CompressionZlib, CompressionBrotli} {
		compressed, err := CompressData(data, alg)
		if err != nil {
			t.Fatalf("%s: compress failed: %v", alg, err)
		}
		out, err := DecompressData(compressed, alg)
		if err != nil {
			t.Fatalf("%s: decompress failed: %v", alg, err)
		}
		if !bytes.Equal(out, data) {
			t.Errorf("%s: round trip mismatch", alg)
		}
		if alg != CompressionNone && len(compressed) >= len(data) {
			t.Errorf("%s: repetitive text did not shrink: %d -> %d", alg, len(data), len(compressed))
		}
	}
}

func TestGetBestCompression(t *testing.T) {
	small := bytes.Repeat([]byte("a"), 499)
	if alg := GetBestCompression(small); alg != CompressionNone {
		t.Errorf("small payload should skip compression, got %s", alg)
	}
	large := bytes.Repeat([]byte("a"), 500)
	if alg := GetBestCompression(large); alg != CompressionBrotli {
		t.Errorf("large payload should use brotli, got %s", alg)
	}
}

func TestCompressTextRoundTrip(t *testing.T) {
	text := strings.Repeat("Chunk text stored in the vector index. ", 30)

	compressed, alg, err := CompressText(text)
	if err != nil {
		t.Fatalf("CompressText failed: %v", err)
	}
	if alg != CompressionBrotli {
		t.Errorf("expected brotli for long text, got %s", alg)
	}

	out, err := DecompressText(compressed, alg)
	if err != nil {
		t.Fatalf("DecompressText failed: %v", err)
	}
	if out != text {
		t.Errorf("round trip mismatch")
	}
}

func TestCompressDataUnknownAlgorithm(t *testing.T) {
	if _, err := CompressData([]byte("x"), "lz4"); err == nil {
		t.Error("expected error for unsupported algorithm")
	}
	if _, err := DecompressData([]byte("x"), "lz4"); err == nil {
		t.Error("expected error for unsupported algorithm")
	}
}
