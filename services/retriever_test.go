package services

import (
	"strings"
	"testing"

	"document-rag-platform/models"
	"document-rag-platform/utils"
)

func TestMergeHits(t *testing.T) {
	primary := []RetrievedChunk{
		{ChunkID: "a", Score: 0.9},
		{ChunkID: "b", Score: 0.8},
	}
	secondary := []RetrievedChunk{
		{ChunkID: "b", Score: 0.7},
		{ChunkID: "c", Score: 0.6},
		{ChunkID: "d", Score: 0.5},
	}

	merged := mergeHits(primary, secondary, 3)
	if len(merged) != 3 {
		t.Fatalf("expected 3 hits, got %d", len(merged))
	}
	want := []string{"a", "b", "c"}
	for i, id := range want {
		if merged[i].ChunkID != id {
			t.Errorf("position %d: want %s, got %s", i, id, merged[i].ChunkID)
		}
	}
}

func TestMergeHitsLimit(t *testing.T) {
	primary := []RetrievedChunk{{ChunkID: "a"}, {ChunkID: "b"}, {ChunkID: "c"}}
	merged := mergeHits(primary, nil, 2)
	if len(merged) != 2 {
		t.Errorf("expected limit to cap results, got %d", len(merged))
	}
}

func TestChunkTextDecompression(t *testing.T) {
	plain := models.DocChunk{Text: "stored uncompressed"}
	got, err := chunkText(plain)
	if err != nil || got != "stored uncompressed" {
		t.Errorf("plain chunk: got %q, err %v", got, err)
	}

	original := strings.Repeat("Long chunk body stored compressed in the index. ", 20)
	compressed, alg, err := utils.CompressText(original)
	if err != nil {
		t.Fatal(err)
	}
	ch := models.DocChunk{
		TextCompressed: compressed,
		Compression:    string(alg),
	}
	got, err = chunkText(ch)
	if err != nil {
		t.Fatalf("chunkText failed: %v", err)
	}
	if got != original {
		t.Error("decompressed text does not match original")
	}
}
