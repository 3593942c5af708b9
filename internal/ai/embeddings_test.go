package ai

import (
	"context"
	"os"
	"testing"

	"document-rag-platform/internal/config"
)

func TestGenerateEmbedding(t *testing.T) {
	if os.Getenv("GEMINI_API_KEY") == "" {
		t.Skip("GEMINI_API_KEY not set")
	}
	cfg, err := config.LoadConfig()
	if err != nil {
		t.Skipf("config load failed: %v", err)
	}
	vec, err := GenerateEmbedding(context.Background(), cfg, "hello world")
	if err != nil {
		t.Fatalf("embedding error: %v", err)
	}
	if len(vec) == 0 {
		t.Fatalf("empty embedding")
	}
}

func TestEmbedBatch(t *testing.T) {
	if os.Getenv("GEMINI_API_KEY") == "" {
		t.Skip("GEMINI_API_KEY not set")
	}
	cfg, err := config.LoadConfig()
	if err != nil {
		t.Skipf("config load failed: %v", err)
	}
	e, err := NewEmbedder(context.Background(), cfg)
	if err != nil {
		t.Fatalf("embedder init failed: %v", err)
	}
	defer e.Close()

	vectors, err := e.EmbedBatch(context.Background(), []string{"first chunk", "second chunk"})
	if err != nil {
		t.Fatalf("batch embedding error: %v", err)
	}
	if len(vectors) != 2 {
		t.Fatalf("expected 2 vectors, got %d", len(vectors))
	}
}
