package ai

import (
	"context"
	"fmt"

	"document-rag-platform/internal/config"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// Embedder wraps the Google embeddings model so ingestion can reuse one
// client across a batch instead of dialing per chunk.
type Embedder struct {
	client *genai.Client
	model  string
}

func NewEmbedder(ctx context.Context, cfg *config.Config) (*Embedder, error) {
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("missing GEMINI_API_KEY for embeddings")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.GeminiAPIKey))
	if err != nil {
		return nil, err
	}
	return &Embedder{client: client, model: cfg.GoogleEmbeddingsModel}, nil
}

// Embed returns an embedding vector for the given text.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	model := e.client.EmbeddingModel(e.model)
	resp, err := model.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		return nil, err
	}
	if resp.Embedding == nil {
		return nil, fmt.Errorf("no embedding returned")
	}
	return resp.Embedding.Values, nil
}

// EmbedBatch embeds several texts in one API round trip.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	model := e.client.EmbeddingModel(e.model)
	batch := model.NewBatch()
	for _, t := range texts {
		batch.AddContent(genai.Text(t))
	}
	resp, err := model.BatchEmbedContents(ctx, batch)
	if err != nil {
		return nil, err
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("embedding count mismatch: got %d, want %d", len(resp.Embeddings), len(texts))
	}
	vectors := make([][]float32, len(resp.Embeddings))
	for i, emb := range resp.Embeddings {
		vectors[i] = emb.Values
	}
	return vectors, nil
}

func (e *Embedder) Close() error {
	return e.client.Close()
}

// GenerateEmbedding returns an embedding vector for the given text with
// a one-shot client. Prefer Embedder for batch work.
func GenerateEmbedding(ctx context.Context, cfg *config.Config, text string) ([]float32, error) {
	e, err := NewEmbedder(ctx, cfg)
	if err != nil {
		return nil, err
	}
	defer e.Close()
	return e.Embed(ctx, text)
}
