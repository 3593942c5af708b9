package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"document-rag-platform/internal/config"
	"document-rag-platform/internal/logger"
	"document-rag-platform/models"
	"document-rag-platform/utils"
)

// keywordScanLimit caps how many chunks the fallback scorer loads when
// Atlas Vector Search is not available.
const keywordScanLimit = 2000

// RetrievedChunk is a search hit enriched with document metadata for
// context assembly.
type RetrievedChunk struct {
	ChunkID         string
	DocumentID      string
	PageNumber      int
	Text            string
	Entities        []string
	Score           float64
	SourceName      string
	PublicationDate string
}

// VectorStore stores and searches embedded chunks in MongoDB. With
// Atlas it runs $vectorSearch; against a plain deployment it degrades
// to keyword scoring so local development still returns context.
type VectorStore struct {
	chunks *mongo.Collection
	cfg    *config.Config
}

func NewVectorStore(db *mongo.Database, cfg *config.Config) *VectorStore {
	return &VectorStore{
		chunks: db.Collection("doc_chunks"),
		cfg:    cfg,
	}
}

// UpsertChunks writes chunks keyed by their deterministic chunk_id, so
// re-ingesting a file replaces its vectors instead of duplicating them.
func (s *VectorStore) UpsertChunks(ctx context.Context, chunks []models.DocChunk) error {
	if len(chunks) == 0 {
		return nil
	}

	writes := make([]mongo.WriteModel, 0, len(chunks))
	for _, ch := range chunks {
		writes = append(writes, mongo.NewReplaceOneModel().
			SetFilter(bson.M{"chunk_id": ch.ChunkID}).
			SetReplacement(ch).
			SetUpsert(true))
	}

	_, err := s.chunks.BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(false))
	if err != nil {
		return fmt.Errorf("failed to upsert chunks: %w", err)
	}
	return nil
}

// DeleteDocumentChunks removes every chunk of a document, used when a
// curator deletes the document or re-ingestion shrinks it.
func (s *VectorStore) DeleteDocumentChunks(ctx context.Context, documentID string) (int64, error) {
	res, err := s.chunks.DeleteMany(ctx, bson.M{"document_id": documentID})
	if err != nil {
		return 0, fmt.Errorf("failed to delete chunks for %s: %w", documentID, err)
	}
	return res.DeletedCount, nil
}

// Search returns the top-K chunks for a query. When the query mentions
// named entities, a second entity-filtered pass runs and the result
// sets are merged, which keeps person/place questions from being
// drowned out by generically similar text.
func (s *VectorStore) Search(ctx context.Context, queryVector []float32, query string, topK int) ([]RetrievedChunk, error) {
	if topK <= 0 {
		topK = s.cfg.RetrievalTopK
	}

	if !s.cfg.VectorSearchEnabled || len(queryVector) == 0 {
		return s.keywordSearch(ctx, query, topK)
	}

	hits, err := s.vectorSearch(ctx, queryVector, nil, topK)
	if err != nil {
		logger.Error("Vector search failed, falling back to keyword scoring", "error", err)
		return s.keywordSearch(ctx, query, topK)
	}

	if entities := ExtractEntities(query); len(entities) > 0 {
		boosted, err := s.vectorSearch(ctx, queryVector, entities, topK)
		if err != nil {
			logger.Warn("Entity-filtered search failed", "error", err)
		} else {
			hits = mergeHits(boosted, hits, topK)
		}
	}

	if len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, nil
}

func (s *VectorStore) vectorSearch(ctx context.Context, queryVector []float32, entities []string, limit int) ([]RetrievedChunk, error) {
	search := bson.D{
		{Key: "index", Value: s.cfg.VectorIndexName},
		{Key: "path", Value: "vector"},
		{Key: "queryVector", Value: queryVector},
		{Key: "numCandidates", Value: s.cfg.RetrievalCandidates * 10},
		{Key: "limit", Value: limit},
	}
	if len(entities) > 0 {
		search = append(search, bson.E{Key: "filter", Value: bson.D{
			{Key: "entities", Value: bson.D{{Key: "$in", Value: entities}}},
		}})
	}

	pipeline := mongo.Pipeline{
		bson.D{{Key: "$vectorSearch", Value: search}},
		bson.D{{Key: "$addFields", Value: bson.D{
			{Key: "score", Value: bson.D{{Key: "$meta", Value: "vectorSearchScore"}}},
		}}},
	}

	cursor, err := s.chunks.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("vector search aggregation failed: %w", err)
	}
	defer cursor.Close(ctx)

	var hits []RetrievedChunk
	for cursor.Next(ctx) {
		var doc struct {
			models.DocChunk `bson:",inline"`
			Score           float64 `bson:"score"`
		}
		if err := cursor.Decode(&doc); err != nil {
			continue
		}
		text, err := chunkText(doc.DocChunk)
		if err != nil {
			logger.Warn("Failed to decompress chunk", "chunk_id", doc.ChunkID, "error", err)
			continue
		}
		hits = append(hits, RetrievedChunk{
			ChunkID:    doc.ChunkID,
			DocumentID: doc.DocumentID,
			PageNumber: doc.PageNumber,
			Text:       text,
			Entities:   doc.Entities,
			Score:      doc.Score,
		})
	}
	return hits, cursor.Err()
}

// keywordSearch scores chunks by query term frequency. Entity matches
// narrow the scan when the query names one.
func (s *VectorStore) keywordSearch(ctx context.Context, query string, topK int) ([]RetrievedChunk, error) {
	filter := bson.M{}
	if entities := ExtractEntities(query); len(entities) > 0 {
		filter["entities"] = bson.M{"$in": entities}
	}

	cursor, err := s.chunks.Find(ctx, filter, options.Find().SetLimit(keywordScanLimit))
	if err != nil {
		return nil, fmt.Errorf("failed to load chunks for scoring: %w", err)
	}
	defer cursor.Close(ctx)

	queryWords := strings.Fields(strings.ToLower(query))

	var hits []RetrievedChunk
	for cursor.Next(ctx) {
		var ch models.DocChunk
		if err := cursor.Decode(&ch); err != nil {
			continue
		}
		text, err := chunkText(ch)
		if err != nil {
			continue
		}

		score := 0
		lower := strings.ToLower(text)
		for _, word := range queryWords {
			if len(word) < 3 {
				continue
			}
			score += strings.Count(lower, word)
		}
		if score == 0 {
			continue
		}

		hits = append(hits, RetrievedChunk{
			ChunkID:    ch.ChunkID,
			DocumentID: ch.DocumentID,
			PageNumber: ch.PageNumber,
			Text:       text,
			Entities:   ch.Entities,
			Score:      float64(score),
		})
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, nil
}

// mergeHits combines two hit lists, primary first, deduplicated by
// chunk ID.
func mergeHits(primary, secondary []RetrievedChunk, limit int) []RetrievedChunk {
	seen := make(map[string]struct{}, len(primary)+len(secondary))
	merged := make([]RetrievedChunk, 0, limit)
	for _, list := range [][]RetrievedChunk{primary, secondary} {
		for _, h := range list {
			if _, ok := seen[h.ChunkID]; ok {
				continue
			}
			seen[h.ChunkID] = struct{}{}
			merged = append(merged, h)
			if len(merged) == limit {
				return merged
			}
		}
	}
	return merged
}

// chunkText returns the stored text, decompressing when needed.
func chunkText(ch models.DocChunk) (string, error) {
	if len(ch.TextCompressed) == 0 {
		return ch.Text, nil
	}
	return utils.DecompressText(ch.TextCompressed, utils.CompressionAlgorithm(ch.Compression))
}
