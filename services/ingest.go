package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/text/encoding/charmap"

	"document-rag-platform/internal/ai"
	"document-rag-platform/internal/config"
	"document-rag-platform/internal/logger"
	"document-rag-platform/models"
	"document-rag-platform/utils"
)

// embedBatchSize caps texts per embedding API call.
const embedBatchSize = 100

// IngestService turns stored files into embedded, searchable chunks.
// One pipeline per document type: native text extraction for PDFs with
// an OCR fallback, plain decode for text files, OCR for scanned images.
type IngestService struct {
	cfg       *config.Config
	documents *mongo.Collection
	store     *VectorStore
	embedder  *ai.Embedder
	extractor *PDFExtractor
	ocr       *OCRClient
	chunker   *Chunker
}

func NewIngestService(db *mongo.Database, cfg *config.Config, store *VectorStore, embedder *ai.Embedder) *IngestService {
	return &IngestService{
		cfg:       cfg,
		documents: db.Collection("documents"),
		store:     store,
		embedder:  embedder,
		extractor: NewPDFExtractor(cfg),
		ocr:       NewOCRClient(cfg),
		chunker:   NewChunker(cfg.MaxChunkSize, cfg.ChunkOverlap),
	}
}

// RegisterDocument records an uploaded file, deduplicated by content
// hash. The returned bool is false when an identical file already
// exists, in which case the existing document is returned.
func (s *IngestService) RegisterDocument(ctx context.Context, storageKey, fileName, docType, source string) (*models.Document, bool, error) {
	path := filepath.Join(s.cfg.FileStorageDir, storageKey)
	hash, err := utils.FileHash(path)
	if err != nil {
		return nil, false, fmt.Errorf("failed to hash %s: %w", storageKey, err)
	}

	var existing models.Document
	err = s.documents.FindOne(ctx, bson.M{"file_hash": hash}).Decode(&existing)
	if err == nil {
		return &existing, false, nil
	}
	if err != mongo.ErrNoDocuments {
		return nil, false, err
	}

	stat, err := os.Stat(path)
	if err != nil {
		return nil, false, err
	}

	now := time.Now().UTC()
	doc := models.Document{
		DocumentID:      documentIDFromFileName(fileName),
		FileName:        fileName,
		StorageKey:      storageKey,
		FileHash:        hash,
		Type:            docType,
		Source:          source,
		PublicationDate: utils.ExtractDateFromFilename(fileName),
		Status:          models.StatusPending,
		StatusUpdatedAt: now,
		UploadedAt:      now,
		Metadata:        models.DocumentMetadata{Size: stat.Size()},
	}

	if _, err := s.documents.InsertOne(ctx, doc); err != nil {
		return nil, false, fmt.Errorf("failed to insert document: %w", err)
	}
	return &doc, true, nil
}

// ProcessDocument runs the ingestion pipeline for one registered
// document, looked up by its document ID.
func (s *IngestService) ProcessDocument(ctx context.Context, documentID string) error {
	var doc models.Document
	if err := s.documents.FindOne(ctx, bson.M{"document_id": documentID}).Decode(&doc); err != nil {
		return fmt.Errorf("document %s not found: %w", documentID, err)
	}

	start := time.Now()
	if err := s.setStatus(ctx, documentID, models.StatusProcessing, ""); err != nil {
		return err
	}

	result, err := s.extract(ctx, &doc)
	if err != nil {
		s.setStatus(ctx, documentID, models.StatusFailed, err.Error())
		return fmt.Errorf("extraction failed for %s: %w", documentID, err)
	}

	chunks, err := s.buildChunks(ctx, &doc, result)
	if err != nil {
		s.setStatus(ctx, documentID, models.StatusFailed, err.Error())
		return fmt.Errorf("chunking failed for %s: %w", documentID, err)
	}

	if err := s.store.UpsertChunks(ctx, chunks); err != nil {
		s.setStatus(ctx, documentID, models.StatusFailed, err.Error())
		return err
	}

	now := time.Now().UTC()
	update := bson.M{
		"status":            models.StatusCompleted,
		"status_updated_at": now,
		"error_message":     "",
		"total_pages":       result.TotalPages,
		"chunk_count":       len(chunks),
		"processed_at":      now,
		"metadata.processing_time":   time.Since(start),
		"metadata.extraction_method": result.Method,
		"metadata.word_count":        result.WordCount,
		"metadata.character_count":   result.CharacterCount,
	}
	if _, err := s.documents.UpdateOne(ctx, bson.M{"document_id": documentID}, bson.M{"$set": update}); err != nil {
		return fmt.Errorf("failed to finalize document %s: %w", documentID, err)
	}

	logger.Info("Document ingested",
		"document_id", documentID,
		"type", doc.Type,
		"pages", result.TotalPages,
		"chunks", len(chunks),
		"method", result.Method,
		"duration", time.Since(start))
	return nil
}

func (s *IngestService) extract(ctx context.Context, doc *models.Document) (*ExtractionResult, error) {
	path := filepath.Join(s.cfg.FileStorageDir, doc.StorageKey)

	switch doc.Type {
	case models.DocTypePDF:
		result, err := s.extractor.ExtractPages(ctx, path)
		if err == nil && result.QualityScore >= 0.3 {
			return result, nil
		}
		// Scanned PDFs come back empty or garbled, hand them to OCR.
		if s.cfg.OCRServiceEnabled {
			logger.Info("Native PDF extraction insufficient, trying OCR",
				"document_id", doc.DocumentID, "error", err)
			if ocrResult, ocrErr := s.ocr.ExtractPages(ctx, path); ocrErr == nil {
				return ocrResult, nil
			}
		}
		if err != nil {
			return nil, err
		}
		return result, nil

	case models.DocTypeText:
		return extractPlainText(path)

	case models.DocTypeImage:
		return s.ocr.ExtractPages(ctx, path)

	default:
		return nil, fmt.Errorf("unsupported document type %q", doc.Type)
	}
}

func (s *IngestService) buildChunks(ctx context.Context, doc *models.Document, result *ExtractionResult) ([]models.DocChunk, error) {
	var pieces []ChunkPiece
	for _, page := range result.Pages {
		pieces = append(pieces, s.chunker.ChunkPage(page.Text, page.Number, result.TotalPages)...)
	}
	if len(pieces) == 0 {
		return nil, fmt.Errorf("no chunkable text extracted")
	}

	now := time.Now().UTC()
	chunks := make([]models.DocChunk, len(pieces))
	for i, p := range pieces {
		ch := models.DocChunk{
			ChunkID:         utils.ChunkID(doc.StorageKey, p.PageNumber, p.Text),
			DocumentID:      doc.DocumentID,
			StorageKey:      doc.StorageKey,
			FileName:        doc.FileName,
			Source:          doc.Source,
			PageNumber:      p.PageNumber,
			TotalPages:      result.TotalPages,
			ChunkIndex:      p.ChunkIndex,
			TotalChunks:     p.TotalChunks,
			Entities:        p.Entities,
			PublicationDate: doc.PublicationDate,
			CreatedAt:       now,
		}

		compressed, algorithm, err := utils.CompressText(p.Text)
		if err != nil || algorithm == utils.CompressionNone {
			ch.Text = p.Text
		} else {
			ch.TextCompressed = compressed
			ch.Compression = string(algorithm)
		}
		chunks[i] = ch
	}

	if s.embedder != nil {
		if err := s.embedChunks(ctx, pieces, chunks); err != nil {
			return nil, err
		}
	}
	return chunks, nil
}

func (s *IngestService) embedChunks(ctx context.Context, pieces []ChunkPiece, chunks []models.DocChunk) error {
	for start := 0; start < len(pieces); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(pieces) {
			end = len(pieces)
		}

		texts := make([]string, end-start)
		for i := start; i < end; i++ {
			texts[i-start] = pieces[i].Text
		}

		vectors, err := s.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return fmt.Errorf("embedding batch %d-%d failed: %w", start, end, err)
		}
		for i, v := range vectors {
			chunks[start+i].Vector = v
		}
	}
	return nil
}

// setStatus records a status transition. The timestamp is what the
// stuck-document sweep ages on, so every transition must stamp it.
func (s *IngestService) setStatus(ctx context.Context, documentID, status, errMsg string) error {
	update := bson.M{
		"status":            status,
		"status_updated_at": time.Now().UTC(),
	}
	if errMsg != "" {
		update["error_message"] = errMsg
	}
	_, err := s.documents.UpdateOne(ctx,
		bson.M{"document_id": documentID},
		bson.M{"$set": update},
	)
	if err != nil {
		return fmt.Errorf("failed to set status %s on %s: %w", status, documentID, err)
	}
	return nil
}

// extractPlainText reads a text file as a single page. Files that are
// not valid UTF-8 are re-decoded as Latin-1, which covers the usual
// legacy archive exports.
func extractPlainText(path string) (*ExtractionResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read text file: %w", err)
	}

	text := string(data)
	method := models.ExtractionMethodPlain
	if !utf8.Valid(data) {
		decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
		if err != nil {
			return nil, fmt.Errorf("failed to decode text file: %w", err)
		}
		text = string(decoded)
	}

	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("text file is empty")
	}

	return &ExtractionResult{
		Pages:          []PageText{{Number: 1, Text: text}},
		TotalPages:     1,
		Method:         method,
		QualityScore:   evaluateTextQuality(text),
		WordCount:      len(strings.Fields(text)),
		CharacterCount: len(text),
	}, nil
}

// documentIDFromFileName derives the citable document ID from the file
// stem, uppercased with spaces collapsed so it round-trips through the
// citation pattern.
func documentIDFromFileName(fileName string) string {
	stem := strings.TrimSuffix(fileName, filepath.Ext(fileName))
	stem = strings.ToUpper(stem)
	replacer := strings.NewReplacer(" ", "_", ".", "_", "(", "", ")", "", ",", "")
	return replacer.Replace(stem)
}
