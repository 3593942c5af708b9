package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Document represents one ingested source file (PDF, text, or scanned image).
type Document struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	DocumentID      string             `bson:"document_id" json:"document_id"` // file stem, cited by the LLM
	FileName        string             `bson:"file_name" json:"file_name"`
	StorageKey      string             `bson:"storage_key" json:"storage_key"` // path under the storage root, e.g. organized/pdfs/dataset1_x.pdf
	FileHash        string             `bson:"file_hash" json:"file_hash"`     // for deduplication
	Type            string             `bson:"type" json:"type"`               // pdf, text, image
	Source          string             `bson:"source" json:"source"`           // human-readable source label
	TotalPages      int                `bson:"total_pages" json:"total_pages"`
	ChunkCount      int                `bson:"chunk_count" json:"chunk_count"`
	PublicationDate string             `bson:"publication_date" json:"publication_date"`
	Status          string             `bson:"status" json:"status"`                       // pending, processing, completed, failed
	StatusUpdatedAt time.Time          `bson:"status_updated_at" json:"status_updated_at"` // stamped on every status transition
	ErrorMessage    string             `bson:"error_message,omitempty" json:"error_message,omitempty"`
	UploadedAt      time.Time          `bson:"uploaded_at" json:"uploaded_at"`
	ProcessedAt     *time.Time         `bson:"processed_at,omitempty" json:"processed_at,omitempty"`
	Metadata        DocumentMetadata   `bson:"metadata" json:"metadata"`
}

// DocumentMetadata carries extraction details recorded during ingestion.
type DocumentMetadata struct {
	Size             int64         `bson:"size" json:"size"`
	ProcessingTime   time.Duration `bson:"processing_time" json:"processing_time"`
	ExtractionMethod string        `bson:"extraction_method" json:"extraction_method"`
	WordCount        int           `bson:"word_count" json:"word_count"`
	CharacterCount   int           `bson:"character_count" json:"character_count"`
}

// DocChunk is one embedded text chunk in the doc_chunks collection, the
// unit retrieved by vector search. ChunkID is deterministic
// (md5 of storage key + page + text) so re-ingestion upserts in place.
type DocChunk struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ChunkID         string             `bson:"chunk_id" json:"chunk_id"`
	DocumentID      string             `bson:"document_id" json:"document_id"`
	StorageKey      string             `bson:"storage_key" json:"storage_key"`
	FileName        string             `bson:"file_name" json:"file_name"`
	Source          string             `bson:"source" json:"source"`
	PageNumber      int                `bson:"page_number" json:"page_number"`
	TotalPages      int                `bson:"total_pages" json:"total_pages"`
	ChunkIndex      int                `bson:"chunk_index" json:"chunk_index"`
	TotalChunks     int                `bson:"total_chunks" json:"total_chunks"`
	Text            string             `bson:"text,omitempty" json:"text"`
	TextCompressed  []byte             `bson:"text_compressed,omitempty" json:"-"`
	Compression     string             `bson:"compression,omitempty" json:"-"`
	Entities        []string           `bson:"entities,omitempty" json:"entities,omitempty"`
	PublicationDate string             `bson:"publication_date" json:"publication_date"`
	Vector          []float32          `bson:"vector,omitempty" json:"-"`
	CreatedAt       time.Time          `bson:"created_at" json:"created_at"`
}

// UploadResponse is returned after a curator upload is accepted.
type UploadResponse struct {
	DocumentID string `json:"document_id"`
	FileName   string `json:"file_name"`
	Status     string `json:"status"`
	Message    string `json:"message"`
	TaskID     string `json:"task_id,omitempty"`
}

// Document processing status constants.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// Document type constants.
const (
	DocTypePDF   = "pdf"
	DocTypeText  = "text"
	DocTypeImage = "image"
)

// Extraction method constants.
const (
	ExtractionMethodGoPDF   = "go-pdf"
	ExtractionMethodPoppler = "poppler"
	ExtractionMethodOCR     = "ocr"
	ExtractionMethodPlain   = "plain-text"
)
