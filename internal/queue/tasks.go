package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"document-rag-platform/internal/logger"
	"document-rag-platform/models"
	"document-rag-platform/services"
)

const (
	TaskIngestPDF   = "ingest:pdf"
	TaskIngestText  = "ingest:text"
	TaskIngestImage = "ingest:image"
)

// IngestPayload identifies the document a worker should process.
type IngestPayload struct {
	DocumentID string `json:"document_id"`
	StorageKey string `json:"storage_key"`
}

// NewIngestTask builds the queue task for a registered document. PDFs
// go to the critical queue since curators wait on them; bulk text and
// image ingestion runs at lower priority.
func NewIngestTask(docType, documentID, storageKey string) (*asynq.Task, error) {
	payload, err := json.Marshal(IngestPayload{
		DocumentID: documentID,
		StorageKey: storageKey,
	})
	if err != nil {
		return nil, err
	}

	switch docType {
	case models.DocTypePDF:
		return asynq.NewTask(
			TaskIngestPDF,
			payload,
			asynq.MaxRetry(3),
			asynq.Timeout(10*time.Minute),
			asynq.Queue("critical"),
		), nil
	case models.DocTypeText:
		return asynq.NewTask(
			TaskIngestText,
			payload,
			asynq.MaxRetry(3),
			asynq.Timeout(5*time.Minute),
			asynq.Queue("default"),
		), nil
	case models.DocTypeImage:
		// OCR is slow and the sidecar serializes work anyway.
		return asynq.NewTask(
			TaskIngestImage,
			payload,
			asynq.MaxRetry(2),
			asynq.Timeout(15*time.Minute),
			asynq.Queue("low"),
		), nil
	default:
		return nil, fmt.Errorf("unsupported document type %q", docType)
	}
}

// TaskProcessor wires queue tasks to the ingestion service.
type TaskProcessor struct {
	ingest *services.IngestService
}

func NewTaskProcessor(ingest *services.IngestService) *TaskProcessor {
	return &TaskProcessor{ingest: ingest}
}

// Register attaches all handlers to the worker mux.
func (p *TaskProcessor) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(TaskIngestPDF, p.HandleIngest)
	mux.HandleFunc(TaskIngestText, p.HandleIngest)
	mux.HandleFunc(TaskIngestImage, p.HandleIngest)
}

// HandleIngest processes one ingestion task. The pipeline dispatches on
// the stored document type, so all three task types share a handler.
func (p *TaskProcessor) HandleIngest(ctx context.Context, t *asynq.Task) error {
	var payload IngestPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal ingest payload: %v: %w", err, asynq.SkipRetry)
	}

	logger.Info("Processing ingestion task",
		"type", t.Type(), "document_id", payload.DocumentID)

	if err := p.ingest.ProcessDocument(ctx, payload.DocumentID); err != nil {
		logger.Error("Ingestion task failed",
			"type", t.Type(), "document_id", payload.DocumentID, "error", err)
		return err
	}
	return nil
}
