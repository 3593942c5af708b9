package queue

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/hibiken/asynq"

	"document-rag-platform/models"
)

func TestNewIngestTaskRouting(t *testing.T) {
	tests := []struct {
		docType  string
		taskType string
	}{
		{models.DocTypePDF, TaskIngestPDF},
		{models.DocTypeText, TaskIngestText},
		{models.DocTypeImage, TaskIngestImage},
	}

	for _, tt := range tests {
		task, err := NewIngestTask(tt.docType, "DOC-1", "organized/pdfs/a.pdf")
		if err != nil {
			t.Fatalf("%s: NewIngestTask failed: %v", tt.docType, err)
		}
		if task.Type() != tt.taskType {
			t.Errorf("%s: unexpected task type %q", tt.docType, task.Type())
		}
	}

	if _, err := NewIngestTask("video", "DOC-1", "a.mp4"); err == nil {
		t.Error("expected error for unsupported document type")
	}
}

func TestHandleIngestMalformedPayload(t *testing.T) {
	p := NewTaskProcessor(nil)
	task := asynq.NewTask(TaskIngestPDF, []byte("{not json"))

	err := p.HandleIngest(context.Background(), task)
	if err == nil {
		t.Fatal("expected error for malformed payload")
	}
	if !errors.Is(err, asynq.SkipRetry) {
		t.Errorf("malformed payload must not be retried: %v", err)
	}
	// The decode failure itself must survive into the error text.
	if !strings.Contains(err.Error(), "invalid character") {
		t.Errorf("decode detail missing from error: %v", err)
	}
}
