package models

import (
	"encoding/json"
	"testing"
)

func TestUploadResponseJSON(t *testing.T) {
	data, err := json.Marshal(UploadResponse{
		DocumentID: "DOC-1",
		FileName:   "doc.pdf",
		Status:     StatusPending,
		Message:    "Document accepted and queued for processing",
	})
	if err != nil {
		t.Fatal(err)
	}

	var fields map[string]interface{}
	if err := json.Unmarshal(data, &fields); err != nil {
		t.Fatal(err)
	}

	if fields["document_id"] != "DOC-1" || fields["status"] != StatusPending {
		t.Errorf("unexpected fields: %v", fields)
	}
	if _, ok := fields["id"]; ok {
		t.Error("upload response must not carry an unpopulated id field")
	}
	if _, ok := fields["task_id"]; ok {
		t.Error("empty task_id should be omitted")
	}
}
