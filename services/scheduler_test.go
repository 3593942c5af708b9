package services

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"document-rag-platform/models"
)

func TestStuckFilterAgesOnStatusTransition(t *testing.T) {
	cutoff := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	filter := stuckFilter(cutoff)

	if filter["status"] != models.StatusProcessing {
		t.Errorf("sweep must only touch processing documents, got %v", filter["status"])
	}

	age, ok := filter["status_updated_at"].(bson.M)
	if !ok {
		t.Fatalf("sweep must age on the status timestamp, got %v", filter)
	}
	if age["$lt"] != cutoff {
		t.Errorf("unexpected cutoff: %v", age["$lt"])
	}

	// A document uploaded long ago but only just picked up by a worker
	// must not match: the filter may not reference the upload time.
	if _, ok := filter["uploaded_at"]; ok {
		t.Error("sweep must not age on uploaded_at")
	}
}
