package services

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/hibiken/asynq"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"document-rag-platform/internal/ai"
	"document-rag-platform/internal/logger"
	"document-rag-platform/models"
)

// stuckThreshold is how long a document may sit in "processing" before
// the sweep assumes its worker died and requeues it.
const stuckThreshold = 30 * time.Minute

// Maintenance runs the periodic housekeeping jobs: requeueing stuck
// documents and reporting daily token usage.
type Maintenance struct {
	scheduler   *gocron.Scheduler
	documents   *mongo.Collection
	queueClient *asynq.Client
	gemini      *ai.GeminiClient
	enqueue     func(docType, documentID, storageKey string) (*asynq.Task, error)
}

func NewMaintenance(db *mongo.Database, queueClient *asynq.Client, gemini *ai.GeminiClient) *Maintenance {
	s := gocron.NewScheduler(time.UTC)
	s.TagsUnique()

	return &Maintenance{
		scheduler:   s,
		documents:   db.Collection("documents"),
		queueClient: queueClient,
		gemini:      gemini,
	}
}

// SetTaskBuilder injects the queue task constructor. Wired at startup
// to avoid an import cycle between services and the queue package.
func (m *Maintenance) SetTaskBuilder(build func(docType, documentID, storageKey string) (*asynq.Task, error)) {
	m.enqueue = build
}

// Start schedules the jobs and runs the scheduler in the background.
func (m *Maintenance) Start() error {
	if _, err := m.scheduler.Every(10 * time.Minute).Tag("requeue-stuck").Do(m.RequeueStuckDocuments); err != nil {
		return err
	}
	if _, err := m.scheduler.Every(24 * time.Hour).Tag("token-usage").Do(m.LogTokenUsage); err != nil {
		return err
	}

	m.scheduler.StartAsync()
	logger.Info("Maintenance scheduler started")
	return nil
}

func (m *Maintenance) Stop() {
	m.scheduler.Stop()
}

// stuckFilter matches documents whose processing transition is older
// than the cutoff. Aging on the status timestamp, not the upload time:
// a document queued behind a long batch enters processing well after
// upload and must not be swept while a worker holds it.
func stuckFilter(cutoff time.Time) bson.M {
	return bson.M{
		"status":            models.StatusProcessing,
		"status_updated_at": bson.M{"$lt": cutoff},
	}
}

// RequeueStuckDocuments resets documents stuck in processing back to
// pending and enqueues them again.
func (m *Maintenance) RequeueStuckDocuments() error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	cutoff := time.Now().UTC().Add(-stuckThreshold)
	cursor, err := m.documents.Find(ctx, stuckFilter(cutoff))
	if err != nil {
		logger.Error("Stuck document sweep failed", "error", err)
		return err
	}
	defer cursor.Close(ctx)

	requeued := 0
	for cursor.Next(ctx) {
		var doc models.Document
		if err := cursor.Decode(&doc); err != nil {
			continue
		}

		if _, err := m.documents.UpdateOne(ctx,
			bson.M{"document_id": doc.DocumentID, "status": models.StatusProcessing},
			bson.M{"$set": bson.M{
				"status":            models.StatusPending,
				"status_updated_at": time.Now().UTC(),
			}},
		); err != nil {
			logger.Warn("Failed to reset stuck document", "document_id", doc.DocumentID, "error", err)
			continue
		}

		if m.enqueue == nil || m.queueClient == nil {
			continue
		}
		task, err := m.enqueue(doc.Type, doc.DocumentID, doc.StorageKey)
		if err != nil {
			logger.Warn("Failed to build requeue task", "document_id", doc.DocumentID, "error", err)
			continue
		}
		if _, err := m.queueClient.Enqueue(task); err != nil {
			logger.Warn("Failed to requeue document", "document_id", doc.DocumentID, "error", err)
			continue
		}
		requeued++
	}

	if requeued > 0 {
		logger.Info("Requeued stuck documents", "count", requeued)
	}
	return cursor.Err()
}

// LogTokenUsage records the day's Gemini consumption.
func (m *Maintenance) LogTokenUsage() error {
	if m.gemini == nil {
		return nil
	}
	tokens, requests := m.gemini.Usage().DailyUsage()
	logger.Info("Daily Gemini usage", "tokens", tokens, "requests", requests)
	return nil
}
