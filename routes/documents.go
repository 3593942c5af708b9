package routes

import (
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"document-rag-platform/internal/config"
	"document-rag-platform/internal/logger"
	"document-rag-platform/internal/queue"
	"document-rag-platform/middleware"
	"document-rag-platform/models"
	"document-rag-platform/services"
	"document-rag-platform/utils"
)

// SetupDocumentRoutes registers the curator-facing document management
// endpoints: upload, listing, status, and deletion.
func SetupDocumentRoutes(
	router *gin.Engine,
	cfg *config.Config,
	db *mongo.Database,
	ingest *services.IngestService,
	store *services.VectorStore,
	queueClient *asynq.Client,
	authMiddleware *middleware.AuthMiddleware,
) {
	documents := db.Collection("documents")

	group := router.Group("/documents")
	group.Use(authMiddleware.RequireAuth())

	group.POST("/upload", func(c *gin.Context) {
		fileHeader, err := c.FormFile("file")
		if err != nil {
			utils.RespondWithBadRequest(c, "A file is required", nil)
			return
		}

		if fileHeader.Size > cfg.MaxFileSize {
			utils.RespondWithFileTooLarge(c, cfg.MaxFileSize)
			return
		}

		docType := docTypeFor(fileHeader.Filename, fileHeader.Header.Get("Content-Type"))
		if docType == "" {
			utils.RespondWithBadRequest(c, "Unsupported file type",
				gin.H{"allowed": cfg.AllowedTypes})
			return
		}

		source := c.PostForm("source")
		if source == "" {
			source = "curator upload"
		}

		storageKey := storageKeyFor(docType, c.PostForm("dataset"), fileHeader.Filename)
		dest := filepath.Join(cfg.FileStorageDir, storageKey)
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			utils.RespondWithInternalError(c, "Failed to prepare storage", nil)
			return
		}
		if err := c.SaveUploadedFile(fileHeader, dest); err != nil {
			utils.RespondWithInternalError(c, "Failed to store file", nil)
			return
		}

		doc, created, err := ingest.RegisterDocument(c.Request.Context(), storageKey, fileHeader.Filename, docType, source)
		if err != nil {
			os.Remove(dest)
			utils.RespondWithInternalError(c, "Failed to register document", nil)
			return
		}
		if !created {
			// Same content already ingested, drop the duplicate copy
			// unless it landed on the original's own path.
			if storageKey != doc.StorageKey {
				os.Remove(dest)
			}
			c.JSON(http.StatusOK, models.UploadResponse{
				DocumentID: doc.DocumentID,
				FileName:   doc.FileName,
				Status:     doc.Status,
				Message:    "An identical file was already uploaded",
			})
			return
		}

		task, err := queue.NewIngestTask(docType, doc.DocumentID, doc.StorageKey)
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to build ingestion task", nil)
			return
		}
		info, err := queueClient.Enqueue(task)
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to queue document for processing", nil)
			return
		}

		logger.Info("Document queued for ingestion",
			"document_id", doc.DocumentID,
			"type", docType,
			"task_id", info.ID,
			"curator", middleware.GetCuratorID(c))

		c.JSON(http.StatusAccepted, models.UploadResponse{
			DocumentID: doc.DocumentID,
			FileName:   doc.FileName,
			Status:     doc.Status,
			Message:    "Document accepted and queued for processing",
			TaskID:     info.ID,
		})
	})

	group.GET("", func(c *gin.Context) {
		filter := bson.M{}
		if status := c.Query("status"); status != "" {
			filter["status"] = status
		}
		if docType := c.Query("type"); docType != "" {
			filter["type"] = docType
		}

		page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
		if page < 1 {
			page = 1
		}
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
		if limit < 1 || limit > 200 {
			limit = 50
		}

		total, err := documents.CountDocuments(c.Request.Context(), filter)
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to count documents", nil)
			return
		}

		cursor, err := documents.Find(c.Request.Context(), filter,
			options.Find().
				SetSort(bson.D{{Key: "uploaded_at", Value: -1}}).
				SetSkip(int64((page-1)*limit)).
				SetLimit(int64(limit)),
		)
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to list documents", nil)
			return
		}
		defer cursor.Close(c.Request.Context())

		docs := make([]models.Document, 0, limit)
		if err := cursor.All(c.Request.Context(), &docs); err != nil {
			utils.RespondWithInternalError(c, "Failed to decode documents", nil)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"documents": docs,
			"total":     total,
			"page":      page,
			"limit":     limit,
		})
	})

	group.GET("/:document_id/status", func(c *gin.Context) {
		var doc models.Document
		err := documents.FindOne(c.Request.Context(),
			bson.M{"document_id": c.Param("document_id")}).Decode(&doc)
		if err == mongo.ErrNoDocuments {
			utils.RespondWithDocumentNotFound(c, c.Param("document_id"))
			return
		}
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to load document", nil)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"document_id":   doc.DocumentID,
			"status":        doc.Status,
			"error_message": doc.ErrorMessage,
			"total_pages":   doc.TotalPages,
			"chunk_count":   doc.ChunkCount,
			"processed_at":  doc.ProcessedAt,
		})
	})

	group.DELETE("/:document_id", func(c *gin.Context) {
		documentID := c.Param("document_id")

		var doc models.Document
		err := documents.FindOne(c.Request.Context(),
			bson.M{"document_id": documentID}).Decode(&doc)
		if err == mongo.ErrNoDocuments {
			utils.RespondWithDocumentNotFound(c, documentID)
			return
		}
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to load document", nil)
			return
		}

		deleted, err := store.DeleteDocumentChunks(c.Request.Context(), documentID)
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to delete document chunks", nil)
			return
		}
		if _, err := documents.DeleteOne(c.Request.Context(), bson.M{"document_id": documentID}); err != nil {
			utils.RespondWithInternalError(c, "Failed to delete document", nil)
			return
		}
		if doc.StorageKey != "" {
			if err := os.Remove(filepath.Join(cfg.FileStorageDir, doc.StorageKey)); err != nil && !os.IsNotExist(err) {
				logger.Warn("Failed to remove stored file", "storage_key", doc.StorageKey, "error", err)
			}
		}

		logger.Info("Document deleted",
			"document_id", documentID,
			"chunks_deleted", deleted,
			"curator", middleware.GetCuratorID(c))

		c.JSON(http.StatusOK, gin.H{
			"document_id":    documentID,
			"chunks_deleted": deleted,
		})
	})
}

// docTypeFor maps a filename and declared MIME type to a document type.
func docTypeFor(filename, contentType string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return models.DocTypePDF
	case ".txt", ".text", ".md":
		return models.DocTypeText
	case ".jpg", ".jpeg", ".png", ".tif", ".tiff", ".bmp":
		return models.DocTypeImage
	}

	switch {
	case contentType == "application/pdf":
		return models.DocTypePDF
	case strings.HasPrefix(contentType, "text/"):
		return models.DocTypeText
	case strings.HasPrefix(contentType, "image/"):
		return models.DocTypeImage
	}
	return ""
}

// storageKeyFor organizes files by type and optional dataset label, e.g.
// organized/pdfs/dataset1_report_2023-05-01.pdf.
func storageKeyFor(docType, dataset, filename string) string {
	var category string
	switch docType {
	case models.DocTypePDF:
		category = "pdfs"
	case models.DocTypeText:
		category = "texts"
	case models.DocTypeImage:
		category = "images"
	default:
		category = "other"
	}

	name := filepath.Base(filename)
	if dataset != "" {
		name = dataset + "_" + name
	}
	return filepath.ToSlash(filepath.Join("organized", category, name))
}
