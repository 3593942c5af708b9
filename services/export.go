package services

import (
	"context"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"document-rag-platform/internal/logger"
	"document-rag-platform/models"
)

// ExportService builds Excel reports for curators: ingestion state of
// the corpus and chat usage with token costs.
type ExportService struct {
	documents *mongo.Collection
	messages  *mongo.Collection
}

func NewExportService(db *mongo.Database) *ExportService {
	return &ExportService{
		documents: db.Collection("documents"),
		messages:  db.Collection("messages"),
	}
}

// IngestionReport writes one row per document plus a summary sheet and
// returns the workbook bytes.
func (es *ExportService) IngestionReport(ctx context.Context) ([]byte, error) {
	cursor, err := es.documents.Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "uploaded_at", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to load documents: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []models.Document
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			logger.Warn("Failed to close workbook", "error", err)
		}
	}()

	sheetName := "Documents"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}

	headers := []string{
		"Document ID", "File Name", "Type", "Source", "Status",
		"Pages", "Chunks", "Publication Date", "Uploaded At", "Error",
	}
	for i, header := range headers {
		cell := fmt.Sprintf("%c1", 'A'+i)
		f.SetCellValue(sheetName, cell, header)
	}

	statusCounts := map[string]int{}
	totalChunks := 0
	for rowIdx, doc := range docs {
		row := rowIdx + 2
		f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), doc.DocumentID)
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), doc.FileName)
		f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), doc.Type)
		f.SetCellValue(sheetName, fmt.Sprintf("D%d", row), doc.Source)
		f.SetCellValue(sheetName, fmt.Sprintf("E%d", row), doc.Status)
		f.SetCellValue(sheetName, fmt.Sprintf("F%d", row), doc.TotalPages)
		f.SetCellValue(sheetName, fmt.Sprintf("G%d", row), doc.ChunkCount)
		f.SetCellValue(sheetName, fmt.Sprintf("H%d", row), doc.PublicationDate)
		f.SetCellValue(sheetName, fmt.Sprintf("I%d", row), doc.UploadedAt.Format("2006-01-02 15:04:05"))
		f.SetCellValue(sheetName, fmt.Sprintf("J%d", row), doc.ErrorMessage)

		statusCounts[doc.Status]++
		totalChunks += doc.ChunkCount
	}

	for i := range headers {
		col := fmt.Sprintf("%c:%c", 'A'+i, 'A'+i)
		f.SetColWidth(sheetName, col, col, 18)
	}

	summaryName := "Summary"
	if _, err := f.NewSheet(summaryName); err != nil {
		return nil, fmt.Errorf("failed to create summary sheet: %w", err)
	}
	summaryRows := [][]interface{}{
		{"Report Date", time.Now().UTC().Format("2006-01-02 15:04:05")},
		{"Total Documents", len(docs)},
		{"Total Chunks", totalChunks},
		{"Completed", statusCounts[models.StatusCompleted]},
		{"Processing", statusCounts[models.StatusProcessing]},
		{"Pending", statusCounts[models.StatusPending]},
		{"Failed", statusCounts[models.StatusFailed]},
	}
	for i, row := range summaryRows {
		for j, cell := range row {
			f.SetCellValue(summaryName, fmt.Sprintf("%c%d", 'A'+j, i+1), cell)
		}
	}

	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// ChatReport writes one row per exchange within the date range.
func (es *ExportService) ChatReport(ctx context.Context, from, to time.Time) ([]byte, error) {
	filter := bson.M{}
	timeRange := bson.M{}
	if !from.IsZero() {
		timeRange["$gte"] = from
	}
	if !to.IsZero() {
		timeRange["$lte"] = to
	}
	if len(timeRange) > 0 {
		filter["timestamp"] = timeRange
	}

	cursor, err := es.messages.Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to load messages: %w", err)
	}
	defer cursor.Close(ctx)

	var msgs []models.Message
	if err := cursor.All(ctx, &msgs); err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			logger.Warn("Failed to close workbook", "error", err)
		}
	}()

	sheetName := "Chat Messages"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}

	headers := []string{
		"Session ID", "Question", "Answer", "Citations",
		"Tokens", "Prompt Tokens", "Completion Tokens", "Timestamp",
	}
	for i, header := range headers {
		f.SetCellValue(sheetName, fmt.Sprintf("%c1", 'A'+i), header)
	}

	totalTokens := 0
	sessions := map[string]struct{}{}
	for rowIdx, msg := range msgs {
		row := rowIdx + 2
		f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), msg.SessionID)
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), msg.Question)
		f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), msg.Answer)
		f.SetCellValue(sheetName, fmt.Sprintf("D%d", row), len(msg.Citations))
		f.SetCellValue(sheetName, fmt.Sprintf("E%d", row), msg.TokensUsed)
		f.SetCellValue(sheetName, fmt.Sprintf("F%d", row), msg.PromptTokens)
		f.SetCellValue(sheetName, fmt.Sprintf("G%d", row), msg.CompletionTokens)
		f.SetCellValue(sheetName, fmt.Sprintf("H%d", row), msg.Timestamp.Format("2006-01-02 15:04:05"))

		totalTokens += msg.TokensUsed
		sessions[msg.SessionID] = struct{}{}
	}

	for i := range headers {
		col := fmt.Sprintf("%c:%c", 'A'+i, 'A'+i)
		f.SetColWidth(sheetName, col, col, 20)
	}

	summaryName := "Summary"
	if _, err := f.NewSheet(summaryName); err != nil {
		return nil, fmt.Errorf("failed to create summary sheet: %w", err)
	}
	summaryRows := [][]interface{}{
		{"Report Date", time.Now().UTC().Format("2006-01-02 15:04:05")},
		{"Total Exchanges", len(msgs)},
		{"Unique Sessions", len(sessions)},
		{"Total Tokens", totalTokens},
	}
	for i, row := range summaryRows {
		for j, cell := range row {
			f.SetCellValue(summaryName, fmt.Sprintf("%c%d", 'A'+j, i+1), cell)
		}
	}

	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize workbook: %w", err)
	}
	return buf.Bytes(), nil
}
