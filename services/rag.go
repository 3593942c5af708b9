package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"document-rag-platform/internal/ai"
	"document-rag-platform/internal/auth"
	"document-rag-platform/internal/config"
	"document-rag-platform/internal/logger"
	"document-rag-platform/models"
)

// RAGService runs the question answering pipeline: contextualize the
// question, retrieve chunks, assemble the document context, generate a
// cited answer, and persist the exchange.
type RAGService struct {
	cfg       *config.Config
	messages  *mongo.Collection
	documents *mongo.Collection
	store     *VectorStore
	gemini    *ai.GeminiClient
	embedder  *ai.Embedder
}

func NewRAGService(db *mongo.Database, cfg *config.Config, store *VectorStore, gemini *ai.GeminiClient, embedder *ai.Embedder) *RAGService {
	return &RAGService{
		cfg:       cfg,
		messages:  db.Collection("messages"),
		documents: db.Collection("documents"),
		store:     store,
		gemini:    gemini,
		embedder:  embedder,
	}
}

// Answer handles one chat turn and returns the full response contract.
func (s *RAGService) Answer(ctx context.Context, req models.ChatRequest) (*models.ChatResponse, error) {
	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.New().String()
	}

	history, err := s.loadHistory(ctx, sessionID)
	if err != nil {
		logger.Warn("Failed to load conversation history", "session_id", sessionID, "error", err)
	}

	standalone, ctxUsage, err := s.gemini.ContextualizeQuestion(ctx, req.Message, history)
	if err != nil {
		logger.Warn("Question contextualization failed, using raw question", "error", err)
		standalone, ctxUsage = req.Message, &ai.GenerateResult{}
	}

	var queryVector []float32
	if s.cfg.VectorSearchEnabled {
		queryVector, err = s.embedder.Embed(ctx, standalone)
		if err != nil {
			logger.Warn("Query embedding failed, falling back to keyword retrieval", "error", err)
		}
	}

	hits, err := s.store.Search(ctx, queryVector, standalone, s.cfg.RetrievalTopK)
	if err != nil {
		return nil, fmt.Errorf("retrieval failed: %w", err)
	}

	docs, err := s.documentsFor(ctx, hits)
	if err != nil {
		logger.Warn("Failed to load document metadata for hits", "error", err)
		docs = map[string]models.Document{}
	}
	for i := range hits {
		if d, ok := docs[hits[i].DocumentID]; ok {
			hits[i].SourceName = d.Source
			hits[i].PublicationDate = d.PublicationDate
		}
	}

	resolve := s.linkResolver(docs)
	docContext := BuildContext(hits, resolve)

	result, err := s.gemini.GenerateAnswer(ctx, standalone, docContext, history)
	if err != nil {
		return nil, fmt.Errorf("answer generation failed: %w", err)
	}

	citations := ParseCitations(result.Text)
	citationMap := BuildCitationMap(citations, resolve)
	answer := AppendSources(result.Text, citations, resolve)
	sources := BuildSources(citations, hits, resolve)

	resp := &models.ChatResponse{
		Answer:           answer,
		Citations:        citationMap,
		Sources:          sources,
		TokensUsed:       result.TotalTokens + ctxUsage.TotalTokens,
		PromptTokens:     result.PromptTokens + ctxUsage.PromptTokens,
		CompletionTokens: result.CompletionTokens + ctxUsage.CompletionTokens,
		SessionID:        sessionID,
		Timestamp:        time.Now().UTC(),
	}

	if err := s.saveMessage(ctx, sessionID, req.Message, resp); err != nil {
		// The answer already exists, losing history beats losing the turn.
		logger.Error("Failed to persist chat message", "session_id", sessionID, "error", err)
	}

	return resp, nil
}

// GetConversation returns the full message history for a session.
func (s *RAGService) GetConversation(ctx context.Context, sessionID string) (*models.ConversationHistory, error) {
	cursor, err := s.messages.Find(ctx,
		bson.M{"session_id": sessionID},
		options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load conversation %s: %w", sessionID, err)
	}
	defer cursor.Close(ctx)

	var msgs []models.Message
	if err := cursor.All(ctx, &msgs); err != nil {
		return nil, err
	}
	if len(msgs) == 0 {
		return nil, mongo.ErrNoDocuments
	}

	conv := &models.ConversationHistory{
		SessionID: sessionID,
		Messages:  msgs,
		CreatedAt: msgs[0].Timestamp,
		UpdatedAt: msgs[len(msgs)-1].Timestamp,
	}
	for _, m := range msgs {
		conv.TotalTokens += m.TokensUsed
	}
	return conv, nil
}

// loadHistory returns the most recent exchanges, oldest first, capped
// at the configured depth so the prompt stays small.
func (s *RAGService) loadHistory(ctx context.Context, sessionID string) ([]ai.HistoryTurn, error) {
	cursor, err := s.messages.Find(ctx,
		bson.M{"session_id": sessionID},
		options.Find().
			SetSort(bson.D{{Key: "timestamp", Value: -1}}).
			SetLimit(int64(s.cfg.HistoryDepth)),
	)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var msgs []models.Message
	if err := cursor.All(ctx, &msgs); err != nil {
		return nil, err
	}

	turns := make([]ai.HistoryTurn, 0, len(msgs))
	for i := len(msgs) - 1; i >= 0; i-- {
		turns = append(turns, ai.HistoryTurn{
			Question: msgs[i].Question,
			Answer:   msgs[i].Answer,
		})
	}
	return turns, nil
}

func (s *RAGService) saveMessage(ctx context.Context, sessionID, question string, resp *models.ChatResponse) error {
	_, err := s.messages.InsertOne(ctx, models.Message{
		SessionID:        sessionID,
		Question:         question,
		Answer:           resp.Answer,
		Citations:        resp.Citations,
		TokensUsed:       resp.TokensUsed,
		PromptTokens:     resp.PromptTokens,
		CompletionTokens: resp.CompletionTokens,
		Timestamp:        resp.Timestamp,
	})
	return err
}

// documentsFor loads the documents referenced by the hits, keyed by
// document ID.
func (s *RAGService) documentsFor(ctx context.Context, hits []RetrievedChunk) (map[string]models.Document, error) {
	ids := make([]string, 0, len(hits))
	seen := make(map[string]struct{}, len(hits))
	for _, h := range hits {
		if _, ok := seen[h.DocumentID]; ok {
			continue
		}
		seen[h.DocumentID] = struct{}{}
		ids = append(ids, h.DocumentID)
	}
	if len(ids) == 0 {
		return map[string]models.Document{}, nil
	}

	cursor, err := s.documents.Find(ctx, bson.M{"document_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	docs := make(map[string]models.Document, len(ids))
	for cursor.Next(ctx) {
		var d models.Document
		if err := cursor.Decode(&d); err != nil {
			continue
		}
		docs[d.DocumentID] = d
	}
	return docs, cursor.Err()
}

// linkResolver signs a time-limited download link for each cited
// document. Documents without a stored file resolve to "".
func (s *RAGService) linkResolver(docs map[string]models.Document) LinkResolver {
	ttl := time.Duration(s.cfg.FileLinkTTL) * time.Second
	cache := make(map[string]string, len(docs))

	return func(documentID string) string {
		if url, ok := cache[documentID]; ok {
			return url
		}
		d, ok := docs[documentID]
		if !ok || d.StorageKey == "" {
			cache[documentID] = ""
			return ""
		}
		token, err := auth.SignFileLink([]byte(s.cfg.JWTSecret), d.DocumentID, d.StorageKey, ttl)
		if err != nil {
			logger.Warn("Failed to sign file link", "document_id", documentID, "error", err)
			cache[documentID] = ""
			return ""
		}
		url := fmt.Sprintf("%s/files/%s?token=%s", strings.TrimRight(s.cfg.PublicBaseURL, "/"), d.DocumentID, token)
		cache[documentID] = url
		return url
	}
}

// BuildContext formats retrieved chunks into the prompt context. Chunks
// are grouped per document page and separated so the model can tell
// passages apart, each group headed by the metadata the citation
// format depends on.
func BuildContext(hits []RetrievedChunk, resolve LinkResolver) string {
	if len(hits) == 0 {
		return "No relevant documents were found for this question."
	}

	type pageKey struct {
		documentID string
		page       int
	}
	type pageGroup struct {
		key   pageKey
		first RetrievedChunk
		texts []string
	}

	index := make(map[pageKey]int, len(hits))
	var groups []pageGroup
	for _, h := range hits {
		k := pageKey{documentID: h.DocumentID, page: h.PageNumber}
		if i, ok := index[k]; ok {
			groups[i].texts = append(groups[i].texts, h.Text)
			continue
		}
		index[k] = len(groups)
		groups = append(groups, pageGroup{key: k, first: h, texts: []string{h.Text}})
	}

	var b strings.Builder
	for i, g := range groups {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "=== DOCUMENT %d ===\n", i+1)
		if g.first.SourceName != "" {
			fmt.Fprintf(&b, "Source: %s\n", g.first.SourceName)
		}
		fmt.Fprintf(&b, "Document ID: %s\n", g.key.documentID)
		fmt.Fprintf(&b, "Page: %d\n", g.key.page)
		if g.first.PublicationDate != "" {
			fmt.Fprintf(&b, "Date: %s\n", g.first.PublicationDate)
		}
		link := resolve(g.key.documentID)
		if link == "" {
			link = NoLink
		}
		fmt.Fprintf(&b, "Link: %s\n\n", link)
		b.WriteString(strings.Join(g.texts, "\n\n---\n\n"))
	}
	return b.String()
}
